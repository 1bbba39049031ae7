package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slotwise/booking-api/internal/model"
	"github.com/slotwise/booking-api/internal/repository"
	apperr "github.com/slotwise/booking-api/pkg/errors"
)

type fakeOrgRepo struct {
	org *model.Organization
}

func (f *fakeOrgRepo) Create(_ context.Context, _ *model.Organization) error { return nil }
func (f *fakeOrgRepo) Update(_ context.Context, _ *model.Organization) error { return nil }
func (f *fakeOrgRepo) List(_ context.Context) ([]*model.Organization, error) { return nil, nil }

func (f *fakeOrgRepo) Get(_ context.Context, id uuid.UUID) (*model.Organization, error) {
	if f.org == nil || f.org.ID != id {
		return nil, repository.ErrNotFound
	}
	return f.org, nil
}

func (f *fakeOrgRepo) GetByOwner(_ context.Context, userID uuid.UUID) (*model.Organization, error) {
	if f.org == nil || f.org.OwnerUserID != userID {
		return nil, repository.ErrNotFound
	}
	return f.org, nil
}

type fakeApptRepo struct {
	appts []*model.Appointment
}

func (f *fakeApptRepo) Get(_ context.Context, _ uuid.UUID) (*model.Appointment, error) {
	return nil, repository.ErrNotFound
}

func (f *fakeApptRepo) CreateWithQueue(_ context.Context, _ *model.Appointment, _ []repository.QueueUpdate) error {
	return nil
}

func (f *fakeApptRepo) UpdateStatusWithQueue(_ context.Context, _ *model.Appointment, _ []repository.QueueUpdate) error {
	return nil
}

func (f *fakeApptRepo) ListPartition(_ context.Context, _ uuid.UUID, _ time.Time) ([]*model.Appointment, error) {
	return nil, nil
}

func (f *fakeApptRepo) ListForUser(_ context.Context, _ uuid.UUID, _ model.AppointmentStatus) ([]*model.UserAppointment, error) {
	return nil, nil
}

func (f *fakeApptRepo) ListForOrganization(_ context.Context, _ uuid.UUID, _ *model.AppointmentFilters) ([]*model.OrganizationAppointment, error) {
	return nil, nil
}

func (f *fakeApptRepo) CountsForOrganization(_ context.Context, orgID uuid.UUID, today time.Time) (*model.AnalyticsSummary, error) {
	summary := &model.AnalyticsSummary{}
	for _, appt := range f.appts {
		if appt.OrganizationID != orgID {
			continue
		}
		summary.Total++
		if appt.AppointmentDate.Equal(today) {
			summary.Today.Total++
			switch appt.Status {
			case model.AppointmentStatusPending:
				summary.Today.Pending++
			case model.AppointmentStatusCompleted:
				summary.Today.Completed++
			}
		}
	}
	return summary, nil
}

func appointmentOn(orgID uuid.UUID, date time.Time, status model.AppointmentStatus) *model.Appointment {
	return &model.Appointment{
		Base:            model.Base{ID: uuid.New()},
		OrganizationID:  orgID,
		AppointmentDate: date,
		Status:          status,
	}
}

func TestSummarizeCountsTodayAndTotal(t *testing.T) {
	ownerID := uuid.New()
	org := &model.Organization{
		Base:        model.Base{ID: uuid.New()},
		OwnerUserID: ownerID,
	}

	today := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	yesterday := today.AddDate(0, 0, -1)

	appts := &fakeApptRepo{appts: []*model.Appointment{
		appointmentOn(org.ID, today, model.AppointmentStatusPending),
		appointmentOn(org.ID, today, model.AppointmentStatusPending),
		appointmentOn(org.ID, today, model.AppointmentStatusCompleted),
		appointmentOn(org.ID, today, model.AppointmentStatusCancelled),
		appointmentOn(org.ID, yesterday, model.AppointmentStatusCompleted),
		appointmentOn(uuid.New(), today, model.AppointmentStatusPending),
	}}

	svc := NewService(appts, &fakeOrgRepo{org: org})
	svc.now = func() time.Time { return today.Add(13 * time.Hour) }

	summary, err := svc.Summarize(context.Background(), org.ID, ownerID)
	require.NoError(t, err)

	assert.Equal(t, 5, summary.Total)
	assert.Equal(t, 4, summary.Today.Total)
	assert.Equal(t, 2, summary.Today.Pending)
	assert.Equal(t, 1, summary.Today.Completed)
}

func TestSummarizeRequiresOwner(t *testing.T) {
	org := &model.Organization{
		Base:        model.Base{ID: uuid.New()},
		OwnerUserID: uuid.New(),
	}

	svc := NewService(&fakeApptRepo{}, &fakeOrgRepo{org: org})

	_, err := svc.Summarize(context.Background(), org.ID, uuid.New())
	assert.True(t, apperr.IsKind(err, apperr.KindUnauthorized))
}

func TestSummarizeUnknownOrganization(t *testing.T) {
	svc := NewService(&fakeApptRepo{}, &fakeOrgRepo{})

	_, err := svc.Summarize(context.Background(), uuid.New(), uuid.New())
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}
