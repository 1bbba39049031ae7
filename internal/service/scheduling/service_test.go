package scheduling

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slotwise/booking-api/internal/model"
	"github.com/slotwise/booking-api/internal/repository"
	apperr "github.com/slotwise/booking-api/pkg/errors"
	"github.com/slotwise/booking-api/pkg/logger"
	"github.com/slotwise/booking-api/pkg/metrics"
)

type fakeOrgRepo struct {
	orgs map[uuid.UUID]*model.Organization
}

func (f *fakeOrgRepo) Create(_ context.Context, org *model.Organization) error {
	f.orgs[org.ID] = org
	return nil
}

func (f *fakeOrgRepo) Get(_ context.Context, id uuid.UUID) (*model.Organization, error) {
	org, ok := f.orgs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return org, nil
}

func (f *fakeOrgRepo) GetByOwner(_ context.Context, userID uuid.UUID) (*model.Organization, error) {
	for _, org := range f.orgs {
		if org.OwnerUserID == userID {
			return org, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeOrgRepo) Update(_ context.Context, org *model.Organization) error {
	if _, ok := f.orgs[org.ID]; !ok {
		return repository.ErrNotFound
	}
	f.orgs[org.ID] = org
	return nil
}

func (f *fakeOrgRepo) List(_ context.Context) ([]*model.Organization, error) {
	var out []*model.Organization
	for _, org := range f.orgs {
		out = append(out, org)
	}
	return out, nil
}

type fakeApptRepo struct {
	mu    sync.Mutex
	appts map[uuid.UUID]model.Appointment
}

func newFakeApptRepo() *fakeApptRepo {
	return &fakeApptRepo{appts: make(map[uuid.UUID]model.Appointment)}
}

func (f *fakeApptRepo) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	appt, ok := f.appts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &appt, nil
}

func (f *fakeApptRepo) CreateWithQueue(_ context.Context, appt *model.Appointment, updates []repository.QueueUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appts[appt.ID] = *appt
	f.applyLocked(updates)
	return nil
}

func (f *fakeApptRepo) UpdateStatusWithQueue(_ context.Context, appt *model.Appointment, updates []repository.QueueUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.appts[appt.ID]; !ok {
		return repository.ErrNotFound
	}
	f.appts[appt.ID] = *appt
	f.applyLocked(updates)
	return nil
}

func (f *fakeApptRepo) applyLocked(updates []repository.QueueUpdate) {
	for _, u := range updates {
		appt, ok := f.appts[u.ID]
		if !ok {
			continue
		}
		appt.QueuePosition = u.QueuePosition
		appt.EstimatedWaitTime = u.EstimatedWaitTime
		f.appts[u.ID] = appt
	}
}

func (f *fakeApptRepo) ListPartition(_ context.Context, orgID uuid.UUID, date time.Time) ([]*model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Appointment
	for _, appt := range f.appts {
		if appt.OrganizationID == orgID && appt.AppointmentDate.Equal(date) && appt.InQueue() {
			entry := appt
			out = append(out, &entry)
		}
	}
	return out, nil
}

func (f *fakeApptRepo) ListForUser(_ context.Context, userID uuid.UUID, status model.AppointmentStatus) ([]*model.UserAppointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.UserAppointment
	for _, appt := range f.appts {
		if appt.UserID != userID {
			continue
		}
		if status != "" && appt.Status != status {
			continue
		}
		out = append(out, &model.UserAppointment{Appointment: appt})
	}
	return out, nil
}

func (f *fakeApptRepo) ListForOrganization(_ context.Context, orgID uuid.UUID, filters *model.AppointmentFilters) ([]*model.OrganizationAppointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.OrganizationAppointment
	for _, appt := range f.appts {
		if appt.OrganizationID != orgID {
			continue
		}
		if filters != nil && filters.Status != "" && appt.Status != filters.Status {
			continue
		}
		if filters != nil && filters.Date != nil && !appt.AppointmentDate.Equal(*filters.Date) {
			continue
		}
		out = append(out, &model.OrganizationAppointment{Appointment: appt})
	}
	return out, nil
}

func (f *fakeApptRepo) CountsForOrganization(_ context.Context, orgID uuid.UUID, today time.Time) (*model.AnalyticsSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
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

type fakeEmitter struct {
	mu     sync.Mutex
	events []string
}

func (f *fakeEmitter) Emit(_ context.Context, eventType string, _ interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, eventType)
	return nil
}

type fixture struct {
	svc     *Service
	appts   *fakeApptRepo
	orgs    *fakeOrgRepo
	emitter *fakeEmitter
	org     *model.Organization
	owner   uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	org := openOrganization()
	orgs := &fakeOrgRepo{orgs: map[uuid.UUID]*model.Organization{org.ID: org}}
	appts := newFakeApptRepo()
	emitter := &fakeEmitter{}

	log := logger.New(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
	m := metrics.New("test", prometheus.NewRegistry())

	svc := NewService(appts, orgs, emitter, log, m)
	svc.now = func() time.Time { return monday.Add(8 * time.Hour) }

	return &fixture{
		svc:     svc,
		appts:   appts,
		orgs:    orgs,
		emitter: emitter,
		org:     org,
		owner:   org.OwnerUserID,
	}
}

func (fx *fixture) book(t *testing.T, userID uuid.UUID, timeOfDay string) *model.Appointment {
	t.Helper()
	appt, err := fx.svc.Book(context.Background(), userID, &model.BookAppointmentRequest{
		OrganizationID:  fx.org.ID,
		ExpertName:      "Sam",
		ServiceName:     "haircut",
		AppointmentDate: monday.Format(model.DateFormat),
		AppointmentTime: timeOfDay,
	})
	require.NoError(t, err)
	return appt
}

func (fx *fixture) stored(t *testing.T, id uuid.UUID) *model.Appointment {
	t.Helper()
	appt, err := fx.appts.Get(context.Background(), id)
	require.NoError(t, err)
	return appt
}

func TestBookAssignsQueuePositions(t *testing.T) {
	fx := newFixture(t)

	first := fx.book(t, uuid.New(), "09:00")
	assert.Equal(t, 1, first.QueuePosition)
	assert.Equal(t, 0, first.EstimatedWaitTime)
	assert.Equal(t, model.AppointmentStatusPending, first.Status)

	second := fx.book(t, uuid.New(), "09:15")
	assert.Equal(t, 2, second.QueuePosition)
	assert.Equal(t, 30, second.EstimatedWaitTime)
}

func TestBookEarlierSlotDisplacesQueue(t *testing.T) {
	fx := newFixture(t)

	later := fx.book(t, uuid.New(), "09:15")
	require.Equal(t, 1, later.QueuePosition)

	earlier := fx.book(t, uuid.New(), "09:00")
	assert.Equal(t, 1, earlier.QueuePosition)
	assert.Equal(t, 0, earlier.EstimatedWaitTime)

	// The earlier booking pushed the existing one back.
	displaced := fx.stored(t, later.ID)
	assert.Equal(t, 2, displaced.QueuePosition)
	assert.Equal(t, 30, displaced.EstimatedWaitTime)
}

func TestBookSnapshotsExpert(t *testing.T) {
	fx := newFixture(t)

	appt := fx.book(t, uuid.New(), "09:00")
	assert.Equal(t, fx.org.Experts[0].ID, appt.ExpertID)
	assert.Equal(t, "Sam", appt.ExpertName)
}

func TestBookRejectsUnavailableSlot(t *testing.T) {
	fx := newFixture(t)
	fx.org.IsCurrentlyOpen = false

	_, err := fx.svc.Book(context.Background(), uuid.New(), &model.BookAppointmentRequest{
		OrganizationID:  fx.org.ID,
		ExpertName:      "Sam",
		ServiceName:     "haircut",
		AppointmentDate: monday.Format(model.DateFormat),
		AppointmentTime: "09:00",
	})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindSlotUnavailable))
}

func TestBookUnknownOrganization(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.svc.Book(context.Background(), uuid.New(), &model.BookAppointmentRequest{
		OrganizationID:  uuid.New(),
		ExpertName:      "Sam",
		ServiceName:     "haircut",
		AppointmentDate: monday.Format(model.DateFormat),
		AppointmentTime: "09:00",
	})
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestBookInvalidDate(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.svc.Book(context.Background(), uuid.New(), &model.BookAppointmentRequest{
		OrganizationID:  fx.org.ID,
		ExpertName:      "Sam",
		ServiceName:     "haircut",
		AppointmentDate: "02-06-2025",
		AppointmentTime: "09:00",
	})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestBookEmitsEvent(t *testing.T) {
	fx := newFixture(t)

	fx.book(t, uuid.New(), "09:00")
	assert.Equal(t, []string{model.EventAppointmentBooked}, fx.emitter.events)
}

func TestUpdateStatusStartThenComplete(t *testing.T) {
	fx := newFixture(t)

	first := fx.book(t, uuid.New(), "09:00")
	second := fx.book(t, uuid.New(), "09:15")

	started, err := fx.svc.UpdateStatus(context.Background(), first.ID, model.AppointmentStatusInProgress, fx.owner)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusInProgress, started.Status)
	assert.Equal(t, 0, started.QueuePosition)
	assert.Equal(t, 0, started.EstimatedWaitTime)

	// The next in line moves to position 1 but still waits for the
	// appointment in service.
	waiting := fx.stored(t, second.ID)
	assert.Equal(t, 1, waiting.QueuePosition)
	assert.Equal(t, 30, waiting.EstimatedWaitTime)

	_, err = fx.svc.UpdateStatus(context.Background(), first.ID, model.AppointmentStatusCompleted, fx.owner)
	require.NoError(t, err)

	head := fx.stored(t, second.ID)
	assert.Equal(t, 1, head.QueuePosition)
	assert.Equal(t, 0, head.EstimatedWaitTime)
}

func TestUserCannotStartAppointment(t *testing.T) {
	fx := newFixture(t)

	userID := uuid.New()
	appt := fx.book(t, userID, "09:00")

	_, err := fx.svc.UpdateStatus(context.Background(), appt.ID, model.AppointmentStatusInProgress, userID)
	assert.True(t, apperr.IsKind(err, apperr.KindUnauthorized))
}

func TestUserCancelsPendingAppointment(t *testing.T) {
	fx := newFixture(t)

	userID := uuid.New()
	first := fx.book(t, userID, "09:00")
	second := fx.book(t, uuid.New(), "09:15")

	cancelled, err := fx.svc.Cancel(context.Background(), first.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, cancelled.Status)
	assert.Equal(t, 0, cancelled.QueuePosition)

	moved := fx.stored(t, second.ID)
	assert.Equal(t, 1, moved.QueuePosition)
	assert.Equal(t, 0, moved.EstimatedWaitTime)

	assert.Contains(t, fx.emitter.events, model.EventAppointmentCancelled)
}

func TestUserCannotCancelInProgress(t *testing.T) {
	fx := newFixture(t)

	userID := uuid.New()
	appt := fx.book(t, userID, "09:00")

	_, err := fx.svc.UpdateStatus(context.Background(), appt.ID, model.AppointmentStatusInProgress, fx.owner)
	require.NoError(t, err)

	_, err = fx.svc.Cancel(context.Background(), appt.ID, userID)
	assert.True(t, apperr.IsKind(err, apperr.KindUnauthorized))

	// The organization still can.
	cancelled, err := fx.svc.Cancel(context.Background(), appt.ID, fx.owner)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, cancelled.Status)
}

func TestUpdateStatusInvalidTransition(t *testing.T) {
	fx := newFixture(t)

	appt := fx.book(t, uuid.New(), "09:00")

	_, err := fx.svc.UpdateStatus(context.Background(), appt.ID, model.AppointmentStatusInProgress, fx.owner)
	require.NoError(t, err)
	_, err = fx.svc.UpdateStatus(context.Background(), appt.ID, model.AppointmentStatusCompleted, fx.owner)
	require.NoError(t, err)

	// Completed is terminal, even for the organization.
	_, err = fx.svc.UpdateStatus(context.Background(), appt.ID, model.AppointmentStatusPending, fx.owner)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidTransition))
}

func TestUpdateStatusUnknownStatus(t *testing.T) {
	fx := newFixture(t)

	appt := fx.book(t, uuid.New(), "09:00")
	_, err := fx.svc.UpdateStatus(context.Background(), appt.ID, "rescheduled", fx.owner)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestUpdateStatusUnknownAppointment(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.svc.UpdateStatus(context.Background(), uuid.New(), model.AppointmentStatusCancelled, fx.owner)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestGetVisibleOnlyToParticipants(t *testing.T) {
	fx := newFixture(t)

	userID := uuid.New()
	appt := fx.book(t, userID, "09:00")

	_, err := fx.svc.Get(context.Background(), appt.ID, userID)
	assert.NoError(t, err)

	_, err = fx.svc.Get(context.Background(), appt.ID, fx.owner)
	assert.NoError(t, err)

	_, err = fx.svc.Get(context.Background(), appt.ID, uuid.New())
	assert.True(t, apperr.IsKind(err, apperr.KindUnauthorized))
}

func TestListForOrganizationRequiresOwner(t *testing.T) {
	fx := newFixture(t)

	fx.book(t, uuid.New(), "09:00")

	appts, err := fx.svc.ListForOrganization(context.Background(), fx.org.ID, fx.owner, nil)
	require.NoError(t, err)
	assert.Len(t, appts, 1)

	_, err = fx.svc.ListForOrganization(context.Background(), fx.org.ID, uuid.New(), nil)
	assert.True(t, apperr.IsKind(err, apperr.KindUnauthorized))
}

func TestListForUserFiltersByStatus(t *testing.T) {
	fx := newFixture(t)

	userID := uuid.New()
	first := fx.book(t, userID, "09:00")
	fx.book(t, userID, "09:15")

	_, err := fx.svc.Cancel(context.Background(), first.ID, userID)
	require.NoError(t, err)

	all, err := fx.svc.ListForUser(context.Background(), userID, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	pending, err := fx.svc.ListForUser(context.Background(), userID, model.AppointmentStatusPending)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	_, err = fx.svc.ListForUser(context.Background(), userID, "nonsense")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestConcurrentBookingsGetDistinctPositions(t *testing.T) {
	fx := newFixture(t)

	const n = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	var booked []*model.Appointment

	for i := 0; i < n; i++ {
		wg.Add(1)
		timeOfDay := time.Date(0, 1, 1, 9, i*15, 0, 0, time.UTC).Format(model.TimeFormat)
		go func(slot string) {
			defer wg.Done()
			appt, err := fx.svc.Book(context.Background(), uuid.New(), &model.BookAppointmentRequest{
				OrganizationID:  fx.org.ID,
				ExpertName:      "Sam",
				ServiceName:     "haircut",
				AppointmentDate: monday.Format(model.DateFormat),
				AppointmentTime: slot,
			})
			if err != nil {
				return
			}
			mu.Lock()
			booked = append(booked, appt)
			mu.Unlock()
		}(timeOfDay)
	}
	wg.Wait()

	require.Len(t, booked, n)

	positions := make(map[int]bool)
	for _, appt := range booked {
		stored := fx.stored(t, appt.ID)
		assert.False(t, positions[stored.QueuePosition], "duplicate position %d", stored.QueuePosition)
		positions[stored.QueuePosition] = true
	}
	for p := 1; p <= n; p++ {
		assert.True(t, positions[p], "missing position %d", p)
	}
}
