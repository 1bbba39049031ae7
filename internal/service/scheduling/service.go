package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/slotwise/booking-api/internal/model"
	"github.com/slotwise/booking-api/internal/repository"
	apperr "github.com/slotwise/booking-api/pkg/errors"
	"github.com/slotwise/booking-api/pkg/logger"
	"github.com/slotwise/booking-api/pkg/metrics"
)

// EventEmitter records domain events for asynchronous publication. A failed
// emit never fails the request that produced it.
type EventEmitter interface {
	Emit(ctx context.Context, eventType string, payload interface{}) error
}

// Service is the scheduling engine: the only component allowed to mutate
// appointment status, queue position and estimated wait time.
type Service struct {
	appts   repository.AppointmentRepository
	orgs    repository.OrganizationRepository
	emitter EventEmitter
	logger  *logger.Logger
	metrics *metrics.Metrics
	locks   *partitionLocks
	now     func() time.Time
}

func NewService(appts repository.AppointmentRepository, orgs repository.OrganizationRepository, emitter EventEmitter, log *logger.Logger, m *metrics.Metrics) *Service {
	return &Service{
		appts:   appts,
		orgs:    orgs,
		emitter: emitter,
		logger:  log,
		metrics: m,
		locks:   newPartitionLocks(),
		now:     time.Now,
	}
}

// Book validates the requested slot, appends the appointment to its queue
// partition and assigns its position and wait time. The insert and the
// recompute of every displaced entry land in one transaction.
func (s *Service) Book(ctx context.Context, userID uuid.UUID, req *model.BookAppointmentRequest) (*model.Appointment, error) {
	date, err := time.ParseInLocation(model.DateFormat, req.AppointmentDate, time.UTC)
	if err != nil {
		return nil, apperr.Validation("invalid appointment date", err)
	}
	if _, err := time.Parse(model.TimeFormat, req.AppointmentTime); err != nil {
		return nil, apperr.Validation("invalid appointment time", err)
	}

	org, err := s.orgs.Get(ctx, req.OrganizationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("organization")
		}
		return nil, apperr.Internal(err)
	}

	unlock := s.locks.lock(org.ID, date)
	defer unlock()

	expert, aerr := CheckAvailability(org, date, req.AppointmentTime, req.ExpertID, req.ExpertName, s.now())
	if aerr != nil {
		s.metrics.BookingsRejected.WithLabelValues(string(aerr.Reason)).Inc()
		return nil, aerr
	}

	entries, err := s.appts.ListPartition(ctx, org.ID, date)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	now := s.now()
	appt := &model.Appointment{
		Base: model.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		OrganizationID:  org.ID,
		UserID:          userID,
		ExpertID:        expert.ID,
		ExpertName:      expert.Name,
		ServiceName:     req.ServiceName,
		AppointmentDate: date,
		AppointmentTime: req.AppointmentTime,
		Status:          model.AppointmentStatusPending,
		Notes:           req.Notes,
	}

	entries = append(entries, appt)
	updates := s.observeRecompute(entries, org.AppointmentDuration)

	// The new record is written whole, so drop it from the update batch.
	others := updates[:0]
	for _, u := range updates {
		if u.ID != appt.ID {
			others = append(others, u)
		}
	}

	if err := s.appts.CreateWithQueue(ctx, appt, others); err != nil {
		return nil, apperr.Internal(err)
	}

	s.metrics.BookingsTotal.Inc()
	s.metrics.QueueDepth.WithLabelValues(org.ID.String()).Set(float64(pendingDepth(entries)))
	s.emit(ctx, model.EventAppointmentBooked, appt)

	s.logger.Info("appointment booked",
		"appointment_id", appt.ID.String(),
		"organization_id", org.ID.String(),
		"queue_position", appt.QueuePosition,
	)
	return appt, nil
}

// UpdateStatus applies one state-machine transition and recomputes the
// partition before anything else can observe the change.
func (s *Service) UpdateStatus(ctx context.Context, apptID uuid.UUID, newStatus model.AppointmentStatus, actorID uuid.UUID) (*model.Appointment, error) {
	if !newStatus.Valid() {
		return nil, apperr.Validation(fmt.Sprintf("unknown status %q", newStatus), nil)
	}

	appt, err := s.getAppointment(ctx, apptID)
	if err != nil {
		return nil, err
	}

	org, err := s.orgs.Get(ctx, appt.OrganizationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("organization")
		}
		return nil, apperr.Internal(err)
	}

	role, aerr := resolveRole(actorID, appt, org)
	if aerr != nil {
		return nil, aerr
	}

	unlock := s.locks.lock(org.ID, appt.AppointmentDate)
	defer unlock()

	// Re-read under the partition lock; the first read raced other writers.
	appt, err = s.getAppointment(ctx, apptID)
	if err != nil {
		return nil, err
	}

	from := appt.Status
	if aerr := checkTransition(from, newStatus, role); aerr != nil {
		return nil, aerr
	}

	entries, err := s.appts.ListPartition(ctx, org.ID, appt.AppointmentDate)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	appt.Status = newStatus
	appt.QueuePosition = 0
	appt.EstimatedWaitTime = 0
	appt.UpdatedAt = s.now()

	// Rebuild the partition view with the transition applied, then derive
	// everyone else's new position and wait.
	remaining := entries[:0]
	for _, e := range entries {
		if e.ID == appt.ID {
			continue
		}
		remaining = append(remaining, e)
	}
	if appt.InQueue() {
		remaining = append(remaining, appt)
	}
	updates := s.observeRecompute(remaining, org.AppointmentDuration)

	others := updates[:0]
	for _, u := range updates {
		if u.ID != appt.ID {
			others = append(others, u)
		}
	}

	if err := s.appts.UpdateStatusWithQueue(ctx, appt, others); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("appointment")
		}
		return nil, apperr.Internal(err)
	}

	s.metrics.StatusTransitions.WithLabelValues(string(from), string(newStatus)).Inc()
	s.metrics.QueueDepth.WithLabelValues(org.ID.String()).Set(float64(pendingDepth(remaining)))

	eventType := model.EventAppointmentStatusChanged
	if newStatus == model.AppointmentStatusCancelled {
		eventType = model.EventAppointmentCancelled
	}
	s.emit(ctx, eventType, appt)

	s.logger.Info("appointment status updated",
		"appointment_id", appt.ID.String(),
		"from", string(from),
		"to", string(newStatus),
	)
	return appt, nil
}

// Cancel is the user-facing deletion surface: a cancellation transition, not
// a removal.
func (s *Service) Cancel(ctx context.Context, apptID uuid.UUID, actorID uuid.UUID) (*model.Appointment, error) {
	return s.UpdateStatus(ctx, apptID, model.AppointmentStatusCancelled, actorID)
}

// Get fetches one appointment, visible only to its user or the owning
// organization.
func (s *Service) Get(ctx context.Context, apptID uuid.UUID, actorID uuid.UUID) (*model.Appointment, error) {
	appt, err := s.getAppointment(ctx, apptID)
	if err != nil {
		return nil, err
	}

	org, err := s.orgs.Get(ctx, appt.OrganizationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("organization")
		}
		return nil, apperr.Internal(err)
	}

	if _, aerr := resolveRole(actorID, appt, org); aerr != nil {
		return nil, aerr
	}
	return appt, nil
}

// ListForUser returns the caller's appointments with their organization
// summaries. Read-only, no partition locking.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID, status model.AppointmentStatus) ([]*model.UserAppointment, error) {
	if status != "" && !status.Valid() {
		return nil, apperr.Validation(fmt.Sprintf("unknown status %q", status), nil)
	}
	appts, err := s.appts.ListForUser(ctx, userID, status)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return appts, nil
}

// ListForOrganization returns an organization's appointments with user
// summaries. Only the owning account may call it.
func (s *Service) ListForOrganization(ctx context.Context, orgID uuid.UUID, actorID uuid.UUID, filters *model.AppointmentFilters) ([]*model.OrganizationAppointment, error) {
	if filters != nil && filters.Status != "" && !filters.Status.Valid() {
		return nil, apperr.Validation(fmt.Sprintf("unknown status %q", filters.Status), nil)
	}

	org, err := s.orgs.Get(ctx, orgID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("organization")
		}
		return nil, apperr.Internal(err)
	}
	if org.OwnerUserID != actorID {
		return nil, apperr.Unauthorized("actor does not own this organization")
	}

	appts, err := s.appts.ListForOrganization(ctx, orgID, filters)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return appts, nil
}

func (s *Service) getAppointment(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	appt, err := s.appts.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("appointment")
		}
		return nil, apperr.Internal(err)
	}
	return appt, nil
}

func (s *Service) observeRecompute(entries []*model.Appointment, duration int) []repository.QueueUpdate {
	timer := prometheus.NewTimer(s.metrics.RecomputeLatency)
	defer timer.ObserveDuration()

	if duration <= 0 {
		duration = model.DefaultAppointmentDuration
	}
	return recompute(entries, duration)
}

func (s *Service) emit(ctx context.Context, eventType string, appt *model.Appointment) {
	if s.emitter == nil {
		return
	}
	if err := s.emitter.Emit(ctx, eventType, appt); err != nil {
		s.logger.Error(err, "failed to emit appointment event",
			"event_type", eventType,
			"appointment_id", appt.ID.String(),
		)
	}
}

// resolveRole maps a verified actor onto its relationship with the
// appointment. Anyone else gets Unauthorized.
func resolveRole(actorID uuid.UUID, appt *model.Appointment, org *model.Organization) (model.ActorRole, *apperr.AppError) {
	switch actorID {
	case org.OwnerUserID:
		return model.RoleOrganization, nil
	case appt.UserID:
		return model.RoleUser, nil
	default:
		return "", apperr.Unauthorized("actor does not own this appointment")
	}
}
