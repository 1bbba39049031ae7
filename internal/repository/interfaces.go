package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/slotwise/booking-api/internal/model"
)

// ErrNotFound is returned by all repositories when a record does not exist.
var ErrNotFound = errors.New("record not found")

// QueueUpdate is one recomputed (position, wait) pair produced by the queue
// ledger for an appointment in a partition.
type QueueUpdate struct {
	ID                uuid.UUID
	QueuePosition     int
	EstimatedWaitTime int
}

// All repository interfaces in one file
type (
	OrganizationRepository interface {
		Create(ctx context.Context, org *model.Organization) error
		Get(ctx context.Context, id uuid.UUID) (*model.Organization, error)
		GetByOwner(ctx context.Context, userID uuid.UUID) (*model.Organization, error)
		Update(ctx context.Context, org *model.Organization) error
		List(ctx context.Context) ([]*model.Organization, error)
	}

	// AppointmentRepository persists appointment records. The two *WithQueue
	// methods apply the primary mutation and the ledger recompute in a single
	// transaction so no reader observes a status change without its
	// position/wait update.
	AppointmentRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		CreateWithQueue(ctx context.Context, appt *model.Appointment, updates []QueueUpdate) error
		UpdateStatusWithQueue(ctx context.Context, appt *model.Appointment, updates []QueueUpdate) error
		ListPartition(ctx context.Context, orgID uuid.UUID, date time.Time) ([]*model.Appointment, error)
		ListForUser(ctx context.Context, userID uuid.UUID, status model.AppointmentStatus) ([]*model.UserAppointment, error)
		ListForOrganization(ctx context.Context, orgID uuid.UUID, filters *model.AppointmentFilters) ([]*model.OrganizationAppointment, error)
		CountsForOrganization(ctx context.Context, orgID uuid.UUID, today time.Time) (*model.AnalyticsSummary, error)
	}

	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		MarkProcessed(ctx context.Context, id uuid.UUID) error
		MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error
	}
)
