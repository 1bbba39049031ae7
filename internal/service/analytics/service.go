package analytics

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/slotwise/booking-api/internal/model"
	"github.com/slotwise/booking-api/internal/repository"
	apperr "github.com/slotwise/booking-api/pkg/errors"
)

// Service derives the organization dashboard counters. It is a pure read
// over appointment history: every call recomputes from scratch, so there are
// no incremental counters to keep consistent with the ledger.
type Service struct {
	appts repository.AppointmentRepository
	orgs  repository.OrganizationRepository
	now   func() time.Time
}

func NewService(appts repository.AppointmentRepository, orgs repository.OrganizationRepository) *Service {
	return &Service{
		appts: appts,
		orgs:  orgs,
		now:   time.Now,
	}
}

// Summarize returns today's and all-time appointment counts for an
// organization. The today bucket is keyed by calendar-date equality, not a
// rolling 24h window.
func (s *Service) Summarize(ctx context.Context, orgID uuid.UUID, actorID uuid.UUID) (*model.AnalyticsSummary, error) {
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

	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	summary, err := s.appts.CountsForOrganization(ctx, orgID, today)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return summary, nil
}
