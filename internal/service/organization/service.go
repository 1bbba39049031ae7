package organization

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/slotwise/booking-api/internal/model"
	"github.com/slotwise/booking-api/internal/repository"
	apperr "github.com/slotwise/booking-api/pkg/errors"
)

var weekdays = map[string]bool{
	"Sunday": true, "Monday": true, "Tuesday": true, "Wednesday": true,
	"Thursday": true, "Friday": true, "Saturday": true,
}

// Service owns the organization profile. It is mutated only through
// profile-update requests, independent of the booking path.
type Service struct {
	repo repository.OrganizationRepository
}

func NewService(repo repository.OrganizationRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, req *model.CreateOrganizationRequest) (*model.Organization, error) {
	if _, err := s.repo.GetByOwner(ctx, ownerID); err == nil {
		return nil, apperr.Validation("account already owns an organization", nil)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Internal(err)
	}

	duration := req.AppointmentDuration
	if duration == 0 {
		duration = model.DefaultAppointmentDuration
	}

	if err := validateWorkingHours(req.WorkingHours); err != nil {
		return nil, err
	}
	if err := validateDaysOff(req.WeeklyDaysOff); err != nil {
		return nil, err
	}

	open := true
	if req.IsCurrentlyOpen != nil {
		open = *req.IsCurrentlyOpen
	}

	org := &model.Organization{
		Base:                model.Base{ID: uuid.New()},
		OwnerUserID:         ownerID,
		OrganizationName:    req.OrganizationName,
		Category:            req.Category,
		Address:             req.Address,
		AppointmentDuration: duration,
		WorkingHours:        req.WorkingHours,
		WeeklyDaysOff:       req.WeeklyDaysOff,
		IsCurrentlyOpen:     open,
		Experts:             buildExperts(req.Experts, nil),
	}

	if err := s.repo.Create(ctx, org); err != nil {
		return nil, apperr.Internal(err)
	}
	return org, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, actorID uuid.UUID, req *model.UpdateOrganizationRequest) (*model.Organization, error) {
	org, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if org.OwnerUserID != actorID {
		return nil, apperr.Unauthorized("actor does not own this organization")
	}

	if req.OrganizationName != nil {
		org.OrganizationName = *req.OrganizationName
	}
	if req.Category != nil {
		org.Category = *req.Category
	}
	if req.Address != nil {
		org.Address = *req.Address
	}
	if req.AppointmentDuration != nil {
		if *req.AppointmentDuration < 5 || *req.AppointmentDuration > 240 {
			return nil, apperr.Validation("appointment duration out of range", nil)
		}
		org.AppointmentDuration = *req.AppointmentDuration
	}
	if req.WorkingHours != nil {
		if err := validateWorkingHours(req.WorkingHours); err != nil {
			return nil, err
		}
		org.WorkingHours = req.WorkingHours
	}
	if req.WeeklyDaysOff != nil {
		if err := validateDaysOff(req.WeeklyDaysOff); err != nil {
			return nil, err
		}
		org.WeeklyDaysOff = req.WeeklyDaysOff
	}
	if req.IsCurrentlyOpen != nil {
		org.IsCurrentlyOpen = *req.IsCurrentlyOpen
	}
	if req.Experts != nil {
		org.Experts = buildExperts(req.Experts, org.Experts)
	}

	if err := s.repo.Update(ctx, org); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("organization")
		}
		return nil, apperr.Internal(err)
	}
	return org, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Organization, error) {
	return s.get(ctx, id)
}

func (s *Service) GetByOwner(ctx context.Context, ownerID uuid.UUID) (*model.Organization, error) {
	org, err := s.repo.GetByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("organization")
		}
		return nil, apperr.Internal(err)
	}
	return org, nil
}

func (s *Service) List(ctx context.Context) ([]*model.Organization, error) {
	orgs, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return orgs, nil
}

func (s *Service) get(ctx context.Context, id uuid.UUID) (*model.Organization, error) {
	org, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("organization")
		}
		return nil, apperr.Internal(err)
	}
	return org, nil
}

// buildExperts merges expert inputs with the existing roster: inputs carrying
// a known ID keep that identity (renames stay safe for open bookings), new
// entries get a fresh one.
func buildExperts(inputs []model.ExpertInput, existing model.ExpertList) model.ExpertList {
	known := make(map[uuid.UUID]bool, len(existing))
	for _, e := range existing {
		known[e.ID] = true
	}

	experts := make(model.ExpertList, 0, len(inputs))
	for _, in := range inputs {
		id := in.ID
		if id == uuid.Nil || (len(known) > 0 && !known[id]) {
			id = uuid.New()
		}
		experts = append(experts, model.Expert{
			ID:             id,
			Name:           in.Name,
			Specialization: in.Specialization,
			Available:      in.Available,
		})
	}
	return experts
}

func validateWorkingHours(hours []model.WorkingHours) error {
	seen := make(map[string]bool, len(hours))
	for _, wh := range hours {
		if !weekdays[wh.Day] {
			return apperr.Validation(fmt.Sprintf("unknown weekday %q", wh.Day), nil)
		}
		if seen[wh.Day] {
			return apperr.Validation(fmt.Sprintf("duplicate working hours for %s", wh.Day), nil)
		}
		seen[wh.Day] = true

		start, err := time.Parse(model.TimeFormat, wh.StartTime)
		if err != nil {
			return apperr.Validation(fmt.Sprintf("invalid start time for %s", wh.Day), err)
		}
		end, err := time.Parse(model.TimeFormat, wh.EndTime)
		if err != nil {
			return apperr.Validation(fmt.Sprintf("invalid end time for %s", wh.Day), err)
		}
		if !start.Before(end) {
			return apperr.Validation(fmt.Sprintf("working hours for %s end before they start", wh.Day), nil)
		}
	}
	return nil
}

func validateDaysOff(days []string) error {
	for _, d := range days {
		if !weekdays[d] {
			return apperr.Validation(fmt.Sprintf("unknown weekday %q", d), nil)
		}
	}
	return nil
}
