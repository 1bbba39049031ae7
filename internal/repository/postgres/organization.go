package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/slotwise/booking-api/internal/model"
	"github.com/slotwise/booking-api/internal/repository"
)

const organizationColumns = `
	id, owner_user_id, organization_name, category, address,
	appointment_duration, working_hours, weekly_days_off, is_currently_open,
	experts, created_at, updated_at
`

func (r *organizationRepository) Create(ctx context.Context, org *model.Organization) error {
	query := `
		INSERT INTO organizations (
			id, owner_user_id, organization_name, category, address,
			appointment_duration, working_hours, weekly_days_off,
			is_currently_open, experts, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	org.CreatedAt = time.Now()
	org.UpdatedAt = org.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		org.ID,
		org.OwnerUserID,
		org.OrganizationName,
		org.Category,
		org.Address,
		org.AppointmentDuration,
		org.WorkingHours,
		org.WeeklyDaysOff,
		org.IsCurrentlyOpen,
		org.Experts,
		org.CreatedAt,
		org.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create organization: %w", err)
	}
	return nil
}

func (r *organizationRepository) Get(ctx context.Context, id uuid.UUID) (*model.Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations WHERE id = $1`

	var org model.Organization
	err := r.db.GetContext(ctx, &org, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	return &org, nil
}

func (r *organizationRepository) GetByOwner(ctx context.Context, userID uuid.UUID) (*model.Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations WHERE owner_user_id = $1`

	var org model.Organization
	err := r.db.GetContext(ctx, &org, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get organization by owner: %w", err)
	}
	return &org, nil
}

func (r *organizationRepository) Update(ctx context.Context, org *model.Organization) error {
	query := `
		UPDATE organizations
		SET organization_name = $1, category = $2, address = $3,
			appointment_duration = $4, working_hours = $5, weekly_days_off = $6,
			is_currently_open = $7, experts = $8, updated_at = $9
		WHERE id = $10
	`
	org.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		org.OrganizationName,
		org.Category,
		org.Address,
		org.AppointmentDuration,
		org.WorkingHours,
		org.WeeklyDaysOff,
		org.IsCurrentlyOpen,
		org.Experts,
		org.UpdatedAt,
		org.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update organization: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *organizationRepository) List(ctx context.Context) ([]*model.Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations ORDER BY organization_name ASC`

	var orgs []*model.Organization
	err := r.db.SelectContext(ctx, &orgs, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	return orgs, nil
}
