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

const appointmentColumns = `
	id, organization_id, user_id, expert_id, expert_name, service_name,
	appointment_date, appointment_time, status, queue_position,
	estimated_wait_time, notes, created_at, updated_at
`

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`

	var appt model.Appointment
	err := r.db.GetContext(ctx, &appt, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &appt, nil
}

func (r *appointmentRepository) CreateWithQueue(ctx context.Context, appt *model.Appointment, updates []repository.QueueUpdate) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO appointments (
			id, organization_id, user_id, expert_id, expert_name, service_name,
			appointment_date, appointment_time, status, queue_position,
			estimated_wait_time, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err = tx.ExecContext(ctx, query,
		appt.ID,
		appt.OrganizationID,
		appt.UserID,
		appt.ExpertID,
		appt.ExpertName,
		appt.ServiceName,
		appt.AppointmentDate,
		appt.AppointmentTime,
		appt.Status,
		appt.QueuePosition,
		appt.EstimatedWaitTime,
		appt.Notes,
		appt.CreatedAt,
		appt.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}

	if err := applyQueueUpdates(ctx, tx, updates); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *appointmentRepository) UpdateStatusWithQueue(ctx context.Context, appt *model.Appointment, updates []repository.QueueUpdate) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE appointments
		SET status = $1, queue_position = $2, estimated_wait_time = $3, updated_at = $4
		WHERE id = $5
	`
	result, err := tx.ExecContext(ctx, query,
		appt.Status,
		appt.QueuePosition,
		appt.EstimatedWaitTime,
		appt.UpdatedAt,
		appt.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}

	if err := applyQueueUpdates(ctx, tx, updates); err != nil {
		return err
	}
	return tx.Commit()
}

func applyQueueUpdates(ctx context.Context, tx interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}, updates []repository.QueueUpdate) error {
	query := `
		UPDATE appointments
		SET queue_position = $1, estimated_wait_time = $2, updated_at = $3
		WHERE id = $4
	`
	now := time.Now()
	for _, u := range updates {
		if _, err := tx.ExecContext(ctx, query, u.QueuePosition, u.EstimatedWaitTime, now, u.ID); err != nil {
			return fmt.Errorf("failed to apply queue update: %w", err)
		}
	}
	return nil
}

func (r *appointmentRepository) ListPartition(ctx context.Context, orgID uuid.UUID, date time.Time) ([]*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE organization_id = $1
		AND appointment_date = $2
		AND status IN ('pending', 'in-progress')
		ORDER BY appointment_time ASC, created_at ASC
	`
	var appts []*model.Appointment
	err := r.db.SelectContext(ctx, &appts, query, orgID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list queue partition: %w", err)
	}
	return appts, nil
}

func (r *appointmentRepository) ListForUser(ctx context.Context, userID uuid.UUID, status model.AppointmentStatus) ([]*model.UserAppointment, error) {
	query := `
		SELECT a.id, a.organization_id, a.user_id, a.expert_id, a.expert_name,
			   a.service_name, a.appointment_date, a.appointment_time, a.status,
			   a.queue_position, a.estimated_wait_time, a.notes,
			   a.created_at, a.updated_at,
			   o.id AS "org.id",
			   o.organization_name AS "org.organization_name",
			   o.category AS "org.category",
			   o.address AS "org.address"
		FROM appointments a
		JOIN organizations o ON o.id = a.organization_id
		WHERE a.user_id = $1
	`
	args := []interface{}{userID}
	if status != "" {
		query += " AND a.status = $2"
		args = append(args, status)
	}
	query += " ORDER BY a.appointment_date DESC, a.appointment_time DESC"

	var appts []*model.UserAppointment
	err := r.db.SelectContext(ctx, &appts, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list user appointments: %w", err)
	}
	return appts, nil
}

func (r *appointmentRepository) ListForOrganization(ctx context.Context, orgID uuid.UUID, filters *model.AppointmentFilters) ([]*model.OrganizationAppointment, error) {
	query := `
		SELECT a.id, a.organization_id, a.user_id, a.expert_id, a.expert_name,
			   a.service_name, a.appointment_date, a.appointment_time, a.status,
			   a.queue_position, a.estimated_wait_time, a.notes,
			   a.created_at, a.updated_at,
			   u.id AS "usr.id",
			   u.name AS "usr.name",
			   u.phone AS "usr.phone"
		FROM appointments a
		JOIN users u ON u.id = a.user_id
		WHERE a.organization_id = $1
	`
	args := []interface{}{orgID}
	argCount := 2

	if filters != nil {
		if filters.Status != "" {
			query += fmt.Sprintf(" AND a.status = $%d", argCount)
			args = append(args, filters.Status)
			argCount++
		}
		if filters.Date != nil {
			query += fmt.Sprintf(" AND a.appointment_date = $%d", argCount)
			args = append(args, *filters.Date)
			argCount++
		}
	}

	query += " ORDER BY a.appointment_date ASC, a.appointment_time ASC, a.created_at ASC"

	var appts []*model.OrganizationAppointment
	err := r.db.SelectContext(ctx, &appts, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list organization appointments: %w", err)
	}
	return appts, nil
}

func (r *appointmentRepository) CountsForOrganization(ctx context.Context, orgID uuid.UUID, today time.Time) (*model.AnalyticsSummary, error) {
	query := `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE appointment_date = $2) AS today_total,
			COUNT(*) FILTER (WHERE appointment_date = $2 AND status = 'pending') AS today_pending,
			COUNT(*) FILTER (WHERE appointment_date = $2 AND status = 'completed') AS today_completed
		FROM appointments
		WHERE organization_id = $1
	`
	var row struct {
		Total          int `db:"total"`
		TodayTotal     int `db:"today_total"`
		TodayPending   int `db:"today_pending"`
		TodayCompleted int `db:"today_completed"`
	}
	if err := r.db.GetContext(ctx, &row, query, orgID, today); err != nil {
		return nil, fmt.Errorf("failed to aggregate organization counts: %w", err)
	}

	return &model.AnalyticsSummary{
		Today: model.TodayCounts{
			Total:     row.TodayTotal,
			Pending:   row.TodayPending,
			Completed: row.TodayCompleted,
		},
		Total: row.Total,
	}, nil
}
