package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusPending    AppointmentStatus = "pending"
	AppointmentStatusInProgress AppointmentStatus = "in-progress"
	AppointmentStatusCompleted  AppointmentStatus = "completed"
	AppointmentStatusCancelled  AppointmentStatus = "cancelled"
)

// Valid reports whether s is one of the four defined statuses.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusPending, AppointmentStatusInProgress,
		AppointmentStatusCompleted, AppointmentStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are allowed out of s.
func (s AppointmentStatus) Terminal() bool {
	return s == AppointmentStatusCompleted || s == AppointmentStatusCancelled
}

// ActorRole identifies who is acting on an appointment: the booking user or
// the owning organization.
type ActorRole string

const (
	RoleUser         ActorRole = "user"
	RoleOrganization ActorRole = "organization"
)

type Appointment struct {
	Base
	OrganizationID    uuid.UUID         `db:"organization_id" json:"organization_id"`
	UserID            uuid.UUID         `db:"user_id" json:"user_id"`
	ExpertID          uuid.UUID         `db:"expert_id" json:"expert_id"`
	ExpertName        string            `db:"expert_name" json:"expert_name"`
	ServiceName       string            `db:"service_name" json:"service_name"`
	AppointmentDate   time.Time         `db:"appointment_date" json:"appointment_date"`
	AppointmentTime   string            `db:"appointment_time" json:"appointment_time"`
	Status            AppointmentStatus `db:"status" json:"status"`
	QueuePosition     int               `db:"queue_position" json:"queue_position"`
	EstimatedWaitTime int               `db:"estimated_wait_time" json:"estimated_wait_time"`
	Notes             string            `db:"notes" json:"notes,omitempty"`
}

// InQueue reports whether the appointment still occupies the partition
// timeline. Completed and cancelled entries never contribute to position or
// wait time.
func (a *Appointment) InQueue() bool {
	return a.Status == AppointmentStatusPending || a.Status == AppointmentStatusInProgress
}

type BookAppointmentRequest struct {
	OrganizationID  uuid.UUID `json:"organization_id" binding:"required"`
	ExpertID        uuid.UUID `json:"expert_id"`
	ExpertName      string    `json:"expert_name" binding:"required_without=ExpertID,max=200"`
	ServiceName     string    `json:"service_name" binding:"required,max=200"`
	AppointmentDate string    `json:"appointment_date" binding:"required"`
	AppointmentTime string    `json:"appointment_time" binding:"required"`
	Notes           string    `json:"notes" binding:"max=1000"`
}

type UpdateStatusRequest struct {
	Status AppointmentStatus `json:"status" binding:"required"`
}

type AppointmentFilters struct {
	Status AppointmentStatus
	Date   *time.Time
}

// UserSummary is the slice of user identity embedded in organization-facing
// appointment listings.
type UserSummary struct {
	ID    uuid.UUID `db:"id" json:"id"`
	Name  string    `db:"name" json:"name"`
	Phone string    `db:"phone" json:"phone,omitempty"`
}

// UserAppointment is an appointment with its organization summary, as served
// to the booking user.
type UserAppointment struct {
	Appointment
	Organization OrganizationSummary `db:"org" json:"organization"`
}

// OrganizationAppointment is an appointment with its user summary, as served
// to the organization dashboard.
type OrganizationAppointment struct {
	Appointment
	User UserSummary `db:"usr" json:"user"`
}
