package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

const DefaultAppointmentDuration = 30

// WorkingHours is the open/close window for one weekday, independent of the
// manual IsCurrentlyOpen override. At most one entry per weekday.
type WorkingHours struct {
	Day       string `json:"day"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	IsOpen    bool   `json:"is_open"`
}

// Expert carries a stable ID alongside the renamable display name so a rename
// never silently invalidates bookings made against the old name.
type Expert struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Specialization string    `json:"specialization"`
	Available      bool      `json:"available"`
}

type Organization struct {
	Base
	OwnerUserID         uuid.UUID        `db:"owner_user_id" json:"owner_user_id"`
	OrganizationName    string           `db:"organization_name" json:"organization_name"`
	Category            string           `db:"category" json:"category"`
	Address             string           `db:"address" json:"address,omitempty"`
	AppointmentDuration int              `db:"appointment_duration" json:"appointment_duration"`
	WorkingHours        WorkingHoursList `db:"working_hours" json:"working_hours"`
	WeeklyDaysOff       StringList       `db:"weekly_days_off" json:"weekly_days_off"`
	IsCurrentlyOpen     bool             `db:"is_currently_open" json:"is_currently_open"`
	Experts             ExpertList       `db:"experts" json:"experts"`
}

// FindExpert resolves an expert by stable ID first, falling back to the
// display name for callers that only have the name.
func (o *Organization) FindExpert(id uuid.UUID, name string) (*Expert, bool) {
	for i := range o.Experts {
		if id != uuid.Nil && o.Experts[i].ID == id {
			return &o.Experts[i], true
		}
	}
	if name == "" {
		return nil, false
	}
	for i := range o.Experts {
		if o.Experts[i].Name == name {
			return &o.Experts[i], true
		}
	}
	return nil, false
}

// WorkingHoursFor returns the working-hours entry for the given weekday name.
func (o *Organization) WorkingHoursFor(day string) (*WorkingHours, bool) {
	for i := range o.WorkingHours {
		if o.WorkingHours[i].Day == day {
			return &o.WorkingHours[i], true
		}
	}
	return nil, false
}

// IsWeeklyDayOff reports whether the weekday name is in the days-off set.
func (o *Organization) IsWeeklyDayOff(day string) bool {
	for _, d := range o.WeeklyDaysOff {
		if d == day {
			return true
		}
	}
	return false
}

type CreateOrganizationRequest struct {
	OrganizationName    string         `json:"organization_name" binding:"required,max=200"`
	Category            string         `json:"category" binding:"required,max=100"`
	Address             string         `json:"address" binding:"max=500"`
	AppointmentDuration int            `json:"appointment_duration" binding:"omitempty,min=5,max=240"`
	WorkingHours        []WorkingHours `json:"working_hours"`
	WeeklyDaysOff       []string       `json:"weekly_days_off"`
	IsCurrentlyOpen     *bool          `json:"is_currently_open"`
	Experts             []ExpertInput  `json:"experts"`
}

type UpdateOrganizationRequest struct {
	OrganizationName    *string        `json:"organization_name"`
	Category            *string        `json:"category"`
	Address             *string        `json:"address"`
	AppointmentDuration *int           `json:"appointment_duration"`
	WorkingHours        []WorkingHours `json:"working_hours"`
	WeeklyDaysOff       []string       `json:"weekly_days_off"`
	IsCurrentlyOpen     *bool          `json:"is_currently_open"`
	Experts             []ExpertInput  `json:"experts"`
}

// ExpertInput accepts an optional ID so updates can rename an existing expert
// without minting a new identity.
type ExpertInput struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name" binding:"required,max=200"`
	Specialization string    `json:"specialization" binding:"max=200"`
	Available      bool      `json:"available"`
}

// OrganizationSummary is the slice of organization state embedded in user
// appointment listings.
type OrganizationSummary struct {
	ID               uuid.UUID `db:"id" json:"id"`
	OrganizationName string    `db:"organization_name" json:"organization_name"`
	Category         string    `db:"category" json:"category"`
	Address          string    `db:"address" json:"address,omitempty"`
}

// JSONB column types. Organization sub-collections are stored as JSONB since
// they are always read and written with the profile as a unit.

type WorkingHoursList []WorkingHours

func (l WorkingHoursList) Value() (driver.Value, error) {
	return jsonbValue(l)
}

func (l *WorkingHoursList) Scan(src interface{}) error {
	return jsonbScan(src, l)
}

type ExpertList []Expert

func (l ExpertList) Value() (driver.Value, error) {
	return jsonbValue(l)
}

func (l *ExpertList) Scan(src interface{}) error {
	return jsonbScan(src, l)
}

type StringList []string

func (l StringList) Value() (driver.Value, error) {
	return jsonbValue(l)
}

func (l *StringList) Scan(src interface{}) error {
	return jsonbScan(src, l)
}

func jsonbValue(v interface{}) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal jsonb column: %w", err)
	}
	return b, nil
}

func jsonbScan(src, dst interface{}) error {
	if src == nil {
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported jsonb source type %T", src)
	}
	return json.Unmarshal(data, dst)
}
