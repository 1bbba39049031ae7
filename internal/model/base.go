package model

import (
	"time"

	"github.com/google/uuid"
)

// Base contains common fields for all models
type Base struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// DateFormat is the calendar-date wire format used across the API.
const DateFormat = "2006-01-02"

// TimeFormat is the time-of-day wire format. Zero-padded 24h, so lexical
// order matches chronological order.
const TimeFormat = "15:04"
