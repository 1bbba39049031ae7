package scheduling

import (
	"time"

	"github.com/google/uuid"

	"github.com/slotwise/booking-api/internal/model"
	apperr "github.com/slotwise/booking-api/pkg/errors"
)

// CheckAvailability decides whether a slot is bookable. It is a pure function
// of the organization snapshot and the proposed slot: checks run in a fixed
// order and the first failure wins. On success it returns the resolved expert
// so the booking can snapshot both the stable ID and the display name.
func CheckAvailability(org *model.Organization, date time.Time, timeOfDay string, expertID uuid.UUID, expertName string, now time.Time) (*model.Expert, *apperr.AppError) {
	if !org.IsCurrentlyOpen {
		return nil, apperr.SlotUnavailable(apperr.ReasonOrganizationClosed)
	}

	weekday := date.Weekday().String()
	if org.IsWeeklyDayOff(weekday) {
		return nil, apperr.SlotUnavailable(apperr.ReasonWeeklyDayOff)
	}

	hours, ok := org.WorkingHoursFor(weekday)
	if !ok || !hours.IsOpen {
		return nil, apperr.SlotUnavailable(apperr.ReasonClosedThatDay)
	}

	slot, err := minutesOfDay(timeOfDay)
	if err != nil {
		return nil, apperr.SlotUnavailable(apperr.ReasonOutsideWorkingHours)
	}
	open, err := minutesOfDay(hours.StartTime)
	if err != nil {
		return nil, apperr.SlotUnavailable(apperr.ReasonClosedThatDay)
	}
	close, err := minutesOfDay(hours.EndTime)
	if err != nil {
		return nil, apperr.SlotUnavailable(apperr.ReasonClosedThatDay)
	}
	// The window is half-open: a slot at the closing time is already outside.
	if slot < open || slot >= close {
		return nil, apperr.SlotUnavailable(apperr.ReasonOutsideWorkingHours)
	}

	expert, ok := org.FindExpert(expertID, expertName)
	if !ok || !expert.Available {
		return nil, apperr.SlotUnavailable(apperr.ReasonExpertUnavailable)
	}

	if calendarDate(date).Before(calendarDate(now)) {
		return nil, apperr.SlotUnavailable(apperr.ReasonDateInPast)
	}

	return expert, nil
}

func minutesOfDay(s string) (int, error) {
	t, err := time.Parse(model.TimeFormat, s)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

func calendarDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
