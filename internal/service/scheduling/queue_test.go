package scheduling

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slotwise/booking-api/internal/model"
)

func queueEntry(timeOfDay string, status model.AppointmentStatus, createdAt time.Time) *model.Appointment {
	return &model.Appointment{
		Base:            model.Base{ID: uuid.New(), CreatedAt: createdAt},
		AppointmentTime: timeOfDay,
		Status:          status,
	}
}

func TestRecomputeAssignsPositionsByTime(t *testing.T) {
	t0 := time.Now()
	first := queueEntry("09:00", model.AppointmentStatusPending, t0)
	second := queueEntry("09:15", model.AppointmentStatusPending, t0.Add(time.Minute))

	// Deliberately out of order: position follows appointment time, not
	// insertion order.
	updates := recompute([]*model.Appointment{second, first}, 30)
	require.Len(t, updates, 2)

	assert.Equal(t, 1, first.QueuePosition)
	assert.Equal(t, 0, first.EstimatedWaitTime)
	assert.Equal(t, 2, second.QueuePosition)
	assert.Equal(t, 30, second.EstimatedWaitTime)
}

func TestRecomputeBreaksTiesByCreation(t *testing.T) {
	t0 := time.Now()
	earlier := queueEntry("09:00", model.AppointmentStatusPending, t0)
	later := queueEntry("09:00", model.AppointmentStatusPending, t0.Add(time.Second))

	recompute([]*model.Appointment{later, earlier}, 20)

	assert.Equal(t, 1, earlier.QueuePosition)
	assert.Equal(t, 2, later.QueuePosition)
	assert.Equal(t, 20, later.EstimatedWaitTime)
}

func TestRecomputeInProgressHoldsTimelineSlot(t *testing.T) {
	t0 := time.Now()
	serving := queueEntry("09:00", model.AppointmentStatusInProgress, t0)
	waiting := queueEntry("09:15", model.AppointmentStatusPending, t0.Add(time.Minute))

	recompute([]*model.Appointment{serving, waiting}, 30)

	// The entry being served has left the queue but still delays those behind.
	assert.Equal(t, 0, serving.QueuePosition)
	assert.Equal(t, 0, serving.EstimatedWaitTime)
	assert.Equal(t, 1, waiting.QueuePosition)
	assert.Equal(t, 30, waiting.EstimatedWaitTime)
}

func TestRecomputeIgnoresTerminalEntries(t *testing.T) {
	t0 := time.Now()
	cancelled := queueEntry("09:00", model.AppointmentStatusCancelled, t0)
	completed := queueEntry("09:15", model.AppointmentStatusCompleted, t0)
	pending := queueEntry("09:30", model.AppointmentStatusPending, t0)

	updates := recompute([]*model.Appointment{cancelled, completed, pending}, 30)

	require.Len(t, updates, 1)
	assert.Equal(t, pending.ID, updates[0].ID)
	assert.Equal(t, 1, pending.QueuePosition)
	assert.Equal(t, 0, pending.EstimatedWaitTime)
}

func TestRecomputeIsIdempotent(t *testing.T) {
	t0 := time.Now()
	entries := []*model.Appointment{
		queueEntry("09:00", model.AppointmentStatusPending, t0),
		queueEntry("09:15", model.AppointmentStatusPending, t0),
		queueEntry("09:30", model.AppointmentStatusInProgress, t0),
	}

	first := recompute(entries, 30)
	assert.NotEmpty(t, first)

	second := recompute(entries, 30)
	assert.Empty(t, second, "a second recompute over unchanged entries must produce no updates")
}

func TestRecomputeAfterCancellationClosesGap(t *testing.T) {
	t0 := time.Now()
	a := queueEntry("09:00", model.AppointmentStatusPending, t0)
	b := queueEntry("09:15", model.AppointmentStatusPending, t0)
	c := queueEntry("09:30", model.AppointmentStatusPending, t0)

	recompute([]*model.Appointment{a, b, c}, 30)
	require.Equal(t, 3, c.QueuePosition)
	require.Equal(t, 60, c.EstimatedWaitTime)

	// The head of the queue cancels; everyone moves up.
	a.Status = model.AppointmentStatusCancelled
	updates := recompute([]*model.Appointment{b, c}, 30)

	require.Len(t, updates, 2)
	assert.Equal(t, 1, b.QueuePosition)
	assert.Equal(t, 0, b.EstimatedWaitTime)
	assert.Equal(t, 2, c.QueuePosition)
	assert.Equal(t, 30, c.EstimatedWaitTime)
}

func TestPendingDepth(t *testing.T) {
	t0 := time.Now()
	entries := []*model.Appointment{
		queueEntry("09:00", model.AppointmentStatusPending, t0),
		queueEntry("09:15", model.AppointmentStatusInProgress, t0),
		queueEntry("09:30", model.AppointmentStatusCancelled, t0),
		queueEntry("09:45", model.AppointmentStatusPending, t0),
	}
	assert.Equal(t, 2, pendingDepth(entries))
}
