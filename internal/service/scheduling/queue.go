package scheduling

import (
	"sort"

	"github.com/slotwise/booking-api/internal/model"
	"github.com/slotwise/booking-api/internal/repository"
)

// orderPartition sorts a partition snapshot into service order: appointment
// time ascending, ties broken by creation time (first booked, first served).
func orderPartition(entries []*model.Appointment) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].AppointmentTime != entries[j].AppointmentTime {
			return entries[i].AppointmentTime < entries[j].AppointmentTime
		}
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
}

// queueFields is the derived (position, wait) pair for one entry.
type queueFields struct {
	position int
	wait     int
}

// computeQueue derives queue positions and wait times for an ordered
// partition snapshot. Only pending entries consume a queue slot; an
// in-progress entry keeps its place on the timeline (it still delays
// everyone behind it) but carries position 0. Wait time counts every
// pending or in-progress entry ahead, times the slot duration.
func computeQueue(entries []*model.Appointment, durationMinutes int) map[*model.Appointment]queueFields {
	fields := make(map[*model.Appointment]queueFields, len(entries))

	ahead := 0
	rank := 0
	for _, e := range entries {
		switch e.Status {
		case model.AppointmentStatusPending:
			rank++
			fields[e] = queueFields{position: rank, wait: ahead * durationMinutes}
			ahead++
		case model.AppointmentStatusInProgress:
			fields[e] = queueFields{position: 0, wait: 0}
			ahead++
		}
	}
	return fields
}

// recompute returns the persistence updates needed to bring a partition in
// line with its derived queue view. Entries whose stored values already match
// produce no update, so recompute is idempotent.
func recompute(entries []*model.Appointment, durationMinutes int) []repository.QueueUpdate {
	orderPartition(entries)
	fields := computeQueue(entries, durationMinutes)

	var updates []repository.QueueUpdate
	for _, e := range entries {
		f, ok := fields[e]
		if !ok {
			continue
		}
		if e.QueuePosition == f.position && e.EstimatedWaitTime == f.wait {
			continue
		}
		e.QueuePosition = f.position
		e.EstimatedWaitTime = f.wait
		updates = append(updates, repository.QueueUpdate{
			ID:                e.ID,
			QueuePosition:     f.position,
			EstimatedWaitTime: f.wait,
		})
	}
	return updates
}

// pendingDepth counts the pending entries in a partition snapshot.
func pendingDepth(entries []*model.Appointment) int {
	n := 0
	for _, e := range entries {
		if e.Status == model.AppointmentStatusPending {
			n++
		}
	}
	return n
}
