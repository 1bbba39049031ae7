package scheduling

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/slotwise/booking-api/internal/model"
	apperr "github.com/slotwise/booking-api/pkg/errors"
)

func TestCheckTransitionAllowed(t *testing.T) {
	tests := []struct {
		name string
		from model.AppointmentStatus
		to   model.AppointmentStatus
		role model.ActorRole
	}{
		{"organization starts pending", model.AppointmentStatusPending, model.AppointmentStatusInProgress, model.RoleOrganization},
		{"organization completes in-progress", model.AppointmentStatusInProgress, model.AppointmentStatusCompleted, model.RoleOrganization},
		{"user cancels pending", model.AppointmentStatusPending, model.AppointmentStatusCancelled, model.RoleUser},
		{"organization cancels pending", model.AppointmentStatusPending, model.AppointmentStatusCancelled, model.RoleOrganization},
		{"organization cancels in-progress", model.AppointmentStatusInProgress, model.AppointmentStatusCancelled, model.RoleOrganization},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, checkTransition(tt.from, tt.to, tt.role))
		})
	}
}

func TestCheckTransitionRoleGuards(t *testing.T) {
	tests := []struct {
		name string
		from model.AppointmentStatus
		to   model.AppointmentStatus
		role model.ActorRole
	}{
		{"user cannot start an appointment", model.AppointmentStatusPending, model.AppointmentStatusInProgress, model.RoleUser},
		{"user cannot complete an appointment", model.AppointmentStatusInProgress, model.AppointmentStatusCompleted, model.RoleUser},
		{"user cannot cancel once service started", model.AppointmentStatusInProgress, model.AppointmentStatusCancelled, model.RoleUser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkTransition(tt.from, tt.to, tt.role)
			assert.NotNil(t, err)
			assert.Equal(t, apperr.KindUnauthorized, err.Kind)
		})
	}
}

// Pairs outside the table are invalid for everyone, and InvalidTransition is
// reported even when the actor's role would also have been rejected.
func TestCheckTransitionUndefinedPairs(t *testing.T) {
	statuses := []model.AppointmentStatus{
		model.AppointmentStatusPending,
		model.AppointmentStatusInProgress,
		model.AppointmentStatusCompleted,
		model.AppointmentStatusCancelled,
	}

	defined := map[[2]model.AppointmentStatus]bool{
		{model.AppointmentStatusPending, model.AppointmentStatusInProgress}:   true,
		{model.AppointmentStatusInProgress, model.AppointmentStatusCompleted}: true,
		{model.AppointmentStatusPending, model.AppointmentStatusCancelled}:    true,
		{model.AppointmentStatusInProgress, model.AppointmentStatusCancelled}: true,
	}

	for _, from := range statuses {
		for _, to := range statuses {
			if defined[[2]model.AppointmentStatus{from, to}] {
				continue
			}
			for _, role := range []model.ActorRole{model.RoleUser, model.RoleOrganization} {
				err := checkTransition(from, to, role)
				assert.NotNil(t, err, "%s -> %s as %s", from, to, role)
				assert.Equal(t, apperr.KindInvalidTransition, err.Kind, "%s -> %s as %s", from, to, role)
			}
		}
	}
}

func TestTerminalStatusesHaveNoExits(t *testing.T) {
	for key := range allowedTransitions {
		assert.False(t, key.from.Terminal(), "terminal status %s must not allow transitions", key.from)
	}
}
