package scheduling

import (
	"github.com/slotwise/booking-api/internal/model"
	apperr "github.com/slotwise/booking-api/pkg/errors"
)

type transitionKey struct {
	from model.AppointmentStatus
	to   model.AppointmentStatus
}

// allowedTransitions is the closed transition table: a (from, to) pair absent
// here is invalid for every actor. Users may only cancel a pending
// appointment; once service is underway only the organization can cancel.
var allowedTransitions = map[transitionKey][]model.ActorRole{
	{model.AppointmentStatusPending, model.AppointmentStatusInProgress}:   {model.RoleOrganization},
	{model.AppointmentStatusInProgress, model.AppointmentStatusCompleted}: {model.RoleOrganization},
	{model.AppointmentStatusPending, model.AppointmentStatusCancelled}:    {model.RoleUser, model.RoleOrganization},
	{model.AppointmentStatusInProgress, model.AppointmentStatusCancelled}: {model.RoleOrganization},
}

// checkTransition validates a requested status change for the acting role.
// The table is total: every (from, to, role) triple yields either nil or a
// defined error, InvalidTransition taking precedence over Unauthorized.
func checkTransition(from, to model.AppointmentStatus, role model.ActorRole) *apperr.AppError {
	roles, ok := allowedTransitions[transitionKey{from: from, to: to}]
	if !ok {
		return apperr.InvalidTransition(string(from), string(to))
	}
	for _, r := range roles {
		if r == role {
			return nil
		}
	}
	return apperr.Unauthorized("actor is not permitted to perform this transition")
}
