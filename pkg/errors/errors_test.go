package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCodes(t *testing.T) {
	tests := []struct {
		err    *AppError
		status int
	}{
		{NotFound("appointment"), http.StatusNotFound},
		{SlotUnavailable(ReasonOrganizationClosed), http.StatusConflict},
		{InvalidTransition("completed", "pending"), http.StatusConflict},
		{Unauthorized("nope"), http.StatusForbidden},
		{Validation("bad input", nil), http.StatusBadRequest},
		{Internal(fmt.Errorf("boom")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.status, tt.err.StatusCode(), tt.err.Message)
	}
}

func TestSlotUnavailableCarriesReason(t *testing.T) {
	err := SlotUnavailable(ReasonExpertUnavailable)
	assert.Equal(t, ReasonExpertUnavailable, err.Reason)
	assert.Contains(t, err.Error(), "expert unavailable")
}

func TestIsKindThroughWrapping(t *testing.T) {
	err := fmt.Errorf("handling request: %w", NotFound("organization"))
	assert.True(t, IsKind(err, KindNotFound))
	assert.False(t, IsKind(err, KindValidation))
	assert.False(t, IsKind(fmt.Errorf("plain"), KindNotFound))
}

func TestInternalWrapsCause(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := Internal(cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
}
