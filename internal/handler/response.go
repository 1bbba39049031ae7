package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperr "github.com/slotwise/booking-api/pkg/errors"
)

type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Reason  string      `json:"reason,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

// RespondError maps a service error to an HTTP status and writes the
// standard error envelope. Unknown errors are masked as internal.
func RespondError(c *gin.Context, err error) {
	var appErr *apperr.AppError
	if !apperr.As(err, &appErr) {
		c.JSON(http.StatusInternalServerError, NewErrorResponse("internal server error"))
		return
	}

	resp := NewErrorResponse(appErr.Message)
	if appErr.Reason != "" {
		resp.Reason = string(appErr.Reason)
	}

	status := appErr.StatusCode()
	if status == http.StatusInternalServerError {
		resp.Message = "internal server error"
	}
	c.JSON(status, resp)
}
