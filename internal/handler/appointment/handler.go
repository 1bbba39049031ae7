package appointment

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/slotwise/booking-api/internal/handler"
	"github.com/slotwise/booking-api/internal/model"
	"github.com/slotwise/booking-api/internal/service/scheduling"
)

type Handler struct {
	service *scheduling.Service
}

func NewHandler(service *scheduling.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("", h.BookAppointment)
	r.GET("/user", h.ListUserAppointments)
	r.GET("/organization/:id", h.ListOrganizationAppointments)
	r.GET("/:id", h.GetAppointment)
	r.PUT("/:id/status", h.UpdateAppointmentStatus)
	r.DELETE("/:id", h.CancelAppointment)
}

func (h *Handler) BookAppointment(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var req model.BookAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	appointment, err := h.service.Book(c.Request.Context(), userID, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(appointment))
}

func (h *Handler) GetAppointment(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	appointment, err := h.service.Get(c.Request.Context(), id, userID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(appointment))
}

func (h *Handler) ListUserAppointments(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	appointments, err := h.service.ListForUser(c.Request.Context(), userID, model.AppointmentStatus(c.Query("status")))
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(appointments))
}

func (h *Handler) ListOrganizationAppointments(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	orgID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid organization ID"))
		return
	}

	filters := &model.AppointmentFilters{
		Status: model.AppointmentStatus(c.Query("status")),
	}
	if date := c.Query("date"); date != "" {
		parsed, err := time.ParseInLocation(model.DateFormat, date, time.UTC)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid date, expected YYYY-MM-DD"))
			return
		}
		filters.Date = &parsed
	}

	appointments, err := h.service.ListForOrganization(c.Request.Context(), orgID, userID, filters)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(appointments))
}

func (h *Handler) UpdateAppointmentStatus(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	var req model.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	appointment, err := h.service.UpdateStatus(c.Request.Context(), id, req.Status, userID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(appointment))
}

func (h *Handler) CancelAppointment(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	appointment, err := h.service.Cancel(c.Request.Context(), id, userID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(appointment))
}

func callerID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.GetString("userID"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid user ID"))
		return uuid.Nil, false
	}
	return id, true
}
