package organization

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/slotwise/booking-api/internal/handler"
	"github.com/slotwise/booking-api/internal/model"
	"github.com/slotwise/booking-api/internal/service/analytics"
	"github.com/slotwise/booking-api/internal/service/organization"
)

type Handler struct {
	service   *organization.Service
	analytics *analytics.Service
}

func NewHandler(service *organization.Service, analytics *analytics.Service) *Handler {
	return &Handler{service: service, analytics: analytics}
}

// RegisterRoutes wires the authenticated organization endpoints.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("", h.CreateOrganization)
	r.GET("/user/:userId", h.GetOrganizationByOwner)
	r.GET("/:id", h.GetOrganization)
	r.PUT("/:id", h.UpdateOrganization)
	r.GET("/:id/analytics", h.GetAnalytics)
}

// RegisterPublicRoutes wires the unauthenticated directory listing.
func (h *Handler) RegisterPublicRoutes(r *gin.RouterGroup) {
	r.GET("", h.ListOrganizations)
}

func (h *Handler) CreateOrganization(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var req model.CreateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	org, err := h.service.Create(c.Request.Context(), userID, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(org))
}

func (h *Handler) GetOrganization(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid organization ID"))
		return
	}

	org, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(org))
}

func (h *Handler) GetOrganizationByOwner(c *gin.Context) {
	ownerID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid user ID"))
		return
	}

	org, err := h.service.GetByOwner(c.Request.Context(), ownerID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(org))
}

func (h *Handler) UpdateOrganization(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid organization ID"))
		return
	}

	var req model.UpdateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	org, err := h.service.Update(c.Request.Context(), id, userID, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(org))
}

func (h *Handler) ListOrganizations(c *gin.Context) {
	orgs, err := h.service.List(c.Request.Context())
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(orgs))
}

func (h *Handler) GetAnalytics(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid organization ID"))
		return
	}

	summary, err := h.analytics.Summarize(c.Request.Context(), id, userID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(summary))
}

func callerID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.GetString("userID"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid user ID"))
		return uuid.Nil, false
	}
	return id, true
}
