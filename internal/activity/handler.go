package activity

import (
	"strconv"

	"firmos_backend/platform/apperr"
	"firmos_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler exposes read endpoints for the activity log.
type Handler struct {
	service *Service
}

// NewHandler creates a new activity handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleListRecent returns the most recent activity entries.
// GET /api/v1/activity?limit=50
func (h *Handler) HandleListRecent(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	entries, err := h.service.ListRecent(c.Request.Context(), limit)
	if err != nil {
		httpkit.HandleError(c, apperr.Wrap(apperr.KindInternal, "failed to list activity", err))
		return
	}
	httpkit.OK(c, gin.H{"activities": entries})
}

// HandleListByEntity returns the activity timeline for one entity.
// GET /api/v1/activity/:entityType/:entityId
func (h *Handler) HandleListByEntity(c *gin.Context) {
	entityID, err := uuid.Parse(c.Param("entityId"))
	if err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid entity id"))
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	entries, err := h.service.ListByEntity(c.Request.Context(), c.Param("entityType"), entityID, limit)
	if err != nil {
		httpkit.HandleError(c, apperr.Wrap(apperr.KindInternal, "failed to list activity", err))
		return
	}
	httpkit.OK(c, gin.H{"activities": entries})
}
