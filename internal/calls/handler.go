package calls

import (
	"strconv"

	"firmos_backend/platform/apperr"
	"firmos_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler exposes read endpoints for call records.
type Handler struct {
	service *Service
}

// NewHandler creates a new calls handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleList returns a page of calls.
// GET /api/v1/calls?clientId=&limit=50&offset=0
func (h *Handler) HandleList(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	var clientID *uuid.UUID
	if raw := c.Query("clientId"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			httpkit.HandleError(c, apperr.BadRequest("invalid client id"))
			return
		}
		clientID = &parsed
	}

	calls, err := h.service.List(c.Request.Context(), clientID, limit, offset)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"calls": calls})
}

// HandleGet returns a single call record.
// GET /api/v1/calls/:callId
func (h *Handler) HandleGet(c *gin.Context) {
	id, err := uuid.Parse(c.Param("callId"))
	if err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid call id"))
		return
	}

	call, err := h.service.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, call)
}
