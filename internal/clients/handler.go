package clients

import (
	"strconv"

	"firmos_backend/platform/apperr"
	"firmos_backend/platform/httpkit"
	"firmos_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler exposes client directory endpoints.
type Handler struct {
	service   *Service
	validator *validator.Validator
}

// NewHandler creates a new clients handler.
func NewHandler(service *Service, val *validator.Validator) *Handler {
	return &Handler{service: service, validator: val}
}

// HandleCreate creates a new client.
// POST /api/v1/clients
func (h *Handler) HandleCreate(c *gin.Context) {
	var input CreateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid request body"))
		return
	}
	if err := h.validator.Struct(input); err != nil {
		httpkit.HandleError(c, apperr.Validation(err.Error()))
		return
	}

	client, err := h.service.Create(c.Request.Context(), input)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, client)
}

// HandleGet returns a single client.
// GET /api/v1/clients/:clientId
func (h *Handler) HandleGet(c *gin.Context) {
	id, err := uuid.Parse(c.Param("clientId"))
	if err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid client id"))
		return
	}

	client, err := h.service.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, client)
}

// HandleUpdate patches a client.
// PUT /api/v1/clients/:clientId
func (h *Handler) HandleUpdate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("clientId"))
	if err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid client id"))
		return
	}

	var input UpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid request body"))
		return
	}
	if err := h.validator.Struct(input); err != nil {
		httpkit.HandleError(c, apperr.Validation(err.Error()))
		return
	}

	client, err := h.service.Update(c.Request.Context(), id, input)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, client)
}

// HandleList returns a page of clients.
// GET /api/v1/clients?limit=50&offset=0
func (h *Handler) HandleList(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	clients, err := h.service.List(c.Request.Context(), limit, offset)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"clients": clients})
}
