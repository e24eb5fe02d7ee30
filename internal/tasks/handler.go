package tasks

import (
	"strconv"

	"firmos_backend/platform/apperr"
	"firmos_backend/platform/httpkit"
	"firmos_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler exposes task management endpoints.
type Handler struct {
	service   *Service
	validator *validator.Validator
}

// NewHandler creates a new tasks handler.
func NewHandler(service *Service, val *validator.Validator) *Handler {
	return &Handler{service: service, validator: val}
}

// HandleCreate creates a new task.
// POST /api/v1/tasks
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

	task, err := h.service.Create(c.Request.Context(), input)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, task)
}

// HandleGet returns a single task.
// GET /api/v1/tasks/:taskId
func (h *Handler) HandleGet(c *gin.Context) {
	id, err := uuid.Parse(c.Param("taskId"))
	if err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid task id"))
		return
	}

	task, err := h.service.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, task)
}

type updateStatusInput struct {
	Status string `json:"status" validate:"required,oneof=open in_progress done cancelled"`
}

// HandleUpdateStatus transitions a task.
// PATCH /api/v1/tasks/:taskId/status
func (h *Handler) HandleUpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("taskId"))
	if err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid task id"))
		return
	}

	var input updateStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid request body"))
		return
	}
	if err := h.validator.Struct(input); err != nil {
		httpkit.HandleError(c, apperr.Validation(err.Error()))
		return
	}

	actorID, _ := c.Get(httpkit.ContextUserIDKey)
	userID, _ := actorID.(uuid.UUID)

	task, err := h.service.UpdateStatus(c.Request.Context(), id, input.Status, userID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, task)
}

// HandleList returns a page of tasks.
// GET /api/v1/tasks?status=&clientId=&limit=50&offset=0
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

	tasks, err := h.service.List(c.Request.Context(), c.Query("status"), clientID, limit, offset)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"tasks": tasks})
}
