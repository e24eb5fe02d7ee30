package webhook

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"firmos_backend/platform/apperr"
	"firmos_backend/platform/config"
	"firmos_backend/platform/httpkit"
	"firmos_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WebhookEndpoint is the inbound path recorded on audit logs.
const WebhookEndpoint = "/api/webhooks/goto"

// Handler exposes the webhook HTTP endpoints. The POST endpoint speaks
// the phone provider's response contract, not the internal API format.
type Handler struct {
	service *Service
	repo    *Repository
	cfg     config.WebhookConfig
	log     *logger.Logger
}

// NewHandler creates a new webhook handler.
func NewHandler(service *Service, repo *Repository, cfg config.WebhookConfig, log *logger.Logger) *Handler {
	return &Handler{service: service, repo: repo, cfg: cfg, log: log}
}

// HandleGotoWebhook receives a delivery from the phone system.
// POST /api/webhooks/goto
func (h *Handler) HandleGotoWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "failed to read request body",
		})
		return
	}

	secret := h.cfg.GetGotoWebhookSecret()
	if secret != "" {
		if !VerifySignature(secret, body, c.GetHeader(SignatureHeader)) {
			h.log.Warn("webhook signature verification failed", "remote_addr", c.ClientIP())
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "invalid webhook signature",
			})
			return
		}
	} else if h.cfg.GetEnv() == "production" {
		h.log.Warn("accepting unsigned webhook, no signing secret configured")
	}

	headers, err := json.Marshal(c.Request.Header)
	if err != nil {
		headers = nil
	}

	result, err := h.service.Process(c.Request.Context(), WebhookEndpoint, headers, body)
	if err != nil {
		status := http.StatusInternalServerError
		message := "webhook processing failed"
		if domainErr, ok := err.(*apperr.Error); ok {
			status = domainErr.HTTPStatus()
			message = domainErr.Message
		}
		c.JSON(status, gin.H{
			"success": false,
			"message": message,
		})
		return
	}

	response := gin.H{
		"success":          true,
		"message":          result.Message,
		"eventId":          result.EventID,
		"eventType":        result.EventType,
		"processingTimeMs": result.ProcessingMs,
	}
	if result.RecordID != nil {
		response["recordId"] = result.RecordID
	}
	if result.Duplicate {
		response["duplicate"] = true
	}
	c.JSON(http.StatusOK, response)
}

// HandleWebhookInfo describes the endpoint for setup and health checks.
// GET /api/webhooks/goto
func (h *Handler) HandleWebhookInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"message":  "GoTo webhook endpoint is active",
		"endpoint": WebhookEndpoint,
		"method":   http.MethodPost,
		"signed":   h.cfg.GetGotoWebhookSecret() != "",
	})
}

// HandleListLogs returns recent webhook delivery logs.
// GET /api/v1/admin/webhooks/logs
func (h *Handler) HandleListLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	logs, err := h.repo.ListLogs(c.Request.Context(), c.Query("status"), limit, offset)
	if err != nil {
		httpkit.HandleError(c, apperr.Wrap(apperr.KindInternal, "failed to list webhook logs", err))
		return
	}
	httpkit.OK(c, gin.H{"logs": logs})
}

// HandleGetLog returns a single webhook delivery log with its payload.
// GET /api/v1/admin/webhooks/logs/:logId
func (h *Handler) HandleGetLog(c *gin.Context) {
	id, err := uuid.Parse(c.Param("logId"))
	if err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid log id"))
		return
	}

	logEntry, err := h.repo.GetLog(c.Request.Context(), id)
	if err == ErrLogNotFound {
		httpkit.HandleError(c, apperr.NotFound("webhook log not found"))
		return
	}
	if err != nil {
		httpkit.HandleError(c, apperr.Wrap(apperr.KindInternal, "failed to load webhook log", err))
		return
	}
	httpkit.OK(c, logEntry)
}
