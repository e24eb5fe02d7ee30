package webhook

import (
	"firmos_backend/internal/events"
	apphttp "firmos_backend/internal/http"
	"firmos_backend/internal/scheduler"
	"firmos_backend/platform/config"
	"firmos_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the webhook bounded context module implementing http.Module.
type Module struct {
	handler *Handler
}

// NewModule creates and initializes the webhook module with all its
// dependencies. provider, ai, and sched may be nil.
func NewModule(
	pool *pgxpool.Pool,
	deduper Deduper,
	callsSvc CallStore,
	matcher ClientMatcher,
	tasksSvc TaskCreator,
	activity ActivityRecorder,
	provider ProviderAPI,
	ai AIParser,
	sched scheduler.RecordingScheduler,
	eventBus events.Bus,
	cfg config.WebhookConfig,
	log *logger.Logger,
) *Module {
	repo := NewRepository(pool)
	service := NewService(repo, deduper, callsSvc, matcher, tasksSvc, activity, provider, ai, sched, eventBus, log)
	handler := NewHandler(service, repo, cfg, log)

	return &Module{handler: handler}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "webhook"
}

// RegisterRoutes mounts webhook routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Provider-facing endpoint: signature auth, no JWT. Mounted on the
	// engine directly because the provider path is not versioned.
	group := ctx.Engine.Group("/api/webhooks")
	if ctx.WebhookRateLimiter != nil {
		group.Use(ctx.WebhookRateLimiter.RateLimit())
	}
	group.POST("/goto", m.handler.HandleGotoWebhook)
	group.GET("/goto", m.handler.HandleWebhookInfo)

	// Delivery log inspection (JWT auth + admin role).
	adminGroup := ctx.Admin.Group("/webhooks")
	adminGroup.GET("/logs", m.handler.HandleListLogs)
	adminGroup.GET("/logs/:logId", m.handler.HandleGetLog)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
