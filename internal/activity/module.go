// Package activity provides the append-only activity log bounded context module.
package activity

import (
	apphttp "firmos_backend/internal/http"
	"firmos_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the activity bounded context module implementing http.Module.
type Module struct {
	handler *Handler
	service *Service
}

// NewModule creates and initializes the activity module.
func NewModule(pool *pgxpool.Pool, log *logger.Logger) *Module {
	repo := NewRepository(pool)
	service := NewService(repo, log)
	handler := NewHandler(service)

	return &Module{handler: handler, service: service}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "activity"
}

// Service exposes the activity service for cross-module recording.
func (m *Module) Service() *Service {
	return m.service
}

// RegisterRoutes mounts activity routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/activity")
	group.GET("", m.handler.HandleListRecent)
	group.GET("/:entityType/:entityId", m.handler.HandleListByEntity)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
