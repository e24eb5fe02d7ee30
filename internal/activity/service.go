package activity

import (
	"context"
	"encoding/json"

	"firmos_backend/platform/logger"

	"github.com/google/uuid"
)

// Actor types recorded against entries.
const (
	ActorSystem = "system"
	ActorUser   = "user"
)

// Service records and queries activity log entries.
type Service struct {
	repo *Repository
	log  *logger.Logger
}

// NewService creates a new activity service.
func NewService(repo *Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Record appends a system-attributed activity entry. Failures are logged
// and swallowed so audit trail problems never break the calling flow.
func (s *Service) Record(ctx context.Context, entityType string, entityID *uuid.UUID, action, description string, metadata map[string]any) {
	var raw []byte
	if len(metadata) > 0 {
		encoded, err := json.Marshal(metadata)
		if err != nil {
			s.log.Warn("failed to encode activity metadata", "action", action, "error", err)
		} else {
			raw = encoded
		}
	}

	_, err := s.repo.Insert(ctx, Entry{
		EntityType:  entityType,
		EntityID:    entityID,
		Action:      action,
		ActorType:   ActorSystem,
		Description: description,
		Metadata:    raw,
	})
	if err != nil {
		s.log.Error("failed to record activity", "action", action, "entity_type", entityType, "error", err)
	}
}

// RecordUser appends a user-attributed activity entry.
func (s *Service) RecordUser(ctx context.Context, actorID uuid.UUID, entityType string, entityID *uuid.UUID, action, description string) {
	_, err := s.repo.Insert(ctx, Entry{
		EntityType:  entityType,
		EntityID:    entityID,
		Action:      action,
		ActorType:   ActorUser,
		ActorID:     &actorID,
		Description: description,
	})
	if err != nil {
		s.log.Error("failed to record activity", "action", action, "entity_type", entityType, "error", err)
	}
}

// ListByEntity returns the activity timeline for one entity.
func (s *Service) ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID, limit int) ([]Entry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.ListByEntity(ctx, entityType, entityID, limit)
}

// ListRecent returns the most recent entries across the system.
func (s *Service) ListRecent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.ListRecent(ctx, limit)
}
