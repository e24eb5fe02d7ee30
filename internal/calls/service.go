package calls

import (
	"context"
	"errors"

	"firmos_backend/internal/events"
	"firmos_backend/platform/apperr"
	"firmos_backend/platform/logger"

	"github.com/google/uuid"
)

// Call directions.
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// Service implements call record business logic.
type Service struct {
	repo     *Repository
	eventBus events.Bus
	log      *logger.Logger
}

// NewService creates a new calls service.
func NewService(repo *Repository, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, eventBus: eventBus, log: log}
}

// Store persists a call record and publishes CallReceived.
func (s *Service) Store(ctx context.Context, call Call) (Call, error) {
	stored, err := s.repo.Insert(ctx, call)
	if err != nil {
		return Call{}, apperr.Wrap(apperr.KindInternal, "failed to store call", err)
	}

	s.eventBus.Publish(ctx, events.CallReceived{
		BaseEvent:    events.NewBaseEvent(),
		CallID:       stored.ID,
		ClientID:     stored.ClientID,
		CallerNumber: stored.CallerNumber,
		CallerName:   stored.CallerName,
		Direction:    stored.Direction,
	})

	return stored, nil
}

// Get returns a single call record.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Call, error) {
	call, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ErrCallNotFound) {
		return Call{}, apperr.NotFound("call not found")
	}
	if err != nil {
		return Call{}, apperr.Wrap(apperr.KindInternal, "failed to load call", err)
	}
	return call, nil
}

// List returns a page of calls, optionally filtered by client.
func (s *Service) List(ctx context.Context, clientID *uuid.UUID, limit, offset int) ([]Call, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	calls, err := s.repo.List(ctx, clientID, limit, offset)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list calls", err)
	}
	return calls, nil
}

// FindForRecording locates the call a recording belongs to, preferring
// the conversation space over the recording ID lookup.
func (s *Service) FindForRecording(ctx context.Context, conversationSpaceID, recordingID string) (Call, error) {
	if conversationSpaceID != "" {
		call, err := s.repo.FindByConversationSpaceID(ctx, conversationSpaceID)
		if err == nil {
			return call, nil
		}
		if !errors.Is(err, ErrCallNotFound) {
			return Call{}, err
		}
	}
	if recordingID != "" {
		return s.repo.FindByRecordingID(ctx, recordingID)
	}
	return Call{}, ErrCallNotFound
}

// AttachRecording sets the recording URL and publishes CallRecordingAttached.
func (s *Service) AttachRecording(ctx context.Context, id uuid.UUID, recordingID, recordingURL string) error {
	if err := s.repo.AttachRecording(ctx, id, recordingURL); err != nil {
		return err
	}
	s.eventBus.Publish(ctx, events.CallRecordingAttached{
		BaseEvent:    events.NewBaseEvent(),
		CallID:       id,
		RecordingID:  recordingID,
		HasRecording: true,
	})
	return nil
}

// AttachTranscript sets the transcript and publishes CallRecordingAttached.
func (s *Service) AttachTranscript(ctx context.Context, id uuid.UUID, recordingID, transcript string) error {
	if err := s.repo.AttachTranscript(ctx, id, transcript); err != nil {
		return err
	}
	s.eventBus.Publish(ctx, events.CallRecordingAttached{
		BaseEvent:     events.NewBaseEvent(),
		CallID:        id,
		RecordingID:   recordingID,
		HasTranscript: true,
	})
	return nil
}

// SetArchiveKey records where the recording was archived in object storage.
func (s *Service) SetArchiveKey(ctx context.Context, id uuid.UUID, key string) error {
	return s.repo.SetArchiveKey(ctx, id, key)
}
