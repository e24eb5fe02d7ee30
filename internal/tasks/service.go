package tasks

import (
	"context"
	"errors"
	"time"

	"firmos_backend/internal/events"
	"firmos_backend/platform/apperr"
	"firmos_backend/platform/logger"

	"github.com/google/uuid"
)

// Task priorities.
const (
	PriorityUrgent = "urgent"
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// Task statuses.
const (
	StatusOpen       = "open"
	StatusInProgress = "in_progress"
	StatusDone       = "done"
	StatusCancelled  = "cancelled"
)

// SourcePhoneCall marks tasks auto-created from inbound calls.
const SourcePhoneCall = "phone_call"

// PriorityFromUrgency maps a caller urgency assessment to a task
// priority. Unknown or empty urgency defaults to medium.
func PriorityFromUrgency(urgency string) string {
	switch urgency {
	case "urgent":
		return PriorityUrgent
	case "high":
		return PriorityHigh
	default:
		return PriorityMedium
	}
}

// Service implements task management business logic.
type Service struct {
	repo     *Repository
	eventBus events.Bus
	log      *logger.Logger
}

// NewService creates a new tasks service.
func NewService(repo *Repository, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, eventBus: eventBus, log: log}
}

// CreateInput holds the fields accepted when creating a task.
type CreateInput struct {
	Title       string     `json:"title" validate:"required,min=2,max=300"`
	Description string     `json:"description" validate:"max=10000"`
	Priority    string     `json:"priority" validate:"omitempty,oneof=urgent high medium low"`
	ClientID    *uuid.UUID `json:"clientId"`
	AssignedTo  *uuid.UUID `json:"assignedTo"`
	DueDate     *time.Time `json:"dueDate"`
}

// Create adds a new staff-created task.
func (s *Service) Create(ctx context.Context, input CreateInput) (Task, error) {
	priority := input.Priority
	if priority == "" {
		priority = PriorityMedium
	}

	return s.insert(ctx, Task{
		Title:       input.Title,
		Description: input.Description,
		Priority:    priority,
		Status:      StatusOpen,
		ClientID:    input.ClientID,
		AssignedTo:  input.AssignedTo,
		DueDate:     input.DueDate,
	})
}

// CreateFromCall adds a task generated from an inbound phone call. The
// urgency comes from the AI assessment of the caller's request and the
// reference points back at the stored call record.
func (s *Service) CreateFromCall(ctx context.Context, title, description, urgency string, clientID, callID *uuid.UUID) (Task, error) {
	return s.insert(ctx, Task{
		Title:             title,
		Description:       description,
		Priority:          PriorityFromUrgency(urgency),
		Status:            StatusOpen,
		ClientID:          clientID,
		Source:            SourcePhoneCall,
		SourceReferenceID: callID,
	})
}

func (s *Service) insert(ctx context.Context, task Task) (Task, error) {
	stored, err := s.repo.Insert(ctx, task)
	if err != nil {
		return Task{}, apperr.Wrap(apperr.KindInternal, "failed to create task", err)
	}

	s.eventBus.Publish(ctx, events.TaskCreated{
		BaseEvent: events.NewBaseEvent(),
		TaskID:    stored.ID,
		ClientID:  stored.ClientID,
		Title:     stored.Title,
		Priority:  stored.Priority,
		Source:    stored.Source,
	})

	return stored, nil
}

// Get returns a single task.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Task, error) {
	task, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ErrTaskNotFound) {
		return Task{}, apperr.NotFound("task not found")
	}
	if err != nil {
		return Task{}, apperr.Wrap(apperr.KindInternal, "failed to load task", err)
	}
	return task, nil
}

// UpdateStatus transitions a task and publishes TaskStatusChanged.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status string, actorID uuid.UUID) (Task, error) {
	oldStatus, err := s.repo.UpdateStatus(ctx, id, status)
	if errors.Is(err, ErrTaskNotFound) {
		return Task{}, apperr.NotFound("task not found")
	}
	if err != nil {
		return Task{}, apperr.Wrap(apperr.KindInternal, "failed to update task status", err)
	}

	if oldStatus != status {
		s.eventBus.Publish(ctx, events.TaskStatusChanged{
			BaseEvent: events.NewBaseEvent(),
			TaskID:    id,
			OldStatus: oldStatus,
			NewStatus: status,
			ActorID:   actorID,
		})
	}

	return s.Get(ctx, id)
}

// List returns a page of tasks.
func (s *Service) List(ctx context.Context, status string, clientID *uuid.UUID, limit, offset int) ([]Task, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	tasks, err := s.repo.List(ctx, status, clientID, limit, offset)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list tasks", err)
	}
	return tasks, nil
}
