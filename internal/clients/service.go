package clients

import (
	"context"
	"errors"

	"firmos_backend/internal/events"
	"firmos_backend/platform/apperr"
	"firmos_backend/platform/logger"
	"firmos_backend/platform/phone"

	"github.com/google/uuid"
)

// Client statuses.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusProspect = "prospect"
)

// Service implements client directory business logic.
type Service struct {
	repo     *Repository
	eventBus events.Bus
	log      *logger.Logger
}

// NewService creates a new clients service.
func NewService(repo *Repository, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, eventBus: eventBus, log: log}
}

// CreateInput holds the fields accepted when creating a client.
type CreateInput struct {
	Name        string `json:"name" validate:"required,min=2,max=200"`
	CompanyName string `json:"companyName" validate:"max=200"`
	Email       string `json:"email" validate:"omitempty,email"`
	Phone       string `json:"phone" validate:"max=30"`
	AltPhone    string `json:"altPhone" validate:"max=30"`
	Notes       string `json:"notes" validate:"max=5000"`
}

// Create adds a new client. Phone numbers are normalized to E.164 where
// possible so later matching works across formatting styles.
func (s *Service) Create(ctx context.Context, input CreateInput) (Client, error) {
	client, err := s.repo.Create(ctx, Client{
		Name:        input.Name,
		CompanyName: input.CompanyName,
		Email:       input.Email,
		Phone:       phone.NormalizeE164(input.Phone),
		AltPhone:    phone.NormalizeE164(input.AltPhone),
		Status:      StatusActive,
		Notes:       input.Notes,
	})
	if err != nil {
		return Client{}, apperr.Wrap(apperr.KindInternal, "failed to create client", err)
	}

	s.eventBus.Publish(ctx, events.ClientCreated{
		BaseEvent: events.NewBaseEvent(),
		ClientID:  client.ID,
		Name:      client.Name,
	})

	return client, nil
}

// Get returns a single client by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Client, error) {
	client, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ErrClientNotFound) {
		return Client{}, apperr.NotFound("client not found")
	}
	if err != nil {
		return Client{}, apperr.Wrap(apperr.KindInternal, "failed to load client", err)
	}
	return client, nil
}

// UpdateInput holds the fields accepted when updating a client.
type UpdateInput struct {
	Name        string `json:"name" validate:"required,min=2,max=200"`
	CompanyName string `json:"companyName" validate:"max=200"`
	Email       string `json:"email" validate:"omitempty,email"`
	Phone       string `json:"phone" validate:"max=30"`
	AltPhone    string `json:"altPhone" validate:"max=30"`
	Status      string `json:"status" validate:"omitempty,oneof=active inactive prospect"`
	Notes       string `json:"notes" validate:"max=5000"`
}

// Update patches an existing client.
func (s *Service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (Client, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return Client{}, err
	}

	existing.Name = input.Name
	existing.CompanyName = input.CompanyName
	existing.Email = input.Email
	existing.Phone = phone.NormalizeE164(input.Phone)
	existing.AltPhone = phone.NormalizeE164(input.AltPhone)
	existing.Notes = input.Notes
	if input.Status != "" {
		existing.Status = input.Status
	}

	updated, err := s.repo.Update(ctx, existing)
	if err != nil {
		return Client{}, apperr.Wrap(apperr.KindInternal, "failed to update client", err)
	}
	return updated, nil
}

// List returns a page of clients.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Client, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	clients, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list clients", err)
	}
	return clients, nil
}

// MatchByPhone resolves a raw caller number to a client. It returns nil
// (no error) when the number is too short to match or no client has it.
func (s *Service) MatchByPhone(ctx context.Context, rawNumber string) (*Client, error) {
	digits := phone.Digits(rawNumber)
	if len(digits) < phone.MinMatchDigits {
		return nil, nil
	}

	client, err := s.repo.FindByPhoneDigits(ctx, digits, phone.Suffix(digits), phone.MinMatchDigits)
	if errors.Is(err, ErrClientNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &client, nil
}
