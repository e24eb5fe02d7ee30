// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"firmos_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Webhook Domain Events
// =============================================================================

// WebhookProcessed is published after an inbound webhook has been routed,
// whether or not it produced a record.
type WebhookProcessed struct {
	BaseEvent
	WebhookLogID uuid.UUID  `json:"webhookLogId"`
	Source       string     `json:"source"`
	EventType    string     `json:"eventType"`
	EventID      string     `json:"eventId"`
	RecordID     *uuid.UUID `json:"recordId,omitempty"`
	Status       string     `json:"status"`
}

func (e WebhookProcessed) EventName() string { return "webhook.processed" }

// CallReceived is published when an inbound call report is stored.
type CallReceived struct {
	BaseEvent
	CallID       uuid.UUID  `json:"callId"`
	ClientID     *uuid.UUID `json:"clientId,omitempty"`
	CallerNumber string     `json:"callerNumber"`
	CallerName   string     `json:"callerName,omitempty"`
	Direction    string     `json:"direction,omitempty"`
}

func (e CallReceived) EventName() string { return "calls.call.received" }

// CallRecordingAttached is published when a recording or transcript is
// attached to a stored call.
type CallRecordingAttached struct {
	BaseEvent
	CallID        uuid.UUID `json:"callId"`
	RecordingID   string    `json:"recordingId"`
	HasRecording  bool      `json:"hasRecording"`
	HasTranscript bool      `json:"hasTranscript"`
}

func (e CallRecordingAttached) EventName() string { return "calls.recording.attached" }

// =============================================================================
// Tasks Domain Events
// =============================================================================

// TaskCreated is published when a task is created, either by a user or
// automatically from an inbound call.
type TaskCreated struct {
	BaseEvent
	TaskID   uuid.UUID  `json:"taskId"`
	ClientID *uuid.UUID `json:"clientId,omitempty"`
	Title    string     `json:"title"`
	Priority string     `json:"priority"`
	Source   string     `json:"source,omitempty"`
}

func (e TaskCreated) EventName() string { return "tasks.task.created" }

// TaskStatusChanged is published when a task moves between statuses.
type TaskStatusChanged struct {
	BaseEvent
	TaskID    uuid.UUID `json:"taskId"`
	OldStatus string    `json:"oldStatus"`
	NewStatus string    `json:"newStatus"`
	ActorID   uuid.UUID `json:"actorId"`
}

func (e TaskStatusChanged) EventName() string { return "tasks.task.status_changed" }

// =============================================================================
// Clients Domain Events
// =============================================================================

// ClientCreated is published when a client record is created.
type ClientCreated struct {
	BaseEvent
	ClientID uuid.UUID `json:"clientId"`
	Name     string    `json:"name"`
}

func (e ClientCreated) EventName() string { return "clients.client.created" }
