// Package notification delivers staff alerts in response to domain events.
// It is not HTTP-facing; it only subscribes to the event bus.
package notification

import (
	"context"
	"fmt"

	"firmos_backend/internal/email"
	"firmos_backend/internal/events"
	"firmos_backend/internal/tasks"
	"firmos_backend/platform/config"
	"firmos_backend/platform/logger"
)

// Module wires domain events to email alerts.
type Module struct {
	sender    email.Sender
	recipient string
	log       *logger.Logger
}

// New creates the notification module.
func New(sender email.Sender, cfg config.EmailConfig, log *logger.Logger) *Module {
	return &Module{
		sender:    sender,
		recipient: cfg.GetAlertRecipient(),
		log:       log,
	}
}

// RegisterHandlers subscribes the module to the events it reacts to.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.TaskCreated{}.EventName(), events.HandlerFunc(m.handleTaskCreated))
	bus.Subscribe(events.WebhookProcessed{}.EventName(), events.HandlerFunc(m.handleWebhookProcessed))
}

// handleTaskCreated emails staff when an urgent task lands, so calls
// that need a same-day response are not buried in the task list.
func (m *Module) handleTaskCreated(ctx context.Context, event events.Event) error {
	created, ok := event.(events.TaskCreated)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}

	if created.Priority != tasks.PriorityUrgent || m.recipient == "" {
		return nil
	}

	clientName := ""
	if created.ClientID != nil {
		clientName = created.ClientID.String()
	}

	if err := m.sender.SendUrgentTaskAlert(ctx, m.recipient, created.Title, created.Priority, clientName, ""); err != nil {
		m.log.Error("failed to send urgent task alert", "task_id", created.TaskID, "error", err)
		return err
	}

	m.log.Info("urgent task alert sent", "task_id", created.TaskID, "recipient", m.recipient)
	return nil
}

// handleWebhookProcessed emails staff when a webhook delivery fails so
// the preserved payload can be replayed.
func (m *Module) handleWebhookProcessed(ctx context.Context, event events.Event) error {
	processed, ok := event.(events.WebhookProcessed)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}

	if processed.Status != "failed" || m.recipient == "" {
		return nil
	}

	if err := m.sender.SendWebhookFailureAlert(ctx, m.recipient, processed.EventType, "processing failed; see webhook log "+processed.WebhookLogID.String()); err != nil {
		m.log.Error("failed to send webhook failure alert", "webhook_log_id", processed.WebhookLogID, "error", err)
		return err
	}

	return nil
}
