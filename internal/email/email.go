// Package email provides outbound email delivery for staff alerts.
package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"firmos_backend/platform/config"
)

// Sender delivers alert emails to firm staff.
type Sender interface {
	// SendUrgentTaskAlert notifies staff that an urgent task was created.
	SendUrgentTaskAlert(ctx context.Context, toEmail, taskTitle, priority, clientName, summary string) error
	// SendWebhookFailureAlert notifies staff that webhook processing failed.
	SendWebhookFailureAlert(ctx context.Context, toEmail, eventType, errorMessage string) error
}

// NewSender creates the configured sender. Returns a no-op sender when
// SMTP is not configured so callers never need nil checks.
func NewSender(cfg config.EmailConfig) Sender {
	if !cfg.IsEmailEnabled() {
		return noopSender{}
	}
	return NewSMTPSender(
		cfg.GetSMTPHost(), cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(), cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(), cfg.GetEmailFromName(),
	)
}

type noopSender struct{}

func (noopSender) SendUrgentTaskAlert(context.Context, string, string, string, string, string) error {
	return nil
}

func (noopSender) SendWebhookFailureAlert(context.Context, string, string, string) error {
	return nil
}

const alertTemplateHTML = `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #1a1a1a;">
  <h2 style="color: {{.AccentColor}};">{{.Heading}}</h2>
  {{range .Lines}}<p>{{.}}</p>
  {{end}}
  <hr style="border: none; border-top: 1px solid #ddd;">
  <p style="color: #888; font-size: 12px;">This alert was generated automatically.</p>
</body>
</html>`

var alertTemplate = template.Must(template.New("alert").Parse(alertTemplateHTML))

type alertData struct {
	Heading     string
	AccentColor string
	Lines       []string
}

func renderAlert(data alertData) (string, error) {
	var buf bytes.Buffer
	if err := alertTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render alert template: %w", err)
	}
	return buf.String(), nil
}
