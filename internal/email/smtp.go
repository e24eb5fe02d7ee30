package email

import (
	"context"
	"fmt"
	"net"
	"time"

	gomail "github.com/wneessen/go-mail"
)

// SMTPSender implements Sender using a direct SMTP connection via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewSMTPSender creates a new SMTPSender with the given SMTP credentials.
func NewSMTPSender(host string, port int, username, password, fromEmail, fromName string) *SMTPSender {
	return &SMTPSender{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, htmlContent string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}

// SendUrgentTaskAlert notifies staff that an urgent task was created.
func (s *SMTPSender) SendUrgentTaskAlert(ctx context.Context, toEmail, taskTitle, priority, clientName, summary string) error {
	lines := []string{
		fmt.Sprintf("A new %s priority task was created from an inbound call.", priority),
		fmt.Sprintf("Task: %s", taskTitle),
	}
	if clientName != "" {
		lines = append(lines, fmt.Sprintf("Client: %s", clientName))
	}
	if summary != "" {
		lines = append(lines, fmt.Sprintf("Call summary: %s", summary))
	}

	content, err := renderAlert(alertData{
		Heading:     "Urgent task requires attention",
		AccentColor: "#c0392b",
		Lines:       lines,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, fmt.Sprintf("[Urgent] %s", taskTitle), content)
}

// SendWebhookFailureAlert notifies staff that webhook processing failed.
func (s *SMTPSender) SendWebhookFailureAlert(ctx context.Context, toEmail, eventType, errorMessage string) error {
	content, err := renderAlert(alertData{
		Heading:     "Webhook processing failure",
		AccentColor: "#e67e22",
		Lines: []string{
			fmt.Sprintf("Event type: %s", eventType),
			fmt.Sprintf("Error: %s", errorMessage),
			"The raw payload was preserved in the webhook log for replay.",
		},
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, "Webhook processing failure", content)
}

// Compile-time check that SMTPSender implements Sender
var _ Sender = (*SMTPSender)(nil)
