// Package aiparser extracts structured call data from webhook payloads
// the deterministic router cannot classify. It sends the raw payload to
// Gemini and expects a strict JSON answer.
package aiparser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"firmos_backend/platform/config"
	"firmos_backend/platform/logger"

	"google.golang.org/genai"
)

// ParsedWebhookData is the structured result extracted from an unknown payload.
type ParsedWebhookData struct {
	IsPhoneCall      bool     `json:"isPhoneCall"`
	CallerName       string   `json:"callerName,omitempty"`
	CallerPhone      string   `json:"callerPhone,omitempty"`
	Direction        string   `json:"direction,omitempty"`
	Summary          string   `json:"summary,omitempty"`
	ClientRequest    string   `json:"clientRequest,omitempty"`
	Urgency          string   `json:"urgency,omitempty"`
	Category         string   `json:"category,omitempty"`
	SuggestedActions []string `json:"suggestedActions,omitempty"`
}

// Parser extracts call data from unrecognized webhook payloads.
// A nil parser is safe to call; Parse reports it as unavailable.
type Parser struct {
	client *genai.Client
	model  string
	log    *logger.Logger
}

// NewParser creates the Gemini-backed parser. Returns nil when AI
// parsing is not configured.
func NewParser(ctx context.Context, cfg config.AIConfig, log *logger.Logger) (*Parser, error) {
	if !cfg.IsAIParsingEnabled() {
		return nil, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GetGeminiAPIKey(),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Parser{
		client: client,
		model:  cfg.GetGeminiModel(),
		log:    log,
	}, nil
}

// Available reports whether AI parsing can run.
func (p *Parser) Available() bool {
	return p != nil && p.client != nil
}

const parsePrompt = `You are a data extraction assistant for an accounting firm's phone system.
Analyze the following webhook payload from the firm's telephony provider and extract call information.

Respond with ONLY a JSON object with these fields:
- isPhoneCall (boolean): whether this payload describes a phone call
- callerName (string): the caller's name if present, otherwise ""
- callerPhone (string): the caller's phone number if present, otherwise ""
- direction (string): "inbound" or "outbound" if determinable, otherwise ""
- summary (string): a 1-2 sentence summary of the call or event
- clientRequest (string): what the caller asked for, if anything
- urgency (string): "urgent", "high", "medium", or "low"
- category (string): a short category like "tax_question", "appointment", "billing", "other"
- suggestedActions (array of strings): concrete follow-up actions for the staff

Payload:
%s`

// Parse extracts structured call data from a raw webhook payload.
func (p *Parser) Parse(ctx context.Context, rawPayload []byte) (*ParsedWebhookData, error) {
	if !p.Available() {
		return nil, fmt.Errorf("ai parser not configured")
	}

	prompt := fmt.Sprintf(parsePrompt, string(rawPayload))

	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("gemini returned empty response")
	}

	var parsed ParsedWebhookData
	if err := json.Unmarshal([]byte(extractJSON(text)), &parsed); err != nil {
		return nil, fmt.Errorf("decode gemini response: %w", err)
	}

	parsed.Urgency = normalizeUrgency(parsed.Urgency)
	return &parsed, nil
}

// extractJSON strips markdown code fences some models wrap around JSON.
func extractJSON(text string) string {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
			trimmed = trimmed[:idx]
		}
		trimmed = strings.TrimSpace(trimmed)
	}
	return trimmed
}

func normalizeUrgency(urgency string) string {
	switch strings.ToLower(strings.TrimSpace(urgency)) {
	case "urgent", "critical":
		return "urgent"
	case "high":
		return "high"
	case "low":
		return "low"
	default:
		return "medium"
	}
}
