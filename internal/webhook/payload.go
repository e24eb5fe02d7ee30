package webhook

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Known payload sources and types from the phone system.
const (
	SourceCallReport = "call-events-report"
	SourceRecording  = "recording"
	SourceCallEvents = "call-events"

	TypeReportSummary      = "REPORT_SUMMARY"
	TypeRecordingReady     = "RECORDING_READY"
	TypeTranscriptionReady = "TRANSCRIPTION_READY"
	TypeCallStarting       = "STARTING"
	TypeCallActive         = "ACTIVE"
	TypeCallEnding         = "ENDING"
)

// Envelope is the outer shape every provider delivery shares.
type Envelope struct {
	Data struct {
		Source  string          `json:"source"`
		Type    string          `json:"type"`
		Content json.RawMessage `json:"content"`
	} `json:"data"`
}

// Participant is a caller or callee entry. Recording references appear
// either as a flat recordingId or as a nested recordings list depending
// on the provider payload variant.
type Participant struct {
	Number      string `json:"number"`
	Name        string `json:"name"`
	RecordingID string `json:"recordingId"`
	Recordings  []struct {
		ID string `json:"id"`
	} `json:"recordings"`
}

// ProviderAnalysis is the AI analysis block the provider attaches to
// call reports. Provider fields take precedence over in-house parsing.
type ProviderAnalysis struct {
	Summary          string   `json:"summary"`
	Sentiment        string   `json:"sentiment"`
	Urgency          string   `json:"urgency"`
	ClientRequest    string   `json:"clientRequest"`
	SuggestedActions []string `json:"suggestedActions"`
}

// ReportContent is the content of a REPORT_SUMMARY delivery.
type ReportContent struct {
	ConversationSpaceID string            `json:"conversationSpaceId"`
	CallID              string            `json:"callId"`
	Direction           string            `json:"direction"`
	StartTime           string            `json:"startTime"`
	EndTime             string            `json:"endTime"`
	DurationSeconds     int               `json:"duration"`
	Caller              *Participant      `json:"caller"`
	Callee              *Participant      `json:"callee"`
	Participants        []Participant     `json:"participants"`
	Analysis            *ProviderAnalysis `json:"analysis"`
}

// RecordingContent is the content of a recording/transcription notification.
type RecordingContent struct {
	ConversationSpaceID string `json:"conversationSpaceId"`
	RecordingID         string `json:"recordingId"`
	RecordingURL        string `json:"recordingUrl"`
	Transcript          string `json:"transcript"`
}

// CallEventContent is the content of a real-time call lifecycle event.
type CallEventContent struct {
	ConversationSpaceID string `json:"conversationSpaceId"`
	CallID              string `json:"callId"`
	State               struct {
		Direction string       `json:"direction"`
		Caller    *Participant `json:"caller"`
	} `json:"state"`
	Metadata map[string]any `json:"metadata"`
}

// ParseEnvelope decodes the outer envelope. Source and type default to
// empty strings, which routes the delivery to the AI fallback.
func ParseEnvelope(raw []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// EventID derives the dedupe identifier for a delivery: the
// conversation space ID when present, then the call ID, then a random
// UUID so unidentifiable events never collide.
func EventID(conversationSpaceID, callID string) string {
	if conversationSpaceID != "" {
		return conversationSpaceID
	}
	if callID != "" {
		return callID
	}
	return uuid.New().String()
}

// CollectRecordingIDs normalizes recording references from every
// payload variant into one deduplicated list: caller-level and
// participant-level, both flat IDs and nested recording lists.
func (c *ReportContent) CollectRecordingIDs() []string {
	var ids []string
	seen := make(map[string]struct{})

	add := func(id string) {
		id = strings.TrimSpace(id)
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	collect := func(p *Participant) {
		if p == nil {
			return
		}
		add(p.RecordingID)
		for _, rec := range p.Recordings {
			add(rec.ID)
		}
	}

	collect(c.Caller)
	collect(c.Callee)
	for i := range c.Participants {
		collect(&c.Participants[i])
	}

	return ids
}

// Duration returns the report's duration in seconds, deriving it from
// the start and end timestamps when the payload omits it.
func (c *ReportContent) Duration() int {
	if c.DurationSeconds > 0 {
		return c.DurationSeconds
	}

	start, startErr := time.Parse(time.RFC3339, c.StartTime)
	end, endErr := time.Parse(time.RFC3339, c.EndTime)
	if startErr != nil || endErr != nil {
		return 0
	}

	seconds := int(end.Sub(start).Seconds())
	if seconds < 0 {
		return 0
	}
	return seconds
}

// NormalizeDirection maps provider direction values (e.g. "OUTBOUND")
// to the internal lowercase form, defaulting to inbound.
func NormalizeDirection(direction string) string {
	switch strings.ToLower(strings.TrimSpace(direction)) {
	case "outbound", "out":
		return "outbound"
	default:
		return "inbound"
	}
}
