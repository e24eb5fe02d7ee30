package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"firmos_backend/internal/aiparser"
	"firmos_backend/internal/calls"
	"firmos_backend/internal/clients"
	"firmos_backend/internal/events"
	"firmos_backend/internal/gotoconnect"
	"firmos_backend/internal/scheduler"
	"firmos_backend/internal/tasks"
	"firmos_backend/platform/apperr"
	"firmos_backend/platform/logger"

	"github.com/google/uuid"
)

// LogStore persists the delivery audit trail.
type LogStore interface {
	CreateLog(ctx context.Context, l Log) (Log, error)
	MarkParsing(ctx context.Context, id uuid.UUID, source, eventType, eventID string) error
	UpdateLog(ctx context.Context, id uuid.UUID, status string, errorMessage string, recordID *uuid.UUID, processingMs int) error
}

// CallStore is the slice of the calls service the webhook pipeline uses.
type CallStore interface {
	Store(ctx context.Context, call calls.Call) (calls.Call, error)
	FindForRecording(ctx context.Context, conversationSpaceID, recordingID string) (calls.Call, error)
	AttachRecording(ctx context.Context, id uuid.UUID, recordingID, recordingURL string) error
	AttachTranscript(ctx context.Context, id uuid.UUID, recordingID, transcript string) error
}

// ClientMatcher resolves caller numbers to known clients.
type ClientMatcher interface {
	MatchByPhone(ctx context.Context, rawNumber string) (*clients.Client, error)
}

// TaskCreator creates follow-up tasks from call analysis.
type TaskCreator interface {
	CreateFromCall(ctx context.Context, title, description, urgency string, clientID, callID *uuid.UUID) (tasks.Task, error)
}

// ActivityRecorder appends entries to the audit timeline.
type ActivityRecorder interface {
	Record(ctx context.Context, entityType string, entityID *uuid.UUID, action, description string, metadata map[string]any)
}

// ProviderAPI is the slice of the phone system's REST API the pipeline
// consumes: full call reports for thin payloads, and recording media
// references.
type ProviderAPI interface {
	GetCallReport(ctx context.Context, conversationSpaceID string) (*gotoconnect.CallReport, error)
	GetRecordingURL(ctx context.Context, recordingID string) (string, error)
	GetTranscription(ctx context.Context, recordingID string) (string, error)
}

// AIParser extracts structured call data from unclassifiable payloads.
type AIParser interface {
	Available() bool
	Parse(ctx context.Context, rawPayload []byte) (*aiparser.ParsedWebhookData, error)
}

// ProcessResult is the outcome of one webhook delivery.
type ProcessResult struct {
	Message      string
	RecordID     *uuid.UUID
	EventID      string
	EventType    string
	Duplicate    bool
	ProcessingMs int
}

// Service routes webhook deliveries to the matching processing flow.
type Service struct {
	repo     LogStore
	deduper  Deduper
	callsSvc CallStore
	matcher  ClientMatcher
	tasksSvc TaskCreator
	activity ActivityRecorder
	provider ProviderAPI
	ai       AIParser
	sched    scheduler.RecordingScheduler
	eventBus events.Bus
	log      *logger.Logger
}

// NewService wires the webhook pipeline. provider, ai, and sched are
// optional; the pipeline degrades to skipping the corresponding step.
func NewService(
	repo LogStore,
	deduper Deduper,
	callsSvc CallStore,
	matcher ClientMatcher,
	tasksSvc TaskCreator,
	activity ActivityRecorder,
	provider ProviderAPI,
	ai AIParser,
	sched scheduler.RecordingScheduler,
	eventBus events.Bus,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:     repo,
		deduper:  deduper,
		callsSvc: callsSvc,
		matcher:  matcher,
		tasksSvc: tasksSvc,
		activity: activity,
		provider: provider,
		ai:       ai,
		sched:    sched,
		eventBus: eventBus,
		log:      log,
	}
}

// eventIdentity is the subset of every content shape needed to derive
// the dedupe identifier before full routing.
type eventIdentity struct {
	ConversationSpaceID string `json:"conversationSpaceId"`
	CallID              string `json:"callId"`
}

// Process runs one delivery through the full pipeline: audit log,
// dedupe, routing, and final disposition. The returned error maps to an
// HTTP 500; the log row is updated on every exit path.
func (s *Service) Process(ctx context.Context, endpoint string, headers, rawBody []byte) (ProcessResult, error) {
	start := time.Now()

	logID := s.createLog(ctx, Log{
		Endpoint: endpoint,
		Status:   StatusReceived,
		Headers:  headers,
		Payload:  rawBody,
	})

	env, err := ParseEnvelope(rawBody)
	if err != nil {
		s.finishLog(ctx, logID, StatusFailed, "invalid JSON payload", nil, start)
		return ProcessResult{}, apperr.BadRequest("invalid JSON payload")
	}

	source := env.Data.Source
	eventType := env.Data.Type

	var identity eventIdentity
	_ = json.Unmarshal(env.Data.Content, &identity)
	eventID := EventID(identity.ConversationSpaceID, identity.CallID)

	result := ProcessResult{EventID: eventID, EventType: eventType}

	fresh, err := s.deduper.MarkIfNew(ctx, DedupeKey(source, eventType, eventID))
	if err != nil {
		// Dedupe store problems must not drop deliveries; process anyway.
		s.log.Warn("dedupe check failed, processing event", "event_id", eventID, "error", err)
		fresh = true
	}
	if !fresh {
		s.finishLog(ctx, logID, StatusDuplicate, "", nil, start)
		result.Duplicate = true
		result.Message = "duplicate event ignored"
		result.ProcessingMs = int(time.Since(start).Milliseconds())
		return result, nil
	}

	s.markParsing(ctx, logID, source, eventType, eventID)

	recordID, message, err := s.routeSafe(ctx, source, eventType, env.Data.Content, rawBody)
	processingMs := int(time.Since(start).Milliseconds())

	if err != nil {
		s.finishLog(ctx, logID, StatusFailed, err.Error(), nil, start)
		s.publishProcessed(ctx, logID, source, eventType, eventID, nil, StatusFailed)
		s.log.WebhookEvent(source, eventType, eventID, StatusFailed, int64(processingMs))
		return ProcessResult{}, apperr.Wrap(apperr.KindInternal, "webhook processing failed", err)
	}

	s.finishLog(ctx, logID, StatusStored, "", recordID, start)
	s.publishProcessed(ctx, logID, source, eventType, eventID, recordID, StatusStored)
	s.log.WebhookEvent(source, eventType, eventID, StatusStored, int64(processingMs))

	result.Message = message
	result.RecordID = recordID
	result.ProcessingMs = processingMs
	return result, nil
}

// routeSafe converts a panic in any processing flow into a failed
// delivery so the audit log and response still reflect the error.
func (s *Service) routeSafe(ctx context.Context, source, eventType string, content json.RawMessage, rawBody []byte) (recordID *uuid.UUID, message string, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("panic processing webhook", "source", source, "event_type", eventType, "panic", r)
			recordID, message, err = nil, "", fmt.Errorf("panic processing webhook: %v", r)
		}
	}()
	return s.route(ctx, source, eventType, content, rawBody)
}

// route dispatches on the (source, type) pair. Unrecognized pairs fall
// through to the AI fallback.
func (s *Service) route(ctx context.Context, source, eventType string, content json.RawMessage, rawBody []byte) (*uuid.UUID, string, error) {
	switch {
	case source == SourceCallReport && eventType == TypeReportSummary:
		return s.handleCallReport(ctx, content, rawBody)
	case source == SourceRecording && (eventType == TypeRecordingReady || eventType == TypeTranscriptionReady):
		return s.handleRecordingEvent(ctx, eventType, content)
	case source == SourceCallEvents:
		return s.handleCallEvent(ctx, eventType, content, rawBody)
	default:
		return s.handleUnknown(ctx, source, eventType, rawBody)
	}
}

// handleCallReport processes a full post-call report: client match,
// analysis merge, call record, follow-up tasks, and recording fetch.
func (s *Service) handleCallReport(ctx context.Context, content json.RawMessage, rawBody []byte) (*uuid.UUID, string, error) {
	var report ReportContent
	if err := json.Unmarshal(content, &report); err != nil {
		return nil, "", fmt.Errorf("decode call report: %w", err)
	}

	var callerNumber, callerName, calleeNumber, calleeName string
	if report.Caller != nil {
		callerNumber, callerName = report.Caller.Number, report.Caller.Name
	}
	if report.Callee != nil {
		calleeNumber, calleeName = report.Callee.Number, report.Callee.Name
	}

	// Some deliveries omit timing or participant data; fill the gaps
	// from the provider's own report. Best-effort, the delivery stands
	// on its own when the lookup fails.
	if s.provider != nil && report.ConversationSpaceID != "" && (report.Duration() == 0 || callerNumber == "") {
		full, err := s.provider.GetCallReport(ctx, report.ConversationSpaceID)
		if err != nil {
			s.log.Warn("call report lookup failed",
				"conversation_space_id", report.ConversationSpaceID, "error", err)
		} else {
			if report.DurationSeconds == 0 {
				report.DurationSeconds = full.DurationSeconds
			}
			if report.StartTime == "" {
				report.StartTime = full.StartTime
			}
			if report.EndTime == "" {
				report.EndTime = full.EndTime
			}
			if report.Direction == "" {
				report.Direction = full.Direction
			}
			if callerNumber == "" {
				callerNumber, callerName = full.CallerNumber, full.CallerName
			}
			if calleeNumber == "" {
				calleeNumber, calleeName = full.CalleeNumber, full.CalleeName
			}
		}
	}

	clientID := s.matchClient(ctx, callerNumber)
	analysis := s.analyze(ctx, report.Analysis, rawBody)

	recordingIDs := report.CollectRecordingIDs()
	metadata := map[string]any{
		"providerCallId": report.CallID,
	}
	if report.ConversationSpaceID != "" {
		metadata["conversationSpaceId"] = report.ConversationSpaceID
	}
	if len(recordingIDs) > 0 {
		metadata["recordingIds"] = recordingIDs
	}
	if analysis.ClientRequest != "" {
		metadata["clientRequest"] = analysis.ClientRequest
	}
	rawMetadata, err := json.Marshal(metadata)
	if err != nil {
		return nil, "", fmt.Errorf("encode call metadata: %w", err)
	}

	call, err := s.callsSvc.Store(ctx, calls.Call{
		ConversationSpaceID: report.ConversationSpaceID,
		ClientID:            clientID,
		CallerNumber:        callerNumber,
		CallerName:          callerName,
		CalleeNumber:        calleeNumber,
		CalleeName:          calleeName,
		Direction:           NormalizeDirection(report.Direction),
		DurationSeconds:     report.Duration(),
		StartTime:           parseTime(report.StartTime),
		EndTime:             parseTime(report.EndTime),
		Summary:             analysis.Summary,
		Sentiment:           analysis.Sentiment,
		Metadata:            rawMetadata,
	})
	if err != nil {
		return nil, "", err
	}

	s.activity.Record(ctx, "call", &call.ID, "call.report_received",
		fmt.Sprintf("Call report stored for %s", displayCaller(callerName, callerNumber)),
		map[string]any{"duration_seconds": call.DurationSeconds, "direction": call.Direction})

	created := s.createFollowUpTasks(ctx, call.ID, clientID, analysis)
	s.fetchRecordings(ctx, call.ID, report.ConversationSpaceID, recordingIDs, true)

	message := fmt.Sprintf("call report stored, %d task(s) created", created)
	return &call.ID, message, nil
}

// handleRecordingEvent patches an existing call with a recording or
// transcript. A missing call is not an error; the notification may
// arrive before the report or reference a call we never stored.
func (s *Service) handleRecordingEvent(ctx context.Context, eventType string, content json.RawMessage) (*uuid.UUID, string, error) {
	var rec RecordingContent
	if err := json.Unmarshal(content, &rec); err != nil {
		return nil, "", fmt.Errorf("decode recording event: %w", err)
	}

	call, err := s.callsSvc.FindForRecording(ctx, rec.ConversationSpaceID, rec.RecordingID)
	if errors.Is(err, calls.ErrCallNotFound) {
		s.log.Info("recording event without matching call",
			"event_type", eventType, "recording_id", rec.RecordingID)
		return nil, "no matching call record, event ignored", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("find call for recording: %w", err)
	}

	attached := false
	if rec.RecordingURL != "" {
		if err := s.callsSvc.AttachRecording(ctx, call.ID, rec.RecordingID, rec.RecordingURL); err != nil {
			return nil, "", fmt.Errorf("attach recording: %w", err)
		}
		attached = true
	}
	if rec.Transcript != "" {
		if err := s.callsSvc.AttachTranscript(ctx, call.ID, rec.RecordingID, rec.Transcript); err != nil {
			return nil, "", fmt.Errorf("attach transcript: %w", err)
		}
		attached = true
	}

	// The notification itself carried no media, only the readiness
	// signal; pull it from the provider.
	if !attached && rec.RecordingID != "" {
		s.fetchRecordings(ctx, call.ID, rec.ConversationSpaceID,
			[]string{rec.RecordingID}, eventType == TypeTranscriptionReady)
	}

	return &call.ID, "call record updated with recording data", nil
}

// handleCallEvent processes real-time lifecycle events. Only ENDING
// produces a call record; earlier states are audit trail only.
func (s *Service) handleCallEvent(ctx context.Context, eventType string, content json.RawMessage, rawBody []byte) (*uuid.UUID, string, error) {
	var event CallEventContent
	if err := json.Unmarshal(content, &event); err != nil {
		return nil, "", fmt.Errorf("decode call event: %w", err)
	}

	if eventType != TypeCallEnding {
		s.activity.Record(ctx, "call", nil, "call."+strings.ToLower(eventType),
			fmt.Sprintf("Call %s event received", strings.ToLower(eventType)),
			map[string]any{"providerCallId": event.CallID})
		return nil, "call lifecycle event logged", nil
	}

	var callerNumber, callerName string
	if event.State.Caller != nil {
		callerNumber, callerName = event.State.Caller.Number, event.State.Caller.Name
	}

	clientID := s.matchClient(ctx, callerNumber)
	analysis := s.analyze(ctx, nil, rawBody)

	metadata := map[string]any{"providerCallId": event.CallID}
	if len(event.Metadata) > 0 {
		metadata["provider"] = event.Metadata
	}
	rawMetadata, err := json.Marshal(metadata)
	if err != nil {
		return nil, "", fmt.Errorf("encode call metadata: %w", err)
	}

	call, err := s.callsSvc.Store(ctx, calls.Call{
		ConversationSpaceID: event.ConversationSpaceID,
		ClientID:            clientID,
		CallerNumber:        callerNumber,
		CallerName:          callerName,
		Direction:           NormalizeDirection(event.State.Direction),
		Summary:             analysis.Summary,
		Metadata:            rawMetadata,
	})
	if err != nil {
		return nil, "", err
	}

	s.activity.Record(ctx, "call", &call.ID, "call.ended",
		fmt.Sprintf("Call ended from %s", displayCaller(callerName, callerNumber)), nil)

	return &call.ID, "call record created from ending event", nil
}

// handleUnknown is the AI fallback for deliveries the router cannot
// classify. A call record is created only when the parser is confident
// the payload describes a phone call.
func (s *Service) handleUnknown(ctx context.Context, source, eventType string, rawBody []byte) (*uuid.UUID, string, error) {
	s.activity.Record(ctx, "webhook", nil, "webhook.unrecognized",
		fmt.Sprintf("Unrecognized webhook event (source=%q type=%q)", source, eventType), nil)

	if s.ai == nil || !s.ai.Available() {
		return nil, "unrecognized event logged", nil
	}

	parsed, err := s.ai.Parse(ctx, rawBody)
	if err != nil {
		s.log.Warn("ai fallback parse failed", "source", source, "event_type", eventType, "error", err)
		return nil, "unrecognized event logged", nil
	}
	if !parsed.IsPhoneCall {
		return nil, "event analyzed, not a phone call", nil
	}

	clientID := s.matchClient(ctx, parsed.CallerPhone)

	metadata := map[string]any{"classifiedBy": "ai"}
	if parsed.Category != "" {
		metadata["category"] = parsed.Category
	}
	rawMetadata, err := json.Marshal(metadata)
	if err != nil {
		return nil, "", fmt.Errorf("encode call metadata: %w", err)
	}

	call, err := s.callsSvc.Store(ctx, calls.Call{
		ClientID:     clientID,
		CallerNumber: parsed.CallerPhone,
		CallerName:   parsed.CallerName,
		Direction:    NormalizeDirection(parsed.Direction),
		Summary:      parsed.Summary,
		Metadata:     rawMetadata,
	})
	if err != nil {
		return nil, "", err
	}

	s.activity.Record(ctx, "call", &call.ID, "call.classified",
		"Call record created from AI-classified webhook event", nil)

	return &call.ID, "call record created from analyzed event", nil
}

// matchClient resolves a caller number to a client. Matching is
// best-effort; lookup failures degrade to an unmatched call.
func (s *Service) matchClient(ctx context.Context, callerNumber string) *uuid.UUID {
	if callerNumber == "" {
		return nil
	}
	client, err := s.matcher.MatchByPhone(ctx, callerNumber)
	if err != nil {
		s.log.Warn("client phone match failed", "error", err)
		return nil
	}
	if client == nil {
		return nil
	}
	return &client.ID
}

// callAnalysis is the merged view of provider and in-house analysis.
type callAnalysis struct {
	Summary          string
	Sentiment        string
	Urgency          string
	ClientRequest    string
	SuggestedActions []string
}

// analyze merges the provider's analysis with the in-house AI parse.
// Provider fields win; the in-house parse only fills gaps. Both sides
// are optional.
func (s *Service) analyze(ctx context.Context, provider *ProviderAnalysis, rawBody []byte) callAnalysis {
	var merged callAnalysis

	if s.ai != nil && s.ai.Available() {
		parsed, err := s.ai.Parse(ctx, rawBody)
		if err != nil {
			s.log.Warn("ai call analysis failed", "error", err)
		} else {
			merged.Summary = parsed.Summary
			merged.Urgency = parsed.Urgency
			merged.ClientRequest = parsed.ClientRequest
			merged.SuggestedActions = parsed.SuggestedActions
		}
	}

	if provider != nil {
		if provider.Summary != "" {
			merged.Summary = provider.Summary
		}
		if provider.Sentiment != "" {
			merged.Sentiment = provider.Sentiment
		}
		if provider.Urgency != "" {
			merged.Urgency = provider.Urgency
		}
		if provider.ClientRequest != "" {
			merged.ClientRequest = provider.ClientRequest
		}
		if len(provider.SuggestedActions) > 0 {
			merged.SuggestedActions = provider.SuggestedActions
		}
	}

	return merged
}

// createFollowUpTasks creates one task per suggested action. Task
// failures are logged and skipped so one bad action never loses the rest.
func (s *Service) createFollowUpTasks(ctx context.Context, callID uuid.UUID, clientID *uuid.UUID, analysis callAnalysis) int {
	created := 0
	for _, action := range analysis.SuggestedActions {
		action = strings.TrimSpace(action)
		if action == "" {
			continue
		}
		description := analysis.ClientRequest
		if description == "" {
			description = analysis.Summary
		}
		if _, err := s.tasksSvc.CreateFromCall(ctx, action, description, analysis.Urgency, clientID, &callID); err != nil {
			s.log.Error("failed to create follow-up task", "call_id", callID, "title", action, "error", err)
			continue
		}
		created++
	}
	return created
}

// fetchRecordings hands the candidate recording IDs to the background
// scheduler, falling back to an inline best-effort fetch when no
// scheduler is configured. Failures never fail the delivery.
func (s *Service) fetchRecordings(ctx context.Context, callID uuid.UUID, conversationSpaceID string, recordingIDs []string, wantTranscript bool) {
	if len(recordingIDs) == 0 {
		return
	}

	if s.sched != nil {
		err := s.sched.ScheduleRecordingFetch(ctx, scheduler.RecordingFetchPayload{
			CallID:              callID.String(),
			RecordingIDs:        recordingIDs,
			ConversationSpaceID: conversationSpaceID,
			WantTranscript:      wantTranscript,
		})
		if err == nil {
			return
		}
		s.log.Error("failed to schedule recording fetch, fetching inline", "call_id", callID, "error", err)
	}

	if s.provider == nil {
		return
	}

	for _, recordingID := range recordingIDs {
		url, err := s.provider.GetRecordingURL(ctx, recordingID)
		if err != nil {
			s.log.Warn("recording url fetch failed", "recording_id", recordingID, "error", err)
			continue
		}
		if err := s.callsSvc.AttachRecording(ctx, callID, recordingID, url); err != nil {
			s.log.Error("failed to attach recording", "call_id", callID, "error", err)
			return
		}
		if wantTranscript {
			transcript, err := s.provider.GetTranscription(ctx, recordingID)
			if err != nil {
				s.log.Warn("transcript fetch failed", "recording_id", recordingID, "error", err)
			} else if transcript != "" {
				if err := s.callsSvc.AttachTranscript(ctx, callID, recordingID, transcript); err != nil {
					s.log.Error("failed to attach transcript", "call_id", callID, "error", err)
				}
			}
		}
		return
	}
}

// createLog writes the initial audit row. Failures are swallowed so a
// logging problem never rejects a delivery.
func (s *Service) createLog(ctx context.Context, l Log) *uuid.UUID {
	stored, err := s.repo.CreateLog(ctx, l)
	if err != nil {
		s.log.Error("failed to create webhook log", "endpoint", l.Endpoint, "error", err)
		return nil
	}
	return &stored.ID
}

func (s *Service) markParsing(ctx context.Context, logID *uuid.UUID, source, eventType, eventID string) {
	if logID == nil {
		return
	}
	if err := s.repo.MarkParsing(ctx, *logID, source, eventType, eventID); err != nil {
		s.log.Error("failed to update webhook log", "log_id", *logID, "error", err)
	}
}

func (s *Service) finishLog(ctx context.Context, logID *uuid.UUID, status, errorMessage string, recordID *uuid.UUID, start time.Time) {
	if logID == nil {
		return
	}
	ms := int(time.Since(start).Milliseconds())
	if err := s.repo.UpdateLog(ctx, *logID, status, errorMessage, recordID, ms); err != nil {
		s.log.Error("failed to update webhook log", "log_id", *logID, "status", status, "error", err)
	}
}

func (s *Service) publishProcessed(ctx context.Context, logID *uuid.UUID, source, eventType, eventID string, recordID *uuid.UUID, status string) {
	var id uuid.UUID
	if logID != nil {
		id = *logID
	}
	s.eventBus.Publish(ctx, events.WebhookProcessed{
		BaseEvent:    events.NewBaseEvent(),
		WebhookLogID: id,
		Source:       source,
		EventType:    eventType,
		EventID:      eventID,
		RecordID:     recordID,
		Status:       status,
	})
}

func displayCaller(name, number string) string {
	switch {
	case name != "" && number != "":
		return fmt.Sprintf("%s (%s)", name, number)
	case name != "":
		return name
	case number != "":
		return number
	default:
		return "unknown caller"
	}
}

func parseTime(value string) *time.Time {
	if value == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil
	}
	return &t
}
