package webhook

import (
	"context"
	"errors"
	"fmt"
	"testing"

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

// ---- fakes shared across service and handler tests ----

type logUpdate struct {
	Status       string
	ErrorMessage string
	RecordID     *uuid.UUID
}

type fakeLogStore struct {
	created    []Log
	updates    []logUpdate
	failCreate bool
}

func (f *fakeLogStore) CreateLog(_ context.Context, l Log) (Log, error) {
	if f.failCreate {
		return Log{}, errors.New("log store down")
	}
	l.ID = uuid.New()
	f.created = append(f.created, l)
	return l, nil
}

func (f *fakeLogStore) MarkParsing(_ context.Context, _ uuid.UUID, source, eventType, eventID string) error {
	return nil
}

func (f *fakeLogStore) UpdateLog(_ context.Context, _ uuid.UUID, status string, errorMessage string, recordID *uuid.UUID, _ int) error {
	f.updates = append(f.updates, logUpdate{Status: status, ErrorMessage: errorMessage, RecordID: recordID})
	return nil
}

func (f *fakeLogStore) lastStatus() string {
	if len(f.updates) == 0 {
		return ""
	}
	return f.updates[len(f.updates)-1].Status
}

type fakeCallStore struct {
	stored      []calls.Call
	existing    *calls.Call
	storeErr    error
	recordings  []string
	transcripts []string
}

func (f *fakeCallStore) Store(_ context.Context, call calls.Call) (calls.Call, error) {
	if f.storeErr != nil {
		return calls.Call{}, f.storeErr
	}
	call.ID = uuid.New()
	f.stored = append(f.stored, call)
	return call, nil
}

func (f *fakeCallStore) FindForRecording(_ context.Context, _, _ string) (calls.Call, error) {
	if f.existing == nil {
		return calls.Call{}, calls.ErrCallNotFound
	}
	return *f.existing, nil
}

func (f *fakeCallStore) AttachRecording(_ context.Context, _ uuid.UUID, _, recordingURL string) error {
	f.recordings = append(f.recordings, recordingURL)
	return nil
}

func (f *fakeCallStore) AttachTranscript(_ context.Context, _ uuid.UUID, _, transcript string) error {
	f.transcripts = append(f.transcripts, transcript)
	return nil
}

type fakeMatcher struct {
	client  *clients.Client
	err     error
	queries []string
}

func (f *fakeMatcher) MatchByPhone(_ context.Context, rawNumber string) (*clients.Client, error) {
	f.queries = append(f.queries, rawNumber)
	return f.client, f.err
}

type createdTask struct {
	Title    string
	Urgency  string
	ClientID *uuid.UUID
	CallID   *uuid.UUID
}

type fakeTaskCreator struct {
	created []createdTask
}

func (f *fakeTaskCreator) CreateFromCall(_ context.Context, title, _, urgency string, clientID, callID *uuid.UUID) (tasks.Task, error) {
	f.created = append(f.created, createdTask{Title: title, Urgency: urgency, ClientID: clientID, CallID: callID})
	return tasks.Task{ID: uuid.New(), Title: title}, nil
}

type fakeActivity struct {
	actions []string
}

func (f *fakeActivity) Record(_ context.Context, _ string, _ *uuid.UUID, action, _ string, _ map[string]any) {
	f.actions = append(f.actions, action)
}

type fakeAI struct {
	available bool
	result    *aiparser.ParsedWebhookData
	err       error
	calls     int
}

func (f *fakeAI) Available() bool { return f.available }

func (f *fakeAI) Parse(_ context.Context, _ []byte) (*aiparser.ParsedWebhookData, error) {
	f.calls++
	return f.result, f.err
}

type fakeScheduler struct {
	payloads []scheduler.RecordingFetchPayload
	err      error
}

func (f *fakeScheduler) ScheduleRecordingFetch(_ context.Context, payload scheduler.RecordingFetchPayload) error {
	if f.err != nil {
		return f.err
	}
	f.payloads = append(f.payloads, payload)
	return nil
}

type fakeProvider struct {
	report      *gotoconnect.CallReport
	urls        map[string]string
	transcripts map[string]string
}

func (f *fakeProvider) GetCallReport(_ context.Context, _ string) (*gotoconnect.CallReport, error) {
	if f.report == nil {
		return nil, errors.New("report not found")
	}
	return f.report, nil
}

func (f *fakeProvider) GetRecordingURL(_ context.Context, recordingID string) (string, error) {
	if url, ok := f.urls[recordingID]; ok {
		return url, nil
	}
	return "", errors.New("recording not found")
}

func (f *fakeProvider) GetTranscription(_ context.Context, recordingID string) (string, error) {
	if text, ok := f.transcripts[recordingID]; ok {
		return text, nil
	}
	return "", errors.New("transcript not found")
}

type serviceFixture struct {
	service  *Service
	logs     *fakeLogStore
	calls    *fakeCallStore
	matcher  *fakeMatcher
	tasks    *fakeTaskCreator
	activity *fakeActivity
	ai       *fakeAI
	sched    *fakeScheduler
	bus      *events.InMemoryBus
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	log := logger.New("development")
	f := &serviceFixture{
		logs:     &fakeLogStore{},
		calls:    &fakeCallStore{},
		matcher:  &fakeMatcher{},
		tasks:    &fakeTaskCreator{},
		activity: &fakeActivity{},
		ai:       &fakeAI{},
		sched:    &fakeScheduler{},
		bus:      events.NewInMemoryBus(log),
	}
	f.service = NewService(
		f.logs, NewMemoryDeduper(), f.calls, f.matcher, f.tasks, f.activity,
		nil, f.ai, f.sched, f.bus, log,
	)
	t.Cleanup(f.bus.Wait)
	return f
}

const reportBody = `{
	"data": {
		"source": "call-events-report",
		"type": "REPORT_SUMMARY",
		"content": {
			"conversationSpaceId": "space-42",
			"callId": "call-42",
			"direction": "INBOUND",
			"startTime": "2026-03-01T10:00:00Z",
			"endTime": "2026-03-01T10:03:00Z",
			"caller": {"number": "+12025550123", "name": "Lars Jensen", "recordingId": "rec-1"},
			"participants": [{"recordings": [{"id": "rec-2"}]}],
			"analysis": {
				"summary": "Client asked about VAT deadline",
				"sentiment": "neutral",
				"urgency": "urgent",
				"clientRequest": "Confirm the VAT filing deadline",
				"suggestedActions": ["Call back about VAT deadline", "Prepare VAT filing checklist"]
			}
		}
	}
}`

func TestReportSummaryCreatesCallAndTasks(t *testing.T) {
	f := newServiceFixture(t)
	clientID := uuid.New()
	f.matcher.client = &clients.Client{ID: clientID, Name: "Jensen ApS"}

	result, err := f.service.Process(context.Background(), WebhookEndpoint, nil, []byte(reportBody))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.EventID != "space-42" {
		t.Fatalf("expected conversation space as event id, got %q", result.EventID)
	}
	if result.RecordID == nil {
		t.Fatal("expected a record id")
	}
	if result.Duplicate {
		t.Fatal("first delivery must not be a duplicate")
	}

	if len(f.calls.stored) != 1 {
		t.Fatalf("expected one stored call, got %d", len(f.calls.stored))
	}
	call := f.calls.stored[0]
	if call.Direction != "inbound" {
		t.Fatalf("expected inbound direction, got %q", call.Direction)
	}
	if call.DurationSeconds != 180 {
		t.Fatalf("expected derived duration 180, got %d", call.DurationSeconds)
	}
	if call.ClientID == nil || *call.ClientID != clientID {
		t.Fatal("expected matched client id on the call")
	}
	if call.Summary != "Client asked about VAT deadline" {
		t.Fatalf("unexpected summary %q", call.Summary)
	}
	if call.Sentiment != "neutral" {
		t.Fatalf("unexpected sentiment %q", call.Sentiment)
	}

	if len(f.tasks.created) != 2 {
		t.Fatalf("expected one task per suggested action, got %d", len(f.tasks.created))
	}
	for _, task := range f.tasks.created {
		if task.Urgency != "urgent" {
			t.Fatalf("expected urgent tasks, got %q", task.Urgency)
		}
		if task.CallID == nil || *task.CallID != call.ID {
			t.Fatal("task must reference the stored call")
		}
		if task.ClientID == nil || *task.ClientID != clientID {
			t.Fatal("task must reference the matched client")
		}
	}

	if len(f.sched.payloads) != 1 {
		t.Fatalf("expected one scheduled recording fetch, got %d", len(f.sched.payloads))
	}
	fetch := f.sched.payloads[0]
	if len(fetch.RecordingIDs) != 2 || fetch.RecordingIDs[0] != "rec-1" || fetch.RecordingIDs[1] != "rec-2" {
		t.Fatalf("unexpected recording candidates %v", fetch.RecordingIDs)
	}

	if f.logs.lastStatus() != StatusStored {
		t.Fatalf("expected log status stored, got %q", f.logs.lastStatus())
	}
}

func TestDuplicateDeliveryShortCircuits(t *testing.T) {
	f := newServiceFixture(t)

	if _, err := f.service.Process(context.Background(), WebhookEndpoint, nil, []byte(reportBody)); err != nil {
		t.Fatalf("first delivery failed: %v", err)
	}

	result, err := f.service.Process(context.Background(), WebhookEndpoint, nil, []byte(reportBody))
	if err != nil {
		t.Fatalf("replay must not fail: %v", err)
	}
	if !result.Duplicate {
		t.Fatal("replay must be flagged as duplicate")
	}
	if len(f.calls.stored) != 1 {
		t.Fatalf("replay must not store a second call, got %d", len(f.calls.stored))
	}
	if f.logs.lastStatus() != StatusDuplicate {
		t.Fatalf("expected log status duplicate, got %q", f.logs.lastStatus())
	}
}

func TestRecordingAfterReportIsNotSuppressed(t *testing.T) {
	f := newServiceFixture(t)

	if _, err := f.service.Process(context.Background(), WebhookEndpoint, nil, []byte(reportBody)); err != nil {
		t.Fatalf("report delivery failed: %v", err)
	}
	if len(f.calls.stored) != 1 {
		t.Fatalf("expected one stored call, got %d", len(f.calls.stored))
	}
	f.calls.existing = &f.calls.stored[0]

	// The recording notification reuses the report's conversation space
	// id. Only an identical delivery counts as a replay.
	body := `{
		"data": {
			"source": "recording",
			"type": "RECORDING_READY",
			"content": {
				"conversationSpaceId": "space-42",
				"recordingId": "rec-1",
				"recordingUrl": "https://media.example.com/rec-1.mp3"
			}
		}
	}`

	result, err := f.service.Process(context.Background(), WebhookEndpoint, nil, []byte(body))
	if err != nil {
		t.Fatalf("recording delivery failed: %v", err)
	}
	if result.Duplicate {
		t.Fatal("recording event must not be deduped against the earlier report")
	}
	if len(f.calls.recordings) != 1 || f.calls.recordings[0] != "https://media.example.com/rec-1.mp3" {
		t.Fatalf("expected the recording attached, got %v", f.calls.recordings)
	}
}

func TestThinReportEnrichedFromProvider(t *testing.T) {
	f := newServiceFixture(t)
	f.service.provider = &fakeProvider{
		report: &gotoconnect.CallReport{
			ConversationSpaceID: "space-11",
			CallerNumber:        "+12025550166",
			CallerName:          "Nina Krog",
			Direction:           "INBOUND",
			DurationSeconds:     240,
			StartTime:           "2026-03-02T09:00:00Z",
			EndTime:             "2026-03-02T09:04:00Z",
		},
	}
	clientID := uuid.New()
	f.matcher.client = &clients.Client{ID: clientID, Name: "Krog Regnskab"}

	body := `{
		"data": {
			"source": "call-events-report",
			"type": "REPORT_SUMMARY",
			"content": {"conversationSpaceId": "space-11"}
		}
	}`

	if _, err := f.service.Process(context.Background(), WebhookEndpoint, nil, []byte(body)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.calls.stored) != 1 {
		t.Fatalf("expected one stored call, got %d", len(f.calls.stored))
	}
	call := f.calls.stored[0]
	if call.CallerNumber != "+12025550166" || call.CallerName != "Nina Krog" {
		t.Fatalf("expected caller filled from the provider report, got %q %q", call.CallerNumber, call.CallerName)
	}
	if call.DurationSeconds != 240 {
		t.Fatalf("expected duration from the provider report, got %d", call.DurationSeconds)
	}
	if call.Direction != "inbound" {
		t.Fatalf("expected direction from the provider report, got %q", call.Direction)
	}
	if call.ClientID == nil || *call.ClientID != clientID {
		t.Fatal("matching must run on the enriched caller number")
	}
	if len(f.matcher.queries) != 1 || f.matcher.queries[0] != "+12025550166" {
		t.Fatalf("expected one match query for the enriched number, got %v", f.matcher.queries)
	}
}

func TestThinReportSurvivesProviderLookupFailure(t *testing.T) {
	f := newServiceFixture(t)
	f.service.provider = &fakeProvider{}

	body := `{
		"data": {
			"source": "call-events-report",
			"type": "REPORT_SUMMARY",
			"content": {"conversationSpaceId": "space-12"}
		}
	}`

	if _, err := f.service.Process(context.Background(), WebhookEndpoint, nil, []byte(body)); err != nil {
		t.Fatalf("provider failure must not fail the delivery: %v", err)
	}
	if len(f.calls.stored) != 1 {
		t.Fatalf("expected the thin call stored as-is, got %d", len(f.calls.stored))
	}
	if f.logs.lastStatus() != StatusStored {
		t.Fatalf("expected log status stored, got %q", f.logs.lastStatus())
	}
}

func TestUnmatchedCallerStoresCallWithoutClient(t *testing.T) {
	f := newServiceFixture(t)

	if _, err := f.service.Process(context.Background(), WebhookEndpoint, nil, []byte(reportBody)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.calls.stored) != 1 {
		t.Fatalf("expected one stored call, got %d", len(f.calls.stored))
	}
	if f.calls.stored[0].ClientID != nil {
		t.Fatal("unmatched caller must leave client id empty")
	}
}

func TestMatcherErrorDegradesToNoMatch(t *testing.T) {
	f := newServiceFixture(t)
	f.matcher.err = errors.New("database down")

	if _, err := f.service.Process(context.Background(), WebhookEndpoint, nil, []byte(reportBody)); err != nil {
		t.Fatalf("matcher failure must not fail the delivery: %v", err)
	}
	if len(f.calls.stored) != 1 || f.calls.stored[0].ClientID != nil {
		t.Fatal("expected an unmatched call despite matcher error")
	}
}

func TestRecordingReadyPatchesCall(t *testing.T) {
	f := newServiceFixture(t)
	existing := calls.Call{ID: uuid.New()}
	f.calls.existing = &existing

	body := `{
		"data": {
			"source": "recording",
			"type": "RECORDING_READY",
			"content": {
				"conversationSpaceId": "space-42",
				"recordingId": "rec-1",
				"recordingUrl": "https://media.example.com/rec-1.mp3"
			}
		}
	}`

	result, err := f.service.Process(context.Background(), WebhookEndpoint, nil, []byte(body))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.RecordID == nil || *result.RecordID != existing.ID {
		t.Fatal("expected the patched call id in the result")
	}
	if len(f.calls.recordings) != 1 || f.calls.recordings[0] != "https://media.example.com/rec-1.mp3" {
		t.Fatalf("expected recording url attached, got %v", f.calls.recordings)
	}
}

func TestRecordingReadyWithoutCallIsNoOp(t *testing.T) {
	f := newServiceFixture(t)

	body := `{
		"data": {
			"source": "recording",
			"type": "TRANSCRIPTION_READY",
			"content": {"recordingId": "rec-unknown", "transcript": "hello"}
		}
	}`

	result, err := f.service.Process(context.Background(), WebhookEndpoint, nil, []byte(body))
	if err != nil {
		t.Fatalf("missing call must not fail the delivery: %v", err)
	}
	if result.RecordID != nil {
		t.Fatal("expected no record id when no call matches")
	}
	if len(f.calls.transcripts) != 0 {
		t.Fatal("nothing must be attached when no call matches")
	}
	if f.logs.lastStatus() != StatusStored {
		t.Fatalf("no-op must still finish as stored, got %q", f.logs.lastStatus())
	}
}

func TestCallEndingCreatesCall(t *testing.T) {
	f := newServiceFixture(t)

	body := `{
		"data": {
			"source": "call-events",
			"type": "ENDING",
			"content": {
				"conversationSpaceId": "space-7",
				"callId": "call-7",
				"state": {
					"direction": "OUTBOUND",
					"caller": {"number": "+12025550188", "name": "Maja Holm"}
				}
			}
		}
	}`

	result, err := f.service.Process(context.Background(), WebhookEndpoint, nil, []byte(body))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.RecordID == nil {
		t.Fatal("ending event must create a call record")
	}
	if len(f.calls.stored) != 1 {
		t.Fatalf("expected one stored call, got %d", len(f.calls.stored))
	}
	call := f.calls.stored[0]
	if call.Direction != "outbound" {
		t.Fatalf("expected outbound direction, got %q", call.Direction)
	}
	if call.CallerNumber != "+12025550188" {
		t.Fatalf("unexpected caller number %q", call.CallerNumber)
	}
}

func TestCallStartingLogsActivityOnly(t *testing.T) {
	f := newServiceFixture(t)

	for _, eventType := range []string{"STARTING", "ACTIVE"} {
		body := fmt.Sprintf(`{
			"data": {
				"source": "call-events",
				"type": %q,
				"content": {"callId": "call-%s"}
			}
		}`, eventType, eventType)

		result, err := f.service.Process(context.Background(), WebhookEndpoint, nil, []byte(body))
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", eventType, err)
		}
		if result.RecordID != nil {
			t.Fatalf("%s must not create a call record", eventType)
		}
	}

	if len(f.calls.stored) != 0 {
		t.Fatalf("lifecycle events must not store calls, got %d", len(f.calls.stored))
	}
	if len(f.activity.actions) != 2 {
		t.Fatalf("expected two activity entries, got %d", len(f.activity.actions))
	}
}

func TestUnknownEventClassifiedAsCall(t *testing.T) {
	f := newServiceFixture(t)
	f.ai.available = true
	f.ai.result = &aiparser.ParsedWebhookData{
		IsPhoneCall: true,
		CallerPhone: "+12025550123",
		CallerName:  "Lars Jensen",
		Direction:   "inbound",
		Summary:     "Voicemail about missing receipt",
	}

	body := `{"data": {"source": "voicemail-system", "type": "NEW_MESSAGE", "content": {}}}`

	result, err := f.service.Process(context.Background(), WebhookEndpoint, nil, []byte(body))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.RecordID == nil {
		t.Fatal("classified phone call must create a record")
	}
	if len(f.calls.stored) != 1 || f.calls.stored[0].Summary != "Voicemail about missing receipt" {
		t.Fatalf("unexpected stored calls %v", f.calls.stored)
	}
}

func TestUnknownEventNotACall(t *testing.T) {
	f := newServiceFixture(t)
	f.ai.available = true
	f.ai.result = &aiparser.ParsedWebhookData{IsPhoneCall: false}

	body := `{"data": {"source": "billing-system", "type": "INVOICE_PAID", "content": {}}}`

	result, err := f.service.Process(context.Background(), WebhookEndpoint, nil, []byte(body))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.RecordID != nil {
		t.Fatal("non-call events must not create records")
	}
	if len(f.calls.stored) != 0 {
		t.Fatal("non-call events must not store calls")
	}
}

func TestUnknownEventWithoutAIIsLoggedOnly(t *testing.T) {
	f := newServiceFixture(t)

	body := `{"data": {"source": "mystery", "type": "UNKNOWN", "content": {}}}`

	result, err := f.service.Process(context.Background(), WebhookEndpoint, nil, []byte(body))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.RecordID != nil {
		t.Fatal("expected no record without the AI parser")
	}
	if len(f.activity.actions) != 1 {
		t.Fatalf("expected one activity entry, got %d", len(f.activity.actions))
	}
}

func TestProviderAnalysisWinsOverAIParse(t *testing.T) {
	f := newServiceFixture(t)
	f.ai.available = true
	f.ai.result = &aiparser.ParsedWebhookData{
		Summary:          "in-house summary",
		Urgency:          "low",
		SuggestedActions: []string{"in-house action"},
	}

	if _, err := f.service.Process(context.Background(), WebhookEndpoint, nil, []byte(reportBody)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	call := f.calls.stored[0]
	if call.Summary != "Client asked about VAT deadline" {
		t.Fatalf("provider summary must win, got %q", call.Summary)
	}
	if len(f.tasks.created) != 2 || f.tasks.created[0].Urgency != "urgent" {
		t.Fatalf("provider urgency and actions must win, got %v", f.tasks.created)
	}
}

func TestAIParseFillsGapsInProviderAnalysis(t *testing.T) {
	f := newServiceFixture(t)
	f.ai.available = true
	f.ai.result = &aiparser.ParsedWebhookData{
		Summary:          "in-house summary",
		Urgency:          "high",
		SuggestedActions: []string{"Follow up by email"},
	}

	body := `{
		"data": {
			"source": "call-events-report",
			"type": "REPORT_SUMMARY",
			"content": {
				"conversationSpaceId": "space-9",
				"caller": {"number": "+12025550123"}
			}
		}
	}`

	if _, err := f.service.Process(context.Background(), WebhookEndpoint, nil, []byte(body)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	call := f.calls.stored[0]
	if call.Summary != "in-house summary" {
		t.Fatalf("expected the in-house summary as fallback, got %q", call.Summary)
	}
	if len(f.tasks.created) != 1 || f.tasks.created[0].Urgency != "high" {
		t.Fatalf("expected the in-house action and urgency, got %v", f.tasks.created)
	}
}

func TestInvalidJSONReturnsBadRequest(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.service.Process(context.Background(), WebhookEndpoint, nil, []byte("{not json"))
	if err == nil {
		t.Fatal("expected an error for invalid JSON")
	}
	if !apperr.Is(err, apperr.KindBadRequest) {
		t.Fatalf("expected a bad request error, got %v", err)
	}
	if f.logs.lastStatus() != StatusFailed {
		t.Fatalf("expected log status failed, got %q", f.logs.lastStatus())
	}
}

func TestStoreFailureMarksLogFailed(t *testing.T) {
	f := newServiceFixture(t)
	f.calls.storeErr = errors.New("insert failed")

	_, err := f.service.Process(context.Background(), WebhookEndpoint, nil, []byte(reportBody))
	if err == nil {
		t.Fatal("expected an error when the call store fails")
	}
	if !apperr.Is(err, apperr.KindInternal) {
		t.Fatalf("expected an internal error, got %v", err)
	}
	if f.logs.lastStatus() != StatusFailed {
		t.Fatalf("expected log status failed, got %q", f.logs.lastStatus())
	}
}

func TestLogStoreFailureDoesNotRejectDelivery(t *testing.T) {
	f := newServiceFixture(t)
	f.logs.failCreate = true

	result, err := f.service.Process(context.Background(), WebhookEndpoint, nil, []byte(reportBody))
	if err != nil {
		t.Fatalf("log store failure must not reject the delivery: %v", err)
	}
	if result.RecordID == nil {
		t.Fatal("delivery must still be processed")
	}
}

func TestSchedulerFailureFallsBackToInlineFetch(t *testing.T) {
	f := newServiceFixture(t)
	f.sched.err = errors.New("redis down")

	provider := &fakeProvider{
		urls:        map[string]string{"rec-2": "https://media.example.com/rec-2.mp3"},
		transcripts: map[string]string{"rec-2": "transcript text"},
	}
	f.service.provider = provider

	if _, err := f.service.Process(context.Background(), WebhookEndpoint, nil, []byte(reportBody)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// rec-1 fails at the provider, rec-2 succeeds.
	if len(f.calls.recordings) != 1 || f.calls.recordings[0] != "https://media.example.com/rec-2.mp3" {
		t.Fatalf("expected inline fetch of the second candidate, got %v", f.calls.recordings)
	}
	if len(f.calls.transcripts) != 1 || f.calls.transcripts[0] != "transcript text" {
		t.Fatalf("expected transcript attached, got %v", f.calls.transcripts)
	}
}
