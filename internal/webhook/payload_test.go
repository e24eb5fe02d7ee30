package webhook

import (
	"encoding/json"
	"testing"
)

func TestEventIDPriority(t *testing.T) {
	if got := EventID("space-1", "call-1"); got != "space-1" {
		t.Fatalf("conversation space must win, got %q", got)
	}
	if got := EventID("", "call-1"); got != "call-1" {
		t.Fatalf("call id must be the second choice, got %q", got)
	}

	first := EventID("", "")
	second := EventID("", "")
	if first == "" || first == second {
		t.Fatalf("fallback ids must be random, got %q and %q", first, second)
	}
}

func TestCollectRecordingIDsAcrossShapes(t *testing.T) {
	raw := []byte(`{
		"caller": {"number": "+12025550123", "recordingId": "rec-flat"},
		"callee": {"recordings": [{"id": "rec-callee"}]},
		"participants": [
			{"recordingId": "rec-participant"},
			{"recordings": [{"id": "rec-nested-1"}, {"id": "rec-nested-2"}]},
			{"recordingId": "rec-flat"}
		]
	}`)

	var report ReportContent
	if err := json.Unmarshal(raw, &report); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	got := report.CollectRecordingIDs()
	want := []string{"rec-flat", "rec-callee", "rec-participant", "rec-nested-1", "rec-nested-2"}
	if len(got) != len(want) {
		t.Fatalf("expected %d ids, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("id %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestCollectRecordingIDsEmpty(t *testing.T) {
	var report ReportContent
	if ids := report.CollectRecordingIDs(); len(ids) != 0 {
		t.Fatalf("expected no ids, got %v", ids)
	}
}

func TestDurationPrefersExplicitValue(t *testing.T) {
	report := ReportContent{
		DurationSeconds: 95,
		StartTime:       "2026-03-01T10:00:00Z",
		EndTime:         "2026-03-01T10:01:00Z",
	}
	if got := report.Duration(); got != 95 {
		t.Fatalf("expected explicit duration 95, got %d", got)
	}
}

func TestDurationDerivedFromTimestamps(t *testing.T) {
	report := ReportContent{
		StartTime: "2026-03-01T10:00:00Z",
		EndTime:   "2026-03-01T10:02:30Z",
	}
	if got := report.Duration(); got != 150 {
		t.Fatalf("expected derived duration 150, got %d", got)
	}
}

func TestDurationInvalidTimestamps(t *testing.T) {
	report := ReportContent{StartTime: "not-a-time", EndTime: "2026-03-01T10:02:30Z"}
	if got := report.Duration(); got != 0 {
		t.Fatalf("expected 0 for unparseable timestamps, got %d", got)
	}

	backwards := ReportContent{
		StartTime: "2026-03-01T10:05:00Z",
		EndTime:   "2026-03-01T10:00:00Z",
	}
	if got := backwards.Duration(); got != 0 {
		t.Fatalf("expected 0 for negative duration, got %d", got)
	}
}

func TestNormalizeDirection(t *testing.T) {
	cases := map[string]string{
		"OUTBOUND": "outbound",
		"out":      "outbound",
		"INBOUND":  "inbound",
		"":         "inbound",
		"weird":    "inbound",
	}
	for input, want := range cases {
		if got := NormalizeDirection(input); got != want {
			t.Errorf("NormalizeDirection(%q) = %q, want %q", input, got, want)
		}
	}
}
