package scheduler

import (
	"testing"
	"time"

	"github.com/hibiken/asynq"
)

func TestRecordingFetchTaskCarriesPayload(t *testing.T) {
	payload := RecordingFetchPayload{
		CallID:              "call-1",
		RecordingIDs:        []string{"rec-1", "rec-2"},
		ConversationSpaceID: "space-1",
		WantTranscript:      true,
	}

	task, err := NewRecordingFetchTask(payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.Type() != TaskRecordingFetch {
		t.Fatalf("unexpected task type %q", task.Type())
	}

	decoded, err := ParseRecordingFetchPayload(task)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decoded.CallID != "call-1" || len(decoded.RecordingIDs) != 2 || !decoded.WantTranscript {
		t.Fatalf("payload mangled in transit: %+v", decoded)
	}
}

func TestRecordingFetchIsDelayed(t *testing.T) {
	var delay time.Duration
	for _, opt := range recordingFetchOptions("default") {
		if opt.Type() == asynq.ProcessInOpt {
			delay = opt.Value().(time.Duration)
		}
	}

	// The provider needs time to finalize the media after the call ends;
	// an immediate fetch would burn the first attempts on 404s.
	if delay != 2*time.Minute {
		t.Fatalf("expected a 2 minute fetch delay, got %v", delay)
	}
}
