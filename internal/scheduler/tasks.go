package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// TaskRecordingFetch fetches a recording URL and transcript from the
// provider and attaches them to the stored call.
const TaskRecordingFetch = "calls.recording.fetch"

// TaskRecordingArchive downloads a recording and archives it in object storage.
const TaskRecordingArchive = "calls.recording.archive"

// RecordingFetchPayload identifies the recording to fetch and the call
// it belongs to. Payloads can reference a recording under several keys,
// so the worker tries each candidate ID until one succeeds.
type RecordingFetchPayload struct {
	CallID              string   `json:"callId"`
	RecordingIDs        []string `json:"recordingIds"`
	ConversationSpaceID string   `json:"conversationSpaceId,omitempty"`
	WantTranscript      bool     `json:"wantTranscript"`
}

// RecordingArchivePayload identifies a fetched recording to archive.
type RecordingArchivePayload struct {
	CallID       string `json:"callId"`
	RecordingID  string `json:"recordingId"`
	RecordingURL string `json:"recordingUrl"`
}

// NewRecordingFetchTask builds the asynq task for a recording fetch.
func NewRecordingFetchTask(payload RecordingFetchPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRecordingFetch, data), nil
}

// ParseRecordingFetchPayload decodes a recording fetch task payload.
func ParseRecordingFetchPayload(task *asynq.Task) (RecordingFetchPayload, error) {
	var payload RecordingFetchPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return RecordingFetchPayload{}, err
	}
	return payload, nil
}

// NewRecordingArchiveTask builds the asynq task for a recording archive.
func NewRecordingArchiveTask(payload RecordingArchivePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRecordingArchive, data), nil
}

// ParseRecordingArchivePayload decodes a recording archive task payload.
func ParseRecordingArchivePayload(task *asynq.Task) (RecordingArchivePayload, error) {
	var payload RecordingArchivePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return RecordingArchivePayload{}, err
	}
	return payload, nil
}
