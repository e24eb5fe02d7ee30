package scheduler

import (
	"context"
	"fmt"

	"firmos_backend/internal/calls"
	"firmos_backend/internal/gotoconnect"
	"firmos_backend/internal/storage"
	"firmos_backend/platform/config"
	"firmos_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"
)

// Worker consumes background jobs: recording fetches and archives.
type Worker struct {
	server     *asynq.Server
	mux        *asynq.ServeMux
	calls      *calls.Service
	provider   *gotoconnect.Client
	archiver   *Client
	storageSvc storage.StorageService
	bucket     string
	log        *logger.Logger
}

// NewWorker creates an asynq worker wired to the calls service and
// provider API. storageSvc may be nil, which disables archiving.
func NewWorker(cfg config.SchedulerConfig, callsSvc *calls.Service, provider *gotoconnect.Client, archiver *Client, storageSvc storage.StorageService, bucket string, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL)
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:     server,
		mux:        mux,
		calls:      callsSvc,
		provider:   provider,
		archiver:   archiver,
		storageSvc: storageSvc,
		bucket:     bucket,
		log:        log,
	}

	mux.HandleFunc(TaskRecordingFetch, w.handleRecordingFetch)
	mux.HandleFunc(TaskRecordingArchive, w.handleRecordingArchive)

	return w, nil
}

// Run starts the worker and blocks until the context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

// handleRecordingFetch tries each candidate recording ID until the
// provider returns a download URL, pulling URL and transcript
// concurrently per ID. The result is attached to the call and handed
// off to the archive job. A final failure bubbles up so asynq retries.
func (w *Worker) handleRecordingFetch(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseRecordingFetchPayload(task)
	if err != nil {
		return err
	}

	callID, err := uuid.Parse(payload.CallID)
	if err != nil {
		return err
	}
	if len(payload.RecordingIDs) == 0 {
		return nil
	}

	var recordingID, recordingURL, transcript string
	var lastErr error
	for _, candidate := range payload.RecordingIDs {
		url, text, err := w.fetchRecording(ctx, candidate, payload.WantTranscript)
		if err != nil {
			lastErr = err
			w.log.Warn("recording fetch candidate failed", "call_id", callID, "recording_id", candidate, "error", err)
			continue
		}
		recordingID, recordingURL, transcript = candidate, url, text
		break
	}
	if recordingURL == "" {
		return fmt.Errorf("no recording candidate succeeded: %w", lastErr)
	}

	if err := w.calls.AttachRecording(ctx, callID, recordingID, recordingURL); err != nil {
		return fmt.Errorf("attach recording: %w", err)
	}
	if transcript != "" {
		if err := w.calls.AttachTranscript(ctx, callID, recordingID, transcript); err != nil {
			return fmt.Errorf("attach transcript: %w", err)
		}
	}

	w.log.Info("recording attached to call",
		"call_id", callID, "recording_id", recordingID, "has_transcript", transcript != "")

	if w.storageSvc != nil && w.archiver != nil {
		if err := w.archiver.ScheduleRecordingArchive(ctx, RecordingArchivePayload{
			CallID:       payload.CallID,
			RecordingID:  recordingID,
			RecordingURL: recordingURL,
		}); err != nil {
			w.log.Error("failed to schedule recording archive", "call_id", callID, "error", err)
		}
	}

	return nil
}

// fetchRecording pulls the download URL and, optionally, the transcript
// for one recording ID concurrently. The transcript is best-effort; only
// a missing URL fails the candidate.
func (w *Worker) fetchRecording(ctx context.Context, recordingID string, wantTranscript bool) (string, string, error) {
	var recordingURL, transcript string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		url, err := w.provider.GetRecordingURL(gctx, recordingID)
		if err != nil {
			return fmt.Errorf("fetch recording url: %w", err)
		}
		recordingURL = url
		return nil
	})
	if wantTranscript {
		g.Go(func() error {
			text, err := w.provider.GetTranscription(gctx, recordingID)
			if err != nil {
				w.log.Warn("transcript fetch failed", "recording_id", recordingID, "error", err)
				return nil
			}
			transcript = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", "", err
	}
	return recordingURL, transcript, nil
}

// handleRecordingArchive downloads the recording media and stores a
// durable copy, since provider URLs expire.
func (w *Worker) handleRecordingArchive(ctx context.Context, task *asynq.Task) error {
	if w.storageSvc == nil {
		return nil
	}

	payload, err := ParseRecordingArchivePayload(task)
	if err != nil {
		return err
	}

	callID, err := uuid.Parse(payload.CallID)
	if err != nil {
		return err
	}

	body, size, contentType, err := w.provider.DownloadRecording(ctx, payload.RecordingURL)
	if err != nil {
		return fmt.Errorf("download recording: %w", err)
	}
	defer func() {
		_ = body.Close()
	}()

	if contentType == "" {
		contentType = "audio/mpeg"
	}

	key, err := w.storageSvc.UploadFile(ctx, w.bucket, payload.CallID, payload.RecordingID+".mp3", contentType, body, size)
	if err != nil {
		return fmt.Errorf("archive recording: %w", err)
	}

	if err := w.calls.SetArchiveKey(ctx, callID, key); err != nil {
		return fmt.Errorf("record archive key: %w", err)
	}

	w.log.Info("recording archived", "call_id", callID, "key", key)
	return nil
}
