// Package gotoconnect provides a client for the GoTo Connect telephony API.
// It fetches call reports, recording download URLs, and transcripts that the
// webhook payloads reference by ID.
package gotoconnect

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"firmos_backend/platform/config"
	"firmos_backend/platform/logger"
)

// Client talks to the GoTo Connect REST API with a bearer token.
// A nil client is safe to call; every method reports the API as disabled.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     *logger.Logger
}

// NewClient creates a GoTo Connect API client. Returns nil when no base
// URL is configured, which disables provider lookups.
func NewClient(cfg config.GotoAPIConfig, log *logger.Logger) *Client {
	if !cfg.IsGotoAPIEnabled() {
		return nil
	}

	timeout := cfg.GetGotoAPITimeout()
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.GetGotoAPIBaseURL(), "/"),
		token:   cfg.GetGotoAPIToken(),
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

// CallReport is the summary the provider holds for a finished call.
type CallReport struct {
	ConversationSpaceID string `json:"conversationSpaceId"`
	CallerNumber        string `json:"callerNumber"`
	CallerName          string `json:"callerName"`
	CalleeNumber        string `json:"calleeNumber"`
	CalleeName          string `json:"calleeName"`
	Direction           string `json:"direction"`
	DurationSeconds     int    `json:"durationSeconds"`
	StartTime           string `json:"startTime"`
	EndTime             string `json:"endTime"`
}

// GetCallReport fetches the call report for a conversation space.
func (c *Client) GetCallReport(ctx context.Context, conversationSpaceID string) (*CallReport, error) {
	if c == nil {
		return nil, fmt.Errorf("goto api not configured")
	}

	var report CallReport
	path := "/calls/v2/reports/" + url.PathEscape(conversationSpaceID)
	if err := c.getJSON(ctx, path, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

type recordingResponse struct {
	URL       string `json:"url"`
	ExpiresAt string `json:"expiresAt"`
}

// GetRecordingURL fetches a short-lived download URL for a recording.
func (c *Client) GetRecordingURL(ctx context.Context, recordingID string) (string, error) {
	if c == nil {
		return "", fmt.Errorf("goto api not configured")
	}

	var resp recordingResponse
	path := "/recordings/v1/" + url.PathEscape(recordingID) + "/download"
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return "", err
	}
	if resp.URL == "" {
		return "", fmt.Errorf("recording %s: empty download url", recordingID)
	}
	return resp.URL, nil
}

type transcriptResponse struct {
	Transcript string `json:"transcript"`
	Language   string `json:"language"`
}

// GetTranscription fetches the transcript text for a recording.
func (c *Client) GetTranscription(ctx context.Context, recordingID string) (string, error) {
	if c == nil {
		return "", fmt.Errorf("goto api not configured")
	}

	var resp transcriptResponse
	path := "/recordings/v1/" + url.PathEscape(recordingID) + "/transcript"
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return "", err
	}
	return resp.Transcript, nil
}

// DownloadRecording streams the recording media from a download URL.
// The caller must close the returned reader.
func (c *Client) DownloadRecording(ctx context.Context, downloadURL string) (io.ReadCloser, int64, string, error) {
	if c == nil {
		return nil, 0, "", fmt.Errorf("goto api not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return nil, 0, "", err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, "", fmt.Errorf("recording download failed: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		defer func() { _ = resp.Body.Close() }()
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, 0, "", fmt.Errorf("recording download returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	return resp.Body, resp.ContentLength, resp.Header.Get("Content-Type"), nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("goto api request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("goto api: %s not found", path)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("goto api returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode goto api response: %w", err)
	}
	return nil
}
