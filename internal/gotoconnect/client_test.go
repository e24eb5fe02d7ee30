package gotoconnect

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"firmos_backend/platform/logger"
)

type testConfig struct {
	baseURL string
	token   string
}

func (c testConfig) GetGotoAPIBaseURL() string        { return c.baseURL }
func (c testConfig) GetGotoAPIToken() string          { return c.token }
func (c testConfig) GetGotoAPITimeout() time.Duration { return 5 * time.Second }
func (c testConfig) IsGotoAPIEnabled() bool           { return c.baseURL != "" }

func TestGetRecordingURLSendsBearerToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/recordings/v1/rec-123/download" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"url":"https://media.example.com/rec-123.mp3"}`))
	}))
	defer server.Close()

	client := NewClient(testConfig{baseURL: server.URL, token: "secret-token"}, logger.New("development"))

	url, err := client.GetRecordingURL(context.Background(), "rec-123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != "https://media.example.com/rec-123.mp3" {
		t.Fatalf("unexpected url %q", url)
	}
	if gotAuth != "Bearer secret-token" {
		t.Fatalf("expected bearer auth, got %q", gotAuth)
	}
}

func TestGetTranscription(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/recordings/v1/rec-9/transcript" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"transcript":"hello world","language":"en"}`))
	}))
	defer server.Close()

	client := NewClient(testConfig{baseURL: server.URL}, logger.New("development"))

	transcript, err := client.GetTranscription(context.Background(), "rec-9")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if transcript != "hello world" {
		t.Fatalf("unexpected transcript %q", transcript)
	}
}

func TestGetCallReportErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broken", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(testConfig{baseURL: server.URL}, logger.New("development"))

	if _, err := client.GetCallReport(context.Background(), "space-1"); err == nil {
		t.Fatal("expected error for 502 response")
	}
}

func TestNilClientIsDisabled(t *testing.T) {
	client := NewClient(testConfig{}, logger.New("development"))
	if client != nil {
		t.Fatal("expected nil client without base url")
	}
	if _, err := client.GetRecordingURL(context.Background(), "rec"); err == nil {
		t.Fatal("expected error from nil client")
	}
}
