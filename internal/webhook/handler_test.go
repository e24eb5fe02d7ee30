package webhook

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"firmos_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

type testWebhookConfig struct {
	env    string
	secret string
}

func (c testWebhookConfig) GetEnv() string               { return c.env }
func (c testWebhookConfig) GetGotoWebhookSecret() string { return c.secret }
func (c testWebhookConfig) GetDedupeTTL() time.Duration  { return time.Hour }

var errTest = errors.New("boom")

func newTestEngine(t *testing.T, secret string) (*gin.Engine, *serviceFixture) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := newServiceFixture(t)
	handler := NewHandler(f.service, nil, testWebhookConfig{env: "test", secret: secret}, logger.New("development"))

	engine := gin.New()
	engine.POST("/api/webhooks/goto", handler.HandleGotoWebhook)
	engine.GET("/api/webhooks/goto", handler.HandleWebhookInfo)
	return engine, f
}

func postWebhook(engine *gin.Engine, body []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/goto", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set(SignatureHeader, signature)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

func TestWebhookAcceptsSignedDelivery(t *testing.T) {
	engine, f := newTestEngine(t, "topsecret")
	body := []byte(reportBody)

	w := postWebhook(engine, body, SignPayload("topsecret", body))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	resp := decodeResponse(t, w)
	if resp["success"] != true {
		t.Fatalf("expected success, got %v", resp)
	}
	if resp["eventId"] != "space-42" {
		t.Fatalf("expected event id in response, got %v", resp["eventId"])
	}
	if resp["eventType"] != "REPORT_SUMMARY" {
		t.Fatalf("expected event type in response, got %v", resp["eventType"])
	}
	if _, ok := resp["recordId"]; !ok {
		t.Fatal("expected record id in response")
	}
	if _, ok := resp["processingTimeMs"]; !ok {
		t.Fatal("expected processing time in response")
	}
	if len(f.calls.stored) != 1 {
		t.Fatalf("expected one stored call, got %d", len(f.calls.stored))
	}
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	engine, f := newTestEngine(t, "topsecret")
	body := []byte(reportBody)

	w := postWebhook(engine, body, SignPayload("wrongkey", body))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if len(f.calls.stored) != 0 {
		t.Fatal("rejected delivery must not be processed")
	}

	w = postWebhook(engine, body, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for missing signature, got %d", w.Code)
	}
}

func TestWebhookAcceptsUnsignedWhenNoSecret(t *testing.T) {
	engine, f := newTestEngine(t, "")

	w := postWebhook(engine, []byte(reportBody), "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if len(f.calls.stored) != 1 {
		t.Fatal("unsigned delivery must be processed when no secret is configured")
	}
}

func TestWebhookRejectsInvalidJSON(t *testing.T) {
	engine, _ := newTestEngine(t, "")

	w := postWebhook(engine, []byte("{not json"), "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}

	resp := decodeResponse(t, w)
	if resp["success"] != false {
		t.Fatalf("expected success false, got %v", resp)
	}
}

func TestWebhookFlagsDuplicateDelivery(t *testing.T) {
	engine, _ := newTestEngine(t, "")
	body := []byte(reportBody)

	if w := postWebhook(engine, body, ""); w.Code != http.StatusOK {
		t.Fatalf("first delivery failed with %d", w.Code)
	}

	w := postWebhook(engine, body, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for replay, got %d", w.Code)
	}

	resp := decodeResponse(t, w)
	if resp["duplicate"] != true {
		t.Fatalf("expected duplicate flag, got %v", resp)
	}
	if _, ok := resp["recordId"]; ok {
		t.Fatal("duplicate response must not carry a record id")
	}
}

func TestWebhookProcessingFailureReturns500(t *testing.T) {
	engine, f := newTestEngine(t, "")
	f.calls.storeErr = errTest

	w := postWebhook(engine, []byte(reportBody), "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if f.logs.lastStatus() != StatusFailed {
		t.Fatalf("expected log status failed, got %q", f.logs.lastStatus())
	}
}

func TestWebhookInfoEndpoint(t *testing.T) {
	engine, _ := newTestEngine(t, "topsecret")

	req := httptest.NewRequest(http.MethodGet, "/api/webhooks/goto", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	resp := decodeResponse(t, w)
	if resp["success"] != true || resp["signed"] != true {
		t.Fatalf("unexpected info response %v", resp)
	}
}
