package aiparser

import (
	"context"
	"testing"
)

func TestExtractJSONPlain(t *testing.T) {
	in := `{"isPhoneCall":true}`
	if got := extractJSON(in); got != in {
		t.Fatalf("plain JSON should pass through, got %q", got)
	}
}

func TestExtractJSONFenced(t *testing.T) {
	in := "```json\n{\"isPhoneCall\":true}\n```"
	want := `{"isPhoneCall":true}`
	if got := extractJSON(in); got != want {
		t.Fatalf("expected fences stripped, got %q", got)
	}
}

func TestNormalizeUrgency(t *testing.T) {
	cases := map[string]string{
		"URGENT":   "urgent",
		"critical": "urgent",
		"High":     "high",
		"low":      "low",
		"":         "medium",
		"banana":   "medium",
	}
	for in, want := range cases {
		if got := normalizeUrgency(in); got != want {
			t.Errorf("normalizeUrgency(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNilParserUnavailable(t *testing.T) {
	var p *Parser
	if p.Available() {
		t.Fatal("nil parser must report unavailable")
	}
	if _, err := p.Parse(context.Background(), []byte(`{}`)); err == nil {
		t.Fatal("expected error from nil parser")
	}
}
