package phone

import "testing"

func TestDigits(t *testing.T) {
	if got := Digits("+1 (555) 123-4567"); got != "15551234567" {
		t.Fatalf("expected digits only, got %q", got)
	}
	if got := Digits("no digits here"); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
}

func TestMatchable(t *testing.T) {
	if Matchable("12345") {
		t.Fatal("short numbers should not be matchable")
	}
	if !Matchable("555-1234") {
		t.Fatal("seven digits should be matchable")
	}
}

func TestSameNumberExact(t *testing.T) {
	if !SameNumber("(555) 123-4567", "5551234567") {
		t.Fatal("formatting differences should not break an exact match")
	}
}

func TestSameNumberSuffix(t *testing.T) {
	// Country code prefix differs; last 10 digits agree.
	if !SameNumber("+15551234567", "5551234567") {
		t.Fatal("suffix match should tolerate country codes")
	}
	if SameNumber("+15551234567", "+15559876543") {
		t.Fatal("different lines must not match")
	}
}

func TestSameNumberRejectsShortInput(t *testing.T) {
	if SameNumber("123", "123") {
		t.Fatal("numbers below the minimum digit count must not match")
	}
}

func TestNormalizeE164(t *testing.T) {
	if got := NormalizeE164("(202) 555-0123"); got != "+12025550123" {
		t.Fatalf("expected E.164 output, got %q", got)
	}
	if got := NormalizeE164("not a number"); got != "not a number" {
		t.Fatalf("unparseable input should pass through, got %q", got)
	}
	if got := NormalizeE164("  "); got != "" {
		t.Fatalf("blank input should collapse to empty, got %q", got)
	}
}
