package webhook

import "testing"

func TestVerifySignatureRoundTrip(t *testing.T) {
	body := []byte(`{"data":{"source":"call-events-report"}}`)
	sig := SignPayload("topsecret", body)

	if !VerifySignature("topsecret", body, sig) {
		t.Fatal("valid signature rejected")
	}
	if !VerifySignature("topsecret", body, "sha256="+sig) {
		t.Fatal("sha256-prefixed signature rejected")
	}
}

func TestVerifySignatureRejectsTampering(t *testing.T) {
	body := []byte(`{"data":{"source":"call-events-report"}}`)
	sig := SignPayload("topsecret", body)

	if VerifySignature("topsecret", []byte(`{"data":{}}`), sig) {
		t.Fatal("modified body accepted")
	}
	if VerifySignature("otherkey", body, sig) {
		t.Fatal("wrong secret accepted")
	}
	if VerifySignature("topsecret", body, "") {
		t.Fatal("empty signature accepted")
	}
	if VerifySignature("topsecret", body, "deadbeef") {
		t.Fatal("garbage signature accepted")
	}
}
