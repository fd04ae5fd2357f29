package notify

import (
	"strings"
	"testing"
)

func TestNewTwilioNotifierRequiresCredentials(t *testing.T) {
	t.Setenv("TWILIO_ACCOUNT_SID", "")
	t.Setenv("TWILIO_AUTH_TOKEN", "")
	t.Setenv("TWILIO_FROM_NUMBER", "")

	if _, err := NewTwilioNotifier(); err == nil {
		t.Fatal("expected error without credentials")
	}
	if _, err := NewTwilioNotifier(WithAccountSID("AC123"), WithAuthToken("tok")); err == nil {
		t.Fatal("expected error without from number")
	}
}

func TestNewTwilioNotifierFromEnv(t *testing.T) {
	t.Setenv("TWILIO_ACCOUNT_SID", "AC123")
	t.Setenv("TWILIO_AUTH_TOKEN", "tok")
	t.Setenv("TWILIO_FROM_NUMBER", "+15550001111")

	n, err := NewTwilioNotifier()
	if err != nil {
		t.Fatalf("NewTwilioNotifier failed: %v", err)
	}
	if n.from != "+15550001111" {
		t.Errorf("expected from number from env, got %s", n.from)
	}
}

func TestTruncateBody(t *testing.T) {
	short := "Your itinerary is ready."
	if got := truncateBody(short); got != short {
		t.Errorf("short body modified: %q", got)
	}

	long := strings.Repeat("a", maxSMSBody+100)
	got := truncateBody(long)
	if !strings.HasSuffix(got, "[truncated]") {
		t.Error("expected truncation marker")
	}
	if len(got) != maxSMSBody+len("\n[truncated]") {
		t.Errorf("unexpected truncated length %d", len(got))
	}
}
