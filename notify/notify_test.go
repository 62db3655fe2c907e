package notify

import "testing"

func TestMessage(t *testing.T) {
	tests := []struct {
		subtitle, body, want string
	}{
		{"", "Output mode: PASTE", "Output mode: PASTE"},
		{"Copied to clipboard", "", "Copied to clipboard"},
		{"Copied to clipboard", "hello world", "Copied to clipboard\nhello world"},
	}
	for _, tt := range tests {
		if got := Message(tt.subtitle, tt.body); got != tt.want {
			t.Errorf("Message(%q, %q) = %q, want %q", tt.subtitle, tt.body, got, tt.want)
		}
	}
}

func TestDisabledDoesNotPost(t *testing.T) {
	d := New()
	d.Disable()
	d.Notify("VoicePTT", "sub", "body")
	d.Alert("VoicePTT", "body")
}
