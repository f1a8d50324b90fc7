package binui

import (
	"errors"
	"strings"
	"testing"
)

func TestWindowOsErrorUnwrapsUnavailable(t *testing.T) {
	err := error(&WindowOsError{Message: "wayland compositor gone"})
	if !errors.Is(err, ErrWindowUnavailable) {
		t.Fatal("WindowOsError should unwrap to ErrWindowUnavailable")
	}
	if !strings.Contains(err.Error(), "wayland compositor gone") {
		t.Fatalf("message lost: %q", err.Error())
	}
}

func TestStyleErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  StyleError
		want string
	}{
		{
			name: "underspecified with axis",
			err:  StyleError{Bin: 7, Reason: StyleUnderspecified, Axis: "horizontal"},
			want: "binui: style error on bin 7: horizontal underspecified",
		},
		{
			name: "invalid color",
			err:  StyleError{Bin: 3, Reason: StyleInvalidColor},
			want: "binui: style error on bin 3: invalid color",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReparentErrorMentionsBothBins(t *testing.T) {
	err := ReparentError{Parent: 2, Child: 9}
	msg := err.Error()
	if !strings.Contains(msg, "9") || !strings.Contains(msg, "2") {
		t.Fatalf("message should name both bins: %q", msg)
	}
}
