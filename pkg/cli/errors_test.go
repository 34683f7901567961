package cli

import (
	"errors"
	"strings"
	"testing"
)

// TestConfigError tests the message format.
func TestConfigError(t *testing.T) {
	err := NewConfigError("owner", "owner is required")
	if !strings.Contains(err.Error(), "owner is required") {
		t.Errorf("Unexpected message %q", err.Error())
	}
}

// TestCommandError_Unwrap tests cause propagation.
func TestCommandError_Unwrap(t *testing.T) {
	cause := errors.New("store unavailable")
	err := NewCommandError("search list", cause)

	if !errors.Is(err, cause) {
		t.Error("Expected CommandError to unwrap to its cause")
	}
	if !strings.Contains(err.Error(), "search list") {
		t.Errorf("Expected command name in message, got %q", err.Error())
	}
}
