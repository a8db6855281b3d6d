package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	err := New(PatternNotFound, "no record for signature", nil)

	msg := err.Error()
	if !strings.Contains(msg, "PATTERN_NOT_FOUND") {
		t.Errorf("Error() should contain code, got: %s", msg)
	}
	if !strings.Contains(msg, "no record for signature") {
		t.Errorf("Error() should contain message, got: %s", msg)
	}
}

func TestErrorWithCause(t *testing.T) {
	cause := fmt.Errorf("unexpected end of JSON input")
	err := New(StateCorrupt, "failed to parse learned state", cause)

	if !strings.Contains(err.Error(), "unexpected end of JSON input") {
		t.Errorf("Error() should include cause, got: %s", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should unwrap to the cause")
	}
}

func TestWithDetails(t *testing.T) {
	err := New(FactsInvalid, "bad facts file", nil).WithDetails(map[string]string{"path": "deps.yaml"})
	if err.Details == nil {
		t.Error("WithDetails should set Details")
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(New(IndexMissing, "missing", nil)); got != IndexMissing {
		t.Errorf("CodeOf = %v, want IndexMissing", got)
	}
	if got := CodeOf(fmt.Errorf("plain")); got != InternalError {
		t.Errorf("CodeOf(plain error) = %v, want InternalError", got)
	}
}
