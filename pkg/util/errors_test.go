package util

import (
	"errors"
	"strings"
	"testing"
)

func TestPerNodeError(t *testing.T) {
	err := NewPerNodeError("10.0.0.1:3000", ErrTimeout)

	msg := err.Error()
	if !strings.Contains(msg, "10.0.0.1:3000") {
		t.Errorf("Error message should contain node key: %s", msg)
	}
	if !strings.Contains(msg, "timed out") {
		t.Errorf("Error message should contain cause: %s", msg)
	}
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("PerNodeError should unwrap to its cause")
	}
}

func TestConfigFileError(t *testing.T) {
	err := NewConfigFileError("/etc/asadm/credentials", 3, "bad line", "expected 3 fields")

	msg := err.Error()
	if !strings.Contains(msg, "credentials") || !strings.Contains(msg, "bad line") || !strings.Contains(msg, "expected 3 fields") {
		t.Errorf("Error message missing expected content: %s", msg)
	}
	if !errors.Is(err, ErrConfigError) {
		t.Errorf("ConfigFileError should unwrap to ErrConfigError")
	}
}

func TestSentinelErrorsDistinct(t *testing.T) {
	sentinels := []error{
		ErrUnreachable,
		ErrTimeout,
		ErrInvalidResponse,
		ErrCommandUnsupported,
		ErrCancelled,
		ErrConfigError,
	}

	for i, err1 := range sentinels {
		for j, err2 := range sentinels {
			if i != j && errors.Is(err1, err2) {
				t.Errorf("Sentinel errors should be distinct: %v == %v", err1, err2)
			}
		}
	}
}

func TestErrorsIsWrapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"PerNodeError", NewPerNodeError("n1", ErrUnreachable), ErrUnreachable},
		{"ConfigFileError", NewConfigFileError("path", 1, "", "bad"), ErrConfigError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("%s should wrap %v", tt.name, tt.sentinel)
			}
		})
	}
}
