package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrGenerationActive, ErrCodeGenerationActive},
		{fmt.Errorf("send: %w", ErrNoProject), ErrCodeNoProject},
		{ErrCodexNotInstalled, ErrCodeNotInstalled},
		{ErrInvalidProjectPath, ErrCodeInvalidPath},
		{ErrEmptyMessage, ErrCodeEmptyMessage},
		{errors.New("boom"), ErrCodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := ErrorCode(tt.err); got != tt.want {
				t.Errorf("ErrorCode(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}

func TestCodexError(t *testing.T) {
	inner := errors.New("executable file not found")
	err := NewCodexError("start", inner, 0)

	if err.Error() != "codex start: executable file not found" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, inner) {
		t.Error("CodexError should unwrap to the inner error")
	}

	withCode := NewCodexError("run", inner, 2)
	if withCode.Error() != "codex run: exit code 2: executable file not found" {
		t.Errorf("Error() = %q", withCode.Error())
	}
}
