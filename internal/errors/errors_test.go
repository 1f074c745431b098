package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	cause := errors.New("underlying error")

	err := New(ManifestNotFound, "package.json not found", cause)

	if err.Code != ManifestNotFound {
		t.Errorf("Code = %v, want %v", err.Code, ManifestNotFound)
	}
	if err.Message != "package.json not found" {
		t.Errorf("Message = %q, want %q", err.Message, "package.json not found")
	}
	if len(err.SuggestedFixes) != 1 {
		t.Errorf("len(SuggestedFixes) = %d, want 1", len(err.SuggestedFixes))
	}
}

func TestError_Error(t *testing.T) {
	tests := []struct {
		name      string
		code      ErrorCode
		message   string
		cause     error
		wantParts []string
	}{
		{
			name:      "with cause",
			code:      ParseFailed,
			message:   "src/index.ts",
			cause:     errors.New("unexpected token"),
			wantParts: []string{"PARSE_FAILED", "src/index.ts", "unexpected token"},
		},
		{
			name:      "without cause",
			code:      GraphInvalid,
			message:   "dangling import",
			cause:     nil,
			wantParts: []string{"GRAPH_INVALID", "dangling import"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(tt.code, tt.message, tt.cause).Error()

			for _, part := range tt.wantParts {
				if !strings.Contains(got, part) {
					t.Errorf("Error() = %q, want to contain %q", got, part)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := New(InternalError, "something went wrong", cause)

	if err.Unwrap() != cause {
		t.Errorf("Unwrap() = %v, want %v", err.Unwrap(), cause)
	}

	if Newf(ConfigInvalid, "bad value %d", 3).Unwrap() != nil {
		t.Errorf("Unwrap() on error without cause should return nil")
	}
}

func TestCodeOf(t *testing.T) {
	wrapped := fmt.Errorf("loading: %w", New(LayersInvalid, "duplicate layer", nil))

	if got := CodeOf(wrapped); got != LayersInvalid {
		t.Errorf("CodeOf(wrapped) = %v, want %v", got, LayersInvalid)
	}
	if got := CodeOf(errors.New("plain")); got != InternalError {
		t.Errorf("CodeOf(plain) = %v, want %v", got, InternalError)
	}
	if !Is(wrapped, LayersInvalid) {
		t.Error("Is(wrapped, LayersInvalid) = false, want true")
	}
	if Is(nil, LayersInvalid) {
		t.Error("Is(nil, ...) = true, want false")
	}
}

func TestGetSuggestedFixes(t *testing.T) {
	if fixes := GetSuggestedFixes(ParserUnavailable); len(fixes) == 0 {
		t.Error("expected fixes for PARSER_UNAVAILABLE")
	}
	if fixes := GetSuggestedFixes(InternalError); fixes != nil {
		t.Errorf("expected no fixes for INTERNAL_ERROR, got %v", fixes)
	}
}
