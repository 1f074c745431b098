package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// ManifestNotFound indicates package.json could not be read
	ManifestNotFound ErrorCode = "MANIFEST_NOT_FOUND"
	// ManifestInvalid indicates package.json is not valid JSON
	ManifestInvalid ErrorCode = "MANIFEST_INVALID"
	// GraphInvalid indicates a module graph that violates its contract (asymmetric or dangling references)
	GraphInvalid ErrorCode = "GRAPH_INVALID"
	// ParseFailed indicates a source file could not be parsed
	ParseFailed ErrorCode = "PARSE_FAILED"
	// ParserUnavailable indicates the binary was built without the tree-sitter front-end
	ParserUnavailable ErrorCode = "PARSER_UNAVAILABLE"
	// ConfigInvalid indicates an invalid configuration value
	ConfigInvalid ErrorCode = "CONFIG_INVALID"
	// LayersInvalid indicates an invalid layer declaration file
	LayersInvalid ErrorCode = "LAYERS_INVALID"
	// StorageFailed indicates the history database failed
	StorageFailed ErrorCode = "STORAGE_FAILED"
	// RunNotFound indicates a history run id that does not exist
	RunNotFound ErrorCode = "RUN_NOT_FOUND"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixActionType represents the type of fix action
type FixActionType string

const (
	// RunCommand suggests running a command
	RunCommand FixActionType = "run-command"
	// EditFile suggests editing a file
	EditFile FixActionType = "edit-file"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Type        FixActionType `json:"type"`
	Command     string        `json:"command,omitempty"`
	Path        string        `json:"path,omitempty"`
	Description string        `json:"description,omitempty"`
}

// Error is a depscope error with a stable code, message, and suggestions.
type Error struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error
}

// New creates a new Error. Suggested fixes for the code are attached automatically.
func New(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: GetSuggestedFixes(code),
	}
}

// Newf creates a new Error without a cause using a format string.
func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return New(code, fmt.Sprintf(format, args...), nil)
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *Error) WithDetails(details interface{}) *Error {
	e.Details = details
	return e
}

// CodeOf returns the code of the first *Error in err's chain, or InternalError.
func CodeOf(err error) ErrorCode {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return InternalError
}

// Is reports whether err carries the given code.
func Is(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}
	var e *Error
	return stderrors.As(err, &e) && e.Code == code
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	ManifestNotFound: {
		{
			Type:        RunCommand,
			Command:     "depscope analyze --root <package-dir>",
			Description: "Point depscope at the directory that contains package.json",
		},
	},
	ParserUnavailable: {
		{
			Type:        RunCommand,
			Command:     "CGO_ENABLED=1 go install ./cmd/depscope",
			Description: "Rebuild with cgo enabled to include the tree-sitter parser",
		},
	},
	ConfigInvalid: {
		{
			Type:        EditFile,
			Path:        ".depscope/config.json",
			Description: "Fix the invalid configuration value",
		},
	},
	LayersInvalid: {
		{
			Type:        EditFile,
			Path:        "LAYERS.toml",
			Description: "Fix the layer declarations",
		},
	},
	RunNotFound: {
		{
			Type:        RunCommand,
			Command:     "depscope history list",
			Description: "List recorded runs",
		},
	},
}

// GetSuggestedFixes returns suggested fixes for an error code
func GetSuggestedFixes(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}
