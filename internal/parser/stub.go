//go:build !cgo

package parser

import (
	"context"

	deperrors "depscope/internal/errors"
)

// Parser extracts file facts.
// This is a stub implementation for non-CGO builds.
type Parser struct{}

// NewParser creates a new parser.
func NewParser() *Parser {
	return &Parser{}
}

// IsAvailable returns whether source parsing is available.
// Returns false when CGO is disabled.
func IsAvailable() bool {
	return false
}

// ParseFile always fails in non-CGO builds.
func (p *Parser) ParseFile(ctx context.Context, path string) (*FileFacts, error) {
	return nil, errUnavailable()
}

// Parse always fails in non-CGO builds.
func (p *Parser) Parse(ctx context.Context, path string, source []byte) (*FileFacts, error) {
	return nil, errUnavailable()
}

func errUnavailable() error {
	return deperrors.Newf(deperrors.ParserUnavailable, "source parsing requires CGO (tree-sitter)")
}
