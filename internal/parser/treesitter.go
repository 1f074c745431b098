//go:build cgo

package parser

import (
	"context"
	"fmt"
	"os"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	deperrors "depscope/internal/errors"
)

// Parser wraps tree-sitter for JavaScript and TypeScript sources.
// A Parser is not safe for concurrent use; create one per goroutine.
type Parser struct {
	parser *sitter.Parser
}

// NewParser creates a new parser.
func NewParser() *Parser {
	return &Parser{parser: sitter.NewParser()}
}

// IsAvailable returns whether source parsing is available.
func IsAvailable() bool {
	return true
}

// ParseFile reads and parses a file from disk.
func (p *Parser) ParseFile(ctx context.Context, path string) (*FileFacts, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, deperrors.New(deperrors.ParseFailed, fmt.Sprintf("failed to read %s", path), err)
	}
	return p.Parse(ctx, path, source)
}

// Parse extracts facts from source. The grammar is chosen from the path's extension.
func (p *Parser) Parse(ctx context.Context, path string, source []byte) (*FileFacts, error) {
	lang, ok := LanguageFromPath(path)
	if !ok {
		return nil, deperrors.Newf(deperrors.ParseFailed, "unsupported file type: %s", path)
	}

	p.parser.SetLanguage(getLanguage(lang))
	tree, err := p.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, deperrors.New(deperrors.ParseFailed, fmt.Sprintf("failed to parse %s", path), err)
	}
	defer tree.Close()

	root := tree.RootNode()
	facts := newExtractor(source).extract(root)
	facts.Path = path
	facts.Language = lang
	facts.HasErrors = root.HasError()
	return facts, nil
}

func getLanguage(lang Language) *sitter.Language {
	switch lang {
	case LangTypeScript:
		return typescript.GetLanguage()
	case LangTSX:
		return tsx.GetLanguage()
	default:
		return javascript.GetLanguage()
	}
}
