// Package scan walks a repository, parses its JavaScript and TypeScript sources and assembles the
// module graph. It is the only package that touches the file system for source files.
package scan

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/gobwas/glob"
	"golang.org/x/sync/errgroup"

	"depscope/internal/deps"
	deperrors "depscope/internal/errors"
	"depscope/internal/manifest"
	"depscope/internal/modgraph"
	"depscope/internal/parser"
	"depscope/internal/paths"
)

// DefaultExcludedDirs are never descended into.
var DefaultExcludedDirs = []string{"node_modules", "dist", "build", "coverage", ".git", paths.DataDirName}

// DefaultMaxFileSize skips minified bundles and generated blobs.
const DefaultMaxFileSize = 1 << 20

// Options configures a scan.
type Options struct {
	// Exclude are glob patterns matched against repo-relative paths.
	Exclude []string

	// Aliases map specifier prefixes to repo-relative directories ("@/*" -> "src/*").
	Aliases map[string]string

	// UseTSConfig merges compilerOptions.paths from tsconfig.json into Aliases.
	UseTSConfig bool

	// MaxFileSize in bytes; larger files are skipped.
	MaxFileSize int64

	// Concurrency bounds parallel parsing.
	Concurrency int
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		Aliases:     map[string]string{},
		UseTSConfig: true,
		MaxFileSize: DefaultMaxFileSize,
		Concurrency: runtime.NumCPU(),
	}
}

// SkippedFile is a source file left out of the graph.
type SkippedFile struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Result is the output of a scan.
type Result struct {
	Graph   *modgraph.Graph `json:"-"`
	Entries Entries         `json:"entries"`
	Skipped []SkippedFile   `json:"skipped"`

	// SyntaxErrors counts parsed files whose facts are best effort.
	SyntaxErrors int `json:"syntaxErrors"`
}

// Scanner builds module graphs for one repository.
type Scanner struct {
	root     string
	opts     Options
	logger   *slog.Logger
	excludes []glob.Glob
	parsers  sync.Pool
}

// New creates a scanner rooted at root. Invalid exclude patterns are a configuration error.
func New(root string, opts Options, logger *slog.Logger) (*Scanner, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, deperrors.New(deperrors.ConfigInvalid, "invalid repository root "+root, err)
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}

	s := &Scanner{
		root:   abs,
		opts:   opts,
		logger: logger,
		parsers: sync.Pool{
			New: func() any { return parser.NewParser() },
		},
	}
	for _, p := range opts.Exclude {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, deperrors.New(deperrors.ConfigInvalid, fmt.Sprintf("invalid exclude pattern %q", p), err)
		}
		s.excludes = append(s.excludes, g)
	}
	return s, nil
}

// Root returns the absolute repository root.
func (s *Scanner) Root() string {
	return s.root
}

// Scan walks and parses the repository and builds the module graph. m may be nil when the
// repository has no manifest.
func (s *Scanner) Scan(ctx context.Context, m *manifest.Manifest) (*Result, error) {
	files, skipped, err := s.walk(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Walked repository", "root", s.root, "files", len(files), "skipped", len(skipped))

	facts, err := s.parseAll(ctx, files)
	if err != nil {
		return nil, err
	}

	var parsed []string
	result := &Result{Skipped: skipped}
	for i, f := range facts {
		if f == nil {
			continue
		}
		if f.HasErrors {
			result.SyntaxErrors++
		}
		parsed = append(parsed, files[i])
	}
	for i, f := range facts {
		if f == nil {
			result.Skipped = append(result.Skipped, SkippedFile{Path: files[i], Reason: "parse failed"})
		}
	}

	resolver := NewResolver(s.root, parsed, s.aliases())
	result.Entries = MapEntries(m, resolver)
	if len(result.Entries.Unmapped) > 0 {
		s.logger.Debug("Manifest entries without source files", "entries", result.Entries.Unmapped)
	}

	entrySet := make(map[string]bool, len(result.Entries.Paths))
	for _, p := range result.Entries.Paths {
		entrySet[p] = true
	}

	builder := modgraph.NewBuilder()
	for i, f := range facts {
		if f == nil {
			continue
		}
		rel := files[i]
		node := buildNode(rel, f, resolver, entrySet[rel])
		if err := builder.Add(node); err != nil {
			return nil, err
		}
	}
	graph, err := builder.Build()
	if err != nil {
		return nil, err
	}
	result.Graph = graph

	s.logger.Debug("Built module graph",
		"files", graph.Len(),
		"entries", len(result.Entries.Paths),
		"syntaxErrors", result.SyntaxErrors,
	)
	return result, nil
}

func (s *Scanner) aliases() map[string]string {
	aliases := make(map[string]string)
	if s.opts.UseTSConfig {
		fromTS, err := LoadTSConfigAliases(s.root)
		if err != nil {
			s.logger.Warn("Ignoring unreadable tsconfig.json", "error", err.Error())
		}
		for k, v := range fromTS {
			aliases[k] = v
		}
	}
	// Configured aliases override tsconfig.
	for k, v := range s.opts.Aliases {
		aliases[k] = v
	}
	return aliases
}

// walk lists source files as repo-relative slash paths in lexical order.
func (s *Scanner) walk(ctx context.Context) ([]string, []SkippedFile, error) {
	excludedDirs := make(map[string]bool, len(DefaultExcludedDirs))
	for _, d := range DefaultExcludedDirs {
		excludedDirs[d] = true
	}

	var files []string
	var skipped []SkippedFile
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			return err
		}

		rel, relErr := filepath.Rel(s.root, p)
		if relErr != nil {
			return relErr
		}
		rel = paths.NormalizePath(rel)

		if d.IsDir() {
			if rel == "." {
				return nil
			}
			name := d.Name()
			if excludedDirs[name] || strings.HasPrefix(name, ".") || s.excluded(rel) || s.excluded(rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		if _, ok := parser.LanguageFromPath(rel); !ok {
			return nil
		}
		if s.excluded(rel) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.Size() > s.opts.MaxFileSize {
			skipped = append(skipped, SkippedFile{Path: rel, Reason: "too large"})
			return nil
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, nil, err
		}
		return nil, nil, deperrors.New(deperrors.ParseFailed, "failed to walk "+s.root, err)
	}
	return files, skipped, nil
}

func (s *Scanner) excluded(rel string) bool {
	for _, g := range s.excludes {
		if g.Match(rel) {
			return true
		}
	}
	return false
}

// parseAll parses files in parallel. A nil entry marks a file that failed to parse.
func (s *Scanner) parseAll(ctx context.Context, files []string) ([]*parser.FileFacts, error) {
	facts := make([]*parser.FileFacts, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)
	for i, rel := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p := s.parsers.Get().(*parser.Parser)
			defer s.parsers.Put(p)

			f, err := p.ParseFile(gctx, paths.JoinRepoPath(s.root, rel))
			switch {
			case err == nil:
				facts[i] = f
				return nil
			case deperrors.Is(err, deperrors.ParserUnavailable):
				return err
			case gctx.Err() != nil:
				return gctx.Err()
			default:
				s.logger.Warn("Skipping unparsable file", "file", rel, "error", err.Error())
				return nil
			}
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return facts, nil
}

// buildNode converts raw facts into a graph node, resolving every specifier.
func buildNode(rel string, f *parser.FileFacts, r *Resolver, isEntry bool) *modgraph.FileNode {
	node := modgraph.NewFileNode(rel, rel, ClassifyRole(rel, f, isEntry))

	unresolved := make(map[string]bool)
	for _, imp := range f.Imports {
		target, kind := r.Resolve(rel, imp.Specifier)
		switch kind {
		case Internal:
			node.AddInternal(modgraph.ImportRecord{
				Specifier:   imp.Specifier,
				Target:      target,
				Identifiers: imp.Identifiers,
				TypeOnly:    imp.TypeOnly,
				Dynamic:     imp.Dynamic,
				Position:    imp.Position,
			})
		case External:
			node.AddExternal(deps.PackageName(imp.Specifier))
		case Unresolved:
			if !unresolved[imp.Specifier] {
				unresolved[imp.Specifier] = true
				node.Imports.Unresolved = append(node.Imports.Unresolved, imp.Specifier)
			}
		}
	}

	node.Exports = make([]modgraph.ExportRecord, 0, len(f.Exports))
	for _, exp := range f.Exports {
		rec := modgraph.ExportRecord{
			Name:         exp.Name,
			Kind:         exp.Kind,
			IsDefault:    exp.IsDefault,
			IsReExport:   exp.IsReExport,
			OriginalName: exp.OriginalName,
			Members:      exp.Members,
			Doc:          exp.Doc,
			Signature:    exp.Signature,
			Position:     exp.Position,
		}
		if exp.IsReExport && exp.Source != "" {
			if target, kind := r.Resolve(rel, exp.Source); kind == Internal {
				rec.From = target
			}
		}
		node.Exports = append(node.Exports, rec)
	}
	return node
}
