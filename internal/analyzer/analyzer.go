// Package analyzer runs every analysis over one repository and collects the results.
package analyzer

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"depscope/internal/architecture"
	"depscope/internal/deadcode"
	"depscope/internal/deps"
	"depscope/internal/exportflow"
	"depscope/internal/graph"
	"depscope/internal/manifest"
	"depscope/internal/modgraph"
	"depscope/internal/scan"
)

// Options configures a run.
type Options struct {
	Scan     scan.Options
	DeadCode deadcode.Options

	// Layers are the architectural layers to check; nil means the default layers.
	Layers []architecture.Layer

	// MostImportedLimit bounds the most-imported list.
	MostImportedLimit int

	// KeyFiles enables centrality ranking seeded from the entry points.
	KeyFiles bool
	Rank     graph.RankOptions
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		Scan:              scan.DefaultOptions(),
		DeadCode:          deadcode.DefaultOptions(),
		MostImportedLimit: graph.DefaultMostImportedLimit,
		KeyFiles:          true,
		Rank:              graph.DefaultRankOptions(),
	}
}

// Package identifies the analyzed package.
type Package struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
	Root    string `json:"root"`
}

// Result holds every analysis result of one run.
type Result struct {
	Package  Package            `json:"package"`
	Manifest *manifest.Manifest `json:"manifest"`
	Graph    *modgraph.Graph    `json:"-"`
	Scan     *scan.Result       `json:"scan"`

	Edges        []deps.DependencyEdge             `json:"edges"`
	External     []deps.ExternalDependency         `json:"external"`
	Dependencies deps.DependencyAnalysis           `json:"dependencies"`
	Cycles       [][]string                        `json:"cycles"`
	Barrels      []string                          `json:"barrels"`
	TypeOnly     []string                          `json:"typeOnly"`
	MostImported []graph.ImportCount               `json:"mostImported"`
	DeadCode     *deadcode.Result                  `json:"deadCode"`
	Architecture architecture.ArchitectureAnalysis `json:"architecture"`
	Flows        []exportflow.ExportFlow           `json:"flows"`
	KeyFiles     *graph.RankOutput                 `json:"keyFiles,omitempty"`

	Duration time.Duration `json:"duration"`
}

// Analyzer orchestrates a full repository analysis.
type Analyzer struct {
	logger *slog.Logger
	opts   Options
}

// New creates an analyzer.
func New(logger *slog.Logger, opts Options) *Analyzer {
	return &Analyzer{logger: logger, opts: opts}
}

// Run loads the manifest at root, scans the sources and runs every analysis.
func (a *Analyzer) Run(ctx context.Context, root string) (*Result, error) {
	start := time.Now()

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	m, err := manifest.Load(filepath.Join(abs, manifest.FileName))
	if err != nil {
		return nil, err
	}

	scanner, err := scan.New(abs, a.opts.Scan, a.logger)
	if err != nil {
		return nil, err
	}
	scanned, err := scanner.Scan(ctx, m)
	if err != nil {
		return nil, err
	}
	a.logger.Info("Scanned repository",
		"package", m.Name,
		"files", scanned.Graph.Len(),
		"entries", len(scanned.Entries.Paths),
		"skipped", len(scanned.Skipped),
	)

	result, err := a.Analyze(ctx, scanned.Graph, m, scanned.Entries)
	if err != nil {
		return nil, err
	}
	result.Package.Root = abs
	result.Scan = scanned
	result.Duration = time.Since(start)
	return result, nil
}

// Analyze runs every analysis over an already built graph. The analyses are independent reads of
// the immutable graph and run in parallel.
func (a *Analyzer) Analyze(ctx context.Context, g *modgraph.Graph, m *manifest.Manifest, entries scan.Entries) (*Result, error) {
	modgraph.MustSource(g)
	if m == nil {
		m = manifest.Analyze(nil)
	}
	layers := a.opts.Layers
	if layers == nil {
		layers = architecture.DefaultLayers()
	}

	r := &Result{
		Package:  Package{Name: m.Name, Version: m.Version},
		Manifest: m,
		Graph:    g,
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		r.Edges = deps.BuildEdges(g)
		return nil
	})
	eg.Go(func() error {
		r.External = deps.ExternalUsage(g, m.Dependencies)
		r.Dependencies = deps.Compare(g, m.Dependencies)
		return nil
	})
	eg.Go(func() error {
		r.Cycles = graph.FindCycles(g)
		r.Barrels = graph.BarrelFiles(g)
		r.TypeOnly = graph.TypeOnlyFiles(g)
		r.MostImported = graph.MostImported(g, a.opts.MostImportedLimit)
		return nil
	})
	eg.Go(func() error {
		dc := deadcode.NewAnalyzer(a.logger, a.opts.DeadCode.ExcludePatterns)
		r.DeadCode = dc.Analyze(g, entries.Paths, a.opts.DeadCode)
		return nil
	})
	eg.Go(func() error {
		r.Architecture = architecture.Analyze(g, layers)
		return nil
	})
	eg.Go(func() error {
		r.Flows = exportflow.Trace(g, entries.Points)
		return nil
	})
	if a.opts.KeyFiles && len(entries.Paths) > 0 {
		eg.Go(func() error {
			out, err := graph.KeyFiles(ctx, g, entries.Paths, a.opts.Rank)
			if err != nil {
				return err
			}
			r.KeyFiles = out
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	a.logger.Debug("Analysis complete",
		"cycles", len(r.Cycles),
		"unusedExports", len(r.DeadCode.UnusedExports),
		"orphans", len(r.DeadCode.OrphanFiles),
		"violations", len(r.Architecture.Violations),
		"flows", len(r.Flows),
	)
	return r, nil
}
