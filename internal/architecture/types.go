// Package architecture classifies how a repository is organized and checks
// dependencies between architectural layers.
package architecture

// Pattern is the whole-repository organization pattern.
type Pattern string

const (
	PatternMonorepo     Pattern = "monorepo"
	PatternFeatureBased Pattern = "feature-based"
	PatternLayered      Pattern = "layered"
	PatternFlat         Pattern = "flat"
	PatternUnknown      Pattern = "unknown"
)

// Layer declares an architectural layer.
// Layers are matched in declaration order, so the order of a layer list is significant.
type Layer struct {
	Name string `json:"name" toml:"name"`

	// PathPatterns are globs over relative paths: ** for any depth, * within one segment.
	PathPatterns []string `json:"pathPatterns" toml:"patterns"`

	// AllowedDependencyLayers are the layers this one may import besides itself.
	AllowedDependencyLayers []string `json:"allowedDependencyLayers" toml:"allowed"`

	Description string `json:"description,omitempty" toml:"description,omitempty"`
}

// LayerResult is a layer together with its assigned files.
type LayerResult struct {
	Layer

	// Files are the files assigned to the layer, in graph order.
	Files []string `json:"files"`

	// ViolatingFiles are the distinct files whose imports into this layer are not allowed.
	ViolatingFiles []string `json:"violatingFiles"`
}

// Violation is an import that crosses into a layer its source layer may not depend on.
type Violation struct {
	From      string `json:"from"`
	To        string `json:"to"`
	FromLayer string `json:"fromLayer"`
	ToLayer   string `json:"toLayer"`
}

// ArchitectureAnalysis is the result of Analyze.
type ArchitectureAnalysis struct {
	Pattern    Pattern       `json:"pattern"`
	Layers     []LayerResult `json:"layers"`
	Violations []Violation   `json:"violations"`
}
