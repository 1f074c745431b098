package architecture

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"

	deperrors "depscope/internal/errors"
)

// LayersDeclarationFile is the default filename for layer declarations.
const LayersDeclarationFile = "LAYERS.toml"

// LayersFile represents the root structure of LAYERS.toml.
type LayersFile struct {
	// Version is the schema version
	Version int `toml:"version"`

	// Layers is the list of declared layers, in matching order
	Layers []Layer `toml:"layer"`
}

// ParseLayersFile parses a LAYERS.toml file from the given path.
func ParseLayersFile(filePath string) (*LayersFile, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, deperrors.New(deperrors.LayersInvalid, "failed to read "+filePath, err)
	}

	var layersFile LayersFile
	if err := toml.Unmarshal(data, &layersFile); err != nil {
		return nil, deperrors.New(deperrors.LayersInvalid, "failed to parse "+filePath, err)
	}

	if layersFile.Version < 1 {
		layersFile.Version = 1
	}
	for i := range layersFile.Layers {
		l := &layersFile.Layers[i]
		if l.PathPatterns == nil {
			l.PathPatterns = []string{}
		}
		if l.AllowedDependencyLayers == nil {
			l.AllowedDependencyLayers = []string{}
		}
	}
	if err := ValidateLayers(layersFile.Layers); err != nil {
		return nil, err
	}
	return &layersFile, nil
}

// LoadLayers loads the layer declarations of a repository.
// When the declaration file does not exist the default layers are returned.
func LoadLayers(repoRoot, declarationFile string) ([]Layer, error) {
	if declarationFile == "" {
		declarationFile = LayersDeclarationFile
	}
	filePath := declarationFile
	if !filepath.IsAbs(filePath) {
		filePath = filepath.Join(repoRoot, declarationFile)
	}

	if _, err := os.Stat(filePath); errors.Is(err, fs.ErrNotExist) {
		return DefaultLayers(), nil
	}

	layersFile, err := ParseLayersFile(filePath)
	if err != nil {
		return nil, err
	}
	return layersFile.Layers, nil
}

// ValidateLayers checks that layer names are present and unique and that every allowed layer exists.
func ValidateLayers(layers []Layer) error {
	names := make(map[string]bool, len(layers))
	for i, layer := range layers {
		if layer.Name == "" {
			return deperrors.Newf(deperrors.LayersInvalid, "layer %d has no name", i+1)
		}
		if names[layer.Name] {
			return deperrors.Newf(deperrors.LayersInvalid, "duplicate layer %q", layer.Name)
		}
		names[layer.Name] = true
	}
	for _, layer := range layers {
		for _, a := range layer.AllowedDependencyLayers {
			if !names[a] {
				return deperrors.Newf(deperrors.LayersInvalid, "layer %q allows unknown layer %q", layer.Name, a)
			}
		}
	}
	return nil
}

// WriteLayersFile writes a LayersFile to the given path.
func WriteLayersFile(filePath string, layersFile *LayersFile) error {
	data, err := toml.Marshal(layersFile)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", LayersDeclarationFile, err)
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(filePath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", LayersDeclarationFile, err)
	}
	return nil
}

// DefaultLayersFile returns the declaration file written by `depscope init`.
func DefaultLayersFile() *LayersFile {
	return &LayersFile{Version: 1, Layers: DefaultLayers()}
}
