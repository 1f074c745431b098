package scan

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"depscope/internal/paths"
)

// TSConfigFile is the compiler config read for path aliases.
const TSConfigFile = "tsconfig.json"

type tsconfig struct {
	CompilerOptions struct {
		BaseURL string              `json:"baseUrl"`
		Paths   map[string][]string `json:"paths"`
	} `json:"compilerOptions"`
}

// LoadTSConfigAliases reads compilerOptions.paths from the repository tsconfig.json and returns them as
// repo-relative aliases. Only the first target of each mapping is used. A missing file yields no aliases.
func LoadTSConfigAliases(root string) (map[string]string, error) {
	data, err := os.ReadFile(filepath.Join(root, TSConfigFile))
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}

	var cfg tsconfig
	if err := json.Unmarshal(stripJSONC(data), &cfg); err != nil {
		return nil, err
	}

	base := paths.NormalizePath(cfg.CompilerOptions.BaseURL)
	if base == "" {
		base = "."
	}
	aliases := make(map[string]string, len(cfg.CompilerOptions.Paths))
	for key, targets := range cfg.CompilerOptions.Paths {
		if len(targets) == 0 {
			continue
		}
		aliases[key] = paths.NormalizePath(path.Join(base, targets[0]))
	}
	return aliases, nil
}

// stripJSONC removes comments and trailing commas so tsconfig files decode as plain JSON.
func stripJSONC(data []byte) []byte {
	out := make([]byte, 0, len(data))
	inString := false
	for i := 0; i < len(data); i++ {
		c := data[i]
		if inString {
			out = append(out, c)
			if c == '\\' && i+1 < len(data) {
				i++
				out = append(out, data[i])
			} else if c == '"' {
				inString = false
			}
			continue
		}
		switch {
		case c == '"':
			inString = true
			out = append(out, c)
		case c == '/' && i+1 < len(data) && data[i+1] == '/':
			for i < len(data) && data[i] != '\n' {
				i++
			}
			if i < len(data) {
				out = append(out, '\n')
			}
		case c == '/' && i+1 < len(data) && data[i+1] == '*':
			i += 2
			for i+1 < len(data) && !(data[i] == '*' && data[i+1] == '/') {
				i++
			}
			i++
		case c == ',':
			j := i + 1
			for j < len(data) && strings.ContainsRune(" \t\r\n", rune(data[j])) {
				j++
			}
			if j < len(data) && (data[j] == '}' || data[j] == ']') {
				continue
			}
			out = append(out, c)
		default:
			out = append(out, c)
		}
	}
	return out
}
