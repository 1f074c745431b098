package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON     OutputFormat = "json"
	FormatHuman    OutputFormat = "human"
	FormatMarkdown OutputFormat = "markdown"
	FormatYAML     OutputFormat = "yaml"
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case FormatJSON, FormatHuman, FormatMarkdown, FormatYAML:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported format: %s", s)
	}
}

// Render formats a report according to the specified format
func Render(r *Report, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(r)
	case FormatYAML:
		return formatYAML(r)
	case FormatHuman:
		return formatHuman(r), nil
	case FormatMarkdown:
		return formatMarkdown(r), nil
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// RenderValue formats any value as JSON or YAML. Human and markdown output fall back to JSON
// for values that are not reports.
func RenderValue(v any, format OutputFormat) (string, error) {
	if r, ok := v.(*Report); ok {
		return Render(r, format)
	}
	if format == FormatYAML {
		return formatYAML(v)
	}
	return formatJSON(v)
}

func formatJSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

// formatYAML goes through JSON so that field names and omitempty rules match the JSON output.
// Decoding into a yaml.Node keeps the field order.
func formatYAML(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return "", fmt.Errorf("failed to convert to YAML: %w", err)
	}
	blockStyle(&node)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// blockStyle drops the flow and quoting styles JSON input carries. The encoder re-quotes
// scalars that would otherwise change type.
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}

func listOrNone(items []string, sep string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, sep)
}

func title(r *Report) string {
	name := r.Package.Name
	if name == "" {
		name = "(unnamed package)"
	}
	if r.Package.Version != "" {
		name += "@" + r.Package.Version
	}
	return name
}
