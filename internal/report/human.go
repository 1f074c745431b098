package report

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

func heading(sb *strings.Builder, text string) {
	sb.WriteString(text + "\n")
	sb.WriteString(strings.Repeat("━", utf8.RuneCountInString(text)) + "\n\n")
}

// formatHuman formats a report for terminal reading.
func formatHuman(r *Report) string {
	var sb strings.Builder

	heading(&sb, "depscope report: "+title(r))
	s := r.Summary
	sb.WriteString(fmt.Sprintf("Files: %d  Internal edges: %d  External packages: %d  Entries: %d\n",
		s.Files, s.InternalEdges, s.ExternalPackages, s.Entries))
	sb.WriteString(fmt.Sprintf("Cycles: %d  Unused exports: %d  Orphan files: %d  Layer violations: %d\n",
		s.Cycles, s.UnusedExports, s.OrphanFiles, s.Violations))
	if len(r.Unmapped) > 0 {
		sb.WriteString(fmt.Sprintf("Unmapped entries: %s\n", strings.Join(r.Unmapped, ", ")))
	}
	if s.Skipped > 0 {
		sb.WriteString(fmt.Sprintf("Skipped files: %d\n", s.Skipped))
	}
	sb.WriteString("\n")

	if d := r.Dependencies; d != nil {
		heading(&sb, "Dependencies")
		sb.WriteString(fmt.Sprintf("  Declared:  %d  Used: %d\n", len(d.Declared), len(d.Used)))
		sb.WriteString(fmt.Sprintf("  Unused:    %s\n", listOrNone(d.Unused, ", ")))
		sb.WriteString(fmt.Sprintf("  Unlisted:  %s\n", listOrNone(d.Unlisted, ", ")))
		if len(d.Misplaced) > 0 {
			sb.WriteString(fmt.Sprintf("  Misplaced: %s (devDependencies used by shipped code)\n", strings.Join(d.Misplaced, ", ")))
		}
		sb.WriteString("\n")
	}

	if st := r.Structure; st != nil {
		heading(&sb, "Structure")
		if len(st.Cycles) == 0 {
			sb.WriteString("  No circular imports.\n")
		} else {
			sb.WriteString(fmt.Sprintf("  Circular imports (%d):\n", len(st.Cycles)))
			for _, c := range st.Cycles {
				sb.WriteString(fmt.Sprintf("    ↻ %s → %s\n", strings.Join(c, " → "), c[0]))
			}
		}
		if len(st.Barrels) > 0 {
			sb.WriteString(fmt.Sprintf("  Barrel files: %s\n", strings.Join(st.Barrels, ", ")))
		}
		if len(st.TypeOnly) > 0 {
			sb.WriteString(fmt.Sprintf("  Type-only files: %s\n", strings.Join(st.TypeOnly, ", ")))
		}
		if len(st.MostImported) > 0 {
			sb.WriteString("  Most imported:\n")
			for _, m := range st.MostImported {
				sb.WriteString(fmt.Sprintf("    %4d  %s\n", m.ImportedByCount, m.File))
			}
		}
		sb.WriteString("\n")
	}

	if dc := r.DeadCode; dc != nil {
		heading(&sb, "Unused Code")
		if len(dc.UnusedExports) == 0 && len(dc.OrphanFiles) == 0 {
			sb.WriteString("  No unused exports or orphan files.\n")
		}
		for _, u := range dc.UnusedExports {
			loc := u.File
			if u.Line > 0 {
				loc = fmt.Sprintf("%s:%d", u.File, u.Line)
			}
			sb.WriteString(fmt.Sprintf("  ✗ %s %s\n    %s\n", u.Type, u.Export, loc))
		}
		if len(dc.OrphanFiles) > 0 {
			sb.WriteString(fmt.Sprintf("  Orphan files (%d):\n", len(dc.OrphanFiles)))
			for _, f := range dc.OrphanFiles {
				sb.WriteString(fmt.Sprintf("    ○ %s\n", f))
			}
		}
		sb.WriteString("\n")
	}

	if a := r.Architecture; a != nil {
		heading(&sb, "Architecture")
		sb.WriteString(fmt.Sprintf("  Pattern: %s\n", a.Pattern))
		for _, l := range a.Layers {
			sb.WriteString(fmt.Sprintf("  %-14s %d files", l.Name, len(l.Files)))
			if len(l.ViolatingFiles) > 0 {
				sb.WriteString(fmt.Sprintf(", %d violating importers", len(l.ViolatingFiles)))
			}
			sb.WriteString("\n")
		}
		if len(a.Violations) == 0 {
			sb.WriteString("  No layer violations.\n")
		}
		for _, v := range a.Violations {
			sb.WriteString(fmt.Sprintf("  ✗ %s (%s) → %s (%s)\n", v.From, v.FromLayer, v.To, v.ToLayer))
		}
		sb.WriteString("\n")
	}

	if fl := r.Flows; fl != nil {
		heading(&sb, "Export Flows")
		if len(fl.Exports) == 0 {
			sb.WriteString("  No exports.\n")
		}
		for _, f := range fl.Exports {
			marker := "·"
			if f.IsPublic() {
				marker = "●"
			}
			sb.WriteString(fmt.Sprintf("  %s %s %s (%s)\n", marker, f.ExportKind, f.ExportedName, f.DefiningFile))
			if len(f.ReExportChain) > 0 {
				sb.WriteString(fmt.Sprintf("      via %s\n", strings.Join(f.ReExportChain, " → ")))
			}
			if f.IsPublic() {
				line := "      public from " + strings.Join(f.PublicFromEntryPoints, ", ")
				if len(f.Conditions) > 0 {
					line += " [" + strings.Join(f.Conditions, ", ") + "]"
				}
				sb.WriteString(line + "\n")
			}
		}
		sb.WriteString("\n")
	}

	if k := r.KeyFiles; k != nil && len(k.Results) > 0 {
		heading(&sb, "Key Files")
		for _, f := range k.Results {
			sb.WriteString(fmt.Sprintf("  %.4f  %s\n", f.Score, f.File))
		}
		sb.WriteString("\n")
	}

	return strings.TrimRight(sb.String(), "\n") + "\n"
}
