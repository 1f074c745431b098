package report

import (
	"fmt"
	"strings"
)

func mdCode(s string) string {
	return "`" + s + "`"
}

func mdCodeList(items []string) []string {
	out := make([]string, len(items))
	for i, s := range items {
		out[i] = mdCode(s)
	}
	return out
}

// formatMarkdown renders a report suitable for PR comments and docs.
func formatMarkdown(r *Report) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# depscope report: %s\n\n", title(r)))
	sb.WriteString(fmt.Sprintf("_Generated %s by depscope %s_\n\n", r.GeneratedAt.Format("2006-01-02 15:04 MST"), r.Version))

	s := r.Summary
	sb.WriteString("| Metric | Count |\n|---|---:|\n")
	rows := []struct {
		name  string
		value int
	}{
		{"Files", s.Files},
		{"Internal edges", s.InternalEdges},
		{"External packages", s.ExternalPackages},
		{"Entry points", s.Entries},
		{"Circular imports", s.Cycles},
		{"Unused exports", s.UnusedExports},
		{"Orphan files", s.OrphanFiles},
		{"Unused dependencies", s.UnusedDeps},
		{"Unlisted dependencies", s.UnlistedDeps},
		{"Layer violations", s.Violations},
		{"Public exports", s.PublicExports},
	}
	for _, row := range rows {
		sb.WriteString(fmt.Sprintf("| %s | %d |\n", row.name, row.value))
	}
	sb.WriteString("\n")

	if d := r.Dependencies; d != nil {
		sb.WriteString("## Dependencies\n\n")
		sb.WriteString(fmt.Sprintf("- **Unused:** %s\n", listOrNone(mdCodeList(d.Unused), ", ")))
		sb.WriteString(fmt.Sprintf("- **Unlisted:** %s\n", listOrNone(mdCodeList(d.Unlisted), ", ")))
		if len(d.Misplaced) > 0 {
			sb.WriteString(fmt.Sprintf("- **Misplaced:** %s\n", strings.Join(mdCodeList(d.Misplaced), ", ")))
		}
		sb.WriteString("\n")
	}

	if st := r.Structure; st != nil {
		sb.WriteString("## Circular Imports\n\n")
		if len(st.Cycles) == 0 {
			sb.WriteString("None.\n")
		}
		for _, c := range st.Cycles {
			sb.WriteString(fmt.Sprintf("- %s → %s\n", strings.Join(mdCodeList(c), " → "), mdCode(c[0])))
		}
		sb.WriteString("\n")
		if len(st.MostImported) > 0 {
			sb.WriteString("## Most Imported\n\n| File | Importers |\n|---|---:|\n")
			for _, m := range st.MostImported {
				sb.WriteString(fmt.Sprintf("| %s | %d |\n", mdCode(m.File), m.ImportedByCount))
			}
			sb.WriteString("\n")
		}
	}

	if dc := r.DeadCode; dc != nil {
		sb.WriteString("## Unused Exports\n\n")
		if len(dc.UnusedExports) == 0 {
			sb.WriteString("None.\n\n")
		} else {
			sb.WriteString("| File | Export | Kind |\n|---|---|---|\n")
			for _, u := range dc.UnusedExports {
				sb.WriteString(fmt.Sprintf("| %s | %s | %s |\n", mdCode(u.File), mdCode(u.Export), u.Type))
			}
			sb.WriteString("\n")
		}
		if len(dc.OrphanFiles) > 0 {
			sb.WriteString("## Orphan Files\n\n")
			for _, f := range dc.OrphanFiles {
				sb.WriteString("- " + mdCode(f) + "\n")
			}
			sb.WriteString("\n")
		}
	}

	if a := r.Architecture; a != nil {
		sb.WriteString(fmt.Sprintf("## Architecture (%s)\n\n", a.Pattern))
		if len(a.Layers) > 0 {
			sb.WriteString("| Layer | Files | Violating importers |\n|---|---:|---:|\n")
			for _, l := range a.Layers {
				sb.WriteString(fmt.Sprintf("| %s | %d | %d |\n", l.Name, len(l.Files), len(l.ViolatingFiles)))
			}
			sb.WriteString("\n")
		}
		if len(a.Violations) > 0 {
			sb.WriteString("### Violations\n\n")
			for _, v := range a.Violations {
				sb.WriteString(fmt.Sprintf("- %s (%s) imports %s (%s)\n", mdCode(v.From), v.FromLayer, mdCode(v.To), v.ToLayer))
			}
			sb.WriteString("\n")
		}
	}

	if fl := r.Flows; fl != nil {
		sb.WriteString("## Public API\n\n")
		var public int
		for _, f := range fl.Exports {
			if !f.IsPublic() {
				continue
			}
			if public == 0 {
				sb.WriteString("| Export | Kind | Defined in | Entry points |\n|---|---|---|---|\n")
			}
			public++
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
				mdCode(f.ExportedName), f.ExportKind, mdCode(f.DefiningFile), strings.Join(mdCodeList(f.PublicFromEntryPoints), ", ")))
		}
		if public == 0 {
			sb.WriteString("No exports reach an entry point.\n")
		}
		sb.WriteString("\n")
	}

	if k := r.KeyFiles; k != nil && len(k.Results) > 0 {
		sb.WriteString("## Key Files\n\n")
		for i, f := range k.Results {
			sb.WriteString(fmt.Sprintf("%d. %s (%.4f)\n", i+1, mdCode(f.File), f.Score))
		}
		sb.WriteString("\n")
	}

	return strings.TrimRight(sb.String(), "\n") + "\n"
}
