package manifest

import (
	"sort"
	"strings"
)

// ExtractEntryPoints finds every file specifier reachable from the manifest's public surface:
// main, module, types, typings, bin, and the conditional exports map.
func ExtractEntryPoints(raw any) EntryPoints {
	obj, _ := raw.(map[string]any)
	ep := EntryPoints{Bin: map[string]string{}}
	if obj == nil {
		ep.All = []string{}
		return ep
	}

	all := make(map[string]struct{})
	add := func(spec string) {
		if spec != "" {
			all[spec] = struct{}{}
		}
	}

	ep.Main = stringField(obj, "main")
	ep.Module = stringField(obj, "module")
	ep.Types = stringField(obj, "types")
	ep.Typings = stringField(obj, "typings")
	add(ep.Main)
	add(ep.Module)
	add(ep.Types)
	add(ep.Typings)

	ep.Bin = extractBin(obj)
	for _, path := range ep.Bin {
		add(path)
	}

	if exports, ok := obj["exports"]; ok {
		w := &exportsWalker{}
		w.walk(exports, ".", nil)
		ep.Exports = w.targets
		ep.Negated = w.negated
		for _, t := range w.targets {
			add(t.Path)
		}
	}

	// A negated entry never counts as public, even when another field names it.
	for _, n := range ep.Negated {
		delete(all, strings.TrimPrefix(n, "!"))
	}

	ep.All = make([]string, 0, len(all))
	for spec := range all {
		ep.All = append(ep.All, spec)
	}
	sort.Strings(ep.All)
	return ep
}

// extractBin normalizes "bin" to name -> path. The string form is keyed by the unscoped package name.
func extractBin(obj map[string]any) map[string]string {
	bins := make(map[string]string)
	switch bin := obj["bin"].(type) {
	case string:
		name := stringField(obj, "name")
		if i := strings.LastIndex(name, "/"); i >= 0 {
			name = name[i+1:]
		}
		if bin != "" {
			bins[name] = bin
		}
	case map[string]any:
		for name, v := range bin {
			if path, ok := v.(string); ok && path != "" {
				bins[name] = path
			}
		}
	}
	return bins
}

type exportsWalker struct {
	targets []ExportTarget
	negated []string
}

// walk visits one node of the exports map. subpath is the nearest "."-prefixed key,
// conditions are the non-subpath keys between it and the node.
func (w *exportsWalker) walk(node any, subpath string, conditions []string) {
	switch v := node.(type) {
	case string:
		if strings.HasPrefix(v, "!") {
			w.negated = appendUnique(w.negated, v)
			return
		}
		w.targets = append(w.targets, ExportTarget{
			Subpath:    subpath,
			Conditions: append([]string(nil), conditions...),
			Path:       v,
		})
	case []any:
		for _, item := range v {
			w.walk(item, subpath, conditions)
		}
	case map[string]any:
		// Object keys are visited in sorted order so results do not depend on decoding order.
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, key := range keys {
			child := v[key]
			if child == nil {
				w.negated = appendUnique(w.negated, "!"+key)
				continue
			}
			if strings.HasPrefix(key, ".") {
				w.walk(child, key, conditions)
			} else {
				w.walk(child, subpath, append(conditions[:len(conditions):len(conditions)], key))
			}
		}
	}
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
