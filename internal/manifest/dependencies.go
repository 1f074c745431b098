package manifest

import "sort"

// DependencySet selects one of the declared dependency groups.
type DependencySet string

const (
	SetProduction  DependencySet = "production"
	SetDevelopment DependencySet = "development"
	SetPeer        DependencySet = "peer"
)

// DependencyInfo holds the declared dependency groups (name -> version range).
// It is immutable once extracted.
type DependencyInfo struct {
	Production  map[string]string `json:"production"`
	Development map[string]string `json:"development"`
	Peer        map[string]string `json:"peer"`
}

// ExtractDependencies reads dependencies, devDependencies and peerDependencies verbatim.
// A field of the wrong shape is treated as empty; non-string versions become "".
func ExtractDependencies(raw any) DependencyInfo {
	obj, _ := raw.(map[string]any)
	return DependencyInfo{
		Production:  dependencyMap(obj, "dependencies"),
		Development: dependencyMap(obj, "devDependencies"),
		Peer:        dependencyMap(obj, "peerDependencies"),
	}
}

func dependencyMap(obj map[string]any, key string) map[string]string {
	out := make(map[string]string)
	if obj == nil {
		return out
	}
	deps, ok := obj[key].(map[string]any)
	if !ok {
		return out
	}
	for name, v := range deps {
		version, _ := v.(string)
		out[name] = version
	}
	return out
}

// IsDeclared reports whether name appears in any group.
func (d DependencyInfo) IsDeclared(name string) bool {
	if _, ok := d.Production[name]; ok {
		return true
	}
	if _, ok := d.Development[name]; ok {
		return true
	}
	_, ok := d.Peer[name]
	return ok
}

// Union returns every declared name, sorted.
func (d DependencyInfo) Union() []string {
	return d.Names(SetProduction, SetDevelopment, SetPeer)
}

// Names returns the sorted, de-duplicated names of the given groups.
func (d DependencyInfo) Names(sets ...DependencySet) []string {
	seen := make(map[string]struct{})
	for _, s := range sets {
		for name := range d.group(s) {
			seen[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (d DependencyInfo) group(s DependencySet) map[string]string {
	switch s {
	case SetProduction:
		return d.Production
	case SetDevelopment:
		return d.Development
	case SetPeer:
		return d.Peer
	default:
		return nil
	}
}
