package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"
	"golang.org/x/mod/semver"
)

// GoModule describes the go.mod at the workspace root.
type GoModule struct {
	Path      string       `json:"path"`
	GoVersion string       `json:"goVersion,omitempty"`
	Toolchain string       `json:"toolchain,omitempty"`
	Requires  []Dependency `json:"requires"`
	Replaces  int          `json:"replaces,omitempty"`
}

// Dependency is one require line.
type Dependency struct {
	Path     string `json:"path"`
	Version  string `json:"version"`
	Indirect bool   `json:"indirect,omitempty"`
	Pseudo   bool   `json:"pseudo,omitempty"`
}

// Direct returns only the direct requirements
func (m *GoModule) Direct() []Dependency {
	var out []Dependency
	for _, d := range m.Requires {
		if !d.Indirect {
			out = append(out, d)
		}
	}
	return out
}

// LoadGoModule parses root/go.mod. It returns (nil, nil) when there is none.
func LoadGoModule(root string) (*GoModule, error) {
	path := filepath.Join(root, "go.mod")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read go.mod: %w", err)
	}
	return ParseGoModule(path, data)
}

// ParseGoModule parses go.mod contents. Invalid requirement versions are kept
// but never reported as pseudo-versions.
func ParseGoModule(name string, data []byte) (*GoModule, error) {
	f, err := modfile.ParseLax(name, data, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}

	m := &GoModule{Replaces: len(f.Replace)}
	if f.Module != nil {
		m.Path = f.Module.Mod.Path
	}
	if f.Go != nil {
		m.GoVersion = f.Go.Version
	}
	if f.Toolchain != nil {
		m.Toolchain = f.Toolchain.Name
	}
	for _, r := range f.Require {
		v := r.Mod.Version
		m.Requires = append(m.Requires, Dependency{
			Path:     r.Mod.Path,
			Version:  v,
			Indirect: r.Indirect,
			Pseudo:   semver.IsValid(v) && module.IsPseudoVersion(v),
		})
	}
	sort.Slice(m.Requires, func(i, j int) bool {
		return m.Requires[i].Path < m.Requires[j].Path
	})
	return m, nil
}
