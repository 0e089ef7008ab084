// Package profiles manages YAML-based named clustering profiles.
package profiles

import (
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/thebtf/assimilator/internal/config"
)

// Profile is a named set of clustering settings for one kind of input.
type Profile struct {
	Threshold     *int     `yaml:"threshold"`
	Name          string   `yaml:"name"`
	Description   string   `yaml:"description"`
	KeyColumn     string   `yaml:"key_column"`
	PathPrefix    string   `yaml:"path_prefix"`
	References    []string `yaml:"references"`
	AllReferences bool     `yaml:"all_references"`
}

// file is the top-level YAML structure.
type file struct {
	Profiles []Profile `yaml:"profiles"`
}

// Registry holds loaded profiles, keyed by name.
type Registry struct {
	byName map[string]*Profile
	order  []string // preserves definition order
}

// Load reads the YAML file at path and returns a Registry.
// If the file does not exist, Load returns an empty Registry (not an error).
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Registry{byName: make(map[string]*Profile)}, nil
		}
		return nil, err
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}

	r := &Registry{
		byName: make(map[string]*Profile, len(f.Profiles)),
	}
	for i := range f.Profiles {
		p := &f.Profiles[i]
		if _, dup := r.byName[p.Name]; !dup {
			r.order = append(r.order, p.Name)
		}
		r.byName[p.Name] = p
	}
	return r, nil
}

// Get returns a profile by name. Returns (nil, false) if not found.
func (r *Registry) Get(name string) (*Profile, bool) {
	p, ok := r.byName[name]
	return p, ok
}

// All returns all profiles in definition order.
func (r *Registry) All() []*Profile {
	result := make([]*Profile, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.byName[name])
	}
	return result
}

// Names returns a sorted list of profile names.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	sort.Strings(names)
	return names
}

// ForPath returns the profile whose path prefix is the longest prefix of
// path. Profiles without a prefix never match.
func (r *Registry) ForPath(path string) (*Profile, bool) {
	var best *Profile
	for _, name := range r.order {
		p := r.byName[name]
		if p.PathPrefix == "" || !strings.HasPrefix(path, p.PathPrefix) {
			continue
		}
		if best == nil || len(p.PathPrefix) > len(best.PathPrefix) {
			best = p
		}
	}
	return best, best != nil
}

// Apply overlays the settings the profile defines onto cfg.
func (p *Profile) Apply(cfg *config.Config) {
	if p == nil {
		return
	}
	if p.KeyColumn != "" {
		cfg.KeyColumn = p.KeyColumn
	}
	if p.Threshold != nil {
		cfg.Threshold = *p.Threshold
	}
	if len(p.References) > 0 {
		cfg.References = append([]string(nil), p.References...)
	}
	if p.AllReferences {
		cfg.AllReferences = true
	}
}
