package variant

import (
	"os"
	"sort"

	perr "lexiscan/internal/platform/errors"

	"gopkg.in/yaml.v3"
)

// Registry maps variant names to profiles with a fallback for unknown names
type Registry struct {
	profiles map[string]Profile
	fallback string
}

// NewRegistry builds a registry; fallback must name one of profiles
func NewRegistry(fallback string, profiles ...Profile) (*Registry, error) {
	r := &Registry{profiles: make(map[string]Profile, len(profiles)), fallback: fallback}
	for _, p := range profiles {
		r.profiles[p.Name()] = p
	}
	if _, ok := r.profiles[fallback]; !ok {
		return nil, perr.Newf(perr.ErrorCodeConfig, "fallback variant %q is not registered", fallback)
	}
	return r, nil
}

// Builtin returns a registry of the built-in profiles with v1 as fallback
func Builtin() *Registry {
	r, err := NewRegistry(DefaultName, Builtins()...)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the profile registered under name
func (r *Registry) Lookup(name string) (Profile, bool) {
	p, ok := r.profiles[name]
	return p, ok
}

// Resolve returns the profile for name, or the fallback profile with fellBack=true
// Callers log the fallback; an unknown variant is never fatal
func (r *Registry) Resolve(name string) (p Profile, fellBack bool) {
	if p, ok := r.profiles[name]; ok {
		return p, false
	}
	return r.profiles[r.fallback], true
}

// Fallback returns the name of the fallback profile
func (r *Registry) Fallback() string { return r.fallback }

// Names returns the registered variant names in sorted order
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.profiles))
	for name := range r.profiles {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// With returns a copy of r where profiles replace or extend the registered set
func (r *Registry) With(profiles ...Profile) *Registry {
	c := &Registry{profiles: make(map[string]Profile, len(r.profiles)+len(profiles)), fallback: r.fallback}
	for k, v := range r.profiles {
		c.profiles[k] = v
	}
	for _, p := range profiles {
		c.profiles[p.Name()] = p
	}
	return c
}

// File is the on-disk layout of a profile file
//
//	default: v1
//	variants:
//	  - name: v4
//	    alphabet: "abc"
//	    threshold: 5
//	    rate_limit: 20
type File struct {
	Default  string       `yaml:"default"`
	Variants []Definition `yaml:"variants"`
}

// Parse decodes a profile file and validates every definition
func Parse(data []byte) (File, []Profile, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, nil, perr.Wrap(err, perr.ErrorCodeConfig, "parse profile file")
	}
	out := make([]Profile, 0, len(f.Variants))
	seen := make(map[string]struct{}, len(f.Variants))
	for i, d := range f.Variants {
		if _, dup := seen[d.Name]; dup {
			return File{}, nil, perr.Newf(perr.ErrorCodeConfig, "profile file: duplicate variant %q", d.Name)
		}
		seen[d.Name] = struct{}{}
		p, err := New(d)
		if err != nil {
			return File{}, nil, perr.Wrapf(err, perr.ErrorCodeConfig, "profile file: variant #%d", i+1)
		}
		out = append(out, p)
	}
	return f, out, nil
}

// LoadFile reads path and layers its profiles over the built-ins
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeConfig, "read profile file %s", path)
	}
	f, profiles, err := Parse(data)
	if err != nil {
		return nil, err
	}
	reg := Builtin().With(profiles...)
	if f.Default != "" {
		if _, ok := reg.Lookup(f.Default); !ok {
			return nil, perr.Newf(perr.ErrorCodeConfig, "profile file: default %q is not a known variant", f.Default)
		}
		reg.fallback = f.Default
	}
	return reg, nil
}
