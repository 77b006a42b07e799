// Package frameworks detects web and test frameworks in a project and
// supplies the entry-point patterns each one implies. A Next.js page or an
// Express route is reachable even though nothing in the project imports it.
package frameworks

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Detector describes one framework's entry-point surface.
type Detector interface {
	// Name of the framework, used in config enable/disable lists.
	Name() string

	// EntryPatterns returns glob patterns for files the framework loads
	// itself.
	EntryPatterns() []string

	// SpecialExports returns export names the framework calls by
	// convention (getServerSideProps, middleware, GET, ...).
	SpecialExports() []string

	// Detect reports whether the framework is present given the
	// project's package.json dependency names.
	Detect(deps map[string]bool) bool
}

// Registry holds the available detectors.
type Registry struct {
	detectors []Detector
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// WithBuiltins creates a registry with all built-in detectors.
func WithBuiltins() *Registry {
	r := NewRegistry()
	r.Register(NextJS{})
	r.Register(Jest{})
	r.Register(Vitest{})
	r.Register(Express{})
	return r
}

// Register adds a detector.
func (r *Registry) Register(d Detector) {
	r.detectors = append(r.detectors, d)
}

// Detectors returns all registered detectors.
func (r *Registry) Detectors() []Detector {
	return r.detectors
}

// Lookup returns the detector with the given name.
func (r *Registry) Lookup(name string) (Detector, bool) {
	for _, d := range r.detectors {
		if d.Name() == name {
			return d, true
		}
	}
	return nil, false
}

// Active returns the detectors that should run for the project at root.
// shouldRun decides per detector, given its name and whether its dependency
// detection matched; config.PluginEnabled has the matching shape.
func (r *Registry) Active(root string, shouldRun func(name string, detected bool) bool) []Detector {
	deps := ReadDependencies(root)

	var active []Detector
	for _, d := range r.detectors {
		if shouldRun(d.Name(), d.Detect(deps)) {
			active = append(active, d)
		}
	}
	return active
}

// ReadDependencies collects dependency names from the project's
// package.json, including dev and peer dependencies. Missing or malformed
// files yield an empty set.
func ReadDependencies(root string) map[string]bool {
	data, err := os.ReadFile(filepath.Join(root, "package.json"))
	if err != nil {
		return nil
	}

	var pkg struct {
		Dependencies     map[string]string `json:"dependencies"`
		DevDependencies  map[string]string `json:"devDependencies"`
		PeerDependencies map[string]string `json:"peerDependencies"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil
	}

	deps := make(map[string]bool)
	for name := range pkg.Dependencies {
		deps[name] = true
	}
	for name := range pkg.DevDependencies {
		deps[name] = true
	}
	for name := range pkg.PeerDependencies {
		deps[name] = true
	}
	return deps
}
