package deadcode

import (
	"encoding/json"
	"os"
	"path"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/dean0x/diedeadcode/pkg/analyzer/frameworks"
)

// EntryOptions selects the sources of the reachability root set.
type EntryOptions struct {
	// Explicit entry files, relative to the analysis root.
	Files []string
	// Glob patterns whose matching units' exports become roots.
	Patterns []string
	// Read entry files from package.json main/module/types/bin/exports.
	AutoDetect bool
	// Export names that are roots wherever they occur.
	Exports []string
	// Active framework detectors.
	Frameworks []frameworks.Detector
}

// DiscoverEntryPoints builds the root set. Roots come from six sources:
// configured entry files, entry patterns, package.json auto-detection,
// framework conventions, configured export names, and units with top-level
// side effects. An empty root set is a configuration error.
func DiscoverEntryPoints(g *Graph, root string, opts EntryOptions) error {
	for _, file := range opts.Files {
		markFileExports(g, file)
	}

	for _, pattern := range opts.Patterns {
		markPatternExports(g, pattern)
	}

	if opts.AutoDetect {
		for _, file := range entryFilesFromPackageJSON(root) {
			markFileExports(g, file)
		}
	}

	for _, d := range opts.Frameworks {
		markFrameworkEntries(g, d)
	}

	for _, name := range opts.Exports {
		markNamedExport(g, name)
	}

	markSideEffectFiles(g)

	if len(g.EntryPoints) == 0 {
		return ErrNoEntryPoints
	}
	return nil
}

// markFileExports marks every export of the named unit as a root.
func markFileExports(g *Graph, file string) {
	file = filepath.ToSlash(filepath.Clean(file))
	for _, f := range g.Files {
		if filepath.ToSlash(filepath.Clean(f.Path)) != file && !pathsEquivalent(f.Path, file) {
			continue
		}
		for _, id := range f.Symbols {
			if sym := g.Symbols[id]; sym != nil && sym.Exported {
				g.MarkEntryPoint(id)
			}
		}
	}
}

// pathsEquivalent treats foo.js and foo.ts as the same entry, since
// package.json frequently points at build output.
func pathsEquivalent(a, b string) bool {
	a = filepath.ToSlash(filepath.Clean(a))
	b = filepath.ToSlash(filepath.Clean(b))
	return trimSourceExt(a) == trimSourceExt(b)
}

func trimSourceExt(p string) string {
	ext := path.Ext(p)
	for _, known := range resolutionExtensions {
		if ext == known {
			return p[:len(p)-len(ext)]
		}
	}
	return p
}

func markPatternExports(g *Graph, pattern string) {
	for _, f := range g.Files {
		ok, err := doublestar.Match(pattern, filepath.ToSlash(f.Path))
		if err != nil || !ok {
			continue
		}
		for _, id := range f.Symbols {
			if sym := g.Symbols[id]; sym != nil && sym.Exported {
				g.MarkEntryPoint(id)
			}
		}
	}
}

func markFrameworkEntries(g *Graph, d frameworks.Detector) {
	special := make(map[string]bool)
	for _, name := range d.SpecialExports() {
		special[name] = true
	}

	for _, pattern := range d.EntryPatterns() {
		for _, f := range g.Files {
			ok, err := doublestar.Match(pattern, filepath.ToSlash(f.Path))
			if err != nil || !ok {
				continue
			}
			for _, id := range f.Symbols {
				sym := g.Symbols[id]
				if sym == nil {
					continue
				}
				if sym.Exported || special[sym.Name] {
					g.MarkEntryPoint(id)
				}
			}
		}
	}
}

func markNamedExport(g *Graph, name string) {
	for id, sym := range g.Symbols {
		if sym.Exported && sym.Name == name {
			g.MarkEntryPoint(id)
		}
	}
}

// markSideEffectFiles keeps units with top-level side effects alive: their
// module code runs if anything loads them, and config-style files are often
// loaded by tools.
func markSideEffectFiles(g *Graph) {
	for _, f := range g.Files {
		if !f.HasSideEffects {
			continue
		}
		for _, id := range f.Symbols {
			g.MarkEntryPoint(id)
		}
	}
}

// packageJSON is the subset of package.json that names entry files.
type packageJSON struct {
	Main    string          `json:"main"`
	Module  string          `json:"module"`
	Types   string          `json:"types"`
	Bin     json.RawMessage `json:"bin"`
	Exports json.RawMessage `json:"exports"`
}

// entryFilesFromPackageJSON extracts entry file paths (relative to root)
// from the project's package.json.
func entryFilesFromPackageJSON(root string) []string {
	data, err := os.ReadFile(filepath.Join(root, "package.json"))
	if err != nil {
		return nil
	}
	var pkg packageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil
	}

	var files []string
	add := func(p string) {
		if p != "" {
			files = append(files, normalizeEntryPath(root, p))
		}
	}

	add(pkg.Main)
	add(pkg.Module)
	add(pkg.Types)

	if len(pkg.Bin) > 0 {
		var single string
		if err := json.Unmarshal(pkg.Bin, &single); err == nil {
			add(single)
		} else {
			var many map[string]string
			if err := json.Unmarshal(pkg.Bin, &many); err == nil {
				for _, p := range many {
					add(p)
				}
			}
		}
	}

	if len(pkg.Exports) > 0 {
		var value any
		if err := json.Unmarshal(pkg.Exports, &value); err == nil {
			collectExportEntries(value, add)
		}
	}

	return files
}

// collectExportEntries walks the package.json exports field, which nests
// conditional and subpath exports arbitrarily.
func collectExportEntries(value any, add func(string)) {
	switch v := value.(type) {
	case string:
		add(v)
	case []any:
		for _, item := range v {
			collectExportEntries(item, add)
		}
	case map[string]any:
		for key, item := range v {
			switch key {
			case "import", "require", "default", "types":
				collectExportEntries(item, add)
			default:
				if len(key) > 0 && key[0] == '.' {
					collectExportEntries(item, add)
				}
			}
		}
	}
}

// normalizeEntryPath maps a package.json entry to a source file. Entries
// usually point at compiled .js output; prefer the TypeScript source when it
// exists.
func normalizeEntryPath(root, entry string) string {
	entry = path.Clean(filepath.ToSlash(entry))
	full := filepath.Join(root, filepath.FromSlash(entry))

	ext := path.Ext(entry)
	var tsExt string
	switch ext {
	case ".js", ".jsx":
		tsExt = ".ts"
	case ".mjs":
		tsExt = ".mts"
	case ".cjs":
		tsExt = ".cts"
	default:
		return entry
	}

	stem := full[:len(full)-len(ext)]
	if _, err := os.Stat(stem + tsExt); err == nil {
		return entry[:len(entry)-len(ext)] + tsExt
	}
	if _, err := os.Stat(stem + ".tsx"); err == nil {
		return entry[:len(entry)-len(ext)] + ".tsx"
	}
	return entry
}
