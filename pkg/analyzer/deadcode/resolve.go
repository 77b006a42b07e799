package deadcode

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// reexportDepthLimit bounds re-export chain traversal. Chains deeper than
// this fail closed as unresolved.
const reexportDepthLimit = 16

// resolutionExtensions is the extension priority order for extension-less
// import specifiers.
var resolutionExtensions = []string{".ts", ".tsx", ".js", ".jsx", ".mts", ".cts", ".mjs", ".cjs"}

// linker resolves per-unit extractions into one reference graph.
type linker struct {
	graph  *Graph
	units  []*Extraction
	byPath map[string]*Extraction

	// Per-unit module-level name tables.
	locals  map[FileID]map[string]SymbolID
	exports map[FileID]map[string]SymbolID
	imports map[FileID]map[string]ImportRecord

	// Project-wide property name index: method and enum member names.
	// Property accesses resolve against this conservatively.
	properties map[string][]SymbolID

	followReexports bool
	warnings        []Warning
	unresolved      map[FileID]int
}

// Link merges extractions into a Graph. Reference names are resolved to
// symbol IDs here: locals first, then imports, then the property index.
func Link(units []*Extraction, followReexports bool) (*Graph, []Warning, error) {
	l := &linker{
		graph:           NewGraph(),
		units:           units,
		byPath:          make(map[string]*Extraction, len(units)),
		locals:          make(map[FileID]map[string]SymbolID),
		exports:         make(map[FileID]map[string]SymbolID),
		imports:         make(map[FileID]map[string]ImportRecord),
		properties:      make(map[string][]SymbolID),
		followReexports: followReexports,
		unresolved:      make(map[FileID]int),
	}

	if err := l.registerUnits(); err != nil {
		return nil, nil, err
	}
	l.markExportClauses()
	l.buildNameTables()
	l.resolveRefs()
	l.resolveImports()
	l.attachDynamicPatterns()

	for id, n := range l.unresolved {
		if f, ok := l.graph.Files[id]; ok {
			f.UnresolvedRefs = n
		}
	}

	return l.graph, l.warnings, nil
}

func (l *linker) registerUnits() error {
	seen := make(map[SymbolID]string)
	for _, u := range l.units {
		l.byPath[filepath.ToSlash(filepath.Clean(u.Path))] = u

		info := &FileInfo{
			ID:             u.FileID,
			Path:           u.Path,
			HasSideEffects: u.HasSideEffects,
			HasDynamicEval: u.HasDynamicEval,
			IsTest:         u.IsTest,
		}
		for _, sym := range u.Symbols {
			if prev, dup := seen[sym.ID]; dup {
				return NewInternalError("duplicate symbol ID %d (%s and %s)", sym.ID, prev, sym.Name)
			}
			seen[sym.ID] = sym.Name
			sym.InTestFile = u.IsTest
			info.Symbols = append(info.Symbols, sym.ID)
			l.graph.AddSymbol(sym)
		}
		l.graph.AddFile(info)

		for _, d := range u.Diagnostics {
			l.warnings = append(l.warnings, Warning{
				Kind:    WarnParseError,
				Message: d.Message,
				Location: &Location{
					File:   u.Path,
					Line:   d.Line,
					Column: d.Column,
				},
			})
		}
	}
	return nil
}

// markExportClauses applies `export { foo }` clauses: the referenced local
// symbol becomes exported.
func (l *linker) markExportClauses() {
	for _, u := range l.units {
		for _, ref := range u.Refs {
			if ref.Kind != RefExport {
				continue
			}
			for _, sym := range u.Symbols {
				if sym.Name == ref.Name {
					sym.Exported = true
				}
			}
		}
	}
}

func (l *linker) buildNameTables() {
	for _, u := range l.units {
		local := make(map[string]SymbolID)
		exported := make(map[string]SymbolID)
		for _, sym := range u.Symbols {
			if sym.Kind == KindModule {
				continue
			}
			if _, ok := local[sym.Name]; !ok {
				local[sym.Name] = sym.ID
			}
			if sym.Exported {
				if _, ok := exported[sym.Name]; !ok {
					exported[sym.Name] = sym.ID
				}
			}
			if sym.Kind == KindMethod || sym.Kind == KindEnumMember {
				l.properties[sym.Name] = append(l.properties[sym.Name], sym.ID)
			}
		}
		// A named default declaration exports under its own name; alias
		// it so `import x from ...` resolves.
		if u.DefaultExportName != "" {
			if id, ok := exported[u.DefaultExportName]; ok {
				if _, taken := exported["default"]; !taken {
					exported["default"] = id
				}
			}
		}
		l.locals[u.FileID] = local
		l.exports[u.FileID] = exported

		imports := make(map[string]ImportRecord)
		for _, imp := range u.Imports {
			if imp.Local != "" {
				imports[imp.Local] = imp
			}
		}
		l.imports[u.FileID] = imports
	}
}

func (l *linker) resolveRefs() {
	for _, u := range l.units {
		for _, ref := range u.Refs {
			if ref.Kind == RefExport {
				continue // handled by markExportClauses
			}
			l.resolveRef(u, ref)
		}
	}
}

func (l *linker) resolveRef(u *Extraction, ref NameRef) {
	// Local declaration wins.
	if id, ok := l.locals[u.FileID][ref.Name]; ok {
		if id != ref.From {
			l.addEdge(ref, id)
		}
		return
	}

	// Imported binding.
	if imp, ok := l.imports[u.FileID][ref.Name]; ok {
		target := l.resolveSpecifier(u, imp.Specifier)
		if target == nil {
			return // external module
		}
		if imp.Imported == "*" {
			// Namespace object use keeps the target module alive.
			l.addEdge(ref, target.ModuleSymbol)
			return
		}
		if id, ok := l.resolveExport(target, imp.Imported, 0, nil); ok {
			l.addEdge(ref, id)
		} else {
			l.unresolvedRef(u, ref)
		}
		return
	}

	// Property accesses fall back to the project-wide member index. A
	// miss here is normal (built-in methods), not a diagnostic.
	if ref.Kind == RefPropertyAccess {
		for _, id := range l.properties[ref.Name] {
			if id != ref.From {
				l.addEdge(ref, id)
			}
		}
		return
	}

	l.unresolvedRef(u, ref)
}

func (l *linker) unresolvedRef(u *Extraction, ref NameRef) {
	l.unresolved[u.FileID]++
}

func (l *linker) addEdge(ref NameRef, to SymbolID) {
	l.graph.AddReference(Reference{
		From:      ref.From,
		To:        to,
		Kind:      ref.Kind,
		IsDynamic: ref.IsDynamic,
		Location:  ref.Location,
	})
}

// resolveImports wires module-level import effects: importing a unit runs
// its top level, and star imports keep the target's exports alive.
func (l *linker) resolveImports() {
	for _, u := range l.units {
		for _, imp := range u.Imports {
			target := l.resolveSpecifier(u, imp.Specifier)
			if target == nil {
				if isRelativeSpecifier(imp.Specifier) {
					l.warnings = append(l.warnings, Warning{
						Kind:     WarnUnresolvedImport,
						Message:  fmt.Sprintf("cannot resolve %q imported by %s", imp.Specifier, u.Path),
						Location: &imp.Location,
					})
					l.unresolved[u.FileID]++
				}
				continue
			}

			// Importing executes the target module's top level.
			l.graph.AddReference(Reference{
				From:      u.ModuleSymbol,
				To:        target.ModuleSymbol,
				Kind:      RefImport,
				IsDynamic: imp.IsDynamic,
				Location:  imp.Location,
			})

			// A namespace or dynamic star import can reach any export.
			if imp.Imported == "*" && imp.Local != "" || imp.IsDynamic && imp.Imported == "*" {
				for _, id := range l.exports[target.FileID] {
					l.graph.AddReference(Reference{
						From:      u.ModuleSymbol,
						To:        id,
						Kind:      RefImport,
						IsDynamic: imp.IsDynamic,
						Location:  imp.Location,
					})
				}
			}
		}

		// Re-exports keep the re-exported units' top level alive too.
		for _, re := range u.ReExports {
			target := l.resolveSpecifier(u, re.Specifier)
			if target == nil {
				continue
			}
			l.graph.AddReference(Reference{
				From:     u.ModuleSymbol,
				To:       target.ModuleSymbol,
				Kind:     RefReExport,
				Location: re.Location,
			})
		}
	}
}

func isRelativeSpecifier(spec string) bool {
	return strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../") ||
		spec == "." || spec == ".."
}

// resolveSpecifier maps an import specifier to a known unit. Bare specifiers
// are external packages and resolve to nil.
func (l *linker) resolveSpecifier(from *Extraction, spec string) *Extraction {
	var base string
	switch {
	case isRelativeSpecifier(spec):
		base = path.Join(path.Dir(filepath.ToSlash(from.Path)), spec)
	case strings.HasPrefix(spec, "/"):
		base = spec
	default:
		return nil
	}
	base = path.Clean(base)

	// Exact path (specifier already has an extension).
	if u, ok := l.byPath[base]; ok {
		return u
	}
	// Extension-less specifier.
	for _, ext := range resolutionExtensions {
		if u, ok := l.byPath[base+ext]; ok {
			return u
		}
	}
	// Directory import resolves to its index file.
	for _, ext := range resolutionExtensions {
		if u, ok := l.byPath[base+"/index"+ext]; ok {
			return u
		}
	}
	return nil
}

// resolveExport finds the declaring symbol for an exported name, following
// re-export chains up to reexportDepthLimit. Cycles fail closed.
func (l *linker) resolveExport(u *Extraction, name string, depth int, visited map[FileID]bool) (SymbolID, bool) {
	if depth > reexportDepthLimit {
		return 0, false
	}
	if visited == nil {
		visited = make(map[FileID]bool)
	}
	if visited[u.FileID] {
		return 0, false
	}
	visited[u.FileID] = true

	if id, ok := l.exports[u.FileID][name]; ok {
		return id, true
	}

	if !l.followReexports {
		return 0, false
	}

	for _, re := range u.ReExports {
		switch {
		case re.Exported == name && re.Imported != "*":
			// export { orig as name } from './x'
			if target := l.resolveSpecifier(u, re.Specifier); target != nil {
				if id, ok := l.resolveExport(target, re.Imported, depth+1, visited); ok {
					return id, true
				}
			}
		case re.Exported == name && re.Imported == "*":
			// export * as name from './x': the binding is the
			// target module itself.
			if target := l.resolveSpecifier(u, re.Specifier); target != nil {
				return target.ModuleSymbol, true
			}
		case re.Exported == "*":
			// export * from './x': search the target.
			if name == "default" {
				continue // default is not forwarded by export *
			}
			if target := l.resolveSpecifier(u, re.Specifier); target != nil {
				if id, ok := l.resolveExport(target, name, depth+1, visited); ok {
					return id, true
				}
			}
		}
	}
	return 0, false
}

// attachDynamicPatterns maps extraction-time pattern names to symbol IDs and
// records the patterns on the graph.
func (l *linker) attachDynamicPatterns() {
	for _, u := range l.units {
		for _, p := range u.patterns {
			dp := DynamicPattern{
				Kind:     p.Kind,
				Location: p.Location,
			}
			for _, name := range p.AffectedNames {
				if id, ok := l.locals[u.FileID][name]; ok {
					dp.AffectedSymbols = append(dp.AffectedSymbols, id)
				}
				for _, id := range l.properties[name] {
					dp.AffectedSymbols = append(dp.AffectedSymbols, id)
				}
			}
			l.graph.DynamicPatterns = append(l.graph.DynamicPatterns, dp)
		}
	}
}
