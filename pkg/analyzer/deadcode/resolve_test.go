package deadcode

import (
	"sort"
	"sync/atomic"
	"testing"

	"github.com/dean0x/diedeadcode/pkg/parser"
)

// extractUnits parses and extracts a fixture project. File IDs follow the
// sorted path order.
func extractUnits(t *testing.T, files map[string]string) []*Extraction {
	t.Helper()
	p := parser.New()
	defer p.Close()

	paths := make([]string, 0, len(files))
	for path := range files {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var ids atomic.Uint32
	units := make([]*Extraction, 0, len(paths))
	for i, path := range paths {
		res, err := p.Parse([]byte(files[path]), parser.DetectLanguage(path), path)
		if err != nil {
			t.Fatalf("parse %s: %v", path, err)
		}
		units = append(units, ExtractUnit(res, FileID(i), &ids))
	}
	return units
}

func unitByPath(t *testing.T, units []*Extraction, path string) *Extraction {
	t.Helper()
	for _, u := range units {
		if u.Path == path {
			return u
		}
	}
	t.Fatalf("no unit for %s", path)
	return nil
}

func symbolIn(t *testing.T, u *Extraction, name string) *Symbol {
	t.Helper()
	if sym := findSymbol(u, name); sym != nil {
		return sym
	}
	t.Fatalf("symbol %s not found in %s", name, u.Path)
	return nil
}

func TestLinkCrossFileCall(t *testing.T) {
	units := extractUnits(t, map[string]string{
		"src/a.ts": `
import { helper } from './b';
export function run() { helper(); }
`,
		"src/b.ts": `export function helper() {}`,
	})
	g, _, err := Link(units, true)
	if err != nil {
		t.Fatalf("Link: %v", err)
	}

	run := symbolIn(t, unitByPath(t, units, "src/a.ts"), "run")
	helper := symbolIn(t, unitByPath(t, units, "src/b.ts"), "helper")

	for _, to := range g.Outgoing(run.ID) {
		if to == helper.ID {
			return
		}
	}
	t.Errorf("no edge from run to helper; outgoing: %v", g.Outgoing(run.ID))
}

func TestLinkLocalShadowsImport(t *testing.T) {
	units := extractUnits(t, map[string]string{
		"src/a.ts": `
import { helper } from './b';
function helper2() {}
function helper() {}
export function run() { helper(); }
`,
		"src/b.ts": `export function helper() {}`,
	})
	g, _, err := Link(units, true)
	if err != nil {
		t.Fatalf("Link: %v", err)
	}

	run := symbolIn(t, unitByPath(t, units, "src/a.ts"), "run")
	local := symbolIn(t, unitByPath(t, units, "src/a.ts"), "helper")
	remote := symbolIn(t, unitByPath(t, units, "src/b.ts"), "helper")

	gotLocal := false
	for _, to := range g.Outgoing(run.ID) {
		if to == remote.ID {
			t.Error("call resolved to the imported symbol despite a local declaration")
		}
		if to == local.ID {
			gotLocal = true
		}
	}
	if !gotLocal {
		t.Error("call did not resolve to the local declaration")
	}
}

func TestLinkReexportChain(t *testing.T) {
	units := extractUnits(t, map[string]string{
		"src/app.ts": `
import { compute } from './lib';
export function main() { compute(); }
`,
		"src/lib/index.ts": `export { calc as compute } from './impl';`,
		"src/lib/impl.ts":  `export function calc() { return 1; }`,
	})
	g, _, err := Link(units, true)
	if err != nil {
		t.Fatalf("Link: %v", err)
	}

	main := symbolIn(t, unitByPath(t, units, "src/app.ts"), "main")
	calc := symbolIn(t, unitByPath(t, units, "src/lib/impl.ts"), "calc")

	for _, to := range g.Outgoing(main.ID) {
		if to == calc.ID {
			return
		}
	}
	t.Errorf("re-export chain did not resolve to the declaring symbol; outgoing: %v", g.Outgoing(main.ID))
}

func TestLinkFollowReexportsDisabled(t *testing.T) {
	units := extractUnits(t, map[string]string{
		"src/app.ts":       `import { calc } from './lib'; calc();`,
		"src/lib/index.ts": `export { calc } from './impl';`,
		"src/lib/impl.ts":  `export function calc() { return 1; }`,
	})
	g, _, err := Link(units, false)
	if err != nil {
		t.Fatalf("Link: %v", err)
	}

	app := unitByPath(t, units, "src/app.ts")
	calc := symbolIn(t, unitByPath(t, units, "src/lib/impl.ts"), "calc")

	if got := g.Incoming(calc.ID); len(got) != 0 {
		t.Errorf("re-export resolved with following disabled: incoming %v", got)
	}
	if g.Files[app.FileID].UnresolvedRefs == 0 {
		t.Error("failed resolution should count as unresolved")
	}
}

func TestLinkExportStar(t *testing.T) {
	units := extractUnits(t, map[string]string{
		"src/app.ts":       `import { calc } from './lib'; calc();`,
		"src/lib/index.ts": `export * from './impl';`,
		"src/lib/impl.ts":  `export function calc() { return 1; }`,
	})
	g, _, err := Link(units, true)
	if err != nil {
		t.Fatalf("Link: %v", err)
	}

	calc := symbolIn(t, unitByPath(t, units, "src/lib/impl.ts"), "calc")
	if len(g.Incoming(calc.ID)) == 0 {
		t.Error("export * did not forward the named export")
	}
}

func TestLinkExportStarSkipsDefault(t *testing.T) {
	units := extractUnits(t, map[string]string{
		"src/app.ts":       `import thing from './lib'; thing();`,
		"src/lib/index.ts": `export * from './impl';`,
		"src/lib/impl.ts":  `export default function calc() { return 1; }`,
	})
	g, _, err := Link(units, true)
	if err != nil {
		t.Fatalf("Link: %v", err)
	}

	app := unitByPath(t, units, "src/app.ts")
	if g.Files[app.FileID].UnresolvedRefs == 0 {
		t.Error("export * must not forward the default export")
	}
}

func TestLinkNamedDefaultImport(t *testing.T) {
	units := extractUnits(t, map[string]string{
		"src/app.ts": `
import fmt from './fmt';
export function run() { return fmt(); }
`,
		"src/fmt.ts": `export default function format() { return ''; }`,
	})
	g, _, err := Link(units, true)
	if err != nil {
		t.Fatalf("Link: %v", err)
	}

	run := symbolIn(t, unitByPath(t, units, "src/app.ts"), "run")
	format := symbolIn(t, unitByPath(t, units, "src/fmt.ts"), "format")

	found := false
	for _, to := range g.Outgoing(run.ID) {
		if to == format.ID {
			found = true
		}
	}
	if !found {
		t.Errorf("default import did not resolve to the named declaration; outgoing: %v", g.Outgoing(run.ID))
	}
	app := unitByPath(t, units, "src/app.ts")
	if got := g.Files[app.FileID].UnresolvedRefs; got != 0 {
		t.Errorf("UnresolvedRefs = %d, want 0", got)
	}
}

func TestLinkReexportCycle(t *testing.T) {
	units := extractUnits(t, map[string]string{
		"src/app.ts": `import { ghost } from './a'; ghost();`,
		"src/a.ts":   `export * from './b';`,
		"src/b.ts":   `export * from './a';`,
	})
	g, _, err := Link(units, true)
	if err != nil {
		t.Fatalf("Link: %v", err)
	}

	// The cycle must terminate and the lookup fail closed.
	app := unitByPath(t, units, "src/app.ts")
	if g.Files[app.FileID].UnresolvedRefs == 0 {
		t.Error("unresolvable name in a re-export cycle should count as unresolved")
	}
}

func TestLinkNamespaceImport(t *testing.T) {
	units := extractUnits(t, map[string]string{
		"src/app.ts": `
import * as lib from './lib';
export function main() { return lib.calc(); }
`,
		"src/lib.ts": `export function calc() { return 1; }
export function other() { return 2; }`,
	})
	g, _, err := Link(units, true)
	if err != nil {
		t.Fatalf("Link: %v", err)
	}

	lib := unitByPath(t, units, "src/lib.ts")
	main := symbolIn(t, unitByPath(t, units, "src/app.ts"), "main")

	found := false
	for _, to := range g.Outgoing(main.ID) {
		if to == lib.ModuleSymbol {
			found = true
		}
	}
	if !found {
		t.Error("namespace use should reference the target module symbol")
	}

	// A star import can reach any export, so both stay live through the
	// importing module.
	app := unitByPath(t, units, "src/app.ts")
	other := symbolIn(t, lib, "other")
	found = false
	for _, to := range g.Outgoing(app.ModuleSymbol) {
		if to == other.ID {
			found = true
		}
	}
	if !found {
		t.Error("star import should add edges to every export of the target")
	}
}

func TestLinkBareImportRunsTopLevel(t *testing.T) {
	units := extractUnits(t, map[string]string{
		"src/app.ts":      `import './polyfill';`,
		"src/polyfill.ts": `globalThis.patched = true;`,
	})
	g, _, err := Link(units, true)
	if err != nil {
		t.Fatalf("Link: %v", err)
	}

	app := unitByPath(t, units, "src/app.ts")
	poly := unitByPath(t, units, "src/polyfill.ts")

	for _, to := range g.Outgoing(app.ModuleSymbol) {
		if to == poly.ModuleSymbol {
			return
		}
	}
	t.Error("bare import should add a module-to-module edge")
}

func TestLinkExternalImportIsSilent(t *testing.T) {
	units := extractUnits(t, map[string]string{
		"src/app.ts": `import { readFile } from 'fs/promises'; readFile('x');`,
	})
	g, warnings, err := Link(units, true)
	if err != nil {
		t.Fatalf("Link: %v", err)
	}
	for _, w := range warnings {
		if w.Kind == WarnUnresolvedImport {
			t.Errorf("external package import should not warn: %+v", w)
		}
	}
	app := unitByPath(t, units, "src/app.ts")
	if g.Files[app.FileID].UnresolvedRefs != 0 {
		t.Error("external imports are not unresolved references")
	}
}

func TestLinkUnresolvedRelativeImport(t *testing.T) {
	units := extractUnits(t, map[string]string{
		"src/app.ts": `import { x } from './missing'; x();`,
	})
	_, warnings, err := Link(units, true)
	if err != nil {
		t.Fatalf("Link: %v", err)
	}
	for _, w := range warnings {
		if w.Kind == WarnUnresolvedImport {
			return
		}
	}
	t.Errorf("missing relative import should warn; got %+v", warnings)
}

func TestLinkDirectoryImport(t *testing.T) {
	units := extractUnits(t, map[string]string{
		"src/app.ts":       `import { calc } from './lib'; calc();`,
		"src/lib/index.ts": `export function calc() { return 1; }`,
	})
	g, _, err := Link(units, true)
	if err != nil {
		t.Fatalf("Link: %v", err)
	}
	calc := symbolIn(t, unitByPath(t, units, "src/lib/index.ts"), "calc")
	if len(g.Incoming(calc.ID)) == 0 {
		t.Error("directory import did not resolve to index file")
	}
}

func TestLinkExportClauseMarksExported(t *testing.T) {
	units := extractUnits(t, map[string]string{
		"src/a.ts": "function helper() {}\nexport { helper };",
	})
	g, _, err := Link(units, true)
	if err != nil {
		t.Fatalf("Link: %v", err)
	}
	a := unitByPath(t, units, "src/a.ts")
	if _, ok := g.FindExport(a.FileID, "helper"); !ok {
		t.Error("export clause should mark the local symbol exported")
	}
}

func TestLinkPropertyIndex(t *testing.T) {
	units := extractUnits(t, map[string]string{
		"src/store.ts": `
export class Store {
  flush() {}
}
`,
		"src/app.ts": `
export function shutdown(s) { s.flush(); }
`,
	})
	g, _, err := Link(units, true)
	if err != nil {
		t.Fatalf("Link: %v", err)
	}

	flush := symbolIn(t, unitByPath(t, units, "src/store.ts"), "flush")
	if len(g.Incoming(flush.ID)) == 0 {
		t.Error("property access should resolve through the member index")
	}
}

func TestLinkDynamicPatternAttribution(t *testing.T) {
	units := extractUnits(t, map[string]string{
		"src/app.ts": `
const registry = { a: 1 };
Object.keys(registry);
`,
	})
	g, _, err := Link(units, true)
	if err != nil {
		t.Fatalf("Link: %v", err)
	}

	reg := symbolIn(t, unitByPath(t, units, "src/app.ts"), "registry")
	for _, p := range g.DynamicPatterns {
		if p.Kind == PatternObjectIteration {
			for _, id := range p.AffectedSymbols {
				if id == reg.ID {
					return
				}
			}
		}
	}
	t.Error("object iteration pattern should name the iterated symbol")
}

func TestLinkParseErrorWarning(t *testing.T) {
	units := extractUnits(t, map[string]string{
		"src/broken.ts": `function f( {`,
	})
	_, warnings, err := Link(units, true)
	if err != nil {
		t.Fatalf("Link: %v", err)
	}
	for _, w := range warnings {
		if w.Kind == WarnParseError {
			return
		}
	}
	t.Error("parse diagnostics should surface as warnings")
}

func TestLinkDuplicateSymbolID(t *testing.T) {
	// Two units extracted with independent counters collide on IDs.
	p := parser.New()
	defer p.Close()

	var units []*Extraction
	for i, path := range []string{"src/a.ts", "src/b.ts"} {
		res, err := p.Parse([]byte(`export function f() {}`), parser.LangTypeScript, path)
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		var ids atomic.Uint32
		units = append(units, ExtractUnit(res, FileID(i), &ids))
	}

	_, _, err := Link(units, true)
	if err == nil {
		t.Fatal("duplicate symbol IDs should be an internal error")
	}
	if _, ok := err.(*InternalError); !ok {
		t.Errorf("error type = %T, want *InternalError", err)
	}
}
