package deadcode

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dean0x/diedeadcode/pkg/analyzer/frameworks"
)

// entryGraph links a small fixture project for entry discovery tests.
func entryGraph(t *testing.T, files map[string]string) (*Graph, []*Extraction) {
	t.Helper()
	units := extractUnits(t, files)
	g, _, err := Link(units, true)
	if err != nil {
		t.Fatalf("Link: %v", err)
	}
	return g, units
}

func isEntry(g *Graph, id SymbolID) bool {
	_, ok := g.EntryPoints[id]
	return ok
}

func TestDiscoverEntryFiles(t *testing.T) {
	g, units := entryGraph(t, map[string]string{
		"src/main.ts": `export function start() {}
function internal() {}`,
		"src/other.ts": `export function helper() {}`,
	})

	err := DiscoverEntryPoints(g, t.TempDir(), EntryOptions{Files: []string{"src/main.ts"}})
	if err != nil {
		t.Fatalf("DiscoverEntryPoints: %v", err)
	}

	start := symbolIn(t, unitByPath(t, units, "src/main.ts"), "start")
	internal := symbolIn(t, unitByPath(t, units, "src/main.ts"), "internal")
	helper := symbolIn(t, unitByPath(t, units, "src/other.ts"), "helper")

	if !isEntry(g, start.ID) {
		t.Error("exported symbol of an entry file should be a root")
	}
	if isEntry(g, internal.ID) {
		t.Error("unexported symbols are not roots")
	}
	if isEntry(g, helper.ID) {
		t.Error("other files' exports are not roots")
	}
}

func TestDiscoverEntryFileCompiledExtension(t *testing.T) {
	// Entry config naming build output still matches the source file.
	g, units := entryGraph(t, map[string]string{
		"src/main.ts": `export function start() {}`,
	})

	err := DiscoverEntryPoints(g, t.TempDir(), EntryOptions{Files: []string{"src/main.js"}})
	if err != nil {
		t.Fatalf("DiscoverEntryPoints: %v", err)
	}
	start := symbolIn(t, unitByPath(t, units, "src/main.ts"), "start")
	if !isEntry(g, start.ID) {
		t.Error("foo.js should match foo.ts")
	}
}

func TestDiscoverEntryPatterns(t *testing.T) {
	g, units := entryGraph(t, map[string]string{
		"src/routes/users.ts": `export function handler() {}`,
		"src/lib/util.ts":     `export function helper() {}`,
	})

	err := DiscoverEntryPoints(g, t.TempDir(), EntryOptions{Patterns: []string{"src/routes/**"}})
	if err != nil {
		t.Fatalf("DiscoverEntryPoints: %v", err)
	}

	handler := symbolIn(t, unitByPath(t, units, "src/routes/users.ts"), "handler")
	helper := symbolIn(t, unitByPath(t, units, "src/lib/util.ts"), "helper")
	if !isEntry(g, handler.ID) {
		t.Error("pattern match should mark exports as roots")
	}
	if isEntry(g, helper.ID) {
		t.Error("non-matching files are untouched")
	}
}

func TestDiscoverPackageJSONAutoDetect(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "package.json", `{
  "main": "dist/index.js",
  "bin": { "tool": "dist/cli.js" },
  "exports": { ".": { "import": "./dist/index.js" }, "./extra": "./dist/extra.js" }
}`)
	// Source files exist, so the compiled paths normalize to them.
	writeFixture(t, root, "dist/index.ts", `export function api() {}`)
	writeFixture(t, root, "dist/cli.ts", `export function cli() {}`)
	writeFixture(t, root, "dist/extra.ts", `export function extra() {}`)

	g, units := entryGraph(t, map[string]string{
		"dist/index.ts": `export function api() {}`,
		"dist/cli.ts":   `export function cli() {}`,
		"dist/extra.ts": `export function extra() {}`,
	})

	err := DiscoverEntryPoints(g, root, EntryOptions{AutoDetect: true})
	if err != nil {
		t.Fatalf("DiscoverEntryPoints: %v", err)
	}

	for _, tc := range []struct{ path, name string }{
		{"dist/index.ts", "api"},
		{"dist/cli.ts", "cli"},
		{"dist/extra.ts", "extra"},
	} {
		sym := symbolIn(t, unitByPath(t, units, tc.path), tc.name)
		if !isEntry(g, sym.ID) {
			t.Errorf("%s from package.json should be a root", tc.path)
		}
	}
}

func TestDiscoverFrameworkEntries(t *testing.T) {
	g, units := entryGraph(t, map[string]string{
		"pages/index.tsx": `
export default function Home() { return <div />; }
export function getServerSideProps() { return {}; }
`,
		"src/util.ts": `export function helper() {}`,
	})

	var next frameworks.Detector
	for _, d := range frameworks.WithBuiltins().Detectors() {
		if d.Name() == "nextjs" {
			next = d
		}
	}
	if next == nil {
		t.Fatal("nextjs detector not registered")
	}

	err := DiscoverEntryPoints(g, t.TempDir(), EntryOptions{Frameworks: []frameworks.Detector{next}})
	if err != nil {
		t.Fatalf("DiscoverEntryPoints: %v", err)
	}

	page := unitByPath(t, units, "pages/index.tsx")
	// Named default exports keep their own name.
	def := symbolIn(t, page, "Home")
	props := symbolIn(t, page, "getServerSideProps")
	if !isEntry(g, def.ID) || !isEntry(g, props.ID) {
		t.Error("page exports should be framework roots")
	}
	helper := symbolIn(t, unitByPath(t, units, "src/util.ts"), "helper")
	if isEntry(g, helper.ID) {
		t.Error("files outside the framework patterns are untouched")
	}
}

func TestDiscoverNamedExports(t *testing.T) {
	g, units := entryGraph(t, map[string]string{
		"src/a.ts": `export function activate() {}
export function other() {}`,
	})

	err := DiscoverEntryPoints(g, t.TempDir(), EntryOptions{Exports: []string{"activate"}})
	if err != nil {
		t.Fatalf("DiscoverEntryPoints: %v", err)
	}

	a := unitByPath(t, units, "src/a.ts")
	if !isEntry(g, symbolIn(t, a, "activate").ID) {
		t.Error("configured export name should be a root everywhere")
	}
	if isEntry(g, symbolIn(t, a, "other").ID) {
		t.Error("other exports are untouched")
	}
}

func TestDiscoverSideEffectFiles(t *testing.T) {
	g, units := entryGraph(t, map[string]string{
		"src/setup.ts": `
registerGlobals();
export function registerGlobals() {}
function local() {}
`,
	})

	err := DiscoverEntryPoints(g, t.TempDir(), EntryOptions{})
	if err != nil {
		t.Fatalf("DiscoverEntryPoints: %v", err)
	}

	// Every symbol of a side-effect file is kept, exported or not.
	setup := unitByPath(t, units, "src/setup.ts")
	if !isEntry(g, symbolIn(t, setup, "registerGlobals").ID) {
		t.Error("exported symbol of side-effect file should be a root")
	}
	if !isEntry(g, symbolIn(t, setup, "local").ID) {
		t.Error("local symbol of side-effect file should be a root")
	}
}

func TestDiscoverNoEntryPoints(t *testing.T) {
	g, _ := entryGraph(t, map[string]string{
		"src/a.ts": `export function unused() {}`,
	})

	err := DiscoverEntryPoints(g, t.TempDir(), EntryOptions{})
	if !errors.Is(err, ErrNoEntryPoints) {
		t.Errorf("err = %v, want ErrNoEntryPoints", err)
	}
}

func TestPathsEquivalent(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"src/main.ts", "src/main.js", true},
		{"src/main.tsx", "src/main.js", true},
		{"src/main.ts", "src/other.ts", false},
		{"src/main.ts", "lib/main.ts", false},
		{"./src/main.ts", "src/main.ts", true},
	}
	for _, tt := range tests {
		if got := pathsEquivalent(tt.a, tt.b); got != tt.want {
			t.Errorf("pathsEquivalent(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestNormalizeEntryPath(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "src/index.ts", `export {};`)

	if got := normalizeEntryPath(root, "src/index.js"); got != "src/index.ts" {
		t.Errorf("normalizeEntryPath = %q, want the TypeScript source", got)
	}
	if got := normalizeEntryPath(root, "src/missing.js"); got != "src/missing.js" {
		t.Errorf("normalizeEntryPath = %q, want the path unchanged when no source exists", got)
	}
}

func writeFixture(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
