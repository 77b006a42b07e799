package deadcode

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/dean0x/diedeadcode/pkg/config"
)

// writeProject lays out a fixture project and returns a config rooted in it.
func writeProject(t *testing.T, files map[string]string) (*config.Config, []string) {
	t.Helper()
	root := t.TempDir()

	paths := make([]string, 0, len(files))
	for rel, content := range files {
		writeFixture(t, root, rel, content)
		paths = append(paths, rel)
	}

	cfg := config.DefaultConfig()
	cfg.Root = root
	return cfg, paths
}

func findingNames(result *Result) map[string]DeadSymbol {
	out := make(map[string]DeadSymbol, len(result.DeadSymbols))
	for _, d := range result.DeadSymbols {
		out[d.Symbol.Name] = d
	}
	return out
}

func TestAnalyzeBasic(t *testing.T) {
	cfg, files := writeProject(t, map[string]string{
		"src/index.ts": `
import { used } from './lib';
export function main() { used(); }
`,
		"src/lib.ts": `
export function used() {}
export function orphan() {}
`,
	})
	cfg.Entry.Files = []string{"src/index.ts"}

	result, err := New(cfg).Analyze(context.Background(), files)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	findings := findingNames(result)
	orphan, ok := findings["orphan"]
	if !ok {
		t.Error("orphan should be reported dead")
	}
	if len(orphan.Factors) != 1 || orphan.Factors[0].Name != "exported" {
		t.Errorf("orphan factors = %v, want the exported deduction", orphan.Factors)
	}
	if _, ok := findings["used"]; ok {
		t.Error("used is reachable from the entry point")
	}
	if _, ok := findings["main"]; ok {
		t.Error("the entry point is never dead")
	}
	if result.TotalFiles != 2 {
		t.Errorf("TotalFiles = %d, want 2", result.TotalFiles)
	}
}

func TestAnalyzeTransitiveChain(t *testing.T) {
	cfg, files := writeProject(t, map[string]string{
		"src/index.ts": `export function main() {}`,
		"src/dead.ts": `
export function root() { middle(); }
function middle() { leaf(); }
function leaf() {}
`,
	})
	cfg.Entry.Files = []string{"src/index.ts"}

	result, err := New(cfg).Analyze(context.Background(), files)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	findings := findingNames(result)
	rootFinding, ok := findings["root"]
	if !ok {
		t.Fatal("root should be reported")
	}
	if rootFinding.Reason.Kind == ReasonTransitive {
		t.Error("root is the direct head of the dead subgraph")
	}

	leaf, ok := findings["leaf"]
	if !ok {
		t.Fatal("leaf should be reported")
	}
	if leaf.Reason.Kind != ReasonTransitive {
		t.Fatalf("leaf reason = %s, want transitive", leaf.Reason.Kind)
	}
	if len(leaf.Reason.Chain) != 2 {
		t.Errorf("leaf chain = %v, want root and middle", leaf.Reason.Chain)
	}
	if leaf.KilledBy == nil {
		t.Error("transitive findings carry KilledBy")
	}
	for _, id := range leaf.Reason.Chain {
		if _, ok := result.ChainSymbols[id]; !ok {
			t.Errorf("chain symbol %d missing from the lookup table", id)
		}
	}
}

func TestAnalyzeEmptyFileSet(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Root = t.TempDir()

	_, err := New(cfg).Analyze(context.Background(), nil)
	if !errors.Is(err, ErrNoFiles) {
		t.Errorf("err = %v, want to wrap ErrNoFiles", err)
	}
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Errorf("err type = %T, want *ConfigError", err)
	}
}

func TestAnalyzeNoEntryPoints(t *testing.T) {
	cfg, files := writeProject(t, map[string]string{
		"src/a.ts": `export function f() {}`,
	})
	cfg.Entry.AutoDetect = false

	_, err := New(cfg).Analyze(context.Background(), files)
	if !errors.Is(err, ErrNoEntryPoints) {
		t.Errorf("err = %v, want to wrap ErrNoEntryPoints", err)
	}
}

func TestAnalyzeTypeFiltering(t *testing.T) {
	files := map[string]string{
		"src/index.ts": `export function main() {}`,
		"src/types.ts": `export interface Unused { x: number; }`,
	}

	cfg, paths := writeProject(t, files)
	cfg.Entry.Files = []string{"src/index.ts"}
	cfg.Analysis.IncludeTypes = true

	result, err := New(cfg).Analyze(context.Background(), paths)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if _, ok := findingNames(result)["Unused"]; !ok {
		t.Error("unused interface should be reported when types are included")
	}

	cfg2, paths2 := writeProject(t, files)
	cfg2.Entry.Files = []string{"src/index.ts"}
	cfg2.Analysis.IncludeTypes = false

	result2, err := New(cfg2).Analyze(context.Background(), paths2)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if _, ok := findingNames(result2)["Unused"]; ok {
		t.Error("type findings should be filtered when types are excluded")
	}
}

func TestAnalyzeIgnorePatterns(t *testing.T) {
	cfg, files := writeProject(t, map[string]string{
		"src/index.ts": `export function main() {}`,
		"src/lib.ts": `
export function _scratch() {}
export function orphan() {}
`,
	})
	cfg.Entry.Files = []string{"src/index.ts"}

	result, err := New(cfg).Analyze(context.Background(), files)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	findings := findingNames(result)
	// The default ignore patterns drop underscore-prefixed names.
	if _, ok := findings["_scratch"]; ok {
		t.Error("underscore-prefixed symbols are ignored by default")
	}
	if _, ok := findings["orphan"]; !ok {
		t.Error("orphan should still be reported")
	}
}

func TestAnalyzeTestFileSymbols(t *testing.T) {
	cfg, files := writeProject(t, map[string]string{
		"src/index.ts":    `export function main() {}`,
		"src/lib.test.ts": `export function fixture() {}`,
	})
	cfg.Entry.Files = []string{"src/index.ts"}

	result, err := New(cfg).Analyze(context.Background(), files)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if _, ok := findingNames(result)["fixture"]; ok {
		t.Error("test file symbols are not reported unless configured")
	}
}

func TestAnalyzeDynamicWarnings(t *testing.T) {
	cfg, files := writeProject(t, map[string]string{
		"src/index.ts": `
export function main() { eval("x"); }
`,
	})
	cfg.Entry.Files = []string{"src/index.ts"}

	result, err := New(cfg).Analyze(context.Background(), files)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	for _, w := range result.Warnings {
		if w.Kind == WarnDynamicCode {
			return
		}
	}
	t.Error("eval should produce a dynamic code warning")
}

func TestAnalyzeUnparsableFileIsWarning(t *testing.T) {
	cfg, files := writeProject(t, map[string]string{
		"src/index.ts": `export function main() {}`,
		"src/data.txt": `not source`,
	})
	cfg.Entry.Files = []string{"src/index.ts"}

	result, err := New(cfg).Analyze(context.Background(), files)
	if err != nil {
		t.Fatalf("unsupported files should degrade to warnings, got %v", err)
	}
	found := false
	for _, w := range result.Warnings {
		if w.Kind == WarnParseError {
			found = true
		}
	}
	if !found {
		t.Error("the skipped file should be reported as a warning")
	}
	if result.TotalFiles != 1 {
		t.Errorf("TotalFiles = %d, want 1", result.TotalFiles)
	}
}

func TestAnalyzeProgress(t *testing.T) {
	cfg, files := writeProject(t, map[string]string{
		"src/index.ts": `export function main() {}`,
		"src/a.ts":     `export function a() {}`,
		"src/b.ts":     `export function b() {}`,
	})
	cfg.Entry.Files = []string{"src/index.ts"}

	var ticks atomic.Int32
	a := New(cfg, WithProgress(func() { ticks.Add(1) }), WithMaxWorkers(2))
	if _, err := a.Analyze(context.Background(), files); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if got := ticks.Load(); got != 3 {
		t.Errorf("progress ticks = %d, want one per file", got)
	}
}

func TestAnalyzeDeterministic(t *testing.T) {
	cfg, files := writeProject(t, map[string]string{
		"src/index.ts": `export function main() {}`,
		"src/a.ts":     `export function one() {}`,
		"src/b.ts":     `export function two() {}`,
		"src/c.ts":     `export function three() {}`,
	})
	cfg.Entry.Files = []string{"src/index.ts"}

	first, err := New(cfg, WithMaxWorkers(1)).Analyze(context.Background(), files)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	second, err := New(cfg, WithMaxWorkers(4)).Analyze(context.Background(), files)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if len(first.DeadSymbols) != len(second.DeadSymbols) {
		t.Fatalf("finding counts differ: %d vs %d", len(first.DeadSymbols), len(second.DeadSymbols))
	}
	for i := range first.DeadSymbols {
		a, b := first.DeadSymbols[i], second.DeadSymbols[i]
		if a.Symbol.Name != b.Symbol.Name || a.Score != b.Score {
			t.Errorf("finding %d differs: %s/%d vs %s/%d", i, a.Symbol.Name, a.Score, b.Symbol.Name, b.Score)
		}
		// IDs come from parallel extraction; they must not depend on
		// worker count or scheduling.
		if a.Symbol.ID != b.Symbol.ID || a.Symbol.FileID != b.Symbol.FileID {
			t.Errorf("finding %d IDs differ: %d/%d vs %d/%d",
				i, a.Symbol.ID, a.Symbol.FileID, b.Symbol.ID, b.Symbol.FileID)
		}
	}
}

func TestAnalyzeCancelled(t *testing.T) {
	cfg, files := writeProject(t, map[string]string{
		"src/index.ts": `export function main() {}`,
	})
	cfg.Entry.Files = []string{"src/index.ts"}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := New(cfg).Analyze(ctx, files); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
