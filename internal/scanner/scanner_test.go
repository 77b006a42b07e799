package scanner

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/dean0x/diedeadcode/pkg/config"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestScan(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"src/index.ts":       "export {};",
		"src/App.tsx":        "export {};",
		"lib/util.js":        "module.exports = {};",
		"README.md":          "# readme",
		"src/types.d.ts":     "export {};",
		"src/app.test.ts":    "export {};",
		"node_modules/x.ts":  "export {};",
		"dist/bundle.js":     "x",
		"src/__tests__/x.ts": "export {};",
	})

	files, err := New(config.DefaultConfig()).Scan(root)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	want := []string{"lib/util.js", "src/App.tsx", "src/index.ts"}
	if !reflect.DeepEqual(files, want) {
		t.Errorf("Scan = %v, want %v", files, want)
	}
}

func TestScanSorted(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"z.ts": "export {};",
		"a.ts": "export {};",
		"m.ts": "export {};",
	})

	files, err := New(config.DefaultConfig()).Scan(root)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	want := []string{"a.ts", "m.ts", "z.ts"}
	if !reflect.DeepEqual(files, want) {
		t.Errorf("Scan = %v, want sorted %v", files, want)
	}
}

func TestScanGitignore(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"src/index.ts":     "export {};",
		"generated/api.ts": "export {};",
		".gitignore":       "generated/\n",
	})
	if err := os.MkdirAll(filepath.Join(root, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}

	files, err := New(config.DefaultConfig()).Scan(root)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	for _, f := range files {
		if f == "generated/api.ts" {
			t.Error("gitignored files should be skipped")
		}
	}
	if len(files) != 1 || files[0] != "src/index.ts" {
		t.Errorf("Scan = %v, want [src/index.ts]", files)
	}
}

func TestScanWithoutGitRepo(t *testing.T) {
	// A .gitignore without a .git directory is not applied.
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"src/index.ts":     "export {};",
		"generated/api.ts": "export {};",
		".gitignore":       "generated/\n",
	})

	files, err := New(config.DefaultConfig()).Scan(root)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(files) != 2 {
		t.Errorf("Scan = %v, want both files", files)
	}
}

func TestScanCustomInclude(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"src/app.ts": "export {};",
		"lib/x.ts":   "export {};",
	})

	cfg := config.DefaultConfig()
	cfg.Include = []string{"src/**"}

	files, err := New(cfg).Scan(root)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(files) != 1 || files[0] != "src/app.ts" {
		t.Errorf("Scan = %v, want [src/app.ts]", files)
	}
}

func TestScanSymlinkEscape(t *testing.T) {
	outside := t.TempDir()
	writeTree(t, outside, map[string]string{"secret.ts": "export {};"})

	root := t.TempDir()
	writeTree(t, root, map[string]string{"src/index.ts": "export {};"})
	if err := os.Symlink(outside, filepath.Join(root, "linked")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	files, err := New(config.DefaultConfig()).Scan(root)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	for _, f := range files {
		if f == "linked/secret.ts" {
			t.Error("symlinks escaping the root must be skipped")
		}
	}
}

func TestShouldAnalyze(t *testing.T) {
	root := t.TempDir()
	s := New(config.DefaultConfig())

	tests := []struct {
		rel  string
		want bool
	}{
		{"src/app.ts", true},
		{"src/app.test.ts", false},
		{"notes.txt", false},
		{"node_modules/dep/index.js", false},
	}
	for _, tt := range tests {
		path := filepath.Join(root, filepath.FromSlash(tt.rel))
		if got := s.ShouldAnalyze(root, path); got != tt.want {
			t.Errorf("ShouldAnalyze(%s) = %v, want %v", tt.rel, got, tt.want)
		}
	}

	if s.ShouldAnalyze(root, filepath.Join(os.TempDir(), "outside.ts")) {
		t.Error("paths outside the root are never analyzed")
	}
}
