// Package scanner discovers the source files an analysis run covers.
package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/dean0x/diedeadcode/pkg/config"
	"github.com/dean0x/diedeadcode/pkg/parser"
)

// Scanner walks a project tree and selects the files to analyze. Selection
// applies .gitignore patterns first, then the configured include and exclude
// globs.
type Scanner struct {
	cfg     *config.Config
	matcher gitignore.Matcher
}

// New creates a scanner for the given configuration.
func New(cfg *config.Config) *Scanner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Scanner{cfg: cfg}
}

// findGitRoot walks upward looking for a .git directory.
func findGitRoot(start string) string {
	dir := start
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadGitignore reads every .gitignore under the repository root.
func (s *Scanner) loadGitignore(root string) {
	gitRoot := findGitRoot(root)
	if gitRoot == "" {
		return
	}
	patterns, err := gitignore.ReadPatterns(osfs.New(gitRoot), nil)
	if err != nil || len(patterns) == 0 {
		return
	}
	s.matcher = gitignore.NewMatcher(patterns)
}

func (s *Scanner) ignored(relPath string, isDir bool) bool {
	if s.matcher == nil {
		return false
	}
	return s.matcher.Match(strings.Split(relPath, string(filepath.Separator)), isDir)
}

// Scan returns the selected source files as slash-separated paths relative
// to root, sorted for deterministic analysis order. Symlinks that escape the
// root are skipped.
func (s *Scanner) Scan(root string) ([]string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	absRoot, err = filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, err
	}

	s.loadGitignore(root)

	var files []string
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		relPath, _ := filepath.Rel(root, path)
		if relPath == "." {
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			resolved, err := filepath.EvalSymlinks(path)
			if err != nil || !withinRoot(resolved, absRoot) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}

		if d.IsDir() {
			if s.ignored(relPath, true) {
				return filepath.SkipDir
			}
			return nil
		}

		if s.ignored(relPath, false) {
			return nil
		}

		rel := filepath.ToSlash(relPath)
		if parser.DetectLanguage(path) == parser.LangUnknown {
			return nil
		}
		if !s.cfg.ShouldInclude(rel) {
			return nil
		}
		files = append(files, rel)
		return nil
	})

	sort.Strings(files)
	return files, walkErr
}

// withinRoot reports whether path is contained in root after symlink
// resolution.
func withinRoot(path, root string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	absPath = filepath.Clean(absPath)
	root = filepath.Clean(root)
	return absPath == root || strings.HasPrefix(absPath, root+string(filepath.Separator))
}

// ShouldAnalyze reports whether a single path would be selected by Scan.
// Used by the watcher to filter change events.
func (s *Scanner) ShouldAnalyze(root, path string) bool {
	relPath, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(relPath, "..") {
		return false
	}
	rel := filepath.ToSlash(relPath)
	if parser.DetectLanguage(path) == parser.LangUnknown {
		return false
	}
	if s.ignored(relPath, false) {
		return false
	}
	return s.cfg.ShouldInclude(rel)
}
