// Package config loads and validates ddd configuration from ddd.toml,
// .dddrc files, or the "ddd" field of package.json.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	koanfjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration options for ddd.
type Config struct {
	// Root directory to analyze. Empty means the current directory.
	Root string `koanf:"root" toml:"root" json:"root"`

	// Entry point configuration.
	Entry EntryConfig `koanf:"entry" toml:"entry" json:"entry"`

	// Glob patterns for files to include.
	Include []string `koanf:"include" toml:"include" json:"include"`

	// Glob patterns for files to exclude.
	Exclude []string `koanf:"exclude" toml:"exclude" json:"exclude"`

	// Output settings.
	Output OutputConfig `koanf:"output" toml:"output" json:"output"`

	// Analysis settings.
	Analysis AnalysisConfig `koanf:"analysis" toml:"analysis" json:"analysis"`

	// Framework plugin settings.
	Plugins PluginsConfig `koanf:"plugins" toml:"plugins" json:"plugins"`

	// Cache settings.
	Cache CacheConfig `koanf:"cache" toml:"cache" json:"cache"`
}

// EntryConfig controls how the reachability root set is built.
type EntryConfig struct {
	// Explicit entry point files.
	Files []string `koanf:"files" toml:"files" json:"files"`

	// Glob patterns whose matches become entry files.
	Patterns []string `koanf:"patterns" toml:"patterns" json:"patterns"`

	// Auto-detect entry points from package.json (main, module, types,
	// bin, exports).
	AutoDetect bool `koanf:"auto_detect" toml:"auto_detect" json:"auto_detect"`

	// Exported symbol names to treat as entry points wherever they occur.
	Exports []string `koanf:"exports" toml:"exports" json:"exports"`
}

// OutputConfig controls report formatting.
type OutputConfig struct {
	Format string `koanf:"format" toml:"format" json:"format"` // table, json, markdown, compact, toon

	// Minimum confidence band to report: low, medium, or high.
	MinConfidence string `koanf:"min_confidence" toml:"min_confidence" json:"min_confidence"`

	// Show transitive dead chains under each finding.
	ShowChains bool `koanf:"show_chains" toml:"show_chains" json:"show_chains"`

	// Maximum chain length to display.
	MaxChainLength int `koanf:"max_chain_length" toml:"max_chain_length" json:"max_chain_length"`

	// Group findings by file.
	GroupByFile bool `koanf:"group_by_file" toml:"group_by_file" json:"group_by_file"`

	Color   bool `koanf:"color" toml:"color" json:"color"`
	Verbose bool `koanf:"verbose" toml:"verbose" json:"verbose"`
}

// AnalysisConfig controls analysis behavior.
type AnalysisConfig struct {
	// Report type-only dead code (interfaces, type aliases).
	IncludeTypes bool `koanf:"include_types" toml:"include_types" json:"include_types"`

	// Analyze test files instead of excluding them.
	AnalyzeTests bool `koanf:"analyze_tests" toml:"analyze_tests" json:"analyze_tests"`

	// Report symbols referenced only from test files.
	ReportTestOnly bool `koanf:"report_test_only" toml:"report_test_only" json:"report_test_only"`

	// Follow re-export chains to the original declaration.
	FollowReexports bool `koanf:"follow_reexports" toml:"follow_reexports" json:"follow_reexports"`

	// Maximum depth for transitive deadness chains.
	MaxTransitiveDepth int `koanf:"max_transitive_depth" toml:"max_transitive_depth" json:"max_transitive_depth"`

	// Symbol names never reported as dead.
	IgnoreSymbols []string `koanf:"ignore_symbols" toml:"ignore_symbols" json:"ignore_symbols"`

	// Regex patterns for symbol names never reported as dead.
	IgnorePatterns []string `koanf:"ignore_patterns" toml:"ignore_patterns" json:"ignore_patterns"`
}

// PluginsConfig controls framework plugin selection.
type PluginsConfig struct {
	// Plugins to force-enable regardless of detection.
	Enabled []string `koanf:"enabled" toml:"enabled" json:"enabled"`

	// Plugins to disable even when detected.
	Disabled []string `koanf:"disabled" toml:"disabled" json:"disabled"`

	// Detect plugins from package.json dependencies.
	AutoDetect bool `koanf:"auto_detect" toml:"auto_detect" json:"auto_detect"`

	NextJS  NextJSConfig  `koanf:"nextjs" toml:"nextjs" json:"nextjs"`
	Jest    JestConfig    `koanf:"jest" toml:"jest" json:"jest"`
	Express ExpressConfig `koanf:"express" toml:"express" json:"express"`
}

// NextJSConfig holds Next.js plugin settings.
type NextJSConfig struct {
	PageDirs []string `koanf:"page_dirs" toml:"page_dirs" json:"page_dirs"`
	AppDirs  []string `koanf:"app_dirs" toml:"app_dirs" json:"app_dirs"`
}

// JestConfig holds Jest plugin settings.
type JestConfig struct {
	TestPatterns []string `koanf:"test_patterns" toml:"test_patterns" json:"test_patterns"`
	SetupFiles   []string `koanf:"setup_files" toml:"setup_files" json:"setup_files"`
}

// ExpressConfig holds Express plugin settings.
type ExpressConfig struct {
	MiddlewarePatterns []string `koanf:"middleware_patterns" toml:"middleware_patterns" json:"middleware_patterns"`
}

// CacheConfig controls the per-file extraction cache.
type CacheConfig struct {
	Enabled bool   `koanf:"enabled" toml:"enabled" json:"enabled"`
	Dir     string `koanf:"dir" toml:"dir" json:"dir"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Entry: EntryConfig{
			AutoDetect: true,
		},
		Include: []string{
			"**/*.ts",
			"**/*.tsx",
			"**/*.js",
			"**/*.jsx",
			"**/*.mts",
			"**/*.cts",
		},
		Exclude: []string{
			"**/node_modules/**",
			"**/dist/**",
			"**/build/**",
			"**/*.d.ts",
			"**/*.test.*",
			"**/*.spec.*",
			"**/__tests__/**",
		},
		Output: OutputConfig{
			Format:         "table",
			MinConfidence:  "high",
			ShowChains:     true,
			MaxChainLength: 5,
			GroupByFile:    true,
			Color:          true,
		},
		Analysis: AnalysisConfig{
			IncludeTypes:       true,
			FollowReexports:    true,
			MaxTransitiveDepth: 50,
			IgnorePatterns: []string{
				"^_", // private by convention
			},
		},
		Plugins: PluginsConfig{
			AutoDetect: true,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     ".ddd/cache",
		},
	}
}

// Config file names searched for, in priority order.
var configNames = []string{"ddd.toml", ".dddrc.toml", "ddd.json", ".dddrc.json", "ddd.yaml", ".dddrc.yaml"}

// LoadOption customizes config loading.
type LoadOption func(*loadOptions)

type loadOptions struct {
	path string
	dir  string
}

// WithPath loads config from an explicit file path instead of searching.
func WithPath(path string) LoadOption {
	return func(o *loadOptions) { o.path = path }
}

// WithDir sets the directory where the search for config files starts.
func WithDir(dir string) LoadOption {
	return func(o *loadOptions) { o.dir = dir }
}

// LoadResult is a loaded config plus the file it came from. Source is empty
// when defaults were used.
type LoadResult struct {
	Config *Config
	Source string
}

// LoadConfig loads the effective configuration. Without options it searches
// the current directory and its parents for a config file, then falls back
// to the "ddd" field of package.json, then to defaults.
func LoadConfig(opts ...LoadOption) (*LoadResult, error) {
	var o loadOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.dir == "" {
		o.dir = "."
	}

	if o.path != "" {
		cfg, err := Load(o.path)
		if err != nil {
			return nil, err
		}
		return &LoadResult{Config: cfg, Source: o.path}, nil
	}

	if path := findConfigFile(o.dir); path != "" {
		cfg, err := Load(path)
		if err != nil {
			return nil, err
		}
		return &LoadResult{Config: cfg, Source: path}, nil
	}

	if path := findUpward(o.dir, "package.json"); path != "" {
		cfg, err := loadFromPackageJSON(path)
		if err != nil {
			return nil, err
		}
		if cfg != nil {
			return &LoadResult{Config: cfg, Source: path}, nil
		}
	}

	return &LoadResult{Config: DefaultConfig()}, nil
}

// Load loads configuration from a file, merging over defaults and validating
// the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		parser = toml.Parser()
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = koanfjson.Parser()
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", path)
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	if err := validateRaw(k.Raw()); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// loadFromPackageJSON reads the "ddd" field of a package.json, if present.
func loadFromPackageJSON(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var pkg struct {
		DDD json.RawMessage `json:"ddd"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if pkg.DDD == nil {
		return nil, nil
	}

	var raw map[string]any
	if err := json.Unmarshal(pkg.DDD, &raw); err != nil {
		return nil, fmt.Errorf("invalid ddd config in %s: %w", path, err)
	}
	if err := validateRaw(raw); err != nil {
		return nil, fmt.Errorf("invalid ddd config in %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(pkg.DDD, cfg); err != nil {
		return nil, fmt.Errorf("invalid ddd config in %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ddd config in %s: %w", path, err)
	}
	return cfg, nil
}

// findConfigFile searches dir and its parents for a known config file name.
func findConfigFile(dir string) string {
	for _, name := range configNames {
		if path := findUpward(dir, name); path != "" {
			return path
		}
	}
	return ""
}

func findUpward(dir, name string) string {
	current, err := filepath.Abs(dir)
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(current, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(current)
		if parent == current {
			return ""
		}
		current = parent
	}
}

// Validate checks semantic constraints the schema cannot express.
func (c *Config) Validate() error {
	switch c.Output.Format {
	case "table", "json", "markdown", "compact", "toon":
	default:
		return fmt.Errorf("unknown output format %q", c.Output.Format)
	}
	switch c.Output.MinConfidence {
	case "low", "medium", "high":
	default:
		return fmt.Errorf("unknown confidence level %q", c.Output.MinConfidence)
	}
	if c.Analysis.MaxTransitiveDepth < 1 {
		return fmt.Errorf("max_transitive_depth must be at least 1, got %d", c.Analysis.MaxTransitiveDepth)
	}
	for _, p := range c.Analysis.IgnorePatterns {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("invalid ignore pattern %q: %w", p, err)
		}
	}
	for _, pats := range [][]string{c.Include, c.Exclude, c.Entry.Patterns} {
		for _, p := range pats {
			if !doublestar.ValidatePattern(p) {
				return fmt.Errorf("invalid glob pattern %q", p)
			}
		}
	}
	return nil
}

// ShouldInclude reports whether a path passes the include/exclude filters.
// Paths are matched with slash separators relative to the analysis root.
func (c *Config) ShouldInclude(path string) bool {
	path = filepath.ToSlash(path)

	for _, pattern := range c.Exclude {
		if ok, _ := doublestar.Match(pattern, path); ok {
			return false
		}
	}

	if len(c.Include) == 0 {
		return true
	}
	for _, pattern := range c.Include {
		if ok, _ := doublestar.Match(pattern, path); ok {
			return true
		}
	}
	return false
}

// ShouldIgnoreSymbol reports whether a symbol name is exempt from dead-code
// reporting.
func (c *Config) ShouldIgnoreSymbol(name string) bool {
	for _, s := range c.Analysis.IgnoreSymbols {
		if s == name {
			return true
		}
	}
	for _, pattern := range c.Analysis.IgnorePatterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			continue
		}
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

// PluginEnabled reports whether a plugin should run given detection results.
func (c *Config) PluginEnabled(name string, detected bool) bool {
	for _, d := range c.Plugins.Disabled {
		if d == name {
			return false
		}
	}
	for _, e := range c.Plugins.Enabled {
		if e == name {
			return true
		}
	}
	return detected && c.Plugins.AutoDetect
}
