package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/dean0x/diedeadcode/internal/cache"
	"github.com/dean0x/diedeadcode/internal/fileproc"
	"github.com/dean0x/diedeadcode/internal/output"
	"github.com/dean0x/diedeadcode/internal/progress"
	"github.com/dean0x/diedeadcode/internal/report"
	"github.com/dean0x/diedeadcode/internal/scanner"
	"github.com/dean0x/diedeadcode/pkg/analyzer/deadcode"
	"github.com/dean0x/diedeadcode/pkg/config"
	"github.com/dean0x/diedeadcode/pkg/watch"
	"github.com/fatih/color"
	toml "github.com/pelletier/go-toml"
	"github.com/urfave/cli/v2"
)

var (
	version = "dev"
	commit  = "none"    //nolint:unused // set via ldflags at build time
	date    = "unknown" //nolint:unused // set via ldflags at build time
)

// getPath returns the positional path argument, defaulting to ".".
func getPath(c *cli.Context) string {
	if c.Args().Len() > 0 {
		return c.Args().First()
	}
	return "."
}

func main() {
	app := &cli.App{
		Name:    "ddd",
		Usage:   "Confidence-scored dead code detection for TypeScript and JavaScript",
		Version: version,
		Description: `ddd finds unused exports, functions, classes, and types by building a
cross-module reference graph and walking reachability from your entry
points. Every finding carries a confidence score so dynamic code never
produces a false "definitely dead" verdict.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (TOML, JSON, or YAML)",
				EnvVars: []string{"DDD_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: table, json, markdown, compact, toon",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write output to file",
			},
			&cli.BoolFlag{
				Name:  "no-cache",
				Usage: "Disable result caching",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable colored output",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable verbose output",
			},
		},
		Commands: []*cli.Command{
			analyzeCmd(),
			initCmd(),
			watchCmd(),
			configCmd(),
			mcpCmd(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		color.Red("Error: %v", err)
		os.Exit(2)
	}
}

// loadConfig loads the effective config for root and applies CLI overrides.
func loadConfig(c *cli.Context, root string) (*config.Config, error) {
	var opts []config.LoadOption
	if path := c.String("config"); path != "" {
		opts = append(opts, config.WithPath(path))
	} else {
		opts = append(opts, config.WithDir(root))
	}

	res, err := config.LoadConfig(opts...)
	if err != nil {
		return nil, err
	}
	cfg := res.Config

	if f := c.String("format"); f != "" {
		cfg.Output.Format = f
	}
	if c.Bool("no-color") {
		cfg.Output.Color = false
	}
	if c.Bool("verbose") {
		cfg.Output.Verbose = true
	}
	if mc := c.String("min-confidence"); mc != "" {
		cfg.Output.MinConfidence = mc
	}
	if c.IsSet("include-types") {
		cfg.Analysis.IncludeTypes = c.Bool("include-types")
	}
	if entries := c.StringSlice("entry"); len(entries) > 0 {
		cfg.Entry.Files = append(cfg.Entry.Files, entries...)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func analyzeCmd() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Aliases:   []string{"a"},
		Usage:     "Analyze a project for dead code",
		ArgsUsage: "[path]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "min-confidence",
				Usage: "Minimum confidence band to report: low, medium, high",
			},
			&cli.StringSliceFlag{
				Name:  "entry",
				Usage: "Additional entry point files",
			},
			&cli.BoolFlag{
				Name:  "include-types",
				Usage: "Report type-only dead code (interfaces, type aliases)",
			},
			&cli.BoolFlag{
				Name:  "check",
				Usage: "Exit 1 when findings remain after filtering (for CI)",
			},
		},
		Action: runAnalyzeCmd,
	}
}

func runAnalyzeCmd(c *cli.Context) error {
	root, err := filepath.Abs(getPath(c))
	if err != nil {
		return fmt.Errorf("invalid path %s: %w", getPath(c), err)
	}

	cfg, err := loadConfig(c, root)
	if err != nil {
		return err
	}
	cfg.Root = root

	result, err := analyzeProject(c.Context, cfg, root, !c.Bool("no-cache"), true)
	if err != nil {
		return err
	}

	rep := report.New(result, cfg.Output)

	formatter, err := output.New(output.ParseFormat(cfg.Output.Format), c.String("output"), output.WithColor(cfg.Output.Color))
	if err != nil {
		return err
	}
	defer formatter.Close()

	if err := formatter.Output(rep); err != nil {
		return err
	}

	if c.Bool("check") && len(rep.Findings()) > 0 {
		return cli.Exit("", 1)
	}
	return nil
}

// analyzeProject runs the full pipeline for root, serving a cached result
// when nothing under root changed since the last run.
func analyzeProject(ctx context.Context, cfg *config.Config, root string, useCache, showProgress bool) (*deadcode.Result, error) {
	files, err := scanner.New(cfg).Scan(root)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}

	var store *cache.Cache
	var digest string
	if useCache && cfg.Cache.Enabled {
		store, err = cache.New(filepath.Join(root, cfg.Cache.Dir), true)
		if err == nil {
			digest, err = projectDigest(cfg, root, files)
		}
		if err == nil && store != nil {
			if data, ok := store.Get(cacheKey, digest); ok {
				var result deadcode.Result
				if json.Unmarshal(data, &result) == nil {
					return &result, nil
				}
			}
		}
	}

	opts := []deadcode.Option{deadcode.WithRoot(root)}
	var tracker *progress.Tracker
	if showProgress {
		tracker = progress.NewTracker("Analyzing dead code...", len(files))
		opts = append(opts, deadcode.WithProgress(tracker.Tick))
	}

	result, err := deadcode.New(cfg, opts...).Analyze(ctx, files)
	if tracker != nil {
		if err != nil {
			tracker.FinishError(err)
		} else {
			tracker.FinishSuccess()
			if cfg.Output.Verbose {
				fmt.Fprintf(os.Stderr, "Processed %d files in %s\n",
					tracker.Count(), tracker.Elapsed().Round(time.Millisecond))
			}
		}
	}
	if err != nil {
		return nil, err
	}

	if store != nil && digest != "" {
		if data, merr := json.Marshal(result); merr == nil {
			_ = store.Set(cacheKey, digest, data)
		}
	}
	return result, nil
}

const cacheKey = "analyze"

// projectDigest hashes the file set, every file's content, and the effective
// config. Any change to any of them invalidates the cached result.
func projectDigest(cfg *config.Config, root string, files []string) (string, error) {
	lines, errs := fileproc.ForEach(files, 0, func(rel string) (string, error) {
		h, err := cache.HashFile(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			return "", err
		}
		return rel + ":" + h, nil
	})
	if errs != nil {
		return "", errs
	}
	sort.Strings(lines)

	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}
	var buf []byte
	for _, line := range lines {
		buf = append(buf, line...)
		buf = append(buf, '\n')
	}
	buf = append(buf, cfgJSON...)
	return cache.HashBytes(buf), nil
}

func initCmd() *cli.Command {
	return &cli.Command{
		Name:      "init",
		Usage:     "Write a default ddd.toml config file",
		ArgsUsage: "[path]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrite an existing config file",
			},
		},
		Action: runInitCmd,
	}
}

func runInitCmd(c *cli.Context) error {
	path := filepath.Join(getPath(c), "ddd.toml")
	if _, err := os.Stat(path); err == nil && !c.Bool("force") {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	data, err := toml.Marshal(*config.DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to encode default config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	color.Green("Wrote %s", path)
	return nil
}

func watchCmd() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Watch for file changes and re-analyze",
		ArgsUsage: "[path]",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "debounce",
				Value: watch.DefaultDebounce,
				Usage: "Quiet period before a change batch triggers re-analysis",
			},
			&cli.StringFlag{
				Name:  "min-confidence",
				Usage: "Minimum confidence band to report: low, medium, high",
			},
		},
		Action: runWatchCmd,
	}
}

func runWatchCmd(c *cli.Context) error {
	root, err := filepath.Abs(getPath(c))
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}

	cfg, err := loadConfig(c, root)
	if err != nil {
		return err
	}
	cfg.Root = root

	watcher, err := watch.New(root, cfg, c.Duration("debounce"))
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Stop()

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	rerun := func() {
		result, err := analyzeProject(ctx, cfg, root, true, false)
		if err != nil {
			color.Red("Analysis error: %v", err)
			return
		}
		rep := report.New(result, cfg.Output)
		if len(rep.Findings()) == 0 {
			color.Green("No dead code at or above %s confidence", cfg.Output.MinConfidence)
			return
		}
		if err := rep.RenderCompact(os.Stdout); err != nil {
			color.Red("Output error: %v", err)
		}
	}

	watcher.SetCallback(func(changed []string) {
		color.Cyan("%d file(s) changed, re-analyzing...", len(changed))
		rerun()
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nStopping watch...")
		cancel()
	}()

	color.Cyan("Watching %s for changes (Ctrl+C to stop)", root)
	rerun()
	return watcher.Start(ctx)
}

func configCmd() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Inspect and validate configuration",
		Subcommands: []*cli.Command{
			{
				Name:      "validate",
				Usage:     "Validate the effective configuration",
				ArgsUsage: "[path]",
				Action:    runConfigValidateCmd,
			},
			{
				Name:      "show",
				Usage:     "Print the effective configuration",
				ArgsUsage: "[path]",
				Action:    runConfigShowCmd,
			},
		},
	}
}

func loadConfigResult(c *cli.Context) (*config.LoadResult, error) {
	if path := c.String("config"); path != "" {
		return config.LoadConfig(config.WithPath(path))
	}
	return config.LoadConfig(config.WithDir(getPath(c)))
}

func runConfigValidateCmd(c *cli.Context) error {
	res, err := loadConfigResult(c)
	if err != nil {
		return err
	}
	if err := res.Config.Validate(); err != nil {
		return cli.Exit(fmt.Sprintf("invalid configuration: %v", err), 1)
	}
	source := res.Source
	if source == "" {
		source = "defaults"
	}
	color.Green("Configuration valid (%s)", source)
	return nil
}

func runConfigShowCmd(c *cli.Context) error {
	res, err := loadConfigResult(c)
	if err != nil {
		return err
	}
	if err := res.Config.Validate(); err != nil {
		return err
	}

	format := output.ParseFormat(c.String("format"))
	if format == output.FormatJSON || format == output.FormatTOON {
		formatter, err := output.New(format, c.String("output"))
		if err != nil {
			return err
		}
		defer formatter.Close()
		return formatter.Output(res.Config)
	}

	data, err := toml.Marshal(*res.Config)
	if err != nil {
		return err
	}
	if res.Source != "" {
		fmt.Printf("# loaded from %s\n", res.Source)
	} else {
		fmt.Println("# defaults (no config file found)")
	}
	fmt.Print(string(data))
	return nil
}
