// Package deadcode finds unreferenced TypeScript and JavaScript symbols by
// building a project-wide reference graph and walking it from the entry
// points. Findings carry a confidence score so callers can separate safe
// deletions from guesses.
package deadcode

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dean0x/diedeadcode/internal/fileproc"
	"github.com/dean0x/diedeadcode/pkg/analyzer/frameworks"
	"github.com/dean0x/diedeadcode/pkg/config"
	"github.com/dean0x/diedeadcode/pkg/parser"
)

// Analyzer runs the dead-code pipeline: extract per file, link into a graph,
// discover entry points, walk reachability, score the remainder.
type Analyzer struct {
	cfg      *config.Config
	root     string
	registry *frameworks.Registry
	weights  Weights

	maxWorkers int
	onProgress fileproc.ProgressFunc
}

// Option is a functional option for configuring Analyzer.
type Option func(*Analyzer)

// WithRoot sets the analysis root directory. Defaults to the configured
// root, or the current directory.
func WithRoot(root string) Option {
	return func(a *Analyzer) {
		a.root = root
	}
}

// WithWeights overrides the confidence scoring parameters.
func WithWeights(w Weights) Option {
	return func(a *Analyzer) {
		a.weights = w
	}
}

// WithRegistry overrides the framework detector registry.
func WithRegistry(r *frameworks.Registry) Option {
	return func(a *Analyzer) {
		a.registry = r
	}
}

// WithMaxWorkers caps the extraction worker count.
func WithMaxWorkers(n int) Option {
	return func(a *Analyzer) {
		a.maxWorkers = n
	}
}

// WithProgress registers a callback invoked once per extracted file.
func WithProgress(fn func()) Option {
	return func(a *Analyzer) {
		a.onProgress = fn
	}
}

// New creates an analyzer for the given configuration.
func New(cfg *config.Config, opts ...Option) *Analyzer {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	a := &Analyzer{
		cfg:      cfg,
		root:     cfg.Root,
		registry: frameworks.WithBuiltins(),
		weights:  DefaultWeights(),
	}
	if a.root == "" {
		a.root = "."
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze runs the full pipeline over the given files. Paths are relative to
// the analysis root. Files that fail to read or parse are reported as
// warnings, not errors; the analysis proceeds on what it has.
func (a *Analyzer) Analyze(ctx context.Context, files []string) (*Result, error) {
	start := time.Now()

	if len(files) == 0 {
		return nil, NewConfigError("nothing to analyze", ErrNoFiles)
	}

	units, warnings, err := a.extract(ctx, files)
	if err != nil {
		return nil, err
	}

	graph, linkWarnings, err := Link(units, a.cfg.Analysis.FollowReexports)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, linkWarnings...)

	detectors := a.registry.Active(a.root, a.cfg.PluginEnabled)
	if err := DiscoverEntryPoints(graph, a.root, EntryOptions{
		Files:      a.cfg.Entry.Files,
		Patterns:   a.cfg.Entry.Patterns,
		AutoDetect: a.cfg.Entry.AutoDetect,
		Exports:    a.cfg.Entry.Exports,
		Frameworks: detectors,
	}); err != nil {
		return nil, NewConfigError("entry point discovery failed", err)
	}

	reachable := ComputeReachable(graph)
	partition := PartitionDead(graph, reachable, a.cfg.Analysis.MaxTransitiveDepth)

	result := &Result{
		TotalSymbols: countDeclarations(graph),
		TotalFiles:   len(graph.Files),
		Warnings:     append(warnings, dynamicCodeWarnings(graph)...),
	}
	result.DeadSymbols = a.score(graph, partition)
	result.ChainSymbols = chainLookup(graph, result.DeadSymbols)
	result.Duration = time.Since(start)
	return result, nil
}

// extract parses every file concurrently and runs symbol extraction on each
// tree. IDs are allocated per unit and rebased onto a single dense range in
// path order, so the same input produces the same IDs regardless of worker
// count or scheduling.
func (a *Analyzer) extract(ctx context.Context, files []string) ([]*Extraction, []Warning, error) {
	units, errs := fileproc.MapParse(ctx, files, a.maxWorkers, func(psr *parser.Parser, rel string) (*Extraction, error) {
		res, err := psr.ParseFile(filepath.Join(a.root, filepath.FromSlash(rel)))
		if err != nil {
			return nil, err
		}
		res.Path = rel
		var ids atomic.Uint32
		u := ExtractUnit(res, 0, &ids)
		u.IsTest = isTestPath(rel)
		return u, nil
	}, a.onProgress)

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	var warnings []Warning
	if errs != nil {
		for _, pe := range errs.Errors {
			warnings = append(warnings, Warning{
				Kind:    WarnParseError,
				Message: fmt.Sprintf("skipped %s: %v", pe.Path, pe.Err),
			})
		}
	}

	sort.Slice(units, func(i, j int) bool { return units[i].Path < units[j].Path })
	rebaseIDs(units)
	return units, warnings, nil
}

// rebaseIDs renumbers per-unit symbol and file IDs into one dense sequence
// following unit order. Unit-local IDs start at zero, so adding the running
// base preserves every intra-unit reference.
func rebaseIDs(units []*Extraction) {
	var next uint32
	for i, u := range units {
		base := SymbolID(next)
		u.FileID = FileID(i)
		for _, sym := range u.Symbols {
			sym.ID += base
			sym.FileID = u.FileID
		}
		for j := range u.Refs {
			u.Refs[j].From += base
		}
		u.ModuleSymbol += base
		next += uint32(len(u.Symbols))
	}
}

// isTestPath reports whether a file is a test by naming convention: .test. or
// .spec. infixes, or a __tests__ directory anywhere on the path.
func isTestPath(rel string) bool {
	rel = filepath.ToSlash(rel)
	base := path.Base(rel)
	if strings.Contains(base, ".test.") || strings.Contains(base, ".spec.") {
		return true
	}
	return strings.Contains(rel, "__tests__/")
}

// score turns the dead partition into findings, applying the configured
// symbol and type filters, and returns them ordered by file then line.
func (a *Analyzer) score(g *Graph, p DeadPartition) []DeadSymbol {
	scorer := NewScorer(g, a.weights)
	findings := make([]DeadSymbol, 0, len(p.Direct)+len(p.Transitive))

	for _, id := range p.Direct {
		sym := g.Symbols[id]
		if sym == nil || a.skip(sym) {
			continue
		}
		score, factors := scorer.ScoreDirect(sym)
		ds := NewDeadSymbol(*sym, score, reasonForDirect(sym))
		ds.Factors = factors
		findings = append(findings, ds)
	}

	for _, td := range p.Transitive {
		sym := g.Symbols[td.ID]
		if sym == nil || a.skip(sym) {
			continue
		}
		score, factors := scorer.ScoreTransitive(sym)
		ds := NewTransitiveDeadSymbol(*sym, score, td.Chain, td.Chain[0])
		ds.Factors = factors
		findings = append(findings, ds)
	}

	sort.SliceStable(findings, func(i, j int) bool {
		li, lj := findings[i].Symbol.Location, findings[j].Symbol.Location
		if li.File != lj.File {
			return li.File < lj.File
		}
		if li.Line != lj.Line {
			return li.Line < lj.Line
		}
		return li.Column < lj.Column
	})
	return findings
}

func (a *Analyzer) skip(sym *Symbol) bool {
	if !a.cfg.Analysis.IncludeTypes && sym.Kind.IsType() {
		return true
	}
	if sym.InTestFile && !a.cfg.Analysis.ReportTestOnly {
		return true
	}
	return a.cfg.ShouldIgnoreSymbol(sym.Name)
}

// chainLookup collects the symbols named by finding chains.
func chainLookup(g *Graph, findings []DeadSymbol) map[SymbolID]Symbol {
	out := make(map[SymbolID]Symbol)
	for _, f := range findings {
		for _, id := range f.Reason.Chain {
			if sym := g.Symbols[id]; sym != nil {
				out[id] = *sym
			}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// countDeclarations counts real declarations, excluding the synthetic module
// symbols the linker uses for import edges.
func countDeclarations(g *Graph) int {
	n := 0
	for _, sym := range g.Symbols {
		if sym.Kind != KindModule {
			n++
		}
	}
	return n
}

// dynamicCodeWarnings surfaces eval-family patterns, which blind the whole
// analysis rather than individual symbols.
func dynamicCodeWarnings(g *Graph) []Warning {
	var out []Warning
	for _, p := range g.DynamicPatterns {
		switch p.Kind {
		case PatternEval, PatternFunctionConstructor, PatternReflect:
			loc := p.Location
			out = append(out, Warning{
				Kind:     WarnDynamicCode,
				Message:  fmt.Sprintf("%s at %s reduces analysis confidence", p.Kind, loc),
				Location: &loc,
			})
		}
	}
	return out
}
