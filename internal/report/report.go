// Package report turns analysis results into renderable output.
package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/zeebo/blake3"
	"gonum.org/v1/gonum/stat"

	"github.com/dean0x/diedeadcode/internal/output"
	"github.com/dean0x/diedeadcode/pkg/analyzer/deadcode"
	"github.com/dean0x/diedeadcode/pkg/config"
)

// Summary aggregates one analysis run.
type Summary struct {
	TotalSymbols int     `json:"total_symbols" toon:"total_symbols"`
	TotalFiles   int     `json:"total_files" toon:"total_files"`
	Findings     int     `json:"findings" toon:"findings"`
	High         int     `json:"high" toon:"high"`
	Medium       int     `json:"medium" toon:"medium"`
	Low          int     `json:"low" toon:"low"`
	MeanScore    float64 `json:"mean_score" toon:"mean_score"`
	MedianScore  float64 `json:"median_score" toon:"median_score"`
	StdDevScore  float64 `json:"stddev_score" toon:"stddev_score"`
	DurationMS   int64   `json:"duration_ms" toon:"duration_ms"`
}

// Report renders a dead-code result per the output configuration.
type Report struct {
	result   *deadcode.Result
	cfg      config.OutputConfig
	findings []deadcode.DeadSymbol
	summary  Summary
}

// New builds a report, applying the minimum-confidence filter up front.
func New(result *deadcode.Result, cfg config.OutputConfig) *Report {
	min := deadcode.Confidence(cfg.MinConfidence)
	findings := result.FilterByConfidence(min)
	return &Report{
		result:   result,
		cfg:      cfg,
		findings: findings,
		summary:  summarize(result, findings),
	}
}

// Findings returns the filtered findings.
func (r *Report) Findings() []deadcode.DeadSymbol {
	return r.findings
}

// Summary returns the aggregate statistics.
func (r *Report) Summary() Summary {
	return r.summary
}

func summarize(result *deadcode.Result, findings []deadcode.DeadSymbol) Summary {
	s := Summary{
		TotalSymbols: result.TotalSymbols,
		TotalFiles:   result.TotalFiles,
		Findings:     len(findings),
		DurationMS:   result.Duration.Milliseconds(),
	}

	scores := make([]float64, 0, len(findings))
	for _, f := range findings {
		scores = append(scores, float64(f.Score))
		switch f.Confidence {
		case deadcode.ConfidenceHigh:
			s.High++
		case deadcode.ConfidenceMedium:
			s.Medium++
		default:
			s.Low++
		}
	}
	if len(scores) > 0 {
		sort.Float64s(scores)
		s.MeanScore = stat.Mean(scores, nil)
		s.MedianScore = stat.Quantile(0.5, stat.Empirical, scores, nil)
		s.StdDevScore = stat.StdDev(scores, nil)
	}
	return s
}

// ContextHash returns a short stable identifier for a finding, usable for
// suppression lists that survive line drift within a file.
func ContextHash(f deadcode.DeadSymbol) string {
	data := f.Symbol.Name + ":" + f.Symbol.Location.File + ":" + string(f.Symbol.Kind)
	sum := blake3.Sum256([]byte(data))
	return fmt.Sprintf("%x", sum[:8])
}

// RenderData returns the structured payload for JSON and TOON output.
func (r *Report) RenderData() any {
	type finding struct {
		deadcode.DeadSymbol
		ContextHash string `json:"context_hash" toon:"context_hash"`
	}
	findings := make([]finding, len(r.findings))
	for i, f := range r.findings {
		findings[i] = finding{DeadSymbol: f, ContextHash: ContextHash(f)}
	}
	return map[string]any{
		"summary":  r.summary,
		"findings": findings,
		"warnings": r.result.Warnings,
	}
}

// RenderText writes the table format.
func (r *Report) RenderText(w io.Writer, colored bool) error {
	if len(r.findings) == 0 {
		fmt.Fprintf(w, "No dead code found at %s confidence or above (%d symbols in %d files, %dms)\n",
			r.cfg.MinConfidence, r.summary.TotalSymbols, r.summary.TotalFiles, r.summary.DurationMS)
		return nil
	}

	if r.cfg.GroupByFile {
		r.renderGrouped(w, colored)
	} else {
		r.renderFlat(w, colored)
	}

	if r.cfg.Verbose {
		r.renderFactors(w)
	}

	fmt.Fprintf(w, "%d findings (%d high, %d medium, %d low) across %d symbols in %d files, %dms\n",
		r.summary.Findings, r.summary.High, r.summary.Medium, r.summary.Low,
		r.summary.TotalSymbols, r.summary.TotalFiles, r.summary.DurationMS)

	if r.cfg.Verbose && len(r.result.Warnings) > 0 {
		fmt.Fprintln(w)
		for _, warn := range r.result.Warnings {
			fmt.Fprintf(w, "warning: %s\n", warn.Message)
		}
	}
	return nil
}

func (r *Report) renderFlat(w io.Writer, colored bool) {
	table := &output.Table{
		Headers: []string{"Location", "Symbol", "Kind", "Confidence", "Score", "Reason"},
		Rows:    make([][]string, 0, len(r.findings)),
	}
	for _, f := range r.findings {
		table.Rows = append(table.Rows, r.row(f, colored))
	}
	_ = table.RenderText(w, colored)
	r.renderChains(w, colored)
}

func (r *Report) renderGrouped(w io.Writer, colored bool) {
	byFile := make(map[string][]deadcode.DeadSymbol)
	var files []string
	for _, f := range r.findings {
		file := f.Symbol.Location.File
		if _, ok := byFile[file]; !ok {
			files = append(files, file)
		}
		byFile[file] = append(byFile[file], f)
	}

	for _, file := range files {
		if colored {
			color.New(color.Bold).Fprintln(w, file)
		} else {
			fmt.Fprintln(w, file)
		}
		table := &output.Table{
			Headers: []string{"Line", "Symbol", "Kind", "Confidence", "Score", "Reason"},
		}
		for _, f := range byFile[file] {
			row := r.row(f, colored)
			row[0] = strconv.Itoa(int(f.Symbol.Location.Line))
			table.Rows = append(table.Rows, row)
		}
		_ = table.RenderText(w, colored)
	}
	r.renderChains(w, colored)
}

func (r *Report) row(f deadcode.DeadSymbol, colored bool) []string {
	confidence := string(f.Confidence)
	if colored {
		confidence = output.ConfidenceColor(string(f.Confidence), confidence)
	}
	return []string{
		f.Symbol.Location.String(),
		f.Symbol.Name,
		string(f.Symbol.Kind),
		confidence,
		strconv.Itoa(int(f.Score)),
		f.Reason.Description(),
	}
}

func (r *Report) renderChains(w io.Writer, colored bool) {
	if !r.cfg.ShowChains {
		return
	}
	for _, f := range r.findings {
		if len(f.Reason.Chain) == 0 {
			continue
		}
		fmt.Fprintf(w, "  %s: %s\n", f.Symbol.Name, r.chainText(f))
	}
	fmt.Fprintln(w)
}

// chainText formats the dead-referencer path, truncated to the configured
// length.
func (r *Report) chainText(f deadcode.DeadSymbol) string {
	chain := f.Reason.Chain
	truncated := false
	if r.cfg.MaxChainLength > 0 && len(chain) > r.cfg.MaxChainLength {
		chain = chain[:r.cfg.MaxChainLength]
		truncated = true
	}

	parts := make([]string, 0, len(chain)+1)
	for _, id := range chain {
		parts = append(parts, r.symbolLabel(id))
	}
	if truncated {
		parts = append(parts, "...")
	}
	parts = append(parts, f.Symbol.Name)
	return strings.Join(parts, " -> ")
}

// renderFactors prints the score adjustments behind each finding.
func (r *Report) renderFactors(w io.Writer) {
	wrote := false
	for _, f := range r.findings {
		if len(f.Factors) == 0 {
			continue
		}
		fmt.Fprintf(w, "  %s: %s\n", f.Symbol.Name, FactorText(f.Factors))
		wrote = true
	}
	if wrote {
		fmt.Fprintln(w)
	}
}

// FactorText joins factors into a "+5 type_only, -10 exported" string.
func FactorText(factors []deadcode.Factor) string {
	parts := make([]string, 0, len(factors))
	for _, f := range factors {
		parts = append(parts, fmt.Sprintf("%+d %s", f.Delta, f.Name))
	}
	return strings.Join(parts, ", ")
}

func (r *Report) symbolLabel(id deadcode.SymbolID) string {
	if sym, ok := r.result.ChainSymbols[id]; ok {
		return sym.Name
	}
	return fmt.Sprintf("#%d", id)
}

// RenderCompact writes one finding per line in file:line:col form.
func (r *Report) RenderCompact(w io.Writer) error {
	for _, f := range r.findings {
		fmt.Fprintf(w, "%s: %s %s [%s %d]\n",
			f.Symbol.Location, f.Symbol.Kind, f.Symbol.Name, f.Confidence, f.Score)
	}
	return nil
}

// RenderMarkdown writes the markdown format.
func (r *Report) RenderMarkdown(w io.Writer) error {
	fmt.Fprintln(w, "# Dead Code Report")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%d findings (%d high, %d medium, %d low) across %d symbols in %d files.\n\n",
		r.summary.Findings, r.summary.High, r.summary.Medium, r.summary.Low,
		r.summary.TotalSymbols, r.summary.TotalFiles)

	if len(r.findings) == 0 {
		return nil
	}

	table := &output.Table{
		Headers: []string{"Location", "Symbol", "Kind", "Confidence", "Score", "Reason"},
	}
	for _, f := range r.findings {
		table.Rows = append(table.Rows, r.row(f, false))
	}
	if err := table.RenderMarkdown(w); err != nil {
		return err
	}

	if r.cfg.ShowChains {
		wrote := false
		for _, f := range r.findings {
			if len(f.Reason.Chain) == 0 {
				continue
			}
			if !wrote {
				fmt.Fprintln(w, "## Chains")
				fmt.Fprintln(w)
				wrote = true
			}
			fmt.Fprintf(w, "- `%s`: %s\n", f.Symbol.Name, r.chainText(f))
		}
		if wrote {
			fmt.Fprintln(w)
		}
	}
	return nil
}
