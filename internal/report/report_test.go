package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dean0x/diedeadcode/pkg/analyzer/deadcode"
	"github.com/dean0x/diedeadcode/pkg/config"
)

func finding(name, file string, line uint32, score uint8) deadcode.DeadSymbol {
	return deadcode.NewDeadSymbol(deadcode.Symbol{
		Name:     name,
		Kind:     deadcode.KindFunction,
		Location: deadcode.Location{File: file, Line: line, Column: 1},
	}, score, deadcode.Reason{Kind: deadcode.ReasonUnreachable})
}

func sampleResult() *deadcode.Result {
	return &deadcode.Result{
		DeadSymbols: []deadcode.DeadSymbol{
			finding("orphan", "src/a.ts", 3, 100),
			finding("maybe", "src/a.ts", 9, 65),
			finding("guess", "src/b.ts", 2, 30),
		},
		TotalSymbols: 40,
		TotalFiles:   5,
		Duration:     1500 * time.Millisecond,
	}
}

func outputConfig(minConfidence string) config.OutputConfig {
	cfg := config.DefaultConfig().Output
	cfg.MinConfidence = minConfidence
	return cfg
}

func TestSummary(t *testing.T) {
	r := New(sampleResult(), outputConfig("low"))
	s := r.Summary()

	assert.Equal(t, 3, s.Findings)
	assert.Equal(t, 1, s.High)
	assert.Equal(t, 1, s.Medium)
	assert.Equal(t, 1, s.Low)
	assert.Equal(t, 40, s.TotalSymbols)
	assert.Equal(t, 5, s.TotalFiles)
	assert.Equal(t, int64(1500), s.DurationMS)
	assert.InDelta(t, 65.0, s.MeanScore, 0.01)
	assert.InDelta(t, 65.0, s.MedianScore, 0.01)
	assert.Greater(t, s.StdDevScore, 0.0)
}

func TestMinConfidenceFilter(t *testing.T) {
	tests := []struct {
		min  string
		want int
	}{
		{"low", 3},
		{"medium", 2},
		{"high", 1},
	}
	for _, tt := range tests {
		t.Run(tt.min, func(t *testing.T) {
			r := New(sampleResult(), outputConfig(tt.min))
			assert.Len(t, r.Findings(), tt.want)
			assert.Equal(t, tt.want, r.Summary().Findings)
		})
	}
}

func TestRenderTextEmpty(t *testing.T) {
	r := New(&deadcode.Result{TotalSymbols: 10, TotalFiles: 2}, outputConfig("high"))

	var buf strings.Builder
	require.NoError(t, r.RenderText(&buf, false))
	assert.Contains(t, buf.String(), "No dead code found")
	assert.Contains(t, buf.String(), "10 symbols in 2 files")
}

func TestRenderTextGrouped(t *testing.T) {
	r := New(sampleResult(), outputConfig("low"))

	var buf strings.Builder
	require.NoError(t, r.RenderText(&buf, false))
	out := buf.String()

	assert.Contains(t, out, "src/a.ts")
	assert.Contains(t, out, "src/b.ts")
	assert.Contains(t, out, "orphan")
	assert.Contains(t, out, "3 findings (1 high, 1 medium, 1 low)")

	// Grouped output shows each file once as a heading.
	assert.Equal(t, 1, strings.Count(out, "src/b.ts"))
}

func TestRenderTextFlat(t *testing.T) {
	cfg := outputConfig("low")
	cfg.GroupByFile = false
	r := New(sampleResult(), cfg)

	var buf strings.Builder
	require.NoError(t, r.RenderText(&buf, false))
	assert.Contains(t, buf.String(), "src/a.ts:3:1")
}

func TestRenderTextVerboseWarnings(t *testing.T) {
	result := sampleResult()
	result.Warnings = []deadcode.Warning{
		{Kind: deadcode.WarnUnresolvedImport, Message: "cannot resolve './gone'"},
	}

	cfg := outputConfig("low")
	cfg.Verbose = true
	var buf strings.Builder
	require.NoError(t, New(result, cfg).RenderText(&buf, false))
	assert.Contains(t, buf.String(), "warning: cannot resolve './gone'")

	cfg.Verbose = false
	buf.Reset()
	require.NoError(t, New(result, cfg).RenderText(&buf, false))
	assert.NotContains(t, buf.String(), "warning:")
}

func TestRenderTextVerboseFactors(t *testing.T) {
	result := sampleResult()
	result.DeadSymbols[1].Factors = []deadcode.Factor{
		{Name: "exported", Delta: -10},
		{Name: "pattern_bracket_access", Delta: -20},
	}

	cfg := outputConfig("low")
	cfg.Verbose = true
	var buf strings.Builder
	require.NoError(t, New(result, cfg).RenderText(&buf, false))
	assert.Contains(t, buf.String(), "maybe: -10 exported, -20 pattern_bracket_access")

	cfg.Verbose = false
	buf.Reset()
	require.NoError(t, New(result, cfg).RenderText(&buf, false))
	assert.NotContains(t, buf.String(), "-10 exported")
}

func TestFactorText(t *testing.T) {
	got := FactorText([]deadcode.Factor{
		{Name: "type_only", Delta: 5},
		{Name: "method", Delta: -5},
	})
	assert.Equal(t, "+5 type_only, -5 method", got)
}

func TestRenderChains(t *testing.T) {
	chain := []deadcode.SymbolID{10, 11}
	dead := deadcode.NewTransitiveDeadSymbol(deadcode.Symbol{
		ID:       12,
		Name:     "leaf",
		Kind:     deadcode.KindFunction,
		Location: deadcode.Location{File: "src/a.ts", Line: 5, Column: 1},
	}, 85, chain, 10)

	result := &deadcode.Result{
		DeadSymbols: []deadcode.DeadSymbol{dead},
		ChainSymbols: map[deadcode.SymbolID]deadcode.Symbol{
			10: {ID: 10, Name: "root"},
			11: {ID: 11, Name: "middle"},
		},
	}

	var buf strings.Builder
	require.NoError(t, New(result, outputConfig("low")).RenderText(&buf, false))
	assert.Contains(t, buf.String(), "root -> middle -> leaf")
}

func TestRenderChainsTruncated(t *testing.T) {
	chain := []deadcode.SymbolID{1, 2, 3, 4}
	dead := deadcode.NewTransitiveDeadSymbol(deadcode.Symbol{
		Name:     "leaf",
		Kind:     deadcode.KindFunction,
		Location: deadcode.Location{File: "src/a.ts", Line: 5},
	}, 85, chain, 1)

	result := &deadcode.Result{
		DeadSymbols: []deadcode.DeadSymbol{dead},
		ChainSymbols: map[deadcode.SymbolID]deadcode.Symbol{
			1: {Name: "s1"}, 2: {Name: "s2"}, 3: {Name: "s3"}, 4: {Name: "s4"},
		},
	}

	cfg := outputConfig("low")
	cfg.MaxChainLength = 2
	var buf strings.Builder
	require.NoError(t, New(result, cfg).RenderText(&buf, false))
	out := buf.String()

	assert.Contains(t, out, "s1 -> s2 -> ... -> leaf")
	assert.NotContains(t, out, "s3")
}

func TestRenderChainsUnknownSymbol(t *testing.T) {
	dead := deadcode.NewTransitiveDeadSymbol(deadcode.Symbol{
		Name:     "leaf",
		Kind:     deadcode.KindFunction,
		Location: deadcode.Location{File: "src/a.ts", Line: 5},
	}, 85, []deadcode.SymbolID{42}, 42)

	result := &deadcode.Result{DeadSymbols: []deadcode.DeadSymbol{dead}}

	var buf strings.Builder
	require.NoError(t, New(result, outputConfig("low")).RenderText(&buf, false))
	assert.Contains(t, buf.String(), "#42 -> leaf")
}

func TestRenderCompact(t *testing.T) {
	r := New(sampleResult(), outputConfig("high"))

	var buf strings.Builder
	require.NoError(t, r.RenderCompact(&buf))
	assert.Equal(t, "src/a.ts:3:1: function orphan [high 100]\n", buf.String())
}

func TestRenderMarkdown(t *testing.T) {
	r := New(sampleResult(), outputConfig("low"))

	var buf strings.Builder
	require.NoError(t, r.RenderMarkdown(&buf))
	out := buf.String()

	assert.Contains(t, out, "# Dead Code Report")
	assert.Contains(t, out, "3 findings")
	assert.Contains(t, out, "| orphan |")
}

func TestRenderData(t *testing.T) {
	r := New(sampleResult(), outputConfig("low"))

	data, ok := r.RenderData().(map[string]any)
	require.True(t, ok)
	assert.Contains(t, data, "summary")
	assert.Contains(t, data, "findings")
	assert.Contains(t, data, "warnings")
}

func TestContextHash(t *testing.T) {
	f := finding("orphan", "src/a.ts", 3, 100)
	h1 := ContextHash(f)

	// Stable across line drift, sensitive to identity.
	moved := finding("orphan", "src/a.ts", 99, 100)
	assert.Equal(t, h1, ContextHash(moved))

	renamed := finding("orphan2", "src/a.ts", 3, 100)
	assert.NotEqual(t, h1, ContextHash(renamed))

	assert.Len(t, h1, 16)
}
