package deadcode

import "strings"

// Weights are the confidence scoring parameters. Scoring starts from a base
// and subtracts a deduction for every signal that weakens certainty; two
// small bonuses push clearly-safe findings up. The final score is clamped to
// [0, 100].
type Weights struct {
	// Starting score for directly dead symbols.
	DirectBase uint8
	// Starting score for transitively dead symbols.
	TransitiveBase uint8

	// Deductions.
	Decorators    int // frameworks invoke decorated symbols reflectively
	Exported      int // external packages may import it
	FileHasEval   int // eval in the file can reference anything
	GlobalDynamic int // eval anywhere in the project weakens every finding
	Transitive    int // the chain could be wrong at any link
	DefaultExport int // default exports are imported under arbitrary names
	Method        int // methods are reached via dispatch the graph may miss

	// Bonuses.
	TypeOnly         int // types are erased, no runtime surprises
	UnderscorePrefix int // naming convention for intentionally unused

	// Per-pattern deductions applied when a dynamic pattern names the
	// symbol. Every matching pattern deducts; a symbol named by several
	// patterns loses the sum.
	Patterns map[DynamicPatternKind]int
}

// DefaultWeights returns the standard scoring parameters.
func DefaultWeights() Weights {
	return Weights{
		DirectBase:       100,
		TransitiveBase:   95,
		Decorators:       20,
		Exported:         10,
		FileHasEval:      30,
		GlobalDynamic:    15,
		Transitive:       5,
		DefaultExport:    10,
		Method:           5,
		TypeOnly:         5,
		UnderscorePrefix: 5,
		Patterns: map[DynamicPatternKind]int{
			PatternEval:                 40,
			PatternFunctionConstructor:  40,
			PatternReflect:              30,
			PatternBracketAccess:        20,
			PatternStringPropertyAccess: 20,
			PatternObjectIteration:      15,
			PatternDynamicImport:        25,
			PatternDynamicRequire:       25,
		},
	}
}

// Scorer assigns confidence scores to dead-code findings.
type Scorer struct {
	weights Weights
	graph   *Graph

	// Pattern deductions per affected symbol, in pattern discovery order.
	affected map[SymbolID][]Factor
	// Some file in the project contains eval or equivalent.
	globalDynamic bool
}

// NewScorer indexes the graph's dynamic patterns for scoring.
func NewScorer(g *Graph, w Weights) *Scorer {
	s := &Scorer{
		weights:  w,
		graph:    g,
		affected: make(map[SymbolID][]Factor),
	}
	for _, p := range g.DynamicPatterns {
		weight := w.Patterns[p.Kind]
		if weight == 0 {
			continue
		}
		f := Factor{Name: "pattern_" + string(p.Kind), Delta: -weight}
		for _, id := range p.AffectedSymbols {
			s.affected[id] = append(s.affected[id], f)
		}
	}
	for _, f := range g.Files {
		if f.HasDynamicEval {
			s.globalDynamic = true
			break
		}
	}
	return s
}

// ScoreDirect scores a directly dead symbol.
func (s *Scorer) ScoreDirect(sym *Symbol) (uint8, []Factor) {
	return s.score(sym, int(s.weights.DirectBase), false)
}

// ScoreTransitive scores a transitively dead symbol.
func (s *Scorer) ScoreTransitive(sym *Symbol) (uint8, []Factor) {
	return s.score(sym, int(s.weights.TransitiveBase), true)
}

func (s *Scorer) score(sym *Symbol, base int, transitive bool) (uint8, []Factor) {
	score := base
	var factors []Factor
	apply := func(name string, delta int) {
		score += delta
		factors = append(factors, Factor{Name: name, Delta: delta})
	}

	if sym.HasDecorators {
		apply("decorators", -s.weights.Decorators)
	}
	if sym.Exported {
		apply("exported", -s.weights.Exported)
	}
	if f := s.graph.Files[sym.FileID]; f != nil && f.HasDynamicEval {
		apply("file_has_eval", -s.weights.FileHasEval)
	}
	if s.globalDynamic {
		apply("global_dynamic", -s.weights.GlobalDynamic)
	}
	if transitive {
		apply("transitive", -s.weights.Transitive)
	}
	if sym.Kind.IsType() {
		apply("type_only", s.weights.TypeOnly)
	}
	if hasUnderscorePrefix(sym.Name) {
		apply("underscore_prefix", s.weights.UnderscorePrefix)
	}
	for _, f := range s.affected[sym.ID] {
		apply(f.Name, f.Delta)
	}
	if sym.Name == "default" {
		apply("default_export", -s.weights.DefaultExport)
	}
	if sym.Kind == KindMethod {
		apply("method", -s.weights.Method)
	}

	return clampScore(score), factors
}

// hasUnderscorePrefix matches the single-underscore convention for
// intentionally unused names. Double underscores are framework territory.
func hasUnderscorePrefix(name string) bool {
	return strings.HasPrefix(name, "_") && !strings.HasPrefix(name, "__")
}

func clampScore(score int) uint8 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return uint8(score)
}

// reasonForDirect picks a reason kind from the symbol's own facts.
func reasonForDirect(sym *Symbol) Reason {
	switch {
	case sym.Exported:
		return Reason{Kind: ReasonUnusedExport}
	case sym.Kind.IsType():
		return Reason{Kind: ReasonUnusedType}
	default:
		return Reason{Kind: ReasonUnreachable}
	}
}
