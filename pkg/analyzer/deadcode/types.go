package deadcode

import (
	"fmt"
	"time"
)

// SymbolID uniquely identifies a symbol within one analysis.
type SymbolID uint32

// FileID uniquely identifies a file within one analysis.
type FileID uint32

// SymbolKind classifies a tracked declaration.
type SymbolKind string

const (
	KindFunction      SymbolKind = "function"
	KindArrowFunction SymbolKind = "arrow_function"
	KindClass         SymbolKind = "class"
	KindMethod        SymbolKind = "method"
	KindVariable      SymbolKind = "variable"
	KindConstant      SymbolKind = "constant"
	KindType          SymbolKind = "type"
	KindInterface     SymbolKind = "interface"
	KindEnum          SymbolKind = "enum"
	KindEnumMember    SymbolKind = "enum_member"
	KindNamespace     SymbolKind = "namespace"
	KindModule        SymbolKind = "module"
)

// String returns the string representation.
func (k SymbolKind) String() string {
	return string(k)
}

// IsType reports whether the kind exists only in the type system.
func (k SymbolKind) IsType() bool {
	return k == KindType || k == KindInterface
}

// CanHaveSideEffects reports whether defining a symbol of this kind can run
// code at module load time.
func (k SymbolKind) CanHaveSideEffects() bool {
	return k == KindClass || k == KindVariable || k == KindConstant
}

// Location is a source position. Line and Column are 1-based.
type Location struct {
	File   string `json:"file" toon:"file"`
	Line   uint32 `json:"line" toon:"line"`
	Column uint32 `json:"column" toon:"column"`
	// Byte offsets into the source, for editor integrations.
	StartOffset uint32 `json:"start_offset" toon:"start_offset"`
	EndOffset   uint32 `json:"end_offset" toon:"end_offset"`
}

// String formats the location as path:line:column.
func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// Symbol is a tracked declaration.
type Symbol struct {
	ID       SymbolID   `json:"id" toon:"id"`
	Name     string     `json:"name" toon:"name"`
	Kind     SymbolKind `json:"kind" toon:"kind"`
	Location Location   `json:"location" toon:"location"`
	FileID   FileID     `json:"file_id" toon:"file_id"`

	// Exported from its module.
	Exported bool `json:"exported" toon:"exported"`
	// Member of the reachability root set.
	IsEntryPoint bool `json:"is_entry_point" toon:"is_entry_point"`
	// Has decorators applied.
	HasDecorators bool `json:"has_decorators" toon:"has_decorators"`
	// Definition runs observable code at module load.
	HasSideEffects bool `json:"has_side_effects" toon:"has_side_effects"`
	// Defined inside a test file.
	InTestFile bool `json:"in_test_file,omitempty" toon:"in_test_file,omitempty"`
}

// ReferenceKind classifies an edge between symbols.
type ReferenceKind string

const (
	RefCall           ReferenceKind = "call"            // foo()
	RefInstantiation  ReferenceKind = "instantiation"   // new Foo()
	RefPropertyAccess ReferenceKind = "property_access" // obj.prop
	RefTypeReference  ReferenceKind = "type_reference"  // x: Foo
	RefImport         ReferenceKind = "import"          // import { foo }
	RefExport         ReferenceKind = "export"          // export { foo }
	RefReExport       ReferenceKind = "reexport"        // export { foo } from './bar'
	RefJSXElement     ReferenceKind = "jsx_element"     // <Component />
	RefExtends        ReferenceKind = "extends"         // class Foo extends Bar
	RefImplements     ReferenceKind = "implements"      // class Foo implements Bar
	RefDecorator      ReferenceKind = "decorator"       // @decorator
)

// String returns the string representation.
func (r ReferenceKind) String() string {
	return string(r)
}

// IsTypeOnly reports whether the edge exists only in the type system and is
// erased at runtime.
func (r ReferenceKind) IsTypeOnly() bool {
	return r == RefTypeReference || r == RefImplements
}

// Reference is an edge from one symbol to another.
type Reference struct {
	From SymbolID      `json:"from" toon:"from"`
	To   SymbolID      `json:"to" toon:"to"`
	Kind ReferenceKind `json:"kind" toon:"kind"`
	// The reference target was computed dynamically (bracket notation etc).
	IsDynamic bool     `json:"is_dynamic,omitempty" toon:"is_dynamic,omitempty"`
	Location  Location `json:"location" toon:"location"`
}

// FileInfo holds per-file facts that feed confidence scoring.
type FileInfo struct {
	ID   FileID `json:"id" toon:"id"`
	Path string `json:"path" toon:"path"`
	// Top-level statements with observable effects.
	HasSideEffects bool `json:"has_side_effects" toon:"has_side_effects"`
	// eval or new Function detected anywhere in the file.
	HasDynamicEval bool `json:"has_dynamic_eval" toon:"has_dynamic_eval"`
	// Test file per the exclude patterns.
	IsTest bool `json:"is_test,omitempty" toon:"is_test,omitempty"`
	// References that could not be resolved to a symbol. Diagnostics
	// only.
	UnresolvedRefs int `json:"unresolved_refs,omitempty" toon:"unresolved_refs,omitempty"`
	// Symbols declared in this file.
	Symbols []SymbolID `json:"symbols" toon:"symbols"`
}

// DynamicPatternKind classifies constructs that weaken static analysis.
type DynamicPatternKind string

const (
	PatternBracketAccess        DynamicPatternKind = "bracket_access"   // obj[key]
	PatternEval                 DynamicPatternKind = "eval"             // eval(...)
	PatternFunctionConstructor  DynamicPatternKind = "function_ctor"    // new Function(...)
	PatternReflect              DynamicPatternKind = "reflect"          // Reflect.get/apply
	PatternObjectIteration      DynamicPatternKind = "object_iteration" // Object.keys/values/entries
	PatternStringPropertyAccess DynamicPatternKind = "string_property"  // obj["literal"]
	PatternDynamicRequire       DynamicPatternKind = "dynamic_require"  // require(expr)
	PatternDynamicImport        DynamicPatternKind = "dynamic_import"   // import(expr)
)

// String returns the string representation.
func (p DynamicPatternKind) String() string {
	return string(p)
}

// DynamicPattern is one detected dynamic construct and the symbols whose
// confidence it dents.
type DynamicPattern struct {
	Kind            DynamicPatternKind `json:"kind" toon:"kind"`
	Location        Location           `json:"location" toon:"location"`
	AffectedSymbols []SymbolID         `json:"affected_symbols,omitempty" toon:"affected_symbols,omitempty"`
}

// Graph is the project-wide reference graph used for reachability.
type Graph struct {
	Symbols         map[SymbolID]*Symbol
	References      []Reference
	EntryPoints     map[SymbolID]struct{}
	DynamicPatterns []DynamicPattern
	Files           map[FileID]*FileInfo

	incoming map[SymbolID][]SymbolID
	outgoing map[SymbolID][]SymbolID

	nextSymbolID uint32
	nextFileID   uint32
}

// NewGraph creates an empty reference graph.
func NewGraph() *Graph {
	return &Graph{
		Symbols:     make(map[SymbolID]*Symbol),
		EntryPoints: make(map[SymbolID]struct{}),
		Files:       make(map[FileID]*FileInfo),
		incoming:    make(map[SymbolID][]SymbolID),
		outgoing:    make(map[SymbolID][]SymbolID),
	}
}

// AllocSymbolID allocates the next symbol ID.
func (g *Graph) AllocSymbolID() SymbolID {
	id := SymbolID(g.nextSymbolID)
	g.nextSymbolID++
	return id
}

// AllocFileID allocates the next file ID.
func (g *Graph) AllocFileID() FileID {
	id := FileID(g.nextFileID)
	g.nextFileID++
	return id
}

// AddSymbol registers a symbol.
func (g *Graph) AddSymbol(sym *Symbol) {
	if sym.IsEntryPoint {
		g.EntryPoints[sym.ID] = struct{}{}
	}
	g.Symbols[sym.ID] = sym
}

// AddFile registers a file.
func (g *Graph) AddFile(f *FileInfo) {
	g.Files[f.ID] = f
}

// AddReference records an edge and updates both adjacency indexes.
func (g *Graph) AddReference(ref Reference) {
	g.incoming[ref.To] = append(g.incoming[ref.To], ref.From)
	g.outgoing[ref.From] = append(g.outgoing[ref.From], ref.To)
	g.References = append(g.References, ref)
}

// MarkEntryPoint adds a symbol to the root set.
func (g *Graph) MarkEntryPoint(id SymbolID) {
	g.EntryPoints[id] = struct{}{}
	if sym, ok := g.Symbols[id]; ok {
		sym.IsEntryPoint = true
	}
}

// FindExport returns the exported symbol with the given name in a file.
func (g *Graph) FindExport(fileID FileID, name string) (SymbolID, bool) {
	f, ok := g.Files[fileID]
	if !ok {
		return 0, false
	}
	for _, id := range f.Symbols {
		sym, ok := g.Symbols[id]
		if ok && sym.Exported && sym.Name == name {
			return id, true
		}
	}
	return 0, false
}

// Incoming returns the symbols that reference id.
func (g *Graph) Incoming(id SymbolID) []SymbolID {
	return g.incoming[id]
}

// Outgoing returns the symbols that id references.
func (g *Graph) Outgoing(id SymbolID) []SymbolID {
	return g.outgoing[id]
}

// SymbolCount returns the number of tracked symbols.
func (g *Graph) SymbolCount() int {
	return len(g.Symbols)
}

// ReferenceCount returns the number of edges.
func (g *Graph) ReferenceCount() int {
	return len(g.References)
}

// Confidence is the banded certainty of a dead-code finding.
type Confidence string

const (
	// ConfidenceLow marks findings dominated by dynamic patterns. Likely
	// false positives.
	ConfidenceLow Confidence = "low"
	// ConfidenceMedium marks findings with some uncertainty. Review
	// recommended.
	ConfidenceMedium Confidence = "medium"
	// ConfidenceHigh marks findings safe to act on.
	ConfidenceHigh Confidence = "high"
)

// ConfidenceFromScore maps a 0-100 score to a band. Scores of 80 and above
// are high, 50-79 medium, everything below low.
func ConfidenceFromScore(score uint8) Confidence {
	switch {
	case score >= 80:
		return ConfidenceHigh
	case score >= 50:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// MinScore returns the lowest score that maps into this band.
func (c Confidence) MinScore() uint8 {
	switch c {
	case ConfidenceHigh:
		return 80
	case ConfidenceMedium:
		return 50
	default:
		return 0
	}
}

// AtLeast reports whether c meets the given minimum band.
func (c Confidence) AtLeast(min Confidence) bool {
	return c.MinScore() >= min.MinScore()
}

// String returns the string representation.
func (c Confidence) String() string {
	return string(c)
}

// ReasonKind classifies why a symbol was declared dead.
type ReasonKind string

const (
	ReasonUnreachable  ReasonKind = "unreachable"
	ReasonTransitive   ReasonKind = "transitive"
	ReasonUnusedExport ReasonKind = "unused_export"
	ReasonUnusedType   ReasonKind = "unused_type"
)

// Reason describes why a symbol is dead.
type Reason struct {
	Kind        ReasonKind `json:"kind" toon:"kind"`
	Explanation string     `json:"explanation,omitempty" toon:"explanation,omitempty"`
	// For transitive findings, the dead callers leading here.
	Chain []SymbolID `json:"chain,omitempty" toon:"chain,omitempty"`
}

// Description returns a human-readable explanation.
func (r Reason) Description() string {
	switch r.Kind {
	case ReasonTransitive:
		return fmt.Sprintf("transitively dead via %d callers", len(r.Chain))
	case ReasonUnusedExport:
		return "exported but never imported"
	case ReasonUnusedType:
		return "type is never referenced"
	default:
		if r.Explanation != "" {
			return r.Explanation
		}
		return "not reachable from any entry point"
	}
}

// Factor is one scoring adjustment applied to a finding. Delta is the
// signed change: deductions are negative, bonuses positive.
type Factor struct {
	Name  string `json:"name" toon:"name"`
	Delta int    `json:"delta" toon:"delta"`
}

// DeadSymbol is one dead-code finding.
type DeadSymbol struct {
	Symbol     Symbol     `json:"symbol" toon:"symbol"`
	Confidence Confidence `json:"confidence" toon:"confidence"`
	// Numeric confidence score, 0-100.
	Score  uint8  `json:"score" toon:"score"`
	Reason Reason `json:"reason" toon:"reason"`
	// The adjustments that moved the score off its base, in the order
	// they were applied.
	Factors []Factor `json:"factors,omitempty" toon:"factors,omitempty"`
	// For transitive findings, the dead symbol whose deadness caused this
	// one.
	KilledBy *SymbolID `json:"killed_by,omitempty" toon:"killed_by,omitempty"`
}

// NewDeadSymbol creates a directly dead finding.
func NewDeadSymbol(sym Symbol, score uint8, reason Reason) DeadSymbol {
	return DeadSymbol{
		Symbol:     sym,
		Confidence: ConfidenceFromScore(score),
		Score:      score,
		Reason:     reason,
	}
}

// NewTransitiveDeadSymbol creates a transitively dead finding.
func NewTransitiveDeadSymbol(sym Symbol, score uint8, chain []SymbolID, killedBy SymbolID) DeadSymbol {
	return DeadSymbol{
		Symbol:     sym,
		Confidence: ConfidenceFromScore(score),
		Score:      score,
		Reason:     Reason{Kind: ReasonTransitive, Chain: chain},
		KilledBy:   &killedBy,
	}
}

// WarningKind classifies analysis warnings.
type WarningKind string

const (
	WarnDynamicCode      WarningKind = "dynamic_code_execution"
	WarnParseError       WarningKind = "parse_error"
	WarnUnresolvedImport WarningKind = "unresolved_import"
	WarnCircularDep      WarningKind = "circular_dependency"
	WarnConfig           WarningKind = "config"
)

// Warning is a non-fatal problem surfaced during analysis.
type Warning struct {
	Kind     WarningKind `json:"kind" toon:"kind"`
	Message  string      `json:"message" toon:"message"`
	Location *Location   `json:"location,omitempty" toon:"location,omitempty"`
}

// Result is the outcome of one analysis run.
type Result struct {
	DeadSymbols  []DeadSymbol  `json:"dead_symbols" toon:"dead_symbols"`
	TotalSymbols int           `json:"total_symbols" toon:"total_symbols"`
	TotalFiles   int           `json:"total_files" toon:"total_files"`
	Warnings     []Warning     `json:"warnings,omitempty" toon:"warnings,omitempty"`
	Duration     time.Duration `json:"duration_ms" toon:"duration_ms"`
	// ChainSymbols resolves the IDs appearing in finding chains, so chains
	// stay renderable after findings are filtered.
	ChainSymbols map[SymbolID]Symbol `json:"chain_symbols,omitempty" toon:"chain_symbols,omitempty"`
}

// FilterByConfidence returns findings at or above a minimum band.
func (r *Result) FilterByConfidence(min Confidence) []DeadSymbol {
	var out []DeadSymbol
	for _, d := range r.DeadSymbols {
		if d.Confidence.AtLeast(min) {
			out = append(out, d)
		}
	}
	return out
}

// CountByConfidence returns finding counts as (high, medium, low).
func (r *Result) CountByConfidence() (high, medium, low int) {
	for _, d := range r.DeadSymbols {
		switch d.Confidence {
		case ConfidenceHigh:
			high++
		case ConfidenceMedium:
			medium++
		default:
			low++
		}
	}
	return high, medium, low
}
