// Package parser wraps tree-sitter for parsing the TypeScript/JavaScript
// module family analyzed by ddd.
package parser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Language represents a supported source dialect.
type Language string

const (
	LangTypeScript Language = "typescript"
	LangTSX        Language = "tsx"
	LangJavaScript Language = "javascript"
	LangUnknown    Language = "unknown"
)

// Parser wraps a tree-sitter parser instance. Not safe for concurrent use;
// create one per worker.
type Parser struct {
	parser *sitter.Parser
}

// ParseResult contains the parsed AST and metadata for one unit.
type ParseResult struct {
	Tree     *sitter.Tree
	Language Language
	Source   []byte
	Path     string
	// Diagnostics lists parse faults found in the tree (ERROR/MISSING
	// nodes). A non-empty list means extraction is best-effort.
	Diagnostics []Diagnostic
}

// Diagnostic is a per-unit parse fault.
type Diagnostic struct {
	Line    uint32
	Column  uint32
	Message string
}

// New creates a new parser instance.
func New() *Parser {
	return &Parser{
		parser: sitter.NewParser(),
	}
}

// ParseFile parses a source file and returns the AST.
func (p *Parser) ParseFile(path string) (*ParseResult, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	lang := DetectLanguage(path)
	if lang == LangUnknown {
		return nil, fmt.Errorf("unsupported language for file: %s", path)
	}

	return p.Parse(source, lang, path)
}

// Parse parses source code with a specified language.
func (p *Parser) Parse(source []byte, lang Language, path string) (*ParseResult, error) {
	tsLang, err := GetTreeSitterLanguage(lang)
	if err != nil {
		return nil, err
	}

	p.parser.SetLanguage(tsLang)
	tree, err := p.parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse: %w", err)
	}

	result := &ParseResult{
		Tree:     tree,
		Language: lang,
		Source:   source,
		Path:     path,
	}
	result.Diagnostics = collectDiagnostics(tree.RootNode())
	return result, nil
}

// collectDiagnostics finds ERROR and MISSING nodes in the tree. tree-sitter
// always produces a tree, so faults surface as nodes rather than a failed
// parse.
func collectDiagnostics(root *sitter.Node) []Diagnostic {
	if !root.HasError() {
		return nil
	}

	var diags []Diagnostic
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n.IsError() || n.IsMissing() {
			msg := "syntax error"
			if n.IsMissing() {
				msg = "missing " + n.Type()
			}
			diags = append(diags, Diagnostic{
				Line:    n.StartPoint().Row + 1,
				Column:  n.StartPoint().Column + 1,
				Message: msg,
			})
			return
		}
		if !n.HasError() {
			return
		}
		for i := range int(n.ChildCount()) {
			walk(n.Child(i))
		}
	}
	walk(root)
	return diags
}

// GetTreeSitterLanguage returns the tree-sitter language for a Language enum.
func GetTreeSitterLanguage(lang Language) (*sitter.Language, error) {
	switch lang {
	case LangTypeScript:
		return typescript.GetLanguage(), nil
	case LangTSX:
		return tsx.GetLanguage(), nil
	case LangJavaScript:
		return javascript.GetLanguage(), nil
	default:
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}
}

// DetectLanguage determines the language from a file path.
func DetectLanguage(path string) Language {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".ts", ".mts", ".cts":
		return LangTypeScript
	case ".tsx":
		return LangTSX
	case ".js", ".mjs", ".cjs":
		return LangJavaScript
	case ".jsx":
		return LangTSX // TSX grammar handles JSX
	default:
		return LangUnknown
	}
}

// SourceExtensions lists the extensions considered part of the analyzed
// module family, in resolution priority order.
var SourceExtensions = []string{".ts", ".tsx", ".js", ".jsx", ".mts", ".cts", ".mjs", ".cjs"}

// Close releases parser resources.
func (p *Parser) Close() {
	p.parser.Close()
}

// NodeVisitor is a function that visits AST nodes.
type NodeVisitor func(node *sitter.Node, source []byte) bool

// Walk traverses the AST calling visitor for each node. Returning false from
// the visitor prunes the subtree.
func Walk(node *sitter.Node, source []byte, visitor NodeVisitor) {
	if node == nil {
		return
	}

	if !visitor(node, source) {
		return
	}

	for i := range int(node.ChildCount()) {
		Walk(node.Child(i), source, visitor)
	}
}

// FindNodesByType returns all nodes of a specific type.
func FindNodesByType(root *sitter.Node, source []byte, nodeType string) []*sitter.Node {
	var results []*sitter.Node
	Walk(root, source, func(n *sitter.Node, _ []byte) bool {
		if n.Type() == nodeType {
			results = append(results, n)
		}
		return true
	})
	return results
}

// GetNodeText extracts the source text for a node.
// Returns empty string if node is nil or byte offsets are out of bounds.
func GetNodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	start := node.StartByte()
	end := node.EndByte()
	if start > end || end > uint32(len(source)) {
		return ""
	}
	return string(source[start:end])
}
