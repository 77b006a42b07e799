package deadcode

import (
	"strings"
	"sync/atomic"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/dean0x/diedeadcode/pkg/parser"
)

// NameRef is a not-yet-resolved reference recorded during extraction. The
// resolver turns these into graph edges once all units are known.
type NameRef struct {
	From      SymbolID
	Name      string
	Kind      ReferenceKind
	IsDynamic bool
	Location  Location
}

// ImportRecord is one imported binding.
type ImportRecord struct {
	// Module specifier as written: './foo', 'lodash'.
	Specifier string
	// Name in the source module: an identifier, "default", or "*".
	Imported string
	// Local binding name.
	Local     string
	IsDynamic bool
	Location  Location
}

// ReExportRecord is one re-exported binding: export { a as b } from './c'.
type ReExportRecord struct {
	Specifier string
	// Name in the source module, "*" for star re-exports.
	Imported string
	// Name this module exposes it as, "*" for export *.
	Exported string
	Location Location
}

// rawPattern is a dynamic pattern before symbol names are resolved to IDs.
type rawPattern struct {
	Kind          DynamicPatternKind
	Location      Location
	AffectedNames []string
}

// Extraction is the per-unit result of the parse phase.
type Extraction struct {
	FileID FileID
	Path   string

	Symbols   []*Symbol
	Refs      []NameRef
	Imports   []ImportRecord
	ReExports []ReExportRecord

	// Synthetic symbol standing for the unit's top-level code.
	ModuleSymbol SymbolID
	// Name of the default export when it is a named declaration. The
	// linker aliases "default" to this name so importers resolve.
	DefaultExportName string

	HasSideEffects bool
	HasDynamicEval bool
	IsTest         bool

	patterns    []rawPattern
	Diagnostics []parser.Diagnostic
}

// extractor walks one parsed unit.
type extractor struct {
	out     *Extraction
	source  []byte
	path    string
	idAlloc *atomic.Uint32
	// Name of the symbol whose body is being walked. References found are
	// attributed to it.
	from SymbolID
}

// ExtractUnit builds the symbol table and raw references for one parsed file.
// IDs are allocated densely from the counter's current value; callers rebase
// them when merging units.
func ExtractUnit(res *parser.ParseResult, fileID FileID, idAlloc *atomic.Uint32) *Extraction {
	out := &Extraction{
		FileID:      fileID,
		Path:        res.Path,
		Diagnostics: res.Diagnostics,
	}

	e := &extractor{
		out:     out,
		source:  res.Source,
		path:    res.Path,
		idAlloc: idAlloc,
	}

	// Synthetic module symbol owns top-level references.
	mod := e.newSymbol(res.Path, KindModule, res.Tree.RootNode(), false)
	out.ModuleSymbol = mod.ID
	e.from = mod.ID

	root := res.Tree.RootNode()
	for i := range int(root.ChildCount()) {
		e.statement(root.Child(i), false)
	}

	return out
}

func (e *extractor) alloc() SymbolID {
	return SymbolID(e.idAlloc.Add(1) - 1)
}

func (e *extractor) loc(n *sitter.Node) Location {
	return Location{
		File:        e.path,
		Line:        n.StartPoint().Row + 1,
		Column:      n.StartPoint().Column + 1,
		StartOffset: n.StartByte(),
		EndOffset:   n.EndByte(),
	}
}

func (e *extractor) text(n *sitter.Node) string {
	return parser.GetNodeText(n, e.source)
}

func (e *extractor) newSymbol(name string, kind SymbolKind, at *sitter.Node, exported bool) *Symbol {
	sym := &Symbol{
		ID:       e.alloc(),
		Name:     name,
		Kind:     kind,
		Location: e.loc(at),
		FileID:   e.out.FileID,
		Exported: exported,
	}
	e.out.Symbols = append(e.out.Symbols, sym)
	return sym
}

func (e *extractor) ref(name string, kind ReferenceKind, at *sitter.Node) {
	if name == "" || tsBuiltins[name] {
		return
	}
	e.out.Refs = append(e.out.Refs, NameRef{
		From:     e.from,
		Name:     name,
		Kind:     kind,
		Location: e.loc(at),
	})
}

func (e *extractor) pattern(kind DynamicPatternKind, at *sitter.Node, names ...string) {
	e.out.patterns = append(e.out.patterns, rawPattern{
		Kind:          kind,
		Location:      e.loc(at),
		AffectedNames: names,
	})
}

// statement handles one top-level or namespace-level statement.
func (e *extractor) statement(n *sitter.Node, exported bool) {
	switch n.Type() {
	case "function_declaration", "generator_function_declaration":
		e.functionDecl(n, exported)

	case "class_declaration", "abstract_class_declaration":
		e.classDecl(n, exported)

	case "lexical_declaration", "variable_declaration":
		e.variableDecl(n, exported)

	case "type_alias_declaration":
		if name := n.ChildByFieldName("name"); name != nil {
			prev := e.pushFrom(e.newSymbol(e.text(name), KindType, name, exported).ID)
			e.walkType(n)
			e.from = prev
		}

	case "interface_declaration":
		if name := n.ChildByFieldName("name"); name != nil {
			prev := e.pushFrom(e.newSymbol(e.text(name), KindInterface, name, exported).ID)
			e.walkType(n)
			e.from = prev
		}

	case "enum_declaration":
		e.enumDecl(n, exported)

	case "internal_module", "module":
		e.namespaceDecl(n, exported)

	case "export_statement":
		e.exportStatement(n)

	case "import_statement":
		e.importStatement(n)

	case "expression_statement":
		// The grammar wraps `namespace X {}` in an expression statement.
		if child := n.NamedChild(0); child != nil && (child.Type() == "internal_module" || child.Type() == "module") {
			e.namespaceDecl(child, exported)
			return
		}
		e.topLevelExpression(n)

	case "ambient_declaration":
		for i := range int(n.NamedChildCount()) {
			e.statement(n.NamedChild(i), exported)
		}

	default:
		// if/for/try at top level and anything else: the code runs at
		// module load.
		if n.IsNamed() && isExecutableStatement(n.Type()) {
			e.out.HasSideEffects = true
			e.walkExpr(n)
		}
	}
}

func isExecutableStatement(t string) bool {
	switch t {
	case "if_statement", "for_statement", "for_in_statement", "while_statement",
		"do_statement", "try_statement", "switch_statement", "throw_statement",
		"labeled_statement", "with_statement":
		return true
	}
	return false
}

func (e *extractor) pushFrom(id SymbolID) SymbolID {
	prev := e.from
	e.from = id
	return prev
}

func (e *extractor) functionDecl(n *sitter.Node, exported bool) {
	name := n.ChildByFieldName("name")
	if name == nil {
		return
	}
	sym := e.newSymbol(e.text(name), KindFunction, name, exported)
	if body := n.ChildByFieldName("body"); body != nil {
		prev := e.pushFrom(sym.ID)
		e.walkExpr(body)
		e.from = prev
	}
	e.paramTypes(n, sym.ID)
}

// paramTypes records type references from a function's signature.
func (e *extractor) paramTypes(n *sitter.Node, from SymbolID) {
	prev := e.pushFrom(from)
	defer func() { e.from = prev }()
	if params := n.ChildByFieldName("parameters"); params != nil {
		e.walkType(params)
	}
	if ret := n.ChildByFieldName("return_type"); ret != nil {
		e.walkType(ret)
	}
}

func (e *extractor) classDecl(n *sitter.Node, exported bool) {
	name := n.ChildByFieldName("name")
	if name == nil {
		return
	}
	sym := e.newSymbol(e.text(name), KindClass, name, exported)
	sym.HasDecorators = e.leadingDecorators(n, sym.ID)
	// Decorators on an exported class attach to the export statement.
	if p := n.Parent(); p != nil && p.Type() == "export_statement" && e.leadingDecorators(p, sym.ID) {
		sym.HasDecorators = true
	}

	prev := e.pushFrom(sym.ID)
	defer func() { e.from = prev }()

	// extends / implements
	for i := range int(n.ChildCount()) {
		child := n.Child(i)
		if child.Type() != "class_heritage" {
			continue
		}
		for j := range int(child.NamedChildCount()) {
			clause := child.NamedChild(j)
			switch clause.Type() {
			case "extends_clause":
				for k := range int(clause.NamedChildCount()) {
					v := clause.NamedChild(k)
					if v.Type() == "identifier" {
						e.ref(e.text(v), RefExtends, v)
					}
				}
			case "implements_clause":
				for k := range int(clause.NamedChildCount()) {
					v := clause.NamedChild(k)
					if v.Type() == "type_identifier" {
						e.ref(e.text(v), RefImplements, v)
					}
				}
			}
		}
	}

	body := n.ChildByFieldName("body")
	if body == nil {
		return
	}
	for i := range int(body.NamedChildCount()) {
		member := body.NamedChild(i)
		switch member.Type() {
		case "method_definition":
			mname := member.ChildByFieldName("name")
			if mname == nil {
				continue
			}
			method := e.newSymbol(e.text(mname), KindMethod, mname, sym.Exported)
			method.HasDecorators = e.leadingDecorators(member, method.ID)
			// The constructor runs whenever the class is
			// instantiated, so tie it to the class.
			if e.text(mname) == "constructor" {
				e.out.Refs = append(e.out.Refs, NameRef{
					From:     sym.ID,
					Name:     method.Name,
					Kind:     RefCall,
					Location: method.Location,
				})
			}
			if mbody := member.ChildByFieldName("body"); mbody != nil {
				mprev := e.pushFrom(method.ID)
				e.walkExpr(mbody)
				e.from = mprev
			}
			e.paramTypes(member, method.ID)
		case "public_field_definition":
			// Field initializers run at construction, attributed to
			// the class.
			if value := member.ChildByFieldName("value"); value != nil {
				e.walkExpr(value)
			}
			if t := member.ChildByFieldName("type"); t != nil {
				e.walkType(t)
			}
		}
	}
}

// leadingDecorators records decorator references attached to a declaration
// node and reports whether any were found.
func (e *extractor) leadingDecorators(n *sitter.Node, owner SymbolID) bool {
	found := false
	for i := range int(n.ChildCount()) {
		child := n.Child(i)
		if child.Type() != "decorator" {
			continue
		}
		found = true
		prev := e.pushFrom(owner)
		for j := range int(child.NamedChildCount()) {
			expr := child.NamedChild(j)
			switch expr.Type() {
			case "identifier":
				e.ref(e.text(expr), RefDecorator, expr)
			case "call_expression":
				if fn := expr.ChildByFieldName("function"); fn != nil && fn.Type() == "identifier" {
					e.ref(e.text(fn), RefDecorator, fn)
				}
				if args := expr.ChildByFieldName("arguments"); args != nil {
					e.walkExpr(args)
				}
			}
		}
		e.from = prev
	}
	return found
}

func (e *extractor) variableDecl(n *sitter.Node, exported bool) {
	isConst := strings.HasPrefix(e.text(n), "const")
	for i := range int(n.NamedChildCount()) {
		decl := n.NamedChild(i)
		if decl.Type() != "variable_declarator" {
			continue
		}
		name := decl.ChildByFieldName("name")
		value := decl.ChildByFieldName("value")

		kind := KindVariable
		if isConst {
			kind = KindConstant
		}
		if value != nil && isFunctionValue(value.Type()) {
			kind = KindArrowFunction
		}

		switch {
		case name == nil:
		case name.Type() == "identifier":
			sym := e.newSymbol(e.text(name), kind, name, exported)
			if value != nil {
				prev := e.pushFrom(sym.ID)
				e.walkExpr(value)
				e.from = prev
			}
			if t := decl.ChildByFieldName("type"); t != nil {
				prev := e.pushFrom(sym.ID)
				e.walkType(t)
				e.from = prev
			}
		default:
			// Destructuring: bind every identifier in the pattern.
			e.bindPattern(name, kind, exported)
			if value != nil {
				e.walkExpr(value)
			}
		}

		// A module-level initializer that calls code runs at load.
		if value != nil && e.from == e.out.ModuleSymbol && expressionHasSideEffects(value.Type()) {
			e.out.HasSideEffects = true
		}
	}
}

func isFunctionValue(t string) bool {
	return t == "arrow_function" || t == "function_expression" || t == "function" ||
		t == "generator_function"
}

func expressionHasSideEffects(t string) bool {
	switch t {
	case "call_expression", "new_expression", "assignment_expression",
		"update_expression", "await_expression", "yield_expression":
		return true
	}
	return false
}

// bindPattern declares a symbol for every identifier in a destructuring
// pattern.
func (e *extractor) bindPattern(n *sitter.Node, kind SymbolKind, exported bool) {
	switch n.Type() {
	case "identifier", "shorthand_property_identifier_pattern":
		e.newSymbol(e.text(n), kind, n, exported)
	case "object_pattern", "array_pattern", "pair_pattern", "rest_pattern", "assignment_pattern":
		for i := range int(n.NamedChildCount()) {
			e.bindPattern(n.NamedChild(i), kind, exported)
		}
	}
}

func (e *extractor) enumDecl(n *sitter.Node, exported bool) {
	name := n.ChildByFieldName("name")
	if name == nil {
		return
	}
	e.newSymbol(e.text(name), KindEnum, name, exported)

	body := n.ChildByFieldName("body")
	if body == nil {
		return
	}
	for i := range int(body.NamedChildCount()) {
		member := body.NamedChild(i)
		switch member.Type() {
		case "property_identifier":
			e.newSymbol(e.text(member), KindEnumMember, member, exported)
		case "enum_assignment":
			if mname := member.ChildByFieldName("name"); mname != nil {
				e.newSymbol(e.text(mname), KindEnumMember, mname, exported)
			}
		}
	}
}

func (e *extractor) namespaceDecl(n *sitter.Node, exported bool) {
	name := n.ChildByFieldName("name")
	if name == nil {
		return
	}
	e.newSymbol(strings.Trim(e.text(name), `"'`), KindNamespace, name, exported)

	if body := n.ChildByFieldName("body"); body != nil {
		for i := range int(body.NamedChildCount()) {
			e.statement(body.NamedChild(i), false)
		}
	}
}

func (e *extractor) exportStatement(n *sitter.Node) {
	source := n.ChildByFieldName("source")

	// export default <declaration|expression>
	if hasDefaultKeyword(n) {
		e.exportDefault(n)
		return
	}

	// export <declaration>
	if decl := n.ChildByFieldName("declaration"); decl != nil {
		e.statement(decl, true)
		return
	}

	// export { a, b as c } [from './x']  /  export * from './x'  /
	// export * as ns from './x'
	for i := range int(n.NamedChildCount()) {
		child := n.NamedChild(i)
		switch child.Type() {
		case "export_clause":
			for j := range int(child.NamedChildCount()) {
				spec := child.NamedChild(j)
				if spec.Type() != "export_specifier" {
					continue
				}
				local := spec.ChildByFieldName("name")
				alias := spec.ChildByFieldName("alias")
				if local == nil {
					continue
				}
				exportedAs := e.text(local)
				if alias != nil {
					exportedAs = e.text(alias)
				}
				if source != nil {
					e.out.ReExports = append(e.out.ReExports, ReExportRecord{
						Specifier: trimSpecifier(e.text(source)),
						Imported:  e.text(local),
						Exported:  exportedAs,
						Location:  e.loc(spec),
					})
				} else {
					// export { foo }: marks a local symbol
					// exported, resolved after extraction.
					e.ref(e.text(local), RefExport, spec)
				}
			}
		case "namespace_export":
			// export * as ns from './x'
			exportedAs := "*"
			for j := range int(child.NamedChildCount()) {
				if id := child.NamedChild(j); id.Type() == "identifier" || id.Type() == "module_export_name" {
					exportedAs = e.text(id)
				}
			}
			if source != nil {
				e.out.ReExports = append(e.out.ReExports, ReExportRecord{
					Specifier: trimSpecifier(e.text(source)),
					Imported:  "*",
					Exported:  exportedAs,
					Location:  e.loc(child),
				})
			}
		}
	}

	// export * from './x' has a source but no clause.
	if source != nil && !hasNamedChildOfType(n, "export_clause") && !hasNamedChildOfType(n, "namespace_export") {
		e.out.ReExports = append(e.out.ReExports, ReExportRecord{
			Specifier: trimSpecifier(e.text(source)),
			Imported:  "*",
			Exported:  "*",
			Location:  e.loc(n),
		})
	}
}

func (e *extractor) exportDefault(n *sitter.Node) {
	if decl := n.ChildByFieldName("declaration"); decl != nil {
		switch decl.Type() {
		case "function_declaration", "generator_function_declaration":
			if name := decl.ChildByFieldName("name"); name != nil {
				e.out.DefaultExportName = e.text(name)
				e.functionDecl(decl, true)
			} else {
				sym := e.newSymbol("default", KindFunction, decl, true)
				if body := decl.ChildByFieldName("body"); body != nil {
					prev := e.pushFrom(sym.ID)
					e.walkExpr(body)
					e.from = prev
				}
			}
		case "class_declaration":
			if name := decl.ChildByFieldName("name"); name != nil {
				e.out.DefaultExportName = e.text(name)
				e.classDecl(decl, true)
			} else {
				e.newSymbol("default", KindClass, decl, true)
			}
		default:
			e.statement(decl, true)
		}
		return
	}
	if value := n.ChildByFieldName("value"); value != nil {
		// export default <expression>: references the expression from
		// the module symbol and exposes it as "default".
		sym := e.newSymbol("default", kindForValue(value.Type()), value, true)
		prev := e.pushFrom(sym.ID)
		e.walkExpr(value)
		e.from = prev
	}
}

func kindForValue(t string) SymbolKind {
	switch t {
	case "arrow_function":
		return KindArrowFunction
	case "function_expression", "function", "generator_function":
		return KindFunction
	case "class", "class_expression":
		return KindClass
	default:
		return KindConstant
	}
}

func hasDefaultKeyword(n *sitter.Node) bool {
	for i := range int(n.ChildCount()) {
		if n.Child(i).Type() == "default" {
			return true
		}
	}
	return false
}

func hasNamedChildOfType(n *sitter.Node, t string) bool {
	for i := range int(n.NamedChildCount()) {
		if n.NamedChild(i).Type() == t {
			return true
		}
	}
	return false
}

func trimSpecifier(s string) string {
	return strings.Trim(s, "\"'`")
}

func (e *extractor) importStatement(n *sitter.Node) {
	source := n.ChildByFieldName("source")
	if source == nil {
		return
	}
	spec := trimSpecifier(e.text(source))

	for i := range int(n.NamedChildCount()) {
		clause := n.NamedChild(i)
		if clause.Type() != "import_clause" {
			continue
		}
		for j := range int(clause.NamedChildCount()) {
			item := clause.NamedChild(j)
			switch item.Type() {
			case "identifier":
				// import foo from './bar'
				e.out.Imports = append(e.out.Imports, ImportRecord{
					Specifier: spec,
					Imported:  "default",
					Local:     e.text(item),
					Location:  e.loc(item),
				})
			case "namespace_import":
				// import * as foo from './bar'
				local := ""
				for k := range int(item.NamedChildCount()) {
					if id := item.NamedChild(k); id.Type() == "identifier" {
						local = e.text(id)
					}
				}
				e.out.Imports = append(e.out.Imports, ImportRecord{
					Specifier: spec,
					Imported:  "*",
					Local:     local,
					Location:  e.loc(item),
				})
			case "named_imports":
				for k := range int(item.NamedChildCount()) {
					is := item.NamedChild(k)
					if is.Type() != "import_specifier" {
						continue
					}
					name := is.ChildByFieldName("name")
					alias := is.ChildByFieldName("alias")
					if name == nil {
						continue
					}
					local := e.text(name)
					if alias != nil {
						local = e.text(alias)
					}
					e.out.Imports = append(e.out.Imports, ImportRecord{
						Specifier: spec,
						Imported:  e.text(name),
						Local:     local,
						Location:  e.loc(is),
					})
				}
			}
		}
	}

	// Bare side-effect import: import './polyfill'. Recorded as a star
	// import so the target module's top level stays live.
	if !hasNamedChildOfType(n, "import_clause") {
		e.out.Imports = append(e.out.Imports, ImportRecord{
			Specifier: spec,
			Imported:  "*",
			Local:     "",
			Location:  e.loc(n),
		})
	}
}

func (e *extractor) topLevelExpression(n *sitter.Node) {
	// A bare string at the top is a directive like "use strict", not a
	// side effect.
	if n.NamedChildCount() == 1 {
		t := n.NamedChild(0).Type()
		if t == "string" {
			return
		}
		if expressionHasSideEffects(t) {
			e.out.HasSideEffects = true
		}
	}
	e.walkExpr(n)
}

// walkExpr collects references and dynamic patterns from an expression or
// statement subtree. Nested function declarations are walked in place, their
// references attributed to the enclosing symbol.
func (e *extractor) walkExpr(n *sitter.Node) {
	switch n.Type() {
	case "call_expression":
		e.callExpression(n)
		return

	case "new_expression":
		if ctor := n.ChildByFieldName("constructor"); ctor != nil {
			if ctor.Type() == "identifier" {
				name := e.text(ctor)
				if name == "Function" {
					e.out.HasDynamicEval = true
					e.pattern(PatternFunctionConstructor, n)
				} else {
					e.ref(name, RefInstantiation, ctor)
				}
			} else {
				e.walkExpr(ctor)
			}
		}
		if args := n.ChildByFieldName("arguments"); args != nil {
			e.walkExpr(args)
		}
		if ta := n.ChildByFieldName("type_arguments"); ta != nil {
			e.walkType(ta)
		}
		return

	case "member_expression":
		if obj := n.ChildByFieldName("object"); obj != nil {
			if obj.Type() == "identifier" {
				e.ref(e.text(obj), RefPropertyAccess, obj)
			} else {
				e.walkExpr(obj)
			}
		}
		// Property names resolve against method symbols later.
		if prop := n.ChildByFieldName("property"); prop != nil {
			e.ref(e.text(prop), RefPropertyAccess, prop)
		}
		return

	case "subscript_expression":
		obj := n.ChildByFieldName("object")
		index := n.ChildByFieldName("index")
		var objName string
		if obj != nil && obj.Type() == "identifier" {
			objName = e.text(obj)
			e.ref(objName, RefPropertyAccess, obj)
		} else if obj != nil {
			e.walkExpr(obj)
		}
		if index != nil {
			switch index.Type() {
			case "string":
				// obj["name"] references the named property.
				name := trimSpecifier(e.text(index))
				e.ref(name, RefPropertyAccess, index)
				e.pattern(PatternStringPropertyAccess, n, name)
			case "number":
			default:
				if objName != "" {
					e.pattern(PatternBracketAccess, n, objName)
				} else {
					e.pattern(PatternBracketAccess, n)
				}
				e.walkExpr(index)
			}
		}
		return

	case "jsx_opening_element", "jsx_self_closing_element":
		if name := n.ChildByFieldName("name"); name != nil {
			tag := e.text(name)
			// Only capitalized tags are components.
			if tag != "" && tag[0] >= 'A' && tag[0] <= 'Z' {
				e.ref(tag, RefJSXElement, name)
			}
		}
		for i := range int(n.NamedChildCount()) {
			child := n.NamedChild(i)
			if child.Type() == "jsx_attribute" || child.Type() == "jsx_expression" {
				e.walkExpr(child)
			}
		}
		return

	case "identifier":
		// Bare value use: passing a function around, assigning it, etc.
		e.ref(e.text(n), RefCall, n)
		return

	case "type_annotation", "type_arguments", "satisfies_expression", "as_expression":
		e.walkType(n)
		return

	case "function_declaration", "generator_function_declaration":
		// Nested declaration: no separate symbol, body belongs to the
		// enclosing scope's owner.
		if body := n.ChildByFieldName("body"); body != nil {
			e.walkExpr(body)
		}
		return

	case "comment", "string", "template_string", "number", "regex",
		"property_identifier", "shorthand_property_identifier":
		if n.Type() == "template_string" {
			break // template substitutions contain expressions
		}
		return
	}

	for i := range int(n.NamedChildCount()) {
		e.walkExpr(n.NamedChild(i))
	}
}

func (e *extractor) callExpression(n *sitter.Node) {
	fn := n.ChildByFieldName("function")
	args := n.ChildByFieldName("arguments")

	if fn != nil {
		switch fn.Type() {
		case "identifier":
			name := e.text(fn)
			switch name {
			case "eval":
				e.out.HasDynamicEval = true
				e.pattern(PatternEval, n)
			case "Function":
				e.out.HasDynamicEval = true
				e.pattern(PatternFunctionConstructor, n)
			case "require":
				e.requireCall(n, args)
			default:
				e.ref(name, RefCall, fn)
			}
		case "import":
			e.dynamicImport(n, args)
		case "member_expression":
			e.memberCall(n, fn)
		default:
			e.walkExpr(fn)
		}
	}

	if args != nil {
		e.walkExpr(args)
	}
	if ta := n.ChildByFieldName("type_arguments"); ta != nil {
		e.walkType(ta)
	}
}

// memberCall handles obj.method(...) callees, including the Reflect and
// Object.keys families.
func (e *extractor) memberCall(call, fn *sitter.Node) {
	obj := fn.ChildByFieldName("object")
	prop := fn.ChildByFieldName("property")

	if obj != nil && obj.Type() == "identifier" && prop != nil {
		objName := e.text(obj)
		propName := e.text(prop)
		switch objName {
		case "Reflect":
			e.out.HasDynamicEval = true
			e.pattern(PatternReflect, call)
			return
		case "Object":
			if propName == "keys" || propName == "values" || propName == "entries" {
				e.pattern(PatternObjectIteration, call, e.argIdentifiers(call)...)
				return
			}
		}
		e.ref(objName, RefPropertyAccess, obj)
		e.ref(propName, RefPropertyAccess, prop)
		return
	}

	e.walkExpr(fn)
}

// argIdentifiers returns identifier argument names of a call, for pattern
// attribution.
func (e *extractor) argIdentifiers(call *sitter.Node) []string {
	args := call.ChildByFieldName("arguments")
	if args == nil {
		return nil
	}
	var names []string
	for i := range int(args.NamedChildCount()) {
		a := args.NamedChild(i)
		if a.Type() == "identifier" {
			names = append(names, e.text(a))
		}
	}
	return names
}

func (e *extractor) requireCall(call, args *sitter.Node) {
	spec, ok := singleStringArg(args, e.source)
	if !ok {
		e.out.HasDynamicEval = true
		e.pattern(PatternDynamicRequire, call)
		return
	}
	e.out.Imports = append(e.out.Imports, ImportRecord{
		Specifier: spec,
		Imported:  "*",
		IsDynamic: true,
		Location:  e.loc(call),
	})
}

func (e *extractor) dynamicImport(call, args *sitter.Node) {
	spec, ok := singleStringArg(args, e.source)
	if !ok {
		e.out.HasDynamicEval = true
		e.pattern(PatternDynamicImport, call)
		return
	}
	e.out.Imports = append(e.out.Imports, ImportRecord{
		Specifier: spec,
		Imported:  "*",
		IsDynamic: true,
		Location:  e.loc(call),
	})
}

func singleStringArg(args *sitter.Node, source []byte) (string, bool) {
	if args == nil || args.NamedChildCount() == 0 {
		return "", false
	}
	first := args.NamedChild(0)
	if first.Type() != "string" {
		return "", false
	}
	return strings.Trim(parser.GetNodeText(first, source), "\"'`"), true
}

// walkType collects type references from a type subtree.
func (e *extractor) walkType(n *sitter.Node) {
	if n.Type() == "type_identifier" {
		e.ref(e.text(n), RefTypeReference, n)
		return
	}
	for i := range int(n.NamedChildCount()) {
		e.walkType(n.NamedChild(i))
	}
}

var tsBuiltins = map[string]bool{
	// Keywords
	"if": true, "else": true, "for": true, "while": true, "do": true,
	"switch": true, "case": true, "break": true, "continue": true, "return": true,
	"function": true, "class": true, "const": true, "let": true, "var": true,
	"new": true, "this": true, "super": true, "typeof": true, "instanceof": true,
	"void": true, "delete": true, "in": true, "of": true,
	"try": true, "catch": true, "finally": true, "throw": true,
	"async": true, "await": true, "yield": true,
	"import": true, "export": true, "from": true, "as": true,
	"extends": true, "implements": true, "static": true, "public": true,
	"private": true, "protected": true, "readonly": true, "abstract": true,
	"interface": true, "type": true, "enum": true, "namespace": true,
	// Built-in values
	"true": true, "false": true, "null": true, "undefined": true,
	"NaN": true, "Infinity": true,
	// Common globals
	"console": true, "window": true, "document": true, "global": true,
	"globalThis": true, "process": true, "module": true, "exports": true,
	"JSON": true, "Math": true, "Date": true, "Object": true, "Array": true,
	"String": true, "Number": true, "Boolean": true, "Symbol": true,
	"Promise": true, "Map": true, "Set": true, "WeakMap": true, "WeakSet": true,
	"Error": true, "TypeError": true, "RangeError": true, "ReferenceError": true,
	"Proxy": true, "Reflect": true,
	"setTimeout": true, "setInterval": true, "clearTimeout": true, "clearInterval": true,
	"fetch": true, "URL": true, "URLSearchParams": true,
	"parseInt": true, "parseFloat": true, "isNaN": true, "isFinite": true,
	"encodeURIComponent": true, "decodeURIComponent": true,
}
