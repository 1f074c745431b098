//go:build cgo

package parser

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"depscope/internal/modgraph"
)

const maxSignatureLen = 200

// binding is a local name introduced by an import statement.
type binding struct {
	specifier string
	imported  string
	typeOnly  bool
}

type extractor struct {
	source   []byte
	facts    *FileFacts
	bindings map[string]binding
	locals   map[string]modgraph.SymbolKind
	seen     map[string]bool
}

func newExtractor(source []byte) *extractor {
	return &extractor{
		source:   source,
		facts:    &FileFacts{Imports: []Import{}, Exports: []Export{}},
		bindings: make(map[string]binding),
		locals:   make(map[string]modgraph.SymbolKind),
		seen:     make(map[string]bool),
	}
}

func (e *extractor) extract(root *sitter.Node) *FileFacts {
	count := int(root.NamedChildCount())

	// Declarations and imports first so export clauses can see every local name.
	for i := 0; i < count; i++ {
		child := root.NamedChild(i)
		switch child.Type() {
		case "import_statement":
			e.importStatement(child)
		case "export_statement":
			if decl := child.ChildByFieldName("declaration"); decl != nil {
				e.declareLocals(decl)
			}
		default:
			e.declareLocals(child)
		}
	}
	for i := 0; i < count; i++ {
		child := root.NamedChild(i)
		if child.Type() == "export_statement" {
			e.exportStatement(child)
		}
	}
	e.callImports(root)
	return e.facts
}

func (e *extractor) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(e.source)
}

func position(n *sitter.Node) modgraph.Position {
	p := n.StartPoint()
	return modgraph.Position{Line: int(p.Row) + 1, Column: int(p.Column) + 1}
}

// stringValue returns the unquoted value of a string literal.
func (e *extractor) stringValue(n *sitter.Node) (string, bool) {
	if n == nil {
		return "", false
	}
	switch n.Type() {
	case "string":
		return strings.Trim(e.text(n), `'"`), true
	case "template_string":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if n.NamedChild(i).Type() == "template_substitution" {
				return "", false
			}
		}
		return strings.Trim(e.text(n), "`"), true
	}
	return "", false
}

// moduleExportName handles identifiers and string names ({ "a-b" as c }).
func (e *extractor) moduleExportName(n *sitter.Node) string {
	if v, ok := e.stringValue(n); ok {
		return v
	}
	return e.text(n)
}

func hasToken(n *sitter.Node, token string) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if !c.IsNamed() && c.Type() == token {
			return true
		}
	}
	return false
}

func (e *extractor) importStatement(n *sitter.Node) {
	pos := position(n)
	typeOnly := hasToken(n, "type") || hasToken(n, "typeof")

	var clause, require *sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case "import_clause":
			clause = c
		case "import_require_clause":
			require = c
		}
	}

	if require != nil {
		spec, ok := e.stringValue(require.ChildByFieldName("source"))
		if !ok {
			return
		}
		if local := firstNamedOfType(require, "identifier"); local != nil {
			e.bindings[e.text(local)] = binding{specifier: spec, imported: modgraph.NamespaceIdentifier}
		}
		e.addImport(Import{Specifier: spec, Identifiers: []string{modgraph.NamespaceIdentifier}, Position: pos})
		return
	}

	spec, ok := e.stringValue(n.ChildByFieldName("source"))
	if !ok {
		return
	}
	imp := Import{Specifier: spec, Identifiers: []string{}, TypeOnly: typeOnly, Position: pos}
	if clause == nil {
		// import "./polyfill"
		e.addImport(imp)
		return
	}

	allTyped := true
	named := 0
	for i := 0; i < int(clause.NamedChildCount()); i++ {
		c := clause.NamedChild(i)
		switch c.Type() {
		case "identifier":
			imp.Identifiers = append(imp.Identifiers, modgraph.DefaultIdentifier)
			e.bindings[e.text(c)] = binding{specifier: spec, imported: modgraph.DefaultIdentifier, typeOnly: typeOnly}
			allTyped = false
		case "namespace_import":
			imp.Identifiers = append(imp.Identifiers, modgraph.NamespaceIdentifier)
			if local := firstNamedOfType(c, "identifier"); local != nil {
				e.bindings[e.text(local)] = binding{specifier: spec, imported: modgraph.NamespaceIdentifier, typeOnly: typeOnly}
			}
			allTyped = false
		case "named_imports":
			for j := 0; j < int(c.NamedChildCount()); j++ {
				s := c.NamedChild(j)
				if s.Type() != "import_specifier" {
					continue
				}
				named++
				name := e.moduleExportName(s.ChildByFieldName("name"))
				local := name
				if alias := s.ChildByFieldName("alias"); alias != nil {
					local = e.text(alias)
				}
				specTyped := typeOnly || hasToken(s, "type") || hasToken(s, "typeof")
				if !specTyped {
					allTyped = false
				}
				imp.Identifiers = append(imp.Identifiers, name)
				e.bindings[local] = binding{specifier: spec, imported: name, typeOnly: specTyped}
			}
		}
	}
	if named > 0 && allTyped {
		imp.TypeOnly = true
	}
	e.addImport(imp)
}

func (e *extractor) addImport(imp Import) {
	e.facts.Imports = append(e.facts.Imports, imp)
}

func (e *extractor) addExport(exp Export) {
	key := exp.Name
	if exp.IsDefault {
		key = modgraph.DefaultIdentifier
	}
	if exp.IsReExport && exp.Name == modgraph.NamespaceIdentifier {
		key = "*:" + exp.Source
	}
	// Overload signatures repeat a name; the first declaration wins.
	if e.seen[key] {
		return
	}
	e.seen[key] = true
	if exp.Kind == "" {
		exp.Kind = modgraph.KindUnknown
	}
	e.facts.Exports = append(e.facts.Exports, exp)
}

func (e *extractor) exportStatement(n *sitter.Node) {
	pos := position(n)
	doc := e.docComment(n)
	isDefault := hasToken(n, "default")
	typeOnly := hasToken(n, "type")

	if decl := n.ChildByFieldName("declaration"); decl != nil {
		decl = unwrapAmbient(decl)
		for _, d := range e.declarations(decl) {
			d.IsDefault = isDefault
			d.Doc = doc
			d.Position = pos
			if isDefault && d.Name == "" {
				d.Name = modgraph.DefaultIdentifier
			}
			e.addExport(d)
		}
		return
	}

	if value := n.ChildByFieldName("value"); value != nil {
		if !isDefault {
			// export = value
			return
		}
		exp := Export{Name: modgraph.DefaultIdentifier, IsDefault: true, Doc: doc, Position: pos}
		switch value.Type() {
		case "identifier":
			local := e.text(value)
			if b, ok := e.bindings[local]; ok {
				exp.IsReExport = true
				exp.Source = b.specifier
				exp.OriginalName = b.imported
				break
			}
			exp.Name = local
			exp.Kind = e.locals[local]
		case "class":
			exp.Kind = modgraph.KindClass
			if name := value.ChildByFieldName("name"); name != nil {
				exp.Name = e.text(name)
			}
		default:
			exp.Kind = modgraph.KindVariable
			if isFunctionValue(value) {
				exp.Kind = modgraph.KindFunction
				exp.Signature = e.signature(value)
				if name := value.ChildByFieldName("name"); name != nil {
					exp.Name = e.text(name)
				}
			}
		}
		e.addExport(exp)
		return
	}

	source := n.ChildByFieldName("source")
	spec, hasSource := e.stringValue(source)

	var clause *sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case "export_clause":
			clause = c
		case "namespace_export":
			// export * as ns from "./x"
			if !hasSource {
				return
			}
			ns := lastNamedChild(c)
			e.reExport(spec, e.moduleExportName(ns), modgraph.NamespaceIdentifier, typeOnly, pos, doc)
			e.addImport(Import{Specifier: spec, Identifiers: []string{modgraph.NamespaceIdentifier}, TypeOnly: typeOnly, ReExport: true, Position: pos})
			return
		}
	}

	if clause == nil {
		if hasSource && hasToken(n, "*") {
			// Older grammars expose export * as ns without a namespace_export node.
			name := modgraph.NamespaceIdentifier
			if hasToken(n, "as") {
				if id := firstNamedOfType(n, "identifier"); id != nil {
					name = e.text(id)
				}
			}
			e.reExport(spec, name, modgraph.NamespaceIdentifier, typeOnly, pos, doc)
			e.addImport(Import{Specifier: spec, Identifiers: []string{modgraph.NamespaceIdentifier}, TypeOnly: typeOnly, ReExport: true, Position: pos})
		}
		return
	}

	var forwarded []string
	for i := 0; i < int(clause.NamedChildCount()); i++ {
		s := clause.NamedChild(i)
		if s.Type() != "export_specifier" {
			continue
		}
		name := e.moduleExportName(s.ChildByFieldName("name"))
		exposed := name
		if alias := s.ChildByFieldName("alias"); alias != nil {
			exposed = e.moduleExportName(alias)
		}
		specTyped := typeOnly || hasToken(s, "type")

		if hasSource {
			e.reExport(spec, exposed, name, specTyped, pos, doc)
			forwarded = append(forwarded, name)
			continue
		}

		exp := Export{Name: exposed, TypeOnly: specTyped, Doc: doc, Position: pos}
		if exposed == modgraph.DefaultIdentifier {
			exp.Name = name
			exp.IsDefault = true
		}
		if b, ok := e.bindings[name]; ok {
			exp.IsReExport = true
			exp.Source = b.specifier
			exp.OriginalName = b.imported
			exp.TypeOnly = exp.TypeOnly || b.typeOnly
			if exp.IsDefault {
				exp.Name = modgraph.DefaultIdentifier
			}
		} else {
			exp.Kind = e.locals[name]
		}
		e.addExport(exp)
	}

	if hasSource {
		e.addImport(Import{Specifier: spec, Identifiers: nonNil(forwarded), TypeOnly: typeOnly, ReExport: true, Position: pos})
	}
}

func (e *extractor) reExport(spec, exposed, original string, typeOnly bool, pos modgraph.Position, doc string) {
	e.addExport(Export{
		Name:         exposed,
		IsDefault:    exposed == modgraph.DefaultIdentifier,
		IsReExport:   true,
		Source:       spec,
		OriginalName: original,
		TypeOnly:     typeOnly,
		Doc:          doc,
		Position:     pos,
	})
}

// declarations returns one export per name a declaration introduces.
func (e *extractor) declarations(decl *sitter.Node) []Export {
	kind, ok := declarationKind(decl)
	if !ok {
		return nil
	}

	switch decl.Type() {
	case "lexical_declaration", "variable_declaration":
		var out []Export
		for i := 0; i < int(decl.NamedChildCount()); i++ {
			d := decl.NamedChild(i)
			if d.Type() != "variable_declarator" {
				continue
			}
			sig := e.signature(d)
			if v := d.ChildByFieldName("value"); v != nil && isFunctionValue(v) {
				sig = e.text(d.ChildByFieldName("name")) + e.signature(v)
			}
			for _, name := range e.bindingNames(d.ChildByFieldName("name")) {
				out = append(out, Export{Name: name, Kind: kind, Signature: sig})
			}
		}
		return out
	}

	exp := Export{Kind: kind, Signature: e.signature(decl), Members: e.members(decl)}
	if name := decl.ChildByFieldName("name"); name != nil {
		exp.Name = strings.Trim(e.text(name), `'"`)
	}
	return []Export{exp}
}

// declareLocals records top-level declared names and their kinds.
func (e *extractor) declareLocals(n *sitter.Node) {
	n = unwrapAmbient(n)
	kind, ok := declarationKind(n)
	if !ok {
		return
	}
	switch n.Type() {
	case "lexical_declaration", "variable_declaration":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			d := n.NamedChild(i)
			if d.Type() != "variable_declarator" {
				continue
			}
			for _, name := range e.bindingNames(d.ChildByFieldName("name")) {
				e.locals[name] = kind
			}
		}
	default:
		if name := n.ChildByFieldName("name"); name != nil {
			e.locals[e.text(name)] = kind
		}
	}
}

func declarationKind(n *sitter.Node) (modgraph.SymbolKind, bool) {
	switch n.Type() {
	case "function_declaration", "generator_function_declaration", "function_signature":
		return modgraph.KindFunction, true
	case "class_declaration", "abstract_class_declaration":
		return modgraph.KindClass, true
	case "lexical_declaration":
		if n.ChildCount() > 0 && n.Child(0).Type() == "const" {
			return modgraph.KindConst, true
		}
		return modgraph.KindVariable, true
	case "variable_declaration":
		return modgraph.KindVariable, true
	case "interface_declaration":
		return modgraph.KindInterface, true
	case "type_alias_declaration":
		return modgraph.KindType, true
	case "enum_declaration":
		return modgraph.KindEnum, true
	case "internal_module", "module":
		return modgraph.KindNamespace, true
	}
	return "", false
}

func isFunctionValue(n *sitter.Node) bool {
	switch n.Type() {
	case "arrow_function", "function", "function_expression", "generator_function":
		return true
	}
	return false
}

func unwrapAmbient(n *sitter.Node) *sitter.Node {
	if n.Type() == "ambient_declaration" && n.NamedChildCount() > 0 {
		return n.NamedChild(0)
	}
	return n
}

// bindingNames returns the identifiers a declarator pattern binds.
func (e *extractor) bindingNames(n *sitter.Node) []string {
	if n == nil {
		return nil
	}
	switch n.Type() {
	case "identifier", "shorthand_property_identifier_pattern":
		return []string{e.text(n)}
	case "pair_pattern":
		return e.bindingNames(n.ChildByFieldName("value"))
	case "assignment_pattern", "object_assignment_pattern":
		return e.bindingNames(n.ChildByFieldName("left"))
	}
	var names []string
	for i := 0; i < int(n.NamedChildCount()); i++ {
		names = append(names, e.bindingNames(n.NamedChild(i))...)
	}
	return names
}

// members lists member names of classes, interfaces, enums and namespaces.
func (e *extractor) members(decl *sitter.Node) []string {
	body := decl.ChildByFieldName("body")
	if body == nil {
		return nil
	}
	var out []string
	seen := make(map[string]bool)
	for i := 0; i < int(body.NamedChildCount()); i++ {
		c := body.NamedChild(i)
		var name string
		switch {
		case c.Type() == "comment":
			continue
		case c.Type() == "property_identifier":
			name = e.text(c)
		case c.ChildByFieldName("name") != nil:
			name = e.text(c.ChildByFieldName("name"))
		case c.ChildByFieldName("property") != nil:
			name = e.text(c.ChildByFieldName("property"))
		case c.Type() == "export_statement":
			if d := c.ChildByFieldName("declaration"); d != nil && d.ChildByFieldName("name") != nil {
				name = e.text(d.ChildByFieldName("name"))
			}
		}
		name = strings.Trim(name, `'"`)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

// signature is the declaration header up to its body, on one line.
func (e *extractor) signature(n *sitter.Node) string {
	var sig string
	if body := n.ChildByFieldName("body"); body != nil && body.StartByte() > n.StartByte() {
		sig = string(e.source[n.StartByte():body.StartByte()])
	} else {
		sig = e.text(n)
		if i := strings.IndexByte(sig, '\n'); i >= 0 {
			sig = sig[:i]
		}
	}
	sig = strings.Join(strings.Fields(sig), " ")
	sig = strings.TrimSuffix(strings.TrimSuffix(sig, "=>"), ";")
	sig = strings.TrimSpace(sig)
	if len(sig) > maxSignatureLen {
		sig = sig[:maxSignatureLen] + "..."
	}
	return sig
}

// docComment returns the JSDoc block directly above n.
func (e *extractor) docComment(n *sitter.Node) string {
	prev := n.PrevNamedSibling()
	if prev == nil || prev.Type() != "comment" {
		return ""
	}
	if n.StartPoint().Row > prev.EndPoint().Row+1 {
		return ""
	}
	raw := e.text(prev)
	if !strings.HasPrefix(raw, "/**") {
		return ""
	}
	raw = strings.TrimSuffix(strings.TrimPrefix(raw, "/**"), "*/")

	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(strings.TrimPrefix(line, "*"))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// callImports finds dynamic import() and require() calls anywhere in the file.
func (e *extractor) callImports(root *sitter.Node) {
	stack := []*sitter.Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if n.Type() == "call_expression" {
			e.callImport(n)
		}
		for i := int(n.NamedChildCount()) - 1; i >= 0; i-- {
			stack = append(stack, n.NamedChild(i))
		}
	}
}

func (e *extractor) callImport(call *sitter.Node) {
	fn := call.ChildByFieldName("function")
	if fn == nil {
		return
	}
	dynamic := fn.Type() == "import"
	if !dynamic && !(fn.Type() == "identifier" && e.text(fn) == "require") {
		return
	}
	args := call.ChildByFieldName("arguments")
	if args == nil || args.NamedChildCount() == 0 {
		return
	}
	spec, ok := e.stringValue(args.NamedChild(0))
	if !ok {
		// Computed specifiers cannot be resolved.
		return
	}
	e.addImport(Import{
		Specifier:   spec,
		Identifiers: e.usedNames(call, dynamic),
		Dynamic:     dynamic,
		Position:    position(call),
	})
}

// usedNames narrows a require or import() call to the names its result is destructured into.
// An import() that is not awaited yields a promise, so members read off it are not exports.
func (e *extractor) usedNames(call *sitter.Node, dynamic bool) []string {
	awaited := false
	parent := call.Parent()
	for parent != nil && (parent.Type() == "await_expression" || parent.Type() == "parenthesized_expression") {
		awaited = awaited || parent.Type() == "await_expression"
		parent = parent.Parent()
	}
	if parent == nil || (dynamic && !awaited) {
		return []string{modgraph.NamespaceIdentifier}
	}

	switch parent.Type() {
	case "member_expression":
		if prop := parent.ChildByFieldName("property"); prop != nil {
			return []string{e.text(prop)}
		}
	case "variable_declarator":
		name := parent.ChildByFieldName("name")
		if name != nil && name.Type() == "object_pattern" {
			var names []string
			for i := 0; i < int(name.NamedChildCount()); i++ {
				p := name.NamedChild(i)
				switch p.Type() {
				case "shorthand_property_identifier_pattern":
					names = append(names, e.text(p))
				case "pair_pattern":
					names = append(names, strings.Trim(e.text(p.ChildByFieldName("key")), `'"`))
				case "object_assignment_pattern":
					names = append(names, e.text(p.ChildByFieldName("left")))
				case "rest_pattern":
					return []string{modgraph.NamespaceIdentifier}
				}
			}
			if len(names) > 0 {
				return names
			}
		}
	}
	return []string{modgraph.NamespaceIdentifier}
}

func firstNamedOfType(n *sitter.Node, typ string) *sitter.Node {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c.Type() == typ {
			return c
		}
	}
	return nil
}

func lastNamedChild(n *sitter.Node) *sitter.Node {
	if n.NamedChildCount() == 0 {
		return nil
	}
	return n.NamedChild(int(n.NamedChildCount()) - 1)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
