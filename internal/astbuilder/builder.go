// Package astbuilder builds the documentable symbol tree from Python source.
//
// A Builder walks each module's tree-sitter syntax tree once, top-down,
// keeping a stack of the scopes it is inside (module, class, function).
// Assignments, calls and class decorators are offered to a NodeHandler
// first; anything the handler declines gets the generic default handling.
package astbuilder

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/zopescan/internal/model"
)

// NodeHandler recognizes idioms during the walk. Each method reports
// whether it handled the node; false selects default handling.
type NodeHandler interface {
	HandleAssignment(b *Builder, node *sitter.Node) bool
	HandleCall(b *Builder, node *sitter.Node) bool
	// HandleClassDecorators is called after a decorated class body has been
	// walked, with the current scope restored to the class's parent.
	HandleClassDecorators(b *Builder, cls *model.Class, decorators []*sitter.Node) bool
}

// Builder walks modules into a model.System.
type Builder struct {
	system  *model.System
	handler NodeHandler
	stack   []model.Documentable

	file *SourceFile
}

// New creates a Builder writing into sys. handler may be nil.
func New(sys *model.System, handler NodeHandler) *Builder {
	return &Builder{system: sys, handler: handler}
}

// System returns the registry the builder writes to.
func (b *Builder) System() *model.System { return b.system }

// Current returns the innermost scope, or nil outside any module.
func (b *Builder) Current() model.Documentable {
	if len(b.stack) == 0 {
		return nil
	}
	return b.stack[len(b.stack)-1]
}

// CurrentModule returns the module being walked.
func (b *Builder) CurrentModule() *model.Module {
	return model.ModuleOf(b.Current())
}

// Push creates a function or attribute named name as a child of the current
// scope, registers it and makes it the current scope.
func (b *Builder) Push(kind model.Kind, name, docstring string, line int) model.Documentable {
	var obj model.Documentable
	switch kind {
	case model.KindFunction, model.KindMethod:
		obj = model.NewFunction(name, b.Current())
	case model.KindAttribute:
		obj = model.NewAttribute(name, b.Current())
	default:
		panic(fmt.Sprintf("astbuilder: Push does not create %s objects", kind))
	}
	obj.Base().Docstring = docstring
	obj.Base().Line = line
	b.system.Add(obj)
	b.stack = append(b.stack, obj)
	return obj
}

// PushClass creates a class in the current scope with already-resolved
// base names and makes it the current scope.
func (b *Builder) PushClass(name string, bases []string, docstring string, line int) *model.Class {
	cls := b.system.AddClass(b.Current(), name, bases)
	cls.Docstring = docstring
	cls.Line = line
	b.stack = append(b.stack, cls)
	return cls
}

// Pop leaves the current scope, which must be of the given kind.
func (b *Builder) Pop(kind model.Kind) {
	cur := b.Current()
	if cur == nil {
		panic("astbuilder: Pop on empty scope stack")
	}
	got := cur.Base().Kind
	if got != kind && !(kind == model.KindFunction && got == model.KindMethod) {
		panic(fmt.Sprintf("astbuilder: Pop(%s) but current scope %s is %s", kind, cur.Base().FullName, got))
	}
	b.stack = b.stack[:len(b.stack)-1]
}

// Resolve maps a dotted name written in the current scope to a
// fully-qualified name.
func (b *Builder) Resolve(dotted string) string {
	return b.system.Resolve(b.Current(), dotted)
}

// Build walks every file in order. Files must already be parsed. Packages
// missing an __init__ module are created empty.
func (b *Builder) Build(ctx context.Context, files []*SourceFile) error {
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := b.BuildModule(f); err != nil {
			return err
		}
	}
	return nil
}

// BuildModule walks a single parsed file.
func (b *Builder) BuildModule(f *SourceFile) error {
	if f.Tree == nil {
		return fmt.Errorf("astbuilder: %s has not been parsed", f.RelPath)
	}
	parent, name := b.ensureParent(f.Module)
	mod := model.NewModule(name, parent, f.IsPackage, f.Path)
	root := f.Tree.RootNode()
	b.file = f
	mod.Docstring = b.docstring(root)
	mod.Line = 1
	b.system.Add(mod)

	b.stack = append(b.stack, mod)
	b.walkBlock(root)
	b.stack = b.stack[:len(b.stack)-1]
	b.file = nil
	return nil
}

// ensureParent returns the package enclosing module, creating empty
// packages for any missing level, and the module's own short name.
func (b *Builder) ensureParent(module string) (model.Documentable, string) {
	i := strings.LastIndexByte(module, '.')
	if i < 0 {
		return nil, module
	}
	pkgName, name := module[:i], module[i+1:]
	if pkg, ok := b.system.Module(pkgName); ok {
		return pkg, name
	}
	grand, short := b.ensureParent(pkgName)
	pkg := model.NewModule(short, grand, true, "")
	b.system.Add(pkg)
	return pkg, name
}

// walkBlock visits each statement directly inside node.
func (b *Builder) walkBlock(node *sitter.Node) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		b.visitStatement(node.NamedChild(i))
	}
}

func (b *Builder) visitStatement(node *sitter.Node) {
	switch node.Type() {
	case "class_definition":
		b.visitClass(node, nil)
	case "function_definition":
		b.visitFunction(node)
	case "decorated_definition":
		def := node.ChildByFieldName("definition")
		if def == nil {
			return
		}
		switch def.Type() {
		case "class_definition":
			var decorators []*sitter.Node
			for i := 0; i < int(node.NamedChildCount()); i++ {
				if c := node.NamedChild(i); c.Type() == "decorator" {
					decorators = append(decorators, c)
				}
			}
			b.visitClass(def, decorators)
		case "function_definition":
			b.visitFunction(def)
		}
	case "import_statement":
		b.visitImport(node)
	case "import_from_statement":
		b.visitImportFrom(node)
	case "expression_statement":
		for i := 0; i < int(node.NamedChildCount()); i++ {
			b.visitExpression(node.NamedChild(i))
		}
	default:
		b.Default(node)
	}
}

func (b *Builder) visitExpression(node *sitter.Node) {
	switch node.Type() {
	case "assignment":
		if b.handler != nil && b.handler.HandleAssignment(b, node) {
			return
		}
	case "call":
		if b.handler != nil && b.handler.HandleCall(b, node) {
			return
		}
	}
	b.Default(node)
}

// compoundStatements are walked into by default handling so that idioms
// guarded by if/try/with still count for the enclosing scope.
var compoundStatements = map[string]bool{
	"if_statement":        true,
	"elif_clause":         true,
	"else_clause":         true,
	"try_statement":       true,
	"except_clause":       true,
	"except_group_clause": true,
	"finally_clause":      true,
	"with_statement":      true,
	"for_statement":       true,
	"while_statement":     true,
	"block":               true,
}

// Default is the generic handling for a node no handler claimed: compound
// statements are descended into, everything else is ignored.
func (b *Builder) Default(node *sitter.Node) {
	if !compoundStatements[node.Type()] {
		return
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if compoundStatements[child.Type()] && child.Type() != "block" {
			b.Default(child)
			continue
		}
		if child.Type() == "block" {
			b.walkBlock(child)
		}
	}
}

func (b *Builder) visitClass(node *sitter.Node, decorators []*sitter.Node) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	var bases []string
	if supers := node.ChildByFieldName("superclasses"); supers != nil {
		for i := 0; i < int(supers.NamedChildCount()); i++ {
			arg := supers.NamedChild(i)
			switch arg.Type() {
			case "keyword_argument", "comment", "list_splat", "dictionary_splat":
				continue
			}
			bases = append(bases, b.Resolve(b.ExprName(arg)))
		}
	}
	body := node.ChildByFieldName("body")
	cls := b.PushClass(b.Text(nameNode), bases, b.docstring(body), Line(node))
	if body != nil {
		b.walkBlock(body)
	}
	b.Pop(model.KindClass)

	if len(decorators) > 0 && b.handler != nil {
		b.handler.HandleClassDecorators(b, cls, decorators)
	}
}

// visitFunction records the function. Function bodies are not walked.
func (b *Builder) visitFunction(node *sitter.Node) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	kind := model.KindFunction
	if _, ok := b.Current().(*model.Class); ok {
		kind = model.KindMethod
	}
	b.Push(kind, b.Text(nameNode), b.docstring(node.ChildByFieldName("body")), Line(node))
	b.Pop(kind)
}

// visitImport handles "import a.b" (binds a) and "import a.b as c" (binds c).
func (b *Builder) visitImport(node *sitter.Node) {
	scope := b.Current().Base()
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "dotted_name":
			full := b.Text(child)
			first, _, _ := strings.Cut(full, ".")
			scope.Bind(first, first)
		case "aliased_import":
			name := child.ChildByFieldName("name")
			alias := child.ChildByFieldName("alias")
			if name != nil && alias != nil {
				scope.Bind(b.Text(alias), b.Text(name))
			}
		}
	}
}

// visitImportFrom handles "from m import x [as y]", relative modules and
// "from m import *" for modules that were already walked.
func (b *Builder) visitImportFrom(node *sitter.Node) {
	scope := b.Current().Base()
	var source string
	sourceSeen := false
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() == "comment" {
			continue
		}
		if !sourceSeen {
			sourceSeen = true
			source = b.importSource(child)
			if source == "" {
				return
			}
			continue
		}
		switch child.Type() {
		case "dotted_name":
			name := b.Text(child)
			first, _, _ := strings.Cut(name, ".")
			scope.Bind(first, source+"."+first)
		case "aliased_import":
			name := child.ChildByFieldName("name")
			alias := child.ChildByFieldName("alias")
			if name != nil && alias != nil {
				scope.Bind(b.Text(alias), source+"."+b.Text(name))
			}
		case "wildcard_import":
			b.bindWildcard(scope, source)
		}
	}
}

// importSource returns the absolute module name of a from-import source.
func (b *Builder) importSource(node *sitter.Node) string {
	switch node.Type() {
	case "dotted_name":
		return b.Text(node)
	case "relative_import":
		level := 0
		var rest string
		for i := 0; i < int(node.NamedChildCount()); i++ {
			c := node.NamedChild(i)
			switch c.Type() {
			case "import_prefix":
				level = strings.Count(b.Text(c), ".")
			case "dotted_name":
				rest = b.Text(c)
			}
		}
		return b.relativeModule(level, rest)
	}
	return ""
}

// relativeModule resolves a relative import of the given level against the
// module being walked.
func (b *Builder) relativeModule(level int, rest string) string {
	mod := b.CurrentModule()
	if mod == nil || level == 0 {
		return rest
	}
	parts := strings.Split(mod.FullName, ".")
	if !mod.IsPackage() {
		parts = parts[:len(parts)-1]
	}
	drop := level - 1
	if drop > len(parts) {
		return ""
	}
	parts = parts[:len(parts)-drop]
	if rest != "" {
		parts = append(parts, rest)
	}
	return strings.Join(parts, ".")
}

func (b *Builder) bindWildcard(scope *model.Object, source string) {
	mod, ok := b.system.Module(source)
	if !ok {
		return
	}
	for _, c := range mod.Contents {
		name := c.Base().Name
		if strings.HasPrefix(name, "_") {
			continue
		}
		scope.Bind(name, c.Base().FullName)
	}
}

// docstring returns the literal value of the first statement of a module or
// block when it is a string.
func (b *Builder) docstring(block *sitter.Node) string {
	if block == nil {
		return ""
	}
	for i := 0; i < int(block.NamedChildCount()); i++ {
		stmt := block.NamedChild(i)
		if stmt.Type() == "comment" {
			continue
		}
		if stmt.Type() != "expression_statement" || stmt.NamedChildCount() == 0 {
			return ""
		}
		doc, _ := b.StringLiteral(stmt.NamedChild(0))
		return doc
	}
	return ""
}

// Line returns the 1-based line a node starts on.
func Line(node *sitter.Node) int {
	return int(node.StartPoint().Row) + 1
}
