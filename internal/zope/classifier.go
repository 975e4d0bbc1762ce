// Package zope recognizes zope.interface declarations in Python source and
// computes which classes are interfaces and which classes implement them.
//
// Recognition happens during the tree walk (Classifier). Everything that
// needs the whole program, such as inheritance of declarations through
// subclasses, happens once afterwards in Finalize.
package zope

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/zopescan/internal/astbuilder"
	"github.com/jward/zopescan/internal/model"
)

// Warning messages recorded on the System.
const (
	WarnUnknownClass      = "classImplements on unknown class"
	WarnUnmarkedInterface = "probable interface not marked as such"
	WarnNotAClass         = "interface name is not a class"
	WarnCycle             = "cyclic class hierarchy"
)

// AttributeConstructor is the callee of an interface attribute declaration.
const AttributeConstructor = "zope.interface.Attribute"

type idiomKind int

const (
	idiomImplements idiomKind = iota
	idiomClassImplements
	idiomModuleMoved
	idiomImplementer
)

type idiom struct {
	kind idiomKind
	only bool
}

// idioms maps recognized fully-qualified callee names to what they declare.
var idioms = map[string]idiom{
	"zope.interface.implements":               {kind: idiomImplements},
	"zope.interface.implementsOnly":           {kind: idiomImplements, only: true},
	"zope.interface.classImplements":          {kind: idiomClassImplements},
	"zope.interface.classImplementsOnly":      {kind: idiomClassImplements, only: true},
	"twisted.python.util.moduleMovedForSplit": {kind: idiomModuleMoved},
	"zope.interface.implementer":              {kind: idiomImplementer},
	"zope.interface.implementer_only":         {kind: idiomImplementer, only: true},
}

// deprecatedModuleDoc replaces the docstring of a module that is a
// placeholder for a package split off into a separate project.
const deprecatedModuleDoc = `
%[1]s

This module is DEPRECATED. It has been split off into a third party
package, Twisted %[2]s. Please see %[3]s.

This is just a place-holder that imports from the third-party %[2]s
package for backwards compatibility. To use it, you need to install
that package.
`

// Classifier is the astbuilder.NodeHandler for zope.interface idioms.
type Classifier struct{}

var _ astbuilder.NodeHandler = (*Classifier)(nil)

// NewClassifier returns a Classifier.
func NewClassifier() *Classifier { return &Classifier{} }

// HandleAssignment recognizes `name = zope.interface.Attribute("doc")` in a
// class body.
func (c *Classifier) HandleAssignment(b *astbuilder.Builder, node *sitter.Node) bool {
	if _, ok := b.Current().(*model.Class); !ok {
		return false
	}
	if node.ChildByFieldName("type") != nil {
		return false
	}
	target := node.ChildByFieldName("left")
	value := node.ChildByFieldName("right")
	if target == nil || value == nil || target.Type() != "identifier" || value.Type() != "call" {
		return false
	}
	callee, ok := b.CalleeName(value)
	if !ok || callee != AttributeConstructor {
		return false
	}
	args, ok := b.PositionalArgs(value)
	if !ok || len(args) != 1 {
		return false
	}
	doc, ok := b.StringLiteral(args[0])
	if !ok {
		return false
	}
	b.Push(model.KindAttribute, b.Text(target), doc, astbuilder.Line(node))
	b.Pop(model.KindAttribute)
	return true
}

// HandleCall recognizes declaration calls issued as statements.
func (c *Classifier) HandleCall(b *astbuilder.Builder, node *sitter.Node) bool {
	callee, ok := b.CalleeName(node)
	if !ok {
		return false
	}
	id, ok := idioms[callee]
	if !ok {
		return false
	}
	args, ok := b.PositionalArgs(node)
	if !ok {
		return false
	}
	switch id.kind {
	case idiomImplements:
		cls, ok := b.Current().(*model.Class)
		if !ok {
			return false
		}
		cls.DeclareImplements(resolveAll(b, args), id.only)
		return true
	case idiomClassImplements:
		return c.classImplements(b, args, id.only)
	case idiomModuleMoved:
		return c.moduleMoved(b, args)
	}
	return false
}

func (c *Classifier) classImplements(b *astbuilder.Builder, args []*sitter.Node, only bool) bool {
	if len(args) == 0 {
		return false
	}
	name, ok := b.DottedName(args[0])
	if !ok {
		// An expression such as get_cls() cannot name a known class.
		b.System().Warn(WarnUnknownClass, b.Text(args[0]))
		return true
	}
	full := b.Resolve(name)
	cls, ok := b.System().Class(full)
	if !ok {
		b.System().Warn(WarnUnknownClass, full)
		return true
	}
	cls.DeclareImplements(resolveAll(b, args[1:]), only)
	return true
}

func (c *Classifier) moduleMoved(b *astbuilder.Builder, args []*sitter.Node) bool {
	if len(args) != 6 {
		return false
	}
	var lit [3]string
	for i := range lit {
		s, ok := b.StringLiteral(args[2+i])
		if !ok {
			return false
		}
		lit[i] = s
	}
	mod := b.CurrentModule()
	if mod == nil {
		return false
	}
	mod.Docstring = fmt.Sprintf(deprecatedModuleDoc, lit[0], lit[1], lit[2])
	return true
}

// HandleClassDecorators applies @implementer and @implementer_only. Python
// applies decorators bottom-up, so they are processed in reverse.
func (c *Classifier) HandleClassDecorators(b *astbuilder.Builder, cls *model.Class, decorators []*sitter.Node) bool {
	handled := false
	for i := len(decorators) - 1; i >= 0; i-- {
		call := decoratorCall(decorators[i])
		if call == nil {
			continue
		}
		callee, ok := b.CalleeName(call)
		if !ok {
			continue
		}
		id, ok := idioms[callee]
		if !ok || id.kind != idiomImplementer {
			continue
		}
		args, ok := b.PositionalArgs(call)
		if !ok {
			continue
		}
		cls.DeclareImplements(resolveAll(b, args), id.only)
		handled = true
	}
	return handled
}

func decoratorCall(decorator *sitter.Node) *sitter.Node {
	for i := 0; i < int(decorator.NamedChildCount()); i++ {
		if n := decorator.NamedChild(i); n.Type() == "call" {
			return n
		}
	}
	return nil
}

// resolveAll resolves each argument expression to a full name in the
// current scope.
func resolveAll(b *astbuilder.Builder, args []*sitter.Node) []string {
	out := make([]string, 0, len(args))
	for _, arg := range args {
		out = append(out, b.Resolve(b.ExprName(arg)))
	}
	return out
}
