package astbuilder

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/jward/zopescan/internal/model"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func modules(files []*SourceFile) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.Module)
	}
	return out
}

// buildSources parses and walks in-memory modules without a handler.
func buildSources(t *testing.T, handler NodeHandler, srcs ...[2]string) *model.System {
	t.Helper()
	var files []*SourceFile
	for _, s := range srcs {
		name := s[0]
		isPkg := false
		if len(name) > 9 && name[len(name)-9:] == ".__init__" {
			name, isPkg = name[:len(name)-9], true
		}
		files = append(files, NewSourceFile(name, isPkg, []byte(s[1])))
	}
	require.NoError(t, ParseAll(context.Background(), files, 0))
	t.Cleanup(func() {
		for _, f := range files {
			f.Close()
		}
	})
	sys := model.NewSystem(nil)
	require.NoError(t, New(sys, handler).Build(context.Background(), files))
	return sys
}

func TestParseAll_NoLeaks(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	files := []*SourceFile{
		NewSourceFile("a", false, []byte("class A: pass\n")),
		NewSourceFile("b", false, []byte("def f(): pass\n")),
		NewSourceFile("c", false, []byte("x = 1\n")),
	}
	require.NoError(t, ParseAll(context.Background(), files, 2))
	for _, f := range files {
		require.NotNil(t, f.Tree)
		assert.Equal(t, "module", f.Tree.RootNode().Type())
		f.Close()
		assert.Nil(t, f.Tree)
	}
}

func TestBuild_CancelledContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	files := []*SourceFile{NewSourceFile("a", false, []byte("x = 1\n"))}
	sys := model.NewSystem(nil)
	assert.Error(t, New(sys, nil).Build(ctx, files))
}

func TestDiscover_SourceRoot(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, root, "top.py", "")
	writeFile(t, root, "pkg/__init__.py", "")
	writeFile(t, root, "pkg/mod.py", "")
	writeFile(t, root, "pkg/sub/__init__.py", "")
	writeFile(t, root, "pkg/sub/deep.py", "")
	writeFile(t, root, "pkg/notpkg/orphan.py", "")
	writeFile(t, root, "pkg/__pycache__/mod.py", "")
	writeFile(t, root, ".venv/lib.py", "")
	writeFile(t, root, "pkg/README.txt", "")

	files, err := Discover(root, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"pkg", "pkg.mod", "pkg.sub", "pkg.sub.deep", "top"}, modules(files))

	assert.True(t, files[0].IsPackage)
	assert.Equal(t, "pkg/__init__.py", files[0].RelPath)
	assert.False(t, files[1].IsPackage)
	assert.NotEmpty(t, files[1].Hash)
}

func TestDiscover_PackageRoot(t *testing.T) {
	t.Parallel()
	root := filepath.Join(t.TempDir(), "twisted")
	writeFile(t, root, "__init__.py", "")
	writeFile(t, root, "python/__init__.py", "")
	writeFile(t, root, "python/util.py", "")

	files, err := Discover(root, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"twisted", "twisted.python", "twisted.python.util"}, modules(files))
}

func TestDiscover_Excludes(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, root, "pkg/__init__.py", "")
	writeFile(t, root, "pkg/mod.py", "")
	writeFile(t, root, "pkg/test/__init__.py", "")
	writeFile(t, root, "pkg/test/test_mod.py", "")
	writeFile(t, root, "pkg/gen_pb2.py", "")

	files, err := Discover(root, []string{"**/test", "**/*_pb2.py"})
	require.NoError(t, err)
	assert.Equal(t, []string{"pkg", "pkg.mod"}, modules(files))

	_, err = Discover(root, []string{"[unclosed"})
	assert.Error(t, err)
}

func TestDiscover_NotADirectory(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, root, "a.py", "")
	_, err := Discover(filepath.Join(root, "a.py"), nil)
	assert.Error(t, err)
	_, err = Discover(filepath.Join(root, "missing"), nil)
	assert.Error(t, err)
}

func TestSourcesHash_ChangesWithContent(t *testing.T) {
	t.Parallel()
	a := []*SourceFile{NewSourceFile("a", false, []byte("x = 1\n"))}
	b := []*SourceFile{NewSourceFile("a", false, []byte("x = 2\n"))}
	assert.Equal(t, SourcesHash(a), SourcesHash(a))
	assert.NotEqual(t, SourcesHash(a), SourcesHash(b))
}

func TestModuleName(t *testing.T) {
	t.Parallel()
	tests := []struct {
		rel   string
		want  string
		isPkg bool
	}{
		{"mod.py", "mod", false},
		{"pkg/__init__.py", "pkg", true},
		{"pkg/sub/mod.py", "pkg.sub.mod", false},
	}
	for _, tt := range tests {
		got, isPkg := moduleName(tt.rel)
		assert.Equal(t, tt.want, got, tt.rel)
		assert.Equal(t, tt.isPkg, isPkg, tt.rel)
	}
}

func TestBuilder_SymbolTree(t *testing.T) {
	t.Parallel()
	sys := buildSources(t, nil, [2]string{"pkg.mod", `"""Module doc."""

class Outer(object):
    """Outer doc."""

    class Inner:
        pass

    def method(self):
        class Hidden:
            pass

def func():
    """Func doc."""

@decorator
def decorated():
    pass

if True:
    class Guarded:
        pass
`})
	pkg, ok := sys.Module("pkg")
	require.True(t, ok, "missing package is created")
	assert.True(t, pkg.IsPackage())

	mod, ok := sys.Module("pkg.mod")
	require.True(t, ok)
	assert.Equal(t, "Module doc.", mod.Docstring)
	assert.Same(t, pkg, mod.Parent)

	outer, ok := sys.Class("pkg.mod.Outer")
	require.True(t, ok)
	assert.Equal(t, "Outer doc.", outer.Docstring)
	assert.Equal(t, []string{"object"}, outer.Bases)
	assert.Equal(t, 3, outer.Line)

	_, ok = sys.Class("pkg.mod.Outer.Inner")
	assert.True(t, ok)
	method, ok := sys.Lookup("pkg.mod.Outer.method")
	require.True(t, ok)
	assert.Equal(t, model.KindMethod, method.Base().Kind)
	_, ok = sys.Lookup("pkg.mod.Outer.method.Hidden")
	assert.False(t, ok, "function bodies are not walked")

	fn, ok := sys.Lookup("pkg.mod.func")
	require.True(t, ok)
	assert.Equal(t, model.KindFunction, fn.Base().Kind)
	assert.Equal(t, "Func doc.", fn.Base().Docstring)

	_, ok = sys.Lookup("pkg.mod.decorated")
	assert.True(t, ok)
	_, ok = sys.Class("pkg.mod.Guarded")
	assert.True(t, ok)
}

func TestBuilder_ImportBindings(t *testing.T) {
	t.Parallel()
	sys := buildSources(t, nil,
		[2]string{"pkg.__init__", `
from .base import *
`},
		[2]string{"pkg.base", `
class Base: pass
class _Private: pass
`},
		[2]string{"pkg.sub.__init__", ""},
		[2]string{"pkg.sub.mod", `
import os.path
import zope.interface as zi
from zope.interface import Interface as I, implementer
from . import sibling
from .. import base
from ..base import Base as B
from pkg.base import *

class C1(os.path.Thing): pass
class C2(zi.Interface): pass
class C3(I): pass
class C4(sibling.X): pass
class C5(base.Base): pass
class C6(B): pass
class C7(_Private): pass
class C8(Base): pass
`},
	)
	want := map[string]string{
		"C1": "os.path.Thing",
		"C2": "zope.interface.Interface",
		"C3": "zope.interface.Interface",
		"C4": "pkg.sub.sibling.X",
		"C5": "pkg.base.Base",
		"C6": "pkg.base.Base",
		"C7": "_Private",
		"C8": "pkg.base.Base",
	}
	for name, base := range want {
		cls, ok := sys.Class("pkg.sub.mod." + name)
		require.True(t, ok, name)
		assert.Equal(t, []string{base}, cls.Bases, name)
	}

	base, ok := sys.Class("pkg.base.Base")
	require.True(t, ok)
	c8, _ := sys.Class("pkg.sub.mod.C8")
	assert.Same(t, base, c8.BaseObjects[0])
}

func TestBuilder_WildcardBeforeWalkIgnored(t *testing.T) {
	t.Parallel()
	sys := buildSources(t, nil,
		[2]string{"a", "from b import *\nclass A(Thing): pass\n"},
		[2]string{"b", "class Thing: pass\n"},
	)
	a, ok := sys.Class("a.A")
	require.True(t, ok)
	assert.Equal(t, []string{"Thing"}, a.Bases)
}

type recordingHandler struct {
	calls       []string
	assignments []string
	decorated   []string
}

func (h *recordingHandler) HandleAssignment(b *Builder, node *sitter.Node) bool {
	h.assignments = append(h.assignments, b.Text(node.ChildByFieldName("left")))
	return true
}

func (h *recordingHandler) HandleCall(b *Builder, node *sitter.Node) bool {
	name, ok := b.CalleeName(node)
	if !ok {
		return false
	}
	h.calls = append(h.calls, name)
	return true
}

func (h *recordingHandler) HandleClassDecorators(b *Builder, cls *model.Class, decorators []*sitter.Node) bool {
	for _, d := range decorators {
		h.decorated = append(h.decorated, cls.Name+":"+b.Text(d))
	}
	h.decorated = append(h.decorated, "scope="+b.Current().Base().FullName)
	return true
}

func TestBuilder_HandlerDispatch(t *testing.T) {
	t.Parallel()
	h := &recordingHandler{}
	buildSources(t, h, [2]string{"m", `
import zope.interface as zi

x = 1
zi.implements(Foo)
(lambda: 0)()

@zi.implementer(IFoo)
@other
class C:
    y = 2
    helper()
`})
	assert.Equal(t, []string{"x", "y"}, h.assignments)
	assert.Equal(t, []string{"zope.interface.implements", "helper"}, h.calls)
	assert.Equal(t, []string{"C:@zi.implementer(IFoo)", "C:@other", "scope=m"}, h.decorated)
}

func TestBuilder_PushPopMismatchPanics(t *testing.T) {
	t.Parallel()
	sys := model.NewSystem(nil)
	b := New(sys, nil)
	assert.Panics(t, func() { b.Pop(model.KindClass) })

	f := NewSourceFile("m", false, []byte(""))
	require.NoError(t, ParseAll(context.Background(), []*SourceFile{f}, 1))
	defer f.Close()
	require.NoError(t, b.BuildModule(f))
	assert.Nil(t, b.Current())
	assert.Error(t, b.BuildModule(NewSourceFile("unparsed", false, nil)))
}

func TestBuilder_StringLiteral(t *testing.T) {
	t.Parallel()
	src := `a = "plain"
b = 'single\ttab'
c = """triple
line"""
d = f"x{y}"
e = b"bytes"
f = "a" 'b'
g = name
h = r'\d+'
`
	f := NewSourceFile("m", false, []byte(src))
	require.NoError(t, ParseAll(context.Background(), []*SourceFile{f}, 1))
	defer f.Close()

	b := New(model.NewSystem(nil), nil)
	b.file = f
	values := map[string]string{}
	ok := map[string]bool{}
	root := f.Tree.RootNode()
	for i := 0; i < int(root.NamedChildCount()); i++ {
		assign := root.NamedChild(i).NamedChild(0)
		name := b.Text(assign.ChildByFieldName("left"))
		values[name], ok[name] = b.StringLiteral(assign.ChildByFieldName("right"))
	}

	assert.Equal(t, "plain", values["a"])
	assert.Equal(t, "single\ttab", values["b"])
	assert.Equal(t, "triple\nline", values["c"])
	assert.False(t, ok["d"])
	assert.False(t, ok["e"])
	assert.Equal(t, "ab", values["f"])
	assert.False(t, ok["g"])
	assert.Equal(t, `\d+`, values["h"])
}
