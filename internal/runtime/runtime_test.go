package runtime

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/zopescan/internal/astbuilder"
	"github.com/jward/zopescan/internal/model"
	"github.com/jward/zopescan/internal/store"
	"github.com/jward/zopescan/internal/zope"
)

const indexedSource = `
import zope.interface

class IThing(zope.interface.Interface):
    name = zope.interface.Attribute("The name.")
    size = zope.interface.Attribute("The size.")

class Thing(object):
    zope.interface.implements(IThing)

class Special(Thing):
    pass

zope.interface.classImplements(Missing, IThing)
`

// indexedStore analyzes indexedSource as module "pkg.things" and saves it
// into a fresh store.
func indexedStore(t *testing.T) *store.Store {
	t.Helper()
	ctx := context.Background()

	f := astbuilder.NewSourceFile("pkg.things", false, []byte(indexedSource))
	f.Path = "/src/pkg/things.py"
	require.NoError(t, astbuilder.ParseAll(ctx, []*astbuilder.SourceFile{f}, 1))
	defer f.Close()

	sys := model.NewSystem(nil)
	require.NoError(t, astbuilder.New(sys, zope.NewClassifier()).Build(ctx, []*astbuilder.SourceFile{f}))
	zope.Finalize(sys)

	s, err := store.NewStore(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate())
	require.NoError(t, s.SaveSnapshot(store.NewSnapshot(sys, map[string]string{f.Path: f.Hash})))
	return s
}

// --- Store-backed globals ---

func TestRunSource_Interfaces(t *testing.T) {
	rt := NewRuntime(indexedStore(t), "")

	script := `
ifaces := interfaces()
assert(len(ifaces) == 1, 'expected 1 interface, got {len(ifaces)}')
assert(ifaces[0]["full_name"] == "pkg.things.IThing", "unexpected value")
assert(ifaces[0]["is_interface"], "IThing should be an interface")
`
	err := rt.RunSource(context.Background(), script, nil)
	require.NoError(t, err)
}

func TestRunSource_Symbol(t *testing.T) {
	rt := NewRuntime(indexedStore(t), "")

	script := `
sym := symbol("pkg.things.Thing")
assert(sym["kind"] == "class", "unexpected value")
assert(sym["path"] == "/src/pkg/things.py", "unexpected value")
assert(sym["parent"] == "pkg.things", "unexpected value")
assert(!sym["is_interface"], "Thing is not an interface")

assert(symbol("pkg.things.Nope") == nil, "unknown symbol should be nil")
`
	err := rt.RunSource(context.Background(), script, nil)
	require.NoError(t, err)
}

func TestRunSource_ImplementedBy(t *testing.T) {
	rt := NewRuntime(indexedStore(t), "")

	script := `
direct := implemented_by("pkg.things.IThing", "direct")
assert(len(direct) == 1, 'expected 1 direct implementer, got {len(direct)}')
assert(direct[0] == "pkg.things.Thing", 'got {direct[0]}')

indirect := implemented_by("pkg.things.IThing", "indirect")
assert(len(indirect) == 1, 'expected 1 indirect implementer, got {len(indirect)}')
assert(indirect[0] == "pkg.things.Special", 'got {indirect[0]}')

assert(len(implemented_by("pkg.things.IThing")) == 2, "both kinds")
assert(len(implemented_by("no.such.IFace")) == 0, "unknown interface")
`
	err := rt.RunSource(context.Background(), script, nil)
	require.NoError(t, err)
}

func TestRunSource_ImplementedByBadKind(t *testing.T) {
	rt := NewRuntime(indexedStore(t), "")

	err := rt.RunSource(context.Background(), `implemented_by("pkg.things.IThing", "sideways")`, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kind must be")
}

func TestRunSource_Implements(t *testing.T) {
	rt := NewRuntime(indexedStore(t), "")

	script := `
assert(len(implements("pkg.things.Thing", "direct")) == 1, "Thing declares IThing")
assert(len(implements("pkg.things.Thing", "indirect")) == 0, "Thing inherits nothing")

inherited := implements("pkg.things.Special")
assert(len(inherited) == 1, 'expected 1, got {len(inherited)}')
assert(inherited[0] == "pkg.things.IThing", 'got {inherited[0]}')
`
	err := rt.RunSource(context.Background(), script, nil)
	require.NoError(t, err)
}

func TestRunSource_AttributesAndSubclasses(t *testing.T) {
	rt := NewRuntime(indexedStore(t), "")

	script := `
attrs := attributes("pkg.things.IThing")
assert(len(attrs) == 2, 'expected 2 attributes, got {len(attrs)}')
assert(attrs[0]["name"] == "name", "unexpected value")
assert(attrs[0]["docstring"] == "The name.", "unexpected value")
assert(attrs[1]["name"] == "size", "unexpected value")

subs := subclasses("pkg.things.Thing")
assert(len(subs) == 1, 'expected 1 subclass, got {len(subs)}')
assert(subs[0]["full_name"] == "pkg.things.Special", "unexpected value")

assert(len(symbols_by_kind("attribute")) == 2, "two attributes indexed")
`
	err := rt.RunSource(context.Background(), script, nil)
	require.NoError(t, err)
}

func TestRunSource_Warnings(t *testing.T) {
	rt := NewRuntime(indexedStore(t), "")

	script := `
ws := warnings()
assert(len(ws) == 1, 'expected 1 warning, got {len(ws)}')
assert(ws[0]["message"] == "classImplements on unknown class", "unexpected value")
assert(ws[0]["detail"] == "Missing", "unexpected value")
`
	err := rt.RunSource(context.Background(), script, nil)
	require.NoError(t, err)
}

func TestRunSource_DBQuery(t *testing.T) {
	rt := NewRuntime(indexedStore(t), "")

	script := `
rows := db_query("SELECT full_name FROM symbols WHERE kind = ? ORDER BY full_name", "interface")
assert(len(rows) == 1, 'expected 1 row, got {len(rows)}')
assert(rows[0]["full_name"] == "pkg.things.IThing", "unexpected value")
`
	err := rt.RunSource(context.Background(), script, nil)
	require.NoError(t, err)
}

func TestRunSource_DBQueryRejectsWrites(t *testing.T) {
	s := indexedStore(t)
	rt := NewRuntime(s, "")

	err := rt.RunSource(context.Background(), `db_query("DELETE FROM symbols")`, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only SELECT")

	err = rt.RunSource(context.Background(), `db_query("WITH x AS (SELECT 1) DELETE FROM warnings")`, nil)
	require.Error(t, err)

	ws, err := s.Warnings()
	require.NoError(t, err)
	assert.Len(t, ws, 1, "warnings survive a CTE-prefixed delete")

	// The pooled connection accepts writes again afterwards.
	require.NoError(t, s.SetMetadata("after_read", "ok"))
}

func TestRunSource_StoreGlobalsAbsentWithoutStore(t *testing.T) {
	rt := NewRuntime(nil, "")

	err := rt.RunSource(context.Background(), `interfaces()`, nil)
	require.Error(t, err)
}

// --- Store-independent globals ---

func TestRunSource_AnalyzeSrc(t *testing.T) {
	rt := NewRuntime(nil, "")

	script := `
classes := analyze_src(src, "demo")
assert(len(classes) == 3, 'expected 3 classes, got {len(classes)}')

iface := classes[0]
assert(iface["full_name"] == "demo.IFoo", "unexpected value")
assert(iface["is_interface"], "IFoo should be an interface")
assert(iface["implemented_by_directly"][0] == "demo.Foo", "Foo implements IFoo")
assert(iface["implemented_by_indirectly"][0] == "demo.SubFoo", "SubFoo inherits IFoo")

sub := classes[2]
assert(sub["bases"][0] == "demo.Foo", "unexpected value")
assert(len(sub["implements_directly"]) == 0, "SubFoo declares nothing")
assert(sub["implements_indirectly"][0] == "demo.IFoo", "SubFoo inherits IFoo")
`
	src := `
from zope.interface import Interface, implementer

class IFoo(Interface):
    pass

@implementer(IFoo)
class Foo:
    pass

class SubFoo(Foo):
    pass
`
	err := rt.RunSource(context.Background(), script, map[string]any{"src": src})
	require.NoError(t, err)
}

func TestRunSource_AnalyzeSrcDefaultModule(t *testing.T) {
	rt := NewRuntime(nil, "")

	script := `
classes := analyze_src("class A:\n    pass\n")
assert(len(classes) == 1, 'expected 1 class, got {len(classes)}')
assert(classes[0]["full_name"] == "snippet.A", "unexpected value")
assert(len(analyze_src("x = 1\n")) == 0, "no classes")
`
	err := rt.RunSource(context.Background(), script, nil)
	require.NoError(t, err)
}

func TestRunSource_AnalyzeSrcBadArgs(t *testing.T) {
	rt := NewRuntime(nil, "")

	err := rt.RunSource(context.Background(), `analyze_src()`, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 1 or 2 arguments")
}

func TestRunSource_LogUsesConfiguredLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	rt := NewRuntime(nil, "", WithRuntimeLogger(logger))

	err := rt.RunSource(context.Background(), `log.Warn("checked 3 interfaces")`, nil)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), `msg="checked 3 interfaces"`)
	assert.Contains(t, buf.String(), "source=script")
}

func TestRunSource_ReportWritesLines(t *testing.T) {
	var out bytes.Buffer
	rt := NewRuntime(indexedStore(t), "", WithRuntimeOutput(&out))
	err := rt.RunSource(context.Background(), `
report("plain")
report(interfaces()[0]["full_name"], len(implemented_by("pkg.things.IThing")), true)
`, nil)
	require.NoError(t, err)
	assert.Equal(t, "plain\npkg.things.IThing\t2\ttrue\n", out.String())
}

func TestRunSource_ExtraGlobals(t *testing.T) {
	rt := NewRuntime(nil, "")

	err := rt.RunSource(context.Background(), `assert(threshold == 3, 'got {threshold}')`, map[string]any{"threshold": 3})
	require.NoError(t, err)
}

// --- Script loading ---

func TestRunScript_LoadsFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "check.risor"), []byte(`result := 1 + 1`), 0644))

	rt := NewRuntime(nil, dir)
	require.NoError(t, rt.RunScript(context.Background(), "check.risor", nil))
}

func TestRunScript_MissingFile(t *testing.T) {
	rt := NewRuntime(nil, t.TempDir())

	err := rt.RunScript(context.Background(), "nonexistent.risor", nil)
	require.Error(t, err)
}

func TestRunScript_ErrorCarriesLabel(t *testing.T) {
	mapFS := fstest.MapFS{
		"bad.risor": &fstest.MapFile{Data: []byte(`assert(false, "boom")`)},
	}
	rt := NewRuntime(nil, "", WithRuntimeFS(mapFS))

	err := rt.RunScript(context.Background(), "bad.risor", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.risor")
}

func TestLoadScript(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "report.risor")
	content := `x := 42`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	rt := NewRuntime(nil, dir)
	got, err := rt.LoadScript(path)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestLoadScript_FromFS(t *testing.T) {
	t.Parallel()

	content := `x := 42`
	mapFS := fstest.MapFS{
		"reports/coverage.risor": &fstest.MapFile{Data: []byte(content)},
	}
	rt := NewRuntime(nil, "", WithRuntimeFS(mapFS))

	got, err := rt.LoadScript("reports/coverage.risor")
	require.NoError(t, err)
	assert.Equal(t, content, got)

	// Absolute-style path should be resolved within the FS.
	got, err = rt.LoadScript("/reports/coverage.risor")
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestLoadScript_FromFS_NotFound(t *testing.T) {
	t.Parallel()

	rt := NewRuntime(nil, "", WithRuntimeFS(fstest.MapFS{}))

	_, err := rt.LoadScript("nonexistent.risor")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "from fs")
}

func TestLoadScript_FallsBackToDisk(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	content := `z := 7`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "local.risor"), []byte(content), 0644))

	rt := NewRuntime(nil, dir)
	got, err := rt.LoadScript("local.risor")
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

// --- Importer wiring ---

func TestImport_FSImporter(t *testing.T) {
	// FSImporter resolves "lib_helpers" by trying name + ".risor" at the
	// root of the FS.
	mapFS := fstest.MapFS{
		"lib_helpers.risor": &fstest.MapFile{Data: []byte(`
func all_interfaces(classes) {
	out := []
	for _, c := range classes {
		if c["is_interface"] {
			out.append(c["full_name"])
		}
	}
	return out
}
`)},
	}
	rt := NewRuntime(nil, "", WithRuntimeFS(mapFS))

	script := `
import lib_helpers

names := lib_helpers.all_interfaces(analyze_src("import zope.interface\nclass I(zope.interface.Interface):\n    pass\n", "m"))
assert(len(names) == 1, 'expected 1, got {len(names)}')
assert(names[0] == "m.I", 'got {names[0]}')
`
	require.NoError(t, rt.RunSource(context.Background(), script, nil))
}

func TestImport_LocalImporter(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "math_utils.risor"), []byte(`
func double(x) {
	return x * 2
}
`), 0644))

	rt := NewRuntime(nil, dir)

	script := `
import math_utils

result := math_utils.double(21)
assert(result == 42, 'expected 42, got {result}')
`
	require.NoError(t, rt.RunSource(context.Background(), script, nil))
}

func TestImport_GlobalsAvailableInImportedModules(t *testing.T) {
	// Compiling helper fails unless host global names reach the importer.
	mapFS := fstest.MapFS{
		"helper.risor": &fstest.MapFile{Data: []byte(`
func do_log(msg) {
	log.Info(msg)
}
`)},
	}
	rt := NewRuntime(nil, "", WithRuntimeFS(mapFS))

	script := `
import helper
helper.do_log("test message")
`
	require.NoError(t, rt.RunSource(context.Background(), script, nil))
}

func TestNewRuntime_Defaults(t *testing.T) {
	t.Parallel()

	rt := NewRuntime(nil, "/some/dir")
	require.NotNil(t, rt)
	assert.Nil(t, rt.fsys)
	assert.Equal(t, "/some/dir", rt.scriptsDir)
	assert.Equal(t, slog.Default(), rt.logger)
}
