package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/zopescan"
)

func TestFindRepoRoot_DirectGitDir(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))

	assert.Equal(t, root, findRepoRoot(root))
}

func TestFindRepoRoot_NestedSubdirectory(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))
	deep := filepath.Join(root, "pkg", "sub")
	require.NoError(t, os.MkdirAll(deep, 0o755))

	assert.Equal(t, root, findRepoRoot(deep))
}

func TestFindRepoRoot_NoGitAncestor(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	assert.Equal(t, dir, findRepoRoot(dir))
}

func TestResolveDBPath(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "repo")
	defer func() { flagDB = "" }()

	flagDB = ""
	assert.Equal(t, filepath.Join(root, ".zopescan", "index.db"), resolveDBPath(root))

	flagDB = "other.db"
	assert.Equal(t, filepath.Join(root, "other.db"), resolveDBPath(root))

	abs := filepath.Join(t.TempDir(), "abs.db")
	flagDB = abs
	assert.Equal(t, abs, resolveDBPath(root))
}

func TestResolveTargetDir(t *testing.T) {
	dir := t.TempDir()
	got, err := resolveTargetDir([]string{dir})
	require.NoError(t, err)
	assert.Equal(t, dir, got)

	_, err = resolveTargetDir([]string{filepath.Join(dir, "missing")})
	assert.ErrorContains(t, err, "directory not found")

	file := filepath.Join(dir, "mod.py")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	_, err = resolveTargetDir([]string{file})
	assert.ErrorContains(t, err, "not a directory")
}

func TestValidateFormat(t *testing.T) {
	t.Parallel()
	assert.NoError(t, validateFormat("json"))
	assert.NoError(t, validateFormat("text"))
	assert.ErrorContains(t, validateFormat("yaml"), `invalid format "yaml"`)
}

func TestValidateKind(t *testing.T) {
	t.Parallel()
	for _, k := range []string{"", "direct", "indirect"} {
		assert.NoError(t, validateKind(k))
	}
	assert.Error(t, validateKind("both"))
}

func TestFilterKind(t *testing.T) {
	t.Parallel()
	direct, indirect := []string{"a.A"}, []string{"a.B"}
	filterKind(&direct, &indirect, "direct")
	assert.Equal(t, []string{"a.A"}, direct)
	assert.Empty(t, indirect)

	direct, indirect = []string{"a.A"}, []string{"a.B"}
	filterKind(&direct, &indirect, "indirect")
	assert.Empty(t, direct)
	assert.Equal(t, []string{"a.B"}, indirect)
}

func TestParseGlobals(t *testing.T) {
	t.Parallel()
	got, err := parseGlobals([]string{"iface=app.IThing", "empty=", "eq=a=b"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"iface": "app.IThing", "empty": "", "eq": "a=b"}, got)

	_, err = parseGlobals([]string{"novalue"})
	assert.ErrorContains(t, err, "want key=value")
	_, err = parseGlobals([]string{"=x"})
	assert.Error(t, err)
}

func TestIndexResultToCLI(t *testing.T) {
	t.Parallel()
	got := indexResultToCLI(&zopescan.IndexResult{
		Root:       "/src",
		Files:      4,
		Classes:    3,
		Interfaces: 1,
		Warnings:   2,
		Duration:   1500 * time.Microsecond,
	}, "/src/.zopescan/index.db")

	assert.Equal(t, CLIIndexResult{
		Root:       "/src",
		Database:   "/src/.zopescan/index.db",
		Files:      4,
		Classes:    3,
		Interfaces: 1,
		Warnings:   2,
		DurationMS: 2,
	}, got)
}

func TestOutputResultText_Implementers(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	err := outputResultText(&buf, CLIResult{
		Command: "implementers",
		Results: CLIImplementers{
			Interface: CLISymbol{FullName: "app.IThing"},
			Direct:    []string{"app.Thing"},
			Indirect:  []string{"app.SubThing"},
		},
	})
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "Interface: app.IThing")
	assert.Regexp(t, `app\.Thing\s+direct`, out)
	assert.Regexp(t, `app\.SubThing\s+indirect`, out)
}

func TestOutputResultText_Symbols(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	zero := 0
	err := outputResultText(&buf, CLIResult{Results: []CLISymbol{}, TotalCount: &zero})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "NAME")
	assert.Contains(t, buf.String(), "No results")

	buf.Reset()
	err = outputResultText(&buf, CLIResult{Results: []CLISymbol{
		{FullName: "app.IThing", Kind: "interface", File: "app.py", Line: 3},
	}})
	require.NoError(t, err)
	assert.Regexp(t, `app\.IThing\s+interface\s+app\.py\s+3`, buf.String())
}

func TestOutputResultText_Summary(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	err := outputResultText(&buf, CLIResult{Results: CLISummary{
		Root:       "/src",
		Files:      2,
		Interfaces: 1,
		KindCounts: map[string]int{"module": 2, "class": 1},
	}})
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "Files: 2")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("class: 1")), bytes.Index(buf.Bytes(), []byte("module: 2")),
		"kinds are sorted")
}

func TestOutputResultText_Hierarchy(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	err := outputResultText(&buf, CLIResult{Results: CLIHierarchy{
		Class:     CLISymbol{FullName: "app.Sub"},
		Bases:     []string{"app.Base"},
		Ancestors: []string{"app.Base"},
	}})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Bases:\n  app.Base\n")
	assert.NotContains(t, buf.String(), "Subclasses:")
}

func TestOutputResultText_Unsupported(t *testing.T) {
	t.Parallel()
	err := outputResultText(&bytes.Buffer{}, CLIResult{Results: 42})
	assert.ErrorContains(t, err, "unsupported result type")
}
