package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_AllFields(t *testing.T) {
	t.Parallel()

	cfg, err := Parse([]byte(`
exclude:
  - "**/test/**"
  - build/**
workers: 4
interface_roots:
  - mylib.interfaces.Interface
test_segment: ".tests."
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"**/test/**", "build/**"}, cfg.Exclude)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, []string{"mylib.interfaces.Interface"}, cfg.InterfaceRoots)
	require.NotNil(t, cfg.TestSegment)
	assert.Equal(t, ".tests.", *cfg.TestSegment)
}

func TestParse_EmptyTestSegmentIsExplicit(t *testing.T) {
	t.Parallel()

	cfg, err := Parse([]byte(`test_segment: ""`))
	require.NoError(t, err)
	require.NotNil(t, cfg.TestSegment)
	assert.Empty(t, *cfg.TestSegment)
}

func TestParse_EmptyDocument(t *testing.T) {
	t.Parallel()

	for _, doc := range []string{"", "# nothing here\n"} {
		cfg, err := Parse([]byte(doc))
		require.NoError(t, err)
		assert.Equal(t, &Config{}, cfg)
	}
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"unknown key", "excludes: [a]", "parse"},
		{"bad type", "workers: many", "parse"},
		{"negative workers", "workers: -1", "must not be negative"},
		{"bad glob", `exclude: ["[unclosed"]`, "invalid exclude pattern"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestFind(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg, err := Find(dir)
	require.NoError(t, err)
	assert.Equal(t, &Config{}, cfg)

	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("workers: 2\n"), 0644))
	cfg, err = Find(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Workers)
}

func TestLoad_Missing(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMerge(t *testing.T) {
	t.Parallel()

	seg := ""
	base := &Config{Exclude: []string{"a/**"}, Workers: 2}
	merged := base.Merge(&Config{Exclude: []string{"b/**"}, InterfaceRoots: []string{"x.I"}, TestSegment: &seg})

	assert.Equal(t, []string{"a/**", "b/**"}, merged.Exclude)
	assert.Equal(t, 2, merged.Workers)
	assert.Equal(t, []string{"x.I"}, merged.InterfaceRoots)
	require.NotNil(t, merged.TestSegment)
	assert.Empty(t, *merged.TestSegment)
	assert.Equal(t, []string{"a/**"}, base.Exclude, "receiver is not modified")
	assert.Nil(t, base.TestSegment)
}
