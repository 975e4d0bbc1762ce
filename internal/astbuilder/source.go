package astbuilder

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	sitter "github.com/smacker/go-tree-sitter"
	"golang.org/x/sync/errgroup"
)

// SourceFile is one Python module on disk.
type SourceFile struct {
	Path      string // absolute path
	RelPath   string // slash-separated, relative to the discovery root
	Module    string // fully-qualified module name
	IsPackage bool   // the file is a package's __init__.py
	Source    []byte
	Hash      string
	Tree      *sitter.Tree
}

// Close releases the parsed tree, if any.
func (f *SourceFile) Close() {
	if f.Tree != nil {
		f.Tree.Close()
		f.Tree = nil
	}
}

// NewSourceFile builds a SourceFile from in-memory source. Used for
// single-file analysis and tests.
func NewSourceFile(module string, isPackage bool, src []byte) *SourceFile {
	return &SourceFile{
		Path:      module,
		RelPath:   module,
		Module:    module,
		IsPackage: isPackage,
		Source:    src,
		Hash:      fmt.Sprintf("%x", sha256.Sum256(src)),
	}
}

// skipDirs are never descended into.
var skipDirs = map[string]bool{
	"__pycache__":  true,
	"node_modules": true,
}

// Discover finds the Python modules under root. When root is itself a
// package (it has an __init__.py) module names start with its directory
// name; otherwise root is treated as a source directory holding top-level
// modules and packages. Directories without __init__.py below the top level
// are not importable and are skipped. Exclude patterns are doublestar globs
// matched against slash-separated paths relative to root.
//
// Files are returned sorted by module name, so every package precedes its
// submodules.
func Discover(root string, excludes []string) ([]*SourceFile, error) {
	for _, pattern := range excludes {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid exclude pattern %q", pattern)
		}
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving path %q: %w", root, err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", absRoot, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", absRoot)
	}

	base := absRoot
	if isPackageDir(absRoot) {
		base = filepath.Dir(absRoot)
	}

	var files []*SourceFile
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(absRoot, path)
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if path == absRoot {
				return nil
			}
			name := d.Name()
			if strings.HasPrefix(name, ".") || skipDirs[name] || excluded(excludes, rel) {
				return filepath.SkipDir
			}
			if !isPackageDir(path) {
				return filepath.SkipDir
			}
			return nil
		}

		if _, ok := LanguageForFile(path); !ok || excluded(excludes, rel) {
			return nil
		}

		src, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		modRel, _ := filepath.Rel(base, path)
		module, isPkg := moduleName(filepath.ToSlash(modRel))
		files = append(files, &SourceFile{
			Path:      path,
			RelPath:   rel,
			Module:    module,
			IsPackage: isPkg,
			Source:    src,
			Hash:      fmt.Sprintf("%x", sha256.Sum256(src)),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Module < files[j].Module })
	return files, nil
}

// SourcesHash returns a digest over the module names and contents of files.
func SourcesHash(files []*SourceFile) string {
	h := sha256.New()
	for _, f := range files {
		fmt.Fprintf(h, "%s:%s\n", f.Module, f.Hash)
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

// ParseAll parses every file into its Tree using at most workers goroutines
// (NumCPU when workers <= 0). Trees are only read after ParseAll returns, so
// the tree walk never observes a partially parsed set.
func ParseAll(ctx context.Context, files []*SourceFile, workers int) error {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, f := range files {
		g.Go(func() error {
			tree, err := ParseSource(ctx, f.Source)
			if err != nil {
				return fmt.Errorf("parse %s: %w", f.RelPath, err)
			}
			f.Tree = tree
			return nil
		})
	}
	return g.Wait()
}

func isPackageDir(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, "__init__.py"))
	return err == nil && !info.IsDir()
}

func excluded(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// moduleName converts "pkg/sub/mod.py" to "pkg.sub.mod" and
// "pkg/sub/__init__.py" to "pkg.sub".
func moduleName(rel string) (string, bool) {
	name := strings.TrimSuffix(rel, filepath.Ext(rel))
	isPkg := false
	if name == "__init__" || strings.HasSuffix(name, "/__init__") {
		isPkg = true
		name = strings.TrimSuffix(strings.TrimSuffix(name, "__init__"), "/")
	}
	return strings.ReplaceAll(name, "/", "."), isPkg
}
