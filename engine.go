package zopescan

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/jward/zopescan/internal/config"
	"github.com/jward/zopescan/internal/runtime"
	"github.com/jward/zopescan/internal/store"
	"github.com/jward/zopescan/internal/zope"
)

// Engine orchestrates the zopescan pipeline: module discovery, parallel
// parsing, the tree walk, finalization, persistence, and query access.
type Engine struct {
	store      *store.Store
	runtime    *runtime.Runtime
	logger     *slog.Logger
	scriptsDir string
	scriptsFS  fs.FS
	scriptOut  io.Writer

	workers     int
	excludes    []string
	roots       []string
	testSegment *string
}

// Option configures an Engine.
type Option func(*Engine)

// WithWorkers bounds the parse worker pool. n <= 0 selects NumCPU.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		e.workers = n
	}
}

// WithExcludes adds doublestar globs, relative to the indexed root, of
// paths to skip.
func WithExcludes(patterns ...string) Option {
	return func(e *Engine) {
		e.excludes = append(e.excludes, patterns...)
	}
}

// WithLogger sets the logger for analysis warnings and engine progress.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithInterfaceRoots adds full names that are treated as interface roots
// on top of zope.interface.Interface and twisted.python.components.Interface.
func WithInterfaceRoots(roots ...string) Option {
	return func(e *Engine) {
		e.roots = append(e.roots, roots...)
	}
}

// WithTestSegment overrides the ".test." marker identifying test code. An
// empty segment disables test filtering.
func WithTestSegment(segment string) Option {
	return func(e *Engine) {
		e.testSegment = &segment
	}
}

// WithConfig applies a project config file's settings.
func WithConfig(cfg *config.Config) Option {
	return func(e *Engine) {
		if cfg == nil {
			return
		}
		if cfg.Workers != 0 {
			e.workers = cfg.Workers
		}
		e.excludes = append(e.excludes, cfg.Exclude...)
		e.roots = append(e.roots, cfg.InterfaceRoots...)
		if cfg.TestSegment != nil {
			seg := *cfg.TestSegment
			e.testSegment = &seg
		}
	}
}

// WithScriptsFS configures the Engine to load Risor scripts from the given
// filesystem instead of from the scriptsDir path on disk.
func WithScriptsFS(fsys fs.FS) Option {
	return func(e *Engine) {
		e.scriptsFS = fsys
	}
}

// WithScriptOutput sets where the script "report" global writes.
func WithScriptOutput(w io.Writer) Option {
	return func(e *Engine) {
		e.scriptOut = w
	}
}

// New creates an Engine backed by a SQLite database at dbPath. scriptsDir
// is where RunScript looks for .risor files and may be empty.
func New(dbPath string, scriptsDir string, opts ...Option) (*Engine, error) {
	s, err := store.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("zopescan: create store: %w", err)
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("zopescan: migrate: %w", err)
	}

	e := &Engine{
		store:      s,
		scriptsDir: scriptsDir,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}

	rtOpts := []runtime.RuntimeOption{runtime.WithRuntimeLogger(e.logger)}
	if e.scriptsFS != nil {
		rtOpts = append(rtOpts, runtime.WithRuntimeFS(e.scriptsFS))
	}
	if e.scriptOut != nil {
		rtOpts = append(rtOpts, runtime.WithRuntimeOutput(e.scriptOut))
	}
	e.runtime = runtime.NewRuntime(s, scriptsDir, rtOpts...)

	return e, nil
}

// Close releases the Engine's database resources.
func (e *Engine) Close() error {
	return e.store.Close()
}

// Store returns the underlying Store for direct access.
func (e *Engine) Store() *Store {
	return e.store
}

// Query returns a new QueryBuilder wrapping the Store.
func (e *Engine) Query() *QueryBuilder {
	return &QueryBuilder{store: e.store}
}

// RunScript executes a Risor script against the index.
func (e *Engine) RunScript(ctx context.Context, path string, globals map[string]any) error {
	return e.runtime.RunScript(ctx, path, globals)
}

// IndexResult summarizes one IndexDirectory run.
type IndexResult struct {
	Root       string
	Files      int
	Skipped    bool // sources and settings unchanged since the last run
	Classes    int
	Interfaces int
	Warnings   int
	Duration   time.Duration
}

// IndexDirectory analyzes every Python module under root and replaces the
// index with the result. When neither the sources nor the analysis
// settings changed since the last run the index is left alone, unless
// force is set.
func (e *Engine) IndexDirectory(ctx context.Context, root string, force bool) (*IndexResult, error) {
	start := time.Now()
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("zopescan: resolve root: %w", err)
	}

	files, err := e.discover(absRoot)
	if err != nil {
		return nil, err
	}
	result := &IndexResult{Root: absRoot, Files: len(files)}

	key := e.indexKey(files)
	if !force {
		stored, err := e.store.Metadata(store.MetaSourcesHash)
		if err != nil {
			return nil, fmt.Errorf("zopescan: %w", err)
		}
		if stored == key {
			e.logger.Info("index up to date", "root", absRoot, "files", len(files))
			result.Skipped = true
			result.Duration = time.Since(start)
			return result, nil
		}
	}

	sys, err := e.analyzeFiles(ctx, files)
	if err != nil {
		return nil, err
	}

	hashes := make(map[string]string, len(files))
	for _, f := range files {
		hashes[f.Path] = f.Hash
	}
	if err := e.store.SaveSnapshot(store.NewSnapshot(sys, hashes)); err != nil {
		return nil, fmt.Errorf("zopescan: %w", err)
	}
	for k, v := range map[string]string{
		store.MetaSourcesHash: key,
		store.MetaRoot:        absRoot,
		store.MetaIndexedAt:   time.Now().UTC().Format(time.RFC3339),
	} {
		if err := e.store.SetMetadata(k, v); err != nil {
			return nil, fmt.Errorf("zopescan: %w", err)
		}
	}

	for _, cls := range sys.Classes() {
		result.Classes++
		if cls.IsInterface {
			result.Interfaces++
		}
	}
	result.Warnings = len(sys.Warnings())
	result.Duration = time.Since(start)
	e.logger.Info("indexed",
		"root", absRoot,
		"files", result.Files,
		"classes", result.Classes,
		"interfaces", result.Interfaces,
		"warnings", result.Warnings,
		"duration", result.Duration,
	)
	return result, nil
}

// Analyze runs the whole analysis over root and returns the finalized
// System without touching the index.
func (e *Engine) Analyze(ctx context.Context, root string) (*System, error) {
	files, err := e.discover(root)
	if err != nil {
		return nil, err
	}
	return e.analyzeFiles(ctx, files)
}

// finalizeOptions maps the engine settings onto zope.Finalize options.
func (e *Engine) finalizeOptions() []zope.Option {
	var opts []zope.Option
	if len(e.roots) > 0 {
		opts = append(opts, zope.WithInterfaceRoots(e.roots...))
	}
	if e.testSegment != nil {
		opts = append(opts, zope.WithTestSegment(*e.testSegment))
	}
	return opts
}

// indexKey combines the sources digest with the settings that change the
// analysis result.
func (e *Engine) indexKey(files []*sourceFile) string {
	segment := zope.DefaultTestSegment
	if e.testSegment != nil {
		segment = *e.testSegment
	}
	h := sha256.New()
	fmt.Fprintf(h, "sources=%s\nroots=%s\ntest=%q\n",
		sourcesHash(files), strings.Join(e.roots, ","), segment)
	return fmt.Sprintf("%x", h.Sum(nil))
}
