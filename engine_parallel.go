package zopescan

import (
	"context"
	"fmt"
	"time"

	"github.com/jward/zopescan/internal/astbuilder"
	"github.com/jward/zopescan/internal/model"
	"github.com/jward/zopescan/internal/zope"
)

type sourceFile = astbuilder.SourceFile

func (e *Engine) discover(root string) ([]*sourceFile, error) {
	files, err := astbuilder.Discover(root, e.excludes)
	if err != nil {
		return nil, fmt.Errorf("zopescan: discover: %w", err)
	}
	return files, nil
}

func sourcesHash(files []*sourceFile) string {
	return astbuilder.SourcesHash(files)
}

// analyzeFiles runs the analysis pipeline:
//
//	Phase A (parallel): parse every file with a bounded worker pool.
//	Phase B (serial):   walk the trees in module order, building the registry.
//	Phase C (serial):   finalize the registry.
//
// Trees are released before returning.
func (e *Engine) analyzeFiles(ctx context.Context, files []*sourceFile) (*model.System, error) {
	defer func() {
		for _, f := range files {
			f.Close()
		}
	}()

	// ---- Phase A: Parallel parse ----
	start := time.Now()
	if err := astbuilder.ParseAll(ctx, files, e.workers); err != nil {
		return nil, fmt.Errorf("zopescan: %w", err)
	}
	e.logger.Debug("parsed", "files", len(files), "duration", time.Since(start))

	// ---- Phase B: Serial walk ----
	start = time.Now()
	sys := model.NewSystem(e.logger)
	if err := astbuilder.New(sys, zope.NewClassifier()).Build(ctx, files); err != nil {
		return nil, fmt.Errorf("zopescan: build: %w", err)
	}
	e.logger.Debug("walked", "objects", sys.Len(), "duration", time.Since(start))

	// ---- Phase C: Finalize ----
	start = time.Now()
	zope.Finalize(sys, e.finalizeOptions()...)
	e.logger.Debug("finalized", "classes", len(sys.Classes()), "duration", time.Since(start))

	return sys, nil
}
