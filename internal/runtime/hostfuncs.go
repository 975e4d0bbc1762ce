package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/risor-io/risor/object"

	"github.com/jward/zopescan/internal/astbuilder"
	"github.com/jward/zopescan/internal/model"
	"github.com/jward/zopescan/internal/zope"
)

// makeAnalyzeSrcFn creates "analyze_src", which runs the whole analysis on
// a single Python snippet without touching the index.
//
// analyze_src(source, module="snippet") → [ {full_name, kind, is_interface,
// implements_only, implements_directly, implements_indirectly,
// implemented_by_directly, implemented_by_indirectly, bases}, ... ]
func makeAnalyzeSrcFn(logger *slog.Logger) *object.Builtin {
	return object.NewBuiltin("analyze_src", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) < 1 || len(args) > 2 {
			return object.Errorf("analyze_src: expected 1 or 2 arguments, got %d", len(args))
		}
		src, err := toString(args[0])
		if err != nil {
			return object.Errorf("analyze_src: source: %v", err)
		}
		module := "snippet"
		if len(args) == 2 {
			if module, err = toString(args[1]); err != nil {
				return object.Errorf("analyze_src: module: %v", err)
			}
		}

		f := astbuilder.NewSourceFile(module, false, []byte(src))
		if err := astbuilder.ParseAll(ctx, []*astbuilder.SourceFile{f}, 1); err != nil {
			return object.Errorf("analyze_src: %v", err)
		}
		defer f.Close()

		sys := model.NewSystem(logger)
		if err := astbuilder.New(sys, zope.NewClassifier()).Build(ctx, []*astbuilder.SourceFile{f}); err != nil {
			return object.Errorf("analyze_src: %v", err)
		}
		zope.Finalize(sys)

		var results []object.Object
		for _, cls := range sys.Classes() {
			results = append(results, classToMap(cls))
		}
		if results == nil {
			results = []object.Object{}
		}
		return object.NewList(results)
	})
}

func classToMap(cls *model.Class) object.Object {
	return object.NewMap(map[string]object.Object{
		"full_name":                 object.NewString(cls.FullName),
		"kind":                      object.NewString(string(cls.Kind)),
		"is_interface":              object.NewBool(cls.IsInterface),
		"implements_only":           object.NewBool(cls.ImplementsOnly),
		"bases":                     stringsToList(cls.Bases),
		"implements_directly":       stringsToList(cls.ImplementsDirectly.Items()),
		"implements_indirectly":     stringsToList(cls.ImplementsIndirectly.Items()),
		"implemented_by_directly":   stringsToList(cls.ImplementedByDirectly.Items()),
		"implemented_by_indirectly": stringsToList(cls.ImplementedByIndirectly.Items()),
	})
}

// logObject provides log.info/warn/error/debug methods for Risor scripts.
type logObject struct {
	logger *slog.Logger
}

func (l *logObject) Debug(msg string) { l.logger.Debug(msg, "source", "script") }
func (l *logObject) Info(msg string)  { l.logger.Info(msg, "source", "script") }
func (l *logObject) Warn(msg string)  { l.logger.Warn(msg, "source", "script") }
func (l *logObject) Error(msg string) { l.logger.Error(msg, "source", "script") }

// makeReportFn creates "report", which writes its arguments to w as one
// tab-separated line. Strings are written bare.
//
// report(value, ...) → nil
func makeReportFn(w io.Writer) *object.Builtin {
	return object.NewBuiltin("report", func(ctx context.Context, args ...object.Object) object.Object {
		fields := make([]string, 0, len(args))
		for _, arg := range args {
			if s, ok := arg.(*object.String); ok {
				fields = append(fields, s.Value())
				continue
			}
			fields = append(fields, arg.Inspect())
		}
		if _, err := fmt.Fprintln(w, strings.Join(fields, "\t")); err != nil {
			return object.Errorf("report: %v", err)
		}
		return object.Nil
	})
}
