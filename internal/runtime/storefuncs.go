package runtime

import (
	"context"
	"fmt"
	"strings"

	"github.com/risor-io/risor/object"

	"github.com/jward/zopescan/internal/store"
)

// Host functions over the index. Each accepts and returns plain Risor
// values (strings, lists, maps) so scripts never handle Go structs.

// makeSymbolFn: symbol(full_name) → map or nil.
func makeSymbolFn(s *store.Store) *object.Builtin {
	return object.NewBuiltin("symbol", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("symbol", 1, len(args))
		}
		name, err := toString(args[0])
		if err != nil {
			return object.Errorf("symbol: %v", err)
		}
		sym, queryErr := s.SymbolByName(name)
		if queryErr != nil {
			return object.Errorf("symbol: %v", queryErr)
		}
		if sym == nil {
			return object.Nil
		}
		return symbolToMap(sym)
	})
}

// makeInterfacesFn: interfaces() → list of symbol maps.
func makeInterfacesFn(s *store.Store) *object.Builtin {
	return object.NewBuiltin("interfaces", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 0 {
			return object.NewArgsError("interfaces", 0, len(args))
		}
		syms, err := s.Interfaces()
		if err != nil {
			return object.Errorf("interfaces: %v", err)
		}
		return symbolsToList(syms)
	})
}

// makeImplementedByFn: implemented_by(interface, kind="") → list of class
// names from the interface's implemented-by index. kind is "direct",
// "indirect" or empty for both.
func makeImplementedByFn(s *store.Store) *object.Builtin {
	return object.NewBuiltin("implemented_by", func(ctx context.Context, args ...object.Object) object.Object {
		name, kind, err := nameAndKind("implemented_by", args)
		if err != nil {
			return object.Errorf("%v", err)
		}
		iface, queryErr := s.SymbolByName(name)
		if queryErr != nil {
			return object.Errorf("implemented_by: %v", queryErr)
		}
		if iface == nil {
			return object.NewList([]object.Object{})
		}
		ims, queryErr := s.ImplementersOf(iface.ID, kind)
		if queryErr != nil {
			return object.Errorf("implemented_by: %v", queryErr)
		}
		names := make([]string, 0, len(ims))
		for _, im := range ims {
			names = append(names, im.ClassName)
		}
		return stringsToList(names)
	})
}

// makeImplementsFn: implements(class, kind="") → list of interface names.
func makeImplementsFn(s *store.Store) *object.Builtin {
	return object.NewBuiltin("implements", func(ctx context.Context, args ...object.Object) object.Object {
		name, kind, err := nameAndKind("implements", args)
		if err != nil {
			return object.Errorf("%v", err)
		}
		cls, queryErr := s.SymbolByName(name)
		if queryErr != nil {
			return object.Errorf("implements: %v", queryErr)
		}
		if cls == nil {
			return object.NewList([]object.Object{})
		}
		impls, queryErr := s.ImplementationsByClass(cls.ID, kind)
		if queryErr != nil {
			return object.Errorf("implements: %v", queryErr)
		}
		names := make([]string, 0, len(impls))
		for _, impl := range impls {
			names = append(names, impl.Interface)
		}
		return stringsToList(names)
	})
}

// makeSubclassesFn: subclasses(class) → list of symbol maps.
func makeSubclassesFn(s *store.Store) *object.Builtin {
	return object.NewBuiltin("subclasses", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("subclasses", 1, len(args))
		}
		name, err := toString(args[0])
		if err != nil {
			return object.Errorf("subclasses: %v", err)
		}
		syms, queryErr := s.Subclasses(name)
		if queryErr != nil {
			return object.Errorf("subclasses: %v", queryErr)
		}
		return symbolsToList(syms)
	})
}

// makeAttributesFn: attributes(interface) → list of attribute symbol maps.
func makeAttributesFn(s *store.Store) *object.Builtin {
	return object.NewBuiltin("attributes", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("attributes", 1, len(args))
		}
		name, err := toString(args[0])
		if err != nil {
			return object.Errorf("attributes: %v", err)
		}
		children, queryErr := s.SymbolChildren(name)
		if queryErr != nil {
			return object.Errorf("attributes: %v", queryErr)
		}
		var attrs []*store.Symbol
		for _, c := range children {
			if c.Kind == "attribute" {
				attrs = append(attrs, c)
			}
		}
		return symbolsToList(attrs)
	})
}

// makeWarningsFn: warnings() → list of {message, detail}.
func makeWarningsFn(s *store.Store) *object.Builtin {
	return object.NewBuiltin("warnings", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 0 {
			return object.NewArgsError("warnings", 0, len(args))
		}
		ws, err := s.Warnings()
		if err != nil {
			return object.Errorf("warnings: %v", err)
		}
		results := make([]object.Object, 0, len(ws))
		for _, w := range ws {
			results = append(results, object.NewMap(map[string]object.Object{
				"message": object.NewString(w.Message),
				"detail":  object.NewString(w.Detail),
			}))
		}
		return object.NewList(results)
	})
}

func makeSymbolsByKindFn(s *store.Store) *object.Builtin {
	return object.NewBuiltin("symbols_by_kind", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("symbols_by_kind", 1, len(args))
		}
		kind, err := toString(args[0])
		if err != nil {
			return object.Errorf("symbols_by_kind: %v", err)
		}

		syms, queryErr := s.SymbolsByKind(kind)
		if queryErr != nil {
			return object.Errorf("symbols_by_kind: %v", queryErr)
		}

		return symbolsToList(syms)
	})
}

// makeDBQueryFn creates a db_query bridge that executes arbitrary SQL on a
// connection that refuses writes.
// Returns a list of maps (column name → value).
func makeDBQueryFn(s *store.Store) *object.Builtin {
	return object.NewBuiltin("db_query", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) < 1 {
			return object.Errorf("db_query: expected at least 1 argument (sql), got %d", len(args))
		}
		sqlStr, err := toString(args[0])
		if err != nil {
			return object.Errorf("db_query: %v", err)
		}

		trimmed := strings.TrimSpace(strings.ToUpper(sqlStr))
		if !strings.HasPrefix(trimmed, "SELECT") && !strings.HasPrefix(trimmed, "WITH") {
			return object.Errorf("db_query: only SELECT queries are allowed")
		}

		var queryArgs []any
		for _, arg := range args[1:] {
			switch v := arg.(type) {
			case *object.Int:
				queryArgs = append(queryArgs, v.Value())
			case *object.Float:
				queryArgs = append(queryArgs, v.Value())
			case *object.String:
				queryArgs = append(queryArgs, v.Value())
			case *object.Bool:
				queryArgs = append(queryArgs, v.Value())
			case *object.NilType:
				queryArgs = append(queryArgs, nil)
			default:
				queryArgs = append(queryArgs, fmt.Sprintf("%v", arg))
			}
		}

		cols, rows, queryErr := s.ReadQuery(ctx, sqlStr, queryArgs...)
		if queryErr != nil {
			return object.Errorf("db_query: %v", queryErr)
		}

		results := make([]object.Object, 0, len(rows))
		for _, values := range rows {
			row := make(map[string]object.Object, len(cols))
			for i, col := range cols {
				row[col] = sqlValueToObject(values[i])
			}
			results = append(results, object.NewMap(row))
		}
		return object.NewList(results)
	})
}

// nameAndKind parses the (name, kind="") argument form.
func nameAndKind(fn string, args []object.Object) (string, string, error) {
	if len(args) < 1 || len(args) > 2 {
		return "", "", fmt.Errorf("%s: expected 1 or 2 arguments, got %d", fn, len(args))
	}
	name, err := toString(args[0])
	if err != nil {
		return "", "", fmt.Errorf("%s: %v", fn, err)
	}
	kind := ""
	if len(args) == 2 {
		if kind, err = toString(args[1]); err != nil {
			return "", "", fmt.Errorf("%s: kind: %v", fn, err)
		}
		if kind != store.KindDirect && kind != store.KindIndirect {
			return "", "", fmt.Errorf("%s: kind must be %q or %q, got %q", fn, store.KindDirect, store.KindIndirect, kind)
		}
	}
	return name, kind, nil
}

func toString(obj object.Object) (string, error) {
	if s, ok := obj.(*object.String); ok {
		return s.Value(), nil
	}
	return "", fmt.Errorf("expected string, got %s", obj.Type())
}

// sqlValueToObject converts a database value to a Risor object.
func sqlValueToObject(v any) object.Object {
	if v == nil {
		return object.Nil
	}
	switch val := v.(type) {
	case int64:
		return object.NewInt(val)
	case float64:
		return object.NewFloat(val)
	case string:
		return object.NewString(val)
	case bool:
		return object.NewBool(val)
	case []byte:
		return object.NewString(string(val))
	default:
		return object.NewString(fmt.Sprintf("%v", val))
	}
}

func stringsToList(values []string) object.Object {
	items := make([]object.Object, 0, len(values))
	for _, v := range values {
		items = append(items, object.NewString(v))
	}
	return object.NewList(items)
}

func symbolToMap(sym *store.Symbol) object.Object {
	m := map[string]object.Object{
		"id":              object.NewInt(sym.ID),
		"full_name":       object.NewString(sym.FullName),
		"name":            object.NewString(sym.Name),
		"kind":            object.NewString(sym.Kind),
		"parent":          object.NewString(sym.Parent),
		"path":            object.NewString(sym.FilePath),
		"line":            object.NewInt(int64(sym.Line)),
		"docstring":       object.NewString(sym.Docstring),
		"is_interface":    object.NewBool(sym.IsInterface),
		"implements_only": object.NewBool(sym.ImplementsOnly),
	}
	if sym.FileID != nil {
		m["file_id"] = object.NewInt(*sym.FileID)
	}
	return object.NewMap(m)
}

// symbolsToList converts a slice of store.Symbol to a Risor list of maps.
func symbolsToList(syms []*store.Symbol) object.Object {
	results := make([]object.Object, 0, len(syms))
	for _, sym := range syms {
		results = append(results, symbolToMap(sym))
	}
	return object.NewList(results)
}
