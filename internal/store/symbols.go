package store

import (
	"database/sql"
	"fmt"
)

// --- File operations ---

func (s *Store) InsertFile(f *File) (int64, error) {
	return insertFile(s.db, f)
}

func (s *Store) FileByPath(path string) (*File, error) {
	f := &File{}
	err := s.db.QueryRow(
		"SELECT id, path, module, is_package, hash, last_indexed FROM files WHERE path = ?", path,
	).Scan(&f.ID, &f.Path, &f.Module, &f.IsPackage, &f.Hash, &f.LastIndexed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file by path: %w", err)
	}
	return f, nil
}

func (s *Store) Files() ([]*File, error) {
	rows, err := s.db.Query("SELECT id, path, module, is_package, hash, last_indexed FROM files ORDER BY module")
	if err != nil {
		return nil, fmt.Errorf("files: %w", err)
	}
	defer rows.Close()
	var files []*File
	for rows.Next() {
		f := &File{}
		if err := rows.Scan(&f.ID, &f.Path, &f.Module, &f.IsPackage, &f.Hash, &f.LastIndexed); err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// --- Symbol operations ---

func (s *Store) InsertSymbol(sym *Symbol) (int64, error) {
	return insertSymbol(s.db, sym)
}

const symbolColumns = `s.id, s.full_name, s.name, s.kind, s.parent, s.file_id, f.path,
	s.line, s.docstring, s.is_interface, s.implements_only`

const symbolFrom = ` FROM symbols s LEFT JOIN files f ON f.id = s.file_id`

func scanSymbol(scanner rowScanner) (*Symbol, error) {
	sym := &Symbol{}
	var parent, path, doc sql.NullString
	var line sql.NullInt64
	if err := scanner.Scan(&sym.ID, &sym.FullName, &sym.Name, &sym.Kind, &parent, &sym.FileID, &path,
		&line, &doc, &sym.IsInterface, &sym.ImplementsOnly); err != nil {
		return nil, err
	}
	sym.Parent = parent.String
	sym.FilePath = path.String
	sym.Docstring = doc.String
	sym.Line = int(line.Int64)
	return sym, nil
}

func (s *Store) querySymbols(where string, args ...any) ([]*Symbol, error) {
	rows, err := s.db.Query("SELECT "+symbolColumns+symbolFrom+" "+where, args...)
	if err != nil {
		return nil, fmt.Errorf("query symbols: %w", err)
	}
	defer rows.Close()
	var syms []*Symbol
	for rows.Next() {
		sym, err := scanSymbol(rows)
		if err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		syms = append(syms, sym)
	}
	return syms, rows.Err()
}

// SymbolByName returns the symbol with the given full name, or nil.
func (s *Store) SymbolByName(fullName string) (*Symbol, error) {
	sym, err := scanSymbol(s.db.QueryRow("SELECT "+symbolColumns+symbolFrom+" WHERE s.full_name = ?", fullName))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("symbol by name: %w", err)
	}
	return sym, nil
}

func (s *Store) SymbolsByKind(kind string) ([]*Symbol, error) {
	return s.querySymbols("WHERE s.kind = ? ORDER BY s.full_name", kind)
}

// SymbolChildren returns the symbols defined directly inside fullName, in
// source order.
func (s *Store) SymbolChildren(fullName string) ([]*Symbol, error) {
	return s.querySymbols("WHERE s.parent = ? ORDER BY s.line, s.id", fullName)
}

// Interfaces returns every class marked as an interface.
func (s *Store) Interfaces() ([]*Symbol, error) {
	return s.querySymbols("WHERE s.is_interface ORDER BY s.full_name")
}

// SymbolsByPrefix returns symbols whose full name is prefix or lies below it.
func (s *Store) SymbolsByPrefix(prefix string) ([]*Symbol, error) {
	return s.querySymbols("WHERE s.full_name = ? OR s.full_name LIKE ? ESCAPE '\\' ORDER BY s.full_name",
		prefix, escapeLike(prefix)+".%")
}

// CountByKind returns the number of symbols of each kind.
func (s *Store) CountByKind() (map[string]int, error) {
	rows, err := s.db.Query("SELECT kind, COUNT(*) FROM symbols GROUP BY kind")
	if err != nil {
		return nil, fmt.Errorf("count by kind: %w", err)
	}
	defer rows.Close()
	counts := make(map[string]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[kind] = n
	}
	return counts, rows.Err()
}

// --- Warnings ---

func (s *Store) Warnings() ([]*Warning, error) {
	rows, err := s.db.Query("SELECT id, message, detail FROM warnings ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("warnings: %w", err)
	}
	defer rows.Close()
	var out []*Warning
	for rows.Next() {
		w := &Warning{}
		var detail sql.NullString
		if err := rows.Scan(&w.ID, &w.Message, &detail); err != nil {
			return nil, fmt.Errorf("scan warning: %w", err)
		}
		w.Detail = detail.String
		out = append(out, w)
	}
	return out, rows.Err()
}
