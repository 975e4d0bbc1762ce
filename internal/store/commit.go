package store

import (
	"database/sql"
	"fmt"
)

// SaveSnapshot replaces the stored analysis with snap inside a single
// transaction. Name references between rows are turned into IDs here.
//
// Insert order respects FK dependencies:
//  1. Files
//  2. Symbols (file_id)
//  3. Bases (class_id, base_id)
//  4. Implementations (class_id)
//  5. Implementers (interface_id)
//  6. Warnings
func (s *Store) SaveSnapshot(snap *Snapshot) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("save snapshot: begin: %w", err)
	}
	defer tx.Rollback()

	if err := clearTables(tx); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	fileIDs := make(map[string]int64, len(snap.Files))
	for i := range snap.Files {
		f := &snap.Files[i]
		id, err := insertFile(tx, f)
		if err != nil {
			return fmt.Errorf("save snapshot: file %q: %w", f.Path, err)
		}
		fileIDs[f.Path] = id
	}

	symbolIDs := make(map[string]int64, len(snap.Symbols))
	for i := range snap.Symbols {
		sym := &snap.Symbols[i]
		if id, ok := fileIDs[sym.FilePath]; ok {
			sym.FileID = &id
		}
		id, err := insertSymbol(tx, sym)
		if err != nil {
			return fmt.Errorf("save snapshot: symbol %q: %w", sym.FullName, err)
		}
		symbolIDs[sym.FullName] = id
	}

	for i := range snap.Bases {
		b := &snap.Bases[i]
		classID, ok := symbolIDs[b.ClassName]
		if !ok {
			return fmt.Errorf("save snapshot: base of unknown class %q", b.ClassName)
		}
		b.ClassID = classID
		if id, ok := symbolIDs[b.BaseName]; ok {
			b.BaseID = &id
		}
		if err := insertBase(tx, b); err != nil {
			return fmt.Errorf("save snapshot: base %q of %q: %w", b.BaseName, b.ClassName, err)
		}
	}

	for i := range snap.Implementations {
		impl := &snap.Implementations[i]
		classID, ok := symbolIDs[impl.ClassName]
		if !ok {
			return fmt.Errorf("save snapshot: implementation by unknown class %q", impl.ClassName)
		}
		impl.ClassID = classID
		if err := insertImplementation(tx, impl); err != nil {
			return fmt.Errorf("save snapshot: implementation %q of %q: %w", impl.Interface, impl.ClassName, err)
		}
	}

	for i := range snap.Implementers {
		im := &snap.Implementers[i]
		ifaceID, ok := symbolIDs[im.InterfaceName]
		if !ok {
			return fmt.Errorf("save snapshot: implementer of unknown interface %q", im.InterfaceName)
		}
		im.InterfaceID = ifaceID
		if err := insertImplementer(tx, im); err != nil {
			return fmt.Errorf("save snapshot: implementer %q of %q: %w", im.ClassName, im.InterfaceName, err)
		}
	}

	for i := range snap.Warnings {
		if err := insertWarning(tx, &snap.Warnings[i]); err != nil {
			return fmt.Errorf("save snapshot: warning: %w", err)
		}
	}

	return tx.Commit()
}

func lastID(res sql.Result) (int64, error) {
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

func insertFile(db execer, f *File) (int64, error) {
	res, err := db.Exec(
		"INSERT INTO files (path, module, is_package, hash, last_indexed) VALUES (?, ?, ?, ?, ?)",
		f.Path, f.Module, f.IsPackage, f.Hash, f.LastIndexed,
	)
	if err != nil {
		return 0, fmt.Errorf("insert file: %w", err)
	}
	f.ID, err = lastID(res)
	return f.ID, err
}

func insertSymbol(db execer, sym *Symbol) (int64, error) {
	res, err := db.Exec(
		`INSERT INTO symbols (full_name, name, kind, parent, file_id, line, docstring, is_interface, implements_only)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sym.FullName, sym.Name, sym.Kind, nullString(sym.Parent), sym.FileID,
		sym.Line, sym.Docstring, sym.IsInterface, sym.ImplementsOnly,
	)
	if err != nil {
		return 0, fmt.Errorf("insert symbol: %w", err)
	}
	sym.ID, err = lastID(res)
	return sym.ID, err
}

func insertBase(db execer, b *Base) error {
	res, err := db.Exec(
		"INSERT INTO bases (class_id, position, base_name, base_id) VALUES (?, ?, ?, ?)",
		b.ClassID, b.Position, b.BaseName, b.BaseID,
	)
	if err != nil {
		return fmt.Errorf("insert base: %w", err)
	}
	b.ID, err = lastID(res)
	return err
}

func insertImplementation(db execer, impl *Implementation) error {
	res, err := db.Exec(
		"INSERT INTO implementations (class_id, interface, kind, position) VALUES (?, ?, ?, ?)",
		impl.ClassID, impl.Interface, impl.Kind, impl.Position,
	)
	if err != nil {
		return fmt.Errorf("insert implementation: %w", err)
	}
	impl.ID, err = lastID(res)
	return err
}

func insertImplementer(db execer, im *Implementer) error {
	res, err := db.Exec(
		"INSERT INTO implementers (interface_id, class_name, kind, position) VALUES (?, ?, ?, ?)",
		im.InterfaceID, im.ClassName, im.Kind, im.Position,
	)
	if err != nil {
		return fmt.Errorf("insert implementer: %w", err)
	}
	im.ID, err = lastID(res)
	return err
}

func insertWarning(db execer, w *Warning) error {
	res, err := db.Exec("INSERT INTO warnings (message, detail) VALUES (?, ?)", w.Message, w.Detail)
	if err != nil {
		return fmt.Errorf("insert warning: %w", err)
	}
	w.ID, err = lastID(res)
	return err
}
