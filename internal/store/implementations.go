package store

import (
	"database/sql"
	"fmt"
)

// --- Bases ---

func (s *Store) BasesOf(classID int64) ([]*Base, error) {
	rows, err := s.db.Query(
		`SELECT b.id, b.class_id, c.full_name, b.position, b.base_name, b.base_id
		 FROM bases b JOIN symbols c ON c.id = b.class_id
		 WHERE b.class_id = ? ORDER BY b.position`, classID)
	if err != nil {
		return nil, fmt.Errorf("bases of: %w", err)
	}
	defer rows.Close()
	var out []*Base
	for rows.Next() {
		b := &Base{}
		if err := rows.Scan(&b.ID, &b.ClassID, &b.ClassName, &b.Position, &b.BaseName, &b.BaseID); err != nil {
			return nil, fmt.Errorf("scan base: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// --- Implementations (class -> interface) ---

func (s *Store) queryImplementations(where string, args ...any) ([]*Implementation, error) {
	rows, err := s.db.Query(
		`SELECT i.id, i.class_id, c.full_name, i.interface, i.kind, i.position
		 FROM implementations i JOIN symbols c ON c.id = i.class_id `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("query implementations: %w", err)
	}
	defer rows.Close()
	var out []*Implementation
	for rows.Next() {
		impl := &Implementation{}
		if err := rows.Scan(&impl.ID, &impl.ClassID, &impl.ClassName, &impl.Interface, &impl.Kind, &impl.Position); err != nil {
			return nil, fmt.Errorf("scan implementation: %w", err)
		}
		out = append(out, impl)
	}
	return out, rows.Err()
}

// ImplementationsByClass returns the interfaces a class provides, direct
// ones first, each in declaration order. An empty kind selects both.
func (s *Store) ImplementationsByClass(classID int64, kind string) ([]*Implementation, error) {
	if kind == "" {
		return s.queryImplementations("WHERE i.class_id = ? ORDER BY i.kind, i.position", classID)
	}
	return s.queryImplementations("WHERE i.class_id = ? AND i.kind = ? ORDER BY i.position", classID, kind)
}

// ImplementationsOfInterface returns every class declaring or inheriting
// iface, including interfaces that were never analyzed.
func (s *Store) ImplementationsOfInterface(iface string) ([]*Implementation, error) {
	return s.queryImplementations("WHERE i.interface = ? ORDER BY i.kind, c.full_name", iface)
}

// --- Implementers (interface -> class) ---

// ImplementersOf returns an interface's implemented-by index, direct
// entries first. An empty kind selects both.
func (s *Store) ImplementersOf(interfaceID int64, kind string) ([]*Implementer, error) {
	query := `SELECT m.id, m.interface_id, s.full_name, m.class_name, m.kind, m.position
		FROM implementers m JOIN symbols s ON s.id = m.interface_id
		WHERE m.interface_id = ?`
	args := []any{interfaceID}
	if kind != "" {
		query += " AND m.kind = ?"
		args = append(args, kind)
	}
	query += " ORDER BY m.kind, m.position"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("implementers of: %w", err)
	}
	defer rows.Close()
	var out []*Implementer
	for rows.Next() {
		im := &Implementer{}
		if err := rows.Scan(&im.ID, &im.InterfaceID, &im.InterfaceName, &im.ClassName, &im.Kind, &im.Position); err != nil {
			return nil, fmt.Errorf("scan implementer: %w", err)
		}
		out = append(out, im)
	}
	return out, rows.Err()
}

// HasReverseIndex reports whether any implemented-by entry exists for the
// interface, which is how unmarked but implemented classes are recognized.
func (s *Store) HasReverseIndex(interfaceID int64) (bool, error) {
	var one int
	err := s.db.QueryRow("SELECT 1 FROM implementers WHERE interface_id = ? LIMIT 1", interfaceID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("has reverse index: %w", err)
	}
	return true, nil
}
