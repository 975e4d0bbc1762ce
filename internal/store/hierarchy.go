package store

import (
	"fmt"
	"strings"
)

// Subclasses returns the classes that name fullName as a direct base.
func (s *Store) Subclasses(fullName string) ([]*Symbol, error) {
	return s.querySymbols(
		"WHERE s.id IN (SELECT class_id FROM bases WHERE base_name = ?) ORDER BY s.full_name", fullName)
}

// Descendants returns every class below fullName in the analyzed hierarchy,
// at any depth. UNION keeps the recursion finite on cyclic input.
func (s *Store) Descendants(fullName string) ([]*Symbol, error) {
	return s.querySymbols(`WHERE s.id IN (
		WITH RECURSIVE below(name) AS (
			SELECT ?
			UNION
			SELECT c.full_name FROM bases b JOIN symbols c ON c.id = b.class_id
			JOIN below ON b.base_name = below.name
		)
		SELECT id FROM symbols WHERE full_name IN (SELECT name FROM below) AND full_name != ?
	) ORDER BY s.full_name`, fullName, fullName)
}

// Ancestors returns the full names of every base above fullName, nearest
// first. Bases outside the analyzed sources are included by name.
func (s *Store) Ancestors(fullName string) ([]string, error) {
	rows, err := s.db.Query(`
		WITH RECURSIVE above(name, depth) AS (
			SELECT ?, 0
			UNION
			SELECT b.base_name, above.depth + 1 FROM symbols c
			JOIN bases b ON b.class_id = c.id
			JOIN above ON c.full_name = above.name
			WHERE above.depth < 64
		)
		SELECT name FROM above WHERE depth > 0 GROUP BY name ORDER BY MIN(depth), name`, fullName)
	if err != nil {
		return nil, fmt.Errorf("ancestors: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan ancestor: %w", err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// SymbolsByNames returns the symbols among names that exist, ordered by
// full name.
func (s *Store) SymbolsByNames(names []string) ([]*Symbol, error) {
	if len(names) == 0 {
		return nil, nil
	}
	return s.querySymbols("WHERE s.full_name IN ("+placeholderList(len(names))+") ORDER BY s.full_name",
		stringsToArgs(names)...)
}

// escapeLike escapes LIKE wildcards for use with ESCAPE '\'.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
