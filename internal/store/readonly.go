package store

import (
	"context"
	"fmt"
)

// ReadQuery runs query on a dedicated connection with writes disabled
// (PRAGMA query_only) and returns the column names and every row. Any
// statement that would modify the database fails.
func (s *Store) ReadQuery(ctx context.Context, query string, args ...any) ([]string, [][]any, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("read query: conn: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "PRAGMA query_only = ON"); err != nil {
		return nil, nil, fmt.Errorf("read query: %w", err)
	}
	// The connection goes back to the pool, which also serves writes.
	defer conn.ExecContext(context.Background(), "PRAGMA query_only = OFF")

	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("read query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("read query: columns: %w", err)
	}
	var out [][]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, fmt.Errorf("read query: scan: %w", err)
		}
		out = append(out, values)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("read query: rows: %w", err)
	}
	return cols, out, nil
}
