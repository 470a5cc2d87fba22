package database

import (
	"context"
	"fmt"
)

// QueryResult is the raw output of an ad-hoc read query.
type QueryResult struct {
	Columns []string
	Rows    []map[string]any
}

// QueryRows runs an arbitrary read statement and materializes the result.
// Callers are responsible for ensuring the statement is read-only; the
// natural-language query engine guards this before calling.
func (db *DB) QueryRows(ctx context.Context, query string) (*QueryResult, error) {
	rows, err := db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	result := &QueryResult{Columns: cols}
	for rows.Next() {
		row := map[string]any{}
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		for k, v := range row {
			if b, ok := v.([]byte); ok {
				row[k] = string(b)
			}
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed while iterating rows: %w", err)
	}
	return result, nil
}
