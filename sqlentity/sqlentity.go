// Package sqlentity builds jwtgate lookup functions over database/sql. One
// call per entity table; the returned LookupFunc selects a single row by the
// key attribute the gate asks for and scans it into a map keyed by column
// name.
package sqlentity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"

	jwtgate "github.com/joegasewicz/jwtgate"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Lookup returns a LookupFunc over table. The key attribute name arrives per
// call from the gate (the descriptor's primary key or identity field), so one
// lookup serves both token and strategy resolution.
//
// Table and key names are interpolated into the statement and therefore must
// be plain identifiers; the key value itself is always bound as a parameter.
func Lookup(db *sql.DB, table string) jwtgate.LookupFunc {
	return func(ctx context.Context, keyName string, keyValue any) (any, error) {
		if !identRe.MatchString(table) {
			return nil, fmt.Errorf("sqlentity: invalid table name %q", table)
		}
		if !identRe.MatchString(keyName) {
			return nil, fmt.Errorf("sqlentity: invalid key name %q", keyName)
		}

		query := fmt.Sprintf("SELECT * FROM %s WHERE %s = ? LIMIT 1", table, keyName)
		rows, err := db.QueryContext(ctx, query, normalizeKey(keyValue))
		if err != nil {
			return nil, fmt.Errorf("sqlentity: query %s: %w", table, err)
		}
		defer rows.Close()

		columns, err := rows.Columns()
		if err != nil {
			return nil, err
		}

		if !rows.Next() {
			if err := rows.Err(); err != nil {
				return nil, err
			}
			return nil, jwtgate.ErrEntityNotFound
		}

		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return nil, err
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = normalizeColumn(values[i])
		}
		return row, nil
	}
}

// normalizeKey converts JSON-decoded numeric claims (float64) to int64 when
// they are whole numbers, so integer primary keys bind correctly.
func normalizeKey(v any) any {
	if f, ok := v.(float64); ok && f == float64(int64(f)) {
		return int64(f)
	}
	return v
}

func normalizeColumn(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// ErrNoRows is a convenience alias check: true when err is either the
// package's not-found error or database/sql's.
func ErrNoRows(err error) bool {
	return errors.Is(err, jwtgate.ErrEntityNotFound) || errors.Is(err, sql.ErrNoRows)
}
