package store

import (
	"database/sql"
	"fmt"

	"github.com/roach88/verdict/internal/harness"
	"github.com/roach88/verdict/internal/ir"
)

// marshalValue renders an Actual or Expected value as canonical JSON with
// strings left unnormalized.
// Absent values become SQL NULL. Values outside the ir model are stored as
// their harness.Describe text, so they read back as strings.
func marshalValue(v any) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	data, err := ir.MarshalLiteral(v)
	if err != nil {
		data, err = ir.MarshalLiteral(ir.String(harness.Describe(v)))
		if err != nil {
			return sql.NullString{}, fmt.Errorf("marshal value: %w", err)
		}
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// unmarshalValue parses a stored value. NULL reads back as nil.
func unmarshalValue(ns sql.NullString) (any, error) {
	if !ns.Valid {
		return nil, nil
	}
	v, err := ir.ParseJSON([]byte(ns.String))
	if err != nil {
		return nil, fmt.Errorf("unmarshal value: %w", err)
	}
	return v, nil
}
