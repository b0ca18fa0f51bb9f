package data

import (
	"strings"

	"github.com/spf13/cast"
)

// Row is a result row keyed by column name, as returned by QueryMaps.
// Accessors coerce the loosely typed driver values.
type Row map[string]any

// Rows converts QueryMaps output.
func Rows(maps []map[string]any) []Row {
	rows := make([]Row, len(maps))
	for i, m := range maps {
		rows[i] = Row(m)
	}
	return rows
}

func (r Row) Int64(col string) int64 { return cast.ToInt64(r[col]) }

func (r Row) Float64(col string) float64 { return cast.ToFloat64(r[col]) }

func (r Row) String(col string) string { return cast.ToString(r[col]) }

// Bool treats any non-zero integer as true.
func (r Row) Bool(col string) bool { return cast.ToInt64(r[col]) != 0 }

// OptString returns nil for NULL and for the empty string.
func (r Row) OptString(col string) *string {
	s := strings.TrimSpace(cast.ToString(r[col]))
	if r[col] == nil || s == "" {
		return nil
	}
	return &s
}

// OptInt64 returns nil for NULL.
func (r Row) OptInt64(col string) *int64 {
	if r[col] == nil {
		return nil
	}
	n := cast.ToInt64(r[col])
	return &n
}

// OptFloat64 returns nil for NULL.
func (r Row) OptFloat64(col string) *float64 {
	if r[col] == nil {
		return nil
	}
	f := cast.ToFloat64(r[col])
	return &f
}

// List splits a GROUP_CONCAT column on sep, trimming each item.
// NULL and the empty string give an empty list.
func (r Row) List(col, sep string) []string {
	s := cast.ToString(r[col])
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
