// Package datatable serves paged, filtered and sorted table listings over a
// read-only SQL view.
//
// A View wraps a fixed SELECT and an allowlist of client field names. Filters,
// global search and sorting are lowered to a squirrel predicate tree, so every
// client value reaches the store as a bound parameter.
package datatable

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/luteorg/lute-api/tools"
)

// FilterFunc builds the predicate for a field with non-standard filter
// semantics, such as a range given as a two element array. A nil Sqlizer
// with a nil error means the filter is a no-op.
type FilterFunc func(mode string, value any) (sq.Sqlizer, error)

// Field describes a client-visible column.
type Field struct {
	Column     string // output column of the view
	Numeric    bool   // compare as a number; digits-only global search matches by equality
	Searchable bool   // included in global search
	Filter     FilterFunc
	Modes      []string // modes Filter accepts; empty means ModeContains only
}

// filterModes lists the modes a custom Filter is called with.
func (f Field) filterModes() []string {
	if len(f.Modes) == 0 {
		return []string{ModeContains}
	}
	return f.Modes
}

// Fields maps client field names to view columns. Only names present here may
// be used in filters and sorting.
type Fields map[string]Field

// View is a read-only source a table listing pages over.
type View struct {
	Name         string   // label for metrics and errors
	SQL          string   // SELECT producing the rows; wrapped as a subquery
	Table        string   // entity table counted for TotalCount
	Fields       Fields   // allowlist
	DefaultOrder []string // ORDER BY terms used when the request has no sorting
}

// Validate checks that the view only references plain identifiers.
// Views are declared in code, so a failure here is a programming error.
func (v View) Validate() error {
	if err := tools.ValidateIdentifier(v.Table); err != nil {
		return fmt.Errorf("view %s table: %w", v.Name, err)
	}
	for name, f := range v.Fields {
		if err := tools.ValidateIdentifier(f.Column); err != nil {
			return fmt.Errorf("view %s field %s: %w", v.Name, name, err)
		}
	}
	return nil
}

// MustValidate is like Validate but panics. Use it for package-level views.
func (v View) MustValidate() View {
	if err := v.Validate(); err != nil {
		panic(err)
	}
	return v
}
