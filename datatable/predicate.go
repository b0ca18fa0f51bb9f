package datatable

import (
	"math"
	"slices"
	"strconv"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/luteorg/lute-api/tools"
	"github.com/samber/lo"
	"github.com/spf13/cast"
)

// Filter modes accepted in Request.FilterModes.
const (
	ModeContains    = "contains"
	ModeStartsWith  = "startsWith"
	ModeEndsWith    = "endsWith"
	ModeEquals      = "equals"
	ModeGreaterThan = "greaterThan"
	ModeLessThan    = "lessThan"
	ModeNotEquals   = "notEquals"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike escapes LIKE wildcards so client text matches literally.
func EscapeLike(text string) string { return likeEscaper.Replace(text) }

// Like matches column against pattern, where pattern has already been
// assembled from escaped text and % wildcards.
func Like(column, pattern string) sq.Sqlizer {
	return sq.Expr(column+` LIKE ? ESCAPE '\'`, pattern)
}

// Contains matches rows whose column contains text.
func Contains(column, text string) sq.Sqlizer {
	return Like(column, "%"+EscapeLike(text)+"%")
}

// predicate builds the WHERE tree for req: base predicates, then column
// filters, then global search, all ANDed.
func predicate(fields Fields, req Request, base []sq.Sqlizer) (sq.And, error) {
	var where sq.And
	for _, b := range base {
		if b != nil {
			where = append(where, b)
		}
	}

	for _, f := range req.Filters {
		field, ok := fields[f.ID]
		if !ok {
			return nil, &tools.FieldError{Field: f.ID, Origin: tools.OriginFilter}
		}
		mode := req.FilterModes[f.ID]
		if mode == "" {
			mode = ModeContains
		}

		var (
			cond sq.Sqlizer
			err  error
		)
		if field.Filter != nil {
			if !slices.Contains(field.filterModes(), mode) {
				return nil, &tools.FilterModeError{Field: f.ID, Mode: mode}
			}
			cond, err = field.Filter(mode, f.Value)
		} else {
			cond, err = compare(f.ID, field, mode, f.Value)
		}
		if err != nil {
			return nil, err
		}
		if cond != nil {
			where = append(where, cond)
		}
	}

	if search := globalSearch(fields, req.GlobalFilter); search != nil {
		where = append(where, search)
	}

	return where, nil
}

// compare lowers a single (mode, value) filter on a standard field.
func compare(name string, field Field, mode string, value any) (sq.Sqlizer, error) {
	col := field.Column

	switch mode {
	case ModeContains, ModeStartsWith, ModeEndsWith:
		text, err := cast.ToStringE(value)
		if err != nil {
			return nil, &tools.FilterValueError{Field: name, Value: value, Reason: "expected text"}
		}
		text = EscapeLike(text)
		switch mode {
		case ModeStartsWith:
			return Like(col, text+"%"), nil
		case ModeEndsWith:
			return Like(col, "%"+text), nil
		default:
			return Like(col, "%"+text+"%"), nil
		}

	case ModeEquals, ModeGreaterThan, ModeLessThan, ModeNotEquals:
		v, err := operand(name, field, value)
		if err != nil {
			return nil, err
		}
		switch mode {
		case ModeEquals:
			return sq.Eq{col: v}, nil
		case ModeGreaterThan:
			return sq.Gt{col: v}, nil
		case ModeLessThan:
			return sq.Lt{col: v}, nil
		default:
			return sq.NotEq{col: v}, nil
		}
	}

	return nil, &tools.FilterModeError{Field: name, Mode: mode}
}

// operand converts a filter value to the type the column compares as.
func operand(name string, field Field, value any) (any, error) {
	if !field.Numeric {
		text, err := cast.ToStringE(value)
		if err != nil {
			return nil, &tools.FilterValueError{Field: name, Value: value, Reason: "expected text"}
		}
		return text, nil
	}

	n, ok := ParseNumber(value)
	if !ok {
		return nil, &tools.FilterValueError{Field: name, Value: value, Reason: "expected a number"}
	}
	return n, nil
}

// ParseNumber reads value as an int64 when it is integral, else as a float64.
// Strings are parsed in base 10.
func ParseNumber(value any) (any, bool) {
	switch v := value.(type) {
	case string:
		v = strings.TrimSpace(v)
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i, true
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, false
		}
		return f, true
	case float64:
		if v == math.Trunc(v) && math.Abs(v) < 1<<53 {
			return int64(v), true
		}
		return v, true
	case bool, nil:
		return nil, false
	}

	i, err := cast.ToInt64E(value)
	if err != nil {
		return nil, false
	}
	return i, true
}

// isDigits reports whether s is a non-empty run of ASCII digits.
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// globalSearch matches text against every searchable column. Digits-only
// input also matches numeric columns by equality; digit runs too long for an
// int64 are bound as a float64.
func globalSearch(fields Fields, text string) sq.Sqlizer {
	if text == "" {
		return nil
	}

	names := lo.Keys(fields)
	slices.Sort(names)

	var number any
	numeric := isDigits(text)
	if numeric {
		if n, err := strconv.ParseInt(text, 10, 64); err == nil {
			number = n
		} else {
			number, _ = strconv.ParseFloat(text, 64)
		}
	}

	var match sq.Or
	for _, name := range names {
		f := fields[name]
		if !f.Searchable {
			continue
		}
		if f.Numeric {
			if numeric {
				match = append(match, sq.Eq{f.Column: number})
			}
			continue
		}
		match = append(match, Contains(f.Column, text))
	}

	if len(match) == 0 {
		return nil
	}
	return match
}
