package terms

import (
	sq "github.com/Masterminds/squirrel"
	"github.com/luteorg/lute-api/datatable"
	"github.com/luteorg/lute-api/tools"
)

// baseSQL lists every term with its language, status, parents, tags and image.
const baseSQL = `
SELECT
	w.WoID AS WordID,
	LgName,
	L.LgID AS LgID,
	L.LgRightToLeft AS LgRightToLeft,
	L.LgParserType AS LgParserType,
	w.WoText AS WoText,
	parents.parentlist AS ParentText,
	w.WoTranslation AS WoTranslation,
	w.WoRomanization AS WoRomanization,
	WiSource,
	IFNULL(termtags.taglist, '') AS TagList,
	StText,
	StID,
	StAbbreviation,
	CASE w.WoSyncStatus WHEN 1 THEN 'y' ELSE '' END AS SyncStatus,
	datetime(w.WoCreated) AS WoCreated
FROM words w
INNER JOIN languages L ON L.LgID = w.WoLgID
INNER JOIN statuses S ON S.StID = w.WoStatus
LEFT OUTER JOIN (
	SELECT WpWoID AS WoID, GROUP_CONCAT(PText, ', ') AS parentlist
	FROM (
		SELECT WpWoID, WoText AS PText
		FROM wordparents wp
		INNER JOIN words ON WoID = WpParentWoID
		ORDER BY WoText
	) parentssrc
	GROUP BY WpWoID
) AS parents ON parents.WoID = w.WoID
LEFT OUTER JOIN (
	SELECT WtWoID AS WoID, GROUP_CONCAT(TgText, ', ') AS taglist
	FROM (
		SELECT WtWoID, TgText
		FROM wordtags wt
		INNER JOIN tags t ON t.TgID = wt.WtTgID
		ORDER BY TgText
	) tagssrc
	GROUP BY WtWoID
) AS termtags ON termtags.WoID = w.WoID
LEFT OUTER JOIN wordimages wi ON wi.WiWoID = w.WoID`

// Statuses in the order the status range slider shows them.
// A status filter is a pair of indexes into this list.
var Statuses = []int{0, 1, 2, 3, 4, 5, 99, 98}

// View is the term listing.
var View = datatable.View{
	Name:  "terms",
	SQL:   baseSQL,
	Table: "words",
	Fields: datatable.Fields{
		"text":         {Column: "WoText", Searchable: true},
		"parents":      {Column: "ParentText", Searchable: true},
		"translation":  {Column: "WoTranslation", Searchable: true},
		"languageName": {Column: "LgName", Searchable: true},
		"status":       {Column: "StID", Numeric: true, Searchable: true, Filter: statusFilter},
		"createdAt":    {Column: "WoCreated", Searchable: true, Filter: createdAtFilter},
		"tags":         {Column: "TagList"},
	},
	DefaultOrder: []string{"WoCreated DESC", "WordID DESC"},
}.MustValidate()

// pair reads a two element array filter value.
func pair(field string, value any) ([2]any, error) {
	arr, ok := value.([]any)
	if !ok || len(arr) != 2 {
		return [2]any{}, &tools.FilterValueError{Field: field, Value: value, Reason: "expected a two element array"}
	}
	return [2]any{arr[0], arr[1]}, nil
}

// statusFilter matches statuses between two slider positions, inclusive.
func statusFilter(_ string, value any) (sq.Sqlizer, error) {
	bounds, err := pair("status", value)
	if err != nil {
		return nil, err
	}

	var idx [2]int
	for i, b := range bounds {
		n, ok := datatable.ParseNumber(b)
		v, isInt := n.(int64)
		if !ok || !isInt || v < 0 || int(v) >= len(Statuses) {
			return nil, &tools.FilterValueError{Field: "status", Value: value, Reason: "positions must be integers from 0 to 7"}
		}
		idx[i] = int(v)
	}
	if idx[0] > idx[1] {
		return nil, &tools.FilterValueError{Field: "status", Value: value, Reason: "range is reversed"}
	}

	if idx[0] == idx[1] {
		return sq.Eq{"StID": Statuses[idx[0]]}, nil
	}
	return sq.Eq{"StID": Statuses[idx[0] : idx[1]+1]}, nil
}

// createdAtFilter matches terms created within [from, to]. Either side may be
// empty to leave it open.
func createdAtFilter(_ string, value any) (sq.Sqlizer, error) {
	bounds, err := pair("createdAt", value)
	if err != nil {
		return nil, err
	}

	var from, to string
	for i, b := range bounds {
		s, ok := b.(string)
		if b != nil && !ok {
			return nil, &tools.FilterValueError{Field: "createdAt", Value: value, Reason: "dates must be strings"}
		}
		if i == 0 {
			from = s
		} else {
			to = s
		}
	}

	switch {
	case from == "" && to == "":
		return nil, nil
	case to == "":
		return sq.GtOrEq{"WoCreated": from}, nil
	case from == "":
		return sq.LtOrEq{"WoCreated": to}, nil
	}
	return sq.Expr("WoCreated BETWEEN ? AND ?", from, to), nil
}
