package datatable

import (
	"context"
	"errors"
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/luteorg/lute-api/data"
	"github.com/luteorg/lute-api/data/datatest"
	"github.com/luteorg/lute-api/tools"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var itemsView = View{
	Name:  "items",
	SQL:   "SELECT id AS ItemID, title AS Title, wordcount AS WordCount, archived AS Archived FROM items",
	Table: "items",
	Fields: Fields{
		"title":     {Column: "Title", Searchable: true},
		"wordCount": {Column: "WordCount", Numeric: true, Searchable: true},
		"archived":  {Column: "Archived", Numeric: true},
	},
	DefaultOrder: []string{"ItemID ASC"},
}.MustValidate()

type item struct {
	title     string
	wordCount any
	archived  bool
}

func setupItems(t *testing.T, items ...item) *data.Database {
	t.Helper()

	db := datatest.New(t)
	datatest.Exec(t, db, `CREATE TABLE items (id INTEGER PRIMARY KEY, title TEXT, wordcount INTEGER, archived INTEGER NOT NULL DEFAULT 0)`)
	for _, it := range items {
		datatest.Exec(t, db, `INSERT INTO items (title, wordcount, archived) VALUES (?, ?, ?)`, it.title, it.wordCount, lo.Ternary(it.archived, 1, 0))
	}
	return db
}

func sampleItems() []item {
	return []item{
		{title: "Catalog", wordCount: 120},
		{title: "Dog days", wordCount: 42},
		{title: "Cats and dogs", wordCount: nil},
		{title: "100% juice", wordCount: 7, archived: true},
		{title: "snake_case", wordCount: 3},
		{title: "x", wordCount: 42},
	}
}

func titles(rows []map[string]any) []string {
	return lo.Map(rows, func(r map[string]any, _ int) string {
		s, _ := r["Title"].(string)
		return s
	})
}

func run(t *testing.T, db *data.Database, req Request, base ...sq.Sqlizer) Result {
	t.Helper()
	res, err := Run(context.Background(), db.Client, itemsView, req, base...)
	require.NoError(t, err)
	return res
}

func all() Request { return Request{Size: Unlimited} }

func TestBuild_SQL(t *testing.T) {
	req := Request{
		Start:       20,
		Size:        10,
		Filters:     []Filter{{ID: "title", Value: "a_b"}, {ID: "wordCount", Value: "42"}},
		FilterModes: map[string]string{"wordCount": ModeGreaterThan},
		Sorting:     []Sort{{ID: "wordCount", Desc: true}, {ID: "title"}},
	}

	q, err := Build(itemsView, req, sq.Eq{"Archived": 0})
	require.NoError(t, err)

	assert.Contains(t, q.Count, "SELECT COUNT(*) FROM ("+itemsView.SQL+") AS realbase WHERE ")
	assert.Contains(t, q.Count, "Archived = ?")
	assert.Contains(t, q.Count, `Title LIKE ? ESCAPE '\'`)
	assert.Contains(t, q.Count, "WordCount > ?")
	assert.NotContains(t, q.Count, "a_b")
	assert.Equal(t, []any{0, `%a\_b%`, int64(42)}, q.CountArgs)

	assert.Contains(t, q.Page, "ORDER BY WordCount DESC NULLS LAST, Title ASC NULLS LAST")
	assert.Contains(t, q.Page, "LIMIT 10 OFFSET 20")
	assert.Equal(t, q.CountArgs, q.PageArgs)

	assert.Equal(t, "SELECT COUNT(*) FROM items", q.Total)
}

func TestBuild_DefaultOrderAndNoLimit(t *testing.T) {
	q, err := Build(itemsView, Request{Start: 5, Size: Unlimited})
	require.NoError(t, err)

	assert.Contains(t, q.Page, "ORDER BY ItemID ASC")
	assert.NotContains(t, q.Page, "LIMIT")
	assert.NotContains(t, q.Page, "OFFSET")
	assert.NotContains(t, q.Page, "WHERE")
	assert.Empty(t, q.PageArgs)
}

func TestBuild_RejectsBadWindow(t *testing.T) {
	for _, req := range []Request{
		{Start: -3, Size: 10},
		{Start: 0, Size: -2},
	} {
		_, err := Build(itemsView, req)
		assert.ErrorIs(t, err, tools.ErrInvalidRequest, "%+v", req)
	}
}

func TestRun_BadWindowIsClientError(t *testing.T) {
	db := setupItems(t, sampleItems()...)

	_, err := Run(context.Background(), db.Client, itemsView, Request{Size: -2})
	require.Error(t, err)
	assert.ErrorIs(t, err, tools.ErrInvalidRequest)
	assert.NotErrorIs(t, err, tools.ErrDataSource)
}

func TestBuild_FilterModes(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		mode    string
		value   any
		sql     string
		arg     any
		wantErr error
	}{
		{"contains default", "title", "", "cat", `Title LIKE ? ESCAPE '\'`, "%cat%", nil},
		{"starts with", "title", ModeStartsWith, "cat", `Title LIKE ? ESCAPE '\'`, "cat%", nil},
		{"ends with", "title", ModeEndsWith, "log", `Title LIKE ? ESCAPE '\'`, "%log", nil},
		{"escapes wildcards", "title", ModeContains, `50%\`, `Title LIKE ? ESCAPE '\'`, `%50\%\\%`, nil},
		{"text equals", "title", ModeEquals, "Dog", "Title = ?", "Dog", nil},
		{"numeric equals", "wordCount", ModeEquals, "42", "WordCount = ?", int64(42), nil},
		{"numeric json number", "wordCount", ModeEquals, float64(42), "WordCount = ?", int64(42), nil},
		{"numeric float", "wordCount", ModeLessThan, "2.5", "WordCount < ?", 2.5, nil},
		{"leading zero is decimal", "wordCount", ModeGreaterThan, "08", "WordCount > ?", int64(8), nil},
		{"not equals", "wordCount", ModeNotEquals, "3", "WordCount <> ?", int64(3), nil},
		{"non-numeric value", "wordCount", ModeEquals, "abc", "", nil, tools.ErrInvalidFilterValue},
		{"bool on numeric", "wordCount", ModeEquals, true, "", nil, tools.ErrInvalidFilterValue},
		{"array on text", "title", ModeContains, []any{"a"}, "", nil, tools.ErrInvalidFilterValue},
		{"unknown mode", "title", "fuzzy", "x", "", nil, tools.ErrInvalidFilterMode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := Request{
				Size:        Unlimited,
				Filters:     []Filter{{ID: tt.field, Value: tt.value}},
				FilterModes: map[string]string{tt.field: tt.mode},
			}

			q, err := Build(itemsView, req)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, q.Count, tt.sql)
			assert.Equal(t, []any{tt.arg}, q.CountArgs)
		})
	}
}

func TestBuild_GlobalSearch(t *testing.T) {
	t.Run("digits add numeric equality", func(t *testing.T) {
		q, err := Build(itemsView, Request{Size: Unlimited, GlobalFilter: "42"})
		require.NoError(t, err)
		assert.Contains(t, q.Count, `(Title LIKE ? ESCAPE '\' OR WordCount = ?)`)
		assert.Equal(t, []any{"%42%", int64(42)}, q.CountArgs)
	})

	t.Run("digits beyond int64 still compare numerically", func(t *testing.T) {
		q, err := Build(itemsView, Request{Size: Unlimited, GlobalFilter: "99999999999999999999"})
		require.NoError(t, err)
		assert.Contains(t, q.Count, `(Title LIKE ? ESCAPE '\' OR WordCount = ?)`)
		assert.Equal(t, []any{"%99999999999999999999%", float64(1e20)}, q.CountArgs)
	})

	t.Run("text only matches text columns", func(t *testing.T) {
		q, err := Build(itemsView, Request{Size: Unlimited, GlobalFilter: "4a"})
		require.NoError(t, err)
		assert.NotContains(t, q.Count, "WordCount")
		assert.Equal(t, []any{"%4a%"}, q.CountArgs)
	})

	t.Run("not searchable columns are skipped", func(t *testing.T) {
		q, err := Build(itemsView, Request{Size: Unlimited, GlobalFilter: "1"})
		require.NoError(t, err)
		assert.NotContains(t, q.Count, "Archived")
	})
}

// A contains filter keeps only matching titles.
func TestRun_ContainsFilter(t *testing.T) {
	db := setupItems(t, item{title: "Catalog"}, item{title: "Dog"})

	req := all()
	req.Filters = []Filter{{ID: "title", Value: "cat"}}
	req.FilterModes = map[string]string{"title": ModeContains}

	res := run(t, db, req)
	assert.Equal(t, int64(1), res.FilteredCount)
	assert.Equal(t, []string{"Catalog"}, titles(res.Rows))
}

// No window returns every row.
func TestRun_Unlimited(t *testing.T) {
	db := setupItems(t,
		item{title: "a"}, item{title: "b"}, item{title: "c"}, item{title: "d"}, item{title: "e"})

	res := run(t, db, Request{Start: 0, Size: Unlimited})
	assert.Len(t, res.Rows, 5)
	assert.Equal(t, int64(5), res.FilteredCount)
	assert.Equal(t, int64(5), res.TotalCount)
}

// Descending sort puts nulls last.
func TestRun_SortDescNullsLast(t *testing.T) {
	db := setupItems(t,
		item{title: "three", wordCount: 3},
		item{title: "none", wordCount: nil},
		item{title: "seven", wordCount: 7})

	req := all()
	req.Sorting = []Sort{{ID: "wordCount", Desc: true}}

	res := run(t, db, req)
	counts := lo.Map(res.Rows, func(r map[string]any, _ int) any { return r["WordCount"] })
	assert.Equal(t, []any{int64(7), int64(3), nil}, counts)
}

// A digits-only search matches a numeric column by equality.
func TestRun_GlobalSearchNumeric(t *testing.T) {
	db := setupItems(t, item{title: "x", wordCount: 42}, item{title: "y", wordCount: 421})

	req := all()
	req.GlobalFilter = "42"

	res := run(t, db, req)
	assert.Equal(t, []string{"x"}, titles(res.Rows))
}

// Filtering on a field outside the allowlist fails.
func TestRun_UnknownFilterField(t *testing.T) {
	db := setupItems(t, sampleItems()...)

	req := all()
	req.Filters = []Filter{{ID: "nonexistent", Value: "x"}}

	_, err := Run(context.Background(), db.Client, itemsView, req)
	require.ErrorIs(t, err, tools.ErrInvalidField)

	var fe *tools.FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "nonexistent", fe.Field)
	assert.Equal(t, tools.OriginFilter, fe.Origin)
}

func TestRun_FilteredCountMatchesRows(t *testing.T) {
	db := setupItems(t, sampleItems()...)

	requests := map[string]Request{
		"empty":    all(),
		"filter":   {Size: Unlimited, Filters: []Filter{{ID: "title", Value: "dog"}}},
		"search":   {Size: Unlimited, GlobalFilter: "42"},
		"numeric":  {Size: Unlimited, Filters: []Filter{{ID: "wordCount", Value: "10"}}, FilterModes: map[string]string{"wordCount": ModeGreaterThan}},
		"combined": {Size: Unlimited, Filters: []Filter{{ID: "title", Value: "c"}}, GlobalFilter: "a", Sorting: []Sort{{ID: "title", Desc: true}}},
	}

	for name, req := range requests {
		t.Run(name, func(t *testing.T) {
			res := run(t, db, req)
			assert.Equal(t, int64(len(res.Rows)), res.FilteredCount)

			paged := req
			paged.Start, paged.Size = 1, 2
			pres := run(t, db, paged)
			assert.Equal(t, res.FilteredCount, pres.FilteredCount)
		})
	}
}

func TestRun_PaginationBounds(t *testing.T) {
	db := setupItems(t, sampleItems()...)
	everything := run(t, db, all())

	for size := 0; size <= 7; size++ {
		for start := 0; start <= 7; start++ {
			res := run(t, db, Request{Start: start, Size: size})
			assert.LessOrEqual(t, len(res.Rows), size)

			want := everything.Rows[min(start, len(everything.Rows)):]
			want = want[:min(size, len(want))]
			assert.Equal(t, titles(want), titles(res.Rows), "start=%d size=%d", start, size)
		}
	}

	res := run(t, db, Request{Start: int(everything.FilteredCount), Size: 10})
	assert.Empty(t, res.Rows)
}

func TestRun_FiltersNarrow(t *testing.T) {
	db := setupItems(t, sampleItems()...)

	filters := []Filter{
		{ID: "title", Value: "a"},
		{ID: "wordCount", Value: "0"},
		{ID: "title", Value: "o"},
		{ID: "archived", Value: "1"},
	}
	modes := map[string]string{"wordCount": ModeGreaterThan, "archived": ModeNotEquals}

	prev := run(t, db, all()).FilteredCount
	for i := range filters {
		res := run(t, db, Request{Size: Unlimited, Filters: filters[:i+1], FilterModes: modes})
		assert.LessOrEqual(t, res.FilteredCount, prev, "after %d filters", i+1)
		prev = res.FilteredCount
	}
}

func TestRun_NullsLastBothDirections(t *testing.T) {
	db := setupItems(t, sampleItems()...)

	for _, desc := range []bool{false, true} {
		req := all()
		req.Sorting = []Sort{{ID: "wordCount", Desc: desc}}
		res := run(t, db, req)

		seenNull := false
		for _, r := range res.Rows {
			if r["WordCount"] == nil {
				seenNull = true
				continue
			}
			assert.False(t, seenNull, "non-null after null (desc=%v)", desc)
		}
		assert.True(t, seenNull)
	}
}

func TestRun_GlobalSearchBranching(t *testing.T) {
	db := setupItems(t, sampleItems()...)

	tests := []struct {
		search string
		want   []string
	}{
		{"42", []string{"Dog days", "x"}},
		{"7", []string{"100% juice"}},
		{"4a", nil},
		{"dog", []string{"Dog days", "Cats and dogs"}},
		{"100", []string{"100% juice"}},
	}

	for _, tt := range tests {
		t.Run(tt.search, func(t *testing.T) {
			req := all()
			req.GlobalFilter = tt.search
			res := run(t, db, req)
			assert.ElementsMatch(t, tt.want, titles(res.Rows))
		})
	}
}

func TestRun_UnknownFieldsRejected(t *testing.T) {
	db := setupItems(t, sampleItems()...)

	for _, name := range []string{"Title", "id", "BkTitle", "", "title; DROP TABLE items"} {
		t.Run("filter "+name, func(t *testing.T) {
			req := all()
			req.Filters = []Filter{{ID: "title", Value: "a"}, {ID: name, Value: "a"}}
			_, err := Run(context.Background(), db.Client, itemsView, req)

			var fe *tools.FieldError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tools.OriginFilter, fe.Origin)
		})
		t.Run("sort "+name, func(t *testing.T) {
			req := all()
			req.Sorting = []Sort{{ID: name}}
			_, err := Run(context.Background(), db.Client, itemsView, req)

			var fe *tools.FieldError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tools.OriginSort, fe.Origin)
			assert.Equal(t, name, fe.Field)
		})
	}
}

func TestRun_LiteralWildcards(t *testing.T) {
	db := setupItems(t, sampleItems()...)

	tests := map[string][]string{
		"%": {"100% juice"},
		"_": {"snake_case"},
		"'": nil,
	}
	for value, want := range tests {
		t.Run(value, func(t *testing.T) {
			req := all()
			req.Filters = []Filter{{ID: "title", Value: value}}
			res := run(t, db, req)
			assert.ElementsMatch(t, want, titles(res.Rows))
		})
	}
}

func TestRun_BasePredicate(t *testing.T) {
	db := setupItems(t, sampleItems()...)

	res := run(t, db, all(), sq.NotEq{"Archived": 1})
	assert.Equal(t, int64(6), res.TotalCount)
	assert.Equal(t, int64(5), res.FilteredCount)
	assert.NotContains(t, titles(res.Rows), "100% juice")

	req := all()
	req.GlobalFilter = "juice"
	res = run(t, db, req, sq.NotEq{"Archived": 1}, nil)
	assert.Equal(t, int64(0), res.FilteredCount)
	assert.Equal(t, int64(6), res.TotalCount)
}

func TestRun_CustomFilter(t *testing.T) {
	db := setupItems(t, sampleItems()...)

	view := itemsView
	view.Fields = Fields{
		"wordCount": {Column: "WordCount", Numeric: true, Filter: func(_ string, value any) (sq.Sqlizer, error) {
			bounds, ok := value.([]any)
			if !ok || len(bounds) != 2 {
				return nil, &tools.FilterValueError{Field: "wordCount", Value: value, Reason: "expected [min, max]"}
			}
			return sq.Expr("WordCount BETWEEN ? AND ?", bounds...), nil
		}},
		"title": {Column: "Title"},
	}

	req := all()
	req.Filters = []Filter{{ID: "wordCount", Value: []any{float64(5), float64(50)}}}
	res, err := Run(context.Background(), db.Client, view, req)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Dog days", "100% juice", "x"}, titles(res.Rows))

	req.Filters = []Filter{{ID: "wordCount", Value: "5"}}
	_, err = Run(context.Background(), db.Client, view, req)
	assert.ErrorIs(t, err, tools.ErrInvalidFilterValue)

	req.Filters = []Filter{{ID: "wordCount", Value: []any{float64(5), float64(50)}}}
	req.FilterModes = map[string]string{"wordCount": ModeEquals}
	_, err = Run(context.Background(), db.Client, view, req)
	assert.ErrorIs(t, err, tools.ErrInvalidFilterMode)

	field := view.Fields["wordCount"]
	field.Modes = []string{ModeContains, ModeEquals}
	view.Fields["wordCount"] = field
	_, err = Run(context.Background(), db.Client, view, req)
	assert.NoError(t, err)
}

func TestRun_DataSourceError(t *testing.T) {
	db := setupItems(t, sampleItems()...)
	require.NoError(t, db.Close())

	_, err := Run(context.Background(), db.Client, itemsView, all())
	require.Error(t, err)
	assert.ErrorIs(t, err, tools.ErrDataSource)
}

func TestRun_MissingTable(t *testing.T) {
	db := datatest.New(t)

	_, err := Run(context.Background(), db.Client, itemsView, all())
	assert.ErrorIs(t, err, tools.ErrDataSource)
}

func TestView_Validate(t *testing.T) {
	assert.NoError(t, itemsView.Validate())

	bad := itemsView
	bad.Fields = Fields{"title": {Column: "Title; --"}}
	assert.ErrorIs(t, bad.Validate(), tools.ErrInvalidCharacter)

	bad = itemsView
	bad.Table = ""
	assert.ErrorIs(t, bad.Validate(), tools.ErrEmptyIdentifier)

	assert.Panics(t, func() { bad.MustValidate() })
}
