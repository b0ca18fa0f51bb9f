package datatable

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/luteorg/lute-api/data"
	"github.com/luteorg/lute-api/tools"
)

// Result is one page of a table listing.
type Result struct {
	Rows          []map[string]any
	TotalCount    int64 // rows in the entity table, ignoring every predicate
	FilteredCount int64 // rows matching the base predicates, filters and search
}

// Query is the SQL a request lowers to.
type Query struct {
	Count     string
	CountArgs []any
	Page      string
	PageArgs  []any
	Total     string
}

// Build lowers req against view without running anything. base holds
// predicates the caller always applies, such as an archived flag; they are
// ANDed with the client's filters.
//
// A negative start or a size below Unlimited fails with
// tools.ErrInvalidRequest. Unknown field names fail with *tools.FieldError,
// unknown modes with *tools.FilterModeError.
func Build(view View, req Request, base ...sq.Sqlizer) (Query, error) {
	if err := tools.ValidateStruct(req); err != nil {
		return Query{}, err
	}

	where, err := predicate(view.Fields, req, base)
	if err != nil {
		return Query{}, err
	}

	order, err := orderBy(view, req.Sorting)
	if err != nil {
		return Query{}, err
	}

	from := "(" + view.SQL + ") AS realbase"

	count := sq.Select("COUNT(*)").From(from)
	page := sq.Select("*").From(from)
	if len(where) > 0 {
		count = count.Where(where)
		page = page.Where(where)
	}
	if len(order) > 0 {
		page = page.OrderBy(order...)
	}
	if req.Size != Unlimited {
		page = page.Limit(uint64(req.Size)).Offset(uint64(req.Start))
	}

	var q Query
	if q.Count, q.CountArgs, err = count.ToSql(); err != nil {
		return Query{}, err
	}
	if q.Page, q.PageArgs, err = page.ToSql(); err != nil {
		return Query{}, err
	}
	q.Total = "SELECT COUNT(*) FROM " + view.Table

	return q, nil
}

func orderBy(view View, sorting []Sort) ([]string, error) {
	if len(sorting) == 0 {
		return view.DefaultOrder, nil
	}

	order := make([]string, 0, len(sorting))
	for _, s := range sorting {
		f, ok := view.Fields[s.ID]
		if !ok {
			return nil, &tools.FieldError{Field: s.ID, Origin: tools.OriginSort}
		}
		dir := "ASC"
		if s.Desc {
			dir = "DESC"
		}
		order = append(order, f.Column+" "+dir+" NULLS LAST")
	}
	return order, nil
}

// Run builds and executes req against view. The total count, the filtered
// count and the page are read with one query each and are never retried;
// store failures come back wrapped as tools.ErrDataSource.
func Run(ctx context.Context, exec data.Executor, view View, req Request, base ...sq.Sqlizer) (Result, error) {
	q, err := Build(view, req, base...)
	if err != nil {
		return Result{}, err
	}

	var res Result
	if res.TotalCount, err = data.QueryInt(ctx, exec, q.Total); err != nil {
		return Result{}, tools.DataSourceErr(err)
	}
	if res.FilteredCount, err = data.QueryInt(ctx, exec, q.Count, q.CountArgs...); err != nil {
		return Result{}, tools.DataSourceErr(err)
	}
	if res.Rows, err = data.QueryMaps(ctx, exec, q.Page, q.PageArgs...); err != nil {
		return Result{}, tools.DataSourceErr(err)
	}

	return res, nil
}
