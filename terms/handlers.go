package terms

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/luteorg/lute-api/config"
	"github.com/luteorg/lute-api/data"
	"github.com/luteorg/lute-api/datatable"
	"github.com/luteorg/lute-api/tools"
)

// RegisterRoutes registers the term endpoints under /api/terms.
func RegisterRoutes(app *http.ServeMux, db *data.Database, cfg config.Config) {
	app.HandleFunc("GET /api/terms/{$}", data.WithDB(db, handleList(cfg)))
	app.HandleFunc("PATCH /api/terms/{$}", data.WithDB(db, handleBulkStatus()))
	app.HandleFunc("GET /api/terms/tags", data.WithDB(db, handleTags()))
	app.HandleFunc("GET /api/terms/tags/suggestions", data.WithDB(db, handleTagSuggestions()))
	app.HandleFunc("GET /api/terms/export", data.WithDBResponse(db, handleExport(cfg)))
	app.HandleFunc("GET /api/terms/{id}", data.WithDB(db, handleGet()))
	app.HandleFunc("GET /api/terms/{text}/{langid}", data.WithDB(db, handleFind()))
	app.HandleFunc("GET /api/terms/{text}/{langid}/suggestions", data.WithDB(db, handleSuggestions()))
}

func parseQuery(req *http.Request, parserTypes []string) (Query, error) {
	table, err := datatable.ParseRequest(req.URL.Query())
	if err != nil {
		return Query{}, err
	}

	q := Query{
		Table:       table,
		ParentsOnly: req.URL.Query().Get("parentsOnly") == "true",
		ParserTypes: parserTypes,
	}
	if err := tools.QueryJSON(req, "ids", &q.IDs); err != nil {
		return Query{}, err
	}
	return q, nil
}

// handleList handles GET /api/terms/.
func handleList(cfg config.Config) data.DbHandler {
	return func(ctx context.Context, db *data.Database, req *http.Request) (any, error) {
		q, err := parseQuery(req, cfg.ParserTypes)
		if err != nil {
			return nil, err
		}
		q.Table.ClampSize(cfg.MaxPageSize)

		start := time.Now()
		list, err := List(ctx, db, q)
		tools.ObserveTableQuery(View.Name, start, err)
		return list, err
	}
}

// handleExport handles GET /api/terms/export. It takes the listing
// parameters but always exports every matching term.
func handleExport(cfg config.Config) data.DbResponseHandler {
	return func(ctx context.Context, db *data.Database, req *http.Request, w http.ResponseWriter) error {
		q, err := parseQuery(req, cfg.ParserTypes)
		if err != nil {
			return err
		}
		q.Table.Start, q.Table.Size = 0, datatable.Unlimited

		start := time.Now()
		list, err := List(ctx, db, q)
		tools.ObserveTableQuery(View.Name, start, err)
		if err != nil {
			return err
		}

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="terms.csv"`)
		if err := WriteCSV(w, list.Data); err != nil {
			tools.Logger.Error("failed to write term export", "error", err.Error())
		}
		return nil
	}
}

// handleBulkStatus handles PATCH /api/terms/ with a JSON body of
// [{"id": 1, "status": 5}, ...].
func handleBulkStatus() data.DbHandler {
	return func(ctx context.Context, db *data.Database, req *http.Request) (any, error) {
		var updates []StatusUpdate
		if err := tools.DecodeJSON(req, &updates); err != nil {
			return nil, err
		}
		if err := SetStatuses(ctx, db, updates); err != nil {
			return nil, err
		}
		return "ok", nil
	}
}

// handleTags handles GET /api/terms/tags.
func handleTags() data.DbHandler {
	return func(ctx context.Context, db *data.Database, req *http.Request) (any, error) {
		return Tags(ctx, db)
	}
}

// handleTagSuggestions handles GET /api/terms/tags/suggestions.
func handleTagSuggestions() data.DbHandler {
	return func(ctx context.Context, db *data.Database, req *http.Request) (any, error) {
		return TagSuggestions(ctx, db)
	}
}

// handleGet handles GET /api/terms/{id}.
func handleGet() data.DbHandler {
	return func(ctx context.Context, db *data.Database, req *http.Request) (any, error) {
		id, err := tools.PathInt64(req, "id")
		if err != nil {
			return nil, err
		}
		return Get(ctx, db, id)
	}
}

// pathText reads the {text} path parameter. Clients send "/" as LUTESLASH.
func pathText(req *http.Request) string {
	return strings.ReplaceAll(req.PathValue("text"), "LUTESLASH", "/")
}

// handleFind handles GET /api/terms/{text}/{langid}.
func handleFind() data.DbHandler {
	return func(ctx context.Context, db *data.Database, req *http.Request) (any, error) {
		langID, err := tools.PathInt64(req, "langid")
		if err != nil {
			return nil, err
		}
		return FindOrNew(ctx, db, langID, pathText(req))
	}
}

// handleSuggestions handles GET /api/terms/{text}/{langid}/suggestions.
func handleSuggestions() data.DbHandler {
	return func(ctx context.Context, db *data.Database, req *http.Request) (any, error) {
		langID, err := tools.PathInt64(req, "langid")
		if err != nil {
			return nil, err
		}
		return Suggest(ctx, db, langID, pathText(req))
	}
}
