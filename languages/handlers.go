package languages

import (
	"context"
	"net/http"

	"github.com/luteorg/lute-api/config"
	"github.com/luteorg/lute-api/data"
	"github.com/luteorg/lute-api/tools"
)

// RegisterRoutes registers the language endpoints under /api/languages.
func RegisterRoutes(app *http.ServeMux, db *data.Database, cfg config.Config) {
	app.HandleFunc("GET /api/languages/{$}", data.WithDB(db, handleList()))
	app.HandleFunc("GET /api/languages/form", data.WithDB(db, handleForm()))
	app.HandleFunc("GET /api/languages/parsers", handleParsers(cfg))
	app.HandleFunc("GET /api/languages/{id}", data.WithDB(db, handleGet()))
}

// handleList handles GET /api/languages/.
func handleList() data.DbHandler {
	return func(ctx context.Context, db *data.Database, req *http.Request) (any, error) {
		return List(ctx, db.Client)
	}
}

func handleForm() data.DbHandler {
	return func(ctx context.Context, db *data.Database, req *http.Request) (any, error) {
		return DefaultForm(), nil
	}
}

// handleGet handles GET /api/languages/{id}.
func handleGet() data.DbHandler {
	return func(ctx context.Context, db *data.Database, req *http.Request) (any, error) {
		id, err := tools.PathInt64(req, "id")
		if err != nil {
			return nil, err
		}
		return Get(ctx, db.Client, id)
	}
}

// handleParsers handles GET /api/languages/parsers.
func handleParsers(cfg config.Config) http.HandlerFunc {
	parsers := Parsers(cfg.ParserTypes)
	return func(w http.ResponseWriter, r *http.Request) {
		tools.RespJSON(w, http.StatusOK, parsers)
	}
}
