// Package system serves health, app info and first-run endpoints.
package system

import (
	"context"
	"net/http"

	"github.com/luteorg/lute-api/books"
	"github.com/luteorg/lute-api/config"
	"github.com/luteorg/lute-api/data"
	"github.com/luteorg/lute-api/languages"
	"github.com/luteorg/lute-api/tools"
)

// RegisterRoutes registers /health and the /api system endpoints.
func RegisterRoutes(app *http.ServeMux, db *data.Database, cfg config.Config) {
	app.HandleFunc("GET /health", handleHealth(db))
	app.HandleFunc("GET /api/appinfo", handleAppInfo(cfg))
	app.HandleFunc("GET /api/initial", data.WithDB(db, handleInitial()))
}

// Health is the /health response body.
type Health struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func handleHealth(db *data.Database) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			tools.Logger.Error("health check failed", "error", err)
			tools.RespJSON(w, http.StatusServiceUnavailable, Health{Status: "unhealthy", Error: "database ping failed"})
			return
		}
		tools.RespJSON(w, http.StatusOK, Health{Status: "healthy"})
	}
}

// AppInfo describes the running install.
type AppInfo struct {
	Version     string   `json:"version"`
	DataDir     string   `json:"luteDbDirectory"`
	DBFilename  string   `json:"luteDb"`
	IsDocker    bool     `json:"isDocker"`
	ParserTypes []string `json:"parserTypes"`
}

func handleAppInfo(cfg config.Config) http.HandlerFunc {
	info := AppInfo{
		Version:     config.Version,
		DataDir:     cfg.DataDir,
		DBFilename:  cfg.DBFilename(),
		IsDocker:    cfg.IsDocker,
		ParserTypes: cfg.ParserTypes,
	}
	if info.ParserTypes == nil {
		info.ParserTypes = []string{}
	}
	return func(w http.ResponseWriter, r *http.Request) {
		tools.RespJSON(w, http.StatusOK, info)
	}
}

// Initial is what the client needs on first load.
type Initial struct {
	HasLanguages    bool               `json:"hasLanguages"`
	HasBooks        bool               `json:"hasBooks"`
	LanguageChoices []languages.Choice `json:"languageChoices"`
	BookTags        []string           `json:"bookTags"`
}

// LoadInitial gathers the first-run state.
func LoadInitial(ctx context.Context, exec data.Executor) (Initial, error) {
	choices, err := languages.Choices(ctx, exec)
	if err != nil {
		return Initial{}, err
	}
	bookCount, err := data.QueryInt(ctx, exec, "SELECT COUNT(*) FROM books")
	if err != nil {
		return Initial{}, tools.DataSourceErr(err)
	}
	tags, err := books.Tags(ctx, exec)
	if err != nil {
		return Initial{}, err
	}

	return Initial{
		HasLanguages:    len(choices) > 0,
		HasBooks:        bookCount > 0,
		LanguageChoices: choices,
		BookTags:        tags,
	}, nil
}

func handleInitial() data.DbHandler {
	return func(ctx context.Context, db *data.Database, req *http.Request) (any, error) {
		return LoadInitial(ctx, db.Client)
	}
}
