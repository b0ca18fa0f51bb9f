package books

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/luteorg/lute-api/config"
	"github.com/luteorg/lute-api/data"
	"github.com/luteorg/lute-api/datatable"
	"github.com/luteorg/lute-api/tools"
)

// RegisterRoutes registers the book endpoints under /api/books.
func RegisterRoutes(app *http.ServeMux, db *data.Database, cfg config.Config) {
	app.HandleFunc("GET /api/books/{$}", data.WithDB(db, handleList(cfg)))
	app.HandleFunc("GET /api/books/form", data.WithDB(db, handleForm()))
	app.HandleFunc("GET /api/books/{id}", data.WithDB(db, handleGet()))
	app.HandleFunc("PATCH /api/books/{id}", data.WithDB(db, handleEdit()))
	app.HandleFunc("DELETE /api/books/{id}", data.WithDB(db, handleDelete()))
	app.HandleFunc("GET /api/books/{id}/stats", data.WithDB(db, handleStats()))
	app.HandleFunc("GET /api/books/{id}/audio", data.WithDBResponse(db, handleAudio(cfg.AudioDir)))
}

// handleList handles GET /api/books/.
func handleList(cfg config.Config) data.DbHandler {
	return func(ctx context.Context, db *data.Database, req *http.Request) (any, error) {
		table, err := datatable.ParseRequest(req.URL.Query())
		if err != nil {
			return nil, err
		}
		table.ClampSize(cfg.MaxPageSize)

		shelf, err := ParseShelf(req.URL.Query().Get("shelf"))
		if err != nil {
			return nil, err
		}

		var pinned Pinned
		if err := tools.QueryJSON(req, "pinned", &pinned); err != nil {
			return nil, err
		}

		start := time.Now()
		list, err := List(ctx, db, Query{
			Table:       table,
			Shelf:       shelf,
			Pinned:      pinned,
			ParserTypes: cfg.ParserTypes,
		})
		tools.ObserveTableQuery(View.Name, start, err)
		return list, err
	}
}

// handleGet handles GET /api/books/{id}.
func handleGet() data.DbHandler {
	return func(ctx context.Context, db *data.Database, req *http.Request) (any, error) {
		id, err := tools.PathInt64(req, "id")
		if err != nil {
			return nil, err
		}
		return Get(ctx, db, id)
	}
}

// handleEdit handles PATCH /api/books/{id}. The form field "action" selects
// what to change.
func handleEdit() data.DbHandler {
	return func(ctx context.Context, db *data.Database, req *http.Request) (any, error) {
		id, err := tools.PathInt64(req, "id")
		if err != nil {
			return nil, err
		}

		switch action := tools.FormValue(req, "action"); action {
		case "archive", "unarchive":
			return SetArchived(ctx, db, id, action == "archive")
		case "updateAudioData":
			u, err := parseAudioUpdate(req)
			if err != nil {
				return nil, err
			}
			return UpdateAudio(ctx, db, id, u)
		case "edit", "markPageAsRead":
			return nil, tools.InvalidRequestErr("action %q is not available in this server", action)
		default:
			return nil, tools.InvalidRequestErr("unknown action %q", action)
		}
	}
}

func parseAudioUpdate(req *http.Request) (AudioUpdate, error) {
	var u AudioUpdate

	if raw := tools.FormValue(req, "position"); raw != "" {
		pos, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return AudioUpdate{}, tools.InvalidRequestErr("position must be a number, got %q", raw)
		}
		u.Position = &pos
	}

	if raw := tools.FormValue(req, "bookmarks"); raw != "" {
		for _, part := range strings.Split(raw, ";") {
			mark, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
			if err != nil {
				return AudioUpdate{}, tools.InvalidRequestErr("bookmarks must be numbers separated by ';', got %q", raw)
			}
			u.Bookmarks = append(u.Bookmarks, mark)
		}
	}

	return u, nil
}

// handleDelete handles DELETE /api/books/{id}.
func handleDelete() data.DbHandler {
	return func(ctx context.Context, db *data.Database, req *http.Request) (any, error) {
		id, err := tools.PathInt64(req, "id")
		if err != nil {
			return nil, err
		}
		ref, err := Delete(ctx, db, id)
		if err != nil {
			return nil, err
		}
		return map[string]string{"title": ref.Title}, nil
	}
}

// handleStats handles GET /api/books/{id}/stats.
func handleStats() data.DbHandler {
	return func(ctx context.Context, db *data.Database, req *http.Request) (any, error) {
		id, err := tools.PathInt64(req, "id")
		if err != nil {
			return nil, err
		}
		return Stats(ctx, db, id)
	}
}

// handleAudio handles GET /api/books/{id}/audio. The file is sent as an
// attachment and never cached.
func handleAudio(dir string) data.DbResponseHandler {
	return func(ctx context.Context, db *data.Database, req *http.Request, w http.ResponseWriter) error {
		id, err := tools.PathInt64(req, "id")
		if err != nil {
			return err
		}

		name, err := AudioFilename(ctx, db, id)
		if err != nil {
			return err
		}

		f, err := os.Open(filepath.Join(dir, filepath.Base(name)))
		if errors.Is(err, fs.ErrNotExist) {
			return tools.NotFoundErr("audio file", name)
		}
		if err != nil {
			return err
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			return err
		}

		w.Header().Set("Content-Disposition", `attachment; filename="`+filepath.Base(name)+`"`)
		w.Header().Set("Cache-Control", "no-cache, max-age=0")
		http.ServeContent(w, req, name, info.ModTime(), f)
		return nil
	}
}

// handleForm handles GET /api/books/form.
func handleForm() data.DbHandler {
	return func(ctx context.Context, db *data.Database, req *http.Request) (any, error) {
		return DefaultForm(), nil
	}
}
