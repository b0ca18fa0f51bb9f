package data

import (
	"context"
	"net/http"

	"github.com/luteorg/lute-api/tools"
)

// DbHandler is a JSON endpoint that operates on a Database. The returned
// value is encoded as the 200 response body.
type DbHandler func(ctx context.Context, db *Database, req *http.Request) (any, error)

// DbResponseHandler is an endpoint that writes its own response, such as a
// file download. It only returns errors that should become error responses.
type DbResponseHandler func(ctx context.Context, db *Database, req *http.Request, w http.ResponseWriter) error

// WithDB adapts handler to an http.HandlerFunc bound to db.
func WithDB(db *Database, handler DbHandler) http.HandlerFunc {
	return func(wr http.ResponseWriter, req *http.Request) {
		result, err := handler(req.Context(), db, req)
		if err != nil {
			tools.RespErr(wr, err)
			return
		}

		tools.RespJSON(wr, http.StatusOK, result)
	}
}

// WithDBResponse wraps handlers that need access to the ResponseWriter.
func WithDBResponse(db *Database, handler DbResponseHandler) http.HandlerFunc {
	return func(wr http.ResponseWriter, req *http.Request) {
		if err := handler(req.Context(), db, req, wr); err != nil {
			tools.RespErr(wr, err)
		}
	}
}
