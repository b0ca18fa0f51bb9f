package tools

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
)

// PathInt64 reads an integer path parameter such as {id}.
func PathInt64(req *http.Request, name string) (int64, error) {
	raw := req.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, InvalidRequestErr("%s must be an integer, got %q", name, raw)
	}
	return id, nil
}

// FormValue returns a trimmed form field. The browser client sends the
// literal string "undefined" for unset fields; that reads as empty.
func FormValue(req *http.Request, name string) string {
	v := strings.TrimSpace(req.FormValue(name))
	if v == "undefined" {
		return ""
	}
	return v
}

// QueryJSON decodes a JSON-valued query parameter into dst. An absent
// parameter leaves dst untouched.
func QueryJSON(req *http.Request, name string, dst any) error {
	raw := strings.TrimSpace(req.URL.Query().Get(name))
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return InvalidRequestErr("%s is not valid JSON: %s", name, err.Error())
	}
	return nil
}

// DecodeJSON decodes a JSON request body into dst.
func DecodeJSON(req *http.Request, dst any) error {
	if err := json.NewDecoder(req.Body).Decode(dst); err != nil {
		return InvalidRequestErr("invalid JSON body: %s", err.Error())
	}
	return nil
}

// SplitCommas splits comma-separated values into trimmed, non-empty strings.
func SplitCommas(strs ...string) []string {
	out := make([]string, 0, len(strs))

	for _, s := range strs {
		for _, part := range strings.Split(s, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
	}

	return out
}
