package datatable

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/luteorg/lute-api/tools"
)

// Filter is a single column filter: {"id": "title", "value": "Book"}.
type Filter struct {
	ID    string `json:"id"`
	Value any    `json:"value"`
}

// Sort is a single ordering key: {"id": "wordCount", "desc": true}.
type Sort struct {
	ID   string `json:"id"`
	Desc bool   `json:"desc"`
}

// Request is the client's view of a table: which window of rows, filtered
// and sorted how. It lives for one request.
type Request struct {
	Start        int               `validate:"gte=0"`
	Size         int               `validate:"gte=-1"` // -1 means no limit
	Filters      []Filter          `validate:"dive"`
	FilterModes  map[string]string // field -> mode; missing means contains
	GlobalFilter string
	Sorting      []Sort `validate:"dive"`
}

// Unlimited is the page size that returns every matching row.
const Unlimited = -1

// ParseRequest reads a Request from the table query parameters:
// start, size, filters, filterModes, globalFilter and sorting.
// The JSON-valued parameters default to empty when absent.
func ParseRequest(q url.Values) (Request, error) {
	req := Request{Size: Unlimited}

	var err error
	if v := q.Get("start"); v != "" {
		if req.Start, err = strconv.Atoi(strings.TrimSpace(v)); err != nil {
			return Request{}, tools.InvalidRequestErr("start must be an integer, got %q", v)
		}
	}
	if v := q.Get("size"); v != "" {
		if req.Size, err = strconv.Atoi(strings.TrimSpace(v)); err != nil {
			return Request{}, tools.InvalidRequestErr("size must be an integer, got %q", v)
		}
	}

	if err := decodeParam(q, "filters", &req.Filters); err != nil {
		return Request{}, err
	}
	if err := decodeParam(q, "filterModes", &req.FilterModes); err != nil {
		return Request{}, err
	}
	if err := decodeParam(q, "sorting", &req.Sorting); err != nil {
		return Request{}, err
	}
	req.GlobalFilter = strings.TrimSpace(q.Get("globalFilter"))

	for i, f := range req.Filters {
		if s, ok := f.Value.(string); ok {
			req.Filters[i].Value = strings.TrimSpace(s)
		}
	}

	if err := tools.ValidateStruct(req); err != nil {
		return Request{}, err
	}

	return req, nil
}

func decodeParam(q url.Values, name string, dst any) error {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return tools.InvalidRequestErr("%s is not valid JSON: %s", name, err.Error())
	}
	return nil
}

// ClampSize caps the page size at max. A max of zero or less leaves the
// request unchanged. An Unlimited size is clamped too, so with a cap set a
// client can no longer read every row in one page.
func (r *Request) ClampSize(max int) {
	if max <= 0 {
		return
	}
	if r.Size == Unlimited || r.Size > max {
		r.Size = max
	}
}
