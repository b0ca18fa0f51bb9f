package data

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRow(t *testing.T) {
	r := Row{
		"id":     int64(7),
		"pct":    12.5,
		"count":  "42",
		"title":  "Tale",
		"blank":  "  ",
		"null":   nil,
		"flag":   int64(1),
		"off":    int64(0),
		"tags":   "novel, classic,,",
		"single": "one",
	}

	assert.Equal(t, int64(7), r.Int64("id"))
	assert.Equal(t, int64(42), r.Int64("count"))
	assert.Equal(t, int64(0), r.Int64("null"))
	assert.Equal(t, 12.5, r.Float64("pct"))
	assert.Equal(t, "Tale", r.String("title"))
	assert.Equal(t, "", r.String("null"))
	assert.True(t, r.Bool("flag"))
	assert.False(t, r.Bool("off"))
	assert.False(t, r.Bool("null"))

	assert.Equal(t, "Tale", *r.OptString("title"))
	assert.Nil(t, r.OptString("blank"))
	assert.Nil(t, r.OptString("null"))

	assert.Equal(t, int64(7), *r.OptInt64("id"))
	assert.Nil(t, r.OptInt64("null"))
	assert.Equal(t, 12.5, *r.OptFloat64("pct"))
	assert.Nil(t, r.OptFloat64("null"))

	assert.Equal(t, []string{"novel", "classic"}, r.List("tags", ","))
	assert.Equal(t, []string{"one"}, r.List("single", ","))
	assert.Equal(t, []string{}, r.List("null", ","))
	assert.Equal(t, []string{}, r.List("missing", ","))
}

func TestRows(t *testing.T) {
	rows := Rows([]map[string]any{{"a": int64(1)}, {"a": int64(2)}})
	assert.Len(t, rows, 2)
	assert.Equal(t, int64(2), rows[1].Int64("a"))
	assert.Empty(t, Rows(nil))
}
