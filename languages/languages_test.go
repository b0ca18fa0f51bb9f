package languages

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/luteorg/lute-api/config"
	"github.com/luteorg/lute-api/data"
	"github.com/luteorg/lute-api/data/datatest"
	"github.com/luteorg/lute-api/tools"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	db              *data.Database
	english, arabic int64
	german          int64
}

func setup(t *testing.T) fixture {
	t.Helper()

	db := datatest.New(t)
	f := fixture{db: db}
	f.english = datatest.Language(t, db, "English", "spacedel")
	f.arabic = datatest.Language(t, db, "Arabic", "spacedel")
	f.german = datatest.Language(t, db, "German", "spacedel")
	datatest.Exec(t, db, "UPDATE languages SET LgRightToLeft = 1 WHERE LgID = ?", f.arabic)

	datatest.InsertBook(t, db, datatest.Book{LanguageID: f.english, Title: "One", Pages: []int{10}})
	datatest.InsertBook(t, db, datatest.Book{LanguageID: f.english, Title: "Two", Pages: []int{10}, Archived: true})
	datatest.InsertTerm(t, db, datatest.Term{LanguageID: f.english, Text: "cat", Status: 1})
	datatest.InsertTerm(t, db, datatest.Term{LanguageID: f.english, Text: "dog", Status: 99})
	datatest.InsertTerm(t, db, datatest.Term{LanguageID: f.english, Text: "zzz", Status: 0})

	datatest.Exec(t, db, `INSERT INTO languagedicts (LdLgID, LdUseFor, LdType, LdDictURI, LdIsActive, LdSortOrder)
		VALUES (?, 'terms', 'embeddedhtml', 'https://www.WordReference.com/en/###', 1, 2),
		       (?, 'sentences', 'popuphtml', '*https://translate.example.org/?q=###', 0, 1),
		       (?, 'terms', 'embeddedhtml', 'https://de.example.net/###', 1, 1)`,
		f.english, f.english, f.german)
	return f
}

func TestList(t *testing.T) {
	f := setup(t)

	langs, err := List(context.Background(), f.db.Client)
	require.NoError(t, err)

	assert.Equal(t, []Summary{
		{ID: f.arabic, Name: "Arabic", TextDirection: "rtl"},
		{ID: f.english, Name: "English", TextDirection: "ltr", BookCount: 2, TermCount: 2},
		{ID: f.german, Name: "German", TextDirection: "ltr"},
	}, langs)
}

func TestGet(t *testing.T) {
	f := setup(t)

	form, err := Get(context.Background(), f.db.Client, f.english)
	require.NoError(t, err)

	assert.Equal(t, lo.ToPtr(f.english), form.ID)
	assert.Equal(t, "English", form.Name)
	assert.Equal(t, "ltr", form.TextDirection)
	assert.Equal(t, "spacedel", form.ParserType)
	assert.Equal(t, ".!?", form.SplitSentencesAt)
	assert.Equal(t, "a-zA-Z", form.WordCharacters)
	assert.Equal(t, "", form.CharacterSubstitutions)
	assert.False(t, form.ShowPronunciation)

	require.Len(t, form.Dictionaries, 2)

	popup := form.Dictionaries[0]
	assert.Equal(t, "sentences", popup.UsedFor)
	assert.Equal(t, "popup", popup.Type)
	assert.False(t, popup.IsActive)
	assert.Nil(t, popup.Hostname)
	assert.Nil(t, popup.Label)

	embedded := form.Dictionaries[1]
	assert.Equal(t, "embedded", embedded.Type)
	assert.True(t, embedded.IsActive)
	assert.Equal(t, "https://www.WordReference.com/en/###", embedded.URL)
	assert.Equal(t, lo.ToPtr("www.wordreference.com"), embedded.Hostname)
	assert.Equal(t, lo.ToPtr("wordreference.com"), embedded.Label)
}

func TestGet_NotFound(t *testing.T) {
	f := setup(t)

	_, err := Get(context.Background(), f.db.Client, 999)
	assert.ErrorIs(t, err, tools.ErrNotFound)
}

func TestChoices(t *testing.T) {
	f := setup(t)

	choices, err := Choices(context.Background(), f.db.Client)
	require.NoError(t, err)
	assert.Equal(t, []Choice{
		{ID: f.arabic, Name: "Arabic"},
		{ID: f.english, Name: "English"},
		{ID: f.german, Name: "German"},
	}, choices)
}

func TestHostnameAndLabel(t *testing.T) {
	tests := []struct {
		uri   string
		host  *string
		label *string
	}{
		{"https://www.example.com/###", lo.ToPtr("www.example.com"), lo.ToPtr("example.com")},
		{"http://dict.example.com:8080/?w=###", lo.ToPtr("dict.example.com"), lo.ToPtr("dict.example.com")},
		{"*https://example.com/###", nil, nil},
		{"lookup/###", nil, nil},
		{"", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			host := hostname(tt.uri)
			assert.Equal(t, tt.host, host)
			assert.Equal(t, tt.label, label(host))
		})
	}
}

func serve(t *testing.T, f fixture, target string) *httptest.ResponseRecorder {
	t.Helper()
	app := http.NewServeMux()
	RegisterRoutes(app, f.db, config.Config{ParserTypes: []string{"spacedel", "turkish", "custom"}})
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHandlers(t *testing.T) {
	f := setup(t)

	t.Run("list", func(t *testing.T) {
		rec := serve(t, f, "/api/languages/")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var langs []map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &langs))
		require.Len(t, langs, 3)
		assert.Equal(t, "Arabic", langs[0]["name"])
		assert.Equal(t, "rtl", langs[0]["textDirection"])
		assert.Equal(t, float64(0), langs[0]["bookCount"])
	})

	t.Run("form", func(t *testing.T) {
		rec := serve(t, f, "/api/languages/form")
		require.Equal(t, http.StatusOK, rec.Code)

		var form map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &form))
		assert.NotContains(t, form, "id")
		assert.Equal(t, "", form["name"])
		assert.Equal(t, "spacedel", form["parserType"])
		assert.Equal(t, []any{}, form["dictionaries"])
	})

	t.Run("get", func(t *testing.T) {
		rec := serve(t, f, "/api/languages/"+jsonInt(f.german))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var form Form
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &form))
		assert.Equal(t, "German", form.Name)
		require.Len(t, form.Dictionaries, 1)
		assert.Equal(t, lo.ToPtr("de.example.net"), form.Dictionaries[0].Label)
	})

	t.Run("parsers", func(t *testing.T) {
		rec := serve(t, f, "/api/languages/parsers")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[
			{"value":"spacedel","label":"Space Delimited"},
			{"value":"turkish","label":"Turkish"},
			{"value":"custom","label":"custom"}
		]`, rec.Body.String())
	})

	t.Run("not found", func(t *testing.T) {
		rec := serve(t, f, "/api/languages/999")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("bad id", func(t *testing.T) {
		rec := serve(t, f, "/api/languages/abc")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func jsonInt(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func TestParsers(t *testing.T) {
	assert.Equal(t, []Parser{
		{Value: "classicalchinese", Label: "Classical Chinese"},
		{Value: "spacedel", Label: "Space Delimited"},
	}, Parsers([]string{"classicalchinese", "spacedel"}))
	assert.Equal(t, []Parser{}, Parsers(nil))
}
