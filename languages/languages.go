// Package languages serves the user defined languages and their form data.
package languages

import (
	"context"
	"net/url"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/luteorg/lute-api/data"
	"github.com/luteorg/lute-api/tools"
	"github.com/samber/lo"
)

const listSQL = `
	SELECT LgID, LgName, LgRightToLeft, book_count, term_count
	FROM languages
	LEFT OUTER JOIN (
		SELECT BkLgID, COUNT(BkLgID) AS book_count FROM books
		GROUP BY BkLgID
	) bc ON bc.BkLgID = LgID
	LEFT OUTER JOIN (
		SELECT WoLgID, COUNT(WoLgID) AS term_count FROM words
		WHERE WoStatus != 0
		GROUP BY WoLgID
	) tc ON tc.WoLgID = LgID
	ORDER BY LgName`

// Summary is one row of the language list.
type Summary struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	TextDirection string `json:"textDirection"`
	BookCount     int64  `json:"bookCount"`
	TermCount     int64  `json:"termCount"`
}

func textDirection(rtl bool) string {
	return lo.Ternary(rtl, "rtl", "ltr")
}

// List returns all languages ordered by name. Languages without books or
// known terms report zero counts.
func List(ctx context.Context, exec data.Executor) ([]Summary, error) {
	rows, err := data.QueryMaps(ctx, exec, listSQL)
	if err != nil {
		return nil, tools.DataSourceErr(err)
	}
	return lo.Map(data.Rows(rows), func(r data.Row, _ int) Summary {
		return Summary{
			ID:            r.Int64("LgID"),
			Name:          r.String("LgName"),
			TextDirection: textDirection(r.Bool("LgRightToLeft")),
			BookCount:     r.Int64("book_count"),
			TermCount:     r.Int64("term_count"),
		}
	}), nil
}

// Dictionary is a lookup dictionary configured for a language.
type Dictionary struct {
	ID       *int64  `json:"id,omitempty"`
	UsedFor  string  `json:"usedFor"`
	Type     string  `json:"type"`
	URL      string  `json:"url"`
	IsActive bool    `json:"isActive"`
	Hostname *string `json:"hostname"`
	Label    *string `json:"label"`
}

// Form is the editable settings of a language.
type Form struct {
	ID                       *int64       `json:"id,omitempty"`
	Name                     string       `json:"name"`
	ShowPronunciation        bool         `json:"showPronunciation"`
	TextDirection            string       `json:"textDirection"`
	ParserType               string       `json:"parserType"`
	CharacterSubstitutions   string       `json:"characterSubstitutions"`
	SplitSentencesAt         string       `json:"splitSentencesAt"`
	SplitSentencesExceptions string       `json:"splitSentencesExceptions"`
	WordCharacters           string       `json:"wordCharacters"`
	Dictionaries             []Dictionary `json:"dictionaries"`
}

// DefaultForm returns the settings a new language starts with.
func DefaultForm() Form {
	return Form{
		CharacterSubstitutions:   "´='|`='|’='|‘='|...=…|..=‥",
		SplitSentencesAt:         ".!?",
		SplitSentencesExceptions: "Mr.|Mrs.|Dr.|[A-Z].|Vd.|Vds.",
		WordCharacters:           "a-zA-ZÀ-ÖØ-öø-ȳáéíóúÁÉÍÓÚñÑ",
		TextDirection:            "ltr",
		ParserType:               "spacedel",
		Dictionaries:             []Dictionary{},
	}
}

// Get returns the form data of an existing language.
func Get(ctx context.Context, exec data.Executor, id int64) (Form, error) {
	query, args, err := sq.Select("*").From("languages").Where(sq.Eq{"LgID": id}).ToSql()
	if err != nil {
		return Form{}, err
	}
	rows, err := data.QueryMaps(ctx, exec, query, args...)
	if err != nil {
		return Form{}, tools.DataSourceErr(err)
	}
	if len(rows) == 0 {
		return Form{}, tools.NotFoundErr("language", id)
	}
	r := data.Row(rows[0])

	dicts, err := dictionaries(ctx, exec, id)
	if err != nil {
		return Form{}, err
	}

	return Form{
		ID:                       lo.ToPtr(id),
		Name:                     r.String("LgName"),
		ShowPronunciation:        r.Bool("LgShowRomanization"),
		TextDirection:            textDirection(r.Bool("LgRightToLeft")),
		ParserType:               r.String("LgParserType"),
		CharacterSubstitutions:   r.String("LgCharacterSubstitutions"),
		SplitSentencesAt:         r.String("LgRegexpSplitSentences"),
		SplitSentencesExceptions: r.String("LgExceptionsSplitSentences"),
		WordCharacters:           r.String("LgRegexpWordCharacters"),
		Dictionaries:             dicts,
	}, nil
}

func dictionaries(ctx context.Context, exec data.Executor, langID int64) ([]Dictionary, error) {
	query, args, err := sq.Select("LdID", "LdUseFor", "LdType", "LdDictURI", "LdIsActive").
		From("languagedicts").
		Where(sq.Eq{"LdLgID": langID}).
		OrderBy("LdSortOrder", "LdID").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := data.QueryMaps(ctx, exec, query, args...)
	if err != nil {
		return nil, tools.DataSourceErr(err)
	}

	return lo.Map(data.Rows(rows), func(r data.Row, _ int) Dictionary {
		uri := r.String("LdDictURI")
		host := hostname(uri)
		return Dictionary{
			ID:       lo.ToPtr(r.Int64("LdID")),
			UsedFor:  r.String("LdUseFor"),
			Type:     strings.ReplaceAll(r.String("LdType"), "html", ""),
			URL:      uri,
			IsActive: r.Bool("LdIsActive"),
			Hostname: host,
			Label:    label(host),
		}
	}), nil
}

// hostname returns nil when uri has no host, e.g. for "*" lookups or
// relative paths.
func hostname(uri string) *string {
	u, err := url.Parse(uri)
	if err != nil || u.Hostname() == "" {
		return nil
	}
	return lo.ToPtr(strings.ToLower(u.Hostname()))
}

func label(host *string) *string {
	if host == nil {
		return nil
	}
	return lo.ToPtr(strings.TrimPrefix(*host, "www."))
}

// Choice is a language as offered in pickers.
type Choice struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Choices returns every language id and name ordered by name.
func Choices(ctx context.Context, exec data.Executor) ([]Choice, error) {
	rows, err := data.QueryMaps(ctx, exec, "SELECT LgID, LgName FROM languages ORDER BY LgName")
	if err != nil {
		return nil, tools.DataSourceErr(err)
	}
	return lo.Map(data.Rows(rows), func(r data.Row, _ int) Choice {
		return Choice{ID: r.Int64("LgID"), Name: r.String("LgName")}
	}), nil
}

// Parser is a parser type offered in the language form.
type Parser struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

var parserLabels = map[string]string{
	"spacedel":         "Space Delimited",
	"classicalchinese": "Classical Chinese",
	"turkish":          "Turkish",
	"japanese":         "Japanese",
	"lute_mandarin":    "Mandarin Chinese",
	"thai":             "Thai",
}

// Parsers lists the given parser types with display labels, in the order
// they are configured. Types without a known label use the type name.
func Parsers(types []string) []Parser {
	return lo.Map(types, func(t string, _ int) Parser {
		label, ok := parserLabels[t]
		return Parser{Value: t, Label: lo.Ternary(ok, label, t)}
	})
}
