// Package terms serves the term listing, term lookups, bulk status edits,
// tags and the CSV export.
package terms

import (
	"context"
	"database/sql"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/luteorg/lute-api/data"
	"github.com/luteorg/lute-api/datatable"
	"github.com/luteorg/lute-api/tools"
	"github.com/samber/lo"
)

// Summary is a term as shown in the listing.
type Summary struct {
	ID            int64    `json:"id"`
	LanguageName  string   `json:"languageName"`
	LanguageID    int64    `json:"languageId"`
	TextDirection string   `json:"textDirection"`
	Text          string   `json:"text"`
	Parents       []string `json:"parents"`
	Translation   string   `json:"translation"`
	Pronunciation string   `json:"pronunciation"`
	Status        int64    `json:"status"`
	ImageSource   string   `json:"imageSource"`
	CreatedAt     string   `json:"createdAt"`
	Tags          []string `json:"tags"`
}

func summaryFromRow(r data.Row, _ int) Summary {
	return Summary{
		ID:            r.Int64("WordID"),
		LanguageName:  r.String("LgName"),
		LanguageID:    r.Int64("LgID"),
		TextDirection: lo.Ternary(r.Bool("LgRightToLeft"), "rtl", "ltr"),
		Text:          r.String("WoText"),
		Parents:       r.List("ParentText", ","),
		Translation:   r.String("WoTranslation"),
		Pronunciation: r.String("WoRomanization"),
		Status:        r.Int64("StID"),
		ImageSource:   r.String("WiSource"),
		CreatedAt:     r.String("WoCreated"),
		Tags:          r.List("TagList", ","),
	}
}

// Query is a listing request.
type Query struct {
	Table       datatable.Request
	ParentsOnly bool    // hide terms that have a parent
	IDs         []int64 // restrict to these terms and their parents
	ParserTypes []string
}

// Listing is one page of terms.
type Listing struct {
	Data          []Summary `json:"data"`
	TotalCount    int64     `json:"totalCount"`
	FilteredCount int64     `json:"filteredCount"`
}

func (q Query) base() ([]sq.Sqlizer, error) {
	base := []sq.Sqlizer{sq.Eq{"LgParserType": q.ParserTypes}}

	if q.ParentsOnly {
		base = append(base, sq.Eq{"ParentText": nil})
	}

	if len(q.IDs) > 0 {
		parents, args, err := sq.Select("WpParentWoID").
			From("wordparents").
			Where(sq.Eq{"WpWoID": q.IDs}).
			ToSql()
		if err != nil {
			return nil, err
		}
		base = append(base, sq.Or{
			sq.Eq{"WordID": q.IDs},
			sq.Expr("WordID IN ("+parents+")", args...),
		})
	}

	return base, nil
}

// List returns a page of terms.
func List(ctx context.Context, db *data.Database, q Query) (Listing, error) {
	base, err := q.base()
	if err != nil {
		return Listing{}, err
	}

	res, err := datatable.Run(ctx, db.Client, View, q.Table, base...)
	if err != nil {
		return Listing{}, err
	}

	return Listing{
		Data:          lo.Map(data.Rows(res.Rows), summaryFromRow),
		TotalCount:    res.TotalCount,
		FilteredCount: res.FilteredCount,
	}, nil
}

// Term is a single term as loaded into the term form.
type Term struct {
	ID               *int64   `json:"id"`
	Text             string   `json:"text"`
	TextLowercase    string   `json:"textLowercase"`
	OriginalText     string   `json:"originalText"`
	Status           int64    `json:"status"`
	Translation      string   `json:"translation"`
	Pronunciation    string   `json:"pronunciation"`
	ShouldSyncStatus bool     `json:"shouldSyncStatus"`
	Tags             []string `json:"tags"`
	Parents          []string `json:"parents"`
	ImageSource      string   `json:"imageSource"`
	LanguageID       int64    `json:"languageId"`
}

const termSQL = `
SELECT WoID, WoLgID, WoText, WoTextLC, WoStatus, WoTranslation, WoRomanization, WoSyncStatus,
	(SELECT WiSource FROM wordimages WHERE WiWoID = WoID ORDER BY WiID DESC LIMIT 1) AS WiSource
FROM words`

// Get returns the term with the given id. Unknown-status terms are reported
// as new (1), the status the form would save them with.
func Get(ctx context.Context, db *data.Database, id int64) (Term, error) {
	rows, err := data.QueryMaps(ctx, db.Client, termSQL+" WHERE WoID = ?", id)
	if err != nil {
		return Term{}, tools.DataSourceErr(err)
	}
	if len(rows) == 0 {
		return Term{}, tools.NotFoundErr("term", id)
	}
	return loadTerm(ctx, db.Client, data.Row(rows[0]))
}

// FindOrNew returns the term with text in the language, or a blank unsaved
// term carrying text when there is none.
func FindOrNew(ctx context.Context, db *data.Database, languageID int64, text string) (Term, error) {
	rows, err := data.QueryMaps(ctx, db.Client, termSQL+" WHERE WoLgID = ? AND WoTextLC = ?", languageID, strings.ToLower(text))
	if err != nil {
		return Term{}, tools.DataSourceErr(err)
	}
	if len(rows) > 0 {
		return loadTerm(ctx, db.Client, data.Row(rows[0]))
	}

	var exists int64
	if exists, err = data.QueryInt(ctx, db.Client, "SELECT COUNT(*) FROM languages WHERE LgID = ?", languageID); err != nil {
		return Term{}, tools.DataSourceErr(err)
	}
	if exists == 0 {
		return Term{}, tools.NotFoundErr("language", languageID)
	}

	return Term{
		Text:          text,
		TextLowercase: strings.ToLower(text),
		OriginalText:  text,
		Status:        1,
		Tags:          []string{},
		Parents:       []string{},
		LanguageID:    languageID,
	}, nil
}

func loadTerm(ctx context.Context, exec data.Executor, r data.Row) (Term, error) {
	id := r.Int64("WoID")
	t := Term{
		ID:               &id,
		Text:             r.String("WoText"),
		TextLowercase:    r.String("WoTextLC"),
		OriginalText:     r.String("WoText"),
		Status:           r.Int64("WoStatus"),
		Translation:      r.String("WoTranslation"),
		Pronunciation:    r.String("WoRomanization"),
		ShouldSyncStatus: r.Bool("WoSyncStatus"),
		ImageSource:      r.String("WiSource"),
		LanguageID:       r.Int64("WoLgID"),
	}
	if t.Status == 0 {
		t.Status = 1
	}

	var err error
	if t.Tags, err = column(ctx, exec, "TgText",
		"SELECT TgText FROM wordtags INNER JOIN tags ON TgID = WtTgID WHERE WtWoID = ? ORDER BY TgText", id); err != nil {
		return Term{}, err
	}
	if t.Parents, err = column(ctx, exec, "WoText",
		"SELECT WoText FROM wordparents INNER JOIN words ON WoID = WpParentWoID WHERE WpWoID = ? ORDER BY WoText", id); err != nil {
		return Term{}, err
	}
	return t, nil
}

// column reads col from every row as a string.
func column(ctx context.Context, exec data.Executor, col, query string, args ...any) ([]string, error) {
	rows, err := data.QueryMaps(ctx, exec, query, args...)
	if err != nil {
		return nil, tools.DataSourceErr(err)
	}
	return lo.Map(data.Rows(rows), func(r data.Row, _ int) string { return r.String(col) }), nil
}

// Suggestion is a candidate parent term.
type Suggestion struct {
	ID          int64  `json:"id"`
	Text        string `json:"text"`
	Translation string `json:"translation"`
	Status      int64  `json:"status"`
}

// MaxSuggestions caps the number of parent suggestions.
const MaxSuggestions = 50

// Suggest returns terms in the language starting with text, exact match first.
func Suggest(ctx context.Context, db *data.Database, languageID int64, text string) ([]Suggestion, error) {
	text = strings.TrimSpace(text)
	if text == "" || languageID == 0 {
		return []Suggestion{}, nil
	}
	lc := strings.ToLower(text)

	query, args, err := sq.Select("WoID", "WoText", "WoTranslation", "WoStatus").
		From("words").
		Where(sq.Eq{"WoLgID": languageID}).
		Where(datatable.Like("WoTextLC", datatable.EscapeLike(lc)+"%")).
		OrderByClause("WoTextLC = ? DESC", lc).
		OrderBy("WoTextLC").
		Limit(MaxSuggestions).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := data.QueryMaps(ctx, db.Client, query, args...)
	if err != nil {
		return nil, tools.DataSourceErr(err)
	}
	return lo.Map(data.Rows(rows), func(r data.Row, _ int) Suggestion {
		return Suggestion{
			ID:          r.Int64("WoID"),
			Text:        r.String("WoText"),
			Translation: r.String("WoTranslation"),
			Status:      r.Int64("WoStatus"),
		}
	}), nil
}

// StatusUpdate sets the status of one term.
type StatusUpdate struct {
	ID     int64 `json:"id" validate:"gt=0"`
	Status int   `json:"status" validate:"oneof=0 1 2 3 4 5 98 99"`
}

type bulkStatus struct {
	Updates []StatusUpdate `validate:"dive"`
}

// SetStatuses applies every update in one transaction. If any term is
// missing nothing is changed.
func SetStatuses(ctx context.Context, db *data.Database, updates []StatusUpdate) error {
	if err := tools.ValidateStruct(bulkStatus{Updates: updates}); err != nil {
		return err
	}

	return db.WithTx(ctx, func(tx *sql.Tx) error {
		for _, u := range updates {
			query, args, err := sq.Update("words").
				Set("WoStatus", u.Status).
				Set("WoStatusChanged", sq.Expr("CURRENT_TIMESTAMP")).
				Where(sq.Eq{"WoID": u.ID}).
				ToSql()
			if err != nil {
				return err
			}

			res, err := data.ExecContextWithRetry(ctx, tx, query, args...)
			if err != nil {
				return tools.DataSourceErr(err)
			}
			if n, err := res.RowsAffected(); err == nil && n == 0 {
				return tools.NotFoundErr("term", u.ID)
			}
		}
		return nil
	})
}
