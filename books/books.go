// Package books serves the book shelf: the paged listing, book details,
// archiving, audio and reading stats.
package books

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"slices"
	"strconv"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/luteorg/lute-api/data"
	"github.com/luteorg/lute-api/datatable"
	"github.com/luteorg/lute-api/tools"
	"github.com/samber/lo"
)

// Shelf selects books by archive state.
type Shelf string

const (
	ShelfActive   Shelf = "active"
	ShelfArchived Shelf = "archived"
	ShelfAll      Shelf = "all"
)

// ParseShelf reads the shelf query parameter. Empty means active.
func ParseShelf(s string) (Shelf, error) {
	switch Shelf(s) {
	case "", ShelfActive:
		return ShelfActive, nil
	case ShelfArchived, ShelfAll:
		return Shelf(s), nil
	}
	return "", tools.InvalidRequestErr("shelf must be one of active, archived, all; got %q", s)
}

// Summary is a book as shown in the listing.
type Summary struct {
	ID             int64    `json:"id"`
	LanguageName   string   `json:"languageName"`
	LanguageID     int64    `json:"languageId"`
	TextDirection  string   `json:"textDirection"`
	Source         *string  `json:"source"`
	AudioName      *string  `json:"audioName"`
	Title          string   `json:"title"`
	WordCount      *int64   `json:"wordCount"`
	PageCount      int64    `json:"pageCount"`
	CurrentPage    int64    `json:"currentPage"`
	Tags           []string `json:"tags"`
	IsCompleted    bool     `json:"isCompleted"`
	UnknownPercent *int64   `json:"unknownPercent"`
	IsArchived     bool     `json:"isArchived"`
	LastRead       *string  `json:"lastRead"`
}

func textDirection(rtl bool) string {
	if rtl {
		return "rtl"
	}
	return "ltr"
}

func summaryFromRow(r data.Row, _ int) Summary {
	return Summary{
		ID:             r.Int64("BkID"),
		LanguageName:   r.String("LgName"),
		LanguageID:     r.Int64("BkLgID"),
		TextDirection:  textDirection(r.Bool("LgRightToLeft")),
		Source:         r.OptString("BkSourceURI"),
		AudioName:      r.OptString("BkAudioFilename"),
		Title:          r.String("BkTitle"),
		WordCount:      r.OptInt64("WordCount"),
		PageCount:      r.Int64("PageCount"),
		CurrentPage:    r.Int64("PageNum"),
		Tags:           r.List("TagList", ","),
		IsCompleted:    r.Bool("IsCompleted"),
		UnknownPercent: r.OptInt64("UnknownPercent"),
		IsArchived:     r.Bool("BkArchived"),
		LastRead:       r.OptString("LastOpenedDate"),
	}
}

// Pinned holds ids of books the client keeps at the top or bottom of the
// table. They are returned after the page regardless of filters.
type Pinned struct {
	Top    []int64 `json:"top"`
	Bottom []int64 `json:"bottom"`
}

// Query is a listing request.
type Query struct {
	Table       datatable.Request
	Shelf       Shelf
	Pinned      Pinned
	ParserTypes []string // languages with other parsers are hidden
}

// Listing is one page of the shelf.
type Listing struct {
	Data          []Summary `json:"data"`
	TotalCount    int64     `json:"totalCount"`
	FilteredCount int64     `json:"filteredCount"`
	ActiveCount   int64     `json:"activeCount"`
	ArchivedCount int64     `json:"archivedCount"`
}

// List returns a page of books followed by the pinned books.
func List(ctx context.Context, db *data.Database, q Query) (Listing, error) {
	base := []sq.Sqlizer{sq.Eq{"LgParserType": q.ParserTypes}}
	switch q.Shelf {
	case ShelfActive, "":
		base = append(base, sq.NotEq{"BkArchived": 1})
	case ShelfArchived:
		base = append(base, sq.Eq{"BkArchived": 1})
	}

	res, err := datatable.Run(ctx, db.Client, View, q.Table, base...)
	if err != nil {
		return Listing{}, err
	}

	archived, err := ArchivedCount(ctx, db.Client)
	if err != nil {
		return Listing{}, err
	}

	list := Listing{
		Data:          lo.Map(data.Rows(res.Rows), summaryFromRow),
		TotalCount:    res.TotalCount,
		FilteredCount: res.FilteredCount,
		ActiveCount:   res.TotalCount - archived,
		ArchivedCount: archived,
	}

	pinned, err := pinnedBooks(ctx, db.Client, lo.Uniq(append(slices.Clone(q.Pinned.Top), q.Pinned.Bottom...)))
	if err != nil {
		return Listing{}, err
	}
	list.Data = append(list.Data, pinned...)

	return list, nil
}

// pinnedBooks loads the given books in the order of ids. Unknown ids are skipped.
func pinnedBooks(ctx context.Context, exec data.Executor, ids []int64) ([]Summary, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := sq.Select("*").
		From("(" + baseSQL + ") AS realbase").
		Where(sq.Eq{"BkID": ids}).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := data.QueryMaps(ctx, exec, query, args...)
	if err != nil {
		return nil, tools.DataSourceErr(err)
	}

	byID := make(map[int64]Summary, len(rows))
	for i, r := range data.Rows(rows) {
		s := summaryFromRow(r, i)
		byID[s.ID] = s
	}

	out := make([]Summary, 0, len(byID))
	for _, id := range ids {
		if s, ok := byID[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

// ArchivedCount counts archived books in every language.
func ArchivedCount(ctx context.Context, exec data.Executor) (int64, error) {
	n, err := data.QueryInt(ctx, exec, "SELECT COUNT(*) FROM books WHERE BkArchived = 1")
	return n, tools.DataSourceErr(err)
}

// Ref identifies a book in write responses.
type Ref struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

type bookRow struct {
	Ref
	audioFilename string
}

func findBook(ctx context.Context, exec data.Executor, id int64) (bookRow, error) {
	var b bookRow
	var audio sql.NullString
	err := exec.QueryRowContext(ctx,
		"SELECT BkID, BkTitle, BkAudioFilename FROM books WHERE BkID = ?", id,
	).Scan(&b.ID, &b.Title, &audio)
	if errors.Is(err, sql.ErrNoRows) {
		return bookRow{}, tools.NotFoundErr("book", id)
	}
	if err != nil {
		return bookRow{}, tools.DataSourceErr(data.LockErr(err))
	}
	b.audioFilename = audio.String
	return b, nil
}

// Audio is the audio attached to a book.
type Audio struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Position  float64   `json:"position"`
	Bookmarks []float64 `json:"bookmarks"`
}

// Detail is a single book as opened by the reader.
type Detail struct {
	ID            int64   `json:"id"`
	Title         string  `json:"title"`
	Source        *string `json:"source"`
	PageCount     int64   `json:"pageCount"`
	CurrentPage   int64   `json:"currentPage"`
	LanguageID    int64   `json:"languageId"`
	TextDirection string  `json:"textDirection"`
	Audio         *Audio  `json:"audio"`
}

// Get returns the book with the given id.
func Get(ctx context.Context, db *data.Database, id int64) (Detail, error) {
	query, args, err := sq.Select("*").
		From("(" + baseSQL + ") AS realbase").
		Where(sq.Eq{"BkID": id}).
		ToSql()
	if err != nil {
		return Detail{}, err
	}

	rows, err := data.QueryMaps(ctx, db.Client, query, args...)
	if err != nil {
		return Detail{}, tools.DataSourceErr(err)
	}
	if len(rows) == 0 {
		return Detail{}, tools.NotFoundErr("book", id)
	}
	r := data.Row(rows[0])

	d := Detail{
		ID:            id,
		Title:         r.String("BkTitle"),
		Source:        r.OptString("BkSourceURI"),
		PageCount:     r.Int64("PageCount"),
		CurrentPage:   r.Int64("PageNum"),
		LanguageID:    r.Int64("BkLgID"),
		TextDirection: textDirection(r.Bool("LgRightToLeft")),
	}
	if name := r.OptString("BkAudioFilename"); name != nil {
		d.Audio = &Audio{
			ID:        id,
			Name:      *name,
			Position:  r.Float64("BkAudioCurrentPos"),
			Bookmarks: parseBookmarks(r.String("BkAudioBookmarks")),
		}
	}
	return d, nil
}

// parseBookmarks reads a ";" separated list of positions, skipping junk.
func parseBookmarks(s string) []float64 {
	out := []float64{}
	for _, part := range strings.Split(s, ";") {
		if f, err := strconv.ParseFloat(strings.TrimSpace(part), 64); err == nil {
			out = append(out, f)
		}
	}
	return out
}

func formatBookmarks(marks []float64) string {
	return strings.Join(lo.Map(marks, func(f float64, _ int) string {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}), ";")
}

// ArchiveResult is returned after archiving or unarchiving.
type ArchiveResult struct {
	Ref
	ArchivedCount int64 `json:"archivedCount"`
}

// SetArchived moves a book to or from the archive.
func SetArchived(ctx context.Context, db *data.Database, id int64, archived bool) (ArchiveResult, error) {
	b, err := findBook(ctx, db.Client, id)
	if err != nil {
		return ArchiveResult{}, err
	}

	query, args, err := sq.Update("books").
		Set("BkArchived", lo.Ternary(archived, 1, 0)).
		Where(sq.Eq{"BkID": id}).
		ToSql()
	if err != nil {
		return ArchiveResult{}, err
	}
	if _, err := data.ExecContextWithRetry(ctx, db.Client, query, args...); err != nil {
		return ArchiveResult{}, tools.DataSourceErr(err)
	}

	count, err := ArchivedCount(ctx, db.Client)
	if err != nil {
		return ArchiveResult{}, err
	}
	return ArchiveResult{Ref: b.Ref, ArchivedCount: count}, nil
}

// AudioUpdate carries the reader's audio player state.
type AudioUpdate struct {
	Position  *float64  `validate:"omitempty,gte=0"`
	Bookmarks []float64 `validate:"dive,gte=0"`
}

// UpdateAudio saves the playback position and bookmarks. Unset parts are kept.
func UpdateAudio(ctx context.Context, db *data.Database, id int64, u AudioUpdate) (Ref, error) {
	if err := tools.ValidateStruct(u); err != nil {
		return Ref{}, err
	}

	b, err := findBook(ctx, db.Client, id)
	if err != nil {
		return Ref{}, err
	}
	if u.Position == nil && len(u.Bookmarks) == 0 {
		return b.Ref, nil
	}

	update := sq.Update("books").Where(sq.Eq{"BkID": id})
	if u.Position != nil {
		update = update.Set("BkAudioCurrentPos", *u.Position)
	}
	if len(u.Bookmarks) > 0 {
		update = update.Set("BkAudioBookmarks", formatBookmarks(u.Bookmarks))
	}

	query, args, err := update.ToSql()
	if err != nil {
		return Ref{}, err
	}
	if _, err := data.ExecContextWithRetry(ctx, db.Client, query, args...); err != nil {
		return Ref{}, tools.DataSourceErr(err)
	}
	return b.Ref, nil
}

// Delete removes a book with its pages, tags and stats.
func Delete(ctx context.Context, db *data.Database, id int64) (Ref, error) {
	b, err := findBook(ctx, db.Client, id)
	if err != nil {
		return Ref{}, err
	}

	err = db.WithTx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range []string{
			"DELETE FROM bookstats WHERE BkID = ?",
			"DELETE FROM booktags WHERE BtBkID = ?",
			"DELETE FROM texts WHERE TxBkID = ?",
			"DELETE FROM books WHERE BkID = ?",
		} {
			if _, err := data.ExecContextWithRetry(ctx, tx, stmt, id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Ref{}, tools.DataSourceErr(err)
	}
	return b.Ref, nil
}

// StatusCount is the share of a book's distinct terms in one status.
type StatusCount struct {
	Status     int     `json:"status"`
	WordCount  int64   `json:"wordCount"`
	Percentage float64 `json:"percentage"`
}

// Stats returns the cached status distribution of a book. Ignored terms are
// reported as well known. A book without stats gives an empty list.
func Stats(ctx context.Context, db *data.Database, id int64) ([]StatusCount, error) {
	if _, err := findBook(ctx, db.Client, id); err != nil {
		return nil, err
	}

	rows, err := data.QueryMaps(ctx, db.Client, "SELECT status_distribution FROM bookstats WHERE BkID = ?", id)
	if err != nil {
		return nil, tools.DataSourceErr(err)
	}
	if len(rows) == 0 {
		return []StatusCount{}, nil
	}

	raw := data.Row(rows[0]).String("status_distribution")
	if raw == "" {
		return []StatusCount{}, nil
	}
	var dist map[string]int64
	if err := json.Unmarshal([]byte(raw), &dist); err != nil {
		return nil, tools.DataSourceErr(err)
	}

	return statusCounts(dist), nil
}

func statusCounts(dist map[string]int64) []StatusCount {
	counts := map[int]int64{}
	var total int64
	for k, n := range dist {
		status, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		if status == 98 {
			status = 99
		}
		counts[status] += n
		total += n
	}
	if total == 0 {
		return []StatusCount{}
	}

	statuses := lo.Keys(counts)
	slices.Sort(statuses)

	return lo.Map(statuses, func(status int, _ int) StatusCount {
		return StatusCount{
			Status:     status,
			WordCount:  counts[status],
			Percentage: float64(counts[status]) / float64(total) * 100,
		}
	})
}

// AudioFilename returns the stored audio file name of a book.
func AudioFilename(ctx context.Context, db *data.Database, id int64) (string, error) {
	b, err := findBook(ctx, db.Client, id)
	if err != nil {
		return "", err
	}
	if b.audioFilename == "" {
		return "", tools.NotFoundErr("audio for book", id)
	}
	return b.audioFilename, nil
}

// NewBookForm is the blank form for creating a book.
type NewBookForm struct {
	Title        string   `json:"title"`
	Text         string   `json:"text"`
	LanguageID   *int64   `json:"languageId"`
	ImportURL    string   `json:"importUrl"`
	TextFile     *string  `json:"textFile"`
	AudioFile    *string  `json:"audioFile"`
	WordsPerPage int      `json:"wordsPerPage"`
	SplitBy      string   `json:"splitBy"`
	Source       string   `json:"source"`
	Tags         []string `json:"tags"`
}

// DefaultForm returns the defaults for a new book.
func DefaultForm() NewBookForm {
	return NewBookForm{
		WordsPerPage: 250,
		SplitBy:      "paragraphs",
		Tags:         []string{},
	}
}

// Tags returns every book tag text in alphabetical order.
func Tags(ctx context.Context, exec data.Executor) ([]string, error) {
	rows, err := data.QueryMaps(ctx, exec, "SELECT T2Text FROM tags2 ORDER BY T2Text")
	if err != nil {
		return nil, tools.DataSourceErr(err)
	}
	return lo.Map(data.Rows(rows), func(r data.Row, _ int) string {
		return r.String("T2Text")
	}), nil
}
