// Package datatest provides an in-memory reading database for tests.
package datatest

import (
	"context"
	"testing"

	"github.com/luteorg/lute-api/data"
)

// New returns an empty in-memory database with the reading schema.
// It is closed when the test finishes.
func New(tb testing.TB) *data.Database {
	tb.Helper()

	db, err := data.OpenDSN(context.Background(), data.DriverSQLite, "file::memory:?_foreign_keys=on")
	if err != nil {
		tb.Fatalf("open test database: %v", err)
	}
	tb.Cleanup(func() { db.Close() })
	return db
}

// Exec runs a statement and fails the test on error.
func Exec(tb testing.TB, db *data.Database, query string, args ...any) int64 {
	tb.Helper()

	res, err := db.Client.Exec(query, args...)
	if err != nil {
		tb.Fatalf("exec %q: %v", query, err)
	}
	id, _ := res.LastInsertId()
	return id
}

// Language inserts a language and returns its id.
func Language(tb testing.TB, db *data.Database, name, parserType string) int64 {
	tb.Helper()
	return Exec(tb, db, `INSERT INTO languages (LgName, LgParserType) VALUES (?, ?)`, name, parserType)
}

// Book describes a book fixture. Each entry in Pages becomes a text with the
// given word count; StartDates (optional) sets TxStartDate per page.
type Book struct {
	LanguageID int64
	Title      string
	Archived   bool
	Pages      []int
	StartDates []string
	ReadPages  int // number of leading pages with a read date
	Tags       []string
	Unknown    *int // bookstats.unknownpercent; nil leaves the row out
	Statuses   string
}

// InsertBook inserts b with its texts, tags and stats and returns the book id.
func InsertBook(tb testing.TB, db *data.Database, b Book) int64 {
	tb.Helper()

	archived := 0
	if b.Archived {
		archived = 1
	}
	id := Exec(tb, db, `INSERT INTO books (BkLgID, BkTitle, BkArchived) VALUES (?, ?, ?)`, b.LanguageID, b.Title, archived)

	pages := b.Pages
	if len(pages) == 0 {
		pages = []int{1}
	}
	for i, wc := range pages {
		start := "2024-01-01 10:00:00"
		if i < len(b.StartDates) {
			start = b.StartDates[i]
		}
		var read any
		if i < b.ReadPages {
			read = start
		}
		Exec(tb, db, `INSERT INTO texts (TxBkID, TxOrder, TxText, TxStartDate, TxReadDate, TxWordCount) VALUES (?, ?, ?, ?, ?, ?)`,
			id, i+1, "text", start, read, wc)
	}

	for _, tag := range b.Tags {
		Exec(tb, db, `INSERT OR IGNORE INTO tags2 (T2Text) VALUES (?)`, tag)
		Exec(tb, db, `INSERT INTO booktags (BtBkID, BtT2ID) SELECT ?, T2ID FROM tags2 WHERE T2Text = ?`, id, tag)
	}

	if b.Unknown != nil {
		Exec(tb, db, `INSERT INTO bookstats (BkID, distinctterms, distinctunknowns, unknownpercent, status_distribution) VALUES (?, 10, 1, ?, ?)`,
			id, *b.Unknown, b.Statuses)
	}

	return id
}

// Term describes a term fixture.
type Term struct {
	LanguageID  int64
	Text        string
	Status      int
	Translation string
	Created     string
	Parents     []int64
	Tags        []string
	Image       string
}

// InsertTerm inserts t with its parents, tags and image and returns the term id.
func InsertTerm(tb testing.TB, db *data.Database, t Term) int64 {
	tb.Helper()

	created := t.Created
	if created == "" {
		created = "2024-01-01 10:00:00"
	}
	var translation any
	if t.Translation != "" {
		translation = t.Translation
	}
	id := Exec(tb, db, `INSERT INTO words (WoLgID, WoText, WoTextLC, WoStatus, WoTranslation, WoCreated) VALUES (?, ?, lower(?), ?, ?, ?)`,
		t.LanguageID, t.Text, t.Text, t.Status, translation, created)

	for _, p := range t.Parents {
		Exec(tb, db, `INSERT INTO wordparents (WpWoID, WpParentWoID) VALUES (?, ?)`, id, p)
	}
	for _, tag := range t.Tags {
		Exec(tb, db, `INSERT OR IGNORE INTO tags (TgText) VALUES (?)`, tag)
		Exec(tb, db, `INSERT INTO wordtags (WtWoID, WtTgID) SELECT ?, TgID FROM tags WHERE TgText = ?`, id, tag)
	}
	if t.Image != "" {
		Exec(tb, db, `INSERT INTO wordimages (WiWoID, WiSource) VALUES (?, ?)`, id, t.Image)
	}

	return id
}

// Int returns a pointer to v, for optional fixture fields.
func Int(v int) *int { return &v }
