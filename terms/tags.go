package terms

import (
	"context"

	"github.com/luteorg/lute-api/data"
	"github.com/luteorg/lute-api/tools"
	"github.com/samber/lo"
)

const tagsSQL = `
SELECT TgID, TgText, TgComment, IFNULL(TermCount, 0) AS TermCount
FROM tags
LEFT JOIN (
	SELECT WtTgID, COUNT(*) AS TermCount FROM wordtags GROUP BY WtTgID
) src ON src.WtTgID = TgID
ORDER BY TgText`

// Tag is a term tag with the number of terms using it.
type Tag struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	TermCount int64  `json:"termCount"`
	Comment   string `json:"comment"`
}

// Tags lists every term tag.
func Tags(ctx context.Context, db *data.Database) ([]Tag, error) {
	rows, err := data.QueryMaps(ctx, db.Client, tagsSQL)
	if err != nil {
		return nil, tools.DataSourceErr(err)
	}
	return lo.Map(data.Rows(rows), func(r data.Row, _ int) Tag {
		return Tag{
			ID:        r.Int64("TgID"),
			Text:      r.String("TgText"),
			TermCount: r.Int64("TermCount"),
			Comment:   r.String("TgComment"),
		}
	}), nil
}

// TagSuggestions lists the text of every term tag, for autocompletion.
func TagSuggestions(ctx context.Context, db *data.Database) ([]string, error) {
	return column(ctx, db.Client, "TgText", "SELECT TgText FROM tags ORDER BY TgText")
}
