package terms

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"
)

// ExportHeadings is the header row of the term CSV export.
var ExportHeadings = []string{"Term", "Parent", "Translation", "Language", "Status", "Added on", "Pronunciation"}

// WriteCSV writes terms as CSV with ExportHeadings.
func WriteCSV(w io.Writer, terms []Summary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeadings); err != nil {
		return err
	}
	for _, t := range terms {
		if err := cw.Write([]string{
			t.Text,
			strings.Join(t.Parents, ", "),
			t.Translation,
			t.LanguageName,
			strconv.FormatInt(t.Status, 10),
			t.CreatedAt,
			t.Pronunciation,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
