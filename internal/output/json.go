package output

import (
	"encoding/json"
	"io"

	"loupe/internal/review"
)

// WriteJSON writes the reports as indented JSON for machine consumption.
func WriteJSON(w io.Writer, reports []*review.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(reports)
}
