package store

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/abhisek/pal/internal/difficulty"
)

// ExportJSONL writes one JSON object per session, answers included.
func ExportJSONL(w io.Writer, recs []SessionRecord) error {
	enc := json.NewEncoder(w)
	for _, rec := range recs {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("encode session %s: %w", rec.ID, err)
		}
	}
	return nil
}

func difficultyLevel(s string) difficulty.Level {
	l, err := difficulty.Parse(s)
	if err != nil {
		return ""
	}
	return l
}
