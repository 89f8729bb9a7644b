package csvfile

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"wordsprint/internal/domain"
)

var exportHeader = []string{"rank", "name", "score", "time", "mode", "submitted_at"}

// WriteRanking writes records, already in ranking order, as CSV.
func WriteRanking(w io.Writer, records []domain.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for i, r := range records {
		row := []string{
			strconv.Itoa(i + 1),
			r.Player,
			strconv.Itoa(r.Score),
			strconv.Itoa(r.ElapsedSeconds),
			string(r.Mode),
			r.SubmittedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
