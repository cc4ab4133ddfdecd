package score

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/pkg/errors"
)

var csvHeader = []string{"Quiz ID", "Chapter", "Date", "Score", "Total", "Percentage"}

// WriteCSV serializes a score history as comma-separated values, one row
// per score, with a fixed header row.
func WriteCSV(w io.Writer, scores []ScoreInfo) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return errors.Wrap(err, "writing header")
	}
	for _, s := range scores {
		row := []string{
			s.QuizID,
			s.ChapterName,
			s.CreatedAt.Format("2006-01-02"),
			fmt.Sprintf("%d", s.TotalScored),
			fmt.Sprintf("%d", s.TotalQuestions),
			fmt.Sprintf("%.2f%%", s.Percentage()),
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrap(err, "writing row")
		}
	}

	cw.Flush()
	return errors.Wrap(cw.Error(), "flushing csv")
}
