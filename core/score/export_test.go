package score_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/trezcool/quizmaster/core/score"
)

func TestWriteCSV(t *testing.T) {
	ts := time.Date(2021, time.April, 15, 9, 30, 0, 0, time.UTC)
	scores := []score.ScoreInfo{
		{
			Score: score.Score{
				QuizID:         "qz1",
				TotalScored:    1,
				TotalQuestions: 3,
				CreatedAt:      ts,
			},
			ChapterName: "Algebra",
			SubjectName: "Maths",
		},
		{
			Score: score.Score{
				QuizID:         "qz2",
				TotalScored:    2,
				TotalQuestions: 2,
				CreatedAt:      ts.AddDate(0, 0, 1),
			},
			ChapterName: "Geometry",
			SubjectName: "Maths",
		},
	}

	var buf bytes.Buffer
	if err := score.WriteCSV(&buf, scores); err != nil {
		t.Fatalf("WriteCSV() failed: %v", err)
	}

	want := "Quiz ID,Chapter,Date,Score,Total,Percentage\n" +
		"qz1,Algebra,2021-04-15,1,3,33.33%\n" +
		"qz2,Geometry,2021-04-16,2,2,100.00%\n"
	if got := buf.String(); got != want {
		t.Errorf("WriteCSV() = %q, want %q", got, want)
	}
}

func TestWriteCSV_empty(t *testing.T) {
	var buf bytes.Buffer
	if err := score.WriteCSV(&buf, nil); err != nil {
		t.Fatalf("WriteCSV() failed: %v", err)
	}
	if got, want := buf.String(), "Quiz ID,Chapter,Date,Score,Total,Percentage\n"; got != want {
		t.Errorf("WriteCSV() = %q, want %q", got, want)
	}
}
