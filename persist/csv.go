package persist

import (
	"encoding/csv"
	"fmt"
	"os"
)

// ScoreLog appends generation/score rows to a CSV file, flushing after
// every write so a killed run keeps its partial output (spec.md §7).
type ScoreLog struct {
	file   *os.File
	writer *csv.Writer
}

// NewScoreLog creates (or truncates) path and writes the header row.
func NewScoreLog(path string) (*ScoreLog, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create score log %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.Write([]string{"generation", "score"}); err != nil {
		f.Close()
		return nil, fmt.Errorf("write score log header: %w", err)
	}
	w.Flush()
	return &ScoreLog{file: f, writer: w}, nil
}

// WriteGeneration appends one row per score in scores, all tagged with
// generation, then flushes.
func (l *ScoreLog) WriteGeneration(generation int, scores []int) error {
	for _, s := range scores {
		if err := l.writer.Write([]string{fmt.Sprintf("%d", generation), fmt.Sprintf("%d", s)}); err != nil {
			return fmt.Errorf("write score log row: %w", err)
		}
	}
	l.writer.Flush()
	return l.writer.Error()
}

// Close flushes and closes the underlying file.
func (l *ScoreLog) Close() error {
	l.writer.Flush()
	return l.file.Close()
}
