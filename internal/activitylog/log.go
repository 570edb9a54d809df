package activitylog

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"time"

	"edulibrary/internal/domain"
)

// answerLimit caps the answer excerpt stored per interaction, in runes.
const answerLimit = 120

// Writer appends interaction records to a CSV sink. Write-only: the core
// never reads the log back.
type Writer struct {
	path string
	now  func() time.Time
}

func NewWriter(path string) *Writer {
	return &Writer{path: path, now: time.Now}
}

// Append records one interaction: who asked, what was asked, and a
// truncated answer excerpt with a timestamp.
func (w *Writer) Append(user domain.User, question, answer string) error {
	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	cw := csv.NewWriter(f)
	row := []string{
		user.Name, user.Role, user.Department,
		question, truncate(answer, answerLimit),
		w.now().Format("2006-01-02 15:04:05"),
	}
	if err := cw.Write(row); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
