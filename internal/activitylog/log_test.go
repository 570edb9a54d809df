package activitylog

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edulibrary/internal/domain"
)

func TestAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "user_activity.csv")
	w := NewWriter(path)
	w.now = func() time.Time { return time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC) }

	user := domain.User{Name: "Alice", Role: "student", Department: "Science School"}
	require.NoError(t, w.Append(user, "recommend a book", "📚 Suggestions for you: Intro to Science"))
	require.NoError(t, w.Append(user, "what's new?", "Nothing yet"))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Alice", "student", "Science School", "recommend a book", "📚 Suggestions for you: Intro to Science", "2026-08-30 10:00:00"}, rows[0])
}

func TestAppendTruncatesAnswer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user_activity.csv")
	w := NewWriter(path)

	long := strings.Repeat("ب", 300)
	require.NoError(t, w.Append(domain.User{Name: "Omar"}, "q", long))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, answerLimit, len([]rune(rows[0][4])))
}
