package assistant

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edulibrary/internal/activitylog"
	"edulibrary/internal/catalog"
	"edulibrary/internal/domain"
	"edulibrary/internal/intent"
	"edulibrary/internal/lending"
	"edulibrary/internal/retrieval"
)

const usersFixture = `user_id,name,role,department,preferred_language,borrowed_books,borrow_start,borrow_end,borrowed_books_count,active
u1,Alice,student,Science School,English,,,,0,true
u2,Omar,teacher,Al Bayan School,Arabic,World Atlas,2026-08-20,2026-08-27,1,true
`

const booksFixture = `title,subject,language,grade_level,description,status,borrow_start,borrow_end
Artificial Intelligence in Education,ai,English,8,How AI changes classrooms,available,,
World Atlas,geography,English,6,Maps of the world,borrowing,2026-08-20,2026-08-27
`

type fakeGenerator struct {
	answer   string
	err      error
	question string
	context  string
}

func (f *fakeGenerator) Generate(user domain.User, question, context string) (string, error) {
	f.question = question
	f.context = context
	return f.answer, f.err
}

type emptyIndex struct{}

func (emptyIndex) Search(query, kind string, topK int) ([]domain.SearchResult, error) {
	return nil, nil
}

// newTestService runs the retrieval engine in degraded mode, so book
// references resolve through the deterministic fallback list.
func newTestService(t *testing.T, gen domain.Generator, activity *activitylog.Writer) (*Service, *catalog.Store) {
	t.Helper()
	dir := t.TempDir()
	usersPath := filepath.Join(dir, "users_profiles.csv")
	booksPath := filepath.Join(dir, "books.csv")
	require.NoError(t, os.WriteFile(usersPath, []byte(usersFixture), 0o644))
	require.NoError(t, os.WriteFile(booksPath, []byte(booksFixture), 0o644))
	store := catalog.NewStore(usersPath, booksPath)
	engine := retrieval.NewEngine(func() (domain.Index, error) {
		return nil, errors.New("index absent")
	})
	machine := lending.NewMachine(store, engine)
	return NewService(intent.NewRouter(), machine, engine, gen, activity), store
}

func alice() domain.User {
	return domain.User{ID: "u1", Name: "Alice", Role: "student", Department: "Science School", PreferredLanguage: "English"}
}

func omar() domain.User {
	return domain.User{ID: "u2", Name: "Omar", Role: "teacher", Department: "Al Bayan School", PreferredLanguage: "Arabic"}
}

func TestBorrowSuccessMessage(t *testing.T) {
	svc, store := newTestService(t, nil, nil)

	reply := svc.Answer(alice(), "I want to borrow a book about AI")
	assert.Equal(t, intent.ActionBorrow, reply.Intent)
	assert.Contains(t, reply.Text, "Artificial Intelligence in Education")
	due := time.Now().AddDate(0, 0, lending.LoanDays).Format(catalog.DateLayout)
	assert.Contains(t, reply.Text, due)

	b, err := store.BookByTitle("Artificial Intelligence in Education")
	require.NoError(t, err)
	assert.True(t, b.Borrowed())
}

func TestBorrowAtLimitUsesPreferredLanguage(t *testing.T) {
	svc, _ := newTestService(t, nil, nil)

	reply := svc.Answer(omar(), "borrow another one")
	assert.Equal(t, intent.ActionBorrow, reply.Intent)
	assert.Equal(t, messagesAR.loanLimit, reply.Text)
}

func TestReturnMessage(t *testing.T) {
	svc, _ := newTestService(t, nil, nil)

	reply := svc.Answer(omar(), "إرجاع الكتاب")
	assert.Equal(t, intent.ActionReturn, reply.Intent)
	assert.Contains(t, reply.Text, "World Atlas")

	// Nothing left to return.
	reply = svc.Answer(omar(), "إرجاع الكتاب")
	assert.Equal(t, messagesAR.nothingToReturn, reply.Text)
}

func TestAvailabilityMessage(t *testing.T) {
	svc, _ := newTestService(t, nil, nil)

	reply := svc.Answer(alice(), "is that book available?")
	assert.Equal(t, intent.ActionAvailability, reply.Intent)
	assert.Contains(t, reply.Text, "Artificial Intelligence in Education")
	assert.Contains(t, reply.Text, "available")
}

func TestRecommendFormatting(t *testing.T) {
	svc, _ := newTestService(t, nil, nil)

	reply := svc.Answer(alice(), "recommend me something")
	assert.Equal(t, intent.ActionRecommend, reply.Intent)
	assert.Equal(t,
		"📚 Suggestions for you: Artificial Intelligence in Education, Innovation in Arabic Language Learning, Programming Basics for Schools",
		reply.Text)
}

func TestRecommendEmpty(t *testing.T) {
	dir := t.TempDir()
	usersPath := filepath.Join(dir, "users_profiles.csv")
	booksPath := filepath.Join(dir, "books.csv")
	require.NoError(t, os.WriteFile(usersPath, []byte(usersFixture), 0o644))
	require.NoError(t, os.WriteFile(booksPath, []byte(booksFixture), 0o644))
	store := catalog.NewStore(usersPath, booksPath)
	engine := retrieval.NewEngine(func() (domain.Index, error) { return emptyIndex{}, nil })
	svc := NewService(intent.NewRouter(), lending.NewMachine(store, engine), engine, nil, nil)

	reply := svc.Answer(alice(), "recommend me something")
	assert.Equal(t, messagesEN.noRecs, reply.Text)
}

func TestOpenQueryWithoutGenerator(t *testing.T) {
	svc, _ := newTestService(t, nil, nil)

	reply := svc.Answer(alice(), "when does the library open?")
	assert.Equal(t, intent.ActionOpenQuery, reply.Intent)
	assert.Equal(t, messagesEN.noGeneratorKey, reply.Text)

	reply = svc.Answer(omar(), "متى تفتح المكتبة؟")
	assert.Equal(t, messagesAR.noGeneratorKey, reply.Text)
}

func TestOpenQueryDelegatesWithContext(t *testing.T) {
	gen := &fakeGenerator{answer: "The library opens at eight."}
	svc, _ := newTestService(t, gen, nil)

	reply := svc.Answer(alice(), "when does the library open?")
	assert.Equal(t, "The library opens at eight.", reply.Text)
	assert.Equal(t, "when does the library open?", gen.question)
	assert.Contains(t, gen.context, "- Artificial Intelligence in Education")
}

func TestOpenQueryGeneratorFailure(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("network down")}
	svc, _ := newTestService(t, gen, nil)

	reply := svc.Answer(alice(), "tell me about the library")
	assert.Equal(t, messagesEN.generatorDown, reply.Text)
}

func TestAnswerAppendsActivityLog(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "logs", "user_activity.csv")
	svc, _ := newTestService(t, nil, activitylog.NewWriter(logPath))

	svc.Answer(alice(), "recommend me something")
	svc.Answer(alice(), "when does the library open?")

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "recommend me something")
	assert.Contains(t, lines[0], "Alice")
}
