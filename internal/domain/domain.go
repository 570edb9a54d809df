package domain

import "time"

// Book status values as stored in the catalog.
const (
	StatusAvailable = "available"
	StatusBorrowing = "borrowing"
)

// Kinds of indexed catalog records.
const (
	KindUser = "user"
	KindBook = "book"
)

// User is a library member profile. A user holds at most one active loan:
// BorrowedBook empty means no loan and both dates unset.
type User struct {
	ID                string
	Name              string
	Role              string
	Department        string
	PreferredLanguage string
	BorrowedBook      string
	BorrowStart       time.Time
	BorrowEnd         time.Time
	BorrowedCount     int
	Active            bool
}

// HasLoan reports whether the user currently holds a borrowed book.
func (u User) HasLoan() bool { return u.BorrowedBook != "" }

// Book is a catalog entry. Title is the lending key and must be unique
// within the catalog. Status borrowing implies BorrowEnd is set and not
// before BorrowStart.
type Book struct {
	Title       string
	Subject     string
	Language    string
	GradeLevel  string
	Description string
	Status      string
	BorrowStart time.Time
	BorrowEnd   time.Time
}

// Borrowed reports whether the book is currently out on loan.
func (b Book) Borrowed() bool { return b.Status == StatusBorrowing }

// SearchResult is one ranked hit from the embedding index.
type SearchResult struct {
	ID    string
	Kind  string
	Title string
	Score float64
}

// Embedder converts free text into a numeric vector representation.
// Implementations may require a preparation phase over the corpus.
type Embedder interface {
	Name() string
	Prepare(corpus []string) error
	Dimension() int
	Embed(text string) ([]float64, error)
}

// Index performs nearest-neighbor search over the embedded catalog.
// Results keep the index's own ranking and score convention; kind narrows
// hits to one record kind, empty matches all.
type Index interface {
	Search(query, kind string, topK int) ([]SearchResult, error)
}

// Generator produces a free-text answer for an open-ended question,
// given the asking user and a short retrieval context.
type Generator interface {
	Generate(user User, question, context string) (string, error)
}
