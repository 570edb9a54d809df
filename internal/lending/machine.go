package lending

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"edulibrary/internal/catalog"
	"edulibrary/internal/domain"
)

// Fixed business rules. Named so the policy is trivially adjustable, but
// they are not configurable per call.
const (
	LoanDays       = 7
	MaxActiveLoans = 1
)

var (
	// ErrNoMatch: the retrieval engine produced no candidate for the
	// free-text book reference.
	ErrNoMatch = errors.New("no book matched the request")
	// ErrUnknownBook: the resolved title is absent from the catalog. The
	// embedding index and the catalog are rebuilt independently and may
	// disagree.
	ErrUnknownBook     = errors.New("book not in catalog")
	ErrNothingToReturn = errors.New("no borrowed book to return")
	ErrLoanLimit       = errors.New("loan limit reached")
)

// AlreadyBorrowedError reports a borrow attempt against a book that is
// already out, carrying its expected return date.
type AlreadyBorrowedError struct {
	Title string
	Until time.Time
}

func (e *AlreadyBorrowedError) Error() string {
	return fmt.Sprintf("book %q already borrowed until %s", e.Title, e.Until.Format(catalog.DateLayout))
}

// Retriever resolves a free-text book reference to ranked catalog titles.
type Retriever interface {
	SearchBooks(query string, k int) []domain.SearchResult
}

// Receipt is the outcome of a successful borrow.
type Receipt struct {
	Title string
	Until time.Time
}

// Availability is the outcome of an availability check.
type Availability struct {
	Title    string
	Borrowed bool
	Until    time.Time
}

// Machine executes the lending transitions against the catalog store. All
// guards run before any write and each transition updates the book/user
// pair as one logical transaction; the mutex serializes transitions so two
// concurrent borrows of the same book cannot both succeed.
type Machine struct {
	store     *catalog.Store
	retriever Retriever
	now       func() time.Time

	mu sync.Mutex
}

func NewMachine(store *catalog.Store, retriever Retriever) *Machine {
	return &Machine{store: store, retriever: retriever, now: time.Now}
}

// Borrow resolves the free-text reference to a catalog title and lends it
// to the user for LoanDays.
func (m *Machine) Borrow(userID, reference string) (Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	results := m.retriever.SearchBooks(reference, 1)
	if len(results) == 0 {
		return Receipt{}, ErrNoMatch
	}
	title := results[0].Title

	today := m.today()
	due := today.AddDate(0, 0, LoanDays)

	var receipt Receipt
	err := m.store.UpdateLoan(func(users []domain.User, books []domain.Book) error {
		uidx, err := userIndex(users, userID)
		if err != nil {
			return err
		}
		bidx := bookIndex(books, title)
		if bidx < 0 {
			return fmt.Errorf("%w: %s", ErrUnknownBook, title)
		}
		if books[bidx].Borrowed() {
			return &AlreadyBorrowedError{Title: title, Until: books[bidx].BorrowEnd}
		}
		if users[uidx].HasLoan() || users[uidx].BorrowedCount >= MaxActiveLoans {
			return ErrLoanLimit
		}
		books[bidx].Status = domain.StatusBorrowing
		books[bidx].BorrowStart = today
		books[bidx].BorrowEnd = due
		users[uidx].BorrowedBook = title
		users[uidx].BorrowStart = today
		users[uidx].BorrowEnd = due
		users[uidx].BorrowedCount = 1
		receipt = Receipt{Title: title, Until: due}
		return nil
	})
	return receipt, err
}

// Return gives back the user's current loan and returns the title.
func (m *Machine) Return(userID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var title string
	err := m.store.UpdateLoan(func(users []domain.User, books []domain.Book) error {
		uidx, err := userIndex(users, userID)
		if err != nil {
			return err
		}
		if !users[uidx].HasLoan() {
			return ErrNothingToReturn
		}
		title = users[uidx].BorrowedBook
		// The catalog may have been edited externally since the loan.
		bidx := bookIndex(books, title)
		if bidx < 0 {
			return fmt.Errorf("%w: %s", ErrUnknownBook, title)
		}
		books[bidx].Status = domain.StatusAvailable
		books[bidx].BorrowStart = time.Time{}
		books[bidx].BorrowEnd = time.Time{}
		users[uidx].BorrowedBook = ""
		users[uidx].BorrowStart = time.Time{}
		users[uidx].BorrowEnd = time.Time{}
		users[uidx].BorrowedCount = 0
		return nil
	})
	return title, err
}

// CheckAvailability resolves the reference and reports the book's lending
// status. When the exact resolved title is missing from the catalog, a
// relaxed normalized prefix/substring match is attempted before giving up:
// the index and the catalog are not guaranteed to agree on exact titles.
func (m *Machine) CheckAvailability(reference string) (Availability, error) {
	results := m.retriever.SearchBooks(reference, 1)
	if len(results) == 0 {
		return Availability{}, ErrNoMatch
	}
	title := results[0].Title

	books, err := m.store.Books()
	if err != nil {
		return Availability{}, err
	}
	bidx := bookIndex(books, title)
	if bidx < 0 {
		bidx = relaxedBookIndex(books, title)
	}
	if bidx < 0 {
		return Availability{}, fmt.Errorf("%w: %s", ErrUnknownBook, title)
	}
	b := books[bidx]
	return Availability{Title: b.Title, Borrowed: b.Borrowed(), Until: b.BorrowEnd}, nil
}

func (m *Machine) today() time.Time {
	y, mo, d := m.now().Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}

func userIndex(users []domain.User, id string) (int, error) {
	for i := range users {
		if users[i].ID == id {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %s", catalog.ErrUserNotFound, id)
}

func bookIndex(books []domain.Book, title string) int {
	for i := range books {
		if books[i].Title == title {
			return i
		}
	}
	return -1
}

func relaxedBookIndex(books []domain.Book, title string) int {
	key := catalog.NormalizeTitle(title)
	if key == "" {
		return -1
	}
	for i := range books {
		bk := catalog.NormalizeTitle(books[i].Title)
		if strings.HasPrefix(bk, key) || strings.HasPrefix(key, bk) ||
			strings.Contains(bk, key) || strings.Contains(key, bk) {
			return i
		}
	}
	return -1
}
