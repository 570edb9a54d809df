package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"edulibrary/internal/domain"
)

// DateLayout is the serialization format for loan dates in both tables.
const DateLayout = "2006-01-02"

var (
	ErrUserNotFound = errors.New("user not found")
	ErrBookNotFound = errors.New("book not found")
)

var (
	userHeader = []string{"user_id", "name", "role", "department", "preferred_language", "borrowed_books", "borrow_start", "borrow_end", "borrowed_books_count", "active"}
	bookHeader = []string{"title", "subject", "language", "grade_level", "description", "status", "borrow_start", "borrow_end"}
)

// Store owns the two flat tabular resources backing the catalog. Every
// read loads the full table; every mutation rewrites it through a temp
// file and rename, so a single table write is atomic.
//
// Titles are the lending key: Books rejects duplicates at load rather
// than silently picking a first match.
type Store struct {
	usersPath string
	booksPath string
}

func NewStore(usersPath, booksPath string) *Store {
	return &Store{usersPath: usersPath, booksPath: booksPath}
}

// Users loads the full user table.
func (s *Store) Users() ([]domain.User, error) {
	rows, err := readTable(s.usersPath, userHeader)
	if err != nil {
		return nil, err
	}
	users := make([]domain.User, 0, len(rows))
	for i, row := range rows {
		u, err := parseUser(row)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", s.usersPath, i+2, err)
		}
		users = append(users, u)
	}
	return users, nil
}

// Books loads the full book table, rejecting duplicate titles.
func (s *Store) Books() ([]domain.Book, error) {
	rows, err := readTable(s.booksPath, bookHeader)
	if err != nil {
		return nil, err
	}
	books := make([]domain.Book, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for i, row := range rows {
		b, err := parseBook(row)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", s.booksPath, i+2, err)
		}
		key := NormalizeTitle(b.Title)
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("%s: duplicate title %q", s.booksPath, b.Title)
		}
		seen[key] = struct{}{}
		books = append(books, b)
	}
	return books, nil
}

// UserByID returns the user with the given id, or ErrUserNotFound.
func (s *Store) UserByID(id string) (domain.User, error) {
	users, err := s.Users()
	if err != nil {
		return domain.User{}, err
	}
	for _, u := range users {
		if u.ID == id {
			return u, nil
		}
	}
	return domain.User{}, fmt.Errorf("%w: %s", ErrUserNotFound, id)
}

// BookByTitle returns the book with the exact title, or ErrBookNotFound.
func (s *Store) BookByTitle(title string) (domain.Book, error) {
	books, err := s.Books()
	if err != nil {
		return domain.Book{}, err
	}
	for _, b := range books {
		if b.Title == title {
			return b, nil
		}
	}
	return domain.Book{}, fmt.Errorf("%w: %s", ErrBookNotFound, title)
}

// UpdateLoan loads both tables, applies the mutation, and persists books
// then users. The closure mutates the slices in place; nothing is written
// when it returns an error.
func (s *Store) UpdateLoan(fn func(users []domain.User, books []domain.Book) error) error {
	users, err := s.Users()
	if err != nil {
		return err
	}
	books, err := s.Books()
	if err != nil {
		return err
	}
	if err := fn(users, books); err != nil {
		return err
	}
	if err := s.SaveBooks(books); err != nil {
		return err
	}
	return s.SaveUsers(users)
}

// SaveUsers rewrites the full user table.
func (s *Store) SaveUsers(users []domain.User) error {
	rows := make([][]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, formatUser(u))
	}
	return writeTable(s.usersPath, userHeader, rows)
}

// SaveBooks rewrites the full book table.
func (s *Store) SaveBooks(books []domain.Book) error {
	rows := make([][]string, 0, len(books))
	for _, b := range books {
		rows = append(rows, formatBook(b))
	}
	return writeTable(s.booksPath, bookHeader, rows)
}

// NormalizeTitle derives the relaxed lookup key for a title.
func NormalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

func parseUser(row []string) (domain.User, error) {
	start, err := parseDate(row[6])
	if err != nil {
		return domain.User{}, fmt.Errorf("borrow_start: %w", err)
	}
	end, err := parseDate(row[7])
	if err != nil {
		return domain.User{}, fmt.Errorf("borrow_end: %w", err)
	}
	count := 0
	if v := strings.TrimSpace(row[8]); v != "" {
		count, err = strconv.Atoi(v)
		if err != nil {
			return domain.User{}, fmt.Errorf("borrowed_books_count: %w", err)
		}
	}
	u := domain.User{
		ID:                row[0],
		Name:              row[1],
		Role:              row[2],
		Department:        row[3],
		PreferredLanguage: row[4],
		BorrowedBook:      strings.TrimSpace(row[5]),
		BorrowStart:       start,
		BorrowEnd:         end,
		BorrowedCount:     count,
		Active:            parseBool(row[9]),
	}
	if u.HasLoan() == u.BorrowEnd.IsZero() {
		return domain.User{}, fmt.Errorf("user %s: loan slot and dates disagree", u.ID)
	}
	return u, nil
}

func parseBook(row []string) (domain.Book, error) {
	start, err := parseDate(row[6])
	if err != nil {
		return domain.Book{}, fmt.Errorf("borrow_start: %w", err)
	}
	end, err := parseDate(row[7])
	if err != nil {
		return domain.Book{}, fmt.Errorf("borrow_end: %w", err)
	}
	b := domain.Book{
		Title:       row[0],
		Subject:     row[1],
		Language:    row[2],
		GradeLevel:  row[3],
		Description: row[4],
		Status:      row[5],
		BorrowStart: start,
		BorrowEnd:   end,
	}
	if b.Status != domain.StatusAvailable && b.Status != domain.StatusBorrowing {
		return domain.Book{}, fmt.Errorf("book %q: unknown status %q", b.Title, b.Status)
	}
	if b.Borrowed() {
		if b.BorrowEnd.IsZero() || b.BorrowEnd.Before(b.BorrowStart) {
			return domain.Book{}, fmt.Errorf("book %q: borrowing without a valid return date", b.Title)
		}
	} else if !b.BorrowStart.IsZero() || !b.BorrowEnd.IsZero() {
		return domain.Book{}, fmt.Errorf("book %q: available but loan dates set", b.Title)
	}
	return b, nil
}

func formatUser(u domain.User) []string {
	return []string{
		u.ID, u.Name, u.Role, u.Department, u.PreferredLanguage,
		u.BorrowedBook, formatDate(u.BorrowStart), formatDate(u.BorrowEnd),
		strconv.Itoa(u.BorrowedCount), strconv.FormatBool(u.Active),
	}
}

func formatBook(b domain.Book) []string {
	return []string{
		b.Title, b.Subject, b.Language, b.GradeLevel, b.Description,
		b.Status, formatDate(b.BorrowStart), formatDate(b.BorrowEnd),
	}
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(DateLayout, s)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes":
		return true
	}
	return false
}

func readTable(path string, header []string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: missing header row", path)
	}
	if got := records[0]; len(got) != len(header) {
		return nil, fmt.Errorf("%s: expected %d columns, got %d", path, len(header), len(got))
	}
	return records[1:], nil
}

func writeTable(path string, header []string, rows [][]string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close()
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		tmp.Close()
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
