package retrieval

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edulibrary/internal/domain"
)

type fakeIndex struct {
	results []domain.SearchResult
	err     error
	calls   int
}

func (f *fakeIndex) Search(query, kind string, topK int) ([]domain.SearchResult, error) {
	f.calls++
	if f.err != nil {
		err := f.err
		f.err = nil // fail once, then recover
		return nil, err
	}
	if topK > len(f.results) {
		topK = len(f.results)
	}
	return f.results[:topK], nil
}

func TestDegradedModeIsDeterministic(t *testing.T) {
	e := NewEngine(func() (domain.Index, error) {
		return nil, errors.New("index file absent")
	})

	first := e.Recommend("Alice", 3)
	second := e.Recommend("Alice", 3)
	require.Len(t, first, 3)
	assert.Equal(t, first, second)
	assert.Equal(t, "Artificial Intelligence in Education", first[0].Title)
	assert.Equal(t, 0.91, first[0].Score)
}

func TestOpenRetriedAfterFailure(t *testing.T) {
	idx := &fakeIndex{results: []domain.SearchResult{
		{Kind: domain.KindBook, Title: "Intro to Science", Score: 0.42},
	}}
	attempts := 0
	e := NewEngine(func() (domain.Index, error) {
		attempts++
		if attempts == 1 {
			return nil, errors.New("not built yet")
		}
		return idx, nil
	})

	// First call degrades, second call reaches the real index.
	assert.Equal(t, "Artificial Intelligence in Education", e.SearchBooks("science", 1)[0].Title)
	assert.Equal(t, "Intro to Science", e.SearchBooks("science", 1)[0].Title)
	assert.Equal(t, 2, attempts)
}

func TestSearchFailureFallsBackPerCall(t *testing.T) {
	idx := &fakeIndex{
		results: []domain.SearchResult{{Kind: domain.KindBook, Title: "Intro to Science", Score: 0.42}},
		err:     errors.New("corrupt index"),
	}
	e := NewEngine(func() (domain.Index, error) { return idx, nil })

	// The failing call serves the fallback; the next call succeeds again.
	assert.Equal(t, "Artificial Intelligence in Education", e.SearchBooks("science", 1)[0].Title)
	assert.Equal(t, "Intro to Science", e.SearchBooks("science", 1)[0].Title)
	assert.Equal(t, 2, idx.calls)
}

func TestIndexOrderAndScoresPreserved(t *testing.T) {
	// Deliberately not sorted by score: the engine must not re-rank.
	ranked := []domain.SearchResult{
		{Kind: domain.KindBook, Title: "B", Score: 0.2},
		{Kind: domain.KindBook, Title: "A", Score: 0.9},
		{Kind: domain.KindBook, Title: "C", Score: 0.5},
	}
	idx := &fakeIndex{results: ranked}
	e := NewEngine(func() (domain.Index, error) { return idx, nil })

	got := e.Recommend("Omar", 3)
	assert.Equal(t, ranked, got)
}

func TestFallbackTruncation(t *testing.T) {
	e := NewEngine(func() (domain.Index, error) { return nil, errors.New("absent") })

	assert.Len(t, e.Recommend("Alice", 2), 2)
	// k larger than the fallback list returns the whole list.
	assert.Len(t, e.Recommend("Alice", 10), 5)
}
