package retrieval

import (
	"log"
	"sync"

	"edulibrary/internal/domain"
)

// fallbackBooks is the fixed ranked list served when the embedding index is
// absent or failing. It must stay deterministic: downstream lending
// operations resolve book references through it in demos and tests.
var fallbackBooks = []domain.SearchResult{
	{Kind: domain.KindBook, Title: "Artificial Intelligence in Education", Score: 0.91},
	{Kind: domain.KindBook, Title: "Innovation in Arabic Language Learning", Score: 0.87},
	{Kind: domain.KindBook, Title: "Programming Basics for Schools", Score: 0.85},
	{Kind: domain.KindBook, Title: "Critical Thinking Skills", Score: 0.82},
	{Kind: domain.KindBook, Title: "Digital Learning in Qatar", Score: 0.80},
}

// Engine serves semantic book search and recommendations over an embedding
// index, degrading to the static fallback list whenever the index cannot be
// opened or queried. Neither operation ever returns an error.
type Engine struct {
	open func() (domain.Index, error)

	mu    sync.Mutex
	index domain.Index
}

// NewEngine builds an engine around an index opener. The opener runs
// lazily on first use; only a successful open is memoized, so a missing or
// broken index is retried on the next call.
func NewEngine(open func() (domain.Index, error)) *Engine {
	return &Engine{open: open}
}

// Recommend returns up to k book suggestions for the subject, using the
// subject's identity as the retrieval query.
func (e *Engine) Recommend(subject string, k int) []domain.SearchResult {
	return e.query(subject, k)
}

// SearchBooks returns up to k books matching a free-text query.
func (e *Engine) SearchBooks(query string, k int) []domain.SearchResult {
	return e.query(query, k)
}

func (e *Engine) query(text string, k int) []domain.SearchResult {
	if k <= 0 {
		k = 5
	}
	idx := e.currentIndex()
	if idx == nil {
		return fallback(k)
	}
	results, err := idx.Search(text, domain.KindBook, k)
	if err != nil {
		log.Printf("retrieval: index search failed, serving fallback: %v", err)
		return fallback(k)
	}
	// Keep the index's own ranking and score convention verbatim.
	return results
}

func (e *Engine) currentIndex() domain.Index {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.index != nil {
		return e.index
	}
	idx, err := e.open()
	if err != nil {
		log.Printf("retrieval: embedding index unavailable, degraded mode: %v", err)
		return nil
	}
	e.index = idx
	return idx
}

func fallback(k int) []domain.SearchResult {
	if k > len(fallbackBooks) {
		k = len(fallbackBooks)
	}
	out := make([]domain.SearchResult, k)
	copy(out, fallbackBooks[:k])
	return out
}
