package vectorindex

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"edulibrary/internal/domain"
	"edulibrary/internal/embedding"
)

// Entry is one indexed catalog record: the text chunk it was embedded from
// plus its vector.
type Entry struct {
	ID     string    `json:"id"`
	Kind   string    `json:"kind"`
	Title  string    `json:"title"`
	Text   string    `json:"text"`
	Vector []float64 `json:"vector"`
}

// artifact is the on-disk index format: the fitted embedder state travels
// with the vectors so queries are embedded in the same space.
type artifact struct {
	Embedder embedding.State `json:"embedder"`
	Entries  []Entry         `json:"entries"`
}

// File is a read-only embedding index loaded from a local artifact.
// Search ranks by cosine similarity, highest first; vectors are assumed
// L2-normalized so the dot product suffices.
type File struct {
	embedder *embedding.TFIDFEmbedder
	entries  []Entry
}

// Load reads an index artifact built by the offline indexer.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read index %s: %w", path, err)
	}
	var a artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode index %s: %w", path, err)
	}
	if len(a.Entries) == 0 {
		return nil, fmt.Errorf("index %s has no entries", path)
	}
	emb, err := embedding.NewFromState(a.Embedder)
	if err != nil {
		return nil, fmt.Errorf("restore embedder from %s: %w", path, err)
	}
	dim := emb.Dimension()
	for i, e := range a.Entries {
		if len(e.Vector) != dim {
			return nil, fmt.Errorf("index %s: entry %d vector dimension %d, want %d", path, i, len(e.Vector), dim)
		}
	}
	return &File{embedder: emb, entries: a.Entries}, nil
}

// Save writes an index artifact for the given fitted embedder and entries.
func Save(path string, emb *embedding.TFIDFEmbedder, entries []Entry) error {
	if len(entries) == 0 {
		return errors.New("refusing to save empty index")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(artifact{Embedder: emb.State(), Entries: entries})
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (f *File) Search(query, kind string, topK int) ([]domain.SearchResult, error) {
	if topK <= 0 {
		topK = 5
	}
	vec, err := f.embedder.Embed(query)
	if err != nil {
		return nil, err
	}
	idxs := make([]int, 0, len(f.entries))
	scores := make([]float64, len(f.entries))
	for i, e := range f.entries {
		if kind != "" && e.Kind != kind {
			continue
		}
		scores[i] = dot(e.Vector, vec)
		idxs = append(idxs, i)
	}
	sort.SliceStable(idxs, func(a, b int) bool { return scores[idxs[a]] > scores[idxs[b]] })
	if topK > len(idxs) {
		topK = len(idxs)
	}
	results := make([]domain.SearchResult, 0, topK)
	for _, j := range idxs[:topK] {
		e := f.entries[j]
		results = append(results, domain.SearchResult{ID: e.ID, Kind: e.Kind, Title: e.Title, Score: scores[j]})
	}
	return results, nil
}

func dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
