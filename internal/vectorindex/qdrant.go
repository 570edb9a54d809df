package vectorindex

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"edulibrary/internal/domain"
)

// Qdrant is a minimal REST client serving the embedding index from a
// remote Qdrant collection. It assumes cosine distance and creates the
// collection if missing. Queries are embedded through the configured
// embedder before being sent.
type Qdrant struct {
	url        string
	apiKey     string
	collection string
	embedder   domain.Embedder
	dimension  int
	client     *http.Client
}

type QdrantConfig struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

func NewQdrant(cfg QdrantConfig, embedder domain.Embedder) *Qdrant {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Qdrant{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		embedder:   embedder,
		client:     &http.Client{Timeout: timeout},
	}
}

// Init creates the collection with the given vector size if it does not
// already exist.
func (q *Qdrant) Init(dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	q.dimension = dimension
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	return q.putJSON(fmt.Sprintf("%s/collections/%s", q.url, q.collection), body)
}

// Upsert pushes index entries and their vectors into the collection.
func (q *Qdrant) Upsert(entries []Entry) error {
	points := make([]map[string]any, len(entries))
	for i, e := range entries {
		points[i] = map[string]any{
			"id":     e.ID,
			"vector": e.Vector,
			"payload": map[string]any{
				"kind":  e.Kind,
				"title": e.Title,
				"text":  e.Text,
			},
		}
	}
	body := map[string]any{"points": points}
	return q.putJSON(fmt.Sprintf("%s/collections/%s/points?wait=true", q.url, q.collection), body)
}

func (q *Qdrant) Search(query, kind string, topK int) ([]domain.SearchResult, error) {
	if topK <= 0 {
		topK = 5
	}
	vec, err := q.embedder.Embed(query)
	if err != nil {
		return nil, err
	}
	req := map[string]any{
		"vector":       vec,
		"limit":        topK,
		"with_payload": true,
	}
	if kind != "" {
		req["filter"] = map[string]any{
			"must": []map[string]any{
				{"key": "kind", "match": map[string]any{"value": kind}},
			},
		}
	}
	var resp struct {
		Result []struct {
			ID      any            `json:"id"`
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := q.postJSON(fmt.Sprintf("%s/collections/%s/points/search", q.url, q.collection), req, &resp); err != nil {
		return nil, err
	}
	results := make([]domain.SearchResult, 0, len(resp.Result))
	for _, r := range resp.Result {
		sr := domain.SearchResult{Score: r.Score}
		sr.ID = fmt.Sprint(r.ID)
		if v, ok := r.Payload["kind"].(string); ok {
			sr.Kind = v
		}
		if v, ok := r.Payload["title"].(string); ok {
			sr.Title = v
		}
		results = append(results, sr)
	}
	return results, nil
}

func (q *Qdrant) putJSON(url string, body any) error {
	data, _ := json.Marshal(body)
	req, _ := http.NewRequest(http.MethodPut, url, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	if q.apiKey != "" {
		req.Header.Set("api-key", q.apiKey)
	}
	resp, err := q.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant PUT %s failed: %s", url, resp.Status)
	}
	return nil
}

func (q *Qdrant) postJSON(url string, body any, out any) error {
	data, _ := json.Marshal(body)
	req, _ := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	if q.apiKey != "" {
		req.Header.Set("api-key", q.apiKey)
	}
	resp, err := q.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant POST %s failed: %s", url, resp.Status)
	}
	if out != nil {
		dec := json.NewDecoder(resp.Body)
		return dec.Decode(out)
	}
	return nil
}
