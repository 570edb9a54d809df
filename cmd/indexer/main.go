package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"

	"edulibrary/internal/catalog"
	"edulibrary/internal/config"
	"edulibrary/internal/domain"
	"edulibrary/internal/embedding"
	"edulibrary/internal/vectorindex"
)

// The indexer is the offline pipeline: it composes one text chunk per
// catalog record, embeds the corpus, and publishes the embedding index the
// assistant loads read-only. Run it whenever the catalog changes.
func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional)")
	flag.Parse()

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	store := catalog.NewStore(cfg.Data.UsersCSV, cfg.Data.BooksCSV)
	users, err := store.Users()
	if err != nil {
		log.Fatalf("failed to load users: %v", err)
	}
	books, err := store.Books()
	if err != nil {
		log.Fatalf("failed to load books: %v", err)
	}

	entries := composeEntries(users, books)
	if len(entries) == 0 {
		log.Fatalf("nothing to index: catalog is empty")
	}
	corpus := make([]string, len(entries))
	for i, e := range entries {
		corpus[i] = e.Text
	}

	switch cfg.Index.Type {
	case "file", "":
		emb := embedding.NewTFIDFEmbedder()
		if err := emb.Prepare(corpus); err != nil {
			log.Fatalf("embedder prepare failed: %v", err)
		}
		if err := embedAll(emb, entries); err != nil {
			log.Fatalf("embedding failed: %v", err)
		}
		if err := vectorindex.Save(cfg.Index.Path, emb, entries); err != nil {
			log.Fatalf("failed to save index: %v", err)
		}
		log.Printf("wrote %d entries (%d users, %d books) to %s", len(entries), len(users), len(books), cfg.Index.Path)
	case "qdrant":
		if cfg.Index.Qdrant == nil {
			log.Fatalf("qdrant index config missing")
		}
		emb, err := embedding.NewOpenAIClient(embedding.OpenAIConfig{
			BaseURL:   cfg.OpenAI.BaseURL,
			APIKeyEnv: cfg.OpenAI.APIKeyEnv,
			Model:     cfg.Index.Qdrant.EmbedModel,
			Timeout:   time.Duration(cfg.Index.Qdrant.TimeoutSecs) * time.Second,
		})
		if err != nil {
			log.Fatalf("openai embedder init failed: %v", err)
		}
		if err := embedAll(emb, entries); err != nil {
			log.Fatalf("embedding failed: %v", err)
		}
		q := vectorindex.NewQdrant(vectorindex.QdrantConfig{
			URL:        cfg.Index.Qdrant.URL,
			APIKey:     cfg.Index.Qdrant.APIKey,
			Collection: cfg.Index.Qdrant.Collection,
			Timeout:    time.Duration(cfg.Index.Qdrant.TimeoutSecs) * time.Second,
		}, emb)
		if err := q.Init(emb.Dimension()); err != nil {
			log.Fatalf("qdrant init failed: %v", err)
		}
		if err := q.Upsert(entries); err != nil {
			log.Fatalf("qdrant upsert failed: %v", err)
		}
		log.Printf("pushed %d entries to qdrant collection %s", len(entries), cfg.Index.Qdrant.Collection)
	default:
		log.Fatalf("unknown index type: %s", cfg.Index.Type)
	}
}

func composeEntries(users []domain.User, books []domain.Book) []vectorindex.Entry {
	entries := make([]vectorindex.Entry, 0, len(users)+len(books))
	for _, u := range users {
		text := fmt.Sprintf("User profile | name: %s | role: %s | department: %s | preferred_language: %s",
			u.Name, u.Role, u.Department, u.PreferredLanguage)
		entries = append(entries, vectorindex.Entry{ID: u.ID, Kind: domain.KindUser, Title: u.Name, Text: text})
	}
	for _, b := range books {
		text := fmt.Sprintf("Book | title: %s | subject: %s | language: %s | grade_level: %s | description: %s",
			b.Title, b.Subject, b.Language, b.GradeLevel, b.Description)
		entries = append(entries, vectorindex.Entry{ID: b.Title, Kind: domain.KindBook, Title: b.Title, Text: text})
	}
	return entries
}

func embedAll(emb domain.Embedder, entries []vectorindex.Entry) error {
	for i := range entries {
		vec, err := emb.Embed(entries[i].Text)
		if err != nil {
			return fmt.Errorf("embed entry %s: %w", entries[i].ID, err)
		}
		entries[i].Vector = vec
	}
	return nil
}
