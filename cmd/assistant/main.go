package main

import (
	"flag"
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"edulibrary/internal/activitylog"
	"edulibrary/internal/assistant"
	"edulibrary/internal/catalog"
	"edulibrary/internal/config"
	"edulibrary/internal/domain"
	"edulibrary/internal/embedding"
	"edulibrary/internal/generator"
	"edulibrary/internal/intent"
	"edulibrary/internal/lending"
	"edulibrary/internal/retrieval"
	"edulibrary/internal/tui"
	"edulibrary/internal/vectorindex"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/edulibrary/config.yaml if not provided)")
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
	engine := retrieval.NewEngine(indexOpener(cfg))
	machine := lending.NewMachine(store, engine)

	var gen domain.Generator
	client, err := generator.NewOpenAIClient(generator.Config{
		BaseURL:     cfg.OpenAI.BaseURL,
		APIKeyEnv:   cfg.OpenAI.APIKeyEnv,
		Model:       cfg.OpenAI.Model,
		MaxTokens:   cfg.OpenAI.MaxTokens,
		Temperature: cfg.OpenAI.Temperature,
		Timeout:     time.Duration(cfg.OpenAI.TimeoutSecs) * time.Second,
	})
	if err != nil {
		log.Printf("generator disabled: %v", err)
	} else {
		gen = client
	}

	activity := activitylog.NewWriter(cfg.Log.ActivityCSV)
	svc := assistant.NewService(intent.NewRouter(), machine, engine, gen, activity)

	users, err := store.Users()
	if err != nil {
		log.Fatalf("failed to load users: %v", err)
	}
	active := make([]domain.User, 0, len(users))
	for _, u := range users {
		if u.Active {
			active = append(active, u)
		}
	}

	m := tui.New(svc, active)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		log.Fatal(err)
	}
}

func indexOpener(cfg *config.AppConfig) func() (domain.Index, error) {
	switch cfg.Index.Type {
	case "file", "":
		return func() (domain.Index, error) {
			return vectorindex.Load(cfg.Index.Path)
		}
	case "qdrant":
		if cfg.Index.Qdrant == nil {
			log.Fatalf("qdrant index config missing")
		}
		return func() (domain.Index, error) {
			emb, err := embedding.NewOpenAIClient(embedding.OpenAIConfig{
				BaseURL:   cfg.OpenAI.BaseURL,
				APIKeyEnv: cfg.OpenAI.APIKeyEnv,
				Model:     cfg.Index.Qdrant.EmbedModel,
				Timeout:   time.Duration(cfg.Index.Qdrant.TimeoutSecs) * time.Second,
			})
			if err != nil {
				return nil, err
			}
			return vectorindex.NewQdrant(vectorindex.QdrantConfig{
				URL:        cfg.Index.Qdrant.URL,
				APIKey:     cfg.Index.Qdrant.APIKey,
				Collection: cfg.Index.Qdrant.Collection,
				Timeout:    time.Duration(cfg.Index.Qdrant.TimeoutSecs) * time.Second,
			}, emb), nil
		}
	default:
		log.Fatalf("unknown index type: %s", cfg.Index.Type)
		return nil
	}
}
