package main

import (
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
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
	"edulibrary/internal/vectorindex"
)

var (
	store *catalog.Store
	svc   *assistant.Service
)

func main() {
	log.Println("Starting library assistant service...")
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

	store = catalog.NewStore(cfg.Data.UsersCSV, cfg.Data.BooksCSV)
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

	svc = assistant.NewService(intent.NewRouter(), machine, engine, gen, activitylog.NewWriter(cfg.Log.ActivityCSV))

	server := gin.Default()
	server.GET("/api/v1/users", getUsers)
	server.POST("/api/v1/chat", postChat)
	server.GET("/manage/health", healthCheck)

	addr := getEnv("LISTEN_ADDR", ":8070")
	log.Printf("Library assistant service starting on %s", addr)
	if err := server.Run(addr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func getUsers(c *gin.Context) {
	users, err := store.Users()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	items := make([]gin.H, 0, len(users))
	for _, u := range users {
		if !u.Active {
			continue
		}
		items = append(items, gin.H{
			"userId":            u.ID,
			"name":              u.Name,
			"role":              u.Role,
			"department":        u.Department,
			"preferredLanguage": u.PreferredLanguage,
		})
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func postChat(c *gin.Context) {
	var req struct {
		UserID   string `json:"userId"`
		Question string `json:"question"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.UserID == "" || req.Question == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId and question are required"})
		return
	}
	user, err := store.UserByID(req.UserID)
	if err != nil {
		if errors.Is(err, catalog.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	reply := svc.Answer(user, req.Question)
	c.JSON(http.StatusOK, gin.H{
		"interactionId": uuid.New().String(),
		"intent":        string(reply.Intent),
		"answer":        reply.Text,
	})
}

func healthCheck(c *gin.Context) {
	if _, err := store.Users(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "DOWN",
			"details": "Catalog store unavailable",
			"error":   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "UP"})
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

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
