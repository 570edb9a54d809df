package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DataConfig locates the flat tabular catalog resources.
type DataConfig struct {
	UsersCSV string `yaml:"users_csv"`
	BooksCSV string `yaml:"books_csv"`
}

// QdrantConfig contains connection details for a remote Qdrant index.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	Collection  string `yaml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	EmbedModel  string `yaml:"embed_model"`
}

// IndexConfig selects where the embedding index is served from.
type IndexConfig struct {
	Type   string        `yaml:"type"` // file or qdrant
	Path   string        `yaml:"path"`
	Qdrant *QdrantConfig `yaml:"qdrant,omitempty"`
}

// OpenAIConfig configures the chat-completion generator (and the remote
// embedder when the qdrant index is used).
type OpenAIConfig struct {
	BaseURL     string  `yaml:"base_url"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	Model       string  `yaml:"model"`
	TimeoutSecs int     `yaml:"timeout_secs"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

// LogConfig locates the append-only activity log.
type LogConfig struct {
	ActivityCSV string `yaml:"activity_csv"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Data   DataConfig   `yaml:"data"`
	Index  IndexConfig  `yaml:"index"`
	OpenAI OpenAIConfig `yaml:"openai"`
	Log    LogConfig    `yaml:"log"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			return cfg, nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/edulibrary/config.yaml.
// If neither exists, it writes defaults to the user path and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "edulibrary", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	return &AppConfig{
		Data: DataConfig{
			UsersCSV: "data/users_profiles.csv",
			BooksCSV: "data/books.csv",
		},
		Index: IndexConfig{
			Type: "file",
			Path: "vectors/index.json",
		},
		OpenAI: OpenAIConfig{
			APIKeyEnv: "OPENAI_KEY",
		},
		Log: LogConfig{
			ActivityCSV: "logs/user_activity.csv",
		},
	}
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Data.UsersCSV == "" {
		cfg.Data.UsersCSV = "data/users_profiles.csv"
	}
	if cfg.Data.BooksCSV == "" {
		cfg.Data.BooksCSV = "data/books.csv"
	}
	if cfg.Index.Type == "" {
		cfg.Index.Type = "file"
	}
	if cfg.Index.Path == "" {
		cfg.Index.Path = "vectors/index.json"
	}
	if cfg.OpenAI.APIKeyEnv == "" {
		cfg.OpenAI.APIKeyEnv = "OPENAI_KEY"
	}
	if cfg.OpenAI.BaseURL == "" {
		cfg.OpenAI.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.OpenAI.Model == "" {
		cfg.OpenAI.Model = "gpt-4o-mini"
	}
	if cfg.OpenAI.TimeoutSecs == 0 {
		cfg.OpenAI.TimeoutSecs = 30
	}
	if cfg.OpenAI.MaxTokens == 0 {
		cfg.OpenAI.MaxTokens = 300
	}
	if cfg.OpenAI.Temperature == 0 {
		cfg.OpenAI.Temperature = 0.3
	}
	if cfg.Log.ActivityCSV == "" {
		cfg.Log.ActivityCSV = "logs/user_activity.csv"
	}
	if cfg.Index.Type == "qdrant" && cfg.Index.Qdrant != nil {
		if cfg.Index.Qdrant.TimeoutSecs == 0 {
			cfg.Index.Qdrant.TimeoutSecs = 15
		}
		if cfg.Index.Qdrant.Collection == "" {
			cfg.Index.Qdrant.Collection = "edulibrary"
		}
		if cfg.Index.Qdrant.EmbedModel == "" {
			cfg.Index.Qdrant.EmbedModel = "text-embedding-3-small"
		}
	}
}
