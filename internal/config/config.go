package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default configuration file location.
const ConfigPath = "config.yaml"

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	AppName     string `yaml:"appName"`
	Environment string `yaml:"environment"`
	Port        string `yaml:"port"`
	LogLevel    string `yaml:"logLevel"`

	DatabaseURL   string `yaml:"databaseURL"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`

	JWTSecret         string `yaml:"jwtSecret"`
	SessionTTLMinutes int    `yaml:"sessionTTLMinutes"`

	DocsDir        string   `yaml:"docsDir"`
	WikipediaPages []string `yaml:"wikipediaPages"`
	WikipediaURL   string   `yaml:"wikipediaURL"`

	ChunkSize    int `yaml:"chunkSize"`
	ChunkOverlap int `yaml:"chunkOverlap"`
	TopK         int `yaml:"topK"`

	Provider        string `yaml:"provider"`
	GenerationModel string `yaml:"generationModel"`
	EmbeddingModel  string `yaml:"embeddingModel"`
	GeminiAPIKey    string `yaml:"geminiAPIKey"`
	OpenAIAPIKey    string `yaml:"openaiAPIKey"`
	OpenAIBaseURL   string `yaml:"openaiBaseURL"`
	OllamaBaseURL   string `yaml:"ollamaBaseURL"`

	EmbeddingDim         int `yaml:"embeddingDim"`
	EmbeddingBatchSize   int `yaml:"embeddingBatchSize"`
	EmbeddingConcurrency int `yaml:"embeddingConcurrency"`

	RegisterRateLimitPerMinute int `yaml:"registerRateLimitPerMinute"`
	LoginRateLimitPerMinute    int `yaml:"loginRateLimitPerMinute"`
}

// Load reads config from path (defaults to config.yaml).
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	// Override with environment variables
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.GeminiAPIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.OpenAIAPIKey = v
	}

	applyDefaults(&cfg)
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyDefaults(cfg *FileConfig) {
	if cfg.AppName == "" {
		cfg.AppName = "coachrag"
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.SessionTTLMinutes <= 0 {
		cfg.SessionTTLMinutes = 30
	}
	if cfg.DocsDir == "" {
		cfg.DocsDir = "./docs"
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 1000
	}
	if cfg.ChunkOverlap <= 0 {
		// A fifth of the chunk size keeps boundary context without
		// inflating the index.
		cfg.ChunkOverlap = cfg.ChunkSize / 5
	}
	if cfg.TopK <= 0 {
		cfg.TopK = 3
	}
	if cfg.Provider == "" {
		cfg.Provider = "gemini"
	}
}

func validateConfig(cfg FileConfig) error {
	if cfg.Port == "" {
		return errors.New("config: port is required (set in config.yaml)")
	}
	if cfg.DatabaseURL == "" {
		return errors.New("config: databaseURL is required (set in config.yaml or DATABASE_URL)")
	}
	if cfg.JWTSecret == "" {
		return errors.New("config: jwtSecret is required (set in config.yaml or JWT_SECRET)")
	}
	if cfg.GenerationModel == "" {
		return errors.New("config: generationModel is required (set in config.yaml)")
	}
	if cfg.EmbeddingModel == "" {
		return errors.New("config: embeddingModel is required (set in config.yaml)")
	}
	if cfg.ChunkOverlap >= cfg.ChunkSize {
		return fmt.Errorf("config: chunkOverlap (%d) must be smaller than chunkSize (%d)", cfg.ChunkOverlap, cfg.ChunkSize)
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return errors.New("config: geminiAPIKey is required for the gemini provider (set in config.yaml or GEMINI_API_KEY)")
		}
	case "openai":
		if cfg.OpenAIBaseURL == "" {
			return errors.New("config: openaiBaseURL is required for the openai provider")
		}
	case "ollama":
		// Base URL defaults to the local daemon.
	default:
		return fmt.Errorf("config: unknown provider %q (want gemini, openai or ollama)", cfg.Provider)
	}
	return nil
}
