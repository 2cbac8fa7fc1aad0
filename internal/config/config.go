package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// ErrMissingAPIKey возвращается, если провайдер требует ключ, а его нет в окружении
var ErrMissingAPIKey = errors.New("OpenAI API key is not set. Please set the OPENAI_API_KEY environment variable")

type Config struct {
	DataDir       string `env:"DATA_DIR" envDefault:"data"`
	DataRecursive bool   `env:"DATA_RECURSIVE" envDefault:"false"`
	ListenAddr    string `env:"LISTEN_ADDR" envDefault:":8000"`

	Provider   string `env:"PROVIDER" envDefault:"openai"`
	OpenAIKey  string `env:"OPENAI_API_KEY"`
	OpenAIURL  string `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	OllamaURL  string `env:"OLLAMA_URL" envDefault:"http://localhost:11434"`
	ChatModel  string `env:"CHAT_MODEL" envDefault:"gpt-4o-mini"`
	EmbedModel string `env:"EMBED_MODEL" envDefault:"text-embedding-3-small"`

	ChunkMethod   string `env:"CHUNK_METHOD" envDefault:"recursive"`
	ChunkSize     int    `env:"CHUNK_SIZE" envDefault:"1000"`
	ChunkOverlap  int    `env:"CHUNK_OVERLAP" envDefault:"100"`
	MinChunkChars int    `env:"MIN_CHUNK_CHARS" envDefault:"50"`

	TopK            int     `env:"TOP_K" envDefault:"4"`
	Temperature     float64 `env:"TEMPERATURE" envDefault:"0.7"`
	MaxTokens       int     `env:"MAX_TOKENS" envDefault:"512"`
	MaxContextChars int     `env:"MAX_CONTEXT_CHARS" envDefault:"0"`

	LoadConcurrency  int           `env:"LOAD_CONCURRENCY" envDefault:"4"`
	EmbedConcurrency int           `env:"EMBED_CONCURRENCY" envDefault:"4"`
	EmbedRateLimit   float64       `env:"EMBED_RATE_LIMIT" envDefault:"0"`
	EmbedTimeout     time.Duration `env:"EMBED_TIMEOUT" envDefault:"30s"`
	GenerateTimeout  time.Duration `env:"GENERATE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout  time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	PromptsFile string `env:"PROMPTS_FILE"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"text"`
}

func Init(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return err
	}
	return cfg.Validate()
}

// Validate проверяет диапазоны и наличие учётных данных провайдера
func (c *Config) Validate() error {
	switch strings.ToLower(c.Provider) {
	case ProviderOpenAI:
		if strings.TrimSpace(c.OpenAIKey) == "" {
			return ErrMissingAPIKey
		}
	case ProviderOllama:
	default:
		return fmt.Errorf("unknown provider %q (expected %q or %q)", c.Provider, ProviderOpenAI, ProviderOllama)
	}

	if c.ChunkSize <= 0 {
		return fmt.Errorf("CHUNK_SIZE must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("CHUNK_OVERLAP must be in [0, %d), got %d", c.ChunkSize, c.ChunkOverlap)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("TOP_K must be positive, got %d", c.TopK)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("TEMPERATURE must be in [0, 2], got %v", c.Temperature)
	}
	if c.LoadConcurrency <= 0 {
		c.LoadConcurrency = 1
	}
	if c.EmbedConcurrency <= 0 {
		c.EmbedConcurrency = 1
	}
	return nil
}
