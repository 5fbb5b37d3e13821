package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds every tunable of the indexing and grading pipelines.
type Config struct {
	EmbedLLM LLMConfig      `yaml:"embed_llm"`
	GradeLLM GenerateConfig `yaml:"grade_llm"`
	RAG      RAGConfig      `yaml:"rag"`
}

// LLMConfig points at the embedding endpoint.
type LLMConfig struct {
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// GenerateConfig points at the text-generation endpoint driving the
// grading agents.
type GenerateConfig struct {
	URL         string  `yaml:"url"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	TopP        float64 `yaml:"top_p"`
	MaxTokens   int     `yaml:"max_tokens"`
	TimeoutSecs int     `yaml:"timeout_secs"`
}

// RAGConfig carries chunking and retrieval parameters.
type RAGConfig struct {
	ChunkSize      int     `yaml:"chunk_size"`
	ChunkOverlap   int     `yaml:"chunk_overlap"`
	TopK           int     `yaml:"top_k"`
	FetchK         int     `yaml:"fetch_k"`
	ScoreThreshold float32 `yaml:"score_threshold"`
	EncryptionKey  string  `yaml:"encryption_key"`
}

// Default returns the built-in configuration used when no file is given.
func Default() *Config {
	return &Config{
		EmbedLLM: LLMConfig{
			BaseURL: "http://localhost:11434",
			Model:   "nomic-embed-text",
		},
		GradeLLM: GenerateConfig{
			URL:         "http://localhost:11434/api/generate",
			Model:       "llama3.1:8b",
			Temperature: 0.3,
			TopP:        0.7,
			MaxTokens:   300,
			TimeoutSecs: 60,
		},
		RAG: RAGConfig{
			ChunkSize:      800,
			ChunkOverlap:   200,
			TopK:           5,
			FetchK:         10,
			ScoreThreshold: 0.7,
		},
	}
}

// Load reads the yaml config at path (missing file falls back to
// defaults), loads an optional .env file, and applies environment
// overrides. Environment wins over file values.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %v", path, err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("failed to read config %s: %v", path, err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load env file %s: %v", envFile, err)
		}
	}
	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.EmbedLLM.BaseURL = getEnv("ESSAYBOT_EMBED_URL", cfg.EmbedLLM.BaseURL)
	cfg.EmbedLLM.Model = getEnv("ESSAYBOT_EMBED_MODEL", cfg.EmbedLLM.Model)
	cfg.GradeLLM.URL = getEnv("ESSAYBOT_GENERATE_URL", cfg.GradeLLM.URL)
	cfg.GradeLLM.Model = getEnv("ESSAYBOT_GENERATE_MODEL", cfg.GradeLLM.Model)
	cfg.GradeLLM.Temperature = getEnvAsFloat("ESSAYBOT_TEMPERATURE", cfg.GradeLLM.Temperature)
	cfg.GradeLLM.TopP = getEnvAsFloat("ESSAYBOT_TOP_P", cfg.GradeLLM.TopP)
	cfg.GradeLLM.MaxTokens = getEnvAsInt("ESSAYBOT_MAX_TOKENS", cfg.GradeLLM.MaxTokens)
	cfg.GradeLLM.TimeoutSecs = getEnvAsInt("ESSAYBOT_TIMEOUT_SECS", cfg.GradeLLM.TimeoutSecs)
	cfg.RAG.EncryptionKey = getEnv("ESSAYBOT_INDEX_KEY", cfg.RAG.EncryptionKey)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}
