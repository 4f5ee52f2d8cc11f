package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Storage  StorageConfig
	Rag      RagConfig
	Ai       AIConfig
	Cache    CacheConfig
	Jwt      JwtConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type StorageConfig struct {
	// Root is the directory uploaded documents are stored under.
	Root string
}

type RagConfig struct {
	// BackendURL is the base URL of the retrieve/generate backend.
	BackendURL string
	// GeminiAPIKey enables the web-search fallback when set.
	GeminiAPIKey   string
	WebSearchModel string
}

type AIConfig struct {
	// RetrieverProvider selects "http" (default) or "local" pgvector retrieval.
	RetrieverProvider string
	// EmbeddingProvider selects "gemini" or "ollama" for the local retriever.
	EmbeddingProvider string
	OllamaBaseURL     string
	OllamaModel       string
	TopK              int
	ScoreThreshold    float64
	SmallTalkKeywords []string
	ChunkSize         int
	ChunkOverlap      int
}

type CacheConfig struct {
	AnswerTTL      time.Duration
	AnswerCapacity int
}

type JwtConfig struct {
	Secret string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "8080"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:8080"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log.csv"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Storage: StorageConfig{
			Root: getEnv("STORAGE_ROOT", "./uploads"),
		},
		Rag: RagConfig{
			BackendURL:     getEnv("RAG_BACKEND_URL", ""),
			GeminiAPIKey:   getEnv("GOOGLE_GEMINI_API_KEY", ""),
			WebSearchModel: getEnv("WEB_SEARCH_MODEL", "gemini-2.0-flash"),
		},
		Ai: AIConfig{
			RetrieverProvider: getEnv("RETRIEVER_PROVIDER", "http"),
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "gemini"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:       getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			TopK:              getEnvAsInt("RETRIEVAL_TOP_K", 4),
			ScoreThreshold:    getEnvAsFloat("SCORE_THRESHOLD", 0.55),
			SmallTalkKeywords: getEnvAsSlice("SMALL_TALK_KEYWORDS"),
			ChunkSize:         getEnvAsInt("CHUNK_SIZE", 1000),
			ChunkOverlap:      getEnvAsInt("CHUNK_OVERLAP", 200),
		},
		Cache: CacheConfig{
			AnswerTTL:      getEnvAsDuration("ANSWER_CACHE_TTL", 10*time.Minute),
			AnswerCapacity: getEnvAsInt("ANSWER_CACHE_CAPACITY", 100),
		},
		Jwt: JwtConfig{
			Secret: getEnv("JWT_SECRET", ""),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsSlice splits a comma-separated value, dropping empty entries.
func getEnvAsSlice(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
