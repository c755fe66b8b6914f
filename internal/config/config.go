package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Keys     APIKeys
	Rag      RagConfig
	Storage  StorageConfig
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

type APIKeys struct {
	Groq   string
	Gemini string
}

type RagConfig struct {
	ChunkSize     int
	ChunkOverlap  int
	FusionAlpha   float64
	VectorTopK    int
	LexicalTopK   int
	AnswerTopK    int
	HistoryWindow int

	EmbeddingProvider string // "ollama", "gemini" or "openai"
	EmbeddingModel    string
	EmbeddingDims     int
	OllamaBaseURL     string
	GroqBaseURL       string

	IngestWorkers   int
	IngestTopicName string
	CacheTTLSeconds int
}

type StorageConfig struct {
	Root string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Keys: APIKeys{
			Groq:   getEnv("GROQ_API_KEY", ""),
			Gemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
		},
		Rag: RagConfig{
			ChunkSize:     getEnvAsInt("CHUNK_SIZE", 1000),
			ChunkOverlap:  getEnvAsInt("CHUNK_OVERLAP", 200),
			FusionAlpha:   getEnvAsFloat("FUSION_ALPHA", 0.5),
			VectorTopK:    getEnvAsInt("VECTOR_TOP_K", 12),
			LexicalTopK:   getEnvAsInt("LEXICAL_TOP_K", 12),
			AnswerTopK:    getEnvAsInt("ANSWER_TOP_K", 6),
			HistoryWindow: getEnvAsInt("HISTORY_WINDOW", 6),

			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "ollama"),
			EmbeddingModel:    getEnv("EMBEDDING_MODEL", "nomic-embed-text"),
			EmbeddingDims:     getEnvAsInt("EMBEDDING_DIMS", 768),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			GroqBaseURL:       getEnv("GROQ_BASE_URL", ""),

			IngestWorkers:   getEnvAsInt("INGEST_WORKERS", 4),
			IngestTopicName: getEnv("INGEST_DOCUMENT_TOPIC_NAME", "INGEST_DOCUMENT"),
			CacheTTLSeconds: getEnvAsInt("QUERY_CACHE_TTL_SECONDS", 3600),
		},
		Storage: StorageConfig{
			Root: getEnv("STORAGE_ROOT", "uploads"),
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
