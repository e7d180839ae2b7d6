package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	GinMode     string
	CORSOrigins []string

	// Cohere embeddings
	CohereAPIKey   string
	CohereAPIURL   string
	EmbeddingModel string
	VectorSize     int

	// Qdrant vector store
	QdrantURL      string
	QdrantAPIKey   string
	CollectionName string

	// Gemini answer generation
	GeminiAPIKey string
	GeminiModel  string
	GeminiTier   string

	// Ingestion
	SitemapURL   string
	BaseURL      string
	MaxChunkSize int
	ChunkOverlap int
	MaxPages     int
	RenderJS     bool
	IngestCron   string

	// Retrieval
	DefaultTopK         int
	MaxQueryLength      int
	SimilarityThreshold float64

	// Retry policy
	MaxRetries        int
	RetryInitialDelay float64
	RetryMaxDelay     float64

	// Redis / background jobs
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// Run history
	MongoURI string
	DBName   string
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "*"), ","),

		CohereAPIKey:   getEnv("COHERE_API_KEY", ""),
		CohereAPIURL:   getEnv("COHERE_API_URL", "https://api.cohere.com/v1"),
		EmbeddingModel: getEnv("EMBEDDING_MODEL", "embed-english-v3.0"),
		VectorSize:     getEnvInt("VECTOR_SIZE", 1024),

		QdrantURL:      getEnv("QDRANT_URL", ""),
		QdrantAPIKey:   getEnv("QDRANT_API_KEY", ""),
		CollectionName: getEnv("COLLECTION_NAME", "rag_embedding"),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiTier:   getEnv("GEMINI_TIER", "free"),

		SitemapURL:   getEnv("SITEMAP_URL", ""),
		BaseURL:      getEnv("BASE_URL", ""),
		MaxChunkSize: getEnvInt("MAX_CHUNK_SIZE", 1000),
		ChunkOverlap: getEnvInt("CHUNK_OVERLAP", 200),
		MaxPages:     getEnvInt("MAX_PAGES", 200),
		RenderJS:     getEnvBool("RENDER_JS", false),
		IngestCron:   getEnv("INGEST_CRON", ""),

		DefaultTopK:         getEnvInt("DEFAULT_TOP_K", 5),
		MaxQueryLength:      getEnvInt("MAX_QUERY_LENGTH", 2000),
		SimilarityThreshold: getEnvFloat64("SIMILARITY_THRESHOLD", 0.3),

		MaxRetries:        getEnvInt("MAX_RETRIES", 3),
		RetryInitialDelay: getEnvFloat64("RETRY_INITIAL_DELAY", 1.0),
		RetryMaxDelay:     getEnvFloat64("RETRY_MAX_DELAY", 60.0),

		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		MongoURI: getEnv("MONGO_URI", "mongodb://localhost:27017/docs_rag"),
		DBName:   getEnv("DB_NAME", "docs_rag"),
	}

	// Validate required fields once at startup instead of per call
	if cfg.CohereAPIKey == "" {
		return nil, fmt.Errorf("COHERE_API_KEY is required - set it in .env file")
	}

	if cfg.QdrantURL == "" {
		return nil, fmt.Errorf("QDRANT_URL is required - set it in .env file")
	}

	if cfg.ChunkOverlap >= cfg.MaxChunkSize {
		return nil, fmt.Errorf("CHUNK_OVERLAP (%d) must be less than MAX_CHUNK_SIZE (%d)", cfg.ChunkOverlap, cfg.MaxChunkSize)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
