package internal

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env         string
	Port        int
	LogLevel    string
	DatabaseUrl string

	// Storage Configuration
	StorageProvider string // "local" or "s3"

	// Local Storage (development)
	LocalStoragePath string // Base directory for local file storage
	LocalStorageURL  string // Base URL for accessing local files

	// S3-compatible Storage (production)
	S3Endpoint        string // Optional custom endpoint (R2, MinIO); empty for AWS
	S3Region          string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3BucketName      string
	S3PublicURL       string // Optional custom domain URL

	// AI Provider Configuration
	// Transcription and summarization are configured independently so either
	// can be mocked in development.
	TranscriptionProvider string // "deepgram" or "mock"
	DeepgramAPIKey        string
	DeepgramModel         string
	SummarizationProvider string // "groq", "anthropic" or "mock"
	GroqAPIKey            string
	GroqModel             string
	AnthropicAPIKey       string
	AnthropicModel        string
	AIMaxRetries          int
	AIRetryBaseDelay      time.Duration
	AIRequestTimeout      time.Duration

	// Background maintenance worker
	WorkerInterval time.Duration

	// Metrics endpoint authentication
	// If both are empty, the /metrics endpoint will be unprotected (not recommended)
	MetricsUsername string
	MetricsPassword string
}

func NewConfig() (*Config, error) {
	// Load .env file if it exists (ignored in production)
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		// Storage defaults to local filesystem for development
		StorageProvider:  getEnv("STORAGE_PROVIDER", "local"),
		LocalStoragePath: getEnv("LOCAL_STORAGE_PATH", "./storage"),
		LocalStorageURL:  getEnv("LOCAL_STORAGE_URL", "http://localhost:8080/files"),

		// S3 configuration (production only)
		S3Endpoint:        getEnv("S3_ENDPOINT", ""),
		S3Region:          getEnv("S3_REGION", "auto"),
		S3AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
		S3SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
		S3BucketName:      getEnv("S3_BUCKET_NAME", ""),
		S3PublicURL:       getEnv("S3_PUBLIC_URL", ""),

		// AI provider defaults
		TranscriptionProvider: getEnv("TRANSCRIPTION_PROVIDER", "mock"),
		DeepgramAPIKey:        getEnv("DEEPGRAM_API_KEY", ""),
		DeepgramModel:         getEnv("DEEPGRAM_MODEL", ""),
		SummarizationProvider: getEnv("SUMMARIZATION_PROVIDER", "mock"),
		GroqAPIKey:            getEnv("GROQ_API_KEY", ""),
		GroqModel:             getEnv("GROQ_MODEL", ""),
		AnthropicAPIKey:       getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicModel:        getEnv("ANTHROPIC_MODEL", ""),
		AIMaxRetries:          getEnvInt("AI_MAX_RETRIES", 3),
		AIRetryBaseDelay:      getEnvDuration("AI_RETRY_BASE_DELAY", 1*time.Second),
		AIRequestTimeout:      getEnvDuration("AI_REQUEST_TIMEOUT", 60*time.Second),

		// Maintenance worker
		WorkerInterval: getEnvDuration("WORKER_INTERVAL", 1*time.Hour),

		// Metrics authentication
		MetricsUsername: getEnv("METRICS_USERNAME", ""),
		MetricsPassword: getEnv("METRICS_PASSWORD", ""),
	}

	// Required
	cfg.DatabaseUrl = os.Getenv("DATABASE_URL")
	if cfg.DatabaseUrl == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	// Validate storage configuration
	if cfg.StorageProvider == "s3" {
		if cfg.S3AccessKeyID == "" {
			return nil, fmt.Errorf("S3_ACCESS_KEY_ID is required when STORAGE_PROVIDER is 's3'")
		}
		if cfg.S3SecretAccessKey == "" {
			return nil, fmt.Errorf("S3_SECRET_ACCESS_KEY is required when STORAGE_PROVIDER is 's3'")
		}
		if cfg.S3BucketName == "" {
			return nil, fmt.Errorf("S3_BUCKET_NAME is required when STORAGE_PROVIDER is 's3'")
		}
	} else if cfg.StorageProvider != "local" {
		return nil, fmt.Errorf("STORAGE_PROVIDER must be either 'local' or 's3', got: %s", cfg.StorageProvider)
	}

	// Validate AI provider configuration
	if cfg.TranscriptionProvider == "deepgram" {
		if cfg.DeepgramAPIKey == "" {
			return nil, fmt.Errorf("DEEPGRAM_API_KEY is required when TRANSCRIPTION_PROVIDER is 'deepgram'")
		}
	} else if cfg.TranscriptionProvider != "mock" {
		return nil, fmt.Errorf("TRANSCRIPTION_PROVIDER must be either 'deepgram' or 'mock', got: %s", cfg.TranscriptionProvider)
	}

	switch cfg.SummarizationProvider {
	case "groq":
		if cfg.GroqAPIKey == "" {
			return nil, fmt.Errorf("GROQ_API_KEY is required when SUMMARIZATION_PROVIDER is 'groq'")
		}
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is required when SUMMARIZATION_PROVIDER is 'anthropic'")
		}
	case "mock":
	default:
		return nil, fmt.Errorf("SUMMARIZATION_PROVIDER must be 'groq', 'anthropic' or 'mock', got: %s", cfg.SummarizationProvider)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
