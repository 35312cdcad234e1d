package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port            string
	Environment     string
	SupabaseURL     string
	SupabaseKey     string
	SupabaseDBURL   string
	SupabaseJWKSURL string // Constructed from SupabaseURL + /auth/v1/.well-known/jwks.json
	CORSOrigins     string
	TablePrefix     string
	AutoMigrate     bool
	LogDir          string

	// Oracle configuration (OpenRouter serves every model by default)
	OpenRouterAPIKey  string
	OpenRouterBaseURL string
	OpenRouterRPS     float64
	AnthropicAPIKey   string
	TextProvider      string // "openrouter", "anthropic" or "lorem"
	ModelVision       string
	ModelPlan         string
	ModelChunking     string
	ModelEmbedding    string

	// Object storage
	StorageBackend     string // "supabase" or "gcs"
	StorageBucket      string
	GCSCredentialsFile string

	// Retry policy shared by every discrete oracle and storage call
	RetryMaxRetries int
	RetryBaseDelay  time.Duration
	RetryJitter     time.Duration
	RetryMaxDelay   time.Duration

	PdftoppmPath string

	// Debug flags
	Debug bool
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")
	tablePrefix := getTablePrefix(env)
	supabaseURL := getEnv("SUPABASE_URL", "")

	// Construct JWKS URL from Supabase URL
	jwksURL := supabaseURL + "/auth/v1/.well-known/jwks.json"

	return &Config{
		Port:            getEnv("PORT", "8080"),
		Environment:     env,
		SupabaseURL:     supabaseURL,
		SupabaseKey:     getEnv("SUPABASE_KEY", ""),
		SupabaseDBURL:   getEnv("SUPABASE_DB_URL", ""),
		SupabaseJWKSURL: jwksURL,
		CORSOrigins:     getEnv("CORS_ORIGINS", "http://localhost:5173"),
		TablePrefix:     tablePrefix,
		AutoMigrate:     getEnv("AUTO_MIGRATE", "false") == "true",
		LogDir:          getEnv("LOG_DIR", ""),

		OpenRouterAPIKey:  getEnv("OPENROUTER_API_KEY", ""),
		OpenRouterBaseURL: getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		OpenRouterRPS:     getEnvFloat("OPENROUTER_RPS", 10),
		AnthropicAPIKey:   getEnv("ANTHROPIC_API_KEY", ""),
		TextProvider:      getEnv("TEXT_PROVIDER", "openrouter"),
		ModelVision:       getEnv("MODEL_VISION", "google/gemini-2.5-flash"),
		ModelPlan:         getEnv("MODEL_PLAN", "google/gemini-2.5-flash"),
		ModelChunking:     getEnv("MODEL_CHUNKING", "google/gemini-2.5-flash"),
		ModelEmbedding:    getEnv("MODEL_EMBEDDING", "google/gemini-embedding-001"),

		StorageBackend:     getEnv("STORAGE_BACKEND", "supabase"),
		StorageBucket:      getEnv("STORAGE_BUCKET", "documents"),
		GCSCredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),

		RetryMaxRetries: getEnvInt("RETRY_MAX_RETRIES", DefaultMaxRetries),
		RetryBaseDelay:  getEnvDuration("RETRY_BASE_DELAY", DefaultRetryBaseDelay),
		RetryJitter:     getEnvDuration("RETRY_JITTER", DefaultRetryJitter),
		RetryMaxDelay:   getEnvDuration("RETRY_MAX_DELAY", DefaultRetryMaxDelay),

		PdftoppmPath: getEnv("PDFTOPPM_PATH", "pdftoppm"),

		// Debug flags - default to true in dev/test, false in production
		Debug: getEnv("DEBUG", getDefaultDebug(env)) == "true",
	}
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true"
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return f
}

// getEnvDuration accepts Go duration strings ("1.5s", "500ms").
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
