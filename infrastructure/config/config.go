package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string
	AppBaseURL    string

	// AWS configuration
	AWSRegion       string
	DynamoDBTable   string
	SchedulesTable  string
	UsersTable      string
	OwnerStartIndex string // GSI1 - schedules by owner ordered by start time
	UserListIndex   string // GSI2 - stable user listing for digest batches
	EventBusName    string

	// Lambda configuration
	IsLambda           bool
	LambdaFunctionName string
	ColdStartTimeout   int // milliseconds

	// Similarity index
	QdrantURL        string
	QdrantCollection string
	QdrantVectorDim  int
	QdrantAPIKey     string

	// Mail delivery
	SendGridAPIKey         string
	SendGridFromEmail      string
	SendGridFromName       string
	SendGridTimeoutSeconds int
	SendGridMaxRetries     int

	// Digest scheduling
	ReminderCron    string
	TopPriorityCron string
	DigestTimeZone  string
	EnableScheduler bool

	// Query cache
	QueryCacheTTLSeconds int

	// Logging
	LogLevel string

	// Authentication
	JWTSecret        string
	JWTIssuer        string
	JWTAudience      []string
	JWTSigningMethod string
	JWTPublicKey     string

	// HTTP
	CORSAllowedOrigins []string
	IPRateLimit        int // requests per minute
	UserRateLimit      int // requests per minute
	DigestAdminRole    string

	// Observability
	MetricsNamespace string

	// Feature flags
	EnableMetrics bool
	EnableTracing bool
	EnableCORS    bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	table := getEnv("TABLE_NAME", getEnv("DYNAMODB_TABLE", "priorify"))

	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),
		AppBaseURL:    getEnv("APP_BASE_URL", "https://priorify-one.vercel.app"),

		AWSRegion:       getEnv("AWS_REGION", "ap-northeast-2"),
		DynamoDBTable:   table,
		SchedulesTable:  getEnv("SCHEDULES_TABLE", table),
		UsersTable:      getEnv("USERS_TABLE", table),
		OwnerStartIndex: getEnv("OWNER_START_INDEX", "OwnerStartIndex"),
		UserListIndex:   getEnv("USER_LIST_INDEX", "UserListIndex"),
		EventBusName:    getEnv("EVENT_BUS_NAME", "priorify-events"),

		IsLambda:           getEnvBool("IS_LAMBDA", false),
		LambdaFunctionName: getEnv("AWS_LAMBDA_FUNCTION_NAME", ""),
		ColdStartTimeout:   getEnvInt("COLD_START_TIMEOUT", 3000),

		QdrantURL:        getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantCollection: getEnv("QDRANT_COLLECTION", "schedules"),
		QdrantVectorDim:  getEnvInt("QDRANT_VECTOR_DIM", 768),
		QdrantAPIKey:     getEnv("QDRANT_API_KEY", ""),

		SendGridAPIKey:         getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail:      getEnv("SENDGRID_FROM_EMAIL", "noreply@priorify.app"),
		SendGridFromName:       getEnv("SENDGRID_FROM_NAME", "Priorify"),
		SendGridTimeoutSeconds: getEnvInt("SENDGRID_TIMEOUT_SECONDS", 10),
		SendGridMaxRetries:     getEnvInt("SENDGRID_MAX_RETRIES", 3),

		ReminderCron:    getEnv("REMINDER_CRON", "0 0 * * *"),
		TopPriorityCron: getEnv("TOP_PRIORITY_CRON", "0 9 * * *"),
		DigestTimeZone:  getEnv("DIGEST_TIMEZONE", "Asia/Seoul"),
		EnableScheduler: getEnvBool("ENABLE_SCHEDULER", false),

		QueryCacheTTLSeconds: getEnvInt("QUERY_CACHE_TTL_SECONDS", 30),

		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTIssuer:        getEnv("JWT_ISSUER", "priorify"),
		JWTAudience:      getEnvList("JWT_AUDIENCE", nil),
		JWTSigningMethod: getEnv("JWT_SIGNING_METHOD", "HS256"),
		JWTPublicKey:     getEnv("JWT_PUBLIC_KEY", ""),

		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000", "https://priorify-one.vercel.app"}),
		IPRateLimit:        getEnvInt("IP_RATE_LIMIT", 100),
		UserRateLimit:      getEnvInt("USER_RATE_LIMIT", 200),
		DigestAdminRole:    getEnv("DIGEST_ADMIN_ROLE", "admin"),

		LogLevel:         getEnv("LOG_LEVEL", "info"),
		MetricsNamespace: getEnv("METRICS_NAMESPACE", "Priorify"),
		EnableMetrics:    getEnvBool("ENABLE_METRICS", false),
		EnableTracing:    getEnvBool("ENABLE_TRACING", false),
		EnableCORS:       getEnvBool("ENABLE_CORS", true),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Load is an alias for LoadConfig
func Load() (*Config, error) {
	return LoadConfig()
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if c.SchedulesTable == "" || c.UsersTable == "" {
		return fmt.Errorf("SCHEDULES_TABLE and USERS_TABLE must not be empty")
	}
	if c.QdrantVectorDim <= 0 {
		return fmt.Errorf("QDRANT_VECTOR_DIM must be positive, got %d", c.QdrantVectorDim)
	}
	if c.IPRateLimit <= 0 || c.UserRateLimit <= 0 {
		return fmt.Errorf("rate limits must be positive")
	}
	if c.SendGridMaxRetries < 0 {
		return fmt.Errorf("SENDGRID_MAX_RETRIES must not be negative")
	}
	if _, err := time.LoadLocation(c.DigestTimeZone); err != nil {
		return fmt.Errorf("DIGEST_TIMEZONE %q is not a known time zone: %w", c.DigestTimeZone, err)
	}

	if c.Environment == "production" {
		if c.JWTSecret == "" && c.JWTPublicKey == "" && !c.IsLambda {
			return fmt.Errorf("JWT_SECRET or JWT_PUBLIC_KEY is required in production")
		}
		if c.EventBusName == "" {
			return fmt.Errorf("EVENT_BUS_NAME is required")
		}
		if c.EnableScheduler && c.SendGridAPIKey == "" {
			return fmt.Errorf("SENDGRID_API_KEY is required when the scheduler is enabled")
		}
	}

	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// MailEnabled reports whether outgoing mail is configured
func (c *Config) MailEnabled() bool {
	return c.SendGridAPIKey != ""
}

// SendGridTimeout returns the per-request mail timeout
func (c *Config) SendGridTimeout() time.Duration {
	return time.Duration(c.SendGridTimeoutSeconds) * time.Second
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvList reads a comma separated list
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var list []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}
