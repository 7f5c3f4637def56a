package config

import (
	"os"
	"strconv"
)

// Storage and database driver names accepted by Load.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
	DriverMinIO    = "minio"
	DriverS3       = "s3"
)

// DefaultUploadMaxBytes is used when FILE_UPLOAD_MAX_BYTES is unset.
const DefaultUploadMaxBytes int64 = 10 * 1024 * 1024

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Driver             string
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// StorageConfig holds object storage settings shared by every driver.
// Endpoint is optional; when empty the AWS virtual-hosted endpoint for Region is used.
type StorageConfig struct {
	Driver         string
	Bucket         string
	Region         string
	Endpoint       string
	ForcePathStyle bool
	AccessKey      string
	SecretKey      string
	UploadMaxBytes int64
	// SigningSecret and PublicBaseURL are only used by the memory driver.
	SigningSecret string
	PublicBaseURL string
}

// AuthConfig holds settings for bearer token verification.
type AuthConfig struct {
	JWTSecret string
}

// LogConfig controls the process-wide slog logger.
type LogConfig struct {
	Level     string
	Format    string
	SentryDSN string
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost  string
	Port     string
	Env      string
	TimeZone string
	Database DatabaseConfig
	Storage  StorageConfig
	Auth     AuthConfig
	Log      LogConfig
}

// IsDevelopment reports whether the process runs with APP_ENV=development.
func (c *AppConfig) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	port := getEnv("PORT", "8080")
	return &AppConfig{
		AppHost:  getEnv("APP_HOST", "localhost:"+port),
		Port:     port,
		Env:      getEnv("APP_ENV", "development"),
		TimeZone: getEnv("TZ", "UTC"),
		Database: DatabaseConfig{
			Driver:             getEnv("DATABASE_DRIVER", DriverPostgres),
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		Storage: StorageConfig{
			Driver:         getEnv("STORAGE_DRIVER", DriverMinIO),
			Bucket:         getEnv("AWS_S3_BUCKET", ""),
			Region:         getEnv("AWS_S3_REGION", "us-east-1"),
			Endpoint:       getEnv("AWS_S3_ENDPOINT", ""),
			ForcePathStyle: getEnvBool("AWS_S3_FORCE_PATH_STYLE", false),
			AccessKey:      getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretKey:      getEnv("AWS_SECRET_ACCESS_KEY", ""),
			UploadMaxBytes: getEnvInt64("FILE_UPLOAD_MAX_BYTES", DefaultUploadMaxBytes),
			SigningSecret:  getEnv("STORAGE_SIGNING_SECRET", ""),
			PublicBaseURL:  getEnv("STORAGE_PUBLIC_BASE_URL", "http://localhost:"+port),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("AUTH_JWT_SECRET", ""),
		},
		Log: LogConfig{
			Level:     getEnv("LOG_LEVEL", "info"),
			Format:    getEnv("LOG_FORMAT", "json"),
			SentryDSN: getEnv("SENTRY_DSN", ""),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.ParseInt(v, 10, 64)
		if err == nil {
			return i
		}
	}
	return def
}
