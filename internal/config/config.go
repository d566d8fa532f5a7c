package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds the application configuration
type Config struct {
	DatabaseURL       string
	Port              string
	AppEnv            string
	LogLevel          string
	BaseURL           string
	AllowedOrigins    []string
	TrustProxy        bool
	OTPTokenSecret    string
	AccessTokenSecret string
	PhoneRegion       string
	RedisURL          string
	Storage           StorageConfig
	AWS               AWSConfig
	SMTP              SMTPConfig
	SNSEnabled        bool
}

// StorageConfig selects where uploads are written
type StorageConfig struct {
	Driver    string // "local" | "s3"
	UploadDir string
	S3Bucket  string
}

// AWSConfig is shared by the S3 store and the SNS sender
type AWSConfig struct {
	Region      string
	EndpointURL string // empty in prod, LocalStack URL in dev
	AccessKeyID string
	SecretKey   string
}

// SMTPConfig configures the code mailer; an empty Host disables it
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Development reports whether APP_ENV is development
func (c *Config) Development() bool {
	return c.AppEnv == "development"
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		AppEnv:         getEnv("APP_ENV", "production"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		PhoneRegion:    strings.ToUpper(getEnv("PHONE_REGION", "IR")),
		RedisURL:       os.Getenv("REDIS_URL"),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "*")),
		TrustProxy:     os.Getenv("TRUST_PROXY") == "true",
		Storage: StorageConfig{
			Driver:    getEnv("STORAGE_DRIVER", "local"),
			UploadDir: getEnv("UPLOAD_DIR", "public/uploads"),
			S3Bucket:  getEnv("S3_BUCKET_NAME", "quillpost-uploads"),
		},
		AWS: AWSConfig{
			Region:      getEnv("AWS_REGION", "us-east-1"),
			EndpointURL: os.Getenv("AWS_ENDPOINT_URL"),
			AccessKeyID: os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretKey:   os.Getenv("AWS_SECRET_ACCESS_KEY"),
		},
		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     getEnvInt("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     getEnv("SMTP_FROM", "noreply@quillpost.local"),
		},
		SNSEnabled: os.Getenv("SNS_ENABLED") == "true",
	}
	cfg.BaseURL = strings.TrimRight(getEnv("BASE_URL", "http://localhost:"+cfg.Port), "/")

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	cfg.OTPTokenSecret = os.Getenv("OTP_TOKEN_SECRET")
	if cfg.OTPTokenSecret == "" {
		return nil, fmt.Errorf("OTP_TOKEN_SECRET environment variable is required")
	}

	cfg.AccessTokenSecret = os.Getenv("ACCESS_TOKEN_SECRET")
	if cfg.AccessTokenSecret == "" {
		return nil, fmt.Errorf("ACCESS_TOKEN_SECRET environment variable is required")
	}

	// Each token domain signs with its own secret.
	if cfg.OTPTokenSecret == cfg.AccessTokenSecret {
		return nil, fmt.Errorf("OTP_TOKEN_SECRET and ACCESS_TOKEN_SECRET must differ")
	}

	switch cfg.Storage.Driver {
	case "local", "s3":
	default:
		return nil, fmt.Errorf("STORAGE_DRIVER must be \"local\" or \"s3\", got %q", cfg.Storage.Driver)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
