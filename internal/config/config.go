package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	Server  ServerConfig
	Log     LogConfig
	MongoDB MongoDBConfig
	Auth    AuthConfig
	Uploads UploadsConfig
	Sheets  SheetsConfig
	PDF     PDFConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port               string
	CORSAllowedOrigins []string
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level string
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI     string
	DBName  string
	Timeout time.Duration
}

// AuthConfig holds token signing and login throttling options.
type AuthConfig struct {
	JWTSecret          string
	TokenTTL           time.Duration
	RateLimitPerMinute int
	AdminEmail         string
	AdminPassword      string
}

// UploadsConfig controls where spreadsheets are staged and how long leftovers live.
type UploadsConfig struct {
	Dir           string
	MaxBytes      int64
	SweepSchedule string
	MaxAge        time.Duration
}

// SheetsConfig contains configuration required to import from Google Sheets.
// An empty CredentialsPath disables the import route.
type SheetsConfig struct {
	CredentialsPath string
}

// PDFConfig points at the external newsletter renderer. An empty BaseURL
// disables PDF export.
type PDFConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Ignore the returned error here; missing .env files are acceptable when
		// configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	tokenTTL, err := getDurationWithDefault("JWT_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	mongoTimeout, err := getDurationWithDefault("MONGODB_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	maxAge, err := getDurationWithDefault("UPLOAD_MAX_AGE", time.Hour)
	if err != nil {
		return nil, err
	}
	pdfTimeout, err := getDurationWithDefault("PDF_SERVICE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	maxBytes, err := getIntWithDefault("UPLOAD_MAX_BYTES", 10<<20)
	if err != nil {
		return nil, err
	}
	rateLimit, err := getIntWithDefault("AUTH_RATE_LIMIT_PER_MINUTE", 20)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:               getenvWithDefault("APP_PORT", "5000"),
			CORSAllowedOrigins: splitList(getenvWithDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		Log: LogConfig{
			Level: getenvWithDefault("LOG_LEVEL", "info"),
		},
		MongoDB: MongoDBConfig{
			URI:     getenvWithDefault("MONGODB_URI", "mongodb://localhost:27017"),
			DBName:  getenvWithDefault("MONGODB_DB_NAME", "newsletter_db"),
			Timeout: mongoTimeout,
		},
		Auth: AuthConfig{
			JWTSecret:          os.Getenv("JWT_SECRET"),
			TokenTTL:           tokenTTL,
			RateLimitPerMinute: int(rateLimit),
			AdminEmail:         getenvWithDefault("ADMIN_EMAIL", "admin@example.com"),
			AdminPassword:      os.Getenv("ADMIN_PASSWORD"),
		},
		Uploads: UploadsConfig{
			Dir:           getenvWithDefault("UPLOAD_DIR", "uploads/excel"),
			MaxBytes:      maxBytes,
			SweepSchedule: getenvWithDefault("UPLOAD_SWEEP_SCHEDULE", "*/30 * * * *"),
			MaxAge:        maxAge,
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
		},
		PDF: PDFConfig{
			BaseURL: os.Getenv("PDF_SERVICE_URL"),
			Token:   os.Getenv("PDF_SERVICE_TOKEN"),
			Timeout: pdfTimeout,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	switch {
	case c.MongoDB.URI == "":
		return errors.New("MONGODB_URI must be provided")
	case c.MongoDB.DBName == "":
		return errors.New("MONGODB_DB_NAME must be provided")
	}

	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET must be provided")
	}

	if c.Auth.TokenTTL <= 0 {
		return errors.New("JWT_TTL must be positive")
	}

	if c.Auth.RateLimitPerMinute <= 0 {
		return errors.New("AUTH_RATE_LIMIT_PER_MINUTE must be positive")
	}

	if c.Uploads.Dir == "" {
		return errors.New("UPLOAD_DIR must not be empty")
	}

	if c.Uploads.MaxBytes <= 0 {
		return errors.New("UPLOAD_MAX_BYTES must be positive")
	}

	if c.Uploads.SweepSchedule == "" {
		return errors.New("UPLOAD_SWEEP_SCHEDULE must be provided")
	}

	if c.Uploads.MaxAge <= 0 {
		return errors.New("UPLOAD_MAX_AGE must be positive")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDurationWithDefault(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getIntWithDefault(key string, fallback int64) (int64, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
