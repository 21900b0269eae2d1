package config

import (
	"fmt"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config holds all configuration for the service
type Config struct {
	Environment string
	Port        string
	DatabaseURL string

	// SecretKey signs session cookies and OAuth state tokens
	SecretKey string

	// Institutional SSO (OAuth2 authorization-code flow)
	OAuthClientID     string
	OAuthClientSecret string
	OAuthTenantID     string
	OAuthRedirectURL  string

	// File roots
	UploadDir string // signature images
	LatexDir  string // generated .tex/.pdf output

	// Post-login redirect target
	FrontendURL string

	// Optional infrastructure
	NATSURL  string
	RedisURL string

	// Bootstrap admin account, promoted on startup when set
	AdminEmail string
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		Environment:       getEnv("ENVIRONMENT", "development"),
		Port:              getEnv("PORT", "8080"),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		SecretKey:         getEnv("SECRET_KEY", ""),
		OAuthClientID:     getEnv("OAUTH_CLIENT_ID", ""),
		OAuthClientSecret: getEnv("OAUTH_CLIENT_SECRET", ""),
		OAuthTenantID:     getEnv("OAUTH_TENANT_ID", "common"),
		OAuthRedirectURL:  getEnv("OAUTH_REDIRECT_URL", "http://localhost:8080/auth/callback"),
		UploadDir:         getEnv("UPLOAD_DIR", "uploads/signatures"),
		LatexDir:          getEnv("LATEX_DIR", "latex_templates"),
		FrontendURL:       getEnv("FRONTEND_URL", "/"),
		NATSURL:           getEnv("NATS_URL", ""),
		RedisURL:          getEnv("REDIS_URL", ""),
		AdminEmail:        getEnv("ADMIN_EMAIL", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// InitDB initializes the database connection
func InitDB(cfg *Config) (*gorm.DB, error) {
	dsn := cfg.DatabaseURL
	if dsn == "" {
		// Build DSN from individual components if DATABASE_URL not set
		host := getEnv("DB_HOST", "localhost")
		port := getEnv("DB_PORT", "5432")
		user := getEnv("DB_USER", "postgres")
		password := getEnv("DB_PASSWORD", "")
		dbname := getEnv("DB_NAME", "campus_approvals")
		sslmode := getEnv("DB_SSLMODE", "require")

		dsn = fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			host, port, user, password, dbname, sslmode,
		)
	}

	logLevel := logger.Silent
	if cfg.Environment == "development" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}
