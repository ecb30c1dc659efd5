// Package config loads application settings from a .env file and environment variables.
// Environment variables always take precedence over .env file values.
package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	// PostgreSQL – either set DatabaseURL directly, or the individual fields.
	DatabaseURL string
	DBUser      string
	DBPass      string
	DBHost      string
	DBPort      string
	DBName      string
	DBSSLMode   string

	// Auth
	AllowedOrigins []string
	ServiceToken   string
	JWTSecret      string

	// MeiliSearch
	MeiliHost  string
	MeiliKey   string
	MeiliIndex string

	// External services
	OpenAIKey       string
	SlackWebhookURL string

	// Google Cloud
	GCSBucket   string
	PubSubTopic string
	GCPProject  string

	// Public URLs
	APIBase   string
	FilesBase string
	SiteBase  string

	// Server
	Debug      bool
	Port       string
	TLSDomains []string

	// MySQL – used only by cmd/migrate to import the legacy database.
	MySQLDSN string
}

// Load reads configuration from a .env file (if present) and then from
// environment variables. Environment variables always win.
func Load() *Config {
	v := newViper()

	// Defaults
	v.SetDefault("DB_USER", "raceatlas")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "raceatlas")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("PORT", ":8080")
	v.SetDefault("TLS_DOMAINS", "api.raceatlas.com")
	v.SetDefault("DEBUG", false)
	v.SetDefault("ALLOWED_ORIGINS", "https://raceatlas.com,http://localhost,http://localhost:3000,http://localhost:8080,http://raceatlas.test")
	v.SetDefault("MEILISEARCH_HOST", "http://localhost:7700")
	v.SetDefault("MEILISEARCH_INDEX", "search")
	v.SetDefault("API_BASE", "https://api.raceatlas.com")
	v.SetDefault("FILES_BASE", "https://files.raceatlas.com")
	v.SetDefault("SITE_BASE", "https://raceatlas.com")
	v.SetDefault("GCS_BUCKET", "cdn.raceatlas.com")
	v.SetDefault("PUBSUB_TOPIC", "event-impressions")

	cfg := &Config{
		DatabaseURL:     v.GetString("DATABASE_URL"),
		DBUser:          v.GetString("DB_USER"),
		DBPass:          v.GetString("DB_PASS"),
		DBHost:          v.GetString("DB_HOST"),
		DBPort:          v.GetString("DB_PORT"),
		DBName:          v.GetString("DB_NAME"),
		DBSSLMode:       v.GetString("DB_SSLMODE"),
		AllowedOrigins:  splitTrimmed(v.GetString("ALLOWED_ORIGINS")),
		ServiceToken:    v.GetString("SERVICE_TOKEN"),
		JWTSecret:       v.GetString("JWT_SECRET"),
		MeiliHost:       v.GetString("MEILISEARCH_HOST"),
		MeiliKey:        v.GetString("MEILISEARCH_KEY"),
		MeiliIndex:      v.GetString("MEILISEARCH_INDEX"),
		OpenAIKey:       v.GetString("OPENAI_API_KEY"),
		SlackWebhookURL: v.GetString("SLACK_WEBHOOK_URL"),
		GCSBucket:       v.GetString("GCS_BUCKET"),
		PubSubTopic:     v.GetString("PUBSUB_TOPIC"),
		GCPProject:      v.GetString("GCP_PROJECT"),
		APIBase:         strings.TrimRight(v.GetString("API_BASE"), "/"),
		FilesBase:       strings.TrimRight(v.GetString("FILES_BASE"), "/"),
		SiteBase:        strings.TrimRight(v.GetString("SITE_BASE"), "/"),
		Debug:           v.GetBool("DEBUG"),
		Port:            v.GetString("PORT"),
		TLSDomains:      splitTrimmed(v.GetString("TLS_DOMAINS")),
		MySQLDSN:        v.GetString("MYSQL_DSN"),
	}

	cfg.validate()
	return cfg
}

// PostgresDSN returns the full PostgreSQL connection string.
// DATABASE_URL takes precedence over individual fields.
func (c *Config) PostgresDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser,
		c.DBPass,
		c.DBHost,
		c.DBPort,
		c.DBName,
		c.DBSSLMode,
	)
}

// JWTKey returns the JWT signing key as a byte slice.
func (c *Config) JWTKey() []byte {
	return []byte(c.JWTSecret)
}

func (c *Config) validate() {
	if c.DatabaseURL == "" && c.DBPass == "" {
		log.Fatal("config: DATABASE_URL or DB_PASS must be set")
	}
	if c.ServiceToken == "" {
		log.Fatal("config: SERVICE_TOKEN must be set")
	}
	if c.JWTSecret == "" {
		log.Fatal("config: JWT_SECRET must be set")
	}
}

func newViper() *viper.Viper {
	// Silently load .env – OK if the file doesn't exist (production uses real env vars).
	if err := godotenv.Load(); err != nil {
		log.Println("config: no .env file found, using environment variables only")
	}

	v := viper.New()
	v.AutomaticEnv()
	return v
}

func splitTrimmed(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
