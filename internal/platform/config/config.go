package config

import (
	"os"
	"strings"
	"time"
)

// Config captures everything the server needs from its environment. Defaults
// favor local development; production overrides every secret-bearing field.
type Config struct {
	Addr string

	DatabaseURL   string
	MigrationsDir string

	RedisURL string

	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string
	AccessTokenTTL time.Duration

	DocumentBucket    string
	DocumentKeyPrefix string
	AWSRegion         string

	KafkaBrokers    []string
	AuditTopic      string
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	cfg := Config{
		Addr:              getenv("TENANTGATE_ADDR", ":8080"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		MigrationsDir:     getenv("MIGRATIONS_DIR", "migrations"),
		RedisURL:          os.Getenv("REDIS_URL"),
		JWTSigningKey:     getenv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		JWTIssuer:         getenv("JWT_ISSUER", "tenantgate"),
		JWTAudience:       getenv("JWT_AUDIENCE", "tenantgate-api"),
		AccessTokenTTL:    getduration("ACCESS_TOKEN_TTL", time.Hour),
		DocumentBucket:    os.Getenv("DOCUMENT_BUCKET"),
		DocumentKeyPrefix: getenv("DOCUMENT_KEY_PREFIX", "tenant-verification"),
		AWSRegion:         getenv("AWS_REGION", "us-east-1"),
		AuditTopic:        getenv("AUDIT_TOPIC", "tenantgate.audit"),
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getduration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
