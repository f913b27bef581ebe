// Package config loads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port       int
	AppBaseURL string

	Mongo      MongoConfig
	JWT        JWTConfig
	Mail       MailConfig
	Minio      MinioConfig
	RateRPM    int
	Origins    []string
	SuperAdmin string

	GRPCHealthPort int
	HealthInterval time.Duration
	MigrationsDir  string

	TLS TLSConfig
}

// TLSConfig points at a certificate pair served by both listeners.
type TLSConfig struct {
	CertFile string
	KeyFile  string
	Required bool
}

// Enabled reports whether a certificate pair is configured.
func (t TLSConfig) Enabled() bool {
	return t.CertFile != "" && t.KeyFile != ""
}

type MongoConfig struct {
	URI      string
	Database string
}

type JWTConfig struct {
	Secret    string
	Keys      map[string]string // kid -> secret, for rotation
	ActiveKid string
	TTL       time.Duration
}

type MailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// Enabled reports whether SMTP credentials are present.
func (m MailConfig) Enabled() bool {
	return m.Host != "" && m.User != "" && m.Password != ""
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Enabled reports whether an object store is configured.
func (m MinioConfig) Enabled() bool {
	return strings.TrimSpace(m.Endpoint) != ""
}

// Load reads configuration from the environment, loading a .env file first
// when one is present.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using process environment")
	}

	cfg := Config{
		Port:       getEnvInt("PORT", 5000),
		AppBaseURL: strings.TrimRight(getEnv("APP_BASE_URL", "http://localhost:3000"), "/"),
		Mongo: MongoConfig{
			URI:      getEnv("MONGODB_URI", ""),
			Database: getEnv("MONGODB_DATABASE", "skills_marketplace"),
		},
		JWT: JWTConfig{
			Secret:    getEnv("JWT_SECRET", ""),
			ActiveKid: getEnv("JWT_ACTIVE_KID", ""),
			TTL:       getEnvDuration("TOKEN_TTL", 7*24*time.Hour),
		},
		Mail: MailConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnvInt("SMTP_PORT", 587),
			User:     getEnv("SMTP_USER", ""),
			Password: getEnv("SMTP_PASS", ""),
			From:     getEnv("MAIL_FROM", ""),
		},
		Minio: MinioConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", "avatars"),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		RateRPM:        getEnvInt("RATE_LIMIT_RPM", 10),
		Origins:        splitList(getEnv("CORS_ORIGINS", "*")),
		SuperAdmin:     strings.ToLower(strings.TrimSpace(getEnv("SUPER_ADMIN_EMAIL", ""))),
		GRPCHealthPort: getEnvInt("GRPC_HEALTH_PORT", 50051),
		HealthInterval: getEnvDuration("HEALTH_INTERVAL", 10*time.Second),
		MigrationsDir:  getEnv("MIGRATIONS_DIR", "migrations"),
		TLS: TLSConfig{
			CertFile: getEnv("TLS_CERT", ""),
			KeyFile:  getEnv("TLS_KEY", ""),
			Required: getEnvBool("REQUIRE_TLS", false),
		},
	}

	if cfg.Mongo.URI == "" {
		return Config{}, errors.New("MONGODB_URI must be set")
	}

	// JWT_KEYS format: kid:secret,kid2:secret2
	if raw := getEnv("JWT_KEYS", ""); raw != "" {
		keys, err := parseKeys(raw)
		if err != nil {
			return Config{}, err
		}
		cfg.JWT.Keys = keys
	}
	if len(cfg.JWT.Keys) == 0 && cfg.JWT.Secret == "" {
		return Config{}, errors.New("either JWT_SECRET or JWT_KEYS must be set")
	}
	if cfg.TLS.Required && !cfg.TLS.Enabled() {
		return Config{}, errors.New("REQUIRE_TLS is true but TLS_CERT/TLS_KEY are not configured")
	}
	if cfg.Mail.From == "" {
		cfg.Mail.From = cfg.Mail.User
	}

	return cfg, nil
}

func parseKeys(raw string) (map[string]string, error) {
	keys := map[string]string{}
	for _, p := range strings.Split(raw, ",") {
		if p == "" {
			continue
		}
		parts := strings.SplitN(p, ":", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("invalid JWT_KEYS entry: %s", p)
		}
		keys[parts[0]] = parts[1]
	}
	return keys, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if raw, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if raw, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(strings.TrimSpace(raw)); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback
	}

	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
