package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Admin    AdminConfig
	Scoring  ScoringConfig
	Matching MatchingConfig
	Dispatch DispatchConfig
	SMTP     SMTPConfig
	NATS     NATSConfig
	Audit    AuditConfig
	Feed     FeedConfig
	Logger   LoggerConfig
}

type LoggerConfig struct {
	Level string
}

type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	FrontendOrigins string
}

type DatabaseConfig struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN prefers DATABASE_URL and falls back to the discrete DB_* settings.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

type AdminConfig struct {
	Email     string
	JWTSecret string
	TokenTTL  time.Duration
}

type ScoringConfig struct {
	Provider string // gigachat, gemini or none
	Timeout  time.Duration
	GigaChat GigaChatConfig
	Gemini   GeminiConfig
}

type GigaChatConfig struct {
	APIKey             string
	Scope              string
	Model              string
	InsecureSkipVerify bool
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type MatchingConfig struct {
	Threshold float64
	Prefilter string
}

type DispatchConfig struct {
	OnIngestLimit int
	DefaultLimit  int
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	TLS      bool
}

// Enabled reports whether enough is configured to open a transport session.
func (c SMTPConfig) Enabled() bool {
	return c.Host != "" && c.From != ""
}

type NATSConfig struct {
	URL     string
	Subject string
}

type AuditConfig struct {
	Backend         string // postgres or mongo
	MongoURI        string
	MongoDatabase   string
	MongoCollection string
}

type FeedConfig struct {
	IngestURL   string
	Interval    time.Duration
	SourcesFile string
	SourcesJSON string
	UserAgent   string
}

// Load reads the first .env found (optional) and then the environment.
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom behaves like Load but tries envFile before the default locations.
func LoadFrom(envFile string) (*Config, error) {
	envFiles := []string{".env", "../.env", "../../.env"}
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	} else {
		for _, f := range envFiles {
			if err := godotenv.Load(f); err == nil {
				break
			}
		}
	}

	ints := intParser{}
	readTimeout := ints.get("SERVER_READ_TIMEOUT", 30)
	writeTimeout := ints.get("SERVER_WRITE_TIMEOUT", 30)
	tokenTTL := ints.get("ADMIN_TOKEN_TTL_HOURS", 24)
	scoringTimeout := ints.get("SCORING_TIMEOUT_SECONDS", 20)
	smtpPort := ints.get("SMTP_PORT", 587)
	onIngest := ints.get("DISPATCH_ON_INGEST_LIMIT", 20)
	defaultLimit := ints.get("DISPATCH_DEFAULT_LIMIT", 50)
	interval := ints.get("SCRAPE_INTERVAL_SEC", 600)
	if ints.err != nil {
		return nil, ints.err
	}

	threshold, err := strconv.ParseFloat(getEnv("MATCH_THRESHOLD", "0.65"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid MATCH_THRESHOLD: %w", err)
	}

	adminEmail := strings.TrimSpace(getEnv("ADMIN_EMAIL", ""))
	if adminEmail == "" {
		return nil, fmt.Errorf("ADMIN_EMAIL is required")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			ReadTimeout:     time.Duration(readTimeout) * time.Second,
			WriteTimeout:    time.Duration(writeTimeout) * time.Second,
			FrontendOrigins: getEnv("FRONTEND_URL", ""),
		},
		Database: DatabaseConfig{
			URL:      normalizeDatabaseURL(getEnv("DATABASE_URL", "")),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "dealflow"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Admin: AdminConfig{
			Email:     adminEmail,
			JWTSecret: getEnv("ADMIN_JWT_SECRET", ""),
			TokenTTL:  time.Duration(tokenTTL) * time.Hour,
		},
		Scoring: ScoringConfig{
			Provider: strings.ToLower(getEnv("SCORING_PROVIDER", "gigachat")),
			Timeout:  time.Duration(scoringTimeout) * time.Second,
			GigaChat: GigaChatConfig{
				APIKey:             getEnv("GIGACHAT_API_KEY", ""),
				Scope:              getEnv("GIGACHAT_SCOPE", "GIGACHAT_API_PERS"),
				Model:              getEnv("GIGACHAT_MODEL", "GigaChat"),
				InsecureSkipVerify: getEnv("GIGACHAT_INSECURE_SKIP_VERIFY", "false") == "true",
			},
			Gemini: GeminiConfig{
				APIKey: getEnv("GEMINI_API_KEY", ""),
				Model:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			},
		},
		Matching: MatchingConfig{
			Threshold: threshold,
			Prefilter: getEnv("MATCH_PREFILTER", "none"),
		},
		Dispatch: DispatchConfig{
			OnIngestLimit: onIngest,
			DefaultLimit:  defaultLimit,
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     smtpPort,
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", ""),
			TLS:      getEnv("SMTP_TLS", "true") == "true",
		},
		NATS: NATSConfig{
			URL:     getEnv("NATS_URL", ""),
			Subject: getEnv("NATS_SUBJECT", "deals.ingested"),
		},
		Audit: AuditConfig{
			Backend:         strings.ToLower(getEnv("AUDIT_BACKEND", "postgres")),
			MongoURI:        getEnv("MONGO_URI", "mongodb://localhost:27017"),
			MongoDatabase:   getEnv("MONGO_DATABASE", "dealflow"),
			MongoCollection: getEnv("MONGO_AUDIT_COLLECTION", "audit_log"),
		},
		Feed: FeedConfig{
			IngestURL:   getEnv("FEED_INGEST_URL", "http://localhost:8080/webhooks/deal-ingest"),
			Interval:    time.Duration(interval) * time.Second,
			SourcesFile: getEnv("DEAL_SOURCES_FILE", ""),
			SourcesJSON: getEnv("DEAL_SOURCES_JSON", "[]"),
			UserAgent:   getEnv("FEED_USER_AGENT", "dealflow-feeder/1.0"),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	return cfg, nil
}

// normalizeDatabaseURL accepts the postgres:// scheme some hosting providers hand out.
func normalizeDatabaseURL(raw string) string {
	if strings.HasPrefix(raw, "postgres://") {
		return "postgresql://" + strings.TrimPrefix(raw, "postgres://")
	}
	return raw
}

// intParser reads integer variables and keeps the first malformed one.
type intParser struct {
	err error
}

func (p *intParser) get(key string, defaultValue int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		if p.err == nil {
			p.err = fmt.Errorf("invalid %s: %w", key, err)
		}
		return defaultValue
	}
	return v
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
