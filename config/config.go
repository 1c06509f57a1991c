package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Client state backends.
const (
	StateBackendFile     = "file"
	StateBackendPostgres = "postgres"
	StateBackendRedis    = "redis"
	StateBackendR2       = "r2"
)

type Config struct {
	Port          string
	Env           string
	LogLevel      string
	JWTSecret     string
	AllowedOrigin string
	// Upstream marketplace API
	UpstreamAPIURL   string
	UpstreamTimeout  time.Duration
	UpstreamRPS      float64
	ReconcileTimeout time.Duration
	// Business Rules
	ReturnWindowDays int
	// DB Config (optional: transition history + postgres state backend)
	DBUrl             string
	DBMaxConns        int32
	DBMinConns        int32
	DBMaxConnIdleTime time.Duration
	// Client state (cart, address book)
	ClientStateBackend string
	ClientStateDir     string
	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	// R2 Storage
	R2AccountID       string
	R2AccessKeyID     string
	R2AccessKeySecret string
	R2BucketName      string
	// Cache
	CacheSummaryTTL time.Duration
	// Inbound rate limit
	RateLimitRPS   float64
	RateLimitBurst int
}

func LoadConfig() *Config {
	// 1. Check if a specific config file is requested via env var
	configFile := os.Getenv("CONFIG_FILE")
	if configFile != "" {
		if err := godotenv.Load(configFile); err != nil {
			log.Printf("Warning: Failed to load config file '%s': %v", configFile, err)
		} else {
			log.Printf("Loaded configuration from %s", configFile)
		}
	} else {
		// 2. Default fallback: .env for local dev, system env everywhere else
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found or error loading it, relying on system env vars")
		}
	}

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		JWTSecret:     getEnv("JWT_SECRET", "default_secret_CHANGE_ME"),
		AllowedOrigin: getEnv("ALLOWED_ORIGIN", "http://localhost:3000"),

		UpstreamAPIURL:   strings.TrimRight(getEnv("UPSTREAM_API_URL", ""), "/"),
		UpstreamTimeout:  getDurationEnv("UPSTREAM_TIMEOUT", 15*time.Second),
		UpstreamRPS:      getFloatEnv("UPSTREAM_RPS", 20),
		ReconcileTimeout: getDurationEnv("RECONCILE_TIMEOUT", 30*time.Second),

		ReturnWindowDays: getIntEnv("RETURN_WINDOW_DAYS", 10),

		DBUrl:             getEnv("DB_DSN", ""),
		DBMaxConns:        getInt32Env("DB_MAX_CONNS", 10),
		DBMinConns:        getInt32Env("DB_MIN_CONNS", 2),
		DBMaxConnIdleTime: getDurationEnv("DB_MAX_CONN_IDLE_TIME", time.Minute*15),

		ClientStateBackend: strings.ToLower(getEnv("CLIENT_STATE_BACKEND", StateBackendFile)),
		ClientStateDir:     getEnv("CLIENT_STATE_DIR", "./data/client-state"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),

		R2AccountID:       getEnv("R2_ACCOUNT_ID", ""),
		R2AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
		R2AccessKeySecret: getEnv("R2_ACCESS_KEY_SECRET", ""),
		R2BucketName:      getEnv("R2_BUCKET_NAME", ""),

		CacheSummaryTTL: getDurationEnv("CACHE_SUMMARY_TTL", 30*time.Second),

		RateLimitRPS:   getFloatEnv("RATE_LIMIT_RPS", 10),
		RateLimitBurst: getIntEnv("RATE_LIMIT_BURST", 30),
	}

	cfg.Validate()
	return cfg
}

func (c *Config) Validate() {
	if c.UpstreamAPIURL == "" {
		log.Fatal("CRITICAL: UPSTREAM_API_URL environment variable is required")
	}
	if c.JWTSecret == "default_secret_CHANGE_ME" {
		log.Println("WARNING: Using default JWT secret. Setting up for failure in production.")
	}
	switch c.ClientStateBackend {
	case StateBackendFile, StateBackendRedis:
	case StateBackendPostgres:
		if c.DBUrl == "" {
			log.Fatal("CRITICAL: CLIENT_STATE_BACKEND=postgres requires DB_DSN")
		}
	case StateBackendR2:
		if c.R2AccountID == "" || c.R2BucketName == "" {
			log.Fatal("CRITICAL: CLIENT_STATE_BACKEND=r2 requires R2_ACCOUNT_ID and R2_BUCKET_NAME")
		}
	default:
		log.Fatalf("CRITICAL: unknown CLIENT_STATE_BACKEND %q", c.ClientStateBackend)
	}
	if c.ReturnWindowDays <= 0 {
		log.Println("WARNING: RETURN_WINDOW_DAYS must be positive, using 10")
		c.ReturnWindowDays = 10
	}
}

// IsProduction reports whether the service runs with production defaults.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("Invalid duration for %s, using fallback", key)
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
		log.Printf("Invalid int for %s, using fallback", key)
	}
	return fallback
}
