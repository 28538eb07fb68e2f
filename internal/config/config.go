package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/Dagmawi-Y/techtonic-AMS-sub000/internal/logger"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type Config struct {
	Port         string
	Origin       string
	StoreDriver  string // mongo or memory
	MongoURI     string
	DatabaseName string
	Timeout      time.Duration

	JWTSecret    string
	TokenTTL     time.Duration
	CookieSecure bool // send the session cookie over HTTPS only
	MaxOpenViews int

	PageSize         int
	SessionsPageSize int
	LookupBatchSize  int
	ViewIdleTimeout  time.Duration

	SMTP SMTPConfig
	Log  logger.Config
}

// LoadConfig reads .env when present, then the environment.
func LoadConfig() Config {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		panic("Error loading .env file: " + err.Error())
	}
	return FromEnv()
}

// FromEnv builds the configuration from environment variables and defaults.
func FromEnv() Config {
	return Config{
		Port:         getEnv("PORT", "8000"),
		Origin:       getEnv("ORIGIN", "http://localhost:8081"),
		StoreDriver:  getEnv("STORE_DRIVER", "mongo"),
		MongoURI:     getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		DatabaseName: getEnv("DATABASE_NAME", "techtonic_tribe"),
		Timeout:      getDuration("REQUEST_TIMEOUT", 10*time.Second),

		JWTSecret:    getEnv("JWT_SECRET", "dev-secret-change-me"),
		TokenTTL:     getDuration("TOKEN_TTL", 24*time.Hour),
		CookieSecure: getBool("COOKIE_SECURE", true),
		MaxOpenViews: getInt("MAX_OPEN_VIEWS", 500),

		PageSize:         getInt("PAGE_SIZE", 20),
		SessionsPageSize: getInt("SESSIONS_PAGE_SIZE", 50),
		LookupBatchSize:  getInt("LOOKUP_BATCH_SIZE", 10),
		ViewIdleTimeout:  getDuration("VIEW_IDLE_TIMEOUT", 15*time.Minute),

		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", "smtp.gmail.com"),
			Port:     getInt("SMTP_PORT", 587),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("MAIL_FROM", "reports@techtonictribe.org"),
		},
		Log: logger.Config{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
			Output: getEnv("LOG_OUTPUT", "stdout"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}

func getBool(key string, defaultValue bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return b
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}
