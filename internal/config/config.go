package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string
	AutoMigrate bool

	ServerPort string
	Debug      bool

	JWTSecret      string
	JWTExpiryHours int
	JWKSURL        string

	RedisURL string

	RateLimitBackend string
	RateLimitMax     int
	RateLimitWindow  time.Duration

	VAPIDSubject    string
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	PushTTLSeconds  int
	PushConcurrency int

	InviteCodeTTL time.Duration
}

func Load() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Info("⚠️  No .env file found, using system environment variables")
	}

	return &Config{
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBUser:      getEnv("DB_USER", "famtasks"),
		DBPassword:  getEnv("DB_PASSWORD", "famtasks"),
		DBName:      getEnv("DB_NAME", "famtasks"),
		DBSSLMode:   getEnv("DB_SSLMODE", "disable"),
		AutoMigrate: getBool("AUTO_MIGRATE", true),

		ServerPort: getEnv("SERVER_PORT", "8080"),
		Debug:      getBool("DEBUG", false),

		JWTSecret:      getEnv("JWT_SECRET", "supersecretkey"),
		JWTExpiryHours: getInt("JWT_EXPIRY_HOURS", 24*30),
		JWKSURL:        getEnv("JWKS_URL", ""),

		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		RateLimitBackend: getEnv("RATE_LIMIT_BACKEND", "memory"),
		RateLimitMax:     getInt("RATE_LIMIT_MAX", 10),
		RateLimitWindow:  getDuration("RATE_LIMIT_WINDOW", time.Minute),

		VAPIDSubject:    getEnv("VAPID_SUBJECT", ""),
		VAPIDPublicKey:  getEnv("VAPID_PUBLIC_KEY", ""),
		VAPIDPrivateKey: getEnv("VAPID_PRIVATE_KEY", ""),
		PushTTLSeconds:  getInt("PUSH_TTL_SECONDS", 60*60*12),
		PushConcurrency: getInt("PUSH_CONCURRENCY", 16),

		InviteCodeTTL: getDuration("INVITE_CODE_TTL", 7*24*time.Hour),
	}
}

// DSN returns the postgres connection string for gorm.
func (c *Config) DSN() string {
	return "host=" + c.DBHost + " port=" + c.DBPort + " user=" + c.DBUser +
		" password=" + c.DBPassword + " dbname=" + c.DBName + " sslmode=" + c.DBSSLMode
}

// MigrationURL returns the connection URL golang-migrate expects for pgx v5.
func (c *Config) MigrationURL() string {
	return "pgx5://" + c.DBUser + ":" + c.DBPassword + "@" + c.DBHost + ":" + c.DBPort + "/" + c.DBName +
		"?sslmode=" + c.DBSSLMode
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	raw, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		log.Warnf("⚠️  invalid %s=%q, using %d", key, raw, defaultVal)
		return defaultVal
	}
	return n
}

func getBool(key string, defaultVal bool) bool {
	raw, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		log.Warnf("⚠️  invalid %s=%q, using %t", key, raw, defaultVal)
		return defaultVal
	}
	return b
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	raw, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Warnf("⚠️  invalid %s=%q, using %s", key, raw, defaultVal)
		return defaultVal
	}
	return d
}
