package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Database  DatabaseConfig
	App       AppConfig
	Auth      AuthConfig
	Redis     RedisConfig
	Receipt   ReceiptConfig
	Log       LogConfig
	Dashboard DashboardConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL         string
	Host        string
	Port        string
	User        string
	Password    string
	DBName      string
	SSLMode     string
	TimeZone    string
	AutoMigrate bool
}

type AppConfig struct {
	Environment        string
	Port               string
	Location           *time.Location
	DefaultPhoneRegion string
}

type AuthConfig struct {
	JWTSecret     string
	SessionTTL    time.Duration
	AdminEmail    string
	AdminPassword string
}

type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

type ReceiptConfig struct {
	ShopName    string
	ShopAddress string
}

type LogConfig struct {
	Level  string
	Format string
}

type DashboardConfig struct {
	CacheTTL time.Duration
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found")
	}

	tzName := getEnv("APP_TIMEZONE", "Asia/Jakarta")
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE %q: %w", tzName, err)
	}

	cfg := &Config{
		Database: DatabaseConfig{
			URL:         getEnv("DATABASE_URL", ""),
			Host:        getEnv("DB_HOST", "localhost"),
			Port:        getEnv("DB_PORT", "5432"),
			User:        getEnv("DB_USER", "postgres"),
			Password:    getEnv("DB_PASSWORD", ""),
			DBName:      getEnv("DB_NAME", "pos"),
			SSLMode:     getEnv("DB_SSLMODE", "disable"),
			TimeZone:    tzName,
			AutoMigrate: getBool("DB_AUTO_MIGRATE", true),
		},
		App: AppConfig{
			Environment:        getEnv("APP_ENV", "development"),
			Port:               getEnv("PORT", "3000"),
			Location:           loc,
			DefaultPhoneRegion: strings.ToUpper(getEnv("DEFAULT_PHONE_REGION", "ID")),
		},
		Auth: AuthConfig{
			JWTSecret:     getEnv("JWT_SECRET", ""),
			SessionTTL:    time.Duration(getInt("SESSION_TTL_HOURS", 12)) * time.Hour,
			AdminEmail:    getEnv("ADMIN_EMAIL", "admin@example.com"),
			AdminPassword: getEnv("ADMIN_PASSWORD", "admin123"),
		},
		Redis: RedisConfig{
			Address:  getEnv("REDIS_ADDRESS", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getInt("REDIS_DB", 0),
		},
		Receipt: ReceiptConfig{
			ShopName:    getEnv("RECEIPT_SHOP_NAME", "POS Store"),
			ShopAddress: getEnv("RECEIPT_SHOP_ADDRESS", ""),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Dashboard: DashboardConfig{
			CacheTTL: time.Duration(getInt("DASHBOARD_CACHE_SECONDS", 60)) * time.Second,
		},
	}

	return cfg, nil
}

// GetDSN returns the database connection string
func (c *DatabaseConfig) GetDSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode, c.TimeZone)
}

// MigrateURL returns the postgres:// URL form golang-migrate expects.
func (c *DatabaseConfig) MigrateURL() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
