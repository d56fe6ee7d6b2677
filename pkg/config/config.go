package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	// Server
	Port string `mapstructure:"PORT"`
	Env  string `mapstructure:"ENV"`

	// Database
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	// Redis
	RedisURL string `mapstructure:"REDIS_URL"`

	// Auth
	PoolPassword string `mapstructure:"POOL_PASSWORD"`
	JWTSecret    string `mapstructure:"JWT_SECRET"`

	// CORS
	CorsOrigins []string `mapstructure:"CORS_ORIGINS"`

	// Score sources
	PGATourURL      string        `mapstructure:"PGATOUR_URL"`
	ESPNBaseURL     string        `mapstructure:"ESPN_BASE_URL"`
	SheetCSVURL     string        `mapstructure:"SHEET_CSV_URL"`
	SourceTimeout   time.Duration `mapstructure:"SOURCE_TIMEOUT"`
	SourceRate      float64       `mapstructure:"SOURCE_RATE"`
	FreshnessWindow time.Duration `mapstructure:"FRESHNESS_WINDOW"`

	// Polling cadence
	ActivePollInterval  time.Duration `mapstructure:"ACTIVE_POLL_INTERVAL"`
	IdlePollInterval    time.Duration `mapstructure:"IDLE_POLL_INTERVAL"`
	StatusCheckInterval time.Duration `mapstructure:"STATUS_CHECK_INTERVAL"`

	// Pool rules
	EntriesFile       string `mapstructure:"ENTRIES_FILE"`
	TiebreakerTarget1 int    `mapstructure:"TIEBREAKER_TARGET_1"`
	TiebreakerTarget2 int    `mapstructure:"TIEBREAKER_TARGET_2"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("DATABASE_URL", "golfpool.db")
	viper.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	viper.SetDefault("POOL_PASSWORD", "")
	viper.SetDefault("JWT_SECRET", "your-secret-key")
	viper.SetDefault("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000")

	viper.SetDefault("PGATOUR_URL", "https://www.pgatour.com/leaderboard")
	viper.SetDefault("ESPN_BASE_URL", "https://site.api.espn.com/apis/site/v2/sports/golf")
	viper.SetDefault("SHEET_CSV_URL", "")
	viper.SetDefault("SOURCE_TIMEOUT", "30s")
	viper.SetDefault("SOURCE_RATE", 1.0) // requests per second per source
	viper.SetDefault("FRESHNESS_WINDOW", "2m")

	viper.SetDefault("ACTIVE_POLL_INTERVAL", "60s")
	viper.SetDefault("IDLE_POLL_INTERVAL", "5m")
	viper.SetDefault("STATUS_CHECK_INTERVAL", "2h")

	viper.SetDefault("ENTRIES_FILE", "entries.yaml")
	viper.SetDefault("TIEBREAKER_TARGET_1", -12) // winning score vs par
	viper.SetDefault("TIEBREAKER_TARGET_2", 63)  // low round of the week

	// Read from environment
	viper.AutomaticEnv()

	// Read config file if exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Parse CORS origins from comma-separated string
	if corsStr := viper.GetString("CORS_ORIGINS"); corsStr != "" {
		config.CorsOrigins = strings.Split(corsStr, ",")
	}

	return &config, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
