package config

import (
	"log"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds all the configuration for the application.
type Config struct {
	Env        string `yaml:"env" env:"ENV" env-default:"production"`
	HTTPServer `yaml:"http_server"`
	Tracker    `yaml:"tracker"`
	Reaper     `yaml:"reaper"`
	Database   `yaml:"database"`
}

// HTTPServer holds HTTP server specific configuration.
type HTTPServer struct {
	Port int `yaml:"port" env:"HTTP_SERVER_PORT" env-default:"8080"`
}

// Tracker holds link tracking service configuration.
type Tracker struct {
	// BaseURL is the public address share URLs are built from.
	BaseURL string `yaml:"base_url" env:"BASE_URL" env-default:"http://localhost:8080"`
	// RedirectURL is the fixed external target every tracked click lands on.
	RedirectURL string `yaml:"redirect_url" env:"REDIRECT_URL" env-default:"https://example.com"`
	// IDLength is the number of hex characters in a link identifier.
	IDLength int `yaml:"id_length" env:"LINK_ID_LENGTH" env-default:"8"`
	// DefaultExpiresHours applies when a create request omits the expiry.
	DefaultExpiresHours float64 `yaml:"default_expires_hours" env:"DEFAULT_EXPIRES_HOURS" env-default:"24"`
}

// Reaper holds expired-link sweep configuration.
type Reaper struct {
	// Schedule is a 5-field cron spec; the reference cadence is hourly.
	Schedule string `yaml:"schedule" env:"REAPER_SCHEDULE" env-default:"0 * * * *"`
}

// Database holds storage backend configuration.
type Database struct {
	// Backend selects the storage implementation: "memory" or "postgres".
	Backend         string `yaml:"backend" env:"STORAGE_BACKEND" env-default:"memory"`
	Host            string `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port            int    `yaml:"port" env:"DB_PORT" env-default:"5432"`
	User            string `yaml:"user" env:"DB_USER" env-default:"linkpulse"`
	Password        string `yaml:"password" env:"DB_PASSWORD" env-default:""`
	DBName          string `yaml:"dbname" env:"DB_NAME" env-default:"linkpulse"`
	SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE" env-default:"disable"`
	Timezone        string `yaml:"timezone" env:"DB_TIMEZONE" env-default:"UTC"`
	MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS" env-default:"5"`
	MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME" env-default:"1h"`
	AutoMigrate     bool   `yaml:"auto_migrate" env:"DB_AUTO_MIGRATE" env-default:"true"`
}

// MustLoad loads the application configuration.
func MustLoad() *Config {
	// Try to load .env file (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment variables")
	}

	var cfg Config

	// Check if config file path is specified
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/local.yml" // default path
	}

	// Try to load config file
	if _, err := os.Stat(configPath); err == nil {
		if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
			log.Fatalf("cannot read config: %s", err)
		}
	} else {
		// If config file doesn't exist, use environment variables only
		log.Println("Config file not found, using environment variables only")
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			log.Fatalf("cannot read config from environment: %s", err)
		}
	}

	return &cfg
}
