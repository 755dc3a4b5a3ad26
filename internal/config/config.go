package config

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	Port        string
	Database    DatabaseConfig
	JWT         JWTConfig
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
}

type JWTConfig struct {
	Secret    string
	ExpiresIn string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Environment: getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "5050"),
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "postgres"),
			Port:     getEnv("DB_PORT", "5432"),
			Name:     getEnv("DB_NAME", "foodshare"),
			User:     getEnv("DB_USER", "foodshare_user"),
			Password: getEnv("DB_PASSWORD", "foodshare_password"),
		},
		JWT: JWTConfig{
			Secret:    os.Getenv("JWT_SECRET"),
			ExpiresIn: getEnv("JWT_EXPIRES_IN", "7d"),
		},
	}

	// A signing secret must exist. Only development may run without one.
	if cfg.JWT.Secret == "" {
		if cfg.Environment != "development" {
			return nil, fmt.Errorf("JWT_SECRET must be set when APP_ENV is %q", cfg.Environment)
		}
		cfg.JWT.Secret = "dev"
	}

	return cfg, nil
}

// DSN builds a pgx connection string from the database settings.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		c.User, c.Password, c.Host, c.Port, c.Name)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
