package config

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/Joris1Jansen/BulkyBook/internal/models"
	"github.com/Joris1Jansen/BulkyBook/pkg/db"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"gorm.io/gorm"
)

type Config struct {
	DB_HOST     string
	DB_PORT     string
	DB_USER     string
	DB_PASSWORD string
	DB_NAME     string

	ES_URL      string
	ES_USER     string
	ES_PASSWORD string

	REDIS_ADDR     string
	REDIS_PASSWORD string

	JWT_SECRET     string
	REFRESH_SECRET string

	KAFKA_ADDRESS string

	// hosted checkout service
	GATEWAY_URL     string
	GATEWAY_KEY     string
	PUBLIC_BASE_URL string

	LOG_LEVEL string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	config := &Config{
		DB_HOST:     os.Getenv("DB_HOST"),
		DB_PORT:     os.Getenv("DB_PORT"),
		DB_USER:     os.Getenv("DB_USER"),
		DB_PASSWORD: os.Getenv("DB_PASSWORD"),
		DB_NAME:     os.Getenv("DB_NAME"),

		ES_URL:      os.Getenv("ES_URL"),
		ES_USER:     os.Getenv("ES_USER"),
		ES_PASSWORD: os.Getenv("ES_PASSWORD"),

		REDIS_ADDR:     os.Getenv("REDIS_ADDR"),
		REDIS_PASSWORD: os.Getenv("REDIS_PASSWORD"),

		JWT_SECRET:     os.Getenv("JWT_SECRET"),
		REFRESH_SECRET: os.Getenv("REFRESH_SECRET"),

		KAFKA_ADDRESS: os.Getenv("KAFKA_ADDRESS"),

		GATEWAY_URL:     os.Getenv("GATEWAY_URL"),
		GATEWAY_KEY:     os.Getenv("GATEWAY_KEY"),
		PUBLIC_BASE_URL: EnvDefault("PUBLIC_BASE_URL", "http://localhost:8080"),

		LOG_LEVEL: EnvDefault("LOG_LEVEL", "info"),
	}

	return config, nil
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func MustNonEmpty(value, envName string) {
	if value == "" {
		log.Fatalf("missing required env %s", envName)
	}
}

func InitDB(ctx context.Context, cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.DB_USER, cfg.DB_PASSWORD, cfg.DB_HOST, cfg.DB_PORT, cfg.DB_NAME,
	)

	gormDB, err := db.Open(ctx, dsn)
	if err != nil {
		return nil, err
	}

	if err := gormDB.AutoMigrate(
		&models.Book{},
		&models.Category{},
		&models.CoverType{},
		&models.User{},
		&models.RefreshToken{},
		&models.CartItem{},
		&models.OrderHeader{},
		&models.OrderDetail{},
	); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return gormDB, nil
}
