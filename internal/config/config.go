package config

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/lawravasco2207/phone-store-sub001/internal/models"
)

type Config struct {
	APP_ENV     string
	PORT        string
	LOG_LEVEL   string
	DB_HOST     string
	DB_PORT     string
	DB_USER     string
	DB_PASSWORD string
	DB_NAME     string

	JWT_SECRET     string
	REFRESH_SECRET string

	KAFKA_ADDRESS string
	REDIS_ADDR    string

	ES_URL      string
	ES_USER     string
	ES_PASSWORD string

	STRIPE_SECRET_KEY    string
	PAYPAL_CLIENT_ID     string
	PAYPAL_CLIENT_SECRET string
	PAYPAL_SANDBOX       string
	MPESA_BASE_URL       string
	MPESA_CONSUMER_KEY   string
	MPESA_CONSUMER_SECRET string

	LLM_API_URL string
	LLM_API_KEY string
	LLM_MODEL   string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	config := &Config{
		APP_ENV:     os.Getenv("APP_ENV"),
		PORT:        os.Getenv("PORT"),
		LOG_LEVEL:   os.Getenv("LOG_LEVEL"),
		DB_HOST:     os.Getenv("DB_HOST"),
		DB_PORT:     os.Getenv("DB_PORT"),
		DB_USER:     os.Getenv("DB_USER"),
		DB_PASSWORD: os.Getenv("DB_PASSWORD"),
		DB_NAME:     os.Getenv("DB_NAME"),

		JWT_SECRET:     os.Getenv("JWT_SECRET"),
		REFRESH_SECRET: os.Getenv("REFRESH_SECRET"),

		KAFKA_ADDRESS: os.Getenv("KAFKA_ADDRESS"),
		REDIS_ADDR:    os.Getenv("REDIS_ADDR"),

		ES_URL:      os.Getenv("ES_URL"),
		ES_USER:     os.Getenv("ES_USER"),
		ES_PASSWORD: os.Getenv("ES_PASSWORD"),

		STRIPE_SECRET_KEY:     os.Getenv("STRIPE_SECRET_KEY"),
		PAYPAL_CLIENT_ID:      os.Getenv("PAYPAL_CLIENT_ID"),
		PAYPAL_CLIENT_SECRET:  os.Getenv("PAYPAL_CLIENT_SECRET"),
		PAYPAL_SANDBOX:        os.Getenv("PAYPAL_SANDBOX"),
		MPESA_BASE_URL:        os.Getenv("MPESA_BASE_URL"),
		MPESA_CONSUMER_KEY:    os.Getenv("MPESA_CONSUMER_KEY"),
		MPESA_CONSUMER_SECRET: os.Getenv("MPESA_CONSUMER_SECRET"),

		LLM_API_URL: os.Getenv("LLM_API_URL"),
		LLM_API_KEY: os.Getenv("LLM_API_KEY"),
		LLM_MODEL:   os.Getenv("LLM_MODEL"),
	}

	return config, nil
}

func (c *Config) IsProduction() bool {
	return c.APP_ENV == "production"
}

func InitDB() (*gorm.DB, error) {
	configuration, _ := LoadConfig()

	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		configuration.DB_USER, configuration.DB_PASSWORD,
		configuration.DB_HOST, configuration.DB_PORT, configuration.DB_NAME,
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.Product{},
		&models.Category{},
		&models.Inventory{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.Payment{},
		&models.Review{},
		&models.SupportTicket{},
		&models.SupportMessage{},
		&models.ChatMessage{},
		&models.AuditLog{},
	)
}
