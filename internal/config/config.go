package config

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/petcarevet/clinic/internal/models"
)

type Config struct {
	DB_HOST            string
	DB_PORT            string
	DB_USER            string
	DB_PASSWORD        string
	DB_NAME            string
	REDIS_ADDRESS      string
	REDIS_PASSWORD     string
	ES_URL             string
	ES_USER            string
	ES_PASSWORD        string
	JWT_SECRET         string
	REFRESH_SECRET     string
	KAFKA_ADDRESS      string
	STRIPE_SECRET_KEY  string
	RESEND_API_KEY     string
	MAIL_FROM          string
	SITE_ORIGIN        string
	STATUS_WEBHOOK_URL string
	LOG_LEVEL          string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	config := &Config{
		DB_HOST:            os.Getenv("DB_HOST"),
		DB_PORT:            os.Getenv("DB_PORT"),
		DB_USER:            os.Getenv("DB_USER"),
		DB_PASSWORD:        os.Getenv("DB_PASSWORD"),
		DB_NAME:            os.Getenv("DB_NAME"),
		REDIS_ADDRESS:      os.Getenv("REDIS_ADDRESS"),
		REDIS_PASSWORD:     os.Getenv("REDIS_PASSWORD"),
		ES_URL:             os.Getenv("ES_URL"),
		ES_USER:            os.Getenv("ES_USER"),
		ES_PASSWORD:        os.Getenv("ES_PASSWORD"),
		JWT_SECRET:         os.Getenv("JWT_SECRET"),
		REFRESH_SECRET:     os.Getenv("REFRESH_SECRET"),
		KAFKA_ADDRESS:      os.Getenv("KAFKA_ADDRESS"),
		STRIPE_SECRET_KEY:  os.Getenv("STRIPE_SECRET_KEY"),
		RESEND_API_KEY:     os.Getenv("RESEND_API_KEY"),
		MAIL_FROM:          os.Getenv("MAIL_FROM"),
		SITE_ORIGIN:        os.Getenv("SITE_ORIGIN"),
		STATUS_WEBHOOK_URL: os.Getenv("STATUS_WEBHOOK_URL"),
		LOG_LEVEL:          os.Getenv("LOG_LEVEL"),
	}

	return config, nil
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
		return nil, fmt.Errorf("cannot connect to database: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Product{},
		&models.User{},
		&models.Profile{},
		&models.RefreshToken{},
		&models.CartItem{},
		&models.Coupon{},
		&models.CouponUsage{},
		&models.Order{},
		&models.OrderItem{},
		&models.Appointment{},
		&models.Pet{},
		&models.WebhookConfig{},
		&models.WebhookDelivery{},
		&models.WebhookLog{},
	)
}
