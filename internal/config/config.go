package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config carries everything the services need. It is loaded once in main and
// passed into constructors; nothing reads the environment after startup.
type Config struct {
	Environment string
	DBDSN       string
	HTTPAddr    string
	JWTSecret   string

	SendGridAPIKey string
	EmailFrom      string

	TelegramToken       string
	TelegramAdminChatID int64

	PaymentGatewayURL string
	PaymentGatewayKey string
	PaymentsEnabled   bool

	SlotHorizonDays int
}

func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("no .env file found, using environment variables")
	}

	cfg := &Config{
		Environment:       os.Getenv("ENV"),
		DBDSN:             os.Getenv("DB_DSN"),
		HTTPAddr:          os.Getenv("HTTP_ADDR"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		SendGridAPIKey:    os.Getenv("SENDGRID_API_KEY"),
		EmailFrom:         os.Getenv("EMAIL_FROM"),
		TelegramToken:     os.Getenv("TELEGRAM_TOKEN"),
		PaymentGatewayURL: os.Getenv("PAYMENT_GATEWAY_URL"),
		PaymentGatewayKey: os.Getenv("PAYMENT_GATEWAY_KEY"),
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}
	if cfg.EmailFrom == "" {
		cfg.EmailFrom = "no-reply@expertbridge.io"
	}

	cfg.PaymentsEnabled = os.Getenv("PAYMENTS_ENABLED") == "true"

	if v := os.Getenv("TELEGRAM_ADMIN_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse TELEGRAM_ADMIN_CHAT_ID: %w", err)
		}
		cfg.TelegramAdminChatID = id
	}

	cfg.SlotHorizonDays = 30
	if v := os.Getenv("SLOT_HORIZON_DAYS"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil || days < 1 {
			return nil, fmt.Errorf("invalid SLOT_HORIZON_DAYS %q", v)
		}
		cfg.SlotHorizonDays = days
	}

	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required but not set")
	}

	return cfg, nil
}
