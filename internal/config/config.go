package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port    string
	DBDSN   string
	LogFile string

	// Public origin used to build success/cancel and download URLs.
	PublicBaseURL string

	ProductName string
	ProductCity string
	PriceCents  int64
	SalesCap    int

	StripeKey           string
	StripeWebhookSecret string

	ResendKey     string
	FromAddress   string
	OperatorEmail string

	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3UseSSL    bool

	RedisAddr     string
	RedisPassword string

	DownloadSignKey string
	DownloadLinkTTL time.Duration

	AdminEmail    string
	AdminPassword string
}

func Load() Config {
	// .env is optional; real deployments inject the environment directly.
	_ = godotenv.Load()

	cfg := Config{
		Port:                env("PORT", "8080"),
		DBDSN:               env("DB_DSN", "roofradar.db"),
		LogFile:             env("LOG_FILE", "./roofradar.log"),
		PublicBaseURL:       env("PUBLIC_BASE_URL", "http://localhost:8080"),
		ProductName:         env("PRODUCT_NAME", "Orlando Commercial Roofing Database"),
		ProductCity:         env("PRODUCT_CITY", "Orlando"),
		PriceCents:          envInt64("PRICE_CENTS", 49900),
		SalesCap:            envInt("SALES_CAP", 5),
		StripeKey:           os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		ResendKey:           os.Getenv("RESEND_API_KEY"),
		FromAddress:         env("MAIL_FROM", "Roof Radar <onboarding@resend.dev>"),
		OperatorEmail:       env("OPERATOR_EMAIL", "owner@roofradar.test"),
		S3Endpoint:          env("S3_ENDPOINT", "localhost:9000"),
		S3AccessKey:         os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:         os.Getenv("S3_SECRET_KEY"),
		S3Bucket:            env("S3_BUCKET", "database-exports"),
		S3UseSSL:            env("S3_USE_SSL", "") == "true",
		RedisAddr:           os.Getenv("REDIS_ADDR"),
		RedisPassword:       os.Getenv("REDIS_PASSWORD"),
		DownloadSignKey:     os.Getenv("DOWNLOAD_SIGN_KEY"),
		DownloadLinkTTL:     envDuration("DOWNLOAD_LINK_TTL", 10*365*24*time.Hour),
		AdminEmail:          env("ADMIN_EMAIL", "admin@roofradar.test"),
		AdminPassword:       os.Getenv("ADMIN_PASSWORD"),
	}

	// Secrets stay out of the log line.
	log.Printf("[config] PORT=%s DB_DSN=%s CAP=%d PRICE_CENTS=%d S3_BUCKET=%s BASE_URL=%s",
		cfg.Port, cfg.DBDSN, cfg.SalesCap, cfg.PriceCents, cfg.S3Bucket, cfg.PublicBaseURL)
	return cfg
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
