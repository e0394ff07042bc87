package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	DBFile      string
	AdminAddr   string
	APIAddr     string
	BaseURL     string
	UploadsPath string
	TokenExpiry time.Duration

	// One-time platform access fee charged to client hunters.
	AccessFeeCents int64
	FeeCurrency    string

	AdminUser string
	AdminPass string

	// VAPID key pair for web push. Push is disabled when empty.
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	PushContact     string
}

func Load() (*Config, error) {
	tokenExpiry, err := time.ParseDuration(getEnv("TOKEN_EXPIRY", "24h"))
	if err != nil {
		return nil, err
	}

	feeCents, err := strconv.ParseInt(getEnv("ACCESS_FEE_CENTS", "2900"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("ACCESS_FEE_CENTS must be an integer: %w", err)
	}

	cfg := &Config{
		DBFile:          getEnv("HIRELINE_DB", "hireline.db"),
		AdminAddr:       getEnv("ADMIN_ADDR", "localhost:8081"),
		APIAddr:         getEnv("API_ADDR", ":8080"),
		BaseURL:         getEnv("BASE_URL", "http://localhost:8080"),
		UploadsPath:     getEnv("UPLOADS_PATH", "uploads"),
		TokenExpiry:     tokenExpiry,
		AccessFeeCents:  feeCents,
		FeeCurrency:     getEnv("FEE_CURRENCY", "usd"),
		AdminUser:       getEnv("ADMIN_USER", "admin"),
		AdminPass:       os.Getenv("ADMIN_PASS"),
		VAPIDPublicKey:  os.Getenv("VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: os.Getenv("VAPID_PRIVATE_KEY"),
		PushContact:     getEnv("PUSH_CONTACT", "mailto:support@hireline.local"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.TokenExpiry <= 0 {
		return fmt.Errorf("TOKEN_EXPIRY must be greater than 0")
	}

	if c.AccessFeeCents < 0 {
		return fmt.Errorf("ACCESS_FEE_CENTS must not be negative")
	}

	if c.AdminPass == "" {
		return fmt.Errorf("ADMIN_PASS is required")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
