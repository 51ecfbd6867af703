package config

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"YourWheels/models"
)

type GoogleClient struct {
	ClientID     string
	ClientSecret string
}

type SMTP struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

type Config struct {
	Port           string
	StoreBackend   string
	MongoURI       string
	MongoDatabase  string
	JWTSecret      string
	FrontendURL    string
	PublicBaseURL  string
	ErrorRedirect  bool
	CacheEnabled   bool
	CacheTimeout   time.Duration
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	OTPBackend     string
	OTPRateLimit   int
	PaymentSuccess float64
	GoogleBuyer    GoogleClient
	GoogleSeller   GoogleClient
	GoogleCallback string
	SMTP           SMTP
	Admins         []models.AdminCredential
}

func defaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("STORE_BACKEND", "mongo")
	v.SetDefault("MONGODB_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGODB_DATABASE", "yourwheels")
	v.SetDefault("FRONTEND_URL", "http://localhost:5173")
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:8080")
	v.SetDefault("ERROR_REDIRECT", false)
	v.SetDefault("CACHE_ENABLED", true)
	v.SetDefault("CACHE_TIMEOUT", "200ms")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("OTP_BACKEND", "memory")
	v.SetDefault("OTP_RATE_LIMIT", 5)
	v.SetDefault("PAYMENT_SUCCESS_RATE", 0.9)
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("ADMIN_CREDENTIALS", "[]")
}

// Load reads a .env file when present and then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	defaults(v)
	return FromViper(v)
}

func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:           v.GetString("PORT"),
		StoreBackend:   v.GetString("STORE_BACKEND"),
		MongoURI:       v.GetString("MONGODB_URI"),
		MongoDatabase:  v.GetString("MONGODB_DATABASE"),
		JWTSecret:      v.GetString("JWT_SECRET"),
		FrontendURL:    strings.TrimRight(v.GetString("FRONTEND_URL"), "/"),
		PublicBaseURL:  strings.TrimRight(v.GetString("PUBLIC_BASE_URL"), "/"),
		ErrorRedirect:  v.GetBool("ERROR_REDIRECT"),
		CacheEnabled:   v.GetBool("CACHE_ENABLED"),
		CacheTimeout:   v.GetDuration("CACHE_TIMEOUT"),
		RedisAddr:      v.GetString("REDIS_ADDR"),
		RedisPassword:  v.GetString("REDIS_PASSWORD"),
		RedisDB:        v.GetInt("REDIS_DB"),
		OTPBackend:     v.GetString("OTP_BACKEND"),
		OTPRateLimit:   v.GetInt("OTP_RATE_LIMIT"),
		PaymentSuccess: v.GetFloat64("PAYMENT_SUCCESS_RATE"),
		GoogleBuyer: GoogleClient{
			ClientID:     v.GetString("GOOGLE_BUYER_CLIENT_ID"),
			ClientSecret: v.GetString("GOOGLE_BUYER_CLIENT_SECRET"),
		},
		GoogleSeller: GoogleClient{
			ClientID:     v.GetString("GOOGLE_SELLER_CLIENT_ID"),
			ClientSecret: v.GetString("GOOGLE_SELLER_CLIENT_SECRET"),
		},
		GoogleCallback: strings.TrimRight(v.GetString("GOOGLE_CALLBACK_BASE"), "/"),
		SMTP: SMTP{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			User:     v.GetString("SMTP_USER"),
			Password: v.GetString("SMTP_PASSWORD"),
			From:     v.GetString("SMTP_FROM"),
		},
	}
	if cfg.GoogleCallback == "" {
		cfg.GoogleCallback = cfg.PublicBaseURL
	}

	admins, err := ParseAdmins(v.GetString("ADMIN_CREDENTIALS"))
	if err != nil {
		return nil, err
	}
	cfg.Admins = admins

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.PaymentSuccess < 0 || cfg.PaymentSuccess > 1 {
		return nil, fmt.Errorf("PAYMENT_SUCCESS_RATE must be within [0,1], got %v", cfg.PaymentSuccess)
	}
	switch cfg.StoreBackend {
	case "mongo", "memory":
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}
	return cfg, nil
}

// ParseAdmins decodes the JSON allow-list of administrator credentials.
func ParseAdmins(raw string) ([]models.AdminCredential, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var admins []models.AdminCredential
	if err := json.Unmarshal([]byte(raw), &admins); err != nil {
		return nil, fmt.Errorf("ADMIN_CREDENTIALS: %w", err)
	}
	return admins, nil
}
