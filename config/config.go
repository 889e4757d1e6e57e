package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// Config is the process configuration, read once from the environment.
type Config struct {
	Port      string `validate:"required,numeric"`
	GinMode   string
	DBHost    string `validate:"required"`
	DBPort    string `validate:"required,numeric"`
	DBUser    string `validate:"required"`
	DBPass    string
	DBName    string `validate:"required"`
	RedisAddr string
	SMTPHost  string
	SMTPPort  int
	SMTPUser  string
	SMTPPass  string
	MailFrom  string
}

// Load reads .env (if present) and the environment into a validated Config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:      getenv("PORT", "8080"),
		GinMode:   os.Getenv("GIN_MODE"),
		DBHost:    getenv("DB_HOST", "127.0.0.1"),
		DBPort:    getenv("DB_PORT", "3306"),
		DBUser:    getenv("DB_USER", "root"),
		DBPass:    os.Getenv("DB_PASS"),
		DBName:    getenv("DB_NAME", "reserva"),
		RedisAddr: os.Getenv("REDIS_ADDR"),
		SMTPHost:  os.Getenv("SMTP_HOST"),
		SMTPPort:  25,
		SMTPUser:  os.Getenv("SMTP_USER"),
		SMTPPass:  os.Getenv("SMTP_PASS"),
		MailFrom:  getenv("MAIL_FROM", "no-reply@reserva.local"),
	}
	if p := os.Getenv("SMTP_PORT"); p != "" {
		fmt.Sscanf(p, "%d", &cfg.SMTPPort)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// InitDB opens the MySQL connection described by cfg.
func InitDB(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	return gorm.Open(mysql.Open(dsn), &gorm.Config{})
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
