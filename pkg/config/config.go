package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort string

	DbHost     string
	DbPort     string
	DbUser     string
	DbPassword string
	DbName     string

	RedisAddr     string
	RedisPassword string

	JwtSecret string
	JwtTTL    time.Duration

	// Cron expression for the pending-task sweep.
	ReminderSpec string

	NotifyChannel string
	CacheTTL      time.Duration

	SMTPHost      string
	SMTPPort      string
	SMTPFrom      string
	SMTPUser      string
	SMTPPass      string
	AttachmentDir string
}

func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		AppPort:       getEnv("APP_PORT", "8080"),
		DbHost:        getEnv("DB_HOST", "localhost"),
		DbPort:        getEnv("DB_PORT", "5432"),
		DbUser:        getEnv("DB_USER", "taskboard"),
		DbPassword:    getEnv("DB_PASS", "taskboard"),
		DbName:        getEnv("DB_NAME", "taskboard"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		JwtSecret:     getEnv("JWT_SECRET", ""),
		JwtTTL:        getDuration("JWT_TTL", 24*time.Hour),
		ReminderSpec:  getEnv("REMINDER_SPEC", "*/2 * * * *"),
		NotifyChannel: getEnv("NOTIFY_CHANNEL", "task-events"),
		CacheTTL:      getDuration("CACHE_TTL", 10*time.Minute),
		SMTPHost:      getEnv("SMTP_HOST", ""),
		SMTPPort:      getEnv("SMTP_PORT", "587"),
		SMTPFrom:      getEnv("SMTP_FROM", ""),
		SMTPUser:      getEnv("SMTP_USER", ""),
		SMTPPass:      getEnv("SMTP_PASS", ""),
		AttachmentDir: getEnv("ATTACHMENT_DIR", "attachments"),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
