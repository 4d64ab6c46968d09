// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	TelegramBotToken string
	DatabasePath     string
	LogLevel         string
	AdminUsers       []int64
	RetentionDays    int
}

// Load reads configuration from the environment, after loading an
// optional .env file from the working directory.
func Load() (*Config, error) {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = "./data/bot.db"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	retentionDays := 30
	if raw := os.Getenv("RETENTION_DAYS"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid RETENTION_DAYS %q", raw)
		}
		retentionDays = n
	}

	var admins []int64
	if raw := os.Getenv("ADMIN_USERS"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			uid, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid user ID %q in ADMIN_USERS: %w", s, err)
			}
			admins = append(admins, uid)
		}
	}

	return &Config{
		TelegramBotToken: token,
		DatabasePath:     dbPath,
		LogLevel:         logLevel,
		AdminUsers:       admins,
		RetentionDays:    retentionDays,
	}, nil
}

// IsAdmin checks whether a user ID is in the admin list.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminUsers {
		if id == userID {
			return true
		}
	}
	return false
}
