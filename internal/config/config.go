// Package config содержит логику чтения конфигурации сервиса.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const defaultRunAddress = "localhost:5002"

// Config содержит параметры конфигурации сервиса.
type Config struct {
	RunAddress         string        `env:"RUN_ADDRESS"`
	Port               string        `env:"PORT"`
	DatabaseURI        string        `env:"DATABASE_URI"`
	RazorpayKeyID      string        `env:"RAZORPAY_KEY_ID"`
	RazorpayKeySecret  string        `env:"RAZORPAY_KEY_SECRET"`
	RazorpayAPIURL     string        `env:"RAZORPAY_API_URL" envDefault:"https://api.razorpay.com"`
	RemoveBGAPIKey     string        `env:"REMOVE_BG_API_KEY"`
	RemoveBGAPIURL     string        `env:"REMOVE_BG_API_URL" envDefault:"https://api.remove.bg/v1.0/removebg"`
	PremiumSecret      string        `env:"PREMIUM_SECRET"`
	PremiumTTL         time.Duration `env:"PREMIUM_TTL" envDefault:"24h"`
	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

// Parse считывает конфигурацию из файла .env, флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами. PORT используется,
// только если адрес не задан ни через RUN_ADDRESS, ни флагом -a.
func Parse(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envDatabaseURI := cfg.DatabaseURI

	flag.StringVar(&cfg.RunAddress, "a", defaultRunAddress, "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI for the payment journal")

	flag.Parse()

	addressFlagSet := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "a" {
			addressFlagSet = true
		}
	})

	switch {
	case envRunAddress != "":
		cfg.RunAddress = envRunAddress
	case !addressFlagSet && cfg.Port != "":
		cfg.RunAddress = ":" + cfg.Port
	}
	if envDatabaseURI != "" {
		cfg.DatabaseURI = envDatabaseURI
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = defaultRunAddress
	}

	return cfg, nil
}
