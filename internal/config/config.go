package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	DatabasePath   string
	FrontendURL    string
	DeckServiceURL string // empty means decks are shuffled locally
	StartBalance   int
	MinBet         int
	MaxBet         int
	HitOnSoft17    bool
	DoubleAnyTwo   bool
}

// Load reads configuration from the environment, with a .env file as an
// optional source. Every value has a sensible default.
func Load() (*Config, error) {
	godotenv.Load()

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		DatabasePath:   getEnv("DATABASE_PATH", "./data/blackjack.db"),
		FrontendURL:    getEnv("FRONTEND_URL", "http://localhost:5173"),
		DeckServiceURL: os.Getenv("DECK_SERVICE_URL"),
		StartBalance:   getEnvInt("START_BALANCE", 1000),
		MinBet:         getEnvInt("MIN_BET", 10),
		MaxBet:         getEnvInt("MAX_BET", 1000),
		HitOnSoft17:    getEnvBool("DEALER_HITS_SOFT_17", true),
		DoubleAnyTwo:   getEnvBool("DOUBLE_ANY_TWO", true),
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
