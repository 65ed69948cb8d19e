package config

import (
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds everything the server reads from the environment.
type Config struct {
	Addr         string `envconfig:"ADDR" default:":3000"`
	RoundSeconds int    `envconfig:"ROUND_SECONDS" default:"30"`
	PromptFile   string `envconfig:"PROMPT_FILE"`
	LogLevel     string `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads an optional .env file, then the SNAPCLASH_* environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("snapclash", &cfg); err != nil {
		return Config{}, err
	}
	if cfg.RoundSeconds <= 0 {
		cfg.RoundSeconds = 30
	}
	return cfg, nil
}
