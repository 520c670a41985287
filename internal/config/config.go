package config

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	AppPort       string `env:"APP_PORT" envDefault:"8080"`
	DatabaseURL   string `env:"DATABASE_URL"`
	StoreBackend  string `env:"STORE_BACKEND" envDefault:"postgres"` // postgres | memory
	BotToken      string `env:"BOT_TOKEN"`
	BotUsername   string `env:"BOT_USERNAME" envDefault:"TacTicToe_bot"`
	JWTSecret     string `env:"JWT_SECRET,required,notEmpty"`
	DevMode       bool   `env:"DEV_MODE" envDefault:"false"`
	AllowedOrigin string `env:"ALLOWED_ORIGIN"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty bool   `env:"LOG_PRETTY" envDefault:"false"`

	// Ephemeral store
	EphemeralBackend string `env:"EPHEMERAL_BACKEND" envDefault:"redis"` // redis | memory
	RedisAddr        string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword    string `env:"REDIS_PASSWORD"`
	RedisDB          int    `env:"REDIS_DB" envDefault:"0"`

	// Match rules
	DefaultTimeMs int64         `env:"DEFAULT_TIME_MS" envDefault:"180000"`
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"2s"`
	GameStake     int64         `env:"GAME_STAKE" envDefault:"0"`

	// Limits
	APIRateLimit  int           `env:"API_RATE_LIMIT" envDefault:"60"`
	APIRateWindow time.Duration `env:"API_RATE_WINDOW" envDefault:"1m"`
	WSActionLimit int           `env:"WS_ACTION_LIMIT" envDefault:"20"` // actions per second per user, shared by all of their connections
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreBackend {
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is not set")
		}
	case "memory":
	default:
		return errors.New("STORE_BACKEND must be postgres or memory")
	}

	switch c.EphemeralBackend {
	case "redis", "memory":
	default:
		return errors.New("EPHEMERAL_BACKEND must be redis or memory")
	}

	if c.BotToken == "" && !c.DevMode {
		return errors.New("BOT_TOKEN is not set")
	}
	if c.DefaultTimeMs <= 0 {
		return errors.New("DEFAULT_TIME_MS must be positive")
	}
	if c.SweepInterval <= 0 {
		return errors.New("SWEEP_INTERVAL must be positive")
	}
	if c.GameStake < 0 {
		return errors.New("GAME_STAKE must not be negative")
	}
	return nil
}
