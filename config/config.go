// Package config loads relay settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

var validate = validator.New()

// Config is the process configuration.
type Config struct {
	Host     string `env:"HOST"`
	Port     int    `env:"PORT" envDefault:"3000" validate:"gte=1,lte=65535"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`

	DefaultRoom       string `env:"DEFAULT_ROOM" envDefault:"lobby" validate:"required"`
	MaxNicknameLength int    `env:"MAX_NICKNAME_LENGTH" envDefault:"35" validate:"gt=0"`
	MaxMessageLength  int    `env:"MAX_MESSAGE_LENGTH" envDefault:"400" validate:"gt=0"`

	AllowedOrigins  []string      `env:"ALLOWED_ORIGINS" envSeparator:","`
	PingInterval    time.Duration `env:"PING_INTERVAL" envDefault:"25s" validate:"gt=0"`
	PingTimeout     time.Duration `env:"PING_TIMEOUT" envDefault:"20s" validate:"gt=0"`
	MaxPayload      int64         `env:"MAX_PAYLOAD" envDefault:"1000000" validate:"gt=0"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s" validate:"gt=0"`

	CensoredWords   []string `env:"CENSORED_WORDS" envSeparator:","`
	CensorCharacter string   `env:"CENSOR_CHARACTER" envDefault:"*" validate:"len=1"`
}

// Load reads envFile, if it exists, into the environment without
// overriding variables already set, then parses and validates the
// configuration.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Addr is the listen address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// CensorRune is the mask character for censored words.
func (c Config) CensorRune() rune {
	for _, r := range c.CensorCharacter {
		return r
	}
	return '*'
}

// Level maps LogLevel to a slog level.
func (c Config) Level() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger returns a text logger writing to w at the configured level.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: c.Level()}))
}
