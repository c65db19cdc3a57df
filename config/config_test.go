package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	req := require.New(t)

	cfg, err := Load("")

	req.NoError(err)
	req.Equal(3000, cfg.Port)
	req.Equal("info", cfg.LogLevel)
	req.Equal("lobby", cfg.DefaultRoom)
	req.Equal(35, cfg.MaxNicknameLength)
	req.Equal(400, cfg.MaxMessageLength)
	req.Equal(25*time.Second, cfg.PingInterval)
	req.Equal(20*time.Second, cfg.PingTimeout)
	req.Equal(int64(1000000), cfg.MaxPayload)
	req.Equal(10*time.Second, cfg.ShutdownTimeout)
	req.Empty(cfg.AllowedOrigins)
	req.Empty(cfg.CensoredWords)
	req.Equal('*', cfg.CensorRune())
	req.Equal(":3000", cfg.Addr())
	req.Equal(slog.LevelInfo, cfg.Level())
}

func TestLoad_FromEnv(t *testing.T) {
	req := require.New(t)
	t.Setenv("HOST", "127.0.0.1")
	t.Setenv("PORT", "8081")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DEFAULT_ROOM", "hall")
	t.Setenv("ALLOWED_ORIGINS", "http://a.example,http://b.example")
	t.Setenv("PING_INTERVAL", "5s")
	t.Setenv("CENSORED_WORDS", "badger,snake")
	t.Setenv("CENSOR_CHARACTER", "#")

	cfg, err := Load("")

	req.NoError(err)
	req.Equal("127.0.0.1:8081", cfg.Addr())
	req.Equal(slog.LevelDebug, cfg.Level())
	req.Equal("hall", cfg.DefaultRoom)
	req.Equal([]string{"http://a.example", "http://b.example"}, cfg.AllowedOrigins)
	req.Equal(5*time.Second, cfg.PingInterval)
	req.Equal([]string{"badger", "snake"}, cfg.CensoredWords)
	req.Equal('#', cfg.CensorRune())
}

func TestLoad_EnvFile(t *testing.T) {
	req := require.New(t)
	path := filepath.Join(t.TempDir(), ".env")
	req.NoError(os.WriteFile(path, []byte("MAX_MESSAGE_LENGTH=120\n"), 0o600))
	// Given the variable is unset, restored after the test
	t.Setenv("MAX_MESSAGE_LENGTH", "")
	req.NoError(os.Unsetenv("MAX_MESSAGE_LENGTH"))

	cfg, err := Load(path)

	req.NoError(err)
	req.Equal(120, cfg.MaxMessageLength)
}

func TestLoad_MissingEnvFileIsIgnored(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))

	require.NoError(t, err)
}

func TestLoad_ParseError(t *testing.T) {
	t.Setenv("PORT", "not-a-port")

	_, err := Load("")

	require.ErrorContains(t, err, "parse env:")
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "port out of range", key: "PORT", value: "70000"},
		{name: "unknown log level", key: "LOG_LEVEL", value: "verbose"},
		{name: "zero nickname length", key: "MAX_NICKNAME_LENGTH", value: "0"},
		{name: "negative message length", key: "MAX_MESSAGE_LENGTH", value: "-1"},
		{name: "zero ping interval", key: "PING_INTERVAL", value: "0s"},
		{name: "two mask characters", key: "CENSOR_CHARACTER", value: "**"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load("")

			var verrs validator.ValidationErrors
			require.ErrorAs(t, err, &verrs)
		})
	}
}

func TestNewLogger_Level(t *testing.T) {
	req := require.New(t)
	var buf bytes.Buffer
	log := Config{LogLevel: "warn"}.NewLogger(&buf)

	log.Info("hidden")
	log.Warn("shown", "room", "lobby")

	req.NotContains(buf.String(), "hidden")
	req.Contains(buf.String(), "msg=shown")
	req.Contains(buf.String(), "room=lobby")
}
