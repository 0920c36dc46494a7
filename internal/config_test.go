package internal

import (
	"chat-relay/errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("VITE_SUPABASE_URL", "https://shop.supabase.co")
	t.Setenv("VITE_SUPABASE_ANON_KEY", "anon")
}

func TestLoadConfig_Defaults(t *testing.T) {
	req := require.New(t)
	setRequired(t)

	config, err := LoadConfig()

	req.NoError(err)
	req.Equal(8080, config.Port)
	req.Equal(":8080", config.Address())
	req.Equal(30*time.Second, config.PingInterval)
	req.Equal(30, config.TelegramPollTimeout)
	req.Equal(4, config.NumberOfWorkers)
	req.Equal(64, config.BufferSize)
	req.Equal(16, config.ConnectionBufferSize)
	req.Equal(15*time.Second, config.GatewayTimeout)
	req.Equal(time.Minute, config.ReplayInterval)
	req.Equal(10*time.Second, config.MetricInterval)
	req.Equal("INFO", config.LogLevel)
	req.False(config.JournalEnabled())
	backend, err := config.Backend()
	req.NoError(err)
	req.Equal(BackendSupabase, backend)
}

func TestLoadConfig_MissingToken(t *testing.T) {
	req := require.New(t)
	t.Setenv("VITE_SUPABASE_URL", "https://shop.supabase.co")
	t.Setenv("VITE_SUPABASE_ANON_KEY", "anon")
	t.Setenv("TELEGRAM_BOT_TOKEN", "")

	_, err := LoadConfig()

	req.Error(err)
}

func TestConfig_Backend(t *testing.T) {
	req := require.New(t)

	_, err := Config{}.Backend()
	req.ErrorIs(err, errors.ErrNoBackend)

	_, err = Config{SupabaseURL: "https://shop.supabase.co"}.Backend()
	req.ErrorIs(err, errors.ErrNoBackend)

	backend, err := Config{DatabaseURL: "postgres://localhost/shop", SupabaseURL: "https://x", SupabaseAnonKey: "k"}.Backend()
	req.NoError(err)
	req.Equal(BackendPostgres, backend)
}

func TestConfig_Validate(t *testing.T) {
	req := require.New(t)
	valid := Config{
		TelegramBotToken:     "123:abc",
		DatabaseURL:          "postgres://localhost/shop",
		Port:                 8080,
		PingInterval:         time.Second,
		ConnectionBufferSize: 1,
		BufferSize:           1,
		NumberOfWorkers:      1,
		GatewayTimeout:       time.Second,
		ReplayInterval:       time.Second,
		MetricInterval:       time.Second,
		LogLevel:             "DEBUG",
	}
	req.NoError(valid.Validate())

	noWorkers := valid
	noWorkers.NumberOfWorkers = 0
	req.Error(noWorkers.Validate())

	badURL := valid
	badURL.SupabaseURL = "not a url"
	req.Error(badURL.Validate())

	badLevel := valid
	badLevel.LogLevel = "TRACE"
	req.Error(badLevel.Validate())

	noBackend := valid
	noBackend.DatabaseURL = ""
	req.ErrorIs(noBackend.Validate(), errors.ErrNoBackend)
}
