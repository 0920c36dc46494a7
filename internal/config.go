package internal

import (
	"chat-relay/errors"
	"fmt"
	"time"

	"github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
)

type Backend string

const (
	BackendSupabase Backend = "supabase"
	BackendPostgres Backend = "postgres"
)

type Config struct {
	TelegramBotToken     string        `env:"TELEGRAM_BOT_TOKEN,required=true" validate:"required"`
	TelegramAPIEndpoint  string        `env:"TELEGRAM_API_ENDPOINT"`
	TelegramPollTimeout  int           `env:"TELEGRAM_POLL_TIMEOUT,default=30" validate:"gte=0,lte=50"`
	SupabaseURL          string        `env:"VITE_SUPABASE_URL" validate:"omitempty,url"`
	SupabaseAnonKey      string        `env:"VITE_SUPABASE_ANON_KEY"`
	DatabaseURL          string        `env:"DATABASE_URL"`
	Host                 string        `env:"HOST"`
	Port                 int           `env:"PORT,default=8080" validate:"gte=0,lte=65535"`
	PingInterval         time.Duration `env:"PING_INTERVAL,default=30s" validate:"gt=0"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=16" validate:"gte=1"`
	BufferSize           int           `env:"BUFFER_SIZE,default=64" validate:"gte=1"`
	NumberOfWorkers      int           `env:"NUMBER_OF_WORKERS,default=4" validate:"gte=1"`
	GatewayTimeout       time.Duration `env:"GATEWAY_TIMEOUT,default=15s" validate:"gt=0"`
	JournalPath          string        `env:"JOURNAL_PATH"`
	ReplayInterval       time.Duration `env:"REPLAY_INTERVAL,default=1m" validate:"gt=0"`
	MetricInterval       time.Duration `env:"METRIC_INTERVAL,default=10s" validate:"gt=0"`
	LogLevel             string        `env:"LOG_LEVEL,default=INFO" validate:"oneof=DEBUG INFO WARN ERROR debug info warn error"`
}

var validate = validator.New()

// LoadConfig reads the environment and validates the result.
func LoadConfig() (Config, error) {
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return Config{}, err
	}
	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

// Validate checks field constraints and that one backend is configured.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := c.Backend(); err != nil {
		return err
	}
	return nil
}

// Backend picks the storefront backend. Postgres wins when both are set.
func (c Config) Backend() (Backend, error) {
	switch {
	case c.DatabaseURL != "":
		return BackendPostgres, nil
	case c.SupabaseURL != "" && c.SupabaseAnonKey != "":
		return BackendSupabase, nil
	default:
		return "", errors.ErrNoBackend
	}
}

func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// JournalEnabled reports whether refused records are kept locally.
func (c Config) JournalEnabled() bool {
	return c.JournalPath != ""
}
