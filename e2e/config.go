package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// E2E_DEBUG_JSON dumps every frame a viewer receives
	DebugJSON bool `envconfig:"E2E_DEBUG_JSON" default:"false"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
	// E2E_LOG_LEVEL is the relay log level during the scenarios
	LogLevel string `envconfig:"E2E_LOG_LEVEL" default:"WARN"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
