package e2e

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
	// E2E_READ_TIMEOUT bounds how long a scenario waits on a websocket frame
	ReadTimeout time.Duration `envconfig:"E2E_READ_TIMEOUT" default:"5s"`
	// E2E_BUFFER_SIZE sizes the event queue and per-session buffers
	BufferSize int `envconfig:"E2E_BUFFER_SIZE" default:"64"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
