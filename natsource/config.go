package natsource

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config groups the connection tunables. Values are taken from environment
// variables with the prefix "HZ_NATS_". Example: HZ_NATS_URL=nats://nats:4222 .
type Config struct {
	URL  string `envconfig:"URL"  default:"nats://127.0.0.1:4222"`
	Name string `envconfig:"NAME" default:"horizonredux"`

	// ConnectAttempts bounds the retries of the initial connect.
	ConnectAttempts uint64        `envconfig:"CONNECT_ATTEMPTS" default:"5"`
	BaseBackoff     time.Duration `envconfig:"BASE_BACKOFF"     default:"100ms"`
	MaxBackoff      time.Duration `envconfig:"MAX_BACKOFF"      default:"5s"`

	// MaxReconnects is passed to the client, -1 reconnects forever.
	MaxReconnects  int           `envconfig:"MAX_RECONNECTS"  default:"-1"`
	ReconnectWait  time.Duration `envconfig:"RECONNECT_WAIT"  default:"1s"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"5s"`
}

// LoadConfig populates Config from environment variables (prefix HZ_NATS_).
func LoadConfig() (Config, error) {
	var c Config
	return c, envconfig.Process("HZ_NATS", &c)
}

// withDefaults fills the zero values of a Config built by hand.
func (c Config) withDefaults() Config {
	if c.URL == "" {
		c.URL = "nats://127.0.0.1:4222"
	}
	if c.Name == "" {
		c.Name = "horizonredux"
	}
	if c.ConnectAttempts == 0 {
		c.ConnectAttempts = 5
	}
	if c.BaseBackoff <= 0 {
		c.BaseBackoff = 100 * time.Millisecond
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 5 * time.Second
	}
	if c.MaxReconnects == 0 {
		c.MaxReconnects = -1
	}
	if c.ReconnectWait <= 0 {
		c.ReconnectWait = time.Second
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 5 * time.Second
	}

	return c
}
