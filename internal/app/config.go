package app

import (
	"errors"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the console.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	BackendBaseURL string        `envconfig:"BACKEND_BASE_URL" default:"http://127.0.0.1:9000/api/v1"`
	BackendTimeout time.Duration `envconfig:"BACKEND_TIMEOUT" default:"15s"`

	TokenCookieName string        `envconfig:"TOKEN_COOKIE_NAME" default:"tillway_token"`
	TokenLeeway     time.Duration `envconfig:"TOKEN_LEEWAY" default:"0s"`
	ExpiryWarnAfter time.Duration `envconfig:"EXPIRY_WARN_THRESHOLD" default:"15m"`

	// StoreDriver selects the shared revocation store: "redis" for
	// multi-instance deployments, "file" for single-node setups.
	StoreDriver       string        `envconfig:"STORE_DRIVER" default:"redis"`
	RedisAddr         string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	TokenFileDir      string        `envconfig:"TOKEN_FILE_DIR" default:"/var/lib/tillway/sessions"`
	WatchPollInterval time.Duration `envconfig:"WATCH_POLL_INTERVAL" default:"1s"`

	LoginPath     string        `envconfig:"LOGIN_PATH" default:"/auth/login"`
	LandingPath   string        `envconfig:"LANDING_PATH" default:"/"`
	GuardDebounce time.Duration `envconfig:"GUARD_DEBOUNCE" default:"50ms"`

	CSRFSecret string `envconfig:"CSRF_SECRET" required:"true"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.CSRFSecret == "" {
		return nil, errors.New("csrf secret must be provided")
	}
	if cfg.StoreDriver != "redis" && cfg.StoreDriver != "file" {
		return nil, errors.New("store driver must be redis or file")
	}
	return &cfg, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
