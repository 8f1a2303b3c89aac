package app

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"60s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`
	AppRenderBudget   time.Duration `envconfig:"APP_RENDER_BUDGET" default:"5s"`
	AppRateLimit      int           `envconfig:"APP_RATE_LIMIT" default:"120"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	APIURL        string        `envconfig:"API_URL" default:"http://localhost:8000"`
	APIRetryDelay time.Duration `envconfig:"API_RETRY_DELAY" default:"1s"`
	APITimeout    time.Duration `envconfig:"API_TIMEOUT" default:"30s"`

	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	SessionCookie string        `envconfig:"SESSION_COOKIE" default:"openaudit_session"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"720h"`

	CSRFSecret string `envconfig:"CSRF_SECRET" required:"true"`

	LLMAsync        bool          `envconfig:"LLM_ASYNC" default:"true"`
	LLMDefaultModel string        `envconfig:"LLM_DEFAULT_MODEL"`
	LLMSubmitLimit  int           `envconfig:"LLM_SUBMIT_LIMIT" default:"5"`
	LLMTimeout      time.Duration `envconfig:"LLM_TIMEOUT" default:"5m"`

	WorkerConcurrency int    `envconfig:"WORKER_CONCURRENCY" default:"2"`
	WorkerMetricsAddr string `envconfig:"WORKER_METRICS_ADDR"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.CSRFSecret == "" {
		return errors.New("csrf secret must be provided")
	}
	u, err := url.Parse(c.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("API_URL %q must be an absolute URL", c.APIURL)
	}
	if c.AppRenderBudget <= 0 {
		return errors.New("APP_RENDER_BUDGET must be positive")
	}
	if c.LLMSubmitLimit <= 0 {
		return errors.New("LLM_SUBMIT_LIMIT must be positive")
	}
	return nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
