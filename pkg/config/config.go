package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix namespaces every storefront environment variable.
const EnvPrefix = "MUSE"

// Environment variable names, spelled out for tests and error messages.
const (
	EnvAppEnv        = "MUSE_APP_ENV"
	EnvAPIBaseURL    = "MUSE_API_BASE_URL"
	EnvStatePath     = "MUSE_STATE_PATH"
	EnvPublishable   = "MUSE_PAYMENT_PUBLISHABLE_KEY"
	EnvPaymentEnv    = "MUSE_PAYMENT_ENV"
	EnvCallbackPort  = "MUSE_PAYMENT_CALLBACK_PORT"
	EnvHostedPageURL = "MUSE_PAYMENT_HOSTED_PAGE_URL"
)

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

type Config struct {
	App     AppConfig
	API     APIConfig
	Payment PaymentConfig
	Storage StorageConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.API.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Storage.ensurePath(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env       string `envconfig:"MUSE_APP_ENV" default:"development"`
	LogLevel  string `envconfig:"MUSE_LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"MUSE_LOG_FORMAT" default:"console"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type APIConfig struct {
	BaseURL string        `envconfig:"MUSE_API_BASE_URL" required:"true"`
	Timeout time.Duration `envconfig:"MUSE_API_TIMEOUT" default:"15s"`
}

func (a APIConfig) validate() error {
	parsed, err := url.Parse(a.BaseURL)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", EnvAPIBaseURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) URL, got %q", EnvAPIBaseURL, a.BaseURL)
	}
	return nil
}

type PaymentConfig struct {
	PublishableKey string `envconfig:"MUSE_PAYMENT_PUBLISHABLE_KEY"`
	Env            string `envconfig:"MUSE_PAYMENT_ENV" default:"test"`
	HostedPageURL  string `envconfig:"MUSE_PAYMENT_HOSTED_PAGE_URL" default:"https://pay.museeloquente.fr/checkout"`
	CallbackHost   string `envconfig:"MUSE_PAYMENT_CALLBACK_HOST" default:"127.0.0.1"`
	CallbackPort   int    `envconfig:"MUSE_PAYMENT_CALLBACK_PORT" default:"8787"`
}

// Environment returns the normalized payment provider environment (test/live).
func (p PaymentConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(p.Env))
	if env == "" {
		return "test"
	}
	return env
}

// ReturnURL is the loopback address the hosted payment page redirects back to.
func (p PaymentConfig) ReturnURL() string {
	return fmt.Sprintf("http://%s:%d/", p.CallbackHost, p.CallbackPort)
}

type StorageConfig struct {
	StatePath string `envconfig:"MUSE_STATE_PATH"`
}

// ensurePath defaults the state file into the user config dir when unset.
func (s *StorageConfig) ensurePath() error {
	if s.StatePath != "" {
		return nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return fmt.Errorf("either %s or a resolvable user config dir is required: %w", EnvStatePath, err)
	}
	s.StatePath = filepath.Join(base, "muse-storefront", "state.db")
	return nil
}
