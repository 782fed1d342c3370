package payment

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/museeloquente/storefront/internal/returnurl"
	"github.com/museeloquente/storefront/pkg/config"
)

const (
	testEnv = "test"
	liveEnv = "live"
)

var errInvalidPaymentEnv = fmt.Errorf("payment environment must be %q or %q", testEnv, liveEnv)

// Provider is the client-side handle on the hosted payment page. The page
// itself is an opaque external actor: the client only builds the URL that
// opens it and the return URL it redirects back to. When no publishable key
// is configured the hosted strategy is unavailable and checkout falls back
// to the simulated confirmation path.
type Provider struct {
	publishableKey string
	environment    string
	hostedPageURL  string
	returnURL      string
}

// NewProvider validates the configured key against the provider environment.
// An empty key is not an error; it selects the mock strategy.
func NewProvider(cfg config.PaymentConfig) (*Provider, error) {
	env, err := normalizeEnv(cfg.Environment())
	if err != nil {
		return nil, err
	}

	key := strings.TrimSpace(cfg.PublishableKey)
	if key != "" {
		if err := validateKey(env, key); err != nil {
			return nil, err
		}
	}

	pageURL := strings.TrimSpace(cfg.HostedPageURL)
	if key != "" && pageURL == "" {
		return nil, errors.New("hosted page url is required when a publishable key is set")
	}

	return &Provider{
		publishableKey: key,
		environment:    env,
		hostedPageURL:  pageURL,
		returnURL:      cfg.ReturnURL(),
	}, nil
}

// Hosted reports whether the hosted payment strategy is available.
func (p *Provider) Hosted() bool {
	return p.publishableKey != ""
}

// Environment reports the normalized provider environment in use.
func (p *Provider) Environment() string {
	return p.environment
}

// HostedPaymentURL builds the URL that opens the hosted payment page for the
// given intent secret. The embedded return URL carries the completion
// parameters the resolver looks for after the redirect; it is the only state
// that survives the detour through the provider's domain.
func (p *Provider) HostedPaymentURL(clientSecret string, orderID int64) (string, error) {
	if !p.Hosted() {
		return "", errors.New("hosted payments are not configured")
	}
	if strings.TrimSpace(clientSecret) == "" {
		return "", errors.New("intent client secret is required")
	}

	page, err := url.Parse(p.hostedPageURL)
	if err != nil {
		return "", fmt.Errorf("parsing hosted page url: %w", err)
	}

	ret, err := url.Parse(p.returnURL)
	if err != nil {
		return "", fmt.Errorf("parsing return url: %w", err)
	}
	retQuery := ret.Query()
	retQuery.Set(returnurl.ParamSuccess, returnurl.SuccessValue)
	retQuery.Set(returnurl.ParamOrderID, strconv.FormatInt(orderID, 10))
	ret.RawQuery = retQuery.Encode()

	q := page.Query()
	q.Set("key", p.publishableKey)
	q.Set("client_secret", clientSecret)
	q.Set("return_url", ret.String())
	page.RawQuery = q.Encode()

	return page.String(), nil
}

func normalizeEnv(raw string) (string, error) {
	env := strings.TrimSpace(strings.ToLower(raw))
	if env == "" {
		env = testEnv
	}
	switch env {
	case testEnv, liveEnv:
		return env, nil
	default:
		return "", errInvalidPaymentEnv
	}
}

func validateKey(env, key string) error {
	switch env {
	case testEnv:
		if strings.HasPrefix(key, "pk_test") {
			return nil
		}
		return fmt.Errorf("payment environment %q requires a test publishable key (pk_test)", testEnv)
	case liveEnv:
		if strings.HasPrefix(key, "pk_live") {
			return nil
		}
		return fmt.Errorf("payment environment %q requires a live publishable key (pk_live)", liveEnv)
	default:
		return errInvalidPaymentEnv
	}
}
