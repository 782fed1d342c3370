package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/museeloquente/storefront/pkg/errors"
	"github.com/museeloquente/storefront/pkg/logger"
)

const (
	defaultTimeout              = 15 * time.Second
	responseBodyReadLimit int64 = 1 << 20
)

var errBaseURLRequired = errors.New("api base url is required")

// Client is the typed HTTP client for the storefront backend. It is the only
// component that talks to the network; every store and service depends on a
// narrow slice of it.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	token      string
	logg       *logger.Logger
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout overrides the default request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithLogger attaches a logger for request-level diagnostics.
func WithLogger(logg *logger.Logger) Option {
	return func(c *Client) {
		c.logg = logg
	}
}

// NewClient builds the backend client for the given base URL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		return nil, errBaseURLRequired
	}
	parsed, err := url.Parse(strings.TrimRight(trimmed, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing api base url: %w", err)
	}

	client := &Client{
		baseURL:    parsed,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

// BaseURL returns the configured backend origin, without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// SetToken attaches the bearer token to every subsequent request.
func (c *Client) SetToken(token string) {
	c.token = token
}

// ClearToken reverts the client to anonymous requests.
func (c *Client) ClearToken() {
	c.token = ""
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodPost, "/auth/register", req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var res LoginResponse
	req := LoginRequest{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := c.do(ctx, http.MethodGet, "/products/", nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// CreateOrder submits the cart's product ids and returns the payable order.
func (c *Client) CreateOrder(ctx context.Context, productIDs []int64) (*Order, error) {
	req := createOrderRequest{Items: make([]createOrderItem, 0, len(productIDs))}
	for _, id := range productIDs {
		req.Items = append(req.Items, createOrderItem{ProductID: id})
	}
	var order Order
	if err := c.do(ctx, http.MethodPost, "/orders/", req, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *Client) ListOrders(ctx context.Context) ([]Order, error) {
	var orders []Order
	if err := c.do(ctx, http.MethodGet, "/orders/", nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *Client) DownloadLink(ctx context.Context, productID int64) (*DownloadResponse, error) {
	var res DownloadResponse
	path := fmt.Sprintf("/downloads/%d", productID)
	if err := c.do(ctx, http.MethodGet, path, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) CreateIntent(ctx context.Context, orderID int64) (*CreateIntentResponse, error) {
	var res CreateIntentResponse
	if err := c.do(ctx, http.MethodPost, "/payments/create-intent", orderIDRequest{OrderID: orderID}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) ConfirmPaid(ctx context.Context, orderID int64) error {
	return c.do(ctx, http.MethodPost, "/payments/confirm-paid", orderIDRequest{OrderID: orderID}, nil)
}

func (c *Client) MockConfirm(ctx context.Context, orderID int64) error {
	return c.do(ctx, http.MethodPost, "/payments/mock-confirm", orderIDRequest{OrderID: orderID}, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, dest any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding request body")
		}
		reader = bytes.NewReader(payload)
	}

	endpoint := c.baseURL.String() + path
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building request")
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	if c.logg != nil {
		ctx = c.logg.WithRequestID(ctx, requestID)
		c.logg.Debug(ctx, fmt.Sprintf("%s %s", method, path))
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		classified := classifyTransportError(err)
		if c.logg != nil {
			ctx = c.logg.WithField(ctx, "error_dump", pkgerrors.Dump(classified))
			c.logg.Debug(ctx, fmt.Sprintf("%s %s failed in transport", method, path))
		}
		return classified
	}
	defer func() {
		io.Copy(io.Discard, res.Body)
		res.Body.Close()
	}()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return c.errorFromResponse(res, method, path)
	}

	if dest == nil {
		return nil
	}
	decoded, err := io.ReadAll(io.LimitReader(res.Body, responseBodyReadLimit))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeNetwork, err, "reading response body")
	}
	if err := json.Unmarshal(decoded, dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("decoding %s response", path))
	}
	return nil
}

// errorPayload matches the backend's {"detail": "..."} error envelope.
type errorPayload struct {
	Detail string `json:"detail"`
}

func (c *Client) errorFromResponse(res *http.Response, method, path string) error {
	code := pkgerrors.FromStatus(res.StatusCode)
	message := fmt.Sprintf("%s %s returned %d", method, path, res.StatusCode)

	raw, err := io.ReadAll(io.LimitReader(res.Body, responseBodyReadLimit))
	if err != nil {
		return pkgerrors.New(code, message)
	}
	var payload errorPayload
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Detail != "" {
		return pkgerrors.New(code, message).WithDetails(map[string]string{"detail": payload.Detail})
	}
	return pkgerrors.New(code, message)
}

func classifyTransportError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return pkgerrors.Wrap(pkgerrors.CodeNetwork, err, "request timed out, the store may be waking up")
	}
	if errors.Is(err, context.Canceled) {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "request canceled")
	}
	return pkgerrors.Wrap(pkgerrors.CodeNetwork, err, "store unreachable")
}
