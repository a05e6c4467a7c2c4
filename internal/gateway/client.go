package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nerrad567/gray-logic-dashboard/internal/device"
	"github.com/nerrad567/gray-logic-dashboard/internal/infrastructure/config"
)

// Defaults applied when the config leaves them unset.
const (
	DefaultBaseURL = "http://localhost:8080/api"
	DefaultTimeout = 10 * time.Second

	// maxBodyExcerpt bounds how much of an error body is logged.
	maxBodyExcerpt = 512

	// maxResponseSize bounds how much of a list response is read.
	maxResponseSize = 4 << 20
)

// Logger defines the logging interface used by the Client.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Client talks to the remote device backend.
//
// Thread Safety: All methods are safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the client's logger.
func WithLogger(l Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a gateway client.
//
// Parameters:
//   - cfg: Gateway configuration (base URL and timeout in seconds)
//   - opts: Optional overrides
//
// Returns:
//   - *Client: Ready-to-use client. No connection is made until the first call.
func New(cfg config.GatewayConfig, opts ...Option) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	c := &Client{
		baseURL:    base,
		httpClient: &http.Client{Timeout: timeout},
		logger:     noopLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Timeout returns the per-request timeout.
func (c *Client) Timeout() time.Duration {
	return c.httpClient.Timeout
}

// FetchDevices returns the backend's device list.
func (c *Client) FetchDevices(ctx context.Context) ([]device.SmartDevice, error) {
	return fetchList[device.SmartDevice](ctx, c, "/devices")
}

// FetchSensorData returns the backend's sensor readings, oldest first.
func (c *Client) FetchSensorData(ctx context.Context) ([]device.SensorReading, error) {
	return fetchList[device.SensorReading](ctx, c, "/sensors")
}

// UpdateDeviceStatus pushes a device status to the backend.
func (c *Client) UpdateDeviceStatus(ctx context.Context, id string, status device.Status) bool {
	body := struct {
		Status device.Status `json:"status"`
	}{status}
	return c.put(ctx, "/devices/"+url.PathEscape(id), body)
}

// UpdateTemperature pushes the thermostat target to the backend.
func (c *Client) UpdateTemperature(ctx context.Context, temperature float64) bool {
	body := struct {
		Temperature float64 `json:"temperature"`
	}{temperature}
	return c.put(ctx, "/thermostat", body)
}

// UpdateFanStatus pushes the fan switch and speed to the backend.
func (c *Client) UpdateFanStatus(ctx context.Context, on bool, speed int) bool {
	body := struct {
		IsOn  bool `json:"isOn"`
		Speed int  `json:"speed"`
	}{on, speed}
	return c.put(ctx, "/fan", body)
}

// fetchList performs a GET and decodes a JSON array. null or any other
// top-level value is rejected.
func fetchList[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var list []T
	dec := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize))
	if err := dec.Decode(&list); err != nil {
		c.logger.Warn("gateway returned malformed body", "path", path, "error", err)
		return nil, fmt.Errorf("%w: GET %s: %w", ErrInvalidResponse, path, err)
	}
	if list == nil {
		c.logger.Warn("gateway returned null instead of a list", "path", path)
		return nil, fmt.Errorf("%w: GET %s: not a list", ErrInvalidResponse, path)
	}
	return list, nil
}

// put sends a best-effort write and reports whether it succeeded.
func (c *Client) put(ctx context.Context, path string, body any) bool {
	resp, err := c.do(ctx, http.MethodPut, path, body)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	// Drain body to allow connection reuse
	_, _ = io.Copy(io.Discard, resp.Body)
	return true
}

// do performs a request and converts transport errors and non-2xx responses
// into wrapped sentinel errors. Failures are logged here so that callers
// only decide what to do next.
func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			c.logger.Error("gateway request error", "method", method, "path", path, "error", err)
			return nil, fmt.Errorf("%w: encoding body: %w", ErrRequestFailed, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		c.logger.Error("gateway request error", "method", method, "path", path, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("gateway no response", "method", method, "path", path, "error", err)
		return nil, fmt.Errorf("%w: %s %s: %w", ErrRequestFailed, method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyExcerpt))
		resp.Body.Close()
		c.logger.Warn("gateway error response",
			"method", method,
			"path", path,
			"status", resp.StatusCode,
			"body", string(excerpt),
		)
		return nil, fmt.Errorf("%w: %s %s: status %d", ErrUnexpectedStatus, method, path, resp.StatusCode)
	}

	c.logger.Debug("gateway request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)
	return resp, nil
}
