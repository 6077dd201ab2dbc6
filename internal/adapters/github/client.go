// Package github is a small typed client for the GitHub REST API calls the
// award bots and board generators need.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/okian/questboard/pkg/logger"
	"github.com/okian/questboard/pkg/metrics"
)

// apiVersion pins the REST API version header.
const apiVersion = "2022-11-28"

const (
	defaultBaseURL   = "https://api.github.com"
	defaultUserAgent = "questboard"
	defaultTimeout   = 60 * time.Second

	// maxBodyBytes bounds how much of a response body is read.
	maxBodyBytes = 8 << 20
)

// Config holds configuration for creating a Client.
type Config struct {
	// BaseURL is the API root. Defaults to https://api.github.com and must
	// use HTTPS.
	BaseURL string

	// Token is sent as a bearer token. Required.
	Token string

	// UserAgent identifies the bot. Defaults to "questboard".
	UserAgent string

	// Timeout bounds every request, including reading the body.
	// Defaults to 60s.
	Timeout time.Duration

	// HTTPClient is used for all requests. Defaults to http.DefaultClient.
	HTTPClient *http.Client

	// Logger defaults to a discarding logger.
	Logger logger.Logger
}

// Client is a GitHub REST API client with token authentication and
// structured error handling. It never retries.
type Client struct {
	baseURL    string
	token      string
	userAgent  string
	timeout    time.Duration
	httpClient *http.Client
	logger     logger.Logger
}

// NewClient creates a client from cfg. It returns an error when the token
// is missing or the base URL is not HTTPS.
func NewClient(cfg Config) (*Client, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	if !strings.HasPrefix(baseURL, "https://") {
		return nil, fmt.Errorf("github: API client requires HTTPS (got %q)", baseURL)
	}
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, fmt.Errorf("github: no token configured")
	}

	c := &Client{
		baseURL:    baseURL,
		token:      cfg.Token,
		userAgent:  cfg.UserAgent,
		timeout:    cfg.Timeout,
		httpClient: cfg.HTTPClient,
		logger:     cfg.Logger,
	}
	if c.userAgent == "" {
		c.userAgent = defaultUserAgent
	}
	if c.timeout <= 0 {
		c.timeout = defaultTimeout
	}
	if c.httpClient == nil {
		c.httpClient = http.DefaultClient
	}
	if c.logger == nil {
		c.logger = logger.Nop()
	}
	return c, nil
}

// do executes one request against path (relative to the base URL) and
// returns the body. Non-2xx responses become *APIError.
func (c *Client) do(ctx context.Context, op, method, path string, requestBody any) ([]byte, error) {
	body, _, err := c.doURL(ctx, op, method, c.baseURL+path, requestBody)
	return body, err
}

// doURL is do for an absolute URL, also returning response headers so the
// page iterator can follow Link headers.
func (c *Client) doURL(ctx context.Context, op, method, url string, requestBody any) ([]byte, http.Header, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var bodyReader io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return nil, nil, fmt.Errorf("github: encoding request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, nil, fmt.Errorf("github: creating request: %w", err)
	}
	request.Header.Set("Authorization", "Bearer "+c.token)
	request.Header.Set("Accept", "application/vnd.github+json")
	request.Header.Set("X-GitHub-Api-Version", apiVersion)
	request.Header.Set("User-Agent", c.userAgent)
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	response, err := c.httpClient.Do(request)
	if err != nil {
		metrics.RecordTrackerRequest(op, "error", elapsedMs(start))
		return nil, nil, fmt.Errorf("github: %s %s: %w", method, url, err)
	}
	defer func() { _ = response.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(response.Body, maxBodyBytes))
	latency := elapsedMs(start)
	metrics.RecordTrackerRequest(op, strconv.Itoa(response.StatusCode), latency)
	if err != nil {
		return nil, nil, fmt.Errorf("github: reading response body: %w", err)
	}

	c.logger.Debug(ctx, "github request",
		logger.String("operation", op),
		logger.String("method", method),
		logger.Int("status", response.StatusCode),
		logger.Any("latency_ms", latency),
	)

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return nil, nil, parseAPIError(response.StatusCode, body)
	}
	return body, response.Header, nil
}

func (c *Client) get(ctx context.Context, op, path string, result any) error {
	body, err := c.do(ctx, op, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("github: decoding %s response: %w", op, err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, op, path string, requestBody, result any) error {
	body, err := c.do(ctx, op, http.MethodPost, path, requestBody)
	if err != nil {
		return err
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("github: decoding %s response: %w", op, err)
	}
	return nil
}

func elapsedMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}
