// Package shopify talks to the Shopify Admin API. Every remote call of the daemon goes through Client.Execute,
// which spaces requests apart and retries rate limited or failed round trips.
package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/TarasYkv/shop-mirror-daemon/app/metrics"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	DefaultAPIVersion  = "2024-10"
	DefaultInterval    = 500 * time.Millisecond
	DefaultMaxAttempts = 3
	DefaultRetryBase   = time.Second
	DefaultTimeout     = 30 * time.Second
	ImageTimeout       = 120 * time.Second

	accessTokenHeader = "X-Shopify-Access-Token"
	maxBodySize       = 64 << 20
)

var (
	ErrUnexpectedStatus = errors.New("unexpected response status")
	ErrRateLimited      = errors.New("rate limited")
)

// Doer issues a single paced request. Client is the production implementation.
type Doer interface {
	Execute(ctx context.Context, method string, rawURL string, opts ...RequestOption) (*Response, error)
}

type Config struct {
	Shop        string
	BaseURL     string
	AccessToken string
	APIVersion  string
	Interval    time.Duration
	MaxAttempts int
	RetryBase   time.Duration
	Timeout     time.Duration
	HTTPClient  *http.Client
}

type Client struct {
	base        *url.URL
	token       string
	maxAttempts int
	retryBase   time.Duration
	timeout     time.Duration
	limiter     *rate.Limiter
	httpClient  *http.Client
	logger      *zap.SugaredLogger
}

func NewClient(cfg Config, logger *zap.SugaredLogger) (*Client, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		if cfg.Shop == "" {
			return nil, errors.New("shop domain is required")
		}
		baseURL = "https://" + strings.TrimSuffix(cfg.Shop, "/")
	}
	version := cfg.APIVersion
	if version == "" {
		version = DefaultAPIVersion
	}
	base, err := url.Parse(strings.TrimSuffix(baseURL, "/") + "/admin/api/" + version + "/")
	if err != nil {
		return nil, fmt.Errorf("invalid shop url %s: %w", baseURL, err)
	}

	limit := rate.Inf
	if cfg.Interval > 0 {
		limit = rate.Every(cfg.Interval)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	c := &Client{
		base:        base,
		token:       cfg.AccessToken,
		maxAttempts: cfg.MaxAttempts,
		retryBase:   cfg.RetryBase,
		timeout:     cfg.Timeout,
		limiter:     rate.NewLimiter(limit, 1),
		httpClient:  httpClient,
		logger:      logger.With(zap.String("component", "shopify-client")),
	}
	if c.maxAttempts <= 0 {
		c.maxAttempts = DefaultMaxAttempts
	}
	if c.retryBase <= 0 {
		c.retryBase = DefaultRetryBase
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	return c, nil
}

type requestOptions struct {
	timeout time.Duration
	body    []byte
	headers map[string]string
	err     error
}

type RequestOption func(*requestOptions)

func WithTimeout(d time.Duration) RequestOption {
	return func(o *requestOptions) { o.timeout = d }
}

// WithJSONBody marshals v as the request body. A marshal failure surfaces from Execute.
func WithJSONBody(v any) RequestOption {
	return func(o *requestOptions) {
		o.body, o.err = json.Marshal(v)
	}
}

func WithHeader(key, value string) RequestOption {
	return func(o *requestOptions) { o.headers[key] = value }
}

type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}

// StatusError is returned for non 2xx responses by the helpers built on Execute.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	body := e.Body
	if len(body) > 300 {
		body = body[:300] + "..."
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.StatusCode, body)
}

func (e *StatusError) Unwrap() []error {
	if e.StatusCode == http.StatusTooManyRequests {
		return []error{ErrUnexpectedStatus, ErrRateLimited}
	}
	return []error{ErrUnexpectedStatus}
}

func (e *StatusError) IsClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// Mentions reports whether the response body contains word, ignoring case.
func (e *StatusError) Mentions(word string) bool {
	return strings.Contains(strings.ToLower(e.Body), strings.ToLower(word))
}

// CheckStatus turns a non 2xx response into a *StatusError.
func CheckStatus(method, rawURL string, resp *Response) error {
	if resp.OK() {
		return nil
	}
	return &StatusError{Method: method, URL: rawURL, StatusCode: resp.StatusCode, Body: string(resp.Body)}
}

// Resolve turns an API relative path such as "products.json" into an absolute URL. Absolute URLs pass through.
func (c *Client) Resolve(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url %s: %w", rawURL, err)
	}
	return c.base.ResolveReference(u), nil
}

// Execute sends one request, waiting for the pacing limiter before each attempt. Rate limited responses and
// transport failures are retried with exponential backoff; when attempts run out the last 429 response or the
// last transport error is returned.
func (c *Client) Execute(ctx context.Context, method string, rawURL string, opts ...RequestOption) (*Response, error) {
	o := requestOptions{timeout: c.timeout, headers: map[string]string{}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", o.err)
	}
	target, err := c.Resolve(rawURL)
	if err != nil {
		return nil, err
	}

	var last *Response
	attempt := 0
	operation := func() error {
		attempt++
		last = nil
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		resp, err := c.do(ctx, method, target, o)
		if err != nil {
			metrics.ReportRequest(method, 0)
			return err
		}
		metrics.ReportRequest(method, resp.StatusCode)
		last = resp
		if resp.StatusCode == http.StatusTooManyRequests {
			return ErrRateLimited
		}
		return nil
	}
	notify := func(err error, wait time.Duration) {
		metrics.ReportRetry()
		c.logger.Warnw("retrying shopify request", "method", method, "url", target.Redacted(),
			"attempt", attempt, "wait", wait, "error", err)
	}

	err = backoff.RetryNotify(operation, c.newBackOff(ctx), notify)
	if last != nil {
		return last, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s %s failed after %d attempts: %w", method, target.Redacted(), attempt, err)
	}
	return nil, fmt.Errorf("%s %s: no response", method, target.Redacted())
}

func (c *Client) newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryBase
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = c.retryBase << c.maxAttempts
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.maxAttempts-1)), ctx)
}

func (c *Client) do(ctx context.Context, method string, target *url.URL, o requestOptions) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	var body io.Reader
	if o.body != nil {
		body = bytes.NewReader(o.body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if o.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	// the token must not leak to CDN hosts serving images
	if c.token != "" && target.Host == c.base.Host {
		req.Header.Set(accessTokenHeader, c.token)
	}
	for k, v := range o.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

// GetJSON fetches path and decodes a 2xx body into v.
func GetJSON(ctx context.Context, d Doer, path string, v any) error {
	resp, err := d.Execute(ctx, http.MethodGet, path)
	if err != nil {
		return err
	}
	if err := CheckStatus(http.MethodGet, path, resp); err != nil {
		return err
	}
	return resp.Decode(v)
}

// PostJSON sends body and decodes a 2xx response into v when v is not nil.
func PostJSON(ctx context.Context, d Doer, path string, body any, v any, opts ...RequestOption) error {
	opts = append([]RequestOption{WithJSONBody(body)}, opts...)
	resp, err := d.Execute(ctx, http.MethodPost, path, opts...)
	if err != nil {
		return err
	}
	if err := CheckStatus(http.MethodPost, path, resp); err != nil {
		return err
	}
	if v == nil {
		return nil
	}
	return resp.Decode(v)
}

// Download fetches a binary asset, typically an image on the Shopify CDN.
func Download(ctx context.Context, d Doer, rawURL string) ([]byte, error) {
	resp, err := d.Execute(ctx, http.MethodGet, rawURL, WithTimeout(ImageTimeout), WithHeader("Accept", "*/*"))
	if err != nil {
		return nil, err
	}
	if err := CheckStatus(http.MethodGet, rawURL, resp); err != nil {
		return nil, err
	}
	if len(resp.Body) == 0 {
		return nil, fmt.Errorf("empty body downloading %s", rawURL)
	}
	return resp.Body, nil
}
