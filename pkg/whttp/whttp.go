package whttp

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/shopadmin-cli/shopadmin/internal/utils"
	"golang.org/x/time/rate"
)

const (
	USER_AGENT = "shopadmin/1.0 (+https://github.com/shopadmin-cli/shopadmin)"

	DefaultRateLimit = 2.0
	DefaultRetryMax  = 3
	DefaultTimeout   = 60 * time.Second
)

type WHTTPHeader struct {
	Name  string
	Value string
}

type WHTTPReq struct {
	URL     string
	Method  string
	Headers []WHTTPHeader
	Body    []byte
}

type WHTTPRes struct {
	StatusCode     int
	ResponseLength int
	BodyString     string
	Header         http.Header
}

// Client sends requests one at a time through a retrying transport and a
// client-side limiter.
type Client struct {
	retry   *retryablehttp.Client
	limiter *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithRateLimit caps outgoing requests per second. Zero or less disables the limiter.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithRetryMax sets how many times a failed request is retried.
func WithRetryMax(n int) Option {
	return func(c *Client) {
		c.retry.RetryMax = n
	}
}

// WithRetryWait bounds the backoff between retries.
func WithRetryWait(min, max time.Duration) Option {
	return func(c *Client) {
		c.retry.RetryWaitMin = min
		c.retry.RetryWaitMax = max
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.retry.HTTPClient = hc
	}
}

// WithProxy routes requests through an HTTP proxy. TLS verification is
// disabled so intercepting proxies work.
func WithProxy(proxyURL *url.URL) Option {
	return func(c *Client) {
		c.retry.HTTPClient.Transport = &http.Transport{
			Proxy:           http.ProxyURL(proxyURL),
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
}

// NewClient builds a Client with the default retry and rate limit policy.
func NewClient(opts ...Option) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.Logger = retryLogger{}
	retryClient.RetryMax = DefaultRetryMax
	retryClient.HTTPClient.Timeout = DefaultTimeout
	retryClient.CheckRetry = retryPolicy
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	c := &Client{
		retry:   retryClient,
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Throttling must reach the caller untouched, so 429 is never retried here.
func retryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if resp != nil && resp.StatusCode == http.StatusTooManyRequests {
		return false, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

func (c *Client) Send(ctx context.Context, wReq *WHTTPReq) (*WHTTPRes, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	var body io.Reader
	if len(wReq.Body) > 0 {
		body = bytes.NewReader(wReq.Body)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, wReq.Method, wReq.URL, body)
	if err != nil {
		return nil, err
	}

	// Set common headers
	req.Header.Set("User-Agent", USER_AGENT)
	req.Header.Set("Accept", "application/json")
	if len(wReq.Body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}

	// Set custom headers
	for _, h := range wReq.Headers {
		req.Header.Set(h.Name, h.Value)
	}

	resp, err := c.retry.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", wReq.Method, wReq.URL, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	return &WHTTPRes{
		StatusCode:     resp.StatusCode,
		ResponseLength: len(bodyBytes),
		BodyString:     string(bodyBytes),
		Header:         resp.Header,
	}, nil
}

type retryLogger struct{}

func (retryLogger) Printf(format string, args ...interface{}) {
	utils.Log.Debugf(format, args...)
}
