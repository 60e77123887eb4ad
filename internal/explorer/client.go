package explorer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Mohsinsiddi/txdash/internal/chain"
	"github.com/Mohsinsiddi/txdash/internal/metrics"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the Etherscan V2 unified endpoint.
const DefaultBaseURL = "https://api.etherscan.io/v2/api"

const (
	defaultTimeout      = 12 * time.Second
	defaultRetryBackoff = 500 * time.Millisecond
	maxBodyBytes        = 32 << 20
)

// Source returns the raw transaction list for an address.
type Source interface {
	Fetch(ctx context.Context, credential, address string) (chain.RawRecords, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, credential, address string) (chain.RawRecords, error)

func (f SourceFunc) Fetch(ctx context.Context, credential, address string) (chain.RawRecords, error) {
	return f(ctx, credential, address)
}

// envelope is the Etherscan-compatible response wrapper. Result stays raw
// because a failed call returns a plain string where a successful one
// returns an array.
type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// Client calls the explorer's account/txlist endpoint.
type Client struct {
	baseURL string
	chainID int64
	http    *http.Client
	limiter *rate.Limiter
	retries uint64
	backoff time.Duration
	log     zerolog.Logger
	metrics *metrics.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithChainID adds the Etherscan V2 chainid parameter. Zero omits it.
func WithChainID(id int64) Option {
	return func(c *Client) { c.chainID = id }
}

// WithRateLimit caps outbound requests per second. Zero or less disables it.
func WithRateLimit(perSecond float64) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// WithRetries sets how many times a temporary network failure is retried,
// starting at backoff and doubling.
func WithRetries(n uint64, backoff time.Duration) Option {
	return func(c *Client) {
		c.retries = n
		if backoff > 0 {
			c.backoff = backoff
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithMetrics records fetch durations and failures into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient creates a Client for baseURL (DefaultBaseURL when empty).
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultTimeout},
		backoff: defaultRetryBackoff,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With().Str("component", "explorer").Logger()
	return c
}

// Fetch issues one txlist call for address, retrying temporary network
// failures. A status other than "1" is returned as *APIError, transport
// problems as *NetworkError. A successful response whose result is not an
// array yields an empty list.
func (c *Client) Fetch(ctx context.Context, credential, address string) (chain.RawRecords, error) {
	reqURL, err := c.txListURL(credential, address)
	if err != nil {
		return nil, err
	}

	expBackoff, err := retry.NewExponential(c.backoff)
	if err != nil {
		return nil, fmt.Errorf("configuring retry backoff: %w", err)
	}

	var recs chain.RawRecords
	err = retry.Do(ctx, retry.WithMaxRetries(c.retries, expBackoff), func(ctx context.Context) error {
		start := time.Now()
		r, err := c.fetchOnce(ctx, reqURL)
		c.metrics.ObserveFetch(time.Since(start), ErrorKind(err))
		if err != nil {
			var netErr *NetworkError
			if errors.As(err, &netErr) && netErr.Temporary() && ctx.Err() == nil {
				c.log.Debug().Err(err).Str("address", address).Msg("retrying txlist")
				return retry.RetryableError(err)
			}
			return err
		}
		recs = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return recs, nil
}

func (c *Client) fetchOnce(ctx context.Context, reqURL string) (chain.RawRecords, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &NetworkError{Detail: err.Error(), Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &NetworkError{Detail: err.Error(), Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &NetworkError{Detail: redact(err.Error()), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &NetworkError{
			Detail:     fmt.Sprintf("unexpected HTTP status %s", resp.Status),
			StatusCode: resp.StatusCode,
		}
	}

	var env envelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&env); err != nil {
		return nil, &NetworkError{
			Detail:     "parsing explorer response: " + err.Error(),
			StatusCode: resp.StatusCode,
			Err:        err,
		}
	}

	if env.Status != "1" {
		return nil, &APIError{Message: orDefault(env.Message, "Unknown error"), Result: resultText(env.Result)}
	}

	recs := chain.DecodeRecords(env.Result)
	if recs == nil {
		c.log.Warn().Str("result", resultText(env.Result)).Msg("txlist result is not a list")
		return chain.RawRecords{}, nil
	}
	return recs, nil
}

func (c *Client) txListURL(credential, address string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid explorer URL %q: %w", c.baseURL, err)
	}
	q := u.Query()
	if c.chainID != 0 && q.Get("chainid") == "" {
		q.Set("chainid", strconv.FormatInt(c.chainID, 10))
	}
	q.Set("module", "account")
	q.Set("action", "txlist")
	q.Set("address", address)
	q.Set("startblock", "0")
	q.Set("endblock", "99999999")
	q.Set("sort", "desc")
	q.Set("apikey", credential)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ErrorKind classifies a fetch error for metrics and logs: "network", "api",
// "other", or "" for nil.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return "network"
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return "api"
	}
	return "other"
}

// resultText renders a non-array result for error messages.
func resultText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// redact strips the apikey query value from URL-bearing error strings.
func redact(s string) string {
	idx := strings.Index(s, "apikey=")
	if idx < 0 {
		return s
	}
	end := strings.IndexAny(s[idx:], "&\" ")
	if end < 0 {
		return s[:idx] + "apikey=REDACTED"
	}
	return s[:idx] + "apikey=REDACTED" + s[idx+end:]
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
