package marketplace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"mmDiagnosis/domain"
	"mmDiagnosis/pkg/logger"

	"github.com/pobyzaarif/goshortcute"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

const (
	defaultCallTimeout = 4 * time.Second
	defaultRPS         = 1.0
	// one keyword-relaxed round per marketplace goes out without queueing
	defaultBurst       = 5
	defaultMaxAttempts = 3
	defaultBaseDelay   = 200 * time.Millisecond
	defaultMaxDelay    = 2 * time.Second

	// bodies are truncated in error messages
	maxErrorBody = 512
)

type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: defaultMaxAttempts,
		BaseDelay:   defaultBaseDelay,
		MaxDelay:    defaultMaxDelay,
	}
}

// Config is shared by every marketplace client.
type Config struct {
	BaseURL     string
	AppID       string
	AffiliateID string

	// optional Basic credentials for gateways in front of the API
	BasicAuthUser     string
	BasicAuthPassword string

	CallTimeout time.Duration
	RPS         float64
	Burst       int
	Retry       RetryConfig
}

func (c Config) withDefaults() Config {
	if c.CallTimeout <= 0 {
		c.CallTimeout = defaultCallTimeout
	}
	if c.RPS <= 0 {
		c.RPS = defaultRPS
	}
	if c.Burst <= 0 {
		c.Burst = defaultBurst
	}
	def := DefaultRetryConfig()
	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = def.MaxAttempts
	}
	if c.Retry.BaseDelay <= 0 {
		c.Retry.BaseDelay = def.BaseDelay
	}
	if c.Retry.MaxDelay <= 0 {
		c.Retry.MaxDelay = def.MaxDelay
	}
	return c
}

// client performs rate limited, retried and circuit broken GET requests
// against one marketplace.
type client struct {
	mall    domain.Mall
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[[]byte]

	sleep func(ctx context.Context, d time.Duration) error
}

func newClient(mall domain.Mall, cfg Config) *client {
	cfg = cfg.withDefaults()
	name := string(mall)

	MarketplaceBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: 2,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= 0.6
		},
		// rejected requests say nothing about the marketplace's health
		IsSuccessful: func(err error) bool {
			return err == nil || IsFatal(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("marketplace circuit breaker state change",
				"mall", name,
				"from", from.String(),
				"to", to.String(),
			)
			MarketplaceBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})

	return &client{
		mall:    mall,
		cfg:     cfg,
		http:    &http.Client{},
		limiter: rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
		cb:      cb,
		sleep:   sleepContext,
	}
}

// get sends the request through the breaker and retries transient failures
// with exponential backoff and jitter.
func (c *client) get(ctx context.Context, params url.Values) ([]byte, error) {
	body, err := c.cb.Execute(func() ([]byte, error) {
		return c.withRetry(ctx, params)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			MarketplaceRequestsTotal.WithLabelValues(string(c.mall), "rejected").Inc()
			return nil, &TransientError{Err: err}
		}
		MarketplaceRequestsTotal.WithLabelValues(string(c.mall), "failure").Inc()
		return nil, err
	}

	MarketplaceRequestsTotal.WithLabelValues(string(c.mall), "success").Inc()
	return body, nil
}

func (c *client) withRetry(ctx context.Context, params url.Values) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= c.cfg.Retry.MaxAttempts; attempt++ {
		body, retryAfter, err := c.do(ctx, params)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if !IsTransient(err) || attempt == c.cfg.Retry.MaxAttempts {
			break
		}

		delay := c.backoff(attempt, retryAfter)
		logger.Debug("retrying marketplace request",
			"trace_id", logger.TraceIDFromContext(ctx),
			"mall", string(c.mall),
			"attempt", attempt,
			"delay", delay.String(),
			"error", err,
		)
		if err := c.sleep(ctx, delay); err != nil {
			return nil, &TransientError{Err: err}
		}
	}

	return nil, lastErr
}

func (c *client) do(ctx context.Context, params url.Values) ([]byte, time.Duration, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, &TransientError{Err: fmt.Errorf("rate limiter: %w", err)}
	}

	callCtx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
	defer cancel()

	endpoint := c.cfg.BaseURL + "?" + params.Encode()
	req, err := http.NewRequestWithContext(callCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, &FatalError{Err: fmt.Errorf("failed to build request: %w", err)}
	}
	req.Header.Add("Accept", "application/json")
	if c.cfg.BasicAuthUser != "" {
		basicAuth := goshortcute.StringtoBase64Encode(c.cfg.BasicAuthUser + ":" + c.cfg.BasicAuthPassword)
		req.Header.Add("Authorization", "Basic "+basicAuth)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, 0, &TransientError{Err: err}
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, 0, &TransientError{StatusCode: res.StatusCode, Err: fmt.Errorf("failed to read body: %w", err)}
	}

	if err := classify(res.StatusCode, truncate(string(body))); err != nil {
		return nil, retryAfter(res.Header.Get("Retry-After")), err
	}

	return body, 0, nil
}

// backoff doubles BaseDelay per attempt up to MaxDelay and applies +/-25%
// jitter. A server supplied Retry-After wins when it fits under MaxDelay.
func (c *client) backoff(attempt int, hint time.Duration) time.Duration {
	if hint > 0 && hint <= c.cfg.Retry.MaxDelay {
		return hint
	}

	d := c.cfg.Retry.BaseDelay << (attempt - 1)
	if d <= 0 || d > c.cfg.Retry.MaxDelay {
		d = c.cfg.Retry.MaxDelay
	}

	jitter := 0.75 + rand.Float64()*0.5
	return time.Duration(float64(d) * jitter)
}

func retryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}

func truncate(s string) string {
	if len(s) > maxErrorBody {
		return s[:maxErrorBody]
	}
	return s
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
