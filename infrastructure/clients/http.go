// Package clients holds the upstream provider clients and the JSON-over-HTTP
// plumbing they share.
package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-querystring/query"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"media-aggregator/domain/apperror"
	"media-aggregator/infrastructure/logger"
)

// maxBodyBytes caps how much of an upstream response is read.
const maxBodyBytes = 64 << 20

// NewHTTPClient returns the client used for provider calls. The per-attempt
// deadline comes from the caller's context; timeout is a safety net.
func NewHTTPClient(timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = 16
	return &http.Client{Timeout: timeout, Transport: transport}
}

// Resilience configures client-side protection of one provider. RateLimit
// is in requests per second; BreakerFailures consecutive failures open the
// circuit for BreakerOpenFor. Zero values disable the matching guard.
type Resilience struct {
	RateLimit       float64
	Burst           int
	BreakerFailures int
	BreakerOpenFor  time.Duration
}

// Requester issues GET requests against one provider base URL. Limiter and
// Breaker are optional.
type Requester struct {
	Provider  string
	BaseURL   string
	UserAgent string
	Client    *http.Client
	Limiter   *rate.Limiter
	Breaker   *gobreaker.CircuitBreaker
}

// NewRequester creates a Requester guarded as res describes.
func NewRequester(provider, baseURL, userAgent string, client *http.Client, res Resilience) *Requester {
	r := &Requester{Provider: provider, BaseURL: baseURL, UserAgent: userAgent, Client: client}
	if res.RateLimit > 0 {
		burst := res.Burst
		if burst < 1 {
			burst = 1
		}
		r.Limiter = rate.NewLimiter(rate.Limit(res.RateLimit), burst)
	}
	if res.BreakerFailures > 0 {
		r.Breaker = newBreaker(provider, uint32(res.BreakerFailures), res.BreakerOpenFor)
	}
	return r
}

func newBreaker(name string, failures uint32, openFor time.Duration) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     openFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.GetLogger().WithField("provider", name).WithField("from", from.String()).WithField("to", to.String()).Warn("Circuit breaker state changed")
		},
		IsSuccessful: breakerSuccess,
	})
}

// breakerSuccess counts client errors other than 429 as a live upstream.
func breakerSuccess(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var upstream *apperror.UpstreamError
	if errors.As(err, &upstream) {
		return upstream.Status >= 400 && upstream.Status < 500 && upstream.Status != http.StatusTooManyRequests
	}
	return false
}

// GetJSON sends GET {BaseURL}{path}?{params} and decodes the body into out.
// Non-2xx responses are returned as *apperror.UpstreamError; the body is
// still decoded when possible so callers can inspect the provider message.
func (r *Requester) GetJSON(ctx context.Context, path string, params any, out any) error {
	values, err := query.Values(params)
	if err != nil {
		return fmt.Errorf("encode %s query: %w", r.Provider, err)
	}
	endpoint := strings.TrimRight(r.BaseURL, "/") + path + "?" + values.Encode()

	if r.Limiter != nil {
		if err := r.Limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: %s %s: rate limit wait: %v", apperror.ErrUpstreamTimeout, r.Provider, path, err)
		}
	}
	if r.Breaker == nil {
		return r.get(ctx, path, endpoint, out)
	}
	_, err = r.Breaker.Execute(func() (interface{}, error) {
		return nil, r.get(ctx, path, endpoint, out)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return apperror.NewUpstreamError(r.Provider, 0, "circuit "+r.Breaker.State().String(), err)
	}
	return err
}

func (r *Requester) get(ctx context.Context, path, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build %s request: %w", r.Provider, err)
	}
	req.Header.Set("Accept", "application/json")
	if r.UserAgent != "" {
		req.Header.Set("User-Agent", r.UserAgent)
	}

	start := time.Now()
	resp, err := r.Client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %s %s: %v", apperror.ErrUpstreamTimeout, r.Provider, path, ctx.Err())
		}
		return apperror.NewUpstreamError(r.Provider, 0, "transport failure", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return apperror.NewUpstreamError(r.Provider, resp.StatusCode, "read body", err)
	}

	logger.GetLogger().
		WithField("provider", r.Provider).
		WithField("path", path).
		WithField("status", resp.StatusCode).
		WithField("elapsed", time.Since(start).String()).
		Debug("Upstream response")

	decodeErr := json.Unmarshal(body, out)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apperror.NewUpstreamError(r.Provider, resp.StatusCode, http.StatusText(resp.StatusCode), nil)
	}
	if decodeErr != nil {
		return apperror.NewUpstreamError(r.Provider, resp.StatusCode, "invalid JSON body", decodeErr)
	}
	return nil
}
