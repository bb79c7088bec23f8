package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"media-aggregator/domain/apperror"
	"media-aggregator/infrastructure/logger"
)

const (
	DefaultMaxAge       = 7 * 24 * time.Hour
	DefaultFetchTimeout = 30 * time.Second
	DefaultMaxAttempts  = 3
	DefaultBackoffBase  = time.Second
)

// FetcherConfig configures a Fetcher. Zero values take the defaults.
type FetcherConfig struct {
	FetchTimeout time.Duration
	MaxAttempts  int
	BackoffBase  time.Duration
	// Coalesce shares one in-flight fetch between concurrent misses on the same key.
	Coalesce bool
}

// Fetcher resolves keys through the cache, the upstream fetch (with
// timeout and retries), stale tier-2 data and finally a fallback value.
type Fetcher struct {
	cache       *TieredCache
	timeout     time.Duration
	maxAttempts int
	backoffBase time.Duration
	coalesce    bool
	sleep       func(context.Context, time.Duration)

	group singleflight.Group

	mu         sync.Mutex
	refreshing map[string]struct{}
	wg         sync.WaitGroup
	bgCtx      context.Context
	bgCancel   context.CancelFunc
}

// NewFetcher creates a Fetcher over cache.
func NewFetcher(cache *TieredCache, cfg FetcherConfig) *Fetcher {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultFetchTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = DefaultBackoffBase
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Fetcher{
		cache:       cache,
		timeout:     cfg.FetchTimeout,
		maxAttempts: cfg.MaxAttempts,
		backoffBase: cfg.BackoffBase,
		coalesce:    cfg.Coalesce,
		sleep:       sleepContext,
		refreshing:  make(map[string]struct{}),
		bgCtx:       ctx,
		bgCancel:    cancel,
	}
}

// Cache returns the cache the fetcher reads and writes.
func (f *Fetcher) Cache() *TieredCache {
	return f.cache
}

// Wait blocks until every scheduled background refresh has finished.
func (f *Fetcher) Wait() {
	f.wg.Wait()
}

// Close cancels running background refreshes and waits for them.
func (f *Fetcher) Close() {
	f.bgCancel()
	f.wg.Wait()
}

type resolveOptions struct {
	maxAge       time.Duration
	allowStale   bool
	forceRefresh bool
}

// ResolveOption customises a single Resolve call.
type ResolveOption func(*resolveOptions)

// WithMaxAge sets the time to live of a freshly fetched value.
func WithMaxAge(d time.Duration) ResolveOption {
	return func(o *resolveOptions) { o.maxAge = d }
}

// WithoutStale disables serving expired tier-2 data when every attempt fails.
func WithoutStale() ResolveOption {
	return func(o *resolveOptions) { o.allowStale = false }
}

// WithForceRefresh skips the cache lookup and always fetches.
func WithForceRefresh() ResolveOption {
	return func(o *resolveOptions) { o.forceRefresh = true }
}

// FetchFunc produces a value from upstream. It must honour ctx.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Resolve returns the value for key, in this order:
//
//  1. a fresh cache entry (unless WithForceRefresh);
//  2. the result of fetch, stored with the configured max age;
//  3. up to MaxAttempts attempts with exponential backoff between them;
//  4. an expired tier-2 entry, scheduling one background refresh for key;
//  5. fallback, when non-nil;
//  6. a *apperror.DataUnavailableError.
//
// apperror.ErrNotFound from fetch is returned at once. An empty result is
// returned without being cached.
func Resolve[T any](ctx context.Context, f *Fetcher, key string, fetch FetchFunc[T], fallback *T, opts ...ResolveOption) (T, error) {
	var zero T

	o := resolveOptions{maxAge: DefaultMaxAge, allowStale: true}
	for _, opt := range opts {
		opt(&o)
	}

	raw := func(ctx context.Context) ([]byte, bool, error) {
		v, err := fetch(ctx)
		if err != nil {
			return nil, false, err
		}
		data, err := json.Marshal(v)
		if err != nil {
			return nil, false, fmt.Errorf("encode %s: %w", key, err)
		}
		return data, isEmpty(v), nil
	}

	var fallbackRaw []byte
	if fallback != nil {
		data, err := json.Marshal(fallback)
		if err != nil {
			return zero, fmt.Errorf("encode fallback for %s: %w", key, err)
		}
		fallbackRaw = data
	}

	// Only the fetch timeout bounds an attempt; callers cannot cancel one.
	data, err := f.resolve(context.WithoutCancel(ctx), key, raw, fallbackRaw, o)
	if err != nil {
		return zero, err
	}

	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return zero, fmt.Errorf("decode %s: %w", key, err)
	}
	return out, nil
}

type rawFetch func(ctx context.Context) (data []byte, empty bool, err error)

type fetchResult struct {
	data  []byte
	empty bool
}

func (f *Fetcher) resolve(ctx context.Context, key string, fetch rawFetch, fallback []byte, o resolveOptions) ([]byte, error) {
	if !o.forceRefresh {
		if entry, ok := f.cache.Get(ctx, key); ok {
			return entry.Data, nil
		}
	}

	var (
		res fetchResult
		err error
	)
	if f.coalesce {
		v, sfErr, _ := f.group.Do(key, func() (any, error) {
			return f.fetchWithRetry(ctx, key, fetch, o.maxAge)
		})
		err = sfErr
		if v != nil {
			res = v.(fetchResult)
		}
	} else {
		res, err = f.fetchWithRetry(ctx, key, fetch, o.maxAge)
	}
	if err == nil {
		return res.data, nil
	}
	if apperror.IsNotFound(err) {
		return nil, err
	}

	if o.allowStale {
		if entry, ok := f.cache.GetStale(ctx, key); ok {
			f.cache.stats.staleHits.Add(1)
			logger.GetLogger().WithField("key", key).WithField("storedAt", entry.StoredAt).Warn("Serving stale data after fetch failure")
			f.scheduleRefresh(key, fetch, o.maxAge)
			return entry.Data, nil
		}
	}

	if fallback != nil {
		f.cache.stats.fallbackHits.Add(1)
		logger.GetLogger().WithField("key", key).WithField("error", err).Warn("Serving fallback value after fetch failure")
		return fallback, nil
	}

	var unavailable *apperror.DataUnavailableError
	if errors.As(err, &unavailable) {
		return nil, err
	}
	return nil, &apperror.DataUnavailableError{Key: key, Attempts: f.maxAttempts, Last: err}
}

// fetchWithRetry runs up to maxAttempts attempts. A non-empty success is
// written to the cache before it is returned.
func (f *Fetcher) fetchWithRetry(ctx context.Context, key string, fetch rawFetch, maxAge time.Duration) (fetchResult, error) {
	var (
		lastErr error
		made    int
	)
	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		made = attempt
		res, err := f.attempt(ctx, key, fetch)
		if err == nil {
			if !res.empty {
				f.cache.Set(ctx, key, res.data, maxAge)
			}
			return res, nil
		}
		if !apperror.IsRetryable(err) {
			return fetchResult{}, err
		}

		lastErr = err
		log := logger.GetLogger().WithField("key", key).WithField("attempt", attempt).WithField("error", err)
		if attempt < f.maxAttempts {
			delay := f.backoffBase << attempt
			log.WithField("retryIn", delay.String()).Warn("Fetch attempt failed")
			f.sleep(ctx, delay)
			if ctx.Err() != nil {
				break
			}
		} else {
			log.Error("Fetch attempt failed")
		}
	}
	return fetchResult{}, &apperror.DataUnavailableError{Key: key, Attempts: made, Last: lastErr}
}

// attempt runs fetch under the fetch timeout. A result arriving after the
// deadline is dropped.
func (f *Fetcher) attempt(ctx context.Context, key string, fetch rawFetch) (fetchResult, error) {
	f.cache.stats.fetchAttempts.Add(1)

	actx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	type outcome struct {
		res fetchResult
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		data, empty, err := fetch(actx)
		done <- outcome{res: fetchResult{data: data, empty: empty}, err: err}
	}()

	select {
	case out := <-done:
		return out.res, out.err
	case <-actx.Done():
		return fetchResult{}, fmt.Errorf("%w: %s after %s", apperror.ErrUpstreamTimeout, key, f.timeout)
	}
}

// scheduleRefresh starts one detached refresh for key unless one is
// already running.
func (f *Fetcher) scheduleRefresh(key string, fetch rawFetch, maxAge time.Duration) {
	f.mu.Lock()
	if _, running := f.refreshing[key]; running {
		f.mu.Unlock()
		return
	}
	f.refreshing[key] = struct{}{}
	f.wg.Add(1)
	f.mu.Unlock()

	go func() {
		defer f.wg.Done()
		defer func() {
			f.mu.Lock()
			delete(f.refreshing, key)
			f.mu.Unlock()
		}()

		_, err := f.resolve(f.bgCtx, key, fetch, nil, resolveOptions{maxAge: maxAge, forceRefresh: true})
		if err != nil {
			logger.GetLogger().WithField("key", key).WithField("error", err).Warn("Background refresh failed")
			return
		}
		logger.GetLogger().WithField("key", key).Info("Background refresh completed")
	}()
}

func sleepContext(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func isEmpty(v any) bool {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return true
	}
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	case reflect.Slice, reflect.Map, reflect.String:
		return rv.Len() == 0
	}
	return false
}
