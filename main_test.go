package main

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"media-aggregator/infrastructure/cache"
	"media-aggregator/infrastructure/configuration"
)

func TestInitiateCacheStore(t *testing.T) {
	ctx := context.Background()

	store, closeStore, err := InitiateCacheStore(ctx, configuration.Cache{Driver: "none"})
	require.NoError(t, err)
	assert.Nil(t, store)
	closeStore()

	store, closeStore, err = InitiateCacheStore(ctx, configuration.Cache{Driver: "file", FileDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &cache.FileStore{}, store)
	closeStore()

	_, _, err = InitiateCacheStore(ctx, configuration.Cache{Driver: "tape"})
	assert.Error(t, err)
}

type countingPurger struct {
	calls  atomic.Int32
	before atomic.Value
}

func (p *countingPurger) PurgeExpired(_ context.Context, before time.Time) (int64, error) {
	p.calls.Add(1)
	p.before.Store(before)
	return 1, nil
}

func TestPurgeOnce(t *testing.T) {
	p := &countingPurger{}
	purgeOnce(context.Background(), p, 24*time.Hour)

	assert.Equal(t, int32(1), p.calls.Load())
	before := p.before.Load().(time.Time)
	assert.WithinDuration(t, time.Now().Add(-24*time.Hour), before, time.Minute)
}

func TestRunPurge(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := &countingPurger{}

	done := make(chan error, 1)
	go func() { done <- runPurge(ctx, p, "@every 1s", time.Hour) }()

	assert.Eventually(t, func() bool { return p.calls.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)
	cancel()
	assert.NoError(t, <-done)
}

func TestRunPurge_InvalidSchedule(t *testing.T) {
	err := runPurge(context.Background(), &countingPurger{}, "every hour", time.Hour)
	assert.Error(t, err)
}

func TestServeHTTP_ReturnsWhenShutdownCameFirst(t *testing.T) {
	srv := newHTTPServer(0, http.NotFoundHandler())
	require.NoError(t, srv.Shutdown(context.Background()))

	done := make(chan error, 1)
	go func() { done <- serveHTTP(srv, configuration.App{}) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("serveHTTP kept running after Shutdown")
	}
}
