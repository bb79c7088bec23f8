package clients

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"media-aggregator/domain/apperror"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingParams struct {
	Key string `url:"key"`
}

type pingBody struct {
	Msg string `json:"msg"`
}

func TestGetJSON_DecodesAndSendsHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ping", r.URL.Path)
		assert.Equal(t, "abc", r.URL.Query().Get("key"))
		assert.Equal(t, "agent", r.Header.Get("User-Agent"))
		w.Write([]byte(`{"msg":"pong"}`))
	}))
	defer srv.Close()

	r := NewRequester("p", srv.URL+"/", "agent", NewHTTPClient(0), Resilience{})
	var out pingBody
	require.NoError(t, r.GetJSON(context.Background(), "/ping", pingParams{Key: "abc"}, &out))
	assert.Equal(t, "pong", out.Msg)
	assert.Nil(t, r.Limiter)
	assert.Nil(t, r.Breaker)
}

func TestGetJSON_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	r := NewRequester("p", srv.URL, "", NewHTTPClient(0), Resilience{})
	err := r.GetJSON(context.Background(), "/x", pingParams{}, &pingBody{})

	var upstream *apperror.UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, http.StatusBadGateway, upstream.Status)
	assert.ErrorIs(t, err, apperror.ErrUpstreamError)
}

func TestGetJSON_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	r := NewRequester("p", srv.URL, "", NewHTTPClient(0), Resilience{BreakerFailures: 2, BreakerOpenFor: time.Minute})
	require.NotNil(t, r.Breaker)

	for i := 0; i < 2; i++ {
		assert.Error(t, r.GetJSON(context.Background(), "/x", pingParams{}, &pingBody{}))
	}
	assert.Equal(t, gobreaker.StateOpen, r.Breaker.State())

	err := r.GetJSON(context.Background(), "/x", pingParams{}, &pingBody{})
	assert.ErrorIs(t, err, apperror.ErrUpstreamError)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGetJSON_ClientErrorsKeepBreakerClosed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	r := NewRequester("p", srv.URL, "", NewHTTPClient(0), Resilience{BreakerFailures: 1, BreakerOpenFor: time.Minute})
	for i := 0; i < 3; i++ {
		assert.Error(t, r.GetJSON(context.Background(), "/x", pingParams{}, &pingBody{}))
	}
	assert.Equal(t, gobreaker.StateClosed, r.Breaker.State())
}

func TestGetJSON_RateLimitWaitHonoursDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	r := NewRequester("p", srv.URL, "", NewHTTPClient(0), Resilience{RateLimit: 0.001, Burst: 1})
	require.NotNil(t, r.Limiter)
	require.NoError(t, r.GetJSON(context.Background(), "/x", pingParams{}, &pingBody{}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := r.GetJSON(ctx, "/x", pingParams{}, &pingBody{})
	assert.ErrorIs(t, err, apperror.ErrUpstreamTimeout)
}

func TestBreakerSuccess(t *testing.T) {
	assert.True(t, breakerSuccess(nil))
	assert.True(t, breakerSuccess(context.Canceled))
	assert.True(t, breakerSuccess(apperror.NewUpstreamError("p", http.StatusBadRequest, "", nil)))
	assert.False(t, breakerSuccess(apperror.NewUpstreamError("p", http.StatusTooManyRequests, "", nil)))
	assert.False(t, breakerSuccess(apperror.NewUpstreamError("p", 0, "transport failure", errors.New("dial"))))
	assert.False(t, breakerSuccess(apperror.ErrUpstreamTimeout))
}
