package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"media-aggregator/domain/apperror"
	"media-aggregator/domain/dto"
	"media-aggregator/domain/model"
	httpHandler "media-aggregator/interfaces/http"
	"media-aggregator/server"
)

type MockMediaUsecase struct {
	mock.Mock
}

func (m *MockMediaUsecase) ListItems(ctx context.Context, page, perPage int) (*model.MediaPage, error) {
	args := m.Called(ctx, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MediaPage), args.Error(1)
}

func (m *MockMediaUsecase) RandomItems(ctx context.Context, page, perPage int) (*model.MediaPage, error) {
	args := m.Called(ctx, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MediaPage), args.Error(1)
}

func (m *MockMediaUsecase) SearchItems(ctx context.Context, query string, page, perPage int) (*model.MediaPage, error) {
	args := m.Called(ctx, query, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MediaPage), args.Error(1)
}

func (m *MockMediaUsecase) GetItemInfo(ctx context.Context, fileCode string) (*model.MediaItem, error) {
	args := m.Called(ctx, fileCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MediaItem), args.Error(1)
}

func (m *MockMediaUsecase) Stats() model.CacheStats {
	return m.Called().Get(0).(model.CacheStats)
}

func (m *MockMediaUsecase) ClearCache(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockMediaUsecase) WarmUp(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func newTestRouter(uc *MockMediaUsecase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return server.InitiateRouter(httpHandler.NewMediaHandler(uc), httpHandler.NewHealthHandler(uc), nil)
}

func serve(router *gin.Engine, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	router.ServeHTTP(w, req)
	return w
}

func samplePage(page, perPage, total int, codes ...string) *model.MediaPage {
	items := make([]model.MediaItem, 0, len(codes))
	for _, c := range codes {
		items = append(items, model.MediaItem{FileCode: c, Title: "Title " + c, Source: model.SourcePrimary})
	}
	return &model.MediaPage{Items: items, Page: page, PerPage: perPage, Total: total, TotalPages: (total + perPage - 1) / perPage}
}

func TestList(t *testing.T) {
	uc := new(MockMediaUsecase)
	uc.On("ListItems", mock.Anything, 2, 10).Return(samplePage(2, 10, 25, "a", "b"), nil)

	w := serve(newTestRouter(uc), "/api/list?page=2&per_page=10")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "public, max-age=86400, s-maxage=86400, stale-while-revalidate=2592000", w.Header().Get("Cache-Control"))

	var body dto.ListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 3, body.Result.TotalPages)
	assert.Equal(t, "25", body.Result.ResultsTotal)
	assert.Equal(t, 2, body.Result.Results)
	assert.Equal(t, "10", body.Result.PerPageLimit)
	assert.Equal(t, "OK", body.Msg)
	assert.Len(t, body.Result.Files, 2)
}

func TestList_DefaultsAndEmpty(t *testing.T) {
	uc := new(MockMediaUsecase)
	uc.On("ListItems", mock.Anything, 1, 50).Return(&model.MediaPage{Page: 1, PerPage: 50}, nil)

	w := serve(newTestRouter(uc), "/api/list")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"files":[]`)
}

func TestList_InvalidPagination(t *testing.T) {
	uc := new(MockMediaUsecase)

	w := serve(newTestRouter(uc), "/api/list?page=0")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid page number")
	uc.AssertNotCalled(t, "ListItems", mock.Anything, mock.Anything, mock.Anything)
}

func TestRandom(t *testing.T) {
	uc := new(MockMediaUsecase)
	uc.On("RandomItems", mock.Anything, 1, 5).Return(samplePage(1, 5, 5, "x"), nil)

	w := serve(newTestRouter(uc), "/api/rand?per_page=5")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "public, max-age=3600, s-maxage=3600, stale-while-revalidate=2592000", w.Header().Get("Cache-Control"))
}

func TestSearch(t *testing.T) {
	uc := new(MockMediaUsecase)
	uc.On("SearchItems", mock.Anything, "red car", 1, 100).Return(samplePage(1, 100, 1, "c2"), nil)

	w := serve(newTestRouter(uc), "/api/search?q=%20red%20%20%20car%20")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "public, max-age=7200, s-maxage=7200, stale-while-revalidate=2592000", w.Header().Get("Cache-Control"))
	var body dto.ListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "red car", body.Result.Query)
}

func TestSearch_QueryValidation(t *testing.T) {
	uc := new(MockMediaUsecase)
	router := newTestRouter(uc)

	assert.Equal(t, http.StatusBadRequest, serve(router, "/api/search").Code)
	assert.Equal(t, http.StatusBadRequest, serve(router, "/api/search?q=a").Code)
	uc.AssertNotCalled(t, "SearchItems", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestInfo(t *testing.T) {
	uc := new(MockMediaUsecase)
	uc.On("GetItemInfo", mock.Anything, "abc123").
		Return(&model.MediaItem{FileCode: "abc123", Source: model.SourceSecondary}, nil)

	w := serve(newTestRouter(uc), "/api/info?file_code=abc%3C123%3E")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "public, max-age=2592000, s-maxage=2592000, stale-while-revalidate=2592000", w.Header().Get("Cache-Control"))
	var body dto.InfoResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Result, 1)
	assert.Equal(t, "abc123", body.Result[0].FileCode)
}

func TestInfo_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", apperror.ErrNotFound, http.StatusNotFound},
		{"unavailable", &apperror.DataUnavailableError{Key: "k", Attempts: 3}, http.StatusServiceUnavailable},
		{"other", assert.AnError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := new(MockMediaUsecase)
			uc.On("GetItemInfo", mock.Anything, "zzz").Return(nil, tt.err)

			w := serve(newTestRouter(uc), "/api/info?file_code=zzz")

			assert.Equal(t, tt.want, w.Code)
			assert.Empty(t, w.Header().Get("Cache-Control"))
		})
	}
}

func TestInfo_InvalidCode(t *testing.T) {
	w := serve(newTestRouter(new(MockMediaUsecase)), "/api/info?file_code=a!")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCacheStatsAndHealth(t *testing.T) {
	uc := new(MockMediaUsecase)
	uc.On("Stats").Return(model.CacheStats{MemoryHits: 4, TotalRequests: 8, HitRate: 50, MemorySize: 2})
	router := newTestRouter(uc)

	w := serve(router, "/api/cache/stats")
	require.Equal(t, http.StatusOK, w.Code)
	var body dto.StatsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, int64(4), body.Result.MemoryHits)
	assert.Equal(t, 50.0, body.Result.HitRate)

	w = serve(router, "/healthz")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","memoryEntries":2}`, w.Body.String())
}

func TestIndexAndCORS(t *testing.T) {
	router := newTestRouter(new(MockMediaUsecase))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api", nil)
	req.Header.Set("Origin", "https://example.org")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Contains(t, w.Body.String(), "/api/search")
}
