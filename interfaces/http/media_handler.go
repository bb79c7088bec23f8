package http

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"media-aggregator/domain/apperror"
	"media-aggregator/domain/dto"
	"media-aggregator/domain/model"
	"media-aggregator/infrastructure/logger"
	"media-aggregator/infrastructure/utils"
	"media-aggregator/usecase"

	"github.com/gin-gonic/gin"
)

// Browser and CDN cache lifetimes per route, in seconds.
const (
	listMaxAge   = 86400
	randMaxAge   = 3600
	searchMaxAge = 7200
	infoMaxAge   = 2592000

	staleWhileRevalidate = 2592000
)

type IMediaHandler interface {
	List(ctx *gin.Context)
	Random(ctx *gin.Context)
	Search(ctx *gin.Context)
	Info(ctx *gin.Context)
	CacheStats(ctx *gin.Context)
	Index(ctx *gin.Context)
}

type MediaHandler struct {
	mediaUsecase usecase.IMediaUsecase
	now          func() time.Time
}

func NewMediaHandler(mediaUsecase usecase.IMediaUsecase) IMediaHandler {
	return &MediaHandler{mediaUsecase: mediaUsecase, now: utils.GetCurrentTime}
}

// List serves GET /api/list?page=&per_page=
func (h *MediaHandler) List(ctx *gin.Context) {
	page, perPage, err := parsePagination(ctx.Query("page"), ctx.Query("per_page"), defaultPerPage)
	if err != nil {
		h.badRequest(ctx, err)
		return
	}

	res, err := h.mediaUsecase.ListItems(ctx.Request.Context(), page, perPage)
	if err != nil {
		h.fail(ctx, "list", err)
		return
	}
	setCacheHeaders(ctx, listMaxAge)
	ctx.JSON(http.StatusOK, h.listResponse(res, ""))
}

// Random serves GET /api/rand?page=&per_page=
func (h *MediaHandler) Random(ctx *gin.Context) {
	page, perPage, err := parsePagination(ctx.Query("page"), ctx.Query("per_page"), defaultPerPage)
	if err != nil {
		h.badRequest(ctx, err)
		return
	}

	res, err := h.mediaUsecase.RandomItems(ctx.Request.Context(), page, perPage)
	if err != nil {
		h.fail(ctx, "rand", err)
		return
	}
	setCacheHeaders(ctx, randMaxAge)
	ctx.JSON(http.StatusOK, h.listResponse(res, ""))
}

// Search serves GET /api/search?q=&page=&per_page=
func (h *MediaHandler) Search(ctx *gin.Context) {
	query, err := validateQuery(ctx.Query("q"))
	if err != nil {
		h.badRequest(ctx, err)
		return
	}
	page, perPage, err := parsePagination(ctx.Query("page"), ctx.Query("per_page"), defaultSearchPerPage)
	if err != nil {
		h.badRequest(ctx, err)
		return
	}

	res, err := h.mediaUsecase.SearchItems(ctx.Request.Context(), query, page, perPage)
	if err != nil {
		h.fail(ctx, "search", err)
		return
	}
	setCacheHeaders(ctx, searchMaxAge)
	ctx.JSON(http.StatusOK, h.listResponse(res, query))
}

// Info serves GET /api/info?file_code=
func (h *MediaHandler) Info(ctx *gin.Context) {
	code, err := validateFileCode(ctx.Query("file_code"))
	if err != nil {
		h.badRequest(ctx, err)
		return
	}

	item, err := h.mediaUsecase.GetItemInfo(ctx.Request.Context(), code)
	if err != nil {
		h.fail(ctx, "info", err)
		return
	}
	setCacheHeaders(ctx, infoMaxAge)
	ctx.JSON(http.StatusOK, dto.InfoResponse{
		Result:     []model.MediaItem{*item},
		Status:     http.StatusOK,
		Msg:        "OK",
		ServerTime: h.serverTime(),
	})
}

func (h *MediaHandler) CacheStats(ctx *gin.Context) {
	ctx.Header("Cache-Control", "no-store")
	ctx.JSON(http.StatusOK, dto.StatsResponse{
		Result:     h.mediaUsecase.Stats(),
		Status:     http.StatusOK,
		Msg:        "OK",
		ServerTime: h.serverTime(),
	})
}

// Index lists the available endpoints.
func (h *MediaHandler) Index(ctx *gin.Context) {
	setCacheHeaders(ctx, listMaxAge)
	ctx.JSON(http.StatusOK, gin.H{
		"msg":         "API Documentation",
		"status":      http.StatusOK,
		"server_time": h.serverTime(),
		"endpoints": []dto.Endpoint{
			{Method: http.MethodGet, Path: "/api/list", Description: "Paginated listing merged from both providers.",
				Params: map[string]string{"page": "page number, default 1", "per_page": "items per page, default 50"}},
			{Method: http.MethodGet, Path: "/api/rand", Description: "Primary catalogue in an order that changes every hour.",
				Params: map[string]string{"page": "page number, default 1", "per_page": "items per page, default 50"}},
			{Method: http.MethodGet, Path: "/api/search", Description: "Relevance-ranked search across both providers.",
				Params: map[string]string{"q": "search query, 2-100 characters", "page": "page number, default 1", "per_page": "items per page, default 100"}},
			{Method: http.MethodGet, Path: "/api/info", Description: "Details of a single item.",
				Params: map[string]string{"file_code": "item code, 3-50 characters of [A-Za-z0-9_-]"}},
			{Method: http.MethodGet, Path: "/api/cache/stats", Description: "Cache counters."},
		},
	})
}

func (h *MediaHandler) listResponse(res *model.MediaPage, query string) dto.ListResponse {
	files := res.Items
	if files == nil {
		files = []model.MediaItem{}
	}
	return dto.ListResponse{
		Result: dto.ListResult{
			TotalPages:   res.TotalPages,
			ResultsTotal: strconv.Itoa(res.Total),
			Results:      len(files),
			Files:        files,
			PerPageLimit: strconv.Itoa(res.PerPage),
			Query:        query,
		},
		Status:     http.StatusOK,
		Msg:        "OK",
		ServerTime: h.serverTime(),
	}
}

func (h *MediaHandler) serverTime() string {
	return h.now().Format(dto.ServerTimeLayout)
}

func (h *MediaHandler) badRequest(ctx *gin.Context, err error) {
	ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
}

func (h *MediaHandler) fail(ctx *gin.Context, route string, err error) {
	log := logger.GetLogger().WithField("route", route).WithField("error", err.Error())
	switch {
	case apperror.IsNotFound(err):
		ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "File not found"})
	case apperror.IsDataUnavailable(err):
		log.Warn("Data unavailable")
		ctx.Header("Retry-After", "60")
		ctx.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: "Data temporarily unavailable"})
	default:
		log.Error("Request failed")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to fetch data"})
	}
}

func setCacheHeaders(ctx *gin.Context, maxAge int) {
	ctx.Header("Cache-Control", fmt.Sprintf("public, max-age=%d, s-maxage=%d, stale-while-revalidate=%d", maxAge, maxAge, staleWhileRevalidate))
}
