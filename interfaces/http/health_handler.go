package http

import (
	"net/http"

	"media-aggregator/usecase"

	"github.com/gin-gonic/gin"
)

type IHealthHandler interface {
	Healthz(ctx *gin.Context)
}

type HealthHandler struct {
	mediaUsecase usecase.IMediaUsecase
}

func NewHealthHandler(mediaUsecase usecase.IMediaUsecase) IHealthHandler {
	return &HealthHandler{mediaUsecase: mediaUsecase}
}

// Healthz returns OK for health checks
func (h *HealthHandler) Healthz(ctx *gin.Context) {
	stats := h.mediaUsecase.Stats()
	ctx.JSON(http.StatusOK, gin.H{"status": "ok", "memoryEntries": stats.MemorySize})
}
