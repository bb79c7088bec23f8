package server

import (
	"net/http"
	"slices"
	"time"

	httpHandler "media-aggregator/interfaces/http"
	"media-aggregator/interfaces/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func InitiateRouter(
	mediaHandler httpHandler.IMediaHandler,
	healthHandler httpHandler.IHealthHandler,
	corsOrigins []string,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger())
	router.Use(cors.New(corsConfig(corsOrigins)))

	router.GET("/healthz", healthHandler.Healthz)

	api := router.Group("api")
	{
		api.GET("", mediaHandler.Index)
		api.GET("/list", mediaHandler.List)
		api.GET("/rand", mediaHandler.Random)
		api.GET("/search", mediaHandler.Search)
		api.GET("/info", mediaHandler.Info)
		api.GET("/cache/stats", mediaHandler.CacheStats)
	}

	return router
}

// corsConfig allows every origin when origins is empty or contains "*".
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "X-Requested-With", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", "Cache-Control", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
