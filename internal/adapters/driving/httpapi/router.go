package httpapi

import (
	"github.com/gin-gonic/gin"
)

// NewRouter registers the API routes on a new engine.
func NewRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	api := router.Group("/api")
	{
		api.POST("/ingest", h.Ingest)
		api.GET("/search", h.Search)
		api.GET("/answer", h.Answer)
		api.GET("/stats", h.Stats)
		api.GET("/list-collections", h.ListCollections)
		api.GET("/health", h.Health)
	}

	return router
}
