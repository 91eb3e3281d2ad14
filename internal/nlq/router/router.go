// Package router registers the NLQ HTTP routes.
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/sentinel-nlq/internal/nlq/handler"
)

// Register mounts the API under /api.
func Register(r gin.IRouter, h *handler.NLQHandler) {
	logger.Info("Registering NLQ routes...")

	api := r.Group("/api")
	{
		api.POST("/connect-database", h.ConnectDatabase)
		api.GET("/schema", h.Schema)

		api.POST("/query", h.Query)
		api.GET("/query/history", h.History)

		api.POST("/upload-documents", h.UploadDocuments)
		api.GET("/ingestion-status/:job_id", h.IngestionStatus)
		api.GET("/ingestion/jobs", h.ListJobs)
	}
}
