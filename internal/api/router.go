package api

import (
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	"consumption-pipeline/internal/api/handler"
	"consumption-pipeline/pkg/router"

	_ "consumption-pipeline/docs"
)

// RegisterRoutes mounts the run-history API and its Swagger UI
func RegisterRoutes(r *router.Router, runs handler.RunReader, logger *zap.Logger) {
	h := handler.NewRunsHandler(runs, logger)

	r.GET("/health", h.Health)
	r.GET("/api/v1/runs", h.ListRuns)
	r.GET("/api/v1/tables", h.ListTables)
	// More specific routes first
	r.GET("/api/v1/runs/*/report", h.GetRunReport)
	r.GET("/api/v1/runs/*", h.GetRun)

	r.Handle("/swagger/*", httpSwagger.WrapHandler)
}
