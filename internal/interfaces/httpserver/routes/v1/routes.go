package v1

import (
	"github.com/gin-gonic/gin"

	"jan-server/services/quadchart-api/internal/interfaces/httpserver/handlers"
)

// Routes encapsulates versioned route registration.
type Routes struct {
	handlers *handlers.Provider
}

func NewRoutes(provider *handlers.Provider) *Routes {
	return &Routes{handlers: provider}
}

// Register attaches all v1 routes under /v1 prefix. Extra middleware (auth) applies to every route.
func (r *Routes) Register(router gin.IRouter, middleware ...gin.HandlerFunc) {
	public := router.Group("/v1")
	public.GET("/schemas", r.handlers.Schema.List)
	public.GET("/schemas/:name", r.handlers.Schema.Get)

	group := router.Group("/v1", middleware...)

	templates := group.Group("/templates")
	templates.GET("", r.handlers.Template.List)
	templates.POST("/upload", r.handlers.Template.Upload)
	templates.GET("/:id", r.handlers.Template.Get)
	templates.PUT("/:id", r.handlers.Template.Update)
	templates.DELETE("/:id", r.handlers.Template.Delete)
	templates.POST("/:id/clone", r.handlers.Template.Clone)
	templates.GET("/:id/history", r.handlers.Template.History)
	templates.POST("/:id/process", r.handlers.Template.Process)

	charts := group.Group("/quad-charts")
	charts.GET("", r.handlers.QuadChart.List)
	charts.POST("", r.handlers.QuadChart.Create)
	charts.POST("/batch/generate", r.handlers.QuadChart.GenerateBatch)
	charts.POST("/generate-sample", r.handlers.QuadChart.GenerateSample)
	charts.GET("/statistics", r.handlers.QuadChart.Statistics)
	charts.GET("/download/:filename", r.handlers.Artifact.Download)
	charts.GET("/:id", r.handlers.QuadChart.Get)
	charts.PUT("/:id", r.handlers.QuadChart.Update)
	charts.DELETE("/:id", r.handlers.QuadChart.Delete)
	charts.POST("/:id/generate-pptx", r.handlers.QuadChart.Generate)
	charts.GET("/:id/preview", r.handlers.QuadChart.Preview)
	charts.GET("/:id/download", r.handlers.QuadChart.Download)
	charts.POST("/:id/submit", r.handlers.QuadChart.Submit)
	charts.POST("/:id/approve", r.handlers.QuadChart.Approve)
	charts.POST("/:id/reject", r.handlers.QuadChart.Reject)
	charts.POST("/:id/comment", r.handlers.QuadChart.Comment)
	charts.GET("/:id/history", r.handlers.QuadChart.History)

	artifacts := group.Group("/artifacts")
	artifacts.GET("", r.handlers.Artifact.List)
	artifacts.DELETE("/:filename", r.handlers.Artifact.Delete)
}
