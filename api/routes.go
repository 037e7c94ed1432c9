package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	handlers "landing_ai_server/internal/api"
)

// RegisterRoutes sets up the API endpoints and the preview pages.
func RegisterRoutes(router *gin.Engine, h *handlers.APIHandler) {
	router.SetHTMLTemplate(handlers.PageTemplates())

	// --- Generation ---
	apiGroup := router.Group("/api")
	{
		apiGroup.POST("/generate", h.Generate)             // Stream a generation run as SSE
		apiGroup.GET("/pages/:id", h.GetPage)              // Stored page as JSON
		apiGroup.POST("/preview/compose", h.ComposePreview) // Sandboxed preview of ad-hoc html/css/js
	}

	// --- Previews ---
	router.GET("/preview/:id", h.Preview)

	// --- Simple Health Check ---
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
