package api

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"landing_ai_server/internal/bundle"
	"landing_ai_server/internal/pipeline"
	"landing_ai_server/internal/sse"
	"landing_ai_server/internal/store"
	"landing_ai_server/internal/types"
)

// eventBuffer is how far a run may get ahead of a slow stream consumer.
const eventBuffer = 16

// APIHandler holds dependencies for API endpoints.
type APIHandler struct {
	orchestrator *pipeline.Orchestrator
	pages        store.PageStore
}

// NewAPIHandler initializes a new API handler with its dependencies.
func NewAPIHandler(orchestrator *pipeline.Orchestrator, pages store.PageStore) *APIHandler {
	return &APIHandler{
		orchestrator: orchestrator,
		pages:        pages,
	}
}

// --- Structs for API Requests/Responses ---

type GenerateRequest struct {
	Input string `json:"input"`
}

type ComposeRequest struct {
	HTML string `json:"html"`
	CSS  string `json:"css"`
	JS   string `json:"js"`
}

// --- API Handlers ---

// POST /api/generate
func (h *APIHandler) Generate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Input) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing input"})
		return
	}

	log.Printf("Received generation request (%d chars)", len(req.Input))

	c.Header("Content-Type", "text/event-stream; charset=utf-8")
	c.Header("Cache-Control", "no-cache, no-transform")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	events := make(chan types.StreamEvent, eventBuffer)
	// The run outlives the request so a disconnect never loses the stored page.
	go h.orchestrator.Run(context.WithoutCancel(c.Request.Context()), req.Input, events)

	writer := sse.NewWriter(c.Writer)
	done := c.Request.Context().Done()
	for {
		select {
		case evt, ok := <-events:
			if !ok {
				return
			}
			if err := writer.WriteEvent(evt); err != nil {
				log.Printf("WARN: Failed to write stream event, dropping client: %v", err)
				go drain(events)
				return
			}
		case <-done:
			log.Println("Info: Client disconnected, generation continues in background.")
			go drain(events)
			return
		}
	}
}

func drain(events <-chan types.StreamEvent) {
	for range events {
	}
}

// GET /preview/:id
func (h *APIHandler) Preview(c *gin.Context) {
	page, found := h.pages.Get(c.Param("id"))
	if !found {
		c.HTML(http.StatusNotFound, "notfound.tmpl", nil)
		return
	}
	if strings.TrimSpace(page.HTML) == "" {
		c.HTML(http.StatusOK, "unavailable.tmpl", previewView{Title: page.Title})
		return
	}
	c.HTML(http.StatusOK, "preview.tmpl", previewView{Title: page.Title, Document: page.HTML})
}

// GET /api/pages/:id
func (h *APIHandler) GetPage(c *gin.Context) {
	page, found := h.pages.Get(c.Param("id"))
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Page not found"})
		return
	}
	c.JSON(http.StatusOK, page)
}

// POST /api/preview/compose
func (h *APIHandler) ComposePreview(c *gin.Context) {
	var req ComposeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.HTML) == "" && strings.TrimSpace(req.CSS) == "" && strings.TrimSpace(req.JS) == "" {
		c.HTML(http.StatusOK, "unavailable.tmpl", previewView{Title: "Live preview"})
		return
	}
	c.HTML(http.StatusOK, "preview.tmpl", previewView{
		Title:    "Live preview",
		Document: bundle.Compose(req.HTML, req.CSS, req.JS),
	})
}
