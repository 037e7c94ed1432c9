package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"landing_ai_server/api"
	"landing_ai_server/config"
	"landing_ai_server/internal/ai"
	handlers "landing_ai_server/internal/api"
	"landing_ai_server/internal/pipeline"
	"landing_ai_server/internal/store"
)

func main() {
	// --- Load .env file ---
	// Must happen before viper reads the environment.
	err := godotenv.Load()
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		} else {
			log.Println("Info: .env file not found, relying on system environment variables.")
		}
	} else {
		log.Println("Info: Loaded environment variables from .env file.")
	}

	// --- Configuration Loading ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("Cannot load config: %v", err)
	}

	if cfg.TraceStdout {
		shutdownTracer, err := initTracer()
		if err != nil {
			log.Fatalf("Failed to initialize tracer: %v", err)
		}
		defer shutdownTracer()
	}

	// --- Dependency Initialization ---
	pages := store.NewMemoryStore()

	aiGenerator := ai.NewGenerator(config.APIKey, cfg.GeminiModel, cfg.GeminiBaseURL, cfg.ImageFetchTimeout())

	opts := []pipeline.Option{pipeline.WithProgressDelay(cfg.ProgressDelay())}
	if cfg.ExportDir != "" {
		log.Printf("Info: Exporting generated bundles to %s", cfg.ExportDir)
		opts = append(opts, pipeline.WithExportDir(cfg.ExportDir))
	}
	orchestrator := pipeline.NewOrchestrator(aiGenerator, pages, opts...)

	apiHandler := handlers.NewAPIHandler(orchestrator, pages)

	// --- Start API Server ---
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
		log.Println("Running in Gin Debug Mode")
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	api.RegisterRoutes(router, apiHandler)

	server := &http.Server{
		Addr:        cfg.ServerAddress,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// No write timeout: generation streams stay open for the whole run.
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Printf("Starting API server on %s\n", cfg.ServerAddress)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("API server listen error: %s\n", err)
		}
		log.Println("API server has stopped listening.")
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Printf("Received signal: %s. Shutting down server...", sig)

	shutdownCtx, serverCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer serverCancel()

	log.Println("Shutting down API server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("API server forced shutdown error: %v", err)
	} else {
		log.Println("API server gracefully stopped.")
	}

	log.Printf("Application exiting. %d pages generated this session.", pages.Len())
}

// initTracer installs a stdout span exporter and returns its shutdown func.
func initTracer() (func(), error) {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(tp)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("WARN: Tracer shutdown failed: %v", err)
		}
	}, nil
}
