package main

import (
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/youclicker/backend/api/handlers"
	"github.com/youclicker/backend/internal/config"
	"github.com/youclicker/backend/internal/db"
	"github.com/youclicker/backend/internal/eventlog"
	"github.com/youclicker/backend/internal/registry"
	"github.com/youclicker/backend/internal/store"
	"github.com/youclicker/backend/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Ensure data directories exist
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		log.Fatalf("Failed to create database directory: %v", err)
	}
	if cfg.EventLogDir != "" {
		if err := os.MkdirAll(cfg.EventLogDir, 0755); err != nil {
			log.Fatalf("Failed to create event log directory: %v", err)
		}
	}

	// Initialize database
	database, err := db.InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.CloseDB()

	// Initialize question list store
	listRepo := store.NewQuestionListRepository(database)

	// Initialize session registry and broadcast router
	sessionRegistry := registry.New()
	router := ws.NewRouter()
	defer router.Close()

	// Initialize session event transcripts
	events := eventlog.NewManager(cfg.EventLogDir)
	defer events.Close()

	// Initialize WebSocket protocol handler
	wsHandler := ws.NewHandler(sessionRegistry, router, events)

	// Initialize handlers
	gate := handlers.NewAccessGate(cfg.AccessCode)
	sessionHandler := handlers.NewSessionHandler(sessionRegistry, gate)
	listHandler := handlers.NewQuestionListHandler(listRepo, gate)
	wsRouteHandler := handlers.NewWebSocketHandler(wsHandler)

	// Initialize Gin router
	r := gin.Default()

	// Enable CORS for development
	r.Use(corsMiddleware())

	// API routes
	api := r.Group("/api")
	{
		gate.RegisterRoutes(api)
		sessionHandler.RegisterRoutes(api)
		listHandler.RegisterRoutes(api)
	}

	// Channel transport
	wsRouteHandler.RegisterRoutes(r)

	// Static front-end assets
	if cfg.PublicDir != "" {
		if _, err := os.Stat(cfg.PublicDir); err == nil {
			r.Static("/app", cfg.PublicDir)
			r.StaticFile("/", filepath.Join(cfg.PublicDir, "index.html"))
		}
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("Shutting down server...")
		router.Close()
		events.Close()
		db.CloseDB()
		os.Exit(0)
	}()

	// Start server
	log.Printf("Starting server on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// corsMiddleware returns a CORS middleware for development.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-Access-Code, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
