// file: internal/server/server.go
// version: 2.1.0
// guid: 8c9d0e1f-a2b3-4c4d-9e5f-6a7b8c9d0e1f

package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	ulid "github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jdfalk/bookmeta/internal/cache"
	"github.com/jdfalk/bookmeta/internal/metrics"
	"github.com/jdfalk/bookmeta/internal/providers"
	"github.com/jdfalk/bookmeta/internal/ranking"
	"github.com/jdfalk/bookmeta/internal/ratelimit"
	"github.com/jdfalk/bookmeta/internal/server/middleware"
	"github.com/jdfalk/bookmeta/internal/warmer"
)

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *gin.Engine

	chain  *providers.Chain
	store  *cache.Tiered
	ranker *ranking.Ranker
	warm   *warmer.Warmer

	searchTTL time.Duration
	isbnTTL   time.Duration
	authorTTL time.Duration
}

// Options wires the resolution dependencies into the server.
type Options struct {
	Chain   *providers.Chain
	Store   *cache.Tiered
	Ranker  *ranking.Ranker
	Limiter *ratelimit.Limiter
	Warmer  *warmer.Warmer

	SearchTTL time.Duration
	ISBNTTL   time.Duration
	AuthorTTL time.Duration
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// NewServer creates a new server instance
func NewServer(opts Options) *Server {
	router := gin.Default()

	// Set up middleware
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(requestIDMiddleware())

	// Register metrics (idempotent)
	metrics.Register()

	server := &Server{
		router:    router,
		chain:     opts.Chain,
		store:     opts.Store,
		ranker:    opts.Ranker,
		warm:      opts.Warmer,
		searchTTL: opts.SearchTTL,
		isbnTTL:   opts.ISBNTTL,
		authorTTL: opts.AuthorTTL,
	}
	if server.searchTTL <= 0 {
		server.searchTTL = 30 * 24 * time.Hour
	}
	if server.isbnTTL <= 0 {
		server.isbnTTL = 365 * 24 * time.Hour
	}
	if server.authorTTL <= 0 {
		server.authorTTL = 7 * 24 * time.Hour
	}

	server.setupRoutes(opts.Limiter)

	return server
}

// Router exposes the underlying engine (for tests).
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start starts the HTTP server and blocks until shutdown.
func (s *Server) Start(cfg ServerConfig) error {
	s.httpServer = &http.Server{
		Addr:           fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Handler:        s.router,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: 1 << 20, // 1MB
	}

	go func() {
		log.Printf("Starting server on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("Server exited")
	return nil
}

// setupRoutes configures all the routes
func (s *Server) setupRoutes(limiter *ratelimit.Limiter) {
	// Prometheus metrics endpoint (standard path)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.GET("/health", s.healthCheck)

	// Resolution endpoints share the rate-limit budget
	resolved := s.router.Group("/")
	if limiter != nil {
		resolved.Use(middleware.RateLimit(limiter))
	}
	resolved.GET("/search", s.handleSearch)
	resolved.GET("/isbn", s.handleISBN)
	resolved.GET("/author", s.handleAuthor)

	// Operator-facing warming trigger; not rate limited
	s.router.POST("/warm", s.handleWarm)
}

// corsMiddleware adds CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// requestIDMiddleware attaches a ULID to every request for log correlation.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = ulid.Make().String()
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}
