// Package server provides the HTTP REST API for the cvision backend.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/emposo/cvision/internal/analysis"
	"github.com/emposo/cvision/internal/chat"
	"github.com/emposo/cvision/internal/employees"
	"github.com/emposo/cvision/internal/matching"
	"github.com/emposo/cvision/internal/search"
	"github.com/emposo/cvision/internal/server/middleware"
	"github.com/emposo/cvision/internal/server/ratelimit"
)

// Config holds server configuration.
type Config struct {
	Port        int
	AppVersion  string
	CORSOrigins []string
}

// Services are the collaborators behind the API. Employees may be nil when
// no directory database is configured; its endpoints then report the service
// unavailable instead of failing startup.
type Services struct {
	Matcher   *matching.Matcher
	Analyzer  *analysis.Analyzer
	Chat      *chat.Streamer
	Searcher  search.Searcher
	Employees *employees.Store
	Auth      middleware.TokenValidator
}

// Server is the HTTP server.
type Server struct {
	httpServer  *http.Server
	cfg         Config
	services    Services
	rateLimiter *ratelimit.Limiter
	logger      *zap.Logger
}

// New creates a server instance with its routes and middleware chain.
func New(cfg Config, services Services, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		cfg:         cfg,
		services:    services,
		rateLimiter: ratelimit.NewLimiter(ratelimit.LoadConfig()),
		logger:      logger,
	}

	protect := middleware.Auth(services.Auth)
	mux := http.NewServeMux()

	// Lastenheft pipeline
	mux.Handle("POST /api/v1/lastenheft/upload", protect(http.HandlerFunc(s.handleLastenheftUpload)))
	mux.Handle("POST /api/v1/lastenheft/text", protect(http.HandlerFunc(s.handleLastenheftText)))
	mux.Handle("POST /api/v1/lastenheft/analyze", protect(http.HandlerFunc(s.handleLastenheftAnalyze)))
	mux.Handle("POST /api/v1/lastenheft/match", protect(http.HandlerFunc(s.handleLastenheftMatch)))

	// Employee chat
	mux.Handle("POST /api/v1/chat/stream", protect(http.HandlerFunc(s.handleChatStream)))

	// Employee directory
	mux.Handle("GET /api/v1/employees", protect(http.HandlerFunc(s.handleListEmployees)))
	mux.Handle("GET /api/v1/employees/{alias}", protect(http.HandlerFunc(s.handleGetEmployee)))

	// Health
	mux.HandleFunc("GET /api/v1/health", s.handleHealth)
	mux.HandleFunc("GET /api/v1/health/ready", s.handleReady)
	mux.Handle("GET /api/v1/health/protected", protect(http.HandlerFunc(s.handleHealthProtected)))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withRateLimit(s.withLogging(s.withCORS(mux))),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // Long timeout for event streams
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start begins listening for requests and blocks until shutdown.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		s.logger.Info("server starting", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-stop
	s.logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.rateLimiter.Stop()
	s.logger.Info("server stopped")
	return nil
}

// Handler returns the full middleware-wrapped handler (for tests).
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// withCORS adds CORS headers for the configured origins.
func (s *Server) withCORS(next http.Handler) http.Handler {
	allowed := make(map[string]bool, len(s.cfg.CORSOrigins))
	for _, origin := range s.cfg.CORSOrigins {
		allowed[origin] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); allowed[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit rejects clients exceeding their endpoint budget.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.rateLimiter.Allow(clientID(r), r.URL.Path, r.Method) {
			s.errorResponse(w, http.StatusTooManyRequests, "Rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withLogging logs each request with a generated request ID.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		w.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(w, r)

		s.logger.Info("request",
			zap.String("request_id", requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote", r.RemoteAddr),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func clientID(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i > 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host := r.RemoteAddr
	if i := strings.LastIndexByte(host, ':'); i > 0 {
		host = host[:i]
	}
	return host
}

// jsonResponse writes a JSON response.
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode json response", zap.Error(err))
	}
}

// errorResponse writes an error JSON response.
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}
