package server

import (
	"context"
	"net/http"
	"time"

	"github.com/emposo/cvision/internal/server/middleware"
)

const (
	statusOK            = "ok"
	statusError         = "error"
	statusNotConfigured = "not_configured"
	statusDegraded      = "degraded"
)

// handleHealth reports the status of each backing service. The endpoint is
// public so load balancers can probe it without a token.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	services := map[string]string{
		"search":   s.searchStatus(ctx),
		"database": s.databaseStatus(ctx),
		"llm":      s.llmStatus(),
	}

	overall := "healthy"
	for _, status := range services {
		if status == statusError {
			overall = statusDegraded
			break
		}
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":   overall,
		"version":  s.cfg.AppVersion,
		"services": services,
	})
}

// handleReady reports whether the server can accept traffic. Readiness only
// requires the search backend; the directory database is optional.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if s.searchStatus(ctx) == statusError {
		s.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleHealthProtected echoes the authenticated caller, used to verify
// token validation end to end.
func (s *Server) handleHealthProtected(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.GetUser(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status": statusOK,
		"user":   user,
	})
}

func (s *Server) searchStatus(ctx context.Context) string {
	if s.services.Searcher == nil {
		return statusNotConfigured
	}
	if err := s.services.Searcher.CheckConnection(ctx); err != nil {
		return statusError
	}
	return statusOK
}

func (s *Server) databaseStatus(ctx context.Context) string {
	if s.services.Employees == nil {
		return statusNotConfigured
	}
	if err := s.services.Employees.CheckConnection(ctx); err != nil {
		return statusError
	}
	return statusOK
}

func (s *Server) llmStatus() string {
	if s.services.Matcher == nil && s.services.Analyzer == nil && s.services.Chat == nil {
		return statusNotConfigured
	}
	return statusOK
}
