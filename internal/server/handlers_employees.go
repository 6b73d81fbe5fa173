package server

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// handleListEmployees returns a paginated slice of the employee directory.
func (s *Server) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	if s.services.Employees == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "Employee directory not configured")
		return
	}

	skip := queryInt(r, "skip", 0)
	limit := queryInt(r, "limit", defaultListLimit)
	if skip < 0 {
		skip = 0
	}
	if limit < 1 || limit > maxListLimit {
		limit = defaultListLimit
	}

	employees, err := s.services.Employees.List(r.Context(), skip, limit)
	if err != nil {
		s.logger.Error("employee list failed", zap.Error(err))
		s.errorResponse(w, http.StatusInternalServerError, "Failed to list employees")
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"employees": employees,
		"skip":      skip,
		"limit":     limit,
		"count":     len(employees),
	})
}

// handleGetEmployee returns the full profile for one alias.
func (s *Server) handleGetEmployee(w http.ResponseWriter, r *http.Request) {
	if s.services.Employees == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "Employee directory not configured")
		return
	}

	alias := r.PathValue("alias")
	if alias == "" {
		s.errorResponse(w, http.StatusBadRequest, "Employee alias is required")
		return
	}

	employee, err := s.services.Employees.GetByAlias(r.Context(), alias)
	if err != nil {
		s.logger.Error("employee lookup failed", zap.String("alias", alias), zap.Error(err))
		s.errorResponse(w, http.StatusInternalServerError, "Failed to load employee")
		return
	}
	if employee == nil {
		s.errorResponse(w, http.StatusNotFound, "Employee not found")
		return
	}

	s.jsonResponse(w, http.StatusOK, employee)
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
