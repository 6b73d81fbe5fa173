package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/emposo/cvision/internal/analysis"
	"github.com/emposo/cvision/internal/extraction"
	"github.com/emposo/cvision/internal/matching"
	"github.com/emposo/cvision/internal/types"
)

// handleLastenheftUpload accepts a multipart file upload and returns the
// extracted plain text. No analysis happens here; the client feeds the text
// back into analyze explicitly.
func (s *Server) handleLastenheftUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(extraction.MaxFileSize); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Missing file field")
		return
	}
	defer file.Close()

	if header.Size > extraction.MaxFileSize {
		s.errorResponse(w, http.StatusBadRequest, "File exceeds the 10 MB limit")
		return
	}

	contentType := header.Header.Get("Content-Type")
	format, ok := extraction.SupportedContentTypes[contentType]
	if !ok {
		s.errorResponse(w, http.StatusBadRequest, "Unsupported file type; expected PDF, DOCX or plain text")
		return
	}

	fileBytes, err := io.ReadAll(io.LimitReader(file, extraction.MaxFileSize+1))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Failed to read uploaded file")
		return
	}
	if len(fileBytes) > extraction.MaxFileSize {
		s.errorResponse(w, http.StatusBadRequest, "File exceeds the 10 MB limit")
		return
	}

	text, err := extraction.Extract(fileBytes, contentType)
	if err != nil {
		s.logger.Warn("text extraction failed",
			zap.String("filename", header.Filename),
			zap.String("content_type", contentType),
			zap.Error(err))
		s.errorResponse(w, http.StatusUnprocessableEntity, "Could not extract text from the document")
		return
	}

	s.jsonResponse(w, http.StatusOK, types.LastenheftUploadResponse{
		ExtractedText: text,
		CharCount:     len(text),
		Format:        format,
	})
}

// handleLastenheftText accepts pasted plain text as an alternative to upload.
func (s *Server) handleLastenheftText(w http.ResponseWriter, r *http.Request) {
	var req types.LastenheftTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusUnprocessableEntity, "text is required and must not exceed 500000 characters")
		return
	}

	text := extraction.FromText(req.Text)
	s.jsonResponse(w, http.StatusOK, types.LastenheftUploadResponse{
		ExtractedText: text,
		CharCount:     len(text),
		Format:        "text",
	})
}

// handleLastenheftAnalyze runs the three-stage document analysis.
func (s *Server) handleLastenheftAnalyze(w http.ResponseWriter, r *http.Request) {
	var req types.AnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusUnprocessableEntity, "text is required and must not exceed 500000 characters")
		return
	}

	if s.services.Analyzer == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "Analysis service not configured")
		return
	}

	result, err := s.services.Analyzer.Analyze(r.Context(), req.Text)
	if err != nil {
		if errors.Is(err, analysis.ErrNotInitialized) {
			s.errorResponse(w, http.StatusServiceUnavailable, "Analysis service not configured")
			return
		}
		s.logger.Error("lastenheft analysis failed", zap.Error(err))
		s.errorResponse(w, http.StatusBadGateway, "Analysis failed")
		return
	}

	s.jsonResponse(w, http.StatusOK, result)
}

// handleLastenheftMatch ranks candidates against the extracted skills.
func (s *Server) handleLastenheftMatch(w http.ResponseWriter, r *http.Request) {
	var req types.CandidateMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusUnprocessableEntity, "extracted_skills and text are required")
		return
	}

	if s.services.Matcher == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "Matching service not configured")
		return
	}

	result, err := s.services.Matcher.Match(r.Context(), req.ExtractedSkills, req.Text)
	if err != nil {
		if errors.Is(err, matching.ErrNotInitialized) {
			s.errorResponse(w, http.StatusServiceUnavailable, "Matching service not configured")
			return
		}
		s.logger.Error("candidate matching failed", zap.Error(err))
		s.errorResponse(w, http.StatusBadGateway, "Candidate matching failed")
		return
	}

	s.jsonResponse(w, http.StatusOK, result)
}
