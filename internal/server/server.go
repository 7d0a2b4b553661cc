// Package server exposes the conversion pipeline over HTTP. Responses are
// JSON; conversion failures caused by data (no matchable events, provider
// rejected the slip) map to 422, bad requests to 400, everything else 500.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"betbridge/internal/converter"
	"betbridge/internal/pkg/config"
	"betbridge/internal/pkg/models"
)

type Server struct {
	conv *converter.Converter
	http *http.Server
}

func New(cfg config.ServerConfig, conv *converter.Converter) *Server {
	s := &Server{conv: conv}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/convert", s.handleConvert)
	mux.HandleFunc("POST /api/extract", s.handleExtract)
	mux.HandleFunc("POST /api/book", s.handleBook)
	mux.HandleFunc("GET /health", s.handleHealth)

	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
	return s
}

func (s *Server) Start() error {
	slog.Info("HTTP server listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

type convertRequest struct {
	Code   string `json:"code"`
	Source string `json:"source"`
	Target string `json:"target"`
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	var req convertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Code == "" || req.Source == "" || req.Target == "" {
		writeError(w, http.StatusBadRequest, "code, source and target are required")
		return
	}

	result, err := s.conv.Convert(r.Context(), strings.TrimSpace(req.Code), req.Source, req.Target)
	if err != nil {
		s.writeConvertError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) writeConvertError(w http.ResponseWriter, req convertRequest, err error) {
	var total *models.TotalConversionFailure
	if errors.As(err, &total) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":             err.Error(),
			"failed_selections": total.Failures,
		})
		return
	}
	var booking *models.BookingError
	if errors.As(err, &booking) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":   "conversion failed: target bookmaker rejected the booking",
			"details": booking.Error(),
		})
		return
	}
	var extraction *models.ExtractionError
	if errors.As(err, &extraction) {
		slog.Warn("Convert: extraction failed", "source", req.Source, "error", err)
		writeError(w, http.StatusInternalServerError, extraction.Error())
		return
	}
	if isUnknownProvider(err) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	slog.Error("Convert: unexpected failure", "source", req.Source, "target", req.Target, "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

type extractRequest struct {
	Code   string `json:"code"`
	Source string `json:"source"`
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Code == "" || req.Source == "" {
		writeError(w, http.StatusBadRequest, "code and source are required")
		return
	}

	selections, err := s.conv.Extract(r.Context(), strings.TrimSpace(req.Code), req.Source)
	if err != nil {
		if isUnknownProvider(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"selections": selections})
}

type bookRequest struct {
	Target     string             `json:"target"`
	Selections []models.Selection `json:"selections"`
}

func (s *Server) handleBook(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Target == "" || len(req.Selections) == 0 {
		writeError(w, http.StatusBadRequest, "target and selections are required")
		return
	}

	code, err := s.conv.Book(r.Context(), req.Target, req.Selections)
	if err != nil {
		if isUnknownProvider(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		var booking *models.BookingError
		if errors.As(err, &booking) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":   "booking failed",
				"details": booking.Error(),
			})
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"booking_code": code})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"providers": s.conv.Providers().Names(),
		"time":      time.Now().UTC().Format(time.RFC3339),
	})
}

// isUnknownProvider recognizes the Set.Get lookup failure, which is a bad
// request rather than a server fault.
func isUnknownProvider(err error) bool {
	return err != nil && strings.Contains(err.Error(), "not supported")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
