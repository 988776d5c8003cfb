package server

import (
	"encoding/json"
	"net/http"

	"github.com/zsiec/reel/internal/health"
	"github.com/zsiec/reel/internal/logger"
	"github.com/zsiec/reel/pkg/version"
)

func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(logger.RequestLoggerMiddleware(s.logger))
	s.router.Use(s.recoveryMiddleware)
	s.router.Use(s.errorHandler.Middleware)
	s.router.Use(s.metricsMiddleware)
	s.router.Use(s.corsMiddleware)

	// Health endpoints
	healthHandler := health.NewHandler(s.healthMgr)
	s.router.HandleFunc("/health", healthHandler.HandleHealth).Methods("GET")
	s.router.HandleFunc("/ready", healthHandler.HandleReady).Methods("GET")
	s.router.HandleFunc("/live", healthHandler.HandleLive).Methods("GET")

	s.router.HandleFunc("/version", s.handleVersion).Methods("GET")

	api := s.router.PathPrefix("/api/v1").Subrouter()

	// Assets
	api.HandleFunc("/assets", s.handleAddAsset).Methods("POST")
	api.HandleFunc("/assets", s.handleListAssets).Methods("GET")
	api.HandleFunc("/assets/{id}", s.handleGetAsset).Methods("GET")
	api.HandleFunc("/assets/{id}", s.handleRemoveAsset).Methods("DELETE")

	// Playback transport
	api.HandleFunc("/playback", s.handlePlaybackState).Methods("GET")
	api.HandleFunc("/playback/load", s.handleLoad).Methods("POST")
	api.HandleFunc("/playback/unload", s.handleUnload).Methods("POST")
	api.HandleFunc("/playback/play", s.handlePlay).Methods("POST")
	api.HandleFunc("/playback/pause", s.handlePause).Methods("POST")
	api.HandleFunc("/playback/seek", s.handleSeek).Methods("POST")

	// Frame and thumbnail delivery
	api.HandleFunc("/frames/{id}/{frame:[0-9]+}", s.handleGetFrame).Methods("GET")
	api.HandleFunc("/thumbnails/{id}/{second:[0-9]+}", s.handleGetThumbnail).Methods("GET")

	// Cache control
	api.HandleFunc("/cache/stats", s.handleCacheStats).Methods("GET")
	api.HandleFunc("/cache/prioritize", s.handlePrioritize).Methods("POST")
	api.HandleFunc("/cache/reset", s.handleCacheReset).Methods("POST")

	// Websocket event feed
	s.router.HandleFunc("/api/v1/events", s.handleEvents).Methods("GET")

	s.router.NotFoundHandler = http.HandlerFunc(s.errorHandler.HandleNotFound)
	s.router.MethodNotAllowedHandler = http.HandlerFunc(s.errorHandler.HandleMethodNotAllowed)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=3600")

	if err := json.NewEncoder(w).Encode(version.GetInfo()); err != nil {
		s.logger.WithError(err).Error("Failed to encode version response")
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.WithError(err).Error("Failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	s.errorHandler.HandleError(w, r, err)
}
