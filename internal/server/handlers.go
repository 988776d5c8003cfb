package server

import (
	"encoding/json"
	"image/png"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/zsiec/reel/internal/errors"
	"github.com/zsiec/reel/internal/media"
	"github.com/zsiec/reel/internal/registry"
)

type addAssetRequest struct {
	ID   string `json:"id,omitempty"`
	Path string `json:"path,omitempty"`

	// Synthetic sources render generated frames; used for development
	// and load testing without media files.
	Synthetic bool            `json:"synthetic,omitempty"`
	Metadata  *media.Metadata `json:"metadata,omitempty"`
}

// handleAddAsset probes and registers a playable source. The probed
// metadata is validated before the source is bound; malformed media is
// rejected up front.
func (s *Server) handleAddAsset(w http.ResponseWriter, r *http.Request) {
	var req addAssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, errors.NewValidationError("invalid request body"))
		return
	}

	if req.ID == "" {
		req.ID = uuid.New().String()
	}

	var src media.Source
	var meta media.Metadata

	switch {
	case req.Synthetic:
		if req.Metadata == nil {
			s.writeError(w, r, errors.NewValidationError("synthetic asset requires metadata"))
			return
		}
		meta = *req.Metadata
		if err := meta.Validate(); err != nil {
			s.writeError(w, r, err)
			return
		}
		src = media.NewStaticSource(req.ID, meta)

	case req.Path != "":
		probed, err := media.Probe(r.Context(), s.cfg.Media.FFprobePath, req.Path, s.cfg.Media.ProbeTimeout)
		if err != nil {
			s.writeError(w, r, errors.NewInvalidAssetError(err.Error()))
			return
		}
		meta = probed

		src, err = media.NewFFmpegSource(req.ID, req.Path, meta, s.cfg.Media.FFmpegPath, s.cfg.Media.SeekTimeout)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

	default:
		s.writeError(w, r, errors.NewValidationError("either path or synthetic must be set"))
		return
	}

	if err := s.store.Add(src); err != nil {
		s.writeError(w, r, err)
		return
	}

	asset := &registry.Asset{ID: req.ID, Path: req.Path, Metadata: meta}
	if err := s.registry.Register(r.Context(), asset); err != nil {
		s.store.Remove(req.ID)
		s.writeError(w, r, errors.NewConflictError(err.Error()))
		return
	}

	s.writeJSON(w, http.StatusCreated, asset)
}

func (s *Server) handleListAssets(w http.ResponseWriter, r *http.Request) {
	assets, err := s.registry.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, struct {
		Assets []*registry.Asset `json:"assets"`
		Count  int               `json:"count"`
	}{Assets: assets, Count: len(assets)})
}

func (s *Server) handleGetAsset(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	asset, err := s.registry.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, errors.NewNotFoundError("asset "+id))
		return
	}

	if err := s.registry.Touch(r.Context(), id); err != nil {
		s.logger.WithError(err).Warn("Failed to touch asset")
	}

	s.writeJSON(w, http.StatusOK, asset)
}

func (s *Server) handleRemoveAsset(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	// Unbind from playback first if this asset is active.
	if s.controller.Snapshot().SourceID == id {
		if err := s.controller.SetAsset(nil); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	s.store.Remove(id)

	if err := s.registry.Unregister(r.Context(), id); err != nil {
		if err == registry.ErrAssetNotFound {
			s.writeError(w, r, errors.NewNotFoundError("asset "+id))
			return
		}
		s.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type loadRequest struct {
	AssetID string `json:"asset_id"`
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	var req loadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, errors.NewValidationError("invalid request body"))
		return
	}

	src, ok := s.store.Get(req.AssetID)
	if !ok {
		s.writeError(w, r, errors.NewSourceUnavailableError(req.AssetID))
		return
	}

	if err := s.controller.SetAsset(src); err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.registry.Touch(r.Context(), req.AssetID); err != nil {
		s.logger.WithError(err).Warn("Failed to touch asset")
	}

	s.writeJSON(w, http.StatusOK, s.controller.Snapshot())
}

func (s *Server) handleUnload(w http.ResponseWriter, r *http.Request) {
	if err := s.controller.SetAsset(nil); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.controller.Snapshot())
}

type playRequest struct {
	FromFrame *float64 `json:"from_frame,omitempty"`
	ToFrame   *float64 `json:"to_frame,omitempty"`
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	var req playRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, r, errors.NewValidationError("invalid request body"))
			return
		}
	}

	if err := s.controller.PlayRange(req.FromFrame, req.ToFrame); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, s.controller.Snapshot())
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	if err := s.controller.Pause(); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.controller.Snapshot())
}

type seekRequest struct {
	Frame *int64   `json:"frame,omitempty"`
	Time  *float64 `json:"time,omitempty"`
}

func (s *Server) handleSeek(w http.ResponseWriter, r *http.Request) {
	var req seekRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, errors.NewValidationError("invalid request body"))
		return
	}

	var err error
	switch {
	case req.Frame != nil:
		err = s.controller.SeekToFrame(*req.Frame)
	case req.Time != nil:
		err = s.controller.SeekToTime(*req.Time)
	default:
		err = errors.NewValidationError("either frame or time must be set")
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, s.controller.Snapshot())
}

func (s *Server) handlePlaybackState(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.controller.Snapshot())
}

// handleGetFrame serves a cached frame as PNG. A miss never blocks on
// decode: it comes back 202 with the request already queued.
func (s *Server) handleGetFrame(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]
	frame, err := strconv.ParseInt(vars["frame"], 10, 64)
	if err != nil {
		s.writeError(w, r, errors.NewValidationError("invalid frame number"))
		return
	}

	f, ok := s.frames.Get(id, frame)
	if !ok {
		s.writeJSON(w, http.StatusAccepted, struct {
			Status string `json:"status"`
		}{Status: "pending"})
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, f.Image); err != nil {
		s.logger.WithError(err).Error("Failed to encode frame")
	}
}

func (s *Server) handleGetThumbnail(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]
	second, err := strconv.ParseFloat(vars["second"], 64)
	if err != nil {
		s.writeError(w, r, errors.NewValidationError("invalid second"))
		return
	}

	img, ok := s.frames.GetThumbnail(id, second)
	if !ok {
		s.writeJSON(w, http.StatusAccepted, struct {
			Status string `json:"status"`
		}{Status: "pending"})
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, img); err != nil {
		s.logger.WithError(err).Error("Failed to encode thumbnail")
	}
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.frames.Stats())
}

type prioritizeRequest struct {
	SourceID   string `json:"source_id"`
	StartFrame int64  `json:"start_frame"`
	EndFrame   int64  `json:"end_frame"`
}

// handlePrioritize bulk-enqueues a frame range, weighted toward the
// midpoint. Used for viewport-visible prefetch.
func (s *Server) handlePrioritize(w http.ResponseWriter, r *http.Request) {
	var req prioritizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, errors.NewValidationError("invalid request body"))
		return
	}
	if req.EndFrame < req.StartFrame {
		s.writeError(w, r, errors.NewValidationError("end_frame must be >= start_frame"))
		return
	}

	s.frames.Prioritize(req.SourceID, req.StartFrame, req.EndFrame)

	s.writeJSON(w, http.StatusAccepted, struct {
		QueueLength int `json:"queue_length"`
	}{QueueLength: s.scheduler.Len()})
}

func (s *Server) handleCacheReset(w http.ResponseWriter, r *http.Request) {
	if err := s.controller.SetAsset(nil); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.frames.Reset()
	s.writeJSON(w, http.StatusOK, s.frames.Stats())
}
