package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"autoblogger/internal/export"
	"autoblogger/internal/model"
	"autoblogger/internal/settings"
)

// ---------------------------------------------------------------------------
// POST /api/artifacts
// ---------------------------------------------------------------------------

type createRequest struct {
	Title    string `json:"title"`
	SeedType string `json:"seedType"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	// Empty title and unknown seed types are coerced, not rejected.
	art, err := s.store.Create(r.Context(), req.Title, req.SeedType)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create artifact")
		return
	}
	writeJSON(w, http.StatusCreated, art)
}

// ---------------------------------------------------------------------------
// GET /api/artifacts
// ---------------------------------------------------------------------------

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	arts, err := s.store.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list artifacts")
		return
	}
	if arts == nil {
		arts = []model.Artifact{}
	}
	writeJSON(w, http.StatusOK, arts)
}

// ---------------------------------------------------------------------------
// GET /api/artifacts/{id}
// ---------------------------------------------------------------------------

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	art, err := s.store.Get(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "artifact not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get artifact")
		return
	}
	writeJSON(w, http.StatusOK, art)
}

// ---------------------------------------------------------------------------
// POST /api/artifacts/{id}/run
// ---------------------------------------------------------------------------

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	art, err := s.store.Get(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "artifact not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get artifact")
		return
	}

	ps, err := s.settings.ReadPipeline()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read pipeline settings")
		return
	}
	if !ps.Enabled {
		writeError(w, http.StatusBadRequest, "pipeline is disabled")
		return
	}

	// Fire and forget. Concurrent requests for the same artifact are
	// resolved by the run lease, not here.
	go func() {
		if err := s.runner.Run(context.Background(), art.ID); err != nil {
			slog.Error("pipeline run failed", "artifact_id", art.ID, "error", err)
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"id": art.ID, "status": "started"})
}

// ---------------------------------------------------------------------------
// GET /api/artifacts/{id}/stages/{stage}
// ---------------------------------------------------------------------------

func (s *Server) handleStageMarkdown(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	stage := model.Stage(r.PathValue("stage"))
	if !stage.Valid() {
		writeError(w, http.StatusBadRequest, "unknown stage")
		return
	}

	if _, err := s.store.Get(r.Context(), id); errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "artifact not found")
		return
	} else if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get artifact")
		return
	}

	md, err := s.store.ReadStageMarkdown(id, stage)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read stage markdown")
		return
	}
	if md == "" {
		writeError(w, http.StatusNotFound, "stage not reached")
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(md))
}

// ---------------------------------------------------------------------------
// GET /api/artifacts/{id}/exports/{name}
// ---------------------------------------------------------------------------

var exportContentTypes = map[string]string{
	export.FileFull:     "text/html; charset=utf-8",
	export.FileBody:     "text/html; charset=utf-8",
	export.FileHashtags: "text/plain; charset=utf-8",
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	name := r.PathValue("name")

	contentType, ok := exportContentTypes[name]
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown export file")
		return
	}

	content, err := s.store.ReadExport(id, name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read export")
		return
	}
	if content == "" {
		writeError(w, http.StatusNotFound, "export not found")
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(content))
}

// ---------------------------------------------------------------------------
// GET/PUT /api/settings/pipeline
// ---------------------------------------------------------------------------

func (s *Server) handleGetPipelineSettings(w http.ResponseWriter, r *http.Request) {
	ps, err := s.settings.ReadPipeline()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read settings")
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (s *Server) handlePutPipelineSettings(w http.ResponseWriter, r *http.Request) {
	var ps settings.Pipeline
	if err := json.NewDecoder(r.Body).Decode(&ps); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.settings.WritePipeline(ps); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to write settings")
		return
	}
	// Re-read so the response reflects clamped values.
	ps, err := s.settings.ReadPipeline()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read settings")
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

// ---------------------------------------------------------------------------
// GET/PUT /api/settings/eval
// ---------------------------------------------------------------------------

func (s *Server) handleGetEvalSettings(w http.ResponseWriter, r *http.Request) {
	es, err := s.settings.ReadEval()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read settings")
		return
	}
	writeJSON(w, http.StatusOK, es)
}

func (s *Server) handlePutEvalSettings(w http.ResponseWriter, r *http.Request) {
	var es settings.Eval
	if err := json.NewDecoder(r.Body).Decode(&es); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.settings.WriteEval(es); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to write settings")
		return
	}
	writeJSON(w, http.StatusOK, es)
}
