package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/heimdex/heimdex-studio/internal/export"
)

const defaultExportListLimit = 20

// submitExportHandler snapshots the arrangement and hands it to the render
// service. The response is 202 with a pending job; the outcome is read back
// from GET /exports/{id}.
func submitExportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := sessionFor(cfg, w, r)
		if !ok {
			return
		}
		var settings export.Settings
		if r.ContentLength != 0 {
			if !decodeBody(w, r, &settings) {
				return
			}
		}

		payload, err := s.ExportPayload(settings)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		job, err := cfg.Exports.Submit(r.Context(), payload)
		if err != nil {
			cfg.Logger.Error("failed to submit export", "project_id", s.ID(), "error", err)
			WriteError(w, http.StatusInternalServerError, "failed to submit export", "INTERNAL_ERROR")
			return
		}
		WriteJSON(w, http.StatusAccepted, ExportJobToResponse(job))
	}
}

func getExportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			WriteError(w, http.StatusBadRequest, "export id required", "BAD_REQUEST")
			return
		}

		job, err := cfg.Exports.Get(r.Context(), id)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if job == nil {
			WriteError(w, http.StatusNotFound, "export not found", "NOT_FOUND")
			return
		}

		WriteJSON(w, http.StatusOK, ExportJobToResponse(job))
	}
}

func listExportsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := sessionFor(cfg, w, r)
		if !ok {
			return
		}
		limit := defaultExportListLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 || n > 200 {
				WriteError(w, http.StatusBadRequest, "limit must be between 1 and 200", "BAD_REQUEST")
				return
			}
			limit = n
		}

		jobs, err := cfg.Exports.List(r.Context(), s.ID(), limit)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list exports", "INTERNAL_ERROR")
			return
		}

		resp := ExportJobsResponse{Jobs: make([]ExportJobResponse, len(jobs))}
		for i, j := range jobs {
			resp.Jobs[i] = ExportJobToResponse(j)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

// exportEDLHandler writes the video track as a CMX3600 EDL into a local
// directory.
func exportEDLHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := sessionFor(cfg, w, r)
		if !ok {
			return
		}
		var req export.EDLRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if err := export.ValidateOutputDir(req.OutputDir); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		path, count, err := s.WriteEDL(req)
		switch {
		case errors.Is(err, export.ErrInvalidOutputDir):
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		case errors.Is(err, export.ErrNoVideoClips):
			WriteError(w, http.StatusUnprocessableEntity, err.Error(), "NOTHING_TO_EXPORT")
			return
		case err != nil:
			cfg.Logger.Error("failed to write edl", "project_id", s.ID(), "error", err)
			WriteError(w, http.StatusInternalServerError, "failed to write export file", "INTERNAL_ERROR")
			return
		}

		WriteJSON(w, http.StatusOK, export.EDLResponse{
			Status:     "ok",
			Format:     "edl",
			OutputPath: path,
			EventCount: count,
		})
	}
}
