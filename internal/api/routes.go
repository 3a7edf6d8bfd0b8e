package api

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/heimdex/heimdex-studio/internal/editor"
	"github.com/heimdex/heimdex-studio/internal/studio"
)

// maxBodyBytes bounds request bodies; shot listings are the largest input.
const maxBodyBytes = 4 << 20

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(CORSAllowlist())

	r.Get("/health", healthHandler(cfg))

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Repository, cfg.Logger))

		r.Get("/projects", listProjectsHandler(cfg))
		r.Post("/projects", createProjectHandler(cfg))

		r.Route("/projects/{id}", func(r chi.Router) {
			r.Get("/", getProjectHandler(cfg))
			r.Delete("/", deleteProjectHandler(cfg))
			r.Get("/events", eventsHandler(cfg))

			r.Post("/commands", commandHandler(cfg))
			r.Post("/undo", undoHandler(cfg))
			r.Post("/redo", redoHandler(cfg))
			r.Get("/history", historyHandler(cfg))

			r.Get("/selection", getSelectionHandler(cfg))
			r.Post("/selection", selectHandler(cfg))
			r.Delete("/selection", deselectHandler(cfg))
			r.Post("/clips/{clipID}/activate", activateHandler(cfg))

			r.Get("/tracks/{trackID}/volume", volumeHandler(cfg))
			r.Get("/mix", mixHandler(cfg))

			r.Get("/ruler", rulerHandler(cfg))
			r.Get("/playhead", getPlayheadHandler(cfg))
			r.Post("/playhead", playheadHandler(cfg))

			r.Post("/export", submitExportHandler(cfg))
			r.Get("/exports", listExportsHandler(cfg))
			r.With(LoopbackGuard()).Post("/export/edl", exportEDLHandler(cfg))
		})

		r.Get("/exports/{id}", getExportHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:   "ok",
			Version:  cfg.Version,
			UptimeS:  uptime,
			Projects: cfg.Registry.Len(),
		})
	}
}

// sessionFor resolves the {id} path parameter. It writes a 404 and returns
// false when the project is unknown.
func sessionFor(cfg ServerConfig, w http.ResponseWriter, r *http.Request) (*studio.Session, bool) {
	id := chi.URLParam(r, "id")
	s, ok := cfg.Registry.Get(id)
	if !ok {
		WriteError(w, http.StatusNotFound, "project not found", "NOT_FOUND")
		return nil, false
	}
	return s, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
		return false
	}
	return true
}

// writeEditError maps a rejected operation to a response. Unknown clips and
// tracks are 404; every other rule violation is 409.
func writeEditError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, editor.ErrClipNotFound), errors.Is(err, editor.ErrTrackNotFound):
		WriteError(w, http.StatusNotFound, err.Error(), "NOT_FOUND")
	case editor.IsConstraintViolation(err):
		WriteError(w, http.StatusConflict, err.Error(), "CONSTRAINT_VIOLATION")
	default:
		WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
	}
}

func listProjectsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, ProjectsResponse{Projects: cfg.Registry.List()})
	}
}

func createProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateProjectRequest
		if !decodeBody(w, r, &req) {
			return
		}

		seen := make(map[string]bool, len(req.Shots))
		for _, shot := range req.Shots {
			if shot.ID == "" {
				WriteError(w, http.StatusBadRequest, "shot id is required", "BAD_REQUEST")
				return
			}
			if seen[shot.ID] {
				WriteError(w, http.StatusBadRequest, "duplicate shot id "+shot.ID, "BAD_REQUEST")
				return
			}
			seen[shot.ID] = true
		}

		s := cfg.Registry.Create(req.Name, req.Shots)
		WriteJSON(w, http.StatusCreated, projectResponse(s))
	}
}

func projectResponse(s *studio.Session) ProjectResponse {
	selected, _ := s.Selected()
	return ProjectResponse{
		Info:        s.Info(),
		Arrangement: s.Arrangement(),
		History:     HistoryToResponse(s.History()),
		Playhead:    s.Playhead(),
		SelectedID:  selected,
	}
}

func getProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := sessionFor(cfg, w, r)
		if !ok {
			return
		}
		WriteJSON(w, http.StatusOK, projectResponse(s))
	}
}

func deleteProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !cfg.Registry.Remove(chi.URLParam(r, "id")) {
			WriteError(w, http.StatusNotFound, "project not found", "NOT_FOUND")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// queryFloat reads a finite float query parameter, or def when absent.
func queryFloat(r *http.Request, name string, def float64) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.New(name + " must be a number")
	}
	return v, nil
}
