package api

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/heimdex/heimdex-studio/internal/editor"
	"github.com/heimdex/heimdex-studio/internal/studio"
)

func commandResponse(s *studio.Session, changed bool) CommandResponse {
	return CommandResponse{
		Changed:  changed,
		Duration: s.Info().Duration,
		History:  HistoryToResponse(s.History()),
	}
}

// commandHandler accepts one tagged command, e.g.
// {"type":"move_clip","clip_id":"c1","start_time":12}.
func commandHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := sessionFor(cfg, w, r)
		if !ok {
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		cmd, err := editor.DecodeCommand(body)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		changed, err := s.Dispatch(cmd)
		if err != nil {
			writeEditError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, commandResponse(s, changed))
	}
}

func undoHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := sessionFor(cfg, w, r)
		if !ok {
			return
		}
		WriteJSON(w, http.StatusOK, commandResponse(s, s.Undo()))
	}
}

func redoHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := sessionFor(cfg, w, r)
		if !ok {
			return
		}
		WriteJSON(w, http.StatusOK, commandResponse(s, s.Redo()))
	}
}

func historyHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := sessionFor(cfg, w, r)
		if !ok {
			return
		}
		resp := HistoryToResponse(s.History())
		resp.Labels = s.HistoryLabels()
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getSelectionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := sessionFor(cfg, w, r)
		if !ok {
			return
		}
		id, _ := s.Selected()
		WriteJSON(w, http.StatusOK, SelectionResponse{ClipID: id})
	}
}

func selectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := sessionFor(cfg, w, r)
		if !ok {
			return
		}
		var req SelectRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.ClipID == "" {
			WriteError(w, http.StatusBadRequest, "clip_id is required", "BAD_REQUEST")
			return
		}
		if err := s.Select(req.ClipID); err != nil {
			writeEditError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, SelectionResponse{ClipID: req.ClipID})
	}
}

func deselectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := sessionFor(cfg, w, r)
		if !ok {
			return
		}
		s.DeselectAll()
		w.WriteHeader(http.StatusNoContent)
	}
}

// activateHandler is the double-click on a clip. The UI opens its
// transition manager in response to the resulting event.
func activateHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := sessionFor(cfg, w, r)
		if !ok {
			return
		}
		if err := s.ActivateClip(chi.URLParam(r, "clipID")); err != nil {
			writeEditError(w, err)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}
}

func volumeHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := sessionFor(cfg, w, r)
		if !ok {
			return
		}
		t, err := queryFloat(r, "t", s.Playhead().CurrentTime)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}
		report, err := s.VolumeReport(chi.URLParam(r, "trackID"), t)
		if err != nil {
			writeEditError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, report)
	}
}

func mixHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := sessionFor(cfg, w, r)
		if !ok {
			return
		}
		t, err := queryFloat(r, "t", s.Playhead().CurrentTime)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}
		tracks := s.Mix(t)
		if tracks == nil {
			tracks = []studio.VolumeReport{}
		}
		WriteJSON(w, http.StatusOK, MixResponse{Time: t, Tracks: tracks})
	}
}
