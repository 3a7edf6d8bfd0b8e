package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/heimdex/heimdex-studio/internal/events"
)

func rulerHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := sessionFor(cfg, w, r)
		if !ok {
			return
		}
		interval, markers := s.Ruler()
		WriteJSON(w, http.StatusOK, RulerResponse{Interval: interval, Markers: markers})
	}
}

func getPlayheadHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := sessionFor(cfg, w, r)
		if !ok {
			return
		}
		WriteJSON(w, http.StatusOK, s.Playhead())
	}
}

// playheadHandler runs one playhead action and answers with the new state.
// drag_move outside a drag is a 409 so a client notices it lost the drag.
func playheadHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := sessionFor(cfg, w, r)
		if !ok {
			return
		}
		var req PlayheadRequest
		if !decodeBody(w, r, &req) {
			return
		}

		switch req.Action {
		case "zoom_in":
			s.ZoomIn()
		case "zoom_out":
			s.ZoomOut()
		case "set_zoom":
			s.SetZoom(req.Value)
		case "seek":
			s.Seek(req.Value)
		case "click":
			s.ClickRuler(req.Value)
		case "scroll":
			s.SetScrollOffset(req.Value)
		case "drag_start":
			s.BeginDrag()
		case "drag_move":
			if _, moved := s.DragMove(req.Value); !moved {
				WriteError(w, http.StatusConflict, "no drag in progress", "NO_DRAG")
				return
			}
		case "drag_end":
			s.DragEnd()
		default:
			WriteError(w, http.StatusBadRequest, fmt.Sprintf("unknown playhead action %q", req.Action), "BAD_REQUEST")
			return
		}
		WriteJSON(w, http.StatusOK, s.Playhead())
	}
}

type eventEnvelope struct {
	Type string       `json:"type"`
	Data events.Event `json:"data"`
}

// eventsHandler streams the project's events as server-sent events until
// the client goes away.
func eventsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := sessionFor(cfg, w, r)
		if !ok {
			return
		}
		flusher, ok := w.(http.Flusher)
		if !ok {
			WriteError(w, http.StatusInternalServerError, "streaming unsupported", "INTERNAL_ERROR")
			return
		}

		queue := make(chan events.Event, 64)
		unsubscribe := s.Subscribe(func(e events.Event) {
			select {
			case queue <- e:
			default:
				cfg.Logger.Warn("event stream lagging, dropping event", "event", e.Name(), "project_id", s.ID())
			}
		})
		defer unsubscribe()

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		for {
			select {
			case <-r.Context().Done():
				return
			case e := <-queue:
				data, err := json.Marshal(eventEnvelope{Type: e.Name(), Data: e})
				if err != nil {
					cfg.Logger.Error("failed to encode event", "event", e.Name(), "error", err)
					continue
				}
				if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Name(), data); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}
