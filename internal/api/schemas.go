package api

import (
	"time"

	"github.com/heimdex/heimdex-studio/internal/exports"
	"github.com/heimdex/heimdex-studio/internal/history"
	"github.com/heimdex/heimdex-studio/internal/playhead"
	"github.com/heimdex/heimdex-studio/internal/studio"
	"github.com/heimdex/heimdex-studio/internal/timeline"
)

type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	UptimeS  int64  `json:"uptime_s"`
	Projects int    `json:"projects"`
}

type CreateProjectRequest struct {
	Name  string          `json:"name"`
	Shots []timeline.Shot `json:"shots"`
}

type ProjectsResponse struct {
	Projects []studio.Info `json:"projects"`
}

type ProjectResponse struct {
	studio.Info
	Arrangement timeline.Arrangement `json:"arrangement"`
	History     HistoryResponse      `json:"history"`
	Playhead    playhead.State       `json:"playhead"`
	SelectedID  string               `json:"selected_clip_id,omitempty"`
}

type HistoryResponse struct {
	CanUndo bool     `json:"can_undo"`
	CanRedo bool     `json:"can_redo"`
	Cursor  int      `json:"cursor"`
	Length  int      `json:"length"`
	Label   string   `json:"label,omitempty"`
	Labels  []string `json:"labels,omitempty"`
}

// CommandResponse answers a dispatched command, undo or redo. Changed is
// false for commands that left the arrangement as it was and for undo/redo
// at either end of history.
type CommandResponse struct {
	Changed  bool            `json:"changed"`
	Duration float64         `json:"duration"`
	History  HistoryResponse `json:"history"`
}

type SelectRequest struct {
	ClipID string `json:"clip_id"`
}

type SelectionResponse struct {
	ClipID string `json:"clip_id,omitempty"`
}

type MixResponse struct {
	Time   float64               `json:"time"`
	Tracks []studio.VolumeReport `json:"tracks"`
}

type RulerResponse struct {
	Interval float64           `json:"interval"`
	Markers  []playhead.Marker `json:"markers"`
}

// PlayheadRequest drives the playhead. Value is the zoom factor for
// set_zoom, seconds for seek and pixels for click, scroll and drag_move.
type PlayheadRequest struct {
	Action string  `json:"action"`
	Value  float64 `json:"value"`
}

type ExportJobResponse struct {
	ID             string `json:"id"`
	ProjectID      string `json:"project_id"`
	Status         string `json:"status"`
	OutputFormat   string `json:"output_format"`
	Quality        string `json:"quality"`
	Resolution     string `json:"resolution"`
	OutputLocation string `json:"output_location,omitempty"`
	Error          string `json:"error,omitempty"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

type ExportJobsResponse struct {
	Jobs []ExportJobResponse `json:"jobs"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func HistoryToResponse(st history.State) HistoryResponse {
	return HistoryResponse{
		CanUndo: st.CanUndo,
		CanRedo: st.CanRedo,
		Cursor:  st.Cursor,
		Length:  st.Length,
		Label:   st.Label,
	}
}

func ExportJobToResponse(j *exports.Job) ExportJobResponse {
	return ExportJobResponse{
		ID:             j.ID,
		ProjectID:      j.ProjectID,
		Status:         j.Status,
		OutputFormat:   j.OutputFormat,
		Quality:        j.Quality,
		Resolution:     j.Resolution,
		OutputLocation: j.OutputLocation,
		Error:          j.Error,
		CreatedAt:      j.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      j.UpdatedAt.Format(time.RFC3339),
	}
}
