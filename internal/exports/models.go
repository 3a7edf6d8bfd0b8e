// Package exports records export submissions to the render service so the
// UI can show their outcome. Submissions are fire-and-forget: one attempt,
// no retry and no cancellation once issued.
package exports

import "time"

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

type Job struct {
	ID             string    `json:"id"`
	ProjectID      string    `json:"project_id"`
	Status         string    `json:"status"`
	OutputFormat   string    `json:"output_format"`
	Quality        string    `json:"quality"`
	Resolution     string    `json:"resolution"`
	OutputLocation string    `json:"output_location,omitempty"`
	Error          string    `json:"error,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Finished reports whether the job reached a terminal status.
func (j *Job) Finished() bool {
	return j.Status == StatusCompleted || j.Status == StatusFailed
}
