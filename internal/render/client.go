// Package render talks to the external render service that turns an
// arrangement payload into output media.
package render

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/heimdex/heimdex-studio/internal/export"
)

// Result is the render service's answer to an accepted export.
type Result struct {
	ExportID       string `json:"export_id"`
	Status         string `json:"status"`
	OutputLocation string `json:"output_location"`
}

// Client submits exports. Implementations make a single attempt.
type Client interface {
	SubmitExport(ctx context.Context, payload export.RenderPayload) (*Result, error)
}

// Error is a non-2xx answer from the render service.
type Error struct {
	StatusCode int
	Body       string
}

func (e *Error) Error() string {
	return fmt.Sprintf("render export failed: HTTP %d: %s", e.StatusCode, e.Body)
}

// Temporary reports whether the service blamed itself (5xx). Exports are
// still not retried; this only feeds the message shown to the user.
func (e *Error) Temporary() bool {
	return e.StatusCode >= 500
}

// StubClient accepts every export without contacting anything. It is used
// when no render service is configured.
type StubClient struct {
	logger *slog.Logger
}

func NewStubClient(logger *slog.Logger) *StubClient {
	return &StubClient{logger: logger}
}

func (c *StubClient) SubmitExport(ctx context.Context, payload export.RenderPayload) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id := uuid.NewString()
	c.logger.Info("render stub: export accepted",
		"project_id", payload.ProjectID,
		"format", payload.OutputFormat,
		"tracks", len(payload.Tracks),
	)
	return &Result{
		ExportID:       id,
		Status:         "completed",
		OutputLocation: fmt.Sprintf("stub://exports/%s.%s", id, payload.OutputFormat),
	}, nil
}
