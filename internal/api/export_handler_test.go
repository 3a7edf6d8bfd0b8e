package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/heimdex/heimdex-studio/internal/events"
	"github.com/heimdex/heimdex-studio/internal/export"
	"github.com/heimdex/heimdex-studio/internal/exports"
	"github.com/heimdex/heimdex-studio/internal/render"
)

func decodeJob(t *testing.T, rr *httptest.ResponseRecorder) ExportJobResponse {
	t.Helper()
	var job ExportJobResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &job); err != nil {
		t.Fatalf("decode job: %v", err)
	}
	return job
}

func TestSubmitExport_Completes(t *testing.T) {
	env := newTestEnv(t)
	id := env.seedProject(t)

	rr := env.do(t, http.MethodPost, "/projects/"+id+"/export", `{"output_format":"mov","quality":"high"}`)
	expectStatus(t, rr, http.StatusAccepted)
	job := decodeJob(t, rr)
	if job.Status != exports.StatusPending || job.ProjectID != id {
		t.Fatalf("job = %+v", job)
	}
	if job.OutputFormat != "mov" || job.Quality != "high" || job.Resolution != "1080p" {
		t.Fatalf("settings = %+v, want defaults filled in", job)
	}

	env.cfg.Exports.Wait()

	rr = env.do(t, http.MethodGet, "/exports/"+job.ID, "")
	expectStatus(t, rr, http.StatusOK)
	done := decodeJob(t, rr)
	if done.Status != exports.StatusCompleted || done.OutputLocation != "s3://renders/r1.mp4" {
		t.Fatalf("finished job = %+v", done)
	}

	env.render.mu.Lock()
	payloads := env.render.payloads
	env.render.mu.Unlock()
	if len(payloads) != 1 || payloads[0].ProjectID != id || len(payloads[0].Tracks) != 3 {
		t.Fatalf("payloads = %+v", payloads)
	}
}

func TestSubmitExport_EmptyBodyUsesDefaults(t *testing.T) {
	env := newTestEnv(t)
	id := env.seedProject(t)

	rr := env.do(t, http.MethodPost, "/projects/"+id+"/export", "")
	expectStatus(t, rr, http.StatusAccepted)
	if job := decodeJob(t, rr); job.OutputFormat != "mp4" || job.Quality != "standard" {
		t.Fatalf("job = %+v", job)
	}
}

func TestSubmitExport_Failure(t *testing.T) {
	env := newTestEnv(t)
	env.render.result = nil
	env.render.err = &render.Error{StatusCode: http.StatusBadGateway, Body: "upstream down"}
	id := env.seedProject(t)

	rr := env.do(t, http.MethodPost, "/projects/"+id+"/export", `{}`)
	expectStatus(t, rr, http.StatusAccepted)
	job := decodeJob(t, rr)
	env.cfg.Exports.Wait()

	rr = env.do(t, http.MethodGet, "/exports/"+job.ID, "")
	done := decodeJob(t, rr)
	if done.Status != exports.StatusFailed || !strings.Contains(done.Error, "502") {
		t.Fatalf("failed job = %+v", done)
	}

	s, _ := env.registry.Get(id)
	if s.History().Length != 1 {
		t.Fatal("failed export touched the arrangement history")
	}
}

func TestSubmitExport_InvalidSettings(t *testing.T) {
	env := newTestEnv(t)
	id := env.seedProject(t)

	bodies := []string{
		`{"output_format":"gif"}`,
		`{"quality":"ultra"}`,
		`{"resolution":"8k"}`,
		`{"output_format":`,
	}
	for _, body := range bodies {
		expectCode(t, env.do(t, http.MethodPost, "/projects/"+id+"/export", body), http.StatusBadRequest, "BAD_REQUEST")
	}
	expectCode(t, env.do(t, http.MethodPost, "/projects/missing/export", `{}`), http.StatusNotFound, "NOT_FOUND")
}

func TestExports_GetUnknownAndList(t *testing.T) {
	env := newTestEnv(t)
	id := env.seedProject(t)
	other := env.seedProject(t)

	expectCode(t, env.do(t, http.MethodGet, "/exports/nope", ""), http.StatusNotFound, "NOT_FOUND")

	for i := 0; i < 2; i++ {
		expectStatus(t, env.do(t, http.MethodPost, "/projects/"+id+"/export", `{}`), http.StatusAccepted)
	}
	expectStatus(t, env.do(t, http.MethodPost, "/projects/"+other+"/export", `{}`), http.StatusAccepted)
	env.cfg.Exports.Wait()

	rr := env.do(t, http.MethodGet, "/projects/"+id+"/exports", "")
	expectStatus(t, rr, http.StatusOK)
	var list ExportJobsResponse
	json.Unmarshal(rr.Body.Bytes(), &list)
	if len(list.Jobs) != 2 {
		t.Fatalf("jobs = %d, want 2", len(list.Jobs))
	}
	for _, j := range list.Jobs {
		if j.ProjectID != id {
			t.Fatalf("job from another project listed: %+v", j)
		}
	}

	rr = env.do(t, http.MethodGet, "/projects/"+id+"/exports?limit=1", "")
	json.Unmarshal(rr.Body.Bytes(), &list)
	if len(list.Jobs) != 1 {
		t.Fatalf("limited jobs = %d, want 1", len(list.Jobs))
	}
	expectCode(t, env.do(t, http.MethodGet, "/projects/"+id+"/exports?limit=0", ""), http.StatusBadRequest, "BAD_REQUEST")
}

func TestExportEDL_HappyPath(t *testing.T) {
	env := newTestEnv(t)
	id := env.seedProject(t)
	dir := t.TempDir()

	body, _ := json.Marshal(export.EDLRequest{OutputDir: dir, FrameRate: 25, Name: "My Cut"})
	rr := env.do(t, http.MethodPost, "/projects/"+id+"/export/edl", string(body))
	expectStatus(t, rr, http.StatusOK)

	var resp export.EDLResponse
	json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp.Status != "ok" || resp.Format != "edl" || resp.EventCount != 2 {
		t.Fatalf("response = %+v", resp)
	}
	if filepath.Dir(resp.OutputPath) != dir {
		t.Fatalf("output path = %q, want inside %q", resp.OutputPath, dir)
	}
	data, err := os.ReadFile(resp.OutputPath)
	if err != nil {
		t.Fatalf("read edl: %v", err)
	}
	if !strings.HasPrefix(string(data), "TITLE: ") || !strings.Contains(string(data), "FCM: NON-DROP FRAME") {
		t.Fatalf("edl = %s", data)
	}
}

func TestExportEDL_Rejections(t *testing.T) {
	env := newTestEnv(t)
	id := env.seedProject(t)
	empty := env.do(t, http.MethodPost, "/projects", `{"name":"Empty"}`)
	emptyID := decodeJSONBody(t, empty)["id"].(string)

	notDir := filepath.Join(t.TempDir(), "file.txt")
	os.WriteFile(notDir, []byte("x"), 0o600)

	tests := []struct {
		name    string
		project string
		dir     string
		status  int
		code    string
	}{
		{"missing dir", id, "", http.StatusBadRequest, "BAD_REQUEST"},
		{"traversal", id, "/tmp/../etc", http.StatusBadRequest, "BAD_REQUEST"},
		{"not a directory", id, notDir, http.StatusBadRequest, "BAD_REQUEST"},
		{"nonexistent", id, filepath.Join(t.TempDir(), "nope"), http.StatusBadRequest, "BAD_REQUEST"},
		{"no video clips", emptyID, t.TempDir(), http.StatusUnprocessableEntity, "NOTHING_TO_EXPORT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, _ := json.Marshal(export.EDLRequest{OutputDir: tt.dir})
			rr := env.do(t, http.MethodPost, "/projects/"+tt.project+"/export/edl", string(body))
			expectCode(t, rr, tt.status, tt.code)
		})
	}
}

func TestExportEDL_RemoteCallerForbidden(t *testing.T) {
	env := newTestEnv(t)
	id := env.seedProject(t)

	body, _ := json.Marshal(export.EDLRequest{OutputDir: t.TempDir()})
	req := httptest.NewRequest(http.MethodPost, "/projects/"+id+"/export/edl", strings.NewReader(string(body)))
	req.Header.Set("Authorization", "Bearer "+testToken)
	req.RemoteAddr = "10.0.0.7:5000"
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)

	expectCode(t, rr, http.StatusForbidden, "FORBIDDEN")
}

func TestExportFinishedReachesEventStream(t *testing.T) {
	env := newTestEnv(t)
	id := env.seedProject(t)
	s, _ := env.registry.Get(id)

	var finished []string
	s.Subscribe(func(e events.Event) {
		finished = append(finished, e.Name())
	})

	expectStatus(t, env.do(t, http.MethodPost, "/projects/"+id+"/export", `{}`), http.StatusAccepted)
	env.cfg.Exports.Wait()

	if len(finished) != 1 || finished[0] != "export_finished" {
		t.Fatalf("events = %v", finished)
	}
}
