package exports

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/heimdex/heimdex-studio/internal/db"
	"github.com/heimdex/heimdex-studio/internal/export"
	"github.com/heimdex/heimdex-studio/internal/render"
)

func setupTestDB(t *testing.T) (*db.DB, Repository) {
	t.Helper()
	database, err := db.New(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database, NewRepository(database.Conn())
}

type fakeClient struct {
	mu     sync.Mutex
	calls  int
	result *render.Result
	err    error
	block  chan struct{}
}

func (f *fakeClient) SubmitExport(ctx context.Context, payload export.RenderPayload) (*render.Result, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.result, f.err
}

func (f *fakeClient) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func payload(projectID string) export.RenderPayload {
	return export.RenderPayload{ProjectID: projectID, OutputFormat: "mp4", Quality: "high", Resolution: "720p"}
}

func TestService_SubmitCompletes(t *testing.T) {
	_, repo := setupTestDB(t)
	client := &fakeClient{result: &render.Result{ExportID: "x", OutputLocation: "s3://out/x.mp4"}}
	svc := NewService(repo, client, time.Second, nil)

	var finished []*Job
	var mu sync.Mutex
	svc.OnFinish(func(j *Job) {
		mu.Lock()
		finished = append(finished, j)
		mu.Unlock()
	})

	job, err := svc.Submit(context.Background(), payload("p1"))
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if job.Status != StatusPending || job.ID == "" {
		t.Fatalf("submitted job = %+v", job)
	}

	svc.Wait()

	got, err := svc.Get(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Status != StatusCompleted || got.OutputLocation != "s3://out/x.mp4" || got.Quality != "high" {
		t.Fatalf("job = %+v", got)
	}
	if !got.Finished() {
		t.Fatal("Finished() = false for completed job")
	}
	if len(finished) != 1 || finished[0].ID != job.ID {
		t.Fatalf("OnFinish calls = %+v", finished)
	}
}

func TestService_SubmitFailsWithoutRetry(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{name: "server error", err: &render.Error{StatusCode: 503, Body: "busy"}, wantMsg: "unavailable"},
		{name: "rejected", err: &render.Error{StatusCode: 400, Body: "bad tracks"}, wantMsg: "bad tracks"},
		{name: "timeout", err: context.DeadlineExceeded, wantMsg: "timed out"},
		{name: "network", err: errors.New("connection refused"), wantMsg: "connection refused"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, repo := setupTestDB(t)
			client := &fakeClient{err: tc.err}
			svc := NewService(repo, client, time.Second, nil)

			job, err := svc.Submit(context.Background(), payload("p1"))
			if err != nil {
				t.Fatalf("Submit() error = %v", err)
			}
			svc.Wait()

			got, _ := svc.Get(context.Background(), job.ID)
			if got.Status != StatusFailed {
				t.Fatalf("status = %s, want failed", got.Status)
			}
			if !strings.Contains(got.Error, tc.wantMsg) {
				t.Fatalf("error = %q, want mention of %q", got.Error, tc.wantMsg)
			}
			if client.Calls() != 1 {
				t.Fatalf("client called %d times, want exactly 1", client.Calls())
			}
		})
	}
}

func TestService_SubmitIgnoresCallerCancellation(t *testing.T) {
	_, repo := setupTestDB(t)
	client := &fakeClient{result: &render.Result{OutputLocation: "done"}, block: make(chan struct{})}
	svc := NewService(repo, client, time.Second, nil)

	ctx, cancel := context.WithCancel(context.Background())
	job, err := svc.Submit(ctx, payload("p1"))
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	cancel()
	close(client.block)
	svc.Wait()

	got, _ := svc.Get(context.Background(), job.ID)
	if got.Status != StatusCompleted {
		t.Fatalf("status = %s, want completed", got.Status)
	}
}

func TestService_ListAndLatest(t *testing.T) {
	_, repo := setupTestDB(t)
	svc := NewService(repo, &fakeClient{result: &render.Result{}}, time.Second, nil)
	ctx := context.Background()

	if latest, err := svc.Latest(ctx); err != nil || latest != nil {
		t.Fatalf("Latest() on empty = %+v, %v", latest, err)
	}

	svc.Submit(ctx, payload("p1"))
	svc.Submit(ctx, payload("p2"))
	last, _ := svc.Submit(ctx, payload("p1"))
	svc.Wait()

	p1, err := svc.List(ctx, "p1", 10)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(p1) != 2 {
		t.Fatalf("p1 jobs = %d, want 2", len(p1))
	}
	all, _ := svc.List(ctx, "", 10)
	if len(all) != 3 {
		t.Fatalf("all jobs = %d, want 3", len(all))
	}

	latest, _ := svc.Latest(ctx)
	if latest == nil || latest.ID != last.ID {
		t.Fatalf("Latest() = %+v, want %s", latest, last.ID)
	}
}

func TestRepository_Config(t *testing.T) {
	_, repo := setupTestDB(t)
	ctx := context.Background()

	if v, err := repo.GetConfig(ctx, "auth_token"); err != nil || v != "" {
		t.Fatalf("GetConfig() on missing key = %q, %v", v, err)
	}
	if err := repo.SetConfig(ctx, "auth_token", "a"); err != nil {
		t.Fatalf("SetConfig() error = %v", err)
	}
	if err := repo.SetConfig(ctx, "auth_token", "b"); err != nil {
		t.Fatalf("SetConfig() overwrite error = %v", err)
	}
	if v, _ := repo.GetConfig(ctx, "auth_token"); v != "b" {
		t.Fatalf("GetConfig() = %q, want b", v)
	}
}

func TestRepository_GetMissing(t *testing.T) {
	_, repo := setupTestDB(t)
	job, err := repo.GetJob(context.Background(), "missing")
	if err != nil || job != nil {
		t.Fatalf("GetJob(missing) = %+v, %v", job, err)
	}
}
