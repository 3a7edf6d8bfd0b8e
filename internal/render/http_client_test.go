package render

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/heimdex/heimdex-studio/internal/export"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testPayload() export.RenderPayload {
	return export.RenderPayload{
		ProjectID:       "proj-1",
		ProjectName:     "Demo",
		OutputFormat:    "mp4",
		Quality:         "standard",
		Resolution:      "1080p",
		DurationSeconds: 10,
		Tracks:          []export.TrackPayload{{ID: "video", Kind: "video", Name: "Video"}},
	}
}

func TestHTTPClient_SubmitExport_Success(t *testing.T) {
	var received export.RenderPayload
	var receivedAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/render/exports" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		if r.Header.Get("X-Heimdex-Request-Id") == "" {
			t.Error("missing request id header")
		}

		receivedAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &received)

		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(Result{ExportID: "exp-9", OutputLocation: "s3://bucket/exp-9.mp4"})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL+"/", "test-token", time.Second, testLogger())

	result, err := client.SubmitExport(context.Background(), testPayload())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if receivedAuth != "Bearer test-token" {
		t.Errorf("auth = %q, want %q", receivedAuth, "Bearer test-token")
	}
	if received.ProjectID != "proj-1" || len(received.Tracks) != 1 {
		t.Errorf("payload = %+v", received)
	}
	if result.ExportID != "exp-9" || result.OutputLocation != "s3://bucket/exp-9.mp4" || result.Status != "completed" {
		t.Errorf("result = %+v", result)
	}
}

func TestHTTPClient_SubmitExport_ReturnsError(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		temporary bool
	}{
		{name: "server error", status: http.StatusBadGateway, temporary: true},
		{name: "client error", status: http.StatusUnprocessableEntity, temporary: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(`{"detail":"nope"}`))
			}))
			defer server.Close()

			client := NewHTTPClient(server.URL, "", time.Second, testLogger())
			_, err := client.SubmitExport(context.Background(), testPayload())

			var renderErr *Error
			if !errors.As(err, &renderErr) {
				t.Fatalf("expected *Error, got %T: %v", err, err)
			}
			if renderErr.StatusCode != tc.status {
				t.Errorf("status = %d, want %d", renderErr.StatusCode, tc.status)
			}
			if renderErr.Temporary() != tc.temporary {
				t.Errorf("Temporary() = %v, want %v", renderErr.Temporary(), tc.temporary)
			}
			if !strings.Contains(renderErr.Body, "nope") {
				t.Errorf("body = %q", renderErr.Body)
			}
		})
	}
}

func TestHTTPClient_SubmitExport_NoAuthHeaderWithoutToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "" {
			t.Errorf("unexpected Authorization header %q", auth)
		}
		w.Write([]byte(`{"export_id":"x"}`))
	}))
	defer server.Close()

	if _, err := NewHTTPClient(server.URL, "", time.Second, testLogger()).SubmitExport(context.Background(), testPayload()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHTTPClient_SubmitExport_BadResponseBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer server.Close()

	_, err := NewHTTPClient(server.URL, "t", time.Second, testLogger()).SubmitExport(context.Background(), testPayload())
	if err == nil {
		t.Fatal("expected decode error")
	}
}

func TestHTTPClient_SubmitExport_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewHTTPClient(url, "t", time.Second, testLogger()).SubmitExport(context.Background(), testPayload())
	if err == nil {
		t.Fatal("expected network error")
	}
	var renderErr *Error
	if errors.As(err, &renderErr) {
		t.Fatalf("network failure should not be a *Error: %v", err)
	}
}

func TestStubClient_SubmitExport(t *testing.T) {
	client := NewStubClient(testLogger())
	result, err := client.SubmitExport(context.Background(), testPayload())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ExportID == "" || !strings.HasSuffix(result.OutputLocation, ".mp4") {
		t.Fatalf("result = %+v", result)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := client.SubmitExport(ctx, testPayload()); !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled ctx error = %v", err)
	}
}
