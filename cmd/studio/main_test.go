package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestVersionCommand(t *testing.T) {
	out, err := runCLI(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "heimdex-studio ") {
		t.Fatalf("output = %q", out)
	}
}

func TestInspect_DemoShots(t *testing.T) {
	out, err := runCLI(t, "inspect")
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	for _, want := range []string{"Duration: 20.5s", "shot-4", "15.5", "Video", "Sound Effects", "Mix at 0s"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestInspect_ShotsAndCommands(t *testing.T) {
	shots := writeFile(t, "shots.json", `[{"id":"a","duration":3},{"id":"b","duration":2}]`)
	commands := writeFile(t, "commands.json", `[
		{"type":"set_volume","track_id":"music","volume":0.25},
		{"type":"attach_transition","clip_id":"b","transition":{"type":"fade","duration_seconds":0.5}},
		{"type":"set_mute","track_id":"sfx","muted":true}
	]`)

	out, err := runCLI(t, "inspect", "--shots", shots, "--commands", commands, "--at", "1")
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	for _, want := range []string{"Duration: 7s", "Fade 0.5s", "0.25", "muted", "Mix at 1s"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestInspect_DuplicateShotIDs(t *testing.T) {
	shots := writeFile(t, "shots.json", `[{"id":"a","duration":2},{"id":"a","duration":2}]`)
	commands := writeFile(t, "commands.json", `[{"type":"set_volume","track_id":"music","volume":0.5}]`)

	out, err := runCLI(t, "inspect", "--shots", shots, "--commands", commands)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if !strings.Contains(out, "a-2") {
		t.Fatalf("output missing renamed duplicate:\n%s", out)
	}
}

func TestInspect_RejectedCommand(t *testing.T) {
	commands := writeFile(t, "commands.json", `[{"type":"move_clip","clip_id":"shot-2","start_time":1}]`)
	if _, err := runCLI(t, "inspect", "--commands", commands); err == nil {
		t.Fatal("expected overlapping move to fail")
	}
}

func TestInspect_BadInput(t *testing.T) {
	tests := map[string][]string{
		"missing shots file": {"inspect", "--shots", filepath.Join(t.TempDir(), "none.json")},
		"bad shots json":     {"inspect", "--shots", writeFile(t, "s.json", `{`)},
		"unknown command":    {"inspect", "--commands", writeFile(t, "c.json", `[{"type":"explode"}]`)},
		"commands not array": {"inspect", "--commands", writeFile(t, "c2.json", `{"type":"set_mute"}`)},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := runCLI(t, args...); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestInspect_WritesEDL(t *testing.T) {
	dir := t.TempDir()
	out, err := runCLI(t, "inspect", "--edl", dir, "--name", "Demo Cut")
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if !strings.Contains(out, "Wrote 4 events to ") {
		t.Fatalf("output = %s", out)
	}
	matches, _ := filepath.Glob(filepath.Join(dir, "*.edl"))
	if len(matches) != 1 {
		t.Fatalf("edl files = %v", matches)
	}
}

func TestRenderTable_PadsShortRows(t *testing.T) {
	got := renderTable([]string{"A", "B"}, [][]string{{"only"}}, nil)
	if !strings.Contains(got, "only") || !strings.Contains(got, "╭") {
		t.Fatalf("table = %s", got)
	}
	if renderTable(nil, nil, nil) != "" {
		t.Fatal("expected empty render for no headers")
	}
}

type fakeConfigStore struct {
	values map[string]string
	setErr error
}

func (f *fakeConfigStore) GetConfig(_ context.Context, key string) (string, error) {
	return f.values[key], nil
}

func (f *fakeConfigStore) SetConfig(_ context.Context, key, value string) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.values[key] = value
	return nil
}

func TestEnsureAuthToken(t *testing.T) {
	store := &fakeConfigStore{values: map[string]string{}}

	first, err := ensureAuthToken(store)
	if err != nil {
		t.Fatalf("ensureAuthToken: %v", err)
	}
	if len(first) != 64 {
		t.Fatalf("token length = %d, want 64", len(first))
	}

	second, err := ensureAuthToken(store)
	if err != nil || second != first {
		t.Fatalf("second call = %q, %v; want stored token", second, err)
	}

	failing := &fakeConfigStore{values: map[string]string{}, setErr: errors.New("disk full")}
	if _, err := ensureAuthToken(failing); err == nil {
		t.Fatal("expected store error")
	}
}
