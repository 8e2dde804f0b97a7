package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// runCLI executes the CLI with args and returns stdout, stderr and the exit code.
func runCLI(t *testing.T, ctx context.Context, args ...string) (string, string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := execute(ctx, args, &stdout, &stderr)
	return stdout.String(), stderr.String(), code
}

func newStatusServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	return server
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestCheck_NoInputPrintsHelp(t *testing.T) {
	stdout, _, code := runCLI(t, context.Background(), "check")

	if code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
	if !strings.Contains(stdout, "Usage:") {
		t.Errorf("expected help text, got: %s", stdout)
	}
}

func TestCheck_PositionalURLs(t *testing.T) {
	server := newStatusServer(t)

	stdout, stderr, code := runCLI(t, context.Background(),
		"check", "--no-color", server.URL+"/ok", "not a url!!", server.URL+"/missing")

	if code != 0 {
		t.Fatalf("exit code = %d, want 0\nstderr: %s", code, stderr)
	}

	lines := strings.Split(strings.TrimRight(stdout, "\n"), "\n")
	if len(lines) != 6 {
		t.Fatalf("got %d lines, want 6:\n%s", len(lines), stdout)
	}
	if !strings.HasPrefix(lines[0], "No.") || lines[1] != strings.Repeat("=", 110) {
		t.Errorf("unexpected header:\n%s\n%s", lines[0], lines[1])
	}
	if !strings.HasPrefix(lines[2], "1 ") || !strings.Contains(lines[2], "200") {
		t.Errorf("row 1 = %q, want index 1 with 200", lines[2])
	}
	if !strings.HasPrefix(lines[3], "2 ") || !strings.Contains(lines[3], "Invalid URL") {
		t.Errorf("row 2 = %q, want invalid URL", lines[3])
	}
	if !strings.HasPrefix(lines[4], "3 ") || !strings.Contains(lines[4], "404") {
		t.Errorf("row 3 = %q, want 404", lines[4])
	}
	if !strings.Contains(lines[5], "3 checked") {
		t.Errorf("summary = %q", lines[5])
	}
}

func TestCheck_StreamAndExport(t *testing.T) {
	server := newStatusServer(t)
	out := filepath.Join(t.TempDir(), "results.csv")

	stdout, stderr, code := runCLI(t, context.Background(),
		"check", "--stream", "--no-color", "-n", "2", "-t", "2s", "-w", out,
		"-H", "X-Check: yes", server.URL, server.URL+"/missing")

	if code != 0 {
		t.Fatalf("exit code = %d, want 0\nstderr: %s", code, stderr)
	}
	if !strings.Contains(stdout, "Results written to "+out) {
		t.Errorf("missing export notice:\n%s", stdout)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("export rows = %d, want 3 (header + 2)", len(rows))
	}
	if rows[1][2] != "200" || rows[2][2] != "404" {
		t.Errorf("export statuses = %q, %q", rows[1][2], rows[2][2])
	}
}

func TestCheck_URLFile(t *testing.T) {
	server := newStatusServer(t)
	list := writeFile(t, "urls.txt", "# services\n"+server.URL+"\n\n"+server.URL+"/missing\n")

	stdout, stderr, code := runCLI(t, context.Background(), "check", "--no-color", "-f", list)

	if code != 0 {
		t.Fatalf("exit code = %d, want 0\nstderr: %s", code, stderr)
	}
	if !strings.Contains(stdout, "2 checked") {
		t.Errorf("expected 2 checks:\n%s", stdout)
	}
}

func TestCheck_UnreadableFileContinues(t *testing.T) {
	server := newStatusServer(t)
	missing := filepath.Join(t.TempDir(), "missing.txt")

	stdout, stderr, code := runCLI(t, context.Background(), "check", "--no-color", "-f", missing, server.URL)

	if code != 0 {
		t.Fatalf("exit code = %d, want 0\nstderr: %s", code, stderr)
	}
	if !strings.Contains(stderr, "Skipping URL file") {
		t.Errorf("stderr should report the unreadable file, got: %s", stderr)
	}
	if !strings.Contains(stdout, "1 checked") {
		t.Errorf("positional URL should still be checked:\n%s", stdout)
	}
}

func TestCheck_UnreadableFileOnly(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.txt")

	_, stderr, code := runCLI(t, context.Background(), "check", "-f", missing)

	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr, "failed to open url file") {
		t.Errorf("stderr = %s", stderr)
	}
}

func TestCheck_EmptyFile(t *testing.T) {
	list := writeFile(t, "urls.txt", "\n# nothing here\n")

	stdout, _, code := runCLI(t, context.Background(), "check", "-f", list)

	if code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
	if !strings.Contains(stdout, "No URLs provided.") {
		t.Errorf("stdout = %s", stdout)
	}
}

func TestCheck_ConfigFile(t *testing.T) {
	server := newStatusServer(t)
	t.Setenv("SITEPULSE_TEST_URL", server.URL)

	cfgPath := writeFile(t, "sitepulse.yaml", `
concurrency: 2
timeout: 2s
no_color: true
urls:
  - ${SITEPULSE_TEST_URL}
grids:
  - name: paths
    url_template: "${SITEPULSE_TEST_URL}/{{.path}}"
    dimensions:
      path: [ok, missing]
`)

	stdout, stderr, code := runCLI(t, context.Background(), "check", "-c", cfgPath)

	if code != 0 {
		t.Fatalf("exit code = %d, want 0\nstderr: %s", code, stderr)
	}
	if !strings.Contains(stdout, "3 checked") {
		t.Errorf("expected 3 checks:\n%s", stdout)
	}
}

func TestCheck_InvalidFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"zero concurrency", []string{"check", "-n", "0", "example.com"}, "concurrency must be at least 1"},
		{"bad method", []string{"check", "--method", "POST", "example.com"}, "method must be one of"},
		{"bad header", []string{"check", "-H", "no-colon", "example.com"}, "must have the form"},
		{"bad log level", []string{"check", "--log-level", "loud", "example.com"}, "log.level"},
		{"missing config", []string{"check", "-c", "/nonexistent/sitepulse.yaml"}, "failed to load config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, stderr, code := runCLI(t, context.Background(), tt.args...)
			if code != 1 {
				t.Errorf("exit code = %d, want 1", code)
			}
			if !strings.Contains(stderr, tt.wantErr) {
				t.Errorf("stderr = %q, want containing %q", stderr, tt.wantErr)
			}
		})
	}
}

func TestCheck_Interrupted(t *testing.T) {
	server := newStatusServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stdout, stderr, code := runCLI(t, ctx, "check", "--no-color", server.URL, "not a url!!")

	if code != exitInterrupted {
		t.Errorf("exit code = %d, want %d", code, exitInterrupted)
	}
	if !strings.Contains(stdout, "Stopped") {
		t.Errorf("stdout should contain Stopped notice:\n%s", stdout)
	}
	if strings.Contains(stderr, "Error:") {
		t.Errorf("interrupt should not be reported as an error: %s", stderr)
	}
}

func TestCheck_ExportFailure(t *testing.T) {
	server := newStatusServer(t)
	// a regular file where the output directory should be
	blocker := writeFile(t, "blocker", "x")
	out := filepath.Join(blocker, "results.csv")

	_, stderr, code := runCLI(t, context.Background(), "check", "--no-color", "-w", out, server.URL)

	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr, "Error:") {
		t.Errorf("stderr should report the export error: %s", stderr)
	}
}

func TestCheck_InterruptedExportFailureKeepsStatus(t *testing.T) {
	server := newStatusServer(t)
	blocker := writeFile(t, "blocker", "x")
	out := filepath.Join(blocker, "results.csv")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stdout, stderr, code := runCLI(t, ctx, "check", "--no-color", "-w", out, server.URL)

	if code != exitInterrupted {
		t.Errorf("exit code = %d, want %d", code, exitInterrupted)
	}
	if !strings.Contains(stdout, "Stopped") {
		t.Errorf("stdout should contain Stopped notice:\n%s", stdout)
	}
	if !strings.Contains(stderr, "failed to create output directory") {
		t.Errorf("stderr should still report the export error: %s", stderr)
	}
}

func TestParseHeaders(t *testing.T) {
	headers, err := parseHeaders([]string{"User-Agent: sitepulse/1.0", "X-Token:abc:def", "Empty:"})
	if err != nil {
		t.Fatalf("parseHeaders() error = %v", err)
	}
	if headers["User-Agent"] != "sitepulse/1.0" {
		t.Errorf("User-Agent = %q", headers["User-Agent"])
	}
	if headers["X-Token"] != "abc:def" {
		t.Errorf("X-Token = %q", headers["X-Token"])
	}
	if v, ok := headers["Empty"]; !ok || v != "" {
		t.Errorf("Empty = %q, %v", v, ok)
	}

	if _, err := parseHeaders([]string{": value"}); err == nil {
		t.Error("parseHeaders() expected error for empty name")
	}
}
