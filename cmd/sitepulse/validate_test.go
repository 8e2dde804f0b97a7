package main

import (
	"context"
	"strings"
	"testing"
)

func TestRunValidate_ValidConfig(t *testing.T) {
	configPath := writeFile(t, "config.yaml", `
concurrency: 20
timeout: 3s
method: HEAD
urls:
  - example.com
grids:
  - name: Platform
    url_template: "https://{{.env}}.example.com/health"
    dimensions:
      env: [prod, staging]
output: results.json
`)

	output, stderr, code := runCLI(t, context.Background(), "validate", "-c", configPath)
	if code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr)
	}

	expectedPhrases := []string{
		"Config is valid!",
		"Concurrency: 20",
		"Timeout:     3s",
		"Method:      HEAD",
		"1 listed + 2 from grids = 3 total",
		"Output:      results.json",
	}

	for _, phrase := range expectedPhrases {
		if !strings.Contains(output, phrase) {
			t.Errorf("output missing %q\nGot: %s", phrase, output)
		}
	}
}

func TestRunValidate_InvalidConfig(t *testing.T) {
	configPath := writeFile(t, "invalid.yaml", `
grids:
  - url_template: "https://{{.env}}.example.com"
    dimensions:
      env: [prod]
`)

	_, stderr, code := runCLI(t, context.Background(), "validate", "-c", configPath)
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr, "name is required") {
		t.Errorf("error should mention 'name is required', got: %s", stderr)
	}
}

func TestRunValidate_MissingFile(t *testing.T) {
	_, stderr, code := runCLI(t, context.Background(), "validate", "-c", "/nonexistent/path/config.yaml")
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr, "failed to read") {
		t.Errorf("error should mention 'failed to read', got: %s", stderr)
	}
}

func TestRunValidate_RequiresConfigFlag(t *testing.T) {
	_, stderr, code := runCLI(t, context.Background(), "validate")
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr, "config") {
		t.Errorf("stderr = %s", stderr)
	}
}

func TestVersion(t *testing.T) {
	stdout, _, code := runCLI(t, context.Background(), "version")
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.HasPrefix(stdout, "sitepulse dev") {
		t.Errorf("stdout = %q", stdout)
	}
}
