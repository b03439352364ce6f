// Package integration provides CLI integration tests for datalus.
package integration

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

var (
	// datalusBin is the path to the built datalus binary.
	datalusBin string
	// buildErr captures any build error.
	buildErr error
)

// BuildError wraps a build error with output.
type BuildError struct {
	Err    error
	Output string
}

func (e *BuildError) Error() string {
	return e.Err.Error() + ": " + e.Output
}

// FindProjectRoot finds the project root by walking up and looking for go.mod.
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}

// TestEnv is an isolated config and data directory pair.
type TestEnv struct {
	t         *testing.T
	TempDir   string
	ConfigDir string
	DataDir   string
}

// NewTestEnv creates a new isolated test environment.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	if buildErr != nil {
		t.Fatalf("failed to build datalus: %v", buildErr)
	}
	if datalusBin == "" {
		t.Fatal("datalus binary not built")
	}

	tempDir := t.TempDir()
	return &TestEnv{
		t:         t,
		TempDir:   tempDir,
		ConfigDir: filepath.Join(tempDir, "config"),
		DataDir:   filepath.Join(tempDir, "data"),
	}
}

// WriteConfig writes config.yaml into the environment's config directory.
func (e *TestEnv) WriteConfig(content string) {
	e.t.Helper()
	if err := os.MkdirAll(e.ConfigDir, 0o755); err != nil {
		e.t.Fatalf("create config dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(e.ConfigDir, "config.yaml"), []byte(content), 0o644); err != nil {
		e.t.Fatalf("write config: %v", err)
	}
}

// CmdResult holds the result of a datalus command execution.
type CmdResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Run executes the datalus CLI against the environment's directories.
func (e *TestEnv) Run(args ...string) CmdResult {
	e.t.Helper()
	allArgs := append([]string{"--config-dir", e.ConfigDir, "--data-dir", e.DataDir}, args...)
	return e.RunWith(nil, allArgs...)
}

// RunWith executes the datalus CLI with args unchanged and env appended to a
// cleaned environment.
func (e *TestEnv) RunWith(env []string, args ...string) CmdResult {
	e.t.Helper()
	cmd := exec.Command(datalusBin, args...)
	cmd.Env = append(cleanEnv(), env...)
	cmd.Dir = e.TempDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	exitCode := 0
	if err := cmd.Run(); err != nil {
		exitErr, ok := err.(*exec.ExitError)
		if !ok {
			e.t.Fatalf("failed to run datalus: %v", err)
		}
		exitCode = exitErr.ExitCode()
	}
	return CmdResult{Stdout: stdout.String(), Stderr: stderr.String(), ExitCode: exitCode}
}

// MustRun executes the datalus CLI and fails the test on a non-zero exit.
func (e *TestEnv) MustRun(args ...string) CmdResult {
	e.t.Helper()
	result := e.Run(args...)
	if result.ExitCode != 0 {
		e.t.Fatalf("datalus %v failed with exit code %d:\nstdout: %s\nstderr: %s",
			args, result.ExitCode, result.Stdout, result.Stderr)
	}
	return result
}

// cleanEnv returns os.Environ() without DATALUS_* and XDG_* variables.
func cleanEnv() []string {
	var env []string
	for _, e := range os.Environ() {
		if strings.HasPrefix(e, "DATALUS_") || strings.HasPrefix(e, "XDG_") {
			continue
		}
		env = append(env, e)
	}
	return env
}

// ParseJSON parses JSON output into the target type.
func ParseJSON[T any](t *testing.T, jsonStr string) T {
	t.Helper()
	var result T
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		t.Fatalf("failed to parse JSON %q: %v", jsonStr, err)
	}
	return result
}

// ReadJSONLFile reads a JSONL file (one JSON object per line) and returns a slice.
func ReadJSONLFile[T any](t *testing.T, path string) []T {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open JSONL file %s: %v", path, err)
	}
	defer f.Close()

	var results []T
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var record T
		if err := json.Unmarshal(line, &record); err != nil {
			t.Fatalf("failed to parse JSONL line in %s: %v", path, err)
		}
		results = append(results, record)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("failed to scan JSONL file %s: %v", path, err)
	}
	return results
}
