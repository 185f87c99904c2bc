package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

func TestJobCommand(t *testing.T) {
	port, stop := fakeRCONServer(t, "secret")
	defer stop()

	t.Setenv("RCON_PASSWORD", "secret")
	t.Setenv("RCON_PORT", strconv.Itoa(port))
	t.Setenv("WORKER_COUNT", "2")
	t.Setenv("SHUTDOWN_GRACE_PERIOD", "disable")
	t.Setenv("SHUTDOWN_AWAIT_PERIOD", "disable")

	jobFile := filepath.Join(t.TempDir(), "job.json")
	const jobJSON = `[
		{"id": 1, "cmd": "a", "require_result": true},
		{"id": 2, "cmd": "b", "depends_on": [1], "require_result": true}
	]`
	if err := os.WriteFile(jobFile, []byte(jobJSON), 0o600); err != nil {
		t.Fatalf("writing job file: %v", err)
	}

	rootCmd.SetArgs([]string{"job", jobFile})
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("job: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "[1] a: a") {
		t.Errorf("output missing command 1 result:\n%s", output)
	}
	if !strings.Contains(output, "[2] b: b") {
		t.Errorf("output missing command 2 result:\n%s", output)
	}
}

func TestJobCommandInvalidFile(t *testing.T) {
	rootCmd.SetArgs([]string{"job", "/nonexistent/path/job.json"})
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)

	if err := rootCmd.Execute(); err == nil {
		t.Fatal("expected an error for a missing job file")
	}
}

func TestJobCommandCycleRejected(t *testing.T) {
	jobFile := filepath.Join(t.TempDir(), "cycle.json")
	const jobJSON = `[
		{"id": 1, "cmd": "a", "depends_on": [2]},
		{"id": 2, "cmd": "b", "depends_on": [1]}
	]`
	if err := os.WriteFile(jobFile, []byte(jobJSON), 0o600); err != nil {
		t.Fatalf("writing job file: %v", err)
	}

	rootCmd.SetArgs([]string{"job", jobFile})
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)

	if err := rootCmd.Execute(); err == nil {
		t.Fatal("expected a cycle-detection error")
	}
}
