package integration_tests

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

func buildBinary(t *testing.T, tmpDir, name, pkg string) string {
	t.Helper()
	origDir, _ := os.Getwd()

	bin := filepath.Join(tmpDir, name)
	cmd := exec.Command("go", "build", "-o", bin, filepath.Join(origDir, "..", "cmd", pkg))
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("failed to build %s: %v\nOutput: %s", pkg, err, string(out))
	}

	return bin
}

type resultRecord struct {
	Status     string         `json:"status"`
	Timestamp  string         `json:"timestamp"`
	Parameters map[string]any `json:"parameters"`
	Results    struct {
		StepsCompleted int `json:"steps_completed"`
	} `json:"results"`
}

func readResultFile(t *testing.T, dir string) resultRecord {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, "test_output.json"))
	if err != nil {
		t.Fatalf("read test_output.json: %v", err)
	}
	var record resultRecord
	if err := json.Unmarshal(data, &record); err != nil {
		t.Fatalf("unmarshal test_output.json: %v", err)
	}
	return record
}

func TestTestJobWithoutParams(t *testing.T) {
	tmpDir := t.TempDir()
	bin := buildBinary(t, tmpDir, "nsg-testjob", "nsg-testjob")

	workDir := filepath.Join(tmpDir, "work")
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		t.Fatalf("create work dir: %v", err)
	}

	cmd := exec.Command(bin)
	cmd.Dir = workDir

	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("nsg-testjob failed: %v\nOutput: %s", err, string(out))
	}

	record := readResultFile(t, workDir)
	if record.Status != "completed" {
		t.Errorf("status = %q, want completed", record.Status)
	}
	if len(record.Parameters) != 0 {
		t.Errorf("parameters should be empty, got %v", record.Parameters)
	}
	if record.Results.StepsCompleted != 5 {
		t.Errorf("steps_completed = %d, want 5", record.Results.StepsCompleted)
	}
}

func TestTestJobWithMalformedParams(t *testing.T) {
	tmpDir := t.TempDir()
	bin := buildBinary(t, tmpDir, "nsg-testjob", "nsg-testjob")

	workDir := filepath.Join(tmpDir, "work")
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		t.Fatalf("create work dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(workDir, "params.json"), []byte("{broken"), 0o644); err != nil {
		t.Fatalf("write params: %v", err)
	}

	cmd := exec.Command(bin)
	cmd.Dir = workDir

	// Malformed params must not fail the job.
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("nsg-testjob failed on malformed params: %v\nOutput: %s", err, string(out))
	}

	record := readResultFile(t, workDir)
	if record.Status != "completed" {
		t.Errorf("status = %q, want completed", record.Status)
	}
	if len(record.Parameters) != 0 {
		t.Errorf("parameters should be empty after malformed params, got %v", record.Parameters)
	}
}

func TestLocalRunWrapsTestJob(t *testing.T) {
	tmpDir := t.TempDir()
	nsgBin := buildBinary(t, tmpDir, "nsg", "nsg")
	jobBin := buildBinary(t, tmpDir, "nsg-testjob", "nsg-testjob")

	jobDir := filepath.Join(tmpDir, "job")
	if err := os.MkdirAll(jobDir, 0o755); err != nil {
		t.Fatalf("create job dir: %v", err)
	}

	cmd := exec.Command(nsgBin, "localrun", jobBin,
		"--job-dir", jobDir,
		"--params", `{"a": 1}`,
		"--quiet",
	)

	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("nsg localrun failed: %v\nOutput: %s", err, string(out))
	}

	record := readResultFile(t, jobDir)
	if record.Parameters["a"] != float64(1) {
		t.Errorf("parameters not round-tripped through localrun: %v", record.Parameters)
	}
}
