// Package integration provides integration tests for lrev commands.
package integration

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
)

var (
	lrevBinary     string
	lrevBinaryOnce sync.Once
	lrevBinaryErr  error
)

// getLrevBinary builds the lrev binary once and returns its path.
func getLrevBinary(t *testing.T) string {
	t.Helper()
	lrevBinaryOnce.Do(func() {
		_, filename, _, ok := runtime.Caller(0)
		if !ok {
			lrevBinaryErr = os.ErrInvalid
			return
		}
		moduleRoot := filepath.Dir(filepath.Dir(filepath.Dir(filename)))

		tmpDir, err := os.MkdirTemp("", "lrev-test-*")
		if err != nil {
			lrevBinaryErr = err
			return
		}
		lrevBinary = filepath.Join(tmpDir, "lrev")

		cmd := exec.Command("go", "build", "-o", lrevBinary, "./cmd/lrev")
		cmd.Dir = moduleRoot
		if output, err := cmd.CombinedOutput(); err != nil {
			lrevBinaryErr = &buildError{output: string(output), err: err}
			return
		}
	})
	if lrevBinaryErr != nil {
		t.Fatalf("failed to build lrev: %v", lrevBinaryErr)
	}
	return lrevBinary
}

type buildError struct {
	output string
	err    error
}

func (e *buildError) Error() string {
	return e.err.Error() + ": " + e.output
}

// runLrev runs lrev in dir and returns stdout, stderr and the exit code.
func runLrev(t *testing.T, dir string, args ...string) (string, string, int) {
	t.Helper()
	cmd := exec.Command(getLrevBinary(t), args...)
	cmd.Dir = dir

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	code := 0
	if exitErr, ok := err.(*exec.ExitError); ok {
		code = exitErr.ExitCode()
	} else if err != nil {
		t.Fatalf("running lrev %v: %v", args, err)
	}
	return stdout.String(), stderr.String(), code
}

// setupTestRepo initializes a review repository in a temp dir.
func setupTestRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	out, errOut, code := runLrev(t, dir, "init")
	if code != 0 {
		t.Fatalf("init failed (%d): %s%s", code, out, errOut)
	}
	return dir
}

// submitPaper files one manual submission and returns its ledger ID.
func submitPaper(t *testing.T, dir, title, doi string) string {
	t.Helper()
	out, errOut, code := runLrev(t, dir, "submit",
		"--title", title,
		"--doi", doi,
		"--author", "A. Author",
		"--year", "2025",
		"--venue", "PRAB",
		"--submitter", "tester")
	if code != 0 {
		t.Fatalf("submit failed (%d): %s%s", code, out, errOut)
	}
	var entry struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal([]byte(out), &entry); err != nil {
		t.Fatalf("parsing submit output: %v\n%s", err, out)
	}
	if entry.ID == "" {
		t.Fatalf("submit returned no ID: %s", out)
	}
	return entry.ID
}

func TestInit_Idempotence(t *testing.T) {
	dir := setupTestRepo(t)

	_, _, code := runLrev(t, dir, "init")
	if code != 2 {
		t.Errorf("second init exit code = %d, want 2", code)
	}
}

func TestSubmitReviewAcceptFlow(t *testing.T) {
	dir := setupTestRepo(t)
	id := submitPaper(t, dir, "Surrogate models for linac tuning", "10.1103/test.1")

	// Pending entry visible.
	out, _, code := runLrev(t, dir, "review", "list")
	if code != 0 {
		t.Fatalf("review list failed: %d", code)
	}
	if !strings.Contains(out, id) {
		t.Errorf("review list should contain %s:\n%s", id, out)
	}

	// Accept merges the paper.
	out, errOut, code := runLrev(t, dir, "review", "accept", id, "--notes", "looks good")
	if code != 0 {
		t.Fatalf("accept failed (%d): %s%s", code, out, errOut)
	}
	var decision struct {
		Status  string `json:"status"`
		Created int    `json:"created"`
	}
	if err := json.Unmarshal([]byte(out), &decision); err != nil {
		t.Fatalf("parsing accept output: %v\n%s", err, out)
	}
	if decision.Status != "accepted" || decision.Created != 1 {
		t.Errorf("decision = %+v, want accepted/1", decision)
	}

	// Paper retrievable by DOI.
	out, _, code = runLrev(t, dir, "get", "10.1103/test.1")
	if code != 0 {
		t.Fatalf("get failed: %d\n%s", code, out)
	}
	if !strings.Contains(out, "Surrogate models for linac tuning") {
		t.Errorf("get output missing title:\n%s", out)
	}

	// Accepting again is a no-op, not an error.
	_, _, code = runLrev(t, dir, "review", "accept", id)
	if code != 0 {
		t.Errorf("repeated accept exit code = %d, want 0", code)
	}
}

func TestRejectRequiresReason(t *testing.T) {
	dir := setupTestRepo(t)
	id := submitPaper(t, dir, "Off topic paper", "10.1103/test.2")

	_, _, code := runLrev(t, dir, "review", "reject", id)
	if code == 0 {
		t.Error("reject without --reason should fail")
	}

	out, errOut, code := runLrev(t, dir, "review", "reject", id, "--reason", "out of scope")
	if code != 0 {
		t.Fatalf("reject failed (%d): %s%s", code, out, errOut)
	}

	// Terminal: accept after reject is refused or a no-op keeping rejected.
	out, _, _ = runLrev(t, dir, "review", "list", "--status", "rejected")
	if !strings.Contains(out, id) {
		t.Errorf("rejected list should contain %s:\n%s", id, out)
	}
}

func TestListAndExport(t *testing.T) {
	dir := setupTestRepo(t)
	for _, p := range []struct{ title, doi string }{
		{"Anomaly detection in RF cavities", "10.1103/test.3"},
		{"Bayesian optimization of beam optics", "10.1103/test.4"},
	} {
		id := submitPaper(t, dir, p.title, p.doi)
		if _, errOut, code := runLrev(t, dir, "review", "accept", id); code != 0 {
			t.Fatalf("accept failed: %s", errOut)
		}
	}

	out, _, code := runLrev(t, dir, "list")
	if code != 0 {
		t.Fatalf("list failed: %d", code)
	}
	var rows []struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	}
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("parsing list output: %v\n%s", err, out)
	}
	if len(rows) != 2 {
		t.Fatalf("list returned %d rows, want 2", len(rows))
	}

	out, _, code = runLrev(t, dir, "export", "--bibtex")
	if code != 0 {
		t.Fatalf("export failed: %d", code)
	}
	if strings.Count(out, "@article{") != 2 {
		t.Errorf("export should emit 2 entries:\n%s", out)
	}
	if !strings.Contains(out, "doi = {10.1103/test.3}") {
		t.Errorf("export missing DOI field:\n%s", out)
	}

	out, _, code = runLrev(t, dir, "stats")
	if code != 0 {
		t.Fatalf("stats failed: %d", code)
	}
	var stats struct {
		TotalPapers int `json:"total_papers"`
	}
	if err := json.Unmarshal([]byte(out), &stats); err != nil {
		t.Fatalf("parsing stats output: %v\n%s", err, out)
	}
	if stats.TotalPapers != 2 {
		t.Errorf("stats total_papers = %d, want 2", stats.TotalPapers)
	}
}

func TestQueryCache(t *testing.T) {
	dir := setupTestRepo(t)
	id := submitPaper(t, dir, "Reinforcement learning for injection", "10.1103/test.5")
	if _, errOut, code := runLrev(t, dir, "review", "accept", id); code != 0 {
		t.Fatalf("accept failed: %s", errOut)
	}

	out, errOut, code := runLrev(t, dir, "query", "SELECT id, year FROM papers WHERE year = 2025")
	if code != 0 {
		t.Fatalf("query failed (%d): %s%s", code, out, errOut)
	}
	var rows []map[string]any
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("parsing query output: %v\n%s", err, out)
	}
	if len(rows) != 1 {
		t.Errorf("query returned %d rows, want 1", len(rows))
	}
}

func TestGetNotFound(t *testing.T) {
	dir := setupTestRepo(t)

	_, _, code := runLrev(t, dir, "get", "doi:10.9999/missing")
	if code != 5 {
		t.Errorf("get of missing paper exit code = %d, want 5", code)
	}
}

func TestOutsideRepository(t *testing.T) {
	dir := t.TempDir()

	_, _, code := runLrev(t, dir, "list")
	if code != 2 {
		t.Errorf("list outside a repository exit code = %d, want 2", code)
	}
}
