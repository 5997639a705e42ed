package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPathFunctions(t *testing.T) {
	root := "/test/repo"

	if got := LrevPath(root); got != "/test/repo/.lrev" {
		t.Errorf("LrevPath(%q) = %q", root, got)
	}
	if got := ConfigPath(root); got != "/test/repo/.lrev/config.yml" {
		t.Errorf("ConfigPath(%q) = %q", root, got)
	}
}

func TestDataPath(t *testing.T) {
	cfg := Default()

	if got := cfg.DataPath("/repo"); got != "/repo/data" {
		t.Errorf("DataPath() = %q, want /repo/data", got)
	}

	cfg.DataDir = "/srv/review-data"
	if got := cfg.DataPath("/repo"); got != "/srv/review-data" {
		t.Errorf("DataPath() with absolute dir = %q", got)
	}

	cfg.DataDir = ""
	if got := cfg.DataPath("/repo"); got != "/repo/data" {
		t.Errorf("DataPath() with empty dir = %q, want default", got)
	}
}

func TestIsRepository(t *testing.T) {
	tmpDir := t.TempDir()

	// Not a repository initially
	if IsRepository(tmpDir) {
		t.Error("IsRepository() = true for non-repo directory")
	}

	if err := os.Mkdir(filepath.Join(tmpDir, LrevDir), 0755); err != nil {
		t.Fatalf("Failed to create .lrev: %v", err)
	}

	if !IsRepository(tmpDir) {
		t.Error("IsRepository() = false for repo directory")
	}
}

func TestIsRepository_FileNotDir(t *testing.T) {
	tmpDir := t.TempDir()

	path := filepath.Join(tmpDir, LrevDir)
	if err := os.WriteFile(path, []byte("not a dir"), 0644); err != nil {
		t.Fatalf("Failed to create .lrev file: %v", err)
	}

	if IsRepository(tmpDir) {
		t.Error("IsRepository() = true when .lrev is a file")
	}
}

func TestFindRepository(t *testing.T) {
	tmpDir := t.TempDir()
	repoDir := filepath.Join(tmpDir, "repo")
	nestedDir := filepath.Join(repoDir, "src", "pkg")

	if err := os.MkdirAll(nestedDir, 0755); err != nil {
		t.Fatalf("Failed to create nested dirs: %v", err)
	}
	if err := os.Mkdir(filepath.Join(repoDir, LrevDir), 0755); err != nil {
		t.Fatalf("Failed to create .lrev: %v", err)
	}

	got, err := FindRepository(nestedDir)
	if err != nil {
		t.Fatalf("FindRepository() error: %v", err)
	}
	// Resolve symlinks so macOS /var vs /private/var matches.
	want, _ := filepath.EvalSymlinks(repoDir)
	gotResolved, _ := filepath.EvalSymlinks(got)
	if gotResolved != want {
		t.Errorf("FindRepository() = %q, want %q", gotResolved, want)
	}
}

func TestFindRepository_NotFound(t *testing.T) {
	tmpDir := t.TempDir()

	if _, err := FindRepository(tmpDir); err == nil {
		t.Error("FindRepository() should fail outside a repository")
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()

	cfg := Default()
	cfg.Sources = []string{"arxiv", "crossref"}
	cfg.WindowDays = 14
	cfg.PDFDir = "drop"
	if err := cfg.Save(tmpDir); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	loaded, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if len(loaded.Sources) != 2 || loaded.Sources[0] != "arxiv" || loaded.Sources[1] != "crossref" {
		t.Errorf("Sources = %v", loaded.Sources)
	}
	if loaded.WindowDays != 14 {
		t.Errorf("WindowDays = %d, want 14", loaded.WindowDays)
	}
	if loaded.PDFDir != "drop" {
		t.Errorf("PDFDir = %q, want drop", loaded.PDFDir)
	}
	if loaded.Thresholds.High != 0.60 || loaded.Thresholds.Low != 0.25 {
		t.Errorf("Thresholds = %+v, want defaults", loaded.Thresholds)
	}
	if len(loaded.AccelKeywords) == 0 || len(loaded.MLKeywords) == 0 {
		t.Error("keyword defaults should survive a round trip")
	}
}

func TestLoad_PartialConfigKeepsDefaults(t *testing.T) {
	tmpDir := t.TempDir()

	if err := os.Mkdir(LrevPath(tmpDir), 0755); err != nil {
		t.Fatal(err)
	}
	partial := "window_days: 7\nsources: [arxiv]\n"
	if err := os.WriteFile(ConfigPath(tmpDir), []byte(partial), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.WindowDays != 7 {
		t.Errorf("WindowDays = %d, want 7", cfg.WindowDays)
	}
	if cfg.Thresholds.High != 0.60 {
		t.Errorf("Thresholds.High = %v, want default 0.60", cfg.Thresholds.High)
	}
	if cfg.TrustRanks["crossref"] != 5 {
		t.Errorf("TrustRanks should default, got %v", cfg.TrustRanks)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}

	cfg.Sources = []string{"arxiv", "scholar"}
	if err := cfg.Validate(); err == nil {
		t.Error("unknown source should fail validation")
	}

	cfg = Default()
	cfg.Thresholds.High = 0.1
	if err := cfg.Validate(); err == nil {
		t.Error("high threshold below low should fail validation")
	}

	cfg = Default()
	cfg.WindowDays = -1
	if err := cfg.Validate(); err == nil {
		t.Error("negative window should fail validation")
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	tests := []struct {
		in   string
		want string
	}{
		{"~/papers", filepath.Join(home, "papers")},
		{"/abs/path", "/abs/path"},
		{"relative", "relative"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := ExpandPath(tt.in); got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
