// Package config handles repository and global configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/accelml/livingreview/internal/classify"
)

const (
	LrevDir    = ".lrev"
	ConfigFile = "config.yml"

	// DefaultDataDir holds the snapshot, submissions ledger, conflict
	// queue and query cache, relative to the repository root.
	DefaultDataDir = "data"

	DefaultWindowDays     = 30
	DefaultRefreshDays    = 7
	DefaultMaxResults     = 200
	DefaultOllamaURL      = "http://localhost:11434"
	DefaultEmbeddingModel = "all-minilm:l6-v2"
)

// KnownSources lists the source names scan understands.
var KnownSources = []string{"arxiv", "inspire", "hal", "openalex", "crossref", "pdfdir"}

// DefaultTrustRanks orders sources by metadata quality. Higher wins
// field divergences.
var DefaultTrustRanks = map[string]int{
	"crossref": 5,
	"inspire":  4,
	"openalex": 3,
	"hal":      2,
	"arxiv":    1,
	"pdfdir":   0,
	"manual":   5,
}

// DefaultAccelKeywords seed the relevance filter's accelerator side.
var DefaultAccelKeywords = []string{
	"accelerator", "linac", "synchrotron", "collider", "storage ring",
	"free electron laser", "RF cavity", "superconducting cavity", "cryomodule",
	"beamline", "undulator", "plasma wakefield acceleration", "luminosity", "beam optics",
	"BPM", "SRF", "injector", "beam loss", "emittance", "quench",
	"beam dynamics", "magnet", "dipole", "quadrupole", "sextupole",
	"octupole", "solenoid", "corrector", "chicane", "dogleg", "scraper",
	"collimator", "septum", "kicker", "booster", "decelerator", "target", "beam dump",
}

// DefaultMLKeywords seed the relevance filter's machine learning side.
var DefaultMLKeywords = []string{
	"machine learning", "deep learning", "neural network", "reinforcement learning",
	"bayesian optimization", "anomaly detection", "autoencoder", "GAN", "diffusion",
	"graph neural network", "surrogate", "physics-informed", "PINN", "transformer",
	"foundation model", "agentic AI", "autonomous agent", "LLM", "policy", "RL",
}

// Config represents repository configuration stored in .lrev/config.yml.
type Config struct {
	DataDir string `yaml:"data_dir"`

	// Sources enabled for scan, in fetch order.
	Sources    []string       `yaml:"sources"`
	TrustRanks map[string]int `yaml:"trust_ranks,omitempty"`

	// WindowDays bounds how far back a scan looks.
	WindowDays  int `yaml:"window_days"`
	MaxResults  int `yaml:"max_results,omitempty"`
	RefreshDays int `yaml:"refresh_days,omitempty"`

	// PDFDir is a local drop directory scanned as a source. Empty
	// disables it.
	PDFDir string `yaml:"pdf_dir,omitempty"`

	Thresholds classify.Thresholds `yaml:"thresholds"`

	AccelKeywords []string `yaml:"accel_keywords,omitempty"`
	MLKeywords    []string `yaml:"ml_keywords,omitempty"`

	// StatsKeywords are counted in titles and abstracts by the stats
	// projection. Empty means the built-in tracked list.
	StatsKeywords []string `yaml:"stats_keywords,omitempty"`

	Ollama OllamaConfig `yaml:"ollama,omitempty"`
}

// OllamaConfig configures the optional embedding backend.
type OllamaConfig struct {
	URL   string `yaml:"url,omitempty"`
	Model string `yaml:"model,omitempty"`
}

// Default returns the configuration written by init.
func Default() *Config {
	ranks := make(map[string]int, len(DefaultTrustRanks))
	for k, v := range DefaultTrustRanks {
		ranks[k] = v
	}
	return &Config{
		DataDir:       DefaultDataDir,
		Sources:       []string{"arxiv", "inspire", "hal", "openalex", "crossref"},
		TrustRanks:    ranks,
		WindowDays:    DefaultWindowDays,
		MaxResults:    DefaultMaxResults,
		RefreshDays:   DefaultRefreshDays,
		Thresholds:    classify.DefaultThresholds,
		AccelKeywords: append([]string(nil), DefaultAccelKeywords...),
		MLKeywords:    append([]string(nil), DefaultMLKeywords...),
		Ollama: OllamaConfig{
			URL:   DefaultOllamaURL,
			Model: DefaultEmbeddingModel,
		},
	}
}

// LrevPath returns the path to the .lrev directory from a root path.
func LrevPath(root string) string {
	return filepath.Join(root, LrevDir)
}

// ConfigPath returns the path to config.yml from a root path.
func ConfigPath(root string) string {
	return filepath.Join(root, LrevDir, ConfigFile)
}

// DataPath returns the configured data directory resolved against root.
func (c *Config) DataPath(root string) string {
	dir := c.DataDir
	if dir == "" {
		dir = DefaultDataDir
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(root, dir)
}

// IsRepository checks if the given path contains a review repository.
func IsRepository(root string) bool {
	info, err := os.Stat(LrevPath(root))
	return err == nil && info.IsDir()
}

// FindRepository walks up from the given path to find a review repository.
// Returns the repository root path or an error if not found.
func FindRepository(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	for {
		if IsRepository(abs) {
			return abs, nil
		}

		parent := filepath.Dir(abs)
		if parent == abs {
			return "", fmt.Errorf("not in a review repository (no .lrev directory found)")
		}
		abs = parent
	}
}

// Load reads configuration from the repository at the given root.
// Missing optional fields fall back to their defaults.
func Load(root string) (*Config, error) {
	data, err := os.ReadFile(ConfigPath(root))
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes configuration to the repository at the given root.
func (c *Config) Save(root string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.MkdirAll(LrevPath(root), 0755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	if err := os.WriteFile(ConfigPath(root), data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// Validate checks source names and threshold ordering.
func (c *Config) Validate() error {
	for _, s := range c.Sources {
		if !knownSource(s) {
			return fmt.Errorf("unknown source: %s (valid: %v)", s, KnownSources)
		}
	}
	if c.Thresholds.High < c.Thresholds.Low {
		return fmt.Errorf("thresholds: high (%.2f) below low (%.2f)", c.Thresholds.High, c.Thresholds.Low)
	}
	if c.WindowDays < 0 {
		return fmt.Errorf("window_days must not be negative")
	}
	return nil
}

func knownSource(name string) bool {
	for _, s := range KnownSources {
		if s == name {
			return true
		}
	}
	return false
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, path[1:])
}
