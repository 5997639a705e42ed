// Package main provides the lrev CLI entry point.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/accelml/livingreview/internal/config"
	"github.com/accelml/livingreview/internal/db"
	"github.com/accelml/livingreview/internal/ledger"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Print the error since we have SilenceErrors: true
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "lrev",
	Short: "Living review of machine learning for particle accelerators",
	Long: `lrev maintains a living review database of papers applying
machine learning to particle accelerators.

Core features:
  - Scheduled scans of arXiv, InspireHEP, HAL, OpenAlex and Crossref
  - Identity resolution and trust-ranked merging across sources
  - Taxonomy classification with confidence routing
  - A curated submission ledger with accept/reject decisions
  - BibTeX and statistics exports

Data is stored in a git-versionable JSON snapshot with ephemeral SQLite
for queries. All commands output JSON by default.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.Version = Version
}

// mustFindRepository finds and validates the repository, exits on error.
// Returns the repository root path.
func mustFindRepository() string {
	cwd, err := os.Getwd()
	if err != nil {
		exitWithError(ExitError, "getting current directory: %v", err)
	}

	repoRoot, err := config.FindRepository(cwd)
	if err != nil {
		exitWithError(ExitConfigError, "%v\n\nRun 'lrev init' to create a repository here.", err)
	}
	return repoRoot
}

// mustLoadConfig loads configuration, exits on error.
func mustLoadConfig(repoRoot string) *config.Config {
	cfg, err := config.Load(repoRoot)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg
}

// mustOpenDB opens the paper database for the repository, exits on error.
func mustOpenDB(repoRoot string, cfg *config.Config) *db.DB {
	return db.Open(cfg.DataPath(repoRoot))
}

// mustLoadSnapshot loads the committed snapshot, exits on error.
func mustLoadSnapshot(d *db.DB) *db.Snapshot {
	snap, err := d.Load()
	if err != nil {
		code := ExitDataError
		if errors.Is(err, db.ErrNotInitialized) {
			code = ExitConfigError
		}
		exitWithError(code, "loading database: %v", err)
	}
	return snap
}

// openLedger returns the submission ledger for the repository.
func openLedger(repoRoot string, cfg *config.Config) *ledger.Ledger {
	return ledger.New(cfg.DataPath(repoRoot))
}
