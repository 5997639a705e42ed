package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/accelml/livingreview/internal/config"
	"github.com/accelml/livingreview/internal/export"
)

var (
	exportBibtex bool
	exportStats  bool
)

func init() {
	exportCmd.Flags().BoolVar(&exportBibtex, "bibtex", false, "Export the bibliography in BibTeX format")
	exportCmd.Flags().BoolVar(&exportStats, "stats", false, "Export the compact statistics summary")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the database as BibTeX or statistics",
	Long: `Export projections of the committed snapshot.

Examples:
  lrev export --bibtex > review.bib
  lrev export --stats > statistics.json`,
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	if exportBibtex == exportStats {
		exitWithError(ExitError, "exactly one of --bibtex or --stats is required")
	}

	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)
	snap := mustLoadSnapshot(mustOpenDB(repoRoot, cfg))

	if exportBibtex {
		// BibTeX is always text output, never JSON.
		fmt.Print(export.ToBibTeXList(snap.Papers))
		return nil
	}

	stats := export.ComputeStats(snap, cfg.StatsKeywords)
	days := cfg.RefreshDays
	if days <= 0 {
		days = config.DefaultRefreshDays
	}
	outputJSON(stats.Summary(time.Now().UTC(), time.Duration(days)*24*time.Hour))
	return nil
}
