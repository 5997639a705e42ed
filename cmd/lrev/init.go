package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/accelml/livingreview/internal/config"
	"github.com/accelml/livingreview/internal/db"
)

func init() {
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Initialize a living review repository",
	Long: `Initialize a living review repository in the given directory
(default: current directory).

Creates .lrev/config.yml with defaults and an empty paper database
under the data directory.

Examples:
  lrev init
  lrev init ~/reviews/accel-ml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) == 1 {
		root = config.ExpandPath(args[0])
	}
	root, err := filepath.Abs(root)
	if err != nil {
		exitWithError(ExitError, "resolving path: %v", err)
	}

	if err := os.MkdirAll(root, 0755); err != nil {
		exitWithError(ExitError, "creating directory: %v", err)
	}
	if config.IsRepository(root) {
		exitWithError(ExitConfigError, "already a review repository: %s", root)
	}

	cfg := config.Default()
	if err := cfg.Save(root); err != nil {
		exitWithError(ExitError, "writing config: %v", err)
	}

	d := db.Open(cfg.DataPath(root))
	if err := d.Init(); err != nil && !errors.Is(err, db.ErrAlreadyInitialized) {
		exitWithError(ExitDataError, "initializing database: %v", err)
	}

	if humanOutput {
		fmt.Printf("Initialized review repository at %s\n", root)
		fmt.Printf("  Config:   %s\n", config.ConfigPath(root))
		fmt.Printf("  Database: %s\n", d.SnapshotPath())
	} else {
		outputJSON(StatusResponse{Status: "initialized", Path: root})
	}
	return nil
}
