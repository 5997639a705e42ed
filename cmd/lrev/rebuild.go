package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(rebuildCmd)
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the query cache from the snapshot",
	Long: `Rebuild the SQLite query cache from the JSON snapshot.

Use this after pulling changes from git or if the cache becomes
corrupted. The cache is ephemeral: deleting it is always safe.`,
	RunE: runRebuild,
}

// RebuildResult is the response for the rebuild command.
type RebuildResult struct {
	Status string `json:"status"`
	Papers int    `json:"papers"`
}

func runRebuild(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)
	d := mustOpenDB(repoRoot, cfg)

	snap := mustLoadSnapshot(d)
	count, err := d.RebuildCache(snap)
	if err != nil {
		exitWithError(ExitDataError, "rebuilding cache: %v", err)
	}

	if humanOutput {
		fmt.Printf("Rebuilt query cache with %d papers\n", count)
	} else {
		outputJSON(RebuildResult{Status: "rebuilt", Papers: count})
	}
	return nil
}
