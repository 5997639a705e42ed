package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(conflictsCmd)
}

var conflictsCmd = &cobra.Command{
	Use:   "conflicts",
	Short: "Show the conflict queue",
	Long: `Show merge conflicts awaiting operator resolution: ambiguous
identities, field divergences between equal-trust sources, and split
entries. Conflicts are appended by scans and ledger accepts; resolve
them by editing the snapshot and committing, then clear the queue by
truncating conflicts.jsonl.`,
	RunE: runConflicts,
}

func runConflicts(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)
	d := mustOpenDB(repoRoot, cfg)

	conflicts, err := d.ReadConflicts()
	if err != nil {
		exitWithError(ExitDataError, "reading conflicts: %v", err)
	}

	if !humanOutput {
		return outputJSON(conflicts)
	}

	if len(conflicts) == 0 {
		fmt.Println("No conflicts.")
		return nil
	}
	for _, c := range conflicts {
		fmt.Printf("[%s] %s\n", c.Kind, truncateString(c.Title, ListTitleMaxLen))
		if c.PaperID != "" {
			fmt.Printf("  paper:  %s\n", c.PaperID)
		}
		if c.SecondID != "" {
			fmt.Printf("  second: %s\n", c.SecondID)
		}
		if c.Field != "" {
			fmt.Printf("  field:  %s (%q vs incoming %q from %s)\n", c.Field, c.Existing, c.Incoming, c.Source)
		}
		fmt.Printf("  seen:   %s\n\n", c.SeenAt.Format("2006-01-02 15:04"))
	}
	fmt.Printf("%d conflicts\n", len(conflicts))
	return nil
}
