package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/accelml/livingreview/internal/db"
)

var queryFTS bool

func init() {
	queryCmd.Flags().BoolVar(&queryFTS, "fts", false, "Treat the argument as a full-text search over titles and abstracts")
	rootCmd.AddCommand(queryCmd)
}

var queryCmd = &cobra.Command{
	Use:   "query <sql|terms>",
	Short: "Run a read-only SQL query against the cache",
	Long: `Query the SQLite cache. The cache is rebuilt from the snapshot
automatically when stale.

Examples:
  lrev query "SELECT id, title FROM papers WHERE year = 2025"
  lrev query "SELECT status, COUNT(*) FROM papers GROUP BY status"
  lrev query --fts "surrogate cavity"`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func runQuery(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)
	d := mustOpenDB(repoRoot, cfg)

	ensureFreshCache(d)

	sql := args[0]
	if queryFTS {
		sql = fmt.Sprintf(
			"SELECT p.id, p.title, p.year, p.venue FROM papers_fts f JOIN papers p ON p.id = f.id WHERE papers_fts MATCH '%s'",
			db.PrepareFTSQuery(args[0]))
	}

	rows, err := d.Query(sql)
	if err != nil {
		exitWithError(ExitDataError, "query failed: %v", err)
	}

	if humanOutput {
		for _, row := range rows {
			fmt.Printf("%v\n", row)
		}
		fmt.Printf("%d rows\n", len(rows))
	} else {
		outputJSON(rows)
	}
	return nil
}

// ensureFreshCache rebuilds the query cache if the snapshot changed
// since the last rebuild.
func ensureFreshCache(d *db.DB) {
	stale, err := d.CacheStale()
	if err != nil {
		exitWithError(ExitDataError, "checking cache: %v", err)
	}
	if !stale {
		return
	}

	snap := mustLoadSnapshot(d)
	if _, err := d.RebuildCache(snap); err != nil {
		exitWithError(ExitDataError, "rebuilding cache: %v", err)
	}
}
