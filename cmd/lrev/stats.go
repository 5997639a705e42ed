package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/accelml/livingreview/internal/export"
)

func init() {
	rootCmd.AddCommand(statsCmd)
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate statistics",
	Long: `Compute aggregate statistics over the non-retracted papers:
counts per year, category, venue and tracked keyword, plus monthly
trends.`,
	RunE: runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)
	snap := mustLoadSnapshot(mustOpenDB(repoRoot, cfg))

	stats := export.ComputeStats(snap, cfg.StatsKeywords)

	if !humanOutput {
		return outputJSON(stats)
	}

	fmt.Printf("%d papers in %d categories (as of %s)\n\n",
		stats.TotalPapers, stats.TotalCategories, stats.LastUpdated.Format("2006-01-02"))

	printCountMap("By year", stats.PerYear)
	printCountMap("By category", stats.PerCategory)
	printTopCounts("Top venues", stats.PerVenue, 10)
	printTopCounts("Top keywords", stats.PerKeyword, 10)
	return nil
}

// printCountMap prints all entries of a count map, keys sorted.
func printCountMap(title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	fmt.Printf("%s:\n", title)
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("  %-40s %d\n", k, counts[k])
	}
	fmt.Println()
}

// printTopCounts prints the n highest counts of a map.
func printTopCounts(title string, counts map[string]int, n int) {
	if len(counts) == 0 {
		return
	}
	type kv struct {
		key   string
		count int
	}
	rows := make([]kv, 0, len(counts))
	for k, v := range counts {
		rows = append(rows, kv{k, v})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].count != rows[j].count {
			return rows[i].count > rows[j].count
		}
		return rows[i].key < rows[j].key
	})
	if len(rows) > n {
		rows = rows[:n]
	}
	fmt.Printf("%s:\n", title)
	for _, r := range rows {
		fmt.Printf("  %-40s %d\n", r.key, r.count)
	}
	fmt.Println()
}
