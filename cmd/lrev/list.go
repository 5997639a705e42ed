package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/accelml/livingreview/internal/paper"
)

var (
	listStatus        string
	listCategory      string
	listYear          int
	listSource        string
	listLimit         int
	listUncategorized bool
	listRetracted     bool
)

func init() {
	listCmd.Flags().StringVar(&listStatus, "status", "", "Filter by publication status")
	listCmd.Flags().StringVar(&listCategory, "category", "", "Filter by category label")
	listCmd.Flags().IntVar(&listYear, "year", 0, "Filter by year")
	listCmd.Flags().StringVar(&listSource, "source", "", "Filter by provenance source")
	listCmd.Flags().IntVar(&listLimit, "limit", DefaultListLimit, "Maximum papers to return (0 = all)")
	listCmd.Flags().BoolVar(&listUncategorized, "uncategorized", false, "Only papers awaiting classification")
	listCmd.Flags().BoolVar(&listRetracted, "retracted", false, "Include retracted papers")
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List papers in the database",
	Long: `List papers from the committed snapshot, newest first.

Examples:
  lrev list
  lrev list --category "Surrogate Models" --year 2025
  lrev list --uncategorized
  lrev list --source arxiv --limit 0`,
	RunE: runList,
}

// ListPaper is one row of list output.
type ListPaper struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Authors    []string `json:"authors,omitempty"`
	Year       int      `json:"year,omitempty"`
	Venue      string   `json:"venue,omitempty"`
	Status     string   `json:"status,omitempty"`
	Categories []string `json:"categories,omitempty"`
	Date       string   `json:"date,omitempty"`
}

func runList(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)
	snap := mustLoadSnapshot(mustOpenDB(repoRoot, cfg))

	var kept []*paper.Paper
	for i := range snap.Papers {
		p := &snap.Papers[i]
		if p.Retracted && !listRetracted {
			continue
		}
		if listStatus != "" && p.Status != listStatus {
			continue
		}
		if listYear != 0 && p.Year != listYear {
			continue
		}
		if listUncategorized && !p.Uncategorized {
			continue
		}
		if listCategory != "" && !hasCategory(p, listCategory) {
			continue
		}
		if listSource != "" && !p.HasSource(listSource) {
			continue
		}
		kept = append(kept, p)
	}

	sort.Slice(kept, func(i, j int) bool {
		if kept[i].Date != kept[j].Date {
			return kept[i].Date > kept[j].Date
		}
		return kept[i].ID < kept[j].ID
	})
	if listLimit > 0 && len(kept) > listLimit {
		kept = kept[:listLimit]
	}

	rows := make([]ListPaper, 0, len(kept))
	for _, p := range kept {
		rows = append(rows, ListPaper{
			ID:         p.ID,
			Title:      p.Title,
			Authors:    p.Authors,
			Year:       p.Year,
			Venue:      p.Venue,
			Status:     p.Status,
			Categories: p.CategoryLabels(),
			Date:       p.Date,
		})
	}

	if humanOutput {
		for _, r := range rows {
			fmt.Printf("%s\n  %s\n", r.ID, truncateString(r.Title, ListTitleMaxLen))
			line := formatAuthorsShort(r.Authors, 3)
			if r.Year > 0 {
				line = fmt.Sprintf("%s (%d)", line, r.Year)
			}
			if len(r.Categories) > 0 {
				line = fmt.Sprintf("%s [%s]", line, strings.Join(r.Categories, "; "))
			}
			fmt.Printf("  %s\n\n", line)
		}
		fmt.Printf("%d papers\n", len(rows))
	} else {
		outputJSON(rows)
	}
	return nil
}

func hasCategory(p *paper.Paper, label string) bool {
	for _, c := range p.Categories {
		if strings.EqualFold(c.Label, label) {
			return true
		}
	}
	return false
}
