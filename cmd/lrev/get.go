package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/accelml/livingreview/internal/db"
	"github.com/accelml/livingreview/internal/paper"
)

func init() {
	rootCmd.AddCommand(getCmd)
}

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one paper",
	Long: `Show a paper by canonical ID, DOI or arXiv identifier.

Examples:
  lrev get doi:10.1103/physrevaccelbeams.28.014601
  lrev get 10.1103/physrevaccelbeams.28.014601
  lrev get arxiv:2501.01234`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)
	snap := mustLoadSnapshot(mustOpenDB(repoRoot, cfg))

	p := findPaper(snap, args[0])
	if p == nil {
		exitWithError(ExitNotFound, "paper not found: %s", args[0])
	}

	if humanOutput {
		printPaperHuman(p)
	} else {
		outputJSON(p)
	}
	return nil
}

// findPaper resolves an identifier given in any of the accepted forms.
func findPaper(snap *db.Snapshot, id string) *paper.Paper {
	if p, err := snap.Get(id); err == nil {
		return p
	}

	doi := paper.NormDOI(id)
	arxiv := paper.NormArXivID(strings.TrimPrefix(id, "arxiv:"))
	for i := range snap.Papers {
		p := &snap.Papers[i]
		if doi != "" && p.DOI == doi {
			return p
		}
		if arxiv != "" && p.ArXivID == arxiv {
			return p
		}
	}
	return nil
}

func printPaperHuman(p *paper.Paper) {
	fmt.Printf("%s\n%s\n", p.ID, truncateString(p.Title, DetailTitleMaxLen))
	if len(p.Authors) > 0 {
		fmt.Printf("Authors:  %s\n", formatAuthorsShort(p.Authors, 6))
	}
	if p.Venue != "" {
		fmt.Printf("Venue:    %s\n", p.Venue)
	}
	if p.Date != "" {
		fmt.Printf("Date:     %s\n", p.Date)
	} else if p.Year > 0 {
		fmt.Printf("Year:     %d\n", p.Year)
	}
	if p.Status != "" {
		fmt.Printf("Status:   %s\n", p.Status)
	}
	if p.DOI != "" {
		fmt.Printf("DOI:      %s\n", p.DOI)
	}
	if p.ArXivID != "" {
		fmt.Printf("arXiv:    %s\n", p.ArXivID)
	}
	if len(p.Categories) > 0 {
		var parts []string
		for _, c := range p.Categories {
			parts = append(parts, fmt.Sprintf("%s (%.2f)", c.Label, c.Score))
		}
		fmt.Printf("Categories: %s\n", strings.Join(parts, "; "))
	}
	if p.Uncategorized {
		fmt.Println("Categories: (uncategorized)")
	}
	if p.Retracted {
		fmt.Println("RETRACTED")
	}
	if p.Curated {
		fmt.Println("Curated entry")
	}
	var sources []string
	for _, s := range p.Sources {
		sources = append(sources, s.Source)
	}
	if len(sources) > 0 {
		fmt.Printf("Sources:  %s\n", strings.Join(sources, ", "))
	}
	if p.Abstract != "" {
		fmt.Printf("\n%s\n", p.Abstract)
	}
}
