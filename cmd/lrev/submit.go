package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/accelml/livingreview/internal/ledger"
	"github.com/accelml/livingreview/internal/paper"
)

var (
	submitFile       string
	submitTitle      string
	submitAuthors    []string
	submitDOI        string
	submitArXiv      string
	submitVenue      string
	submitYear       int
	submitURL        string
	submitAbstract   string
	submitName       string
	submitContact    string
	submitCategories []string
)

func init() {
	submitCmd.Flags().StringVar(&submitFile, "file", "", "Read the submission from a JSON record file ('-' for stdin)")
	submitCmd.Flags().StringVar(&submitTitle, "title", "", "Paper title")
	submitCmd.Flags().StringSliceVar(&submitAuthors, "author", nil, "Author (repeatable)")
	submitCmd.Flags().StringVar(&submitDOI, "doi", "", "DOI")
	submitCmd.Flags().StringVar(&submitArXiv, "arxiv", "", "arXiv identifier")
	submitCmd.Flags().StringVar(&submitVenue, "venue", "", "Venue or journal")
	submitCmd.Flags().IntVar(&submitYear, "year", 0, "Publication year")
	submitCmd.Flags().StringVar(&submitURL, "url", "", "Link to the paper")
	submitCmd.Flags().StringVar(&submitAbstract, "abstract", "", "Abstract")
	submitCmd.Flags().StringVar(&submitName, "submitter", "", "Submitter name")
	submitCmd.Flags().StringVar(&submitContact, "contact", "", "Submitter contact")
	submitCmd.Flags().StringSliceVar(&submitCategories, "category", nil, "Proposed category (repeatable)")
	rootCmd.AddCommand(submitCmd)
}

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a paper to the curation ledger",
	Long: `File a paper suggestion as a pending ledger entry. A curator
merges it into the database with 'lrev review accept'.

Examples:
  lrev submit --title "RL tuning of SRF cavities" --doi 10.1103/x.y --author "A. Author"
  lrev submit --file suggestion.json
  cat suggestion.json | lrev submit --file -`,
	RunE: runSubmit,
}

func runSubmit(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)
	led := openLedger(repoRoot, cfg)

	rec, err := submissionRecord()
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	var proposed []paper.CategoryScore
	for _, label := range submitCategories {
		proposed = append(proposed, paper.CategoryScore{Label: label, Score: 1.0})
	}

	entry, err := led.Submit(rec, ledger.Submitter{Name: submitName, Contact: submitContact}, proposed)
	if err != nil {
		exitWithError(ExitDataError, "submitting: %v", err)
	}

	if humanOutput {
		fmt.Printf("Submitted %s: %s\n", entry.ID[:8], truncateString(entry.Payload.Title, ListTitleMaxLen))
	} else {
		outputJSON(entry)
	}
	return nil
}

func submissionRecord() (paper.Record, error) {
	if submitFile != "" {
		return recordFromFile(submitFile)
	}

	if submitTitle == "" {
		return paper.Record{}, fmt.Errorf("--title or --file is required")
	}

	ids := map[string]string{}
	if submitDOI != "" {
		ids[paper.SchemeDOI] = submitDOI
	}
	if submitArXiv != "" {
		ids[paper.SchemeArXiv] = submitArXiv
	}

	links := map[string]string{}
	if submitURL != "" {
		links["url"] = submitURL
	}

	return paper.Record{
		Title:       submitTitle,
		Authors:     submitAuthors,
		Abstract:    submitAbstract,
		Year:        submitYear,
		Venue:       submitVenue,
		Identifiers: ids,
		Links:       links,
		Source:      "manual",
	}, nil
}

func recordFromFile(path string) (paper.Record, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return paper.Record{}, fmt.Errorf("reading submission: %v", err)
	}

	var rec paper.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return paper.Record{}, fmt.Errorf("parsing submission: %v", err)
	}
	if rec.Source == "" {
		rec.Source = "manual"
	}
	return rec, nil
}
