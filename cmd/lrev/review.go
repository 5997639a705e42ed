package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/accelml/livingreview/internal/db"
	"github.com/accelml/livingreview/internal/ledger"
	"github.com/accelml/livingreview/internal/merge"
)

var (
	reviewNotes  string
	reviewReason string
	reviewStatus string
)

func init() {
	reviewListCmd.Flags().StringVar(&reviewStatus, "status", ledger.StatusPending, "Ledger status to list (pending, accepted, rejected)")
	reviewAcceptCmd.Flags().StringVar(&reviewNotes, "notes", "", "Reviewer notes to record with the decision")
	reviewRejectCmd.Flags().StringVar(&reviewReason, "reason", "", "Reason for rejection (required)")

	reviewCmd.AddCommand(reviewListCmd)
	reviewCmd.AddCommand(reviewAcceptCmd)
	reviewCmd.AddCommand(reviewRejectCmd)
	rootCmd.AddCommand(reviewCmd)
}

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Work the curation ledger",
	Long: `List and decide pending submissions in the curation ledger.

Accepting a submission merges it into the database and archives the
entry; rejecting records the reason. Decisions are terminal: repeating
one is a no-op, reversing one is refused.`,
}

var reviewListCmd = &cobra.Command{
	Use:   "list",
	Short: "List ledger entries",
	Long: `List ledger entries, oldest first.

Examples:
  lrev review list
  lrev review list --status rejected`,
	RunE: runReviewList,
}

var reviewAcceptCmd = &cobra.Command{
	Use:   "accept <entry-id>",
	Short: "Accept a pending submission and merge it",
	Args:  cobra.ExactArgs(1),
	RunE:  runReviewAccept,
}

var reviewRejectCmd = &cobra.Command{
	Use:   "reject <entry-id>",
	Short: "Reject a pending submission with a reason",
	Args:  cobra.ExactArgs(1),
	RunE:  runReviewReject,
}

// ReviewListEntry is one row of review list output.
type ReviewListEntry struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Source      string `json:"source"`
	Submitter   string `json:"submitter,omitempty"`
	SubmittedAt string `json:"submitted_at"`
	Status      string `json:"status"`
}

func runReviewList(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)
	led := openLedger(repoRoot, cfg)

	entries, err := led.List(reviewStatus)
	if err != nil {
		if errors.Is(err, ledger.ErrInvalidStatus) {
			exitWithError(ExitError, "%v", err)
		}
		exitWithError(ExitDataError, "listing ledger: %v", err)
	}

	rows := make([]ReviewListEntry, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, ReviewListEntry{
			ID:          e.ID,
			Title:       e.Payload.Title,
			Source:      e.Payload.Source,
			Submitter:   e.Submitter.Name,
			SubmittedAt: e.SubmittedAt.Format("2006-01-02"),
			Status:      e.Status,
		})
	}

	if humanOutput {
		if len(rows) == 0 {
			fmt.Printf("No %s entries.\n", reviewStatus)
			return nil
		}
		for _, r := range rows {
			fmt.Printf("%s  %s  [%s]\n    %s\n", r.ID[:8], r.SubmittedAt, r.Source, truncateString(r.Title, ListTitleMaxLen))
		}
	} else {
		outputJSON(rows)
	}
	return nil
}

// DecisionResponse is the output of accept and reject.
type DecisionResponse struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Created int    `json:"created,omitempty"`
	Updated int    `json:"updated,omitempty"`
}

func runReviewAccept(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)
	led := openLedger(repoRoot, cfg)
	d := mustOpenDB(repoRoot, cfg)

	policy := merge.Policy{TrustRanks: cfg.TrustRanks}
	entry, report, err := led.Accept(d, policy, args[0], reviewNotes)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrEntryNotFound):
			exitWithError(ExitNotFound, "%v", err)
		case errors.Is(err, ledger.ErrAmbiguousIdentity):
			exitWithError(ExitDataError, "entry left pending, identity is ambiguous: %v\nResolve via 'lrev conflicts' first.", err)
		case errors.Is(err, db.ErrStaleBase), errors.Is(err, db.ErrLocked):
			exitWithError(ExitStaleBase, "%v", err)
		}
		exitWithError(ExitDataError, "accepting entry: %v", err)
	}

	if humanOutput {
		fmt.Printf("Accepted %s: %s (new %d, updated %d)\n",
			entry.ID[:8], truncateString(entry.Payload.Title, ListTitleMaxLen), report.Created, report.Updated)
	} else {
		outputJSON(DecisionResponse{ID: entry.ID, Status: entry.Status, Created: report.Created, Updated: report.Updated})
	}
	return nil
}

func runReviewReject(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)
	led := openLedger(repoRoot, cfg)

	entry, err := led.Reject(args[0], reviewReason)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrEntryNotFound):
			exitWithError(ExitNotFound, "%v", err)
		case errors.Is(err, ledger.ErrReasonRequired):
			exitWithError(ExitError, "--reason is required to reject")
		}
		exitWithError(ExitDataError, "rejecting entry: %v", err)
	}

	if humanOutput {
		fmt.Printf("Rejected %s: %s\n", entry.ID[:8], truncateString(entry.Payload.Title, ListTitleMaxLen))
	} else {
		outputJSON(DecisionResponse{ID: entry.ID, Status: entry.Status})
	}
	return nil
}
