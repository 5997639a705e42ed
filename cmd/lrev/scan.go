package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/accelml/livingreview/internal/classify"
	"github.com/accelml/livingreview/internal/config"
	"github.com/accelml/livingreview/internal/db"
	"github.com/accelml/livingreview/internal/merge"
	"github.com/accelml/livingreview/internal/pipeline"
	"github.com/accelml/livingreview/internal/source"
)

var (
	scanDays     int
	scanFrom     string
	scanTo       string
	scanSources  []string
	scanNoEmbed  bool
	scanNoFilter bool
)

func init() {
	scanCmd.Flags().IntVar(&scanDays, "days", 0, "Scan window in days (default: config window_days)")
	scanCmd.Flags().StringVar(&scanFrom, "from", "", "Window start date (YYYY-MM-DD)")
	scanCmd.Flags().StringVar(&scanTo, "to", "", "Window end date (YYYY-MM-DD, default: today)")
	scanCmd.Flags().StringSliceVar(&scanSources, "source", nil, "Restrict to these sources (default: config sources)")
	scanCmd.Flags().BoolVar(&scanNoEmbed, "no-embed", false, "Skip the embedding backend, use keyword classification")
	scanCmd.Flags().BoolVar(&scanNoFilter, "no-filter", false, "Skip the relevance pre-filter")
	rootCmd.AddCommand(scanCmd)
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Fetch, merge and classify papers from all enabled sources",
	Long: `Run one scan: fetch recent papers from the enabled sources, filter
for relevance, merge them into the database, classify new papers and
commit. The run summary is printed and appended to the scan log.

A failing source makes the run partial, not failed.

Examples:
  lrev scan
  lrev scan --days 7
  lrev scan --from 2025-01-01 --to 2025-03-31
  lrev scan --source arxiv,crossref --no-embed`,
	RunE: runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)
	d := mustOpenDB(repoRoot, cfg)

	q, err := scanWindow(cfg)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	names := cfg.Sources
	if len(scanSources) > 0 {
		names = scanSources
	}
	adapters, err := buildAdapters(names, cfg)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	ctx := context.Background()
	provider := embedProvider(ctx, cfg)

	var classifier classify.Classifier
	if provider != nil {
		classifier = classify.NewEmbeddingClassifier(provider)
	} else {
		classifier = classify.NewKeywordClassifier()
	}

	var filter *classify.RelevanceFilter
	if !scanNoFilter {
		var fp classify.Provider
		if provider != nil {
			fp = provider
		}
		filter = classify.NewRelevanceFilter(fp, cfg.AccelKeywords, cfg.MLKeywords)
	}

	pl := &pipeline.Pipeline{
		DB:         d,
		Ledger:     openLedger(repoRoot, cfg),
		Adapters:   adapters,
		Filter:     filter,
		Classifier: classifier,
		Thresholds: cfg.Thresholds,
		Policy:     merge.Policy{TrustRanks: cfg.TrustRanks},
	}

	sum, err := pl.Run(ctx, q)
	if err != nil {
		if errors.Is(err, db.ErrStaleBase) {
			exitWithError(ExitStaleBase, "commit rejected, database changed during the run: %v", err)
		}
		exitWithError(ExitDataError, "scan failed: %v", err)
	}

	if humanOutput {
		printSummaryHuman(sum)
	} else {
		outputJSON(sum)
	}
	return nil
}

// scanWindow resolves the date window from flags and config.
func scanWindow(cfg *config.Config) (source.Query, error) {
	end := time.Now().UTC()
	if scanTo != "" {
		t, err := time.Parse("2006-01-02", scanTo)
		if err != nil {
			return source.Query{}, fmt.Errorf("invalid --to date: %v", err)
		}
		end = t
	}

	days := cfg.WindowDays
	if scanDays > 0 {
		days = scanDays
	}
	start := end.AddDate(0, 0, -days)
	if scanFrom != "" {
		t, err := time.Parse("2006-01-02", scanFrom)
		if err != nil {
			return source.Query{}, fmt.Errorf("invalid --from date: %v", err)
		}
		start = t
	}

	if start.After(end) {
		return source.Query{}, fmt.Errorf("window start %s is after end %s",
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	return source.Query{Start: start, End: end, MaxResults: cfg.MaxResults}, nil
}

// buildAdapters constructs one adapter per enabled source name.
func buildAdapters(names []string, cfg *config.Config) ([]source.Adapter, error) {
	kw := source.Keywords{Accelerator: cfg.AccelKeywords, ML: cfg.MLKeywords}

	ua := source.DefaultUserAgent
	if email := config.GetContactEmail(); email != "" {
		ua = fmt.Sprintf("%s mailto:%s", ua, email)
	}

	var adapters []source.Adapter
	for _, name := range names {
		switch name {
		case "arxiv":
			// arXiv asks for no more than one request every three seconds.
			client := source.NewClient(source.WithUserAgent(ua), source.WithRateLimit(1.0/3.0))
			adapters = append(adapters, source.NewArXiv(client, kw))
		case "inspire":
			opts := []source.ClientOption{source.WithUserAgent(ua)}
			if tok := config.GetInspireToken(); tok != "" {
				opts = append(opts, source.WithAuthToken(tok))
			}
			adapters = append(adapters, source.NewInspire(source.NewClient(opts...), kw))
		case "hal":
			client := source.NewClient(source.WithUserAgent(ua))
			adapters = append(adapters, source.NewHAL(client, kw))
		case "openalex":
			client := source.NewClient(source.WithUserAgent(ua))
			adapters = append(adapters, source.NewOpenAlex(client, kw))
		case "crossref":
			client := source.NewClient(source.WithUserAgent(ua))
			adapters = append(adapters, source.NewCrossref(client, kw))
		case "pdfdir":
			if cfg.PDFDir == "" {
				return nil, fmt.Errorf("source pdfdir enabled but pdf_dir is not set")
			}
			adapters = append(adapters, source.NewPDFDir(config.ExpandPath(cfg.PDFDir)))
		default:
			return nil, fmt.Errorf("unknown source: %s", name)
		}
	}

	// A configured PDF drop directory is scanned even when not listed.
	if cfg.PDFDir != "" && !containsName(names, "pdfdir") && len(scanSources) == 0 {
		adapters = append(adapters, source.NewPDFDir(config.ExpandPath(cfg.PDFDir)))
	}

	return adapters, nil
}

func containsName(names []string, want string) bool {
	for _, n := range names {
		if n == want {
			return true
		}
	}
	return false
}

// embedProvider returns the Ollama provider when the backend is
// reachable, nil otherwise. Scans degrade to keyword mode without it.
func embedProvider(ctx context.Context, cfg *config.Config) *classify.OllamaProvider {
	if scanNoEmbed {
		return nil
	}

	url := cfg.Ollama.URL
	if v := config.GetOllamaURL(); v != "" {
		url = v
	}
	model := cfg.Ollama.Model
	if v := config.GetOllamaModel(); v != "" {
		model = v
	}

	var opts []classify.OllamaOption
	if url != "" {
		opts = append(opts, classify.WithOllamaURL(url))
	}
	if model != "" {
		opts = append(opts, classify.WithEmbedModel(model))
	}
	provider := classify.NewOllamaProvider(opts...)

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := provider.IsAvailable(checkCtx); err != nil {
		return nil
	}
	return provider
}

func printSummaryHuman(sum *pipeline.Summary) {
	fmt.Printf("Scan %s (%s to %s)\n", sum.RunID, sum.WindowStart, sum.WindowEnd)
	for _, s := range sum.Sources {
		if s.Error != "" {
			fmt.Printf("  %-10s FAILED: %s\n", s.Source, s.Error)
		} else {
			fmt.Printf("  %-10s %d fetched\n", s.Source, s.Fetched)
		}
	}
	fmt.Printf("Fetched %d, filtered %d, new %d, updated %d, unchanged %d\n",
		sum.Fetched, sum.Filtered, sum.Created, sum.Updated, sum.Unchanged)
	fmt.Printf("Classified %d, to review %d, uncategorized %d\n",
		sum.Classified, sum.Review, sum.Uncategorized)
	if sum.Conflicts > 0 {
		fmt.Printf("Conflicts queued: %d (see 'lrev conflicts')\n", sum.Conflicts)
	}
	if sum.Skipped > 0 {
		fmt.Printf("Skipped records: %d\n", sum.Skipped)
	}
	if sum.Errors > 0 {
		fmt.Printf("Errors: %d\n", sum.Errors)
	}
	fmt.Printf("Database version %d\n", sum.Version)
}
