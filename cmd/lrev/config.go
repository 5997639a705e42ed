package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Get or set configuration values",
	Long: `Get or set repository configuration values.

Usage:
  lrev config                       # Show all config
  lrev config window-days           # Get specific value
  lrev config window-days 14        # Set value
  lrev config pdf-dir ~/papers/drop # Set PDF drop directory
  lrev config sources arxiv,crossref

Keys:
  data-dir     Data directory (snapshot, ledger, cache)
  window-days  Default scan window in days
  pdf-dir      Local PDF drop directory scanned as a source
  sources      Enabled sources, comma-separated`,
	Args: cobra.MaximumNArgs(2),
	RunE: runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)

	// No args: show all config
	if len(args) == 0 {
		if humanOutput {
			fmt.Printf("data-dir:    %s\n", cfg.DataDir)
			fmt.Printf("window-days: %d\n", cfg.WindowDays)
			fmt.Printf("pdf-dir:     %s\n", cfg.PDFDir)
			fmt.Printf("sources:     %s\n", strings.Join(cfg.Sources, ","))
			fmt.Printf("thresholds:  high %.2f, low %.2f\n", cfg.Thresholds.High, cfg.Thresholds.Low)
		} else {
			outputJSON(cfg)
		}
		return nil
	}

	key := args[0]

	// One arg: get specific value
	if len(args) == 1 {
		var value string
		switch key {
		case "data-dir":
			value = cfg.DataDir
		case "window-days":
			value = strconv.Itoa(cfg.WindowDays)
		case "pdf-dir":
			value = cfg.PDFDir
		case "sources":
			value = strings.Join(cfg.Sources, ",")
		default:
			exitWithError(ExitError, "unknown configuration key: %s", key)
		}
		if humanOutput {
			fmt.Println(value)
		} else {
			outputJSON(map[string]string{key: value})
		}
		return nil
	}

	// Two args: set value
	value := args[1]
	switch key {
	case "data-dir":
		cfg.DataDir = value
	case "window-days":
		days, err := strconv.Atoi(value)
		if err != nil {
			exitWithError(ExitError, "window-days must be an integer: %s", value)
		}
		cfg.WindowDays = days
	case "pdf-dir":
		cfg.PDFDir = value
	case "sources":
		cfg.Sources = strings.Split(value, ",")
	default:
		exitWithError(ExitError, "unknown configuration key: %s", key)
	}

	if err := cfg.Validate(); err != nil {
		exitWithError(ExitError, "%v", err)
	}
	if err := cfg.Save(repoRoot); err != nil {
		exitWithError(ExitError, "saving config: %v", err)
	}

	if humanOutput {
		fmt.Printf("Set %s = %s\n", key, value)
	} else {
		outputJSON(map[string]string{"status": "updated", "key": key, "value": value})
	}
	return nil
}
