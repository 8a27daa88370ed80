package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/settlewatch/settlewatch/internal/log"
	"github.com/settlewatch/settlewatch/internal/model"
	"github.com/settlewatch/settlewatch/internal/pipeline"
	"github.com/settlewatch/settlewatch/internal/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	runTimeout  time.Duration
	runPages    int
	runURL      string
	runDryRun   bool
	runNoCache  bool
	llmProvider string
	llmModel    string
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Scrape the listings page and upsert settlements",
	Long: `Run executes one batch: fetch the listings page(s), extract and
normalize each settlement card, resolve logo images, and upsert the
records into Postgres keyed by source slug.

The Postgres DSN is read from SETTLEWATCH_PG_DSN. With --dry-run the
batch runs against an in-memory store and touches no database.

Exit status is zero when at least one record was written (or the page
legitimately had none), non-zero when the fetch failed after retries or
cards existed but nothing could be written.

Example:
  SETTLEWATCH_PG_DSN=postgres://... settlewatch run
  settlewatch run --dry-run --pages 2 -v`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().DurationVar(&runTimeout, "timeout", 10*time.Minute, "overall run deadline")
	runCmd.Flags().IntVar(&runPages, "pages", 0, "listing pages to fetch (0 = config value)")
	runCmd.Flags().StringVar(&runURL, "url", "", "override the listings URL")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "run against an in-memory store, write nothing")
	runCmd.Flags().BoolVar(&runNoCache, "no-cache", false, "disable the HTML snapshot cache")
	runCmd.Flags().StringVar(&llmProvider, "llm-provider", "", "enable LLM category refinement (openai)")
	runCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if runPages > 0 {
		cfg.Source.Pages = runPages
	}
	if runURL != "" {
		cfg.Source.ListingsURL = runURL
	}
	if runNoCache {
		cfg.Cache.Enabled = false
	}
	if llmProvider != "" {
		cfg.LLM.Provider = llmProvider
	}
	if llmModel != "" {
		cfg.LLM.Model = llmModel
	}

	logger, err := log.New(cfg.Output.Verbose)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	var st store.Store
	if runDryRun {
		st = store.NewMemory()
	} else {
		pg, err := store.OpenPostgres(ctx, cfg.Storage)
		if err != nil {
			return fmt.Errorf("open storage: %w", err)
		}
		st = pg
	}
	defer st.Close()

	p, err := pipeline.New(cfg, st, logger)
	if err != nil {
		return err
	}

	summary, runErr := p.Run(ctx)
	printSummary(summary, runDryRun)
	if runErr != nil {
		return fmt.Errorf("run failed: %w", runErr)
	}
	return nil
}

func printSummary(s *model.RunSummary, dryRun bool) {
	mode := ""
	if dryRun {
		mode = " (dry run)"
	}
	fmt.Printf("Run complete%s in %s\n", mode, s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond))
	fmt.Printf("  pages:    %d\n", s.Pages)
	fmt.Printf("  seen:     %d\n", s.Seen)
	fmt.Printf("  inserted: %d\n", s.Inserted)
	fmt.Printf("  updated:  %d\n", s.Updated)
	fmt.Printf("  skipped:  %d\n", s.Skipped)
	fmt.Printf("  errors:   %d\n", s.Errors)
	for _, w := range s.Warnings {
		fmt.Fprintf(os.Stderr, "  warning: %s\n", w)
	}
}

// loadConfig layers the config file and SETTLEWATCH_* environment on top of
// the defaults. Credentials come from the environment only.
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	cfg.Storage.DSN = os.Getenv("SETTLEWATCH_PG_DSN")
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = os.Getenv("PG_DSN")
	}
	cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")

	if verbose {
		cfg.Output.Verbose = true
	}
	return cfg, nil
}
