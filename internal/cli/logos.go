package cli

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/settlewatch/settlewatch/internal/cache"
	"github.com/settlewatch/settlewatch/internal/log"
	"github.com/settlewatch/settlewatch/internal/logo"
	"github.com/settlewatch/settlewatch/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	logosTimeout time.Duration
	logosSlug    string
	logosName    string
)

// logosCmd exposes the tiered logo resolution standalone, so consumers of
// the settlements table can re-derive a logo the same way the run does.
var logosCmd = &cobra.Command{
	Use:   "logos",
	Short: "Build the logo map from the listings page",
	Long: `Logos fetches the listings page, pairs every logo image with the
nearest preceding name/slug metadata, and prints the resulting map.

With --slug or --name it instead resolves a single settlement through
the matching tiers (exact slug, normalized name, derived slug) and
prints the winning URL.

Example:
  settlewatch logos
  settlewatch logos --slug data-breach-23andme
  settlewatch logos --name "23andMe - Data Breach Class Action Settlement"`,
	Args: cobra.NoArgs,
	RunE: runLogos,
}

func init() {
	rootCmd.AddCommand(logosCmd)

	logosCmd.Flags().DurationVar(&logosTimeout, "timeout", 2*time.Minute, "fetch deadline")
	logosCmd.Flags().StringVar(&logosSlug, "slug", "", "settlement source slug to resolve")
	logosCmd.Flags().StringVar(&logosName, "name", "", "settlement name to resolve")
}

func runLogos(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := log.New(cfg.Output.Verbose)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), logosTimeout)
	defer cancel()

	fetcher := pipeline.NewFetcher(cfg, cache.FromConfig(cfg.Cache), logger)
	html, err := fetcher.Fetch(ctx, cfg.Source.ListingsURL)
	if err != nil {
		return err
	}

	maps := logo.NewResolver(cfg.Source.BaseURL, logger).Build(html)

	if logosSlug != "" || logosName != "" {
		url, ok := maps.Resolve(logosSlug, logosName)
		if !ok {
			return fmt.Errorf("no logo found for slug=%q name=%q", logosSlug, logosName)
		}
		fmt.Println(url)
		return nil
	}

	slugs := make([]string, 0, len(maps.Slugs))
	for slug := range maps.Slugs {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	for _, slug := range slugs {
		fmt.Printf("%s\t%s\n", slug, maps.Slugs[slug])
	}
	fmt.Printf("\n%d slugs, %d names\n", len(maps.Slugs), len(maps.Names))
	return nil
}
