package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "settlewatch",
	Short: "Settlewatch - class-action settlement listings scraper",
	Long: `Settlewatch discovers class-action settlement listings published on
classaction.org, extracts structured records from the listings HTML,
resolves each settlement's logo image, and upserts the result into a
Postgres table keyed by the listing's source slug.

Runs are idempotent: repeating a run against the same page leaves the
stored rows unchanged. Records are never deleted; a listing that drops
off the page keeps its row.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("settlewatch v0.1.0")
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.settlewatch/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}
		viper.AddConfigPath(home + "/.settlewatch")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match SETTLEWATCH_*
	viper.SetEnvPrefix("SETTLEWATCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	bindEnvKeys()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// bindEnvKeys registers every config key with viper. AutomaticEnv alone only
// resolves keys viper already knows about, so env-only overrides
// (SETTLEWATCH_SOURCE_PAGES etc.) would otherwise be dropped by Unmarshal.
func bindEnvKeys() {
	for _, key := range []string{
		"source.listings_url", "source.base_url", "source.pages",
		"source.respect_robots", "source.requests_per_second", "source.burst",
		"http.timeout", "http.user_agent", "http.max_body_bytes",
		"http.max_retries", "http.retry_backoff", "http.insecure_tls",
		"http.http_proxy", "http.https_proxy", "http.no_proxy",
		"cache.enabled", "cache.dir", "cache.memory_ttl", "cache.disk_ttl",
		"storage.schema", "storage.table", "storage.conflict_column",
		"storage.batch_size", "storage.max_conns", "storage.timeout",
		"storage.error_rate_abort",
		"concurrency.page_workers",
		"llm.provider", "llm.model", "llm.base_url", "llm.timeout_seconds",
		"output.verbose",
	} {
		_ = viper.BindEnv(key)
	}
}
