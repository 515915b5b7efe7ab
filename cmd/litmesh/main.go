// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the litmesh CLI: scientific-paper
// search across arXiv, OpenAlex, Scopus and Semantic Scholar, plus PDF
// download and the local fulltext index.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/litmesh/internal/logging"
	"github.com/pdiddy/litmesh/internal/secrets"
	"github.com/pdiddy/litmesh/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// log is the process-wide logger, configured in PersistentPreRunE.
var log zerolog.Logger

// cfg is assembled from the config file, environment and secrets.
var cfg types.Config

// rootCmd is the base command for the litmesh CLI.
var rootCmd = &cobra.Command{
	Use:   "litmesh",
	Short: "Scientific paper search across multiple providers",
	Long: `litmesh searches scientific-paper metadata across arXiv, OpenAlex,
Scopus and Semantic Scholar behind one Scopus-style query language,
merges and deduplicates the results, and can download open-access PDFs
for the papers it finds.

Each operation is a subcommand: search, download, and index (the local
fulltext index backing fulltext queries on providers without native
fulltext search).`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional; explicit environment always wins.
		_ = godotenv.Load()

		level, _ := cmd.Flags().GetString("log-level")
		format, _ := cmd.Flags().GetString("log-format")
		log = logging.New(level, format)

		cfg = configFromViper()
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		secrets.Apply(s, &cfg)
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./litmesh.yaml or ~/.config/litmesh/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("litmesh")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "litmesh"))
		}
	}

	viper.SetEnvPrefix("LITMESH")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// configFromViper maps the flat viper keys onto the typed config.
func configFromViper() types.Config {
	var c types.Config
	c.Search.HTTPConfig = httpConfigFromViper("search")
	c.Search.ScopusAPIKey = viper.GetString("search.scopus_api_key")
	c.Search.SemanticScholarAPIKey = viper.GetString("search.semantic_scholar_api_key")
	c.Search.OpenAlexMailto = viper.GetString("search.openalex_mailto")
	c.Search.SemanticScholarRate = viper.GetFloat64("search.semantic_scholar_rate")
	c.Search.FulltextIndexPath = viper.GetString("search.fulltext_index_path")

	c.Download.HTTPConfig = httpConfigFromViper("download")
	c.Download.OutputDir = viper.GetString("download.output_dir")
	c.Download.Delay = viper.GetDuration("download.delay")
	c.Download.UnpaywallEmail = viper.GetString("download.unpaywall_email")
	return c
}

func httpConfigFromViper(section string) types.HTTPConfig {
	hc := types.DefaultHTTP()
	if t := viper.GetDuration(section + ".timeout"); t > 0 {
		hc.Timeout = t
	}
	if ua := viper.GetString(section + ".user_agent"); ua != "" {
		hc.UserAgent = ua
	}
	return hc
}

// interruptible returns a context cancelled by SIGINT/SIGTERM.
func interruptible() (ctx context.Context, stop context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
