// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the deep-research CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/deep-research/internal/httputil"
	"github.com/pdiddy/deep-research/internal/secrets"
	"github.com/pdiddy/deep-research/internal/websearch"
	"github.com/pdiddy/deep-research/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the deep-research CLI.
var rootCmd = &cobra.Command{
	Use:   "deep-research",
	Short: "Automated multi-stage web research",
	Long: `deep-research runs an automated research pipeline: it decomposes a
question into subcomponents, generates operator search queries, searches the
web with fallback between engines, crawls and scores the results, and
synthesizes a markdown report.

The main command is research; search and crawl expose individual stages, and
sources queries the archive of past runs.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional; real environment variables win over it.
		godotenv.Load()

		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./config.json or ~/.config/deep-research/config.json)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("json")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "deep-research"))
		}
	}

	viper.SetEnvPrefix("DEEP_RESEARCH")
	viper.AutomaticEnv()

	viper.SetDefault("model", "gpt-4o-mini")
	viper.SetDefault("max_loops", 3)
	viper.SetDefault("search_results_per_query", 3)
	viper.SetDefault("queries_per_loop", 2)
	viper.SetDefault("relevance_threshold", 0.3)
	viper.SetDefault("inter_query_delay_ms", 600)
	viper.SetDefault("max_content_bytes", 32*1024)
	viper.SetDefault("http_timeout_seconds", 30)
	viper.SetDefault("report_dir", "reports")
	viper.SetDefault("archive_dir", "archive")
	viper.SetDefault("archive_max_results", 20)

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// researchConfig assembles the pipeline configuration from viper. The API
// key resolves with precedence config value, then OPENAI_API_KEY, then the
// .secrets/openai-api-key file.
func researchConfig() types.ResearchConfig {
	httpCfg := types.HTTPConfig{
		Timeout:   time.Duration(viper.GetInt("http_timeout_seconds")) * time.Second,
		UserAgent: viper.GetString("user_agent"),
	}

	return types.ResearchConfig{
		AI: types.AIConfig{
			Model:      viper.GetString("model"),
			APIKey:     secrets.Resolve(loadedSecrets, viper.GetString("api_key"), "OPENAI_API_KEY", "openai-api-key"),
			BaseURL:    viper.GetString("base_url"),
			MaxRetries: viper.GetInt("max_retries"),
		},
		Search: types.SearchConfig{
			HTTPConfig:      httpCfg,
			ResultsPerQuery: viper.GetInt("search_results_per_query"),
			InterQueryDelay: time.Duration(viper.GetInt("inter_query_delay_ms")) * time.Millisecond,
		},
		Crawl: types.CrawlConfig{
			HTTPConfig:      httpCfg,
			MaxContentBytes: viper.GetInt("max_content_bytes"),
		},
		Report: types.ReportConfig{
			ReportDir: viper.GetString("report_dir"),
		},
		Archive: types.ArchiveConfig{
			ArchiveDir: viper.GetString("archive_dir"),
			MaxResults: viper.GetInt("archive_max_results"),
		},
		MaxLoops:           viper.GetInt("max_loops"),
		QueriesPerLoop:     viper.GetInt("queries_per_loop"),
		RelevanceThreshold: viper.GetFloat64("relevance_threshold"),
	}
}

// searchProviders returns the provider chain in fallback order.
func searchProviders(cfg types.SearchConfig) []websearch.Provider {
	client := httputil.NewClient(cfg.HTTPConfig)
	return []websearch.Provider{
		&websearch.GoogleProvider{Client: client},
		&websearch.DuckDuckGoProvider{Client: client},
	}
}

// requireAPIKey aborts with a configuration error when no key is available.
func requireAPIKey(cfg types.ResearchConfig) error {
	if cfg.AI.APIKey == "" {
		return fmt.Errorf("no API key configured: set api_key in config.json, OPENAI_API_KEY, or .secrets/openai-api-key")
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
