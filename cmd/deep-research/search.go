// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/deep-research/internal/websearch"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Run one web search with engine fallback",
	Long: `Search issues a single query against the configured search engines,
falling back from Google to DuckDuckGo when the primary scrape fails. The
query may use search operators (site:, intitle:, filetype:, quotes, OR).`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	cfg := researchConfig()
	if limit, _ := cmd.Flags().GetInt("max-results"); limit > 0 {
		cfg.Search.ResultsPerQuery = limit
	}

	results, err := websearch.Search(context.Background(), searchProviders(cfg.Search), query, cfg.Search, os.Stderr)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	websearch.FormatTable(results, os.Stdout)
	return nil
}

func init() {
	searchCmd.Flags().Int("max-results", 0, "maximum results to return (0 = config value)")
	searchCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(searchCmd)
}
