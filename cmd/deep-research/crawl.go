// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/deep-research/internal/crawl"
	"github.com/pdiddy/deep-research/internal/httputil"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl [url]...",
	Short: "Fetch pages and print their extracted text",
	Long: `Crawl downloads each page, strips boilerplate (scripts, navigation,
headers, footers), and prints the readable text with markdown heading
markers, truncated to the configured content budget. This is the same
extraction the research pipeline feeds to the analysis stage.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCrawl,
}

func runCrawl(cmd *cobra.Command, args []string) error {
	cfg := researchConfig()
	if maxBytes, _ := cmd.Flags().GetInt("max-bytes"); maxBytes > 0 {
		cfg.Crawl.MaxContentBytes = maxBytes
	}

	fetcher := &crawl.Fetcher{Client: httputil.NewClient(cfg.Crawl.HTTPConfig)}

	failed := 0
	for _, target := range args {
		text, err := fetcher.Fetch(context.Background(), target, cfg.Crawl)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
			failed++
			continue
		}
		if len(args) > 1 {
			fmt.Printf("--- %s ---\n", target)
		}
		fmt.Println(text)
	}

	if failed == len(args) {
		return fmt.Errorf("all %d page(s) failed to crawl", failed)
	}
	return nil
}

func init() {
	crawlCmd.Flags().Int("max-bytes", 0, "override extracted text budget (0 = config value)")

	rootCmd.AddCommand(crawlCmd)
}
