// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/deep-research/internal/archive"
	"github.com/pdiddy/deep-research/internal/crawl"
	"github.com/pdiddy/deep-research/internal/httputil"
	"github.com/pdiddy/deep-research/internal/llm"
	"github.com/pdiddy/deep-research/internal/report"
	"github.com/pdiddy/deep-research/internal/researcher"
)

var researchCmd = &cobra.Command{
	Use:   "research [query]",
	Short: "Run the full research pipeline for a query",
	Long: `Research decomposes the query into subcomponents, then for each one
loops through search query generation, web search, crawling, and relevance
analysis until the findings suffice or the loop budget runs out. The final
markdown report is written to the report directory and the findings are
archived for later retrieval.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResearch,
}

func runResearch(cmd *cobra.Command, args []string) error {
	query := strings.TrimSpace(strings.Join(args, " "))

	cfg := researchConfig()
	if maxLoops, _ := cmd.Flags().GetInt("max-loops"); maxLoops > 0 {
		cfg.MaxLoops = maxLoops
	}
	if perQuery, _ := cmd.Flags().GetInt("results-per-query"); perQuery > 0 {
		cfg.Search.ResultsPerQuery = perQuery
	}
	if model, _ := cmd.Flags().GetString("model"); model != "" {
		cfg.AI.Model = model
	}
	if reportDir, _ := cmd.Flags().GetString("report-dir"); reportDir != "" {
		cfg.Report.ReportDir = reportDir
	}
	if err := requireAPIKey(cfg); err != nil {
		return err
	}

	deps := researcher.Deps{
		LLM:       llm.New(cfg.AI),
		Providers: searchProviders(cfg.Search),
		Fetcher:   &crawl.Fetcher{Client: httputil.NewClient(cfg.Crawl.HTTPConfig)},
	}

	ctx := context.Background()
	rep, err := researcher.Research(ctx, deps, cfg, query, os.Stdout)
	if err != nil {
		return err
	}

	if err := report.Synthesize(ctx, deps.LLM, rep, os.Stdout); err != nil {
		return err
	}

	path, err := report.Save(rep, cfg.Report)
	if err != nil {
		return err
	}
	fmt.Printf("\nReport written to %s\n", path)

	if noArchive, _ := cmd.Flags().GetBool("no-archive"); noArchive {
		return nil
	}

	store, err := archive.NewStore(cfg.Archive)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: archive unavailable: %v\n", err)
		return nil
	}
	defer store.Close()

	runID, err := store.IngestRun(ctx, rep, path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: archiving run failed: %v\n", err)
		return nil
	}
	fmt.Printf("Archived as run %d (%d findings)\n", runID, rep.TotalSources())
	return nil
}

func init() {
	researchCmd.Flags().Int("max-loops", 0, "override search loops per subcomponent (0 = config value)")
	researchCmd.Flags().Int("results-per-query", 0, "override result URLs kept per search query (0 = config value)")
	researchCmd.Flags().String("model", "", "override the LLM model")
	researchCmd.Flags().String("report-dir", "", "override the report output directory")
	researchCmd.Flags().Bool("no-archive", false, "skip archiving the run's findings")

	rootCmd.AddCommand(researchCmd)
}
