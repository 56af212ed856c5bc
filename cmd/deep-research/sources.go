// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/deep-research/internal/archive"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Query the archive of past research runs",
	Long: `Sources manages the archive of findings from past research runs.
Use subcommands to list runs, search findings with full-text queries and
filters, or export the archive to YAML or JSON.`,
}

// --- runs subcommand ---

var sourcesRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List archived research runs",
	RunE:  runSourcesRuns,
}

func runSourcesRuns(cmd *cobra.Command, args []string) error {
	store, err := openArchive()
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.Runs(context.Background())
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	if len(runs) == 0 {
		fmt.Println("No archived runs.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-50s  %-20s  %-8s  %s\n", "ID", "Query", "Date", "Findings", "Report")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 110))
	for _, r := range runs {
		query := r.Query
		if len(query) > 50 {
			query = query[:47] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-4d  %-50s  %-20s  %-8d  %s\n",
			r.ID, query, r.CreatedAt.Format("2006-01-02 15:04"), r.Findings, r.ReportPath)
	}
	fmt.Fprintf(os.Stdout, "\n%d runs\n", len(runs))
	return nil
}

// --- retrieve subcommand ---

var sourcesRetrieveCmd = &cobra.Command{
	Use:   "retrieve [query]",
	Short: "Search archived findings with full-text search and filters",
	Long: `Retrieve searches archived findings using FTS5 full-text search over
summaries and extracted information, structured filters (run, subcomponent,
minimum relevance), or a combination of both.`,
	RunE: runSourcesRetrieve,
}

func runSourcesRetrieve(cmd *cobra.Command, args []string) error {
	store, err := openArchive()
	if err != nil {
		return err
	}
	defer store.Close()

	opts := archiveOptsFromFlags(cmd, args)
	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide a search query, --run, --subcomponent, or --min-relevance")
	}

	results, err := store.Retrieve(context.Background(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatRetrieveOutput(results, jsonOutput)
}

func formatRetrieveOutput(results []archive.QueryResult, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-5s  %-30s  %-50s  %s\n", "Rank", "Run", "Subcomponent", "Summary", "URL")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 130))

	for i, r := range results {
		sub := r.Subcomponent
		if len(sub) > 30 {
			sub = sub[:27] + "..."
		}
		summary := r.Summary
		if len(summary) > 50 {
			summary = summary[:47] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-4d  %-5d  %-30s  %-50s  %s\n", i+1, r.RunID, sub, summary, r.URL)
	}

	fmt.Fprintf(os.Stdout, "\n%d results\n", len(results))
	return nil
}

// --- export subcommand ---

var sourcesExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export archived findings to YAML or JSON",
	Long: `Export writes the archive (or a filtered subset) to
archive/index/export.yaml or export.json. Supports the same filter flags
as retrieve for partial exports.`,
	RunE: runSourcesExport,
}

func runSourcesExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	store, err := openArchive()
	if err != nil {
		return err
	}
	defer store.Close()

	opts := archiveOptsFromFlags(cmd, args)

	switch format {
	case "yaml", "":
		if err := store.ExportYAML(context.Background(), opts); err != nil {
			return err
		}
		fmt.Println("Exported to archive/index/export.yaml")
	case "json":
		if err := store.ExportJSON(context.Background(), opts); err != nil {
			return err
		}
		fmt.Println("Exported to archive/index/export.json")
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}

	return nil
}

// --- shared helpers ---

func openArchive() (*archive.Store, error) {
	cfg := researchConfig()
	return archive.NewStore(cfg.Archive)
}

func archiveOptsFromFlags(cmd *cobra.Command, args []string) archive.QueryOptions {
	queryText, _ := cmd.Flags().GetString("query")
	if queryText == "" && len(args) > 0 {
		queryText = strings.Join(args, " ")
	}

	runID, _ := cmd.Flags().GetInt64("run")
	subcomponent, _ := cmd.Flags().GetString("subcomponent")
	minRelevance, _ := cmd.Flags().GetFloat64("min-relevance")
	limit, _ := cmd.Flags().GetInt("limit")

	return archive.QueryOptions{
		Query:        queryText,
		RunID:        runID,
		Subcomponent: subcomponent,
		MinRelevance: minRelevance,
		MaxResults:   limit,
	}
}

func init() {
	// Runs flags.
	sourcesRunsCmd.Flags().Bool("json", false, "output runs as JSON")

	// Retrieve flags.
	sourcesRetrieveCmd.Flags().String("query", "", "full-text search query")
	sourcesRetrieveCmd.Flags().Int64("run", 0, "filter by run ID")
	sourcesRetrieveCmd.Flags().String("subcomponent", "", "filter by subcomponent")
	sourcesRetrieveCmd.Flags().Float64("min-relevance", 0, "minimum relevance score")
	sourcesRetrieveCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	sourcesRetrieveCmd.Flags().Bool("json", false, "output results as JSON")

	// Export flags.
	sourcesExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	sourcesExportCmd.Flags().String("query", "", "full-text search filter for partial export")
	sourcesExportCmd.Flags().Int64("run", 0, "filter by run ID for partial export")
	sourcesExportCmd.Flags().String("subcomponent", "", "filter by subcomponent for partial export")
	sourcesExportCmd.Flags().Float64("min-relevance", 0, "minimum relevance score for partial export")
	sourcesExportCmd.Flags().Int("limit", 0, "maximum findings to export (0 = all)")

	// Wire subcommands.
	sourcesCmd.AddCommand(sourcesRunsCmd)
	sourcesCmd.AddCommand(sourcesRetrieveCmd)
	sourcesCmd.AddCommand(sourcesExportCmd)

	rootCmd.AddCommand(sourcesCmd)
}
