// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package researcher runs the research pipeline: decompose the query,
// then for each subcomponent loop through query generation, web search,
// crawling, and relevance analysis until the findings are sufficient or
// the loop budget runs out.
package researcher

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pdiddy/deep-research/internal/analyze"
	"github.com/pdiddy/deep-research/internal/llm"
	"github.com/pdiddy/deep-research/internal/plan"
	"github.com/pdiddy/deep-research/internal/websearch"
	"github.com/pdiddy/deep-research/pkg/types"
)

const (
	defaultMaxLoops           = 3
	defaultQueriesPerLoop     = 2
	defaultRelevanceThreshold = 0.3
	defaultInterQueryDelay    = 600 * time.Millisecond
)

// Fetcher retrieves extracted page text for a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string, cfg types.CrawlConfig) (string, error)
}

// Deps bundles the external dependencies of a research run so tests can
// substitute mocks for the API and the network.
type Deps struct {
	LLM       llm.Client
	Providers []websearch.Provider
	Fetcher   Fetcher
}

// Research executes the full pipeline for query and returns the gathered
// findings. Page-level failures (fetch errors, throttled searches, confused
// completions) are warnings on w; only planning failures and context
// cancellation abort the run. The returned report has no FinalReport yet;
// the report stage fills that in.
func Research(ctx context.Context, deps Deps, cfg types.ResearchConfig, query string, w io.Writer) (*types.ResearchReport, error) {
	if deps.LLM == nil || deps.Fetcher == nil || len(deps.Providers) == 0 {
		return nil, fmt.Errorf("researcher dependencies are incomplete")
	}

	maxLoops := cfg.MaxLoops
	if maxLoops <= 0 {
		maxLoops = defaultMaxLoops
	}
	queriesPerLoop := cfg.QueriesPerLoop
	if queriesPerLoop <= 0 {
		queriesPerLoop = defaultQueriesPerLoop
	}
	threshold := cfg.RelevanceThreshold
	if threshold <= 0 {
		threshold = defaultRelevanceThreshold
	}
	// Zero means use the default; a negative value disables the delay.
	delay := cfg.Search.InterQueryDelay
	if delay == 0 {
		delay = defaultInterQueryDelay
	}

	fmt.Fprintf(w, "Researching: %s\n", query)

	subs, err := plan.Decompose(ctx, deps.LLM, query)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(w, "Decomposed into %d subcomponent(s)\n", len(subs))
	for i, s := range subs {
		fmt.Fprintf(w, "  %d. %s\n", i+1, s)
	}

	report := &types.ResearchReport{
		Query:         query,
		Subcomponents: subs,
	}

	for i, sub := range subs {
		fmt.Fprintf(w, "\n[%d/%d] %s\n", i+1, len(subs), sub)

		findings, err := researchSubcomponent(ctx, deps, sub, subOptions{
			maxLoops:       maxLoops,
			queriesPerLoop: queriesPerLoop,
			threshold:      threshold,
			delay:          delay,
			searchCfg:      cfg.Search,
			crawlCfg:       cfg.Crawl,
		}, w)
		if err != nil {
			return nil, err
		}
		report.Findings = append(report.Findings, findings)
	}

	report.Sources = collectSources(report.Findings)
	report.Timestamp = time.Now()

	fmt.Fprintf(w, "\nGathered %d relevant source(s) across %d subcomponent(s)\n",
		report.TotalSources(), len(subs))
	return report, nil
}

type subOptions struct {
	maxLoops       int
	queriesPerLoop int
	threshold      float64
	delay          time.Duration
	searchCfg      types.SearchConfig
	crawlCfg       types.CrawlConfig
}

// researchSubcomponent runs the generate/search/crawl/analyze loop for one
// subcomponent until the findings are judged sufficient or maxLoops is hit.
// The crawl dedupe is scoped to the subcomponent: the same URL may matter to
// several subcomponents and is analyzed against each subquery separately.
func researchSubcomponent(ctx context.Context, deps Deps, sub string, opts subOptions, w io.Writer) (types.SubcomponentFindings, error) {
	findings := types.SubcomponentFindings{Subcomponent: sub}
	seen := make(map[string]bool)
	var gaps []string

	for loop := 1; loop <= opts.maxLoops; loop++ {
		if err := ctx.Err(); err != nil {
			return findings, err
		}
		findings.Loops = loop
		fmt.Fprintf(w, "  loop %d/%d\n", loop, opts.maxLoops)

		queryPlan, err := plan.GenerateQueries(ctx, deps.LLM, sub, gaps, findings.SearchQueries, opts.queriesPerLoop)
		if err != nil {
			return findings, err
		}
		if queryPlan.IsEmpty() {
			fmt.Fprintf(w, "  no queries generated, stopping\n")
			break
		}
		if r := queryPlan.Rationale.Describe(); r != "" {
			fmt.Fprintf(w, "  operators: %s\n", r)
		}

		for _, q := range queryPlan.Queries {
			findings.SearchQueries = append(findings.SearchQueries, q)
			fmt.Fprintf(w, "    searching: %s\n", q)

			results, err := websearch.Search(ctx, deps.Providers, q, opts.searchCfg, w)
			if err != nil {
				fmt.Fprintf(w, "    warning: search failed: %v\n", err)
				continue
			}

			for _, result := range results {
				if seen[result.URL] {
					continue
				}
				seen[result.URL] = true

				content, err := deps.Fetcher.Fetch(ctx, result.URL, opts.crawlCfg)
				if err != nil {
					fmt.Fprintf(w, "    warning: skipping %s: %v\n", result.URL, err)
					continue
				}

				pageReport, err := analyze.Analyze(ctx, deps.LLM, result.URL, content, sub)
				if err != nil {
					fmt.Fprintf(w, "    warning: analysis of %s failed: %v\n", result.URL, err)
					continue
				}
				if pageReport.RelevanceScore <= opts.threshold {
					fmt.Fprintf(w, "    discarded %s (relevance %.2f)\n", result.URL, pageReport.RelevanceScore)
					continue
				}

				pageReport.SearchQuery = q
				findings.Reports = append(findings.Reports, pageReport)
				fmt.Fprintf(w, "    kept %s (relevance %.2f)\n", result.URL, pageReport.RelevanceScore)
			}

			if opts.delay > 0 {
				select {
				case <-ctx.Done():
					return findings, ctx.Err()
				case <-time.After(opts.delay):
				}
			}
		}

		sufficient, missing, err := analyze.CheckSufficiency(ctx, deps.LLM, sub, findings.Reports)
		if err != nil {
			return findings, err
		}
		if sufficient {
			fmt.Fprintf(w, "  sufficient after loop %d\n", loop)
			break
		}

		gaps = mergeGaps(queryPlan.KnowledgeGaps, missing)
		if len(gaps) > 0 {
			fmt.Fprintf(w, "  knowledge gaps: %s\n", strings.Join(gaps, "; "))
		}
	}

	return findings, nil
}

// mergeGaps combines gap lists, dropping duplicates and blanks.
func mergeGaps(lists ...[]string) []string {
	var merged []string
	seen := make(map[string]bool)
	for _, list := range lists {
		for _, g := range list {
			g = strings.TrimSpace(g)
			if g == "" || seen[g] {
				continue
			}
			seen[g] = true
			merged = append(merged, g)
		}
	}
	return merged
}

// collectSources dedupes finding URLs across subcomponents, keeping order.
func collectSources(findings []types.SubcomponentFindings) []string {
	var sources []string
	seen := make(map[string]bool)
	for _, f := range findings {
		for _, r := range f.Reports {
			if seen[r.URL] {
				continue
			}
			seen[r.URL] = true
			sources = append(sources, r.URL)
		}
	}
	return sources
}
