// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package websearch issues operator queries against web search engines and
// returns a bounded list of organic results. Providers implement a Strategy
// interface; when one fails the next is tried, so a Google scrape failure
// falls back to DuckDuckGo without losing the loop.
package websearch

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/deep-research/pkg/types"
)

// Provider searches a single engine.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string, cfg types.SearchConfig) ([]types.SearchResult, error)
}

// Search runs query against the providers in order and returns the first
// non-empty result set, bounded by cfg.ResultsPerQuery. A provider failure
// is a warning on w, not an error; Search fails only when every provider
// does.
func Search(ctx context.Context, providers []Provider, query string, cfg types.SearchConfig, w io.Writer) ([]types.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("search query is empty")
	}
	if len(providers) == 0 {
		return nil, fmt.Errorf("no search providers configured")
	}

	limit := cfg.ResultsPerQuery
	if limit <= 0 {
		limit = 3
	}

	var errs []string
	for i, p := range providers {
		results, err := p.Search(ctx, query, cfg)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", p.Name(), err))
			if i < len(providers)-1 {
				fmt.Fprintf(w, "warning: %s search failed: %v, falling back to %s\n",
					p.Name(), err, providers[i+1].Name())
			}
			continue
		}
		if len(results) == 0 {
			continue
		}
		if len(results) > limit {
			results = results[:limit]
		}
		return results, nil
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("all search providers failed: %s", strings.Join(errs, "; "))
	}
	return nil, nil
}

// URLs extracts the result links in rank order.
func URLs(results []types.SearchResult) []string {
	urls := make([]string, 0, len(results))
	for _, r := range results {
		urls = append(urls, r.URL)
	}
	return urls
}

// FormatTable writes results as a human-readable table to w.
func FormatTable(results []types.SearchResult, w io.Writer) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-60s  %-12s  %s\n", "Rank", "Title", "Provider", "URL")
	fmt.Fprintln(w, strings.Repeat("-", 110))

	for _, r := range results {
		title := r.Title
		if len(title) > 60 {
			title = title[:57] + "..."
		}
		fmt.Fprintf(w, "%-4d  %-60s  %-12s  %s\n", r.Rank, title, r.Provider, r.URL)
	}
	fmt.Fprintf(w, "\n%d results\n", len(results))
}
