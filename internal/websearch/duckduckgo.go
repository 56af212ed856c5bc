// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package websearch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/pdiddy/deep-research/internal/httputil"
	"github.com/pdiddy/deep-research/pkg/types"
)

// duckduckgoBase is the DuckDuckGo lite endpoint. Declared as a var so
// tests can substitute an httptest server.
var duckduckgoBase = "https://lite.duckduckgo.com/lite/"

// DuckDuckGoProvider scrapes the DuckDuckGo lite HTML interface. It serves
// as the fallback when the Google scrape fails; the lite markup is stable
// and tolerant of non-browser clients.
type DuckDuckGoProvider struct {
	Client *http.Client
}

// Name returns the provider identifier.
func (d *DuckDuckGoProvider) Name() string { return "duckduckgo" }

// Search posts the query form and parses the result links.
func (d *DuckDuckGoProvider) Search(ctx context.Context, query string, cfg types.SearchConfig) ([]types.SearchResult, error) {
	limit := cfg.ResultsPerQuery
	if limit <= 0 {
		limit = 3
	}

	form := url.Values{}
	form.Set("q", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, duckduckgoBase, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", httputil.UserAgent(cfg.UserAgent))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := httputil.DoWithRetry(ctx, d.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo returned HTTP %d", resp.StatusCode)
	}

	results, err := parseDuckDuckGoResults(resp.Body, limit)
	if err != nil {
		return nil, fmt.Errorf("parsing duckduckgo results: %w", err)
	}
	return results, nil
}

// parseDuckDuckGoResults extracts result links from the lite page. Result
// anchors carry class "result-link"; the matching snippet rows carry class
// "result-snippet".
func parseDuckDuckGoResults(r io.Reader, limit int) ([]types.SearchResult, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var results []types.SearchResult
	var snippets []string
	seen := make(map[string]bool)

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch {
			case n.Data == "a" && hasClass(n, "result-link"):
				target := resolveDuckDuckGoHref(attrVal(n, "href"))
				title := nodeText(n)
				if target != "" && title != "" && !seen[target] && len(results) < limit {
					seen[target] = true
					results = append(results, types.SearchResult{
						Title:    title,
						URL:      target,
						Provider: "duckduckgo",
						Rank:     len(results) + 1,
					})
				}
			case n.Data == "td" && hasClass(n, "result-snippet"):
				snippets = append(snippets, nodeText(n))
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	for i := range results {
		if i < len(snippets) {
			results[i].Snippet = snippets[i]
		}
	}
	return results, nil
}

// resolveDuckDuckGoHref unwraps the lite redirect (//duckduckgo.com/l/?uddg=...)
// into the target URL, or returns the href when it is already direct.
func resolveDuckDuckGoHref(href string) string {
	if strings.Contains(href, "duckduckgo.com/l/") {
		u, err := url.Parse(href)
		if err != nil {
			return ""
		}
		href = u.Query().Get("uddg")
	}
	if !strings.HasPrefix(href, "http") {
		return ""
	}
	return href
}

// hasClass reports whether the node's class attribute contains name.
func hasClass(n *html.Node, name string) bool {
	for _, c := range strings.Fields(attrVal(n, "class")) {
		if c == name {
			return true
		}
	}
	return false
}
