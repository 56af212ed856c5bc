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

// googleSearchBase is the Google SERP endpoint. Declared as a var so tests
// can substitute an httptest server.
var googleSearchBase = "https://www.google.com/search"

// GoogleProvider scrapes the Google results page for organic links. It is
// the primary provider; Google throttles aggressively, so requests carry a
// rotating browser User-Agent and go through the shared retry helper.
type GoogleProvider struct {
	Client *http.Client
}

// Name returns the provider identifier.
func (g *GoogleProvider) Name() string { return "google" }

// Search requests one results page and parses the organic links.
func (g *GoogleProvider) Search(ctx context.Context, query string, cfg types.SearchConfig) ([]types.SearchResult, error) {
	limit := cfg.ResultsPerQuery
	if limit <= 0 {
		limit = 3
	}

	u := fmt.Sprintf("%s?q=%s&num=%d", googleSearchBase, url.QueryEscape(query), limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", httputil.UserAgent(cfg.UserAgent))
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := httputil.DoWithRetry(ctx, g.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("google request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google returned HTTP %d", resp.StatusCode)
	}

	results, err := parseGoogleResults(resp.Body, limit)
	if err != nil {
		return nil, fmt.Errorf("parsing google results: %w", err)
	}
	return results, nil
}

// parseGoogleResults walks the SERP HTML and collects organic result links.
// Each organic result is an <a> wrapping an <h3> title; hrefs are either
// direct or /url?q= redirects depending on the markup variant served.
func parseGoogleResults(r io.Reader, limit int) ([]types.SearchResult, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var results []types.SearchResult
	seen := make(map[string]bool)

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if len(results) >= limit {
			return
		}
		if n.Type == html.ElementNode && n.Data == "a" {
			href := attrVal(n, "href")
			target := resolveGoogleHref(href)
			if target != "" && !seen[target] {
				title := nodeText(findChild(n, "h3"))
				if title == "" {
					title = nodeText(n)
				}
				if title != "" {
					seen[target] = true
					results = append(results, types.SearchResult{
						Title:    title,
						URL:      target,
						Provider: "google",
						Rank:     len(results) + 1,
					})
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return results, nil
}

// resolveGoogleHref turns a SERP anchor href into an external URL, or ""
// when the anchor is navigation or an ad.
func resolveGoogleHref(href string) string {
	if strings.HasPrefix(href, "/url?") {
		u, err := url.Parse(href)
		if err != nil {
			return ""
		}
		href = u.Query().Get("q")
	}
	if !strings.HasPrefix(href, "http") {
		return ""
	}
	if parsed, err := url.Parse(href); err != nil || strings.Contains(parsed.Host, "google.") {
		return ""
	}
	return href
}

// attrVal returns the value of the named attribute, or "".
func attrVal(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// findChild returns the first descendant element with the given tag.
func findChild(n *html.Node, tag string) *html.Node {
	if n == nil {
		return nil
	}
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findChild(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// nodeText concatenates the text nodes under n, whitespace-normalized.
func nodeText(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
