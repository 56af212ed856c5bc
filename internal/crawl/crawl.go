// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package crawl fetches result pages and extracts readable text for the
// analysis stage. Boilerplate subtrees (scripts, navigation, chrome) are
// dropped and headings are kept as markdown markers so the LLM sees the
// page structure.
package crawl

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/pdiddy/deep-research/internal/httputil"
	"github.com/pdiddy/deep-research/pkg/types"
)

const defaultMaxContentBytes = 32 * 1024

// skipTags are subtrees that never contain article text.
var skipTags = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"svg":      true,
	"iframe":   true,
	"nav":      true,
	"header":   true,
	"footer":   true,
	"aside":    true,
	"form":     true,
}

// headingMarkers maps heading tags to their markdown prefix.
var headingMarkers = map[string]string{
	"h1": "# ",
	"h2": "## ",
	"h3": "### ",
	"h4": "#### ",
}

// Fetcher retrieves and extracts page content.
type Fetcher struct {
	Client *http.Client
}

// Fetch downloads url, extracts the readable text, and truncates it to the
// configured budget. Non-HTML content types are rejected; callers treat a
// Fetch error as "skip this URL", never as a run failure.
func (f *Fetcher) Fetch(ctx context.Context, url string, cfg types.CrawlConfig) (string, error) {
	if strings.TrimSpace(url) == "" {
		return "", fmt.Errorf("crawl url is empty")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", httputil.UserAgent(cfg.UserAgent))

	resp, err := httputil.DoWithRetry(ctx, f.Client, req, 0)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching %s: HTTP %d", url, resp.StatusCode)
	}

	ctype := resp.Header.Get("Content-Type")
	if ctype != "" && !strings.Contains(ctype, "text/html") && !strings.Contains(ctype, "text/plain") {
		return "", fmt.Errorf("fetching %s: unsupported content type %q", url, ctype)
	}

	maxBytes := cfg.MaxContentBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxContentBytes
	}

	// Raw HTML compresses heavily during extraction, so read a few times
	// the text budget rather than buffering arbitrarily large pages.
	body, err := io.ReadAll(io.LimitReader(resp.Body, int64(maxBytes)*4))
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", url, err)
	}

	if strings.Contains(ctype, "text/plain") {
		return truncate(strings.TrimSpace(string(body)), maxBytes), nil
	}

	text, err := ExtractText(string(body))
	if err != nil {
		return "", fmt.Errorf("parsing %s: %w", url, err)
	}
	return truncate(text, maxBytes), nil
}

// ExtractText parses HTML and returns the readable text with markdown
// heading markers. Boilerplate subtrees are dropped.
func ExtractText(rawHTML string) (string, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if skipTags[n.Data] {
				return
			}
			if marker, ok := headingMarkers[n.Data]; ok {
				heading := collectText(n)
				if heading != "" {
					b.WriteString("\n" + marker + heading + "\n")
				}
				return
			}
			// Block elements break lines; inline elements flow.
			switch n.Data {
			case "p", "div", "li", "tr", "br", "section", "article", "blockquote":
				b.WriteString("\n")
			}
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return normalize(b.String()), nil
}

// collectText gathers the text under n, whitespace-normalized.
func collectText(n *html.Node) string {
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

// normalize collapses runs of whitespace and blank lines.
func normalize(s string) string {
	lines := strings.Split(s, "\n")
	var out []string
	blank := false
	for _, line := range lines {
		trimmed := strings.Join(strings.Fields(line), " ")
		if trimmed == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, trimmed)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// truncate cuts text at maxBytes, backing up to a rune boundary so the cut
// never produces invalid UTF-8, and appends a marker so the analysis stage
// knows the page continued.
func truncate(text string, maxBytes int) string {
	if len(text) <= maxBytes {
		return text
	}
	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "\n[TRUNCATED]"
}
