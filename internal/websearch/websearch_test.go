// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package websearch

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/deep-research/pkg/types"
)

// --- mock provider ---

type mockProvider struct {
	name    string
	results []types.SearchResult
	err     error
}

func (m *mockProvider) Name() string { return m.name }

func (m *mockProvider) Search(_ context.Context, _ string, _ types.SearchConfig) ([]types.SearchResult, error) {
	return m.results, m.err
}

func testCfg() types.SearchConfig {
	return types.SearchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   10 * time.Second,
			UserAgent: "test/0.1",
		},
		ResultsPerQuery: 3,
	}
}

func someResults(n int) []types.SearchResult {
	var rs []types.SearchResult
	for i := 0; i < n; i++ {
		rs = append(rs, types.SearchResult{
			Title: "Result", URL: "https://example.com/" + string(rune('a'+i)), Rank: i + 1,
		})
	}
	return rs
}

// --- Search fallback ---

func TestSearchPrimarySucceeds(t *testing.T) {
	var buf bytes.Buffer
	providers := []Provider{
		&mockProvider{name: "google", results: someResults(2)},
		&mockProvider{name: "duckduckgo", err: errors.New("should not be called")},
	}

	results, err := Search(context.Background(), providers, "query", testCfg(), &buf)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("len(results) = %d, want 2", len(results))
	}
	if buf.Len() != 0 {
		t.Errorf("unexpected warnings: %s", buf.String())
	}
}

func TestSearchFallsBackOnPrimaryFailure(t *testing.T) {
	var buf bytes.Buffer
	providers := []Provider{
		&mockProvider{name: "google", err: errors.New("HTTP 429")},
		&mockProvider{name: "duckduckgo", results: someResults(1)},
	}

	results, err := Search(context.Background(), providers, "query", testCfg(), &buf)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1", len(results))
	}
	if !strings.Contains(buf.String(), "falling back to duckduckgo") {
		t.Errorf("missing fallback warning, got: %s", buf.String())
	}
}

func TestSearchAllProvidersFail(t *testing.T) {
	var buf bytes.Buffer
	providers := []Provider{
		&mockProvider{name: "google", err: errors.New("down")},
		&mockProvider{name: "duckduckgo", err: errors.New("also down")},
	}

	_, err := Search(context.Background(), providers, "query", testCfg(), &buf)
	if err == nil {
		t.Fatal("expected error when every provider fails")
	}
	if !strings.Contains(err.Error(), "google") || !strings.Contains(err.Error(), "duckduckgo") {
		t.Errorf("error should name both providers: %v", err)
	}
}

func TestSearchBoundsResults(t *testing.T) {
	var buf bytes.Buffer
	providers := []Provider{&mockProvider{name: "google", results: someResults(5)}}

	cfg := testCfg()
	cfg.ResultsPerQuery = 2
	results, err := Search(context.Background(), providers, "query", cfg, &buf)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("len(results) = %d, want bounded to 2", len(results))
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	_, err := Search(context.Background(), []Provider{&mockProvider{name: "g"}}, "  ", testCfg(), &bytes.Buffer{})
	if err == nil {
		t.Fatal("expected error for empty query")
	}
}

// --- Google parsing ---

const googleSERP = `<html><body>
<div class="g">
  <a href="/url?q=https://example.com/one&amp;sa=U"><h3>First Result</h3></a>
</div>
<div class="g">
  <a href="https://example.com/two"><h3>Second Result</h3></a>
</div>
<a href="/search?q=next">Next page</a>
<a href="https://www.google.com/preferences">Settings</a>
</body></html>`

func TestGoogleProviderParsesOrganicResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != `intitle:"box office"` {
			t.Errorf("query param = %q", got)
		}
		if ua := r.Header.Get("User-Agent"); !strings.HasPrefix(ua, "Mozilla/5.0") && ua != "test/0.1" {
			t.Errorf("unexpected user agent %q", ua)
		}
		w.Write([]byte(googleSERP))
	}))
	defer srv.Close()

	oldBase := googleSearchBase
	googleSearchBase = srv.URL
	defer func() { googleSearchBase = oldBase }()

	g := &GoogleProvider{Client: srv.Client()}
	results, err := g.Search(context.Background(), `intitle:"box office"`, testCfg())
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2: %+v", len(results), results)
	}
	if results[0].URL != "https://example.com/one" {
		t.Errorf("first URL = %q (redirect href should be unwrapped)", results[0].URL)
	}
	if results[0].Title != "First Result" {
		t.Errorf("first title = %q", results[0].Title)
	}
	if results[1].URL != "https://example.com/two" {
		t.Errorf("second URL = %q", results[1].URL)
	}
}

func TestGoogleProviderHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	oldBase := googleSearchBase
	googleSearchBase = srv.URL
	defer func() { googleSearchBase = oldBase }()

	g := &GoogleProvider{Client: srv.Client()}
	_, err := g.Search(context.Background(), "query", testCfg())
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("expected HTTP 403 error, got %v", err)
	}
}

// --- DuckDuckGo parsing ---

const ddgLite = `<html><body><table>
<tr><td><a rel="nofollow" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fa" class="result-link">Alpha Page</a></td></tr>
<tr><td class="result-snippet">Alpha snippet text.</td></tr>
<tr><td><a rel="nofollow" href="https://example.com/b" class="result-link">Beta Page</a></td></tr>
<tr><td class="result-snippet">Beta snippet text.</td></tr>
</table></body></html>`

func TestDuckDuckGoProviderParsesResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatal(err)
		}
		if got := r.PostForm.Get("q"); got != "snow white reviews" {
			t.Errorf("form q = %q", got)
		}
		w.Write([]byte(ddgLite))
	}))
	defer srv.Close()

	oldBase := duckduckgoBase
	duckduckgoBase = srv.URL
	defer func() { duckduckgoBase = oldBase }()

	d := &DuckDuckGoProvider{Client: srv.Client()}
	results, err := d.Search(context.Background(), "snow white reviews", testCfg())
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2: %+v", len(results), results)
	}
	if results[0].URL != "https://example.com/a" {
		t.Errorf("first URL = %q (redirect should be unwrapped)", results[0].URL)
	}
	if results[0].Snippet != "Alpha snippet text." {
		t.Errorf("first snippet = %q", results[0].Snippet)
	}
	if results[1].Title != "Beta Page" {
		t.Errorf("second title = %q", results[1].Title)
	}
}

func TestURLs(t *testing.T) {
	urls := URLs(someResults(3))
	if len(urls) != 3 {
		t.Fatalf("len(urls) = %d, want 3", len(urls))
	}
	for _, u := range urls {
		if !strings.HasPrefix(u, "https://example.com/") {
			t.Errorf("unexpected url %q", u)
		}
	}
}

func TestFormatTable(t *testing.T) {
	var buf bytes.Buffer
	FormatTable(someResults(2), &buf)
	out := buf.String()
	if !strings.Contains(out, "Rank") || !strings.Contains(out, "2 results") {
		t.Errorf("unexpected table output:\n%s", out)
	}

	buf.Reset()
	FormatTable(nil, &buf)
	if !strings.Contains(buf.String(), "No results found.") {
		t.Errorf("empty table output = %q", buf.String())
	}
}
