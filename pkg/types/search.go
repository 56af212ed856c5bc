// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the deep-research pipeline.
package types

// SearchResult represents one organic result returned by a web search provider.
type SearchResult struct {
	// Title is the result title as shown on the results page.
	Title string `json:"title" yaml:"title"`

	// URL is the result link.
	URL string `json:"url" yaml:"url"`

	// Snippet is the short description shown under the result, when available.
	Snippet string `json:"snippet,omitempty" yaml:"snippet,omitempty"`

	// Provider identifies which backend produced this result (e.g. "google", "duckduckgo").
	Provider string `json:"provider" yaml:"provider"`

	// Rank is the 1-based position of the result on the results page.
	Rank int `json:"rank" yaml:"rank"`
}
