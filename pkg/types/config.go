// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests. Empty means
	// the stage picks a rotating browser user agent.
	UserAgent string `json:"user_agent,omitempty" yaml:"user_agent,omitempty"`
}

// AIConfig holds settings for stages that call the LLM completion API.
type AIConfig struct {
	// Model is the model identifier (default "gpt-4o-mini").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL overrides the API endpoint, e.g. for OpenAI-compatible gateways.
	// Empty uses the default OpenAI endpoint.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// MaxRetries is the number of retry attempts for failed API calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// SearchConfig holds settings for the web search stage.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// ResultsPerQuery bounds the number of result URLs kept per generated
	// search query (default 3).
	ResultsPerQuery int `json:"search_results_per_query" yaml:"search_results_per_query"`

	// InterQueryDelay is the pause between consecutive search requests, to
	// stay under provider rate limits. Zero means the 600ms default; a
	// negative value disables the delay.
	InterQueryDelay time.Duration `json:"inter_query_delay" yaml:"inter_query_delay"`
}

// CrawlConfig holds settings for the page crawling stage.
type CrawlConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxContentBytes truncates extracted page text to this size before it is
	// handed to the LLM (default 32 KiB).
	MaxContentBytes int `json:"max_content_bytes" yaml:"max_content_bytes"`
}

// ReportConfig holds settings for report synthesis and persistence.
type ReportConfig struct {
	// ReportDir is the directory where report files are written (default ".").
	ReportDir string `json:"report_dir" yaml:"report_dir"`
}

// ArchiveConfig holds settings for the findings archive.
type ArchiveConfig struct {
	// ArchiveDir is the base directory for the archive (contains index/).
	ArchiveDir string `json:"archive_dir" yaml:"archive_dir"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// ResearchConfig groups all stage configurations for one research run.
// It is loaded once at startup and immutable during the run.
type ResearchConfig struct {
	AI      AIConfig      `json:"ai" yaml:"ai"`
	Search  SearchConfig  `json:"search" yaml:"search"`
	Crawl   CrawlConfig   `json:"crawl" yaml:"crawl"`
	Report  ReportConfig  `json:"report" yaml:"report"`
	Archive ArchiveConfig `json:"archive" yaml:"archive"`

	// MaxLoops caps the search iterations performed per subcomponent (default 3).
	MaxLoops int `json:"max_loops" yaml:"max_loops"`

	// QueriesPerLoop is the number of operator queries generated per loop (default 2).
	QueriesPerLoop int `json:"queries_per_loop" yaml:"queries_per_loop"`

	// RelevanceThreshold is the minimum relevance score for a crawled page to
	// count as a finding (default 0.3).
	RelevanceThreshold float64 `json:"relevance_threshold" yaml:"relevance_threshold"`
}
