// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// WebsiteReport holds scraped website content and its relevance analysis
// against one research subcomponent.
type WebsiteReport struct {
	// URL is the crawled page address.
	URL string `json:"url" yaml:"url"`

	// Content is the extracted page text, truncated to the crawl budget.
	Content string `json:"content,omitempty" yaml:"content,omitempty"`

	// RelevanceScore is a value between 0.0 and 1.0 assigned by the analysis stage.
	RelevanceScore float64 `json:"relevance_score" yaml:"relevance_score"`

	// Summary is a brief description of the page content.
	Summary string `json:"summary" yaml:"summary"`

	// RelevantInfo is the information extracted as relevant to the subcomponent.
	RelevantInfo string `json:"relevant_info" yaml:"relevant_info"`

	// SearchQuery is the generated operator query that surfaced this page.
	SearchQuery string `json:"search_query,omitempty" yaml:"search_query,omitempty"`
}

// SubcomponentFindings holds everything gathered for one subcomponent of the
// original query: the pages judged relevant, the queries used, and the
// rendered report section.
type SubcomponentFindings struct {
	// Subcomponent is the derived fragment of the original research query.
	Subcomponent string `json:"subcomponent" yaml:"subcomponent"`

	// Reports lists the pages whose relevance cleared the threshold.
	Reports []WebsiteReport `json:"reports" yaml:"reports"`

	// Loops is the number of search iterations performed (capped at max_loops).
	Loops int `json:"loops" yaml:"loops"`

	// SearchQueries lists every operator query issued, across all loops.
	SearchQueries []string `json:"search_queries" yaml:"search_queries"`

	// Section is the synthesized markdown section for this subcomponent.
	Section string `json:"section,omitempty" yaml:"section,omitempty"`
}

// ResearchReport is the final artifact of a research run.
type ResearchReport struct {
	// Query is the original research question.
	Query string `json:"query" yaml:"query"`

	// Subcomponents lists the decomposed fragments of the query, in order.
	Subcomponents []string `json:"subcomponents" yaml:"subcomponents"`

	// Findings holds per-subcomponent results, in subcomponent order.
	Findings []SubcomponentFindings `json:"findings" yaml:"findings"`

	// FinalReport is the assembled markdown document.
	FinalReport string `json:"final_report" yaml:"final_report"`

	// Timestamp records when the run completed.
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`

	// Sources lists the deduplicated URLs cited across all findings.
	Sources []string `json:"sources" yaml:"sources"`
}

// TotalSources returns the number of findings across all subcomponents.
func (r *ResearchReport) TotalSources() int {
	n := 0
	for _, f := range r.Findings {
		n += len(f.Reports)
	}
	return n
}
