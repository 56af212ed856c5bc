// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package plan turns a research question into subcomponents and per-loop
// operator search queries via LLM function calling.
package plan

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/pdiddy/deep-research/internal/llm"
)

const decomposeSystem = `You are a research planner. Decompose complex queries into subcomponents.`

const decomposeUserTmpl = `Query: %s
Is this complex? If yes, break it into subcomponents. The subcomponents should be
detailed and not overlapping. The subcomponents should always keep a connection to
the main topic.`

// Decompose asks the model to split query into subcomponents. When the model
// declines to call the tool, calls a different tool, or returns nothing, the
// query itself is the single subcomponent.
func Decompose(ctx context.Context, client llm.Client, query string) ([]string, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query is empty: provide a research question")
	}

	tc, err := client.ToolCall(ctx, decomposeSystem, fmt.Sprintf(decomposeUserTmpl, query))
	if err != nil {
		return nil, fmt.Errorf("decomposing query: %w", err)
	}

	if tc == nil || tc.Name != llm.ToolDecomposeQuery {
		return []string{query}, nil
	}

	var args struct {
		Subcomponents []string `json:"subcomponents"`
	}
	if err := json.Unmarshal(tc.Arguments, &args); err != nil {
		return nil, fmt.Errorf("parsing decomposition arguments: %w", err)
	}

	var subs []string
	for _, s := range args.Subcomponents {
		if strings.TrimSpace(s) != "" {
			subs = append(subs, strings.TrimSpace(s))
		}
	}
	if len(subs) == 0 {
		return []string{query}, nil
	}
	return subs, nil
}

// OperatorRationale explains the model's operator choices, grouped by kind.
type OperatorRationale struct {
	SiteOperators    string `json:"site_operators"`
	TimeOperators    string `json:"time_operators"`
	ContentOperators string `json:"content_operators"`
	FileOperators    string `json:"file_operators"`
}

// Describe joins the non-empty rationale parts into one line. Empty when the
// model gave no rationale.
func (r OperatorRationale) Describe() string {
	var parts []string
	for _, p := range []string{r.SiteOperators, r.TimeOperators, r.ContentOperators, r.FileOperators} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "; ")
}

// QueryPlan holds one loop's generated operator queries.
type QueryPlan struct {
	Queries       []string
	Rationale     OperatorRationale
	KnowledgeGaps []string
}

// IsEmpty reports whether the model produced no usable queries; the research
// loop for the subcomponent ends when it does.
func (p QueryPlan) IsEmpty() bool {
	return len(p.Queries) == 0
}

const generateSystem = `You are an expert research assistant skilled in using search-engine operators.
Based on the research topic and any knowledge gaps, create diverse search queries using
appropriate operators, but they must keep the research topic in them.
Consider:
- Use site: for specific domains (news sites, academic sites, social media)
- Use filetype: for PDFs, docs when looking for reports/papers
- Use intitle: or inurl: for specific types of pages
- Use date operators (before:/after:) for time-sensitive information
- Use quotes for exact phrases
- Use OR for alternative terms
- Use -term to exclude irrelevant results
- Use AROUND(X) for related concepts
- Use @platform for social media searches
- Combine multiple operators for precision`

var generateUserTmpl = template.Must(template.New("generate").Parse(
	`Generate search queries for: {{.Subquery}} and strictly make sure the queries do not deviate from {{.Subquery}}
Knowledge gaps from previous searches: {{.Gaps}}
Previous searches conducted: {{.History}}
Create only {{.Count}} queries using different operators to get comprehensive results.`))

// GenerateQueries asks the model for count operator queries for subquery,
// feeding in knowledge gaps and the search history so loops do not repeat
// themselves. A plain-text answer or a different tool call yields an empty
// plan, not an error.
func GenerateQueries(ctx context.Context, client llm.Client, subquery string, gaps, history []string, count int) (QueryPlan, error) {
	if count <= 0 {
		count = 2
	}

	var buf bytes.Buffer
	err := generateUserTmpl.Execute(&buf, struct {
		Subquery string
		Gaps     string
		History  string
		Count    int
	}{
		Subquery: subquery,
		Gaps:     formatList(gaps),
		History:  formatList(history),
		Count:    count,
	})
	if err != nil {
		return QueryPlan{}, fmt.Errorf("rendering query prompt: %w", err)
	}

	tc, err := client.ToolCall(ctx, generateSystem, buf.String())
	if err != nil {
		return QueryPlan{}, fmt.Errorf("generating search queries: %w", err)
	}
	if tc == nil || tc.Name != llm.ToolGenerateSearchQueries {
		return QueryPlan{}, nil
	}

	var args struct {
		Queries           []string          `json:"queries"`
		OperatorRationale OperatorRationale `json:"operator_rationale"`
		KnowledgeGaps     []string          `json:"knowledge_gaps"`
	}
	if err := json.Unmarshal(tc.Arguments, &args); err != nil {
		return QueryPlan{}, fmt.Errorf("parsing query arguments: %w", err)
	}

	p := QueryPlan{
		Rationale:     args.OperatorRationale,
		KnowledgeGaps: args.KnowledgeGaps,
	}
	for _, q := range args.Queries {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		p.Queries = append(p.Queries, q)
		if len(p.Queries) >= count {
			break
		}
	}
	return p, nil
}

// formatList renders a string slice for prompt interpolation.
func formatList(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return "[" + strings.Join(items, "; ") + "]"
}
