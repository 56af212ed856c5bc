// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package analyze scores crawled pages against the research subcomponent
// they were fetched for, and judges when a subcomponent has gathered enough
// information to stop looping.
package analyze

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
	"unicode/utf8"

	"github.com/pdiddy/deep-research/internal/llm"
	"github.com/pdiddy/deep-research/pkg/types"
)

// maxPromptContent bounds how much page text goes into the analysis prompt.
const maxPromptContent = 10000

const analyzeSystem = "You are a research assistant analyzing website content for relevance."

var analyzeUserTmpl = template.Must(template.New("analyze").Parse(
	`Analyze this website content for relevance to the research query.

Research query: {{.Subquery}}

Website URL: {{.URL}}

Website content:
{{.Content}}

Use the analyze_website_relevance function to score the content from 0 to 1,
summarize it, and extract the information relevant to the query.`))

// relevanceArgs mirrors the analyze_website_relevance tool schema.
type relevanceArgs struct {
	RelevanceScore float64 `json:"relevance_score"`
	Summary        string  `json:"summary"`
	RelevantInfo   string  `json:"relevant_info"`
}

// Analyze asks the model to score content for pageURL against subquery.
// A plain-text answer, a different tool, or malformed arguments produce a
// zero-score report rather than an error, so one confused completion never
// sinks a research loop. Only transport failures return an error.
func Analyze(ctx context.Context, client llm.Client, pageURL, content, subquery string) (types.WebsiteReport, error) {
	report := types.WebsiteReport{
		URL:     pageURL,
		Content: content,
	}

	if len(content) > maxPromptContent {
		// Back up to a rune boundary so the prompt stays valid UTF-8.
		cut := maxPromptContent
		for cut > 0 && !utf8.RuneStart(content[cut]) {
			cut--
		}
		content = content[:cut]
	}

	var user strings.Builder
	if err := analyzeUserTmpl.Execute(&user, struct {
		Subquery, URL, Content string
	}{subquery, pageURL, content}); err != nil {
		return report, fmt.Errorf("building analysis prompt: %w", err)
	}

	tc, err := client.ToolCall(ctx, analyzeSystem, user.String())
	if err != nil {
		return report, fmt.Errorf("analyzing %s: %w", pageURL, err)
	}
	if tc == nil || tc.Name != llm.ToolAnalyzeRelevance {
		return report, nil
	}

	var args relevanceArgs
	if err := json.Unmarshal(tc.Arguments, &args); err != nil {
		return report, nil
	}

	report.RelevanceScore = clamp(args.RelevanceScore)
	report.Summary = args.Summary
	report.RelevantInfo = args.RelevantInfo
	return report, nil
}

const sufficiencySystem = "You are a research assistant judging whether gathered findings answer a research question."

var sufficiencyUserTmpl = template.Must(template.New("sufficiency").Parse(
	`Research question: {{.Subquery}}

Findings gathered so far:
{{.Findings}}

Use the create_final_report function. Set has_sufficient_info to true only
when the findings answer the research question, and list what is missing in
missing_info otherwise. Keep the report field to a one-paragraph draft.`))

// sufficiencyArgs mirrors the create_final_report tool schema.
type sufficiencyArgs struct {
	Report            string   `json:"report"`
	HasSufficientInfo bool     `json:"has_sufficient_info"`
	MissingInfo       []string `json:"missing_info"`
}

// CheckSufficiency asks the model whether the reports gathered for subquery
// answer it. The returned gaps seed the next loop's query generation. When
// the model answers in plain text or with malformed arguments the check is
// conservative and reports insufficient with no gaps.
func CheckSufficiency(ctx context.Context, client llm.Client, subquery string, reports []types.WebsiteReport) (bool, []string, error) {
	if len(reports) == 0 {
		return false, nil, nil
	}

	var user strings.Builder
	if err := sufficiencyUserTmpl.Execute(&user, struct {
		Subquery, Findings string
	}{subquery, formatFindings(reports)}); err != nil {
		return false, nil, fmt.Errorf("building sufficiency prompt: %w", err)
	}

	tc, err := client.ToolCall(ctx, sufficiencySystem, user.String())
	if err != nil {
		return false, nil, fmt.Errorf("checking sufficiency: %w", err)
	}
	if tc == nil || tc.Name != llm.ToolCreateFinalReport {
		return false, nil, nil
	}

	var args sufficiencyArgs
	if err := json.Unmarshal(tc.Arguments, &args); err != nil {
		return false, nil, nil
	}
	return args.HasSufficientInfo, args.MissingInfo, nil
}

// formatFindings renders reports as a compact bulleted digest for prompts.
func formatFindings(reports []types.WebsiteReport) string {
	var b strings.Builder
	for _, r := range reports {
		info := r.RelevantInfo
		if info == "" {
			info = r.Summary
		}
		fmt.Fprintf(&b, "- [%.2f] %s: %s\n", r.RelevanceScore, r.URL, info)
	}
	return b.String()
}

func clamp(score float64) float64 {
	switch {
	case score < 0:
		return 0
	case score > 1:
		return 1
	}
	return score
}
