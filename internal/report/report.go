// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report synthesizes the final markdown document from gathered
// findings and writes it to disk. Each section is drafted by the LLM; when
// a completion fails the section falls back to a deterministic rendering of
// the findings so a run never ends without a report.
package report

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/deep-research/internal/llm"
	"github.com/pdiddy/deep-research/pkg/types"
)

const (
	sectionMaxTokens    = 2000
	summaryMaxTokens    = 500
	conclusionMaxTokens = 600

	// sectionTopFindings bounds how many findings feed one section prompt.
	sectionTopFindings = 10
)

const synthesisSystem = "You are a research writer producing precise, well-sourced markdown."

// Synthesize drafts every report section and assembles rep.FinalReport.
// Sections are stored back onto the findings so the archive keeps them.
func Synthesize(ctx context.Context, client llm.Client, rep *types.ResearchReport, w io.Writer) error {
	if rep == nil {
		return fmt.Errorf("report is nil")
	}

	for i := range rep.Findings {
		f := &rep.Findings[i]
		fmt.Fprintf(w, "Writing section: %s\n", f.Subcomponent)
		f.Section = synthesizeSection(ctx, client, f, w)
	}

	fmt.Fprintln(w, "Writing executive summary")
	summary := synthesizeSummary(ctx, client, rep, w)

	fmt.Fprintln(w, "Writing conclusion")
	conclusion := synthesizeConclusion(ctx, client, rep, w)

	if rep.Timestamp.IsZero() {
		rep.Timestamp = time.Now()
	}
	rep.FinalReport = render(rep, summary, conclusion)
	return nil
}

// synthesizeSection drafts the detailed findings section for one
// subcomponent, falling back to a bulleted digest on completion failure.
func synthesizeSection(ctx context.Context, client llm.Client, f *types.SubcomponentFindings, w io.Writer) string {
	if len(f.Reports) == 0 {
		return fmt.Sprintf("No sources cleared the relevance threshold for this subcomponent after %d search loop(s).", f.Loops)
	}

	prompt := fmt.Sprintf(`Write the detailed findings section of a research report for this subcomponent:
%s

Findings (most relevant first):
%s

Write flowing markdown prose, cite facts to their source URLs inline, and do
not add a heading; the report supplies it.`, f.Subcomponent, formatFindings(topFindings(f.Reports)))

	text, err := client.Complete(ctx, synthesisSystem, prompt, sectionMaxTokens)
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			fmt.Fprintf(w, "warning: section synthesis failed: %v, using fallback\n", err)
		}
		return fallbackSection(f)
	}
	return strings.TrimSpace(text)
}

// synthesizeSummary drafts the executive summary over all sections.
func synthesizeSummary(ctx context.Context, client llm.Client, rep *types.ResearchReport, w io.Writer) string {
	prompt := fmt.Sprintf(`Write a concise executive summary for a research report answering:
%s

Section drafts:
%s

Three to five sentences, markdown prose, no heading.`, rep.Query, joinSections(rep))

	text, err := client.Complete(ctx, synthesisSystem, prompt, summaryMaxTokens)
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			fmt.Fprintf(w, "warning: summary synthesis failed: %v, using fallback\n", err)
		}
		return fmt.Sprintf("This report addresses: %s. Research covered %d subcomponent(s) drawing on %d source(s).",
			rep.Query, len(rep.Subcomponents), rep.TotalSources())
	}
	return strings.TrimSpace(text)
}

// synthesizeConclusion drafts the closing section.
func synthesizeConclusion(ctx context.Context, client llm.Client, rep *types.ResearchReport, w io.Writer) string {
	prompt := fmt.Sprintf(`Write the conclusion of a research report answering:
%s

Section drafts:
%s

Summarize the overall answer and note any remaining uncertainty. Markdown
prose, no heading.`, rep.Query, joinSections(rep))

	text, err := client.Complete(ctx, synthesisSystem, prompt, conclusionMaxTokens)
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			fmt.Fprintf(w, "warning: conclusion synthesis failed: %v, using fallback\n", err)
		}
		return fmt.Sprintf("The research gathered %d source(s) across %d subcomponent(s); see the detailed findings above.",
			rep.TotalSources(), len(rep.Subcomponents))
	}
	return strings.TrimSpace(text)
}

// render assembles the final markdown document.
func render(rep *types.ResearchReport, summary, conclusion string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Research Report: %s\n\n", rep.Query)
	fmt.Fprintf(&b, "## Executive Summary\n\n%s\n\n", summary)

	b.WriteString("## Detailed Findings\n\n")
	for _, f := range rep.Findings {
		fmt.Fprintf(&b, "### %s\n\n%s\n\n", f.Subcomponent, f.Section)
	}

	fmt.Fprintf(&b, "## Conclusion\n\n%s\n\n", conclusion)

	b.WriteString("## Sources\n\n")
	if len(rep.Sources) == 0 {
		b.WriteString("No sources cleared the relevance threshold.\n")
	}
	for i, src := range rep.Sources {
		fmt.Fprintf(&b, "%d. %s\n", i+1, src)
	}

	fmt.Fprintf(&b, "\n---\n*Report generated on: %s*\n", rep.Timestamp.Format(time.RFC3339))
	return b.String()
}

// Filename returns the report file name for a run completed at t.
func Filename(t time.Time) string {
	return "research_report_" + t.Format("20060102_150405") + ".md"
}

// Save writes the final report under cfg.ReportDir, creating the directory
// if needed, and returns the file path.
func Save(rep *types.ResearchReport, cfg types.ReportConfig) (string, error) {
	if rep == nil || rep.FinalReport == "" {
		return "", fmt.Errorf("report is empty: synthesize before saving")
	}

	dir := cfg.ReportDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating report directory: %w", err)
	}

	path := filepath.Join(dir, Filename(rep.Timestamp))
	if err := os.WriteFile(path, []byte(rep.FinalReport), 0o644); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}
	return path, nil
}

// topFindings returns the highest-relevance reports, bounded for prompts.
func topFindings(reports []types.WebsiteReport) []types.WebsiteReport {
	sorted := make([]types.WebsiteReport, len(reports))
	copy(sorted, reports)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].RelevanceScore > sorted[j].RelevanceScore
	})
	if len(sorted) > sectionTopFindings {
		sorted = sorted[:sectionTopFindings]
	}
	return sorted
}

// formatFindings renders reports as prompt bullets.
func formatFindings(reports []types.WebsiteReport) string {
	var b strings.Builder
	for _, r := range reports {
		info := r.RelevantInfo
		if info == "" {
			info = r.Summary
		}
		fmt.Fprintf(&b, "- %s (relevance %.2f): %s\n", r.URL, r.RelevanceScore, info)
	}
	return b.String()
}

// fallbackSection renders findings deterministically when synthesis fails.
func fallbackSection(f *types.SubcomponentFindings) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Findings from %d source(s):\n\n", len(f.Reports))
	for _, r := range topFindings(f.Reports) {
		info := r.RelevantInfo
		if info == "" {
			info = r.Summary
		}
		fmt.Fprintf(&b, "- %s ([source](%s))\n", info, r.URL)
	}
	return strings.TrimSpace(b.String())
}

// joinSections concatenates the drafted sections for summary prompts.
func joinSections(rep *types.ResearchReport) string {
	var b strings.Builder
	for _, f := range rep.Findings {
		fmt.Fprintf(&b, "### %s\n%s\n\n", f.Subcomponent, f.Section)
	}
	return b.String()
}
