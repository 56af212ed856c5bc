// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyze

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/pdiddy/deep-research/internal/llm"
	"github.com/pdiddy/deep-research/pkg/types"
)

type mockClient struct {
	tc       *llm.ToolCall
	err      error
	lastUser string
}

func (m *mockClient) ToolCall(_ context.Context, _, user string) (*llm.ToolCall, error) {
	m.lastUser = user
	return m.tc, m.err
}

func (m *mockClient) Complete(_ context.Context, _, _ string, _ int) (string, error) {
	return "", errors.New("not used")
}

func call(name string, args any) *llm.ToolCall {
	raw, err := json.Marshal(args)
	if err != nil {
		panic(err)
	}
	return &llm.ToolCall{Name: name, Arguments: raw}
}

func TestAnalyzeParsesScore(t *testing.T) {
	client := &mockClient{tc: call(llm.ToolAnalyzeRelevance, map[string]any{
		"relevance_score": 0.85,
		"summary":         "Box office figures for opening weekend.",
		"relevant_info":   "Grossed $43M domestically.",
	})}

	report, err := Analyze(context.Background(), client, "https://example.com/a", "page text", "box office performance")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if report.RelevanceScore != 0.85 {
		t.Errorf("RelevanceScore = %v, want 0.85", report.RelevanceScore)
	}
	if report.Summary == "" || report.RelevantInfo == "" {
		t.Errorf("summary/relevant info missing: %+v", report)
	}
	if report.URL != "https://example.com/a" {
		t.Errorf("URL = %q", report.URL)
	}
	if !strings.Contains(client.lastUser, "box office performance") {
		t.Error("subquery should appear in the prompt")
	}
}

func TestAnalyzeClampsScore(t *testing.T) {
	client := &mockClient{tc: call(llm.ToolAnalyzeRelevance, map[string]any{
		"relevance_score": 1.7,
		"summary":         "s",
		"relevant_info":   "i",
	})}

	report, err := Analyze(context.Background(), client, "u", "c", "q")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if report.RelevanceScore != 1.0 {
		t.Errorf("RelevanceScore = %v, want clamped to 1.0", report.RelevanceScore)
	}
}

func TestAnalyzeZeroScoreOnPlainText(t *testing.T) {
	client := &mockClient{tc: nil}

	report, err := Analyze(context.Background(), client, "https://example.com/a", "text", "query")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if report.RelevanceScore != 0 {
		t.Errorf("RelevanceScore = %v, want 0", report.RelevanceScore)
	}
}

func TestAnalyzeZeroScoreOnWrongTool(t *testing.T) {
	client := &mockClient{tc: call(llm.ToolDecomposeQuery, map[string]any{"subcomponents": []string{"x"}})}

	report, err := Analyze(context.Background(), client, "u", "c", "q")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if report.RelevanceScore != 0 {
		t.Errorf("RelevanceScore = %v, want 0", report.RelevanceScore)
	}
}

func TestAnalyzeZeroScoreOnMalformedArguments(t *testing.T) {
	client := &mockClient{tc: &llm.ToolCall{Name: llm.ToolAnalyzeRelevance, Arguments: json.RawMessage(`{"relevance`)}}

	report, err := Analyze(context.Background(), client, "u", "c", "q")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if report.RelevanceScore != 0 {
		t.Errorf("RelevanceScore = %v, want 0", report.RelevanceScore)
	}
}

func TestAnalyzeClientError(t *testing.T) {
	client := &mockClient{err: errors.New("rate limited")}

	_, err := Analyze(context.Background(), client, "u", "c", "q")
	if err == nil || !strings.Contains(err.Error(), "rate limited") {
		t.Fatalf("expected wrapped client error, got %v", err)
	}
}

func TestAnalyzeTruncatesPromptContent(t *testing.T) {
	client := &mockClient{tc: call(llm.ToolAnalyzeRelevance, map[string]any{
		"relevance_score": 0.5, "summary": "s", "relevant_info": "i",
	})}

	long := strings.Repeat("x", maxPromptContent+500)
	report, err := Analyze(context.Background(), client, "u", long, "q")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(client.lastUser) > maxPromptContent+1000 {
		t.Errorf("prompt not truncated, len = %d", len(client.lastUser))
	}
	if len(report.Content) != len(long) {
		t.Error("report should keep the full content")
	}
}

func TestAnalyzePromptStaysValidUTF8(t *testing.T) {
	client := &mockClient{tc: call(llm.ToolAnalyzeRelevance, map[string]any{
		"relevance_score": 0.5, "summary": "s", "relevant_info": "i",
	})}

	// Two-byte runes guarantee the byte cap lands mid-rune for odd offsets.
	long := strings.Repeat("é", maxPromptContent)
	_, err := Analyze(context.Background(), client, "u", long, "q")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !utf8.ValidString(client.lastUser) {
		t.Error("prompt contains invalid UTF-8 after truncation")
	}
}

func someReports() []types.WebsiteReport {
	return []types.WebsiteReport{
		{URL: "https://example.com/a", RelevanceScore: 0.9, RelevantInfo: "Opening weekend gross."},
		{URL: "https://example.com/b", RelevanceScore: 0.4, Summary: "Review roundup."},
	}
}

func TestCheckSufficiencySufficient(t *testing.T) {
	client := &mockClient{tc: call(llm.ToolCreateFinalReport, map[string]any{
		"report":              "draft",
		"has_sufficient_info": true,
	})}

	sufficient, gaps, err := CheckSufficiency(context.Background(), client, "query", someReports())
	if err != nil {
		t.Fatalf("CheckSufficiency: %v", err)
	}
	if !sufficient {
		t.Error("sufficient = false, want true")
	}
	if len(gaps) != 0 {
		t.Errorf("gaps = %v, want none", gaps)
	}
	if !strings.Contains(client.lastUser, "https://example.com/a") {
		t.Error("findings should appear in the prompt")
	}
}

func TestCheckSufficiencyReturnsGaps(t *testing.T) {
	client := &mockClient{tc: call(llm.ToolCreateFinalReport, map[string]any{
		"report":              "draft",
		"has_sufficient_info": false,
		"missing_info":        []string{"international gross", "week 2 numbers"},
	})}

	sufficient, gaps, err := CheckSufficiency(context.Background(), client, "query", someReports())
	if err != nil {
		t.Fatalf("CheckSufficiency: %v", err)
	}
	if sufficient {
		t.Error("sufficient = true, want false")
	}
	if len(gaps) != 2 {
		t.Errorf("gaps = %v, want 2 entries", gaps)
	}
}

func TestCheckSufficiencyNoReports(t *testing.T) {
	client := &mockClient{err: errors.New("should not be called")}

	sufficient, gaps, err := CheckSufficiency(context.Background(), client, "query", nil)
	if err != nil {
		t.Fatalf("CheckSufficiency: %v", err)
	}
	if sufficient || gaps != nil {
		t.Errorf("empty reports should be insufficient with no gaps, got %v %v", sufficient, gaps)
	}
}

func TestCheckSufficiencyPlainTextIsInsufficient(t *testing.T) {
	client := &mockClient{tc: nil}

	sufficient, _, err := CheckSufficiency(context.Background(), client, "query", someReports())
	if err != nil {
		t.Fatalf("CheckSufficiency: %v", err)
	}
	if sufficient {
		t.Error("plain-text answer should be treated as insufficient")
	}
}
