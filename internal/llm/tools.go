// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
)

// Tool names used across the pipeline. Each stage asks for exactly one of
// these and treats any other tool call as a refusal.
const (
	ToolDecomposeQuery        = "decompose_query"
	ToolGenerateSearchQueries = "generate_search_queries"
	ToolAnalyzeRelevance      = "analyze_website_relevance"
	ToolCreateFinalReport     = "create_final_report"
)

// operatorGuide enumerates the search-engine operators the model may combine
// when generating queries.
const operatorGuide = `List of search queries using search-engine operators:
- site: (search within specific site)
- intitle: (words in title)
- inurl: (words in URL)
- intext: (words in page content)
- filetype: (specific file types like pdf, doc)
- "exact phrase" (exact match)
- -word (exclude word)
- word1 OR word2 (either term)
- word1 AND word2 (both terms)
- AROUND(X) (words within X words of each other)
- before:YYYY-MM-DD (before date)
- after:YYYY-MM-DD (after date)
- @socialmedia (search social media)
- #hashtag (search hashtags)
- number..number (number range)
Combine operators intelligently based on research needs.`

// researchTools defines the function-calling toolset offered on every tool
// request. The model picks the applicable tool; callers check the name.
var researchTools = []openai.Tool{
	{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        ToolDecomposeQuery,
			Description: "Break down complex queries into subcomponents",
			Parameters: jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"subcomponents": {
						Type:        jsonschema.Array,
						Items:       &jsonschema.Definition{Type: jsonschema.String},
						Description: "List of query subcomponents",
					},
				},
				Required: []string{"subcomponents"},
			},
		},
	},
	{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        ToolGenerateSearchQueries,
			Description: "Generate search queries using various operators for comprehensive research",
			Parameters: jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"queries": {
						Type:        jsonschema.Array,
						Items:       &jsonschema.Definition{Type: jsonschema.String},
						Description: operatorGuide,
					},
					"operator_rationale": {
						Type:        jsonschema.Object,
						Description: "Explanation for why specific operators were chosen",
						Properties: map[string]jsonschema.Definition{
							"site_operators":    {Type: jsonschema.String},
							"time_operators":    {Type: jsonschema.String},
							"content_operators": {Type: jsonschema.String},
							"file_operators":    {Type: jsonschema.String},
						},
					},
					"knowledge_gaps": {
						Type:        jsonschema.Array,
						Items:       &jsonschema.Definition{Type: jsonschema.String},
						Description: "Identified knowledge gaps that need more research",
					},
				},
				Required: []string{"queries"},
			},
		},
	},
	{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        ToolAnalyzeRelevance,
			Description: "Analyze if website content is relevant to the research query",
			Parameters: jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"relevance_score": {
						Type:        jsonschema.Number,
						Description: "Relevance score from 0 to 1",
					},
					"summary": {
						Type:        jsonschema.String,
						Description: "Brief summary of the website content",
					},
					"relevant_info": {
						Type:        jsonschema.String,
						Description: "Extracted relevant information",
					},
				},
				Required: []string{"relevance_score", "summary", "relevant_info"},
			},
		},
	},
	{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        ToolCreateFinalReport,
			Description: "Create the final research report",
			Parameters: jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"report": {
						Type:        jsonschema.String,
						Description: "Final markdown formatted report",
					},
					"has_sufficient_info": {
						Type:        jsonschema.Boolean,
						Description: "Whether enough information was gathered",
					},
					"missing_info": {
						Type:        jsonschema.Array,
						Items:       &jsonschema.Definition{Type: jsonschema.String},
						Description: "List of missing information if any",
					},
				},
				Required: []string{"report", "has_sufficient_info"},
			},
		},
	},
}
