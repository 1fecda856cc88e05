package analyze

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/jobdeck/jobdeck/internal/careerdb/schema"
	"github.com/jobdeck/jobdeck/internal/profile"
)

// analysisToolName is the tool the model must call to record its verdict.
// Forcing tool use turns "return JSON, please" into a schema the API
// enforces.
const analysisToolName = "record_job_analysis"

// AnthropicAnalyzer implements Analyzer using the Anthropic API.
type AnthropicAnalyzer struct {
	client *anthropic.Client
	model  string
}

// NewAnthropicAnalyzer creates the production analyzer.
func NewAnthropicAnalyzer(apiKey, model string) (*AnthropicAnalyzer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model name is required")
	}
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &AnthropicAnalyzer{client: &client, model: model}, nil
}

// AnalyzeJob implements Analyzer. The response is validated before it is
// returned; a malformed model response is an error, never a partial
// verdict.
func (a *AnthropicAnalyzer) AnalyzeJob(ctx context.Context, job *schema.Job, prof *profile.Profile) (*JobAnalysis, error) {
	resp, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildPrompt(job, prof))),
		},
		Tools: []anthropic.ToolUnionParam{analysisTool()},
		ToolChoice: anthropic.ToolChoiceUnionParam{
			OfTool: &anthropic.ToolChoiceToolParam{Name: analysisToolName},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to analyze job %s: %w", job.ID, err)
	}

	for _, block := range resp.Content {
		toolUse, ok := block.AsAny().(anthropic.ToolUseBlock)
		if !ok || toolUse.Name != analysisToolName {
			continue
		}

		var analysis JobAnalysis
		if err := json.Unmarshal([]byte(toolUse.JSON.Input.Raw()), &analysis); err != nil {
			return nil, fmt.Errorf("failed to decode analysis for %s: %w", job.ID, err)
		}
		if err := analysis.Validate(); err != nil {
			return nil, fmt.Errorf("model returned an invalid analysis for %s: %w", job.ID, err)
		}
		return &analysis, nil
	}

	return nil, fmt.Errorf("model response for %s contained no analysis", job.ID)
}

// analysisTool is the JSON schema for the verdict.
func analysisTool() anthropic.ToolUnionParam {
	return anthropic.ToolUnionParam{
		OfTool: &anthropic.ToolParam{
			Name:        analysisToolName,
			Description: anthropic.String("Record the structured match verdict for the job posting."),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: map[string]interface{}{
					"fit_score": map[string]interface{}{
						"type":        "integer",
						"description": "Overall match score from 0 (no fit) to 100 (ideal fit).",
					},
					"matched_skills": map[string]interface{}{
						"type":  "array",
						"items": map[string]interface{}{"type": "string"},
					},
					"missing_skills": map[string]interface{}{
						"type":  "array",
						"items": map[string]interface{}{"type": "string"},
					},
					"summary": map[string]interface{}{
						"type":        "string",
						"description": "Two or three sentences on the overall match.",
					},
					"recommendation": map[string]interface{}{
						"type":        "string",
						"description": "Whether and how to apply.",
					},
				},
				Required: []string{"fit_score", "summary"},
			},
		},
	}
}
