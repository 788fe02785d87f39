package report

import (
	"context"
	"fmt"

	"github.com/OFFIS-RIT/grove/pkg/ai"
)

// ReportFinding is a single structured insight returned by the report model.
type ReportFinding struct {
	Summary     string `json:"summary" jsonschema_description:"A short summary of the insight"`
	Explanation string `json:"explanation" jsonschema_description:"Multiple paragraphs of explanatory text grounded in the provided community data"`
}

// ReportOutput is the structured response of one community report call.
type ReportOutput struct {
	Title             string          `json:"title" jsonschema_description:"Short but specific community name including representative named entities"`
	Summary           string          `json:"summary" jsonschema_description:"Executive summary of the community's structure and significant information"`
	Rating            float64         `json:"rating" jsonschema_description:"Float score between 0 and 10 for the severity of the impact posed by entities within the community"`
	RatingExplanation string          `json:"rating_explanation" jsonschema_description:"Single sentence explaining the impact severity rating"`
	Findings          []ReportFinding `json:"findings" jsonschema_description:"List of 5-10 key insights about the community"`
}

// Summarizer produces a community report from an assembled context string.
// maxReportLength is the word budget handed to the model. Implementations
// return an error when no usable report could be produced; the caller
// decides whether to retry or record the community as a gap.
type Summarizer interface {
	Summarize(ctx context.Context, contextString string, maxReportLength int) (*ReportOutput, error)
}

// AISummarizer generates community reports through a GraphAIClient using
// structured output.
type AISummarizer struct {
	client ai.GraphAIClient
	model  string
}

// NewAISummarizerParams carries the configuration for NewAISummarizer.
// Model is optional; when empty the client's configured chat model is used.
type NewAISummarizerParams struct {
	Client ai.GraphAIClient
	Model  string
}

// NewAISummarizer creates a new AISummarizer with the provided parameters.
func NewAISummarizer(params NewAISummarizerParams) *AISummarizer {
	return &AISummarizer{
		client: params.Client,
		model:  params.Model,
	}
}

// Summarize writes a structured report about the community described by
// contextString.
func (s *AISummarizer) Summarize(ctx context.Context, contextString string, maxReportLength int) (*ReportOutput, error) {
	systemPrompt := fmt.Sprintf(ReportPrompt, maxReportLength)
	opts := []ai.GenerateOption{
		ai.WithSystemPrompts(systemPrompt),
	}
	if s.model != "" {
		opts = append(opts, ai.WithModel(s.model))
	}

	var res ReportOutput
	err := s.client.GenerateCompletionWithFormat(
		ctx,
		"community_report",
		"Write a structured report about one community of a knowledge graph.",
		contextString,
		&res,
		opts...,
	)
	if err != nil {
		return nil, err
	}
	return &res, nil
}
