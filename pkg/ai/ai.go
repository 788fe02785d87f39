package ai

import "context"

// GenerateOptions collects the per-request knobs a backend honors. Backends
// fill in their own defaults before applying the caller's options.
type GenerateOptions struct {
	Model         string   // overrides the client's configured chat model
	SystemPrompts []string // prepended to the request in order
	Temperature   float64  // sampling temperature
	Thinking      string   // reasoning effort / thinking budget, backend-specific
}

// ModelMetrics accumulates token and latency counters across the calls made
// since the last reset. DurationMs sums model-reported time; WallClockMs sums
// observed time including queueing.
type ModelMetrics struct {
	InputTokens    int     `json:"input_tokens"`
	OutputTokens   int     `json:"output_tokens"`
	TotalTokens    int     `json:"total_tokens"`
	DurationMs     int64   `json:"duration_ms"`
	WallClockMs    int64   `json:"wall_clock_ms"`
	TokenPerSecond float32 `json:"tokens_per_second"`
}

// GenerateOption mutates GenerateOptions before a request is sent.
type GenerateOption func(*GenerateOptions)

// WithModel overrides the model for one request.
func WithModel(model string) GenerateOption {
	return func(o *GenerateOptions) {
		o.Model = model
	}
}

// WithSystemPrompts sets the system prompts for one request.
func WithSystemPrompts(prompts ...string) GenerateOption {
	return func(o *GenerateOptions) {
		o.SystemPrompts = prompts
	}
}

// WithTemperature sets the sampling temperature for one request.
func WithTemperature(temp float64) GenerateOption {
	return func(o *GenerateOptions) {
		o.Temperature = temp
	}
}

// WithThinking enables extended reasoning for one request. The value names
// the effort level or budget, interpreted by the backend.
func WithThinking(thinking string) GenerateOption {
	return func(o *GenerateOptions) {
		o.Thinking = thinking
	}
}

// GraphAIClient is the model surface report generation runs against: plain
// completions, schema-constrained completions parsed into a struct, and
// usage metrics. Backends are chosen once at startup.
type GraphAIClient interface {
	GenerateCompletion(
		ctx context.Context,
		prompt string,
		opts ...GenerateOption,
	) (string, error)
	GenerateCompletionWithFormat(
		ctx context.Context,
		name string,
		description string,
		prompt string,
		out any,
		opts ...GenerateOption,
	) error

	LoadModel(ctx context.Context, opts ...GenerateOption) error
	ResetMetrics()
	GetMetrics() ModelMetrics
}
