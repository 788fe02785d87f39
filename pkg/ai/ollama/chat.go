package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"

	"github.com/OFFIS-RIT/grove/pkg/ai"

	"github.com/ollama/ollama/api"
	"github.com/pkoukk/tiktoken-go"
)

func (c *GraphOllamaClient) buildRequest(options ai.GenerateOptions, prompt string) (*api.ChatRequest, error) {
	stream := false
	req := &api.ChatRequest{
		Model:    options.Model,
		Messages: []api.Message{{Role: "user", Content: prompt}},
		Stream:   &stream,
		Options:  map[string]any{"temperature": options.Temperature},
	}

	if options.Thinking != "" {
		req.Think = &api.ThinkValue{Value: options.Thinking}
	}

	if err := c.sizeContextWindow(req, prompt); err != nil {
		return nil, err
	}
	return req, nil
}

// chat issues the request under the concurrency limit, accumulates the
// streamed chunks into one message, and records the server-reported usage.
func (c *GraphOllamaClient) chat(ctx context.Context, req *api.ChatRequest) (api.ChatResponse, error) {
	if err := c.reqLock.Acquire(ctx, 1); err != nil {
		return api.ChatResponse{}, err
	}
	defer c.reqLock.Release(1)

	var final api.ChatResponse
	if err := c.Client.Chat(ctx, req, func(cr api.ChatResponse) error {
		final.Message.Content += cr.Message.Content
		if cr.Done {
			final.Done = true
			final.Metrics = cr.Metrics
		}
		return nil
	}); err != nil {
		return api.ChatResponse{}, err
	}

	c.recordUsage(ai.ModelMetrics{
		InputTokens:  final.Metrics.PromptEvalCount,
		OutputTokens: final.Metrics.EvalCount,
		TotalTokens:  final.Metrics.PromptEvalCount + final.Metrics.EvalCount,
		DurationMs:   final.Metrics.TotalDuration.Milliseconds(),
	})

	return final, nil
}

// GenerateCompletion sends a single-turn prompt and returns assistant text.
func (c *GraphOllamaClient) GenerateCompletion(
	ctx context.Context,
	prompt string,
	opts ...ai.GenerateOption,
) (string, error) {
	options := ai.GenerateOptions{
		Model:       c.chatModel,
		Temperature: 0.3,
	}
	for _, o := range opts {
		o(&options)
	}

	req, err := c.buildRequest(options, prompt)
	if err != nil {
		return "", err
	}

	final, err := c.chat(ctx, req)
	if err != nil {
		return "", err
	}
	return final.Message.Content, nil
}

// GenerateCompletionWithFormat enforces a JSON schema derived from out on the
// response and unmarshals the answer into out.
func (c *GraphOllamaClient) GenerateCompletionWithFormat(
	ctx context.Context,
	name string,
	description string,
	prompt string,
	out any,
	opts ...ai.GenerateOption,
) error {
	if out == nil {
		return errors.New("out must be a non-nil pointer")
	}
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return errors.New("out must be a non-nil pointer")
	}

	format, err := json.Marshal(ai.GenerateSchema(out))
	if err != nil {
		return err
	}

	options := ai.GenerateOptions{
		Model:       c.chatModel,
		Temperature: 0.1,
	}
	for _, o := range opts {
		o(&options)
	}

	req, err := c.buildRequest(options, prompt)
	if err != nil {
		return err
	}
	req.Format = format

	final, err := c.chat(ctx, req)
	if err != nil {
		return err
	}
	return ai.UnmarshalFlexible(final.Message.Content, out)
}

// sizeContextWindow raises num_ctx beyond the ollama default when the prompt
// alone would not fit into it. Prompt length is estimated with the o200k_base
// encoding plus headroom for the response.
func (c *GraphOllamaClient) sizeContextWindow(req *api.ChatRequest, prompt string) error {
	enc, err := tiktoken.GetEncoding("o200k_base")
	if err != nil {
		return err
	}
	tokens := 200 + len(enc.Encode(prompt, nil, nil))
	if tokens > 4096 {
		req.Options["num_ctx"] = tokens
	}
	return nil
}

// LoadModel preloads the model into server memory so the first real request
// does not pay the load latency.
func (c *GraphOllamaClient) LoadModel(ctx context.Context, opts ...ai.GenerateOption) error {
	options := ai.GenerateOptions{
		Model: c.chatModel,
	}
	for _, o := range opts {
		o(&options)
	}

	req := &api.ChatRequest{
		Model: options.Model,
	}
	return c.Client.Chat(ctx, req, func(cr api.ChatResponse) error {
		return nil
	})
}
