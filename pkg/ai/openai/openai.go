package openai

import (
	"sync"

	"github.com/OFFIS-RIT/grove/pkg/ai"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// GraphOpenAIClient implements ai.GraphAIClient against an OpenAI-compatible
// chat completion endpoint.
//
// A GraphOpenAIClient should be created using NewGraphOpenAIClient.
type GraphOpenAIClient struct {
	chatModel string
	chatURL   string

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	ChatClient *openai.Client
}

// NewGraphOpenAIClientParams defines the configuration parameters for
// creating a new GraphOpenAIClient.
//
// ChatModel is the default model used when a request sets none.
// ChatURL and ChatKey configure the chat/completion API endpoint; an empty
// ChatURL falls back to the official OpenAI endpoint.
type NewGraphOpenAIClientParams struct {
	ChatModel string

	ChatURL string
	ChatKey string
}

// NewGraphOpenAIClient creates and returns a new GraphOpenAIClient configured
// with the provided parameters.
//
// Example:
//
//	params := openai.NewGraphOpenAIClientParams{
//		ChatModel: "gpt-4o-mini",
//		ChatURL:   "https://api.openai.com/v1",
//		ChatKey:   os.Getenv("OPENAI_API_KEY"),
//	}
//	client := openai.NewGraphOpenAIClient(params)
func NewGraphOpenAIClient(params NewGraphOpenAIClientParams) *GraphOpenAIClient {
	return &GraphOpenAIClient{
		chatModel:  params.ChatModel,
		chatURL:    params.ChatURL,
		ChatClient: newChatClient(params.ChatURL, params.ChatKey),
	}
}

func newChatClient(baseURL, apiKey string) *openai.Client {
	if apiKey == "" {
		return nil
	}

	options := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}

	client := openai.NewClient(options...)
	return &client
}
