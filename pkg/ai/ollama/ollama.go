package ollama

import (
	"net/http"
	"net/url"
	"sync"

	"github.com/OFFIS-RIT/grove/pkg/ai"

	"github.com/ollama/ollama/api"
	"golang.org/x/sync/semaphore"
)

// GraphOllamaClient implements the ai.GraphAIClient interface using Ollama
// as the backend, for locally-hosted models. Concurrent requests are bounded
// by a weighted semaphore so a small local server is not overrun.
type GraphOllamaClient struct {
	chatModel string

	reqLock *semaphore.Weighted

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	Client *api.Client
}

// NewGraphOllamaClientParams contains configuration options for creating a new GraphOllamaClient.
type NewGraphOllamaClientParams struct {
	ChatModel string

	BaseURL string
	ApiKey  string

	MaxConcurrentRequests int64
}

// headerTransport injects static headers into every outgoing request, which
// the Ollama API client offers no hook for itself.
type headerTransport struct {
	headers map[string]string
	rt      http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	for k, v := range t.headers {
		if r.Header.Get(k) == "" {
			r.Header.Set(k, v)
		}
	}
	return t.rt.RoundTrip(r)
}

// NewGraphOllamaClient connects to the Ollama server at BaseURL (or the
// client default when empty) and generates with the configured chat model.
func NewGraphOllamaClient(params NewGraphOllamaClientParams) (*GraphOllamaClient, error) {
	var baseURL *url.URL
	if params.BaseURL != "" {
		u, err := url.Parse(params.BaseURL)
		if err != nil {
			return nil, err
		}
		baseURL = u
	}

	httpClient := &http.Client{
		Transport: &headerTransport{
			headers: map[string]string{"Authorization": "Bearer " + params.ApiKey},
			rt:      http.DefaultTransport,
		},
	}

	maxConcurrent := params.MaxConcurrentRequests
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}

	return &GraphOllamaClient{
		chatModel: params.ChatModel,
		reqLock:   semaphore.NewWeighted(maxConcurrent),
		Client:    api.NewClient(baseURL, httpClient),
	}, nil
}
