package llm

import (
	"context"
	"fmt"
	"sync"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// OpenAIClient implements Client for OpenAI chat completions via langchaingo.
// One langchaingo model is created per model name on first use. The client is
// safe for concurrent use.
type OpenAIClient struct {
	apiKey string
	config *Config

	mu     sync.Mutex
	models map[string]llms.Model
}

// NewOpenAIClient creates a new OpenAI client
func NewOpenAIClient(config *Config, apiKey string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	return &OpenAIClient{
		apiKey: apiKey,
		config: config,
		models: make(map[string]llms.Model),
	}, nil
}

func (c *OpenAIClient) model(tier ModelTier) (llms.Model, error) {
	name := c.config.GetModel(tier)
	if name == "" {
		return nil, fmt.Errorf("no model configured for tier %s", tier)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if m, ok := c.models[name]; ok {
		return m, nil
	}
	m, err := openai.New(openai.WithToken(c.apiKey), openai.WithModel(name))
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
	}
	c.models[name] = m
	return m, nil
}

func (c *OpenAIClient) generate(ctx context.Context, tier ModelTier, messages []llms.MessageContent, jsonMode bool) (string, error) {
	model, err := c.model(tier)
	if err != nil {
		return "", err
	}

	opts := []llms.CallOption{llms.WithTemperature(c.config.Temperature)}
	if jsonMode {
		opts = append(opts, llms.WithJSONMode())
	}

	resp, err := model.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	return resp.Choices[0].Content, nil
}

// Chat implements Client.
func (c *OpenAIClient) Chat(ctx context.Context, system, user string, tier ModelTier) (string, error) {
	messages := make([]llms.MessageContent, 0, 2)
	if system != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, system))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, user))
	return c.generate(ctx, tier, messages, true)
}

// GetModel implements Client.
func (c *OpenAIClient) GetModel(tier ModelTier) string {
	return c.config.GetModel(tier)
}

// Close implements Client. The HTTP transport needs no teardown.
func (c *OpenAIClient) Close() error {
	return nil
}
