package core

import (
	"context"
	"errors"
	"strings"

	"github.com/sashabaranov/go-openai"
	"gwi.com/botgpt/internal/config"
	"gwi.com/botgpt/internal/store"
)

const (
	defaultHostedChatBaseURL = "https://api.groq.com/openai/v1"
	defaultHostedChatModel   = "llama-3.1-8b-instant"
)

type HostedChatConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// HostedChatProvider calls an OpenAI-compatible chat completion endpoint.
type HostedChatProvider struct {
	client *openai.Client
	apiKey string
	model  string
}

func NewHostedChatProvider(cfg HostedChatConfig) *HostedChatProvider {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = defaultHostedChatBaseURL
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}

	model := cfg.Model
	if model == "" {
		model = defaultHostedChatModel
	}

	return &HostedChatProvider{
		client: openai.NewClientWithConfig(clientConfig),
		apiKey: cfg.APIKey,
		model:  model,
	}
}

func (p *HostedChatProvider) Name() string { return config.ProviderHostedChat }

func (p *HostedChatProvider) GetResponse(ctx context.Context, history []Turn, mode Mode, retrievalContext string) (Reply, error) {
	if p.apiKey == "" {
		return Reply{}, NewConfigurationError("no API key configured for the %s provider", p.Name())
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemInstruction(mode, retrievalContext),
	})
	for _, turn := range history {
		role := openai.ChatMessageRoleAssistant
		if turn.Role == store.RoleUser {
			role = openai.ChatMessageRoleUser
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: turn.Content})
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    messages,
		Temperature: replyTemperature,
		MaxTokens:   replyMaxTokens,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return Reply{}, NewUpstreamError(err, "chat completion API error %d", apiErr.HTTPStatusCode)
		}
		var reqErr *openai.RequestError
		if errors.As(err, &reqErr) {
			return Reply{}, NewUpstreamError(err, "chat completion API error %d", reqErr.HTTPStatusCode)
		}
		return Reply{}, NewUpstreamError(err, "error calling chat completion API")
	}

	if len(resp.Choices) == 0 {
		return Reply{}, NewUpstreamError(nil, "unexpected response format from chat completion API: no choices")
	}

	return Reply{
		Content: strings.TrimSpace(resp.Choices[0].Message.Content),
		Tokens:  resp.Usage.TotalTokens,
	}, nil
}
