package core

import (
	"context"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
	"gwi.com/botgpt/internal/config"
	"gwi.com/botgpt/internal/store"
)

const defaultGeminiModelName = "gemini-1.5-flash"

// GeminiProvider generates replies with the Gemini chat API.
type GeminiProvider struct {
	client    *genai.Client
	modelName string
}

func NewGeminiProvider(ctx context.Context, apiKey, modelName string) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, NewConfigurationError("no API key configured for the %s provider", config.ProviderGemini)
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, NewConfigurationError("failed to create GenAI client: %v", err)
	}
	if modelName == "" {
		modelName = defaultGeminiModelName
	}
	return &GeminiProvider{client: client, modelName: modelName}, nil
}

func (p *GeminiProvider) Name() string { return config.ProviderGemini }

func (p *GeminiProvider) Close() error {
	if p.client == nil {
		return nil
	}
	return p.client.Close()
}

func (p *GeminiProvider) GetResponse(ctx context.Context, history []Turn, mode Mode, retrievalContext string) (Reply, error) {
	if len(history) == 0 {
		return Reply{}, NewValidationError("history is empty for chat completion")
	}
	last := history[len(history)-1]
	if last.Role != store.RoleUser {
		return Reply{}, NewValidationError("last message in history is not from %q", store.RoleUser)
	}

	model := p.client.GenerativeModel(p.modelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemInstruction(mode, retrievalContext))},
	}

	temp := float32(replyTemperature)
	maxTokens := int32(replyMaxTokens)
	model.GenerationConfig = genai.GenerationConfig{
		Temperature:     &temp,
		MaxOutputTokens: &maxTokens,
	}

	session := model.StartChat()
	for _, turn := range history[:len(history)-1] {
		role := "model"
		if turn.Role == store.RoleUser {
			role = "user"
		}
		session.History = append(session.History, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(turn.Content)},
		})
	}

	resp, err := session.SendMessage(ctx, genai.Text(last.Content))
	if err != nil {
		return Reply{}, NewUpstreamError(err, "gemini chat SendMessage failed")
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return Reply{}, NewUpstreamError(nil, "gemini response had no candidates")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}

	tokens := 0
	if resp.UsageMetadata != nil {
		tokens = int(resp.UsageMetadata.TotalTokenCount)
	}
	return Reply{Content: strings.TrimSpace(text.String()), Tokens: tokens}, nil
}
