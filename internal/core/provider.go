package core

import (
	"context"

	"gwi.com/botgpt/internal/config"
)

const (
	replyTemperature = 0.7
	replyMaxTokens   = 1024

	generalSystemInstruction = "You are a helpful AI assistant."

	ragSystemInstruction = "You are a helpful assistant that answers questions based on the provided context. " +
		"Use the context below to answer the user's question. If the context doesn't contain " +
		"the information needed, say you don't have enough information to answer accurately.\n\n" +
		"Context: "
)

// ReplyProvider produces the assistant's next turn for a conversation.
type ReplyProvider interface {
	// Name returns the backend name the provider was selected by.
	Name() string

	// GetResponse generates a reply to history. retrievalContext is empty
	// when no retrieval was performed.
	GetResponse(ctx context.Context, history []Turn, mode Mode, retrievalContext string) (Reply, error)
}

// NewReplyProvider builds the backend named by cfg.LLMProvider. The choice is
// made once here and never re-checked per call.
func NewReplyProvider(ctx context.Context, cfg config.Config) (ReplyProvider, error) {
	switch config.NormalizeProvider(cfg.LLMProvider) {
	case config.ProviderStub:
		return StubProvider{}, nil
	case config.ProviderHostedChat:
		return NewHostedChatProvider(HostedChatConfig{
			APIKey:  cfg.HostedChatAPIKey,
			BaseURL: cfg.HostedChatBaseURL,
			Model:   cfg.HostedChatModel,
		}), nil
	case config.ProviderAlternateHosted:
		return AlternateHostedProvider{}, nil
	case config.ProviderGemini:
		p, err := NewGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, NewConfigurationError("unsupported provider: %s", cfg.LLMProvider)
	}
}

func systemInstruction(mode Mode, retrievalContext string) string {
	if mode == ModeRAG && retrievalContext != "" {
		return ragSystemInstruction + retrievalContext
	}
	return generalSystemInstruction
}
