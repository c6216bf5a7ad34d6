package core

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gwi.com/botgpt/internal/config"
	"gwi.com/botgpt/internal/store"
)

func TestStubProviderIgnoresHistory(t *testing.T) {
	histories := [][]Turn{
		nil,
		{{Role: store.RoleUser, Content: "hi"}},
		{
			{Role: store.RoleUser, Content: "Tell me about Python code"},
			{Role: store.RoleAssistant, Content: "sure"},
			{Role: store.RoleUser, Content: "more"},
		},
	}
	for _, history := range histories {
		for _, mode := range []Mode{ModeOpenChat, ModeRAG} {
			reply, err := StubProvider{}.GetResponse(context.Background(), history, mode, ProgrammingContext)
			require.NoError(t, err)
			assert.Equal(t, "stub response", reply.Content)
			assert.Zero(t, reply.Tokens)
		}
	}
}

func TestAlternateHostedProvider(t *testing.T) {
	p := AlternateHostedProvider{}
	reply, err := p.GetResponse(context.Background(), []Turn{{Role: store.RoleUser, Content: "hi"}}, ModeOpenChat, "")
	require.NoError(t, err)
	assert.Equal(t, AlternateReplyText, reply.Content)
	assert.Equal(t, 50, reply.Tokens)
	assert.Equal(t, config.ProviderAlternateHosted, p.Name())
}

func TestNewReplyProvider(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		provider string
		want     string
	}{
		{"stub", config.ProviderStub},
		{"", config.ProviderStub},
		{"hosted-chat", config.ProviderHostedChat},
		{"groq", config.ProviderHostedChat},
		{"alternate-hosted", config.ProviderAlternateHosted},
		{"huggingface", config.ProviderAlternateHosted},
	}
	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			p, err := NewReplyProvider(ctx, config.Config{LLMProvider: tt.provider, HostedChatAPIKey: "key"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Name())
		})
	}

	t.Run("unsupported", func(t *testing.T) {
		_, err := NewReplyProvider(ctx, config.Config{LLMProvider: "carrier-pigeon"})
		require.Error(t, err)
		assert.Equal(t, KindConfiguration, KindOf(err))
		assert.Contains(t, err.Error(), "unsupported provider")
	})

	t.Run("gemini without key", func(t *testing.T) {
		p, err := NewReplyProvider(ctx, config.Config{LLMProvider: config.ProviderGemini})
		require.Error(t, err)
		assert.Nil(t, p)
		assert.Equal(t, KindConfiguration, KindOf(err))
	})
}

func TestSystemInstruction(t *testing.T) {
	assert.Equal(t, generalSystemInstruction, systemInstruction(ModeOpenChat, ""))
	assert.Equal(t, generalSystemInstruction, systemInstruction(ModeOpenChat, DatabaseContext))
	assert.Equal(t, generalSystemInstruction, systemInstruction(ModeRAG, ""))

	rag := systemInstruction(ModeRAG, DatabaseContext)
	assert.Contains(t, rag, DatabaseContext)
	assert.Contains(t, rag, "don't have enough information")
}

func newChatCompletionServer(t *testing.T, handler func(t *testing.T, req openai.ChatCompletionRequest) (int, any)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req openai.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		status, body := handler(t, req)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHostedChatProviderRequestShape(t *testing.T) {
	srv := newChatCompletionServer(t, func(t *testing.T, req openai.ChatCompletionRequest) (int, any) {
		assert.Equal(t, "llama-test", req.Model)
		assert.InDelta(t, 0.7, req.Temperature, 1e-6)
		assert.Equal(t, 1024, req.MaxTokens)

		require.Len(t, req.Messages, 4)
		assert.Equal(t, openai.ChatMessageRoleSystem, req.Messages[0].Role)
		assert.Contains(t, req.Messages[0].Content, MachineLearningContext)
		assert.Equal(t, openai.ChatMessageRoleUser, req.Messages[1].Role)
		assert.Equal(t, openai.ChatMessageRoleAssistant, req.Messages[2].Role)
		assert.Equal(t, openai.ChatMessageRoleUser, req.Messages[3].Role)
		assert.Equal(t, "and models?", req.Messages[3].Content)

		return http.StatusOK, openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{{
				Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: "  Models learn.\n"},
			}},
			Usage: openai.Usage{PromptTokens: 30, CompletionTokens: 12, TotalTokens: 42},
		}
	})

	p := NewHostedChatProvider(HostedChatConfig{APIKey: "test-key", BaseURL: srv.URL + "/v1/", Model: "llama-test"})
	history := []Turn{
		{Role: store.RoleUser, Content: "what is ml"},
		{Role: store.RoleAssistant, Content: "a field"},
		{Role: store.RoleUser, Content: "and models?"},
	}
	reply, err := p.GetResponse(context.Background(), history, ModeRAG, MachineLearningContext)
	require.NoError(t, err)
	assert.Equal(t, "Models learn.", reply.Content)
	assert.Equal(t, 42, reply.Tokens)
}

func TestHostedChatProviderOpenChatPrompt(t *testing.T) {
	srv := newChatCompletionServer(t, func(t *testing.T, req openai.ChatCompletionRequest) (int, any) {
		assert.Equal(t, defaultHostedChatModel, req.Model)
		require.NotEmpty(t, req.Messages)
		assert.Equal(t, generalSystemInstruction, req.Messages[0].Content)
		return http.StatusOK, openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: "hello"}}},
		}
	})

	p := NewHostedChatProvider(HostedChatConfig{APIKey: "test-key", BaseURL: srv.URL + "/v1"})
	reply, err := p.GetResponse(context.Background(), []Turn{{Role: store.RoleUser, Content: "hi"}}, ModeOpenChat, "")
	require.NoError(t, err)
	assert.Equal(t, "hello", reply.Content)
	assert.Zero(t, reply.Tokens)
}

func TestHostedChatProviderErrors(t *testing.T) {
	history := []Turn{{Role: store.RoleUser, Content: "hi"}}

	t.Run("non-2xx status", func(t *testing.T) {
		srv := newChatCompletionServer(t, func(t *testing.T, _ openai.ChatCompletionRequest) (int, any) {
			return http.StatusServiceUnavailable, map[string]any{
				"error": map[string]any{"message": "overloaded", "type": "server_error"},
			}
		})
		p := NewHostedChatProvider(HostedChatConfig{APIKey: "test-key", BaseURL: srv.URL + "/v1"})

		_, err := p.GetResponse(context.Background(), history, ModeOpenChat, "")
		require.Error(t, err)
		assert.Equal(t, KindUpstream, KindOf(err))
		assert.Contains(t, err.Error(), "503")
		assert.Contains(t, err.Error(), "overloaded")
	})

	t.Run("no choices", func(t *testing.T) {
		srv := newChatCompletionServer(t, func(t *testing.T, _ openai.ChatCompletionRequest) (int, any) {
			return http.StatusOK, openai.ChatCompletionResponse{}
		})
		p := NewHostedChatProvider(HostedChatConfig{APIKey: "test-key", BaseURL: srv.URL + "/v1"})

		_, err := p.GetResponse(context.Background(), history, ModeOpenChat, "")
		require.Error(t, err)
		assert.Equal(t, KindUpstream, KindOf(err))
		assert.Contains(t, err.Error(), "no choices")
	})

	t.Run("missing key", func(t *testing.T) {
		p := NewHostedChatProvider(HostedChatConfig{BaseURL: "http://127.0.0.1:1/v1"})

		_, err := p.GetResponse(context.Background(), history, ModeOpenChat, "")
		require.Error(t, err)
		assert.Equal(t, KindConfiguration, KindOf(err))
	})
}

func TestGeminiProviderRejectsBadHistory(t *testing.T) {
	p := &GeminiProvider{modelName: defaultGeminiModelName}

	_, err := p.GetResponse(context.Background(), nil, ModeOpenChat, "")
	assert.True(t, IsValidation(err))

	_, err = p.GetResponse(context.Background(), []Turn{{Role: store.RoleAssistant, Content: "hi"}}, ModeOpenChat, "")
	assert.True(t, IsValidation(err))

	assert.NoError(t, p.Close())
	assert.Equal(t, config.ProviderGemini, p.Name())
}
