package core

import (
	"context"

	"gwi.com/botgpt/internal/config"
)

const (
	StubReplyText = "stub response"

	AlternateReplyText   = "This is a simulated response from the alternate hosted provider."
	AlternateReplyTokens = 50
)

// StubProvider answers every request with a fixed text and no token usage.
type StubProvider struct{}

func (StubProvider) Name() string { return config.ProviderStub }

func (StubProvider) GetResponse(context.Context, []Turn, Mode, string) (Reply, error) {
	return Reply{Content: StubReplyText, Tokens: 0}, nil
}

// AlternateHostedProvider is a placeholder for a second hosted backend. It
// makes no network call.
type AlternateHostedProvider struct{}

func (AlternateHostedProvider) Name() string { return config.ProviderAlternateHosted }

func (AlternateHostedProvider) GetResponse(context.Context, []Turn, Mode, string) (Reply, error) {
	return Reply{Content: AlternateReplyText, Tokens: AlternateReplyTokens}, nil
}
