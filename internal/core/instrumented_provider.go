package core

import (
	"context"
	"time"
)

// ReplyRecorder receives one observation per provider call.
type ReplyRecorder interface {
	ObserveReply(backend, mode string, tokens int, elapsed time.Duration, err error)
}

type instrumentedProvider struct {
	ReplyProvider
	recorder ReplyRecorder
}

// InstrumentProvider reports every GetResponse call on p to recorder.
func InstrumentProvider(p ReplyProvider, recorder ReplyRecorder) ReplyProvider {
	if recorder == nil {
		return p
	}
	return &instrumentedProvider{ReplyProvider: p, recorder: recorder}
}

func (p *instrumentedProvider) GetResponse(ctx context.Context, history []Turn, mode Mode, retrievalContext string) (Reply, error) {
	start := time.Now()
	reply, err := p.ReplyProvider.GetResponse(ctx, history, mode, retrievalContext)
	p.recorder.ObserveReply(p.Name(), string(mode), reply.Tokens, time.Since(start), err)
	return reply, err
}
