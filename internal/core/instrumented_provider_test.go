package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type recordedReply struct {
	backend string
	mode    string
	tokens  int
	err     error
}

type fakeRecorder struct {
	calls []recordedReply
}

func (r *fakeRecorder) ObserveReply(backend, mode string, tokens int, elapsed time.Duration, err error) {
	r.calls = append(r.calls, recordedReply{backend: backend, mode: mode, tokens: tokens, err: err})
}

func TestInstrumentProvider(t *testing.T) {
	inner := &mockProvider{}
	failure := errors.New("boom")
	inner.On("GetResponse", mock.Anything, mock.Anything, ModeRAG, "ctx").Return(Reply{Content: "ok", Tokens: 9}, nil).Once()
	inner.On("GetResponse", mock.Anything, mock.Anything, ModeOpenChat, "").Return(Reply{}, failure).Once()

	recorder := &fakeRecorder{}
	p := InstrumentProvider(inner, recorder)
	assert.Equal(t, "mock", p.Name())

	reply, err := p.GetResponse(context.Background(), nil, ModeRAG, "ctx")
	require.NoError(t, err)
	assert.Equal(t, "ok", reply.Content)

	_, err = p.GetResponse(context.Background(), nil, ModeOpenChat, "")
	assert.ErrorIs(t, err, failure)

	require.Len(t, recorder.calls, 2)
	assert.Equal(t, recordedReply{backend: "mock", mode: "rag", tokens: 9}, recorder.calls[0])
	assert.Equal(t, recordedReply{backend: "mock", mode: "open_chat", err: failure}, recorder.calls[1])
	inner.AssertExpectations(t)
}

func TestInstrumentProviderWithoutRecorder(t *testing.T) {
	p := StubProvider{}
	assert.Equal(t, ReplyProvider(p), InstrumentProvider(p, nil))
}
