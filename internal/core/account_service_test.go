package core

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountServiceUsers(t *testing.T) {
	svc := NewAccountService(newTestStore(t), zerolog.Nop())
	ctx := context.Background()

	email := "alice@example.com"
	user, err := svc.CreateUser(ctx, "alice", &email)
	require.NoError(t, err)
	assert.NotZero(t, user.ID)

	got, err := svc.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	require.NotNil(t, got.Email)
	assert.Equal(t, email, *got.Email)

	_, err = svc.CreateUser(ctx, "alice", nil)
	assert.Equal(t, KindConflict, KindOf(err))

	_, err = svc.CreateUser(ctx, "alice2", &email)
	assert.Equal(t, KindConflict, KindOf(err))

	_, err = svc.CreateUser(ctx, "  ", nil)
	assert.True(t, IsValidation(err))

	_, err = svc.GetUser(ctx, user.ID+1000)
	assert.True(t, IsNotFound(err))
}

func TestAccountServiceBlankEmailIsNull(t *testing.T) {
	svc := NewAccountService(newTestStore(t), zerolog.Nop())
	ctx := context.Background()

	blank := ""
	first, err := svc.CreateUser(ctx, "bob", &blank)
	require.NoError(t, err)
	assert.Nil(t, first.Email)

	_, err = svc.CreateUser(ctx, "carol", &blank)
	require.NoError(t, err)
}

func TestAccountServiceDocuments(t *testing.T) {
	svc := NewAccountService(newTestStore(t), zerolog.Nop())
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, "alice", nil)
	require.NoError(t, err)

	_, err = svc.CreateDocument(ctx, user.ID+1000, "orphan", nil)
	assert.True(t, IsNotFound(err))

	_, err = svc.CreateDocument(ctx, user.ID, "", nil)
	assert.True(t, IsValidation(err))

	uri := "https://example.com/handbook.pdf"
	first, err := svc.CreateDocument(ctx, user.ID, "handbook", &uri)
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	second, err := svc.CreateDocument(ctx, user.ID, "notes", nil)
	require.NoError(t, err)

	docs, err := svc.ListDocumentsForUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, second.ID, docs[0].ID)
	assert.Equal(t, first.ID, docs[1].ID)
	require.NotNil(t, docs[1].URI)
	assert.Equal(t, uri, *docs[1].URI)

	none, err := svc.ListDocumentsForUser(ctx, user.ID+1000)
	require.NoError(t, err)
	assert.Empty(t, none)
}
