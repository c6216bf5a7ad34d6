package store

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*SQLiteStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSQLiteStoreWithDB(db), mock
}

func TestWithTxCommits(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO messages").
		WithArgs("conv-1", RoleUser, "hi", 0, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectCommit()

	var msg Message
	err := s.WithTx(ctx, func(tx *Tx) error {
		msg = Message{ConversationID: "conv-1", Role: RoleUser, Content: "hi"}
		return tx.CreateMessage(ctx, &msg)
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), msg.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTxRollsBackOnStatementFailure(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()
	dbErr := errors.New("disk full")

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO messages").WillReturnError(dbErr)
	mock.ExpectRollback()

	err := s.WithTx(ctx, func(tx *Tx) error {
		return tx.CreateMessage(ctx, &Message{ConversationID: "conv-1", Role: RoleUser, Content: "hi"})
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, dbErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTxRollsBackOnPanic(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.Panics(t, func() {
		_ = s.WithTx(context.Background(), func(tx *Tx) error {
			panic("provider exploded")
		})
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTxBeginFailure(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin().WillReturnError(errors.New("locked"))

	called := false
	err := s.WithTx(context.Background(), func(tx *Tx) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.False(t, called)
	assert.Contains(t, err.Error(), "failed to begin transaction")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTxCommitFailure(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(errors.New("busy"))

	err := s.WithTx(context.Background(), func(tx *Tx) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to commit transaction")
	assert.NoError(t, mock.ExpectationsWereMet())
}
