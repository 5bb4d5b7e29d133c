package account

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &Store{db: db}, mock
}

func TestHashPasswordRoundTripsThroughDerive(t *testing.T) {
	hash, salt := hashPassword("correct-horse")
	assert.Len(t, salt, 64)
	assert.Equal(t, hash, derive("correct-horse", salt))
	assert.NotEqual(t, hash, derive("wrong-horse", salt))
}

func TestRegisterRejectsDuplicateUsername(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec("INSERT INTO accounts").
		WithArgs("alice", "Alice", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(errors.New(`Error 1062: Duplicate entry 'alice' for key 'username'`))

	_, err := s.Register(context.Background(), "alice", "Alice", "hunter2")
	assert.ErrorIs(t, err, ErrUsernameTaken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginRejectsBadPassword(t *testing.T) {
	s, mock := newMockStore(t)
	hash, salt := hashPassword("hunter2")
	rows := sqlmock.NewRows([]string{"nickname", "password_hash", "password_salt", "skin", "squad", "is_dev", "is_banned", "wins", "deaths", "kills", "coins"}).
		AddRow("Alice", hash, salt, 0, "", false, false, 0, 0, 0, 0)
	mock.ExpectQuery("SELECT nickname, password_hash").WithArgs("alice").WillReturnRows(rows)

	_, err := s.Login(context.Background(), "alice", "wrong")
	assert.ErrorIs(t, err, ErrBadPassword)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginRejectsBannedAccount(t *testing.T) {
	s, mock := newMockStore(t)
	hash, salt := hashPassword("hunter2")
	rows := sqlmock.NewRows([]string{"nickname", "password_hash", "password_salt", "skin", "squad", "is_dev", "is_banned", "wins", "deaths", "kills", "coins"}).
		AddRow("Alice", hash, salt, 0, "", false, true, 0, 0, 0, 0)
	mock.ExpectQuery("SELECT nickname, password_hash").WithArgs("alice").WillReturnRows(rows)

	_, err := s.Login(context.Background(), "alice", "hunter2")
	assert.ErrorIs(t, err, ErrBanned)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUnknownAccountReturnsErrNotFound(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("SELECT nickname, skin").WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	_, err := s.Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateProfileRejectsDuplicateNickname(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec("UPDATE accounts SET nickname").
		WithArgs("Bobby", 3, "reds", "bob").
		WillReturnError(errors.New(`Error 1062: Duplicate entry 'Bobby' for key 'nickname'`))

	err := s.UpdateProfile(context.Background(), "bob", "Bobby", 3, "reds")
	assert.ErrorIs(t, err, ErrNicknameTaken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLeaderboardOrdersByCoinsDescending(t *testing.T) {
	s, mock := newMockStore(t)
	rows := sqlmock.NewRows([]string{"username", "nickname", "skin", "squad", "is_dev", "is_banned", "wins", "deaths", "kills", "coins"}).
		AddRow("alice", "Alice", 0, "", false, false, 5, 1, 9, 900).
		AddRow("bob", "Bob", 0, "", false, false, 2, 3, 4, 300)
	mock.ExpectQuery("SELECT username, nickname").WithArgs(100).WillReturnRows(rows)

	got, err := s.Leaderboard(context.Background(), 100)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "alice", got[0].Username)
	assert.Equal(t, 900, got[0].Coins)
	require.NoError(t, mock.ExpectationsWereMet())
}
