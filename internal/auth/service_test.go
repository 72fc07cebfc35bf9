package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bkoval/fitpulse/pkg"

	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// INFO: https://github.com/go-redis/redis/issues/1029
		goleak.IgnoreTopFunction(
			"github.com/go-redis/redis/v8/internal/pool.(*ConnPool).reaper",
		),
	)
}

func newTestService(t *testing.T) (*Service, redismock.ClientMock) {
	t.Helper()

	passwordHash, err := pkg.HashPassword("test-pass")
	require.NoError(t, err)

	db, mock := redismock.NewClientMock()
	s := NewService(&Admin{
		Username:     "admin",
		PasswordHash: passwordHash,
	}, time.Hour, db)
	s.RandStringFunc = func(_ int) (string, error) {
		return "test-token", nil
	}
	return s, mock
}

func TestService_Login(t *testing.T) {
	s, mock := newTestService(t)
	ctx := context.Background()
	now := time.Now()

	mock.ExpectSet(sessionKeyPrefix+"test-token", now.Unix(), 0).SetVal("OK")
	mock.ExpectSAdd(tokensSetKey, "test-token").SetVal(1)

	token, err := s.Login(ctx, "admin", "test-pass", now)
	require.NoError(t, err)
	assert.Equal(t, "test-token", token)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestService_Login_WrongCredentials(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	_, err := s.Login(ctx, "admin", "wrong-pass", time.Now())
	assert.ErrorIs(t, err, ErrWrongCredentials)

	_, err = s.Login(ctx, "not-admin", "test-pass", time.Now())
	assert.ErrorIs(t, err, ErrWrongCredentials)
}

func TestService_Logout(t *testing.T) {
	s, mock := newTestService(t)
	ctx := context.Background()
	now := time.Now()

	sessionKey := sessionKeyPrefix + "test-token"
	mock.ExpectGet(sessionKey).SetVal(fmt.Sprintf("%d", now.Unix()))
	mock.ExpectSet(sessionKey, 0, 0).SetVal("OK")
	mock.ExpectSRem(tokensSetKey, "test-token").SetVal(1)

	loggedOut, err := s.Logout(ctx, "test-token")
	require.NoError(t, err)
	assert.True(t, loggedOut)

	mock.ExpectGet(sessionKeyPrefix + "unknown").SetErr(redis.Nil)
	_, err = s.Logout(ctx, "unknown")
	require.Error(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginChecker_IsLogged(t *testing.T) {
	db, mock := redismock.NewClientMock()
	checker := NewLoginChecker(time.Hour, db)
	ctx := context.Background()

	mock.ExpectGet(sessionKeyPrefix + "invalid-token").SetErr(redis.Nil)
	isLogged, err := checker.IsLogged(ctx, "invalid-token")
	require.Error(t, err)
	assert.False(t, isLogged)

	now := time.Now()
	mock.ExpectGet(sessionKeyPrefix + "valid-token").SetVal(fmt.Sprintf("%d", now.Unix()))
	isLogged, err = checker.IsLogged(ctx, "valid-token")
	require.NoError(t, err)
	assert.True(t, isLogged)

	tooOld := now.Add(-2 * time.Hour)
	mock.ExpectGet(sessionKeyPrefix + "old-token").SetVal(fmt.Sprintf("%d", tooOld.Unix()))
	isLogged, err = checker.IsLogged(ctx, "old-token")
	require.NoError(t, err)
	assert.False(t, isLogged)
}
