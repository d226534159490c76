package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"backend/internal/model"
	"backend/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func seedLoginUser(t *testing.T, e *testEnv, email, password string) *model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &model.User{
		EmployeeCode: "EMP900",
		Username:     "login-user",
		DisplayName:  "Login User",
		Email:        email,
		Password:     string(hash),
		Role:         "approver",
	}
	require.NoError(t, e.db.Create(user).Error)
	return user
}

func TestLogin_Success(t *testing.T) {
	e := newTestEnv(t)
	svc := NewUserService(e.users, e.tokens)
	seedLoginUser(t, e, "user@example.com", "secret123")

	resp, err := svc.Login(context.Background(), LoginUserRequest{Email: "user@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
}

func TestLogin_WrongPassword(t *testing.T) {
	e := newTestEnv(t)
	svc := NewUserService(e.users, e.tokens)
	seedLoginUser(t, e, "user@example.com", "secret123")

	_, err := svc.Login(context.Background(), LoginUserRequest{Email: "user@example.com", Password: "nope"})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}

func TestLogin_LockoutAfterRepeatedFailures(t *testing.T) {
	e := newTestEnv(t)
	svc := NewUserService(e.users, e.tokens)
	seedLoginUser(t, e, "user@example.com", "secret123")

	for i := 0; i < maxLoginAttempts; i++ {
		_, err := svc.Login(context.Background(), LoginUserRequest{Email: "user@example.com", Password: fmt.Sprintf("wrong-%d", i)})
		require.Error(t, err)
		assert.True(t, apperror.IsKind(err, apperror.KindValidation))
	}

	// Past the threshold even the correct password is refused.
	_, err := svc.Login(context.Background(), LoginUserRequest{Email: "user@example.com", Password: "secret123"})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindBusinessRule))
}

func TestLogin_SuccessResetsFailureCount(t *testing.T) {
	e := newTestEnv(t)
	svc := NewUserService(e.users, e.tokens)
	seedLoginUser(t, e, "user@example.com", "secret123")

	for i := 0; i < maxLoginAttempts-1; i++ {
		_, err := svc.Login(context.Background(), LoginUserRequest{Email: "user@example.com", Password: "wrong"})
		require.Error(t, err)
	}

	_, err := svc.Login(context.Background(), LoginUserRequest{Email: "user@example.com", Password: "secret123"})
	require.NoError(t, err)

	// The counter started over, so a fresh failure is an ordinary rejection.
	_, err = svc.Login(context.Background(), LoginUserRequest{Email: "user@example.com", Password: "wrong"})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}

func TestLogin_PersistsRefreshToken(t *testing.T) {
	e := newTestEnv(t)
	svc := NewUserService(e.users, e.tokens)
	user := seedLoginUser(t, e, "user@example.com", "secret123")

	resp, err := svc.Login(context.Background(), LoginUserRequest{Email: "user@example.com", Password: "secret123"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.RefreshToken)

	row, err := e.tokens.GetByToken(context.Background(), resp.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, row.UserID)
	assert.True(t, row.ExpiresAt.After(time.Now()))
}

func TestRefreshToken_RotatesOnUse(t *testing.T) {
	e := newTestEnv(t)
	svc := NewUserService(e.users, e.tokens)
	seedLoginUser(t, e, "user@example.com", "secret123")

	login, err := svc.Login(context.Background(), LoginUserRequest{Email: "user@example.com", Password: "secret123"})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(context.Background(), RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.Token)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// The presented token was rotated out, so replaying it fails.
	_, err = svc.RefreshToken(context.Background(), RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}

func TestRefreshToken_Expired(t *testing.T) {
	e := newTestEnv(t)
	svc := NewUserService(e.users, e.tokens)
	user := seedLoginUser(t, e, "user@example.com", "secret123")

	expired := &model.RefreshToken{
		UserID:    user.ID,
		Token:     "stale-token",
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	require.NoError(t, e.db.Create(expired).Error)

	_, err := svc.RefreshToken(context.Background(), RefreshTokenRequest{RefreshToken: "stale-token"})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	// Expired tokens are purged on presentation.
	_, err = e.tokens.GetByToken(context.Background(), "stale-token")
	require.Error(t, err)
}

func TestRevokeRefreshToken(t *testing.T) {
	e := newTestEnv(t)
	svc := NewUserService(e.users, e.tokens)
	seedLoginUser(t, e, "user@example.com", "secret123")

	login, err := svc.Login(context.Background(), LoginUserRequest{Email: "user@example.com", Password: "secret123"})
	require.NoError(t, err)

	require.NoError(t, svc.RevokeRefreshToken(context.Background(), login.RefreshToken))

	_, err = svc.RefreshToken(context.Background(), RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}

func TestCreateUser_DuplicateEmployeeCode(t *testing.T) {
	e := newTestEnv(t)
	svc := NewUserService(e.users, e.tokens)
	e.createUser(t, "EMP001", "staff")

	_, err := svc.CreateUser(context.Background(), CreateUserRequest{
		EmployeeCode: "EMP001",
		Username:     "someone-else",
		DisplayName:  "Someone Else",
		Email:        "someone@example.com",
		Password:     "secret123",
		Role:         "staff",
	})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}
