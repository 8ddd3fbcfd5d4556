package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luaforge/script-platform/internal/middleware"
	"github.com/luaforge/script-platform/internal/model"
	"github.com/luaforge/script-platform/pkg/logger"
)

const testSecret = "test-secret"

func newAuth(t *testing.T) (*AuthService, *memStore) {
	t.Helper()
	st := newMemStore()
	return NewAuthService(st, testSecret, time.Hour, logger.NewNop()), st
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	auth, _ := newAuth(t)

	resp, err := auth.Register(ctx, &model.CredentialsRequest{
		Username: "builder",
		Password: "sufficiently-long",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
	assert.Equal(t, "builder", resp.User.Username)

	// The issued token carries the user ID as subject.
	claims := &middleware.Claims{}
	token, err := jwt.ParseWithClaims(resp.Token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)
	assert.Equal(t, resp.User.ID, claims.Subject)
	assert.Equal(t, "builder", claims.Username)

	login, err := auth.Login(ctx, &model.CredentialsRequest{
		Username: "builder",
		Password: "sufficiently-long",
	})
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, login.User.ID)
	assert.NotNil(t, login.User.LastLogin)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	ctx := context.Background()
	auth, _ := newAuth(t)

	_, err := auth.Register(ctx, &model.CredentialsRequest{Username: "builder", Password: "sufficiently-long"})
	require.NoError(t, err)

	_, err = auth.Login(ctx, &model.CredentialsRequest{Username: "builder", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = auth.Login(ctx, &model.CredentialsRequest{Username: "nobody", Password: "whatever-long"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	auth, _ := newAuth(t)

	_, err := auth.Register(ctx, &model.CredentialsRequest{Username: "ab", Password: "long-enough-pw"})
	assert.True(t, IsValidation(err))

	_, err = auth.Register(ctx, &model.CredentialsRequest{Username: "builder", Password: "short"})
	assert.True(t, IsValidation(err))

	_, err = auth.Register(ctx, &model.CredentialsRequest{Username: "builder", Password: "long-enough-pw"})
	require.NoError(t, err)
	_, err = auth.Register(ctx, &model.CredentialsRequest{Username: "builder", Password: "long-enough-pw"})
	assert.True(t, IsValidation(err))
}
