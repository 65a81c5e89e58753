package handler_test

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/loyalty-club/internal/auth"
	"github.com/sakif/loyalty-club/internal/handler"
)

func newAuthEnv(t *testing.T) (*testEnv, *handler.AuthHandler) {
	t.Helper()
	env := newTestEnv(t)

	passwords := auth.NewPasswordServiceForTest(4)
	adminHash, err := passwords.Hash("la-clave-del-local")
	require.NoError(t, err)

	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := handler.NewAuthHandler(passwords, tokens, adminHash, logger)
	env.router.Post("/auth/login", h.HandleLogin)
	env.router.Post("/auth/logout", h.HandleLogout)
	return env, h
}

func TestHandleLogin_CorrectPassword(t *testing.T) {
	env, _ := newAuthEnv(t)

	rr := env.do(t, http.MethodPost, "/auth/login", map[string]string{
		"password": "la-clave-del-local",
	})
	require.Equal(t, http.StatusNoContent, rr.Code)

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, auth.SessionCookie, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.NotEmpty(t, cookies[0].Value)
}

func TestHandleLogin_WrongPassword(t *testing.T) {
	env, _ := newAuthEnv(t)

	rr := env.do(t, http.MethodPost, "/auth/login", map[string]string{
		"password": "adivinanza",
	})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Empty(t, rr.Result().Cookies())
}

func TestHandleLogout_ClearsCookie(t *testing.T) {
	env, _ := newAuthEnv(t)

	rr := env.do(t, http.MethodPost, "/auth/logout", nil)
	require.Equal(t, http.StatusNoContent, rr.Code)

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, auth.SessionCookie, cookies[0].Name)
	assert.Less(t, cookies[0].MaxAge, 0)
}
