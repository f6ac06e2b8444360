package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"anoa.com/handchatter/internal/middleware"
	account "anoa.com/handchatter/internal/modules/account/service"
	"anoa.com/handchatter/pkg/apperror"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRecovery struct {
	mock.Mock
}

func (m *mockRecovery) SearchID(ctx context.Context, email string) (string, error) {
	args := m.Called(ctx, email)
	return args.String(0), args.Error(1)
}

func (m *mockRecovery) SearchPassword(ctx context.Context, id, email string) error {
	return m.Called(ctx, id, email).Error(0)
}

func (m *mockRecovery) ResetPassword(ctx context.Context, token, newPassword string) error {
	return m.Called(ctx, token, newPassword).Error(0)
}

type mockOAuth struct {
	mock.Mock
}

func (m *mockOAuth) KakaoLoginURL(ctx context.Context) (string, string, error) {
	args := m.Called(ctx)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *mockOAuth) KakaoCallback(ctx context.Context, browserState, state, code string) (string, error) {
	args := m.Called(ctx, browserState, state, code)
	return args.String(0), args.Error(1)
}

func serve(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRecoveryHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := &mockRecovery{}
	h := NewRecoveryHandler(m)
	r := gin.New()
	r.GET("/api/searchId", h.SearchID)
	r.GET("/api/searchPassword", h.SearchPassword)
	r.PATCH("/api/resetPassword", h.ResetPassword)

	m.On("SearchID", mock.Anything, "a@x.com").Return("alice", nil)
	m.On("SearchID", mock.Anything, "none@x.com").
		Return("", apperror.New(http.StatusBadRequest, "no account uses this email", apperror.ErrNotFound))
	m.On("SearchPassword", mock.Anything, "alice", "a@x.com").Return(nil)
	m.On("ResetPassword", mock.Anything, "reset-token", "newpw").Return(nil)
	m.On("ResetPassword", mock.Anything, "used", "newpw").Return(account.ErrResetTokenInvalid)

	w := serve(r, http.MethodGet, "/api/searchId?email=a@x.com", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"alice"}`, w.Body.String())

	w = serve(r, http.MethodGet, "/api/searchId?email=none@x.com", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(r, http.MethodGet, "/api/searchPassword?id=alice&email=a@x.com", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"result":true,"msg":"password reset link sent"}`, w.Body.String())
	assert.NotContains(t, w.Body.String(), "token")

	w = serve(r, http.MethodPatch, "/api/resetPassword", `{"token":"reset-token","newPassword":"newpw"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(r, http.MethodPatch, "/api/resetPassword", `{"token":"used","newPassword":"newpw"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(r, http.MethodPatch, "/api/resetPassword", `{"token":"reset-token"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOAuthHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := &mockOAuth{}
	h := NewOAuthHandler(m, middleware.CookieWriter{}, time.Hour, "http://front.test")
	r := gin.New()
	r.GET("/auth/kakao", h.KakaoLogin)
	r.GET("/auth/kakao/callback", h.KakaoCallback)

	m.On("KakaoLoginURL", mock.Anything).Return("https://kauth.kakao.com/oauth/authorize?state=s", "s", nil)
	m.On("KakaoCallback", mock.Anything, "s", "s", "good").Return("session-token", nil)
	m.On("KakaoCallback", mock.Anything, "s", "s", "bad").Return("", errors.New("exchange failed"))
	m.On("KakaoCallback", mock.Anything, "", "s", "good").
		Return("", apperror.Wrap(apperror.ErrUnauthorized, "oauth state does not belong to this browser"))

	w := serve(r, http.MethodGet, "/auth/kakao", "")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://kauth.kakao.com/oauth/authorize?state=s", w.Header().Get("Location"))
	stateCookie := findCookie(w, middleware.OAuthStateCookie)
	require.NotNil(t, stateCookie)
	assert.Equal(t, "s", stateCookie.Value)
	assert.True(t, stateCookie.HttpOnly)

	callback := func(query string, withState bool) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/auth/kakao/callback?"+query, nil)
		if withState {
			req.AddCookie(&http.Cookie{Name: middleware.OAuthStateCookie, Value: "s"})
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w = callback("state=s&code=good", true)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "http://front.test/", w.Header().Get("Location"))
	assert.Equal(t, "session-token", findCookie(w, middleware.SessionCookie).Value)
	assert.Equal(t, -1, findCookie(w, middleware.OAuthStateCookie).MaxAge)

	w = callback("state=s&code=bad", true)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "http://front.test/", w.Header().Get("Location"))
	assert.Nil(t, findCookie(w, middleware.SessionCookie))

	// a callback link opened in a browser that never started the flow
	w = callback("state=s&code=good", false)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Nil(t, findCookie(w, middleware.SessionCookie))

	m.AssertExpectations(t)
}
