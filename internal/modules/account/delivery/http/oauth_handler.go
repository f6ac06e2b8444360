package handler

import (
	"net/http"
	"time"

	"anoa.com/handchatter/internal/middleware"
	account "anoa.com/handchatter/internal/modules/account/service"
	"anoa.com/handchatter/pkg/logger"
	"github.com/gin-gonic/gin"
)

type OAuthHandler struct {
	oauth       account.OAuthService
	cookies     middleware.CookieWriter
	sessionTTL  time.Duration
	frontendURL string
}

func NewOAuthHandler(oauth account.OAuthService, cookies middleware.CookieWriter, sessionTTL time.Duration, frontendURL string) *OAuthHandler {
	return &OAuthHandler{oauth: oauth, cookies: cookies, sessionTTL: sessionTTL, frontendURL: frontendURL}
}

func (h *OAuthHandler) home() string {
	return h.frontendURL + "/"
}

// KakaoLogin handles GET /auth/kakao. The state is also pinned to this
// browser in a cookie so a callback started elsewhere is rejected.
func (h *OAuthHandler) KakaoLogin(c *gin.Context) {
	url, state, err := h.oauth.KakaoLoginURL(c.Request.Context())
	if err != nil {
		logger.WithComponent("oauth").WithError(err).Error("failed to start kakao login")
		c.Redirect(http.StatusFound, h.home())
		return
	}
	h.cookies.Set(c, middleware.OAuthStateCookie, state, account.OAuthStateTTL)
	c.Redirect(http.StatusFound, url)
}

// KakaoCallback handles GET /auth/kakao/callback. Every outcome redirects to
// the frontend; failures simply arrive without a session.
func (h *OAuthHandler) KakaoCallback(c *gin.Context) {
	browserState, _ := c.Cookie(middleware.OAuthStateCookie)
	h.cookies.Clear(c, middleware.OAuthStateCookie)

	token, err := h.oauth.KakaoCallback(c.Request.Context(), browserState, c.Query("state"), c.Query("code"))
	if err != nil {
		logger.WithComponent("oauth").WithError(err).Warn("kakao login failed")
		c.Redirect(http.StatusFound, h.home())
		return
	}

	h.cookies.Set(c, middleware.SessionCookie, token, h.sessionTTL)
	c.Redirect(http.StatusFound, h.home())
}
