package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	SessionCookie    = "hc_session"
	SignupCookie     = "hc_signup"
	OAuthStateCookie = "hc_oauth_state"
)

// CookieWriter writes the HTTP-only cookies used by the API.
type CookieWriter struct {
	Secure bool
}

func (w CookieWriter) Set(c *gin.Context, name, value string, ttl time.Duration) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, int(ttl.Seconds()), "/", "", w.Secure, true)
}

func (w CookieWriter) Clear(c *gin.Context, name string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, "", -1, "/", "", w.Secure, true)
}
