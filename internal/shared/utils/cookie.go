package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"opsync/internal/shared/config"
)

const (
	AccessTokenCookie = "opsync_session"
)

// SetAccessTokenCookie sets the access token as an HttpOnly cookie.
func SetAccessTokenCookie(c *gin.Context, cookieConfig config.CookieConfig, accessToken string, maxAge int) {
	sameSite := parseSameSite(cookieConfig.SameSite)
	c.SetSameSite(sameSite)

	c.SetCookie(
		AccessTokenCookie,
		accessToken,
		maxAge,
		cookieConfig.Path,
		cookieConfig.Domain,
		cookieConfig.Secure,
		true, // HttpOnly
	)
}

// ClearAccessTokenCookie removes the access token cookie.
func ClearAccessTokenCookie(c *gin.Context, cookieConfig config.CookieConfig) {
	sameSite := parseSameSite(cookieConfig.SameSite)
	c.SetSameSite(sameSite)

	c.SetCookie(
		AccessTokenCookie,
		"",
		-1,
		cookieConfig.Path,
		cookieConfig.Domain,
		cookieConfig.Secure,
		true, // HttpOnly
	)
}

// GetTokenFromCookie retrieves the token from a cookie, or "" if absent.
func GetTokenFromCookie(c *gin.Context, cookieName string) string {
	token, err := c.Cookie(cookieName)
	if err == nil && token != "" {
		return token
	}
	return ""
}

func parseSameSite(s string) http.SameSite {
	switch s {
	case "Strict", "strict":
		return http.SameSiteStrictMode
	case "None", "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
