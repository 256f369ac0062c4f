package http

import (
	"crypto/subtle"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sujalbistaa/circuit/internal/auth"
)

const (
	sessionCookie     = "session"
	draftCookie       = "draft_token"
	draftHeader       = "X-Draft-Token"
	ctxSession        = "session"
	ctxDraftToken     = "draftToken"
	draftCookieMaxAge = 30 * 24 * 60 * 60
)

// AdminAuthMiddleware checks for a secret X-Admin-Token header. With no
// token configured every request is refused.
func AdminAuthMiddleware(requiredToken string) gin.HandlerFunc {
	if requiredToken == "" {
		log.Println("X_ADMIN_TOKEN not set, admin routes are disabled")
	}

	return func(c *gin.Context) {
		suppliedToken := c.GetHeader("X-Admin-Token")

		if suppliedToken == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Admin token required"})
			return
		}

		if requiredToken == "" || subtle.ConstantTimeCompare([]byte(suppliedToken), []byte(requiredToken)) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden: Invalid admin token"})
			return
		}

		c.Next()
	}
}

// SecurityHeadersMiddleware adds basic, sensible security headers. The
// server only speaks JSON, so nothing may be framed or executed.
func SecurityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		c.Header("Referrer-Policy", "no-referrer")
		c.Next()
	}
}

// SessionMiddleware resumes the caller's session from a Bearer token or the
// session cookie. Missing or invalid tokens leave a guest session.
func SessionMiddleware(svc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ""
		if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
			token = strings.TrimPrefix(header, "Bearer ")
		} else if cookie, err := c.Cookie(sessionCookie); err == nil {
			token = cookie
		}
		c.Set(ctxSession, auth.Resume(svc, token))
		c.Next()
	}
}

// DraftTokenMiddleware identifies the caller's draft slot, issuing a new
// token on first use.
func DraftTokenMiddleware(secureCookies bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader(draftHeader)
		if token == "" {
			token, _ = c.Cookie(draftCookie)
		}
		if _, err := uuid.Parse(token); err != nil {
			token = uuid.NewString()
		}
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(draftCookie, token, draftCookieMaxAge, "/", "", secureCookies, true)
		c.Header(draftHeader, token)
		c.Set(ctxDraftToken, token)
		c.Next()
	}
}

func sessionOf(c *gin.Context) *auth.Session {
	return c.MustGet(ctxSession).(*auth.Session)
}

func draftTokenOf(c *gin.Context) string {
	return c.GetString(ctxDraftToken)
}
