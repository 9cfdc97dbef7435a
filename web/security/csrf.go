// Package security implements the per-session CSRF token: issue, validate,
// and a one-time-consume variant for destructive endpoints.
package security

import (
	"crypto/subtle"

	"github.com/cinelog/cinelog/util/random"
	"github.com/cinelog/cinelog/web/session"

	"github.com/gin-gonic/gin"
)

// FormField is the form field name carrying the token.
const FormField = "csrf_token"

// tokenBytes is the token entropy; hex-encoded to twice as many characters.
const tokenBytes = 32

// CsrfToken returns the session's CSRF token, minting and caching a new one
// when the session has none yet.
func CsrfToken(c *gin.Context) string {
	if token := session.GetCsrfToken(c); token != "" {
		return token
	}
	token := random.Hex(tokenBytes)
	if err := session.SetCsrfToken(c, token); err != nil {
		return ""
	}
	return token
}

// ValidateCsrfToken compares the submitted token against the session's in
// constant time. State is not mutated.
func ValidateCsrfToken(c *gin.Context, submitted string) bool {
	saved := session.GetCsrfToken(c)
	if submitted == "" || saved == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(saved), []byte(submitted)) == 1
}

// ValidateCsrfTokenOnce validates and, on success, deletes the stored token
// so a captured form cannot be replayed. The next render mints a fresh one.
func ValidateCsrfTokenOnce(c *gin.Context, submitted string) bool {
	if !ValidateCsrfToken(c, submitted) {
		return false
	}
	return session.DeleteCsrfToken(c) == nil
}
