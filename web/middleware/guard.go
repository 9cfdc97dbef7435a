// Package middleware provides the request guards: each one fails closed by
// recording a flash error, redirecting, and aborting the handler chain.
package middleware

import (
	"net/http"

	"github.com/cinelog/cinelog/web/session"

	"github.com/gin-gonic/gin"
)

// Deny pushes a flash error, redirects to location and aborts the chain.
// Nothing after a denied guard ever runs.
func Deny(c *gin.Context, msg, location string) {
	session.AddError(c, msg)
	c.Redirect(http.StatusFound, c.GetString("base_path")+location)
	c.Abort()
}

// RequireLogin redirects unauthenticated requests to the entry page.
func RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !session.IsLogin(c) {
			Deny(c, "Please log in first.", "")
			return
		}
		c.Next()
	}
}

// RequireRole admits only sessions carrying the expected role.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if session.GetRole(c) != role {
			Deny(c, "You do not have access to this page.", "")
			return
		}
		c.Next()
	}
}

// RequireConfirmation admits only requests that passed a prior confirmation
// screen. The flag is consumed whether or not it was set, so a confirmation
// is good for exactly one execute request.
func RequireConfirmation(flagKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !session.TakeFlag(c, flagKey) {
			Deny(c, "Invalid access.", "")
			return
		}
		c.Next()
	}
}
