// Package controller provides the page controllers: each route handler runs
// behind its guards, validates input, calls into the services and then
// redirects (on mutation) or renders HTML (on read).
package controller

import (
	"net"
	"net/http"
	"strings"

	"github.com/cinelog/cinelog/config"
	"github.com/cinelog/cinelog/logger"
	"github.com/cinelog/cinelog/web/security"
	"github.com/cinelog/cinelog/web/session"

	"github.com/gin-gonic/gin"
)

// getRemoteIp extracts the real IP address from the request headers or the
// remote address.
func getRemoteIp(c *gin.Context) string {
	value := c.GetHeader("X-Real-IP")
	if value != "" {
		return value
	}
	value = c.GetHeader("X-Forwarded-For")
	if value != "" {
		ips := strings.Split(value, ",")
		return ips[0]
	}
	addr := c.Request.RemoteAddr
	ip, _, _ := net.SplitHostPort(addr)
	return ip
}

// html renders a template with the shared page context: title, base path,
// the session identity, drained flash messages and the CSRF token every
// form embeds.
func html(c *gin.Context, name string, title string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	successes, errors := session.TakeFlashes(c)

	data["title"] = title
	data["base_path"] = c.GetString("base_path")
	data["cur_ver"] = config.GetVersion()
	data["is_login"] = session.IsLogin(c)
	data["user_name"] = session.GetUserName(c)
	data["user_role"] = session.GetRole(c)
	data["flash_success"] = successes
	data["flash_error"] = errors
	data["csrf_token"] = security.CsrfToken(c)

	c.HTML(http.StatusOK, name, data)
}

// redirectWithError pushes a flash error and redirects below the base path.
// The handler must return right after.
func redirectWithError(c *gin.Context, msg, location string) {
	session.AddError(c, msg)
	c.Redirect(http.StatusFound, c.GetString("base_path")+location)
}

// redirectWithSuccess pushes a flash success and redirects below the base
// path.
func redirectWithSuccess(c *gin.Context, msg, location string) {
	session.AddSuccess(c, msg)
	c.Redirect(http.StatusFound, c.GetString("base_path")+location)
}

// redirectTo redirects without adding a message.
func redirectTo(c *gin.Context, location string) {
	c.Redirect(http.StatusFound, c.GetString("base_path")+location)
}

// handleDbError hides infrastructure errors behind a generic message; the
// detail goes to the log only.
func handleDbError(c *gin.Context, err error, location string) {
	logError(c, err)
	redirectWithError(c, "A system error occurred. Please try again later.", location)
}

func logError(c *gin.Context, err error) {
	logger.Errorf("%s %s from %s: %v", c.Request.Method, c.Request.URL.Path, getRemoteIp(c), err)
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}
