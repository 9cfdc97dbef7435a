package controller

import (
	"github.com/cinelog/cinelog/caching"
	"github.com/cinelog/cinelog/logger"
	"github.com/cinelog/cinelog/web/security"
	"github.com/cinelog/cinelog/web/service"
	"github.com/cinelog/cinelog/web/session"

	"github.com/gin-gonic/gin"
)

// LoginForm represents the login request fields.
type LoginForm struct {
	Email     string `form:"email"`
	Pass      string `form:"pass"`
	CsrfToken string `form:"csrf_token"`
}

// IndexController handles the entry page, login and logout.
type IndexController struct {
	userService  service.UserService
	loginLimiter *caching.LoginLimiter
}

func NewIndexController(g *gin.RouterGroup) *IndexController {
	a := &IndexController{
		loginLimiter: caching.NewLoginLimiter(caching.DefaultMaxAttempts, caching.DefaultWindow),
	}
	a.initRouter(g)
	return a
}

func (a *IndexController) initRouter(g *gin.RouterGroup) {
	g.GET("/", a.index)
	g.GET("/logout", a.logout)

	g.POST("/login", a.login)
}

// index shows the login page, or sends logged-in users to their page.
func (a *IndexController) index(c *gin.Context) {
	if session.IsLogin(c) {
		redirectTo(c, "mypage")
		return
	}
	html(c, "login.html", "Log in", nil)
}

// login authenticates the credentials and opens a fresh session. The CSRF
// token is consumed on success so the login form cannot be replayed.
func (a *IndexController) login(c *gin.Context) {
	var form LoginForm
	if err := c.ShouldBind(&form); err != nil {
		redirectWithError(c, "Invalid access.", "")
		return
	}

	if !security.ValidateCsrfTokenOnce(c, form.CsrfToken) {
		redirectWithError(c, "An invalid operation was detected.", "")
		return
	}

	remoteIp := getRemoteIp(c)
	if a.loginLimiter.Blocked(remoteIp) {
		logger.Warningf("blocked login for %q from %s: too many attempts", form.Email, remoteIp)
		redirectWithError(c, "Too many failed login attempts. Please try again later.", "")
		return
	}

	user := a.userService.CheckUser(form.Email, form.Pass)
	if user == nil {
		a.loginLimiter.Fail(remoteIp)
		logger.Warningf("failed login for %q from %s", form.Email, remoteIp)
		redirectWithError(c, "The email address or password is incorrect.", "")
		return
	}
	a.loginLimiter.Reset(remoteIp)

	// Privilege transition: rotate the session id before storing identity.
	if err := session.Regenerate(c); err != nil {
		handleDbError(c, err, "")
		return
	}
	session.SetLoginUser(c, user.Id, user.Name, user.Role)

	logger.Infof("%s logged in from %s", user.Email, remoteIp)
	redirectWithSuccess(c, "You are now logged in.", "mypage")
}

// logout drops the identity and rotates the session id, keeping the session
// itself alive so the flash message survives the redirect.
func (a *IndexController) logout(c *gin.Context) {
	if name := session.GetUserName(c); name != "" {
		logger.Infof("%s logged out", name)
	}
	session.ClearLoginUser(c)
	if err := session.Regenerate(c); err != nil {
		logger.Warning("session regenerate on logout:", err)
	}
	redirectWithSuccess(c, "You have been logged out.", "")
}
