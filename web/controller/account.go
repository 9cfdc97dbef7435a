package controller

import (
	"github.com/cinelog/cinelog/database/model"
	"github.com/cinelog/cinelog/logger"
	"github.com/cinelog/cinelog/web/middleware"
	"github.com/cinelog/cinelog/web/security"
	"github.com/cinelog/cinelog/web/service"
	"github.com/cinelog/cinelog/web/session"

	"github.com/gin-gonic/gin"
)

// confirmedFlag is the one-shot session flag proving the confirmation page
// was passed. {AwaitingConfirmation → Confirmed}, consumed on execute.
const confirmedFlag = "account_delete_confirmed"

// AccountController handles self-service account deletion: a confirmation
// page followed by the guarded execute step. Members only.
type AccountController struct {
	userService service.UserService
}

func NewAccountController(g *gin.RouterGroup) *AccountController {
	a := &AccountController{}
	a.initRouter(g)
	return a
}

func (a *AccountController) initRouter(g *gin.RouterGroup) {
	authed := g.Group("")
	authed.Use(middleware.RequireLogin(), middleware.RequireRole(model.RoleMember))
	authed.POST("/account/delete/confirm", a.confirm)
	authed.POST("/account/delete", middleware.RequireConfirmation(confirmedFlag), a.execute)
}

// confirm arms the one-shot flag and renders the confirmation page. The
// token is validated but not consumed; the rendered page embeds it for the
// execute form.
func (a *AccountController) confirm(c *gin.Context) {
	if !security.ValidateCsrfToken(c, c.PostForm(security.FormField)) {
		redirectWithError(c, "An invalid operation was detected.", "")
		return
	}

	if err := session.SetFlag(c, confirmedFlag); err != nil {
		handleDbError(c, err, "")
		return
	}

	html(c, "account_delete_confirm.html", "Confirm withdrawal", nil)
}

// execute deletes the account. The route's RequireConfirmation guard has
// already consumed the one-shot flag, the CSRF token is consumed on
// success, and the session id is rotated both before and after the
// deletion.
func (a *AccountController) execute(c *gin.Context) {
	if err := session.Regenerate(c); err != nil {
		handleDbError(c, err, "")
		return
	}

	if !security.ValidateCsrfTokenOnce(c, c.PostForm(security.FormField)) {
		redirectWithError(c, "An invalid operation was detected.", "")
		return
	}

	userId := session.GetUserId(c)
	if err := a.userService.DeleteAccount(userId); err != nil {
		logError(c, err)
		redirectWithError(c, "The withdrawal could not be completed.", "")
		return
	}

	// Drop the identity but keep the session for the farewell flash, then
	// rotate the id so the old cookie stops meaning anything.
	session.ClearLoginUser(c)
	if err := session.Regenerate(c); err != nil {
		logger.Warning("session regenerate after withdrawal:", err)
	}

	logger.Infof("user %d withdrew their account", userId)
	redirectWithSuccess(c, "Your account has been deleted. Thank you for using cinelog.", "")
}
