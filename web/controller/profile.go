package controller

import (
	"errors"

	"github.com/cinelog/cinelog/config"
	"github.com/cinelog/cinelog/web/middleware"
	"github.com/cinelog/cinelog/web/security"
	"github.com/cinelog/cinelog/web/service"
	"github.com/cinelog/cinelog/web/session"
	"github.com/cinelog/cinelog/web/upload"
	"github.com/cinelog/cinelog/web/validator"

	"github.com/gin-gonic/gin"
)

// UserForm represents the registration and profile-edit fields. The image
// arrives separately as a multipart file.
type UserForm struct {
	Name      string `form:"name"`
	Email     string `form:"email"`
	Pass      string `form:"pass"`
	Pass2     string `form:"pass2"`
	Prof      string `form:"prof"`
	Mode      string `form:"mode"`
	CsrfToken string `form:"csrf_token"`
}

// ProfileController handles registration, the member page and profile
// editing.
type ProfileController struct {
	userService service.UserService
}

func NewProfileController(g *gin.RouterGroup) *ProfileController {
	a := &ProfileController{}
	a.initRouter(g)
	return a
}

func (a *ProfileController) initRouter(g *gin.RouterGroup) {
	g.GET("/register", a.registerForm)
	g.POST("/register", a.register)

	authed := g.Group("")
	authed.Use(middleware.RequireLogin())
	authed.GET("/mypage", a.mypage)
	authed.GET("/profile/edit", a.editForm)
	authed.POST("/profile/edit", a.edit)
}

func (a *ProfileController) registerForm(c *gin.Context) {
	html(c, "register.html", "Sign up", gin.H{
		"old": session.TakeOld(c),
	})
}

// register creates the account: validate, store the image, insert the user
// row inside a transaction, then open a fresh session. A failed insert
// removes the image again so nothing is left behind.
func (a *ProfileController) register(c *gin.Context) {
	// Entering an account mutation; rotate the session id first.
	if err := session.Regenerate(c); err != nil {
		handleDbError(c, err, "")
		return
	}

	var form UserForm
	if err := c.ShouldBind(&form); err != nil {
		redirectWithError(c, "Invalid access.", "register")
		return
	}

	if !security.ValidateCsrfTokenOnce(c, form.CsrfToken) {
		redirectWithError(c, "An invalid operation was detected.", "")
		return
	}

	if form.Mode != validator.ModeRegister {
		redirectWithError(c, "An invalid operation was detected.", "")
		return
	}

	fh, _ := c.FormFile("image")
	imageTooLarge := fh != nil && fh.Size > config.GetMaxUploadSize()

	if errs := validator.ValidateUser(userFormInput(form), form.Mode, imageTooLarge); len(errs) > 0 {
		session.AddErrors(c, errs)
		session.SetOld(c, oldValues(form))
		redirectTo(c, "register")
		return
	}

	imageName, err := upload.SaveImage(fh, config.GetIconFolder())
	if err != nil {
		session.AddError(c, uploadErrorMessage(err))
		session.SetOld(c, oldValues(form))
		redirectTo(c, "register")
		return
	}

	user, err := a.userService.Register(form.Name, form.Email, form.Pass, form.Prof, imageName)
	if err != nil {
		if imageName != "" {
			upload.Remove(config.GetIconFolder(), imageName)
		}
		if errors.Is(err, service.ErrEmailTaken) {
			session.AddError(c, "This email address is already in use.")
			session.SetOld(c, oldValues(form))
			redirectTo(c, "register")
			return
		}
		handleDbError(c, err, "register")
		return
	}

	session.SetLoginUser(c, user.Id, user.Name, user.Role)
	redirectWithSuccess(c, "Your registration is complete.", "mypage")
}

func (a *ProfileController) mypage(c *gin.Context) {
	user, err := a.userService.GetUser(session.GetUserId(c))
	if err != nil {
		handleDbError(c, err, "")
		return
	}
	html(c, "mypage.html", "My page", gin.H{
		"user": user,
	})
}

func (a *ProfileController) editForm(c *gin.Context) {
	user, err := a.userService.GetUser(session.GetUserId(c))
	if err != nil {
		handleDbError(c, err, "")
		return
	}
	html(c, "profile_edit.html", "Edit profile", gin.H{
		"user": user,
		"old":  session.TakeOld(c),
	})
}

// edit updates the profile with a dynamically built update set. The replaced
// avatar is deleted only after the transaction committed, and only when its
// name differs from the newly stored one.
func (a *ProfileController) edit(c *gin.Context) {
	if err := session.Regenerate(c); err != nil {
		handleDbError(c, err, "")
		return
	}

	var form UserForm
	if err := c.ShouldBind(&form); err != nil {
		redirectWithError(c, "Invalid access.", "profile/edit")
		return
	}

	if !security.ValidateCsrfTokenOnce(c, form.CsrfToken) {
		redirectWithError(c, "An invalid operation was detected.", "")
		return
	}

	if form.Mode != validator.ModeEdit {
		redirectWithError(c, "An invalid operation was detected.", "")
		return
	}

	fh, _ := c.FormFile("image")
	imageTooLarge := fh != nil && fh.Size > config.GetMaxUploadSize()

	if errs := validator.ValidateUser(userFormInput(form), form.Mode, imageTooLarge); len(errs) > 0 {
		session.AddErrors(c, errs)
		session.SetOld(c, oldValues(form))
		redirectTo(c, "profile/edit")
		return
	}

	imageName, err := upload.SaveImage(fh, config.GetIconFolder())
	if err != nil {
		session.AddError(c, uploadErrorMessage(err))
		session.SetOld(c, oldValues(form))
		redirectTo(c, "profile/edit")
		return
	}

	userId := session.GetUserId(c)
	oldImage, err := a.userService.UpdateProfile(userId, form.Name, form.Email, form.Prof, form.Pass, imageName)
	if err != nil {
		if imageName != "" {
			upload.Remove(config.GetIconFolder(), imageName)
		}
		if errors.Is(err, service.ErrEmailTaken) {
			session.AddError(c, "This email address is already in use.")
			session.SetOld(c, oldValues(form))
			redirectTo(c, "profile/edit")
			return
		}
		handleDbError(c, err, "profile/edit")
		return
	}

	if imageName != "" && oldImage != "" && oldImage != imageName {
		upload.Remove(config.GetIconFolder(), oldImage)
	}

	session.SetLoginUser(c, userId, form.Name, session.GetRole(c))
	redirectWithSuccess(c, "Your profile has been updated.", "mypage")
}

// userFormInput converts the bound form into the validator's input type.
func userFormInput(form UserForm) validator.UserForm {
	return validator.UserForm{
		Name:  form.Name,
		Email: form.Email,
		Pass:  form.Pass,
		Pass2: form.Pass2,
		Prof:  form.Prof,
	}
}

// oldValues echoes the non-secret fields back to the form after an error.
func oldValues(form UserForm) map[string]string {
	return map[string]string{
		"name":  form.Name,
		"email": form.Email,
		"prof":  form.Prof,
	}
}

func uploadErrorMessage(err error) string {
	switch {
	case errors.Is(err, upload.ErrTooLarge):
		return "The image file is too large."
	case errors.Is(err, upload.ErrUnsupportedType):
		return "Unsupported image format."
	case errors.Is(err, upload.ErrUnreadable):
		return "The file could not be read as an image."
	default:
		return "The image could not be saved."
	}
}
