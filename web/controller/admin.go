package controller

import (
	"strings"
	"unicode/utf8"

	"github.com/cinelog/cinelog/config"
	"github.com/cinelog/cinelog/database/model"
	"github.com/cinelog/cinelog/web/middleware"
	"github.com/cinelog/cinelog/web/security"
	"github.com/cinelog/cinelog/web/service"
	"github.com/cinelog/cinelog/web/session"
	"github.com/cinelog/cinelog/web/upload"

	"github.com/gin-gonic/gin"
)

// ItemForm represents the admin item-creation fields.
type ItemForm struct {
	Title       string `form:"title"`
	Description string `form:"description"`
	CsrfToken   string `form:"csrf_token"`
}

// AdminController handles the admin-only item management pages.
type AdminController struct {
	itemService service.ItemService
}

func NewAdminController(g *gin.RouterGroup) *AdminController {
	a := &AdminController{}
	a.initRouter(g)
	return a
}

func (a *AdminController) initRouter(g *gin.RouterGroup) {
	admin := g.Group("/admin")
	admin.Use(middleware.RequireLogin(), middleware.RequireRole(model.RoleAdmin))
	admin.GET("/items/new", a.newForm)
	admin.POST("/items", a.create)
}

func (a *AdminController) newForm(c *gin.Context) {
	html(c, "item_add.html", "Add item", gin.H{
		"old": session.TakeOld(c),
	})
}

// create inserts a new item with an optional thumbnail. A failed insert
// removes the freshly stored image again.
func (a *AdminController) create(c *gin.Context) {
	var form ItemForm
	if err := c.ShouldBind(&form); err != nil {
		redirectWithError(c, "Invalid access.", "admin/items/new")
		return
	}

	if !security.ValidateCsrfTokenOnce(c, form.CsrfToken) {
		redirectWithError(c, "An invalid operation was detected.", "")
		return
	}

	var errs []string
	if strings.TrimSpace(form.Title) == "" {
		errs = append(errs, "Please enter a title.")
	} else if utf8.RuneCountInString(form.Title) > 100 {
		errs = append(errs, "Please enter a title within 100 characters.")
	}

	fh, _ := c.FormFile("image")
	if fh != nil && fh.Size > config.GetMaxUploadSize() {
		errs = append(errs, "The image file is too large.")
	}

	if len(errs) > 0 {
		session.AddErrors(c, errs)
		session.SetOld(c, map[string]string{
			"title":       form.Title,
			"description": form.Description,
		})
		redirectTo(c, "admin/items/new")
		return
	}

	imageName, err := upload.SaveImage(fh, config.GetThumbnailFolder())
	if err != nil {
		session.AddError(c, uploadErrorMessage(err))
		session.SetOld(c, map[string]string{
			"title":       form.Title,
			"description": form.Description,
		})
		redirectTo(c, "admin/items/new")
		return
	}

	item := &model.Item{
		Title:       form.Title,
		Description: form.Description,
		Image:       imageName,
	}
	if err := a.itemService.Create(item); err != nil {
		if imageName != "" {
			upload.Remove(config.GetThumbnailFolder(), imageName)
		}
		handleDbError(c, err, "admin/items/new")
		return
	}

	redirectWithSuccess(c, "The item has been added.", "items")
}
