package controller

import (
	"errors"
	"fmt"

	"github.com/cinelog/cinelog/web/middleware"
	"github.com/cinelog/cinelog/web/security"
	"github.com/cinelog/cinelog/web/service"
	"github.com/cinelog/cinelog/web/session"
	"github.com/cinelog/cinelog/web/validator"

	"github.com/gin-gonic/gin"
)

const reviewsPerPage = 10

// ReviewHistController handles the member's review history and the
// confirm-then-execute bulk deletion flow.
type ReviewHistController struct {
	reviewService service.ReviewService
}

func NewReviewHistController(g *gin.RouterGroup) *ReviewHistController {
	a := &ReviewHistController{}
	a.initRouter(g)
	return a
}

func (a *ReviewHistController) initRouter(g *gin.RouterGroup) {
	authed := g.Group("")
	authed.Use(middleware.RequireLogin())
	authed.GET("/reviews", a.list)
	authed.POST("/reviews/delete/confirm", a.deleteConfirm)
	authed.POST("/reviews/delete", a.delete)
}

// list renders the user's paginated review history with selection
// checkboxes.
func (a *ReviewHistController) list(c *gin.Context) {
	page, err := pageParam(c)
	if err != nil {
		redirectWithError(c, "Invalid access. Please start from a valid page.", "reviews")
		return
	}

	result, err := a.reviewService.History(session.GetUserId(c), page, reviewsPerPage)
	if err != nil {
		handleDbError(c, err, "")
		return
	}

	html(c, "review_hist.html", "Review history", gin.H{
		"page": result,
	})
}

// deleteConfirm shows the selected reviews before deletion. Ownership is
// verified here as well; a selection containing a foreign id is tampering.
func (a *ReviewHistController) deleteConfirm(c *gin.Context) {
	if !security.ValidateCsrfToken(c, c.PostForm(security.FormField)) {
		redirectWithError(c, "An invalid operation was detected.", "reviews")
		return
	}

	reviewIds, err := validator.NormalizeReviewIds(c.PostFormArray("review_ids"))
	if err != nil {
		redirectWithError(c, idsErrorMessage(err), "reviews")
		return
	}

	reviews, err := a.reviewService.FetchOwned(session.GetUserId(c), reviewIds)
	if err != nil {
		handleDbError(c, err, "reviews")
		return
	}

	if len(reviews) != len(reviewIds) {
		redirectWithError(c, "Invalid value.", "reviews")
		return
	}

	html(c, "review_hist_delete_check.html", "Confirm deletion", gin.H{
		"reviews": reviews,
	})
}

// delete performs the all-or-nothing bulk deletion. The CSRF token is
// consumed so the confirmation form cannot be replayed, and the session id
// is rotated before the destructive work.
func (a *ReviewHistController) delete(c *gin.Context) {
	if err := session.Regenerate(c); err != nil {
		handleDbError(c, err, "reviews")
		return
	}

	if !security.ValidateCsrfTokenOnce(c, c.PostForm(security.FormField)) {
		redirectWithError(c, "An invalid operation was detected.", "")
		return
	}

	reviewIds, err := validator.NormalizeReviewIds(c.PostFormArray("review_ids"))
	if err != nil {
		redirectWithError(c, idsErrorMessage(err), "reviews")
		return
	}

	deleted, err := a.reviewService.BulkDelete(session.GetUserId(c), reviewIds)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOwnershipMismatch):
			redirectWithError(c, "Invalid value.", "reviews")
		case errors.Is(err, service.ErrDeleteFailed):
			redirectWithError(c, "The deletion failed.", "reviews")
		default:
			handleDbError(c, err, "reviews")
		}
		return
	}

	redirectWithSuccess(c, fmt.Sprintf("Deleted %d review(s).", deleted), "reviews")
}

func idsErrorMessage(err error) string {
	if errors.Is(err, validator.ErrNoSelection) {
		return "No reviews are selected for deletion."
	}
	return "Invalid value."
}
