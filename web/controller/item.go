package controller

import (
	"errors"
	"strconv"

	"github.com/cinelog/cinelog/web/security"
	"github.com/cinelog/cinelog/web/service"
	"github.com/cinelog/cinelog/web/session"
	"github.com/cinelog/cinelog/web/validator"

	json "github.com/goccy/go-json"

	"github.com/gin-gonic/gin"
)

const itemsPerPage = 10

// ReviewForm represents an add_review submission.
type ReviewForm struct {
	Action    string `form:"action"`
	Rating    int    `form:"rating"`
	Comment   string `form:"comment"`
	CsrfToken string `form:"csrf_token"`
}

// ReplyForm represents an add_reply submission.
type ReplyForm struct {
	Action    string `form:"action"`
	ReviewId  int    `form:"review_id"`
	ReplyText string `form:"reply_text"`
	CsrfToken string `form:"csrf_token"`
}

// ItemController handles the item list and the detail page with its review
// and reply forms.
type ItemController struct {
	itemService   service.ItemService
	reviewService service.ReviewService
}

func NewItemController(g *gin.RouterGroup) *ItemController {
	a := &ItemController{}
	a.initRouter(g)
	return a
}

func (a *ItemController) initRouter(g *gin.RouterGroup) {
	g.GET("/items", a.list)
	g.GET("/items/:id", a.detail)
	g.POST("/items/:id", a.post)
}

// list renders the paginated item list. Guests may browse.
func (a *ItemController) list(c *gin.Context) {
	page, err := pageParam(c)
	if err != nil {
		redirectWithError(c, "Invalid access. Please start from a valid page.", "")
		return
	}

	result, err := a.itemService.List(page, itemsPerPage)
	if err != nil {
		handleDbError(c, err, "")
		return
	}

	html(c, "item_list.html", "Items", gin.H{
		"page": result,
	})
}

// detail renders an item with its reviews, replies and rating statistics.
func (a *ItemController) detail(c *gin.Context) {
	itemId, err := strconv.Atoi(c.Param("id"))
	if err != nil || itemId <= 0 {
		redirectWithError(c, "Invalid access.", "")
		return
	}

	item, err := a.itemService.Get(itemId)
	if err != nil {
		if errors.Is(err, service.ErrItemNotFound) {
			redirectWithError(c, "The item was not found.", "")
			return
		}
		handleDbError(c, err, "")
		return
	}

	reviews, err := a.reviewService.ListByItem(itemId)
	if err != nil {
		handleDbError(c, err, "")
		return
	}

	reviewIds := make([]int, 0, len(reviews))
	for _, review := range reviews {
		reviewIds = append(reviewIds, review.Id)
	}
	replies, err := a.reviewService.RepliesByReview(reviewIds)
	if err != nil {
		handleDbError(c, err, "")
		return
	}

	counts, err := a.itemService.RatingCounts(itemId)
	if err != nil {
		handleDbError(c, err, "")
		return
	}
	mean, err := a.itemService.MeanRating(itemId)
	if err != nil {
		handleDbError(c, err, "")
		return
	}

	// Chart payload: counts for ratings 1..5 in order.
	chartData, err := json.Marshal([]int{counts[1], counts[2], counts[3], counts[4], counts[5]})
	if err != nil {
		handleDbError(c, err, "")
		return
	}

	html(c, "item_detail.html", item.Title, gin.H{
		"item":         item,
		"reviews":      reviews,
		"replies":      replies,
		"mean":         mean,
		"mean_percent": mean / 5 * 100,
		"has_rating":   len(reviews) > 0,
		"chart_data":   string(chartData),
		"old":          session.TakeOld(c),
	})
}

// post dispatches the detail page's POST actions: add_review or add_reply.
// Anything else is rejected.
func (a *ItemController) post(c *gin.Context) {
	itemId, err := strconv.Atoi(c.Param("id"))
	if err != nil || itemId <= 0 {
		redirectWithError(c, "Invalid access.", "")
		return
	}
	location := "items/" + strconv.Itoa(itemId)

	if !security.ValidateCsrfToken(c, c.PostForm(security.FormField)) {
		redirectWithError(c, "An invalid operation was detected.", location)
		return
	}

	// The forms are hidden from guests, but a direct POST must be refused
	// server-side all the same.
	if !session.IsLogin(c) {
		redirectWithError(c, "Please log in first.", location)
		return
	}

	switch c.PostForm("action") {
	case "add_review":
		a.addReview(c, itemId, location)
	case "add_reply":
		a.addReply(c, itemId, location)
	default:
		redirectWithError(c, "Invalid operation.", location)
	}
}

func (a *ItemController) addReview(c *gin.Context, itemId int, location string) {
	var form ReviewForm
	if err := c.ShouldBind(&form); err != nil {
		redirectWithError(c, "Invalid access.", location)
		return
	}

	reject := func(msgs ...string) {
		session.AddErrors(c, msgs)
		session.SetOld(c, map[string]string{
			"comment": form.Comment,
			"rating":  strconv.Itoa(form.Rating),
		})
		redirectTo(c, location)
	}

	if errs := validator.ValidateAddReview(form.Comment, form.Rating); len(errs) > 0 {
		reject(errs...)
		return
	}

	userId := session.GetUserId(c)
	err := a.reviewService.AddReview(userId, itemId, form.Rating, trimmed(form.Comment))
	if err != nil {
		if errors.Is(err, service.ErrAlreadyReviewed) {
			reject("Only one review per item is allowed.")
			return
		}
		handleDbError(c, err, location)
		return
	}

	redirectWithSuccess(c, "Your review has been posted.", location)
}

func (a *ItemController) addReply(c *gin.Context, itemId int, location string) {
	var form ReplyForm
	if err := c.ShouldBind(&form); err != nil {
		redirectWithError(c, "Invalid access.", location)
		return
	}

	if errs := validator.ValidateAddReply(form.ReplyText, form.ReviewId); len(errs) > 0 {
		session.AddErrors(c, errs)
		redirectTo(c, location)
		return
	}

	userId := session.GetUserId(c)
	err := a.reviewService.AddReply(userId, itemId, form.ReviewId, trimmed(form.ReplyText))
	if err != nil {
		if errors.Is(err, service.ErrReviewNotFound) {
			redirectWithError(c, "The reply target review does not exist.", location)
			return
		}
		handleDbError(c, err, location)
		return
	}

	redirectWithSuccess(c, "Your reply has been posted.", location)
}

// pageParam reads the page query parameter, defaulting to 1. A page below 1
// is invalid access rather than a clamp case.
func pageParam(c *gin.Context) (int, error) {
	raw := c.DefaultQuery("page", "1")
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 0, errors.New("invalid page")
	}
	return page, nil
}
