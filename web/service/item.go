package service

import (
	"errors"

	"github.com/cinelog/cinelog/database"
	"github.com/cinelog/cinelog/database/model"
	"github.com/cinelog/cinelog/web/pagination"

	"gorm.io/gorm"
)

var ErrItemNotFound = errors.New("the item was not found")

type ItemService struct{}

// ItemListRow is one row of the paginated item list, with the aggregated
// rating pulled in by the LEFT JOIN.
type ItemListRow struct {
	Id          int
	Title       string
	Image       string
	AvgRating   *float64
	RatingCount int
}

func (r ItemListRow) HasRating() bool {
	return r.AvgRating != nil
}

func (r ItemListRow) Avg() float64 {
	if r.AvgRating == nil {
		return 0
	}
	return *r.AvgRating
}

// List returns one page of items ordered by id, each with its average rating
// and rating count. Items without reviews carry a nil average.
func (s *ItemService) List(page, perPage int) (*pagination.Page[ItemListRow], error) {
	db := database.GetDB()

	countQuery := db.Model(&model.Item{})
	rowQuery := db.Table("items i").
		Select("i.id, i.title, i.image, AVG(r.rating) AS avg_rating, COUNT(r.rating) AS rating_count").
		Joins("LEFT JOIN reviews r ON i.id = r.item_id").
		Group("i.id, i.title, i.image").
		Order("i.id")

	return pagination.Paginate[ItemListRow](countQuery, rowQuery, page, perPage)
}

func (s *ItemService) Get(id int) (*model.Item, error) {
	db := database.GetDB()

	item := &model.Item{}
	err := db.First(item, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrItemNotFound
	} else if err != nil {
		return nil, err
	}
	return item, nil
}

// Create inserts a new item. Admin-only; the caller enforces the role.
func (s *ItemService) Create(item *model.Item) error {
	return database.GetDB().Create(item).Error
}

// RatingCounts returns the review count per rating value, zero-filled so
// positions 1 through 5 are always present.
func (s *ItemService) RatingCounts(itemId int) (map[int]int, error) {
	db := database.GetDB()

	var rows []struct {
		Rating int
		Cnt    int
	}
	err := db.Model(&model.Review{}).
		Select("rating, COUNT(*) AS cnt").
		Where("item_id = ?", itemId).
		Group("rating").
		Order("rating").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}
	for _, row := range rows {
		if row.Rating >= 1 && row.Rating <= 5 {
			counts[row.Rating] = row.Cnt
		}
	}
	return counts, nil
}

// MeanRating returns the average rating, or 0 when the item has no reviews.
func (s *ItemService) MeanRating(itemId int) (float64, error) {
	db := database.GetDB()

	var mean *float64
	err := db.Model(&model.Review{}).
		Select("AVG(rating)").
		Where("item_id = ?", itemId).
		Scan(&mean).Error
	if err != nil {
		return 0, err
	}
	if mean == nil {
		return 0, nil
	}
	return *mean, nil
}
