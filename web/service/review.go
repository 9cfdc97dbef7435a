package service

import (
	"errors"
	"time"

	"github.com/cinelog/cinelog/database"
	"github.com/cinelog/cinelog/database/model"
	"github.com/cinelog/cinelog/web/pagination"

	"gorm.io/gorm"
)

var (
	ErrAlreadyReviewed   = errors.New("only one review per item is allowed")
	ErrReviewNotFound    = errors.New("the reply target review does not exist")
	ErrOwnershipMismatch = errors.New("invalid value")
	ErrDeleteFailed      = errors.New("the deletion failed")
)

type ReviewService struct{}

// ReviewWithUser is a review joined with its author for display. A withdrawn
// author leaves the user fields empty.
type ReviewWithUser struct {
	Id        int
	UserId    int
	Rating    int
	Comment   string
	CreatedAt time.Time
	UserName  string
	UserImage string
}

// HistoryRow is one of the user's own reviews joined with its item for the
// review history and bulk deletion screens.
type HistoryRow struct {
	Id        int
	ItemId    int
	ItemTitle string
	Rating    int
	Comment   string
	CreatedAt time.Time
}

// ReplyWithUser is a reply joined with its author for display.
type ReplyWithUser struct {
	Id        int
	ReviewId  int
	UserId    int
	Comment   string
	CreatedAt time.Time
	UserName  string
	UserImage string
}

// AddReview inserts a review after re-checking the one-review-per-item rule
// inside the transaction.
func (s *ReviewService) AddReview(userId, itemId, rating int, comment string) error {
	return database.GetDB().Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&model.Review{}).
			Where("user_id = ? AND item_id = ?", userId, itemId).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrAlreadyReviewed
		}

		review := &model.Review{
			UserId:  userId,
			ItemId:  itemId,
			Rating:  rating,
			Comment: comment,
		}
		return tx.Create(review).Error
	})
}

// AddReply inserts a reply after confirming the target review belongs to the
// item the form was posted from.
func (s *ReviewService) AddReply(userId, itemId, reviewId int, text string) error {
	return database.GetDB().Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&model.Review{}).
			Where("id = ? AND item_id = ?", reviewId, itemId).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count == 0 {
			return ErrReviewNotFound
		}

		reply := &model.ReviewReply{
			ReviewId: reviewId,
			UserId:   userId,
			Comment:  text,
		}
		return tx.Create(reply).Error
	})
}

// ListByItem returns an item's reviews newest first, joined with their
// authors. LEFT JOIN keeps reviews from withdrawn users visible.
func (s *ReviewService) ListByItem(itemId int) ([]ReviewWithUser, error) {
	db := database.GetDB()

	var reviews []ReviewWithUser
	err := db.Table("reviews r").
		Select("r.id, r.user_id, r.rating, r.comment, r.created_at, u.name AS user_name, u.image AS user_image").
		Joins("LEFT JOIN users u ON u.id = r.user_id").
		Where("r.item_id = ?", itemId).
		Order("r.created_at DESC").
		Find(&reviews).Error
	return reviews, err
}

// RepliesByReview fetches all replies for the given reviews in one query and
// groups them by review id, oldest first.
func (s *ReviewService) RepliesByReview(reviewIds []int) (map[int][]ReplyWithUser, error) {
	result := map[int][]ReplyWithUser{}
	if len(reviewIds) == 0 {
		return result, nil
	}

	db := database.GetDB()

	var replies []ReplyWithUser
	err := db.Table("review_replies rr").
		Select("rr.id, rr.review_id, rr.user_id, rr.comment, rr.created_at, u.name AS user_name, u.image AS user_image").
		Joins("LEFT JOIN users u ON u.id = rr.user_id").
		Where("rr.review_id IN ?", reviewIds).
		Order("rr.created_at ASC").
		Find(&replies).Error
	if err != nil {
		return nil, err
	}

	for _, reply := range replies {
		result[reply.ReviewId] = append(result[reply.ReviewId], reply)
	}
	return result, nil
}

// History returns one page of the user's own reviews, newest first.
func (s *ReviewService) History(userId, page, perPage int) (*pagination.Page[HistoryRow], error) {
	db := database.GetDB()

	countQuery := db.Model(&model.Review{}).Where("user_id = ?", userId)
	rowQuery := db.Table("reviews r").
		Select("r.id, r.item_id, i.title AS item_title, r.rating, r.comment, r.created_at").
		Joins("LEFT JOIN items i ON i.id = r.item_id").
		Where("r.user_id = ?", userId).
		Order("r.created_at DESC")

	return pagination.Paginate[HistoryRow](countQuery, rowQuery, page, perPage)
}

// FetchOwned returns, of the requested ids, only the reviews the user owns.
// The ownership condition is part of the SQL predicate, never filtered
// after the fact.
func (s *ReviewService) FetchOwned(userId int, reviewIds []int) ([]HistoryRow, error) {
	db := database.GetDB()

	var reviews []HistoryRow
	err := db.Table("reviews r").
		Select("r.id, r.item_id, i.title AS item_title, r.rating, r.comment, r.created_at").
		Joins("LEFT JOIN items i ON i.id = r.item_id").
		Where("r.user_id = ? AND r.id IN ?", userId, reviewIds).
		Order("r.created_at DESC").
		Find(&reviews).Error
	return reviews, err
}

// BulkDelete removes the user's reviews as a unit. When any requested id is
// not owned by the user the whole operation is treated as tampering and
// nothing is deleted. Replies go first so the result never depends on the
// storage engine's cascade configuration. A row-count mismatch rolls the
// transaction back.
func (s *ReviewService) BulkDelete(userId int, reviewIds []int) (int, error) {
	deleted := 0
	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		var ownedIds []int
		err := tx.Model(&model.Review{}).
			Where("user_id = ? AND id IN ?", userId, reviewIds).
			Pluck("id", &ownedIds).Error
		if err != nil {
			return err
		}

		if len(ownedIds) == 0 || len(ownedIds) != len(reviewIds) {
			return ErrOwnershipMismatch
		}

		if err := tx.Delete(&model.ReviewReply{}, "review_id IN ?", ownedIds).Error; err != nil {
			return err
		}

		result := tx.Delete(&model.Review{}, "user_id = ? AND id IN ?", userId, ownedIds)
		if result.Error != nil {
			return result.Error
		}
		if int(result.RowsAffected) != len(ownedIds) {
			return ErrDeleteFailed
		}

		deleted = int(result.RowsAffected)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}
