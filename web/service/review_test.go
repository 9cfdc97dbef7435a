package service

import (
	"testing"

	"github.com/cinelog/cinelog/database"
	"github.com/cinelog/cinelog/database/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countRows(t *testing.T, m any) int64 {
	t.Helper()
	var count int64
	require.NoError(t, database.GetDB().Model(m).Count(&count).Error)
	return count
}

func TestAddReviewOnePerItem(t *testing.T) {
	resetTables(t)
	reviewService := ReviewService{}

	user := mustRegister(t, "rev@example.com")
	item := mustCreateItem(t, "Movie")

	require.NoError(t, reviewService.AddReview(user.Id, item.Id, 5, "first"))
	assert.ErrorIs(t, reviewService.AddReview(user.Id, item.Id, 3, "second"), ErrAlreadyReviewed)
	assert.EqualValues(t, 1, countRows(t, model.Review{}))

	// a different item is fine
	other := mustCreateItem(t, "Other")
	assert.NoError(t, reviewService.AddReview(user.Id, other.Id, 3, "second"))
}

func TestAddReplyTargetMustBelongToItem(t *testing.T) {
	resetTables(t)
	reviewService := ReviewService{}

	user := mustRegister(t, "rep@example.com")
	item := mustCreateItem(t, "Movie")
	other := mustCreateItem(t, "Other")
	require.NoError(t, reviewService.AddReview(user.Id, item.Id, 5, "first"))

	reviews, err := reviewService.ListByItem(item.Id)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	reviewId := reviews[0].Id

	require.NoError(t, reviewService.AddReply(user.Id, item.Id, reviewId, "me too"))

	// the id exists but belongs to a different item
	assert.ErrorIs(t, reviewService.AddReply(user.Id, other.Id, reviewId, "hi"), ErrReviewNotFound)
	// the id does not exist at all
	assert.ErrorIs(t, reviewService.AddReply(user.Id, item.Id, 9999, "hi"), ErrReviewNotFound)

	replies, err := reviewService.RepliesByReview([]int{reviewId})
	require.NoError(t, err)
	assert.Len(t, replies[reviewId], 1)
}

func TestHistoryJoinsItemTitles(t *testing.T) {
	resetTables(t)
	reviewService := ReviewService{}

	user := mustRegister(t, "hist@example.com")
	item := mustCreateItem(t, "Movie")
	require.NoError(t, reviewService.AddReview(user.Id, item.Id, 4, "nice"))

	page, err := reviewService.History(user.Id, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Rows, 1)
	assert.Equal(t, "Movie", page.Rows[0].ItemTitle)
	assert.EqualValues(t, 1, page.Total)
}

func TestFetchOwnedOnlyReturnsOwnRows(t *testing.T) {
	resetTables(t)
	reviewService := ReviewService{}

	alice := mustRegister(t, "alice@example.com")
	bob := mustRegister(t, "bob@example.com")
	item := mustCreateItem(t, "Movie")
	require.NoError(t, reviewService.AddReview(alice.Id, item.Id, 5, "alice"))
	require.NoError(t, reviewService.AddReview(bob.Id, item.Id, 1, "bob"))

	var all []model.Review
	require.NoError(t, database.GetDB().Find(&all).Error)
	ids := []int{all[0].Id, all[1].Id}

	owned, err := reviewService.FetchOwned(alice.Id, ids)
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, "alice", owned[0].Comment)
}

func TestBulkDeleteAllOrNothing(t *testing.T) {
	resetTables(t)
	reviewService := ReviewService{}

	alice := mustRegister(t, "alice@example.com")
	bob := mustRegister(t, "bob@example.com")
	itemA := mustCreateItem(t, "A")
	itemB := mustCreateItem(t, "B")
	require.NoError(t, reviewService.AddReview(alice.Id, itemA.Id, 5, "a1"))
	require.NoError(t, reviewService.AddReview(alice.Id, itemB.Id, 4, "a2"))
	require.NoError(t, reviewService.AddReview(bob.Id, itemA.Id, 1, "b1"))

	var aliceReviews, bobReviews []model.Review
	require.NoError(t, database.GetDB().Where("user_id = ?", alice.Id).Find(&aliceReviews).Error)
	require.NoError(t, database.GetDB().Where("user_id = ?", bob.Id).Find(&bobReviews).Error)

	// replies hang off alice's first review
	require.NoError(t, reviewService.AddReply(bob.Id, itemA.Id, aliceReviews[0].Id, "reply"))

	// a foreign id in the selection aborts the whole batch
	_, err := reviewService.BulkDelete(alice.Id, []int{aliceReviews[0].Id, bobReviews[0].Id})
	assert.ErrorIs(t, err, ErrOwnershipMismatch)
	assert.EqualValues(t, 3, countRows(t, model.Review{}))
	assert.EqualValues(t, 1, countRows(t, model.ReviewReply{}))

	// an unknown id likewise
	_, err = reviewService.BulkDelete(alice.Id, []int{aliceReviews[0].Id, 9999})
	assert.ErrorIs(t, err, ErrOwnershipMismatch)
	assert.EqualValues(t, 3, countRows(t, model.Review{}))

	// a clean selection removes the reviews together with their replies
	deleted, err := reviewService.BulkDelete(alice.Id, []int{aliceReviews[0].Id, aliceReviews[1].Id})
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)
	assert.EqualValues(t, 1, countRows(t, model.Review{}))
	assert.EqualValues(t, 0, countRows(t, model.ReviewReply{}))
}

func TestBulkDeleteEmptySelection(t *testing.T) {
	resetTables(t)
	reviewService := ReviewService{}

	user := mustRegister(t, "alice@example.com")
	_, err := reviewService.BulkDelete(user.Id, nil)
	assert.ErrorIs(t, err, ErrOwnershipMismatch)
}

func TestItemListAggregates(t *testing.T) {
	resetTables(t)
	itemService := ItemService{}
	reviewService := ReviewService{}

	alice := mustRegister(t, "alice@example.com")
	bob := mustRegister(t, "bob@example.com")
	rated := mustCreateItem(t, "Rated")
	unrated := mustCreateItem(t, "Unrated")
	require.NoError(t, reviewService.AddReview(alice.Id, rated.Id, 5, "a"))
	require.NoError(t, reviewService.AddReview(bob.Id, rated.Id, 2, "b"))

	page, err := itemService.List(1, 10)
	require.NoError(t, err)
	require.Len(t, page.Rows, 2)

	byTitle := map[string]ItemListRow{}
	for _, row := range page.Rows {
		byTitle[row.Title] = row
	}

	assert.True(t, byTitle["Rated"].HasRating())
	assert.InDelta(t, 3.5, byTitle["Rated"].Avg(), 0.001)
	assert.Equal(t, 2, byTitle["Rated"].RatingCount)

	assert.False(t, byTitle["Unrated"].HasRating())
	assert.Zero(t, byTitle["Unrated"].Avg())

	counts, err := itemService.RatingCounts(rated.Id)
	require.NoError(t, err)
	assert.Equal(t, map[int]int{1: 0, 2: 1, 3: 0, 4: 0, 5: 1}, counts)

	mean, err := itemService.MeanRating(rated.Id)
	require.NoError(t, err)
	assert.InDelta(t, 3.5, mean, 0.001)

	mean, err = itemService.MeanRating(unrated.Id)
	require.NoError(t, err)
	assert.Zero(t, mean)
}
