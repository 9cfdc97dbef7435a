package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateAddReview(t *testing.T) {
	assert.Empty(t, ValidateAddReview("great movie", 3))

	assert.Contains(t, ValidateAddReview("", 3), "The review comment is empty.")
	assert.Contains(t, ValidateAddReview("   ", 3), "The review comment is empty.")
	assert.Contains(t, ValidateAddReview("fine", 0), "Choose a rating between 1 and 5.")
	assert.Contains(t, ValidateAddReview("fine", 6), "Choose a rating between 1 and 5.")

	errs := ValidateAddReview("", 0)
	assert.Len(t, errs, 2)
}

func TestValidateAddReply(t *testing.T) {
	assert.Empty(t, ValidateAddReply("me too", 1))

	assert.Contains(t, ValidateAddReply("me too", 0), "The reply target review is invalid.")
	assert.Contains(t, ValidateAddReply("me too", -3), "The reply target review is invalid.")
	assert.Contains(t, ValidateAddReply("", 1), "The reply text is empty.")
	assert.Contains(t, ValidateAddReply("  ", 1), "The reply text is empty.")
}

func TestNormalizeReviewIds(t *testing.T) {
	ids, err := NormalizeReviewIds([]string{"3", "1", "3", "abc", "-2", "0", "2"})
	assert.NoError(t, err)
	assert.Equal(t, []int{3, 1, 2}, ids)

	_, err = NormalizeReviewIds(nil)
	assert.ErrorIs(t, err, ErrNoSelection)

	_, err = NormalizeReviewIds([]string{})
	assert.ErrorIs(t, err, ErrNoSelection)

	_, err = NormalizeReviewIds([]string{"abc", "-1", "0"})
	assert.ErrorIs(t, err, ErrInvalidIds)
}

func TestNormalizePositiveIntIds(t *testing.T) {
	assert.Empty(t, NormalizePositiveIntIds([]string{"x", "0"}))
	assert.Equal(t, []int{5}, NormalizePositiveIntIds([]string{"5", "5", "5"}))
}
