package validator

import (
	"errors"
	"strconv"
)

// Errors returned by NormalizeReviewIds. The distinction matters for the
// user-facing message: nothing selected vs. a tampered submission.
var (
	ErrNoSelection = errors.New("no reviews selected for deletion")
	ErrInvalidIds  = errors.New("invalid value")
)

// NormalizeReviewIds turns the raw review_ids checkbox values into a safe id
// set: each element is coerced to int, non-positive values are dropped and
// duplicates removed. An absent input or an empty result after normalization
// is rejected outright.
func NormalizeReviewIds(raw []string) ([]int, error) {
	if len(raw) == 0 {
		return nil, ErrNoSelection
	}

	ids := NormalizePositiveIntIds(raw)
	if len(ids) == 0 {
		return nil, ErrInvalidIds
	}

	return ids, nil
}

// NormalizePositiveIntIds coerces each value to int, keeping only positive
// ones and removing duplicates while preserving order.
func NormalizePositiveIntIds(raw []string) []int {
	seen := make(map[int]bool, len(raw))
	ids := make([]int, 0, len(raw))

	for _, val := range raw {
		id, _ := strconv.Atoi(val)
		if id > 0 && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	return ids
}
