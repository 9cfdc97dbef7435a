package validator

import "strings"

// ValidateAddReview checks a review submission: non-blank comment and a
// rating within 1 to 5.
func ValidateAddReview(comment string, rating int) []string {
	var errors []string

	if strings.TrimSpace(comment) == "" {
		errors = append(errors, "The review comment is empty.")
	}

	if rating < 1 || rating > 5 {
		errors = append(errors, "Choose a rating between 1 and 5.")
	}

	return errors
}

// ValidateAddReply checks a reply submission: a positive target review id
// and a non-blank reply text.
func ValidateAddReply(replyText string, reviewId int) []string {
	var errors []string

	if reviewId <= 0 {
		errors = append(errors, "The reply target review is invalid.")
	}

	if strings.TrimSpace(replyText) == "" {
		errors = append(errors, "The reply text is empty.")
	}

	return errors
}
