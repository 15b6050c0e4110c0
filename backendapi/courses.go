package backendapi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/pkg/errors"
)

// GetCourse fetches a course by ID.
func (c *Client) GetCourse(ctx context.Context, courseID string) (*Course, error) {
	var course Course
	if err := c.do(ctx, http.MethodGet, "/api/courses/"+courseID, "", nil, &course); err != nil {
		return nil, errors.Wrap(err, "[Client.GetCourse]")
	}
	return &course, nil
}

// ConfirmPurchase reconciles an on-chain purchase with the backend's order
// and access records. The caller treats failures here as best-effort: the
// blockchain transaction is the source of truth for payment.
func (c *Client) ConfirmPurchase(ctx context.Context, accessToken string, req ConfirmPurchaseRequest) (*ConfirmPurchaseResult, error) {
	var result ConfirmPurchaseResult
	if err := c.do(ctx, http.MethodPost, "/api/purchases/confirm", accessToken, req, &result); err != nil {
		return nil, errors.Wrap(err, "[Client.ConfirmPurchase]")
	}
	return &result, nil
}

// CreateReview posts a review for a purchased course.
func (c *Client) CreateReview(ctx context.Context, accessToken, courseID string, rating int, comment string) (*Review, error) {
	var review Review
	if err := c.do(ctx, http.MethodPost, "/api/courses/"+courseID+"/reviews", accessToken, map[string]any{
		"rating":  rating,
		"comment": comment,
	}, &review); err != nil {
		return nil, errors.Wrap(err, "[Client.CreateReview]")
	}
	return &review, nil
}

// ListReviews pages through a course's reviews.
func (c *Client) ListReviews(ctx context.Context, courseID string, page, pageSize int) ([]Review, error) {
	path := "/api/courses/" + courseID + "/reviews?page=" + strconv.Itoa(page) + "&pageSize=" + strconv.Itoa(pageSize)
	var reviews []Review
	if err := c.do(ctx, http.MethodGet, path, "", nil, &reviews); err != nil {
		return nil, errors.Wrap(err, "[Client.ListReviews]")
	}
	return reviews, nil
}
