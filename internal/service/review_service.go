package service

import (
	"context"
	"strings"

	"driveline/internal/models"
	"driveline/internal/repository"
)

const maxReviewCommentLen = 2000

type CreateReviewInput struct {
	AuthorID  uint
	ListingID uint
	Rating    int
	Comment   string
}

// ReviewSummary aggregates a listing's reviews.
type ReviewSummary struct {
	AverageRating float64 `json:"average_rating"`
	Count         int64   `json:"count"`
}

// ReviewService manages reviews left on listings.
type ReviewService struct {
	reviews  repository.ReviewRepository
	listings repository.ListingRepository
	isAdmin  func(ctx context.Context, userID uint) (bool, error)
}

func NewReviewService(
	reviews repository.ReviewRepository,
	listings repository.ListingRepository,
	isAdmin func(ctx context.Context, userID uint) (bool, error),
) *ReviewService {
	return &ReviewService{
		reviews:  reviews,
		listings: listings,
		isAdmin:  isAdmin,
	}
}

// CreateReview posts a review on a live listing. Owners cannot review their
// own listings.
func (s *ReviewService) CreateReview(ctx context.Context, in CreateReviewInput) (*models.Review, error) {
	if in.AuthorID == 0 {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	if in.Rating < 1 || in.Rating > 5 {
		return nil, models.NewValidationError("Rating must be between 1 and 5")
	}
	if len(in.Comment) > maxReviewCommentLen {
		return nil, models.NewValidationError("Comment too long (max 2000 characters)")
	}

	listing, err := s.listings.GetByID(ctx, in.ListingID, false)
	if err != nil {
		return nil, err
	}
	if listing.OwnerID == in.AuthorID {
		return nil, models.NewValidationError("You cannot review your own listing")
	}

	review := &models.Review{
		ListingID: listing.ID,
		AuthorID:  in.AuthorID,
		Rating:    in.Rating,
		Comment:   strings.TrimSpace(in.Comment),
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, err
	}
	return s.reviews.GetByID(ctx, review.ID)
}

// ListReviews returns a listing's reviews, newest first.
func (s *ReviewService) ListReviews(ctx context.Context, listingID uint, limit, offset int) ([]*models.Review, error) {
	if _, err := s.listings.GetByID(ctx, listingID, false); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}
	return s.reviews.ListByListing(ctx, listingID, limit, offset)
}

// Summary returns the average rating and review count for a listing.
func (s *ReviewService) Summary(ctx context.Context, listingID uint) (*ReviewSummary, error) {
	avg, count, err := s.reviews.AverageRating(ctx, listingID)
	if err != nil {
		return nil, err
	}
	return &ReviewSummary{AverageRating: avg, Count: count}, nil
}

// DeleteReview removes a review. Only its author or an admin may delete it.
func (s *ReviewService) DeleteReview(ctx context.Context, reviewID, actorID uint) error {
	if actorID == 0 {
		return models.NewUnauthorizedError("Authentication required")
	}
	review, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return err
	}
	if review.AuthorID != actorID {
		admin := false
		if s.isAdmin != nil {
			admin, err = s.isAdmin(ctx, actorID)
			if err != nil {
				return err
			}
		}
		if !admin {
			return models.NewForbiddenError("You cannot delete this review")
		}
	}
	return s.reviews.Delete(ctx, reviewID)
}
