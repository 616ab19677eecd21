// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"driveline/internal/models"
	"driveline/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateReview handles POST /api/listings/:id/reviews
func (s *Server) CreateReview(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	review, err := s.reviewService.CreateReview(c.UserContext(), service.CreateReviewInput{
		AuthorID:  userID,
		ListingID: id,
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.Status(fiber.StatusCreated).JSON(review)
}

// GetReviews handles GET /api/listings/:id/reviews
func (s *Server) GetReviews(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	p := parsePagination(c, 20)

	reviews, err := s.reviewService.ListReviews(c.UserContext(), id, p.Limit, p.Offset)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(fiber.Map{"reviews": reviews})
}

// GetReviewSummary handles GET /api/listings/:id/reviews/summary
func (s *Server) GetReviewSummary(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	summary, err := s.reviewService.Summary(c.UserContext(), id)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(summary)
}

// DeleteReview handles DELETE /api/listings/:id/reviews/:reviewId. The
// review's author or an admin may delete it.
func (s *Server) DeleteReview(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	reviewID, err := s.parseID(c, "reviewId")
	if err != nil {
		return nil
	}

	if err := s.reviewService.DeleteReview(c.UserContext(), reviewID, userID); err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(fiber.Map{"message": "Review deleted"})
}
