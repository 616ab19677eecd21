// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"driveline/internal/models"
	"driveline/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CompleteSale handles POST /api/listings/:id/sold. Only the seller (or an
// admin) may complete a sale, and a listing can be sold exactly once.
func (s *Server) CompleteSale(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		BuyerID uint `json:"buyer_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.BuyerID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("buyer_id is required"))
	}

	sale, err := s.saleService.CompleteSale(c.UserContext(), service.CompleteSaleInput{
		ActorID:   userID,
		ListingID: id,
		BuyerID:   req.BuyerID,
	})
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.Status(fiber.StatusCreated).JSON(sale)
}

// GetListingSale handles GET /api/listings/:id/sale
func (s *Server) GetListingSale(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	sale, err := s.saleService.GetSale(c.UserContext(), id)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(sale)
}

// GetMyPurchases handles GET /api/users/me/purchases
func (s *Server) GetMyPurchases(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	p := parsePagination(c, 20)

	sales, err := s.saleService.PurchasesByBuyer(c.UserContext(), userID, p.Limit, p.Offset)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(fiber.Map{"purchases": sales})
}
