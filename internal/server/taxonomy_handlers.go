// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"strings"

	"driveline/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetCategories handles GET /api/catalog/categories
func (s *Server) GetCategories(c *fiber.Ctx) error {
	categories, err := s.taxonomyRepo.Categories(c.UserContext())
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.JSON(fiber.Map{"categories": categories})
}

// GetCategoryBySlug handles GET /api/catalog/categories/:slug
func (s *Server) GetCategoryBySlug(c *fiber.Ctx) error {
	slug := strings.TrimSpace(c.Params("slug"))
	if slug == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid category slug"))
	}

	category, err := s.taxonomyRepo.CategoryBySlug(c.UserContext(), slug)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.JSON(category)
}

// GetMakes handles GET /api/catalog/makes
func (s *Server) GetMakes(c *fiber.Ctx) error {
	makes, err := s.taxonomyRepo.Makes(c.UserContext())
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.JSON(fiber.Map{"makes": makes})
}

// GetMakeModels handles GET /api/catalog/makes/:id/models
func (s *Server) GetMakeModels(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	vehicleModels, err := s.taxonomyRepo.ModelsByMake(c.UserContext(), id)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.JSON(fiber.Map{"models": vehicleModels})
}

// CreateCategory handles POST /api/admin/catalog/categories
func (s *Server) CreateCategory(c *fiber.Ctx) error {
	var req struct {
		Name string `json:"name"`
		Slug string `json:"slug"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Slug = strings.TrimSpace(strings.ToLower(req.Slug))
	if req.Name == "" || req.Slug == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Name and slug are required"))
	}

	category := &models.Category{Name: req.Name, Slug: req.Slug}
	if err := s.taxonomyRepo.CreateCategory(c.UserContext(), category); err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.Status(fiber.StatusCreated).JSON(category)
}

// CreateMake handles POST /api/admin/catalog/makes
func (s *Server) CreateMake(c *fiber.Ctx) error {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Name is required"))
	}

	mk := &models.Make{Name: req.Name}
	if err := s.taxonomyRepo.CreateMake(c.UserContext(), mk); err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.Status(fiber.StatusCreated).JSON(mk)
}

// CreateVehicleModel handles POST /api/admin/catalog/models
func (s *Server) CreateVehicleModel(c *fiber.Ctx) error {
	var req struct {
		MakeID uint   `json:"make_id"`
		Name   string `json:"name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.MakeID == 0 || req.Name == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("make_id and name are required"))
	}

	model := &models.VehicleModel{MakeID: req.MakeID, Name: req.Name}
	if err := s.taxonomyRepo.CreateModel(c.UserContext(), model); err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.Status(fiber.StatusCreated).JSON(model)
}
