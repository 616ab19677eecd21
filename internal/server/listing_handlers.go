// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"driveline/internal/models"
	"driveline/internal/repository"
	"driveline/internal/service"

	"github.com/gofiber/fiber/v2"
)

// listingListResponse is the paginated browse/search response.
type listingListResponse struct {
	Listings []*models.Listing `json:"listings"`
	Total    int64             `json:"total"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
}

// GetListings handles GET /api/listings and GET /api/listings/search.
// All filters are optional query parameters; the default view is active
// listings, newest first.
func (s *Server) GetListings(c *fiber.Ctx) error {
	filters := s.parseListingFilters(c)

	listings, total, err := s.listingService.ListListings(c.UserContext(), filters)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(listingListResponse{
		Listings: listings,
		Total:    total,
		Limit:    filters.Limit,
		Offset:   filters.Offset,
	})
}

// GetMyListings handles GET /api/listings/me
func (s *Server) GetMyListings(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	filters := s.parseListingFilters(c)
	filters.OwnerID = userID
	// Owners see their own listings regardless of status unless they filter.
	if c.Query("status") == "" {
		filters.Status = ""
	}

	listings, total, err := s.listingService.ListListings(c.UserContext(), filters)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(listingListResponse{
		Listings: listings,
		Total:    total,
		Limit:    filters.Limit,
		Offset:   filters.Offset,
	})
}

// GetListing handles GET /api/listings/:id
func (s *Server) GetListing(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	listing, err := s.listingService.GetListing(c.UserContext(), id)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(listing)
}

// CreateListing handles POST /api/listings. The request is multipart/form-data
// with the vehicle fields plus up to the configured number of "images" files.
func (s *Server) CreateListing(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	form, err := c.MultipartForm()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Expected multipart form data"))
	}

	in := service.CreateListingInput{
		OwnerID:      userID,
		CategoryID:   formUint(form, "category_id"),
		MakeID:       formUint(form, "make_id"),
		ModelID:      formUint(form, "model_id"),
		Title:        formString(form, "title"),
		Description:  formString(form, "description"),
		Price:        formFloat(form, "price"),
		Year:         formInt(form, "year"),
		Mileage:      formInt(form, "mileage"),
		Color:        formString(form, "color"),
		Transmission: formString(form, "transmission"),
		FuelType:     formString(form, "fuel_type"),
		BodyType:     formString(form, "body_type"),
		Condition:    formString(form, "condition"),
		City:         formString(form, "city"),
		Features:     form.Value["features"],
	}

	uploads, err := readImageFiles(form.File["images"])
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Unable to read uploaded image"))
	}
	in.Images = uploads

	listing, err := s.listingService.CreateListing(c.UserContext(), in)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.Status(fiber.StatusCreated).JSON(listing)
}

// UpdateListing handles PUT /api/listings/:id. Accepts multipart form data
// (images[] replaces the whole image set) or a plain JSON body for
// field-only updates. Absent fields are left unchanged.
func (s *Server) UpdateListing(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	in := service.UpdateListingInput{
		ActorID:   userID,
		ListingID: id,
	}

	if form, formErr := c.MultipartForm(); formErr == nil {
		in.Title = formOptString(form, "title")
		in.Description = formOptString(form, "description")
		in.Price = formOptFloat(form, "price")
		in.Mileage = formOptInt(form, "mileage")
		in.Color = formOptString(form, "color")
		in.City = formOptString(form, "city")
		if _, ok := form.Value["features"]; ok {
			in.Features = form.Value["features"]
		}
		in.RemoveImages = form.Value["remove_images"]

		uploads, readErr := readImageFiles(form.File["images"])
		if readErr != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Unable to read uploaded image"))
		}
		in.Images = uploads
	} else {
		var req struct {
			Title        *string  `json:"title"`
			Description  *string  `json:"description"`
			Price        *float64 `json:"price"`
			Mileage      *int     `json:"mileage"`
			Color        *string  `json:"color"`
			City         *string  `json:"city"`
			Features     []string `json:"features"`
			RemoveImages []string `json:"remove_images"`
		}
		if err := c.BodyParser(&req); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid request body"))
		}
		in.Title = req.Title
		in.Description = req.Description
		in.Price = req.Price
		in.Mileage = req.Mileage
		in.Color = req.Color
		in.City = req.City
		in.Features = req.Features
		in.RemoveImages = req.RemoveImages
	}

	listing, err := s.listingService.UpdateListing(c.UserContext(), in)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(listing)
}

// DeleteListing handles DELETE /api/listings/:id (soft delete).
func (s *Server) DeleteListing(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.listingService.SoftDeleteListing(c.UserContext(), id, userID); err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(fiber.Map{"message": "Listing moved to trash"})
}

// RestoreListing handles POST /api/listings/:id/restore.
func (s *Server) RestoreListing(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	listing, err := s.listingService.RestoreListing(c.UserContext(), id, userID)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(listing)
}

// ForceDeleteListing handles DELETE /api/listings/:id/force. The listing's
// images are removed from blob storage first; if that fails the row stays.
func (s *Server) ForceDeleteListing(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.listingService.HardDeleteListing(c.UserContext(), id, userID); err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(fiber.Map{"message": "Listing permanently deleted"})
}

// GetTrashedListings handles GET /api/listings/trash. Owners see their own
// trashed listings; admins see everyone's.
func (s *Server) GetTrashedListings(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	p := parsePagination(c, 20)

	listings, err := s.listingService.TrashedListings(c.UserContext(), userID, p.Limit, p.Offset)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(fiber.Map{"listings": listings})
}

// parseListingFilters builds repository filters from query parameters.
func (s *Server) parseListingFilters(c *fiber.Ctx) repository.ListingFilters {
	p := parsePagination(c, 20)

	filters := repository.ListingFilters{
		Query:        strings.TrimSpace(c.Query("q")),
		CategoryID:   uint(c.QueryInt("category_id", 0)),
		MakeID:       uint(c.QueryInt("make_id", 0)),
		ModelID:      uint(c.QueryInt("model_id", 0)),
		City:         strings.TrimSpace(c.Query("city")),
		MinPrice:     queryFloat(c, "min_price"),
		MaxPrice:     queryFloat(c, "max_price"),
		MinYear:      c.QueryInt("min_year", 0),
		MaxYear:      c.QueryInt("max_year", 0),
		MaxMileage:   c.QueryInt("max_mileage", 0),
		Transmission: c.Query("transmission"),
		FuelType:     c.Query("fuel_type"),
		BodyType:     c.Query("body_type"),
		Condition:    c.Query("condition"),
		Sort:         c.Query("sort"),
		Limit:        p.Limit,
		Offset:       p.Offset,
	}

	switch c.Query("status") {
	case "sold":
		filters.Status = models.ListingStatusSold
	case "all":
		filters.Status = ""
	default:
		filters.Status = models.ListingStatusActive
	}

	if featured := c.Query("featured"); featured != "" {
		v := featured == "true" || featured == "1"
		filters.Featured = &v
	}

	return filters
}

func queryFloat(c *fiber.Ctx, key string) float64 {
	raw := c.Query(key)
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// readImageFiles loads uploaded multipart files into memory for the service
// layer. Size limits are enforced by the service, not here.
func readImageFiles(files []*multipart.FileHeader) ([]service.ImageUpload, error) {
	uploads := make([]service.ImageUpload, 0, len(files))
	for _, file := range files {
		src, err := file.Open()
		if err != nil {
			return nil, err
		}
		content, err := io.ReadAll(src)
		_ = src.Close()
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, service.ImageUpload{
			Filename: file.Filename,
			Content:  content,
		})
	}
	return uploads, nil
}

func formString(form *multipart.Form, key string) string {
	if vals := form.Value[key]; len(vals) > 0 {
		return strings.TrimSpace(vals[0])
	}
	return ""
}

func formInt(form *multipart.Form, key string) int {
	v, _ := strconv.Atoi(formString(form, key))
	return v
}

func formUint(form *multipart.Form, key string) uint {
	v, err := strconv.ParseUint(formString(form, key), 10, 32)
	if err != nil {
		return 0
	}
	return uint(v)
}

func formFloat(form *multipart.Form, key string) float64 {
	v, _ := strconv.ParseFloat(formString(form, key), 64)
	return v
}

func formOptString(form *multipart.Form, key string) *string {
	if vals := form.Value[key]; len(vals) > 0 {
		v := strings.TrimSpace(vals[0])
		return &v
	}
	return nil
}

func formOptInt(form *multipart.Form, key string) *int {
	if vals := form.Value[key]; len(vals) > 0 {
		if v, err := strconv.Atoi(strings.TrimSpace(vals[0])); err == nil {
			return &v
		}
	}
	return nil
}

func formOptFloat(form *multipart.Form, key string) *float64 {
	if vals := form.Value[key]; len(vals) > 0 {
		if v, err := strconv.ParseFloat(strings.TrimSpace(vals[0]), 64); err == nil {
			return &v
		}
	}
	return nil
}
