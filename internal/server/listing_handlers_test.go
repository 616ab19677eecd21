package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"driveline/internal/models"
	"driveline/internal/repository"
	"driveline/internal/service"
	"driveline/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newListingTestServer(listings *stubListingRepo, sales *stubSaleRepo) (*fiber.App, *Server, *testutil.MemAssetStore) {
	assets := testutil.NewMemAssetStore()
	s := &Server{
		listingRepo: listings,
		saleRepo:    sales,
		listingService: service.NewListingService(
			listings, sales, assets, neverAdmin,
		),
	}

	app := fiber.New(fiber.Config{BodyLimit: 50 * 1024 * 1024})
	// Stand-in for AuthRequired: every request acts as user 1.
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("userID", uint(1))
		return c.Next()
	})
	app.Get("/listings", s.GetListings)
	app.Post("/listings", s.CreateListing)
	app.Get("/listings/trash", s.GetTrashedListings)
	app.Post("/listings/:id/restore", s.RestoreListing)
	app.Delete("/listings/:id/force", s.ForceDeleteListing)
	app.Put("/listings/:id", s.UpdateListing)
	app.Delete("/listings/:id", s.DeleteListing)
	app.Get("/listings/:id", s.GetListing)
	return app, s, assets
}

func activeListing(id, ownerID uint) *models.Listing {
	return &models.Listing{
		ID:           id,
		OwnerID:      ownerID,
		CategoryID:   1,
		MakeID:       1,
		ModelID:      1,
		Title:        "2018 Honda Civic",
		Description:  "Well maintained, one owner.",
		Price:        15500,
		Year:         2018,
		Mileage:      42000,
		Transmission: models.TransmissionManual,
		FuelType:     models.FuelPetrol,
		BodyType:     "sedan",
		Condition:    models.ConditionUsed,
		Status:       models.ListingStatusActive,
	}
}

func TestGetListing(t *testing.T) {
	listings := &stubListingRepo{
		GetByIDFn: func(ctx context.Context, id uint, includeTrashed bool) (*models.Listing, error) {
			if id == 1 {
				return activeListing(1, 2), nil
			}
			return nil, models.NewNotFoundError("Listing", id)
		},
	}
	app, _, _ := newListingTestServer(listings, &stubSaleRepo{})

	tests := []struct {
		name           string
		path           string
		expectedStatus int
	}{
		{"found", "/listings/1", http.StatusOK},
		{"not found", "/listings/99", http.StatusNotFound},
		{"invalid id", "/listings/abc", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
		})
	}
}

func TestGetListings_FilterParsing(t *testing.T) {
	var captured repository.ListingFilters
	listings := &stubListingRepo{
		ListFn: func(ctx context.Context, filters repository.ListingFilters) ([]*models.Listing, int64, error) {
			captured = filters
			return []*models.Listing{activeListing(1, 2)}, 1, nil
		},
	}
	app, _, _ := newListingTestServer(listings, &stubSaleRepo{})

	req := httptest.NewRequest(http.MethodGet,
		"/listings?q=civic&make_id=3&min_price=1000&max_price=20000&max_mileage=50000&city=Austin&sort=price_asc&limit=10", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, "civic", captured.Query)
	assert.Equal(t, uint(3), captured.MakeID)
	assert.Equal(t, float64(1000), captured.MinPrice)
	assert.Equal(t, float64(20000), captured.MaxPrice)
	assert.Equal(t, 50000, captured.MaxMileage)
	assert.Equal(t, "Austin", captured.City)
	assert.Equal(t, "price_asc", captured.Sort)
	assert.Equal(t, 10, captured.Limit)
	assert.Equal(t, models.ListingStatusActive, captured.Status)

	var body listingListResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, int64(1), body.Total)
	require.Len(t, body.Listings, 1)
}

func TestGetListings_StatusFilter(t *testing.T) {
	var captured repository.ListingFilters
	listings := &stubListingRepo{
		ListFn: func(ctx context.Context, filters repository.ListingFilters) ([]*models.Listing, int64, error) {
			captured = filters
			return nil, 0, nil
		},
	}
	app, _, _ := newListingTestServer(listings, &stubSaleRepo{})

	tests := []struct {
		query    string
		expected models.ListingStatus
	}{
		{"", models.ListingStatusActive},
		{"?status=sold", models.ListingStatusSold},
		{"?status=all", ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/listings"+tt.query, nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, tt.expected, captured.Status)
	}
}

func multipartListingForm(t *testing.T, images ...[]byte) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	fields := map[string]string{
		"title":        "2018 Honda Civic",
		"description":  "Well maintained, one owner.",
		"price":        "15500",
		"year":         "2018",
		"mileage":      "42000",
		"category_id":  "1",
		"make_id":      "1",
		"model_id":     "1",
		"transmission": models.TransmissionManual,
		"fuel_type":    models.FuelPetrol,
		"body_type":    "sedan",
		"condition":    models.ConditionUsed,
		"city":         "Austin",
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for i, img := range images {
		fw, err := w.CreateFormFile("images", "photo"+strconv.Itoa(i)+".jpg")
		require.NoError(t, err)
		_, err = io.Copy(fw, bytes.NewReader(img))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf, w.FormDataContentType()
}

func TestCreateListing_Multipart(t *testing.T) {
	var created *models.Listing
	listings := &stubListingRepo{
		CreateFn: func(ctx context.Context, listing *models.Listing) error {
			listing.ID = 10
			created = listing
			return nil
		},
	}
	app, _, assets := newListingTestServer(listings, &stubSaleRepo{})

	body, contentType := multipartListingForm(t, testutil.TinyJPEG(t, 320, 240))
	req := httptest.NewRequest(http.MethodPost, "/listings", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req, 30000)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	require.NotNil(t, created)
	assert.Equal(t, uint(1), created.OwnerID)
	assert.Equal(t, "2018 Honda Civic", created.Title)
	require.Len(t, created.Images, 1)
	assert.True(t, assets.Has(created.Images[0]))
	assert.NotEmpty(t, created.Thumbnail)
}

func TestCreateListing_ValidationFailureLeavesNoBlobs(t *testing.T) {
	listings := &stubListingRepo{}
	app, _, assets := newListingTestServer(listings, &stubSaleRepo{})

	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	require.NoError(t, w.WriteField("title", "x")) // too short
	fw, err := w.CreateFormFile("images", "photo.jpg")
	require.NoError(t, err)
	_, err = io.Copy(fw, bytes.NewReader(testutil.TinyJPEG(t, 100, 100)))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/listings", buf)
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := app.Test(req, 30000)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 0, assets.Len())
}

func TestDeleteListing_OwnerOnly(t *testing.T) {
	softDeleted := false
	listings := &stubListingRepo{
		GetByIDFn: func(ctx context.Context, id uint, includeTrashed bool) (*models.Listing, error) {
			if id == 1 {
				return activeListing(1, 1), nil // owned by caller
			}
			return activeListing(2, 9), nil // owned by someone else
		},
		SoftDeleteFn: func(ctx context.Context, id uint) error {
			softDeleted = true
			return nil
		},
	}
	app, _, _ := newListingTestServer(listings, &stubSaleRepo{})

	req := httptest.NewRequest(http.MethodDelete, "/listings/2", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.False(t, softDeleted)

	req = httptest.NewRequest(http.MethodDelete, "/listings/1", nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, softDeleted)
}

func TestUpdateListing_JSONBody(t *testing.T) {
	var updated *models.Listing
	listings := &stubListingRepo{
		GetByIDFn: func(ctx context.Context, id uint, includeTrashed bool) (*models.Listing, error) {
			return activeListing(1, 1), nil
		},
		UpdateFn: func(ctx context.Context, listing *models.Listing) error {
			updated = listing
			return nil
		},
	}
	app, _, _ := newListingTestServer(listings, &stubSaleRepo{})

	payload, err := json.Marshal(map[string]any{"price": 14000})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPut, "/listings/1", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NotNil(t, updated)
	assert.Equal(t, float64(14000), updated.Price)
	// Untouched fields survive a partial update.
	assert.Equal(t, "2018 Honda Civic", updated.Title)
}
