package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"driveline/internal/models"
)

func setupSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Listing{}, &models.Sale{}))
	return db
}

func TestListingRepository_SoftDeleteRestoreRoundTrip(t *testing.T) {
	db := setupSQLiteDB(t)
	ctx := context.Background()
	repo := NewListingRepository(db)

	require.NoError(t, db.Create(&models.User{Username: "seller_jane", Email: "jane@example.com", Password: "x"}).Error)

	listing := &models.Listing{
		OwnerID:      1,
		CategoryID:   1,
		MakeID:       2,
		ModelID:      3,
		Title:        "2019 Toyota Corolla",
		Description:  "Well maintained, single owner.",
		Price:        15500,
		Year:         2019,
		Mileage:      42000,
		Color:        "silver",
		Transmission: "automatic",
		FuelType:     "petrol",
		BodyType:     "sedan",
		Condition:    "used",
		City:         "Austin",
		Features:     []string{"air conditioning", "cruise control"},
		Images:       []string{"listings/1/a.webp", "listings/1/b.webp"},
		Thumbnail:    "listings/1/thumb.webp",
		Status:       models.ListingStatusActive,
	}
	require.NoError(t, repo.Create(ctx, listing))

	before, err := repo.GetByID(ctx, listing.ID, false)
	require.NoError(t, err)

	require.NoError(t, repo.SoftDelete(ctx, listing.ID))

	// Tombstoned rows drop out of default reads but stay reachable unscoped.
	_, err = repo.GetByID(ctx, listing.ID, false)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)

	trashed, err := repo.GetByID(ctx, listing.ID, true)
	require.NoError(t, err)
	assert.True(t, trashed.DeletedAt.Valid)

	require.NoError(t, repo.Restore(ctx, listing.ID))

	after, err := repo.GetByID(ctx, listing.ID, false)
	require.NoError(t, err)
	assert.False(t, after.DeletedAt.Valid)

	// Restore may only clear the tombstone. Every other field must come
	// back exactly as it was before the delete.
	normalize := func(l *models.Listing) models.Listing {
		c := *l
		c.UpdatedAt = before.UpdatedAt
		c.DeletedAt = gorm.DeletedAt{}
		return c
	}
	assert.Equal(t, normalize(before), normalize(after))

	listings, total, err := repo.List(ctx, ListingFilters{Status: models.ListingStatusActive})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, listings, 1)
	assert.Equal(t, listing.ID, listings[0].ID)
}
