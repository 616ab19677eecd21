// Package repository implements the data access layer for the application.
package repository

import (
	"context"
	"errors"
	"strings"

	"driveline/internal/cache"
	"driveline/internal/models"

	"gorm.io/gorm"
)

// ListingFilters narrows and orders a listing query. Zero values mean
// "no constraint" for every field.
type ListingFilters struct {
	Query        string
	OwnerID      uint
	CategoryID   uint
	MakeID       uint
	ModelID      uint
	City         string
	MinPrice     float64
	MaxPrice     float64
	MinYear      int
	MaxYear      int
	MaxMileage   int
	Transmission string
	FuelType     string
	BodyType     string
	Condition    string
	Status       models.ListingStatus
	Featured     *bool
	Sort         string
	Limit        int
	Offset       int
}

// ListingRepository defines persistence operations for vehicle listings.
type ListingRepository interface {
	Create(ctx context.Context, listing *models.Listing) error
	GetByID(ctx context.Context, id uint, includeTrashed bool) (*models.Listing, error)
	List(ctx context.Context, filters ListingFilters) ([]*models.Listing, int64, error)
	Update(ctx context.Context, listing *models.Listing) error
	SoftDelete(ctx context.Context, id uint) error
	Restore(ctx context.Context, id uint) error
	HardDelete(ctx context.Context, id uint) error
	Trashed(ctx context.Context, ownerID uint, limit, offset int) ([]*models.Listing, error)
	CountByOwner(ctx context.Context, ownerID uint) (int64, error)
}

type listingRepository struct {
	db *gorm.DB
}

// NewListingRepository returns a new ListingRepository implementation.
func NewListingRepository(db *gorm.DB) ListingRepository {
	return &listingRepository{db: db}
}

func (r *listingRepository) Create(ctx context.Context, listing *models.Listing) error {
	if err := r.db.WithContext(ctx).Create(listing).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateListingsList(ctx)
	return nil
}

func (r *listingRepository) GetByID(ctx context.Context, id uint, includeTrashed bool) (*models.Listing, error) {
	var listing models.Listing

	fetch := func() error {
		q := r.db.WithContext(ctx)
		if includeTrashed {
			q = q.Unscoped()
		}
		err := q.
			Preload("Owner").
			Preload("Sale").
			First(&listing, id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Listing", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	}

	// Trashed reads bypass the cache so a tombstoned row never masquerades
	// as live.
	var err error
	if includeTrashed {
		err = fetch()
	} else {
		err = cache.Aside(ctx, cache.ListingKey(id), &listing, cache.ListingTTL, fetch)
	}
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

func (r *listingRepository) List(ctx context.Context, filters ListingFilters) ([]*models.Listing, int64, error) {
	var listings []*models.Listing
	var total int64

	base := r.applyFilters(r.db.WithContext(ctx).Model(&models.Listing{}), filters)
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	q := r.applySort(base, filters.Sort).
		Preload("Owner").
		Preload("Sale")
	if filters.Limit > 0 {
		q = q.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		q = q.Offset(filters.Offset)
	}
	if err := q.Find(&listings).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return listings, total, nil
}

func (r *listingRepository) applyFilters(db *gorm.DB, f ListingFilters) *gorm.DB {
	if q := strings.TrimSpace(f.Query); q != "" {
		like := "%" + q + "%"
		db = db.Where("title ILIKE ? OR description ILIKE ?", like, like)
	}
	if f.OwnerID != 0 {
		db = db.Where("owner_id = ?", f.OwnerID)
	}
	if f.CategoryID != 0 {
		db = db.Where("category_id = ?", f.CategoryID)
	}
	if f.MakeID != 0 {
		db = db.Where("make_id = ?", f.MakeID)
	}
	if f.ModelID != 0 {
		db = db.Where("model_id = ?", f.ModelID)
	}
	if f.City != "" {
		db = db.Where("city = ?", f.City)
	}
	if f.MinPrice > 0 {
		db = db.Where("price >= ?", f.MinPrice)
	}
	if f.MaxPrice > 0 {
		db = db.Where("price <= ?", f.MaxPrice)
	}
	if f.MinYear > 0 {
		db = db.Where("year >= ?", f.MinYear)
	}
	if f.MaxYear > 0 {
		db = db.Where("year <= ?", f.MaxYear)
	}
	if f.MaxMileage > 0 {
		db = db.Where("mileage <= ?", f.MaxMileage)
	}
	if f.Transmission != "" {
		db = db.Where("transmission = ?", f.Transmission)
	}
	if f.FuelType != "" {
		db = db.Where("fuel_type = ?", f.FuelType)
	}
	if f.BodyType != "" {
		db = db.Where("body_type = ?", f.BodyType)
	}
	if f.Condition != "" {
		db = db.Where("condition = ?", f.Condition)
	}
	if f.Status != "" {
		db = db.Where("status = ?", f.Status)
	}
	if f.Featured != nil {
		db = db.Where("featured = ?", *f.Featured)
	}
	return db
}

// applySort appends the ORDER BY clause for the requested sort type.
func (r *listingRepository) applySort(db *gorm.DB, sort string) *gorm.DB {
	switch sort {
	case "price_asc":
		return db.Order("price ASC, created_at DESC")
	case "price_desc":
		return db.Order("price DESC, created_at DESC")
	case "year_desc":
		return db.Order("year DESC, created_at DESC")
	case "mileage_asc":
		return db.Order("mileage ASC, created_at DESC")
	case "featured":
		return db.Order("featured DESC, created_at DESC")
	default: // "newest" and anything unrecognized
		return db.Order("created_at DESC")
	}
}

func (r *listingRepository) Update(ctx context.Context, listing *models.Listing) error {
	if err := r.db.WithContext(ctx).Save(listing).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateListing(ctx, listing.ID)
	cache.InvalidateListingsList(ctx)
	return nil
}

func (r *listingRepository) SoftDelete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Listing{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Listing", id)
	}
	cache.InvalidateListing(ctx, id)
	cache.InvalidateListingsList(ctx)
	return nil
}

func (r *listingRepository) Restore(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).
		Unscoped().
		Model(&models.Listing{}).
		Where("id = ? AND deleted_at IS NOT NULL", id).
		Update("deleted_at", nil)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Listing", id)
	}
	cache.InvalidateListing(ctx, id)
	cache.InvalidateListingsList(ctx)
	return nil
}

func (r *listingRepository) HardDelete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Unscoped().Delete(&models.Listing{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Listing", id)
	}
	cache.InvalidateListing(ctx, id)
	cache.InvalidateListingsList(ctx)
	return nil
}

func (r *listingRepository) Trashed(ctx context.Context, ownerID uint, limit, offset int) ([]*models.Listing, error) {
	var listings []*models.Listing
	q := r.db.WithContext(ctx).
		Unscoped().
		Where("deleted_at IS NOT NULL")
	if ownerID != 0 {
		q = q.Where("owner_id = ?", ownerID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	if err := q.Order("deleted_at DESC").Find(&listings).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return listings, nil
}

func (r *listingRepository) CountByOwner(ctx context.Context, ownerID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Listing{}).
		Where("owner_id = ?", ownerID).
		Count(&count).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}
