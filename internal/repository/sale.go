package repository

import (
	"context"
	"errors"

	"driveline/internal/cache"
	"driveline/internal/models"

	"gorm.io/gorm"
)

// SaleRepository defines persistence operations for completed sales.
type SaleRepository interface {
	Create(ctx context.Context, sale *models.Sale) error
	Complete(ctx context.Context, listing *models.Listing, sale *models.Sale) error
	GetByListingID(ctx context.Context, listingID uint) (*models.Sale, error)
	ListByBuyer(ctx context.Context, buyerID uint, limit, offset int) ([]*models.Sale, error)
	DeleteByListingID(ctx context.Context, listingID uint) error
}

type saleRepository struct {
	db *gorm.DB
}

// NewSaleRepository returns a new SaleRepository implementation.
func NewSaleRepository(db *gorm.DB) SaleRepository {
	return &saleRepository{db: db}
}

// Create inserts the sale record. The unique index on listing_id is the
// arbiter for concurrent sales of the same listing: the loser of the race
// gets an AlreadySold error instead of a second row.
func (r *saleRepository) Create(ctx context.Context, sale *models.Sale) error {
	if err := r.db.WithContext(ctx).Create(sale).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.NewAlreadySoldError(sale.ListingID)
		}
		return models.NewInternalError(err)
	}
	return nil
}

// Complete persists the sold listing and its sale record in one
// transaction. When two buyers race, the unique index on listing_id fails
// the second insert and the whole transaction rolls back, so the listing
// never flips to sold without a matching sale row.
func (r *saleRepository) Complete(ctx context.Context, listing *models.Listing, sale *models.Sale) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(listing).Error; err != nil {
			return err
		}
		return tx.Create(sale).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.NewAlreadySoldError(sale.ListingID)
		}
		return models.NewInternalError(err)
	}
	cache.InvalidateListing(ctx, listing.ID)
	cache.InvalidateListingsList(ctx)
	return nil
}

func (r *saleRepository) GetByListingID(ctx context.Context, listingID uint) (*models.Sale, error) {
	var sale models.Sale
	err := r.db.WithContext(ctx).
		Preload("Buyer").
		Where("listing_id = ?", listingID).
		First(&sale).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Sale", listingID)
		}
		return nil, models.NewInternalError(err)
	}
	return &sale, nil
}

func (r *saleRepository) ListByBuyer(ctx context.Context, buyerID uint, limit, offset int) ([]*models.Sale, error) {
	var sales []*models.Sale
	q := r.db.WithContext(ctx).Where("buyer_id = ?", buyerID)
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	if err := q.Order("sold_at DESC").Find(&sales).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return sales, nil
}

// DeleteByListingID removes the sale row when its listing is hard deleted.
func (r *saleRepository) DeleteByListingID(ctx context.Context, listingID uint) error {
	if err := r.db.WithContext(ctx).Where("listing_id = ?", listingID).Delete(&models.Sale{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
