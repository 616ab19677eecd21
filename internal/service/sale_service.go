package service

import (
	"context"
	"errors"
	"time"

	"driveline/internal/models"
	"driveline/internal/observability"
	"driveline/internal/repository"
)

type CompleteSaleInput struct {
	ActorID   uint
	ListingID uint
	BuyerID   uint
}

// SaleService completes listing sales. A listing can be sold exactly once;
// the repository's transactional Complete plus the unique sale index make
// that hold even under concurrent requests.
type SaleService struct {
	listings repository.ListingRepository
	sales    repository.SaleRepository
	users    repository.UserRepository
	notifier ActivityNotifier
	isAdmin  func(ctx context.Context, userID uint) (bool, error)
}

func NewSaleService(
	listings repository.ListingRepository,
	sales repository.SaleRepository,
	users repository.UserRepository,
	isAdmin func(ctx context.Context, userID uint) (bool, error),
) *SaleService {
	return &SaleService{
		listings: listings,
		sales:    sales,
		users:    users,
		isAdmin:  isAdmin,
	}
}

// SetNotifier attaches an activity feed publisher.
func (s *SaleService) SetNotifier(n ActivityNotifier) {
	s.notifier = n
}

// CompleteSale marks a listing as sold to the given buyer. Only the seller
// (or an admin acting for them) may complete the sale, the buyer must be a
// real user other than the seller, and the listing must still be active.
func (s *SaleService) CompleteSale(ctx context.Context, in CompleteSaleInput) (*models.Sale, error) {
	if in.ActorID == 0 {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	if in.BuyerID == 0 {
		return nil, models.NewInvalidBuyerError("buyer_id is required")
	}

	listing, err := s.listings.GetByID(ctx, in.ListingID, false)
	if err != nil {
		return nil, err
	}

	if listing.OwnerID != in.ActorID {
		admin := false
		if s.isAdmin != nil {
			admin, err = s.isAdmin(ctx, in.ActorID)
			if err != nil {
				return nil, err
			}
		}
		if !admin {
			return nil, models.NewForbiddenError("Only the seller can complete this sale")
		}
	}

	if in.BuyerID == listing.OwnerID {
		return nil, models.NewInvalidBuyerError("The seller cannot buy their own listing")
	}
	buyer, err := s.users.GetByID(ctx, in.BuyerID)
	if err != nil {
		return nil, models.NewInvalidBuyerError("Buyer not found")
	}

	if err := listing.MarkSold(); err != nil {
		observability.SaleConflicts.Inc()
		return nil, err
	}

	sale := &models.Sale{
		ListingID: listing.ID,
		BuyerID:   buyer.ID,
		Status:    models.SaleStatusSold,
		SoldAt:    time.Now().UTC(),
	}
	if err := s.sales.Complete(ctx, listing, sale); err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code == "ALREADY_SOLD" {
			observability.SaleConflicts.Inc()
		}
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.ListingSold(ctx, listing, sale)
	}
	return sale, nil
}

// GetSale returns the sale record for a listing.
func (s *SaleService) GetSale(ctx context.Context, listingID uint) (*models.Sale, error) {
	return s.sales.GetByListingID(ctx, listingID)
}

// PurchasesByBuyer lists a buyer's completed purchases, most recent first.
func (s *SaleService) PurchasesByBuyer(ctx context.Context, buyerID uint, limit, offset int) ([]*models.Sale, error) {
	if buyerID == 0 {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	if limit <= 0 {
		limit = 20
	}
	return s.sales.ListByBuyer(ctx, buyerID, limit, offset)
}
