package service

import (
	"context"
	"errors"
	"testing"

	"driveline/internal/models"
	"driveline/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// listingRepoStub is a stub for repository.ListingRepository.
type listingRepoStub struct {
	createFn       func(context.Context, *models.Listing) error
	getByIDFn      func(context.Context, uint, bool) (*models.Listing, error)
	listFn         func(context.Context, repository.ListingFilters) ([]*models.Listing, int64, error)
	updateFn       func(context.Context, *models.Listing) error
	softDeleteFn   func(context.Context, uint) error
	restoreFn      func(context.Context, uint) error
	hardDeleteFn   func(context.Context, uint) error
	trashedFn      func(context.Context, uint, int, int) ([]*models.Listing, error)
	countByOwnerFn func(context.Context, uint) (int64, error)
}

func (s *listingRepoStub) Create(ctx context.Context, l *models.Listing) error {
	return s.createFn(ctx, l)
}
func (s *listingRepoStub) GetByID(ctx context.Context, id uint, includeTrashed bool) (*models.Listing, error) {
	return s.getByIDFn(ctx, id, includeTrashed)
}
func (s *listingRepoStub) List(ctx context.Context, f repository.ListingFilters) ([]*models.Listing, int64, error) {
	return s.listFn(ctx, f)
}
func (s *listingRepoStub) Update(ctx context.Context, l *models.Listing) error {
	return s.updateFn(ctx, l)
}
func (s *listingRepoStub) SoftDelete(ctx context.Context, id uint) error {
	return s.softDeleteFn(ctx, id)
}
func (s *listingRepoStub) Restore(ctx context.Context, id uint) error {
	return s.restoreFn(ctx, id)
}
func (s *listingRepoStub) HardDelete(ctx context.Context, id uint) error {
	return s.hardDeleteFn(ctx, id)
}
func (s *listingRepoStub) Trashed(ctx context.Context, ownerID uint, limit, offset int) ([]*models.Listing, error) {
	return s.trashedFn(ctx, ownerID, limit, offset)
}
func (s *listingRepoStub) CountByOwner(ctx context.Context, ownerID uint) (int64, error) {
	return s.countByOwnerFn(ctx, ownerID)
}

func noopListingRepo() *listingRepoStub {
	return &listingRepoStub{
		createFn: func(_ context.Context, l *models.Listing) error {
			l.ID = 1
			return nil
		},
		getByIDFn: func(_ context.Context, id uint, _ bool) (*models.Listing, error) {
			return &models.Listing{ID: id, OwnerID: 1, Status: models.ListingStatusActive}, nil
		},
		listFn: func(_ context.Context, _ repository.ListingFilters) ([]*models.Listing, int64, error) {
			return nil, 0, nil
		},
		updateFn:       func(_ context.Context, _ *models.Listing) error { return nil },
		softDeleteFn:   func(_ context.Context, _ uint) error { return nil },
		restoreFn:      func(_ context.Context, _ uint) error { return nil },
		hardDeleteFn:   func(_ context.Context, _ uint) error { return nil },
		trashedFn:      func(_ context.Context, _ uint, _, _ int) ([]*models.Listing, error) { return nil, nil },
		countByOwnerFn: func(_ context.Context, _ uint) (int64, error) { return 0, nil },
	}
}

// saleRepoStub is a stub for repository.SaleRepository.
type saleRepoStub struct {
	createFn            func(context.Context, *models.Sale) error
	completeFn          func(context.Context, *models.Listing, *models.Sale) error
	getByListingIDFn    func(context.Context, uint) (*models.Sale, error)
	listByBuyerFn       func(context.Context, uint, int, int) ([]*models.Sale, error)
	deleteByListingIDFn func(context.Context, uint) error
}

func (s *saleRepoStub) Create(ctx context.Context, sale *models.Sale) error {
	return s.createFn(ctx, sale)
}
func (s *saleRepoStub) Complete(ctx context.Context, l *models.Listing, sale *models.Sale) error {
	return s.completeFn(ctx, l, sale)
}
func (s *saleRepoStub) GetByListingID(ctx context.Context, listingID uint) (*models.Sale, error) {
	return s.getByListingIDFn(ctx, listingID)
}
func (s *saleRepoStub) ListByBuyer(ctx context.Context, buyerID uint, limit, offset int) ([]*models.Sale, error) {
	return s.listByBuyerFn(ctx, buyerID, limit, offset)
}
func (s *saleRepoStub) DeleteByListingID(ctx context.Context, listingID uint) error {
	return s.deleteByListingIDFn(ctx, listingID)
}

func noopSaleRepo() *saleRepoStub {
	return &saleRepoStub{
		createFn: func(_ context.Context, sale *models.Sale) error {
			sale.ID = 1
			return nil
		},
		completeFn: func(_ context.Context, _ *models.Listing, sale *models.Sale) error {
			sale.ID = 1
			return nil
		},
		getByListingIDFn: func(_ context.Context, listingID uint) (*models.Sale, error) {
			return &models.Sale{ID: 1, ListingID: listingID}, nil
		},
		listByBuyerFn:       func(_ context.Context, _ uint, _, _ int) ([]*models.Sale, error) { return nil, nil },
		deleteByListingIDFn: func(_ context.Context, _ uint) error { return nil },
	}
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn             func(context.Context, uint) (*models.User, error)
	getByIDWithListingsFn func(context.Context, uint, int) (*models.User, error)
	getByEmailFn          func(context.Context, string) (*models.User, error)
	getByUsernameFn       func(context.Context, string) (*models.User, error)
	createFn              func(context.Context, *models.User) error
	updateFn              func(context.Context, *models.User) error
	deleteFn              func(context.Context, uint) error
	listFn                func(context.Context, int, int) ([]models.User, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByIDWithListings(ctx context.Context, id uint, limit int) (*models.User, error) {
	return s.getByIDWithListingsFn(ctx, id, limit)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	return s.updateFn(ctx, user)
}
func (s *userRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *userRepoStub) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.listFn(ctx, limit, offset)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn: func(_ context.Context, id uint) (*models.User, error) {
			return &models.User{ID: id, Username: "user"}, nil
		},
		getByIDWithListingsFn: func(_ context.Context, id uint, _ int) (*models.User, error) {
			return &models.User{ID: id}, nil
		},
		getByEmailFn:    func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		getByUsernameFn: func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		createFn:        func(_ context.Context, _ *models.User) error { return nil },
		updateFn:        func(_ context.Context, _ *models.User) error { return nil },
		deleteFn:        func(_ context.Context, _ uint) error { return nil },
		listFn:          func(_ context.Context, _, _ int) ([]models.User, error) { return nil, nil },
	}
}

// reviewRepoStub is a stub for repository.ReviewRepository.
type reviewRepoStub struct {
	createFn        func(context.Context, *models.Review) error
	getByIDFn       func(context.Context, uint) (*models.Review, error)
	listByListingFn func(context.Context, uint, int, int) ([]*models.Review, error)
	averageRatingFn func(context.Context, uint) (float64, int64, error)
	deleteFn        func(context.Context, uint) error
}

func (s *reviewRepoStub) Create(ctx context.Context, review *models.Review) error {
	return s.createFn(ctx, review)
}
func (s *reviewRepoStub) GetByID(ctx context.Context, id uint) (*models.Review, error) {
	return s.getByIDFn(ctx, id)
}
func (s *reviewRepoStub) ListByListing(ctx context.Context, listingID uint, limit, offset int) ([]*models.Review, error) {
	return s.listByListingFn(ctx, listingID, limit, offset)
}
func (s *reviewRepoStub) AverageRating(ctx context.Context, listingID uint) (float64, int64, error) {
	return s.averageRatingFn(ctx, listingID)
}
func (s *reviewRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopReviewRepo() *reviewRepoStub {
	return &reviewRepoStub{
		createFn: func(_ context.Context, review *models.Review) error {
			review.ID = 1
			return nil
		},
		getByIDFn: func(_ context.Context, id uint) (*models.Review, error) {
			return &models.Review{ID: id, AuthorID: 1}, nil
		},
		listByListingFn: func(_ context.Context, _ uint, _, _ int) ([]*models.Review, error) { return nil, nil },
		averageRatingFn: func(_ context.Context, _ uint) (float64, int64, error) { return 0, 0, nil },
		deleteFn:        func(_ context.Context, _ uint) error { return nil },
	}
}

func neverAdmin(_ context.Context, _ uint) (bool, error) { return false, nil }
func alwaysAdmin(_ context.Context, _ uint) (bool, error) { return true, nil }

// assertAppError asserts that err is an AppError carrying the given code.
func assertAppError(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}
