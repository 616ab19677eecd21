package server

import (
	"context"

	"driveline/internal/models"
	"driveline/internal/repository"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock of the UserRepository interface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByIDWithListings(ctx context.Context, id uint, limit int) (*models.User, error) {
	args := m.Called(ctx, id, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

// stubListingRepo implements repository.ListingRepository with overridable
// behavior per test. Unset methods return zero values.
type stubListingRepo struct {
	CreateFn     func(ctx context.Context, listing *models.Listing) error
	GetByIDFn    func(ctx context.Context, id uint, includeTrashed bool) (*models.Listing, error)
	ListFn       func(ctx context.Context, filters repository.ListingFilters) ([]*models.Listing, int64, error)
	UpdateFn     func(ctx context.Context, listing *models.Listing) error
	SoftDeleteFn func(ctx context.Context, id uint) error
	RestoreFn    func(ctx context.Context, id uint) error
	HardDeleteFn func(ctx context.Context, id uint) error
	TrashedFn    func(ctx context.Context, ownerID uint, limit, offset int) ([]*models.Listing, error)
}

func (s *stubListingRepo) Create(ctx context.Context, listing *models.Listing) error {
	if s.CreateFn != nil {
		return s.CreateFn(ctx, listing)
	}
	return nil
}

func (s *stubListingRepo) GetByID(ctx context.Context, id uint, includeTrashed bool) (*models.Listing, error) {
	if s.GetByIDFn != nil {
		return s.GetByIDFn(ctx, id, includeTrashed)
	}
	return nil, models.NewNotFoundError("Listing", id)
}

func (s *stubListingRepo) List(ctx context.Context, filters repository.ListingFilters) ([]*models.Listing, int64, error) {
	if s.ListFn != nil {
		return s.ListFn(ctx, filters)
	}
	return nil, 0, nil
}

func (s *stubListingRepo) Update(ctx context.Context, listing *models.Listing) error {
	if s.UpdateFn != nil {
		return s.UpdateFn(ctx, listing)
	}
	return nil
}

func (s *stubListingRepo) SoftDelete(ctx context.Context, id uint) error {
	if s.SoftDeleteFn != nil {
		return s.SoftDeleteFn(ctx, id)
	}
	return nil
}

func (s *stubListingRepo) Restore(ctx context.Context, id uint) error {
	if s.RestoreFn != nil {
		return s.RestoreFn(ctx, id)
	}
	return nil
}

func (s *stubListingRepo) HardDelete(ctx context.Context, id uint) error {
	if s.HardDeleteFn != nil {
		return s.HardDeleteFn(ctx, id)
	}
	return nil
}

func (s *stubListingRepo) Trashed(ctx context.Context, ownerID uint, limit, offset int) ([]*models.Listing, error) {
	if s.TrashedFn != nil {
		return s.TrashedFn(ctx, ownerID, limit, offset)
	}
	return nil, nil
}

func (s *stubListingRepo) CountByOwner(ctx context.Context, ownerID uint) (int64, error) {
	return 0, nil
}

// stubSaleRepo implements repository.SaleRepository.
type stubSaleRepo struct {
	CompleteFn       func(ctx context.Context, listing *models.Listing, sale *models.Sale) error
	GetByListingIDFn func(ctx context.Context, listingID uint) (*models.Sale, error)
	ListByBuyerFn    func(ctx context.Context, buyerID uint, limit, offset int) ([]*models.Sale, error)
}

func (s *stubSaleRepo) Create(ctx context.Context, sale *models.Sale) error { return nil }

func (s *stubSaleRepo) Complete(ctx context.Context, listing *models.Listing, sale *models.Sale) error {
	if s.CompleteFn != nil {
		return s.CompleteFn(ctx, listing, sale)
	}
	return nil
}

func (s *stubSaleRepo) GetByListingID(ctx context.Context, listingID uint) (*models.Sale, error) {
	if s.GetByListingIDFn != nil {
		return s.GetByListingIDFn(ctx, listingID)
	}
	return nil, models.NewNotFoundError("Sale", listingID)
}

func (s *stubSaleRepo) ListByBuyer(ctx context.Context, buyerID uint, limit, offset int) ([]*models.Sale, error) {
	if s.ListByBuyerFn != nil {
		return s.ListByBuyerFn(ctx, buyerID, limit, offset)
	}
	return nil, nil
}

func (s *stubSaleRepo) DeleteByListingID(ctx context.Context, listingID uint) error { return nil }

func neverAdmin(ctx context.Context, userID uint) (bool, error) { return false, nil }
