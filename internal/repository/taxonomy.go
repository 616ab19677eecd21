package repository

import (
	"context"
	"errors"

	"driveline/internal/cache"
	"driveline/internal/models"

	"gorm.io/gorm"
)

// TaxonomyRepository serves the reference catalog: categories, makes, and
// models. The catalog changes rarely, so reads go through the cache with a
// long TTL.
type TaxonomyRepository interface {
	Categories(ctx context.Context) ([]models.Category, error)
	Makes(ctx context.Context) ([]models.Make, error)
	ModelsByMake(ctx context.Context, makeID uint) ([]models.VehicleModel, error)
	CategoryBySlug(ctx context.Context, slug string) (*models.Category, error)
	CreateCategory(ctx context.Context, category *models.Category) error
	CreateMake(ctx context.Context, mk *models.Make) error
	CreateModel(ctx context.Context, model *models.VehicleModel) error
}

type taxonomyRepository struct {
	db *gorm.DB
}

// NewTaxonomyRepository returns a new TaxonomyRepository implementation.
func NewTaxonomyRepository(db *gorm.DB) TaxonomyRepository {
	return &taxonomyRepository{db: db}
}

func (r *taxonomyRepository) Categories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := cache.Aside(ctx, cache.TaxonomyKey("categories"), &categories, cache.TaxonomyTTL, func() error {
		if err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *taxonomyRepository) Makes(ctx context.Context) ([]models.Make, error) {
	var makes []models.Make
	err := cache.Aside(ctx, cache.TaxonomyKey("makes"), &makes, cache.TaxonomyTTL, func() error {
		if err := r.db.WithContext(ctx).Preload("Models").Order("name ASC").Find(&makes).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return makes, nil
}

func (r *taxonomyRepository) ModelsByMake(ctx context.Context, makeID uint) ([]models.VehicleModel, error) {
	var vehicleModels []models.VehicleModel
	err := r.db.WithContext(ctx).
		Where("make_id = ?", makeID).
		Order("name ASC").
		Find(&vehicleModels).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return vehicleModels, nil
}

func (r *taxonomyRepository) CategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Category", slug)
		}
		return nil, models.NewInternalError(err)
	}
	return &category, nil
}

func (r *taxonomyRepository) CreateCategory(ctx context.Context, category *models.Category) error {
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewValidationError("Category already exists")
		}
		return models.NewInternalError(err)
	}
	cache.Invalidate(ctx, cache.TaxonomyKey("categories"))
	return nil
}

func (r *taxonomyRepository) CreateMake(ctx context.Context, mk *models.Make) error {
	if err := r.db.WithContext(ctx).Create(mk).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewValidationError("Make already exists")
		}
		return models.NewInternalError(err)
	}
	cache.Invalidate(ctx, cache.TaxonomyKey("makes"))
	return nil
}

func (r *taxonomyRepository) CreateModel(ctx context.Context, model *models.VehicleModel) error {
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.Invalidate(ctx, cache.TaxonomyKey("makes"))
	return nil
}
