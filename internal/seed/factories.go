// Package seed populates the database with demo marketplace data. It is
// intended for development and testing only.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"driveline/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options configures the seeder.
type Options struct {
	NumUsers    int
	NumListings int
	ShouldClean bool
	// DryRun builds entities and assigns synthetic IDs without touching the DB.
	DryRun bool
	// SkipBcrypt stores the literal password instead of a hash. Fast mode for
	// tests that never log in.
	SkipBcrypt bool
	// MaxDays bounds how far in the past generated created_at values reach.
	MaxDays int
}

// CatalogEntry is a flattened (category, make, model) triple used to build
// listings against the seeded taxonomy.
type CatalogEntry struct {
	CategoryID uint
	MakeID     uint
	MakeName   string
	ModelID    uint
	ModelName  string
}

var seedCities = []string{
	"Austin", "Denver", "Portland", "Seattle", "Phoenix", "Dallas",
	"Atlanta", "Chicago", "Nashville", "San Diego", "Tampa", "Columbus",
}

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by seed presets and tests.
type Factory struct {
	db   *gorm.DB
	opts Options
	rng  *rand.Rand
	// synthetic ID counter when running in DryRun mode
	nextID uint
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	// seed gofakeit for richer content
	gofakeit.Seed(time.Now().UnixNano())
	//nolint:gosec // Weak random number generator is fine for seeding
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Factory{db: db, opts: opts, rng: rng, nextID: 1000}
}

// CreateUser constructs and persists a sample `models.User`.
// Optional override functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user := &models.User{
		Username: gofakeit.Username() + fmt.Sprintf("%d", gofakeit.Number(100, 999)),
		Email:    gofakeit.Email(),
		City:     seedCities[f.rng.Intn(len(seedCities))],
		Phone:    gofakeit.Phone(),
		Avatar:   fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
	}

	// Password handling: allow skipping bcrypt in dev fast mode
	if f.opts.SkipBcrypt {
		user.Password = "password123"
	} else {
		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
		user.Password = string(hashedPassword)
	}

	for _, override := range overrides {
		override(user)
	}

	if f.opts.DryRun {
		f.nextID++
		user.ID = f.nextID
		log.Printf("[dry-run] CreateUser: %s <%s>", user.Username, user.Email)
		return user, nil
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// BuildListing constructs a listing for the given owner against a catalog
// entry but does not persist it. Useful for batching.
func (f *Factory) BuildListing(owner *models.User, entry CatalogEntry, overrides ...func(*models.Listing)) *models.Listing {
	year := gofakeit.Number(2005, time.Now().Year())
	imageSeed := gofakeit.UUID()

	listing := &models.Listing{
		OwnerID:      owner.ID,
		CategoryID:   entry.CategoryID,
		MakeID:       entry.MakeID,
		ModelID:      entry.ModelID,
		Title:        fmt.Sprintf("%d %s %s", year, entry.MakeName, entry.ModelName),
		Description:  gofakeit.Paragraph(1, 3, 8, "\n"),
		Price:        float64(gofakeit.Number(1500, 85000)),
		Year:         year,
		Mileage:      gofakeit.Number(0, 220000),
		Color:        gofakeit.Color(),
		Transmission: models.Transmissions[f.rng.Intn(len(models.Transmissions))],
		FuelType:     models.FuelTypes[f.rng.Intn(len(models.FuelTypes))],
		BodyType:     models.BodyTypes[f.rng.Intn(len(models.BodyTypes))],
		Condition:    models.Conditions[f.rng.Intn(len(models.Conditions))],
		City:         owner.City,
		Images: []string{
			fmt.Sprintf("https://picsum.photos/seed/%s-1/1200/800", imageSeed),
			fmt.Sprintf("https://picsum.photos/seed/%s-2/1200/800", imageSeed),
		},
		Thumbnail: fmt.Sprintf("https://picsum.photos/seed/%s-1/320/240", imageSeed),
		Status:    models.ListingStatusActive,
	}

	if f.rng.Intn(10) == 0 {
		listing.Featured = true
	}
	if f.rng.Intn(3) == 0 {
		listing.Features = []string{"air conditioning", "bluetooth", "parking sensors"}
	}

	// realistic created_at spread
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	daysBack := f.rng.Intn(maxDays)
	hoursBack := f.rng.Intn(24)
	minsBack := f.rng.Intn(60)
	listing.CreatedAt = time.Now().Add(-time.Duration(daysBack)*24*time.Hour - time.Duration(hoursBack)*time.Hour - time.Duration(minsBack)*time.Minute)

	for _, override := range overrides {
		override(listing)
	}
	return listing
}

// CreateListingsBatch persists multiple listings in a single DB call when possible.
func (f *Factory) CreateListingsBatch(listings []*models.Listing) error {
	if f.opts.DryRun {
		for _, l := range listings {
			f.nextID++
			l.ID = f.nextID
		}
		log.Printf("[dry-run] CreateListingsBatch: %d listings (no DB write)", len(listings))
		return nil
	}
	if len(listings) == 0 {
		return nil
	}
	return f.db.Create(&listings).Error
}

// CreateSale marks the listing sold and records the sale. The sold_at
// timestamp lands between the listing's creation and now.
func (f *Factory) CreateSale(listing *models.Listing, buyer *models.User) (*models.Sale, error) {
	soldAt := listing.CreatedAt.Add(time.Duration(f.rng.Int63n(int64(time.Since(listing.CreatedAt)) + 1)))
	sale := &models.Sale{
		ListingID: listing.ID,
		BuyerID:   buyer.ID,
		Status:    "sold",
		SoldAt:    soldAt,
	}

	if f.opts.DryRun {
		f.nextID++
		sale.ID = f.nextID
		listing.Status = models.ListingStatusSold
		log.Printf("[dry-run] CreateSale: listing=%d buyer=%d", listing.ID, buyer.ID)
		return sale, nil
	}

	err := f.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Listing{}).
			Where("id = ?", listing.ID).
			Update("status", models.ListingStatusSold).Error; err != nil {
			return err
		}
		return tx.Create(sale).Error
	})
	if err != nil {
		return nil, err
	}
	listing.Status = models.ListingStatusSold
	return sale, nil
}

// CreateReview constructs and persists a review on the listing.
func (f *Factory) CreateReview(author *models.User, listing *models.Listing, overrides ...func(*models.Review)) (*models.Review, error) {
	review := &models.Review{
		ListingID: listing.ID,
		AuthorID:  author.ID,
		Rating:    gofakeit.Number(1, 5),
		Comment:   gofakeit.Sentence(12),
	}

	for _, override := range overrides {
		override(review)
	}

	if f.opts.DryRun {
		f.nextID++
		review.ID = f.nextID
		log.Printf("[dry-run] CreateReview: listing=%d author=%d rating=%d", listing.ID, author.ID, review.Rating)
		return review, nil
	}

	if err := f.db.Create(review).Error; err != nil {
		return nil, err
	}
	return review, nil
}
