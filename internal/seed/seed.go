package seed

import (
	"fmt"
	"log"

	"driveline/internal/models"

	"gorm.io/gorm"
)

// Preset is a named seeding profile.
type Preset struct {
	NumUsers    int
	NumListings int
	// SoldRatio is the fraction of listings marked sold, scaled by 100.
	SoldRatio int
	// ReviewsPerListing caps how many reviews a listing can receive.
	ReviewsPerListing int
}

// Presets maps preset names accepted by the -preset flag. "Busy" simulates a
// crowded marketplace with heavy sale and review traffic; "Quiet" produces a
// sparse one for eyeballing empty-ish states.
var Presets = map[string]Preset{
	"Busy":  {NumUsers: 150, NumListings: 600, SoldRatio: 35, ReviewsPerListing: 4},
	"Quiet": {NumUsers: 12, NumListings: 30, SoldRatio: 10, ReviewsPerListing: 1},
}

// motorcycleMakes routes these manufacturers to the motorcycles category.
var motorcycleMakes = map[string]bool{
	"Yamaha":          true,
	"Harley-Davidson": true,
}

// Seeder orchestrates demo data generation against a live database.
type Seeder struct {
	db   *gorm.DB
	f    *Factory
	opts Options
}

// NewSeeder creates a Seeder with its backing factory.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	return &Seeder{db: db, f: NewFactory(db, opts), opts: opts}
}

// ClearAll wipes marketplace data so a fresh seed starts from empty tables.
// The catalog tables are left alone; Catalog reconciles them in place.
func (s *Seeder) ClearAll() error {
	log.Println("🗑️  Clearing existing data...")
	sql := `TRUNCATE TABLE reviews, sales, listings, users RESTART IDENTITY CASCADE;`
	return s.db.Exec(sql).Error
}

// LoadCatalog flattens the seeded taxonomy into (category, make, model)
// entries listings can be built against. Catalog must have run first.
func (s *Seeder) LoadCatalog() ([]CatalogEntry, error) {
	var categories []models.Category
	if err := s.db.Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	bySlug := make(map[string]uint, len(categories))
	for _, c := range categories {
		bySlug[c.Slug] = c.ID
	}
	if len(bySlug) == 0 {
		return nil, fmt.Errorf("catalog is empty, run Catalog first")
	}

	var makes []models.Make
	if err := s.db.Preload("Models").Find(&makes).Error; err != nil {
		return nil, fmt.Errorf("load makes: %w", err)
	}

	var entries []CatalogEntry
	for _, mk := range makes {
		categoryID := bySlug["cars"]
		if motorcycleMakes[mk.Name] {
			categoryID = bySlug["motorcycles"]
		}
		if categoryID == 0 {
			categoryID = categories[0].ID
		}
		for _, model := range mk.Models {
			entries = append(entries, CatalogEntry{
				CategoryID: categoryID,
				MakeID:     mk.ID,
				MakeName:   mk.Name,
				ModelID:    model.ID,
				ModelName:  model.Name,
			})
		}
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("catalog has no models, run Catalog first")
	}
	return entries, nil
}

// SeedUsers creates count demo users. All of them share the password
// "password123" so any account works for manual testing.
func (s *Seeder) SeedUsers(count int) ([]*models.User, error) {
	users := make([]*models.User, 0, count)
	for i := 0; i < count; i++ {
		user, err := s.f.CreateUser()
		if err != nil {
			log.Printf("Skipping user %d: %v", i, err)
			continue
		}
		users = append(users, user)

		if i > 0 && i%100 == 0 {
			log.Printf("Created %d users...", i)
		}
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("no users could be created")
	}
	return users, nil
}

// SeedListings builds count listings spread across the given owners and the
// catalog, then persists them in batches.
func (s *Seeder) SeedListings(users []*models.User, count int) ([]*models.Listing, error) {
	entries, err := s.LoadCatalog()
	if err != nil {
		return nil, err
	}

	const batchSize = 200
	listings := make([]*models.Listing, 0, count)
	batch := make([]*models.Listing, 0, batchSize)
	for i := 0; i < count; i++ {
		owner := users[s.f.rng.Intn(len(users))]
		entry := entries[s.f.rng.Intn(len(entries))]
		batch = append(batch, s.f.BuildListing(owner, entry))

		if len(batch) == batchSize || i == count-1 {
			if err := s.f.CreateListingsBatch(batch); err != nil {
				return nil, fmt.Errorf("persist listing batch: %w", err)
			}
			listings = append(listings, batch...)
			batch = batch[:0]
		}
	}
	return listings, nil
}

// SeedMarketActivity closes sales on roughly soldRatio percent of the
// listings and sprinkles reviews over the rest. Buyers are never the
// listing's owner.
func (s *Seeder) SeedMarketActivity(users []*models.User, listings []*models.Listing, soldRatio, reviewsPerListing int) (int, int, error) {
	if len(users) < 2 {
		return 0, 0, nil
	}

	sold := 0
	reviews := 0
	for _, listing := range listings {
		if s.f.rng.Intn(100) < soldRatio {
			buyer := s.pickOtherUser(users, listing.OwnerID)
			if buyer != nil {
				if _, err := s.f.CreateSale(listing, buyer); err != nil {
					log.Printf("Skipping sale for listing %d: %v", listing.ID, err)
				} else {
					sold++
				}
			}
		}

		for i := 0; i < s.f.rng.Intn(reviewsPerListing+1); i++ {
			author := s.pickOtherUser(users, listing.OwnerID)
			if author == nil {
				break
			}
			if _, err := s.f.CreateReview(author, listing); err != nil {
				log.Printf("Skipping review on listing %d: %v", listing.ID, err)
				continue
			}
			reviews++
		}
	}
	return sold, reviews, nil
}

func (s *Seeder) pickOtherUser(users []*models.User, excludeID uint) *models.User {
	for attempt := 0; attempt < 10; attempt++ {
		candidate := users[s.f.rng.Intn(len(users))]
		if candidate.ID != excludeID {
			return candidate
		}
	}
	return nil
}

// SeedMarket runs the full pipeline: users, listings, sales, reviews.
func (s *Seeder) SeedMarket(numUsers, numListings, soldRatio, reviewsPerListing int) error {
	log.Printf("🌱 Seeding marketplace: %d users, %d listings...", numUsers, numListings)

	users, err := s.SeedUsers(numUsers)
	if err != nil {
		return fmt.Errorf("seed users: %w", err)
	}
	log.Printf("✓ %d users created", len(users))

	listings, err := s.SeedListings(users, numListings)
	if err != nil {
		return fmt.Errorf("seed listings: %w", err)
	}
	log.Printf("✓ %d listings created", len(listings))

	sold, reviews, err := s.SeedMarketActivity(users, listings, soldRatio, reviewsPerListing)
	if err != nil {
		return fmt.Errorf("seed market activity: %w", err)
	}
	log.Printf("✓ %d sales closed, %d reviews left", sold, reviews)

	log.Println("🎉 Database seeding completed successfully!")
	return nil
}

// ApplyPreset runs SeedMarket with a named profile.
func (s *Seeder) ApplyPreset(name string) error {
	preset, ok := Presets[name]
	if !ok {
		return fmt.Errorf("unknown preset %q", name)
	}
	return s.SeedMarket(preset.NumUsers, preset.NumListings, preset.SoldRatio, preset.ReviewsPerListing)
}
