package seed

import (
	"strings"
	"testing"
	"time"

	"driveline/internal/models"
)

func TestBuildListing_TimestampsAndFields(t *testing.T) {
	opts := Options{DryRun: true, MaxDays: 30}
	f := NewFactory(nil, opts)
	owner := &models.User{ID: 1, City: "Austin"}
	entry := CatalogEntry{CategoryID: 2, MakeID: 3, MakeName: "Toyota", ModelID: 4, ModelName: "Corolla"}

	l := f.BuildListing(owner, entry)
	if l.OwnerID != 1 || l.CategoryID != 2 || l.MakeID != 3 || l.ModelID != 4 {
		t.Fatalf("catalog references not carried over: %+v", l)
	}
	if !strings.Contains(l.Title, "Toyota Corolla") {
		t.Fatalf("unexpected title: %s", l.Title)
	}
	if l.City != "Austin" {
		t.Fatalf("expected listing city from owner, got %q", l.City)
	}
	if len(l.Images) == 0 || l.Thumbnail == "" {
		t.Fatalf("expected generated images, got %v / %q", l.Images, l.Thumbnail)
	}
	if l.Status != models.ListingStatusActive {
		t.Fatalf("expected active status, got %s", l.Status)
	}

	// timestamp should be within MaxDays
	if time.Since(l.CreatedAt) > (time.Duration(opts.MaxDays)+1)*24*time.Hour {
		t.Fatalf("created_at too old: %v", l.CreatedAt)
	}

	l2 := f.BuildListing(owner, entry, func(listing *models.Listing) {
		listing.Price = 9999
	})
	if l2.Price != 9999 {
		t.Fatalf("override not applied: %v", l2.Price)
	}
}

func TestCreateUser_SkipBcrypt(t *testing.T) {
	f := NewFactory(nil, Options{DryRun: true, SkipBcrypt: true})

	user, err := f.CreateUser()
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if user.ID == 0 {
		t.Fatal("expected synthetic ID in dry-run mode")
	}
	if user.Password != "password123" {
		t.Fatalf("expected plain password in skip-bcrypt mode, got %q", user.Password)
	}
	if user.Username == "" || user.Email == "" {
		t.Fatalf("expected generated identity, got %q <%s>", user.Username, user.Email)
	}
}

func TestCreateSale_DryRunMarksListingSold(t *testing.T) {
	f := NewFactory(nil, Options{DryRun: true})
	listing := &models.Listing{ID: 5, OwnerID: 1, Status: models.ListingStatusActive, CreatedAt: time.Now().Add(-48 * time.Hour)}
	buyer := &models.User{ID: 2}

	sale, err := f.CreateSale(listing, buyer)
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}
	if listing.Status != models.ListingStatusSold {
		t.Fatalf("expected listing marked sold, got %s", listing.Status)
	}
	if sale.ListingID != 5 || sale.BuyerID != 2 {
		t.Fatalf("unexpected sale: %+v", sale)
	}
	if sale.SoldAt.Before(listing.CreatedAt) || sale.SoldAt.After(time.Now()) {
		t.Fatalf("sold_at outside listing lifetime: %v", sale.SoldAt)
	}
}
