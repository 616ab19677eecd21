// Package service implements the application's business logic on top of the
// repository layer.
package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log/slog"
	"net/http"
	"strings"

	"driveline/internal/middleware"
	"driveline/internal/models"
	"driveline/internal/observability"
	"driveline/internal/repository"
	"driveline/internal/storage"
	"driveline/internal/validation"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp" // register WebP decoder
)

const (
	DefaultImageMaxUploadSizeMB = 10
	DefaultImageMaxPerListing   = 10
)

// ImageUpload is one raw image file attached to a create or update request.
type ImageUpload struct {
	Filename string
	Content  []byte
}

type CreateListingInput struct {
	OwnerID      uint
	CategoryID   uint
	MakeID       uint
	ModelID      uint
	Title        string
	Description  string
	Price        float64
	Year         int
	Mileage      int
	Color        string
	Transmission string
	FuelType     string
	BodyType     string
	Condition    string
	City         string
	Features     []string
	Images       []ImageUpload
}

type UpdateListingInput struct {
	ActorID      uint
	ListingID    uint
	Title        *string
	Description  *string
	Price        *float64
	Mileage      *int
	Color        *string
	City         *string
	Features     []string
	// Images replaces the entire image set when non-empty. The previous
	// blobs are deleted only after the replacement commits.
	Images       []ImageUpload
	RemoveImages []string
}

// ListingService owns the listing lifecycle: create, update, soft delete,
// restore, and hard delete. It coordinates the database with the asset store
// and compensates stored images when persistence fails, so the two never
// drift apart.
type ListingService struct {
	listings repository.ListingRepository
	sales    repository.SaleRepository
	assets   storage.AssetStore
	notifier ActivityNotifier
	isAdmin  func(ctx context.Context, userID uint) (bool, error)

	maxImageBytes      int64
	maxImagesPerListing int
}

// ActivityNotifier publishes marketplace events to the live activity feed.
// Implementations must be safe for concurrent use; a nil notifier disables
// publishing.
type ActivityNotifier interface {
	ListingCreated(ctx context.Context, listing *models.Listing)
	ListingSold(ctx context.Context, listing *models.Listing, sale *models.Sale)
}

type ListingServiceOption func(*ListingService)

// WithImageLimits overrides the default per-file size and per-listing count
// limits.
func WithImageLimits(maxUploadSizeMB, maxPerListing int) ListingServiceOption {
	return func(s *ListingService) {
		if maxUploadSizeMB > 0 {
			s.maxImageBytes = int64(maxUploadSizeMB) * 1024 * 1024
		}
		if maxPerListing > 0 {
			s.maxImagesPerListing = maxPerListing
		}
	}
}

// WithNotifier attaches an activity feed publisher.
func WithNotifier(n ActivityNotifier) ListingServiceOption {
	return func(s *ListingService) { s.notifier = n }
}

func NewListingService(
	listings repository.ListingRepository,
	sales repository.SaleRepository,
	assets storage.AssetStore,
	isAdmin func(ctx context.Context, userID uint) (bool, error),
	opts ...ListingServiceOption,
) *ListingService {
	s := &ListingService{
		listings:            listings,
		sales:               sales,
		assets:              assets,
		isAdmin:             isAdmin,
		maxImageBytes:       DefaultImageMaxUploadSizeMB * 1024 * 1024,
		maxImagesPerListing: DefaultImageMaxPerListing,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateListing validates the input, stores the images, and persists the
// listing. Images are uploaded before the row is written; if the write
// fails, every stored image is deleted again so no orphaned blobs remain.
func (s *ListingService) CreateListing(ctx context.Context, in CreateListingInput) (*models.Listing, error) {
	if in.OwnerID == 0 {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	if in.CategoryID == 0 || in.MakeID == 0 || in.ModelID == 0 {
		return nil, models.NewValidationError("category_id, make_id and model_id are required")
	}
	if err := validation.ValidateListing(validation.ListingInput{
		Title:        in.Title,
		Description:  in.Description,
		Price:        in.Price,
		Year:         in.Year,
		Mileage:      in.Mileage,
		Transmission: in.Transmission,
		FuelType:     in.FuelType,
		BodyType:     in.BodyType,
		Condition:    in.Condition,
		Features:     in.Features,
	}); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	paths, err := s.storeImages(ctx, in.Images, 0)
	if err != nil {
		observability.RecordListingOperation("create", err)
		return nil, err
	}

	var thumbnail string
	if len(in.Images) > 0 {
		thumbnail, err = s.storeThumbnail(ctx, in.Images[0])
		if err != nil {
			s.cleanupAssets(ctx, paths)
			observability.RecordListingOperation("create", err)
			return nil, err
		}
	}

	listing := &models.Listing{
		OwnerID:      in.OwnerID,
		CategoryID:   in.CategoryID,
		MakeID:       in.MakeID,
		ModelID:      in.ModelID,
		Title:        strings.TrimSpace(in.Title),
		Description:  in.Description,
		Price:        in.Price,
		Year:         in.Year,
		Mileage:      in.Mileage,
		Color:        in.Color,
		Transmission: in.Transmission,
		FuelType:     in.FuelType,
		BodyType:     in.BodyType,
		Condition:    in.Condition,
		City:         in.City,
		Features:     in.Features,
		Images:       paths,
		Thumbnail:    thumbnail,
		Status:       models.ListingStatusActive,
	}

	if err := s.listings.Create(ctx, listing); err != nil {
		if thumbnail != "" {
			paths = append(paths, thumbnail)
		}
		s.cleanupAssets(ctx, paths)
		observability.RecordListingOperation("create", err)
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.ListingCreated(ctx, listing)
	}
	observability.RecordListingOperation("create", nil)
	return listing, nil
}

// GetListing returns a live listing by ID.
func (s *ListingService) GetListing(ctx context.Context, id uint) (*models.Listing, error) {
	return s.listings.GetByID(ctx, id, false)
}

// ListListings returns a filtered page of live listings plus the total count.
func (s *ListingService) ListListings(ctx context.Context, filters repository.ListingFilters) ([]*models.Listing, int64, error) {
	if filters.Limit <= 0 {
		filters.Limit = 20
	}
	if filters.Limit > 100 {
		filters.Limit = 100
	}
	return s.listings.List(ctx, filters)
}

// UpdateListing applies a partial update. Only the owner or an admin may
// edit, and a sold listing is immutable. Supplying images replaces the
// entire set; supplying remove_images trims named paths; neither leaves the
// row pointing at blobs that do not exist.
func (s *ListingService) UpdateListing(ctx context.Context, in UpdateListingInput) (*models.Listing, error) {
	listing, err := s.authorizeOwner(ctx, in.ListingID, in.ActorID, false)
	if err != nil {
		observability.RecordListingOperation("update", err)
		return nil, err
	}
	if listing.Status == models.ListingStatusSold {
		err := models.NewValidationError("Sold listings cannot be edited")
		observability.RecordListingOperation("update", err)
		return nil, err
	}

	if in.Title != nil {
		listing.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		listing.Description = *in.Description
	}
	if in.Price != nil {
		listing.Price = *in.Price
	}
	if in.Mileage != nil {
		listing.Mileage = *in.Mileage
	}
	if in.Color != nil {
		listing.Color = *in.Color
	}
	if in.City != nil {
		listing.City = *in.City
	}
	if in.Features != nil {
		listing.Features = in.Features
	}

	if err := validation.ValidateListing(validation.ListingInput{
		Title:        listing.Title,
		Description:  listing.Description,
		Price:        listing.Price,
		Year:         listing.Year,
		Mileage:      listing.Mileage,
		Transmission: listing.Transmission,
		FuelType:     listing.FuelType,
		BodyType:     listing.BodyType,
		Condition:    listing.Condition,
		Features:     listing.Features,
	}); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	// Image handling. Supplying new images replaces the whole set; the
	// previous blobs survive until the replacement row commits, so a
	// failure at any point leaves the listing with its old, intact set.
	var stored []string
	var obsolete []string
	switch {
	case len(in.Images) > 0:
		if len(in.RemoveImages) > 0 {
			return nil, models.NewValidationError("remove_images cannot be combined with a replacement image set")
		}
		paths, err := s.storeImages(ctx, in.Images, 0)
		if err != nil {
			observability.RecordListingOperation("update", err)
			return nil, err
		}
		thumbnail, err := s.storeThumbnail(ctx, in.Images[0])
		if err != nil {
			s.cleanupAssets(ctx, paths)
			observability.RecordListingOperation("update", err)
			return nil, err
		}
		obsolete = append(obsolete, listing.Images...)
		if listing.Thumbnail != "" {
			obsolete = append(obsolete, listing.Thumbnail)
		}
		stored = append(append([]string{}, paths...), thumbnail)
		listing.Images = paths
		listing.Thumbnail = thumbnail
	case len(in.RemoveImages) > 0:
		removed, err := s.applyImageRemovals(listing, in.RemoveImages)
		if err != nil {
			return nil, err
		}
		obsolete = removed
	}

	if err := s.listings.Update(ctx, listing); err != nil {
		// The row kept its old image set, so blobs stored this call are orphans.
		s.cleanupAssets(ctx, stored)
		observability.RecordListingOperation("update", err)
		return nil, err
	}

	// The superseded blobs go only after the row committed without them.
	s.cleanupAssets(ctx, obsolete)
	observability.RecordListingOperation("update", nil)
	return listing, nil
}

// SoftDeleteListing tombstones a listing. Its images stay in the asset store
// so a later restore brings the listing back intact.
func (s *ListingService) SoftDeleteListing(ctx context.Context, listingID, actorID uint) error {
	if _, err := s.authorizeOwner(ctx, listingID, actorID, false); err != nil {
		observability.RecordListingOperation("soft_delete", err)
		return err
	}
	err := s.listings.SoftDelete(ctx, listingID)
	observability.RecordListingOperation("soft_delete", err)
	return err
}

// RestoreListing clears the tombstone on a soft-deleted listing.
func (s *ListingService) RestoreListing(ctx context.Context, listingID, actorID uint) (*models.Listing, error) {
	if _, err := s.authorizeOwner(ctx, listingID, actorID, true); err != nil {
		observability.RecordListingOperation("restore", err)
		return nil, err
	}
	if err := s.listings.Restore(ctx, listingID); err != nil {
		observability.RecordListingOperation("restore", err)
		return nil, err
	}
	observability.RecordListingOperation("restore", nil)
	return s.listings.GetByID(ctx, listingID, false)
}

// HardDeleteListing permanently removes a trashed listing and its images,
// along with any sale record referencing it. Assets go
// first: if the store refuses, the row stays and the operation fails, so a
// retry can finish the cleanup. A missing blob is not a failure.
func (s *ListingService) HardDeleteListing(ctx context.Context, listingID, actorID uint) error {
	listing, err := s.authorizeOwner(ctx, listingID, actorID, true)
	if err != nil {
		observability.RecordListingOperation("hard_delete", err)
		return err
	}
	// Hard delete is only reachable from the trash, never from active state.
	if !listing.DeletedAt.Valid {
		err := models.NewValidationError("Listing must be moved to trash first")
		observability.RecordListingOperation("hard_delete", err)
		return err
	}

	blobs := listing.Images
	if listing.Thumbnail != "" {
		blobs = append(append([]string{}, blobs...), listing.Thumbnail)
	}
	for _, path := range blobs {
		if err := s.assets.Delete(ctx, path); err != nil {
			observability.AssetCleanupFailures.Inc()
			observability.RecordListingOperation("hard_delete", err)
			return models.NewStorageError(fmt.Sprintf("Failed to delete image %s", path), err)
		}
	}

	if err := s.sales.DeleteByListingID(ctx, listingID); err != nil {
		observability.RecordListingOperation("hard_delete", err)
		return err
	}
	err = s.listings.HardDelete(ctx, listingID)
	observability.RecordListingOperation("hard_delete", err)
	return err
}

// TrashedListings lists soft-deleted listings. Admins see everyone's trash,
// regular users only their own.
func (s *ListingService) TrashedListings(ctx context.Context, actorID uint, limit, offset int) ([]*models.Listing, error) {
	if actorID == 0 {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	ownerID := actorID
	if s.isAdmin != nil {
		admin, err := s.isAdmin(ctx, actorID)
		if err != nil {
			return nil, err
		}
		if admin {
			ownerID = 0
		}
	}
	if limit <= 0 {
		limit = 20
	}
	return s.listings.Trashed(ctx, ownerID, limit, offset)
}

// authorizeOwner loads the listing (including tombstoned rows when
// includeTrashed is set) and verifies the actor owns it or is an admin.
func (s *ListingService) authorizeOwner(ctx context.Context, listingID, actorID uint, includeTrashed bool) (*models.Listing, error) {
	if actorID == 0 {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	listing, err := s.listings.GetByID(ctx, listingID, includeTrashed)
	if err != nil {
		return nil, err
	}
	if listing.OwnerID == actorID {
		return listing, nil
	}
	if s.isAdmin != nil {
		admin, err := s.isAdmin(ctx, actorID)
		if err != nil {
			return nil, err
		}
		if admin {
			return listing, nil
		}
	}
	return nil, models.NewForbiddenError("You do not own this listing")
}

// storeImages validates, re-encodes and uploads each image, returning the
// stored paths. On any failure it deletes the blobs stored so far and
// returns the error, leaving the asset store as it found it.
func (s *ListingService) storeImages(ctx context.Context, uploads []ImageUpload, existing int) ([]string, error) {
	if len(uploads) == 0 {
		return nil, nil
	}
	if existing+len(uploads) > s.maxImagesPerListing {
		return nil, models.NewValidationError(fmt.Sprintf("A listing can have at most %d images", s.maxImagesPerListing))
	}

	paths := make([]string, 0, len(uploads))
	for _, up := range uploads {
		content, err := s.processImage(up)
		if err != nil {
			s.cleanupAssets(ctx, paths)
			return nil, err
		}
		path, err := s.assets.Put(ctx, content, normalizedImageName(up.Filename))
		if err != nil {
			s.cleanupAssets(ctx, paths)
			return nil, models.NewStorageError("Failed to store image", err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// storeThumbnail encodes a small WebP preview of the listing's first image
// for the browse cards.
func (s *ListingService) storeThumbnail(ctx context.Context, up ImageUpload) (string, error) {
	decoded, _, err := image.Decode(bytes.NewReader(up.Content))
	if err != nil {
		return "", models.NewValidationError("Invalid image file")
	}
	encoded, err := encodeWebP(resizeToFit(decoded, thumbnailMaxSize, thumbnailMaxSize), thumbnailWebPQuality)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	path, err := s.assets.Put(ctx, encoded, "thumb.webp")
	if err != nil {
		return "", models.NewStorageError("Failed to store thumbnail", err)
	}
	return path, nil
}

// processImage verifies the upload is a real image within limits and
// re-encodes it as JPEG, stripping whatever the client sent.
func (s *ListingService) processImage(up ImageUpload) ([]byte, error) {
	if len(up.Content) == 0 {
		return nil, models.NewValidationError("Empty image upload")
	}
	if int64(len(up.Content)) > s.maxImageBytes {
		return nil, models.NewValidationError(fmt.Sprintf("Image too large (max %dMB)", s.maxImageBytes/(1024*1024)))
	}
	if !isAllowedImageMIME(http.DetectContentType(up.Content)) {
		return nil, models.NewValidationError("Invalid image type")
	}

	decoded, _, err := image.Decode(bytes.NewReader(up.Content))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}

	resized := resizeToFit(decoded, listingImageMaxSize, listingImageMaxSize)
	encoded, err := encodeJPEG(resized, listingImageJPEGQuality)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return encoded, nil
}

// applyImageRemovals drops the requested paths from the listing's image
// slice and returns them for deferred deletion.
func (s *ListingService) applyImageRemovals(listing *models.Listing, remove []string) ([]string, error) {
	if len(remove) == 0 {
		return nil, nil
	}
	current := make(map[string]bool, len(listing.Images))
	for _, p := range listing.Images {
		current[p] = true
	}
	for _, p := range remove {
		if !current[p] {
			return nil, models.NewValidationError(fmt.Sprintf("Image %s does not belong to this listing", p))
		}
	}

	toRemove := make(map[string]bool, len(remove))
	for _, p := range remove {
		toRemove[p] = true
	}
	kept := listing.Images[:0]
	for _, p := range listing.Images {
		if !toRemove[p] {
			kept = append(kept, p)
		}
	}
	listing.Images = kept
	return remove, nil
}

// cleanupAssets best-effort deletes stored blobs after a failed or
// superseded write. Failures are logged and counted, not propagated; the
// blobs are already unreachable from any listing row.
func (s *ListingService) cleanupAssets(ctx context.Context, paths []string) {
	for _, path := range paths {
		if err := s.assets.Delete(ctx, path); err != nil {
			observability.AssetCleanupFailures.Inc()
			middleware.Logger.ErrorContext(ctx, "Failed to clean up stored image",
				slog.String("path", path),
				slog.Any("error", err),
			)
		}
	}
}

func normalizedImageName(filename string) string {
	name := strings.ToLower(strings.TrimSpace(filename))
	if name == "" {
		return "image.jpg"
	}
	// Re-encoding always yields JPEG, keep the stored extension honest.
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[:i]
	}
	return name + ".jpg"
}
