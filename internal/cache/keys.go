package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	listingKeyPrefix  = "listing:%d"
	listingsListKey   = "listings:front"
	taxonomyKeyPrefix = "taxonomy:%s"
	activityFeedKey   = "activity:recent"
	userKeyPrefix     = "user:%d"
)

const (
	ListingTTL  = 30 * time.Minute
	ListTTL     = 1 * time.Minute
	TaxonomyTTL = 12 * time.Hour
	UserTTL     = 15 * time.Minute
)

// ActivityFeedKey is the Redis list holding the most recent marketplace events.
func ActivityFeedKey() string {
	return activityFeedKey
}

func ListingKey(listingID uint) string {
	return fmt.Sprintf(listingKeyPrefix, listingID)
}

func ListingsListKey() string {
	return listingsListKey
}

func TaxonomyKey(name string) string {
	return fmt.Sprintf(taxonomyKeyPrefix, name)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateListing(ctx context.Context, listingID uint) {
	Invalidate(ctx, ListingKey(listingID))
}

func InvalidateListingsList(ctx context.Context) {
	Invalidate(ctx, listingsListKey)
}

func UserKey(userID uint) string {
	return fmt.Sprintf(userKeyPrefix, userID)
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}
