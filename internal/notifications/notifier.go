package notifications

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"driveline/internal/cache"
	"driveline/internal/models"
	"driveline/internal/observability"

	"github.com/redis/go-redis/v9"
)

const (
	// activityChannel carries events between server instances so every
	// instance's hub sees the full feed.
	activityChannel = "activity:events"

	// feedDepth bounds the recent-events list kept in Redis.
	feedDepth = 50
)

// Event types carried on the activity feed.
const (
	EventListingCreated = "listing_created"
	EventListingSold    = "listing_sold"
)

// Event is a single marketplace activity entry.
type Event struct {
	Type      string    `json:"type"`
	ListingID uint      `json:"listing_id"`
	Title     string    `json:"title"`
	Price     float64   `json:"price"`
	City      string    `json:"city,omitempty"`
	At        time.Time `json:"at"`
}

// Notifier publishes marketplace activity to Redis and keeps a capped list
// of recent events. A nil Redis client turns every method into a no-op so
// the app runs without a configured cache.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates an activity notifier backed by the given Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// Publish fans an event out to all server instances and records it in the
// recent-events list. Failures are logged, never surfaced; a write path
// must not fail because the feed is down.
func (n *Notifier) Publish(ctx context.Context, evt Event) {
	if evt.At.IsZero() {
		evt.At = time.Now().UTC()
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		log.Printf("activity: marshal %s event: %v", evt.Type, err)
		return
	}

	observability.ActivityEvents.WithLabelValues(evt.Type).Inc()

	if n == nil || n.rdb == nil {
		return
	}

	pipe := n.rdb.Pipeline()
	pipe.Publish(ctx, activityChannel, payload)
	pipe.LPush(ctx, cache.ActivityFeedKey(), payload)
	pipe.LTrim(ctx, cache.ActivityFeedKey(), 0, feedDepth-1)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("activity: publish %s event: %v", evt.Type, err)
	}
}

// Recent returns up to limit of the most recent events, newest first.
func (n *Notifier) Recent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 || limit > feedDepth {
		limit = feedDepth
	}
	if n == nil || n.rdb == nil {
		return []Event{}, nil
	}

	raw, err := n.rdb.LRange(ctx, cache.ActivityFeedKey(), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	events := make([]Event, 0, len(raw))
	for _, item := range raw {
		var evt Event
		if err := json.Unmarshal([]byte(item), &evt); err != nil {
			// Skip entries that fail to decode; one bad record should not
			// break the whole feed.
			log.Printf("activity: skipping undecodable feed entry: %v", err)
			continue
		}
		events = append(events, evt)
	}
	return events, nil
}

// StartSubscriber relays events published on the activity channel to the
// hub until ctx is cancelled. Each server instance runs exactly one
// subscriber per hub.
func (n *Notifier) StartSubscriber(ctx context.Context, hub *Hub) {
	if n == nil || n.rdb == nil {
		log.Println("activity: Redis not configured, live feed limited to this instance")
		return
	}

	sub := n.rdb.Subscribe(ctx, activityChannel)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("activity subscriber panic: %v", r)
			}
			_ = sub.Close()
		}()

		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				hub.BroadcastAll([]byte(msg.Payload))
			}
		}
	}()
}

// ListingCreated publishes a new-listing event.
func (n *Notifier) ListingCreated(ctx context.Context, listing *models.Listing) {
	if listing == nil {
		return
	}
	n.Publish(ctx, Event{
		Type:      EventListingCreated,
		ListingID: listing.ID,
		Title:     listing.Title,
		Price:     listing.Price,
		City:      listing.City,
	})
}

// ListingSold publishes a sale event.
func (n *Notifier) ListingSold(ctx context.Context, listing *models.Listing, _ *models.Sale) {
	if listing == nil {
		return
	}
	n.Publish(ctx, Event{
		Type:      EventListingSold,
		ListingID: listing.ID,
		Title:     listing.Title,
		Price:     listing.Price,
		City:      listing.City,
	})
}
