package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"driveline/internal/notifications"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetRecentActivity_WithoutRedis(t *testing.T) {
	s := &Server{notifier: notifications.NewNotifier(nil)}
	app := fiber.New()
	app.Get("/activity/recent", s.GetRecentActivity)

	req := httptest.NewRequest(http.MethodGet, "/activity/recent", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Events []notifications.Event `json:"events"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Empty(t, body.Events)
}

func TestGetRecentActivity_ReturnsEvents(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	notifier := notifications.NewNotifier(rdb)
	notifier.Publish(context.Background(), notifications.Event{
		Type: notifications.EventListingCreated, ListingID: 1, Title: "2019 Golf", Price: 14500,
	})
	notifier.Publish(context.Background(), notifications.Event{
		Type: notifications.EventListingSold, ListingID: 1, Title: "2019 Golf", Price: 14500,
	})

	s := &Server{notifier: notifier}
	app := fiber.New()
	app.Get("/activity/recent", s.GetRecentActivity)

	req := httptest.NewRequest(http.MethodGet, "/activity/recent?limit=1", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Events []notifications.Event `json:"events"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Events, 1)
	assert.Equal(t, notifications.EventListingSold, body.Events[0].Type)
}
