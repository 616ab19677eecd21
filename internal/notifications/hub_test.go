package notifications

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_RegisterAndUnregister(t *testing.T) {
	t.Parallel()
	hub := NewHub()

	c := NewClient(hub, nil, 1)
	require.NoError(t, hub.RegisterClient(c))
	assert.Equal(t, 1, hub.ClientCount())

	hub.UnregisterClient(c)
	assert.Equal(t, 0, hub.ClientCount())

	// Unregistering twice must not panic or double-close the channel.
	hub.UnregisterClient(c)
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHub_PerUserConnectionLimit(t *testing.T) {
	t.Parallel()
	hub := NewHub()

	for i := 0; i < maxConnsPerUser; i++ {
		require.NoError(t, hub.RegisterClient(NewClient(hub, nil, 7)))
	}
	err := hub.RegisterClient(NewClient(hub, nil, 7))
	assert.ErrorIs(t, err, ErrTooManyConns)

	// A different user is unaffected.
	assert.NoError(t, hub.RegisterClient(NewClient(hub, nil, 8)))
}

func TestHub_AnonymousClientsBypassPerUserLimit(t *testing.T) {
	t.Parallel()
	hub := NewHub()

	for i := 0; i < maxConnsPerUser+3; i++ {
		require.NoError(t, hub.RegisterClient(NewClient(hub, nil, 0)))
	}
	assert.Equal(t, maxConnsPerUser+3, hub.ClientCount())
}

func TestHub_BroadcastAll(t *testing.T) {
	t.Parallel()
	hub := NewHub()

	a := NewClient(hub, nil, 0)
	b := NewClient(hub, nil, 3)
	require.NoError(t, hub.RegisterClient(a))
	require.NoError(t, hub.RegisterClient(b))

	hub.BroadcastAll([]byte(`{"type":"listing_created"}`))

	assert.Equal(t, `{"type":"listing_created"}`, string(<-a.Send))
	assert.Equal(t, `{"type":"listing_created"}`, string(<-b.Send))
}

func TestHub_BroadcastSkipsSlowClient(t *testing.T) {
	t.Parallel()
	hub := NewHub()

	slow := &Client{Hub: hub, Send: make(chan []byte, 1)}
	fast := NewClient(hub, nil, 0)
	require.NoError(t, hub.RegisterClient(slow))
	require.NoError(t, hub.RegisterClient(fast))

	// Fill the slow client's buffer so the next broadcast drops for it.
	slow.Send <- []byte("backlog")

	hub.BroadcastAll([]byte("event"))

	assert.Equal(t, "event", string(<-fast.Send))
	assert.Equal(t, "backlog", string(<-slow.Send))
	select {
	case msg := <-slow.Send:
		t.Fatalf("expected dropped message for slow client, got %q", msg)
	default:
	}
}

func TestHub_ShutdownClosesClientsAndRejectsNew(t *testing.T) {
	t.Parallel()
	hub := NewHub()

	c := NewClient(hub, nil, 1)
	require.NoError(t, hub.RegisterClient(c))

	hub.Shutdown()

	assert.Equal(t, 0, hub.ClientCount())
	_, open := <-c.Send
	assert.False(t, open)

	err := hub.RegisterClient(NewClient(hub, nil, 2))
	assert.Error(t, err)
}
