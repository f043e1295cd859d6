package websocket

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestClient(h *Hub, buffer int) *Client {
	return &Client{
		hub:   h,
		send:  make(chan []byte, buffer),
		rooms: make(map[uint]bool),
	}
}

// drainUntilClosed reads from the client's send channel until the hub
// closes it, discarding any broadcasts that got through first.
func drainUntilClosed(t *testing.T, ch chan []byte) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("slow watcher was never evicted")
		}
	}
}

func TestConcurrentBroadcastsEvictSlowWatchers(t *testing.T) {
	h := NewHub()
	go h.Run()

	const roomID = uint(7)

	// Watchers with unbuffered send channels that nobody reads: every
	// broadcast finds them slow.
	slow := make([]*Client, 0, 50)
	for i := 0; i < 50; i++ {
		c := newTestClient(h, 0)
		h.register <- c
		h.watchRoom(c, roomID)
		slow = append(slow, c)
	}

	fast := newTestClient(h, 512)
	h.register <- fast
	h.watchRoom(fast, roomID)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				h.broadcastToRoom(roomID, []byte(`{"type":"participant_joined"}`))
			}
		}()
	}
	wg.Wait()

	for _, c := range slow {
		drainUntilClosed(t, c.send)
	}

	// The fast watcher stayed registered and still receives.
	h.broadcastToRoom(roomID, []byte(`{"type":"room_closed"}`))
	select {
	case msg, ok := <-fast.send:
		require.True(t, ok)
		require.NotEmpty(t, msg)
	case <-time.After(time.Second):
		t.Fatal("fast watcher stopped receiving broadcasts")
	}
}

func TestUnregisterTwiceIsANoOp(t *testing.T) {
	h := NewHub()
	go h.Run()

	c := newTestClient(h, 0)
	h.register <- c
	h.watchRoom(c, 3)

	h.unregister <- c
	h.unregister <- c

	drainUntilClosed(t, c.send)

	// The room was cleaned up with its last watcher gone; a broadcast
	// to it finds nobody and returns.
	h.broadcastToRoom(3, []byte(`{"type":"participant_left"}`))
}
