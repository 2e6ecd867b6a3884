// Package realtime fans operator events out to connected dashboards.
package realtime

import (
	"context"
	"encoding/json"
	"sync"
)

const (
	ChannelNotifications = "ops:notifications"
	ChannelChanges       = "ops:changes"
)

// Message is one payload received on a channel.
type Message struct {
	Channel string
	Payload []byte
}

// Change tells the dashboard which table to refetch.
type Change struct {
	Table string `json:"table"`
	Event string `json:"event"`
	ID    string `json:"id,omitempty"`
	Date  string `json:"date,omitempty"`
}

type Hub interface {
	Publish(ctx context.Context, channel string, v any) error
	// Subscribe delivers messages from both channels until ctx is done or
	// the returned stop func is called.
	Subscribe(ctx context.Context) (<-chan Message, func(), error)
}

// MemoryHub is an in-process Hub for single-instance deployments. Slow
// subscribers lose messages rather than block publishers.
type MemoryHub struct {
	mu     sync.Mutex
	subs   map[int]chan Message
	nextID int
	buffer int
}

func NewMemoryHub(buffer int) *MemoryHub {
	if buffer <= 0 {
		buffer = 16
	}
	return &MemoryHub{subs: map[int]chan Message{}, buffer: buffer}
}

func (h *MemoryHub) Publish(_ context.Context, channel string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- Message{Channel: channel, Payload: raw}:
		default:
		}
	}
	return nil
}

func (h *MemoryHub) Subscribe(ctx context.Context) (<-chan Message, func(), error) {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	ch := make(chan Message, h.buffer)
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			close(ch)
			h.mu.Unlock()
		})
	}
	go func() {
		<-ctx.Done()
		stop()
	}()
	return ch, stop, nil
}

// Subscribers reports how many streams are attached.
func (h *MemoryHub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
