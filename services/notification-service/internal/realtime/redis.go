package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/redis/go-redis/v9"
)

// RedisHub publishes on Redis channels so every notification-service
// instance can feed its own SSE clients.
type RedisHub struct {
	rdb redis.UniversalClient
}

func NewRedisHub(rdb redis.UniversalClient) *RedisHub {
	return &RedisHub{rdb: rdb}
}

func (h *RedisHub) Publish(ctx context.Context, channel string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return h.rdb.Publish(ctx, channel, raw).Err()
}

func (h *RedisHub) Subscribe(ctx context.Context) (<-chan Message, func(), error) {
	ps := h.rdb.Subscribe(ctx, ChannelNotifications, ChannelChanges)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, nil, err
	}

	out := make(chan Message, 16)
	done := make(chan struct{})
	var once sync.Once
	stop := func() {
		once.Do(func() {
			close(done)
			_ = ps.Close()
		})
	}

	go func() {
		defer close(out)
		in := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				stop()
				return
			case <-done:
				return
			case m, ok := <-in:
				if !ok {
					return
				}
				select {
				case out <- Message{Channel: m.Channel, Payload: []byte(m.Payload)}:
				default:
				}
			}
		}
	}()
	return out, stop, nil
}

// Ping backs the readiness check.
func (h *RedisHub) Ping(ctx context.Context) error {
	if h.rdb == nil {
		return errors.New("redis not configured")
	}
	return h.rdb.Ping(ctx).Err()
}
