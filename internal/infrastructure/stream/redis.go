package stream

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/promptdeck/syncengine"
)

// RedisStream delivers change events pushed on redis pub/sub channels. One
// subscription per channel; the consumer owns the returned channel's
// lifetime via its context.
type RedisStream struct {
	rdb *redis.Client
}

func NewRedisStream(redisClient *redis.Client) *RedisStream {
	return &RedisStream{
		rdb: redisClient,
	}
}

func (s *RedisStream) Subscribe(ctx context.Context, channel string) (<-chan syncengine.ChangeEvent, error) {
	pubsub := s.rdb.Subscribe(ctx, channel)

	// Receive forces the SUBSCRIBE round-trip so a bad connection fails here
	// rather than silently dropping events.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, err
	}

	events := make(chan syncengine.ChangeEvent)
	go func() {
		defer close(events)
		defer pubsub.Close()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event syncengine.ChangeEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					slog.Error("failed to decode change event",
						slog.String("error", err.Error()),
						slog.String("channel", channel),
						slog.String("module", "stream"),
					)
					continue
				}
				select {
				case events <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return events, nil
}
