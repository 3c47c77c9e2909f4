package broker

import (
	"context"
	"encoding/json"

	"github.com/Baaaki/buy-sell-store/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const productEventsChannel = "products:events"

// RedisEventBroker implements EventBroker using Redis pub/sub
type RedisEventBroker struct {
	client *redis.Client
}

func NewRedisEventBroker(client *redis.Client) *RedisEventBroker {
	return &RedisEventBroker{client: client}
}

func (r *RedisEventBroker) Publish(ctx context.Context, event ProductEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return r.client.Publish(ctx, productEventsChannel, data).Err()
}

func (r *RedisEventBroker) Subscribe(ctx context.Context) (<-chan ProductEvent, error) {
	pubsub := r.client.Subscribe(ctx, productEventsChannel)

	// Wait for the subscription confirmation so no event published after
	// Subscribe returns is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	events := make(chan ProductEvent, 100)

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

				var event ProductEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					logger.Log.Warn("Dropping malformed product event",
						zap.String("payload", msg.Payload),
						zap.Error(err),
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

// Close is a no-op; the shared Redis client is owned by the caller.
func (r *RedisEventBroker) Close() error {
	return nil
}
