package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/fly-arb/fly/internal/domain"
)

// updatesChannel is the pub/sub channel carrying reserve updates from the
// chain subscriber to the detector.
const updatesChannel = "fly:reserve-updates"

// SignalBus implements domain.SignalBus using Redis Pub/Sub. Reserve updates
// are ephemeral by design: a missed update is superseded by the next sync of
// the same pool, so durable delivery buys nothing.
type SignalBus struct {
	rdb    *redis.Client
	logger *slog.Logger
}

// NewSignalBus creates a SignalBus backed by the given Client.
func NewSignalBus(c *Client, logger *slog.Logger) *SignalBus {
	return &SignalBus{
		rdb:    c.Underlying(),
		logger: logger.With(slog.String("component", "signal_bus")),
	}
}

// PublishUpdate sends one reserve update to the updates channel.
func (sb *SignalBus) PublishUpdate(ctx context.Context, update domain.ReserveUpdate) error {
	payload, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("redis: marshal reserve update: %w", err)
	}
	if err := sb.rdb.Publish(ctx, updatesChannel, payload).Err(); err != nil {
		return fmt.Errorf("redis: publish %s: %w", updatesChannel, err)
	}
	return nil
}

// SubscribeUpdates creates a Pub/Sub subscription and returns a read-only
// channel of decoded reserve updates. The subscription is closed when the
// context is cancelled; the returned channel is closed at that point as well.
// Payloads that fail to decode are logged and dropped.
func (sb *SignalBus) SubscribeUpdates(ctx context.Context) (<-chan domain.ReserveUpdate, error) {
	pubsub := sb.rdb.Subscribe(ctx, updatesChannel)

	// Verify the subscription is established by receiving the confirmation.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("redis: subscribe %s: %w", updatesChannel, err)
	}

	out := make(chan domain.ReserveUpdate, 128)
	go func() {
		defer close(out)
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
				var update domain.ReserveUpdate
				if err := json.Unmarshal([]byte(msg.Payload), &update); err != nil {
					sb.logger.Warn("dropping malformed reserve update",
						slog.String("error", err.Error()))
					continue
				}
				select {
				case out <- update:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// Compile-time interface check.
var _ domain.SignalBus = (*SignalBus)(nil)
