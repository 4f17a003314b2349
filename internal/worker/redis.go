package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"campusbot/internal/redis"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const redisInvalidateChannel = "campusbot:invalidate"

const (
	// ScopeUser asks peers to stop the user's worker and drop their dialogue state.
	ScopeUser = "user"
	// ScopeCatalogue asks peers to drop cached campus data.
	ScopeCatalogue = "catalogue"
)

// Invalidation is broadcast between instances sharing a redis.
type Invalidation struct {
	UserID int64  `json:"user_id,omitempty"`
	Scope  string `json:"scope"`
	Origin string `json:"origin"`
}

// Broadcaster publishes and receives invalidations over redis pub/sub.
// Messages published by the same Broadcaster are not delivered back to it.
type Broadcaster struct {
	client *redis.Client
	origin string
	logger *zap.Logger
}

func NewBroadcaster(client *redis.Client, logger *zap.Logger) *Broadcaster {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Broadcaster{
		client: client,
		origin: uuid.NewString(),
		logger: logger.Named("broadcast"),
	}
}

// Publish sends inv to every other instance.
func (b *Broadcaster) Publish(ctx context.Context, inv Invalidation) error {
	if b == nil || b.client.Raw() == nil {
		return nil
	}
	inv.Origin = b.origin
	payload, err := json.Marshal(inv)
	if err != nil {
		return fmt.Errorf("marshal invalidation: %w", err)
	}
	if err := b.client.Raw().Publish(ctx, redisInvalidateChannel, payload).Err(); err != nil {
		return fmt.Errorf("publish invalidation: %w", err)
	}
	return nil
}

// Listen subscribes before returning and then feeds peer invalidations to
// handler until ctx is done.
func (b *Broadcaster) Listen(ctx context.Context, handler func(Invalidation)) error {
	raw := b.client.Raw()
	if raw == nil {
		return errors.New("redis client not initialized")
	}
	pubsub := raw.Subscribe(ctx, redisInvalidateChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return fmt.Errorf("subscribe %s: %w", redisInvalidateChannel, err)
	}
	go func() {
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
				var inv Invalidation
				if err := json.Unmarshal([]byte(msg.Payload), &inv); err != nil {
					b.logger.Warn("decode invalidation", zap.Error(err))
					continue
				}
				if inv.Origin == b.origin {
					continue
				}
				handler(inv)
			}
		}
	}()
	return nil
}
