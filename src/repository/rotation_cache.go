package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/partyplaylist/backend/src/domain"
)

// releaseLockScript deletes the lock only if it still holds our token
var releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RotationCacheRepository handles Redis operations shared between rotation instances
type RotationCacheRepository struct {
	redis        *redis.Client
	lockKey      string
	eventChannel string
	lockTTL      time.Duration
}

// NewRotationCacheRepository creates a repository that namespaces its keys under prefix
func NewRotationCacheRepository(redis *redis.Client, prefix string, lockTTL time.Duration) *RotationCacheRepository {
	return &RotationCacheRepository{
		redis:        redis,
		lockKey:      prefix + ":lock",
		eventChannel: prefix + ":events",
		lockTTL:      lockTTL,
	}
}

// EventChannel is the pub/sub channel rotation events are published on
func (r *RotationCacheRepository) EventChannel() string {
	return r.eventChannel
}

// Acquire tries to take the tick lease. When acquired, the returned release func must be called
// once the tick is done. The lease expires on its own after lockTTL if the holder dies.
func (r *RotationCacheRepository) Acquire(ctx context.Context) (func(context.Context) error, bool, error) {
	token := uuid.NewString()

	ok, err := r.redis.SetNX(ctx, r.lockKey, token, r.lockTTL).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire rotation lock: %w", err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func(ctx context.Context) error {
		if err := releaseLockScript.Run(ctx, r.redis, []string{r.lockKey}, token).Err(); err != nil && err != redis.Nil {
			return fmt.Errorf("failed to release rotation lock: %w", err)
		}
		return nil
	}
	return release, true, nil
}

// Publish broadcasts a rotation event
func (r *RotationCacheRepository) Publish(ctx context.Context, event domain.RotationEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal rotation event: %w", err)
	}

	return r.redis.Publish(ctx, r.eventChannel, data).Err()
}

// Subscribe returns a channel of decoded rotation events. It is closed when ctx is done.
func (r *RotationCacheRepository) Subscribe(ctx context.Context) (<-chan domain.RotationEvent, error) {
	pubsub := r.redis.Subscribe(ctx, r.eventChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", r.eventChannel, err)
	}

	events := make(chan domain.RotationEvent)
	go func() {
		defer close(events)
		defer pubsub.Close()

		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var event domain.RotationEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
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
