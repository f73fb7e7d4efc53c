package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const feedChannelPrefix = "friendships:"

// RedisChangeFeed implements ChangeFeed on redis pub/sub: one channel per
// user, one message per committed change. Messages carry no payload;
// subscribers recompute their result set from postgres on every signal.
type RedisChangeFeed struct {
	client *redis.Client
}

func NewRedisChangeFeed(client *redis.Client) *RedisChangeFeed {
	return &RedisChangeFeed{client: client}
}

func (f *RedisChangeFeed) Publish(ctx context.Context, userID uuid.UUID) error {
	return f.client.Publish(ctx, feedChannelPrefix+userID.String(), "1").Err()
}

// Subscribe opens a live channel of change signals for one user. Bursts of
// writes coalesce into a single pending signal. The returned stop function
// releases the redis subscription and closes the channel; it is safe to
// call only once (callers hold it behind Subscription).
func (f *RedisChangeFeed) Subscribe(ctx context.Context, userID uuid.UUID) (<-chan struct{}, func(), error) {
	pubsub := f.client.Subscribe(ctx, feedChannelPrefix+userID.String())
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, nil, err
	}

	signals := make(chan struct{}, 1)
	go func() {
		defer close(signals)
		for range pubsub.Channel() {
			select {
			case signals <- struct{}{}:
			default:
			}
		}
	}()

	stop := func() {
		_ = pubsub.Close()
	}
	return signals, stop, nil
}
