package services

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/entrelivros/entrelivros/internal/logging"
	"github.com/entrelivros/entrelivros/internal/models"
)

// Friends subscriptions are bounded; request subscriptions are not.
const friendsSubscriptionLimit = 50

// Subscription is a live query handle. Unsubscribe releases the underlying
// feed channel and stops callbacks; calling it more than once is harmless.
type Subscription struct {
	once sync.Once
	stop func()
	done chan struct{}
}

// Unsubscribe releases the live query. Must be called when the consumer is
// done, or the feed connection leaks.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.stop()
		<-s.done
	})
}

// SubscriptionService delivers live views over the relationship store. Each
// subscription receives the full current result set immediately, then a full
// recomputed set after every change signal, never deltas. Subscriptions for
// the same user are independent; each gets its own callback stream.
type SubscriptionService struct {
	queries FriendQueryServiceInterface
	feed    ChangeFeed
}

func NewSubscriptionService(queries FriendQueryServiceInterface, feed ChangeFeed) *SubscriptionService {
	return &SubscriptionService{queries: queries, feed: feed}
}

func (s *SubscriptionService) SubscribeFriends(ctx context.Context, userID uuid.UUID, fn func([]models.Relationship)) (*Subscription, error) {
	return s.subscribe(ctx, userID, fn, func(ctx context.Context) ([]models.Relationship, error) {
		page, err := s.queries.ListFriends(ctx, userID, friendsSubscriptionLimit, "")
		if err != nil {
			return nil, err
		}
		return page.Friends, nil
	})
}

func (s *SubscriptionService) SubscribeIncoming(ctx context.Context, userID uuid.UUID, fn func([]models.Relationship)) (*Subscription, error) {
	return s.subscribe(ctx, userID, fn, func(ctx context.Context) ([]models.Relationship, error) {
		return s.queries.ListIncomingRequests(ctx, userID)
	})
}

func (s *SubscriptionService) SubscribeOutgoing(ctx context.Context, userID uuid.UUID, fn func([]models.Relationship)) (*Subscription, error) {
	return s.subscribe(ctx, userID, fn, func(ctx context.Context) ([]models.Relationship, error) {
		return s.queries.ListOutgoingRequests(ctx, userID)
	})
}

func (s *SubscriptionService) subscribe(ctx context.Context, userID uuid.UUID, fn func([]models.Relationship), compute func(context.Context) ([]models.Relationship, error)) (*Subscription, error) {
	signals, stop, err := s.feed.Subscribe(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Initial full snapshot before any signal can arrive.
	if err := deliver(ctx, fn, compute); err != nil {
		stop()
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for range signals {
			if err := deliver(ctx, fn, compute); err != nil {
				logging.Error("Failed to recompute live query", map[string]interface{}{
					"error":   err.Error(),
					"user_id": userID.String(),
				})
			}
		}
	}()

	return &Subscription{stop: stop, done: done}, nil
}

func deliver(ctx context.Context, fn func([]models.Relationship), compute func(context.Context) ([]models.Relationship, error)) error {
	set, err := compute(ctx)
	if err != nil {
		return err
	}
	fn(set)
	return nil
}
