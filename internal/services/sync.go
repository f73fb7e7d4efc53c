package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/entrelivros/entrelivros/internal/logging"
)

// SnapshotSyncService refreshes the denormalized counterpart snapshots after
// a canonical profile edit. It is deliberately decoupled from the profile
// write itself: callers schedule it afterwards, and a short window of stale
// snapshots is acceptable.
type SnapshotSyncService struct {
	db        DB
	snapshots SnapshotProvider
	feed      ChangeFeed
}

func NewSnapshotSyncService(db DB, snapshots SnapshotProvider, feed ChangeFeed) *SnapshotSyncService {
	return &SnapshotSyncService{db: db, snapshots: snapshots, feed: feed}
}

// SyncUserSnapshot overwrites the snapshot sub-fields on every relationship
// record whose counterpart is userID, in one atomic statement. Only the
// cached fields and updated_at change; status, friendship_date and the rest
// stay untouched. A missing profile is a no-op: sync must never fail the
// profile edit that triggered it.
func (s *SnapshotSyncService) SyncUserSnapshot(ctx context.Context, userID uuid.UUID) error {
	snapshot, err := s.snapshots.Snapshot(ctx, userID)
	if errors.Is(err, ErrUserNotFound) {
		logging.Warn("Skipping snapshot sync for missing user", map[string]interface{}{
			"user_id": userID.String(),
		})
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading snapshot for sync: %w", err)
	}

	rows, err := s.db.Query(ctx,
		`UPDATE friendships
		 SET friend_display_name = $2,
		     friend_nickname = $3,
		     friend_photo_url = $4,
		     friend_bio = $5,
		     friend_location = $6,
		     updated_at = NOW()
		 WHERE counterpart_id = $1
		 RETURNING owner_id`,
		userID,
		snapshot.DisplayName, snapshot.Nickname, snapshot.PhotoURL,
		snapshot.Bio, snapshot.Location,
	)
	if err != nil {
		return fmt.Errorf("syncing snapshots: %w", err)
	}
	defer rows.Close()

	owners := map[uuid.UUID]struct{}{}
	for rows.Next() {
		var ownerID uuid.UUID
		if err := rows.Scan(&ownerID); err != nil {
			return fmt.Errorf("scanning synced record: %w", err)
		}
		owners[ownerID] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("reading synced records: %w", err)
	}

	if len(owners) == 0 {
		return nil
	}

	logging.Info("Snapshot sync applied", map[string]interface{}{
		"user_id": userID.String(),
		"records": len(owners),
	})

	if s.feed != nil {
		for ownerID := range owners {
			if err := s.feed.Publish(ctx, ownerID); err != nil {
				logging.Error("Failed to publish snapshot sync", map[string]interface{}{
					"error":    err.Error(),
					"owner_id": ownerID.String(),
				})
			}
		}
	}
	return nil
}
