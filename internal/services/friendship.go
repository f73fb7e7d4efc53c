package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/jackc/pgx/v5"

	"github.com/entrelivros/entrelivros/internal/logging"
	"github.com/entrelivros/entrelivros/internal/models"
)

var (
	ErrRelationshipExists   = errors.New("relationship already exists")
	ErrRelationshipNotFound = errors.New("relationship not found")
	ErrCannotFriendSelf     = errors.New("cannot send friend request to yourself")
	ErrNotRequestSender     = errors.New("only the sender can cancel a request")
)

// FriendshipService owns every mutation of the relationship graph. Each
// operation touches both records of a mirrored pair in one transaction or
// one multi-row statement, so the pair can never be half-updated. Queries
// that match zero records are treated as "already in the target state".
type FriendshipService struct {
	db            TxDB
	snapshots     SnapshotProvider
	notifications NotificationCreator
	feed          ChangeFeed
}

func NewFriendshipService(db TxDB, snapshots SnapshotProvider, notifications NotificationCreator, feed ChangeFeed) *FriendshipService {
	return &FriendshipService{
		db:            db,
		snapshots:     snapshots,
		notifications: notifications,
		feed:          feed,
	}
}

// SendRequest creates the mirrored pending pair: one record owned by each
// participant, each embedding the other's profile snapshot, both stamped
// with requested_by = fromID.
func (s *FriendshipService) SendRequest(ctx context.Context, fromID, toID uuid.UUID) error {
	if fromID == toID {
		return ErrCannotFriendSelf
	}

	fromUser, err := s.snapshots.Snapshot(ctx, fromID)
	if err != nil {
		return err
	}
	toUser, err := s.snapshots.Snapshot(ctx, toID)
	if err != nil {
		return err
	}

	var exists bool
	err = s.db.QueryRow(ctx,
		`SELECT EXISTS(
			SELECT 1 FROM friendships
			WHERE (owner_id = $1 AND counterpart_id = $2)
			   OR (owner_id = $2 AND counterpart_id = $1)
		)`,
		fromID, toID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking relationship existence: %w", err)
	}
	if exists {
		return ErrRelationshipExists
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := insertRelationship(ctx, tx, fromID, toID, fromID, toUser); err != nil {
		return err
	}
	if err := insertRelationship(ctx, tx, toID, fromID, fromID, fromUser); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing friend request: %w", err)
	}

	s.notify(ctx, models.CreateNotificationParams{
		UserID:     toID,
		Type:       models.NotificationTypeFriendRequest,
		FromUserID: fromID,
		Message:    "enviou uma solicitação de amizade",
	})
	s.publish(ctx, fromID, toID)
	return nil
}

// AcceptRequest transitions the pending pair to accepted with a single
// friendship_date shared by both records. A missing record on either side is
// skipped, not an error, so retries are safe.
func (s *FriendshipService) AcceptRequest(ctx context.Context, userID, counterpartID uuid.UUID) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE friendships
		 SET status = 'accepted', friendship_date = NOW(), updated_at = NOW()
		 WHERE ((owner_id = $1 AND counterpart_id = $2) OR (owner_id = $2 AND counterpart_id = $1))
		   AND status = 'pending'`,
		userID, counterpartID,
	)
	if err != nil {
		return fmt.Errorf("accepting friend request: %w", err)
	}

	if tag.RowsAffected() > 0 {
		s.notify(ctx, models.CreateNotificationParams{
			UserID:     counterpartID,
			Type:       models.NotificationTypeFriendAccept,
			FromUserID: userID,
			Message:    "aceitou sua solicitação de amizade",
		})
		s.publish(ctx, userID, counterpartID)
	}
	return nil
}

// RejectRequest deletes both pending records. Rejections are silent: no
// notification is emitted.
func (s *FriendshipService) RejectRequest(ctx context.Context, userID, counterpartID uuid.UUID) error {
	return s.deletePair(ctx, userID, counterpartID, models.RelationshipStatusPending, "rejecting friend request")
}

// RemoveFriend deletes both accepted records. No notification.
func (s *FriendshipService) RemoveFriend(ctx context.Context, userID, counterpartID uuid.UUID) error {
	return s.deletePair(ctx, userID, counterpartID, models.RelationshipStatusAccepted, "removing friend")
}

// CancelSentRequest deletes one of the caller's outgoing pending records
// together with its mirror on the counterpart side.
func (s *FriendshipService) CancelSentRequest(ctx context.Context, userID, recordID uuid.UUID) error {
	rel := &models.Relationship{}
	err := s.db.QueryRow(ctx,
		`SELECT id, owner_id, counterpart_id, status, requested_by
		 FROM friendships WHERE id = $1`,
		recordID,
	).Scan(&rel.ID, &rel.OwnerID, &rel.CounterpartID, &rel.Status, &rel.RequestedBy)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrRelationshipNotFound
	}
	if err != nil {
		return fmt.Errorf("loading request record: %w", err)
	}

	if rel.OwnerID != userID || rel.RequestedBy != userID || rel.Status != models.RelationshipStatusPending {
		return ErrNotRequestSender
	}

	return s.deletePair(ctx, rel.OwnerID, rel.CounterpartID, models.RelationshipStatusPending, "canceling sent request")
}

// CancelAllSentRequests cancels every outgoing pending request for the user.
// Sub-operations run sequentially; a failure does not stop the loop and
// already-applied deletions stay applied. The aggregate error reports every
// counterpart that failed.
func (s *FriendshipService) CancelAllSentRequests(ctx context.Context, userID uuid.UUID) error {
	rows, err := s.db.Query(ctx,
		`SELECT counterpart_id FROM friendships
		 WHERE owner_id = $1 AND status = 'pending' AND requested_by = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("listing outgoing requests: %w", err)
	}
	defer rows.Close()

	var counterparts []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("scanning outgoing request: %w", err)
		}
		counterparts = append(counterparts, id)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("reading outgoing requests: %w", err)
	}

	var result *multierror.Error
	for _, counterpartID := range counterparts {
		if err := s.deletePair(ctx, userID, counterpartID, models.RelationshipStatusPending, "canceling sent request"); err != nil {
			result = multierror.Append(result, fmt.Errorf("counterpart %s: %w", counterpartID, err))
		}
	}
	return result.ErrorOrNil()
}

// deletePair removes both directions of a relationship in the given status
// with one statement. Zero affected rows means the graph is already in the
// target state.
func (s *FriendshipService) deletePair(ctx context.Context, userID, counterpartID uuid.UUID, status models.RelationshipStatus, action string) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM friendships
		 WHERE ((owner_id = $1 AND counterpart_id = $2) OR (owner_id = $2 AND counterpart_id = $1))
		   AND status = $3`,
		userID, counterpartID, status,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}

	if tag.RowsAffected() > 0 {
		s.publish(ctx, userID, counterpartID)
	}
	return nil
}

// notify is fire-and-forget: a notification failure never rolls back or
// fails the friendship mutation it follows.
func (s *FriendshipService) notify(ctx context.Context, params models.CreateNotificationParams) {
	if s.notifications == nil {
		return
	}
	if err := s.notifications.Create(ctx, params); err != nil {
		logging.Error("Failed to create notification", map[string]interface{}{
			"error":   err.Error(),
			"user_id": params.UserID.String(),
			"type":    string(params.Type),
		})
	}
}

// publish signals both participants' live queries. Best-effort only.
func (s *FriendshipService) publish(ctx context.Context, userIDs ...uuid.UUID) {
	if s.feed == nil {
		return
	}
	for _, id := range userIDs {
		if err := s.feed.Publish(ctx, id); err != nil {
			logging.Error("Failed to publish friendship change", map[string]interface{}{
				"error":   err.Error(),
				"user_id": id.String(),
			})
		}
	}
}

func insertRelationship(ctx context.Context, tx Tx, ownerID, counterpartID, requestedBy uuid.UUID, snapshot *models.ProfileSnapshot) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO friendships (
			owner_id, counterpart_id, status, requested_by,
			friend_display_name, friend_nickname, friend_photo_url, friend_email,
			friend_bio, friend_location, friend_joined_at, friend_last_active
		 ) VALUES ($1, $2, 'pending', $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		ownerID, counterpartID, requestedBy,
		snapshot.DisplayName, snapshot.Nickname, snapshot.PhotoURL, snapshot.Email,
		snapshot.Bio, snapshot.Location, snapshot.JoinedAt, snapshot.LastActive,
	)
	if err != nil {
		return fmt.Errorf("creating relationship record: %w", err)
	}
	return nil
}
