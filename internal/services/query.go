package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/entrelivros/entrelivros/internal/models"
)

var ErrInvalidCursor = errors.New("invalid pagination cursor")

const (
	DefaultFriendPageSize = 20
	MaxFriendPageSize     = 100
)

const relationshipColumns = `id, owner_id, counterpart_id, status, requested_by, friendship_date,
	        created_at, updated_at,
	        friend_display_name, friend_nickname, friend_photo_url, friend_email,
	        friend_bio, friend_location, friend_joined_at, friend_last_active`

// FriendQueryService is the one-shot read side of the relationship store.
// All projections read a single owner's records; the embedded snapshots make
// them render-ready without touching the users table.
type FriendQueryService struct {
	db DB
}

func NewFriendQueryService(db DB) *FriendQueryService {
	return &FriendQueryService{db: db}
}

// ListFriends returns accepted relationships ordered by friendship_date
// descending, keyset-paginated by an opaque cursor. HasMore is true iff the
// page came back full.
func (s *FriendQueryService) ListFriends(ctx context.Context, userID uuid.UUID, pageSize int, cursor string) (*models.FriendPage, error) {
	if pageSize <= 0 {
		pageSize = DefaultFriendPageSize
	}
	if pageSize > MaxFriendPageSize {
		pageSize = MaxFriendPageSize
	}

	query := `SELECT ` + relationshipColumns + `
	 FROM friendships
	 WHERE owner_id = $1 AND status = 'accepted'`
	args := []any{userID}

	if cursor != "" {
		afterDate, afterID, err := decodeCursor(cursor)
		if err != nil {
			return nil, err
		}
		query += ` AND (friendship_date, id) < ($2, $3)`
		args = append(args, afterDate, afterID)
	}

	query += fmt.Sprintf(` ORDER BY friendship_date DESC, id DESC LIMIT $%d`, len(args)+1)
	args = append(args, pageSize)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing friends: %w", err)
	}
	defer rows.Close()

	friends := []models.Relationship{}
	// Record ids are unique per query, but the page still guards against
	// store-level duplicates.
	seen := map[uuid.UUID]struct{}{}
	for rows.Next() {
		rel, err := scanRelationship(rows)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[rel.ID]; ok {
			continue
		}
		seen[rel.ID] = struct{}{}
		friends = append(friends, *rel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading friends: %w", err)
	}

	page := &models.FriendPage{
		Friends: friends,
		HasMore: len(friends) == pageSize,
	}
	if len(friends) > 0 {
		last := friends[len(friends)-1]
		if last.FriendshipDate != nil {
			page.NextCursor = encodeCursor(*last.FriendshipDate, last.ID)
		}
	}
	return page, nil
}

// ListIncomingRequests returns pending records someone else sent to the
// user, newest first.
func (s *FriendQueryService) ListIncomingRequests(ctx context.Context, userID uuid.UUID) ([]models.Relationship, error) {
	return s.listPending(ctx, userID, "requested_by != $1")
}

// ListOutgoingRequests returns the user's own pending requests, newest
// first.
func (s *FriendQueryService) ListOutgoingRequests(ctx context.Context, userID uuid.UUID) ([]models.Relationship, error) {
	return s.listPending(ctx, userID, "requested_by = $1")
}

func (s *FriendQueryService) listPending(ctx context.Context, userID uuid.UUID, direction string) ([]models.Relationship, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+relationshipColumns+`
		 FROM friendships
		 WHERE owner_id = $1 AND status = 'pending' AND `+direction+`
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing requests: %w", err)
	}
	defer rows.Close()

	requests := []models.Relationship{}
	for rows.Next() {
		rel, err := scanRelationship(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *rel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading requests: %w", err)
	}
	return requests, nil
}

func scanRelationship(rows Rows) (*models.Relationship, error) {
	rel := &models.Relationship{}
	err := rows.Scan(
		&rel.ID, &rel.OwnerID, &rel.CounterpartID, &rel.Status, &rel.RequestedBy,
		&rel.FriendshipDate, &rel.CreatedAt, &rel.UpdatedAt,
		&rel.Counterpart.DisplayName, &rel.Counterpart.Nickname, &rel.Counterpart.PhotoURL,
		&rel.Counterpart.Email, &rel.Counterpart.Bio, &rel.Counterpart.Location,
		&rel.Counterpart.JoinedAt, &rel.Counterpart.LastActive,
	)
	if err != nil {
		return nil, fmt.Errorf("scanning relationship: %w", err)
	}
	rel.Counterpart.ID = rel.CounterpartID
	return rel, nil
}

func encodeCursor(friendshipDate time.Time, id uuid.UUID) string {
	raw := fmt.Sprintf("%d|%s", friendshipDate.UnixMicro(), id)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func decodeCursor(cursor string) (time.Time, uuid.UUID, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return time.Time{}, uuid.Nil, ErrInvalidCursor
	}
	parts := strings.SplitN(string(raw), "|", 2)
	if len(parts) != 2 {
		return time.Time{}, uuid.Nil, ErrInvalidCursor
	}
	var micros int64
	if _, err := fmt.Sscanf(parts[0], "%d", &micros); err != nil {
		return time.Time{}, uuid.Nil, ErrInvalidCursor
	}
	id, err := uuid.Parse(parts[1])
	if err != nil {
		return time.Time{}, uuid.Nil, ErrInvalidCursor
	}
	return time.UnixMicro(micros), id, nil
}
