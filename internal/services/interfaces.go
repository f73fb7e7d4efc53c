package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/entrelivros/entrelivros/internal/models"
)

// Row mirrors the single-row scan surface of pgx.
type Row interface {
	Scan(dest ...any) error
}

// Rows mirrors the multi-row scan surface of pgx.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Close()
	Err() error
}

// CommandTag exposes the affected-row count of a write.
type CommandTag interface {
	RowsAffected() int64
}

// DB is the narrow query surface services depend on. The pool and open
// transactions both satisfy it, and tests substitute fakes.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) Row
	Exec(ctx context.Context, sql string, args ...any) (CommandTag, error)
}

// Tx is an open transaction: the atomic multi-record batch primitive the
// graph store builds its mirrored-pair writes on.
type Tx interface {
	DB
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TxDB is a DB that can open transactions.
type TxDB interface {
	DB
	Begin(ctx context.Context) (Tx, error)
}

// ChangeFeed carries per-user change signals from the graph store and sync
// to the subscription layer. Signals carry no payload; subscribers recompute
// their full result set on every tick.
type ChangeFeed interface {
	Publish(ctx context.Context, userID uuid.UUID) error
	Subscribe(ctx context.Context, userID uuid.UUID) (<-chan struct{}, func(), error)
}

// UserServiceInterface defines the contract for user and profile operations.
type UserServiceInterface interface {
	Create(ctx context.Context, params models.CreateUserParams) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, params models.UpdateProfileParams) (*models.User, error)
	Snapshot(ctx context.Context, id uuid.UUID) (*models.ProfileSnapshot, error)
	TouchLastActive(ctx context.Context, userID uuid.UUID) error
}

// SnapshotProvider is the read-only slice of the user service the graph
// store and sync need.
type SnapshotProvider interface {
	Snapshot(ctx context.Context, id uuid.UUID) (*models.ProfileSnapshot, error)
}

// AuthServiceInterface defines the contract for authentication operations.
type AuthServiceInterface interface {
	HashPassword(password string) (string, error)
	VerifyPassword(hash, password string) bool
	CreateSession(ctx context.Context, userID uuid.UUID) (token string, err error)
	ValidateSession(ctx context.Context, token string) (*models.User, error)
	DeleteSession(ctx context.Context, token string) error
}

// FriendshipServiceInterface defines the contract for the mutating side of
// the relationship graph.
type FriendshipServiceInterface interface {
	SendRequest(ctx context.Context, fromID, toID uuid.UUID) error
	AcceptRequest(ctx context.Context, userID, counterpartID uuid.UUID) error
	RejectRequest(ctx context.Context, userID, counterpartID uuid.UUID) error
	RemoveFriend(ctx context.Context, userID, counterpartID uuid.UUID) error
	CancelSentRequest(ctx context.Context, userID, recordID uuid.UUID) error
	CancelAllSentRequests(ctx context.Context, userID uuid.UUID) error
}

// FriendQueryServiceInterface defines the one-shot read projections.
type FriendQueryServiceInterface interface {
	ListFriends(ctx context.Context, userID uuid.UUID, pageSize int, cursor string) (*models.FriendPage, error)
	ListIncomingRequests(ctx context.Context, userID uuid.UUID) ([]models.Relationship, error)
	ListOutgoingRequests(ctx context.Context, userID uuid.UUID) ([]models.Relationship, error)
}

// SubscriptionServiceInterface defines the live equivalents of the read
// projections. Each Subscribe delivers the current full result set, then a
// full recomputed set after every change, until the returned handle is
// released.
type SubscriptionServiceInterface interface {
	SubscribeFriends(ctx context.Context, userID uuid.UUID, fn func([]models.Relationship)) (*Subscription, error)
	SubscribeIncoming(ctx context.Context, userID uuid.UUID, fn func([]models.Relationship)) (*Subscription, error)
	SubscribeOutgoing(ctx context.Context, userID uuid.UUID, fn func([]models.Relationship)) (*Subscription, error)
}

// NotificationCreator is the fire-and-forget collaborator the graph store
// emits friend_request / friend_accept events to.
type NotificationCreator interface {
	Create(ctx context.Context, params models.CreateNotificationParams) error
}

// NotificationServiceInterface defines the notification read model on top
// of NotificationCreator.
type NotificationServiceInterface interface {
	NotificationCreator
	List(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
	UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
}

// SyncServiceInterface defines the denormalization refresh.
type SyncServiceInterface interface {
	SyncUserSnapshot(ctx context.Context, userID uuid.UUID) error
}
