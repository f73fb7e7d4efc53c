package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/entrelivros/entrelivros/internal/models"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already exists")
)

// Fallback shown when a user never set a display name.
const defaultDisplayName = "Usuário"

type UserService struct {
	db DB
}

func NewUserService(db DB) *UserService {
	return &UserService{db: db}
}

func (s *UserService) Create(ctx context.Context, params models.CreateUserParams) (*models.User, error) {
	var exists bool
	err := s.db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)", params.Email).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("checking email existence: %w", err)
	}
	if exists {
		return nil, ErrEmailAlreadyExists
	}

	user := &models.User{}
	err = s.db.QueryRow(ctx,
		`INSERT INTO users (email, password_hash, display_name)
		 VALUES ($1, $2, $3)
		 RETURNING id, email, password_hash, display_name, nickname, photo_url, bio, location,
		           joined_at, last_active, created_at, updated_at`,
		params.Email, params.PasswordHash, params.DisplayName,
	).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.DisplayName, &user.Nickname,
		&user.PhotoURL, &user.Bio, &user.Location, &user.JoinedAt, &user.LastActive,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.getBy(ctx, "id = $1", id)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getBy(ctx, "email = $1", email)
}

// UpdateProfile patches the canonical profile fields. It does NOT refresh
// the snapshots embedded in relationship records; callers schedule
// SyncUserSnapshot separately, so a short staleness window is expected.
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, params models.UpdateProfileParams) (*models.User, error) {
	setClauses := []string{}
	args := []any{}
	idx := 1

	addString := func(column string, value *string) {
		if value == nil {
			return
		}
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, idx))
		args = append(args, *value)
		idx++
	}

	addString("display_name", params.DisplayName)
	addString("nickname", params.Nickname)
	addString("photo_url", params.PhotoURL)
	addString("bio", params.Bio)
	addString("location", params.Location)

	if len(setClauses) == 0 {
		return s.GetByID(ctx, userID)
	}

	setClauses = append(setClauses, "updated_at = NOW()")
	args = append(args, userID)
	query := fmt.Sprintf(
		`UPDATE users SET %s WHERE id = $%d
		 RETURNING id, email, password_hash, display_name, nickname, photo_url, bio, location,
		           joined_at, last_active, created_at, updated_at`,
		strings.Join(setClauses, ", "),
		idx,
	)

	user := &models.User{}
	err := s.db.QueryRow(ctx, query, args...).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.DisplayName, &user.Nickname,
		&user.PhotoURL, &user.Bio, &user.Location, &user.JoinedAt, &user.LastActive,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("updating profile: %w", err)
	}

	return user, nil
}

// Snapshot loads the canonical profile projection for embedding into
// relationship records, substituting defaults for unset fields.
func (s *UserService) Snapshot(ctx context.Context, id uuid.UUID) (*models.ProfileSnapshot, error) {
	var (
		displayName *string
		nickname    *string
		photoURL    *string
		email       *string
		bio         *string
		location    *string
		joinedAt    *time.Time
		lastActive  *time.Time
	)
	err := s.db.QueryRow(ctx,
		`SELECT display_name, nickname, photo_url, email, bio, location, joined_at, last_active
		 FROM users WHERE id = $1`,
		id,
	).Scan(&displayName, &nickname, &photoURL, &email, &bio, &location, &joinedAt, &lastActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading profile snapshot: %w", err)
	}

	snapshot := &models.ProfileSnapshot{
		ID:          id,
		DisplayName: stringOr(displayName, defaultDisplayName),
		Nickname:    stringOr(nickname, ""),
		PhotoURL:    photoURL,
		Email:       stringOr(email, ""),
		Bio:         stringOr(bio, ""),
		Location:    stringOr(location, ""),
		LastActive:  lastActive,
	}
	if joinedAt != nil {
		snapshot.JoinedAt = *joinedAt
	} else {
		snapshot.JoinedAt = time.Now().UTC()
	}

	return snapshot, nil
}

func (s *UserService) TouchLastActive(ctx context.Context, userID uuid.UUID) error {
	_, err := s.db.Exec(ctx, "UPDATE users SET last_active = NOW() WHERE id = $1", userID)
	if err != nil {
		return fmt.Errorf("touching last_active: %w", err)
	}
	return nil
}

func (s *UserService) getBy(ctx context.Context, where string, arg any) (*models.User, error) {
	user := &models.User{}
	err := s.db.QueryRow(ctx,
		`SELECT id, email, password_hash, display_name, nickname, photo_url, bio, location,
		        joined_at, last_active, created_at, updated_at
		 FROM users WHERE `+where,
		arg,
	).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.DisplayName, &user.Nickname,
		&user.PhotoURL, &user.Bio, &user.Location, &user.JoinedAt, &user.LastActive,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return user, nil
}

func stringOr(value *string, fallback string) string {
	if value != nil && *value != "" {
		return *value
	}
	return fallback
}
