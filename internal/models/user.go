package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	DisplayName  string     `json:"display_name"`
	Nickname     string     `json:"nickname"`
	PhotoURL     *string    `json:"photo_url"`
	Bio          string     `json:"bio"`
	Location     string     `json:"location"`
	JoinedAt     time.Time  `json:"joined_at"`
	LastActive   *time.Time `json:"last_active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type CreateUserParams struct {
	Email        string
	PasswordHash string
	DisplayName  string
}

// UpdateProfileParams carries the editable profile fields. Nil pointers
// leave the corresponding column untouched.
type UpdateProfileParams struct {
	DisplayName *string
	Nickname    *string
	PhotoURL    *string
	Bio         *string
	Location    *string
}

// ProfileSnapshot is the projection of a user that gets embedded into
// relationship records. It is a cached copy, not an authoritative read.
type ProfileSnapshot struct {
	ID          uuid.UUID  `json:"id"`
	DisplayName string     `json:"display_name"`
	Nickname    string     `json:"nickname"`
	PhotoURL    *string    `json:"photo_url"`
	Email       string     `json:"email"`
	Bio         string     `json:"bio"`
	Location    string     `json:"location"`
	JoinedAt    time.Time  `json:"joined_at"`
	LastActive  *time.Time `json:"last_active"`
}

type Session struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}
