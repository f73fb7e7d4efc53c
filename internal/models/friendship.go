package models

import (
	"time"

	"github.com/google/uuid"
)

type RelationshipStatus string

const (
	RelationshipStatusPending  RelationshipStatus = "pending"
	RelationshipStatusAccepted RelationshipStatus = "accepted"
)

// Relationship is one owner-perspective record of a friendship or request.
// Every logical friendship is stored as a mirrored pair: one record owned by
// each participant, both sharing status and requested_by. The counterpart's
// profile is embedded so friend lists render without a join.
type Relationship struct {
	ID             uuid.UUID          `json:"id"`
	OwnerID        uuid.UUID          `json:"owner_id"`
	CounterpartID  uuid.UUID          `json:"counterpart_id"`
	Status         RelationshipStatus `json:"status"`
	RequestedBy    uuid.UUID          `json:"requested_by"`
	FriendshipDate *time.Time         `json:"friendship_date"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
	Counterpart    ProfileSnapshot    `json:"counterpart"`
}

// Incoming reports whether, from the owner's perspective, this pending
// record represents a request someone else sent to the owner.
func (r *Relationship) Incoming() bool {
	return r.Status == RelationshipStatusPending && r.RequestedBy != r.OwnerID
}

// FriendPage is one page of accepted relationships. HasMore is a heuristic:
// true iff the page came back full, so the last page can report a false
// positive when the total is an exact multiple of the page size.
type FriendPage struct {
	Friends    []Relationship `json:"friends"`
	NextCursor string         `json:"next_cursor,omitempty"`
	HasMore    bool           `json:"has_more"`
}
