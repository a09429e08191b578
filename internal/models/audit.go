package models

import (
	"time"

	"github.com/google/uuid"
)

// AnonymizedRequest is the append-only compliance record minted by the proxy
// boundary before every outbound provider call. The RequestID is the only
// identifier a provider ever sees; InternalUserID stays on our side.
type AnonymizedRequest struct {
	RequestID      uuid.UUID `json:"request_id" db:"request_id"`
	InternalUserID uuid.UUID `json:"internal_user_id" db:"internal_user_id"`
	Provider       string    `json:"provider" db:"provider"`
	RequestType    string    `json:"request_type" db:"request_type"`
	MetadataHash   string    `json:"metadata_hash" db:"metadata_hash"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	ExpiresAt      time.Time `json:"expires_at" db:"expires_at"`
}

type APIKey struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	UserID     uuid.UUID  `json:"user_id" db:"user_id"`
	KeyHash    string     `json:"-" db:"key_hash"`
	Name       string     `json:"name" db:"name"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty" db:"expires_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty" db:"last_used_at"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}
