package model

import (
	"time"

	"github.com/google/uuid"
)

// ResumeToken is a single-use capability letting a guest re-enter an
// abandoned or failed checkout. Valid while consumed_at is null and the
// expiry has not passed.
type ResumeToken struct {
	Token      string     `json:"token" db:"token"`
	OrderID    uuid.UUID  `json:"orderId" db:"order_id"`
	ExpiresAt  time.Time  `json:"expiresAt" db:"expires_at"`
	ConsumedAt *time.Time `json:"consumedAt,omitempty" db:"consumed_at"`
	CreatedAt  time.Time  `json:"createdAt" db:"created_at"`
}

// MagicLinkGrant is a single-use capability converting a succeeded payment
// into a provisioned account. Exactly one account per grant.
type MagicLinkGrant struct {
	Token     string     `json:"token" db:"token"`
	OrderID   uuid.UUID  `json:"orderId" db:"order_id"`
	UsedAt    *time.Time `json:"usedAt,omitempty" db:"used_at"`
	CreatedAt time.Time  `json:"createdAt" db:"created_at"`
}
