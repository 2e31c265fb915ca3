package domain

import "time"

// Subscription records the plan a user signed up for when becoming a
// premium member.
type Subscription struct {
	Plan      string    `json:"plan"`
	Price     int       `json:"price"`
	StartedAt time.Time `json:"started_at"`
}

// User represents a registered storefront user. Email is stored
// normalized to lower case and is unique. IsAdmin is bootstrap-only:
// it is set when the initial admin account is seeded and is never
// mutable through the public API.
type User struct {
	ID           int           `json:"id"`
	Email        string        `json:"email"`
	PasswordHash string        `json:"password_hash"`
	Name         string        `json:"name"`
	IsPremium    bool          `json:"isPremium"`
	PremiumSince *time.Time    `json:"premiumSince,omitempty"`
	Subscription *Subscription `json:"subscription,omitempty"`
	IsAdmin      bool          `json:"isAdmin"`
	CreatedAt    time.Time     `json:"created_at"`
}

// RefreshToken is an opaque token exchanged for new access tokens.
// Refresh tokens live for the lifetime of the process only.
type RefreshToken struct {
	Token     string    `json:"token"`
	UserID    int       `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	Revoked   bool      `json:"revoked"`
}
