package models

import "time"

// RefreshToken tracks an issued refresh token so it can be rotated or revoked.
type RefreshToken struct {
	ID        string
	Username  string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}

// Active reports whether the token is neither revoked nor expired at now.
func (r RefreshToken) Active(now time.Time) bool {
	return r.RevokedAt == nil && !r.ExpiresAt.Before(now)
}
