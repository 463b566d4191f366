package postgres

import (
	"context"
	"time"

	"github.com/hongminglow/student-life-be/internal/models"
)

type tokenRepo struct {
	q querier
}

// SaveRefreshToken records an issued refresh token.
func (r tokenRepo) SaveRefreshToken(ctx context.Context, t models.RefreshToken) error {
	const query = `
		INSERT INTO refresh_tokens (id, username, expires_at, revoked_at, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.q.Exec(ctx, query, t.ID, t.Username, t.ExpiresAt, t.RevokedAt, t.CreatedAt)
	return mapErr(err)
}

// FindRefreshToken fetches a refresh token record by its jti.
func (r tokenRepo) FindRefreshToken(ctx context.Context, id string) (models.RefreshToken, error) {
	const query = `SELECT id, username, expires_at, revoked_at, created_at FROM refresh_tokens WHERE id = $1`
	var t models.RefreshToken
	if err := r.q.QueryRow(ctx, query, id).Scan(&t.ID, &t.Username, &t.ExpiresAt, &t.RevokedAt, &t.CreatedAt); err != nil {
		return models.RefreshToken{}, mapErr(err)
	}
	return t, nil
}

// RevokeRefreshToken marks a token revoked. Revoking twice keeps the first timestamp.
func (r tokenRepo) RevokeRefreshToken(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE refresh_tokens SET revoked_at = COALESCE(revoked_at, $2) WHERE id = $1`
	return execOne(ctx, r.q, query, id, at)
}
