package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token kinds carried in the "typ" claim.
const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"
)

var (
	// ErrInvalidSignature indicates the token was not signed with our key or algorithm.
	ErrInvalidSignature = errors.New("invalid token signature")
	// ErrMalformedToken indicates the token could not be decoded.
	ErrMalformedToken = errors.New("malformed token")
	// ErrTokenExpired indicates the embedded expiry is in the past.
	ErrTokenExpired = errors.New("token expired")
	// ErrWrongTokenType indicates an access token was used where a refresh token is required, or vice versa.
	ErrWrongTokenType = errors.New("wrong token type")
)

// Claims is the JWT payload issued for a username subject.
type Claims struct {
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

// Username returns the token subject.
func (c Claims) Username() string { return c.Subject }

// Expiry returns the embedded expiry, zero when absent.
func (c Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// ExpiredAt reports whether the token's expiry is strictly before now.
func (c Claims) ExpiredAt(now time.Time) bool {
	return c.ExpiresAt == nil || c.ExpiresAt.Time.Before(now)
}

// IssuedToken is a signed token together with its identifier and expiry.
type IssuedToken struct {
	Value     string
	ID        string
	ExpiresAt time.Time
}

// TokenManager issues and verifies HS256 JWTs for usernames.
type TokenManager struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// Option customises a TokenManager.
type Option func(*TokenManager)

// WithClock overrides the time source, used by tests to mint tokens in the past.
func WithClock(now func() time.Time) Option {
	return func(t *TokenManager) { t.now = now }
}

// NewTokenManager creates a manager with the provided secret, issuer, and lifetimes.
func NewTokenManager(secret, issuer string, accessTTL, refreshTTL time.Duration, opts ...Option) *TokenManager {
	t := &TokenManager{
		secret:     []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Now returns the manager's current time.
func (t *TokenManager) Now() time.Time { return t.now() }

// IssueAccessToken signs a short-lived access token for username.
func (t *TokenManager) IssueAccessToken(username string) (IssuedToken, error) {
	return t.issue(username, TokenAccess, t.accessTTL)
}

// IssueRefreshToken signs a long-lived refresh token for username.
func (t *TokenManager) IssueRefreshToken(username string) (IssuedToken, error) {
	return t.issue(username, TokenRefresh, t.refreshTTL)
}

func (t *TokenManager) issue(username, kind string, ttl time.Duration) (IssuedToken, error) {
	now := t.now()
	id, err := uuid.NewV7()
	if err != nil {
		return IssuedToken{}, fmt.Errorf("generate token id: %w", err)
	}
	expiresAt := now.Add(ttl)
	claims := Claims{
		Type: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id.String(),
			Issuer:    t.issuer,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return IssuedToken{}, fmt.Errorf("sign %s token: %w", kind, err)
	}
	return IssuedToken{Value: signed, ID: claims.ID, ExpiresAt: expiresAt}, nil
}

// Verify checks the signature and decodes the claims. It does not reject expired
// tokens; callers compare Expiry against the current time themselves.
func (t *TokenManager) Verify(token string) (Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return Claims{}, ErrMalformedToken
		default:
			return Claims{}, ErrInvalidSignature
		}
	}
	if claims.Issuer != t.issuer {
		return Claims{}, ErrInvalidSignature
	}
	if claims.Subject == "" {
		return Claims{}, ErrMalformedToken
	}
	return claims, nil
}

// VerifyAccess verifies an access token and rejects it once expired.
func (t *TokenManager) VerifyAccess(token string) (Claims, error) {
	claims, err := t.Verify(token)
	if err != nil {
		return Claims{}, err
	}
	if claims.Type != TokenAccess {
		return Claims{}, ErrWrongTokenType
	}
	if claims.ExpiredAt(t.now()) {
		return Claims{}, ErrTokenExpired
	}
	return claims, nil
}
