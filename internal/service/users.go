package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/hongminglow/student-life-be/internal/auth"
	"github.com/hongminglow/student-life-be/internal/events"
	"github.com/hongminglow/student-life-be/internal/models"
	"github.com/hongminglow/student-life-be/internal/models/dto"
	"github.com/hongminglow/student-life-be/internal/storage"
)

// UserService handles accounts and the token lifecycle.
type UserService struct {
	base
	tokens *auth.TokenManager
}

// NewUserService builds the service. tokens may be nil for callers that only
// register accounts; audit stamps then use the wall clock.
func NewUserService(store storage.Store, tokens *auth.TokenManager, publisher events.Publisher, opts ...Option) *UserService {
	if tokens != nil {
		opts = append([]Option{WithClock(tokens.Now)}, opts...)
	}
	return &UserService{base: newBase(store, publisher, opts), tokens: tokens}
}

// Register creates an account with a bcrypt-hashed password.
func (s *UserService) Register(ctx context.Context, req dto.RegisterRequest) (dto.UserResponse, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)
	switch {
	case username == "":
		return dto.UserResponse{}, invalid("userName is required")
	case email == "":
		return dto.UserResponse{}, invalid("email is required")
	case req.Password == "":
		return dto.UserResponse{}, invalid("password is required")
	}
	if err := validateEmail(email); err != nil {
		return dto.UserResponse{}, err
	}
	if err := validateYear(req.YearOfStudy); err != nil {
		return dto.UserResponse{}, err
	}
	if req.Password != req.RePassword {
		return dto.UserResponse{}, ErrPasswordMismatch
	}

	hash, err := auth.HashPassword(req.Password)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return dto.UserResponse{}, invalidErr(err)
	}
	if err != nil {
		return dto.UserResponse{}, err
	}

	user := models.User{
		ID:           newID(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		University:   strings.TrimSpace(req.University),
		Major:        strings.TrimSpace(req.Major),
		YearOfStudy:  req.YearOfStudy,
		Audit:        models.NewAudit(username, s.now()),
	}
	err = s.store.WithinTx(ctx, func(tx storage.Store) error {
		if _, err := tx.Users().FindByUsername(ctx, username); err == nil {
			return ErrDuplicateUsername
		} else if !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		created, err := tx.Users().CreateUser(ctx, user)
		if errors.Is(err, storage.ErrAlreadyExists) {
			return ErrDuplicateUsername
		}
		user = created
		return err
	})
	if err != nil {
		return dto.UserResponse{}, err
	}

	out := dto.UserFromModel(user)
	s.publish(ctx, events.UserRegistered, username, user.ID, out)
	return out, nil
}

// Login checks credentials and issues an access and refresh token pair.
func (s *UserService) Login(ctx context.Context, req dto.LoginRequest) (dto.LoginResponse, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return dto.LoginResponse{}, invalid("userName and password are required")
	}

	user, err := s.store.Users().FindByUsername(ctx, username)
	if errors.Is(err, storage.ErrNotFound) {
		auth.RejectPassword(req.Password)
		return dto.LoginResponse{}, ErrInvalidCredentials
	}
	if err != nil {
		return dto.LoginResponse{}, err
	}
	if !auth.CheckPassword(req.Password, user.PasswordHash) {
		return dto.LoginResponse{}, ErrInvalidCredentials
	}

	var pair dto.TokenPair
	err = s.store.WithinTx(ctx, func(tx storage.Store) error {
		pair, err = s.issuePair(ctx, tx, user.Username)
		return err
	})
	if err != nil {
		return dto.LoginResponse{}, err
	}
	return dto.LoginResponse{User: dto.UserFromModel(user), AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}, nil
}

// Refresh exchanges a live refresh token for a new pair and revokes the old one.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (dto.TokenPair, error) {
	claims, err := s.verifyRefresh(refreshToken)
	if err != nil {
		return dto.TokenPair{}, err
	}
	if claims.ExpiredAt(s.now()) {
		return dto.TokenPair{}, auth.ErrTokenExpired
	}

	var pair dto.TokenPair
	err = s.store.WithinTx(ctx, func(tx storage.Store) error {
		record, err := tx.RefreshTokens().FindRefreshToken(ctx, claims.ID)
		if errors.Is(err, storage.ErrNotFound) {
			return ErrTokenRevoked
		}
		if err != nil {
			return err
		}
		if record.RevokedAt != nil || record.Username != claims.Username() {
			return ErrTokenRevoked
		}
		if err := tx.RefreshTokens().RevokeRefreshToken(ctx, record.ID, s.now()); err != nil {
			return err
		}
		pair, err = s.issuePair(ctx, tx, record.Username)
		return err
	})
	return pair, err
}

// Logout revokes a refresh token. Unknown or already revoked tokens are not an error.
func (s *UserService) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.verifyRefresh(refreshToken)
	if err != nil {
		return err
	}
	err = s.store.WithinTx(ctx, func(tx storage.Store) error {
		return tx.RefreshTokens().RevokeRefreshToken(ctx, claims.ID, s.now())
	})
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	return err
}

// Me returns the caller's profile.
func (s *UserService) Me(ctx context.Context, p auth.Principal) (dto.UserResponse, error) {
	u, err := owner(ctx, s.store, p)
	if err != nil {
		return dto.UserResponse{}, err
	}
	return dto.UserFromModel(u), nil
}

// UpdateProfile applies a partial profile update to the caller's account.
func (s *UserService) UpdateProfile(ctx context.Context, p auth.Principal, req dto.UpdateProfileRequest) (dto.UserResponse, error) {
	if req.Email != nil {
		trimmed := strings.TrimSpace(*req.Email)
		if err := validateEmail(trimmed); err != nil {
			return dto.UserResponse{}, err
		}
		req.Email = &trimmed
	}
	if err := validateYear(req.YearOfStudy); err != nil {
		return dto.UserResponse{}, err
	}

	var updated models.User
	err := s.store.WithinTx(ctx, func(tx storage.Store) error {
		u, err := owner(ctx, tx, p)
		if err != nil {
			return err
		}
		req.Apply(&u)
		u.Touch(p.Username, s.now())
		updated, err = tx.Users().UpdateUser(ctx, u)
		return err
	})
	if err != nil {
		return dto.UserResponse{}, err
	}
	return dto.UserFromModel(updated), nil
}

func (s *UserService) verifyRefresh(raw string) (auth.Claims, error) {
	if strings.TrimSpace(raw) == "" {
		return auth.Claims{}, invalid("refreshToken is required")
	}
	claims, err := s.tokens.Verify(raw)
	if err != nil {
		return auth.Claims{}, err
	}
	if claims.Type != auth.TokenRefresh {
		return auth.Claims{}, auth.ErrWrongTokenType
	}
	return claims, nil
}

func (s *UserService) issuePair(ctx context.Context, tx storage.Store, username string) (dto.TokenPair, error) {
	access, err := s.tokens.IssueAccessToken(username)
	if err != nil {
		return dto.TokenPair{}, err
	}
	refresh, err := s.tokens.IssueRefreshToken(username)
	if err != nil {
		return dto.TokenPair{}, err
	}
	err = tx.RefreshTokens().SaveRefreshToken(ctx, models.RefreshToken{
		ID:        refresh.ID,
		Username:  username,
		ExpiresAt: refresh.ExpiresAt,
		CreatedAt: models.StoredTime(s.now()),
	})
	if err != nil {
		return dto.TokenPair{}, err
	}
	return dto.TokenPair{AccessToken: access.Value, RefreshToken: refresh.Value}, nil
}

func validateEmail(email string) error {
	if email == "" {
		return invalid("email must not be blank")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return invalid("email %q is not a valid address", email)
	}
	return nil
}

func validateYear(year *int) error {
	if year != nil && (*year < 1 || *year > 10) {
		return invalid("yearOfStudy must be between 1 and 10")
	}
	return nil
}
