package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hotel_booking/internal/domain"
)

type AuthService struct {
	users domain.UserRepository
	creds domain.Credentials
}

func NewAuthService(u domain.UserRepository, c domain.Credentials) *AuthService {
	return &AuthService{users: u, creds: c}
}

func normalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

func (s *AuthService) Register(ctx context.Context, email, password string) (domain.User, error) {
	email = normalizeEmail(email)
	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return domain.User{}, fmt.Errorf("user %s: %w", email, domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return domain.User{}, err
	}
	hash, err := s.creds.HashPassword(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}
	// a concurrent registration can still lose on the unique key; the repo reports ErrConflict
	return s.users.CreateUser(ctx, email, hash)
}

// Login returns a signed access token and its expiry.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, time.Time, error) {
	u, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, domain.ErrNotFound) {
		return "", time.Time{}, fmt.Errorf("unknown email: %w", domain.ErrUnauthorized)
	}
	if err != nil {
		return "", time.Time{}, err
	}
	ok, err := s.creds.VerifyPassword(password, u.HashedPassword)
	if err != nil || !ok {
		return "", time.Time{}, fmt.Errorf("wrong password: %w", domain.ErrUnauthorized)
	}
	return s.creds.IssueToken(u.ID)
}

// Authenticate resolves a token to a user id.
func (s *AuthService) Authenticate(token string) (int64, error) {
	if token == "" {
		return 0, fmt.Errorf("missing token: %w", domain.ErrUnauthorized)
	}
	id, err := s.creds.VerifyToken(token)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	return id, nil
}

func (s *AuthService) Me(ctx context.Context, userID int64) (domain.User, error) {
	u, err := s.users.GetUserByID(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		// token outlived its user
		return domain.User{}, fmt.Errorf("user %d gone: %w", userID, domain.ErrUnauthorized)
	}
	return u, err
}
