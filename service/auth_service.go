package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"rarebridge-backend/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	tokenLifetime = time.Hour
	// refreshGrace is how long after expiry a token can still be exchanged
	refreshGrace = 72 * time.Hour
)

// UserStore abstracts user persistence for authentication
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// AuthService issues and verifies access tokens
type AuthService struct {
	users  UserStore
	secret []byte
}

// AuthServiceOption is a functional option for AuthService
type AuthServiceOption func(*AuthService)

// AuthWithUserStore sets the user store
func AuthWithUserStore(store UserStore) AuthServiceOption {
	return func(s *AuthService) {
		s.users = store
	}
}

// AuthWithSecret sets the token signing secret
func AuthWithSecret(secret []byte) AuthServiceOption {
	return func(s *AuthService) {
		s.secret = secret
	}
}

// NewAuthService creates a new auth service. The signing secret defaults to
// the JWT_SECRET environment variable.
func NewAuthService(opts ...AuthServiceOption) *AuthService {
	s := &AuthService{
		secret: []byte(os.Getenv("JWT_SECRET")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type tokenClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// TokenPair is a signed access token plus its expiry
type TokenPair struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Login verifies credentials and issues a signed token
func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenPair, *models.User, error) {
	if email == "" || password == "" {
		return nil, nil, fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}

	pair, err := s.issue(user)
	if err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}

// Refresh exchanges a valid or recently expired token for a fresh one
func (s *AuthService) Refresh(ctx context.Context, token string) (*TokenPair, error) {
	claims, err := s.parse(token, true)
	if err != nil {
		return nil, err
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed token subject", ErrUnauthorized)
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: account no longer exists", ErrUnauthorized)
	}

	return s.issue(user)
}

// Verify parses a token and returns the caller identity
func (s *AuthService) Verify(token string) (*models.Identity, error) {
	claims, err := s.parse(token, false)
	if err != nil {
		return nil, err
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed token subject", ErrUnauthorized)
	}

	return &models.Identity{
		ID:    id,
		Email: claims.Email,
		Role:  models.Role(claims.Role),
	}, nil
}

func (s *AuthService) issue(user *models.User) (*TokenPair, error) {
	now := time.Now()
	expiresAt := now.Add(tokenLifetime)

	claims := tokenClaims{
		Email: user.Email,
		Role:  string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &TokenPair{AccessToken: signed, ExpiresAt: expiresAt}, nil
}

func (s *AuthService) parse(token string, allowExpired bool) (*tokenClaims, error) {
	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		if allowExpired && errors.Is(err, jwt.ErrTokenExpired) && claims.ExpiresAt != nil &&
			time.Since(claims.ExpiresAt.Time) <= refreshGrace {
			return claims, nil
		}
		return nil, fmt.Errorf("%w: invalid token", ErrUnauthorized)
	}
	return claims, nil
}
