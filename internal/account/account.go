// Package account registers listeners and verifies their credentials.
package account

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/1mb-dev/tunebox/internal/apperr"
	"github.com/1mb-dev/tunebox/internal/inventory"
	"github.com/1mb-dev/tunebox/internal/session"
)

// Repository defines the user storage the service needs
type Repository interface {
	CreateUser(ctx context.Context, username, passwordHash string) (int64, error)
	GetUserByUsername(ctx context.Context, username string) (*inventory.User, error)
}

// ErrInvalidCredentials is returned for both unknown users and wrong
// passwords so callers cannot tell the two apart.
var ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", apperr.ErrUnauthorized)

// Service implements registration and login
type Service struct {
	repo Repository
	cost int
	// dummyHash is compared against on unknown usernames so both failure
	// paths spend the same bcrypt work.
	dummyHash []byte
}

// NewService creates an account service hashing with bcrypt.DefaultCost
func NewService(repo Repository) *Service {
	return NewServiceWithCost(repo, bcrypt.DefaultCost)
}

// NewServiceWithCost creates an account service with a custom bcrypt cost
func NewServiceWithCost(repo Repository, cost int) *Service {
	dummy, err := bcrypt.GenerateFromPassword(digest("tunebox-dummy-password"), cost)
	if err != nil {
		// Only possible for an out-of-range cost; fall back to the default
		cost = bcrypt.DefaultCost
		dummy, _ = bcrypt.GenerateFromPassword(digest("tunebox-dummy-password"), cost)
	}
	return &Service{repo: repo, cost: cost, dummyHash: dummy}
}

// digest maps a password of any length to the 44-byte input bcrypt hashes.
// bcrypt rejects inputs over 72 bytes.
func digest(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	out := make([]byte, base64.StdEncoding.EncodedLen(len(sum)))
	base64.StdEncoding.Encode(out, sum[:])
	return out
}

func normalize(username, password string) (string, string, error) {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)
	if username == "" || password == "" {
		return "", "", fmt.Errorf("username and password are required: %w", apperr.ErrBadRequest)
	}
	return username, password, nil
}

// Register creates an account. Returns apperr.ErrBadRequest for blank
// fields and apperr.ErrConflict when the username is already taken.
func (s *Service) Register(ctx context.Context, username, password string) (int64, error) {
	username, password, err := normalize(username, password)
	if err != nil {
		return 0, err
	}

	hash, err := bcrypt.GenerateFromPassword(digest(password), s.cost)
	if err != nil {
		return 0, fmt.Errorf("failed to hash password: %w", err)
	}

	id, err := s.repo.CreateUser(ctx, username, string(hash))
	if errors.Is(err, inventory.ErrDuplicate) {
		return 0, fmt.Errorf("username already taken: %w", apperr.ErrConflict)
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Login verifies credentials and returns the identity to bind to a new session.
func (s *Service) Login(ctx context.Context, username, password string) (*session.Identity, error) {
	username, password, err := normalize(username, password)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, digest(password))
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), digest(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &session.Identity{UserID: user.ID, Username: user.Username}, nil
}
