package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// CreateUser inserts a user with an already-hashed password.
// Returns ErrDuplicate if the username is taken.
func (r *Repository) CreateUser(ctx context.Context, username, passwordHash string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, password) VALUES (?, ?)`, username, passwordHash)
	if isUniqueViolation(err) {
		return 0, fmt.Errorf("username %q: %w", username, ErrDuplicate)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to create user: %w", err)
	}
	return result.LastInsertId()
}

// GetUserByUsername retrieves a user. Returns (nil, nil) when absent.
func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	var u User
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, password FROM users WHERE username = ?`, username).
		Scan(&u.ID, &u.Username, &u.Password)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}
