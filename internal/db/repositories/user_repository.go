// Package repositories implements the data access layer for the chatbot backend.
// Each repository type encapsulates all database queries for one domain entity.
// Handlers never issue SQL directly — all database access goes through this
// layer, which keeps query logic testable in isolation.
package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/psych-platform/chatbot-backend/internal/db/models"
)

// UserRepository handles identity database operations
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// CreateUser creates a new identity together with its initial access record
// (role=registered, approval_status=pending) in a single transaction. If
// either insert fails the whole registration fails — no orphaned identities.
// Returns the new identity id, or ErrDuplicateUsername on a username collision.
func (r *UserRepository) CreateUser(ctx context.Context, username, passwordHash string) (string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin registration transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	userID := uuid.New().String()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		userID, username, passwordHash, now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return "", ErrDuplicateUsername
		}
		return "", fmt.Errorf("failed to create user: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO access_records (id, user_id, role, approval_status, created_at, updated_at)
		 VALUES (?, ?, 'registered', 'pending', ?, ?)`,
		uuid.New().String(), userID, now, now,
	)
	if err != nil {
		return "", fmt.Errorf("failed to create access record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit registration: %w", err)
	}

	return userID, nil
}

// GetUserByUsername retrieves an identity by username. Returns (nil, nil)
// when no identity exists so callers decide whether absence is an error.
func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `
		SELECT id, username, password_hash, created_at, updated_at
		FROM users
		WHERE username = ?
	`

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return user, nil
}

// GetUserByID retrieves an identity by id
func (r *UserRepository) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	query := `
		SELECT id, username, password_hash, created_at, updated_at
		FROM users
		WHERE id = ?
	`

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return user, nil
}

// isUniqueViolation reports whether err is the SQLite unique-constraint error
// for the users.username index.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
