// access_repository.go implements AccessRepository, the only mutator of
// approval state. Transitions are scoped to role='registered' so the master
// account can never be approved or reverted through this path.
package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/psych-platform/chatbot-backend/internal/db/models"
)

// ApprovalAction values accepted by SetApproval. Any action other than
// "approve" maps to reverted, mirroring the original transition table.
const ActionApprove = "approve"

// AccessRepository handles access-record database operations
type AccessRepository struct {
	db *sql.DB
}

// NewAccessRepository creates a new AccessRepository
func NewAccessRepository(db *sql.DB) *AccessRepository {
	return &AccessRepository{db: db}
}

// SetApproval transitions the approval status of the identity's registered
// access record. action "approve" lands on approved; anything else lands on
// reverted. Zero matched rows — unknown identity or a non-registered role —
// is reported as ErrActionFailed, never silently ignored.
func (r *AccessRepository) SetApproval(ctx context.Context, userID, action string) error {
	status := models.StatusReverted
	if action == ActionApprove {
		status = models.StatusApproved
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE access_records
		 SET approval_status = ?, updated_at = ?
		 WHERE user_id = ? AND role = 'registered'`,
		status, time.Now(), userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update approval status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrActionFailed
	}

	return nil
}

// ListAll returns every identity joined with its approval status, oldest
// registration first, for administrative review.
func (r *AccessRepository) ListAll(ctx context.Context) ([]models.UserWithStatus, error) {
	query := `
		SELECT u.id, u.username, a.approval_status
		FROM users u
		JOIN access_records a ON u.id = a.user_id
		ORDER BY u.created_at, u.id
	`
	return r.queryUserStatuses(ctx, query)
}

// ListPending returns identities still awaiting an administrator's decision
// (role=registered, approval_status=pending).
func (r *AccessRepository) ListPending(ctx context.Context) ([]models.UserWithStatus, error) {
	query := `
		SELECT u.id, u.username, a.approval_status
		FROM users u
		JOIN access_records a ON u.id = a.user_id
		WHERE a.role = 'registered' AND a.approval_status = 'pending'
		ORDER BY u.created_at, u.id
	`
	return r.queryUserStatuses(ctx, query)
}

// HasApprovedAccess reports whether the identity holds an access record with
// approval_status=approved. Identities with no access record at all — the
// recognized dual-write gap — report false (fail closed).
func (r *AccessRepository) HasApprovedAccess(ctx context.Context, userID string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM access_records
		 WHERE user_id = ? AND approval_status = 'approved'
		 LIMIT 1`,
		userID,
	).Scan(&one)

	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *AccessRepository) queryUserStatuses(ctx context.Context, query string) ([]models.UserWithStatus, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.UserWithStatus{}
	for rows.Next() {
		var u models.UserWithStatus
		if err := rows.Scan(&u.ID, &u.Username, &u.ApprovalStatus); err != nil {
			return nil, err
		}
		users = append(users, u)
	}

	return users, rows.Err()
}
