// Package models - user.go defines the User identity record: a unique username
// paired with a salted bcrypt password hash. The plaintext password never
// reaches this layer.
package models

import "time"

// User represents a registered identity
type User struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserWithStatus is the administrative projection of an identity joined with
// its access record, used by the user-management listings.
type UserWithStatus struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	ApprovalStatus string `json:"approval_status"`
}
