// access_record.go defines the AccessRecord model governing relay eligibility.
// Every identity gets one at registration (role=registered, status=pending);
// only an administrator's approve/revert transition mutates it afterwards.
package models

import "time"

// Approval statuses an access record can hold. Transitions are symmetric and
// repeatable: approve always lands on approved, anything else on reverted.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusReverted = "reverted"
)

// AccessRecord pairs an identity with its role and approval status
type AccessRecord struct {
	ID             string
	UserID         string
	Role           string
	ApprovalStatus string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
