// internal/domain/models/membership.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MembershipStatus is the closed set of membership lifecycle states.
type MembershipStatus string

const (
	MembershipPending     MembershipStatus = "pending"
	MembershipApproved    MembershipStatus = "approved"
	MembershipRejected    MembershipStatus = "rejected"
	MembershipTransferred MembershipStatus = "transferred"
)

// Terminal reports whether the status ends the membership's lifecycle at
// its institution. Rejected and transferred memberships stay in place as a
// record; the user may request membership at the same institution again.
func (s MembershipStatus) Terminal() bool {
	return s == MembershipRejected || s == MembershipTransferred
}

// ValidMembershipStatus reports whether s is a known status.
func ValidMembershipStatus(s MembershipStatus) bool {
	switch s {
	case MembershipPending, MembershipApproved, MembershipRejected, MembershipTransferred:
		return true
	}
	return false
}

// Join methods record how a membership came to exist.
const (
	JoinBrowse      = "browse"
	JoinInviteCode  = "invite_code"
	JoinEmailDomain = "email_domain"
	JoinAdminAdded  = "admin_added"
	JoinAutoParent  = "auto_parent"
)

// Membership is the authoritative join between users and institutions.
// Exactly one document per (user_id, institution_id); the memberships
// collection is top-level so the admin review queue can filter by
// institution with an index instead of fanning out per user.
type Membership struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID        string             `bson:"user_id" json:"user_id"`
	InstitutionID string             `bson:"institution_id" json:"institution_id"`

	// Role within this institution; may differ from the user's global role
	// while the user belongs to several institutions.
	Role string `bson:"role" json:"role"`

	Status     MembershipStatus `bson:"status" json:"status"`
	IsExternal bool             `bson:"is_external" json:"is_external"`
	JoinMethod string           `bson:"join_method" json:"join_method"`

	// Review stamps. ReviewedBy/ReviewedAt/ReviewNote are set by the
	// review that decided the membership; TransferredTo is non-empty iff
	// Status is transferred.
	ReviewedBy    string     `bson:"reviewed_by,omitempty" json:"reviewed_by,omitempty"`
	ReviewedAt    *time.Time `bson:"reviewed_at,omitempty" json:"reviewed_at,omitempty"`
	ReviewNote    string     `bson:"review_note,omitempty" json:"review_note,omitempty"`
	TransferredTo string     `bson:"transferred_to,omitempty" json:"transferred_to,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
