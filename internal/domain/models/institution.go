// internal/domain/models/institution.go
package models

import "time"

// Institution types.
const (
	InstitutionMother       = "mother"
	InstitutionChildOnline  = "child_online"
	InstitutionChildOffline = "child_offline"
)

// Institution is a tenant organization. The document ID is the institution's
// stable slug, so institutions are addressed by slug everywhere.
//
// Children carry a ParentID pointing at a mother institution. The hierarchy
// is exactly one level deep: a child can never be another child's parent.
type Institution struct {
	ID       string `bson:"_id" json:"id"`
	Name     string `bson:"name" json:"name"`
	Type     string `bson:"type" json:"type"` // mother | child_online | child_offline
	ParentID string `bson:"parent_id,omitempty" json:"parent_id,omitempty"`

	// AllowedEmailDomains lists email domains this institution owns.
	// A signup whose email domain appears here is auto-matched to the
	// institution (generic webmail domains excepted, see domainmatch).
	AllowedEmailDomains []string `bson:"allowed_email_domains,omitempty" json:"allowed_email_domains,omitempty"`

	// InviteCodeHash is the bcrypt hash of the current invite code.
	// Empty means invite-code joins are not accepted.
	InviteCodeHash string `bson:"invite_code_hash,omitempty" json:"-"`

	AllowExternalUsers bool   `bson:"allow_external_users" json:"allow_external_users"`
	IsActive           bool   `bson:"is_active" json:"is_active"`
	ContactInfo        string `bson:"contact_info,omitempty" json:"contact_info,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsChild reports whether the institution sits beneath a mother.
func (i Institution) IsChild() bool {
	return i.Type == InstitutionChildOnline || i.Type == InstitutionChildOffline
}

// ValidInstitutionType reports whether t is one of the closed set of types.
func ValidInstitutionType(t string) bool {
	switch t {
	case InstitutionMother, InstitutionChildOnline, InstitutionChildOffline:
		return true
	}
	return false
}
