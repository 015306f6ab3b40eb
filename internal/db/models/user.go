package models

import (
	"time"

	"github.com/uptrace/bun"
)

// User statuses surfaced in admin listings.
const (
	UserStatusActive    = "active"
	UserStatusSuspended = "suspended"
)

// User represents a console account.
// IdP-linked accounts carry the upstream Subject; locally provisioned
// admins carry a bcrypt PasswordHash for POST /api/login.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           string     `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Subject      *string    `bun:"subject,unique"` // Optional IdP subject (e.g. "auth0|123")
	Email        string     `bun:"email,notnull,unique"`
	Name         string     `bun:"name"`
	PasswordHash *string    `bun:"password_hash"`
	Roles        StringList `bun:"roles,type:jsonb,notnull,default:'[]'"`
	Status       string     `bun:"status,notnull,default:'active'"`
	CreatedAt    time.Time  `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt    time.Time  `bun:"updated_at,notnull,default:current_timestamp"`
	LastLoginAt  *time.Time `bun:"last_login_at"`
}

// PrincipalSubject returns the stable identifier used in tokens and
// ownership checks. Falls back to the database ID for local accounts.
func (u *User) PrincipalSubject() string {
	if u == nil {
		return ""
	}
	if u.Subject != nil && *u.Subject != "" {
		return *u.Subject
	}
	return u.ID
}
