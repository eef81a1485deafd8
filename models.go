package gqlauth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AccountStatus is the lifecycle state of a user account
type AccountStatus = string

const (
	// AccountUnverified is the state of a freshly registered account
	AccountUnverified AccountStatus = "unverified"
	// AccountVerified means the account redeemed an activation token
	AccountVerified AccountStatus = "verified"
	// AccountArchived is the soft-deleted terminal state
	AccountArchived AccountStatus = "archived"
)

// User is the user model
type User struct {
	bun.BaseModel  `bun:"table:users,alias:usr"`
	ID             uuid.UUID      `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Username       string         `bun:"username,notnull,unique" json:"username,omitempty"`
	Email          string         `bun:"email,notnull,unique" json:"email,omitempty"`
	SecondaryEmail string         `bun:"secondary_email" json:"secondary_email,omitempty"`
	Phone          string         `bun:"phone_number" json:"phone_number,omitempty"`
	PasswordHash   string         `bun:"password_hash" json:"password_hash,omitempty"`
	Status         AccountStatus  `bun:"status,notnull" json:"status,omitempty"`
	Permissions    []string       `bun:"permissions" json:"permissions,omitempty"`
	Metadata       map[string]any `bun:"metadata" json:"metadata,omitempty"`
	VerifiedAt     *time.Time     `bun:"verified_at,nullzero" json:"verified_at,omitempty"`
	ArchivedAt     *time.Time     `bun:"archived_at,nullzero" json:"archived_at,omitempty"`
	CreatedAt      *time.Time     `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time     `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt      *time.Time     `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// EnsureStatus backfills the zero value for records created before the
// status column existed.
func (u *User) EnsureStatus() {
	if u.Status == "" {
		u.Status = AccountUnverified
	}
}

// IsVerified reports whether the account completed email verification
func (u *User) IsVerified() bool {
	return u.Status == AccountVerified
}

// IsArchived reports whether the account was soft-deleted
func (u *User) IsArchived() bool {
	return u.Status == AccountArchived || u.DeletedAt != nil
}

// HasUsablePassword reports whether a password hash is on record.
// Accounts created through external identities start without one.
func (u *User) HasUsablePassword() bool {
	return u.PasswordHash != ""
}

// PermissionSet returns the account's permissions as a set.
func (u *User) PermissionSet() PermissionSet {
	return NewPermissionSet(u.Permissions...)
}

// AddMetadata will append information to a metadata attribute
func (u *User) AddMetadata(key string, val any) *User {
	if u.Metadata == nil {
		u.Metadata = make(map[string]any)
	}
	u.Metadata[key] = val
	return u
}

const (
	// ResetUnknownStatus is the unknown status
	ResetUnknownStatus = "unknown"
	// ResetRequestedStatus is the requested status
	ResetRequestedStatus = "requested"
	// ResetExpiredStatus is the expired status
	ResetExpiredStatus = "expired"
	// ResetChangedStatus is the changed status
	ResetChangedStatus = "changed"
)

// PasswordReset tracks an in-flight password reset flow
type PasswordReset struct {
	bun.BaseModel `bun:"table:password_reset,alias:pwdr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        *uuid.UUID `bun:"user_id,notnull" json:"user_id,omitempty"`
	User          *User      `bun:"rel:has-one,join:user_id=id" json:"user,omitempty"`
	Status        string     `bun:"status,notnull" json:"status,omitempty"`
	Email         string     `bun:"email,notnull" json:"email,omitempty"`
	TokenID       string     `bun:"token_id" json:"token_id,omitempty"`
	ResetedAt     *time.Time `bun:"reseted_at,nullzero" json:"reseted_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// MarkPasswordAsReseted will create a new instance
func MarkPasswordAsReseted(id uuid.UUID) *PasswordReset {
	r := &PasswordReset{}
	r.ID = id
	r.Status = ResetChangedStatus
	n := time.Now()
	r.ResetedAt = &n
	return r
}
