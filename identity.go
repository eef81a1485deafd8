package gqlauth

import (
	"sort"

	"github.com/google/uuid"
)

// PermissionSet is a set of permission names, e.g. "sample.can_eat".
type PermissionSet map[string]struct{}

// NewPermissionSet builds a set from permission names.
func NewPermissionSet(permissions ...string) PermissionSet {
	set := make(PermissionSet, len(permissions))
	for _, p := range permissions {
		if p == "" {
			continue
		}
		set[p] = struct{}{}
	}
	return set
}

// Has reports whether the set contains the permission.
func (s PermissionSet) Has(permission string) bool {
	_, ok := s[permission]
	return ok
}

// HasAll reports whether every required permission is present.
func (s PermissionSet) HasAll(required ...string) bool {
	for _, p := range required {
		if !s.Has(p) {
			return false
		}
	}
	return true
}

// Slice returns the permissions in sorted order.
func (s PermissionSet) Slice() []string {
	out := make([]string, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Identity is the resolved caller for a single request: either anonymous or
// a snapshot of an authenticated account's current state. It is built once
// per request from the presented credential and never persisted; UserRef is
// a lookup key into account storage, not an owning reference.
type Identity struct {
	Authenticated bool
	UserRef       uuid.UUID
	Username      string
	Email         string
	Verified      bool
	Archived      bool
	Permissions   PermissionSet
}

// AnonymousIdentity returns the identity used when no credential resolved.
func AnonymousIdentity() Identity {
	return Identity{}
}

// IdentityFromUser snapshots an account record into a request identity.
func IdentityFromUser(user *User, permissions PermissionSet) Identity {
	if user == nil {
		return AnonymousIdentity()
	}

	return Identity{
		Authenticated: true,
		UserRef:       user.ID,
		Username:      user.Username,
		Email:         user.Email,
		Verified:      user.IsVerified(),
		Archived:      user.IsArchived(),
		Permissions:   permissions,
	}
}

// IsAnonymous reports whether no authenticated account backs this identity.
func (i Identity) IsAnonymous() bool {
	return !i.Authenticated
}

// IsVerified reports whether the identity belongs to a verified account.
// Anonymous identities are never verified.
func (i Identity) IsVerified() bool {
	return i.Authenticated && i.Verified
}

// HasPermissions reports whether the identity holds every required
// permission. Anonymous identities hold none.
func (i Identity) HasPermissions(required ...string) bool {
	if !i.Authenticated {
		return len(required) == 0
	}
	return i.Permissions.HasAll(required...)
}
