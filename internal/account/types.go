package account

import (
	"slices"
	"time"

	"github.com/Kobia22/SmartStock/internal/auth"
)

// Account is a user identity with a mutable set of permission tokens.
// Lifecycle status is implicit: holding the quarantine sentinel means the
// account was registered but not yet approved and cannot authenticate.
type Account struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Permissions  []string  `json:"permissions"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Quarantined reports whether the account still holds the registration lock.
func (a *Account) Quarantined() bool {
	return slices.Contains(a.Permissions, auth.PermPendingApproval)
}

// HasPermission reports set membership on the persisted permission list.
func (a *Account) HasPermission(key string) bool {
	return slices.Contains(a.Permissions, key)
}

// Clone returns a deep copy so stores can hand out accounts without aliasing
// their internal state.
func (a *Account) Clone() *Account {
	out := *a
	out.Permissions = slices.Clone(a.Permissions)
	return &out
}

// ListFilter selects which accounts a listing returns.
type ListFilter int

const (
	// FilterAll returns every account, quarantined included.
	FilterAll ListFilter = iota
	// FilterActiveOnly excludes accounts holding the quarantine sentinel.
	FilterActiveOnly
)

// AssignMode controls how SetPermissions combines the requested tokens with
// the target's existing set.
type AssignMode int

const (
	// ModeReplace clears and overwrites the whole set. This is the default
	// for the public operation: a single call can both add and remove.
	ModeReplace AssignMode = iota
	// ModeGrant unions the requested tokens into the existing set.
	ModeGrant
)

// Decision resolves a pending registration.
type Decision string

const (
	DecisionApprove Decision = "APPROVE"
	DecisionDecline Decision = "DECLINE"
)
