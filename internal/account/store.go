package account

import "context"

// Store describes the persistence operations the lifecycle manager needs.
// Implementations must make every mutation atomic per account: concurrent
// resolution of the same registration yields exactly one winner, with the
// loser observing ErrNotPending.
type Store interface {
	// Create inserts a new account. Fails with ErrDuplicateUsername or
	// ErrDuplicateEmail when either unique key exists.
	Create(ctx context.Context, acc *Account) error
	// FindByUsername returns the account or ErrNotFound.
	FindByUsername(ctx context.Context, username string) (*Account, error)
	// List returns all accounts.
	List(ctx context.Context) ([]*Account, error)
	// SetPermissions replaces the account's permission set.
	SetPermissions(ctx context.Context, username string, perms []string) error
	// GrantPermissions unions tokens into the account's permission set as a
	// single atomic step.
	GrantPermissions(ctx context.Context, username string, perms []string) error
	// ResolvePending removes the quarantine sentinel (approve) or deletes the
	// record (decline), conditional on the sentinel still being present.
	// Returns ErrNotFound for unknown accounts and ErrNotPending when the
	// account is already active.
	ResolvePending(ctx context.Context, username string, approve bool) error
	// Delete removes the account record or returns ErrNotFound.
	Delete(ctx context.Context, username string) error
}
