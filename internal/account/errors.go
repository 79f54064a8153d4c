package account

import "errors"

var (
	ErrNotFound           = errors.New("account: not found")
	ErrDuplicateUsername  = errors.New("account: username already exists")
	ErrDuplicateEmail     = errors.New("account: email already exists")
	ErrInvalidCredentials = errors.New("account: invalid credentials")
	// ErrQuarantined means the account still holds the registration lock and
	// may not obtain a session.
	ErrQuarantined = errors.New("account: pending approval")
	// ErrNotPending guards registration resolution: the decision is only
	// meaningful while the account is quarantined.
	ErrNotPending = errors.New("account: not pending approval")
	// ErrSelfEscalation blocks an actor from granting itself the
	// permission-assignment privilege.
	ErrSelfEscalation  = errors.New("account: cannot assign ASSIGN_PERMISSION to self")
	ErrInvalidInput    = errors.New("account: invalid input")
	ErrInvalidDecision = errors.New("account: invalid decision")
)
