package workflow

import (
	"context"
	"time"

	"github.com/Kobia22/SmartStock/internal/account"
)

// ResolveParams carries one terminal transition plus its account side effect.
// The store applies status change and side effect as a single atomic unit:
// if materializing or deleting the target fails, the request stays PENDING.
type ResolveParams struct {
	ID         string
	Status     Status
	ResolvedBy string
	ResolvedAt time.Time

	// CreateAccount is set on an approved CREATE: the account to materialize.
	CreateAccount *account.Account
	// DeleteUsername is set on an approved DELETE: the account to remove.
	DeleteUsername string
}

// Store describes persistence for privileged requests. The PENDING check and
// the terminal transition must be one conditional step: of two concurrent
// resolutions exactly one wins, the other observes ErrAlreadyResolved.
type Store interface {
	CreateRequest(ctx context.Context, req *Request) error
	// FindRequest returns the request or ErrNotFound.
	FindRequest(ctx context.Context, id string) (*Request, error)
	ListRequests(ctx context.Context) ([]*Request, error)
	// ResolveRequest applies the terminal transition and its side effect
	// atomically, returning the resolved request.
	ResolveRequest(ctx context.Context, params ResolveParams) (*Request, error)
}
