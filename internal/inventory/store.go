package inventory

import (
	"context"
	"time"
)

// MovementParams applies one stock mutation coupled with its audit record.
// Stock read, sufficiency check, stock write and movement append are a single
// atomic unit per product: both effects commit together or neither does.
type MovementParams struct {
	SKU        string
	Delta      int
	Kind       MovementKind
	Notes      string
	HandledBy  string
	OccurredAt time.Time

	// EnforceSufficient rejects the mutation with ErrInsufficientStock when
	// the delta would drive stock negative. Sales set it; adjustments do not.
	EnforceSufficient bool
}

// AdvanceOrderParams moves a purchase order one step forward. The From check
// and the status write are one conditional step, so concurrent transitions
// yield exactly one winner.
type AdvanceOrderParams struct {
	ID        string
	From      OrderStatus
	To        OrderStatus
	HandledBy string
	At        time.Time
}

// Store describes persistence for products, movements and purchase orders.
type Store interface {
	// CreateProduct inserts a catalog entry or fails with ErrDuplicateSKU.
	CreateProduct(ctx context.Context, p *Product) error
	// FindProduct returns the product or ErrProductNotFound.
	FindProduct(ctx context.Context, sku string) (*Product, error)
	ListProducts(ctx context.Context) ([]*Product, error)
	// ApplyMovement mutates stock and appends the audit record atomically.
	ApplyMovement(ctx context.Context, params MovementParams) (*Movement, error)
	// ListMovements returns the denormalized audit trail, newest first.
	ListMovements(ctx context.Context) ([]AuditEntry, error)
	CreateOrder(ctx context.Context, o *PurchaseOrder) error
	ListOrders(ctx context.Context) ([]*PurchaseOrder, error)
	// AdvanceOrder applies one state-machine step; the transition to
	// DELIVERED applies the restock movement in the same unit.
	AdvanceOrder(ctx context.Context, params AdvanceOrderParams) (*PurchaseOrder, error)
}
