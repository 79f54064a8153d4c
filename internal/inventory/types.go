package inventory

import (
	"errors"
	"time"
)

// Product is a catalog entry. CurrentStock is kept non-negative by the sale
// policy, not by the data layer: adjustments may drive it anywhere.
type Product struct {
	ID           string    `json:"id"`
	SKU          string    `json:"sku"`
	Name         string    `json:"name"`
	Category     string    `json:"category,omitempty"`
	UnitPrice    float64   `json:"unit_price"`
	CurrentStock int       `json:"current_stock"`
	ReorderPoint int       `json:"reorder_point"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Clone returns a copy safe to hand across the store boundary.
func (p *Product) Clone() *Product {
	out := *p
	return &out
}

// MovementKind classifies a stock movement.
type MovementKind string

const (
	KindRestock    MovementKind = "RESTOCK"
	KindAdjustment MovementKind = "ADJUSTMENT"
	KindSale       MovementKind = "SALE"
)

// Movement is one append-only audit record of a stock quantity change.
// Quantity is the signed delta: positive for stock in, negative for stock
// out. Immutable once created.
type Movement struct {
	ID         string       `json:"id"`
	ProductID  string       `json:"product_id"`
	HandledBy  string       `json:"handled_by"`
	Kind       MovementKind `json:"kind"`
	Quantity   int          `json:"quantity"`
	Notes      string       `json:"notes,omitempty"`
	OccurredAt time.Time    `json:"occurred_at"`
}

// AuditEntry is a movement denormalized for rendering the audit trail.
type AuditEntry struct {
	Movement
	SKU         string `json:"sku"`
	ProductName string `json:"product_name"`
}

// OrderStatus is the purchase-order state: PENDING -> APPROVED -> DELIVERED.
type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderApproved  OrderStatus = "APPROVED"
	OrderDelivered OrderStatus = "DELIVERED"
)

// PurchaseOrder is a replenishment intent for a single product.
type PurchaseOrder struct {
	ID          string      `json:"id"`
	ProductID   string      `json:"product_id"`
	SKU         string      `json:"sku"`
	Quantity    int         `json:"quantity"`
	Status      OrderStatus `json:"status"`
	GeneratedBy string      `json:"generated_by"`
	OrderedAt   time.Time   `json:"ordered_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Clone returns a copy safe to hand across the store boundary.
func (o *PurchaseOrder) Clone() *PurchaseOrder {
	out := *o
	return &out
}

// Forecast is a per-product stockout estimate computed from sales velocity.
type Forecast struct {
	SKU           string  `json:"sku"`
	Name          string  `json:"name"`
	CurrentStock  int     `json:"current_stock"`
	DailyVelocity float64 `json:"daily_velocity"`
	DaysRemaining int     `json:"days_remaining"`
	Status        string  `json:"status"`
}

var (
	ErrProductNotFound   = errors.New("inventory: product not found")
	ErrDuplicateSKU      = errors.New("inventory: sku already exists")
	ErrInsufficientStock = errors.New("inventory: insufficient stock")
	ErrInvalidQuantity   = errors.New("inventory: invalid quantity")
	ErrInvalidKind       = errors.New("inventory: invalid movement kind")
	ErrInvalidInput      = errors.New("inventory: invalid input")
	ErrOrderNotFound     = errors.New("inventory: purchase order not found")
	// ErrOrderState guards the order state machine: transitions advance one
	// step at a time and happen exactly once.
	ErrOrderState = errors.New("inventory: invalid order transition")
)
