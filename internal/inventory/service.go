package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Kobia22/SmartStock/internal/auth"
	"github.com/Kobia22/SmartStock/internal/ids"
)

// viewRequirement gates read access to the catalog: any inventory-facing
// permission will do.
var viewRequirement = auth.AnyOf(auth.PermViewInventory, auth.PermManageInventory, auth.PermProcessSale)

// Service owns stock mutation coupled with the append-only audit trail, the
// product catalog and replenishment orders.
type Service struct {
	store Store
	now   func() time.Time
}

// Option configures Service.
type Option func(*Service)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs the inventory ledger.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddProduct inserts a catalog entry.
func (s *Service) AddProduct(ctx context.Context, actor auth.Principal, p Product) (*Product, error) {
	if err := actor.Require(auth.AnyOf(auth.PermManageInventory)); err != nil {
		return nil, err
	}
	p.SKU = strings.TrimSpace(p.SKU)
	p.Name = strings.TrimSpace(p.Name)
	if p.SKU == "" || p.Name == "" {
		return nil, fmt.Errorf("%w: sku and name are required", ErrInvalidInput)
	}
	if p.UnitPrice < 0 {
		return nil, fmt.Errorf("%w: unit price must not be negative", ErrInvalidInput)
	}
	now := s.now().UTC()
	p.ID = ids.New()
	p.CreatedAt = now
	p.UpdatedAt = now
	if err := s.store.CreateProduct(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProducts returns the catalog.
func (s *Service) ListProducts(ctx context.Context, actor auth.Principal) ([]*Product, error) {
	if err := actor.Require(viewRequirement); err != nil {
		return nil, err
	}
	return s.store.ListProducts(ctx)
}

// AdjustStock applies a signed delta (restock or adjustment) and appends the
// matching movement atomically. Negative adjustments are allowed to drive
// stock below zero; only sales enforce sufficiency.
func (s *Service) AdjustStock(ctx context.Context, actor auth.Principal, sku string, delta int, kind MovementKind, notes string) (*Movement, error) {
	if err := actor.Require(auth.AnyOf(auth.PermManageInventory)); err != nil {
		return nil, err
	}
	if kind != KindRestock && kind != KindAdjustment {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}
	if delta == 0 {
		return nil, fmt.Errorf("%w: delta must not be zero", ErrInvalidQuantity)
	}
	return s.store.ApplyMovement(ctx, MovementParams{
		SKU:        strings.TrimSpace(sku),
		Delta:      delta,
		Kind:       kind,
		Notes:      strings.TrimSpace(notes),
		HandledBy:  actor.Username,
		OccurredAt: s.now().UTC(),
	})
}

// RecordSale decrements stock by quantity and appends a SALE movement with
// the negated delta, atomically. The sufficiency check precedes the mutation:
// a failed sale leaves stock untouched and records nothing.
func (s *Service) RecordSale(ctx context.Context, actor auth.Principal, sku string, quantity int) (*Movement, error) {
	if err := actor.Require(auth.AnyOf(auth.PermProcessSale)); err != nil {
		return nil, err
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidQuantity)
	}
	return s.store.ApplyMovement(ctx, MovementParams{
		SKU:               strings.TrimSpace(sku),
		Delta:             -quantity,
		Kind:              KindSale,
		Notes:             "Point of sale transaction",
		HandledBy:         actor.Username,
		OccurredAt:        s.now().UTC(),
		EnforceSufficient: true,
	})
}

// AuditTrail returns every movement, denormalized, newest first.
func (s *Service) AuditTrail(ctx context.Context, actor auth.Principal) ([]AuditEntry, error) {
	if err := actor.Require(auth.AnyOf(auth.PermManageInventory)); err != nil {
		return nil, err
	}
	return s.store.ListMovements(ctx)
}

// CreateOrder records a replenishment intent for a product.
func (s *Service) CreateOrder(ctx context.Context, actor auth.Principal, sku string, quantity int) (*PurchaseOrder, error) {
	if err := actor.Require(auth.AnyOf(auth.PermManageInventory)); err != nil {
		return nil, err
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidQuantity)
	}
	product, err := s.store.FindProduct(ctx, strings.TrimSpace(sku))
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	order := &PurchaseOrder{
		ID:          ids.New(),
		ProductID:   product.ID,
		SKU:         product.SKU,
		Quantity:    quantity,
		Status:      OrderPending,
		GeneratedBy: actor.Username,
		OrderedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateOrder(ctx, order); err != nil {
		return nil, err
	}
	return order.Clone(), nil
}

// ListOrders returns every purchase order.
func (s *Service) ListOrders(ctx context.Context, actor auth.Principal) ([]*PurchaseOrder, error) {
	if err := actor.Require(auth.AnyOf(auth.PermManageInventory)); err != nil {
		return nil, err
	}
	return s.store.ListOrders(ctx)
}

// orderPredecessor maps each reachable status to the only status it may be
// entered from.
var orderPredecessor = map[OrderStatus]OrderStatus{
	OrderApproved:  OrderPending,
	OrderDelivered: OrderApproved,
}

// AdvanceOrder moves an order one step forward. Delivery books the ordered
// quantity back into stock as a RESTOCK movement in the same atomic unit.
func (s *Service) AdvanceOrder(ctx context.Context, actor auth.Principal, orderID string, to OrderStatus) (*PurchaseOrder, error) {
	if err := actor.Require(auth.AnyOf(auth.PermManageInventory)); err != nil {
		return nil, err
	}
	from, ok := orderPredecessor[to]
	if !ok {
		return nil, fmt.Errorf("%w: cannot enter %q", ErrOrderState, to)
	}
	return s.store.AdvanceOrder(ctx, AdvanceOrderParams{
		ID:        strings.TrimSpace(orderID),
		From:      from,
		To:        to,
		HandledBy: actor.Username,
		At:        s.now().UTC(),
	})
}

// StockoutForecast estimates days of stock remaining per product from the
// average daily sales velocity observed since the product's first sale.
// Products with no sales history report no estimate.
func (s *Service) StockoutForecast(ctx context.Context, actor auth.Principal) ([]Forecast, error) {
	if err := actor.Require(viewRequirement); err != nil {
		return nil, err
	}
	products, err := s.store.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	movements, err := s.store.ListMovements(ctx)
	if err != nil {
		return nil, err
	}

	type history struct {
		sold      int
		firstSale time.Time
	}
	sales := make(map[string]*history)
	for _, m := range movements {
		if m.Kind != KindSale {
			continue
		}
		h := sales[m.ProductID]
		if h == nil {
			h = &history{firstSale: m.OccurredAt}
			sales[m.ProductID] = h
		}
		qty := m.Quantity
		if qty < 0 {
			qty = -qty
		}
		h.sold += qty
		if m.OccurredAt.Before(h.firstSale) {
			h.firstSale = m.OccurredAt
		}
	}

	now := s.now().UTC()
	out := make([]Forecast, 0, len(products))
	for _, p := range products {
		f := Forecast{SKU: p.SKU, Name: p.Name, CurrentStock: p.CurrentStock}
		h := sales[p.ID]
		if h == nil || h.sold == 0 {
			f.Status = "Insufficient Data"
			out = append(out, f)
			continue
		}
		days := int(now.Sub(h.firstSale).Hours() / 24)
		if days == 0 {
			days = 1
		}
		f.DailyVelocity = float64(h.sold) / float64(days)
		f.DaysRemaining = int(float64(p.CurrentStock) / f.DailyVelocity)
		switch {
		case f.DaysRemaining <= 3:
			f.Status = "Critical"
		case f.DaysRemaining <= 7:
			f.Status = "Reorder Soon"
		default:
			f.Status = "OK"
		}
		out = append(out, f)
	}
	return out, nil
}
