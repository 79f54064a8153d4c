// Package memory is the in-process store. It backs the service when no
// database is configured and every package test. Mutations hold a per-domain
// mutex across check and write, giving the same winner-takes-all semantics
// the SQL store gets from conditional updates.
package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/Kobia22/SmartStock/internal/account"
	"github.com/Kobia22/SmartStock/internal/auth"
	"github.com/Kobia22/SmartStock/internal/ids"
	"github.com/Kobia22/SmartStock/internal/inventory"
	"github.com/Kobia22/SmartStock/internal/workflow"
)

// Store implements account.Store, workflow.Store and inventory.Store over
// plain maps. One mutex guards accounts and requests together because request
// resolution mutates both; a second guards the inventory side.
type Store struct {
	mu       sync.RWMutex
	accounts map[string]*account.Account // keyed by username
	emails   map[string]string           // email -> username
	requests map[string]*workflow.Request

	invMu     sync.RWMutex
	products  map[string]*inventory.Product // keyed by SKU
	movements []inventory.AuditEntry
	orders    map[string]*inventory.PurchaseOrder
}

var (
	_ account.Store   = (*Store)(nil)
	_ workflow.Store  = (*Store)(nil)
	_ inventory.Store = (*Store)(nil)
)

// New creates an empty store.
func New() *Store {
	return &Store{
		accounts: make(map[string]*account.Account),
		emails:   make(map[string]string),
		requests: make(map[string]*workflow.Request),
		products: make(map[string]*inventory.Product),
		orders:   make(map[string]*inventory.PurchaseOrder),
	}
}

// --- account.Store ---

func (s *Store) Create(ctx context.Context, acc *account.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createAccountLocked(acc)
}

func (s *Store) createAccountLocked(acc *account.Account) error {
	if _, ok := s.accounts[acc.Username]; ok {
		return account.ErrDuplicateUsername
	}
	if acc.Email != "" {
		if _, ok := s.emails[acc.Email]; ok {
			return account.ErrDuplicateEmail
		}
	}
	s.accounts[acc.Username] = acc.Clone()
	if acc.Email != "" {
		s.emails[acc.Email] = acc.Username
	}
	return nil
}

func (s *Store) FindByUsername(ctx context.Context, username string) (*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.accounts[username]
	if !ok {
		return nil, account.ErrNotFound
	}
	return acc.Clone(), nil
}

func (s *Store) List(ctx context.Context) ([]*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*account.Account, 0, len(s.accounts))
	for _, acc := range s.accounts {
		out = append(out, acc.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (s *Store) SetPermissions(ctx context.Context, username string, perms []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[username]
	if !ok {
		return account.ErrNotFound
	}
	acc.Permissions = slices.Clone(perms)
	return nil
}

func (s *Store) GrantPermissions(ctx context.Context, username string, perms []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[username]
	if !ok {
		return account.ErrNotFound
	}
	for _, p := range perms {
		if !slices.Contains(acc.Permissions, p) {
			acc.Permissions = append(acc.Permissions, p)
		}
	}
	return nil
}

func (s *Store) ResolvePending(ctx context.Context, username string, approve bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[username]
	if !ok {
		return account.ErrNotFound
	}
	idx := slices.Index(acc.Permissions, auth.PermPendingApproval)
	if idx < 0 {
		return account.ErrNotPending
	}
	if approve {
		acc.Permissions = slices.Delete(acc.Permissions, idx, idx+1)
		return nil
	}
	s.deleteAccountLocked(username)
	return nil
}

func (s *Store) Delete(ctx context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[username]; !ok {
		return account.ErrNotFound
	}
	s.deleteAccountLocked(username)
	return nil
}

func (s *Store) deleteAccountLocked(username string) {
	if acc, ok := s.accounts[username]; ok && acc.Email != "" {
		delete(s.emails, acc.Email)
	}
	delete(s.accounts, username)
}

// --- workflow.Store ---

func (s *Store) CreateRequest(ctx context.Context, req *workflow.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[req.ID] = req.Clone()
	return nil
}

func (s *Store) FindRequest(ctx context.Context, id string) (*workflow.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.requests[id]
	if !ok {
		return nil, workflow.ErrNotFound
	}
	return req.Clone(), nil
}

func (s *Store) ListRequests(ctx context.Context) ([]*workflow.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*workflow.Request, 0, len(s.requests))
	for _, req := range s.requests {
		out = append(out, req.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) ResolveRequest(ctx context.Context, params workflow.ResolveParams) (*workflow.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[params.ID]
	if !ok {
		return nil, workflow.ErrNotFound
	}
	if req.Status != workflow.StatusPending {
		return nil, workflow.ErrAlreadyResolved
	}
	// Side effect first: if it cannot apply, the request must stay PENDING.
	if params.CreateAccount != nil {
		if err := s.createAccountLocked(params.CreateAccount); err != nil {
			return nil, err
		}
	}
	if params.DeleteUsername != "" {
		if _, ok := s.accounts[params.DeleteUsername]; !ok {
			return nil, account.ErrNotFound
		}
		s.deleteAccountLocked(params.DeleteUsername)
	}
	req.Status = params.Status
	req.ResolvedBy = params.ResolvedBy
	at := params.ResolvedAt
	req.ResolvedAt = &at
	return req.Clone(), nil
}

// --- inventory.Store ---

func (s *Store) CreateProduct(ctx context.Context, p *inventory.Product) error {
	s.invMu.Lock()
	defer s.invMu.Unlock()
	if _, ok := s.products[p.SKU]; ok {
		return inventory.ErrDuplicateSKU
	}
	s.products[p.SKU] = p.Clone()
	return nil
}

func (s *Store) FindProduct(ctx context.Context, sku string) (*inventory.Product, error) {
	s.invMu.RLock()
	defer s.invMu.RUnlock()
	p, ok := s.products[sku]
	if !ok {
		return nil, inventory.ErrProductNotFound
	}
	return p.Clone(), nil
}

func (s *Store) ListProducts(ctx context.Context) ([]*inventory.Product, error) {
	s.invMu.RLock()
	defer s.invMu.RUnlock()
	out := make([]*inventory.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out, nil
}

func (s *Store) ApplyMovement(ctx context.Context, params inventory.MovementParams) (*inventory.Movement, error) {
	s.invMu.Lock()
	defer s.invMu.Unlock()
	return s.applyMovementLocked(params)
}

func (s *Store) applyMovementLocked(params inventory.MovementParams) (*inventory.Movement, error) {
	p, ok := s.products[params.SKU]
	if !ok {
		return nil, inventory.ErrProductNotFound
	}
	if params.EnforceSufficient && p.CurrentStock+params.Delta < 0 {
		return nil, inventory.ErrInsufficientStock
	}
	p.CurrentStock += params.Delta
	p.UpdatedAt = params.OccurredAt
	m := inventory.Movement{
		ID:         ids.New(),
		ProductID:  p.ID,
		HandledBy:  params.HandledBy,
		Kind:       params.Kind,
		Quantity:   params.Delta,
		Notes:      params.Notes,
		OccurredAt: params.OccurredAt,
	}
	s.movements = append(s.movements, inventory.AuditEntry{
		Movement:    m,
		SKU:         p.SKU,
		ProductName: p.Name,
	})
	return &m, nil
}

func (s *Store) ListMovements(ctx context.Context) ([]inventory.AuditEntry, error) {
	s.invMu.RLock()
	defer s.invMu.RUnlock()
	// Newest first.
	out := make([]inventory.AuditEntry, 0, len(s.movements))
	for i := len(s.movements) - 1; i >= 0; i-- {
		out = append(out, s.movements[i])
	}
	return out, nil
}

func (s *Store) CreateOrder(ctx context.Context, o *inventory.PurchaseOrder) error {
	s.invMu.Lock()
	defer s.invMu.Unlock()
	s.orders[o.ID] = o.Clone()
	return nil
}

func (s *Store) ListOrders(ctx context.Context) ([]*inventory.PurchaseOrder, error) {
	s.invMu.RLock()
	defer s.invMu.RUnlock()
	out := make([]*inventory.PurchaseOrder, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, o.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderedAt.After(out[j].OrderedAt) })
	return out, nil
}

func (s *Store) AdvanceOrder(ctx context.Context, params inventory.AdvanceOrderParams) (*inventory.PurchaseOrder, error) {
	s.invMu.Lock()
	defer s.invMu.Unlock()
	o, ok := s.orders[params.ID]
	if !ok {
		return nil, inventory.ErrOrderNotFound
	}
	if o.Status != params.From {
		return nil, inventory.ErrOrderState
	}
	if params.To == inventory.OrderDelivered {
		if _, err := s.applyMovementLocked(inventory.MovementParams{
			SKU:        s.skuForProductLocked(o.ProductID, o.SKU),
			Delta:      o.Quantity,
			Kind:       inventory.KindRestock,
			Notes:      "Purchase order " + o.ID + " delivered",
			HandledBy:  params.HandledBy,
			OccurredAt: params.At,
		}); err != nil {
			return nil, err
		}
	}
	o.Status = params.To
	o.UpdatedAt = params.At
	return o.Clone(), nil
}

// skuForProductLocked resolves the current SKU for a product id, falling back
// to the SKU recorded on the order.
func (s *Store) skuForProductLocked(productID, fallback string) string {
	for sku, p := range s.products {
		if p.ID == productID {
			return sku
		}
	}
	return strings.TrimSpace(fallback)
}
