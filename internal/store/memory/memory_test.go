package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Kobia22/SmartStock/internal/account"
	"github.com/Kobia22/SmartStock/internal/auth"
	"github.com/Kobia22/SmartStock/internal/inventory"
	"github.com/Kobia22/SmartStock/internal/workflow"
)

func seedAccount(t *testing.T, s *Store, username, email string, perms ...string) {
	t.Helper()
	now := time.Now().UTC()
	err := s.Create(context.Background(), &account.Account{
		ID:          username + "-id",
		Username:    username,
		Email:       email,
		Permissions: perms,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("seed %s: %v", username, err)
	}
}

func TestCreateAccountDuplicates(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedAccount(t, s, "alice", "alice@example.com")

	err := s.Create(ctx, &account.Account{ID: "x", Username: "alice", Email: "other@example.com"})
	if !errors.Is(err, account.ErrDuplicateUsername) {
		t.Fatalf("expected ErrDuplicateUsername, got %v", err)
	}
	err = s.Create(ctx, &account.Account{ID: "y", Username: "bob", Email: "alice@example.com"})
	if !errors.Is(err, account.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
	// Empty emails never collide.
	if err := s.Create(ctx, &account.Account{ID: "c1", Username: "carol"}); err != nil {
		t.Fatalf("carol: %v", err)
	}
	if err := s.Create(ctx, &account.Account{ID: "d1", Username: "dave"}); err != nil {
		t.Fatalf("dave: %v", err)
	}
}

func TestAccountsAreCopied(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedAccount(t, s, "alice", "alice@example.com", auth.PermViewInventory)

	got, err := s.FindByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	got.Permissions[0] = "TAMPERED"

	again, _ := s.FindByUsername(ctx, "alice")
	if again.Permissions[0] != auth.PermViewInventory {
		t.Fatal("store state aliased by returned account")
	}
}

func TestResolvePendingTransitions(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedAccount(t, s, "alice", "alice@example.com", auth.PermPendingApproval)
	seedAccount(t, s, "bob", "bob@example.com", auth.PermPendingApproval)

	// Approve strips exactly the sentinel.
	if err := s.ResolvePending(ctx, "alice", true); err != nil {
		t.Fatalf("approve: %v", err)
	}
	acc, _ := s.FindByUsername(ctx, "alice")
	if len(acc.Permissions) != 0 {
		t.Fatalf("expected empty set, got %v", acc.Permissions)
	}
	// Second resolution loses.
	if err := s.ResolvePending(ctx, "alice", true); !errors.Is(err, account.ErrNotPending) {
		t.Fatalf("expected ErrNotPending, got %v", err)
	}

	// Decline deletes and frees the email.
	if err := s.ResolvePending(ctx, "bob", false); err != nil {
		t.Fatalf("decline: %v", err)
	}
	if _, err := s.FindByUsername(ctx, "bob"); !errors.Is(err, account.ErrNotFound) {
		t.Fatalf("expected deleted, got %v", err)
	}
	seedAccount(t, s, "bob2", "bob@example.com")

	if err := s.ResolvePending(ctx, "ghost", true); !errors.Is(err, account.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResolveRequestSideEffectFailureKeepsPending(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedAccount(t, s, "alice", "alice@example.com")

	req := &workflow.Request{ID: "r1", Type: workflow.TypeCreate, TargetUsername: "alice",
		Status: workflow.StatusPending, CreatedBy: "hr", CreatedAt: time.Now().UTC()}
	if err := s.CreateRequest(ctx, req); err != nil {
		t.Fatalf("create request: %v", err)
	}

	_, err := s.ResolveRequest(ctx, workflow.ResolveParams{
		ID:         "r1",
		Status:     workflow.StatusApproved,
		ResolvedBy: "boss",
		ResolvedAt: time.Now().UTC(),
		CreateAccount: &account.Account{
			ID: "dup", Username: "alice",
		},
	})
	if !errors.Is(err, account.ErrDuplicateUsername) {
		t.Fatalf("expected ErrDuplicateUsername, got %v", err)
	}
	got, _ := s.FindRequest(ctx, "r1")
	if got.Status != workflow.StatusPending {
		t.Fatalf("request must stay PENDING after failed side effect, got %s", got.Status)
	}
}

func TestApplyMovementSnapshotsProduct(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Now().UTC()
	if err := s.CreateProduct(ctx, &inventory.Product{ID: "p1", SKU: "X1", Name: "Widget", CurrentStock: 3}); err != nil {
		t.Fatalf("create product: %v", err)
	}

	if _, err := s.ApplyMovement(ctx, inventory.MovementParams{
		SKU: "X1", Delta: -3, Kind: inventory.KindSale, HandledBy: "cashier",
		OccurredAt: now, EnforceSufficient: true,
	}); err != nil {
		t.Fatalf("movement: %v", err)
	}
	if _, err := s.ApplyMovement(ctx, inventory.MovementParams{
		SKU: "X1", Delta: -1, Kind: inventory.KindSale, HandledBy: "cashier",
		OccurredAt: now, EnforceSufficient: true,
	}); !errors.Is(err, inventory.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	entries, err := s.ListMovements(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].SKU != "X1" || entries[0].ProductName != "Widget" {
		t.Fatalf("entry not denormalized: %+v", entries[0])
	}
}

func TestAdvanceOrderCompareAndSwap(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Now().UTC()
	if err := s.CreateProduct(ctx, &inventory.Product{ID: "p1", SKU: "X1", Name: "Widget"}); err != nil {
		t.Fatalf("create product: %v", err)
	}
	if err := s.CreateOrder(ctx, &inventory.PurchaseOrder{
		ID: "o1", ProductID: "p1", SKU: "X1", Quantity: 7, Status: inventory.OrderPending,
	}); err != nil {
		t.Fatalf("create order: %v", err)
	}

	params := inventory.AdvanceOrderParams{
		ID: "o1", From: inventory.OrderPending, To: inventory.OrderApproved, HandledBy: "manager", At: now,
	}
	if _, err := s.AdvanceOrder(ctx, params); err != nil {
		t.Fatalf("approve: %v", err)
	}
	// Replaying the same transition fails: the precondition no longer holds.
	if _, err := s.AdvanceOrder(ctx, params); !errors.Is(err, inventory.ErrOrderState) {
		t.Fatalf("expected ErrOrderState, got %v", err)
	}

	delivered, err := s.AdvanceOrder(ctx, inventory.AdvanceOrderParams{
		ID: "o1", From: inventory.OrderApproved, To: inventory.OrderDelivered, HandledBy: "manager", At: now,
	})
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if delivered.Status != inventory.OrderDelivered {
		t.Fatalf("expected DELIVERED, got %s", delivered.Status)
	}
	p, _ := s.FindProduct(ctx, "X1")
	if p.CurrentStock != 7 {
		t.Fatalf("delivery restock missing, stock=%d", p.CurrentStock)
	}
}
