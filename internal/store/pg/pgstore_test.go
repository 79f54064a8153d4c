package pg

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Kobia22/SmartStock/internal/account"
	"github.com/Kobia22/SmartStock/internal/auth"
	"github.com/Kobia22/SmartStock/internal/inventory"
	"github.com/Kobia22/SmartStock/internal/workflow"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewWithDB(db), mock
}

func uniqueViolation(constraint string) *pgconn.PgError {
	return &pgconn.PgError{Code: pgErrUniqueViolation, ConstraintName: constraint}
}

func TestCreateAccountMapsUniqueViolations(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()
	now := time.Now().UTC()
	acc := &account.Account{ID: "a1", Username: "alice", Email: "alice@example.com",
		PasswordHash: "hash", CreatedAt: now, UpdatedAt: now}

	mock.ExpectExec("insert into users").WillReturnError(uniqueViolation("users_username_key"))
	if err := s.Create(ctx, acc); !errors.Is(err, account.ErrDuplicateUsername) {
		t.Fatalf("expected ErrDuplicateUsername, got %v", err)
	}

	mock.ExpectExec("insert into users").WillReturnError(uniqueViolation("users_email_key"))
	if err := s.Create(ctx, acc); !errors.Is(err, account.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestResolvePendingApproveWinner(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("update users set permissions = permissions -").
		WithArgs("alice", auth.PermPendingApproval).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.ResolvePending(context.Background(), "alice", true); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestResolvePendingLoserDisambiguates(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()

	// Account exists but already resolved.
	mock.ExpectExec("update users set permissions = permissions -").
		WithArgs("alice", auth.PermPendingApproval).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("select exists").WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	if err := s.ResolvePending(ctx, "alice", true); !errors.Is(err, account.ErrNotPending) {
		t.Fatalf("expected ErrNotPending, got %v", err)
	}

	// Account gone entirely.
	mock.ExpectExec("delete from users").
		WithArgs("ghost", auth.PermPendingApproval).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("select exists").WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	if err := s.ResolvePending(ctx, "ghost", false); !errors.Is(err, account.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestApplyMovementInsufficientRollsBack(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("select id, current_stock from products").WithArgs("X1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "current_stock"}).AddRow("p1", 5))
	mock.ExpectRollback()

	_, err := s.ApplyMovement(context.Background(), inventory.MovementParams{
		SKU: "X1", Delta: -6, Kind: inventory.KindSale, HandledBy: "cashier",
		OccurredAt: time.Now().UTC(), EnforceSufficient: true,
	})
	if !errors.Is(err, inventory.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestApplyMovementCommitsStockAndAudit(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery("select id, current_stock from products").WithArgs("X1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "current_stock"}).AddRow("p1", 5))
	mock.ExpectExec("update products set current_stock").
		WithArgs("p1", -3, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("insert into stock_movements").
		WithArgs(sqlmock.AnyArg(), "p1", "cashier", "SALE", -3, "pos", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	m, err := s.ApplyMovement(context.Background(), inventory.MovementParams{
		SKU: "X1", Delta: -3, Kind: inventory.KindSale, Notes: "pos",
		HandledBy: "cashier", OccurredAt: now, EnforceSufficient: true,
	})
	if err != nil {
		t.Fatalf("movement: %v", err)
	}
	if m.ProductID != "p1" || m.Quantity != -3 || m.Kind != inventory.KindSale {
		t.Fatalf("unexpected movement: %+v", m)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestApplyMovementAllowsNegativeStock(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()

	// Adjustments skip the sufficiency gate: the stock row may go negative.
	mock.ExpectBegin()
	mock.ExpectQuery("select id, current_stock from products").WithArgs("X1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "current_stock"}).AddRow("p1", 2))
	mock.ExpectExec("update products set current_stock").
		WithArgs("p1", -5, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("insert into stock_movements").
		WithArgs(sqlmock.AnyArg(), "p1", "manager", "ADJUSTMENT", -5, "shrinkage", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	m, err := s.ApplyMovement(context.Background(), inventory.MovementParams{
		SKU: "X1", Delta: -5, Kind: inventory.KindAdjustment, Notes: "shrinkage",
		HandledBy: "manager", OccurredAt: now,
	})
	if err != nil {
		t.Fatalf("movement: %v", err)
	}
	if m.Quantity != -5 {
		t.Fatalf("unexpected movement: %+v", m)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestApplyMovementUnknownProduct(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("select id, current_stock from products").WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id", "current_stock"}))
	mock.ExpectRollback()

	_, err := s.ApplyMovement(context.Background(), inventory.MovementParams{
		SKU: "ghost", Delta: 1, Kind: inventory.KindRestock, OccurredAt: time.Now().UTC(),
	})
	if !errors.Is(err, inventory.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestResolveRequestAlreadyResolved(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec("update user_requests set status").
		WithArgs("r1", "APPROVED", "boss", now).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("select exists").WithArgs("r1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	_, err := s.ResolveRequest(context.Background(), workflow.ResolveParams{
		ID: "r1", Status: workflow.StatusApproved, ResolvedBy: "boss", ResolvedAt: now,
	})
	if !errors.Is(err, workflow.ErrAlreadyResolved) {
		t.Fatalf("expected ErrAlreadyResolved, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestResolveRequestDeleteSideEffect(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec("update user_requests set status").
		WithArgs("r1", "APPROVED", "boss", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("delete from users").
		WithArgs("oldie").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("select id, request_type, target_username").WithArgs("r1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "request_type", "target_username", "target_email", "reason",
			"status", "created_by", "resolved_by", "created_at", "resolved_at",
		}).AddRow("r1", "DELETE", "oldie", "", "offboarding", "APPROVED", "hr", "boss", now, now))
	mock.ExpectCommit()

	req, err := s.ResolveRequest(context.Background(), workflow.ResolveParams{
		ID: "r1", Status: workflow.StatusApproved, ResolvedBy: "boss", ResolvedAt: now,
		DeleteUsername: "oldie",
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if req.Status != workflow.StatusApproved || req.ResolvedBy != "boss" || req.ResolvedAt == nil {
		t.Fatalf("unexpected request: %+v", req)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestScanAccountDecodesPermissionSet(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery("select id, username").WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "username", "email", "password_hash", "permissions", "created_at", "updated_at",
		}).AddRow("a1", "alice", "alice@example.com", "hash",
			[]byte(`{"VIEW_INVENTORY":true,"PROCESS_SALE":true}`), now, now))

	acc, err := s.FindByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(acc.Permissions) != 2 {
		t.Fatalf("expected 2 permissions, got %v", acc.Permissions)
	}
	if !acc.HasPermission(auth.PermViewInventory) || !acc.HasPermission(auth.PermProcessSale) {
		t.Fatalf("permission set not decoded: %v", acc.Permissions)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
