package pg

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Kobia22/SmartStock/internal/ids"
	"github.com/Kobia22/SmartStock/internal/inventory"
)

func (s *Store) CreateProduct(ctx context.Context, p *inventory.Product) error {
	_, err := s.db.ExecContext(ctx, `
		insert into products (id, sku, name, category, unit_price, current_stock, reorder_point, created_at, updated_at)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, p.ID, p.SKU, p.Name, p.Category, p.UnitPrice, p.CurrentStock, p.ReorderPoint, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return inventory.ErrDuplicateSKU
		}
		return err
	}
	return nil
}

func (s *Store) FindProduct(ctx context.Context, sku string) (*inventory.Product, error) {
	row := s.db.QueryRowContext(ctx, productSelect+` where sku = $1`, sku)
	return scanProduct(row)
}

func (s *Store) ListProducts(ctx context.Context) ([]*inventory.Product, error) {
	rows, err := s.db.QueryContext(ctx, productSelect+` order by sku`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*inventory.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) ApplyMovement(ctx context.Context, params inventory.MovementParams) (*inventory.Movement, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	m, err := applyMovementTx(ctx, tx, params)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return m, nil
}

// applyMovementTx locks the product row, checks sufficiency, mutates stock
// and appends the movement inside the caller's transaction.
func applyMovementTx(ctx context.Context, tx *sql.Tx, params inventory.MovementParams) (*inventory.Movement, error) {
	var (
		productID string
		stock     int
	)
	err := tx.QueryRowContext(ctx, `
		select id, current_stock from products where sku = $1 for update
	`, params.SKU).Scan(&productID, &stock)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, inventory.ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	if params.EnforceSufficient && stock+params.Delta < 0 {
		return nil, inventory.ErrInsufficientStock
	}
	if _, err := tx.ExecContext(ctx, `
		update products set current_stock = current_stock + $2, updated_at = $3 where id = $1
	`, productID, params.Delta, params.OccurredAt); err != nil {
		return nil, err
	}
	m := &inventory.Movement{
		ID:         ids.New(),
		ProductID:  productID,
		HandledBy:  params.HandledBy,
		Kind:       params.Kind,
		Quantity:   params.Delta,
		Notes:      params.Notes,
		OccurredAt: params.OccurredAt,
	}
	if _, err := tx.ExecContext(ctx, `
		insert into stock_movements (id, product_id, handled_by, kind, quantity, notes, occurred_at)
		values ($1, $2, $3, $4, $5, $6, $7)
	`, m.ID, m.ProductID, m.HandledBy, string(m.Kind), m.Quantity, m.Notes, m.OccurredAt); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Store) ListMovements(ctx context.Context) ([]inventory.AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		select m.id, m.product_id, m.handled_by, m.kind, m.quantity, coalesce(m.notes, ''), m.occurred_at,
		       p.sku, p.name
		from stock_movements m
		join products p on p.id = m.product_id
		order by m.occurred_at desc, m.id desc
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []inventory.AuditEntry
	for rows.Next() {
		var (
			e    inventory.AuditEntry
			kind string
		)
		if err := rows.Scan(&e.ID, &e.ProductID, &e.HandledBy, &kind, &e.Quantity, &e.Notes, &e.OccurredAt, &e.SKU, &e.ProductName); err != nil {
			return nil, err
		}
		e.Kind = inventory.MovementKind(kind)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) CreateOrder(ctx context.Context, o *inventory.PurchaseOrder) error {
	_, err := s.db.ExecContext(ctx, `
		insert into purchase_orders (id, product_id, sku, quantity, status, generated_by, ordered_at, updated_at)
		values ($1, $2, $3, $4, $5, $6, $7, $8)
	`, o.ID, o.ProductID, o.SKU, o.Quantity, string(o.Status), o.GeneratedBy, o.OrderedAt, o.UpdatedAt)
	return err
}

func (s *Store) ListOrders(ctx context.Context) ([]*inventory.PurchaseOrder, error) {
	rows, err := s.db.QueryContext(ctx, orderSelect+` order by ordered_at desc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*inventory.PurchaseOrder
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *Store) AdvanceOrder(ctx context.Context, params inventory.AdvanceOrderParams) (*inventory.PurchaseOrder, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		update purchase_orders set status = $3, updated_at = $4
		where id = $1 and status = $2
	`, params.ID, string(params.From), string(params.To), params.At)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		var exists bool
		if err := tx.QueryRowContext(ctx, `select exists(select 1 from purchase_orders where id = $1)`, params.ID).Scan(&exists); err != nil {
			return nil, err
		}
		if !exists {
			return nil, inventory.ErrOrderNotFound
		}
		return nil, inventory.ErrOrderState
	}

	order, err := scanOrder(tx.QueryRowContext(ctx, orderSelect+` where id = $1`, params.ID))
	if err != nil {
		return nil, err
	}
	if params.To == inventory.OrderDelivered {
		if _, err := applyMovementTx(ctx, tx, inventory.MovementParams{
			SKU:        order.SKU,
			Delta:      order.Quantity,
			Kind:       inventory.KindRestock,
			Notes:      "Purchase order " + order.ID + " delivered",
			HandledBy:  params.HandledBy,
			OccurredAt: params.At,
		}); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return order, nil
}

const productSelect = `
	select id, sku, name, coalesce(category, ''), unit_price, current_stock, reorder_point, created_at, updated_at
	from products`

func scanProduct(row rowScanner) (*inventory.Product, error) {
	var p inventory.Product
	err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.Category, &p.UnitPrice, &p.CurrentStock, &p.ReorderPoint, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, inventory.ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

const orderSelect = `
	select id, product_id, sku, quantity, status, generated_by, ordered_at, updated_at
	from purchase_orders`

func scanOrder(row rowScanner) (*inventory.PurchaseOrder, error) {
	var (
		o      inventory.PurchaseOrder
		status string
	)
	err := row.Scan(&o.ID, &o.ProductID, &o.SKU, &o.Quantity, &status, &o.GeneratedBy, &o.OrderedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, inventory.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	o.Status = inventory.OrderStatus(status)
	return &o, nil
}
