package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Kobia22/SmartStock/internal/account"
	"github.com/Kobia22/SmartStock/internal/workflow"
)

func (s *Store) CreateRequest(ctx context.Context, req *workflow.Request) error {
	_, err := s.db.ExecContext(ctx, `
		insert into user_requests (id, request_type, target_username, target_email, reason, status, created_by, created_at)
		values ($1, $2, $3, $4, $5, $6, $7, $8)
	`, req.ID, string(req.Type), req.TargetUsername, req.TargetEmail, req.Reason, string(req.Status), req.CreatedBy, req.CreatedAt)
	return err
}

func (s *Store) FindRequest(ctx context.Context, id string) (*workflow.Request, error) {
	row := s.db.QueryRowContext(ctx, requestSelect+` where id = $1`, id)
	return scanRequest(row)
}

func (s *Store) ListRequests(ctx context.Context) ([]*workflow.Request, error) {
	rows, err := s.db.QueryContext(ctx, requestSelect+` order by created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*workflow.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func (s *Store) ResolveRequest(ctx context.Context, params workflow.ResolveParams) (*workflow.Request, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		update user_requests set status = $2, resolved_by = $3, resolved_at = $4
		where id = $1 and status = 'PENDING'
	`, params.ID, string(params.Status), params.ResolvedBy, params.ResolvedAt)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		var exists bool
		if err := tx.QueryRowContext(ctx, `select exists(select 1 from user_requests where id = $1)`, params.ID).Scan(&exists); err != nil {
			return nil, err
		}
		if !exists {
			return nil, workflow.ErrNotFound
		}
		return nil, workflow.ErrAlreadyResolved
	}

	// Side effects roll back with the transition: a failed materialization or
	// deletion leaves the request PENDING.
	if acc := params.CreateAccount; acc != nil {
		perms, err := marshalPerms(acc.Permissions)
		if err != nil {
			return nil, fmt.Errorf("marshal permissions: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			insert into users (id, username, email, password_hash, permissions, created_at, updated_at)
			values ($1, $2, nullif($3, ''), $4, $5, $6, $7)
		`, acc.ID, acc.Username, acc.Email, acc.PasswordHash, perms, acc.CreatedAt, acc.UpdatedAt)
		if err != nil {
			if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
				if strings.Contains(pgErr.ConstraintName, "email") {
					return nil, account.ErrDuplicateEmail
				}
				return nil, account.ErrDuplicateUsername
			}
			return nil, err
		}
	}
	if params.DeleteUsername != "" {
		res, err := tx.ExecContext(ctx, `delete from users where username = $1`, params.DeleteUsername)
		if err != nil {
			return nil, err
		}
		if err := checkAffected(res, account.ErrNotFound); err != nil {
			return nil, err
		}
	}

	req, err := scanRequest(tx.QueryRowContext(ctx, requestSelect+` where id = $1`, params.ID))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return req, nil
}

const requestSelect = `
	select id, request_type, target_username, coalesce(target_email, ''), coalesce(reason, ''),
	       status, created_by, coalesce(resolved_by, ''), created_at, resolved_at
	from user_requests`

func scanRequest(row rowScanner) (*workflow.Request, error) {
	var (
		req        workflow.Request
		typ        string
		status     string
		resolvedAt sql.NullTime
	)
	err := row.Scan(&req.ID, &typ, &req.TargetUsername, &req.TargetEmail, &req.Reason,
		&status, &req.CreatedBy, &req.ResolvedBy, &req.CreatedAt, &resolvedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, workflow.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	req.Type = workflow.RequestType(typ)
	req.Status = workflow.Status(status)
	if resolvedAt.Valid {
		t := resolvedAt.Time
		req.ResolvedAt = &t
	}
	return &req, nil
}
