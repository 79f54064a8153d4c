package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Kobia22/SmartStock/internal/account"
	"github.com/Kobia22/SmartStock/internal/auth"
)

func (s *Store) Create(ctx context.Context, acc *account.Account) error {
	perms, err := marshalPerms(acc.Permissions)
	if err != nil {
		return fmt.Errorf("marshal permissions: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		insert into users (id, username, email, password_hash, permissions, created_at, updated_at)
		values ($1, $2, nullif($3, ''), $4, $5, $6, $7)
	`, acc.ID, acc.Username, acc.Email, acc.PasswordHash, perms, acc.CreatedAt, acc.UpdatedAt)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			if strings.Contains(pgErr.ConstraintName, "email") {
				return account.ErrDuplicateEmail
			}
			return account.ErrDuplicateUsername
		}
		return err
	}
	return nil
}

func (s *Store) FindByUsername(ctx context.Context, username string) (*account.Account, error) {
	row := s.db.QueryRowContext(ctx, `
		select id, username, coalesce(email, ''), password_hash, permissions, created_at, updated_at
		from users
		where username = $1
	`, username)
	return scanAccount(row)
}

func (s *Store) List(ctx context.Context) ([]*account.Account, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, username, coalesce(email, ''), password_hash, permissions, created_at, updated_at
		from users
		order by username
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*account.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, acc)
	}
	return out, rows.Err()
}

func (s *Store) SetPermissions(ctx context.Context, username string, perms []string) error {
	raw, err := marshalPerms(perms)
	if err != nil {
		return fmt.Errorf("marshal permissions: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		update users set permissions = $2, updated_at = now()
		where username = $1
	`, username, raw)
	if err != nil {
		return err
	}
	return checkAffected(res, account.ErrNotFound)
}

func (s *Store) GrantPermissions(ctx context.Context, username string, perms []string) error {
	raw, err := marshalPerms(perms)
	if err != nil {
		return fmt.Errorf("marshal permissions: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		update users set permissions = permissions || $2, updated_at = now()
		where username = $1
	`, username, raw)
	if err != nil {
		return err
	}
	return checkAffected(res, account.ErrNotFound)
}

func (s *Store) ResolvePending(ctx context.Context, username string, approve bool) error {
	var (
		res sql.Result
		err error
	)
	if approve {
		res, err = s.db.ExecContext(ctx, `
			update users set permissions = permissions - $2, updated_at = now()
			where username = $1 and permissions ? $2
		`, username, auth.PermPendingApproval)
	} else {
		res, err = s.db.ExecContext(ctx, `
			delete from users
			where username = $1 and permissions ? $2
		`, username, auth.PermPendingApproval)
	}
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	// Lost the race or never pending: disambiguate for the caller.
	var exists bool
	err = s.db.QueryRowContext(ctx, `select exists(select 1 from users where username = $1)`, username).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return account.ErrNotFound
	}
	return account.ErrNotPending
}

func (s *Store) Delete(ctx context.Context, username string) error {
	res, err := s.db.ExecContext(ctx, `delete from users where username = $1`, username)
	if err != nil {
		return err
	}
	return checkAffected(res, account.ErrNotFound)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*account.Account, error) {
	var (
		acc account.Account
		raw []byte
	)
	err := row.Scan(&acc.ID, &acc.Username, &acc.Email, &acc.PasswordHash, &raw, &acc.CreatedAt, &acc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, account.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if acc.Permissions, err = unmarshalPerms(raw); err != nil {
		return nil, fmt.Errorf("decode permissions: %w", err)
	}
	return &acc, nil
}

func checkAffected(res sql.Result, absent error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return absent
	}
	return nil
}
