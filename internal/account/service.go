package account

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/Kobia22/SmartStock/internal/auth"
	"github.com/Kobia22/SmartStock/internal/ids"
)

// Service owns account creation, the quarantine transition, permission
// mutation and listings. Authorization checks live here, not at the boundary:
// every privileged operation takes the resolved actor explicitly.
type Service struct {
	store Store
	creds *auth.Credentials
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

// NewService constructs the lifecycle manager.
func NewService(store Store, creds *auth.Credentials, opts ...Option) *Service {
	s := &Service{store: store, creds: creds, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register self-registers a new account. The account starts quarantined with
// exactly the sentinel permission; no credential is issued.
func (s *Service) Register(ctx context.Context, username, email, password string) (*Account, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(strings.ToLower(email))
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}
	if password == "" {
		return nil, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	acc := &Account{
		ID:           ids.New(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Permissions:  []string{auth.PermPendingApproval},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Create(ctx, acc); err != nil {
		return nil, err
	}
	return acc, nil
}

// Authenticate verifies the password and issues a credential scoped to the
// account's current permission set. Quarantined accounts never obtain a
// session: the quarantine check precedes credential issuance.
func (s *Service) Authenticate(ctx context.Context, username, password string) (string, time.Time, error) {
	acc, err := s.store.FindByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, ErrNotFound) {
		return "", time.Time{}, ErrInvalidCredentials
	}
	if err != nil {
		return "", time.Time{}, err
	}
	if auth.VerifyPassword(acc.PasswordHash, password) != nil {
		return "", time.Time{}, ErrInvalidCredentials
	}
	if acc.Quarantined() {
		return "", time.Time{}, ErrQuarantined
	}
	return s.creds.Issue(acc.Username, acc.Permissions)
}

// PendingRegistrations lists quarantined accounts for the approver queue.
func (s *Service) PendingRegistrations(ctx context.Context, actor auth.Principal) ([]*Account, error) {
	if err := actor.Require(auth.AnyOf(auth.PermApproveUserCreate)); err != nil {
		return nil, err
	}
	all, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	var pending []*Account
	for _, acc := range all {
		if acc.Quarantined() {
			pending = append(pending, acc)
		}
	}
	return pending, nil
}

// ResolveRegistration approves or declines a quarantined account. Approval
// removes exactly the sentinel: the account becomes active with an otherwise
// empty set, unlocking login without granting capabilities. Decline deletes
// the record. The transition is conditional on the sentinel still being
// present, so concurrent resolutions yield one winner and one ErrNotPending.
func (s *Service) ResolveRegistration(ctx context.Context, actor auth.Principal, username string, decision Decision) error {
	if err := actor.Require(auth.AnyOf(auth.PermApproveUserCreate)); err != nil {
		return err
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	switch decision {
	case DecisionApprove:
		return s.store.ResolvePending(ctx, username, true)
	case DecisionDecline:
		return s.store.ResolvePending(ctx, username, false)
	default:
		return fmt.Errorf("%w: %q", ErrInvalidDecision, decision)
	}
}

// SetPermissions mutates the target's permission set. ModeReplace clears and
// overwrites; ModeGrant unions tokens in. An actor can never include the
// assignment privilege when targeting itself, regardless of mode.
func (s *Service) SetPermissions(ctx context.Context, actor auth.Principal, target string, perms []string, mode AssignMode) error {
	if err := actor.Require(auth.AnyOf(auth.PermAssignPermission)); err != nil {
		return err
	}
	target = strings.TrimSpace(target)
	if target == "" {
		return fmt.Errorf("%w: target username is required", ErrInvalidInput)
	}
	normalized := normalizePermissions(perms)
	if target == actor.Username && slices.Contains(normalized, auth.PermAssignPermission) {
		return ErrSelfEscalation
	}
	switch mode {
	case ModeGrant:
		return s.store.GrantPermissions(ctx, target, normalized)
	default:
		return s.store.SetPermissions(ctx, target, normalized)
	}
}

// ListAccounts returns accounts, optionally excluding quarantined ones.
func (s *Service) ListAccounts(ctx context.Context, actor auth.Principal, filter ListFilter) ([]*Account, error) {
	if err := actor.Require(auth.AnyOf(auth.PermViewUserList)); err != nil {
		return nil, err
	}
	all, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	if filter != FilterActiveOnly {
		return all, nil
	}
	var active []*Account
	for _, acc := range all {
		if !acc.Quarantined() {
			active = append(active, acc)
		}
	}
	return active, nil
}

// Profile returns the actor's own account record.
func (s *Service) Profile(ctx context.Context, actor auth.Principal) (*Account, error) {
	return s.store.FindByUsername(ctx, actor.Username)
}

func normalizePermissions(perms []string) []string {
	seen := make(map[string]struct{}, len(perms))
	out := make([]string, 0, len(perms))
	for _, p := range perms {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
