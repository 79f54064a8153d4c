package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Kobia22/SmartStock/internal/account"
	"github.com/Kobia22/SmartStock/internal/auth"
	"github.com/Kobia22/SmartStock/internal/ids"
)

// DefaultPassword is assigned to accounts materialized by an approved CREATE
// request. Operational follow-up, not a security design: the operator assigns
// permissions and forces a password reset out of band.
const DefaultPassword = "ChangeMe123!"

// Service owns creation and resolution of privileged requests. Submission and
// approval are gated by distinct permission tokens per request type.
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

// NewService constructs the workflow engine.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit records a privileged intent with status PENDING. The requester must
// hold the submission permission specific to the request type.
func (s *Service) Submit(ctx context.Context, actor auth.Principal, typ RequestType, targetUsername, targetEmail, reason string) (*Request, error) {
	switch typ {
	case TypeCreate:
		if err := actor.Require(auth.AnyOf(auth.PermCreateUserRequest)); err != nil {
			return nil, err
		}
	case TypeDelete:
		if err := actor.Require(auth.AnyOf(auth.PermDeleteUserRequest)); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidType, typ)
	}
	targetUsername = strings.TrimSpace(targetUsername)
	if targetUsername == "" {
		return nil, fmt.Errorf("%w: target username is required", ErrInvalidInput)
	}
	req := &Request{
		ID:             ids.New(),
		Type:           typ,
		TargetUsername: targetUsername,
		TargetEmail:    strings.TrimSpace(strings.ToLower(targetEmail)),
		Reason:         strings.TrimSpace(reason),
		Status:         StatusPending,
		CreatedBy:      actor.Username,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.store.CreateRequest(ctx, req); err != nil {
		return nil, err
	}
	return req.Clone(), nil
}

// Resolve flips a PENDING request to its terminal status, exactly once. The
// approver must hold the approval permission specific to the request's type.
// An approved CREATE materializes the target account with the default
// password and no permissions; an approved DELETE removes the target, failing
// with account.ErrNotFound if it no longer exists. Resolver and resolution
// timestamp are stamped regardless of outcome.
func (s *Service) Resolve(ctx context.Context, actor auth.Principal, requestID string, decision Decision) (*Request, error) {
	req, err := s.store.FindRequest(ctx, strings.TrimSpace(requestID))
	if err != nil {
		return nil, err
	}
	switch req.Type {
	case TypeCreate:
		if err := actor.Require(auth.AnyOf(auth.PermApproveUserCreate)); err != nil {
			return nil, err
		}
	case TypeDelete:
		if err := actor.Require(auth.AnyOf(auth.PermApproveUserDelete)); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidType, req.Type)
	}

	var status Status
	switch decision {
	case DecisionApprove:
		status = StatusApproved
	case DecisionReject:
		status = StatusRejected
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidDecision, decision)
	}

	now := s.now().UTC()
	params := ResolveParams{
		ID:         req.ID,
		Status:     status,
		ResolvedBy: actor.Username,
		ResolvedAt: now,
	}
	if status == StatusApproved {
		switch req.Type {
		case TypeCreate:
			hash, err := auth.HashPassword(DefaultPassword)
			if err != nil {
				return nil, err
			}
			params.CreateAccount = &account.Account{
				ID:           ids.New(),
				Username:     req.TargetUsername,
				Email:        req.TargetEmail,
				PasswordHash: hash,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
		case TypeDelete:
			params.DeleteUsername = req.TargetUsername
		}
	}
	return s.store.ResolveRequest(ctx, params)
}

// List returns every privileged request, past and pending.
func (s *Service) List(ctx context.Context, actor auth.Principal) ([]*Request, error) {
	if err := actor.Require(auth.AnyOf(auth.PermViewRequests)); err != nil {
		return nil, err
	}
	return s.store.ListRequests(ctx)
}
