package workflow

import (
	"errors"
	"time"
)

// RequestType is the intent of a privileged request.
type RequestType string

const (
	TypeCreate RequestType = "CREATE"
	TypeDelete RequestType = "DELETE"
)

// Status is the request state. PENDING is initial; APPROVED and REJECTED are
// terminal, reached exactly once.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// Decision is an approver's verdict.
type Decision string

const (
	DecisionApprove Decision = "APPROVE"
	DecisionReject  Decision = "REJECT"
)

// Request is an asynchronous privileged intent requiring a second authorized
// actor before taking effect. Requests are never deleted.
type Request struct {
	ID             string      `json:"id"`
	Type           RequestType `json:"request_type"`
	TargetUsername string      `json:"target_username"`
	TargetEmail    string      `json:"target_email,omitempty"`
	Reason         string      `json:"reason,omitempty"`
	Status         Status      `json:"status"`
	CreatedBy      string      `json:"created_by"`
	ResolvedBy     string      `json:"resolved_by,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	ResolvedAt     *time.Time  `json:"resolved_at,omitempty"`
}

// Clone returns a copy safe to hand across the store boundary.
func (r *Request) Clone() *Request {
	out := *r
	if r.ResolvedAt != nil {
		t := *r.ResolvedAt
		out.ResolvedAt = &t
	}
	return &out
}

var (
	ErrNotFound = errors.New("workflow: request not found")
	// ErrAlreadyResolved guards the exactly-once transition out of PENDING.
	ErrAlreadyResolved = errors.New("workflow: request already resolved")
	ErrInvalidType     = errors.New("workflow: invalid request type")
	ErrInvalidDecision = errors.New("workflow: invalid decision")
	ErrInvalidInput    = errors.New("workflow: invalid input")
)
