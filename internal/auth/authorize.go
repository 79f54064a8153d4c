package auth

import (
	"sort"
	"strings"
)

// Requirement names the permissions an operation demands: any one of the
// listed tokens, or all of them.
type Requirement struct {
	tokens []string
	all    bool
}

// AnyOf is satisfied by holding at least one of the tokens.
func AnyOf(tokens ...string) Requirement {
	return Requirement{tokens: tokens}
}

// AllOf is satisfied only by holding every token.
func AllOf(tokens ...string) Requirement {
	return Requirement{tokens: tokens, all: true}
}

// Authorize evaluates req against the actor's permission set. Pure set
// membership: no hierarchy, no wildcards, no negation. The quarantine
// sentinel never satisfies a requirement, even if named explicitly.
func Authorize(perms map[string]struct{}, req Requirement) bool {
	if len(req.tokens) == 0 {
		return false
	}
	for _, tok := range req.tokens {
		_, ok := perms[tok]
		if tok == PermPendingApproval {
			ok = false
		}
		if req.all && !ok {
			return false
		}
		if !req.all && ok {
			return true
		}
	}
	return req.all
}

// Principal is the resolved caller identity. Every core operation receives it
// explicitly; there is no ambient security context.
type Principal struct {
	Username    string
	Permissions map[string]struct{}
}

// NewPrincipal builds a principal from a permission list, dropping blanks and
// duplicates.
func NewPrincipal(username string, perms []string) Principal {
	set := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		set[p] = struct{}{}
	}
	return Principal{Username: strings.TrimSpace(username), Permissions: set}
}

// HasPermission reports plain set membership.
func (p Principal) HasPermission(key string) bool {
	_, ok := p.Permissions[key]
	return ok
}

// Require returns ErrUnauthorized unless the principal satisfies req.
func (p Principal) Require(req Requirement) error {
	if !Authorize(p.Permissions, req) {
		return ErrUnauthorized
	}
	return nil
}

// PermissionList returns the permission set as a sorted slice.
func (p Principal) PermissionList() []string {
	out := make([]string, 0, len(p.Permissions))
	for k := range p.Permissions {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
