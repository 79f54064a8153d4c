package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized is returned when an actor lacks a required permission.
	ErrUnauthorized = errors.New("auth: unauthorized")

	// ErrInvalidToken is the umbrella credential failure. The specific
	// sentinels below wrap it so callers can treat any of them as
	// "unauthenticated" with a single errors.Is check.
	ErrInvalidToken = errors.New("auth: invalid token")
)

var (
	ErrTokenExpired   = fmt.Errorf("%w: expired", ErrInvalidToken)
	ErrTokenMalformed = fmt.Errorf("%w: malformed", ErrInvalidToken)
	ErrTokenSignature = fmt.Errorf("%w: bad signature", ErrInvalidToken)
)
