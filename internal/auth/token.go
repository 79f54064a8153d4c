package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// DefaultTokenTTL is the absolute credential lifetime. There is no
	// refresh mechanism; callers re-authenticate after expiry.
	DefaultTokenTTL = 10 * time.Hour

	defaultIssuer = "smartstock"
)

// Claims are the JWT claims embedded into issued credentials.
type Claims struct {
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}

// Credentials issues and resolves signed session credentials (HS256 JWTs)
// carrying identity and permission set.
type Credentials struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// CredentialsOption configures Credentials.
type CredentialsOption func(*Credentials)

// WithIssuer overrides the issuer claim.
func WithIssuer(issuer string) CredentialsOption {
	return func(c *Credentials) {
		if issuer = strings.TrimSpace(issuer); issuer != "" {
			c.issuer = issuer
		}
	}
}

// WithTTL overrides the credential lifetime.
func WithTTL(ttl time.Duration) CredentialsOption {
	return func(c *Credentials) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) CredentialsOption {
	return func(c *Credentials) {
		if fn != nil {
			c.now = fn
		}
	}
}

// NewCredentials constructs a credential service with the given signing secret.
func NewCredentials(secret string, opts ...CredentialsOption) (*Credentials, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("auth: signing secret is required")
	}
	c := &Credentials{
		secret: []byte(secret),
		issuer: defaultIssuer,
		ttl:    DefaultTokenTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Issue signs a credential for the given identity and permission set and
// returns it along with its expiry.
func (c *Credentials) Issue(username string, perms []string) (string, time.Time, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", time.Time{}, errors.New("auth: username is required")
	}
	now := c.now().UTC()
	exp := now.Add(c.ttl)
	claims := Claims{
		Permissions: dedupePermissions(perms),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Resolve verifies a credential and returns the principal it carries.
// Failures are distinct (expired, bad signature, malformed) but all match
// errors.Is(err, ErrInvalidToken).
func (c *Credentials) Resolve(token string) (Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Principal{}, ErrTokenMalformed
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrTokenSignature
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(c.now), jwt.WithIssuer(c.issuer), jwt.WithExpirationRequired())
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return Principal{}, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return Principal{}, ErrTokenSignature
		default:
			return Principal{}, ErrTokenMalformed
		}
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Principal{}, ErrTokenMalformed
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return Principal{}, ErrTokenMalformed
	}
	return NewPrincipal(claims.Subject, claims.Permissions), nil
}

func dedupePermissions(perms []string) []string {
	if len(perms) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(perms))
	var out []string
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
