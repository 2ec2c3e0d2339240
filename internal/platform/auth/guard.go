// Package auth answers the question every protected endpoint asks: "is this
// bearer token currently a valid session for role R, and if so for which
// principal". Tokens only carry the login identifier; the role is re-derived
// on every request by resolving the subject against the credential store
// partition for the claimed role. Nothing is cached across requests, so a
// token whose backing principal has been deleted stops working immediately.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/clinic/clinic/internal/platform/token"
)

// Role identifies one of the three principal kinds.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

// ParseRole validates a role string from a request path.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleDoctor, RolePatient:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

var (
	// ErrInvalidToken covers missing, expired, malformed and tampered tokens.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrRoleMismatch means the token verified but its subject does not
	// resolve to a principal of the required role.
	ErrRoleMismatch = errors.New("token does not belong to a principal of the required role")
	// ErrPrincipalNotFound is returned by CredentialStore implementations
	// when an identifier has no principal in the requested partition.
	ErrPrincipalNotFound = errors.New("principal not found")
)

// CredentialStore resolves a login identifier to a principal id, one method
// per principal partition. Admins log in by username, doctors and patients by
// email.
type CredentialStore interface {
	ResolveAdmin(ctx context.Context, username string) (uuid.UUID, error)
	ResolveDoctor(ctx context.Context, email string) (uuid.UUID, error)
	ResolvePatient(ctx context.Context, email string) (uuid.UUID, error)
}

// Guard combines the token authority with the credential store.
type Guard struct {
	authority *token.Authority
	store     CredentialStore
}

func NewGuard(authority *token.Authority, store CredentialStore) *Guard {
	return &Guard{authority: authority, store: store}
}

// Authorize verifies the token and resolves its subject against the store
// partition for exactly the required role. A cryptographically valid token
// for a doctor never authorizes patient-scoped operations.
func (g *Guard) Authorize(ctx context.Context, tokenStr string, role Role) (uuid.UUID, error) {
	subject, err := g.authority.Verify(tokenStr)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}

	var id uuid.UUID
	switch role {
	case RoleAdmin:
		id, err = g.store.ResolveAdmin(ctx, subject)
	case RoleDoctor:
		id, err = g.store.ResolveDoctor(ctx, subject)
	case RolePatient:
		id, err = g.store.ResolvePatient(ctx, subject)
	default:
		return uuid.Nil, fmt.Errorf("unknown role %q", role)
	}
	if err != nil {
		if errors.Is(err, ErrPrincipalNotFound) {
			return uuid.Nil, ErrRoleMismatch
		}
		return uuid.Nil, fmt.Errorf("resolve %s principal: %w", role, err)
	}
	return id, nil
}
