package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	principalIDKey contextKey = "principal_id"
	principalRole  contextKey = "principal_role"
)

func bearerToken(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
	}
	return parts[1], nil
}

func authorize(c echo.Context, g *Guard, role Role) error {
	tokenStr, err := bearerToken(c)
	if err != nil {
		return err
	}

	principalID, err := g.Authorize(c.Request().Context(), tokenStr, role)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) || errors.Is(err, ErrRoleMismatch) {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "authorization failed")
	}

	c.SetRequest(c.Request().WithContext(NewContext(c.Request().Context(), principalID, role)))
	return nil
}

// NewContext returns a context carrying the authorized principal id and
// role, as read back by PrincipalIDFromContext and RoleFromContext.
func NewContext(ctx context.Context, principalID uuid.UUID, role Role) context.Context {
	ctx = context.WithValue(ctx, principalIDKey, principalID)
	return context.WithValue(ctx, principalRole, role)
}

// RequireRole returns middleware that admits only bearers of a valid session
// token for the given role. The resolved principal id lands in the request
// context.
func RequireRole(g *Guard, role Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := authorize(c, g, role); err != nil {
				return err
			}
			return next(c)
		}
	}
}

// RequireDeclaredRole returns middleware for routes where the path declares
// the caller's role (":role" param). The declared role must be one of the
// allowed ones and the token must resolve against that role's partition.
func RequireDeclaredRole(g *Guard, allowed ...Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, err := ParseRole(c.Param("role"))
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "unknown role")
			}
			permitted := false
			for _, a := range allowed {
				if role == a {
					permitted = true
					break
				}
			}
			if !permitted {
				return echo.NewHTTPError(http.StatusUnauthorized, "role not permitted for this operation")
			}
			if err := authorize(c, g, role); err != nil {
				return err
			}
			return next(c)
		}
	}
}

// PrincipalIDFromContext returns the principal id resolved by the guard
// middleware, or uuid.Nil outside an authorized request.
func PrincipalIDFromContext(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(principalIDKey).(uuid.UUID)
	return id
}

// RoleFromContext returns the role the request was authorized for.
func RoleFromContext(ctx context.Context) Role {
	role, _ := ctx.Value(principalRole).(Role)
	return role
}
