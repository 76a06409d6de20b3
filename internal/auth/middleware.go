package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/assistencia-service/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal represents the authenticated operator.
type Principal struct {
	Subject string
	Name    string
}

// AuthMiddleware validates bearer tokens.
type AuthMiddleware struct {
	tokens   *TokenManager
	required bool
}

// NewAuthMiddleware constructs middleware. When required is false, requests
// without an Authorization header pass anonymously; a header that is present
// is still verified.
func NewAuthMiddleware(tokens *TokenManager, required bool) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, required: required}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		if m.required {
			return apperrors.NewUnauthorized("missing authorization header")
		}
		return c.Next()
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	c.Locals(principalKey, &Principal{Subject: claims.Subject, Name: claims.Name})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated operator.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}

// OperatorFromContext returns the operator subject, or "" for anonymous calls.
func OperatorFromContext(c *fiber.Ctx) string {
	if p, ok := PrincipalFromContext(c); ok {
		return p.Subject
	}
	return ""
}
