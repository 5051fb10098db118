package middleware

import (
	"strings"

	"foodorder/internal/apperrors"
	"foodorder/internal/models"
	"foodorder/internal/services"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

const principalKey = "principal"

// AuthRequired is a Fiber middleware to check for a valid access token.
// The verified caller is stored in the context, see PrincipalFrom.
func AuthRequired(issuer *services.TokenIssuer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return apperrors.ErrUnauthenticated
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && strings.EqualFold(parts[0], "Bearer")) {
			return apperrors.ErrTokenInvalid.WithMessage("Authorization header format must be 'Bearer <token>'")
		}

		principal, err := issuer.VerifyAccess(strings.TrimSpace(parts[1]))
		if err != nil {
			log.WithFields(log.Fields{
				"path": c.Path(),
				"code": apperrors.CodeOf(err),
			}).Debug("access token rejected")
			return err
		}

		c.Locals(principalKey, *principal)
		return c.Next()
	}
}

// PrincipalFrom returns the caller stored by AuthRequired.
func PrincipalFrom(c *fiber.Ctx) (services.Principal, bool) {
	p, ok := c.Locals(principalKey).(services.Principal)
	return p, ok
}

// RoleRequired rejects callers whose role is not one of roles.
// It must run after AuthRequired.
func RoleRequired(roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok := PrincipalFrom(c)
		if !ok {
			return apperrors.ErrUnauthenticated
		}
		for _, r := range roles {
			if p.Role == r {
				return c.Next()
			}
		}
		return apperrors.ErrNotAuthorized
	}
}
