package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
)

var ErrNoIdentity = errors.New("no identity in request")

// Provider answers "which user is making this request" from an opaque
// credential. Token verification mechanics live behind this interface;
// the services only care about the capability check.
type Provider interface {
	CurrentUserID(ctx context.Context, credential string) (string, error)
}

// Opaque trusts the upstream edge to have verified the credential and uses
// it directly as the user identifier. It stands in for the hosted identity
// provider in deployments where verification happens out of process.
type Opaque struct{}

func (Opaque) CurrentUserID(_ context.Context, credential string) (string, error) {
	if credential == "" {
		return "", ErrNoIdentity
	}

	return credential, nil
}

// NewMiddleware resolves the caller's user id into c.Locals("userId").
// In public mode the check is disabled globally: every request proceeds as
// anonymous and unauthenticated carts are permitted.
func NewMiddleware(provider Provider, publicMode bool, header string) fiber.Handler {
	if header == "" {
		header = "Authorization"
	}

	return func(c *fiber.Ctx) error {
		if publicMode {
			c.Locals("userId", "")
			return c.Next()
		}

		authHeader := c.Get(header)
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized: missed header"})
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized: Invalid header format"})
		}

		userID, err := provider.CurrentUserID(c.UserContext(), parts[1])
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized: Invalid credential"})
		}

		c.Locals("userId", userID)
		return c.Next()
	}
}

// UserIDFromCtx returns the resolved user id; empty means anonymous.
func UserIDFromCtx(c *fiber.Ctx) string {
	userID, _ := c.Locals("userId").(string)
	return userID
}
