package exts

import (
	"errors"
	"fmt"
	"strings"

	"git.solsynth.dev/hypernet/conduit/pkg/internal/models"
	"git.solsynth.dev/hypernet/conduit/pkg/internal/services"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ExtractToken accepts both the "Token" and the "Bearer" scheme.
func ExtractToken(c *fiber.Ctx) string {
	header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	scheme, token, found := strings.Cut(header, " ")
	if !found {
		return ""
	}
	switch strings.ToLower(scheme) {
	case "token", "bearer":
		return strings.TrimSpace(token)
	default:
		return ""
	}
}

// ParseUserMiddleware loads the token owner into the context, requests without a
// token pass through anonymously.
func ParseUserMiddleware(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := ExtractToken(c)
		if len(raw) == 0 {
			return c.Next()
		}

		claims, err := services.ReadUserToken(raw)
		if err != nil {
			return err
		}
		user, err := services.GetUser(db, claims.UserID)
		if err != nil {
			if errors.Is(err, services.ErrNotFound) {
				return fmt.Errorf("%w: token owner no longer exists", services.ErrUnauthorized)
			}
			return err
		}

		c.Locals("user", user)
		c.Locals("token", raw)
		return c.Next()
	}
}

func EnsureAuthenticated(c *fiber.Ctx) error {
	if _, ok := c.Locals("user").(models.User); !ok {
		return fmt.Errorf("%w: authentication required", services.ErrUnauthorized)
	}
	return nil
}

// GetViewerID returns the id of the current user, nil for anonymous requests.
func GetViewerID(c *fiber.Ctx) *uint {
	if user, ok := c.Locals("user").(models.User); ok {
		return &user.ID
	}
	return nil
}
