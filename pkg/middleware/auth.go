package middleware

import (
	"strings"

	"dealflow/pkg/auth"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AdminMiddleware admits a request when X-Admin-Email matches adminEmail or when a
// bearer token signed by jwtManager carries that email.
func AdminMiddleware(adminEmail string, jwtManager *auth.JWTManager, logger *zap.Logger) fiber.Handler {
	adminEmail = strings.ToLower(strings.TrimSpace(adminEmail))

	return func(c *fiber.Ctx) error {
		if adminEmail == "" {
			logger.Warn("Admin route called but ADMIN_EMAIL is not configured")
			return unauthorized(c)
		}

		if header := strings.TrimSpace(c.Get("X-Admin-Email")); header != "" {
			if strings.EqualFold(header, adminEmail) {
				c.Locals("adminEmail", adminEmail)
				return c.Next()
			}
			logger.Warn("Admin email mismatch")
			return unauthorized(c)
		}

		token := c.Get("Authorization")
		if len(token) > 7 && token[:7] == "Bearer " {
			token = token[7:]
		} else {
			return unauthorized(c)
		}

		claims, err := jwtManager.ValidateToken(token)
		if err != nil {
			logger.Warn("Invalid admin token", zap.Error(err))
			return unauthorized(c)
		}
		if !strings.EqualFold(claims.Email, adminEmail) {
			logger.Warn("Admin token issued for another email")
			return unauthorized(c)
		}

		c.Locals("adminEmail", adminEmail)
		return c.Next()
	}
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": "unauthorized",
	})
}
