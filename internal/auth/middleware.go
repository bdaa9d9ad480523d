package auth

import (
	"strings"

	"peternakan-backend/internal/config"
	"peternakan-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

const (
	CtxUserIDKey   = "user_id"
	CtxUserRoleKey = "user_role"
)

// JWTMiddleware menaruh user id dan role dari token Bearer ke locals.
func JWTMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw, ok := strings.CutPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Token tidak ditemukan, silakan login")
		}

		claims, err := ParseToken(cfg.JWTSecret, strings.TrimSpace(raw))
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Token tidak valid atau sudah kedaluwarsa")
		}

		c.Locals(CtxUserIDKey, claims.UserID)
		c.Locals(CtxUserRoleKey, claims.Role)
		return c.Next()
	}
}

func RequireRole(allowedRoles ...models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals(CtxUserRoleKey).(models.UserRole)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "Role user tidak diketahui")
		}

		for _, r := range allowedRoles {
			if r == role {
				return c.Next()
			}
		}
		return fiber.NewError(fiber.StatusForbidden, "Anda tidak punya akses untuk aksi ini")
	}
}

// Actor mengembalikan user yang sedang login dari locals JWT.
func Actor(c *fiber.Ctx) (uint, models.UserRole, error) {
	userID, ok := c.Locals(CtxUserIDKey).(uint)
	if !ok || userID == 0 {
		return 0, "", fiber.NewError(fiber.StatusUnauthorized, "User tidak dikenali")
	}
	role, _ := c.Locals(CtxUserRoleKey).(models.UserRole)
	return userID, role, nil
}
