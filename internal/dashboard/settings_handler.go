package dashboard

import (
	"peternakan-backend/internal/config"

	"github.com/gofiber/fiber/v2"
)

// GET /api/settings (admin). Pengaturan hanya dibaca, perubahan lewat file
// konfigurasi lalu restart.
func SettingsHandler(s *config.Settings) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"data": s})
	}
}
