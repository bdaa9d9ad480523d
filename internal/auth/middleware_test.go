package auth

import (
	"net/http/httptest"
	"strings"
	"testing"

	"peternakan-backend/internal/config"
	"peternakan-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

var testCfg = &config.Config{JWTSecret: strings.Repeat("s", 32)}

func newApp() *fiber.App {
	app := fiber.New()
	app.Use(JWTMiddleware(testCfg))
	app.Get("/admin", RequireRole(models.RoleAdmin), func(c *fiber.Ctx) error {
		id, role, err := Actor(c)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"id": id, "role": role})
	})
	app.Get("/any", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })
	return app
}

func request(t *testing.T, app *fiber.App, path, token string) int {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestJWTMiddleware(t *testing.T) {
	app := newApp()

	admin, err := GenerateToken(testCfg.JWTSecret, &models.User{ID: 1, Email: "a@farm.test", Role: models.RoleAdmin})
	require.NoError(t, err)
	kasir, err := GenerateToken(testCfg.JWTSecret, &models.User{ID: 2, Email: "k@farm.test", Role: models.RoleCashier})
	require.NoError(t, err)
	forged, err := GenerateToken(strings.Repeat("x", 32), &models.User{ID: 1, Role: models.RoleAdmin})
	require.NoError(t, err)

	require.Equal(t, fiber.StatusUnauthorized, request(t, app, "/any", ""))
	require.Equal(t, fiber.StatusUnauthorized, request(t, app, "/any", "   "))
	require.Equal(t, fiber.StatusUnauthorized, request(t, app, "/any", forged))
	require.Equal(t, fiber.StatusNoContent, request(t, app, "/any", kasir))
	require.Equal(t, fiber.StatusForbidden, request(t, app, "/admin", kasir))
	require.Equal(t, fiber.StatusOK, request(t, app, "/admin", admin))
}
