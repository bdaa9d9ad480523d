// Package server merakit aplikasi fiber: middleware, service dan seluruh route /api.
package server

import (
	"strings"

	"peternakan-backend/internal/admin"
	"peternakan-backend/internal/apperror"
	"peternakan-backend/internal/audit"
	"peternakan-backend/internal/auth"
	"peternakan-backend/internal/catalog"
	"peternakan-backend/internal/config"
	"peternakan-backend/internal/dashboard"
	"peternakan-backend/internal/database"
	"peternakan-backend/internal/inventory"
	"peternakan-backend/internal/loyalty"
	"peternakan-backend/internal/models"
	"peternakan-backend/internal/payment"
	"peternakan-backend/internal/sales"
	"peternakan-backend/internal/upload"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// body multipart: bukti transfer / file xlsx plus field form
const bodyLimit = 10 * 1024 * 1024

// New membutuhkan database.DB yang sudah diinisialisasi.
func New(cfg *config.Config, settings *config.Settings) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: apperror.ErrorHandler,
		BodyLimit:    bodyLimit,
	})

	origins := strings.Split(cfg.CORSOrigins, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(origins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	// bukti transfer bisa dibuka dari detail penjualan
	app.Static("/uploads", cfg.UploadPath)

	rules := loyalty.RulesFrom(settings)
	proofs := upload.NewStore(cfg.UploadPath, cfg.MaxFileSize)
	salesSvc := sales.NewService(database.DB, rules, proofs)
	paymentSvc := payment.NewService(database.DB, rules)

	api := app.Group("/api")
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Public auth
	api.Post("/auth/register-admin", auth.RegisterAdminHandler())
	api.Post("/auth/login", auth.LoginHandler(cfg))

	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))
	adminOnly := auth.RequireRole(models.RoleAdmin)

	protected.Post("/auth/logout", auth.LogoutHandler())
	protected.Get("/auth/me", auth.MeHandler())
	protected.Put("/auth/profile", auth.UpdateProfileHandler())
	protected.Put("/auth/password", auth.ChangePasswordHandler())

	// Ras
	protected.Get("/ras", catalog.ListBreedsHandler())
	protected.Get("/ras/:id", catalog.GetBreedHandler())
	protected.Post("/ras", adminOnly, catalog.CreateBreedHandler())
	protected.Put("/ras/:id", adminOnly, catalog.UpdateBreedHandler())
	protected.Delete("/ras/:id", adminOnly, catalog.DeleteBreedHandler())

	// Estimasi harga
	protected.Get("/estimasi", catalog.ListEstimatesHandler())
	protected.Get("/estimasi/:id", catalog.GetEstimateHandler())
	protected.Post("/estimasi", adminOnly, catalog.CreateEstimateHandler())
	protected.Put("/estimasi/:id", adminOnly, catalog.UpdateEstimateHandler())
	protected.Delete("/estimasi/:id", adminOnly, catalog.DeleteEstimateHandler())

	// Kambing (/tersedia dan /import harus sebelum /:id)
	protected.Get("/kambing", inventory.ListGoatsHandler())
	protected.Get("/kambing/tersedia", inventory.ListAvailableGoatsHandler())
	protected.Post("/kambing/import", adminOnly, inventory.ImportGoatsHandler())
	protected.Get("/kambing/:id", inventory.GetGoatHandler())
	protected.Post("/kambing", adminOnly, inventory.CreateGoatHandler())
	protected.Put("/kambing/:id", adminOnly, inventory.UpdateGoatHandler())
	protected.Delete("/kambing/:id", adminOnly, inventory.DeleteGoatHandler())

	// Penjualan
	protected.Get("/penjualan", sales.ListSalesHandler())
	protected.Get("/penjualan/check-points", loyalty.CheckPointsHandler(rules))
	protected.Get("/penjualan/:id", sales.GetSaleHandler())
	protected.Post("/penjualan", sales.CreateSaleHandler(salesSvc))
	protected.Delete("/penjualan/:id", adminOnly, sales.DeleteSaleHandler(salesSvc))

	// Pembayaran
	protected.Get("/payments", adminOnly, payment.ListPaymentsHandler())
	protected.Get("/payments/methods", payment.ListPaymentMethodsHandler())
	protected.Put("/payments/:id/approve", adminOnly, payment.ApprovePaymentHandler(paymentSvc))
	protected.Put("/payments/:id/reject", adminOnly, payment.RejectPaymentHandler(paymentSvc))

	protected.Get("/payment-methods", payment.ListPaymentMethodsHandler())
	protected.Get("/payment-methods/:id", adminOnly, payment.GetPaymentMethodHandler())
	protected.Post("/payment-methods", adminOnly, payment.CreatePaymentMethodHandler())
	protected.Put("/payment-methods/:id", adminOnly, payment.UpdatePaymentMethodHandler())
	protected.Delete("/payment-methods/:id", adminOnly, payment.DeletePaymentMethodHandler())

	// Dashboard & laporan
	protected.Get("/dashboard/stats", dashboard.StatsHandler())
	protected.Get("/dashboard/chart/sales", dashboard.SalesChartHandler())
	protected.Get("/dashboard/chart/stock", dashboard.StockChartHandler())
	protected.Get("/dashboard/recent-sales", dashboard.RecentSalesHandler())
	protected.Get("/dashboard/loyalty", loyalty.LeaderboardHandler())
	protected.Get("/laporan", dashboard.ReportHandler())
	protected.Get("/dashboard/laporan", dashboard.ReportHandler())

	// Admin
	protected.Get("/settings", adminOnly, dashboard.SettingsHandler(settings))
	protected.Get("/audit-logs", adminOnly, audit.ListAuditLogsHandler())

	protected.Get("/users", adminOnly, admin.ListUsersHandler())
	protected.Get("/users/:id", adminOnly, admin.GetUserHandler())
	protected.Post("/users", adminOnly, admin.CreateUserHandler())
	protected.Put("/users/:id", adminOnly, admin.UpdateUserHandler())
	protected.Delete("/users/:id", adminOnly, admin.DeleteUserHandler())

	return app
}
