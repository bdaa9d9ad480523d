package payment

import (
	"math"

	"peternakan-backend/internal/auth"
	"peternakan-backend/internal/database"
	"peternakan-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type DecisionRequest struct {
	Notes string `json:"notes"`
}

type PaymentResponse struct {
	models.Payment
	Sale *models.Sale `json:"penjualan,omitempty"`
}

// GET /api/payments?status=pending&page=1&limit=10 (admin). Tanpa status
// yang ditampilkan hanya pending, status=all untuk semua.
func ListPaymentsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Payment{})
		if st := c.Query("status", string(models.PaymentPending)); st != "all" {
			dbq = dbq.Where("status = ?", st)
		}

		var total int64
		if err := dbq.Count(&total).Error; err != nil {
			return err
		}

		page := c.QueryInt("page", 1)
		limit := c.QueryInt("limit", 10)
		if page < 1 {
			page = 1
		}
		if limit < 1 || limit > 100 {
			limit = 10
		}

		var payments []models.Payment
		if err := dbq.Preload("PaymentMethod").Preload("ConfirmedByUser").
			Order("created_at DESC, id DESC").
			Offset((page - 1) * limit).Limit(limit).
			Find(&payments).Error; err != nil {
			return err
		}

		saleIDs := make([]uint, 0, len(payments))
		for _, p := range payments {
			saleIDs = append(saleIDs, p.SaleID)
		}
		var sales []models.Sale
		if len(saleIDs) > 0 {
			if err := database.DB.Preload("Items.Goat").Preload("User").
				Where("id IN ?", saleIDs).Find(&sales).Error; err != nil {
				return err
			}
		}
		byID := make(map[uint]*models.Sale, len(sales))
		for i := range sales {
			byID[sales[i].ID] = &sales[i]
		}

		resp := make([]PaymentResponse, 0, len(payments))
		for _, p := range payments {
			resp = append(resp, PaymentResponse{Payment: p, Sale: byID[p.SaleID]})
		}
		return c.JSON(fiber.Map{
			"data": resp,
			"pagination": fiber.Map{
				"page":        page,
				"limit":       limit,
				"total":       total,
				"total_pages": int(math.Ceil(float64(total) / float64(limit))),
			},
		})
	}
}

// PUT /api/payments/:id/approve
func ApprovePaymentHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		adminID, _, err := auth.Actor(c)
		if err != nil {
			return err
		}
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "ID pembayaran tidak valid")
		}
		var body DecisionRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&body); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Data tidak valid")
			}
		}

		p, err := svc.Approve(c.UserContext(), uint(id), adminID, body.Notes)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"success": true,
			"message": "Pembayaran berhasil dikonfirmasi",
			"data":    p,
		})
	}
}

// PUT /api/payments/:id/reject
func RejectPaymentHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		adminID, _, err := auth.Actor(c)
		if err != nil {
			return err
		}
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "ID pembayaran tidak valid")
		}
		var body DecisionRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Data tidak valid")
		}

		p, err := svc.Reject(c.UserContext(), uint(id), adminID, body.Notes)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"success": true,
			"message": "Pembayaran ditolak",
			"data":    p,
		})
	}
}
