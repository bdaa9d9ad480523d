package sales

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"peternakan-backend/internal/auth"
	"peternakan-backend/internal/database"
	"peternakan-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// CreateSaleRequest adalah bentuk JSON dari form penjualan. Versi
// multipart mengirim field yang sama, dengan items sebagai string JSON.
type CreateSaleRequest struct {
	BuyerName       string            `json:"nama_pembeli"`
	BuyerContact    string            `json:"nomor_contact"`
	BuyerAddress    string            `json:"alamat_pembeli"`
	Items           []LineItem        `json:"items"`
	Method          models.SaleMethod `json:"metode_pembayaran"`
	PaymentMethodID *uint             `json:"payment_method_id"`
	PointsRedeemed  int               `json:"points_redeemed"`
}

func parseCreateRequest(c *fiber.Ctx) (CreateInput, error) {
	var in CreateInput

	if c.Is("json") {
		var body CreateSaleRequest
		if err := c.BodyParser(&body); err != nil {
			return in, fiber.NewError(fiber.StatusBadRequest, "Data tidak valid")
		}
		return CreateInput{
			BuyerName:       body.BuyerName,
			BuyerContact:    body.BuyerContact,
			BuyerAddress:    body.BuyerAddress,
			Items:           body.Items,
			Method:          body.Method,
			PaymentMethodID: body.PaymentMethodID,
			PointsToRedeem:  body.PointsRedeemed,
		}, nil
	}

	in.BuyerName = c.FormValue("nama_pembeli")
	in.BuyerContact = c.FormValue("nomor_contact")
	in.BuyerAddress = c.FormValue("alamat_pembeli")
	in.Method = models.SaleMethod(c.FormValue("metode_pembayaran"))

	if raw := c.FormValue("items"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &in.Items); err != nil {
			return in, fiber.NewError(fiber.StatusBadRequest, "Format items tidak valid")
		}
	}
	if v := strings.TrimSpace(c.FormValue("payment_method_id")); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return in, fiber.NewError(fiber.StatusBadRequest, "payment_method_id tidak valid")
		}
		pm := uint(id)
		in.PaymentMethodID = &pm
	}
	if v := strings.TrimSpace(c.FormValue("points_redeemed")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return in, fiber.NewError(fiber.StatusBadRequest, "points_redeemed tidak valid")
		}
		in.PointsToRedeem = n
	}
	if fh, err := c.FormFile("bukti_transfer"); err == nil {
		in.Proof = fh
	}
	return in, nil
}

// POST /api/penjualan (JSON atau multipart dengan file bukti_transfer)
func CreateSaleHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, _, err := auth.Actor(c)
		if err != nil {
			return err
		}

		in, err := parseCreateRequest(c)
		if err != nil {
			return err
		}
		in.CashierID = userID

		res, err := svc.Create(c.UserContext(), in)
		if err != nil {
			return err
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"success": true,
			"message": res.Message,
			"data":    res.Sale,
		})
	}
}

// GET /api/penjualan?status=pending&metode=transfer&start_date=2025-01-01&end_date=2025-01-31&search=PJL&page=1&limit=10
func ListSalesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, role, err := auth.Actor(c)
		if err != nil {
			return err
		}

		dbq := database.DB.Model(&models.Sale{})
		if role == models.RoleCashier {
			dbq = dbq.Where("user_id = ?", userID)
		}
		if st := c.Query("status"); st != "" {
			dbq = dbq.Where("payment_status = ?", st)
		}
		if m := c.Query("metode"); m != "" {
			dbq = dbq.Where("method = ?", m)
		}
		if v := c.Query("start_date"); v != "" {
			d, err := time.ParseInLocation("2006-01-02", v, time.Local)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Format start_date harus YYYY-MM-DD")
			}
			dbq = dbq.Where("sale_date >= ?", d)
		}
		if v := c.Query("end_date"); v != "" {
			d, err := time.ParseInLocation("2006-01-02", v, time.Local)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Format end_date harus YYYY-MM-DD")
			}
			dbq = dbq.Where("sale_date < ?", d.AddDate(0, 0, 1))
		}
		if q := strings.TrimSpace(c.Query("search")); q != "" {
			like := "%" + q + "%"
			dbq = dbq.Where("number LIKE ? OR buyer_name LIKE ?", like, like)
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

		var rows []models.Sale
		if err := dbq.Preload("Items.Goat").Preload("Payment").Preload("User").
			Order("sale_date DESC, id DESC").
			Offset((page - 1) * limit).Limit(limit).
			Find(&rows).Error; err != nil {
			return err
		}

		return c.JSON(fiber.Map{
			"data": rows,
			"pagination": fiber.Map{
				"page":        page,
				"limit":       limit,
				"total":       total,
				"total_pages": int(math.Ceil(float64(total) / float64(limit))),
			},
		})
	}
}

// GET /api/penjualan/:id
func GetSaleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, role, err := auth.Actor(c)
		if err != nil {
			return err
		}
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "ID penjualan tidak valid")
		}

		sale, err := Load(database.DB, uint(id))
		if err != nil {
			return err
		}
		if role == models.RoleCashier && sale.UserID != userID {
			return fiber.NewError(fiber.StatusForbidden, "Anda hanya bisa melihat transaksi sendiri")
		}
		return c.JSON(fiber.Map{"data": sale})
	}
}

// DELETE /api/penjualan/:id (admin)
func DeleteSaleHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, _, err := auth.Actor(c)
		if err != nil {
			return err
		}
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "ID penjualan tidak valid")
		}

		if err := svc.Delete(c.UserContext(), uint(id), userID); err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"success": true,
			"message": "Transaksi berhasil dihapus",
		})
	}
}
