package payment

import (
	"errors"
	"strings"

	"peternakan-backend/internal/apperror"
	"peternakan-backend/internal/audit"
	"peternakan-backend/internal/auth"
	"peternakan-backend/internal/database"
	"peternakan-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CreatePaymentMethodRequest struct {
	Name          string `json:"nama"`
	BankName      string `json:"bank"`
	AccountNumber string `json:"nomor_rekening"`
	AccountHolder string `json:"atas_nama"`
	IsActive      *bool  `json:"is_active"`
}

type UpdatePaymentMethodRequest struct {
	Name          *string `json:"nama"`
	BankName      *string `json:"bank"`
	AccountNumber *string `json:"nomor_rekening"`
	AccountHolder *string `json:"atas_nama"`
	IsActive      *bool   `json:"is_active"`
}

// GET /api/payment-methods - kasir hanya melihat yang aktif
func ListPaymentMethodsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		_, role, err := auth.Actor(c)
		if err != nil {
			return err
		}

		dbq := database.DB.Model(&models.PaymentMethod{})
		if role != models.RoleAdmin || c.Query("active") == "true" {
			dbq = dbq.Where("is_active = ?", true)
		}

		var methods []models.PaymentMethod
		if err := dbq.Order("name ASC").Find(&methods).Error; err != nil {
			return err
		}
		return c.JSON(methods)
	}
}

// GET /api/payment-methods/:id (admin)
func GetPaymentMethodHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "ID metode pembayaran tidak valid")
		}
		var pm models.PaymentMethod
		if err := database.DB.First(&pm, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("metode pembayaran", id)
			}
			return err
		}
		return c.JSON(pm)
	}
}

// POST /api/payment-methods
func CreatePaymentMethodHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, _, err := auth.Actor(c)
		if err != nil {
			return err
		}
		var body CreatePaymentMethodRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Data tidak valid")
		}

		pm := models.PaymentMethod{
			Name:          strings.TrimSpace(body.Name),
			BankName:      strings.TrimSpace(body.BankName),
			AccountNumber: strings.TrimSpace(body.AccountNumber),
			AccountHolder: strings.TrimSpace(body.AccountHolder),
			IsActive:      body.IsActive == nil || *body.IsActive,
		}
		if pm.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Nama metode pembayaran wajib diisi")
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&pm).Error; err != nil {
				return err
			}
			return audit.WriteLog(tx, audit.LogOptions{
				UserID:      userID,
				EntityType:  audit.EntityPaymentMethod,
				EntityID:    pm.ID,
				Action:      models.AuditActionCreate,
				Description: "Tambah metode pembayaran " + pm.Name,
				After:       pm,
			})
		})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(pm)
	}
}

// PUT /api/payment-methods/:id
func UpdatePaymentMethodHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, _, err := auth.Actor(c)
		if err != nil {
			return err
		}
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "ID tidak valid")
		}
		var body UpdatePaymentMethodRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Data tidak valid")
		}

		var pm models.PaymentMethod
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.First(&pm, id).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperror.NotFound("metode pembayaran", id)
				}
				return err
			}
			before := pm

			if body.Name != nil {
				name := strings.TrimSpace(*body.Name)
				if name == "" {
					return apperror.Validation("nama", "nama tidak boleh kosong")
				}
				pm.Name = name
			}
			if body.BankName != nil {
				pm.BankName = strings.TrimSpace(*body.BankName)
			}
			if body.AccountNumber != nil {
				pm.AccountNumber = strings.TrimSpace(*body.AccountNumber)
			}
			if body.AccountHolder != nil {
				pm.AccountHolder = strings.TrimSpace(*body.AccountHolder)
			}
			if body.IsActive != nil {
				pm.IsActive = *body.IsActive
			}

			if err := tx.Save(&pm).Error; err != nil {
				return err
			}
			return audit.WriteLog(tx, audit.LogOptions{
				UserID:      userID,
				EntityType:  audit.EntityPaymentMethod,
				EntityID:    pm.ID,
				Action:      models.AuditActionUpdate,
				Description: "Ubah metode pembayaran " + pm.Name,
				Before:      before,
				After:       pm,
			})
		})
		if err != nil {
			return err
		}
		return c.JSON(pm)
	}
}

// DELETE /api/payment-methods/:id - yang sudah dipakai transaksi cukup dinonaktifkan
func DeletePaymentMethodHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, _, err := auth.Actor(c)
		if err != nil {
			return err
		}
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "ID tidak valid")
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			var pm models.PaymentMethod
			if err := tx.First(&pm, id).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperror.NotFound("metode pembayaran", id)
				}
				return err
			}

			var used int64
			if err := tx.Model(&models.Payment{}).Where("payment_method_id = ?", pm.ID).Count(&used).Error; err != nil {
				return err
			}
			if used > 0 {
				return apperror.Conflict("metode pembayaran %s sudah dipakai %d transaksi, nonaktifkan saja", pm.Name, used)
			}

			if err := tx.Delete(&pm).Error; err != nil {
				return err
			}
			return audit.WriteLog(tx, audit.LogOptions{
				UserID:      userID,
				EntityType:  audit.EntityPaymentMethod,
				EntityID:    pm.ID,
				Action:      models.AuditActionDelete,
				Description: "Hapus metode pembayaran " + pm.Name,
				Before:      pm,
			})
		})
		if err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
