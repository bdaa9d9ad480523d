package catalog

import (
	"errors"
	"fmt"
	"strings"

	"peternakan-backend/internal/apperror"
	"peternakan-backend/internal/audit"
	"peternakan-backend/internal/auth"
	"peternakan-backend/internal/database"
	"peternakan-backend/internal/models"
	"peternakan-backend/internal/sequence"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CreateEstimateRequest struct {
	WeightRange    string `json:"range_berat"`
	EstimatedPrice int64  `json:"estimasi_harga"`
	Description    string `json:"keterangan"`
}

type UpdateEstimateRequest struct {
	WeightRange    *string `json:"range_berat"`
	EstimatedPrice *int64  `json:"estimasi_harga"`
	Description    *string `json:"keterangan"`
}

// GET /api/estimasi
func ListEstimatesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var list []models.PriceEstimate
		if err := database.DB.Order("estimated_price ASC").Find(&list).Error; err != nil {
			return err
		}
		return c.JSON(list)
	}
}

func GetEstimateHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "ID estimasi tidak valid")
		}
		var e models.PriceEstimate
		if err := database.DB.First(&e, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("estimasi", id)
			}
			return err
		}
		return c.JSON(e)
	}
}

func CreateEstimate(db *gorm.DB, actorID uint, body CreateEstimateRequest) (*models.PriceEstimate, error) {
	wr := strings.TrimSpace(body.WeightRange)
	if wr == "" || body.EstimatedPrice <= 0 {
		return nil, apperror.Validation("estimasi_harga", "Range berat dan estimasi harga wajib diisi")
	}

	var e models.PriceEstimate
	err := db.Transaction(func(tx *gorm.DB) error {
		code, err := sequence.Next(tx, sequence.PrefixEstimate)
		if err != nil {
			return err
		}
		e = models.PriceEstimate{
			Code:           code,
			WeightRange:    wr,
			EstimatedPrice: body.EstimatedPrice,
			Description:    strings.TrimSpace(body.Description),
		}
		if err := tx.Create(&e).Error; err != nil {
			return err
		}
		return audit.WriteLog(tx, audit.LogOptions{
			UserID:      actorID,
			EntityType:  audit.EntityEstimate,
			EntityID:    e.ID,
			Action:      models.AuditActionCreate,
			Description: "Tambah estimasi " + e.Code,
			After:       e,
		})
	})
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// POST /api/estimasi
func CreateEstimateHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actorID, _, err := auth.Actor(c)
		if err != nil {
			return err
		}
		var body CreateEstimateRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Data tidak valid")
		}
		e, err := CreateEstimate(database.DB, actorID, body)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(e)
	}
}

// PUT /api/estimasi/:id - perubahan tidak menyentuh snapshot di detail penjualan
func UpdateEstimateHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actorID, _, err := auth.Actor(c)
		if err != nil {
			return err
		}
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "ID estimasi tidak valid")
		}
		var body UpdateEstimateRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Data tidak valid")
		}

		var e models.PriceEstimate
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.First(&e, id).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperror.NotFound("estimasi", id)
				}
				return err
			}
			before := e
			if body.WeightRange != nil {
				wr := strings.TrimSpace(*body.WeightRange)
				if wr == "" {
					return apperror.Validation("range_berat", "range berat tidak boleh kosong")
				}
				e.WeightRange = wr
			}
			if body.EstimatedPrice != nil {
				if *body.EstimatedPrice <= 0 {
					return apperror.Validation("estimasi_harga", "estimasi harga harus lebih dari 0")
				}
				e.EstimatedPrice = *body.EstimatedPrice
			}
			if body.Description != nil {
				e.Description = strings.TrimSpace(*body.Description)
			}
			if err := tx.Save(&e).Error; err != nil {
				return err
			}
			return audit.WriteLog(tx, audit.LogOptions{
				UserID:      actorID,
				EntityType:  audit.EntityEstimate,
				EntityID:    e.ID,
				Action:      models.AuditActionUpdate,
				Description: "Ubah estimasi " + e.Code,
				Before:      before,
				After:       e,
			})
		})
		if err != nil {
			return err
		}
		return c.JSON(e)
	}
}

func DeleteEstimate(db *gorm.DB, actorID, id uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var e models.PriceEstimate
		if err := tx.First(&e, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("estimasi", id)
			}
			return err
		}
		var used int64
		if err := tx.Model(&models.Goat{}).Where("price_estimate_id = ?", e.ID).Count(&used).Error; err != nil {
			return err
		}
		if used > 0 {
			return apperror.Validation("id", fmt.Sprintf("Tidak dapat menghapus estimasi yang masih digunakan oleh %d kambing", used))
		}
		if err := tx.Delete(&e).Error; err != nil {
			return err
		}
		return audit.WriteLog(tx, audit.LogOptions{
			UserID:      actorID,
			EntityType:  audit.EntityEstimate,
			EntityID:    e.ID,
			Action:      models.AuditActionDelete,
			Description: "Hapus estimasi " + e.Code,
			Before:      e,
		})
	})
}

// DELETE /api/estimasi/:id
func DeleteEstimateHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actorID, _, err := auth.Actor(c)
		if err != nil {
			return err
		}
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "ID estimasi tidak valid")
		}
		if err := DeleteEstimate(database.DB, actorID, uint(id)); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
