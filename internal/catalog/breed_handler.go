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

type CreateBreedRequest struct {
	Name        string `json:"nama_ras"`
	Description string `json:"keterangan"`
}

type UpdateBreedRequest struct {
	Name        *string `json:"nama_ras"`
	Description *string `json:"keterangan"`
}

// GET /api/ras?search=etawa
func ListBreedsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Breed{})
		if q := strings.TrimSpace(c.Query("search")); q != "" {
			like := "%" + q + "%"
			dbq = dbq.Where("code LIKE ? OR name LIKE ?", like, like)
		}

		var breeds []models.Breed
		if err := dbq.Order("name ASC").Find(&breeds).Error; err != nil {
			return err
		}
		return c.JSON(breeds)
	}
}

func GetBreedHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "ID ras tidak valid")
		}
		var b models.Breed
		if err := database.DB.First(&b, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("ras", id)
			}
			return err
		}
		return c.JSON(b)
	}
}

// CreateBreed menyimpan ras baru dengan kode RAS berikutnya.
func CreateBreed(db *gorm.DB, actorID uint, body CreateBreedRequest) (*models.Breed, error) {
	name := strings.TrimSpace(body.Name)
	if name == "" {
		return nil, apperror.Validation("nama_ras", "nama ras wajib diisi")
	}

	var b models.Breed
	err := db.Transaction(func(tx *gorm.DB) error {
		var dup int64
		if err := tx.Model(&models.Breed{}).Where("LOWER(name) = LOWER(?)", name).Count(&dup).Error; err != nil {
			return err
		}
		if dup > 0 {
			return apperror.Conflict("ras %s sudah ada", name)
		}

		code, err := sequence.Next(tx, sequence.PrefixBreed)
		if err != nil {
			return err
		}
		b = models.Breed{Code: code, Name: name, Description: strings.TrimSpace(body.Description)}
		if err := tx.Create(&b).Error; err != nil {
			return err
		}
		return audit.WriteLog(tx, audit.LogOptions{
			UserID:      actorID,
			EntityType:  audit.EntityBreed,
			EntityID:    b.ID,
			Action:      models.AuditActionCreate,
			Description: "Tambah ras " + b.Code,
			After:       b,
		})
	})
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// POST /api/ras
func CreateBreedHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actorID, _, err := auth.Actor(c)
		if err != nil {
			return err
		}
		var body CreateBreedRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Data tidak valid")
		}
		b, err := CreateBreed(database.DB, actorID, body)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(b)
	}
}

// PUT /api/ras/:id
func UpdateBreedHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actorID, _, err := auth.Actor(c)
		if err != nil {
			return err
		}
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "ID ras tidak valid")
		}
		var body UpdateBreedRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Data tidak valid")
		}

		var b models.Breed
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.First(&b, id).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperror.NotFound("ras", id)
				}
				return err
			}
			before := b
			if body.Name != nil {
				name := strings.TrimSpace(*body.Name)
				if name == "" {
					return apperror.Validation("nama_ras", "nama ras tidak boleh kosong")
				}
				b.Name = name
			}
			if body.Description != nil {
				b.Description = strings.TrimSpace(*body.Description)
			}
			if err := tx.Save(&b).Error; err != nil {
				return err
			}
			return audit.WriteLog(tx, audit.LogOptions{
				UserID:      actorID,
				EntityType:  audit.EntityBreed,
				EntityID:    b.ID,
				Action:      models.AuditActionUpdate,
				Description: "Ubah ras " + b.Code,
				Before:      before,
				After:       b,
			})
		})
		if err != nil {
			return err
		}
		return c.JSON(b)
	}
}

// DeleteBreed menolak hapus ras yang masih dipakai kambing.
func DeleteBreed(db *gorm.DB, actorID, id uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var b models.Breed
		if err := tx.First(&b, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("ras", id)
			}
			return err
		}
		var used int64
		if err := tx.Model(&models.Goat{}).Where("breed_id = ?", b.ID).Count(&used).Error; err != nil {
			return err
		}
		if used > 0 {
			return apperror.Validation("id", fmt.Sprintf("Tidak dapat menghapus ras yang masih digunakan oleh %d kambing", used))
		}
		if err := tx.Delete(&b).Error; err != nil {
			return err
		}
		return audit.WriteLog(tx, audit.LogOptions{
			UserID:      actorID,
			EntityType:  audit.EntityBreed,
			EntityID:    b.ID,
			Action:      models.AuditActionDelete,
			Description: "Hapus ras " + b.Code,
			Before:      b,
		})
	})
}

// DELETE /api/ras/:id
func DeleteBreedHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actorID, _, err := auth.Actor(c)
		if err != nil {
			return err
		}
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "ID ras tidak valid")
		}
		if err := DeleteBreed(database.DB, actorID, uint(id)); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
