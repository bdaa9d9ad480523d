package inventory

import (
	"errors"
	"math"
	"strings"

	"peternakan-backend/internal/apperror"
	"peternakan-backend/internal/audit"
	"peternakan-backend/internal/auth"
	"peternakan-backend/internal/database"
	"peternakan-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type UpdateGoatRequest struct {
	BreedID         *uint              `json:"ras_id"`
	IntakeDate      *string            `json:"tanggal_masuk"`
	WeightRange     *string            `json:"range_berat"`
	PurchasePrice   *int64             `json:"harga_beli"`
	Sex             *string            `json:"jenis_kelamin"`
	Status          *models.GoatStatus `json:"status"`
	PriceEstimateID *uint              `json:"estimasi_harga_id"`
	Notes           *string            `json:"keterangan"`
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

func paginate(c *fiber.Ctx) (page, limit int) {
	page = c.QueryInt("page", 1)
	limit = c.QueryInt("limit", 10)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	return page, limit
}

// GET /api/kambing?status=Tersedia&ras_id=1&jenis_kelamin=Jantan&search=KMB0&page=1&limit=10
func ListGoatsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Goat{})

		if s := c.Query("status"); s != "" {
			dbq = dbq.Where("status = ?", s)
		}
		if rid := c.QueryInt("ras_id"); rid > 0 {
			dbq = dbq.Where("breed_id = ?", rid)
		}
		if sex := c.Query("jenis_kelamin"); sex != "" {
			dbq = dbq.Where("sex = ?", sex)
		}
		if q := strings.TrimSpace(c.Query("search")); q != "" {
			dbq = dbq.Where("code LIKE ?", "%"+q+"%")
		}

		var total int64
		if err := dbq.Count(&total).Error; err != nil {
			return err
		}

		page, limit := paginate(c)
		var goats []models.Goat
		if err := dbq.Preload("Breed").Preload("PriceEstimate").
			Order("id DESC").
			Offset((page - 1) * limit).Limit(limit).
			Find(&goats).Error; err != nil {
			return err
		}

		return c.JSON(fiber.Map{
			"data": goats,
			"pagination": Pagination{
				Page:       page,
				Limit:      limit,
				Total:      total,
				TotalPages: int(math.Ceil(float64(total) / float64(limit))),
			},
		})
	}
}

// GET /api/kambing/tersedia - untuk pilihan di form penjualan kasir
func ListAvailableGoatsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var goats []models.Goat
		if err := database.DB.Preload("Breed").Preload("PriceEstimate").
			Where("status = ?", models.GoatAvailable).
			Order("code ASC").
			Find(&goats).Error; err != nil {
			return err
		}
		return c.JSON(goats)
	}
}

func GetGoatHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "ID kambing tidak valid")
		}

		var goat models.Goat
		if err := database.DB.Preload("Breed").Preload("PriceEstimate").First(&goat, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("kambing", id)
			}
			return err
		}
		return c.JSON(goat)
	}
}

// POST /api/kambing
func CreateGoatHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body GoatInput
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Data tidak valid")
		}
		actorID, _, err := auth.Actor(c)
		if err != nil {
			return err
		}

		var goat *models.Goat
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			var err error
			goat, err = CreateGoat(tx, body)
			if err != nil {
				return err
			}
			return audit.WriteLog(tx, audit.LogOptions{
				UserID:      actorID,
				EntityType:  audit.EntityGoat,
				EntityID:    goat.ID,
				Action:      models.AuditActionCreate,
				Description: "Tambah kambing " + goat.Code,
				After:       goat,
			})
		})
		if err != nil {
			return err
		}

		return c.Status(fiber.StatusCreated).JSON(goat)
	}
}

// PUT /api/kambing/:id
func UpdateGoatHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "ID kambing tidak valid")
		}
		var body UpdateGoatRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Data tidak valid")
		}
		actorID, _, err := auth.Actor(c)
		if err != nil {
			return err
		}

		var goat models.Goat
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.First(&goat, id).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperror.NotFound("kambing", id)
				}
				return err
			}
			before := goat

			if err := applyGoatUpdate(tx, &goat, body); err != nil {
				return err
			}
			// status diubah terpisah lewat UPDATE bersyarat
			newStatus := goat.Status
			if body.Status != nil {
				newStatus = *body.Status
			}
			if err := tx.Omit("status").Save(&goat).Error; err != nil {
				return err
			}
			if newStatus != goat.Status {
				if !newStatus.Valid() {
					return apperror.Validation("status", "status tidak dikenal")
				}
				if !goat.Status.CanSetManually(newStatus) {
					return apperror.Conflict("status %s tidak bisa diubah manual ke %s", goat.Status, newStatus)
				}
				if err := Transition(tx, &goat, newStatus); err != nil {
					return err
				}
			}

			return audit.WriteLog(tx, audit.LogOptions{
				UserID:      actorID,
				EntityType:  audit.EntityGoat,
				EntityID:    goat.ID,
				Action:      models.AuditActionUpdate,
				Description: "Ubah kambing " + goat.Code,
				Before:      before,
				After:       goat,
			})
		})
		if err != nil {
			return err
		}

		return c.JSON(goat)
	}
}

func applyGoatUpdate(tx *gorm.DB, goat *models.Goat, body UpdateGoatRequest) error {
	if body.BreedID != nil || body.PriceEstimateID != nil {
		if err := checkRefs(tx, body.BreedID, body.PriceEstimateID); err != nil {
			return err
		}
	}
	if body.BreedID != nil {
		goat.BreedID = body.BreedID
		goat.Breed = nil
	}
	if body.PriceEstimateID != nil {
		goat.PriceEstimateID = body.PriceEstimateID
		goat.PriceEstimate = nil
	}
	if body.IntakeDate != nil {
		d, err := parseDate(*body.IntakeDate)
		if err != nil {
			return err
		}
		goat.IntakeDate = d
	}
	if body.WeightRange != nil {
		goat.WeightRange = strings.TrimSpace(*body.WeightRange)
	}
	if body.PurchasePrice != nil {
		if *body.PurchasePrice < 0 {
			return apperror.Validation("harga_beli", "harga beli tidak boleh negatif")
		}
		goat.PurchasePrice = *body.PurchasePrice
	}
	if body.Sex != nil {
		sex, ok := normalizeSex(*body.Sex)
		if !ok {
			return apperror.Validation("jenis_kelamin", "jenis kelamin harus Jantan atau Betina")
		}
		goat.Sex = sex
	}
	if body.Notes != nil {
		goat.Notes = strings.TrimSpace(*body.Notes)
	}
	return nil
}

// DELETE /api/kambing/:id
func DeleteGoatHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "ID kambing tidak valid")
		}
		actorID, _, err := auth.Actor(c)
		if err != nil {
			return err
		}
		if err := DeleteGoat(database.DB, uint(id), actorID); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
