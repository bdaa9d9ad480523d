package loyalty

import (
	"errors"

	"peternakan-backend/internal/apperror"
	"peternakan-backend/internal/database"
	"peternakan-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type Balance struct {
	Exists bool   `json:"exists"`
	Name   string `json:"name,omitempty"`
	Points int    `json:"points"`
	Value  int64  `json:"value"`
}

// Lookup dipakai kasir sebelum transaksi untuk melihat saldo poin member.
func Lookup(db *gorm.DB, contact string, r Rules) (Balance, error) {
	c, err := FindByContact(db, contact)
	if errors.Is(err, apperror.ErrNotFound) {
		return Balance{}, nil
	}
	if err != nil {
		return Balance{}, err
	}
	return Balance{
		Exists: true,
		Name:   c.Name,
		Points: c.TotalPoints,
		Value:  int64(c.TotalPoints) * r.PointValue,
	}, nil
}

// GET /api/penjualan/check-points?contact=0812...
func CheckPointsHandler(r Rules) fiber.Handler {
	return func(c *fiber.Ctx) error {
		contact := c.Query("contact")
		if contact == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Nomor kontak wajib diisi")
		}
		bal, err := Lookup(database.DB, contact, r)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": bal})
	}
}

// GET /api/dashboard/loyalty - 10 member dengan poin terbanyak
func LeaderboardHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var top []models.Customer
		if err := database.DB.Where("total_points > 0").
			Order("total_points DESC, id ASC").
			Limit(10).
			Find(&top).Error; err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": top})
	}
}
