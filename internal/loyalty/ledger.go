// Package loyalty mengelola akun member dan poin. Saldo hanya berubah lewat
// Deduct, Accrue dan Restore, semuanya berupa UPDATE atomik di database.
package loyalty

import (
	"errors"
	"strings"
	"unicode"

	"peternakan-backend/internal/apperror"
	"peternakan-backend/internal/config"
	"peternakan-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Rules struct {
	PointValue        int64 // rupiah per poin saat ditukar
	SpendPerPoint     int64 // belanja per 1 poin
	RestoreOnReversal bool
}

func DefaultRules() Rules {
	return Rules{PointValue: 1000, SpendPerPoint: 100000}
}

func RulesFrom(s *config.Settings) Rules {
	return Rules{
		PointValue:        s.Loyalty.PointValue,
		SpendPerPoint:     s.Loyalty.SpendPerPoint,
		RestoreOnReversal: s.Loyalty.RestorePointsOnReversal,
	}
}

// PointsFor: floor(amount / SpendPerPoint).
func (r Rules) PointsFor(amount int64) int {
	if amount <= 0 {
		return 0
	}
	return int(amount / r.SpendPerPoint)
}

type Redemption struct {
	Points   int   // poin yang benar-benar dipotong
	Discount int64 // potongan rupiah, tidak pernah melebihi subtotal
}

// Quote menghitung penukaran poin. Bila nilai poin yang diminta melebihi
// subtotal, potongan dibatasi subtotal dan poin yang dipotong dibulatkan ke
// atas dari subtotal / PointValue.
func (r Rules) Quote(balance, requested int, subtotal int64) (Redemption, error) {
	if requested < 0 {
		return Redemption{}, apperror.Validation("points_redeemed", "poin tidak boleh negatif")
	}
	if requested == 0 || subtotal <= 0 {
		return Redemption{}, nil
	}
	if requested > balance {
		return Redemption{}, &apperror.InsufficientPointsError{Available: balance, Requested: requested}
	}

	discount := int64(requested) * r.PointValue
	if discount <= subtotal {
		return Redemption{Points: requested, Discount: discount}, nil
	}
	points := int((subtotal + r.PointValue - 1) / r.PointValue)
	return Redemption{Points: points, Discount: subtotal}, nil
}

// NormalizeContact membuang semua karakter selain digit.
func NormalizeContact(contact string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, contact)
}

func FindByContact(tx *gorm.DB, contact string) (*models.Customer, error) {
	key := NormalizeContact(contact)
	if key == "" {
		return nil, apperror.NotFound("member", contact)
	}
	var c models.Customer
	if err := tx.Where("contact = ?", key).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("member", key)
		}
		return nil, err
	}
	return &c, nil
}

// Upsert mencari member berdasarkan kontak; bila ada, nama (dan alamat bila
// diisi) diperbarui, bila tidak ada dibuat baru dengan saldo nol.
func Upsert(tx *gorm.DB, contact, name, address string) (*models.Customer, error) {
	key := NormalizeContact(contact)
	if key == "" {
		return nil, apperror.Validation("nomor_contact", "nomor kontak wajib berisi angka")
	}

	fresh := models.Customer{Name: name, Contact: key, Address: address}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&fresh).Error; err != nil {
		return nil, err
	}
	var c models.Customer
	if err := tx.Where("contact = ?", key).First(&c).Error; err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if name != "" && c.Name != name {
		updates["name"] = name
	}
	if address != "" && c.Address != address {
		updates["address"] = address
	}
	if len(updates) > 0 {
		if err := tx.Model(&c).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return &c, nil
}

// Deduct memotong saldo bila mencukupi, dalam satu UPDATE bersyarat.
func Deduct(tx *gorm.DB, customerID uint, points int) error {
	if points <= 0 {
		return nil
	}
	res := tx.Model(&models.Customer{}).
		Where("id = ? AND total_points >= ?", customerID, points).
		Update("total_points", gorm.Expr("total_points - ?", points))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var c models.Customer
		if err := tx.Select("id", "total_points").First(&c, customerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("member", customerID)
			}
			return err
		}
		return &apperror.InsufficientPointsError{Available: c.TotalPoints, Requested: points}
	}
	return nil
}

// Accrue mencatat satu transaksi lunas: total_spent, transaction_count dan
// poin floor(amount / SpendPerPoint).
func Accrue(tx *gorm.DB, customerID uint, amount int64, r Rules) (int, error) {
	earned := r.PointsFor(amount)
	res := tx.Model(&models.Customer{}).
		Where("id = ?", customerID).
		Updates(map[string]any{
			"total_points":      gorm.Expr("total_points + ?", earned),
			"total_spent":       gorm.Expr("total_spent + ?", amount),
			"transaction_count": gorm.Expr("transaction_count + ?", 1),
		})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, apperror.NotFound("member", customerID)
	}
	return earned, nil
}

// Restore mengembalikan poin yang pernah ditukar.
func Restore(tx *gorm.DB, customerID uint, points int) error {
	if points <= 0 {
		return nil
	}
	return tx.Model(&models.Customer{}).
		Where("id = ?", customerID).
		Update("total_points", gorm.Expr("total_points + ?", points)).Error
}
