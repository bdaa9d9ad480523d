package inventory

import (
	"errors"
	"strings"
	"time"

	"peternakan-backend/internal/apperror"
	"peternakan-backend/internal/audit"
	"peternakan-backend/internal/models"
	"peternakan-backend/internal/sequence"

	"gorm.io/gorm"
)

// GoatInput dipakai oleh form create dan import Excel.
type GoatInput struct {
	BreedID         *uint             `json:"ras_id"`
	IntakeDate      string            `json:"tanggal_masuk"` // YYYY-MM-DD
	WeightRange     string            `json:"range_berat"`
	PurchasePrice   int64             `json:"harga_beli"`
	Sex             string            `json:"jenis_kelamin"`
	Status          models.GoatStatus `json:"status"`
	PriceEstimateID *uint             `json:"estimasi_harga_id"`
	Notes           string            `json:"keterangan"`
}

const dateLayout = "2006-01-02"

var sexes = map[string]string{
	"jantan": "Jantan",
	"betina": "Betina",
}

func normalizeSex(s string) (string, bool) {
	v, ok := sexes[strings.ToLower(strings.TrimSpace(s))]
	return v, ok
}

func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return nil, apperror.Validation("tanggal_masuk", "format tanggal harus YYYY-MM-DD")
	}
	return &t, nil
}

// CreateGoat memvalidasi input lalu menyimpan kambing baru dengan kode KMB
// berikutnya. tx harus transaksi aktif.
func CreateGoat(tx *gorm.DB, in GoatInput) (*models.Goat, error) {
	in.WeightRange = strings.TrimSpace(in.WeightRange)
	in.Notes = strings.TrimSpace(in.Notes)

	if in.PurchasePrice < 0 {
		return nil, apperror.Validation("harga_beli", "harga beli tidak boleh negatif")
	}
	sex, ok := normalizeSex(in.Sex)
	if !ok {
		return nil, apperror.Validation("jenis_kelamin", "jenis kelamin harus Jantan atau Betina")
	}
	if in.Status == "" {
		in.Status = models.GoatAvailable
	}
	// kambing baru hanya boleh masuk sebagai Tersedia atau Sakit
	if in.Status != models.GoatAvailable && in.Status != models.GoatSick {
		return nil, apperror.Validation("status", "status awal harus Tersedia atau Sakit")
	}
	intake, err := parseDate(in.IntakeDate)
	if err != nil {
		return nil, err
	}
	if err := checkRefs(tx, in.BreedID, in.PriceEstimateID); err != nil {
		return nil, err
	}

	code, err := sequence.Next(tx, sequence.PrefixGoat)
	if err != nil {
		return nil, err
	}

	goat := models.Goat{
		Code:            code,
		BreedID:         in.BreedID,
		IntakeDate:      intake,
		WeightRange:     in.WeightRange,
		PurchasePrice:   in.PurchasePrice,
		Sex:             sex,
		Status:          in.Status,
		PriceEstimateID: in.PriceEstimateID,
		Notes:           in.Notes,
	}
	if err := tx.Create(&goat).Error; err != nil {
		return nil, err
	}
	return &goat, nil
}

func checkRefs(tx *gorm.DB, breedID, estimateID *uint) error {
	if breedID != nil {
		var n int64
		if err := tx.Model(&models.Breed{}).Where("id = ?", *breedID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return apperror.Validation("ras_id", "ras tidak ditemukan")
		}
	}
	if estimateID != nil {
		var n int64
		if err := tx.Model(&models.PriceEstimate{}).Where("id = ?", *estimateID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return apperror.Validation("estimasi_harga_id", "estimasi harga tidak ditemukan")
		}
	}
	return nil
}

// DeleteGoat hanya mengizinkan hapus kambing Tersedia yang belum pernah
// tercatat di penjualan.
func DeleteGoat(db *gorm.DB, goatID, actorID uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var goat models.Goat
		if err := tx.First(&goat, goatID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("kambing", goatID)
			}
			return err
		}
		if goat.Status != models.GoatAvailable {
			return apperror.Conflict("kambing %s berstatus %s dan tidak bisa dihapus", goat.Code, goat.Status)
		}

		var used int64
		if err := tx.Model(&models.SaleItem{}).Where("goat_id = ?", goat.ID).Count(&used).Error; err != nil {
			return err
		}
		if used > 0 {
			return apperror.Conflict("kambing %s sudah tercatat di penjualan", goat.Code)
		}

		res := tx.Where("id = ? AND status = ?", goat.ID, models.GoatAvailable).Delete(&models.Goat{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperror.Conflict("kambing %s sedang dipakai transaksi lain", goat.Code)
		}

		return audit.WriteLog(tx, audit.LogOptions{
			UserID:      actorID,
			EntityType:  audit.EntityGoat,
			EntityID:    goat.ID,
			Action:      models.AuditActionDelete,
			Description: "Hapus kambing " + goat.Code,
			Before:      goat,
		})
	})
}
