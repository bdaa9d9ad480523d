package inventory

import (
	"errors"

	"peternakan-backend/internal/apperror"
	"peternakan-backend/internal/models"

	"gorm.io/gorm"
)

// Semua perubahan status kambing lewat file ini. Setiap perubahan adalah
// UPDATE bersyarat (WHERE status = <status lama>) sehingga dua transaksi
// yang berebut kambing yang sama tidak bisa sama-sama berhasil.

// Take mengambil kambing berstatus Tersedia untuk dijual (target Terjual)
// atau dipesan (target Dipesan). Kambing dikembalikan dengan relasi
// PriceEstimate untuk snapshot detail penjualan.
func Take(tx *gorm.DB, goatID uint, target models.GoatStatus) (*models.Goat, error) {
	if target != models.GoatSold && target != models.GoatReserved {
		return nil, apperror.Validation("status", "target harus Terjual atau Dipesan")
	}

	var goat models.Goat
	if err := tx.Preload("PriceEstimate").First(&goat, goatID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("kambing", goatID)
		}
		return nil, err
	}
	if goat.Status != models.GoatAvailable {
		return nil, unavailable(&goat)
	}

	if err := Transition(tx, &goat, target); err != nil {
		return nil, err
	}
	return &goat, nil
}

// Transition memindahkan goat dari status saat ini ke to bila diizinkan
// whitelist. Bila status di database sudah berubah sejak goat dibaca,
// hasilnya UnavailableUnitError.
func Transition(tx *gorm.DB, goat *models.Goat, to models.GoatStatus) error {
	if !goat.Status.CanTransitionTo(to) {
		return apperror.Conflict("status kambing %s tidak bisa diubah dari %s ke %s", goat.Code, goat.Status, to)
	}

	res := tx.Model(&models.Goat{}).
		Where("id = ? AND status = ?", goat.ID, goat.Status).
		Update("status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// kalah balapan dengan transaksi lain
		var current models.Goat
		if err := tx.Select("id", "code", "status").First(&current, goat.ID).Error; err != nil {
			return err
		}
		return unavailable(&current)
	}
	goat.Status = to
	return nil
}

// FinalizeReserved: Dipesan -> Terjual untuk kambing yang masih dipesan.
// Kambing dengan status lain dibiarkan.
func FinalizeReserved(tx *gorm.DB, goatIDs []uint) (int64, error) {
	return bulkMove(tx, goatIDs, []models.GoatStatus{models.GoatReserved}, models.GoatSold)
}

// ReleaseReserved: Dipesan -> Tersedia (pembayaran ditolak).
func ReleaseReserved(tx *gorm.DB, goatIDs []uint) (int64, error) {
	return bulkMove(tx, goatIDs, []models.GoatStatus{models.GoatReserved}, models.GoatAvailable)
}

// ReleaseForDeletion mengembalikan kambing dari transaksi saleID yang dihapus
// admin ke Tersedia, termasuk yang sudah Terjual. Ini satu-satunya jalur
// Terjual -> Tersedia. Kambing yang sedang dipegang penjualan lain yang
// belum ditolak tidak disentuh.
func ReleaseForDeletion(tx *gorm.DB, saleID uint, goatIDs []uint) (int64, error) {
	if len(goatIDs) == 0 {
		return 0, nil
	}
	heldElsewhere := tx.Table("sale_items").
		Select("sale_items.goat_id").
		Joins("JOIN sales ON sales.id = sale_items.sale_id").
		Where("sales.id <> ? AND sales.payment_status <> ?", saleID, models.PaymentRejected)

	res := tx.Model(&models.Goat{}).
		Where("id IN ? AND status IN ?", goatIDs, []models.GoatStatus{models.GoatReserved, models.GoatSold}).
		Where("id NOT IN (?)", heldElsewhere).
		Update("status", models.GoatAvailable)
	return res.RowsAffected, res.Error
}

func bulkMove(tx *gorm.DB, goatIDs []uint, from []models.GoatStatus, to models.GoatStatus) (int64, error) {
	if len(goatIDs) == 0 {
		return 0, nil
	}
	res := tx.Model(&models.Goat{}).
		Where("id IN ? AND status IN ?", goatIDs, from).
		Update("status", to)
	return res.RowsAffected, res.Error
}

func unavailable(g *models.Goat) error {
	return &apperror.UnavailableUnitError{GoatID: g.ID, Code: g.Code, Status: string(g.Status)}
}
