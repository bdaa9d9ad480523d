package sales

import (
	"context"
	"fmt"

	"peternakan-backend/internal/audit"
	"peternakan-backend/internal/inventory"
	"peternakan-backend/internal/loyalty"
	"peternakan-backend/internal/models"

	"gorm.io/gorm"
)

// Delete membatalkan penjualan (khusus admin): semua kambingnya kembali
// Tersedia, lalu pembayaran, detail dan header dihapus. Poin yang sudah
// didapat pembeli tidak ditarik kembali.
func (s *Service) Delete(ctx context.Context, saleID, actorID uint) error {
	var proofPath string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sale, err := Load(tx, saleID)
		if err != nil {
			return err
		}

		// penolakan sudah mengembalikan kambingnya
		if sale.PaymentStatus != models.PaymentRejected {
			if _, err := inventory.ReleaseForDeletion(tx, sale.ID, sale.GoatIDs()); err != nil {
				return err
			}
		}

		if s.rules.RestoreOnReversal &&
			sale.PaymentStatus == models.PaymentPending &&
			sale.PointsRedeemed > 0 && sale.CustomerID != nil {
			if err := loyalty.Restore(tx, *sale.CustomerID, sale.PointsRedeemed); err != nil {
				return err
			}
		}

		if sale.Payment != nil {
			proofPath = sale.Payment.ProofPath
		}
		if err := tx.Where("sale_id = ?", sale.ID).Delete(&models.Payment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("sale_id = ?", sale.ID).Delete(&models.SaleItem{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Sale{}, sale.ID).Error; err != nil {
			return err
		}

		return audit.WriteLog(tx, audit.LogOptions{
			UserID:      actorID,
			EntityType:  audit.EntitySale,
			EntityID:    sale.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Hapus penjualan %s", sale.Number),
			Before:      sale,
		})
	})
	if err != nil {
		return err
	}

	s.proofs.Remove(proofPath)
	return nil
}
