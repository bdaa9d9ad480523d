// Package payment adalah state machine persetujuan pembayaran:
// pending -> confirmed | rejected, dan tidak pernah keluar dari status final.
package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"peternakan-backend/internal/apperror"
	"peternakan-backend/internal/audit"
	"peternakan-backend/internal/inventory"
	"peternakan-backend/internal/loyalty"
	"peternakan-backend/internal/models"

	"gorm.io/gorm"
)

type Service struct {
	db    *gorm.DB
	rules loyalty.Rules
	now   func() time.Time
}

func NewService(db *gorm.DB, rules loyalty.Rules) *Service {
	return &Service{db: db, rules: rules, now: time.Now}
}

// Approve mengonfirmasi pembayaran pending: kambing yang masih Dipesan
// menjadi Terjual dan pembeli mendapat poin dari total transaksi.
func (s *Service) Approve(ctx context.Context, paymentID, adminID uint, notes string) (*models.Payment, error) {
	var out models.Payment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, sale, err := s.loadPending(tx, paymentID)
		if err != nil {
			return err
		}
		before := *p

		if err := s.settle(tx, p, sale, models.PaymentConfirmed, adminID, strings.TrimSpace(notes)); err != nil {
			return err
		}
		if _, err := inventory.FinalizeReserved(tx, sale.GoatIDs()); err != nil {
			return err
		}
		if sale.CustomerID != nil {
			if _, err := loyalty.Accrue(tx, *sale.CustomerID, sale.Total, s.rules); err != nil {
				return err
			}
		}

		out = *p
		return audit.WriteLog(tx, audit.LogOptions{
			UserID:      adminID,
			EntityType:  audit.EntityPayment,
			EntityID:    p.ID,
			Action:      models.AuditActionApprove,
			Description: fmt.Sprintf("Setujui pembayaran %s", sale.Number),
			Before:      before,
			After:       p,
		})
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Reject menolak pembayaran pending dengan alasan wajib. Kambing yang
// Dipesan kembali Tersedia. Poin yang ditukar hanya dikembalikan bila
// RestoreOnReversal aktif.
func (s *Service) Reject(ctx context.Context, paymentID, adminID uint, reason string) (*models.Payment, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperror.Validation("notes", "Alasan penolakan wajib diisi")
	}

	var out models.Payment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, sale, err := s.loadPending(tx, paymentID)
		if err != nil {
			return err
		}
		before := *p

		if err := s.settle(tx, p, sale, models.PaymentRejected, adminID, reason); err != nil {
			return err
		}
		if _, err := inventory.ReleaseReserved(tx, sale.GoatIDs()); err != nil {
			return err
		}
		if s.rules.RestoreOnReversal && sale.PointsRedeemed > 0 && sale.CustomerID != nil {
			if err := loyalty.Restore(tx, *sale.CustomerID, sale.PointsRedeemed); err != nil {
				return err
			}
		}

		out = *p
		return audit.WriteLog(tx, audit.LogOptions{
			UserID:      adminID,
			EntityType:  audit.EntityPayment,
			EntityID:    p.ID,
			Action:      models.AuditActionReject,
			Description: fmt.Sprintf("Tolak pembayaran %s: %s", sale.Number, reason),
			Before:      before,
			After:       p,
		})
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) loadPending(tx *gorm.DB, paymentID uint) (*models.Payment, *models.Sale, error) {
	var p models.Payment
	if err := tx.First(&p, paymentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperror.NotFound("pembayaran", paymentID)
		}
		return nil, nil, err
	}
	if p.Status != models.PaymentPending {
		return nil, nil, &apperror.AlreadyProcessedError{PaymentID: p.ID, Status: string(p.Status)}
	}

	var sale models.Sale
	if err := tx.Preload("Items").First(&sale, p.SaleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperror.NotFound("penjualan", p.SaleID)
		}
		return nil, nil, err
	}
	return &p, &sale, nil
}

// settle adalah satu-satunya tempat status pembayaran dan status di header
// penjualan berubah setelah transaksi dibuat. Keduanya di-update bersyarat
// dari pending, jadi persetujuan ganda yang berbarengan hanya lolos sekali.
func (s *Service) settle(tx *gorm.DB, p *models.Payment, sale *models.Sale, to models.PaymentStatus, adminID uint, notes string) error {
	now := s.now()
	res := tx.Model(&models.Payment{}).
		Where("id = ? AND status = ?", p.ID, models.PaymentPending).
		Updates(map[string]any{
			"status":       to,
			"confirmed_by": adminID,
			"confirmed_at": now,
			"notes":        notes,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var current models.Payment
		if err := tx.Select("id", "status").First(&current, p.ID).Error; err != nil {
			return err
		}
		return &apperror.AlreadyProcessedError{PaymentID: p.ID, Status: string(current.Status)}
	}

	res = tx.Model(&models.Sale{}).
		Where("id = ? AND payment_status = ?", sale.ID, models.PaymentPending).
		Update("payment_status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperror.Conflict("status penjualan %s tidak sinkron dengan pembayaran", sale.Number)
	}

	p.Status = to
	p.ConfirmedBy = &adminID
	p.ConfirmedAt = &now
	p.Notes = notes
	sale.PaymentStatus = to
	return nil
}
