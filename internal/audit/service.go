package audit

import (
	"encoding/json"
	"fmt"

	"peternakan-backend/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type LogOptions struct {
	UserID      uint
	UserName    string
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

const (
	EntitySale          = "penjualan"
	EntityPayment       = "payment"
	EntityGoat          = "kambing"
	EntityBreed         = "ras"
	EntityEstimate      = "estimasi_harga"
	EntityUser          = "user"
	EntityPaymentMethod = "payment_method"
)

// WriteLog menulis audit log memakai tx milik pemanggil, sehingga log ikut
// rollback bila transaksi bisnisnya gagal.
func WriteLog(tx *gorm.DB, opts LogOptions) error {
	if opts.UserName == "" && opts.UserID != 0 {
		var u models.User
		if err := tx.Select("name").First(&u, opts.UserID).Error; err == nil {
			opts.UserName = u.Name
		}
	}

	entry := models.AuditLog{
		UserID:      opts.UserID,
		UserName:    opts.UserName,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  snapshot(opts.Before),
		AfterData:   snapshot(opts.After),
	}

	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("audit log gagal disimpan: %w", err)
	}
	return nil
}

func snapshot(v any) datatypes.JSON {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}
