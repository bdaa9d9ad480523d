package models

import "time"

type GoatStatus string

const (
	GoatAvailable GoatStatus = "Tersedia"
	GoatReserved  GoatStatus = "Dipesan"
	GoatSold      GoatStatus = "Terjual"
	GoatSick      GoatStatus = "Sakit"
	GoatDead      GoatStatus = "Mati"
)

// goatTransitions adalah whitelist perpindahan status kambing.
var goatTransitions = map[GoatStatus][]GoatStatus{
	GoatAvailable: {GoatReserved, GoatSold, GoatSick, GoatDead},
	GoatReserved:  {GoatAvailable, GoatSold},
	GoatSick:      {GoatDead},
}

func (s GoatStatus) Valid() bool {
	switch s {
	case GoatAvailable, GoatReserved, GoatSold, GoatSick, GoatDead:
		return true
	}
	return false
}

func (s GoatStatus) CanTransitionTo(to GoatStatus) bool {
	for _, t := range goatTransitions[s] {
		if t == to {
			return true
		}
	}
	return false
}

// CanSetManually: Dipesan dan Terjual hanya bisa dicapai lewat transaksi penjualan.
func (s GoatStatus) CanSetManually(to GoatStatus) bool {
	if s == to {
		return true
	}
	if to == GoatReserved || to == GoatSold || s == GoatReserved {
		return false
	}
	return s.CanTransitionTo(to)
}

type Goat struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	Code            string         `gorm:"size:20;uniqueIndex;not null" json:"kode_kambing"`
	BreedID         *uint          `gorm:"index" json:"ras_id"`
	Breed           *Breed         `json:"ras,omitempty"`
	IntakeDate      *time.Time     `gorm:"type:date" json:"tanggal_masuk"`
	WeightRange     string         `gorm:"size:50" json:"range_berat"`
	PurchasePrice   int64          `gorm:"not null" json:"harga_beli"`
	Sex             string         `gorm:"size:20" json:"jenis_kelamin"`
	Status          GoatStatus     `gorm:"size:20;not null;index" json:"status"`
	PriceEstimateID *uint          `gorm:"index" json:"estimasi_harga_id"`
	PriceEstimate   *PriceEstimate `json:"estimasi_harga,omitempty"`
	Notes           string         `gorm:"type:text" json:"keterangan"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}
