package models

import "time"

type Payment struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	SaleID          uint           `gorm:"uniqueIndex;not null" json:"penjualan_id"`
	Method          SaleMethod     `gorm:"size:20;not null" json:"metode"`
	Amount          int64          `gorm:"not null" json:"jumlah"`
	Status          PaymentStatus  `gorm:"size:20;not null;index" json:"status"`
	PaymentMethodID *uint          `gorm:"index" json:"payment_method_id"`
	PaymentMethod   *PaymentMethod `json:"payment_method,omitempty"`
	ProofPath       string         `gorm:"size:255" json:"bukti_transfer"`
	ConfirmedBy     *uint          `json:"confirmed_by"`
	ConfirmedByUser *User          `gorm:"foreignKey:ConfirmedBy" json:"confirmed_by_user,omitempty"`
	ConfirmedAt     *time.Time     `json:"confirmed_at"`
	Notes           string         `gorm:"type:text" json:"notes"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// PaymentMethod adalah rekening tujuan transfer.
type PaymentMethod struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"size:100;not null" json:"nama"`
	BankName      string    `gorm:"size:100" json:"bank"`
	AccountNumber string    `gorm:"size:50" json:"nomor_rekening"`
	AccountHolder string    `gorm:"size:100" json:"atas_nama"`
	IsActive      bool      `gorm:"not null" json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
