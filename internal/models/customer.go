package models

import "time"

// Customer adalah akun member loyalitas, dikunci oleh nomor kontak yang
// sudah dinormalisasi (hanya digit).
type Customer struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Name             string    `gorm:"size:150;not null" json:"nama"`
	Contact          string    `gorm:"size:30;uniqueIndex;not null" json:"nomor_contact"`
	Address          string    `gorm:"type:text" json:"alamat"`
	TotalPoints      int       `gorm:"not null" json:"total_points"`
	TotalSpent       int64     `gorm:"not null" json:"total_spent"`
	TransactionCount int       `gorm:"not null" json:"transaction_count"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
