package models

import "time"

// Breed adalah master ras kambing (kode RASxxx).
type Breed struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Code        string    `gorm:"size:20;uniqueIndex;not null" json:"kode_ras"`
	Name        string    `gorm:"size:100;not null" json:"nama_ras"`
	Description string    `gorm:"type:text" json:"keterangan"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PriceEstimate adalah referensi harga per rentang berat. Tidak pernah
// dipakai untuk menghitung total penjualan, hanya disalin sebagai snapshot.
type PriceEstimate struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Code           string    `gorm:"size:20;uniqueIndex;not null" json:"kode_estimasi"`
	WeightRange    string    `gorm:"size:50;not null" json:"range_berat"`
	EstimatedPrice int64     `gorm:"not null" json:"estimasi_harga"`
	Description    string    `gorm:"type:text" json:"keterangan"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
