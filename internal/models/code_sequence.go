package models

// CodeSequence menyimpan nomor terakhir per prefix kode (RAS, EST, KMB, PJL, USR).
type CodeSequence struct {
	Prefix    string `gorm:"primaryKey;size:10"`
	LastValue int64  `gorm:"not null"`
}
