package models

import "time"

type SaleMethod string

const (
	SaleMethodCash     SaleMethod = "cash"
	SaleMethodTransfer SaleMethod = "transfer"
	SaleMethodTempo    SaleMethod = "tempo"
)

func (m SaleMethod) Valid() bool {
	return m == SaleMethodCash || m == SaleMethodTransfer || m == SaleMethodTempo
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentConfirmed PaymentStatus = "confirmed"
	PaymentRejected  PaymentStatus = "rejected"
)

// InitialPaymentStatus: cash langsung lunas, metode lain menunggu admin.
func InitialPaymentStatus(m SaleMethod) PaymentStatus {
	if m == SaleMethodCash {
		return PaymentConfirmed
	}
	return PaymentPending
}

// GoatTargetFor mengembalikan status kambing untuk status pembayaran awal.
func GoatTargetFor(s PaymentStatus) GoatStatus {
	if s == PaymentConfirmed {
		return GoatSold
	}
	return GoatReserved
}

type Sale struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	Number         string        `gorm:"size:20;uniqueIndex;not null" json:"nomor_penjualan"`
	Date           time.Time     `gorm:"column:sale_date;type:date;not null;index" json:"tanggal_penjualan"`
	BuyerName      string        `gorm:"size:150;not null" json:"nama_pembeli"`
	BuyerContact   string        `gorm:"size:30;index" json:"nomor_contact"`
	BuyerAddress   string        `gorm:"type:text" json:"alamat_pembeli"`
	UserID         uint          `gorm:"index;not null" json:"user_id"`
	User           *User         `json:"user,omitempty"`
	CustomerID     *uint         `gorm:"index" json:"customer_id"`
	Customer       *Customer     `json:"customer,omitempty"`
	Subtotal       int64         `gorm:"not null" json:"subtotal"`
	PointsRedeemed int           `gorm:"not null" json:"points_redeemed"`
	DiscountAmount int64         `gorm:"not null" json:"discount_amount"`
	Total          int64         `gorm:"not null" json:"total"`
	Method         SaleMethod    `gorm:"size:20;not null" json:"metode_pembayaran"`
	PaymentStatus  PaymentStatus `gorm:"size:20;not null;index" json:"payment_status"`
	Items          []SaleItem    `gorm:"foreignKey:SaleID" json:"details"`
	Payment        *Payment      `gorm:"foreignKey:SaleID" json:"payment,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

type SaleItem struct {
	ID     uint  `gorm:"primaryKey" json:"id"`
	SaleID uint  `gorm:"index;not null" json:"penjualan_id"`
	GoatID uint  `gorm:"index;not null" json:"kambing_id"`
	Goat   *Goat `json:"kambing,omitempty"`
	// harga jual dari kasir, bukan dari estimasi
	SalePrice int64 `gorm:"not null" json:"harga_jual"`
	// snapshot estimasi saat transaksi
	WeightRange    string `gorm:"size:50" json:"range_berat"`
	EstimatedPrice *int64 `json:"estimasi_harga"`
}

func (s *Sale) GoatIDs() []uint {
	ids := make([]uint, 0, len(s.Items))
	for _, it := range s.Items {
		ids = append(ids, it.GoatID)
	}
	return ids
}
