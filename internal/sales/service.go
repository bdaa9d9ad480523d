// Package sales adalah mesin transaksi penjualan kambing: validasi
// keranjang, penukaran poin, perubahan status kambing, pencatatan
// pembayaran dan akumulasi poin, semuanya dalam satu transaksi database.
package sales

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"peternakan-backend/internal/apperror"
	"peternakan-backend/internal/audit"
	"peternakan-backend/internal/inventory"
	"peternakan-backend/internal/loyalty"
	"peternakan-backend/internal/models"
	"peternakan-backend/internal/sequence"

	"gorm.io/gorm"
)

const (
	MsgCashCreated    = "Transaksi berhasil disimpan!"
	MsgPendingCreated = "Transaksi berhasil dibuat. Menunggu konfirmasi admin."
)

type ProofStore interface {
	Save(fh *multipart.FileHeader) (string, error)
	Remove(rel string)
}

type LineItem struct {
	GoatID    uint  `json:"kambing_id"`
	SalePrice int64 `json:"harga_jual"`
}

type CreateInput struct {
	BuyerName       string
	BuyerContact    string
	BuyerAddress    string
	Items           []LineItem
	Method          models.SaleMethod
	PaymentMethodID *uint
	PointsToRedeem  int
	Proof           *multipart.FileHeader
	CashierID       uint
}

type Result struct {
	Sale    *models.Sale
	Message string
}

type Service struct {
	db     *gorm.DB
	rules  loyalty.Rules
	proofs ProofStore
	now    func() time.Time
}

func NewService(db *gorm.DB, rules loyalty.Rules, proofs ProofStore) *Service {
	return &Service{db: db, rules: rules, proofs: proofs, now: time.Now}
}

// Validate memeriksa input sebelum ada penulisan apa pun.
func (in *CreateInput) Validate() error {
	in.BuyerName = strings.TrimSpace(in.BuyerName)
	in.BuyerAddress = strings.TrimSpace(in.BuyerAddress)

	if in.BuyerName == "" {
		return apperror.Validation("nama_pembeli", "nama pembeli wajib diisi")
	}
	if loyalty.NormalizeContact(in.BuyerContact) == "" {
		return apperror.Validation("nomor_contact", "nomor kontak wajib diisi")
	}
	if len(in.Items) == 0 {
		return apperror.Validation("items", "minimal satu kambing harus dipilih")
	}
	seen := make(map[uint]bool, len(in.Items))
	for i, it := range in.Items {
		if it.GoatID == 0 {
			return apperror.Validation("items", fmt.Sprintf("item %d: kambing_id wajib diisi", i+1))
		}
		if it.SalePrice <= 0 {
			return apperror.Validation("items", fmt.Sprintf("item %d: harga jual harus lebih dari 0", i+1))
		}
		if seen[it.GoatID] {
			return apperror.Validation("items", fmt.Sprintf("kambing %d dipilih lebih dari sekali", it.GoatID))
		}
		seen[it.GoatID] = true
	}
	if !in.Method.Valid() {
		return apperror.Validation("metode_pembayaran", "metode pembayaran harus cash, transfer atau tempo")
	}
	if in.Method == models.SaleMethodTransfer {
		if in.PaymentMethodID == nil || *in.PaymentMethodID == 0 {
			return apperror.Validation("payment_method_id", "rekening tujuan wajib dipilih untuk transfer")
		}
		if in.Proof == nil {
			return apperror.Validation("bukti_transfer", "bukti transfer wajib diunggah")
		}
	}
	if in.PointsToRedeem < 0 {
		return apperror.Validation("points_redeemed", "poin tidak boleh negatif")
	}
	if in.CashierID == 0 {
		return apperror.Validation("user_id", "kasir tidak dikenali")
	}
	return nil
}

// Create menjalankan seluruh transaksi penjualan. Bila gagal di titik mana
// pun, tidak ada perubahan yang tersimpan dan bukti transfer yang sudah
// diunggah dihapus lagi.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Result, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var proofPath string
	if in.Method == models.SaleMethodTransfer {
		p, err := s.proofs.Save(in.Proof)
		if err != nil {
			return nil, err
		}
		proofPath = p
	}

	var saleID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		id, err := s.create(tx, in, proofPath)
		saleID = id
		return err
	})
	if err != nil {
		s.proofs.Remove(proofPath)
		return nil, err
	}

	sale, err := Load(s.db.WithContext(ctx), saleID)
	if err != nil {
		return nil, err
	}
	msg := MsgPendingCreated
	if sale.PaymentStatus == models.PaymentConfirmed {
		msg = MsgCashCreated
	}
	return &Result{Sale: sale, Message: msg}, nil
}

func (s *Service) create(tx *gorm.DB, in CreateInput, proofPath string) (uint, error) {
	contact := loyalty.NormalizeContact(in.BuyerContact)

	if in.Method == models.SaleMethodTransfer {
		var pm models.PaymentMethod
		err := tx.Where("id = ? AND is_active = ?", *in.PaymentMethodID, true).First(&pm).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, apperror.Validation("payment_method_id", "rekening tujuan tidak ditemukan atau tidak aktif")
		}
		if err != nil {
			return 0, err
		}
	}

	number, err := sequence.Next(tx, sequence.PrefixSale)
	if err != nil {
		return 0, err
	}

	var subtotal int64
	for _, it := range in.Items {
		subtotal += it.SalePrice
	}

	var redemption loyalty.Redemption
	if in.PointsToRedeem > 0 {
		member, err := loyalty.FindByContact(tx, contact)
		if errors.Is(err, apperror.ErrNotFound) {
			return 0, apperror.Validation("points_redeemed", "Data member tidak ditemukan untuk penukaran poin")
		}
		if err != nil {
			return 0, err
		}
		redemption, err = s.rules.Quote(member.TotalPoints, in.PointsToRedeem, subtotal)
		if err != nil {
			return 0, err
		}
		if err := loyalty.Deduct(tx, member.ID, redemption.Points); err != nil {
			return 0, err
		}
	}
	total := subtotal - redemption.Discount

	status := models.InitialPaymentStatus(in.Method)

	customer, err := loyalty.Upsert(tx, contact, in.BuyerName, in.BuyerAddress)
	if err != nil {
		return 0, err
	}
	// cash: lunas sekarang, poin dihitung sekarang. transfer/tempo: poin
	// dihitung saat admin menyetujui pembayaran.
	if status == models.PaymentConfirmed {
		if _, err := loyalty.Accrue(tx, customer.ID, total, s.rules); err != nil {
			return 0, err
		}
	}

	now := s.now()
	sale := models.Sale{
		Number:         number,
		Date:           time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()),
		BuyerName:      in.BuyerName,
		BuyerContact:   contact,
		BuyerAddress:   in.BuyerAddress,
		UserID:         in.CashierID,
		CustomerID:     &customer.ID,
		Subtotal:       subtotal,
		PointsRedeemed: redemption.Points,
		DiscountAmount: redemption.Discount,
		Total:          total,
		Method:         in.Method,
		PaymentStatus:  status,
	}
	if err := tx.Create(&sale).Error; err != nil {
		return 0, err
	}

	target := models.GoatTargetFor(status)
	for _, it := range in.Items {
		goat, err := inventory.Take(tx, it.GoatID, target)
		if err != nil {
			return 0, err
		}
		item := models.SaleItem{
			SaleID:      sale.ID,
			GoatID:      goat.ID,
			SalePrice:   it.SalePrice,
			WeightRange: goat.WeightRange,
		}
		if goat.PriceEstimate != nil {
			item.WeightRange = goat.PriceEstimate.WeightRange
			price := goat.PriceEstimate.EstimatedPrice
			item.EstimatedPrice = &price
		}
		if err := tx.Create(&item).Error; err != nil {
			return 0, err
		}
		sale.Items = append(sale.Items, item)
	}

	payment := models.Payment{
		SaleID:    sale.ID,
		Method:    in.Method,
		Amount:    total,
		Status:    status,
		ProofPath: proofPath,
	}
	if in.Method == models.SaleMethodTransfer {
		payment.PaymentMethodID = in.PaymentMethodID
	}
	if status == models.PaymentConfirmed {
		payment.ConfirmedBy = &in.CashierID
		payment.ConfirmedAt = &now
	}
	if err := tx.Create(&payment).Error; err != nil {
		return 0, err
	}

	err = audit.WriteLog(tx, audit.LogOptions{
		UserID:      in.CashierID,
		EntityType:  audit.EntitySale,
		EntityID:    sale.ID,
		Action:      models.AuditActionCreate,
		Description: fmt.Sprintf("Penjualan %s (%s) total %d", sale.Number, sale.Method, sale.Total),
		After:       sale,
	})
	if err != nil {
		return 0, err
	}
	return sale.ID, nil
}

// Load membaca penjualan lengkap dengan detail, kambing dan pembayaran.
func Load(db *gorm.DB, id uint) (*models.Sale, error) {
	var sale models.Sale
	err := db.Preload("Items.Goat.Breed").
		Preload("Payment.PaymentMethod").
		Preload("User").
		Preload("Customer").
		First(&sale, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("penjualan", id)
	}
	if err != nil {
		return nil, err
	}
	return &sale, nil
}
