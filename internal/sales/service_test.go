package sales

import (
	"context"
	"errors"
	"mime/multipart"
	"sync"
	"testing"

	"peternakan-backend/internal/apperror"
	"peternakan-backend/internal/loyalty"
	"peternakan-backend/internal/models"
	"peternakan-backend/internal/testdb"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeProofs struct {
	mu      sync.Mutex
	saved   []string
	removed []string
	err     error
}

func (f *fakeProofs) Save(fh *multipart.FileHeader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p := "bukti-transfer/bukti-" + fh.Filename
	f.saved = append(f.saved, p)
	return p, nil
}

func (f *fakeProofs) Remove(rel string) {
	if rel == "" {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, rel)
}

type fixture struct {
	db     *gorm.DB
	svc    *Service
	proofs *fakeProofs
	kasir  *models.User
	admin  *models.User
}

func setup(t *testing.T, rules loyalty.Rules) *fixture {
	t.Helper()
	db := testdb.New(t)
	proofs := &fakeProofs{}
	return &fixture{
		db:     db,
		svc:    NewService(db, rules, proofs),
		proofs: proofs,
		kasir:  testdb.User(t, db, models.RoleCashier),
		admin:  testdb.User(t, db, models.RoleAdmin),
	}
}

func proof() *multipart.FileHeader {
	return &multipart.FileHeader{Filename: "transfer.jpg", Size: 1024}
}

func count(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestCashSaleConfirmsImmediately(t *testing.T) {
	f := setup(t, loyalty.DefaultRules())
	est := testdb.Estimate(t, f.db, "25-30 kg", 1400000)
	goat := testdb.Goat(t, f.db, models.GoatAvailable, est)

	res, err := f.svc.Create(context.Background(), CreateInput{
		BuyerName:    "Pak Budi",
		BuyerContact: "0812-1111-2222",
		Items:        []LineItem{{GoatID: goat.ID, SalePrice: 1500000}},
		Method:       models.SaleMethodCash,
		CashierID:    f.kasir.ID,
	})
	require.NoError(t, err)
	require.Equal(t, MsgCashCreated, res.Message)

	sale := res.Sale
	require.Equal(t, "PJL001", sale.Number)
	require.EqualValues(t, 1500000, sale.Subtotal)
	require.EqualValues(t, 1500000, sale.Total)
	require.Zero(t, sale.DiscountAmount)
	require.Equal(t, models.PaymentConfirmed, sale.PaymentStatus)
	require.Equal(t, "081211112222", sale.BuyerContact)

	require.NotNil(t, sale.Payment)
	require.Equal(t, models.PaymentConfirmed, sale.Payment.Status)
	require.EqualValues(t, 1500000, sale.Payment.Amount)
	require.NotNil(t, sale.Payment.ConfirmedAt)

	require.Len(t, sale.Items, 1)
	require.Equal(t, "25-30 kg", sale.Items[0].WeightRange)
	require.NotNil(t, sale.Items[0].EstimatedPrice)
	require.EqualValues(t, 1400000, *sale.Items[0].EstimatedPrice)
	require.EqualValues(t, 1500000, sale.Items[0].SalePrice)

	require.Equal(t, models.GoatSold, testdb.ReloadGoat(t, f.db, goat.ID).Status)

	member := testdb.ReloadCustomer(t, f.db, "081211112222")
	require.Equal(t, 15, member.TotalPoints)
	require.EqualValues(t, 1500000, member.TotalSpent)
	require.Equal(t, 1, member.TransactionCount)

	require.EqualValues(t, 1, count(t, f.db, &models.AuditLog{}))
}

func TestTransferSaleCapsRedemption(t *testing.T) {
	f := setup(t, loyalty.DefaultRules())
	goat := testdb.Goat(t, f.db, models.GoatAvailable, nil)
	pm := testdb.PaymentMethod(t, f.db, true)
	testdb.Customer(t, f.db, "08123", 2500)

	res, err := f.svc.Create(context.Background(), CreateInput{
		BuyerName:       "Bu Sari",
		BuyerContact:    "08123",
		Items:           []LineItem{{GoatID: goat.ID, SalePrice: 2000000}},
		Method:          models.SaleMethodTransfer,
		PaymentMethodID: &pm.ID,
		PointsToRedeem:  2500,
		Proof:           proof(),
		CashierID:       f.kasir.ID,
	})
	require.NoError(t, err)
	require.Equal(t, MsgPendingCreated, res.Message)

	sale := res.Sale
	require.Equal(t, 2000, sale.PointsRedeemed)
	require.EqualValues(t, 2000000, sale.DiscountAmount)
	require.Zero(t, sale.Total)
	require.Equal(t, models.PaymentPending, sale.PaymentStatus)
	require.Equal(t, models.PaymentPending, sale.Payment.Status)
	require.Equal(t, "bukti-transfer/bukti-transfer.jpg", sale.Payment.ProofPath)
	require.Equal(t, pm.ID, *sale.Payment.PaymentMethodID)

	require.Equal(t, models.GoatReserved, testdb.ReloadGoat(t, f.db, goat.ID).Status)

	// poin dipotong sekarang, akumulasi menunggu approve
	member := testdb.ReloadCustomer(t, f.db, "08123")
	require.Equal(t, 500, member.TotalPoints)
	require.Zero(t, member.TransactionCount)
	require.Zero(t, member.TotalSpent)
	require.Empty(t, f.proofs.removed)
}

func TestTempoSaleIsPendingWithoutProof(t *testing.T) {
	f := setup(t, loyalty.DefaultRules())
	goat := testdb.Goat(t, f.db, models.GoatAvailable, nil)

	res, err := f.svc.Create(context.Background(), CreateInput{
		BuyerName:    "Pak Joko",
		BuyerContact: "0857",
		Items:        []LineItem{{GoatID: goat.ID, SalePrice: 1800000}},
		Method:       models.SaleMethodTempo,
		CashierID:    f.kasir.ID,
	})
	require.NoError(t, err)
	require.Equal(t, models.PaymentPending, res.Sale.PaymentStatus)
	require.Equal(t, models.SaleMethodTempo, res.Sale.Payment.Method)
	require.Nil(t, res.Sale.Payment.PaymentMethodID)
	require.Empty(t, f.proofs.saved)
	require.Equal(t, models.GoatReserved, testdb.ReloadGoat(t, f.db, goat.ID).Status)
}

func TestSaleWithUnavailableGoatWritesNothing(t *testing.T) {
	f := setup(t, loyalty.DefaultRules())
	free := testdb.Goat(t, f.db, models.GoatAvailable, nil)
	sold := testdb.Goat(t, f.db, models.GoatSold, nil)
	testdb.Customer(t, f.db, "0811", 100)

	_, err := f.svc.Create(context.Background(), CreateInput{
		BuyerName:      "Pak Andi",
		BuyerContact:   "0811",
		Items:          []LineItem{{GoatID: free.ID, SalePrice: 1500000}, {GoatID: sold.ID, SalePrice: 1500000}},
		Method:         models.SaleMethodCash,
		PointsToRedeem: 50,
		CashierID:      f.kasir.ID,
	})
	var ue *apperror.UnavailableUnitError
	require.ErrorAs(t, err, &ue)
	require.Equal(t, sold.Code, ue.Code)
	require.Equal(t, 409, apperror.Status(err))

	require.Equal(t, models.GoatAvailable, testdb.ReloadGoat(t, f.db, free.ID).Status)
	require.Zero(t, count(t, f.db, &models.Sale{}))
	require.Zero(t, count(t, f.db, &models.SaleItem{}))
	require.Zero(t, count(t, f.db, &models.Payment{}))
	require.Zero(t, count(t, f.db, &models.AuditLog{}))

	member := testdb.ReloadCustomer(t, f.db, "0811")
	require.Equal(t, 100, member.TotalPoints)
	require.Zero(t, member.TransactionCount)

	// nomor penjualan yang gagal tidak terpakai
	res, err := f.svc.Create(context.Background(), CreateInput{
		BuyerName:    "Pak Andi",
		BuyerContact: "0811",
		Items:        []LineItem{{GoatID: free.ID, SalePrice: 1500000}},
		Method:       models.SaleMethodCash,
		CashierID:    f.kasir.ID,
	})
	require.NoError(t, err)
	require.Equal(t, "PJL001", res.Sale.Number)
}

func TestFailedTransferRemovesUploadedProof(t *testing.T) {
	f := setup(t, loyalty.DefaultRules())
	sold := testdb.Goat(t, f.db, models.GoatSold, nil)
	pm := testdb.PaymentMethod(t, f.db, true)

	_, err := f.svc.Create(context.Background(), CreateInput{
		BuyerName:       "Bu Rina",
		BuyerContact:    "0822",
		Items:           []LineItem{{GoatID: sold.ID, SalePrice: 1500000}},
		Method:          models.SaleMethodTransfer,
		PaymentMethodID: &pm.ID,
		Proof:           proof(),
		CashierID:       f.kasir.ID,
	})
	require.ErrorIs(t, err, apperror.ErrConflict)
	require.Equal(t, f.proofs.saved, f.proofs.removed)
	require.Len(t, f.proofs.removed, 1)
}

func TestInactivePaymentMethodRejected(t *testing.T) {
	f := setup(t, loyalty.DefaultRules())
	goat := testdb.Goat(t, f.db, models.GoatAvailable, nil)
	pm := testdb.PaymentMethod(t, f.db, false)

	_, err := f.svc.Create(context.Background(), CreateInput{
		BuyerName:       "Bu Rina",
		BuyerContact:    "0822",
		Items:           []LineItem{{GoatID: goat.ID, SalePrice: 1500000}},
		Method:          models.SaleMethodTransfer,
		PaymentMethodID: &pm.ID,
		Proof:           proof(),
		CashierID:       f.kasir.ID,
	})
	require.ErrorIs(t, err, apperror.ErrValidation)
	require.Len(t, f.proofs.removed, 1)
	require.Equal(t, models.GoatAvailable, testdb.ReloadGoat(t, f.db, goat.ID).Status)
}

func TestRedemptionErrors(t *testing.T) {
	f := setup(t, loyalty.DefaultRules())
	goat := testdb.Goat(t, f.db, models.GoatAvailable, nil)
	testdb.Customer(t, f.db, "0813", 500)

	base := CreateInput{
		BuyerName:    "Pak Dedi",
		BuyerContact: "0813",
		Items:        []LineItem{{GoatID: goat.ID, SalePrice: 2000000}},
		Method:       models.SaleMethodCash,
		CashierID:    f.kasir.ID,
	}

	in := base
	in.PointsToRedeem = 600
	_, err := f.svc.Create(context.Background(), in)
	require.ErrorIs(t, err, apperror.ErrInsufficientPoints)
	require.Equal(t, 400, apperror.Status(err))

	in = base
	in.BuyerContact = "0899"
	in.PointsToRedeem = 10
	_, err = f.svc.Create(context.Background(), in)
	require.ErrorIs(t, err, apperror.ErrValidation)
	require.Contains(t, err.Error(), "Data member tidak ditemukan")

	require.Equal(t, models.GoatAvailable, testdb.ReloadGoat(t, f.db, goat.ID).Status)
	require.Equal(t, 500, testdb.ReloadCustomer(t, f.db, "0813").TotalPoints)
	require.Zero(t, count(t, f.db, &models.Sale{}))
}

func TestValidateRejectsBadInput(t *testing.T) {
	pmID := uint(1)
	good := CreateInput{
		BuyerName:    "A",
		BuyerContact: "0812",
		Items:        []LineItem{{GoatID: 1, SalePrice: 1}},
		Method:       models.SaleMethodCash,
		CashierID:    1,
	}
	require.NoError(t, good.Validate())

	cases := map[string]func(in *CreateInput){
		"no name":              func(in *CreateInput) { in.BuyerName = "  " },
		"contact no digits":    func(in *CreateInput) { in.BuyerContact = "abc" },
		"empty cart":           func(in *CreateInput) { in.Items = nil },
		"zero price":           func(in *CreateInput) { in.Items = []LineItem{{GoatID: 1}} },
		"duplicate goat":       func(in *CreateInput) { in.Items = []LineItem{{1, 10}, {1, 20}} },
		"unknown method":       func(in *CreateInput) { in.Method = "kredit" },
		"transfer no proof":    func(in *CreateInput) { in.Method = models.SaleMethodTransfer; in.PaymentMethodID = &pmID },
		"transfer no account":  func(in *CreateInput) { in.Method = models.SaleMethodTransfer; in.Proof = proof() },
		"negative points":      func(in *CreateInput) { in.PointsToRedeem = -5 },
		"missing cashier":      func(in *CreateInput) { in.CashierID = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := good
			in.Items = append([]LineItem(nil), good.Items...)
			mutate(&in)
			require.ErrorIs(t, in.Validate(), apperror.ErrValidation)
		})
	}
}

func TestTotalNeverNegative(t *testing.T) {
	f := setup(t, loyalty.DefaultRules())
	testdb.Customer(t, f.db, "0877", 10000)

	for _, tc := range []struct {
		price  int64
		points int
	}{{1500000, 100}, {1500000, 1500}, {1500000, 3000}, {999, 1}} {
		goat := testdb.Goat(t, f.db, models.GoatAvailable, nil)
		res, err := f.svc.Create(context.Background(), CreateInput{
			BuyerName:      "Member",
			BuyerContact:   "0877",
			Items:          []LineItem{{GoatID: goat.ID, SalePrice: tc.price}},
			Method:         models.SaleMethodCash,
			PointsToRedeem: tc.points,
			CashierID:      f.kasir.ID,
		})
		require.NoError(t, err)
		s := res.Sale
		require.Equal(t, s.Subtotal-s.DiscountAmount, s.Total)
		require.GreaterOrEqual(t, s.Total, int64(0))
		require.LessOrEqual(t, s.DiscountAmount, s.Subtotal)
	}
}

func TestConcurrentSalesForSameGoat(t *testing.T) {
	f := setup(t, loyalty.DefaultRules())
	goat := testdb.Goat(t, f.db, models.GoatAvailable, nil)

	const n = 6
	errs := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Create(context.Background(), CreateInput{
				BuyerName:    "Rebutan",
				BuyerContact: "0800",
				Items:        []LineItem{{GoatID: goat.ID, SalePrice: 1500000}},
				Method:       models.SaleMethodCash,
				CashierID:    f.kasir.ID,
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, conflicts int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, apperror.ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, ok)
	require.Equal(t, n-1, conflicts)
	require.EqualValues(t, 1, count(t, f.db, &models.SaleItem{}))
	require.Equal(t, 15, testdb.ReloadCustomer(t, f.db, "0800").TotalPoints)
}
