package dashboard

import (
	"fmt"
	"testing"
	"time"

	"peternakan-backend/internal/models"
	"peternakan-backend/internal/testdb"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var seq int

func sale(t *testing.T, db *gorm.DB, cashier uint, day time.Time, status models.PaymentStatus, prices map[*models.Goat]int64) *models.Sale {
	t.Helper()
	seq++
	s := &models.Sale{
		Number:        fmt.Sprintf("PJL%03d", seq),
		Date:          day,
		BuyerName:     "Pak Haji",
		UserID:        cashier,
		Method:        models.SaleMethodCash,
		PaymentStatus: status,
	}
	for g, p := range prices {
		s.Items = append(s.Items, models.SaleItem{GoatID: g.ID, SalePrice: p})
		s.Subtotal += p
	}
	s.Total = s.Subtotal
	require.NoError(t, db.Create(s).Error)
	return s
}

func seed(t *testing.T) (*gorm.DB, *models.User, *models.User) {
	db := testdb.New(t)
	admin := testdb.User(t, db, models.RoleAdmin)
	kasir := testdb.User(t, db, models.RoleCashier)

	etawa := models.Breed{Code: "RAS001", Name: "Etawa"}
	require.NoError(t, db.Create(&etawa).Error)

	stocked := testdb.Goat(t, db, models.GoatAvailable, nil)
	require.NoError(t, db.Model(stocked).Update("breed_id", etawa.ID).Error)
	testdb.Goat(t, db, models.GoatAvailable, nil)

	march := time.Date(2025, 3, 10, 0, 0, 0, 0, time.Local)
	feb := time.Date(2025, 2, 20, 0, 0, 0, 0, time.Local)

	// purchase price fixture 1.500.000 per ekor
	sale(t, db, kasir.ID, march, models.PaymentConfirmed, map[*models.Goat]int64{
		testdb.Goat(t, db, models.GoatSold, nil): 2000000,
		testdb.Goat(t, db, models.GoatSold, nil): 2500000,
	})
	sale(t, db, admin.ID, feb, models.PaymentConfirmed, map[*models.Goat]int64{
		testdb.Goat(t, db, models.GoatSold, nil): 1800000,
	})
	sale(t, db, kasir.ID, march, models.PaymentPending, map[*models.Goat]int64{
		testdb.Goat(t, db, models.GoatReserved, nil): 9000000,
	})
	return db, admin, kasir
}

func TestMargin(t *testing.T) {
	require.EqualValues(t, 0, Margin(0, 0))
	require.EqualValues(t, 33, Margin(3, 1))
	require.EqualValues(t, 67, Margin(3, 2))
	require.EqualValues(t, -50, Margin(2, -1))
}

func TestComputeStatsCountsConfirmedOnly(t *testing.T) {
	db, _, _ := seed(t)
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.Local)

	s, err := ComputeStats(db, now)
	require.NoError(t, err)
	require.EqualValues(t, 1, s.TotalBreeds)
	require.EqualValues(t, 2, s.AvailableGoats)
	require.EqualValues(t, 3, s.GoatsSold)
	require.EqualValues(t, 2, s.ConfirmedSales)
	require.EqualValues(t, 4500000, s.MonthRevenue)
	require.EqualValues(t, 1500000, s.MonthProfit)
	require.EqualValues(t, 33, s.MarginPercentage)
	require.EqualValues(t, 2, s.TotalUsers)
}

func TestMonthlySales(t *testing.T) {
	db, _, _ := seed(t)
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.Local)

	points, err := MonthlySales(db, now)
	require.NoError(t, err)
	require.Len(t, points, 12)
	require.Equal(t, MonthPoint{Month: "Apr", Total: 0}, points[0])
	require.Equal(t, MonthPoint{Month: "Feb", Total: 1800000}, points[10])
	require.Equal(t, MonthPoint{Month: "Mar", Total: 4500000}, points[11])
}

func TestStockByBreed(t *testing.T) {
	db, _, _ := seed(t)

	rows, err := StockByBreed(db)
	require.NoError(t, err)
	require.ElementsMatch(t, []BreedStock{
		{BreedName: "Etawa", Count: 1},
		{BreedName: "Unknown", Count: 1},
	}, rows)
}

func TestBuildReport(t *testing.T) {
	db, _, kasir := seed(t)

	all, err := BuildReport(db, ReportFilter{})
	require.NoError(t, err)
	require.EqualValues(t, 2, all.Total)
	require.Len(t, all.Sales, 2)
	require.Equal(t, ReportSummary{
		Revenue:      6300000,
		Cost:         4500000,
		Profit:       1800000,
		Margin:       29,
		GoatCount:    3,
		Transactions: 2,
	}, all.Summary)

	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.Local)
	to := time.Date(2025, 3, 31, 0, 0, 0, 0, time.Local)
	march, err := BuildReport(db, ReportFilter{From: &from, To: &to})
	require.NoError(t, err)
	require.EqualValues(t, 1, march.Summary.Transactions)
	require.EqualValues(t, 4500000, march.Summary.Revenue)
	require.EqualValues(t, 2, march.Summary.GoatCount)

	own, err := BuildReport(db, ReportFilter{CashierID: kasir.ID})
	require.NoError(t, err)
	require.EqualValues(t, 1, own.Total)
	require.Equal(t, kasir.ID, own.Sales[0].UserID)

	paged, err := BuildReport(db, ReportFilter{Page: 2, Limit: 1})
	require.NoError(t, err)
	require.Len(t, paged.Sales, 1)
	require.EqualValues(t, 6300000, paged.Summary.Revenue)
}
