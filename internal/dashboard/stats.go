package dashboard

import (
	"time"

	"peternakan-backend/internal/auth"
	"peternakan-backend/internal/database"
	"peternakan-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Stats struct {
	TotalBreeds      int64 `json:"totalRas"`
	AvailableGoats   int64 `json:"totalKambing"`
	GoatsSold        int64 `json:"totalTerjual"`
	ConfirmedSales   int64 `json:"totalTransaksi"`
	MonthRevenue     int64 `json:"totalPendapatan"`
	MonthProfit      int64 `json:"totalKeuntungan"`
	MarginPercentage int64 `json:"marginPercentage"`
	TotalUsers       int64 `json:"totalUser"`
}

type MonthPoint struct {
	Month string `json:"bulan"`
	Total int64  `json:"total"`
}

type BreedStock struct {
	BreedName string `json:"nama_ras"`
	Count     int64  `json:"jumlah"`
}

var monthNames = [...]string{"Jan", "Feb", "Mar", "Apr", "Mei", "Jun", "Jul", "Agu", "Sep", "Okt", "Nov", "Des"}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// confirmedItems: detail penjualan yang header-nya sudah confirmed.
func confirmedItems(db *gorm.DB) *gorm.DB {
	return db.Table("sale_items").
		Joins("JOIN sales ON sales.id = sale_items.sale_id").
		Where("sales.payment_status = ?", models.PaymentConfirmed)
}

// Margin dibulatkan ke persen terdekat, 0 bila belum ada pendapatan.
func Margin(revenue, profit int64) int64 {
	if revenue <= 0 {
		return 0
	}
	return decimal.NewFromInt(profit).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(revenue)).
		Round(0).
		IntPart()
}

func ComputeStats(db *gorm.DB, now time.Time) (Stats, error) {
	var s Stats
	if err := db.Model(&models.Breed{}).Count(&s.TotalBreeds).Error; err != nil {
		return s, err
	}
	if err := db.Model(&models.Goat{}).Where("status = ?", models.GoatAvailable).Count(&s.AvailableGoats).Error; err != nil {
		return s, err
	}
	if err := confirmedItems(db).Count(&s.GoatsSold).Error; err != nil {
		return s, err
	}
	if err := db.Model(&models.Sale{}).Where("payment_status = ?", models.PaymentConfirmed).Count(&s.ConfirmedSales).Error; err != nil {
		return s, err
	}

	from := startOfMonth(now)
	var month struct {
		Revenue int64
		Cost    int64
	}
	if err := confirmedItems(db).
		Joins("JOIN goats ON goats.id = sale_items.goat_id").
		Where("sales.sale_date >= ? AND sales.sale_date < ?", from, from.AddDate(0, 1, 0)).
		Select("COALESCE(SUM(sale_items.sale_price), 0) AS revenue, COALESCE(SUM(goats.purchase_price), 0) AS cost").
		Scan(&month).Error; err != nil {
		return s, err
	}
	s.MonthRevenue = month.Revenue
	s.MonthProfit = month.Revenue - month.Cost
	s.MarginPercentage = Margin(s.MonthRevenue, s.MonthProfit)

	if err := db.Model(&models.User{}).Count(&s.TotalUsers).Error; err != nil {
		return s, err
	}
	return s, nil
}

// MonthlySales: total penjualan confirmed 12 bulan terakhir, bulan berjalan paling akhir.
func MonthlySales(db *gorm.DB, now time.Time) ([]MonthPoint, error) {
	points := make([]MonthPoint, 0, 12)
	current := startOfMonth(now)
	for i := 11; i >= 0; i-- {
		from := current.AddDate(0, -i, 0)
		var total int64
		if err := db.Model(&models.Sale{}).
			Where("payment_status = ? AND sale_date >= ? AND sale_date < ?", models.PaymentConfirmed, from, from.AddDate(0, 1, 0)).
			Select("COALESCE(SUM(total), 0)").
			Scan(&total).Error; err != nil {
			return nil, err
		}
		points = append(points, MonthPoint{Month: monthNames[from.Month()-1], Total: total})
	}
	return points, nil
}

// StockByBreed: 5 ras dengan kambing tersedia terbanyak.
func StockByBreed(db *gorm.DB) ([]BreedStock, error) {
	var rows []struct {
		Name   *string
		Jumlah int64
	}
	if err := db.Table("goats").
		Select("breeds.name AS name, COUNT(goats.id) AS jumlah").
		Joins("LEFT JOIN breeds ON breeds.id = goats.breed_id").
		Where("goats.status = ?", models.GoatAvailable).
		Group("breeds.id, breeds.name").
		Order("jumlah DESC").
		Limit(5).
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]BreedStock, 0, len(rows))
	for _, r := range rows {
		name := "Unknown"
		if r.Name != nil {
			name = *r.Name
		}
		out = append(out, BreedStock{BreedName: name, Count: r.Jumlah})
	}
	return out, nil
}

// GET /api/dashboard/stats
func StatsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := ComputeStats(database.DB, time.Now())
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": s})
	}
}

// GET /api/dashboard/chart/sales
func SalesChartHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		points, err := MonthlySales(database.DB, time.Now())
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": points})
	}
}

// GET /api/dashboard/chart/stock
func StockChartHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rows, err := StockByBreed(database.DB)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": rows})
	}
}

// GET /api/dashboard/recent-sales - kasir hanya melihat transaksinya sendiri
func RecentSalesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, role, err := auth.Actor(c)
		if err != nil {
			return err
		}
		dbq := database.DB.Where("payment_status = ?", models.PaymentConfirmed)
		if role == models.RoleCashier {
			dbq = dbq.Where("user_id = ?", userID)
		}
		var sales []models.Sale
		if err := dbq.Preload("Items").
			Order("sale_date DESC, id DESC").
			Limit(5).
			Find(&sales).Error; err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": sales})
	}
}
