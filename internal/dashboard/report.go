package dashboard

import (
	"math"
	"time"

	"peternakan-backend/internal/auth"
	"peternakan-backend/internal/database"
	"peternakan-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ReportFilter struct {
	From      *time.Time
	To        *time.Time // inklusif
	CashierID uint       // 0 = semua kasir
	Page      int
	Limit     int
}

type ReportSummary struct {
	Revenue      int64 `json:"totalPendapatan"`
	Cost         int64 `json:"totalModal"`
	Profit       int64 `json:"totalKeuntungan"`
	Margin       int64 `json:"marginPercentage"`
	GoatCount    int64 `json:"totalKambing"`
	Transactions int64 `json:"totalTransaksi"`
}

type Report struct {
	Sales   []models.Sale `json:"data"`
	Summary ReportSummary `json:"summary"`
	Total   int64         `json:"-"`
}

func (f *ReportFilter) normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 10
	}
}

func (f ReportFilter) apply(db *gorm.DB) *gorm.DB {
	db = db.Where("sales.payment_status = ?", models.PaymentConfirmed)
	if f.CashierID != 0 {
		db = db.Where("sales.user_id = ?", f.CashierID)
	}
	if f.From != nil {
		db = db.Where("sales.sale_date >= ?", *f.From)
	}
	if f.To != nil {
		db = db.Where("sales.sale_date < ?", f.To.AddDate(0, 0, 1))
	}
	return db
}

// BuildReport: daftar penjualan confirmed per halaman beserta ringkasan
// untuk seluruh rentang (bukan hanya halaman yang diminta).
func BuildReport(db *gorm.DB, f ReportFilter) (*Report, error) {
	f.normalize()

	var r Report
	if err := f.apply(db.Model(&models.Sale{})).Count(&r.Total).Error; err != nil {
		return nil, err
	}
	if err := f.apply(db.Model(&models.Sale{})).
		Preload("Items.Goat").
		Preload("User").
		Order("sale_date DESC, id DESC").
		Offset((f.Page - 1) * f.Limit).Limit(f.Limit).
		Find(&r.Sales).Error; err != nil {
		return nil, err
	}

	if err := f.apply(db.Model(&models.Sale{})).
		Select("COALESCE(SUM(total), 0)").
		Scan(&r.Summary.Revenue).Error; err != nil {
		return nil, err
	}

	var items struct {
		Cost  int64
		Goats int64
	}
	if err := f.apply(db.Table("sale_items")).
		Joins("JOIN sales ON sales.id = sale_items.sale_id").
		Joins("LEFT JOIN goats ON goats.id = sale_items.goat_id").
		Select("COALESCE(SUM(goats.purchase_price), 0) AS cost, COUNT(sale_items.id) AS goats").
		Scan(&items).Error; err != nil {
		return nil, err
	}

	r.Summary.Cost = items.Cost
	r.Summary.GoatCount = items.Goats
	r.Summary.Profit = r.Summary.Revenue - r.Summary.Cost
	r.Summary.Margin = Margin(r.Summary.Revenue, r.Summary.Profit)
	r.Summary.Transactions = r.Total
	return &r, nil
}

func parseDay(c *fiber.Ctx, key string) (*time.Time, error) {
	v := c.Query(key)
	if v == "" {
		return nil, nil
	}
	d, err := time.ParseInLocation("2006-01-02", v, time.Local)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Format "+key+" harus YYYY-MM-DD")
	}
	return &d, nil
}

// GET /api/laporan?start_date=2025-01-01&end_date=2025-01-31&page=1&limit=10
func ReportHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, role, err := auth.Actor(c)
		if err != nil {
			return err
		}

		f := ReportFilter{
			Page:  c.QueryInt("page", 1),
			Limit: c.QueryInt("limit", 10),
		}
		if role == models.RoleCashier {
			f.CashierID = userID
		}
		if f.From, err = parseDay(c, "start_date"); err != nil {
			return err
		}
		if f.To, err = parseDay(c, "end_date"); err != nil {
			return err
		}

		f.normalize()
		r, err := BuildReport(database.DB, f)
		if err != nil {
			return err
		}

		return c.JSON(fiber.Map{
			"data":    r.Sales,
			"summary": r.Summary,
			"pagination": fiber.Map{
				"page":        f.Page,
				"limit":       f.Limit,
				"total":       r.Total,
				"total_pages": int(math.Ceil(float64(r.Total) / float64(f.Limit))),
			},
		})
	}
}
