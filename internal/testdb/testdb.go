// Package testdb membuka database sqlite in-memory per test beserta fixture
// data master yang sering dipakai.
package testdb

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"peternakan-backend/internal/database"
	"peternakan-backend/internal/models"
	"peternakan-backend/internal/sequence"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var counter atomic.Int64

func New(t testing.TB) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, counter.Add(1))

	db, err := database.Open("sqlite", dsn)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	require.NoError(t, sequence.SeedAll(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func User(t testing.TB, db *gorm.DB, role models.UserRole) *models.User {
	t.Helper()
	n := counter.Add(1)
	u := &models.User{
		Code:         fmt.Sprintf("FX-USR%03d", n),
		Name:         fmt.Sprintf("User %d", n),
		Email:        fmt.Sprintf("user%d@farm.test", n),
		PasswordHash: "-",
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func Estimate(t testing.TB, db *gorm.DB, weightRange string, price int64) *models.PriceEstimate {
	t.Helper()
	e := &models.PriceEstimate{
		Code:           fmt.Sprintf("FX-EST%03d", counter.Add(1)),
		WeightRange:    weightRange,
		EstimatedPrice: price,
	}
	require.NoError(t, db.Create(e).Error)
	return e
}

func Goat(t testing.TB, db *gorm.DB, status models.GoatStatus, estimate *models.PriceEstimate) *models.Goat {
	t.Helper()
	g := &models.Goat{
		Code:          fmt.Sprintf("FX-KMB%03d", counter.Add(1)),
		WeightRange:   "25-30 kg",
		PurchasePrice: 1500000,
		Sex:           "Jantan",
		Status:        status,
	}
	if estimate != nil {
		g.PriceEstimateID = &estimate.ID
	}
	require.NoError(t, db.Create(g).Error)
	return g
}

func Customer(t testing.TB, db *gorm.DB, contact string, points int) *models.Customer {
	t.Helper()
	c := &models.Customer{
		Name:        "Pak " + contact,
		Contact:     contact,
		TotalPoints: points,
	}
	require.NoError(t, db.Create(c).Error)
	return c
}

func PaymentMethod(t testing.TB, db *gorm.DB, active bool) *models.PaymentMethod {
	t.Helper()
	pm := &models.PaymentMethod{
		Name:          "BCA Farm",
		BankName:      "BCA",
		AccountNumber: "1234567890",
		AccountHolder: "Peternakan",
		IsActive:      active,
	}
	require.NoError(t, db.Create(pm).Error)
	return pm
}

func ReloadGoat(t testing.TB, db *gorm.DB, id uint) models.Goat {
	t.Helper()
	var g models.Goat
	require.NoError(t, db.First(&g, id).Error)
	return g
}

func ReloadCustomer(t testing.TB, db *gorm.DB, contact string) models.Customer {
	t.Helper()
	var c models.Customer
	require.NoError(t, db.Where("contact = ?", contact).First(&c).Error)
	return c
}
