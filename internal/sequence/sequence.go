// Package sequence menghasilkan kode berurutan (RAS001, KMB012, PJL003, ...)
// lewat tabel code_sequences. Nomor dinaikkan dengan UPDATE di dalam
// transaksi pemanggil sehingga dua transaksi paralel tidak pernah mendapat
// kode yang sama.
package sequence

import (
	"fmt"
	"regexp"
	"strconv"

	"peternakan-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	PrefixBreed    = "RAS"
	PrefixEstimate = "EST"
	PrefixGoat     = "KMB"
	PrefixSale     = "PJL"
	PrefixUser     = "USR"
)

// sources: tabel dan kolom yang memakai tiap prefix, untuk seeding awal.
var sources = []struct {
	prefix, table, column string
}{
	{PrefixBreed, "breeds", "code"},
	{PrefixEstimate, "price_estimates", "code"},
	{PrefixGoat, "goats", "code"},
	{PrefixSale, "sales", "number"},
	{PrefixUser, "users", "code"},
}

var digits = regexp.MustCompile(`\d+`)

func Format(prefix string, n int64) string {
	return fmt.Sprintf("%s%03d", prefix, n)
}

// Next mengambil kode berikutnya untuk prefix. tx sebaiknya transaksi yang
// sama dengan INSERT entitasnya.
func Next(tx *gorm.DB, prefix string) (string, error) {
	if err := ensure(tx, prefix, 0); err != nil {
		return "", err
	}

	res := tx.Model(&models.CodeSequence{}).
		Where("prefix = ?", prefix).
		Update("last_value", gorm.Expr("last_value + 1"))
	if res.Error != nil {
		return "", fmt.Errorf("sequence %s: %w", prefix, res.Error)
	}

	var seq models.CodeSequence
	if err := tx.Where("prefix = ?", prefix).First(&seq).Error; err != nil {
		return "", fmt.Errorf("sequence %s: %w", prefix, err)
	}
	return Format(prefix, seq.LastValue), nil
}

func ensure(tx *gorm.DB, prefix string, start int64) error {
	return tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.CodeSequence{Prefix: prefix, LastValue: start}).Error
}

// SeedAll menyelaraskan code_sequences dengan kode yang sudah ada di
// database (mis. data hasil migrasi), supaya Next tidak menghasilkan duplikat.
func SeedAll(db *gorm.DB) error {
	for _, src := range sources {
		if err := seed(db, src.prefix, src.table, src.column); err != nil {
			return err
		}
	}
	return nil
}

func seed(db *gorm.DB, prefix, table, column string) error {
	var codes []string
	if err := db.Table(table).Pluck(column, &codes).Error; err != nil {
		return fmt.Errorf("seed %s: %w", prefix, err)
	}
	var maxSeen int64
	for _, c := range codes {
		if n := suffix(c); n > maxSeen {
			maxSeen = n
		}
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := ensure(tx, prefix, maxSeen); err != nil {
			return err
		}
		return tx.Model(&models.CodeSequence{}).
			Where("prefix = ? AND last_value < ?", prefix, maxSeen).
			Update("last_value", maxSeen).Error
	})
}

func suffix(code string) int64 {
	m := digits.FindString(code)
	if m == "" {
		return 0
	}
	n, err := strconv.ParseInt(m, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
