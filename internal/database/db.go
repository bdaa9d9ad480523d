package database

import (
	"fmt"
	"log"

	"peternakan-backend/internal/config"
	"peternakan-backend/internal/models"
	"peternakan-backend/internal/sequence"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	db, err := Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("Gagal koneksi database: %v", err)
	}
	if err := Migrate(db); err != nil {
		log.Fatalf("AutoMigrate gagal: %v", err)
	}
	if err := sequence.SeedAll(db); err != nil {
		log.Fatalf("Seed code_sequences gagal: %v", err)
	}
	DB = db

	log.Println("Koneksi database berhasil. Migration selesai.")
}

func Open(driver, dsn string) (*gorm.DB, error) {
	switch driver {
	case "postgres", "":
		return gorm.Open(postgres.Open(dsn), &gorm.Config{})
	case "sqlite":
		db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
		if err != nil {
			return nil, err
		}
		// sqlite hanya punya satu writer; transaksi paralel diantrekan di pool
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
		return db, nil
	}
	return nil, fmt.Errorf("DB_DRIVER tidak dikenal: %q", driver)
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Breed{},
		&models.PriceEstimate{},
		&models.Goat{},
		&models.Customer{},
		&models.PaymentMethod{},
		&models.Sale{},
		&models.SaleItem{},
		&models.Payment{},
		&models.AuditLog{},
		&models.CodeSequence{},
	)
}
