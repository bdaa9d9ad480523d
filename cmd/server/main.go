package main

import (
	"log"

	"peternakan-backend/internal/config"
	"peternakan-backend/internal/database"
	"peternakan-backend/internal/server"
)

func main() {
	cfg := config.Load()

	settings, err := config.LoadSettings(cfg.SettingsFile)
	if err != nil {
		log.Fatalf("Gagal membaca pengaturan: %v", err)
	}

	database.Init(cfg)

	app := server.New(cfg, settings)

	log.Printf("Server berjalan di :%s", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
