package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort     string
	DBDriver     string // postgres | sqlite
	DatabaseDSN  string
	JWTSecret    string
	CORSOrigins  string
	UploadPath   string // folder root untuk bukti transfer
	MaxFileSize  int64
	SettingsFile string
}

const defaultDSN = "host=localhost user=postgres password=postgres dbname=peternakan port=5432 sslmode=disable"

func Load() *Config {
	// .env opsional, environment asli tetap menang
	if err := godotenv.Load(); err != nil {
		log.Println("[config] .env tidak ditemukan, memakai environment")
	}

	cfg := &Config{
		HTTPPort:     getEnv("HTTP_PORT", "8080"),
		DBDriver:     getEnv("DB_DRIVER", "postgres"),
		DatabaseDSN:  getEnv("DATABASE_DSN", defaultDSN),
		JWTSecret:    getEnv("JWT_SECRET", ""),
		CORSOrigins:  getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		UploadPath:   getEnv("UPLOAD_PATH", "uploads"),
		MaxFileSize:  getEnvInt64("MAX_FILE_SIZE", 3*1024*1024),
		SettingsFile: getEnv("SETTINGS_FILE", "settings.yaml"),
	}

	if cfg.JWTSecret == "" {
		log.Fatal("[FATAL] JWT_SECRET belum di-set!")
	}
	if len(cfg.JWTSecret) < 32 {
		log.Fatal("[FATAL] JWT_SECRET minimal 32 karakter!")
	}
	if cfg.DBDriver == "postgres" && cfg.DatabaseDSN == defaultDSN {
		log.Println("[WARN] DATABASE_DSN memakai nilai default, set koneksi Postgres sendiri untuk production.")
	}
	if cfg.CORSOrigins == "http://localhost:5173" {
		log.Println("[WARN] CORS_ALLOWED_ORIGINS memakai nilai default.")
	}

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt64(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		log.Printf("[WARN] %s=%q tidak valid, memakai %d", key, v, def)
		return def
	}
	return n
}
