package config

import (
	"errors"
	"io/fs"
	"log"
	"strings"

	"github.com/spf13/viper"
)

// Settings adalah pengaturan bisnis peternakan (identitas farm dan aturan
// poin loyalitas), dibaca dari file YAML dan bisa ditimpa lewat env FARM_*.
type Settings struct {
	Farm    FarmSettings    `mapstructure:"farm" json:"farm"`
	Loyalty LoyaltySettings `mapstructure:"loyalty" json:"loyalty"`
}

type FarmSettings struct {
	Name    string `mapstructure:"name" json:"nama"`
	Address string `mapstructure:"address" json:"alamat"`
	Phone   string `mapstructure:"phone" json:"telepon"`
}

type LoyaltySettings struct {
	PointValue    int64 `mapstructure:"point_value" json:"point_value"`
	SpendPerPoint int64 `mapstructure:"spend_per_point" json:"spend_per_point"`
	// kembalikan poin yang ditukar saat transaksi ditolak/dihapus
	RestorePointsOnReversal bool `mapstructure:"restore_points_on_reversal" json:"restore_points_on_reversal"`
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("farm.name", "Peternakan Kambing")
	v.SetDefault("farm.address", "")
	v.SetDefault("farm.phone", "")
	v.SetDefault("loyalty.point_value", 1000)
	v.SetDefault("loyalty.spend_per_point", 100000)
	v.SetDefault("loyalty.restore_points_on_reversal", false)

	v.SetEnvPrefix("FARM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadSettings membaca path (YAML/JSON/TOML sesuai ekstensi). File yang
// tidak ada bukan error: default dipakai.
func LoadSettings(path string) (*Settings, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, err
			}
			log.Printf("[config] %s tidak ditemukan, memakai pengaturan default", path)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, err
	}
	if s.Loyalty.PointValue <= 0 || s.Loyalty.SpendPerPoint <= 0 {
		return nil, errors.New("loyalty.point_value dan loyalty.spend_per_point harus > 0")
	}
	return &s, nil
}
