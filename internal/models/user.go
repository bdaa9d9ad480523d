package models

import "time"

type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleCashier UserRole = "kasir"
)

func (r UserRole) Valid() bool {
	return r == RoleAdmin || r == RoleCashier
}

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Code         string    `gorm:"size:20;uniqueIndex;not null" json:"kode_user"`
	Name         string    `gorm:"size:100;not null" json:"nama"`
	Email        string    `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Phone        string    `gorm:"size:30" json:"no_telepon"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Role         UserRole  `gorm:"size:20;not null" json:"role"`
	IsActive     bool      `gorm:"not null" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
