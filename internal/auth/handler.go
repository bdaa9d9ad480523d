package auth

import (
	"errors"
	"strings"

	"peternakan-backend/internal/config"
	"peternakan-backend/internal/database"
	"peternakan-backend/internal/models"
	"peternakan-backend/internal/sequence"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type RegisterAdminRequest struct {
	Name     string `json:"nama"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UpdateProfileRequest struct {
	Name  *string `json:"nama"`
	Phone *string `json:"no_telepon"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"password_lama"`
	NewPassword string `json:"password_baru"`
}

const minPasswordLength = 6

// POST /api/auth/register-admin - hanya bisa dipakai selama belum ada admin.
func RegisterAdminHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegisterAdminRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Body request tidak valid")
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))
		body.Name = strings.TrimSpace(body.Name)

		if body.Email == "" || body.Password == "" || body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Nama, email dan password wajib diisi")
		}
		if len(body.Password) < minPasswordLength {
			return fiber.NewError(fiber.StatusBadRequest, "Password minimal 6 karakter")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Gagal hash password")
		}

		var user models.User
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			var count int64
			if err := tx.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return fiber.NewError(fiber.StatusForbidden, "Admin sudah ada")
			}

			code, err := sequence.Next(tx, sequence.PrefixUser)
			if err != nil {
				return err
			}
			user = models.User{
				Code:         code,
				Name:         body.Name,
				Email:        body.Email,
				PasswordHash: string(hash),
				Role:         models.RoleAdmin,
				IsActive:     true,
			}
			return tx.Create(&user).Error
		})
		if err != nil {
			return err
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"id":        user.ID,
			"kode_user": user.Code,
			"email":     user.Email,
			"role":      user.Role,
		})
	}
}

func LoginHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Body request tidak valid")
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))

		var user models.User
		if err := database.DB.Where("email = ?", body.Email).First(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Email atau password salah")
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Email atau password salah")
		}

		if !user.IsActive {
			return fiber.NewError(fiber.StatusForbidden, "Akun tidak aktif")
		}

		token, err := GenerateToken(cfg.JWTSecret, &user)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Gagal membuat token")
		}

		return c.JSON(fiber.Map{
			"token": token,
			"user":  user,
		})
	}
}

// POST /api/auth/logout - token JWT stateless, klien cukup membuang token.
func LogoutHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "Logout berhasil"})
	}
}

func MeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := currentUser(c)
		if err != nil {
			return err
		}
		return c.JSON(user)
	}
}

// PUT /api/auth/profile
func UpdateProfileHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := currentUser(c)
		if err != nil {
			return err
		}

		var body UpdateProfileRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Body request tidak valid")
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Nama tidak boleh kosong")
			}
			user.Name = name
		}
		if body.Phone != nil {
			user.Phone = strings.TrimSpace(*body.Phone)
		}

		if err := database.DB.Save(user).Error; err != nil {
			return err
		}
		return c.JSON(user)
	}
}

// PUT /api/auth/password
func ChangePasswordHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := currentUser(c)
		if err != nil {
			return err
		}

		var body ChangePasswordRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Body request tidak valid")
		}
		if len(body.NewPassword) < minPasswordLength {
			return fiber.NewError(fiber.StatusBadRequest, "Password baru minimal 6 karakter")
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.OldPassword)); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Password lama salah")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Gagal hash password")
		}
		if err := database.DB.Model(user).Update("password_hash", string(hash)).Error; err != nil {
			return err
		}

		return c.JSON(fiber.Map{"message": "Password berhasil diubah"})
	}
}

func currentUser(c *fiber.Ctx) (*models.User, error) {
	userID, _, err := Actor(c)
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "User tidak ditemukan")
		}
		return nil, err
	}
	return &user, nil
}
