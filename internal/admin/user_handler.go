package admin

import (
	"errors"
	"strings"

	"peternakan-backend/internal/apperror"
	"peternakan-backend/internal/audit"
	"peternakan-backend/internal/auth"
	"peternakan-backend/internal/database"
	"peternakan-backend/internal/models"
	"peternakan-backend/internal/sequence"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type CreateUserRequest struct {
	Name     string          `json:"nama"`
	Email    string          `json:"email"`
	Phone    string          `json:"no_telepon"`
	Password string          `json:"password"`
	Role     models.UserRole `json:"role"`
}

type UpdateUserRequest struct {
	Name     *string          `json:"nama"`
	Email    *string          `json:"email"`
	Phone    *string          `json:"no_telepon"`
	Password *string          `json:"password"`
	Role     *models.UserRole `json:"role"`
	IsActive *bool            `json:"is_active"`
}

const minPasswordLength = 6

// GET /api/users
func ListUsersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.User{})
		if role := c.Query("role"); role != "" {
			dbq = dbq.Where("role = ?", role)
		}
		var users []models.User
		if err := dbq.Order("code ASC").Find(&users).Error; err != nil {
			return err
		}
		return c.JSON(users)
	}
}

func GetUserHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "ID user tidak valid")
		}
		var u models.User
		if err := database.DB.First(&u, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("user", id)
			}
			return err
		}
		return c.JSON(u)
	}
}

func CreateUser(db *gorm.DB, actorID uint, body CreateUserRequest) (*models.User, error) {
	body.Name = strings.TrimSpace(body.Name)
	body.Email = strings.TrimSpace(strings.ToLower(body.Email))
	if body.Name == "" || body.Email == "" || body.Password == "" {
		return nil, apperror.Validation("email", "Nama, email dan password wajib diisi")
	}
	if len(body.Password) < minPasswordLength {
		return nil, apperror.Validation("password", "Password minimal 6 karakter")
	}
	if body.Role == "" {
		body.Role = models.RoleCashier
	}
	if !body.Role.Valid() {
		return nil, apperror.Validation("role", "role harus admin atau kasir")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	var u models.User
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := ensureEmailFree(tx, body.Email, 0); err != nil {
			return err
		}
		code, err := sequence.Next(tx, sequence.PrefixUser)
		if err != nil {
			return err
		}
		u = models.User{
			Code:         code,
			Name:         body.Name,
			Email:        body.Email,
			Phone:        strings.TrimSpace(body.Phone),
			PasswordHash: string(hash),
			Role:         body.Role,
			IsActive:     true,
		}
		if err := tx.Create(&u).Error; err != nil {
			return err
		}
		return audit.WriteLog(tx, audit.LogOptions{
			UserID:      actorID,
			EntityType:  audit.EntityUser,
			EntityID:    u.ID,
			Action:      models.AuditActionCreate,
			Description: "Tambah user " + u.Code,
			After:       u,
		})
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func ensureEmailFree(tx *gorm.DB, email string, exceptID uint) error {
	var n int64
	q := tx.Model(&models.User{}).Where("email = ?", email)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return apperror.Conflict("email %s sudah terdaftar", email)
	}
	return nil
}

// POST /api/users
func CreateUserHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actorID, _, err := auth.Actor(c)
		if err != nil {
			return err
		}
		var body CreateUserRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Data tidak valid")
		}
		u, err := CreateUser(database.DB, actorID, body)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(u)
	}
}

func UpdateUser(db *gorm.DB, actorID, id uint, body UpdateUserRequest) (*models.User, error) {
	var u models.User
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&u, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("user", id)
			}
			return err
		}
		before := u

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return apperror.Validation("nama", "Nama tidak boleh kosong")
			}
			u.Name = name
		}
		if body.Email != nil {
			email := strings.TrimSpace(strings.ToLower(*body.Email))
			if email == "" {
				return apperror.Validation("email", "Email tidak boleh kosong")
			}
			if err := ensureEmailFree(tx, email, u.ID); err != nil {
				return err
			}
			u.Email = email
		}
		if body.Phone != nil {
			u.Phone = strings.TrimSpace(*body.Phone)
		}
		if body.Role != nil {
			if !body.Role.Valid() {
				return apperror.Validation("role", "role harus admin atau kasir")
			}
			if u.ID == actorID && *body.Role != u.Role {
				return apperror.Validation("role", "Tidak dapat mengubah role akun sendiri")
			}
			u.Role = *body.Role
		}
		if body.IsActive != nil {
			if u.ID == actorID && !*body.IsActive {
				return apperror.Validation("is_active", "Tidak dapat menonaktifkan akun sendiri")
			}
			u.IsActive = *body.IsActive
		}
		if body.Password != nil && *body.Password != "" {
			if len(*body.Password) < minPasswordLength {
				return apperror.Validation("password", "Password minimal 6 karakter")
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(*body.Password), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			u.PasswordHash = string(hash)
		}

		if err := tx.Save(&u).Error; err != nil {
			return err
		}
		return audit.WriteLog(tx, audit.LogOptions{
			UserID:      actorID,
			EntityType:  audit.EntityUser,
			EntityID:    u.ID,
			Action:      models.AuditActionUpdate,
			Description: "Ubah user " + u.Code,
			Before:      before,
			After:       u,
		})
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// PUT /api/users/:id
func UpdateUserHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actorID, _, err := auth.Actor(c)
		if err != nil {
			return err
		}
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "ID user tidak valid")
		}
		var body UpdateUserRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Data tidak valid")
		}
		u, err := UpdateUser(database.DB, actorID, uint(id), body)
		if err != nil {
			return err
		}
		return c.JSON(u)
	}
}

// DeleteUser menghapus user. User yang sudah pernah mencatat penjualan
// hanya dinonaktifkan supaya riwayat transaksi tetap utuh.
func DeleteUser(db *gorm.DB, actorID, id uint) (deactivated bool, err error) {
	if id == actorID {
		return false, apperror.Validation("id", "Tidak dapat menghapus akun sendiri")
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		var u models.User
		if err := tx.First(&u, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("user", id)
			}
			return err
		}

		var sales int64
		if err := tx.Model(&models.Sale{}).Where("user_id = ?", u.ID).Count(&sales).Error; err != nil {
			return err
		}

		action := models.AuditActionDelete
		desc := "Hapus user " + u.Code
		if sales > 0 {
			deactivated = true
			action = models.AuditActionUpdate
			desc = "Nonaktifkan user " + u.Code
			if err := tx.Model(&u).Update("is_active", false).Error; err != nil {
				return err
			}
		} else if err := tx.Delete(&u).Error; err != nil {
			return err
		}

		return audit.WriteLog(tx, audit.LogOptions{
			UserID:      actorID,
			EntityType:  audit.EntityUser,
			EntityID:    u.ID,
			Action:      action,
			Description: desc,
			Before:      u,
		})
	})
	return deactivated, err
}

// DELETE /api/users/:id
func DeleteUserHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actorID, _, err := auth.Actor(c)
		if err != nil {
			return err
		}
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "ID user tidak valid")
		}
		deactivated, err := DeleteUser(database.DB, actorID, uint(id))
		if err != nil {
			return err
		}
		if deactivated {
			return c.JSON(fiber.Map{"message": "User sudah memiliki transaksi, akun dinonaktifkan"})
		}
		return c.JSON(fiber.Map{"message": "User berhasil dihapus"})
	}
}
