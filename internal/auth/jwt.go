package auth

import (
	"errors"
	"fmt"
	"time"

	"peternakan-backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// masa berlaku token login kasir/admin
const tokenTTL = 24 * time.Hour

var ErrInvalidToken = errors.New("token tidak valid")

type Claims struct {
	UserID uint            `json:"user_id"`
	Email  string          `json:"email"`
	Role   models.UserRole `json:"role"`
	jwt.RegisteredClaims
}

func GenerateToken(secret string, user *models.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Code,
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken memverifikasi tanda tangan HS256 dan masa berlaku, lalu
// menolak token tanpa user id atau dengan role di luar admin/kasir.
func ParseToken(secret, raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.UserID == 0 || !claims.Role.Valid() {
		return nil, fmt.Errorf("%w: klaim user tidak lengkap", ErrInvalidToken)
	}
	return claims, nil
}
