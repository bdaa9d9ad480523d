package auth

import (
	"strings"
	"testing"
	"time"

	"peternakan-backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestParseToken(t *testing.T) {
	secret := strings.Repeat("s", 32)

	raw, err := GenerateToken(secret, &models.User{ID: 7, Code: "USR007", Email: "k@farm.test", Role: models.RoleCashier})
	require.NoError(t, err)
	claims, err := ParseToken(secret, raw)
	require.NoError(t, err)
	require.EqualValues(t, 7, claims.UserID)
	require.Equal(t, models.RoleCashier, claims.Role)
	require.Equal(t, "USR007", claims.Subject)

	sign := func(c *Claims, method jwt.SigningMethod) string {
		s, err := jwt.NewWithClaims(method, c).SignedString([]byte(secret))
		require.NoError(t, err)
		return s
	}
	valid := jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}

	cases := map[string]string{
		"expired": sign(&Claims{UserID: 1, Role: models.RoleAdmin, RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		}}, jwt.SigningMethodHS256),
		"unknown role": sign(&Claims{UserID: 1, Role: "owner", RegisteredClaims: valid}, jwt.SigningMethodHS256),
		"no user":      sign(&Claims{Role: models.RoleAdmin, RegisteredClaims: valid}, jwt.SigningMethodHS256),
		"other alg":    sign(&Claims{UserID: 1, Role: models.RoleAdmin, RegisteredClaims: valid}, jwt.SigningMethodHS512),
		"garbage":      "bukan.token.jwt",
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseToken(secret, tok)
			require.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
