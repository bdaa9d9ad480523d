package apperror

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", Validation("items", "wajib diisi"), fiber.StatusBadRequest},
		{"insufficient points", &InsufficientPointsError{Available: 500, Requested: 600}, fiber.StatusBadRequest},
		{"already processed", &AlreadyProcessedError{PaymentID: 1, Status: "confirmed"}, fiber.StatusBadRequest},
		{"unavailable unit", &UnavailableUnitError{GoatID: 3, Code: "KMB003", Status: "Terjual"}, fiber.StatusConflict},
		{"conflict", Conflict("ras %s masih dipakai", "RAS001"), fiber.StatusConflict},
		{"not found", NotFound("penjualan", 9), fiber.StatusNotFound},
		{"wrapped not found", fmt.Errorf("approve: %w", NotFound("payment", 2)), fiber.StatusNotFound},
		{"unknown", errors.New("boom"), fiber.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Status(tc.err))
		})
	}
}

func TestStructuredErrorsUnwrapToConflict(t *testing.T) {
	require.ErrorIs(t, &InsufficientPointsError{}, ErrConflict)
	require.ErrorIs(t, &InsufficientPointsError{}, ErrInsufficientPoints)
	require.ErrorIs(t, &AlreadyProcessedError{}, ErrConflict)
	require.ErrorIs(t, &UnavailableUnitError{}, ErrConflict)
}

func TestErrorHandlerRendersDomainErrors(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/internal", func(c *fiber.Ctx) error { return errors.New("pq: connection refused") })
	app.Get("/unit", func(c *fiber.Ctx) error {
		return &UnavailableUnitError{GoatID: 3, Code: "KMB003", Status: "Terjual"}
	})
	app.Get("/fiber", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusForbidden, "Akses ditolak") })

	cases := []struct {
		path     string
		code     int
		kind     string
		contains string
		hides    string
	}{
		{"/internal", fiber.StatusInternalServerError, "internal", "kesalahan", "pq"},
		{"/unit", fiber.StatusConflict, "conflict", "KMB003", ""},
		{"/fiber", fiber.StatusForbidden, "forbidden", "Akses ditolak", ""},
	}
	for _, tc := range cases {
		resp, err := app.Test(httptest.NewRequest("GET", tc.path, nil), -1)
		require.NoError(t, err)
		require.Equal(t, tc.code, resp.StatusCode, tc.path)

		var body struct {
			Success bool   `json:"success"`
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.False(t, body.Success)
		require.Equal(t, tc.kind, body.Error)
		require.Contains(t, body.Message, tc.contains)
		if tc.hides != "" {
			require.NotContains(t, body.Message, tc.hides)
		}
	}
}
