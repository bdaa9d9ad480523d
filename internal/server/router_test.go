package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"peternakan-backend/internal/config"
	"peternakan-backend/internal/database"
	"peternakan-backend/internal/models"
	"peternakan-backend/internal/testdb"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

type env struct {
	t   *testing.T
	app *fiber.App
}

func newEnv(t *testing.T) *env {
	database.DB = testdb.New(t)
	cfg := &config.Config{
		JWTSecret:   "test-secret-yang-panjangnya-lebih-dari-32",
		CORSOrigins: "*",
		UploadPath:  t.TempDir(),
		MaxFileSize: 3 * 1024 * 1024,
	}
	settings, err := config.LoadSettings("")
	require.NoError(t, err)
	return &env{t: t, app: New(cfg, settings)}
}

func (e *env) do(method, path, token string, body io.Reader, contentType string) (int, map[string]any) {
	e.t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(e.t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(e.t, err)
	out := map[string]any{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(e.t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func (e *env) json(method, path, token string, body any) (int, map[string]any) {
	e.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(e.t, err)
		r = bytes.NewReader(b)
	}
	return e.do(method, path, token, r, fiber.MIMEApplicationJSON)
}

func (e *env) login(email, password string) string {
	e.t.Helper()
	status, body := e.json(http.MethodPost, "/api/auth/login", "", fiber.Map{"email": email, "password": password})
	require.Equal(e.t, http.StatusOK, status, body)
	return body["token"].(string)
}

func id(m map[string]any) uint {
	return uint(m["id"].(float64))
}

var pngProof = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)

func transferForm(t *testing.T, goatID, methodID uint, price int64) (io.Reader, string) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("nama_pembeli", "Pak Haji"))
	require.NoError(t, w.WriteField("nomor_contact", "0812-3456-7890"))
	require.NoError(t, w.WriteField("metode_pembayaran", "transfer"))
	require.NoError(t, w.WriteField("payment_method_id", fmt.Sprint(methodID)))
	require.NoError(t, w.WriteField("items", fmt.Sprintf(`[{"kambing_id":%d,"harga_jual":%d}]`, goatID, price)))

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="bukti_transfer"; filename="bukti.png"`)
	h.Set("Content-Type", "image/png")
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(pngProof)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestSaleApprovalFlow(t *testing.T) {
	e := newEnv(t)

	status, _ := e.json(http.MethodPost, "/api/auth/register-admin", "", fiber.Map{
		"nama": "Admin", "email": "admin@farm.test", "password": "rahasia1",
	})
	require.Equal(t, http.StatusCreated, status)
	status, _ = e.json(http.MethodPost, "/api/auth/register-admin", "", fiber.Map{
		"nama": "Admin 2", "email": "admin2@farm.test", "password": "rahasia1",
	})
	require.Equal(t, http.StatusForbidden, status)

	adminTok := e.login("admin@farm.test", "rahasia1")

	status, body := e.json(http.MethodPost, "/api/users", adminTok, fiber.Map{
		"nama": "Kasir", "email": "kasir@farm.test", "password": "rahasia1", "role": "kasir",
	})
	require.Equal(t, http.StatusCreated, status, body)
	require.Equal(t, "USR002", body["kode_user"])
	kasirTok := e.login("kasir@farm.test", "rahasia1")

	status, body = e.json(http.MethodPost, "/api/kambing", adminTok, fiber.Map{
		"jenis_kelamin": "Jantan", "harga_beli": 1500000, "range_berat": "25-30 kg",
	})
	require.Equal(t, http.StatusCreated, status, body)
	goatID := id(body)

	status, _ = e.json(http.MethodPost, "/api/kambing", kasirTok, fiber.Map{"jenis_kelamin": "Jantan", "harga_beli": 1})
	require.Equal(t, http.StatusForbidden, status)

	status, body = e.json(http.MethodPost, "/api/payment-methods", adminTok, fiber.Map{
		"nama": "BCA Farm", "bank": "BCA", "nomor_rekening": "123", "atas_nama": "Peternakan",
	})
	require.Equal(t, http.StatusCreated, status, body)
	methodID := id(body)

	form, ct := transferForm(t, goatID, methodID, 2000000)
	status, body = e.do(http.MethodPost, "/api/penjualan", kasirTok, form, ct)
	require.Equal(t, http.StatusCreated, status, body)
	sale := body["data"].(map[string]any)
	require.Equal(t, "PJL001", sale["nomor_penjualan"])
	require.Equal(t, "pending", sale["payment_status"])
	paymentID := id(sale["payment"].(map[string]any))

	var goat models.Goat
	require.NoError(t, database.DB.First(&goat, goatID).Error)
	require.Equal(t, models.GoatReserved, goat.Status)

	// unit yang sudah dipesan tidak bisa dijual lagi
	form, ct = transferForm(t, goatID, methodID, 2100000)
	status, body = e.do(http.MethodPost, "/api/penjualan", kasirTok, form, ct)
	require.Equal(t, http.StatusConflict, status)
	require.Equal(t, false, body["success"])

	status, _ = e.json(http.MethodGet, "/api/payments?status=pending", kasirTok, nil)
	require.Equal(t, http.StatusForbidden, status)

	status, body = e.json(http.MethodGet, "/api/payments?limit=5", adminTok, nil)
	require.Equal(t, http.StatusOK, status, body)
	require.Len(t, body["data"].([]any), 1)
	require.Equal(t, map[string]any{
		"page": float64(1), "limit": float64(5), "total": float64(1), "total_pages": float64(1),
	}, body["pagination"])

	status, body = e.json(http.MethodPut, fmt.Sprintf("/api/payments/%d/approve", paymentID), adminTok, nil)
	require.Equal(t, http.StatusOK, status, body)

	// default hanya pending
	status, body = e.json(http.MethodGet, "/api/payments", adminTok, nil)
	require.Equal(t, http.StatusOK, status)
	require.Empty(t, body["data"])
	require.EqualValues(t, 0, body["pagination"].(map[string]any)["total"])

	status, body = e.json(http.MethodGet, "/api/payments?status=all", adminTok, nil)
	require.Equal(t, http.StatusOK, status)
	rows := body["data"].([]any)
	require.Len(t, rows, 1)
	approver := rows[0].(map[string]any)["confirmed_by_user"].(map[string]any)
	require.Equal(t, "admin@farm.test", approver["email"])

	require.NoError(t, database.DB.First(&goat, goatID).Error)
	require.Equal(t, models.GoatSold, goat.Status)

	status, _ = e.json(http.MethodPut, fmt.Sprintf("/api/payments/%d/approve", paymentID), adminTok, nil)
	require.Equal(t, http.StatusBadRequest, status)

	status, body = e.json(http.MethodGet, "/api/penjualan/check-points?contact=081234567890", kasirTok, nil)
	require.Equal(t, http.StatusOK, status)
	bal := body["data"].(map[string]any)
	require.Equal(t, true, bal["exists"])
	require.EqualValues(t, 20, bal["points"])

	status, _ = e.json(http.MethodDelete, "/api/penjualan/1", kasirTok, nil)
	require.Equal(t, http.StatusForbidden, status)
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	e := newEnv(t)

	status, body := e.json(http.MethodGet, "/api/ras", "", nil)
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, "unauthorized", body["error"])

	status, _ = e.json(http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, status)
}
