package audit

import (
	"time"

	"peternakan-backend/internal/database"
	"peternakan-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type AuditLogResponse struct {
	ID          uint               `json:"id"`
	CreatedAt   string             `json:"created_at"`
	UserID      uint               `json:"user_id"`
	UserName    string             `json:"user_name"`
	EntityType  string             `json:"entity_type"`
	EntityID    uint               `json:"entity_id"`
	Action      models.AuditAction `json:"action"`
	Description string             `json:"description"`
	Before      any                `json:"before_data"`
	After       any                `json:"after_data"`
}

// GET /api/audit-logs?entity_type=penjualan&entity_id=1&user_id=2&from=2025-01-01&to=2025-01-31&limit=100
func ListAuditLogsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.AuditLog{})

		if uid := c.QueryInt("user_id"); uid > 0 {
			dbq = dbq.Where("user_id = ?", uid)
		}
		if et := c.Query("entity_type"); et != "" {
			dbq = dbq.Where("entity_type = ?", et)
		}
		if eid := c.QueryInt("entity_id"); eid > 0 {
			dbq = dbq.Where("entity_id = ?", eid)
		}
		if from := c.Query("from"); from != "" {
			t, err := time.ParseInLocation("2006-01-02", from, time.Local)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Format from harus YYYY-MM-DD")
			}
			dbq = dbq.Where("created_at >= ?", t)
		}
		if to := c.Query("to"); to != "" {
			t, err := time.ParseInLocation("2006-01-02", to, time.Local)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Format to harus YYYY-MM-DD")
			}
			dbq = dbq.Where("created_at < ?", t.AddDate(0, 0, 1))
		}

		limit := c.QueryInt("limit", 100)
		if limit <= 0 || limit > 500 {
			limit = 100
		}

		var logs []models.AuditLog
		if err := dbq.Order("created_at DESC, id DESC").Limit(limit).Find(&logs).Error; err != nil {
			return err
		}

		resp := make([]AuditLogResponse, 0, len(logs))
		for _, l := range logs {
			resp = append(resp, AuditLogResponse{
				ID:          l.ID,
				CreatedAt:   l.CreatedAt.Format("2006-01-02 15:04:05"),
				UserID:      l.UserID,
				UserName:    l.UserName,
				EntityType:  l.EntityType,
				EntityID:    l.EntityID,
				Action:      l.Action,
				Description: l.Description,
				Before:      l.BeforeData,
				After:       l.AfterData,
			})
		}

		return c.JSON(resp)
	}
}
