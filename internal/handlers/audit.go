package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/lawravasco2207/phone-store-sub001/internal/api"
	"github.com/lawravasco2207/phone-store-sub001/internal/models"
	"github.com/lawravasco2207/phone-store-sub001/internal/util"
)

type AuditHandler struct {
	DB *gorm.DB
}

func (h *AuditHandler) ListAuditLogs(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	query := h.DB.Model(&models.AuditLog{})
	if action := c.QueryParam("action"); action != "" {
		query = query.Where("action = ?", action)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return api.Err(c, http.StatusInternalServerError, "database error")
	}

	var logs []models.AuditLog
	if err := query.Order("id DESC").Offset(offset).Limit(limit).Find(&logs).Error; err != nil {
		return api.Err(c, http.StatusInternalServerError, "database error")
	}

	return api.OK(c, http.StatusOK, echo.Map{"total": total, "logs": logs})
}
