package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/lawravasco2207/phone-store-sub001/internal/api"
	"github.com/lawravasco2207/phone-store-sub001/internal/audit"
	"github.com/lawravasco2207/phone-store-sub001/internal/events"
	"github.com/lawravasco2207/phone-store-sub001/internal/models"
	"github.com/lawravasco2207/phone-store-sub001/internal/service/token"
)

type OrderHandler struct {
	DB       *gorm.DB
	Producer *events.Producer
	Audit    *audit.Logger
}

// Legal admin transitions. Cancel is only possible before shipment.
var orderTransitions = map[string][]string{
	models.OrderStatusPending: {models.OrderStatusPaid, models.OrderStatusCancelled},
	models.OrderStatusPaid:    {models.OrderStatusShipped, models.OrderStatusCancelled},
	models.OrderStatusShipped: {models.OrderStatusDelivered},
}

func transitionAllowed(from, to string) bool {
	for _, s := range orderTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func (h *OrderHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, events.TopicOrderEvents, fmt.Sprint(event["orderID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func (h *OrderHandler) ListMyOrders(c echo.Context) error {
	userID, ok := token.UserID(c)
	if !ok {
		return api.Err(c, http.StatusUnauthorized, "unauthorized")
	}

	var orders []models.Order
	if err := h.DB.Where("user_id = ?", userID).Order("id DESC").Find(&orders).Error; err != nil {
		return api.Err(c, http.StatusInternalServerError, "database error")
	}
	return api.OK(c, http.StatusOK, orders)
}

func (h *OrderHandler) GetMyOrder(c echo.Context) error {
	userID, ok := token.UserID(c)
	if !ok {
		return api.Err(c, http.StatusUnauthorized, "unauthorized")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return api.Err(c, http.StatusBadRequest, "invalid id")
	}

	var order models.Order
	if err := h.DB.Where("id = ? AND user_id = ?", id, userID).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return api.Err(c, http.StatusNotFound, "order not found")
		}
		return api.Err(c, http.StatusInternalServerError, "database error")
	}

	var items []models.OrderItem
	if err := h.DB.Where("order_id = ?", order.ID).Find(&items).Error; err != nil {
		return api.Err(c, http.StatusInternalServerError, "database error")
	}
	var payments []models.Payment
	if err := h.DB.Where("order_id = ?", order.ID).Find(&payments).Error; err != nil {
		return api.Err(c, http.StatusInternalServerError, "database error")
	}

	return api.OK(c, http.StatusOK, echo.Map{
		"order":    order,
		"items":    items,
		"payments": payments,
	})
}

func (h *OrderHandler) ListAllOrders(c echo.Context) error {
	var orders []models.Order
	query := h.DB.Order("id DESC")
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Find(&orders).Error; err != nil {
		return api.Err(c, http.StatusInternalServerError, "database error")
	}
	return api.OK(c, http.StatusOK, orders)
}

func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return api.Err(c, http.StatusBadRequest, "invalid id")
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil || req.Status == "" {
		return api.Err(c, http.StatusBadRequest, "status is required")
	}

	var order models.Order
	if err := h.DB.First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return api.Err(c, http.StatusNotFound, "order not found")
		}
		return api.Err(c, http.StatusInternalServerError, "database error")
	}

	if !transitionAllowed(order.Status, req.Status) {
		return api.Err(c, http.StatusConflict,
			fmt.Sprintf("cannot move order from %s to %s", order.Status, req.Status))
	}

	order.Status = req.Status
	if err := h.DB.Save(&order).Error; err != nil {
		return api.Err(c, http.StatusInternalServerError, "database error")
	}

	if actorID, ok := token.UserID(c); ok {
		h.Audit.Record(c.Request().Context(), actorID, "order.status", "order", order.ID, req.Status)
	}
	h.publish(c, map[string]any{
		"type":    "order_status_changed",
		"orderID": order.ID,
		"status":  req.Status,
	})

	return api.OK(c, http.StatusOK, order)
}
