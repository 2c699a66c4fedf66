package cart

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/lawravasco2207/phone-store-sub001/internal/api"
	"github.com/lawravasco2207/phone-store-sub001/internal/events"
	"github.com/lawravasco2207/phone-store-sub001/internal/models"
	"github.com/lawravasco2207/phone-store-sub001/internal/service/token"
)

type CartHandler struct {
	DB       *gorm.DB
	Producer *events.Producer
}

func (h *CartHandler) GetCart(c echo.Context) error {
	userID, ok := token.UserID(c)
	if !ok {
		return api.Err(c, http.StatusUnauthorized, "unauthorized")
	}

	var items []models.CartItem
	if err := h.DB.Where("user_id = ?", userID).Find(&items).Error; err != nil {
		return api.Err(c, http.StatusInternalServerError, "database error")
	}

	return api.OK(c, http.StatusOK, items)
}

func (h *CartHandler) AddToCart(c echo.Context) error {
	userID, ok := token.UserID(c)
	if !ok {
		return api.Err(c, http.StatusUnauthorized, "unauthorized")
	}

	var req struct {
		Quantity  uint `json:"quantity"`
		ProductID uint `json:"product_id"`
	}
	if err := c.Bind(&req); err != nil {
		return api.Err(c, http.StatusBadRequest, "invalid body")
	}
	if req.Quantity < 1 {
		req.Quantity = 1
	}

	var product models.Product
	if err := h.DB.First(&product, req.ProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return api.Err(c, http.StatusNotFound, "product not found")
		}
		return api.Err(c, http.StatusInternalServerError, "database error")
	}

	var item models.CartItem
	result := h.DB.Where("user_id = ? AND product_id = ?", userID, req.ProductID).First(&item)
	switch {
	case result.Error == nil:
		if item.Quantity+req.Quantity > product.Stock {
			return api.Err(c, http.StatusConflict, "quantity exceeds available stock")
		}
		item.Quantity += req.Quantity
		if err := h.DB.Save(&item).Error; err != nil {
			return api.Err(c, http.StatusInternalServerError, "database error")
		}
	case errors.Is(result.Error, gorm.ErrRecordNotFound):
		if req.Quantity > product.Stock {
			return api.Err(c, http.StatusConflict, "quantity exceeds available stock")
		}
		item = models.CartItem{
			UserID:    userID,
			ProductID: req.ProductID,
			Quantity:  req.Quantity,
		}
		if err := h.DB.Create(&item).Error; err != nil {
			return api.Err(c, http.StatusInternalServerError, "database error")
		}
	default:
		return api.Err(c, http.StatusInternalServerError, "database error")
	}

	h.publish(c, map[string]any{
		"type":      "cart_item_added",
		"userID":    userID,
		"productID": req.ProductID,
		"quantity":  item.Quantity,
	})

	return api.OK(c, http.StatusOK, item)
}

func (h *CartHandler) DeleteOneFromCart(c echo.Context) error {
	userID, ok := token.UserID(c)
	if !ok {
		return api.Err(c, http.StatusUnauthorized, "unauthorized")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return api.Err(c, http.StatusBadRequest, "invalid id")
	}

	var item models.CartItem
	if err := h.DB.Where("id = ? AND user_id = ?", id, userID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return api.Err(c, http.StatusNotFound, "item not found")
		}
		return api.Err(c, http.StatusInternalServerError, "database error")
	}

	if item.Quantity > 1 {
		item.Quantity -= 1
		if err := h.DB.Save(&item).Error; err != nil {
			return api.Err(c, http.StatusInternalServerError, "database error")
		}

		h.publish(c, map[string]any{
			"type":         "cart_item_decremented",
			"userID":       userID,
			"id":           item.ID,
			"new_quantity": item.Quantity,
		})
		return api.OK(c, http.StatusOK, item)
	}

	if err := h.DB.Delete(&item).Error; err != nil {
		return api.Err(c, http.StatusInternalServerError, "database error")
	}

	h.publish(c, map[string]any{
		"type":         "cart_item_deleted",
		"userID":       userID,
		"deleted_item": id,
	})
	return api.OK(c, http.StatusOK, echo.Map{"deleted_item": id})
}

func (h *CartHandler) DeleteAllFromCart(c echo.Context) error {
	userID, ok := token.UserID(c)
	if !ok {
		return api.Err(c, http.StatusUnauthorized, "unauthorized")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return api.Err(c, http.StatusBadRequest, "invalid id")
	}

	if err := h.DB.
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.CartItem{}).Error; err != nil {
		return api.Err(c, http.StatusInternalServerError, "database error")
	}

	var remaining []models.CartItem
	if err := h.DB.Where("user_id = ?", userID).Find(&remaining).Error; err != nil {
		c.Logger().Errorf("DB read after delete error: %v", err)
	}

	h.publish(c, map[string]any{
		"type":         "cart_item_deleted",
		"userID":       userID,
		"deleted_item": id,
		"remaining":    remaining,
	})

	return api.OK(c, http.StatusOK, remaining)
}
