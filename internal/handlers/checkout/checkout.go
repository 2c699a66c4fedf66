package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/lawravasco2207/phone-store-sub001/internal/api"
	"github.com/lawravasco2207/phone-store-sub001/internal/audit"
	"github.com/lawravasco2207/phone-store-sub001/internal/events"
	"github.com/lawravasco2207/phone-store-sub001/internal/models"
	"github.com/lawravasco2207/phone-store-sub001/internal/payment"
	"github.com/lawravasco2207/phone-store-sub001/internal/service/token"
)

type CheckoutHandler struct {
	DB       *gorm.DB
	Payments *payment.Service
	Producer *events.Producer
	Audit    *audit.Logger
}

type checkoutRequest struct {
	PaymentMethod   string `json:"payment_method"`
	ProviderRef     string `json:"provider_ref"`
	ShippingAddress string `json:"shipping_address"`
}

type checkoutResponse struct {
	OrderID       uint               `json:"order_id"`
	Total         float64            `json:"total"`
	Status        string             `json:"status"`
	PaymentStatus string             `json:"payment_status"`
	Items         []models.OrderItem `json:"items"`
}

// Checkout turns the caller's cart into an order inside one database
// transaction: load cart, re-check stock, create order + items,
// decrement stock (and inventory rows when that table exists), record
// the payment, clear the cart. Any validation failure rolls the whole
// thing back. There are no retries and no idempotency keys; two
// concurrent checkouts on the same low-stock product can both pass the
// stock check because nothing locks the rows.
func (h *CheckoutHandler) Checkout(c echo.Context) error {
	userID, ok := token.UserID(c)
	if !ok {
		return api.Err(c, http.StatusUnauthorized, "unauthorized")
	}

	var req checkoutRequest
	if err := c.Bind(&req); err != nil {
		return api.Err(c, http.StatusBadRequest, "invalid body")
	}
	if !payment.KnownMethod(req.PaymentMethod) {
		return api.Err(c, http.StatusBadRequest, "unknown payment method")
	}

	var (
		order      models.Order
		orderItems []models.OrderItem
		pay        models.Payment
		httpErr    *echo.HTTPError
	)

	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		var items []models.CartItem
		if err := tx.Where("user_id = ?", userID).Find(&items).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			httpErr = echo.NewHTTPError(http.StatusBadRequest, "no items in cart")
			return httpErr
		}

		hasInventory := tx.Migrator().HasTable(&models.Inventory{})

		var total float64
		orderItems = make([]models.OrderItem, 0, len(items))
		for _, it := range items {
			var p models.Product
			if err := tx.First(&p, it.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					httpErr = echo.NewHTTPError(http.StatusBadRequest, "product not found")
					return httpErr
				}
				return err
			}

			// Best-effort check only; no row locking here.
			if it.Quantity > p.Stock {
				httpErr = echo.NewHTTPError(http.StatusConflict,
					fmt.Sprintf("not enough stock for %s", p.Name))
				return httpErr
			}

			p.Stock -= it.Quantity
			if err := tx.Save(&p).Error; err != nil {
				return err
			}

			if hasInventory && p.SKU != "" {
				if err := tx.Model(&models.Inventory{}).
					Where("sku = ?", p.SKU).
					Update("stock", gorm.Expr("stock - ?", it.Quantity)).Error; err != nil {
					return err
				}
			}

			total += float64(it.Quantity) * p.Price
			orderItems = append(orderItems, models.OrderItem{
				UserID:    userID,
				ProductID: it.ProductID,
				Quantity:  it.Quantity,
				UnitPrice: p.Price,
			})
		}

		payStatus, err := h.Payments.Verify(c.Request().Context(), req.PaymentMethod, req.ProviderRef, total)
		if err != nil {
			httpErr = echo.NewHTTPError(http.StatusBadRequest, "payment verification failed: "+err.Error())
			return httpErr
		}
		if payStatus == models.PaymentStatusFailed {
			httpErr = echo.NewHTTPError(http.StatusBadRequest, "payment was not completed")
			return httpErr
		}

		orderStatus := models.OrderStatusPending
		if payStatus == models.PaymentStatusCompleted {
			orderStatus = models.OrderStatusPaid
		}

		order = models.Order{
			UserID:          userID,
			Total:           total,
			Status:          orderStatus,
			ShippingAddress: req.ShippingAddress,
			CreatedAt:       time.Now().Unix(),
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		for i := range orderItems {
			orderItems[i].OrderID = order.ID
			if err := tx.Create(&orderItems[i]).Error; err != nil {
				return err
			}
		}

		pay = models.Payment{
			OrderID:     order.ID,
			Method:      req.PaymentMethod,
			ProviderRef: req.ProviderRef,
			Amount:      total,
			Status:      payStatus,
			CreatedAt:   time.Now().Unix(),
		}
		if err := tx.Create(&pay).Error; err != nil {
			return err
		}

		return tx.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error
	})

	if txErr != nil {
		if httpErr != nil {
			return api.Err(c, httpErr.Code, fmt.Sprint(httpErr.Message))
		}
		c.Logger().Errorf("checkout failed: %v", txErr)
		return api.Err(c, http.StatusInternalServerError, "checkout failed")
	}

	// Audit entry and event are written after the commit; losing them
	// does not undo the order.
	h.Audit.Record(c.Request().Context(), userID, "order.checkout", "order", order.ID, map[string]any{
		"total":  order.Total,
		"method": pay.Method,
		"status": pay.Status,
	})
	h.publish(c, map[string]any{
		"type":    "order_created",
		"userID":  userID,
		"orderID": order.ID,
		"total":   order.Total,
		"method":  pay.Method,
	})

	return api.OK(c, http.StatusCreated, checkoutResponse{
		OrderID:       order.ID,
		Total:         order.Total,
		Status:        order.Status,
		PaymentStatus: pay.Status,
		Items:         orderItems,
	})
}

func (h *CheckoutHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, events.TopicOrderEvents, fmt.Sprint(event["orderID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}
