package checkout

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lawravasco2207/phone-store-sub001/internal/models"
	"github.com/lawravasco2207/phone-store-sub001/internal/payment"
)

// MpesaCallback handles the asynchronous Daraja result post. The match
// against a pending payment is best effort and the endpoint always
// acknowledges receipt, otherwise Daraja keeps retrying.
func (h *CheckoutHandler) MpesaCallback(c echo.Context) error {
	ack := echo.Map{"ResultCode": 0, "ResultDesc": "Accepted"}

	var cb payment.Callback
	if err := c.Bind(&cb); err != nil {
		c.Logger().Errorf("mpesa callback: bad payload: %v", err)
		return c.JSON(http.StatusOK, ack)
	}

	receipt := cb.Receipt()
	if receipt == "" {
		return c.JSON(http.StatusOK, ack)
	}

	status := models.PaymentStatusCompleted
	if !cb.Succeeded() {
		status = models.PaymentStatusFailed
	}

	var pay models.Payment
	err := h.DB.
		Where("provider_ref = ? AND method = ? AND status = ?",
			receipt, payment.MethodMpesa, models.PaymentStatusPending).
		First(&pay).Error
	if err != nil {
		// Nothing to reconcile; ack anyway.
		return c.JSON(http.StatusOK, ack)
	}

	pay.Status = status
	if err := h.DB.Save(&pay).Error; err != nil {
		c.Logger().Errorf("mpesa callback: save failed: %v", err)
		return c.JSON(http.StatusOK, ack)
	}

	if status == models.PaymentStatusCompleted {
		if err := h.DB.Model(&models.Order{}).
			Where("id = ? AND status = ?", pay.OrderID, models.OrderStatusPending).
			Update("status", models.OrderStatusPaid).Error; err != nil {
			c.Logger().Errorf("mpesa callback: order update failed: %v", err)
		}
	}

	h.publish(c, map[string]any{
		"type":    "mpesa_callback",
		"orderID": pay.OrderID,
		"receipt": receipt,
		"status":  status,
	})

	return c.JSON(http.StatusOK, ack)
}
