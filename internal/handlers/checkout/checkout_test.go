package checkout

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/lawravasco2207/phone-store-sub001/internal/config"
	"github.com/lawravasco2207/phone-store-sub001/internal/models"
	"github.com/lawravasco2207/phone-store-sub001/internal/payment"
)

func initTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	if err := config.Migrate(db); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}
	return db
}

func newContext(t *testing.T, method, target string, body interface{}) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	e := echo.New()
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return rec, e.NewContext(req, rec)
}

func asUser(c echo.Context, id uint) {
	c.Set("userID", id)
	c.Set("role", "user")
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()

	var env struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   string          `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.True(t, env.Success, "expected success envelope, got error: %s", env.Error)
	if dst != nil {
		require.NoError(t, json.Unmarshal(env.Data, dst))
	}
}

// newHandler wires a checkout handler against a dev-mode payment service,
// which trusts every proof without calling a provider.
func newHandler(t *testing.T) *CheckoutHandler {
	t.Helper()
	return &CheckoutHandler{
		DB:       initTestDB(t),
		Payments: &payment.Service{Production: false},
	}
}

func seedCart(t *testing.T, db *gorm.DB, userID uint) models.Product {
	t.Helper()

	prod := models.Product{SKU: "PH-1", Name: "Phone One", Description: "x", Price: 250, Stock: 10}
	require.NoError(t, db.Create(&prod).Error)
	require.NoError(t, db.Create(&models.Inventory{SKU: "PH-1", Stock: 10}).Error)
	require.NoError(t, db.Create(&models.CartItem{UserID: userID, ProductID: prod.ID, Quantity: 2}).Error)
	return prod
}

func TestCheckout(t *testing.T) {
	h := newHandler(t)
	prod := seedCart(t, h.DB, 1)

	rec, c := newContext(t, http.MethodPost, "/api/v1/checkout", map[string]string{
		"payment_method":   "stripe",
		"provider_ref":     "pi_test_123",
		"shipping_address": "42 Moi Avenue",
	})
	asUser(c, 1)

	require.NoError(t, h.Checkout(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp checkoutResponse
	decodeData(t, rec, &resp)
	require.Equal(t, 500.0, resp.Total)
	require.Equal(t, models.OrderStatusPaid, resp.Status)
	require.Equal(t, models.PaymentStatusCompleted, resp.PaymentStatus)
	require.Len(t, resp.Items, 1)
	require.Equal(t, 250.0, resp.Items[0].UnitPrice)

	// Stock was decremented on both the product and its inventory row.
	var stored models.Product
	require.NoError(t, h.DB.First(&stored, prod.ID).Error)
	require.Equal(t, uint(8), stored.Stock)

	var inv models.Inventory
	require.NoError(t, h.DB.Where("sku = ?", "PH-1").First(&inv).Error)
	require.Equal(t, 8, inv.Stock)

	// The cart is empty and the payment is on record.
	var cartCount int64
	h.DB.Model(&models.CartItem{}).Where("user_id = ?", 1).Count(&cartCount)
	require.Zero(t, cartCount)

	var pay models.Payment
	require.NoError(t, h.DB.Where("order_id = ?", resp.OrderID).First(&pay).Error)
	require.Equal(t, "stripe", pay.Method)
	require.Equal(t, "pi_test_123", pay.ProviderRef)
	require.Equal(t, 500.0, pay.Amount)
}

func TestCheckoutEmptyCart(t *testing.T) {
	h := newHandler(t)

	rec, c := newContext(t, http.MethodPost, "/api/v1/checkout", map[string]string{
		"payment_method": "stripe",
	})
	asUser(c, 1)

	require.NoError(t, h.Checkout(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckoutUnknownMethod(t *testing.T) {
	h := newHandler(t)
	seedCart(t, h.DB, 1)

	rec, c := newContext(t, http.MethodPost, "/api/v1/checkout", map[string]string{
		"payment_method": "barter",
	})
	asUser(c, 1)

	require.NoError(t, h.Checkout(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckoutInsufficientStock(t *testing.T) {
	h := newHandler(t)

	prod := models.Product{SKU: "PH-1", Name: "Phone", Description: "x", Price: 100, Stock: 1}
	require.NoError(t, h.DB.Create(&prod).Error)
	require.NoError(t, h.DB.Create(&models.CartItem{UserID: 1, ProductID: prod.ID, Quantity: 3}).Error)

	rec, c := newContext(t, http.MethodPost, "/api/v1/checkout", map[string]string{
		"payment_method": "cod",
	})
	asUser(c, 1)

	require.NoError(t, h.Checkout(c))
	require.Equal(t, http.StatusConflict, rec.Code)

	// Everything rolled back: no order, stock untouched, cart intact.
	var orders int64
	h.DB.Model(&models.Order{}).Count(&orders)
	require.Zero(t, orders)

	var stored models.Product
	require.NoError(t, h.DB.First(&stored, prod.ID).Error)
	require.Equal(t, uint(1), stored.Stock)

	var cartCount int64
	h.DB.Model(&models.CartItem{}).Where("user_id = ?", 1).Count(&cartCount)
	require.Equal(t, int64(1), cartCount)
}

func TestCheckoutCODStaysPending(t *testing.T) {
	h := newHandler(t)
	seedCart(t, h.DB, 1)

	rec, c := newContext(t, http.MethodPost, "/api/v1/checkout", map[string]string{
		"payment_method": "cod",
	})
	asUser(c, 1)

	require.NoError(t, h.Checkout(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp checkoutResponse
	decodeData(t, rec, &resp)
	require.Equal(t, models.OrderStatusPending, resp.Status)
	require.Equal(t, models.PaymentStatusPending, resp.PaymentStatus)
}

func TestCheckoutSkipsInventoryWithoutSKU(t *testing.T) {
	h := newHandler(t)

	prod := models.Product{Name: "Legacy Phone", Description: "no sku", Price: 50, Stock: 4}
	require.NoError(t, h.DB.Create(&prod).Error)
	require.NoError(t, h.DB.Create(&models.CartItem{UserID: 1, ProductID: prod.ID, Quantity: 1}).Error)

	rec, c := newContext(t, http.MethodPost, "/api/v1/checkout", map[string]string{
		"payment_method": "paypal",
		"provider_ref":   "order_abc",
	})
	asUser(c, 1)

	require.NoError(t, h.Checkout(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var stored models.Product
	require.NoError(t, h.DB.First(&stored, prod.ID).Error)
	require.Equal(t, uint(3), stored.Stock)
}

func mpesaCallbackBody(receipt string, resultCode int) map[string]any {
	meta := map[string]any{"Item": []map[string]any{}}
	if receipt != "" {
		meta["Item"] = []map[string]any{
			{"Name": "Amount", "Value": 500.0},
			{"Name": "MpesaReceiptNumber", "Value": receipt},
			{"Name": "PhoneNumber", "Value": 254700000000},
		}
	}
	return map[string]any{
		"Body": map[string]any{
			"stkCallback": map[string]any{
				"MerchantRequestID": "merch-1",
				"CheckoutRequestID": "chk-1",
				"ResultCode":        resultCode,
				"ResultDesc":        "ok",
				"CallbackMetadata":  meta,
			},
		},
	}
}

func requireAck(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code)

	var ack struct {
		ResultCode int    `json:"ResultCode"`
		ResultDesc string `json:"ResultDesc"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ack))
	require.Zero(t, ack.ResultCode)
}

func TestMpesaCallbackPromotesOrder(t *testing.T) {
	h := newHandler(t)

	order := models.Order{UserID: 1, Total: 500, Status: models.OrderStatusPending}
	require.NoError(t, h.DB.Create(&order).Error)
	require.NoError(t, h.DB.Create(&models.Payment{
		OrderID:     order.ID,
		Method:      payment.MethodMpesa,
		ProviderRef: "QBC123XYZ",
		Amount:      500,
		Status:      models.PaymentStatusPending,
	}).Error)

	rec, c := newContext(t, http.MethodPost, "/api/v1/payments/mpesa/callback", mpesaCallbackBody("QBC123XYZ", 0))
	require.NoError(t, h.MpesaCallback(c))
	requireAck(t, rec)

	var pay models.Payment
	require.NoError(t, h.DB.Where("order_id = ?", order.ID).First(&pay).Error)
	require.Equal(t, models.PaymentStatusCompleted, pay.Status)

	var stored models.Order
	require.NoError(t, h.DB.First(&stored, order.ID).Error)
	require.Equal(t, models.OrderStatusPaid, stored.Status)
}

func TestMpesaCallbackFailureMarksPayment(t *testing.T) {
	h := newHandler(t)

	order := models.Order{UserID: 1, Total: 500, Status: models.OrderStatusPending}
	require.NoError(t, h.DB.Create(&order).Error)
	require.NoError(t, h.DB.Create(&models.Payment{
		OrderID:     order.ID,
		Method:      payment.MethodMpesa,
		ProviderRef: "QBC123XYZ",
		Amount:      500,
		Status:      models.PaymentStatusPending,
	}).Error)

	rec, c := newContext(t, http.MethodPost, "/api/v1/payments/mpesa/callback", mpesaCallbackBody("QBC123XYZ", 1032))
	require.NoError(t, h.MpesaCallback(c))
	requireAck(t, rec)

	var pay models.Payment
	require.NoError(t, h.DB.Where("order_id = ?", order.ID).First(&pay).Error)
	require.Equal(t, models.PaymentStatusFailed, pay.Status)

	var stored models.Order
	require.NoError(t, h.DB.First(&stored, order.ID).Error)
	require.Equal(t, models.OrderStatusPending, stored.Status)
}

func TestMpesaCallbackUnknownReceiptStillAcks(t *testing.T) {
	h := newHandler(t)

	rec, c := newContext(t, http.MethodPost, "/api/v1/payments/mpesa/callback", mpesaCallbackBody("NOPE", 0))
	require.NoError(t, h.MpesaCallback(c))
	requireAck(t, rec)
}

func TestMpesaCallbackNoReceiptStillAcks(t *testing.T) {
	h := newHandler(t)

	rec, c := newContext(t, http.MethodPost, "/api/v1/payments/mpesa/callback", mpesaCallbackBody("", 0))
	require.NoError(t, h.MpesaCallback(c))
	requireAck(t, rec)
}
