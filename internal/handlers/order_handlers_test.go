package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lawravasco2207/phone-store-sub001/internal/models"
)

func TestTransitionAllowed(t *testing.T) {
	allowed := [][2]string{
		{models.OrderStatusPending, models.OrderStatusPaid},
		{models.OrderStatusPending, models.OrderStatusCancelled},
		{models.OrderStatusPaid, models.OrderStatusShipped},
		{models.OrderStatusPaid, models.OrderStatusCancelled},
		{models.OrderStatusShipped, models.OrderStatusDelivered},
	}
	for _, tr := range allowed {
		require.True(t, transitionAllowed(tr[0], tr[1]), "%s -> %s", tr[0], tr[1])
	}

	denied := [][2]string{
		{models.OrderStatusPending, models.OrderStatusShipped},
		{models.OrderStatusPending, models.OrderStatusDelivered},
		{models.OrderStatusShipped, models.OrderStatusCancelled},
		{models.OrderStatusDelivered, models.OrderStatusShipped},
		{models.OrderStatusCancelled, models.OrderStatusPaid},
		{models.OrderStatusPaid, models.OrderStatusPaid},
	}
	for _, tr := range denied {
		require.False(t, transitionAllowed(tr[0], tr[1]), "%s -> %s", tr[0], tr[1])
	}
}

func TestListMyOrders(t *testing.T) {
	h := &OrderHandler{DB: initTestDB(t)}

	require.NoError(t, h.DB.Create(&models.Order{UserID: 1, Total: 100, Status: models.OrderStatusPaid}).Error)
	require.NoError(t, h.DB.Create(&models.Order{UserID: 1, Total: 200, Status: models.OrderStatusPending}).Error)
	require.NoError(t, h.DB.Create(&models.Order{UserID: 2, Total: 300, Status: models.OrderStatusPaid}).Error)

	rec, c := newContext(t, http.MethodGet, "/api/v1/orders", nil)
	asUser(c, 1, "user")
	require.NoError(t, h.ListMyOrders(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var orders []models.Order
	decodeEnvelope(t, rec, &orders)
	require.Len(t, orders, 2)
	// Newest first.
	require.Equal(t, 200.0, orders[0].Total)
}

func TestGetMyOrder(t *testing.T) {
	h := &OrderHandler{DB: initTestDB(t)}

	order := models.Order{UserID: 1, Total: 500, Status: models.OrderStatusPaid}
	require.NoError(t, h.DB.Create(&order).Error)
	require.NoError(t, h.DB.Create(&models.OrderItem{OrderID: order.ID, UserID: 1, ProductID: 1, Quantity: 2, UnitPrice: 250}).Error)
	require.NoError(t, h.DB.Create(&models.Payment{OrderID: order.ID, Method: "stripe", Amount: 500, Status: models.PaymentStatusCompleted}).Error)

	rec, c := newContext(t, http.MethodGet, "/api/v1/orders/1", nil)
	c.SetParamNames("id")
	c.SetParamValues("1")
	asUser(c, 1, "user")
	require.NoError(t, h.GetMyOrder(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Order    models.Order       `json:"order"`
		Items    []models.OrderItem `json:"items"`
		Payments []models.Payment   `json:"payments"`
	}
	decodeEnvelope(t, rec, &resp)
	require.Equal(t, order.ID, resp.Order.ID)
	require.Len(t, resp.Items, 1)
	require.Len(t, resp.Payments, 1)
}

func TestGetMyOrderWrongUser(t *testing.T) {
	h := &OrderHandler{DB: initTestDB(t)}

	require.NoError(t, h.DB.Create(&models.Order{UserID: 1, Total: 500, Status: models.OrderStatusPaid}).Error)

	rec, c := newContext(t, http.MethodGet, "/api/v1/orders/1", nil)
	c.SetParamNames("id")
	c.SetParamValues("1")
	asUser(c, 2, "user")
	require.NoError(t, h.GetMyOrder(c))
	requireError(t, rec, http.StatusNotFound)
}

func TestListAllOrdersByStatus(t *testing.T) {
	h := &OrderHandler{DB: initTestDB(t)}

	require.NoError(t, h.DB.Create(&models.Order{UserID: 1, Status: models.OrderStatusPaid}).Error)
	require.NoError(t, h.DB.Create(&models.Order{UserID: 2, Status: models.OrderStatusPending}).Error)

	rec, c := newContext(t, http.MethodGet, "/api/v1/admin/orders?status=paid", nil)
	asUser(c, 99, "admin")
	require.NoError(t, h.ListAllOrders(c))

	var orders []models.Order
	decodeEnvelope(t, rec, &orders)
	require.Len(t, orders, 1)
	require.Equal(t, models.OrderStatusPaid, orders[0].Status)
}

func TestUpdateOrderStatus(t *testing.T) {
	h := &OrderHandler{DB: initTestDB(t)}

	require.NoError(t, h.DB.Create(&models.Order{UserID: 1, Status: models.OrderStatusPaid}).Error)

	rec, c := newContext(t, http.MethodPatch, "/api/v1/admin/orders/1/status", map[string]string{"status": "shipped"})
	c.SetParamNames("id")
	c.SetParamValues("1")
	asUser(c, 99, "admin")
	require.NoError(t, h.UpdateStatus(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var stored models.Order
	require.NoError(t, h.DB.First(&stored, 1).Error)
	require.Equal(t, models.OrderStatusShipped, stored.Status)
}

func TestUpdateOrderStatusIllegalTransition(t *testing.T) {
	h := &OrderHandler{DB: initTestDB(t)}

	require.NoError(t, h.DB.Create(&models.Order{UserID: 1, Status: models.OrderStatusShipped}).Error)

	rec, c := newContext(t, http.MethodPatch, "/api/v1/admin/orders/1/status", map[string]string{"status": "cancelled"})
	c.SetParamNames("id")
	c.SetParamValues("1")
	asUser(c, 99, "admin")
	require.NoError(t, h.UpdateStatus(c))
	requireError(t, rec, http.StatusConflict)

	var stored models.Order
	require.NoError(t, h.DB.First(&stored, 1).Error)
	require.Equal(t, models.OrderStatusShipped, stored.Status)
}

func TestUpdateOrderStatusNotFound(t *testing.T) {
	h := &OrderHandler{DB: initTestDB(t)}

	rec, c := newContext(t, http.MethodPatch, "/api/v1/admin/orders/9/status", map[string]string{"status": "paid"})
	c.SetParamNames("id")
	c.SetParamValues("9")
	asUser(c, 99, "admin")
	require.NoError(t, h.UpdateStatus(c))
	requireError(t, rec, http.StatusNotFound)
}
