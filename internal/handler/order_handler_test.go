package handler_test

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"foodcourt-service/internal/handler"
	"foodcourt-service/internal/model"
	"foodcourt-service/internal/service"
	"foodcourt-service/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countOrders(t *testing.T, s *testServer) int64 {
	t.Helper()
	var n int64
	require.NoError(t, s.db.Model(&model.Order{}).Count(&n).Error)
	return n
}

func TestBatchOrderCreatesOneOrderPerMerchant(t *testing.T) {
	s := newTestServer(t)
	bakso := testutil.CreateMerchant(t, s.db, "Bakso", "0811")
	jus := testutil.CreateMerchant(t, s.db, "Jus", "0822")
	baksoMenu := testutil.CreateMenu(t, s.db, bakso.ID, 0, "Bakso Urat", 15000)
	jusMenu := testutil.CreateMenu(t, s.db, jus.ID, 0, "Jus Alpukat", 12000)
	session := testutil.CreateSession(t, s.db)

	rec := s.do(http.MethodPost, "/api/orders/batch", map[string]interface{}{
		"sessionId":    session.ID,
		"customerName": "Rina",
		"orders": map[string]interface{}{
			fmt.Sprint(bakso.ID): map[string]interface{}{
				"items": []map[string]interface{}{{"menuId": baksoMenu.ID, "quantity": 2}},
			},
			fmt.Sprint(jus.ID): map[string]interface{}{
				"items": []map[string]interface{}{{"menuId": jusMenu.ID, "quantity": 1}},
				"notes": "no ice",
			},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var result service.BatchOrderResult
	decodeData(t, rec, &result)
	require.Len(t, result.Orders, 2)
	assert.Equal(t, int64(2*15000+12000), result.GrandTotal)
	for _, order := range result.Orders {
		assert.Equal(t, model.OrderStatusPending, order.Status)
		assert.Equal(t, session.ID, order.SessionID)
	}
}

func TestBatchOrderIsAtomic(t *testing.T) {
	s := newTestServer(t)
	m := testutil.CreateMerchant(t, s.db, "Bakso", "0811")
	menu := testutil.CreateMenu(t, s.db, m.ID, 0, "Bakso Urat", 15000)
	session := testutil.CreateSession(t, s.db)

	rec := s.do(http.MethodPost, "/api/orders/batch", map[string]interface{}{
		"sessionId":    session.ID,
		"customerName": "Rina",
		"orders": map[string]interface{}{
			fmt.Sprint(m.ID): map[string]interface{}{
				"items": []map[string]interface{}{{"menuId": menu.ID, "quantity": 1}},
			},
			"999": map[string]interface{}{
				"items": []map[string]interface{}{{"menuId": menu.ID, "quantity": 1}},
			},
		},
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, handler.CodeNotFound, decode(t, rec).Error.Code)
	assert.Equal(t, int64(0), countOrders(t, s))

	rec = s.do(http.MethodPost, "/api/orders/batch", map[string]interface{}{
		"sessionId":    session.ID,
		"customerName": "Rina",
		"orders": map[string]interface{}{
			"not-a-number": map[string]interface{}{"items": []interface{}{}},
		},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, int64(0), countOrders(t, s))
}

func TestUpdateOrderStatus(t *testing.T) {
	s := newTestServer(t)
	owner := testutil.CreateMerchant(t, s.db, "Owner", "0811")
	other := testutil.CreateMerchant(t, s.db, "Other", "0822")
	admin := testutil.CreateAdmin(t, s.db, "admin", "adminpass")
	menu := testutil.CreateMenu(t, s.db, owner.ID, 0, "Mie Ayam", 13000)
	session := testutil.CreateSession(t, s.db)
	order := testutil.CreateOrder(t, s.db, session.ID, menu, 1, model.OrderStatusPending)
	path := fmt.Sprintf("/api/orders/%d/status", order.ID)

	statusOf := func() model.OrderStatus {
		var o model.Order
		require.NoError(t, s.db.First(&o, order.ID).Error)
		return o.Status
	}

	rec := s.do(http.MethodPatch, path, `{"status":"preparing"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, handler.CodeUnauthorized, decode(t, rec).Error.Code)

	rec = s.do(http.MethodPatch, path, `{"status":"shipped"}`, s.asMerchant(owner.ID))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, model.OrderStatusPending, statusOf())

	rec = s.do(http.MethodPatch, path, `{"status":"preparing"}`, s.asMerchant(other.ID))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, model.OrderStatusPending, statusOf())

	rec = s.do(http.MethodPatch, path, `{"status":"preparing"}`, s.asMerchant(owner.ID))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.OrderStatusPreparing, statusOf())

	rec = s.do(http.MethodPatch, path, `{"status":"completed"}`, s.asAdmin(admin.ID))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.OrderStatusCompleted, statusOf())

	rec = s.do(http.MethodPatch, "/api/orders/999/status", `{"status":"ready"}`, s.asAdmin(admin.ID))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"completed"`)
}

func TestGetOrderIncludesPaymentsAndWhatsAppLink(t *testing.T) {
	s := newTestServer(t)
	m := testutil.CreateMerchant(t, s.db, "Nasi Padang", "081234567890")
	menu := testutil.CreateMenu(t, s.db, m.ID, 0, "Rendang", 25000)
	session := testutil.CreateSession(t, s.db)
	order := testutil.CreateOrder(t, s.db, session.ID, menu, 2, model.OrderStatusPending)

	rec := s.do(http.MethodPost, "/api/payments/create", map[string]interface{}{"orderIds": []uint{order.ID}})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(http.MethodGet, fmt.Sprintf("/api/orders/%d", order.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var detail struct {
		model.Order
		Payments    []model.OrderPayment `json:"payments"`
		WhatsAppURL string               `json:"whatsappUrl"`
	}
	decodeData(t, rec, &detail)
	assert.Equal(t, int64(50000), detail.TotalAmount)
	require.Len(t, detail.Items, 1)
	require.Len(t, detail.Payments, 1)
	assert.Equal(t, model.PaymentStatusUnpaid, detail.Payments[0].Status)
	assert.True(t, strings.HasPrefix(detail.WhatsAppURL, "https://wa.me/6281234567890?text="), detail.WhatsAppURL)

	rec = s.do(http.MethodGet, "/api/orders/999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCancelOrder(t *testing.T) {
	s := newTestServer(t)
	m := testutil.CreateMerchant(t, s.db, "Warung", "0811")
	menu := testutil.CreateMenu(t, s.db, m.ID, 0, "Soto", 12000)
	session := testutil.CreateSession(t, s.db)
	pending := testutil.CreateOrder(t, s.db, session.ID, menu, 1, model.OrderStatusPending)
	accepted := testutil.CreateOrder(t, s.db, session.ID, menu, 1, model.OrderStatusAccepted)

	rec := s.do(http.MethodPost, fmt.Sprintf("/api/orders/%d/cancel", pending.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var order model.Order
	decodeData(t, rec, &order)
	assert.Equal(t, model.OrderStatusCancelled, order.Status)

	rec = s.do(http.MethodPost, fmt.Sprintf("/api/orders/%d/cancel", accepted.ID), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, handler.CodeConflict, decode(t, rec).Error.Code)
}
