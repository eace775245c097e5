package handler_test

import (
	"fmt"
	"net/http"
	"testing"

	"foodcourt-service/internal/middleware"
	"foodcourt-service/internal/model"
	"foodcourt-service/internal/service"
	"foodcourt-service/internal/testutil"
	"foodcourt-service/pkg/jwtutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminLoginSetsEightHourSession(t *testing.T) {
	s := newTestServer(t)
	testutil.CreateAdmin(t, s.db, "ops", "opspass1")

	rec := s.do(http.MethodPost, "/api/admin/login", `{"username":"ops","password":"bad"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/api/admin/login", `{"username":"ops","password":"opspass1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	cookie := findCookie(rec, middleware.AdminCookieName)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, int(jwtutil.AdminSessionDuration.Seconds()), cookie.MaxAge)

	claims, err := s.jwt.ValidateAdminToken(cookie.Value)
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Username)
	assert.False(t, claims.LoginTime.IsZero())

	rec = s.do(http.MethodGet, "/api/admin/me", nil, func(r *http.Request) { r.AddCookie(cookie) })
	require.Equal(t, http.StatusOK, rec.Code)
	var admin model.Admin
	decodeData(t, rec, &admin)
	assert.Equal(t, "ops", admin.Username)

	rec = s.do(http.MethodGet, "/api/admin/me", nil, s.asMerchant(1))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPut, "/api/admin/profile", `{"name":"Operations"}`, func(r *http.Request) { r.AddCookie(cookie) })
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &admin)
	assert.Equal(t, "Operations", admin.Name)
}

func TestAdminBasicAuth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/admin/auth", nil, func(r *http.Request) { r.SetBasicAuth("root", "rootpass") })
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"root"`)

	rec = s.do(http.MethodGet, "/api/admin/auth", nil, func(r *http.Request) { r.SetBasicAuth("root", "nope") })
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodGet, "/api/admin/auth", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
}

func TestAdminManagesMerchants(t *testing.T) {
	s := newTestServer(t)
	admin := s.asAdmin(testutil.CreateAdmin(t, s.db, "ops", "opspass1").ID)

	rec := s.do(http.MethodPost, "/api/admin/merchants", `{"phoneNumber":"0899","password":"secret123","name":"Pecel Lele"}`, admin)
	require.Equal(t, http.StatusCreated, rec.Code)
	var merchant model.Merchant
	decodeData(t, rec, &merchant)

	rec = s.do(http.MethodPut, fmt.Sprintf("/api/admin/merchants/%d", merchant.ID), `{"isAvailable":false,"password":"newpass1"}`, admin)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodPost, "/api/merchants/login", `{"phoneNumber":"0899","password":"newpass1"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/api/admin/merchants?search=pecel", nil, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	var merchants []model.Merchant
	env := decodeData(t, rec, &merchants)
	require.Len(t, merchants, 1)
	assert.False(t, merchants[0].IsAvailable)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, int64(1), env.Pagination.TotalCount)

	rec = s.do(http.MethodDelete, fmt.Sprintf("/api/admin/merchants/%d", merchant.ID), nil, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(http.MethodGet, fmt.Sprintf("/api/admin/merchants/%d", merchant.ID), nil, admin)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodGet, "/api/admin/merchants", nil, s.asMerchant(merchant.ID))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminManagesCatalog(t *testing.T) {
	s := newTestServer(t)
	admin := s.asAdmin(testutil.CreateAdmin(t, s.db, "ops", "opspass1").ID)
	m := testutil.CreateMerchant(t, s.db, "Warung", "0811")

	rec := s.do(http.MethodPost, "/api/admin/categories", fmt.Sprintf(`{"merchantId":%d,"name":"Snacks"}`, m.ID), admin)
	require.Equal(t, http.StatusCreated, rec.Code)
	var category model.MenuCategory
	decodeData(t, rec, &category)

	rec = s.do(http.MethodPost, "/api/admin/menus", fmt.Sprintf(`{"merchantId":%d,"name":"Pisang Goreng","price":6000,"categoryId":%d}`, m.ID, category.ID), admin)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var menu model.Menu
	decodeData(t, rec, &menu)

	rec = s.do(http.MethodDelete, fmt.Sprintf("/api/admin/categories/%d", category.ID), nil, admin)
	require.Equal(t, http.StatusConflict, rec.Code)
	count := decode(t, rec).Error.MenuCount
	require.NotNil(t, count)
	assert.Equal(t, int64(1), *count)

	rec = s.do(http.MethodPut, fmt.Sprintf("/api/admin/menus/%d", menu.ID), `{"name":"Pisang Coklat"}`, admin)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, fmt.Sprintf("/api/admin/menus?merchantId=%d", m.ID), nil, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	var menus []model.Menu
	decodeData(t, rec, &menus)
	require.Len(t, menus, 1)
	assert.Equal(t, "Pisang Coklat", menus[0].Name)

	rec = s.do(http.MethodDelete, fmt.Sprintf("/api/admin/menus/%d", menu.ID), nil, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(http.MethodPut, fmt.Sprintf("/api/admin/categories/%d", category.ID), `{"name":"Gorengan"}`, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(http.MethodDelete, fmt.Sprintf("/api/admin/categories/%d", category.ID), nil, admin)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/api/admin/categories", nil, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	var categories []model.MenuCategory
	decodeData(t, rec, &categories)
	assert.Empty(t, categories)
}

func TestAdminOrdersAndPayments(t *testing.T) {
	s := newTestServer(t)
	admin := s.asAdmin(testutil.CreateAdmin(t, s.db, "ops", "opspass1").ID)
	m := testutil.CreateMerchant(t, s.db, "Warung", "0811")
	menu := testutil.CreateMenu(t, s.db, m.ID, 0, "Soto", 12000)
	session := testutil.CreateSession(t, s.db)
	order := testutil.CreateOrder(t, s.db, session.ID, menu, 1, model.OrderStatusPending)
	testutil.CreateOrder(t, s.db, session.ID, menu, 1, model.OrderStatusCompleted)

	rec := s.do(http.MethodGet, "/api/admin/orders?status=pending", nil, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	var orders []model.Order
	decodeData(t, rec, &orders)
	require.Len(t, orders, 1)

	rec = s.do(http.MethodGet, "/api/admin/orders?status=bogus", nil, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/api/payments/create", map[string]interface{}{"orderIds": []uint{order.ID}})
	require.Equal(t, http.StatusCreated, rec.Code)
	var payments []model.OrderPayment
	decodeData(t, rec, &payments)
	require.Len(t, payments, 1)

	rec = s.do(http.MethodPatch, fmt.Sprintf("/api/admin/payments/%d/status", payments[0].ID), `{"status":"refunded"}`, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPatch, fmt.Sprintf("/api/admin/payments/%d/status", payments[0].ID), `{"status":"failed"}`, admin)
	require.Equal(t, http.StatusOK, rec.Code)

	var cancelled model.Order
	require.NoError(t, s.db.First(&cancelled, order.ID).Error)
	assert.Equal(t, model.OrderStatusCancelled, cancelled.Status)

	rec = s.do(http.MethodGet, "/api/admin/payments?status=failed", nil, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &payments)
	assert.Len(t, payments, 1)

	rec = s.do(http.MethodPatch, fmt.Sprintf("/api/admin/orders/%d/status", order.ID), `{"status":"ready"}`, admin)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/api/admin/dashboard/stats", nil, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats service.AdminStats
	decodeData(t, rec, &stats)
	assert.Equal(t, int64(1), stats.TotalMerchants)
	assert.Equal(t, int64(2), stats.TotalOrders)
}

func TestDeletedAccountSessionsAreRejected(t *testing.T) {
	s := newTestServer(t)
	ops := testutil.CreateAdmin(t, s.db, "ops", "opspass1")
	admin := s.asAdmin(ops.ID)
	m := testutil.CreateMerchant(t, s.db, "Warung", "0811")
	menu := testutil.CreateMenu(t, s.db, m.ID, 0, "Soto", 12000)
	session := testutil.CreateSession(t, s.db)
	order := testutil.CreateOrder(t, s.db, session.ID, menu, 1, model.OrderStatusPending)
	merchant := s.asMerchant(m.ID)

	rec := s.do(http.MethodGet, "/api/merchants/dashboard/orders", nil, merchant)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodDelete, fmt.Sprintf("/api/admin/merchants/%d", m.ID), nil, admin)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/api/merchants/dashboard/orders", nil, merchant)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = s.do(http.MethodPatch, fmt.Sprintf("/api/merchants/dashboard/orders/%d/status", order.ID), `{"status":"completed"}`, merchant)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = s.do(http.MethodPatch, fmt.Sprintf("/api/orders/%d/status", order.ID), `{"status":"completed"}`, merchant)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var stored model.Order
	require.NoError(t, s.db.First(&stored, order.ID).Error)
	assert.Equal(t, model.OrderStatusPending, stored.Status)

	require.NoError(t, s.db.Delete(&model.Admin{}, ops.ID).Error)
	rec = s.do(http.MethodGet, "/api/admin/me", nil, admin)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
