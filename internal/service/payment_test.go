package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"foodcourt-service/internal/model"
	"foodcourt-service/internal/testutil"
	"foodcourt-service/pkg/xendit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type paymentFixture struct {
	db       *gorm.DB
	merchant *model.Merchant
	menu     *model.Menu
	session  *model.BuyerSession
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	db := testutil.SetupTestDB(t)
	merchant := testutil.CreateMerchant(t, db, "Warung", "0811")
	return &paymentFixture{
		db:       db,
		merchant: merchant,
		menu:     testutil.CreateMenu(t, db, merchant.ID, 0, "Soto", 15000),
		session:  testutil.CreateSession(t, db),
	}
}

func (f *paymentFixture) order(t *testing.T, status model.OrderStatus) *model.Order {
	return testutil.CreateOrder(t, f.db, f.session.ID, f.menu, 2, status)
}

func (f *paymentFixture) invoicePayment(t *testing.T, invoiceID string, orders ...*model.Order) *model.OrderPayment {
	gateway := &fakeGateway{invoice: &xendit.Invoice{ID: invoiceID, InvoiceURL: "https://pay.example/" + invoiceID}}
	ids := make([]uint, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}

	// invoice creation requires pending orders; move them to their fixture state afterwards
	var statuses []model.OrderStatus
	for _, o := range orders {
		statuses = append(statuses, o.Status)
		require.NoError(t, f.db.Model(&model.Order{}).Where("id = ?", o.ID).Update("status", model.OrderStatusPending).Error)
	}
	payment, err := NewPaymentService(f.db, gateway, PaymentOptions{}).CreateInvoice(context.Background(), InvoiceInput{OrderIDs: ids})
	require.NoError(t, err)
	for i, o := range orders {
		require.NoError(t, f.db.Model(&model.Order{}).Where("id = ?", o.ID).Update("status", statuses[i]).Error)
	}
	return payment
}

func (f *paymentFixture) status(t *testing.T, orderID uint) model.OrderStatus {
	var o model.Order
	require.NoError(t, f.db.First(&o, orderID).Error)
	return o.Status
}

func TestCreateForOrders(t *testing.T) {
	f := newPaymentFixture(t)
	o1 := f.order(t, model.OrderStatusPending)
	o2 := f.order(t, model.OrderStatusPending)

	payments, err := NewPaymentService(f.db, nil, PaymentOptions{}).CreateForOrders(context.Background(), []uint{o1.ID, o2.ID, o1.ID})
	require.NoError(t, err)
	require.Len(t, payments, 2)

	for _, p := range payments {
		assert.Equal(t, model.PaymentStatusUnpaid, p.Status)
		assert.Empty(t, p.PaymentURL)
		assert.Equal(t, int64(30000), p.Amount)
		require.Len(t, p.Items, 1)
		assert.Equal(t, *p.OrderID, p.Items[0].OrderID)
	}

	var itemCount int64
	f.db.Model(&model.OrderPaymentItem{}).Count(&itemCount)
	assert.Equal(t, int64(2), itemCount)
}

func TestCreateForOrdersMissingOrderCreatesNothing(t *testing.T) {
	f := newPaymentFixture(t)
	o1 := f.order(t, model.OrderStatusPending)

	_, err := NewPaymentService(f.db, nil, PaymentOptions{}).CreateForOrders(context.Background(), []uint{o1.ID, 777})
	require.ErrorIs(t, err, ErrOrderNotFound)

	var count int64
	f.db.Model(&model.OrderPayment{}).Count(&count)
	assert.Zero(t, count)
}

func TestCreateInvoice(t *testing.T) {
	f := newPaymentFixture(t)
	o1 := f.order(t, model.OrderStatusPending)
	o2 := f.order(t, model.OrderStatusPending)

	gateway := &fakeGateway{invoice: &xendit.Invoice{ID: "inv-123", InvoiceURL: "https://checkout.example/inv-123"}}
	svc := NewPaymentService(f.db, gateway, PaymentOptions{BaseURL: "https://food.example/", InvoiceDuration: time.Hour})

	payment, err := svc.CreateInvoice(context.Background(), InvoiceInput{OrderIDs: []uint{o1.ID, o2.ID}, PayerEmail: "a@b.c"})
	require.NoError(t, err)

	assert.Equal(t, 1, gateway.calls)
	assert.Equal(t, int64(60000), gateway.last.Amount)
	assert.Equal(t, int64(3600), gateway.last.InvoiceDuration)
	assert.Contains(t, gateway.last.SuccessRedirectURL, "https://food.example/payment/success?ref=")
	assert.Len(t, gateway.last.Items, 2)

	assert.Equal(t, "inv-123", *payment.XenditInvoiceID)
	assert.Equal(t, "https://checkout.example/inv-123", payment.PaymentURL)
	assert.Equal(t, int64(60000), payment.Amount)
	assert.Nil(t, payment.OrderID)

	loaded, err := svc.Get(context.Background(), payment.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 2)
	assert.NotNil(t, loaded.Items[0].Order)
}

func TestCreateInvoiceGatewayFailurePersistsNothing(t *testing.T) {
	f := newPaymentFixture(t)
	o1 := f.order(t, model.OrderStatusPending)

	gateway := &fakeGateway{err: errors.New("connection refused")}
	_, err := NewPaymentService(f.db, gateway, PaymentOptions{}).CreateInvoice(context.Background(), InvoiceInput{OrderIDs: []uint{o1.ID}})
	require.ErrorIs(t, err, ErrGateway)

	var count int64
	f.db.Model(&model.OrderPayment{}).Count(&count)
	assert.Zero(t, count)
}

func TestCreateInvoiceRejectsNonPendingOrders(t *testing.T) {
	f := newPaymentFixture(t)
	o1 := f.order(t, model.OrderStatusCancelled)

	gateway := &fakeGateway{invoice: &xendit.Invoice{ID: "inv"}}
	_, err := NewPaymentService(f.db, gateway, PaymentOptions{}).CreateInvoice(context.Background(), InvoiceInput{OrderIDs: []uint{o1.ID}})
	assert.ErrorIs(t, err, ErrInvalidOrderState)
	assert.Zero(t, gateway.calls)
}

func TestHandleInvoiceCallbackPaidOnlyAcceptsPendingOrders(t *testing.T) {
	f := newPaymentFixture(t)
	pending := f.order(t, model.OrderStatusPending)
	preparing := f.order(t, model.OrderStatusPreparing)
	ready := f.order(t, model.OrderStatusReady)
	payment := f.invoicePayment(t, "inv-paid", pending, preparing, ready)

	svc := NewPaymentService(f.db, nil, PaymentOptions{})
	raw := []byte(`{"id":"inv-paid","status":"PAID"}`)
	outcome, err := svc.HandleInvoiceCallback(context.Background(), xendit.InvoiceCallback{
		ID:            "inv-paid",
		Status:        "PAID",
		PaymentMethod: "EWALLET",
		PaidAt:        "2024-05-01T10:00:00Z",
	}, raw)
	require.NoError(t, err)
	assert.True(t, outcome.Applied)
	assert.Equal(t, int64(1), outcome.OrdersUpdated)

	assert.Equal(t, model.OrderStatusAccepted, f.status(t, pending.ID))
	assert.Equal(t, model.OrderStatusPreparing, f.status(t, preparing.ID))
	assert.Equal(t, model.OrderStatusReady, f.status(t, ready.ID))

	var stored model.OrderPayment
	require.NoError(t, f.db.First(&stored, payment.ID).Error)
	assert.Equal(t, model.PaymentStatusPaid, stored.Status)
	assert.Equal(t, "EWALLET", stored.PaymentMethod)
	assert.Equal(t, string(raw), stored.WebhookData)
	require.NotNil(t, stored.PaidAt)
	assert.True(t, stored.PaidAt.Equal(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)))
}

func TestHandleInvoiceCallbackExpiredCancelsOnlyPendingOrders(t *testing.T) {
	f := newPaymentFixture(t)
	pending := f.order(t, model.OrderStatusPending)
	accepted := f.order(t, model.OrderStatusAccepted)
	f.invoicePayment(t, "inv-exp", pending, accepted)

	outcome, err := NewPaymentService(f.db, nil, PaymentOptions{}).HandleInvoiceCallback(context.Background(),
		xendit.InvoiceCallback{ID: "inv-exp", Status: "EXPIRED"}, []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusExpired, outcome.Status)

	assert.Equal(t, model.OrderStatusCancelled, f.status(t, pending.ID))
	assert.Equal(t, model.OrderStatusAccepted, f.status(t, accepted.ID))
}

func TestHandleInvoiceCallbackFailedAndUnknownStatus(t *testing.T) {
	f := newPaymentFixture(t)
	o := f.order(t, model.OrderStatusPending)
	payment := f.invoicePayment(t, "inv-x", o)
	svc := NewPaymentService(f.db, nil, PaymentOptions{})

	outcome, err := svc.HandleInvoiceCallback(context.Background(), xendit.InvoiceCallback{ID: "inv-x", Status: "PENDING"}, nil)
	require.NoError(t, err)
	assert.False(t, outcome.Applied)
	assert.Equal(t, model.PaymentStatusUnpaid, outcome.Status)
	assert.Equal(t, model.OrderStatusPending, f.status(t, o.ID))

	outcome, err = svc.HandleInvoiceCallback(context.Background(), xendit.InvoiceCallback{ID: "inv-x", Status: "FAILED"}, nil)
	require.NoError(t, err)
	assert.True(t, outcome.Applied)
	assert.Equal(t, model.OrderStatusCancelled, f.status(t, o.ID))

	var stored model.OrderPayment
	require.NoError(t, f.db.First(&stored, payment.ID).Error)
	assert.Equal(t, model.PaymentStatusFailed, stored.Status)
}

func TestHandleInvoiceCallbackKeepsPaidPaymentOnLateExpiry(t *testing.T) {
	f := newPaymentFixture(t)
	o := f.order(t, model.OrderStatusPending)
	payment := f.invoicePayment(t, "inv-late", o)
	svc := NewPaymentService(f.db, nil, PaymentOptions{})
	ctx := context.Background()

	_, err := svc.HandleInvoiceCallback(ctx, xendit.InvoiceCallback{
		ID: "inv-late", Status: "PAID", PaidAt: "2024-05-01T10:00:00Z",
	}, []byte(`{"status":"PAID"}`))
	require.NoError(t, err)

	for _, status := range []string{"EXPIRED", "FAILED"} {
		outcome, err := svc.HandleInvoiceCallback(ctx, xendit.InvoiceCallback{ID: "inv-late", Status: status}, []byte(`{}`))
		require.NoError(t, err)
		assert.False(t, outcome.Applied, status)
		assert.Equal(t, model.PaymentStatusPaid, outcome.Status, status)
	}

	var stored model.OrderPayment
	require.NoError(t, f.db.First(&stored, payment.ID).Error)
	assert.Equal(t, model.PaymentStatusPaid, stored.Status)
	require.NotNil(t, stored.PaidAt)
	assert.Equal(t, `{"status":"PAID"}`, stored.WebhookData)
	assert.Equal(t, model.OrderStatusAccepted, f.status(t, o.ID))

	// manual admin override still applies
	_, err = svc.SetStatus(ctx, payment.ID, StatusChange{Status: model.PaymentStatusFailed, Source: PaymentSourceAdmin})
	require.NoError(t, err)
	require.NoError(t, f.db.First(&stored, payment.ID).Error)
	assert.Equal(t, model.PaymentStatusFailed, stored.Status)
}

func TestCreateForOrdersRejectsZeroID(t *testing.T) {
	f := newPaymentFixture(t)
	o := f.order(t, model.OrderStatusPending)

	_, err := NewPaymentService(f.db, nil, PaymentOptions{}).CreateForOrders(context.Background(), []uint{o.ID, 0})
	require.ErrorIs(t, err, ErrOrderNotFound)

	var count int64
	f.db.Model(&model.OrderPayment{}).Count(&count)
	assert.Zero(t, count)
}

func TestHandleInvoiceCallbackUnknownInvoice(t *testing.T) {
	f := newPaymentFixture(t)
	svc := NewPaymentService(f.db, nil, PaymentOptions{})

	_, err := svc.HandleInvoiceCallback(context.Background(), xendit.InvoiceCallback{ID: "nope", Status: "PAID"}, nil)
	assert.ErrorIs(t, err, ErrPaymentNotFound)

	_, err = svc.HandleInvoiceCallback(context.Background(), xendit.InvoiceCallback{Status: "PAID"}, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSetOrderPaymentStatusOpensCashPayment(t *testing.T) {
	f := newPaymentFixture(t)
	o := f.order(t, model.OrderStatusPending)
	stranger := testutil.CreateMerchant(t, f.db, "Other", "0899")
	svc := NewPaymentService(f.db, nil, PaymentOptions{})

	_, err := svc.SetOrderPaymentStatus(context.Background(), stranger.ID, o.ID, StatusChange{Status: model.PaymentStatusPaid})
	require.ErrorIs(t, err, ErrForbidden)

	payment, err := svc.SetOrderPaymentStatus(context.Background(), f.merchant.ID, o.ID,
		StatusChange{Status: model.PaymentStatusPaid, Method: "cash", Source: PaymentSourceMerchant})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPaid, payment.Status)
	assert.Equal(t, "cash", payment.PaymentMethod)
	assert.NotNil(t, payment.PaidAt)
	assert.Equal(t, model.OrderStatusAccepted, f.status(t, o.ID))

	again, err := svc.SetOrderPaymentStatus(context.Background(), f.merchant.ID, o.ID,
		StatusChange{Status: model.PaymentStatusPaid, Method: "cash", Source: PaymentSourceMerchant})
	require.NoError(t, err)
	assert.Equal(t, payment.ID, again.ID)
}

func TestSetStatusValidates(t *testing.T) {
	f := newPaymentFixture(t)
	svc := NewPaymentService(f.db, nil, PaymentOptions{})

	_, err := svc.SetStatus(context.Background(), 1, StatusChange{Status: "refunded"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.SetStatus(context.Background(), 99, StatusChange{Status: model.PaymentStatusPaid})
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}
