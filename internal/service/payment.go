package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"foodcourt-service/internal/model"
	"foodcourt-service/pkg/logger"
	"foodcourt-service/pkg/xendit"
	"foodcourt-service/prometheus"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Sources of a payment status change
const (
	PaymentSourceWebhook  = "webhook"
	PaymentSourceAdmin    = "admin"
	PaymentSourceMerchant = "merchant"
)

// InvoiceGateway creates hosted invoices at the payment provider
type InvoiceGateway interface {
	CreateInvoice(ctx context.Context, in xendit.CreateInvoiceRequest) (*xendit.Invoice, error)
}

// PaymentOptions configures invoice creation
type PaymentOptions struct {
	BaseURL         string
	InvoiceDuration time.Duration
}

// PaymentService creates payments and reconciles them with their orders
type PaymentService struct {
	db      *gorm.DB
	gateway InvoiceGateway
	opts    PaymentOptions
}

// NewPaymentService creates a payment service; gateway may be nil when invoices are not used
func NewPaymentService(db *gorm.DB, gateway InvoiceGateway, opts PaymentOptions) *PaymentService {
	return &PaymentService{db: db, gateway: gateway, opts: opts}
}

// InvoiceInput requests one hosted invoice covering several orders
type InvoiceInput struct {
	OrderIDs    []uint `json:"orderIds"`
	PayerEmail  string `json:"payerEmail"`
	Description string `json:"description"`
}

// PaymentFilter narrows a payment listing
type PaymentFilter struct {
	Status model.PaymentStatus
}

// StatusChange is a payment status update and the details that come with it
type StatusChange struct {
	Status      model.PaymentStatus
	Method      string
	PaidAt      *time.Time
	WebhookData string
	Source      string
}

// CallbackOutcome reports what a gateway callback changed
type CallbackOutcome struct {
	PaymentID     uint                `json:"paymentId"`
	Status        model.PaymentStatus `json:"status"`
	Applied       bool                `json:"applied"`
	OrdersUpdated int64               `json:"ordersUpdated"`
}

// CreateForOrders inserts one unpaid payment and junction row per order, all or nothing
func (s *PaymentService) CreateForOrders(ctx context.Context, orderIDs []uint) ([]model.OrderPayment, error) {
	log := logger.FromStdContext(ctx)
	defer prometheus.TrackDBOperation("insert")(time.Now())

	ids := uniqueIDs(orderIDs)
	if len(ids) == 0 {
		return nil, Invalid("orderIds must not be empty")
	}

	var payments []model.OrderPayment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orders, err := loadOrders(tx, ids)
		if err != nil {
			return err
		}

		for _, order := range orders {
			orderID := order.ID
			payment := model.OrderPayment{
				OrderID: &orderID,
				Amount:  order.TotalAmount,
				Status:  model.PaymentStatusUnpaid,
				Items: []model.OrderPaymentItem{{
					OrderID: order.ID,
					Amount:  order.TotalAmount,
				}},
			}
			if err := tx.Create(&payment).Error; err != nil {
				return err
			}
			payments = append(payments, payment)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	prometheus.RecordPaymentsCreated("per_order", len(payments))
	log.Info("Payments created", zap.Int("count", len(payments)))
	return payments, nil
}

// CreateInvoice opens one gateway invoice for the given pending orders and records it.
// Nothing is persisted when the gateway call fails.
func (s *PaymentService) CreateInvoice(ctx context.Context, in InvoiceInput) (*model.OrderPayment, error) {
	log := logger.FromStdContext(ctx)

	ids := uniqueIDs(in.OrderIDs)
	if len(ids) == 0 {
		return nil, Invalid("orderIds must not be empty")
	}

	orders, err := loadOrders(s.db.WithContext(ctx).Preload("Items"), ids)
	if err != nil {
		return nil, err
	}

	var amount int64
	var items []xendit.InvoiceItem
	refs := make([]string, 0, len(orders))
	for _, order := range orders {
		if order.Status != model.OrderStatusPending {
			return nil, ErrInvalidOrderState
		}
		if amount, err = addAmount(amount, order.TotalAmount); err != nil {
			return nil, err
		}
		refs = append(refs, fmt.Sprintf("#%d", order.ID))
		for _, item := range order.Items {
			items = append(items, xendit.InvoiceItem{Name: item.MenuName, Quantity: item.Quantity, Price: item.UnitPrice})
		}
	}
	if amount <= 0 {
		return nil, Invalid("payment amount must be positive")
	}
	if s.gateway == nil {
		return nil, fmt.Errorf("%w: %v", ErrGateway, xendit.ErrNotConfigured)
	}

	externalID := "foodcourt-" + uuid.NewString()
	description := strings.TrimSpace(in.Description)
	if description == "" {
		description = "Payment for orders " + strings.Join(refs, ", ")
	}
	req := xendit.CreateInvoiceRequest{
		ExternalID:         externalID,
		Amount:             amount,
		PayerEmail:         strings.TrimSpace(in.PayerEmail),
		Description:        description,
		InvoiceDuration:    int64(s.opts.InvoiceDuration.Seconds()),
		SuccessRedirectURL: s.redirectURL("/payment/success", externalID),
		FailureRedirectURL: s.redirectURL("/payment/failed", externalID),
		Items:              items,
	}

	invoice, err := s.gateway.CreateInvoice(ctx, req)
	if err != nil {
		log.Error("Invoice creation failed", zap.String("external_id", externalID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}

	invoiceID := invoice.ID
	payment := model.OrderPayment{
		XenditInvoiceID: &invoiceID,
		PaymentURL:      invoice.InvoiceURL,
		Amount:          amount,
		Status:          model.PaymentStatusUnpaid,
	}
	if len(orders) == 1 {
		payment.OrderID = &orders[0].ID
	}
	for _, order := range orders {
		payment.Items = append(payment.Items, model.OrderPaymentItem{OrderID: order.ID, Amount: order.TotalAmount})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&payment).Error
	}); err != nil {
		log.Error("Invoice created at gateway but not recorded",
			zap.String("invoice_id", invoiceID),
			zap.Error(err))
		return nil, err
	}

	prometheus.RecordPaymentsCreated("invoice", 1)
	log.Info("Invoice payment created",
		zap.Uint("payment_id", payment.ID),
		zap.String("invoice_id", invoiceID),
		zap.Int64("amount", amount),
		zap.Int("order_count", len(orders)))
	return &payment, nil
}

func (s *PaymentService) redirectURL(path, externalID string) string {
	if s.opts.BaseURL == "" {
		return ""
	}
	return strings.TrimRight(s.opts.BaseURL, "/") + path + "?ref=" + url.QueryEscape(externalID)
}

// Get loads a payment with its linked orders
func (s *PaymentService) Get(ctx context.Context, id uint) (*model.OrderPayment, error) {
	var payment model.OrderPayment
	err := s.db.WithContext(ctx).Preload("Items.Order").First(&payment, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// List returns one page of payments, newest first
func (s *PaymentService) List(ctx context.Context, filter PaymentFilter, page Page) ([]model.OrderPayment, Pagination, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	page = page.Normalize()
	scoped := func() *gorm.DB {
		query := s.db.WithContext(ctx).Model(&model.OrderPayment{})
		if filter.Status != "" {
			query = query.Where("status = ?", filter.Status)
		}
		return query
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, Pagination{}, err
	}
	var payments []model.OrderPayment
	if err := scoped().Preload("Items").
		Order("created_at DESC, id DESC").
		Offset(page.Offset()).
		Limit(page.PageSize).
		Find(&payments).Error; err != nil {
		return nil, Pagination{}, err
	}
	return payments, NewPagination(page, total), nil
}

// ForOrder lists the payments covering an order
func (s *PaymentService) ForOrder(ctx context.Context, orderID uint) ([]model.OrderPayment, error) {
	var payments []model.OrderPayment
	err := s.db.WithContext(ctx).
		Where("id IN (?) OR order_id = ?",
			s.db.Model(&model.OrderPaymentItem{}).Select("payment_id").Where("order_id = ?", orderID),
			orderID).
		Order("created_at DESC, id DESC").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

// HandleInvoiceCallback reconciles a payment and its orders with a gateway callback
func (s *PaymentService) HandleInvoiceCallback(ctx context.Context, cb xendit.InvoiceCallback, raw []byte) (*CallbackOutcome, error) {
	log := logger.FromStdContext(ctx)
	defer prometheus.TrackDBOperation("update")(time.Now())

	if strings.TrimSpace(cb.ID) == "" {
		return nil, Invalid("invoice id is required")
	}

	var target model.PaymentStatus
	switch cb.NormalizedStatus() {
	case xendit.StatusPaid, xendit.StatusSettled:
		target = model.PaymentStatusPaid
	case xendit.StatusExpired:
		target = model.PaymentStatusExpired
	case xendit.StatusFailed:
		target = model.PaymentStatusFailed
	}

	outcome := &CallbackOutcome{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var payment model.OrderPayment
		if err := tx.Where("xendit_invoice_id = ?", cb.ID).First(&payment).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPaymentNotFound
			}
			return err
		}
		outcome.PaymentID = payment.ID
		outcome.Status = payment.Status

		if target == "" {
			return nil
		}
		// a settled payment is only reverted manually
		if payment.Status == model.PaymentStatusPaid && target != model.PaymentStatusPaid {
			log.Warn("Ignoring callback for paid invoice",
				zap.String("invoice_id", cb.ID),
				zap.String("provider_status", cb.NormalizedStatus()))
			return nil
		}

		change := StatusChange{
			Status:      target,
			Method:      cb.Method(),
			WebhookData: string(raw),
			Source:      PaymentSourceWebhook,
		}
		if target == model.PaymentStatusPaid {
			paidAt := cb.PaidTime(time.Now())
			change.PaidAt = &paidAt
		}

		updated, err := applyPaymentStatus(tx, &payment, change)
		if err != nil {
			return err
		}
		outcome.Status = target
		outcome.Applied = true
		outcome.OrdersUpdated = updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	if outcome.Applied {
		prometheus.RecordPaymentStatus(string(outcome.Status), PaymentSourceWebhook)
	}
	log.Info("Invoice callback processed",
		zap.String("invoice_id", cb.ID),
		zap.String("provider_status", cb.NormalizedStatus()),
		zap.Bool("applied", outcome.Applied),
		zap.Int64("orders_updated", outcome.OrdersUpdated))
	return outcome, nil
}

// SetStatus manually changes a payment's status and cascades to its orders
func (s *PaymentService) SetStatus(ctx context.Context, paymentID uint, change StatusChange) (*model.OrderPayment, error) {
	if !change.Status.Valid() {
		return nil, Invalid("invalid payment status %q", change.Status)
	}

	var payment model.OrderPayment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&payment, paymentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPaymentNotFound
			}
			return err
		}
		_, err := applyPaymentStatus(tx, &payment, change)
		return err
	})
	if err != nil {
		return nil, err
	}

	prometheus.RecordPaymentStatus(string(change.Status), change.Source)
	logger.FromStdContext(ctx).Info("Payment status set manually",
		zap.Uint("payment_id", paymentID),
		zap.String("status", string(change.Status)),
		zap.String("source", change.Source))
	return s.Get(ctx, paymentID)
}

// SetOrderPaymentStatus records a payment outcome for one order owned by merchantID,
// opening a payment for the order when none exists yet (e.g. cash at the counter)
func (s *PaymentService) SetOrderPaymentStatus(ctx context.Context, merchantID, orderID uint, change StatusChange) (*model.OrderPayment, error) {
	if !change.Status.Valid() {
		return nil, Invalid("invalid payment status %q", change.Status)
	}

	var paymentID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkOrderOwnership(tx, orderID, merchantID); err != nil {
			return err
		}

		var payment model.OrderPayment
		err := tx.Where("id IN (?) OR order_id = ?",
			tx.Session(&gorm.Session{NewDB: true}).Model(&model.OrderPaymentItem{}).Select("payment_id").Where("order_id = ?", orderID),
			orderID).
			Order("id DESC").
			First(&payment).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			var order model.Order
			if err := tx.First(&order, orderID).Error; err != nil {
				return err
			}
			payment = model.OrderPayment{
				OrderID: &order.ID,
				Amount:  order.TotalAmount,
				Status:  model.PaymentStatusUnpaid,
				Items:   []model.OrderPaymentItem{{OrderID: order.ID, Amount: order.TotalAmount}},
			}
			if err := tx.Create(&payment).Error; err != nil {
				return err
			}
			prometheus.RecordPaymentsCreated("manual", 1)
		} else if err != nil {
			return err
		}

		paymentID = payment.ID
		_, err = applyPaymentStatus(tx, &payment, change)
		return err
	})
	if err != nil {
		return nil, err
	}

	prometheus.RecordPaymentStatus(string(change.Status), change.Source)
	logger.FromStdContext(ctx).Info("Order payment status set",
		zap.Uint("order_id", orderID),
		zap.Uint("payment_id", paymentID),
		zap.String("status", string(change.Status)))
	return s.Get(ctx, paymentID)
}

// applyPaymentStatus updates the payment row and moves its still-pending orders:
// paid accepts them, expired or failed cancels them. Orders past pending are left alone.
func applyPaymentStatus(tx *gorm.DB, payment *model.OrderPayment, change StatusChange) (int64, error) {
	updates := map[string]interface{}{"status": change.Status}
	if change.Method != "" {
		updates["payment_method"] = change.Method
	}
	if change.WebhookData != "" {
		updates["webhook_data"] = change.WebhookData
	}
	switch {
	case change.Status == model.PaymentStatusPaid && change.PaidAt != nil:
		updates["paid_at"] = *change.PaidAt
	case change.Status == model.PaymentStatusPaid && payment.PaidAt == nil:
		updates["paid_at"] = time.Now()
	case change.Status != model.PaymentStatusPaid:
		updates["paid_at"] = nil
	}
	if err := tx.Model(payment).Updates(updates).Error; err != nil {
		return 0, err
	}
	payment.Status = change.Status

	var next model.OrderStatus
	switch change.Status {
	case model.PaymentStatusPaid:
		next = model.OrderStatusAccepted
	case model.PaymentStatusExpired, model.PaymentStatusFailed:
		next = model.OrderStatusCancelled
	default:
		return 0, nil
	}

	orderIDs, err := linkedOrderIDs(tx, payment)
	if err != nil {
		return 0, err
	}
	if len(orderIDs) == 0 {
		return 0, nil
	}

	result := tx.Model(&model.Order{}).
		Where("id IN ? AND status = ?", orderIDs, model.OrderStatusPending).
		Update("status", next)
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected > 0 {
		prometheus.RecordOrderStatusUpdate(string(next), change.Source)
	}
	return result.RowsAffected, nil
}

func linkedOrderIDs(tx *gorm.DB, payment *model.OrderPayment) ([]uint, error) {
	var ids []uint
	if err := tx.Model(&model.OrderPaymentItem{}).
		Where("payment_id = ?", payment.ID).
		Pluck("order_id", &ids).Error; err != nil {
		return nil, err
	}
	if payment.OrderID != nil {
		ids = append(ids, *payment.OrderID)
	}
	return uniqueIDs(ids), nil
}

// loadOrders fetches all ids in one query and fails if any is missing; id 0 never matches
func loadOrders(db *gorm.DB, ids []uint) ([]model.Order, error) {
	var orders []model.Order
	if err := db.Where("id IN ?", ids).Order("id ASC").Find(&orders).Error; err != nil {
		return nil, err
	}
	if len(orders) != len(ids) {
		return nil, ErrOrderNotFound
	}
	return orders, nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
