package service

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"
	"time"

	"foodcourt-service/internal/model"
	"foodcourt-service/pkg/logger"
	"foodcourt-service/prometheus"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Roles that may change an order's status
const (
	ActorAdmin    = "admin"
	ActorMerchant = "merchant"
	ActorWebhook  = "webhook"
	ActorBuyer    = "buyer"
)

// MaxItemQuantity caps the quantity of a single order or cart line
const MaxItemQuantity = 1000

// Actor identifies who performs an order update
type Actor struct {
	Role       string
	MerchantID uint
}

// OrderService creates orders and moves them through their lifecycle
type OrderService struct {
	db *gorm.DB
}

// NewOrderService creates an order service on the given connection
func NewOrderService(db *gorm.DB) *OrderService {
	return &OrderService{db: db}
}

// OrderItemInput is one requested line of an order
type OrderItemInput struct {
	MenuID   uint   `json:"menuId"`
	Quantity int    `json:"quantity"`
	Notes    string `json:"notes"`
}

// CreateOrderInput places a single merchant order; without items the session's cart is checked out
type CreateOrderInput struct {
	SessionID     string           `json:"sessionId"`
	MerchantID    uint             `json:"merchantId"`
	CustomerName  string           `json:"customerName"`
	CustomerPhone string           `json:"customerPhone"`
	Notes         string           `json:"notes"`
	Items         []OrderItemInput `json:"items"`
}

// MerchantOrderInput is the part of a batch addressed to one merchant
type MerchantOrderInput struct {
	MerchantID uint
	Items      []OrderItemInput
	Notes      string
}

// BatchOrderInput places one order per merchant in a single transaction
type BatchOrderInput struct {
	SessionID     string
	CustomerName  string
	CustomerPhone string
	Notes         string
	Orders        []MerchantOrderInput
}

// BatchOrderResult lists the orders created by a batch
type BatchOrderResult struct {
	Orders     []model.Order `json:"orders"`
	GrandTotal int64         `json:"grandTotal"`
}

// OrderFilter narrows an order listing; zero values mean no filter
type OrderFilter struct {
	MerchantID uint
	SessionID  string
	Status     model.OrderStatus
}

type customerInfo struct {
	sessionID string
	name      string
	phone     string
}

// Create places one order for one merchant
func (s *OrderService) Create(ctx context.Context, in CreateOrderInput) (*model.Order, error) {
	log := logger.FromStdContext(ctx)
	defer prometheus.TrackDBOperation("insert")(time.Now())

	if in.MerchantID == 0 {
		return nil, Invalid("merchantId is required")
	}
	customer := customerInfo{
		sessionID: strings.TrimSpace(in.SessionID),
		name:      strings.TrimSpace(in.CustomerName),
		phone:     strings.TrimSpace(in.CustomerPhone),
	}

	var order *model.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := sessionExists(tx, customer.sessionID); err != nil {
			return err
		}

		items := in.Items
		var cartItemIDs []uint
		if len(items) == 0 {
			var err error
			items, cartItemIDs, err = cartItemsForMerchant(tx, customer.sessionID, in.MerchantID)
			if err != nil {
				return err
			}
		}

		created, err := createOrderTx(tx, customer, MerchantOrderInput{
			MerchantID: in.MerchantID,
			Items:      items,
			Notes:      in.Notes,
		})
		if err != nil {
			return err
		}
		order = created

		if len(cartItemIDs) > 0 {
			return tx.Where("id IN ?", cartItemIDs).Delete(&model.CartItem{}).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	prometheus.RecordOrdersCreated("single", 1)
	log.Info("Order created",
		zap.Uint("order_id", order.ID),
		zap.Uint("merchant_id", order.MerchantID),
		zap.Int64("total_amount", order.TotalAmount))
	return order, nil
}

// CreateBatch creates one order per merchant; any invalid merchant or menu aborts the whole batch
func (s *OrderService) CreateBatch(ctx context.Context, in BatchOrderInput) (*BatchOrderResult, error) {
	log := logger.FromStdContext(ctx)
	defer prometheus.TrackDBOperation("insert")(time.Now())

	customer := customerInfo{
		sessionID: strings.TrimSpace(in.SessionID),
		name:      strings.TrimSpace(in.CustomerName),
		phone:     strings.TrimSpace(in.CustomerPhone),
	}
	if customer.sessionID == "" {
		return nil, Invalid("sessionId is required")
	}
	if customer.name == "" {
		return nil, Invalid("customerName is required")
	}
	if len(in.Orders) == 0 {
		return nil, Invalid("orders must not be empty")
	}

	orders := append([]MerchantOrderInput(nil), in.Orders...)
	sort.Slice(orders, func(i, j int) bool { return orders[i].MerchantID < orders[j].MerchantID })

	result := &BatchOrderResult{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := sessionExists(tx, customer.sessionID); err != nil {
			return err
		}

		var menuIDs []uint
		for _, mo := range orders {
			if mo.Notes == "" {
				mo.Notes = in.Notes
			}
			order, err := createOrderTx(tx, customer, mo)
			if err != nil {
				log.Warn("Batch order aborted",
					zap.Uint("merchant_id", mo.MerchantID),
					zap.Error(err))
				return err
			}
			result.Orders = append(result.Orders, *order)
			if result.GrandTotal, err = addAmount(result.GrandTotal, order.TotalAmount); err != nil {
				return err
			}
			for _, item := range order.Items {
				menuIDs = append(menuIDs, item.MenuID)
			}
		}

		return tx.Where("session_id = ? AND menu_id IN ?", customer.sessionID, menuIDs).
			Delete(&model.CartItem{}).Error
	})
	if err != nil {
		return nil, err
	}

	prometheus.RecordOrdersCreated("batch", len(result.Orders))
	log.Info("Batch orders created",
		zap.String("session_id", customer.sessionID),
		zap.Int("order_count", len(result.Orders)),
		zap.Int64("grand_total", result.GrandTotal))
	return result, nil
}

// createOrderTx prices the items from the menu rows and inserts the order with its item snapshots
func createOrderTx(tx *gorm.DB, customer customerInfo, in MerchantOrderInput) (*model.Order, error) {
	if in.MerchantID == 0 {
		return nil, Invalid("merchantId is required")
	}
	if len(in.Items) == 0 {
		return nil, Invalid("items must not be empty")
	}

	var merchant model.Merchant
	if err := tx.First(&merchant, in.MerchantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMerchantNotFound
		}
		return nil, err
	}
	if !merchant.IsAvailable {
		return nil, Invalid("merchant %q is not accepting orders", merchant.Name)
	}

	menuIDs := make([]uint, 0, len(in.Items))
	for _, item := range in.Items {
		if item.MenuID == 0 {
			return nil, Invalid("menuId is required")
		}
		if err := checkQuantity(item.Quantity); err != nil {
			return nil, err
		}
		menuIDs = append(menuIDs, item.MenuID)
	}

	var menus []model.Menu
	if err := tx.Where("id IN ? AND merchant_id = ?", menuIDs, merchant.ID).Find(&menus).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]model.Menu, len(menus))
	for _, m := range menus {
		byID[m.ID] = m
	}

	order := model.Order{
		SessionID:     customer.sessionID,
		MerchantID:    merchant.ID,
		Status:        model.OrderStatusPending,
		CustomerName:  customer.name,
		CustomerPhone: customer.phone,
		Notes:         strings.TrimSpace(in.Notes),
	}
	for _, item := range in.Items {
		menu, ok := byID[item.MenuID]
		if !ok {
			return nil, ErrMenuNotFound
		}
		if !menu.IsAvailable {
			return nil, Invalid("menu %q is not available", menu.Name)
		}
		subtotal, err := lineSubtotal(menu.Price, item.Quantity)
		if err != nil {
			return nil, err
		}
		if order.TotalAmount, err = addAmount(order.TotalAmount, subtotal); err != nil {
			return nil, err
		}
		order.Items = append(order.Items, model.OrderItem{
			MenuID:       menu.ID,
			MenuName:     menu.Name,
			Quantity:     item.Quantity,
			UnitPrice:    menu.Price,
			Subtotal:     subtotal,
			MenuImageURL: menu.ImageURL,
			Notes:        strings.TrimSpace(item.Notes),
		})
	}

	if err := tx.Create(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func cartItemsForMerchant(tx *gorm.DB, sessionID string, merchantID uint) ([]OrderItemInput, []uint, error) {
	var cartItems []model.CartItem
	if err := tx.Joins("JOIN menus ON menus.id = cart_items.menu_id AND menus.deleted_at IS NULL").
		Where("cart_items.session_id = ? AND menus.merchant_id = ?", sessionID, merchantID).
		Order("cart_items.id ASC").
		Find(&cartItems).Error; err != nil {
		return nil, nil, err
	}
	if len(cartItems) == 0 {
		return nil, nil, Invalid("cart has no items for this merchant")
	}

	items := make([]OrderItemInput, len(cartItems))
	ids := make([]uint, len(cartItems))
	for i, c := range cartItems {
		items[i] = OrderItemInput{MenuID: c.MenuID, Quantity: c.Quantity, Notes: c.Notes}
		ids[i] = c.ID
	}
	return items, ids, nil
}

// Get loads an order with its items and merchant
func (s *OrderService) Get(ctx context.Context, id uint) (*model.Order, error) {
	var order model.Order
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Merchant").
		First(&order, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// List returns one page of orders, newest first
func (s *OrderService) List(ctx context.Context, filter OrderFilter, page Page) ([]model.Order, Pagination, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	page = page.Normalize()
	scoped := func() *gorm.DB {
		query := s.db.WithContext(ctx).Model(&model.Order{})
		if filter.MerchantID != 0 {
			query = query.Where("merchant_id = ?", filter.MerchantID)
		}
		if filter.SessionID != "" {
			query = query.Where("session_id = ?", filter.SessionID)
		}
		if filter.Status != "" {
			query = query.Where("status = ?", filter.Status)
		}
		return query
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, Pagination{}, err
	}

	var orders []model.Order
	if err := scoped().
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Merchant").
		Order("created_at DESC, id DESC").
		Offset(page.Offset()).
		Limit(page.PageSize).
		Find(&orders).Error; err != nil {
		return nil, Pagination{}, err
	}
	return orders, NewPagination(page, total), nil
}

// ListBySession returns every order placed from a buyer session
func (s *OrderService) ListBySession(ctx context.Context, sessionID string) ([]model.Order, error) {
	db := s.db.WithContext(ctx)
	if err := sessionExists(db, sessionID); err != nil {
		return nil, err
	}

	var orders []model.Order
	if err := db.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Merchant").
		Where("session_id = ?", sessionID).
		Order("created_at DESC, id DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// CheckOwnership verifies through the ordered menus that the order belongs to the merchant
func (s *OrderService) CheckOwnership(ctx context.Context, orderID, merchantID uint) error {
	return checkOrderOwnership(s.db.WithContext(ctx), orderID, merchantID)
}

func checkOrderOwnership(db *gorm.DB, orderID, merchantID uint) error {
	var orderCount int64
	if err := db.Model(&model.Order{}).Where("id = ?", orderID).Count(&orderCount).Error; err != nil {
		return err
	}
	if orderCount == 0 {
		return ErrOrderNotFound
	}

	var owned int64
	if err := db.Table("order_items").
		Joins("JOIN menus ON menus.id = order_items.menu_id").
		Where("order_items.order_id = ? AND menus.merchant_id = ?", orderID, merchantID).
		Count(&owned).Error; err != nil {
		return err
	}
	if owned == 0 {
		return ErrForbidden
	}
	return nil
}

// UpdateStatus sets any known status; merchants may only touch their own orders
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uint, status model.OrderStatus, actor Actor) (*model.Order, error) {
	log := logger.FromStdContext(ctx)
	defer prometheus.TrackDBOperation("update")(time.Now())

	if !status.Valid() {
		return nil, Invalid("invalid status %q", status)
	}

	var order model.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}
		if actor.Role == ActorMerchant {
			if err := checkOrderOwnership(tx, orderID, actor.MerchantID); err != nil {
				return err
			}
		}
		if err := tx.Model(&order).Update("status", status).Error; err != nil {
			return err
		}
		order.Status = status
		return nil
	})
	if err != nil {
		return nil, err
	}

	prometheus.RecordOrderStatusUpdate(string(status), actor.Role)
	log.Info("Order status updated",
		zap.Uint("order_id", order.ID),
		zap.String("status", string(status)),
		zap.String("actor", actor.Role))
	return &order, nil
}

// Cancel cancels a pending order on behalf of the buyer and expires payments left without live orders
func (s *OrderService) Cancel(ctx context.Context, orderID uint) (*model.Order, error) {
	log := logger.FromStdContext(ctx)

	var order model.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}
		if order.Status != model.OrderStatusPending {
			return ErrInvalidOrderState
		}

		result := tx.Model(&model.Order{}).
			Where("id = ? AND status = ?", order.ID, model.OrderStatusPending).
			Update("status", model.OrderStatusCancelled)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrInvalidOrderState
		}
		order.Status = model.OrderStatusCancelled

		return expireAbandonedPayments(tx, []uint{order.ID})
	})
	if err != nil {
		return nil, err
	}

	prometheus.RecordOrderStatusUpdate(string(model.OrderStatusCancelled), ActorBuyer)
	log.Info("Order cancelled by buyer", zap.Uint("order_id", order.ID))
	return &order, nil
}

// expireAbandonedPayments marks unpaid payments of the given orders expired once all their orders are cancelled
func expireAbandonedPayments(tx *gorm.DB, orderIDs []uint) error {
	var paymentIDs []uint
	if err := tx.Model(&model.OrderPaymentItem{}).
		Distinct("order_payment_items.payment_id").
		Joins("JOIN order_payments ON order_payments.id = order_payment_items.payment_id").
		Where("order_payment_items.order_id IN ? AND order_payments.status = ? AND order_payments.deleted_at IS NULL",
			orderIDs, model.PaymentStatusUnpaid).
		Pluck("order_payment_items.payment_id", &paymentIDs).Error; err != nil {
		return err
	}

	for _, paymentID := range paymentIDs {
		var live int64
		if err := tx.Table("order_payment_items").
			Joins("JOIN orders ON orders.id = order_payment_items.order_id").
			Where("order_payment_items.payment_id = ? AND orders.status <> ?", paymentID, model.OrderStatusCancelled).
			Count(&live).Error; err != nil {
			return err
		}
		if live > 0 {
			continue
		}
		if err := tx.Model(&model.OrderPayment{}).
			Where("id = ? AND status = ?", paymentID, model.PaymentStatusUnpaid).
			Update("status", model.PaymentStatusExpired).Error; err != nil {
			return err
		}
	}
	return nil
}

func checkQuantity(quantity int) error {
	if quantity < 1 {
		return Invalid("quantity must be at least 1")
	}
	if quantity > MaxItemQuantity {
		return Invalid("quantity must not exceed %d", MaxItemQuantity)
	}
	return nil
}

// lineSubtotal multiplies price by quantity, rejecting negative prices and overflow
func lineSubtotal(price int64, quantity int) (int64, error) {
	if price < 0 {
		return 0, Invalid("price must not be negative")
	}
	if price > 0 && int64(quantity) > math.MaxInt64/price {
		return 0, Invalid("order total is too large")
	}
	return price * int64(quantity), nil
}

func addAmount(total, amount int64) (int64, error) {
	if amount > math.MaxInt64-total {
		return 0, Invalid("order total is too large")
	}
	return total + amount, nil
}
