package service

import (
	"context"
	"errors"
	"sort"
	"strings"

	"foodcourt-service/internal/model"
	"foodcourt-service/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SessionService manages anonymous buyer sessions and their carts
type SessionService struct {
	db *gorm.DB
}

// NewSessionService creates a session service on the given connection
func NewSessionService(db *gorm.DB) *SessionService {
	return &SessionService{db: db}
}

// CartLine is a cart item with its price and availability resolved
type CartLine struct {
	ID          uint   `json:"id"`
	MenuID      uint   `json:"menuId"`
	MerchantID  uint   `json:"merchantId"`
	MenuName    string `json:"menuName"`
	ImageURL    string `json:"imageUrl"`
	UnitPrice   int64  `json:"unitPrice"`
	Quantity    int    `json:"quantity"`
	Subtotal    int64  `json:"subtotal"`
	Notes       string `json:"notes"`
	IsAvailable bool   `json:"isAvailable"`
}

// CartMerchantGroup holds the lines of one merchant
type CartMerchantGroup struct {
	MerchantID   uint       `json:"merchantId"`
	MerchantName string     `json:"merchantName"`
	Items        []CartLine `json:"items"`
	Total        int64      `json:"total"`
}

// Cart is the full cart of a session
type Cart struct {
	SessionID  string              `json:"sessionId"`
	Items      []CartLine          `json:"items"`
	Merchants  []CartMerchantGroup `json:"merchants"`
	TotalItems int                 `json:"totalItems"`
	Total      int64               `json:"total"`
}

// AddToCartInput is the payload for adding a menu to a cart
type AddToCartInput struct {
	MenuID   uint   `json:"menuId"`
	Quantity int    `json:"quantity"`
	Notes    string `json:"notes"`
}

// Create starts a new session; a nil table number leaves it unassigned
func (s *SessionService) Create(ctx context.Context, tableNumber *int) (*model.BuyerSession, error) {
	if err := validateTableNumber(tableNumber); err != nil {
		return nil, err
	}

	session := model.BuyerSession{TableNumber: tableNumber}
	if err := s.db.WithContext(ctx).Create(&session).Error; err != nil {
		return nil, err
	}
	logger.FromStdContext(ctx).Info("Buyer session created", zap.String("session_id", session.ID))
	return &session, nil
}

// Get loads a non-deleted session
func (s *SessionService) Get(ctx context.Context, id string) (*model.BuyerSession, error) {
	var session model.BuyerSession
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}

// UpdateTable assigns the table number of a session
func (s *SessionService) UpdateTable(ctx context.Context, id string, tableNumber *int) (*model.BuyerSession, error) {
	if tableNumber == nil {
		return nil, Invalid("table_number is required")
	}
	if err := validateTableNumber(tableNumber); err != nil {
		return nil, err
	}

	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(session).Update("table_number", *tableNumber).Error; err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func validateTableNumber(tableNumber *int) error {
	if tableNumber != nil && *tableNumber < 0 {
		return Invalid("table_number must be a non-negative integer")
	}
	return nil
}

// AddToCart adds a menu to the cart or increases the quantity of an existing line
func (s *SessionService) AddToCart(ctx context.Context, sessionID string, in AddToCartInput) (*model.CartItem, error) {
	if in.MenuID == 0 {
		return nil, Invalid("menuId is required")
	}
	if in.Quantity == 0 {
		in.Quantity = 1
	}
	if err := checkQuantity(in.Quantity); err != nil {
		return nil, err
	}

	var item model.CartItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := sessionExists(tx, sessionID); err != nil {
			return err
		}

		var menu model.Menu
		if err := tx.First(&menu, in.MenuID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrMenuNotFound
			}
			return err
		}
		if !menu.IsAvailable {
			return Invalid("menu %q is not available", menu.Name)
		}

		err := tx.Where("session_id = ? AND menu_id = ?", sessionID, menu.ID).First(&item).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			item = model.CartItem{
				SessionID: sessionID,
				MenuID:    menu.ID,
				Quantity:  in.Quantity,
				Notes:     strings.TrimSpace(in.Notes),
			}
			return tx.Create(&item).Error
		case err != nil:
			return err
		}

		if err := checkQuantity(item.Quantity + in.Quantity); err != nil {
			return err
		}
		updates := map[string]interface{}{"quantity": item.Quantity + in.Quantity}
		if notes := strings.TrimSpace(in.Notes); notes != "" {
			updates["notes"] = notes
		}
		if err := tx.Model(&item).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&item, item.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// GetCart returns the session's cart grouped by merchant
func (s *SessionService) GetCart(ctx context.Context, sessionID string) (*Cart, error) {
	db := s.db.WithContext(ctx)
	if err := sessionExists(db, sessionID); err != nil {
		return nil, err
	}

	var items []model.CartItem
	if err := db.Preload("Menu").Where("session_id = ?", sessionID).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}

	cart := &Cart{SessionID: sessionID, Items: []CartLine{}, Merchants: []CartMerchantGroup{}}
	groups := map[uint]*CartMerchantGroup{}
	for _, item := range items {
		if item.Menu == nil {
			continue
		}
		line := CartLine{
			ID:          item.ID,
			MenuID:      item.MenuID,
			MerchantID:  item.Menu.MerchantID,
			MenuName:    item.Menu.Name,
			ImageURL:    item.Menu.ImageURL,
			UnitPrice:   item.Menu.Price,
			Quantity:    item.Quantity,
			Subtotal:    item.Menu.Price * int64(item.Quantity),
			Notes:       item.Notes,
			IsAvailable: item.Menu.IsAvailable,
		}
		cart.Items = append(cart.Items, line)
		cart.TotalItems += line.Quantity
		cart.Total += line.Subtotal

		group, ok := groups[line.MerchantID]
		if !ok {
			group = &CartMerchantGroup{MerchantID: line.MerchantID}
			groups[line.MerchantID] = group
		}
		group.Items = append(group.Items, line)
		group.Total += line.Subtotal
	}

	if len(groups) > 0 {
		ids := make([]uint, 0, len(groups))
		for id := range groups {
			ids = append(ids, id)
		}
		var merchants []model.Merchant
		if err := db.Where("id IN ?", ids).Find(&merchants).Error; err != nil {
			return nil, err
		}
		for _, m := range merchants {
			groups[m.ID].MerchantName = m.Name
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		for _, id := range ids {
			cart.Merchants = append(cart.Merchants, *groups[id])
		}
	}
	return cart, nil
}

// UpdateCartItem sets the quantity of a line; zero removes it
func (s *SessionService) UpdateCartItem(ctx context.Context, sessionID string, itemID uint, quantity int, notes *string) error {
	if quantity < 0 {
		return Invalid("quantity must not be negative")
	}
	if quantity == 0 {
		return s.RemoveCartItem(ctx, sessionID, itemID)
	}
	if err := checkQuantity(quantity); err != nil {
		return err
	}

	updates := map[string]interface{}{"quantity": quantity}
	if notes != nil {
		updates["notes"] = strings.TrimSpace(*notes)
	}
	result := s.db.WithContext(ctx).Model(&model.CartItem{}).
		Where("id = ? AND session_id = ?", itemID, sessionID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCartItemNotFound
	}
	return nil
}

// RemoveCartItem deletes one line of the cart
func (s *SessionService) RemoveCartItem(ctx context.Context, sessionID string, itemID uint) error {
	result := s.db.WithContext(ctx).Where("id = ? AND session_id = ?", itemID, sessionID).Delete(&model.CartItem{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCartItemNotFound
	}
	return nil
}

// ClearCart empties the cart of a session
func (s *SessionService) ClearCart(ctx context.Context, sessionID string) error {
	db := s.db.WithContext(ctx)
	if err := sessionExists(db, sessionID); err != nil {
		return err
	}
	return db.Where("session_id = ?", sessionID).Delete(&model.CartItem{}).Error
}

func sessionExists(db *gorm.DB, sessionID string) error {
	if sessionID == "" {
		return Invalid("sessionId is required")
	}
	var count int64
	if err := db.Model(&model.BuyerSession{}).Where("id = ?", sessionID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrSessionNotFound
	}
	return nil
}
