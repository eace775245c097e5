// Package testutil provides database fixtures for handler and service tests.
package testutil

import (
	"fmt"
	"testing"

	"foodcourt-service/internal/model"
	"foodcourt-service/pkg/config"
	"foodcourt-service/pkg/database"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB opens an isolated in-memory SQLite database, migrates every model
// and installs it as the global database. It is closed when the test ends.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.InitDB(&config.DBConfig{
		Driver:     "sqlite",
		SQLitePath: fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		LogLevel:   logger.Silent,
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := database.MigrateModels(model.All()...); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// CreateMerchant inserts an available merchant with password "secret123"
func CreateMerchant(t *testing.T, db *gorm.DB, name, phone string) *model.Merchant {
	t.Helper()

	var maxNumber int
	db.Unscoped().Model(&model.Merchant{}).Select("COALESCE(MAX(merchant_number), 0)").Scan(&maxNumber)

	m := &model.Merchant{
		Name:           name,
		PhoneNumber:    phone,
		PasswordHash:   HashPassword(t, "secret123"),
		MerchantNumber: maxNumber + 1,
		IsAvailable:    true,
	}
	mustCreate(t, db, m)
	return m
}

// CreateCategory inserts a menu category for the merchant
func CreateCategory(t *testing.T, db *gorm.DB, merchantID uint, name string) *model.MenuCategory {
	t.Helper()

	c := &model.MenuCategory{MerchantID: merchantID, Name: name}
	mustCreate(t, db, c)
	return c
}

// CreateMenu inserts an available menu; categoryID may be zero
func CreateMenu(t *testing.T, db *gorm.DB, merchantID, categoryID uint, name string, price int64) *model.Menu {
	t.Helper()

	m := &model.Menu{MerchantID: merchantID, Name: name, Price: price, IsAvailable: true}
	if categoryID != 0 {
		m.CategoryID = &categoryID
	}
	mustCreate(t, db, m)
	return m
}

// CreateSession inserts a buyer session
func CreateSession(t *testing.T, db *gorm.DB) *model.BuyerSession {
	t.Helper()

	s := &model.BuyerSession{}
	mustCreate(t, db, s)
	return s
}

// CreateOrder inserts an order with a single item for the given menu
func CreateOrder(t *testing.T, db *gorm.DB, sessionID string, menu *model.Menu, qty int, status model.OrderStatus) *model.Order {
	t.Helper()

	subtotal := int64(qty) * menu.Price
	o := &model.Order{
		SessionID:   sessionID,
		MerchantID:  menu.MerchantID,
		Status:      status,
		TotalAmount: subtotal,
		Items: []model.OrderItem{{
			MenuID:    menu.ID,
			MenuName:  menu.Name,
			Quantity:  qty,
			UnitPrice: menu.Price,
			Subtotal:  subtotal,
		}},
	}
	mustCreate(t, db, o)
	return o
}

// CreateAdmin inserts an admin with the given password
func CreateAdmin(t *testing.T, db *gorm.DB, username, password string) *model.Admin {
	t.Helper()

	a := &model.Admin{Username: username, Name: username, PasswordHash: HashPassword(t, password)}
	mustCreate(t, db, a)
	return a
}

// HashPassword hashes with the minimum bcrypt cost to keep tests fast
func HashPassword(t *testing.T, password string) string {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	return string(hash)
}

func mustCreate(t *testing.T, db *gorm.DB, value interface{}) {
	t.Helper()

	if err := db.Create(value).Error; err != nil {
		t.Fatalf("Failed to create fixture %T: %v", value, err)
	}
}
