package model

import (
	"time"

	"gorm.io/gorm"
)

// OrderStatus is the lifecycle state of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusAccepted  OrderStatus = "accepted"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// OrderStatuses lists every accepted status in lifecycle order
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusAccepted,
	OrderStatusPreparing,
	OrderStatusReady,
	OrderStatusCompleted,
	OrderStatusCancelled,
}

// Valid reports whether s is one of the known statuses
func (s OrderStatus) Valid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further progress is expected
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// IsActive reports whether the kitchen still has work to do
func (s OrderStatus) IsActive() bool {
	return s == OrderStatusAccepted || s == OrderStatusPreparing || s == OrderStatusReady
}

// Order is one merchant's part of a buyer checkout
type Order struct {
	ID            uint           `json:"id" gorm:"primarykey"`
	SessionID     string         `json:"sessionId" gorm:"type:varchar(36);index"`
	MerchantID    uint           `json:"merchantId" gorm:"index;not null"`
	Status        OrderStatus    `json:"status" gorm:"type:varchar(20);index;not null;default:pending"`
	TotalAmount   int64          `json:"totalAmount" gorm:"not null;check:total_amount >= 0"`
	CustomerName  string         `json:"customerName" gorm:"type:varchar(255)"`
	CustomerPhone string         `json:"customerPhone" gorm:"type:varchar(32)"`
	Notes         string         `json:"notes" gorm:"type:text"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
	DeletedAt     gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`

	Items        []OrderItem        `json:"items,omitempty" gorm:"foreignKey:OrderID"`
	Merchant     *Merchant          `json:"merchant,omitempty" gorm:"foreignKey:MerchantID"`
	PaymentItems []OrderPaymentItem `json:"-" gorm:"foreignKey:OrderID"`
}

// OrderItem snapshots a menu at the time of ordering
type OrderItem struct {
	ID           uint      `json:"id" gorm:"primarykey"`
	OrderID      uint      `json:"orderId" gorm:"index;not null"`
	MenuID       uint      `json:"menuId" gorm:"index;not null"`
	MenuName     string    `json:"menuName" gorm:"type:varchar(255);not null"`
	Quantity     int       `json:"quantity" gorm:"not null"`
	UnitPrice    int64     `json:"unitPrice" gorm:"not null;check:unit_price >= 0"`
	Subtotal     int64     `json:"subtotal" gorm:"not null"`
	MenuImageURL string    `json:"menuImageUrl" gorm:"type:varchar(500)"`
	Notes        string    `json:"notes" gorm:"type:text"`
	CreatedAt    time.Time `json:"createdAt"`
}
