package model

import (
	"time"

	"gorm.io/gorm"
)

// PaymentStatus is the state of an OrderPayment
type PaymentStatus string

const (
	PaymentStatusUnpaid  PaymentStatus = "unpaid"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusExpired PaymentStatus = "expired"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// PaymentStatuses lists every accepted payment status
var PaymentStatuses = []PaymentStatus{
	PaymentStatusUnpaid,
	PaymentStatusPaid,
	PaymentStatusExpired,
	PaymentStatusFailed,
}

// Valid reports whether s is one of the known payment statuses
func (s PaymentStatus) Valid() bool {
	for _, known := range PaymentStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// OrderPayment tracks a payment covering one or more orders
type OrderPayment struct {
	ID              uint           `json:"id" gorm:"primarykey"`
	OrderID         *uint          `json:"orderId" gorm:"index"`
	XenditInvoiceID *string        `json:"xenditInvoiceId" gorm:"type:varchar(100);uniqueIndex"`
	PaymentURL      string         `json:"paymentUrl" gorm:"type:varchar(500)"`
	Amount          int64          `json:"amount" gorm:"not null;check:amount >= 0"`
	Status          PaymentStatus  `json:"status" gorm:"type:varchar(20);index;not null;default:unpaid"`
	PaymentMethod   string         `json:"paymentMethod" gorm:"type:varchar(100)"`
	PaidAt          *time.Time     `json:"paidAt"`
	WebhookData     string         `json:"webhookData,omitempty" gorm:"type:text"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
	DeletedAt       gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`

	Items []OrderPaymentItem `json:"items,omitempty" gorm:"foreignKey:PaymentID"`
}

// OrderPaymentItem links a payment to an order and the share it covers
type OrderPaymentItem struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	PaymentID uint      `json:"paymentId" gorm:"uniqueIndex:idx_payment_order;not null"`
	OrderID   uint      `json:"orderId" gorm:"uniqueIndex:idx_payment_order;index;not null"`
	Amount    int64     `json:"amount" gorm:"not null"`
	CreatedAt time.Time `json:"createdAt"`

	Order *Order `json:"order,omitempty" gorm:"foreignKey:OrderID"`
}
