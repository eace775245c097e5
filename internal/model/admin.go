package model

import (
	"time"

	"gorm.io/gorm"
)

// Admin is a back-office operator
type Admin struct {
	ID           uint           `json:"id" gorm:"primarykey"`
	Username     string         `json:"username" gorm:"type:varchar(100);uniqueIndex;not null"`
	PasswordHash string         `json:"-" gorm:"type:varchar(255);not null"`
	Name         string         `json:"name" gorm:"type:varchar(255)"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	DeletedAt    gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`
}

// All returns every model in migration order
func All() []interface{} {
	return []interface{}{
		&Merchant{},
		&MenuCategory{},
		&Menu{},
		&BuyerSession{},
		&CartItem{},
		&Order{},
		&OrderItem{},
		&OrderPayment{},
		&OrderPaymentItem{},
		&Admin{},
	}
}
