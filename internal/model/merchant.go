package model

import (
	"time"

	"gorm.io/gorm"
)

// Merchant represents a food stall account
type Merchant struct {
	ID             uint           `json:"id" gorm:"primarykey"`
	PhoneNumber    string         `json:"phoneNumber" gorm:"type:varchar(32);uniqueIndex;not null"`
	PasswordHash   string         `json:"-" gorm:"type:varchar(255);not null"`
	MerchantNumber int            `json:"merchantNumber" gorm:"uniqueIndex;not null"`
	Name           string         `json:"name" gorm:"type:varchar(255);not null"`
	Description    string         `json:"description" gorm:"type:text"`
	ImageURL       string         `json:"imageUrl" gorm:"type:varchar(500)"`
	IsAvailable    bool           `json:"isAvailable" gorm:"not null;index"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
	DeletedAt      gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`
}

// MenuCategory groups menus of one merchant
type MenuCategory struct {
	ID         uint           `json:"id" gorm:"primarykey"`
	MerchantID uint           `json:"merchantId" gorm:"index;not null"`
	Name       string         `json:"name" gorm:"type:varchar(100);not null"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
	DeletedAt  gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`

	MenuCount int64 `json:"menuCount" gorm:"-"`
}

// Menu is a sellable item; Price is in the smallest currency unit
type Menu struct {
	ID          uint           `json:"id" gorm:"primarykey"`
	MerchantID  uint           `json:"merchantId" gorm:"index;not null"`
	CategoryID  *uint          `json:"categoryId" gorm:"index"`
	Name        string         `json:"name" gorm:"type:varchar(255);not null"`
	Description string         `json:"description" gorm:"type:text"`
	Price       int64          `json:"price" gorm:"not null;check:price >= 0"`
	ImageURL    string         `json:"imageUrl" gorm:"type:varchar(500)"`
	IsAvailable bool           `json:"isAvailable" gorm:"not null"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`

	Category *MenuCategory `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	Merchant *Merchant     `json:"merchant,omitempty" gorm:"foreignKey:MerchantID"`
}
