package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BuyerSession is an anonymous dine-in cart context
type BuyerSession struct {
	ID          string         `json:"id" gorm:"type:varchar(36);primarykey"`
	TableNumber *int           `json:"tableNumber"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`
}

// BeforeCreate assigns a time ordered UUIDv7 when no ID was given
func (s *BuyerSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID != "" {
		return nil
	}
	id, err := uuid.NewV7()
	if err != nil {
		return err
	}
	s.ID = id.String()
	return nil
}

// CartItem is one menu line in a buyer session's cart
type CartItem struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	SessionID string    `json:"sessionId" gorm:"type:varchar(36);not null;uniqueIndex:idx_cart_session_menu"`
	MenuID    uint      `json:"menuId" gorm:"not null;uniqueIndex:idx_cart_session_menu"`
	Quantity  int       `json:"quantity" gorm:"not null"`
	Notes     string    `json:"notes" gorm:"type:text"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Menu *Menu `json:"menu,omitempty" gorm:"foreignKey:MenuID"`
}
