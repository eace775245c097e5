package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStatusValid(t *testing.T) {
	for _, s := range OrderStatuses {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, OrderStatus("shipped").Valid())
	assert.False(t, OrderStatus("").Valid())
	assert.False(t, OrderStatus("PENDING").Valid())

	assert.True(t, OrderStatusCompleted.IsTerminal())
	assert.True(t, OrderStatusCancelled.IsTerminal())
	assert.False(t, OrderStatusReady.IsTerminal())
	assert.True(t, OrderStatusPreparing.IsActive())
	assert.False(t, OrderStatusPending.IsActive())
}

func TestPaymentStatusValid(t *testing.T) {
	assert.True(t, PaymentStatusPaid.Valid())
	assert.False(t, PaymentStatus("refunded").Valid())
}

func TestBuyerSessionBeforeCreateAssignsUUIDv7(t *testing.T) {
	s := &BuyerSession{}
	require.NoError(t, s.BeforeCreate(nil))

	id, err := uuid.Parse(s.ID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())

	kept := &BuyerSession{ID: "fixed"}
	require.NoError(t, kept.BeforeCreate(nil))
	assert.Equal(t, "fixed", kept.ID)
}
