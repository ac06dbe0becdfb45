package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderTypeValid(t *testing.T) {
	assert.True(t, OrderTypeNew.Valid())
	assert.True(t, OrderTypeRepair.Valid())
	assert.False(t, OrderType("resize").Valid())
	assert.False(t, OrderType("").Valid())
}

func TestOrderStatusValid(t *testing.T) {
	for _, s := range []OrderStatus{
		OrderStatusPending,
		OrderStatusInProgress,
		OrderStatusCompleted,
		OrderStatusDelivered,
		OrderStatusCancelled,
	} {
		assert.True(t, s.Valid(), string(s))
	}
	assert.False(t, OrderStatus("archived").Valid())
	assert.False(t, OrderStatus("").Valid())
}
