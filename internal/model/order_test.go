package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionTo(t *testing.T) {
	assert.True(t, CanTransitionTo(OrderStatusPending, OrderStatusPaid))
	assert.True(t, CanTransitionTo(OrderStatusPending, OrderStatusFailed))
}

func TestCanTransitionTo_TerminalStates(t *testing.T) {
	// PAID and FAILED are terminal
	assert.False(t, CanTransitionTo(OrderStatusPaid, OrderStatusPending))
	assert.False(t, CanTransitionTo(OrderStatusPaid, OrderStatusFailed))
	assert.False(t, CanTransitionTo(OrderStatusFailed, OrderStatusPaid))
	assert.False(t, CanTransitionTo(OrderStatusFailed, OrderStatusPending))
}

func TestCanTransitionTo_UnknownStatus(t *testing.T) {
	assert.False(t, CanTransitionTo("REFUNDED", OrderStatusPaid))
	assert.False(t, CanTransitionTo(OrderStatusPending, "REFUNDED"))
}
