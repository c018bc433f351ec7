package model

import (
	"time"
)

const (
	OrderStatusPending = "PENDING"
	OrderStatusPaid    = "PAID"
	OrderStatusFailed  = "FAILED"
)

// ValidStatusTransitions: an order is created PENDING and ends in exactly one
// terminal state. PAID and FAILED have no outgoing edges.
var ValidStatusTransitions = map[string][]string{
	OrderStatusPending: {OrderStatusPaid, OrderStatusFailed},
}

func CanTransitionTo(currentStatus, targetStatus string) bool {
	allowedStatuses, exists := ValidStatusTransitions[currentStatus]
	if !exists {
		return false
	}
	for _, s := range allowedStatuses {
		if s == targetStatus {
			return true
		}
	}
	return false
}

// Order is a single purchase attempt. Amount and Coins are snapshots of the
// catalog taken at creation time and are immutable afterwards — the payment
// gateway verifies against this row, never against redirect parameters.
type Order struct {
	ID        int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"order_id"` // surrogate, uuid
	OrderRef  string     `gorm:"type:varchar(64);index;not null" json:"order_ref"`      // human-readable label
	UserID    string     `gorm:"type:varchar(64);index;not null" json:"user_id"`
	ProductID string     `gorm:"type:varchar(64);not null" json:"product_id"`
	OrderName string     `gorm:"type:varchar(128);not null" json:"order_name"`
	Amount    int64      `gorm:"not null" json:"amount"` // KRW snapshot from catalog
	Coins     int64      `gorm:"not null" json:"coins"`  // base + bonus snapshot
	Status    string     `gorm:"type:varchar(20);index;not null" json:"status"`
	PaidAt    *time.Time `json:"paid_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Order) TableName() string {
	return "coin_order"
}
