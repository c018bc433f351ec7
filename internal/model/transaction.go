package model

import (
	"time"
)

const (
	TransactionTypePurchase = "PURCHASE" // coins credited after a confirmed payment
	TransactionTypeSpend    = "SPEND"    // coins deducted for a generation
	TransactionTypeReward   = "REWARD"   // promotional / manual grant
	TransactionTypeRefund   = "REFUND"
)

// CoinTransaction is one row of the append-only credit history.
// Rows are never updated or deleted; BalanceBefore/BalanceAfter allow the
// ledger to be replayed and checked against the account balance.
type CoinTransaction struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	TransactionNo string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"transaction_no"`
	UserID        string    `gorm:"type:varchar(64);index;not null" json:"user_id"`
	OrderID       string    `gorm:"type:varchar(64);index" json:"order_id"` // empty for non-purchase rows
	Amount        int64     `gorm:"not null" json:"amount"`                 // positive credit, negative debit
	Type          string    `gorm:"type:varchar(20);not null" json:"type"`
	BalanceBefore int64     `gorm:"not null" json:"balance_before"`
	BalanceAfter  int64     `gorm:"not null" json:"balance_after"`
	Remark        string    `gorm:"type:varchar(256)" json:"remark"`
	CreatedAt     time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (CoinTransaction) TableName() string {
	return "coin_transaction"
}
