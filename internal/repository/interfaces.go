package repository

import (
	"context"
	"time"

	"coinshop/internal/model"
)

// Store interfaces decouple services from gorm so the business rules can be
// tested against in-memory implementations.

type AccountStore interface {
	GetByUserID(ctx context.Context, userID string) (*model.Account, error)
	// GetOrCreate lazily initializes the account with the given starting
	// balance on first access.
	GetOrCreate(ctx context.Context, userID string, startingBalance int64) (*model.Account, error)
	// Deduct performs the check-and-decrement atomically and returns the
	// balance this deduction produced, read before any other writer can
	// touch the row. Returns ErrBalanceNotEnough without mutating anything
	// when the balance is insufficient.
	Deduct(ctx context.Context, userID string, amount int64) (int64, error)
	// Increase credits the account and returns the post-credit balance
	// under the same guarantee.
	Increase(ctx context.Context, userID string, amount int64) (int64, error)
}

type OrderStore interface {
	Create(ctx context.Context, order *model.Order) error
	GetByOrderID(ctx context.Context, orderID string) (*model.Order, error)
	// UpdateStatus succeeds only when the order is currently in fromStatus;
	// ErrOrderStatusInvalid otherwise. This conditional update is the
	// idempotency guard for payment confirmation.
	UpdateStatus(ctx context.Context, orderID string, fromStatus, toStatus string) error
	GetExpiredPendingOrders(ctx context.Context, before time.Time, limit int) ([]*model.Order, error)
	GetPaidOrdersBefore(ctx context.Context, before time.Time, limit int) ([]*model.Order, error)
	ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*model.Order, int64, error)
}

type TransactionStore interface {
	Create(ctx context.Context, trans *model.CoinTransaction) error
	GetByOrderID(ctx context.Context, orderID string) (*model.CoinTransaction, error)
	ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*model.CoinTransaction, int64, error)
}

type ProductStore interface {
	GetByID(ctx context.Context, id string) (*model.CoinProduct, error)
	ListActive(ctx context.Context) ([]*model.CoinProduct, error)
}

type OutboxStore interface {
	Create(ctx context.Context, msg *model.OutboxMessage) error
	GetPendingMessages(ctx context.Context, limit int) ([]*model.OutboxMessage, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
	IncrementRetryCount(ctx context.Context, id int64) error
	MarkAsFailed(ctx context.Context, id int64) error
}
