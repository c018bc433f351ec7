// Package memory provides in-process implementations of the repository
// interfaces. They back the service and handler tests and are handy for
// local development without MySQL. Semantics mirror the SQL implementations:
// Deduct is atomic under the store lock and UpdateStatus is conditional on
// the current status.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"coinshop/internal/model"
	"coinshop/internal/repository"
)

type AccountStore struct {
	mu       sync.Mutex
	accounts map[string]*model.Account
	nextID   int64
}

func NewAccountStore() *AccountStore {
	return &AccountStore{accounts: make(map[string]*model.Account)}
}

func (s *AccountStore) GetByUserID(ctx context.Context, userID string) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[userID]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	copied := *account
	return &copied, nil
}

func (s *AccountStore) GetOrCreate(ctx context.Context, userID string, startingBalance int64) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if account, ok := s.accounts[userID]; ok {
		copied := *account
		return &copied, nil
	}

	s.nextID++
	now := time.Now()
	account := &model.Account{
		ID:        s.nextID,
		UserID:    userID,
		Balance:   startingBalance,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.accounts[userID] = account
	copied := *account
	return &copied, nil
}

func (s *AccountStore) Deduct(ctx context.Context, userID string, amount int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[userID]
	if !ok {
		return 0, repository.ErrAccountNotFound
	}
	if account.Balance < amount {
		return 0, repository.ErrBalanceNotEnough
	}
	account.Balance -= amount
	account.Version++
	account.UpdatedAt = time.Now()
	return account.Balance, nil
}

func (s *AccountStore) Increase(ctx context.Context, userID string, amount int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[userID]
	if !ok {
		return 0, repository.ErrAccountNotFound
	}
	account.Balance += amount
	account.Version++
	account.UpdatedAt = time.Now()
	return account.Balance, nil
}

type OrderStore struct {
	mu     sync.Mutex
	orders map[string]*model.Order
	nextID int64

	// CreateErr makes Create fail; tests use it to simulate a persistence
	// outage.
	CreateErr error
}

func NewOrderStore() *OrderStore {
	return &OrderStore{orders: make(map[string]*model.Order)}
}

func (s *OrderStore) Create(ctx context.Context, order *model.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.CreateErr != nil {
		return s.CreateErr
	}

	s.nextID++
	order.ID = s.nextID
	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now
	copied := *order
	s.orders[order.OrderID] = &copied
	return nil
}

func (s *OrderStore) GetByOrderID(ctx context.Context, orderID string) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[orderID]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	copied := *order
	return &copied, nil
}

func (s *OrderStore) UpdateStatus(ctx context.Context, orderID string, fromStatus, toStatus string) error {
	if !model.CanTransitionTo(fromStatus, toStatus) {
		return repository.ErrOrderStatusInvalid
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[orderID]
	if !ok || order.Status != fromStatus {
		return repository.ErrOrderStatusInvalid
	}
	order.Status = toStatus
	order.UpdatedAt = time.Now()
	if toStatus == model.OrderStatusPaid {
		now := time.Now()
		order.PaidAt = &now
	}
	return nil
}

func (s *OrderStore) GetExpiredPendingOrders(ctx context.Context, before time.Time, limit int) ([]*model.Order, error) {
	return s.filter(limit, func(o *model.Order) bool {
		return o.Status == model.OrderStatusPending && o.CreatedAt.Before(before)
	}), nil
}

func (s *OrderStore) GetPaidOrdersBefore(ctx context.Context, before time.Time, limit int) ([]*model.Order, error) {
	return s.filter(limit, func(o *model.Order) bool {
		return o.Status == model.OrderStatusPaid && o.UpdatedAt.Before(before)
	}), nil
}

func (s *OrderStore) filter(limit int, keep func(*model.Order) bool) []*model.Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []*model.Order
	for _, order := range s.orders {
		if !keep(order) {
			continue
		}
		copied := *order
		result = append(result, &copied)
		if len(result) == limit {
			break
		}
	}
	return result
}

func (s *OrderStore) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*model.Order, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var all []*model.Order
	for _, order := range s.orders {
		if order.UserID != userID {
			continue
		}
		copied := *order
		all = append(all, &copied)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, total, nil
}

// Len reports the number of stored orders.
func (s *OrderStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

type TransactionStore struct {
	mu           sync.Mutex
	transactions []*model.CoinTransaction
	nextID       int64
}

func NewTransactionStore() *TransactionStore {
	return &TransactionStore{}
}

func (s *TransactionStore) Create(ctx context.Context, trans *model.CoinTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	trans.ID = s.nextID
	trans.CreatedAt = time.Now()
	copied := *trans
	s.transactions = append(s.transactions, &copied)
	return nil
}

func (s *TransactionStore) GetByOrderID(ctx context.Context, orderID string) (*model.CoinTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, trans := range s.transactions {
		if trans.OrderID == orderID {
			copied := *trans
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *TransactionStore) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*model.CoinTransaction, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var all []*model.CoinTransaction
	// newest first
	for i := len(s.transactions) - 1; i >= 0; i-- {
		if s.transactions[i].UserID != userID {
			continue
		}
		copied := *s.transactions[i]
		all = append(all, &copied)
	}

	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, total, nil
}

// CountByUser reports ledger rows for one user.
func (s *TransactionStore) CountByUser(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, trans := range s.transactions {
		if trans.UserID == userID {
			count++
		}
	}
	return count
}

type ProductStore struct {
	mu       sync.Mutex
	products map[string]*model.CoinProduct

	// FailWith makes every call fail; tests use it to simulate a store
	// outage and exercise the catalog fallback.
	FailWith error
}

func NewProductStore(products []model.CoinProduct) *ProductStore {
	m := make(map[string]*model.CoinProduct, len(products))
	for i := range products {
		p := products[i]
		m[p.ID] = &p
	}
	return &ProductStore{products: m}
}

func (s *ProductStore) GetByID(ctx context.Context, id string) (*model.CoinProduct, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailWith != nil {
		return nil, s.FailWith
	}
	p, ok := s.products[id]
	if !ok || !p.IsActive {
		return nil, repository.ErrProductNotFound
	}
	copied := *p
	return &copied, nil
}

func (s *ProductStore) ListActive(ctx context.Context) ([]*model.CoinProduct, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailWith != nil {
		return nil, s.FailWith
	}
	var result []*model.CoinProduct
	for _, p := range s.products {
		if !p.IsActive {
			continue
		}
		copied := *p
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].DisplayOrder < result[j].DisplayOrder
	})
	return result, nil
}

type OutboxStore struct {
	mu       sync.Mutex
	messages []*model.OutboxMessage
	nextID   int64
}

func NewOutboxStore() *OutboxStore {
	return &OutboxStore{}
}

func (s *OutboxStore) Create(ctx context.Context, msg *model.OutboxMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	msg.ID = s.nextID
	msg.CreatedAt = time.Now()
	copied := *msg
	s.messages = append(s.messages, &copied)
	return nil
}

func (s *OutboxStore) GetPendingMessages(ctx context.Context, limit int) ([]*model.OutboxMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []*model.OutboxMessage
	for _, msg := range s.messages {
		if msg.Status != model.OutboxStatusPending {
			continue
		}
		copied := *msg
		result = append(result, &copied)
		if len(result) == limit {
			break
		}
	}
	return result, nil
}

func (s *OutboxStore) UpdateStatus(ctx context.Context, id int64, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, msg := range s.messages {
		if msg.ID == id {
			msg.Status = status
			return nil
		}
	}
	return nil
}

func (s *OutboxStore) IncrementRetryCount(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, msg := range s.messages {
		if msg.ID == id {
			msg.RetryCount++
			return nil
		}
	}
	return nil
}

func (s *OutboxStore) MarkAsFailed(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, msg := range s.messages {
		if msg.ID == id {
			msg.Status = model.OutboxStatusFailed
			msg.RetryCount++
			return nil
		}
	}
	return nil
}

// Len reports the number of stored messages.
func (s *OutboxStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// Locker serializes critical sections per key with plain mutexes; the
// in-process stand-in for the redis lock.
type Locker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewLocker() *Locker {
	return &Locker{locks: make(map[string]*sync.Mutex)}
}

func (l *Locker) WithLock(ctx context.Context, key string, fn func() error) error {
	l.mu.Lock()
	keyLock, ok := l.locks[key]
	if !ok {
		keyLock = &sync.Mutex{}
		l.locks[key] = keyLock
	}
	l.mu.Unlock()

	keyLock.Lock()
	defer keyLock.Unlock()
	return fn()
}
