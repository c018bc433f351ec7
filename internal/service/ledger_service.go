package service

import (
	"context"
	"errors"
	"fmt"

	"coinshop/internal/config"
	"coinshop/internal/model"
	"coinshop/internal/repository"
	"coinshop/pkg/idgen"
)

// LedgerService tracks per-user coin balances and the append-only credit
// history. The balance invariant (never negative) is enforced by the store's
// atomic conditional deduct, not by a read-then-write here.
type LedgerService struct {
	accountStore     repository.AccountStore
	transactionStore repository.TransactionStore
	cfg              *config.Config
}

func NewLedgerService(accountStore repository.AccountStore, transactionStore repository.TransactionStore, cfg *config.Config) *LedgerService {
	return &LedgerService{
		accountStore:     accountStore,
		transactionStore: transactionStore,
		cfg:              cfg,
	}
}

// GetBalance lazily initializes the account with the configured starting
// balance on first access.
func (s *LedgerService) GetBalance(ctx context.Context, userID string) (*model.Account, error) {
	return s.accountStore.GetOrCreate(ctx, userID, s.cfg.Business.StartingBalance)
}

func (s *LedgerService) HasSufficientBalance(ctx context.Context, userID string, amount int64) (bool, error) {
	if amount < 0 {
		return false, repository.ErrInvalidAmount
	}
	account, err := s.GetBalance(ctx, userID)
	if err != nil {
		return false, err
	}
	return account.Balance >= amount, nil
}

// Deduct withdraws coins. Returns (false, nil) when the balance is
// insufficient — an expected outcome, not an error — and leaves the balance
// untouched in that case.
func (s *LedgerService) Deduct(ctx context.Context, userID string, amount int64, remark string) (bool, error) {
	if amount <= 0 {
		return false, repository.ErrInvalidAmount
	}

	if _, err := s.GetBalance(ctx, userID); err != nil {
		return false, err
	}

	balanceAfter, err := s.accountStore.Deduct(ctx, userID, amount)
	if err != nil {
		if errors.Is(err, repository.ErrBalanceNotEnough) {
			return false, nil
		}
		return false, fmt.Errorf("deduct failed: %w", err)
	}

	// balanceAfter was read while the deduction still held the row, so the
	// before/after pair belongs to this mutation alone and the ledger chain
	// stays replayable under concurrent writers
	trans := &model.CoinTransaction{
		TransactionNo: idgen.GenerateTransactionNo(),
		UserID:        userID,
		Amount:        -amount,
		Type:          model.TransactionTypeSpend,
		BalanceBefore: balanceAfter + amount,
		BalanceAfter:  balanceAfter,
		Remark:        remark,
	}
	if err := s.transactionStore.Create(ctx, trans); err != nil {
		return true, fmt.Errorf("failed to record transaction: %w", err)
	}

	return true, nil
}

// Add credits coins unconditionally. No upper bound is enforced.
func (s *LedgerService) Add(ctx context.Context, userID string, amount int64, transType, orderID, remark string) (*model.Account, error) {
	if amount <= 0 {
		return nil, repository.ErrInvalidAmount
	}

	if _, err := s.GetBalance(ctx, userID); err != nil {
		return nil, err
	}

	balanceAfter, err := s.accountStore.Increase(ctx, userID, amount)
	if err != nil {
		return nil, fmt.Errorf("credit failed: %w", err)
	}

	account, err := s.accountStore.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	trans := &model.CoinTransaction{
		TransactionNo: idgen.GenerateTransactionNo(),
		UserID:        userID,
		OrderID:       orderID,
		Amount:        amount,
		Type:          transType,
		BalanceBefore: balanceAfter - amount,
		BalanceAfter:  balanceAfter,
		Remark:        remark,
	}
	if err := s.transactionStore.Create(ctx, trans); err != nil {
		return account, fmt.Errorf("failed to record transaction: %w", err)
	}

	return account, nil
}

// ChargeGeneration deducts the fixed cost of one question generation.
func (s *LedgerService) ChargeGeneration(ctx context.Context, userID string) (bool, error) {
	return s.Deduct(ctx, userID, s.cfg.Business.GenerationCost, "문제 생성")
}

func (s *LedgerService) GetCreditHistory(ctx context.Context, userID string, limit, offset int) ([]*model.CoinTransaction, int64, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.transactionStore.ListByUserID(ctx, userID, limit, offset)
}
