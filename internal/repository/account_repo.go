package repository

import (
	"context"
	"errors"

	"coinshop/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrAccountNotFound  = errors.New("account not found")
	ErrBalanceNotEnough = errors.New("balance not enough")
	ErrInvalidAmount    = errors.New("amount must be positive")
)

type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) GetByUserID(ctx context.Context, userID string) (*model.Account, error) {
	var account model.Account
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

// GetOrCreate seeds a new account with the starting balance. The insert is
// ON CONFLICT DO NOTHING so two concurrent first accesses produce one row.
func (r *AccountRepository) GetOrCreate(ctx context.Context, userID string, startingBalance int64) (*model.Account, error) {
	account, err := r.GetByUserID(ctx, userID)
	if err == nil {
		return account, nil
	}

	if !errors.Is(err, ErrAccountNotFound) {
		return nil, err
	}

	newAccount := &model.Account{
		UserID:  userID,
		Balance: startingBalance,
	}

	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).
		Create(newAccount).Error

	if err != nil {
		return nil, err
	}

	return r.GetByUserID(ctx, userID)
}

// Deduct runs the check and the decrement as a single conditional UPDATE.
// Two concurrent deductions cannot both pass the balance guard against a
// stale read: the row-level condition decides on the committed value. The
// remaining balance is read inside the same transaction, while the UPDATE
// still holds the row lock, so it is exactly what this deduction produced.
func (r *AccountRepository) Deduct(ctx context.Context, userID string, amount int64) (int64, error) {
	var balance int64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.
			Model(&model.Account{}).
			Where("user_id = ? AND balance >= ?", userID, amount).
			Updates(map[string]interface{}{
				"balance": gorm.Expr("balance - ?", amount),
				"version": gorm.Expr("version + 1"),
			})

		if result.Error != nil {
			return result.Error
		}

		var account model.Account
		if err := tx.Where("user_id = ?", userID).First(&account).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAccountNotFound
			}
			return err
		}

		if result.RowsAffected == 0 {
			return ErrBalanceNotEnough
		}

		balance = account.Balance
		return nil
	})

	return balance, err
}

func (r *AccountRepository) Increase(ctx context.Context, userID string, amount int64) (int64, error) {
	var balance int64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.
			Model(&model.Account{}).
			Where("user_id = ?", userID).
			Updates(map[string]interface{}{
				"balance": gorm.Expr("balance + ?", amount),
				"version": gorm.Expr("version + 1"),
			})

		if result.Error != nil {
			return result.Error
		}

		if result.RowsAffected == 0 {
			return ErrAccountNotFound
		}

		var account model.Account
		if err := tx.Where("user_id = ?", userID).First(&account).Error; err != nil {
			return err
		}

		balance = account.Balance
		return nil
	})

	return balance, err
}
