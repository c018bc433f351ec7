package service

import (
	"context"
	"sync"
	"testing"

	"coinshop/internal/config"
	"coinshop/internal/model"
	"coinshop/internal/repository"
	"coinshop/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type paymentFixture struct {
	payment      *PaymentService
	ledger       *LedgerService
	orders       *memory.OrderStore
	transactions *memory.TransactionStore
	outbox       *memory.OutboxStore
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()

	cfg := &config.Config{
		Business: config.BusinessConfig{StartingBalance: 0, GenerationCost: 1},
		Kafka:    config.KafkaConfig{Topic: config.KafkaTopicConfig{PaymentResult: "test.payment.result"}},
	}

	accounts := memory.NewAccountStore()
	transactions := memory.NewTransactionStore()
	orders := memory.NewOrderStore()
	outbox := memory.NewOutboxStore()

	ledger := NewLedgerService(accounts, transactions, cfg)
	payment := NewPaymentService(orders, outbox, ledger, memory.NewLocker(), cfg)

	return &paymentFixture{
		payment:      payment,
		ledger:       ledger,
		orders:       orders,
		transactions: transactions,
		outbox:       outbox,
	}
}

func (f *paymentFixture) createPendingOrder(t *testing.T, orderID, userID string, coins int64) {
	t.Helper()
	err := f.orders.Create(context.Background(), &model.Order{
		OrderID:   orderID,
		OrderRef:  "order_1700000000000_" + userID,
		UserID:    userID,
		ProductID: "coin_50",
		OrderName: "코인 50개 +5 보너스",
		Amount:    8900,
		Coins:     coins,
		Status:    model.OrderStatusPending,
	})
	require.NoError(t, err)
}

func TestConfirmPayment_CreditsOrderCoins(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	f.createPendingOrder(t, "order-1", "user-1", 55)

	result, err := f.payment.ConfirmPayment(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPaid, result.Status)
	assert.Equal(t, int64(55), result.Coins)

	account, err := f.ledger.GetBalance(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(55), account.Balance)

	order, err := f.orders.GetByOrderID(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPaid, order.Status)
	assert.NotNil(t, order.PaidAt)

	trans, err := f.transactions.GetByOrderID(ctx, "order-1")
	require.NoError(t, err)
	require.NotNil(t, trans)
	assert.Equal(t, model.TransactionTypePurchase, trans.Type)
	assert.Equal(t, int64(55), trans.Amount)

	assert.Equal(t, 1, f.outbox.Len())
}

func TestConfirmPayment_Idempotent(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	f.createPendingOrder(t, "order-1", "user-1", 55)

	_, err := f.payment.ConfirmPayment(ctx, "order-1")
	require.NoError(t, err)

	// gateway retries the callback
	result, err := f.payment.ConfirmPayment(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPaid, result.Status)

	account, err := f.ledger.GetBalance(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(55), account.Balance, "second callback must not credit again")
	assert.Equal(t, 1, f.transactions.CountByUser("user-1"))
}

func TestConfirmPayment_ConcurrentCallbacks(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	f.createPendingOrder(t, "order-1", "user-1", 55)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.payment.ConfirmPayment(ctx, "order-1")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	account, err := f.ledger.GetBalance(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(55), account.Balance)
	assert.Equal(t, 1, f.transactions.CountByUser("user-1"))
}

func TestConfirmPayment_UnknownOrder(t *testing.T) {
	f := newPaymentFixture(t)

	_, err := f.payment.ConfirmPayment(context.Background(), "order-missing")
	assert.ErrorIs(t, err, repository.ErrOrderNotFound)
}

func TestConfirmPayment_AfterFailure(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	f.createPendingOrder(t, "order-1", "user-1", 55)

	_, err := f.payment.FailPayment(ctx, "order-1")
	require.NoError(t, err)

	_, err = f.payment.ConfirmPayment(ctx, "order-1")
	assert.ErrorIs(t, err, ErrOrderNotConfirmable)

	account, err := f.ledger.GetBalance(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), account.Balance)
}

func TestFailPayment(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	f.createPendingOrder(t, "order-1", "user-1", 55)

	result, err := f.payment.FailPayment(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusFailed, result.Status)

	// replayed, not rejected
	result, err = f.payment.FailPayment(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusFailed, result.Status)

	// no coins for a failed payment
	assert.Equal(t, 0, f.transactions.CountByUser("user-1"))
}

func TestPaymentCallbacks_ConcurrentMixedVerdicts(t *testing.T) {
	// racing paid and failed callbacks for one order: exactly one verdict
	// lands, losers see ErrOrderNotConfirmable or a replay, never a raw
	// status error, and coins are credited only for a paid outcome
	f := newPaymentFixture(t)
	ctx := context.Background()
	f.createPendingOrder(t, "order-1", "user-1", 55)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		confirm := i%2 == 0
		wg.Add(1)
		go func() {
			defer wg.Done()
			var err error
			if confirm {
				_, err = f.payment.ConfirmPayment(ctx, "order-1")
			} else {
				_, err = f.payment.FailPayment(ctx, "order-1")
			}
			if err != nil {
				assert.ErrorIs(t, err, ErrOrderNotConfirmable)
			}
		}()
	}
	wg.Wait()

	order, err := f.orders.GetByOrderID(ctx, "order-1")
	require.NoError(t, err)
	require.Contains(t, []string{model.OrderStatusPaid, model.OrderStatusFailed}, order.Status)

	account, err := f.ledger.GetBalance(ctx, "user-1")
	require.NoError(t, err)
	if order.Status == model.OrderStatusPaid {
		assert.Equal(t, int64(55), account.Balance)
		assert.Equal(t, 1, f.transactions.CountByUser("user-1"))
	} else {
		assert.Equal(t, int64(0), account.Balance)
		assert.Equal(t, 0, f.transactions.CountByUser("user-1"))
	}
}

func TestFailPayment_AfterPaid(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	f.createPendingOrder(t, "order-1", "user-1", 55)

	_, err := f.payment.ConfirmPayment(ctx, "order-1")
	require.NoError(t, err)

	_, err = f.payment.FailPayment(ctx, "order-1")
	assert.ErrorIs(t, err, ErrOrderNotConfirmable)
}
