package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"coinshop/internal/catalog"
	"coinshop/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrderService(t *testing.T) (*OrderService, *memory.OrderStore) {
	t.Helper()
	orders := memory.NewOrderStore()
	return NewOrderService(orders, catalog.NewDefaultCatalog()), orders
}

func TestCreateOrder_SnapshotsCatalogValues(t *testing.T) {
	svc, orders := newTestOrderService(t)

	result, err := svc.CreateOrder(context.Background(), "user-abcdef1234", "coin_50")
	require.NoError(t, err)

	assert.Equal(t, int64(8900), result.Amount)
	assert.Equal(t, int64(55), result.Coins) // 50 base + 5 bonus
	assert.NotEmpty(t, result.OrderName)
	assert.NotEmpty(t, result.OrderID)

	stored, err := orders.GetByOrderID(context.Background(), result.OrderID)
	require.NoError(t, err)
	assert.Equal(t, "PENDING", stored.Status)
	assert.Equal(t, int64(8900), stored.Amount)
	assert.Equal(t, int64(55), stored.Coins)
	assert.Equal(t, "coin_50", stored.ProductID)
	assert.Equal(t, "user-abcdef1234", stored.UserID)
}

func TestCreateOrder_Validation(t *testing.T) {
	svc, orders := newTestOrderService(t)

	_, err := svc.CreateOrder(context.Background(), "", "coin_50")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreateOrder(context.Background(), "user-1", "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreateOrder(context.Background(), "user-1", "   ")
	assert.ErrorIs(t, err, ErrValidation)

	assert.Equal(t, 0, orders.Len())
}

func TestCreateOrder_UnknownProduct(t *testing.T) {
	svc, orders := newTestOrderService(t)

	_, err := svc.CreateOrder(context.Background(), "user-1", "coin_9999")
	assert.ErrorIs(t, err, ErrInvalidProduct)

	// no order row may exist for a rejected request
	assert.Equal(t, 0, orders.Len())
}

func TestCreateOrder_PersistenceFailure(t *testing.T) {
	orders := memory.NewOrderStore()
	orders.CreateErr = errors.New("connection lost")
	svc := NewOrderService(orders, catalog.NewDefaultCatalog())

	result, err := svc.CreateOrder(context.Background(), "user-1", "coin_50")
	// the caller must not receive an order id it could redirect with
	assert.Error(t, err)
	assert.Nil(t, result)
}

func TestCreateOrder_DistinctOrderIDs(t *testing.T) {
	svc, _ := newTestOrderService(t)
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		result, err := svc.CreateOrder(ctx, "user-1", "coin_10")
		require.NoError(t, err)
		assert.False(t, seen[result.OrderID], "duplicate order id %s", result.OrderID)
		seen[result.OrderID] = true
	}
}

func TestCreateOrder_OrderRefFormat(t *testing.T) {
	svc, _ := newTestOrderService(t)

	result, err := svc.CreateOrder(context.Background(), "0a1b2c3d-4e5f-6071-8293-a4b5c6d7e8f9", "coin_10")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(result.OrderRef, "order_"))
	assert.True(t, strings.HasSuffix(result.OrderRef, "_0a1b2c3d"))
}

func TestListUserOrders(t *testing.T) {
	svc, _ := newTestOrderService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.CreateOrder(ctx, "user-1", "coin_10")
		require.NoError(t, err)
	}
	_, err := svc.CreateOrder(ctx, "user-2", "coin_10")
	require.NoError(t, err)

	orders, total, err := svc.ListUserOrders(ctx, "user-1", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, orders, 3)
}
