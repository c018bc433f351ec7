package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"coinshop/internal/catalog"
	"coinshop/internal/model"
	"coinshop/internal/repository"
	"coinshop/pkg/idgen"

	"github.com/google/uuid"
)

var (
	ErrValidation     = errors.New("product_id and user_id are required")
	ErrInvalidProduct = errors.New("unknown or inactive product")
)

// OrderService turns a purchase request into a durable pending order.
// Everything the payment gateway later verifies (amount, coin total) is
// snapshotted from the catalog here; the client cannot influence either.
type OrderService struct {
	orderStore repository.OrderStore
	catalog    catalog.Catalog
}

func NewOrderService(orderStore repository.OrderStore, cat catalog.Catalog) *OrderService {
	return &OrderService{
		orderStore: orderStore,
		catalog:    cat,
	}
}

type CreateOrderResult struct {
	OrderID   string `json:"order_id"`
	OrderRef  string `json:"order_ref"`
	OrderName string `json:"order_name"`
	Amount    int64  `json:"amount"`
	Coins     int64  `json:"coins"`
}

func (s *OrderService) CreateOrder(ctx context.Context, userID, productID string) (*CreateOrderResult, error) {
	userID = strings.TrimSpace(userID)
	productID = strings.TrimSpace(productID)
	if userID == "" || productID == "" {
		return nil, ErrValidation
	}

	product, err := s.catalog.GetProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			return nil, ErrInvalidProduct
		}
		return nil, fmt.Errorf("catalog lookup failed: %w", err)
	}

	order := &model.Order{
		OrderID:   uuid.NewString(),
		OrderRef:  idgen.GenerateOrderRef(userID),
		UserID:    userID,
		ProductID: product.ID,
		OrderName: product.Name,
		Amount:    product.Price,
		Coins:     product.TotalCoins(),
		Status:    model.OrderStatusPending,
	}

	// No order id may reach the caller unless the pending row is durable;
	// the confirmation step trusts the stored row, not the redirect.
	if err := s.orderStore.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to persist order: %w", err)
	}

	return &CreateOrderResult{
		OrderID:   order.OrderID,
		OrderRef:  order.OrderRef,
		OrderName: order.OrderName,
		Amount:    order.Amount,
		Coins:     order.Coins,
	}, nil
}

func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*model.Order, error) {
	return s.orderStore.GetByOrderID(ctx, orderID)
}

func (s *OrderService) ListUserOrders(ctx context.Context, userID string, limit, offset int) ([]*model.Order, int64, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.orderStore.ListByUserID(ctx, userID, limit, offset)
}
