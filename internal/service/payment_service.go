package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"coinshop/internal/config"
	"coinshop/internal/infrastructure/lock"
	"coinshop/internal/model"
	"coinshop/internal/repository"
)

var ErrOrderNotConfirmable = errors.New("order is not in a confirmable state")

// PaymentService applies the gateway's verdict to an order. Confirmation must
// be idempotent: the gateway may call back more than once for one order, and
// exactly one credit may result. The pending->paid conditional update is the
// guard — whoever flips the status owns the credit.
type PaymentService struct {
	orderStore  repository.OrderStore
	outboxStore repository.OutboxStore
	ledger      *LedgerService
	locker      lock.Locker
	cfg         *config.Config
}

func NewPaymentService(orderStore repository.OrderStore, outboxStore repository.OutboxStore, ledger *LedgerService, locker lock.Locker, cfg *config.Config) *PaymentService {
	return &PaymentService{
		orderStore:  orderStore,
		outboxStore: outboxStore,
		ledger:      ledger,
		locker:      locker,
		cfg:         cfg,
	}
}

type ConfirmResult struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
	Amount  int64  `json:"amount"`
	Coins   int64  `json:"coins"`
	Message string `json:"message,omitempty"`
}

func (s *PaymentService) ConfirmPayment(ctx context.Context, orderID string) (*ConfirmResult, error) {
	order, err := s.orderStore.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.Status == model.OrderStatusPaid {
		return s.replayResult(order), nil
	}
	if order.Status == model.OrderStatusFailed {
		return nil, ErrOrderNotConfirmable
	}

	var result *ConfirmResult
	err = s.locker.WithLock(ctx, lock.OrderLockKey(orderID), func() error {
		// re-check under the lock: a concurrent callback may have won
		order, err = s.orderStore.GetByOrderID(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Status == model.OrderStatusPaid {
			result = s.replayResult(order)
			return nil
		}
		if order.Status != model.OrderStatusPending {
			return ErrOrderNotConfirmable
		}

		if err := s.orderStore.UpdateStatus(ctx, orderID, model.OrderStatusPending, model.OrderStatusPaid); err != nil {
			if errors.Is(err, repository.ErrOrderStatusInvalid) {
				// lost the race after the re-check; treat as replay
				order, err = s.orderStore.GetByOrderID(ctx, orderID)
				if err != nil {
					return err
				}
				if order.Status == model.OrderStatusPaid {
					result = s.replayResult(order)
					return nil
				}
				return ErrOrderNotConfirmable
			}
			return fmt.Errorf("failed to mark order paid: %w", err)
		}

		if _, err := s.ledger.Add(ctx, order.UserID, order.Coins, model.TransactionTypePurchase, order.OrderID, "코인 구매"); err != nil {
			// status is already PAID; the compensation job re-credits
			// orders left without a ledger row
			log.Printf("[payment] credit failed after status flip: orderID=%s err=%v", orderID, err)
		}

		s.writeOutbox(ctx, order, model.OrderStatusPaid)

		result = &ConfirmResult{
			OrderID: order.OrderID,
			Status:  model.OrderStatusPaid,
			Amount:  order.Amount,
			Coins:   order.Coins,
			Message: "결제가 완료되었습니다",
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[payment] confirmed: orderID=%s userID=%s coins=%d", orderID, order.UserID, order.Coins)
	return result, nil
}

// FailPayment marks a pending order failed. Repeated failure callbacks for an
// already-failed order are replayed, not rejected. Shares the per-order lock
// with ConfirmPayment so mixed verdicts for one order serialize.
func (s *PaymentService) FailPayment(ctx context.Context, orderID string) (*ConfirmResult, error) {
	order, err := s.orderStore.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.Status == model.OrderStatusFailed {
		return s.replayResult(order), nil
	}
	if order.Status == model.OrderStatusPaid {
		return nil, ErrOrderNotConfirmable
	}

	var result *ConfirmResult
	err = s.locker.WithLock(ctx, lock.OrderLockKey(orderID), func() error {
		order, err = s.orderStore.GetByOrderID(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Status == model.OrderStatusFailed {
			result = s.replayResult(order)
			return nil
		}
		if order.Status != model.OrderStatusPending {
			return ErrOrderNotConfirmable
		}

		if err := s.orderStore.UpdateStatus(ctx, orderID, model.OrderStatusPending, model.OrderStatusFailed); err != nil {
			if errors.Is(err, repository.ErrOrderStatusInvalid) {
				// lost the race after the re-check; treat as replay
				order, err = s.orderStore.GetByOrderID(ctx, orderID)
				if err != nil {
					return err
				}
				if order.Status == model.OrderStatusFailed {
					result = s.replayResult(order)
					return nil
				}
				return ErrOrderNotConfirmable
			}
			return fmt.Errorf("failed to mark order failed: %w", err)
		}

		s.writeOutbox(ctx, order, model.OrderStatusFailed)

		result = &ConfirmResult{
			OrderID: order.OrderID,
			Status:  model.OrderStatusFailed,
			Amount:  order.Amount,
			Coins:   order.Coins,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (s *PaymentService) replayResult(order *model.Order) *ConfirmResult {
	return &ConfirmResult{
		OrderID: order.OrderID,
		Status:  order.Status,
		Amount:  order.Amount,
		Coins:   order.Coins,
		Message: "이미 처리된 주문입니다",
	}
}

func (s *PaymentService) writeOutbox(ctx context.Context, order *model.Order, status string) {
	payload := map[string]interface{}{
		"order_id":   order.OrderID,
		"order_ref":  order.OrderRef,
		"user_id":    order.UserID,
		"product_id": order.ProductID,
		"amount":     order.Amount,
		"coins":      order.Coins,
		"status":     status,
		"changed_at": time.Now().Format(time.RFC3339),
	}
	payloadBytes, _ := json.Marshal(payload)

	msg := &model.OutboxMessage{
		MessageKey: order.OrderID,
		Topic:      s.cfg.Kafka.Topic.PaymentResult,
		Payload:    string(payloadBytes),
		Status:     model.OutboxStatusPending,
	}
	if err := s.outboxStore.Create(ctx, msg); err != nil {
		// event delivery is best effort; the order and ledger rows are
		// the source of truth
		log.Printf("[payment] failed to write outbox message: orderID=%s err=%v", order.OrderID, err)
	}
}
