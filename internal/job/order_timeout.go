package job

import (
	"context"
	"log"
	"time"

	"coinshop/internal/config"
	"coinshop/internal/model"
	"coinshop/internal/repository"
)

// OrderTimeoutJob fails pending orders the gateway never confirmed. Without
// it, an abandoned checkout leaves a PENDING row forever.
type OrderTimeoutJob struct {
	orderStore repository.OrderStore
	cfg        *config.Config
	stopCh     chan struct{}
	interval   time.Duration
	batchSize  int
}

func NewOrderTimeoutJob(orderStore repository.OrderStore, cfg *config.Config) *OrderTimeoutJob {
	return &OrderTimeoutJob{
		orderStore: orderStore,
		cfg:        cfg,
		stopCh:     make(chan struct{}),
		interval:   time.Minute,
		batchSize:  100,
	}
}

func (j *OrderTimeoutJob) Start(ctx context.Context) {
	log.Println("[OrderTimeoutJob] started")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[OrderTimeoutJob] stopped")
			return
		case <-j.stopCh:
			log.Println("[OrderTimeoutJob] stopped")
			return
		case <-ticker.C:
			j.failExpiredOrders(ctx)
		}
	}
}

func (j *OrderTimeoutJob) Stop() {
	close(j.stopCh)
}

func (j *OrderTimeoutJob) failExpiredOrders(ctx context.Context) {
	timeout := time.Duration(j.cfg.Business.OrderTimeoutMinutes) * time.Minute
	before := time.Now().Add(-timeout)

	orders, err := j.orderStore.GetExpiredPendingOrders(ctx, before, j.batchSize)
	if err != nil {
		log.Printf("[OrderTimeoutJob] failed to query expired orders: %v", err)
		return
	}

	if len(orders) == 0 {
		return
	}

	failedCount := 0
	for _, order := range orders {
		// conditional on PENDING: a confirmation racing in wins
		err := j.orderStore.UpdateStatus(ctx, order.OrderID, model.OrderStatusPending, model.OrderStatusFailed)
		if err != nil {
			continue
		}
		failedCount++
		log.Printf("[OrderTimeoutJob] order expired: orderID=%s userID=%s amount=%d",
			order.OrderID, order.UserID, order.Amount)
	}

	log.Printf("[OrderTimeoutJob] failed %d expired orders", failedCount)
}
