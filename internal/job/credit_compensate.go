package job

import (
	"context"
	"log"
	"time"

	"coinshop/internal/config"
	"coinshop/internal/model"
	"coinshop/internal/repository"
	"coinshop/internal/service"
)

// CreditCompensateJob repairs orders that were marked PAID but never
// credited, which happens when the process dies between the status flip and
// the ledger write. A PAID order older than the grace period with no PURCHASE
// ledger row gets its coins credited here.
type CreditCompensateJob struct {
	orderStore       repository.OrderStore
	transactionStore repository.TransactionStore
	ledger           *service.LedgerService
	cfg              *config.Config
	stopCh           chan struct{}
	interval         time.Duration
	gracePeriod      time.Duration
	batchSize        int
}

func NewCreditCompensateJob(orderStore repository.OrderStore, transactionStore repository.TransactionStore, ledger *service.LedgerService, cfg *config.Config) *CreditCompensateJob {
	return &CreditCompensateJob{
		orderStore:       orderStore,
		transactionStore: transactionStore,
		ledger:           ledger,
		cfg:              cfg,
		stopCh:           make(chan struct{}),
		interval:         30 * time.Second,
		gracePeriod:      5 * time.Minute,
		batchSize:        50,
	}
}

func (j *CreditCompensateJob) Start(ctx context.Context) {
	log.Println("[CreditCompensateJob] started")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[CreditCompensateJob] stopped")
			return
		case <-j.stopCh:
			log.Println("[CreditCompensateJob] stopped")
			return
		case <-ticker.C:
			j.compensateUncreditedOrders(ctx)
		}
	}
}

func (j *CreditCompensateJob) Stop() {
	close(j.stopCh)
}

func (j *CreditCompensateJob) compensateUncreditedOrders(ctx context.Context) {
	before := time.Now().Add(-j.gracePeriod)

	orders, err := j.orderStore.GetPaidOrdersBefore(ctx, before, j.batchSize)
	if err != nil {
		log.Printf("[CreditCompensateJob] failed to query paid orders: %v", err)
		return
	}

	for _, order := range orders {
		j.compensateOrder(ctx, order)
	}
}

func (j *CreditCompensateJob) compensateOrder(ctx context.Context, order *model.Order) {
	trans, err := j.transactionStore.GetByOrderID(ctx, order.OrderID)
	if err != nil {
		log.Printf("[CreditCompensateJob] failed to query ledger: orderID=%s err=%v", order.OrderID, err)
		return
	}

	if trans != nil {
		return // credited normally
	}

	log.Printf("[CreditCompensateJob] paid order without ledger row, crediting: orderID=%s coins=%d",
		order.OrderID, order.Coins)

	if _, err := j.ledger.Add(ctx, order.UserID, order.Coins, model.TransactionTypePurchase, order.OrderID, "코인 구매 (보정)"); err != nil {
		log.Printf("[CreditCompensateJob] compensation credit failed: orderID=%s err=%v", order.OrderID, err)
	}
}
