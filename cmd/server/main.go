package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coinshop/internal/catalog"
	"coinshop/internal/config"
	"coinshop/internal/handler"
	"coinshop/internal/infrastructure/cache"
	"coinshop/internal/infrastructure/database"
	"coinshop/internal/infrastructure/mq"
	"coinshop/internal/job"
	"coinshop/internal/repository"
	"coinshop/internal/service"
	"coinshop/pkg/idgen"
)

func main() {
	cfg := config.LoadConfig("config/config.yaml")

	idgen.Init(1)

	db := database.InitMySQL(&cfg.MySQL)
	database.SeedProducts(db, catalog.DefaultProducts)

	redisClient := cache.InitRedis(&cfg.Redis)

	mq.InitKafka(&cfg.Kafka)
	defer mq.CloseKafka()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	orderRepo := repository.NewOrderRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	accountRepo := repository.NewAccountRepository(db)
	outboxRepo := repository.NewOutboxRepository(db)
	ledgerService := service.NewLedgerService(accountRepo, transactionRepo, cfg)

	outboxSender := job.NewOutboxSender(outboxRepo, cfg)
	go outboxSender.Start(ctx)

	orderTimeoutJob := job.NewOrderTimeoutJob(orderRepo, cfg)
	go orderTimeoutJob.Start(ctx)

	compensateJob := job.NewCreditCompensateJob(orderRepo, transactionRepo, ledgerService, cfg)
	go compensateJob.Start(ctx)

	router := handler.SetupRouter(db, redisClient, cfg)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("listening on :%d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}

	log.Println("server stopped")
}
