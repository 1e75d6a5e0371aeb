package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"imagegen/internal/config"
	"imagegen/internal/db"
	"imagegen/internal/gateway"
	"imagegen/internal/handlers"
	"imagegen/internal/logging"
	"imagegen/internal/scheduler"
	"imagegen/internal/services"
	"imagegen/internal/store"
	"imagegen/internal/websocket"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel)

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer database.Close()

	users := store.NewUserStore(database)
	transactions := store.NewTransactionStore(database)
	requests := store.NewRequestStore(database)
	reports := store.NewReportStore(database)
	txRunner := db.NewTxRunner(database)
	hub := websocket.NewHub()

	generator := gateway.NewSimulator(cfg.GatewayMinLatency, cfg.GatewayMaxLatency, cfg.GatewayFailRate, log)
	credits := services.NewCreditService(txRunner, users, transactions, hub, cfg.InitialCredits, log)
	generations := services.NewGenerationService(txRunner, credits, requests, generator, hub, log)
	reportService := services.NewReportService(requests, transactions, reports, log)

	sched, err := scheduler.New(cfg.ReportSchedule, reportService, log)
	if err != nil {
		log.Fatalf("invalid report schedule: %v", err)
	}
	sched.Start()

	handler := handlers.New(cfg, generations, credits, reportService, hub, log)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infof("image generation API listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown

	sched.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
	log.Info("server stopped")
}
