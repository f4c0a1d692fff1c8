package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/y0ncha/E-commerce-sub001/internal/breaker"
	"github.com/y0ncha/E-commerce-sub001/internal/config"
	"github.com/y0ncha/E-commerce-sub001/internal/httpx"
	kafkax "github.com/y0ncha/E-commerce-sub001/internal/kafka"
	"github.com/y0ncha/E-commerce-sub001/internal/orders"
	"github.com/y0ncha/E-commerce-sub001/internal/publisher"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := slog.With("service", cfg.ServiceName)

	// Kafka producer, breaker-gated
	prod := kafkax.NewProducer(cfg.KafkaBrokers, cfg.OrderTopic, cfg.WriteTimeout)
	brk := breaker.New(cfg.BreakerWindow, cfg.BreakerThreshold, cfg.BreakerCooldown)

	// Publish-side state & gateway
	store := orders.NewStore[orders.Order]()
	gw := publisher.NewGateway(store, prod, brk, cfg.PublishWait, log)

	// Channel health for readiness
	mon := kafkax.NewMonitor(kafkax.MonitorConfig{
		Probe:             kafkax.TopicProbe(cfg.KafkaBrokers, cfg.OrderTopic),
		HealthyInterval:   cfg.HealthyProbeInterval,
		UnhealthyInterval: cfg.UnhealthyProbeInterval,
		ProbeTimeout:      cfg.ProbeTimeout,
		ShutdownGrace:     cfg.ShutdownGrace,
		Log:               log,
	})
	mon.Start()

	router := httpx.NewRouter()
	oh := &httpx.OrdersHandler{
		Gateway: gw,
		Store:   store,
		Ready: func() bool {
			return mon.Healthy() && brk.State() != breaker.Open
		},
	}
	oh.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Info("HTTP listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("listen failed", "err", err)
			os.Exit(1)
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	mon.Close()
	_ = prod.Close()
}
