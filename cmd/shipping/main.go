package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/y0ncha/E-commerce-sub001/internal/config"
	"github.com/y0ncha/E-commerce-sub001/internal/httpx"
	kafkax "github.com/y0ncha/E-commerce-sub001/internal/kafka"
	"github.com/y0ncha/E-commerce-sub001/internal/orders"
	"github.com/y0ncha/E-commerce-sub001/internal/redisx"
	"github.com/y0ncha/E-commerce-sub001/internal/shipping"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := slog.With("service", cfg.ServiceName+"-shipping")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	dlq := kafkax.NewDeadLetter(cfg.KafkaBrokers, cfg.DeadLetterTopic, log)

	store := orders.NewStore[orders.ProcessedOrder]()
	svc := &shipping.Service{
		Store:       store,
		Redis:       rdb,
		DLQ:         dlq,
		ServiceName: cfg.ConsumerGroup,
		Log:         log,
	}

	// The monitor owns the consumer lifecycle: consumption starts only once
	// broker and topic are confirmed ready, stops on disconnect, restarts
	// on recovery.
	var (
		mu           sync.Mutex
		stopConsumer context.CancelFunc
	)
	start := func() {
		mu.Lock()
		defer mu.Unlock()
		if stopConsumer != nil {
			return
		}
		cctx, ccancel := context.WithCancel(ctx)
		stopConsumer = ccancel
		cons := kafkax.NewConsumer(kafkax.ConsumerConfig{
			Brokers:    cfg.KafkaBrokers,
			Group:      cfg.ConsumerGroup,
			Topic:      cfg.OrderTopic,
			MaxRetries: cfg.ConsumerMaxRetries,
			Backoff:    cfg.ConsumerBackoff,
			DLQ:        dlq,
			Log:        log,
		})
		log.Info("consumer starting", "group", cfg.ConsumerGroup, "topic", cfg.OrderTopic)
		go func() {
			if err := cons.Run(cctx, svc.HandleOrderEvent); err != nil {
				log.Error("consumer exited", "err", err)
			}
		}()
	}
	stop := func() {
		mu.Lock()
		defer mu.Unlock()
		if stopConsumer == nil {
			return
		}
		log.Info("consumer stopping")
		stopConsumer()
		stopConsumer = nil
	}

	mon := kafkax.NewMonitor(kafkax.MonitorConfig{
		Probe:             kafkax.TopicProbe(cfg.KafkaBrokers, cfg.OrderTopic),
		HealthyInterval:   cfg.HealthyProbeInterval,
		UnhealthyInterval: cfg.UnhealthyProbeInterval,
		ProbeTimeout:      cfg.ProbeTimeout,
		ShutdownGrace:     cfg.ShutdownGrace,
		OnUp:              start,
		OnDown:            stop,
		Log:               log,
	})
	mon.Start()

	router := httpx.NewRouter()
	sh := &httpx.ShippingHandler{Store: store, Redis: rdb, Ready: mon.Healthy}
	sh.Register(router)

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

	sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer scancel()
	_ = srv.Shutdown(sctx)
	mon.Close()
	stop()
	cancel()
	time.Sleep(200 * time.Millisecond) // let the consumer leave the group
	_ = dlq.Close()
}
