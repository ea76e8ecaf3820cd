package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"exchange/infra/memory"
	"exchange/internal/config"
	"exchange/internal/engine"
	"exchange/internal/feed"
	"exchange/internal/marketdata"
	"exchange/pkg/logger"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer zl.Sync()

	// ---------------- Engine ----------------

	eng, err := engine.New(cfg, zl)
	if err != nil {
		zl.Error("event log init failed", zap.Error(err))
		os.Exit(1)
	}

	kafkaEnabled := len(cfg.Kafka.Brokers) > 0

	var tap *memory.RetireRing
	if kafkaEnabled {
		tap = eng.TradeTap(1 << 14)
	}

	eng.Start()
	defer eng.Stop()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// ---------------- Metrics ----------------

	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				zl.Error("metrics listener failed", zap.Error(err))
			}
		}()
	}

	// ---------------- Kafka edges ----------------

	if kafkaEnabled {
		consumer := feed.NewConsumer(
			cfg.Kafka.Brokers,
			cfg.Kafka.OrdersTopic,
			cfg.Kafka.GroupID,
			eng.Dispatch,
			zl,
		)
		defer consumer.Close()

		go func() {
			if err := consumer.Run(ctx); err != nil {
				zl.Error("feed consumer failed", zap.Error(err))
				cancel()
			}
		}()

		pub, err := marketdata.New(
			cfg.Kafka.Brokers,
			cfg.Kafka.TradesTopic,
			tap,
			250*time.Millisecond,
			zl,
		)
		if err != nil {
			zl.Error("market-data publisher init failed", zap.Error(err))
			os.Exit(1)
		}
		defer pub.Close()
		go pub.Run(ctx)
	}

	<-ctx.Done()
	eng.Stop()
}
