package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/private-betting-ledger/internal/settlement"
	"github.com/radieske/private-betting-ledger/internal/shared/config"
	sharedkafka "github.com/radieske/private-betting-ledger/internal/shared/kafka"
	"github.com/radieske/private-betting-ledger/internal/shared/logger"
	"github.com/radieske/private-betting-ledger/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, err := logger.New("settlement-worker", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Consumer de outcome_set (consumer group settlement-worker)
	reader := sharedkafka.NewReader(cfg.KafkaBrokers, cfg.TopicOutcomeSet, "settlement-worker")
	defer reader.Close()

	// DLQ para eventos que esgotaram os retries
	dlq := sharedkafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetSettledDLQ)
	defer dlq.Close()

	// Cliente da API do ledger
	ledgerCli := settlement.NewClient(cfg.LedgerURL)

	// Métricas Prometheus para monitoramento da liquidação
	consumed := prometheus.NewCounter(prometheus.CounterOpts{Name: "settlement_outcomes_consumed_total", Help: "eventos outcome_set consumidos"})
	settled := prometheus.NewCounter(prometheus.CounterOpts{Name: "settlement_bets_settled_total", Help: "apostas liquidadas"})
	skipped := prometheus.NewCounter(prometheus.CounterOpts{Name: "settlement_bets_skipped_total", Help: "apostas já liquidadas (corrida)"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "settlement_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(consumed, settled, skipped, errorsBy)

	// Servidor de métricas/health: saudável se a API do ledger responde
	httpCli := &http.Client{Timeout: time.Second}
	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, cfg.LedgerURL+"/info", nil)
		res, err := httpCli.Do(req)
		if err != nil {
			return fmt.Errorf("ledger: %w", err)
		}
		defer res.Body.Close()
		if res.StatusCode >= 300 {
			return fmt.Errorf("ledger http %d", res.StatusCode)
		}
		return nil
	})
	log.Info("metrics/health listening", zap.String("addr", metricsSrv.Addr))

	worker := &settlement.Worker{
		Log:        log,
		Reader:     reader,
		Ledger:     ledgerCli,
		DLQ:        dlq,
		OnConsumed: func() { consumed.Inc() },
		OnSettled:  func() { settled.Inc() },
		OnSkipped:  func() { skipped.Inc() },
		OnError:    func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("settlement-worker started", zap.String("consume", cfg.TopicOutcomeSet))
	if err := worker.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("worker stopped with error", zap.Error(err))
	}
	log.Info("settlement-worker stopped")
}
