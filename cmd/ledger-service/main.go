package main

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/radieske/private-betting-ledger/internal/ledger"
	lcache "github.com/radieske/private-betting-ledger/internal/ledger-service/cache"
	lhttp "github.com/radieske/private-betting-ledger/internal/ledger-service/http"
	kpub "github.com/radieske/private-betting-ledger/internal/ledger-service/producer"
	"github.com/radieske/private-betting-ledger/internal/ledger-service/repo"
	sharedcache "github.com/radieske/private-betting-ledger/internal/shared/cache"
	"github.com/radieske/private-betting-ledger/internal/shared/config"
	"github.com/radieske/private-betting-ledger/internal/shared/db"
	sharedkafka "github.com/radieske/private-betting-ledger/internal/shared/kafka"
	"github.com/radieske/private-betting-ledger/internal/shared/logger"
	"github.com/radieske/private-betting-ledger/internal/shared/metrics"
	"github.com/radieske/private-betting-ledger/internal/treasury"
)

func main() {
	cfg := config.Load()
	log, err := logger.New("ledger-service", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("starting service", zap.String("owner", cfg.OwnerID), zap.String("withdraw_mode", cfg.WithdrawMode))

	// Postgres: diário persistente de apostas e custódia
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()
	journal := repo.NewPostgres(pg)

	// Redis: cache de resultados declarados
	rdb, err := sharedcache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer rdb.Close()
	ocache := lcache.NewOutcomeCache(rdb, 0) // sem TTL: resultado declarado não expira

	// Kafka writers: um por tópico do ledger
	placedW := sharedkafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetPlaced)
	outcomeW := sharedkafka.NewWriter(cfg.KafkaBrokers, cfg.TopicOutcomeSet)
	settledW := sharedkafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetSettled)
	defer placedW.Close()
	defer outcomeW.Close()
	defer settledW.Close()
	publ := kpub.NewKafkaPublisher(placedW, outcomeW, settledW)

	// Primitiva externa de transferência: tesouraria HTTP, ou em memória
	// quando não configurada (env local)
	var payer ledger.Payer
	if cfg.TreasuryURL != "" {
		payer = treasury.NewClient(cfg.TreasuryURL)
	} else {
		log.Warn("no treasury configured, using in-memory payer")
		payer = treasury.NewMemory()
	}

	// Reconstrói o estado do core a partir do diário
	ctx := context.Background()
	bets, err := journal.LoadBets(ctx)
	if err != nil {
		log.Fatal("load bets", zap.Error(err))
	}
	outcomes, err := journal.LoadOutcomes(ctx)
	if err != nil {
		log.Fatal("load outcomes", zap.Error(err))
	}
	held, err := journal.HeldBalance(ctx)
	if err != nil {
		log.Fatal("load custody balance", zap.Error(err))
	}

	core := ledger.Restore(ledger.Config{
		OwnerID:      cfg.OwnerID,
		WithdrawMode: cfg.WithdrawMode,
		Policy:       ledger.PolicyFor(cfg.PayoutPolicy, cfg.PayoutMultiplier),
		Param1:       cfg.Param1,
		Param2:       cfg.Param2,
	}, payer, bets, outcomes, held)

	log.Info("ledger restored",
		zap.Int("bets", len(bets)),
		zap.Int("outcomes", len(outcomes)),
		zap.Int64("held_cents", held),
		zap.Int64("outstanding_cents", core.Outstanding()),
	)

	// Métricas operacionais + servidor de /metrics e /healthz
	mtr := metrics.NewLedgerMetrics()
	mtr.CustodyBalance.Set(float64(core.Balance()))
	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return fmt.Errorf("pg: %w", err)
		}
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		return nil
	})
	log.Info("metrics/health listening", zap.String("addr", metricsSrv.Addr))

	// API pública
	api := lhttp.NewServer(log, core, journal, publ, ocache, mtr)
	apiSrv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: api.Router(),
	}

	log.Info("ledger-service listening", zap.String("addr", apiSrv.Addr))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api srv", zap.Error(err))
	}
}
