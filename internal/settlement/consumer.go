package settlement

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	sharedkafka "github.com/radieske/private-betting-ledger/internal/shared/kafka"
	"github.com/radieske/private-betting-ledger/pkg/contracts/events"
)

// Worker consome eventos outcome_set e liquida todas as apostas abertas
// da categoria através da API do ledger. Callbacks de métricas podem ser
// usadas para monitoramento de cada etapa.
type Worker struct {
	Log    *zap.Logger
	Reader *kafka.Reader
	Ledger *Client
	DLQ    *kafka.Writer // opcional: eventos que esgotaram os retries

	OnConsumed func()       // métricas (counter++)
	OnSettled  func()       // métricas
	OnSkipped  func()       // métricas: aposta já liquidada (corrida)
	OnError    func(string) // métricas por fase
}

// Run inicia o loop principal de consumo e liquidação.
func (w *Worker) Run(ctx context.Context) error {
	for {
		_, value, err := sharedkafka.ReadNext(ctx, w.Reader)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err() // encerra se o contexto for cancelado
			}
			w.Log.Warn("kafka read failed", zap.Error(err))
			if w.OnError != nil {
				w.OnError("read")
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}

		if w.OnConsumed != nil {
			w.OnConsumed()
		}

		var ev events.OutcomeSet
		if err := json.Unmarshal(value, &ev); err != nil {
			w.Log.Warn("invalid message", zap.Error(err))
			if w.OnError != nil {
				w.OnError("decode")
			}
			continue
		}

		if err := w.settleCategory(ctx, ev); err != nil {
			w.Log.Error("settle category", zap.String("category", ev.Category), zap.Error(err))
			if w.OnError != nil {
				w.OnError("settle")
			}
			if w.DLQ != nil {
				_ = sharedkafka.WriteJSON(ctx, w.DLQ, ev.Category, value)
			}
		}
	}
}

// settleCategory lista as apostas abertas e liquida uma a uma.
// Cada aposta tem retry próprio; a liquidação é idempotente do lado do
// ledger (segunda tentativa devolve conflito, tratado como skip).
func (w *Worker) settleCategory(ctx context.Context, ev events.OutcomeSet) error {
	open, err := w.Ledger.OpenBets(ctx, ev.Category)
	if err != nil {
		return err
	}

	w.Log.Info("settling open bets",
		zap.String("category", ev.Category),
		zap.String("winner", ev.Winner),
		zap.Int("count", len(open)),
	)

	for _, b := range open {
		settled, err := w.settleWithRetry(ctx, b.BetID, ev.Category)
		if err != nil {
			return err
		}
		if settled {
			if w.OnSettled != nil {
				w.OnSettled()
			}
		} else if w.OnSkipped != nil {
			w.OnSkipped()
		}
	}
	return nil
}

func (w *Worker) settleWithRetry(ctx context.Context, betID int64, category string) (bool, error) {
	const retries = 3
	var (
		settled bool
		err     error
	)
	for i := 0; i < retries; i++ {
		settled, err = w.Ledger.Settle(ctx, betID, category)
		if err == nil {
			return settled, nil
		}
		time.Sleep(time.Duration(300*(i+1)) * time.Millisecond)
	}
	return false, err
}
