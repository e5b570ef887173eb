package producer

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/radieske/private-betting-ledger/pkg/contracts/events"
)

// KafkaPublisher publica os eventos do ledger em três tópicos distintos.
// Falha de publicação não desfaz a mutação no core: eventos são pós-fato.
type KafkaPublisher struct {
	Placed   *kafka.Writer
	Outcomes *kafka.Writer
	Settled  *kafka.Writer
}

func NewKafkaPublisher(placed, outcomes, settled *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{Placed: placed, Outcomes: outcomes, Settled: settled}
}

func (p *KafkaPublisher) PublishBetPlaced(ctx context.Context, e events.BetPlaced) error {
	e.TsUnixMs = time.Now().UnixMilli()
	b, _ := json.Marshal(e)
	return p.Placed.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(e.BetID, 10)),
		Value: b,
	})
}

func (p *KafkaPublisher) PublishOutcomeSet(ctx context.Context, e events.OutcomeSet) error {
	b, _ := json.Marshal(e)
	return p.Outcomes.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.Category),
		Value: b,
	})
}

func (p *KafkaPublisher) PublishBetSettled(ctx context.Context, e events.BetSettled) error {
	b, _ := json.Marshal(e)
	return p.Settled.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(e.BetID, 10)),
		Value: b,
	})
}
