package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/private-betting-ledger/internal/ledger"
)

// OutcomeCache guarda no Redis o resultado declarado por categoria,
// para leitura barata pelo settlement-worker e pela API sem bater no core.
type OutcomeCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewOutcomeCache(c *redis.Client, ttl time.Duration) *OutcomeCache {
	return &OutcomeCache{Client: c, TTL: ttl}
}

// key gera a chave Redis do resultado de uma categoria
func key(category string) string { return "outcome:" + category }

// Set grava o resultado declarado com TTL definido.
func (c *OutcomeCache) Set(ctx context.Context, o ledger.Outcome) error {
	b, err := json.Marshal(o)
	if err != nil {
		return err
	}
	return c.Client.Set(ctx, key(o.Category), b, c.TTL).Err()
}

// Get devolve o resultado cacheado; (zero, false, nil) em cache miss.
func (c *OutcomeCache) Get(ctx context.Context, category string) (ledger.Outcome, bool, error) {
	raw, err := c.Client.Get(ctx, key(category)).Bytes()
	if err == redis.Nil {
		return ledger.Outcome{}, false, nil
	}
	if err != nil {
		return ledger.Outcome{}, false, err
	}

	var o ledger.Outcome
	if err := json.Unmarshal(raw, &o); err != nil {
		return ledger.Outcome{}, false, err
	}
	return o, true, nil
}
