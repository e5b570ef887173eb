package settlement

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	ldto "github.com/radieske/private-betting-ledger/internal/ledger-service/dto"
)

// Client fala com a API do ledger-service para listar apostas abertas
// e disparar liquidações. O worker nunca toca o estado diretamente:
// toda mutação passa pela mesma porta de entrada dos demais callers.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(base string) *Client {
	return &Client{
		BaseURL: base,
		HTTP:    &http.Client{Timeout: 3 * time.Second},
	}
}

// OpenBets lista as apostas não liquidadas de uma categoria.
func (c *Client) OpenBets(ctx context.Context, category string) ([]ldto.BetResponse, error) {
	url := fmt.Sprintf("%s/bets?category=%s&open=true", c.BaseURL, category)
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)

	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return nil, fmt.Errorf("ledger open bets http %d", res.StatusCode)
	}

	var out []ldto.BetResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// Settle liquida uma aposta contra o resultado declarado da categoria.
// Conflitos 409 (já liquidada em corrida com outra instância) não são erro.
func (c *Client) Settle(ctx context.Context, betID int64, category string) (settled bool, err error) {
	body, _ := json.Marshal(ldto.SettleRequest{BetID: betID, Category: category})
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/settlements", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return false, err
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode < 300:
		return true, nil
	case res.StatusCode == http.StatusConflict:
		return false, nil
	default:
		return false, fmt.Errorf("ledger settle http %d", res.StatusCode)
	}
}
