package treasury

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	tdto "github.com/radieske/private-betting-ledger/internal/treasury/dto"
)

// Client fala com o serviço externo de tesouraria que efetiva as
// transferências de valor (payouts e saques). Qualquer resposta não-2xx
// é tratada como falha e aborta a mutação no ledger.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(base string) *Client {
	return &Client{
		BaseURL: base,
		HTTP:    &http.Client{Timeout: 2 * time.Second},
	}
}

func (c *Client) Pay(ctx context.Context, to string, amountCents int64) error {
	body, _ := json.Marshal(tdto.PayRequest{ToUserID: to, AmountCents: amountCents})
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/treasury/pay", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return fmt.Errorf("treasury pay http %d", res.StatusCode)
	}

	var out tdto.PayResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return err
	}
	if out.Status != "COMPLETED" {
		return fmt.Errorf("treasury pay status %s", out.Status)
	}
	return nil
}
