package events

type BetPlaced struct {
	BetID       int64    `json:"bet_id"`
	UserID      string   `json:"user_id"`
	Category    string   `json:"category"`
	Choice      string   `json:"choice"`
	AmountCents int64    `json:"amount_cents"`
	Reference   string   `json:"reference,omitempty"`
	Aux         []string `json:"aux,omitempty"`
	TsUnixMs    int64    `json:"ts_unix_ms"`
}
