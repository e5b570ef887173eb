package dto

// PlaceBetRequest cobre as duas assinaturas: a canônica (estendida) e a
// simples. Payload só com choice+amount cai no shim de compatibilidade.
type PlaceBetRequest struct {
	Category    string   `json:"category,omitempty"`
	Choice      string   `json:"choice"`
	Reference   string   `json:"reference,omitempty"`
	Param1      string   `json:"param1,omitempty"`
	Param2      string   `json:"param2,omitempty"`
	Aux         []string `json:"aux,omitempty"`
	AmountCents int64    `json:"amount_cents"`
}

type SetOutcomeRequest struct {
	Category  string `json:"category"`
	Winner    string `json:"winner"`
	WinnerRef string `json:"winner_ref,omitempty"`
}

// SettleRequest escolhe a variante: com Category, liquida contra o
// resultado declarado; com PayoutCents, é a liquidação direta (owner).
type SettleRequest struct {
	BetID       int64  `json:"betId"`
	Category    string `json:"category,omitempty"`
	PayoutCents *int64 `json:"payout_cents,omitempty"`
}

type WithdrawRequest struct {
	AmountCents int64 `json:"amount_cents"`
}

type FundRequest struct {
	AmountCents int64 `json:"amount_cents"`
}
