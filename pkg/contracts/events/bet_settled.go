package events

import "time"

// Evento emitido após a liquidação de uma aposta (automática ou direta).
type BetSettled struct {
	BetID       int64     `json:"betId"`
	UserID      string    `json:"userId"`
	Category    string    `json:"category"`
	Won         bool      `json:"won"`
	PayoutCents int64     `json:"payout_cents"`
	Mode        string    `json:"mode"` // "OUTCOME" | "DIRECT"
	Ts          time.Time `json:"ts"`
}
