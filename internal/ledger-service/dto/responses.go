package dto

import "time"

type BetResponse struct {
	BetID       int64      `json:"betId"`
	UserID      string     `json:"userId"`
	Category    string     `json:"category"`
	Choice      string     `json:"choice"`
	Reference   string     `json:"reference,omitempty"`
	Param1      string     `json:"param1,omitempty"`
	Param2      string     `json:"param2,omitempty"`
	Aux         []string   `json:"aux,omitempty"`
	AmountCents int64      `json:"amount_cents"`
	Settled     bool       `json:"settled"`
	PayoutCents int64      `json:"payout_cents"`
	PlacedAt    time.Time  `json:"placed_at"`
	SettledAt   *time.Time `json:"settled_at,omitempty"`
}

type OutcomeResponse struct {
	Category   string    `json:"category"`
	Winner     string    `json:"winner"`
	WinnerRef  string    `json:"winner_ref,omitempty"`
	DeclaredAt time.Time `json:"declared_at"`
}

type CustodyResponse struct {
	HeldCents        int64 `json:"held_cents"`
	OutstandingCents int64 `json:"outstanding_cents"`
	AvailableCents   int64 `json:"available_cents"`
}

type InfoResponse struct {
	Owner  string `json:"owner"`
	Param1 string `json:"param1"`
	Param2 string `json:"param2"`
}
