package repo

import "time"

// Movement é um lançamento do diário de custódia (custody_ledger).
// Todo movimento de valor no core gera exatamente uma linha aqui.
type Movement struct {
	ID          string
	Type        string // CREDIT | FUND | PAYOUT | WITHDRAW
	AmountCents int64
	BetID       *int64
	Description string
	CreatedAt   time.Time
}

const (
	MovementCredit   = "CREDIT"
	MovementFund     = "FUND"
	MovementPayout   = "PAYOUT"
	MovementWithdraw = "WITHDRAW"
)
