package ledger

// Pool agrega, por categoria, os stakes do lado vencedor e do lado
// perdedor no momento da liquidação. Calculado sobre todas as apostas
// da categoria (liquidadas ou não) para que o rateio seja determinístico
// independente da ordem de liquidação.
type Pool struct {
	WinningCents int64
	LosingCents  int64
}

// PayoutPolicy calcula o payout (em cents) de uma aposta vencedora.
// A política é plugável: o engine de liquidação nunca embute a fórmula.
type PayoutPolicy func(bet Bet, out Outcome, pool Pool) int64

// FixedMultiple devolve stake x multiplicador (ex: 2.0 paga o dobro do stake).
func FixedMultiple(multiplier float64) PayoutPolicy {
	return func(bet Bet, _ Outcome, _ Pool) int64 {
		if multiplier <= 0 {
			return 0
		}
		return int64(float64(bet.AmountCents) * multiplier)
	}
}

// Parimutuel devolve o stake mais a fração proporcional do pool perdedor.
func Parimutuel() PayoutPolicy {
	return func(bet Bet, _ Outcome, pool Pool) int64 {
		if pool.WinningCents <= 0 {
			return bet.AmountCents
		}
		share := pool.LosingCents * bet.AmountCents / pool.WinningCents
		return bet.AmountCents + share
	}
}

// PolicyFor resolve a política pelo nome configurado ("fixed" | "parimutuel").
// Nome desconhecido cai em FixedMultiple com o multiplicador dado.
func PolicyFor(name string, multiplier float64) PayoutPolicy {
	switch name {
	case "parimutuel":
		return Parimutuel()
	default:
		return FixedMultiple(multiplier)
	}
}
