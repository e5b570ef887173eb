package topics

const (
	// Apostas
	BetPlaced  = "bet_placed"
	BetSettled = "bet_settled"

	// Resultados declarados pelo owner
	OutcomeSet = "outcome_set"

	// DLQs
	OutcomeSetDLQ = "outcome_set_dlq"
	BetSettledDLQ = "bet_settled_dlq"
)
