package ledger

import "errors"

// Taxonomia de erros do ledger. Toda operação rejeitada retorna um
// destes sentinelas (possivelmente embrulhado) e não altera estado.
var (
	ErrInvalidAmount     = errors.New("amount must be greater than zero")
	ErrInvalidChoice     = errors.New("category and choice must not be empty")
	ErrUnauthorized      = errors.New("caller is not the owner")
	ErrNotFound          = errors.New("bet not found")
	ErrAlreadySettled    = errors.New("bet already settled")
	ErrOutcomeNotSet     = errors.New("no outcome recorded for category")
	ErrInsufficientFunds = errors.New("insufficient custody funds")
)
