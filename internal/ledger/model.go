package ledger

import "time"

// Bet é o registro imutável de uma aposta. Campos de identidade e
// stake nunca mudam após a criação; apenas a liquidação (Settled,
// PayoutCents, SettledAt) transiciona, uma única vez.
type Bet struct {
	ID          int64
	User        string
	Category    string
	Choice      string
	Reference   string   // endereço de referência (ex: tabela de odds), metadado opaco
	Param1      string   // parâmetros numéricos opacos do placeBet estendido
	Param2      string
	Aux         []string // lista auxiliar opaca, guardada para lookup na liquidação
	AmountCents int64
	Settled     bool
	PayoutCents int64
	PlacedAt    time.Time
	SettledAt   time.Time
}

// Outcome é o resultado declarado pelo owner para uma categoria.
// Winner é comparado com Bet.Choice na liquidação; WinnerRef é um
// refinamento opcional (id numérico do vencedor, por exemplo).
type Outcome struct {
	Category   string
	Winner     string
	WinnerRef  string
	DeclaredAt time.Time
}

// PlaceBetInput carrega a assinatura canônica (estendida) do placeBet.
type PlaceBetInput struct {
	User        string
	Category    string
	Choice      string
	Reference   string
	Param1      string
	Param2      string
	Aux         []string
	AmountCents int64
}

// DefaultCategory é a categoria usada pelo shim de compatibilidade
// com a assinatura simples placeBet(choice).
const DefaultCategory = "winner"
