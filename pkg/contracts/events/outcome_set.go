package events

import "time"

// Evento publicado no tópico "outcome_set" quando o owner declara
// o resultado vencedor de uma categoria. O settlement-worker consome
// este evento para liquidar as apostas abertas da categoria.
type OutcomeSet struct {
	Category   string    `json:"category"`
	Winner     string    `json:"winner"`
	WinnerRef  string    `json:"winner_ref,omitempty"` // refinamento opcional (ex: id do participante)
	DeclaredBy string    `json:"declared_by"`
	DeclaredAt time.Time `json:"declared_at"`
}
