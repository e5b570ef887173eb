package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Payer é a primitiva externa de transferência de valores (pay(to, amount)).
// Pode falhar; a falha aborta a mutação inteira do ledger (nada é gravado).
type Payer interface {
	Pay(ctx context.Context, to string, amountCents int64) error
}

// Modos de saque do owner (ver Config.WithdrawMode).
const (
	WithdrawSafe   = "safe"   // available = held - outstanding
	WithdrawLegacy = "legacy" // replica o contrato original: saque até o total held
)

// Config é o estado de construção do ledger, imutável após New.
type Config struct {
	OwnerID      string
	WithdrawMode string
	Policy       PayoutPolicy

	// Parâmetros opacos do construtor original; guardados, sem efeito contábil.
	Param1 string
	Param2 string
}

// Ledger é a máquina de estado single-writer que guarda apostas,
// resultados declarados e o saldo em custódia. Toda mutação roda
// inteira sob o mutex: ou completa, ou falha sem efeito. Leituras
// devolvem cópias tiradas sob o mesmo lock (snapshot).
type Ledger struct {
	mu sync.Mutex

	cfg   Config
	payer Payer

	bets         []Bet
	outcomes     map[string]Outcome
	heldCents    int64 // custódia total
	pendingCents int64 // soma dos stakes de apostas ainda não liquidadas
}

func New(cfg Config, payer Payer) *Ledger {
	if cfg.Policy == nil {
		cfg.Policy = FixedMultiple(2.0)
	}
	if cfg.WithdrawMode == "" {
		cfg.WithdrawMode = WithdrawSafe
	}
	return &Ledger{
		cfg:      cfg,
		payer:    payer,
		outcomes: make(map[string]Outcome),
	}
}

// Restore reconstrói o ledger a partir do diário persistente: apostas em
// ordem de id, resultados declarados e o saldo de custódia apurado do
// custody_ledger. Outstanding é recomputado das apostas abertas.
func Restore(cfg Config, payer Payer, bets []Bet, outcomes []Outcome, heldCents int64) *Ledger {
	l := New(cfg, payer)
	l.bets = copyBets(bets)
	l.heldCents = heldCents
	for _, b := range bets {
		if !b.Settled {
			l.pendingCents += b.AmountCents
		}
	}
	for _, o := range outcomes {
		l.outcomes[o.Category] = o
	}
	return l
}

// Owner devolve a identidade configurada como owner.
func (l *Ledger) Owner() string { return l.cfg.OwnerID }

// Params devolve os parâmetros opacos de construção.
func (l *Ledger) Params() (string, string) { return l.cfg.Param1, l.cfg.Param2 }

// PlaceBet registra uma aposta com a assinatura canônica (estendida).
// Credita o stake na custódia e devolve o registro criado.
func (l *Ledger) PlaceBet(_ context.Context, in PlaceBetInput) (Bet, error) {
	if in.AmountCents <= 0 {
		return Bet{}, ErrInvalidAmount
	}
	if in.Category == "" || in.Choice == "" {
		return Bet{}, ErrInvalidChoice
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	b := Bet{
		ID:          int64(len(l.bets)), // índice sequencial, nunca reutilizado
		User:        in.User,
		Category:    in.Category,
		Choice:      in.Choice,
		Reference:   in.Reference,
		Param1:      in.Param1,
		Param2:      in.Param2,
		Aux:         append([]string(nil), in.Aux...),
		AmountCents: in.AmountCents,
		PlacedAt:    time.Now(),
	}

	l.bets = append(l.bets, b)
	l.heldCents += in.AmountCents
	l.pendingCents += in.AmountCents

	return b, nil
}

// PlaceBetSimple é o shim de compatibilidade com a assinatura
// placeBet(choice) da primeira versão da API: categoria default,
// sem metadados.
func (l *Ledger) PlaceBetSimple(ctx context.Context, user, choice string, amountCents int64) (Bet, error) {
	return l.PlaceBet(ctx, PlaceBetInput{
		User:        user,
		Category:    DefaultCategory,
		Choice:      choice,
		AmountCents: amountCents,
	})
}

// GetAllBets devolve um snapshot de todas as apostas, em ordem de criação.
func (l *Ledger) GetAllBets() []Bet {
	l.mu.Lock()
	defer l.mu.Unlock()
	return copyBets(l.bets)
}

// GetBets devolve as apostas de um depositante, em ordem de criação.
func (l *Ledger) GetBets(user string) []Bet {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []Bet
	for _, b := range l.bets {
		if b.User == user {
			out = append(out, cloneBet(b))
		}
	}
	return out
}

// GetBet devolve uma aposta pelo id.
func (l *Ledger) GetBet(id int64) (Bet, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if id < 0 || id >= int64(len(l.bets)) {
		return Bet{}, ErrNotFound
	}
	return cloneBet(l.bets[id]), nil
}

// OpenBets devolve as apostas não liquidadas de uma categoria.
func (l *Ledger) OpenBets(category string) []Bet {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []Bet
	for _, b := range l.bets {
		if !b.Settled && b.Category == category {
			out = append(out, cloneBet(b))
		}
	}
	return out
}

// SetOutcome registra (ou sobrescreve) o resultado vencedor de uma
// categoria. Apenas o owner; nenhum valor se move aqui.
func (l *Ledger) SetOutcome(caller, category, winner, winnerRef string) (Outcome, error) {
	if caller != l.cfg.OwnerID {
		return Outcome{}, ErrUnauthorized
	}
	if category == "" || winner == "" {
		return Outcome{}, ErrInvalidChoice
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	out := Outcome{
		Category:   category,
		Winner:     winner,
		WinnerRef:  winnerRef,
		DeclaredAt: time.Now(),
	}
	l.outcomes[category] = out
	return out, nil
}

// OutcomeFor devolve o resultado declarado de uma categoria, se houver.
func (l *Ledger) OutcomeFor(category string) (Outcome, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out, ok := l.outcomes[category]
	return out, ok
}

// SettleBet liquida a aposta contra o resultado declarado da categoria.
// Transição terminal Placed -> Settled; a segunda tentativa falha com
// ErrAlreadySettled. A aposta só pode ser liquidada contra a própria
// categoria: aceitar outra permitiria casar a escolha com o vencedor de
// um mercado alheio e extrair payout. Se a escolha bate com o vencedor,
// o payout vem da política configurada e é transferido ao apostador via
// Payer; se a transferência falhar, nada muda (nem o flag settled).
func (l *Ledger) SettleBet(ctx context.Context, betID int64, category string) (Bet, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if betID < 0 || betID >= int64(len(l.bets)) {
		return Bet{}, ErrNotFound
	}
	b := &l.bets[betID]
	if b.Category != category {
		return Bet{}, ErrNotFound
	}
	if b.Settled {
		return Bet{}, ErrAlreadySettled
	}
	out, ok := l.outcomes[category]
	if !ok {
		return Bet{}, ErrOutcomeNotSet
	}

	var payout int64
	if b.Choice == out.Winner {
		payout = l.cfg.Policy(cloneBet(*b), out, l.poolLocked(category))
		if payout < 0 {
			payout = 0
		}
	}

	if err := l.settleLocked(ctx, b, payout); err != nil {
		return Bet{}, err
	}
	return cloneBet(*b), nil
}

// SettleBetDirect é a variante discricionária: o owner atribui o payout
// explicitamente, sem lookup de resultado. O mesmo guard de estado e o
// mesmo invariante de custódia se aplicam.
func (l *Ledger) SettleBetDirect(ctx context.Context, caller string, betID int64, payoutCents int64) (Bet, error) {
	if caller != l.cfg.OwnerID {
		return Bet{}, ErrUnauthorized
	}
	if payoutCents < 0 {
		return Bet{}, ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if betID < 0 || betID >= int64(len(l.bets)) {
		return Bet{}, ErrNotFound
	}
	b := &l.bets[betID]
	if b.Settled {
		return Bet{}, ErrAlreadySettled
	}

	if err := l.settleLocked(ctx, b, payoutCents); err != nil {
		return Bet{}, err
	}
	return cloneBet(*b), nil
}

// settleLocked aplica a liquidação sob o lock: valida o invariante de
// custódia, executa a transferência e só então grava a mutação. A ordem
// garante rollback trivial: falha de transferência deixa tudo como estava.
func (l *Ledger) settleLocked(ctx context.Context, b *Bet, payout int64) error {
	// custódia pós-liquidação precisa cobrir as demais apostas abertas
	if payout > l.heldCents-(l.pendingCents-b.AmountCents) {
		return ErrInsufficientFunds
	}

	if payout > 0 {
		if err := l.payer.Pay(ctx, b.User, payout); err != nil {
			return fmt.Errorf("payout transfer: %w", err)
		}
	}

	b.Settled = true
	b.PayoutCents = payout
	b.SettledAt = time.Now()
	l.heldCents -= payout
	l.pendingCents -= b.AmountCents
	return nil
}

// Withdraw transfere custódia para o owner. No modo safe o limite é o
// saldo não comprometido (held - outstanding); no modo legacy, o total
// held, como no contrato original.
func (l *Ledger) Withdraw(ctx context.Context, caller string, amountCents int64) error {
	if caller != l.cfg.OwnerID {
		return ErrUnauthorized
	}
	if amountCents <= 0 {
		return ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	limit := l.heldCents
	if l.cfg.WithdrawMode != WithdrawLegacy {
		limit = l.heldCents - l.pendingCents
	}
	if amountCents > limit {
		return ErrInsufficientFunds
	}

	if err := l.payer.Pay(ctx, l.cfg.OwnerID, amountCents); err != nil {
		return fmt.Errorf("withdraw transfer: %w", err)
	}

	l.heldCents -= amountCents
	return nil
}

// Fund credita liquidez de casa na custódia (owner). É o que permite
// payouts maiores que o pool de stakes (ex: múltiplo fixo).
func (l *Ledger) Fund(_ context.Context, caller string, amountCents int64) error {
	if caller != l.cfg.OwnerID {
		return ErrUnauthorized
	}
	if amountCents <= 0 {
		return ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.heldCents += amountCents
	return nil
}

// Balance devolve o saldo total em custódia.
func (l *Ledger) Balance() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.heldCents
}

// Outstanding devolve a soma dos stakes das apostas não liquidadas.
func (l *Ledger) Outstanding() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pendingCents
}

// Available devolve o saldo sacável no modo safe (held - outstanding).
func (l *Ledger) Available() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.heldCents - l.pendingCents
}

// poolLocked soma os stakes vencedores e perdedores da categoria.
// Considera todas as apostas da categoria, liquidadas ou não, para que
// o rateio parimutuel independa da ordem de liquidação.
func (l *Ledger) poolLocked(category string) Pool {
	out := l.outcomes[category]
	var p Pool
	for _, b := range l.bets {
		if b.Category != category {
			continue
		}
		if b.Choice == out.Winner {
			p.WinningCents += b.AmountCents
		} else {
			p.LosingCents += b.AmountCents
		}
	}
	return p
}

func cloneBet(b Bet) Bet {
	b.Aux = append([]string(nil), b.Aux...)
	return b
}

func copyBets(src []Bet) []Bet {
	out := make([]Bet, len(src))
	for i, b := range src {
		out[i] = cloneBet(b)
	}
	return out
}
